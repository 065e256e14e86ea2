// Package memory implements an in-memory entry repository for development
// and testing. It mirrors the PostgreSQL adapter's semantics: duplicate
// (user, date) creates fail, updates replace every mutable field, and range
// queries return entries newest first.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/jguzman/physiolog/internal/entries"
	"github.com/jguzman/physiolog/internal/models"
)

// Repo is an in-memory entry store.
type Repo struct {
	mu      sync.Mutex
	entries []models.HealthEntry
	logs    []models.ImportLog

	entryIDCounter int64
	logIDCounter   int64
}

// New creates an empty in-memory repository.
func New() *Repo {
	return &Repo{}
}

// Ensure the port is met.
var _ entries.Repository = (*Repo)(nil)

// Create adds a new entry, rejecting duplicate (user, date) pairs.
func (r *Repo) Create(ctx context.Context, userID int, date time.Time, f entries.Fields) (models.HealthEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	day := truncate(date)
	for _, e := range r.entries {
		if e.UserID == userID && e.Date.Equal(day) {
			return models.HealthEntry{}, models.ErrDuplicateDate
		}
	}

	r.entryIDCounter++
	entry := models.HealthEntry{
		ID:     r.entryIDCounter,
		UserID: userID,
		Date:   day,
	}
	applyFields(&entry, f)
	r.entries = append(r.entries, entry)
	return entry, nil
}

// FindByDate returns the entry at the given date.
func (r *Repo) FindByDate(ctx context.Context, userID int, date time.Time) (models.HealthEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	day := truncate(date)
	for _, e := range r.entries {
		if e.UserID == userID && e.Date.Equal(day) {
			return e, nil
		}
	}
	return models.HealthEntry{}, models.ErrNotFound
}

// FindInRange returns entries within the inclusive bounds, newest first.
func (r *Repo) FindInRange(ctx context.Context, userID int, start, end *time.Time) ([]models.HealthEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var result []models.HealthEntry
	for _, e := range r.entries {
		if e.UserID != userID {
			continue
		}
		if start != nil && e.Date.Before(truncate(*start)) {
			continue
		}
		if end != nil && e.Date.After(truncate(*end)) {
			continue
		}
		result = append(result, e)
	}
	sortNewestFirst(result)
	return result, nil
}

// UpdateFields replaces all mutable fields of the entry at the given date.
func (r *Repo) UpdateFields(ctx context.Context, userID int, date time.Time, f entries.Fields) (models.HealthEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	day := truncate(date)
	for i := range r.entries {
		if r.entries[i].UserID == userID && r.entries[i].Date.Equal(day) {
			applyFields(&r.entries[i], f)
			return r.entries[i], nil
		}
	}
	return models.HealthEntry{}, models.ErrNotFound
}

// ListAll returns every entry for the user, newest first.
func (r *Repo) ListAll(ctx context.Context, userID int) ([]models.HealthEntry, error) {
	return r.FindInRange(ctx, userID, nil, nil)
}

// InsertImportLog records a bulk-import run.
func (r *Repo) InsertImportLog(ctx context.Context, log models.ImportLog) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.logIDCounter++
	log.ID = r.logIDCounter
	if log.CreatedAt.IsZero() {
		log.CreatedAt = time.Now().UTC()
	}
	r.logs = append(r.logs, log)
	return log.ID, nil
}

// QueryImportLogs returns the most recent import logs for a user.
func (r *Repo) QueryImportLogs(ctx context.Context, userID, limit int) ([]models.ImportLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if limit <= 0 {
		limit = 50
	}
	var result []models.ImportLog
	for i := len(r.logs) - 1; i >= 0 && len(result) < limit; i-- {
		if r.logs[i].UserID == userID {
			result = append(result, r.logs[i])
		}
	}
	return result, nil
}

// applyFields overwrites every mutable field. Nil payload fields become
// nil stored fields: an update is a full-field replace, not a partial patch.
func applyFields(e *models.HealthEntry, f entries.Fields) {
	e.Weight = f.Weight
	e.BodyFat = f.BodyFat
	e.Calories = f.Calories
	e.TrainingVolume = f.TrainingVolume
	e.Steps = f.Steps
	e.SleepTotal = f.SleepTotal
	e.SleepQuality = f.SleepQuality
	e.Observations = f.Observations
}

func truncate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func sortNewestFirst(list []models.HealthEntry) {
	sort.Slice(list, func(i, j int) bool {
		return list[i].Date.After(list[j].Date)
	})
}
