// Package entries holds the repository port and the service that applies
// the create/update/query semantics of daily health entries.
package entries

import (
	"context"
	"fmt"
	"time"

	"github.com/jguzman/physiolog/internal/models"
	"github.com/jguzman/physiolog/internal/parse"
	"github.com/jguzman/physiolog/internal/stats"
)

// Fields are the mutable fields of an entry. Updates replace all of them at
// once: a nil field in an update payload overwrites the stored value with
// NULL, it does not preserve it.
type Fields struct {
	Weight         *float64
	BodyFat        *float64
	Calories       *int
	TrainingVolume *float64
	Steps          *int
	SleepTotal     *float64
	SleepQuality   *string
	Observations   *string
}

// Repository is the persistence port. The (userID, date) uniqueness
// constraint is enforced transactionally by the adapter (a unique index),
// never by a check-then-insert in this package: concurrent creates for the
// same date must resolve with exactly one success.
type Repository interface {
	// Create persists a new entry; models.ErrDuplicateDate when one
	// already exists for (userID, date).
	Create(ctx context.Context, userID int, date time.Time, f Fields) (models.HealthEntry, error)
	// FindByDate returns the entry at the date; models.ErrNotFound when absent.
	FindByDate(ctx context.Context, userID int, date time.Time) (models.HealthEntry, error)
	// FindInRange returns entries with start <= date <= end (either bound
	// optional), newest first.
	FindInRange(ctx context.Context, userID int, start, end *time.Time) ([]models.HealthEntry, error)
	// UpdateFields replaces all mutable fields of the entry at the date;
	// models.ErrNotFound when absent.
	UpdateFields(ctx context.Context, userID int, date time.Time, f Fields) (models.HealthEntry, error)
	// ListAll returns every entry for the user, newest first.
	ListAll(ctx context.Context, userID int) ([]models.HealthEntry, error)
}

// Input is the raw create/update payload as received at the boundary.
// SleepTotal stays untyped so the parser can reject non-string values
// (decimal hours are never accepted as API input).
type Input struct {
	Date           string   `json:"date"`
	Weight         *float64 `json:"weight"`
	BodyFat        *float64 `json:"body_fat"`
	Calories       *int     `json:"calories"`
	TrainingVolume *float64 `json:"training_volume"`
	Steps          *int     `json:"steps"`
	SleepTotal     any      `json:"sleep_total"`
	SleepQuality   *string  `json:"sleep_quality"`
	Observations   *string  `json:"observations"`
}

// StatsResult is a computed statistics summary together with the resolved
// window it covers.
type StatsResult struct {
	Window     string
	WindowDays int
	StartDate  *time.Time // nil only when an all-time request matched entries without dates, which cannot happen in practice
	EndDate    time.Time
	Summary    stats.Summary
}

// Service implements the entry operations on top of an injected repository.
type Service struct {
	repo Repository
	now  func() time.Time
}

// NewService creates a Service using the wall clock.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// WithClock overrides the service clock. Tests use it to pin "today".
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// today is the current calendar date at UTC midnight, matching how entry
// dates are stored.
func (s *Service) today() time.Time {
	n := s.now()
	return time.Date(n.Year(), n.Month(), n.Day(), 0, 0, 0, 0, time.UTC)
}

// parseInput validates the raw payload: strict ISO date, strict HH:MM sleep.
// Validation happens entirely before any write.
func parseInput(in Input) (time.Time, Fields, error) {
	date, err := parse.Date(in.Date)
	if err != nil {
		return time.Time{}, Fields{}, err
	}
	sleep, err := parse.SleepHHMM(in.SleepTotal)
	if err != nil {
		return time.Time{}, Fields{}, err
	}
	f := Fields{
		Weight:         in.Weight,
		BodyFat:        in.BodyFat,
		Calories:       in.Calories,
		TrainingVolume: in.TrainingVolume,
		Steps:          in.Steps,
		SleepTotal:     sleep,
		SleepQuality:   in.SleepQuality,
		Observations:   in.Observations,
	}
	return date, f, nil
}

// Create validates the payload and persists a new entry.
func (s *Service) Create(ctx context.Context, userID int, in Input) (models.HealthEntry, error) {
	date, f, err := parseInput(in)
	if err != nil {
		return models.HealthEntry{}, err
	}
	return s.repo.Create(ctx, userID, date, f)
}

// Update validates the payload and replaces all mutable fields of the entry
// at the payload's date. Absent payload fields become NULL.
func (s *Service) Update(ctx context.Context, userID int, in Input) (models.HealthEntry, error) {
	date, f, err := parseInput(in)
	if err != nil {
		return models.HealthEntry{}, err
	}
	return s.repo.UpdateFields(ctx, userID, date, f)
}

// Get returns the single entry at the given ISO date.
func (s *Service) Get(ctx context.Context, userID int, dateStr string) (models.HealthEntry, error) {
	date, err := parse.Date(dateStr)
	if err != nil {
		return models.HealthEntry{}, err
	}
	return s.repo.FindByDate(ctx, userID, date)
}

// List returns entries newest first, bounded by the resolved window when one
// is given.
func (s *Service) List(ctx context.Context, userID int, days *int, window string) ([]models.HealthEntry, error) {
	d, err := stats.ResolveDays(days, window)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return s.repo.ListAll(ctx, userID)
	}
	start, _ := stats.WindowFor(*d, s.today())
	return s.repo.FindInRange(ctx, userID, &start, nil)
}

// Stats resolves the window, reads the matching entries and computes the
// summary in one pass. Zero matching entries is models.ErrNoData. For an
// all-time request the displayed range comes from the actual oldest and
// newest entry dates, not a synthetic epoch.
func (s *Service) Stats(ctx context.Context, userID int, days *int, window string) (StatsResult, error) {
	d, err := stats.ResolveDays(days, window)
	if err != nil {
		return StatsResult{}, err
	}

	today := s.today()
	var start *time.Time
	end := today
	if d != nil {
		st, en := stats.WindowFor(*d, today)
		start, end = &st, en
	}

	list, err := s.repo.FindInRange(ctx, userID, start, nil)
	if err != nil {
		return StatsResult{}, err
	}

	summary, err := stats.Compute(stats.Entries(list))
	if err != nil {
		return StatsResult{}, err
	}

	var windowDays int
	if d == nil {
		// list is newest first
		newest := list[0].Date
		oldest := list[len(list)-1].Date
		start, end = &oldest, newest
		windowDays = stats.SpanDays(oldest, newest)
	} else {
		windowDays = *d
	}

	// The label follows whatever set the bounds: an explicit day count wins
	// over a window token, and neither means all time.
	var label string
	switch {
	case days != nil:
		label = fmt.Sprintf("%dd", *days)
	case window != "":
		label = window
	default:
		label = "all"
	}

	return StatsResult{
		Window:     label,
		WindowDays: windowDays,
		StartDate:  start,
		EndDate:    end,
		Summary:    summary,
	}, nil
}
