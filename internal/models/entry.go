// Package models holds the persisted record types shared across the
// repository adapters, services and boundary layers.
package models

import (
	"errors"
	"time"

	"github.com/jguzman/physiolog/internal/parse"
)

// Error kinds surfaced by the repositories and the aggregation engine.
// The HTTP boundary matches them with errors.Is to pick status codes.
var (
	// ErrNotFound is returned when no entry exists for the requested date.
	ErrNotFound = errors.New("entry not found for the given date")

	// ErrDuplicateDate is returned when creating an entry for a
	// (user, date) pair that already has one.
	ErrDuplicateDate = errors.New("an entry for this date already exists")

	// ErrNoData is returned when statistics are requested over zero
	// matching entries. Deliberately distinct from a summary full of
	// nulls, so callers can tell "no data yet" from "all values null".
	ErrNoData = errors.New("no data available")
)

// HealthEntry is one day's measurements for a user. Every metric is optional
// independently: a nil field means "not recorded that day", which is not the
// same as a recorded zero. At most one entry exists per (user, date),
// enforced by a unique index at the storage layer.
type HealthEntry struct {
	ID     int64
	UserID int
	Date   time.Time // calendar date, no time-of-day component

	Weight         *float64 // kg
	BodyFat        *float64 // percent
	Calories       *int     // kcal
	TrainingVolume *float64 // unit-agnostic load metric
	Steps          *int
	SleepTotal     *float64 // decimal hours
	SleepQuality   *string
	Observations   *string
}

// Accessors satisfying stats.Metrics. Keeping the aggregation engine behind
// an interface lets tests feed it lightweight doubles instead of rows.

func (e HealthEntry) WeightKg() *float64   { return e.Weight }
func (e HealthEntry) BodyFatPct() *float64 { return e.BodyFat }

func (e HealthEntry) CaloriesKcal() *float64 {
	if e.Calories == nil {
		return nil
	}
	f := float64(*e.Calories)
	return &f
}

func (e HealthEntry) StepsCount() *float64 {
	if e.Steps == nil {
		return nil
	}
	f := float64(*e.Steps)
	return &f
}

func (e HealthEntry) SleepHours() *float64 { return e.SleepTotal }

// EntryView is the JSON shape served to API clients. Sleep is part of the
// contract in both forms: "sleep_total" re-rendered as HH:MM for display and
// "sleep_total_decimal" as raw decimal hours for aggregation.
type EntryView struct {
	ID                int64    `json:"id"`
	Date              string   `json:"date"`
	Weight            *float64 `json:"weight"`
	BodyFat           *float64 `json:"body_fat"`
	Calories          *int     `json:"calories"`
	TrainingVolume    *float64 `json:"training_volume"`
	Steps             *int     `json:"steps"`
	SleepTotal        *string  `json:"sleep_total"`
	SleepTotalDecimal *float64 `json:"sleep_total_decimal"`
	SleepQuality      *string  `json:"sleep_quality"`
	Observations      *string  `json:"observations"`
}

// View serializes the entry into its API shape.
func (e HealthEntry) View() EntryView {
	var sleepHHMM *string
	if e.SleepTotal != nil {
		s := parse.HoursToHHMM(*e.SleepTotal)
		sleepHHMM = &s
	}
	return EntryView{
		ID:                e.ID,
		Date:              e.Date.Format("2006-01-02"),
		Weight:            e.Weight,
		BodyFat:           e.BodyFat,
		Calories:          e.Calories,
		TrainingVolume:    e.TrainingVolume,
		Steps:             e.Steps,
		SleepTotal:        sleepHHMM,
		SleepTotalDecimal: e.SleepTotal,
		SleepQuality:      e.SleepQuality,
		Observations:      e.Observations,
	}
}

// ImportLog records the outcome of one bulk-import run.
type ImportLog struct {
	ID           int64     `json:"id"`
	UserID       int       `json:"user_id"`
	CreatedAt    time.Time `json:"created_at"`
	Source       string    `json:"source"`
	Status       string    `json:"status"`
	RowsRead     int       `json:"rows_read"`
	RowsImported int       `json:"rows_imported"`
	RowsUpdated  int       `json:"rows_updated"`
	RowsSkipped  int       `json:"rows_skipped"`
	RowsRejected int       `json:"rows_rejected"`
	DurationMs   *int      `json:"duration_ms"`
	ErrorMessage *string   `json:"error_message"`
}
