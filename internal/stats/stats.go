// Package stats computes window-bounded descriptive statistics over health
// entries. The engine is deliberately decoupled from the storage layer: it
// consumes any one-shot sequence of values satisfying Metrics, so it works
// equally over database rows, a streaming cursor or test doubles.
package stats

import (
	"errors"
	"iter"
	"time"

	"github.com/jguzman/physiolog/internal/models"
	"github.com/jguzman/physiolog/internal/parse"
)

// ErrInvalidDays is returned when an explicit day count is zero or negative.
var ErrInvalidDays = errors.New("days must be a positive integer")

// Metrics is the set of accessors the aggregation engine reads. A nil value
// means the field was not recorded for that entry.
type Metrics interface {
	WeightKg() *float64
	BodyFatPct() *float64
	CaloriesKcal() *float64
	StepsCount() *float64
	SleepHours() *float64
}

// Field identifies one tracked numeric metric.
type Field int

const (
	Weight Field = iota
	BodyFat
	Calories
	Steps
	Sleep
)

// AllFields is the default tracked set.
var AllFields = []Field{Weight, BodyFat, Calories, Steps, Sleep}

var fieldValue = map[Field]func(Metrics) *float64{
	Weight:   Metrics.WeightKg,
	BodyFat:  Metrics.BodyFatPct,
	Calories: Metrics.CaloriesKcal,
	Steps:    Metrics.StepsCount,
	Sleep:    Metrics.SleepHours,
}

// Summary holds one average per tracked field (nil when no entry contributed
// a value) plus the total number of entries examined.
type Summary struct {
	AvgWeight    *float64 `json:"avg_weight"`
	AvgBodyFat   *float64 `json:"avg_body_fat"`
	AvgCalories  *float64 `json:"avg_calories"`
	AvgSteps     *float64 `json:"avg_steps"`
	AvgSleep     *float64 `json:"avg_sleep"`
	TotalEntries int      `json:"total_entries"`
}

func (s *Summary) set(f Field, avg *float64) {
	switch f {
	case Weight:
		s.AvgWeight = avg
	case BodyFat:
		s.AvgBodyFat = avg
	case Calories:
		s.AvgCalories = avg
	case Steps:
		s.AvgSteps = avg
	case Sleep:
		s.AvgSleep = avg
	}
}

// Compute aggregates the given fields (all tracked fields when none are
// named) in a single pass over the sequence. Fields are aggregated
// independently: an entry missing weight still contributes its sleep value.
// Averages are rounded to 2 decimals. Zero entries is a models.ErrNoData
// condition, never a summary of nulls.
func Compute(entries iter.Seq[Metrics], fields ...Field) (Summary, error) {
	if len(fields) == 0 {
		fields = AllFields
	}

	sums := make(map[Field]float64, len(fields))
	counts := make(map[Field]int, len(fields))
	total := 0

	for e := range entries {
		total++
		for _, f := range fields {
			if v := fieldValue[f](e); v != nil {
				sums[f] += *v
				counts[f]++
			}
		}
	}

	if total == 0 {
		return Summary{}, models.ErrNoData
	}

	summary := Summary{TotalEntries: total}
	for _, f := range fields {
		if counts[f] == 0 {
			continue
		}
		avg := parse.Round2(sums[f] / float64(counts[f]))
		summary.set(f, &avg)
	}
	return summary, nil
}

// Entries adapts a slice of health entries to the engine's input sequence.
func Entries(list []models.HealthEntry) iter.Seq[Metrics] {
	return func(yield func(Metrics) bool) {
		for _, e := range list {
			if !yield(e) {
				return
			}
		}
	}
}

// ResolveDays applies the window precedence rule: an explicit day count wins
// when present (and must be positive), otherwise the shorthand token is
// resolved. Neither given means all time (nil).
func ResolveDays(days *int, window string) (*int, error) {
	if days != nil {
		if *days <= 0 {
			return nil, ErrInvalidDays
		}
		d := *days
		return &d, nil
	}
	return parse.WindowDays(window)
}

// WindowFor returns the inclusive [start, end] date range for a bounded
// window ending today. A 1-day window is exactly today.
func WindowFor(days int, today time.Time) (time.Time, time.Time) {
	return today.AddDate(0, 0, -(days - 1)), today
}

// SpanDays is the inclusive day count between two calendar dates.
func SpanDays(oldest, newest time.Time) int {
	return int(newest.Sub(oldest).Hours()/24) + 1
}
