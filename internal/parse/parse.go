// Package parse converts raw textual input into validated typed values:
// entry dates, sleep durations, locale-aware decimals and window tokens.
// All failures wrap one of the sentinel error kinds so the HTTP boundary
// can map them to exact status codes with errors.Is.
package parse

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	// ErrInvalidFormat marks malformed input. The wrapping message names
	// the expected format.
	ErrInvalidFormat = errors.New("invalid format")

	// ErrMissingField marks required input that is absent or blank.
	ErrMissingField = errors.New("missing required field")
)

// sleepHHMMRe accepts clock-style durations: 00-23 hours, 00-59 minutes.
var sleepHHMMRe = regexp.MustCompile(`^([01]\d|2[0-3]):([0-5]\d)$`)

// flexibleDateLayouts is the ordered list tried by DateFlexible. Day-first
// layouts come before month-first, so an ambiguous "03/04/2026" always reads
// as 3 April, never 4 March.
var flexibleDateLayouts = []string{
	"02/01/2006",
	"2006-01-02",
	"01/02/2006",
	"02-01-2006",
}

// Date parses a required entry date in YYYY-MM-DD format. Blank input is a
// missing-field error, anything else that fails to parse is a format error.
func Date(raw string) (time.Time, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, fmt.Errorf("date is required: %w", ErrMissingField)
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD: %w", s, ErrInvalidFormat)
	}
	return t, nil
}

// DateFlexible parses dates from spreadsheet exports, trying
// flexibleDateLayouts in order. Missing, placeholder ("--") and unparseable
// values all yield nil; callers decide whether a nil date rejects the row.
func DateFlexible(raw string) *time.Time {
	s := strings.TrimSpace(raw)
	if s == "" || s == "--" {
		return nil
	}
	for _, layout := range flexibleDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}

// SleepHHMM parses an optional sleep duration in strict HH:MM clock format
// and returns decimal hours (hours + minutes/60, unrounded). nil and ""
// mean "not recorded". Non-string values are rejected: decimal hours are an
// internal representation, never accepted as API input.
func SleepHHMM(v any) (*float64, error) {
	if v == nil || v == "" {
		return nil, nil
	}
	s, ok := v.(string)
	if !ok {
		return nil, fmt.Errorf("sleep_total must be a string in HH:MM format: %w", ErrInvalidFormat)
	}
	m := sleepHHMMRe.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return nil, fmt.Errorf("sleep_total must be in HH:MM format: %w", ErrInvalidFormat)
	}
	hours, _ := strconv.Atoi(m[1])
	minutes, _ := strconv.Atoi(m[2])
	d := float64(hours) + float64(minutes)/60.0
	return &d, nil
}

// SleepFreeform parses a duration in "h:mm" or "h:mm:ss" form, as found in
// spreadsheet exports. Hours are unbounded (a duration, not a clock time);
// minutes and seconds must be in [0,60). The result is rounded to 2
// decimals. Empty and placeholder values yield nil.
func SleepFreeform(raw string) (*float64, error) {
	s := strings.TrimSpace(raw)
	if s == "" || s == "--" {
		return nil, nil
	}

	parts := strings.Split(s, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return nil, freeformErr(s)
	}

	hours, err := strconv.Atoi(parts[0])
	if err != nil || hours < 0 {
		return nil, freeformErr(s)
	}
	minutes, err := strconv.Atoi(parts[1])
	if err != nil || minutes < 0 || minutes >= 60 {
		return nil, freeformErr(s)
	}
	seconds := 0
	if len(parts) == 3 {
		seconds, err = strconv.Atoi(parts[2])
		if err != nil || seconds < 0 || seconds >= 60 {
			return nil, freeformErr(s)
		}
	}

	d := Round2(float64(hours) + float64(minutes)/60.0 + float64(seconds)/3600.0)
	return &d, nil
}

func freeformErr(s string) error {
	return fmt.Errorf("invalid time %q, expected h:mm[:ss]: %w", s, ErrInvalidFormat)
}

// DecimalLocale parses an optional numeric field that may arrive as a number
// or as a string using a comma decimal separator ("72,5"). Empty and
// placeholder values yield nil.
func DecimalLocale(v any) (*float64, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case float64:
		f := t
		return &f, nil
	case int:
		f := float64(t)
		return &f, nil
	case string:
		s := strings.TrimSpace(t)
		if s == "" || s == "--" {
			return nil, nil
		}
		f, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid number %q: %w", s, ErrInvalidFormat)
		}
		return &f, nil
	default:
		return nil, fmt.Errorf("expected a number, got %T: %w", v, ErrInvalidFormat)
	}
}

// WindowDays resolves a shorthand window token to a day count: "7d" → 7,
// "3m" → 90, "1y" → 365 (approximate calendar arithmetic). An empty token
// means "all time" and resolves to nil.
func WindowDays(token string) (*int, error) {
	s := strings.ToLower(strings.TrimSpace(token))
	if s == "" {
		return nil, nil
	}
	if len(s) < 2 {
		return nil, windowErr(s)
	}

	digits := s[:len(s)-1]
	for _, r := range digits {
		if r < '0' || r > '9' {
			return nil, windowErr(s)
		}
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return nil, windowErr(s)
	}

	switch s[len(s)-1] {
	case 'd':
		// n days
	case 'm':
		n *= 30
	case 'y':
		n *= 365
	default:
		return nil, windowErr(s)
	}
	return &n, nil
}

func windowErr(s string) error {
	return fmt.Errorf("invalid window %q, expected 7d, 30d, 3m or 1y: %w", s, ErrInvalidFormat)
}

// HoursToHHMM renders decimal hours back into "HH:MM". It round-trips every
// value produced by SleepHHMM.
func HoursToHHMM(v float64) string {
	hours := int(v)
	minutes := int(math.Round((v - float64(hours)) * 60))
	if minutes == 60 {
		hours++
		minutes = 0
	}
	return fmt.Sprintf("%02d:%02d", hours, minutes)
}

// Round2 rounds to 2 decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
