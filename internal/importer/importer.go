// Package importer loads historical health data from CSV/TSV exports.
// Column headers are matched fuzzily so exports from different apps
// (varying capitalization, units in the header) map onto the same fields.
package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jguzman/physiolog/internal/entries"
	"github.com/jguzman/physiolog/internal/models"
	"github.com/jguzman/physiolog/internal/parse"
)

// Store is what the importer needs from persistence: the entry repository
// plus import-run logging.
type Store interface {
	entries.Repository
	InsertImportLog(ctx context.Context, log models.ImportLog) (int64, error)
}

// Stats tracks the outcome of one import run.
type Stats struct {
	RunID        string
	RowsRead     int
	RowsImported int
	RowsUpdated  int
	RowsSkipped  int
	RowsRejected int
}

// Importer reads a CSV/TSV file and inserts one entry per row.
type Importer struct {
	store  Store
	log    *slog.Logger
	userID int
	update bool
	dryRun bool
}

// Option configures an Importer.
type Option func(*Importer)

// WithUpdate makes the importer overwrite existing entries instead of
// skipping rows whose date is already present.
func WithUpdate() Option {
	return func(imp *Importer) { imp.update = true }
}

// WithDryRun parses and counts rows without writing anything.
func WithDryRun() Option {
	return func(imp *Importer) { imp.dryRun = true }
}

// New creates an Importer writing entries for the given user.
func New(store Store, log *slog.Logger, userID int, opts ...Option) *Importer {
	imp := &Importer{store: store, log: log, userID: userID}
	for _, opt := range opts {
		opt(imp)
	}
	return imp
}

// columns maps canonical field names to the column index in the file.
type columns map[string]int

// mapColumns matches header names to fields. Matching is substring-based
// on the lowercased header, so "Weight (kg)", "weight kg" and
// "Body weight [kg]" all map to weight.
func mapColumns(header []string) columns {
	cols := columns{}
	for i, col := range header {
		lower := strings.ToLower(strings.TrimSpace(col))
		switch {
		case strings.Contains(lower, "date"):
			cols["date"] = i
		case strings.Contains(lower, "weight") && strings.Contains(lower, "kg"):
			cols["weight"] = i
		case strings.Contains(lower, "body") && strings.Contains(lower, "fat"):
			cols["body_fat"] = i
		case strings.Contains(lower, "calorie"):
			cols["calories"] = i
		case strings.Contains(lower, "training") && strings.Contains(lower, "volume"):
			cols["training_volume"] = i
		case strings.Contains(lower, "step"):
			cols["steps"] = i
		case strings.Contains(lower, "sleep total"):
			cols["sleep_total"] = i
		case strings.Contains(lower, "sleep quality"):
			cols["sleep_quality"] = i
		case strings.Contains(lower, "observation"):
			cols["observations"] = i
		}
	}
	return cols
}

// Import reads the file at path and inserts its rows. Tab separation is
// assumed for .tsv files, comma otherwise. An import log row is recorded
// regardless of outcome, except in dry-run mode.
func (imp *Importer) Import(ctx context.Context, path string) (*Stats, error) {
	started := time.Now()
	stats := &Stats{RunID: uuid.NewString()}
	log := imp.log.With("run_id", stats.RunID, "file", filepath.Base(path))

	err := imp.importFile(ctx, path, stats, log)

	if !imp.dryRun {
		imp.recordRun(ctx, path, stats, started, err, log)
	}
	if err != nil {
		return stats, err
	}

	log.Info("import complete",
		"rows_read", stats.RowsRead,
		"imported", stats.RowsImported,
		"updated", stats.RowsUpdated,
		"skipped", stats.RowsSkipped,
		"rejected", stats.RowsRejected,
		"duration", time.Since(started).Round(time.Millisecond))
	return stats, nil
}

func (imp *Importer) importFile(ctx context.Context, path string, stats *Stats, log *slog.Logger) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	if strings.HasSuffix(strings.ToLower(path), ".tsv") {
		reader.Comma = '\t'
	}
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return fmt.Errorf("reading header: %w", err)
	}
	cols := mapColumns(header)
	if _, ok := cols["date"]; !ok {
		return fmt.Errorf("no date column found in header %v", header)
	}

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("reading row %d: %w", stats.RowsRead+2, err)
		}
		stats.RowsRead++

		date, fields, err := parseRow(record, cols)
		if err != nil {
			stats.RowsRejected++
			log.Warn("rejecting row", "row", stats.RowsRead+1, "error", err)
			continue
		}
		if date == nil {
			stats.RowsRejected++
			log.Warn("rejecting row: unparseable date", "row", stats.RowsRead+1)
			continue
		}

		if imp.dryRun {
			stats.RowsImported++
			continue
		}

		_, err = imp.store.Create(ctx, imp.userID, *date, fields)
		switch {
		case err == nil:
			stats.RowsImported++
		case errors.Is(err, models.ErrDuplicateDate):
			if !imp.update {
				stats.RowsSkipped++
				continue
			}
			if _, err := imp.store.UpdateFields(ctx, imp.userID, *date, fields); err != nil {
				return fmt.Errorf("updating entry for %s: %w", date.Format("2006-01-02"), err)
			}
			stats.RowsUpdated++
		default:
			return fmt.Errorf("inserting entry for %s: %w", date.Format("2006-01-02"), err)
		}
	}

	return nil
}

// parseRow converts one record into a date and entry fields. A row is
// rejected (non-nil error) only when a present value is malformed; missing
// and placeholder cells simply leave the field nil.
func parseRow(record []string, cols columns) (*time.Time, entries.Fields, error) {
	cell := func(name string) string {
		idx, ok := cols[name]
		if !ok || idx >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[idx])
	}

	date := parse.DateFlexible(cell("date"))
	if date == nil {
		return nil, entries.Fields{}, nil
	}

	var f entries.Fields
	var err error

	if f.Weight, err = parse.DecimalLocale(cell("weight")); err != nil {
		return nil, entries.Fields{}, fmt.Errorf("weight: %w", err)
	}
	if f.BodyFat, err = parse.DecimalLocale(cell("body_fat")); err != nil {
		return nil, entries.Fields{}, fmt.Errorf("body fat: %w", err)
	}
	if f.TrainingVolume, err = parse.DecimalLocale(cell("training_volume")); err != nil {
		return nil, entries.Fields{}, fmt.Errorf("training volume: %w", err)
	}

	calories, err := parse.DecimalLocale(cell("calories"))
	if err != nil {
		return nil, entries.Fields{}, fmt.Errorf("calories: %w", err)
	}
	f.Calories = toInt(calories)

	steps, err := parse.DecimalLocale(cell("steps"))
	if err != nil {
		return nil, entries.Fields{}, fmt.Errorf("steps: %w", err)
	}
	f.Steps = toInt(steps)

	if f.SleepTotal, err = parse.SleepFreeform(cell("sleep_total")); err != nil {
		return nil, entries.Fields{}, fmt.Errorf("sleep total: %w", err)
	}

	if v := cell("sleep_quality"); v != "" && v != "--" {
		f.SleepQuality = &v
	}
	if v := cell("observations"); v != "" && v != "--" {
		f.Observations = &v
	}

	return date, f, nil
}

func toInt(v *float64) *int {
	if v == nil {
		return nil
	}
	n := int(*v)
	return &n
}

// recordRun persists the import log row. Failures here are logged but do
// not fail the import itself.
func (imp *Importer) recordRun(ctx context.Context, path string, stats *Stats, started time.Time, runErr error, log *slog.Logger) {
	status := "completed"
	var errMsg *string
	if runErr != nil {
		status = "failed"
		msg := runErr.Error()
		errMsg = &msg
	}
	duration := int(time.Since(started).Milliseconds())

	entry := models.ImportLog{
		UserID:       imp.userID,
		Source:       filepath.Base(path),
		Status:       status,
		RowsRead:     stats.RowsRead,
		RowsImported: stats.RowsImported,
		RowsUpdated:  stats.RowsUpdated,
		RowsSkipped:  stats.RowsSkipped,
		RowsRejected: stats.RowsRejected,
		DurationMs:   &duration,
		ErrorMessage: errMsg,
	}
	if _, err := imp.store.InsertImportLog(ctx, entry); err != nil {
		log.Error("recording import log", "error", err)
	}
}
