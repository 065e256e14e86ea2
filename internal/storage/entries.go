package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jguzman/physiolog/internal/entries"
	"github.com/jguzman/physiolog/internal/models"
)

// Compile-time check: *DB satisfies the entries repository port.
var _ entries.Repository = (*DB)(nil)

const entryColumns = `id, user_id, date, weight, body_fat, calories, training_volume, steps, sleep_total, sleep_quality, observations`

// uniqueViolation is the SQLSTATE for a unique-index conflict. The index on
// (user_id, date) is the authority for entry uniqueness. There is no
// check-then-insert anywhere, so concurrent creates for the same date
// resolve with exactly one success.
const uniqueViolation = "23505"

// Create inserts a new entry and returns it with its assigned id.
func (db *DB) Create(ctx context.Context, userID int, date time.Time, f entries.Fields) (models.HealthEntry, error) {
	row := db.Pool.QueryRow(ctx,
		`INSERT INTO health_entries (user_id, date, weight, body_fat, calories, training_volume, steps, sleep_total, sleep_quality, observations)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		 RETURNING `+entryColumns,
		userID, date, f.Weight, f.BodyFat, f.Calories, f.TrainingVolume,
		f.Steps, f.SleepTotal, f.SleepQuality, f.Observations)

	entry, err := scanEntry(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return models.HealthEntry{}, models.ErrDuplicateDate
		}
		return models.HealthEntry{}, fmt.Errorf("inserting entry: %w", err)
	}
	return entry, nil
}

// FindByDate returns the single entry at the given date.
func (db *DB) FindByDate(ctx context.Context, userID int, date time.Time) (models.HealthEntry, error) {
	row := db.Pool.QueryRow(ctx,
		`SELECT `+entryColumns+` FROM health_entries WHERE user_id = $1 AND date = $2`,
		userID, date)

	entry, err := scanEntry(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.HealthEntry{}, models.ErrNotFound
		}
		return models.HealthEntry{}, fmt.Errorf("querying entry by date: %w", err)
	}
	return entry, nil
}

// FindInRange returns entries within the inclusive [start, end] range,
// newest first. Either bound may be nil for an open end.
func (db *DB) FindInRange(ctx context.Context, userID int, start, end *time.Time) ([]models.HealthEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM health_entries WHERE user_id = $1`
	args := []any{userID}

	if start != nil {
		args = append(args, *start)
		query += fmt.Sprintf(" AND date >= $%d", len(args))
	}
	if end != nil {
		args = append(args, *end)
		query += fmt.Sprintf(" AND date <= $%d", len(args))
	}
	query += " ORDER BY date DESC"

	rows, err := db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying entries in range: %w", err)
	}
	defer rows.Close()

	return scanEntries(rows)
}

// UpdateFields replaces all mutable fields of the entry at the given date.
// Nil fields overwrite stored values with NULL: an update is a full-field
// replace, not a partial patch.
func (db *DB) UpdateFields(ctx context.Context, userID int, date time.Time, f entries.Fields) (models.HealthEntry, error) {
	row := db.Pool.QueryRow(ctx,
		`UPDATE health_entries
		 SET weight = $3, body_fat = $4, calories = $5, training_volume = $6,
		     steps = $7, sleep_total = $8, sleep_quality = $9, observations = $10
		 WHERE user_id = $1 AND date = $2
		 RETURNING `+entryColumns,
		userID, date, f.Weight, f.BodyFat, f.Calories, f.TrainingVolume,
		f.Steps, f.SleepTotal, f.SleepQuality, f.Observations)

	entry, err := scanEntry(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.HealthEntry{}, models.ErrNotFound
		}
		return models.HealthEntry{}, fmt.Errorf("updating entry: %w", err)
	}
	return entry, nil
}

// ListAll returns every entry for the user, newest first.
func (db *DB) ListAll(ctx context.Context, userID int) ([]models.HealthEntry, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT `+entryColumns+` FROM health_entries WHERE user_id = $1 ORDER BY date DESC`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("querying entries: %w", err)
	}
	defer rows.Close()

	return scanEntries(rows)
}

func scanEntry(row pgx.Row) (models.HealthEntry, error) {
	var e models.HealthEntry
	err := row.Scan(&e.ID, &e.UserID, &e.Date, &e.Weight, &e.BodyFat, &e.Calories,
		&e.TrainingVolume, &e.Steps, &e.SleepTotal, &e.SleepQuality, &e.Observations)
	if err != nil {
		return models.HealthEntry{}, err
	}
	e.Date = e.Date.UTC()
	return e, nil
}

func scanEntries(rows pgx.Rows) ([]models.HealthEntry, error) {
	var result []models.HealthEntry
	for rows.Next() {
		var e models.HealthEntry
		if err := rows.Scan(&e.ID, &e.UserID, &e.Date, &e.Weight, &e.BodyFat, &e.Calories,
			&e.TrainingVolume, &e.Steps, &e.SleepTotal, &e.SleepQuality, &e.Observations); err != nil {
			return nil, fmt.Errorf("scanning entry row: %w", err)
		}
		e.Date = e.Date.UTC()
		result = append(result, e)
	}
	return result, rows.Err()
}
