package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"
	"github.com/soltixdb/healthtrack/internal/config"
	"github.com/soltixdb/healthtrack/internal/health"
)

const createReadingsTable = `CREATE TABLE IF NOT EXISTS readings (
	user_id     TEXT NOT NULL,
	id          TEXT NOT NULL,
	metric_type TEXT NOT NULL,
	value       DOUBLE PRECISION,
	systolic    DOUBLE PRECISION,
	diastolic   DOUBLE PRECISION,
	recorded_at TIMESTAMPTZ NOT NULL,
	unit        TEXT NOT NULL DEFAULT '',
	notes       TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (user_id, id)
)`

const createReadingsIndex = `CREATE INDEX IF NOT EXISTS idx_readings_user_metric_time
	ON readings (user_id, metric_type, recorded_at)`

const upsertReading = `INSERT INTO readings
	(user_id, id, metric_type, value, systolic, diastolic, recorded_at, unit, notes)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	ON CONFLICT (user_id, id) DO UPDATE SET
		metric_type = EXCLUDED.metric_type,
		value = EXCLUDED.value,
		systolic = EXCLUDED.systolic,
		diastolic = EXCLUDED.diastolic,
		recorded_at = EXCLUDED.recorded_at,
		unit = EXCLUDED.unit,
		notes = EXCLUDED.notes`

const selectColumns = `SELECT id, user_id, metric_type, value, systolic, diastolic, recorded_at, unit, notes FROM readings`

// PostgresStore keeps readings in a single readings table
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore opens the database, applies pool settings and creates the
// schema if needed
func NewPostgresStore(cfg config.PostgresConfig) (*PostgresStore, error) {
	db, err := sql.Open("postgres", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := newPostgresStoreWithDB(db)
	if err := s.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func newPostgresStoreWithDB(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Migrate creates the readings table and its index
func (s *PostgresStore) Migrate(ctx context.Context) error {
	for _, stmt := range []string{createReadingsTable, createReadingsIndex} {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to migrate readings schema: %w", err)
		}
	}
	return nil
}

// Save inserts or replaces a reading
func (s *PostgresStore) Save(ctx context.Context, r health.Reading) error {
	_, err := s.db.ExecContext(ctx, upsertReading,
		r.UserID, r.ID, string(r.MetricType),
		nullFloat(r.Value), nullFloat(r.Systolic), nullFloat(r.Diastolic),
		r.RecordedAt.UTC(), r.Unit, r.Notes,
	)
	if err != nil {
		return fmt.Errorf("failed to save reading %s: %w", r.ID, err)
	}
	return nil
}

// List returns the user's readings matching q
func (s *PostgresStore) List(ctx context.Context, q Query) ([]health.Reading, error) {
	conds := []string{"user_id = $1"}
	args := []interface{}{q.UserID}

	if q.MetricType != "" {
		args = append(args, string(q.MetricType))
		conds = append(conds, fmt.Sprintf("metric_type = $%d", len(args)))
	}
	if !q.Start.IsZero() {
		args = append(args, q.Start.UTC())
		conds = append(conds, fmt.Sprintf("recorded_at >= $%d", len(args)))
	}
	if !q.End.IsZero() {
		args = append(args, q.End.UTC())
		conds = append(conds, fmt.Sprintf("recorded_at < $%d", len(args)))
	}

	query := selectColumns + " WHERE " + strings.Join(conds, " AND ")
	if q.Limit > 0 {
		args = append(args, q.Limit)
		query += fmt.Sprintf(" ORDER BY recorded_at DESC, id DESC LIMIT $%d", len(args))
	} else {
		query += " ORDER BY recorded_at ASC, id ASC"
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query readings: %w", err)
	}
	defer rows.Close()

	result := make([]health.Reading, 0)
	for rows.Next() {
		r, err := scanReading(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate readings: %w", err)
	}

	return sortAndLimit(result, q.Limit), nil
}

// Get returns one reading
func (s *PostgresStore) Get(ctx context.Context, userID, id string) (health.Reading, error) {
	row := s.db.QueryRowContext(ctx, selectColumns+" WHERE user_id = $1 AND id = $2", userID, id)
	r, err := scanReading(row)
	if errors.Is(err, sql.ErrNoRows) {
		return health.Reading{}, ErrNotFound
	}
	return r, err
}

// Delete removes one reading
func (s *PostgresStore) Delete(ctx context.Context, userID, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM readings WHERE user_id = $1 AND id = $2", userID, id)
	if err != nil {
		return fmt.Errorf("failed to delete reading %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete reading %s: %w", id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Close closes the database
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanReading(row rowScanner) (health.Reading, error) {
	var (
		r                         health.Reading
		metric                    string
		value, systolic, diastolic sql.NullFloat64
	)
	err := row.Scan(&r.ID, &r.UserID, &metric, &value, &systolic, &diastolic, &r.RecordedAt, &r.Unit, &r.Notes)
	if errors.Is(err, sql.ErrNoRows) {
		return r, err
	}
	if err != nil {
		return r, fmt.Errorf("failed to scan reading: %w", err)
	}

	r.MetricType = health.MetricType(metric)
	r.Value = floatPtr(value)
	r.Systolic = floatPtr(systolic)
	r.Diastolic = floatPtr(diastolic)
	r.RecordedAt = r.RecordedAt.UTC()
	return r, nil
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func floatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	return health.Float(v.Float64)
}
