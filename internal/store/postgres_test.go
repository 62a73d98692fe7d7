package store

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/soltixdb/healthtrack/internal/health"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var readingColumns = []string{"id", "user_id", "metric_type", "value", "systolic", "diastolic", "recorded_at", "unit", "notes"}

func setupMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock, *PostgresStore) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	return db, mock, newPostgresStoreWithDB(db)
}

func TestPostgresStore_Migrate(t *testing.T) {
	db, mock, s := setupMockDB(t)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS readings")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("CREATE INDEX IF NOT EXISTS idx_readings_user_metric_time")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, s.Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Save(t *testing.T) {
	db, mock, s := setupMockDB(t)
	defer db.Close()

	r := pressure("bp1", 1, 130, 85)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO readings")).
		WithArgs("u1", "bp1", "blood_pressure", nil, 130.0, 85.0, r.RecordedAt, "mmHg", "").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, s.Save(context.Background(), r))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SaveError(t *testing.T) {
	db, mock, s := setupMockDB(t)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO readings")).
		WillReturnError(sql.ErrConnDone)

	err := s.Save(context.Background(), weight("w", 1, 70))
	assert.ErrorIs(t, err, sql.ErrConnDone)
}

func TestPostgresStore_ListWithFilters(t *testing.T) {
	db, mock, s := setupMockDB(t)
	defer db.Close()

	start := baseTime
	end := baseTime.Add(24 * time.Hour)

	rows := sqlmock.NewRows(readingColumns).
		AddRow("w1", "u1", "weight", 70.0, nil, nil, baseTime.Add(time.Hour), "kg", "").
		AddRow("w2", "u1", "weight", 71.5, nil, nil, baseTime.Add(2*time.Hour), "kg", "after run")

	mock.ExpectQuery(regexp.QuoteMeta(
		"WHERE user_id = $1 AND metric_type = $2 AND recorded_at >= $3 AND recorded_at < $4 ORDER BY recorded_at ASC, id ASC")).
		WithArgs("u1", "weight", start, end).
		WillReturnRows(rows)

	got, err := s.List(context.Background(), Query{
		UserID:     "u1",
		MetricType: health.MetricWeight,
		Start:      start,
		End:        end,
	})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, []string{"w1", "w2"}, ids(got))
	assert.Equal(t, 71.5, *got[1].Value)
	assert.Nil(t, got[1].Systolic)
	assert.Equal(t, "after run", got[1].Notes)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListLimitReturnsAscending(t *testing.T) {
	db, mock, s := setupMockDB(t)
	defer db.Close()

	rows := sqlmock.NewRows(readingColumns).
		AddRow("bp3", "u1", "blood_pressure", nil, 140.0, 90.0, baseTime.Add(3*time.Hour), "mmHg", "").
		AddRow("bp2", "u1", "blood_pressure", nil, 130.0, 85.0, baseTime.Add(2*time.Hour), "mmHg", "")

	mock.ExpectQuery(regexp.QuoteMeta("WHERE user_id = $1 ORDER BY recorded_at DESC, id DESC LIMIT $2")).
		WithArgs("u1", 2).
		WillReturnRows(rows)

	got, err := s.List(context.Background(), Query{UserID: "u1", Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, []string{"bp2", "bp3"}, ids(got))
	assert.Equal(t, 85.0, *got[0].Diastolic)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Get(t *testing.T) {
	db, mock, s := setupMockDB(t)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("WHERE user_id = $1 AND id = $2")).
		WithArgs("u1", "w1").
		WillReturnRows(sqlmock.NewRows(readingColumns).
			AddRow("w1", "u1", "weight", 70.0, nil, nil, baseTime, "kg", ""))

	mock.ExpectQuery(regexp.QuoteMeta("WHERE user_id = $1 AND id = $2")).
		WithArgs("u1", "missing").
		WillReturnRows(sqlmock.NewRows(readingColumns))

	r, err := s.Get(context.Background(), "u1", "w1")
	require.NoError(t, err)
	assert.Equal(t, health.MetricWeight, r.MetricType)

	_, err = s.Get(context.Background(), "u1", "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Delete(t *testing.T) {
	db, mock, s := setupMockDB(t)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM readings WHERE user_id = $1 AND id = $2")).
		WithArgs("u1", "w1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM readings")).
		WithArgs("u1", "w1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, s.Delete(context.Background(), "u1", "w1"))
	assert.ErrorIs(t, s.Delete(context.Background(), "u1", "w1"), ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
