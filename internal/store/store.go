// Package store persists readings and serves time-range queries over them.
package store

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/soltixdb/healthtrack/internal/health"
)

// ErrNotFound is returned when a reading does not exist for the user
var ErrNotFound = errors.New("reading not found")

// Query selects a user's readings.
// Start is inclusive and End exclusive; zero values leave that side open.
// An empty MetricType matches every metric. Limit > 0 keeps only the most
// recent Limit readings.
type Query struct {
	UserID     string
	MetricType health.MetricType
	Start      time.Time
	End        time.Time
	Limit      int
}

// Store is implemented by every reading backend.
// List results are ordered by RecordedAt ascending.
type Store interface {
	Save(ctx context.Context, r health.Reading) error
	List(ctx context.Context, q Query) ([]health.Reading, error)
	Get(ctx context.Context, userID, id string) (health.Reading, error)
	Delete(ctx context.Context, userID, id string) error
	Close() error
}

func (q Query) metricTypes() []health.MetricType {
	if q.MetricType != "" {
		return []health.MetricType{q.MetricType}
	}
	return health.AllMetricTypes()
}

func (q Query) inRange(t time.Time) bool {
	if !q.Start.IsZero() && t.Before(q.Start) {
		return false
	}
	if !q.End.IsZero() && !t.Before(q.End) {
		return false
	}
	return true
}

// sortAndLimit orders readings by time (ties by ID) and keeps the newest
// limit entries.
func sortAndLimit(readings []health.Reading, limit int) []health.Reading {
	sort.SliceStable(readings, func(i, j int) bool {
		a, b := readings[i], readings[j]
		if !a.RecordedAt.Equal(b.RecordedAt) {
			return a.RecordedAt.Before(b.RecordedAt)
		}
		return a.ID < b.ID
	})
	if limit > 0 && len(readings) > limit {
		readings = readings[len(readings)-limit:]
	}
	return readings
}
