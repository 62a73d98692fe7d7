package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/soltixdb/healthtrack/internal/config"
	"github.com/soltixdb/healthtrack/internal/health"
	"github.com/soltixdb/healthtrack/internal/logging"
	"github.com/soltixdb/healthtrack/internal/models"
	"github.com/soltixdb/healthtrack/internal/queue"
	"github.com/soltixdb/healthtrack/internal/store"
)

var testBase = time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)

// recordingPublisher keeps published messages and can be told to fail
type recordingPublisher struct {
	messages []queue.Message
	err      error
}

func (p *recordingPublisher) Publish(ctx context.Context, subject string, data []byte) error {
	_, err := p.PublishBatch(ctx, []queue.Message{{Subject: subject, Data: data}})
	return err
}

func (p *recordingPublisher) PublishBatch(_ context.Context, messages []queue.Message) (int, error) {
	if p.err != nil {
		return 0, p.err
	}
	p.messages = append(p.messages, messages...)
	return len(messages), nil
}

func (p *recordingPublisher) Close() error { return nil }

// failingStore fails every call
type failingStore struct{ store.Store }

var errStoreDown = errors.New("store down")

func (failingStore) List(context.Context, store.Query) ([]health.Reading, error) {
	return nil, errStoreDown
}

func (failingStore) Get(context.Context, string, string) (health.Reading, error) {
	return health.Reading{}, errStoreDown
}

func seed(t *testing.T, st store.Store, readings ...health.Reading) {
	t.Helper()
	for _, r := range readings {
		if err := st.Save(context.Background(), r); err != nil {
			t.Fatalf("Failed to seed reading %s: %v", r.ID, err)
		}
	}
}

func valueReading(id string, metric health.MetricType, hours int, v float64) health.Reading {
	return health.Reading{
		ID:         id,
		UserID:     "u1",
		MetricType: metric,
		Value:      health.Float(v),
		RecordedAt: testBase.Add(time.Duration(hours) * time.Hour),
		Unit:       health.DefaultUnit(metric),
	}
}

func bpReading(id string, hours int, sys, dia float64) health.Reading {
	return health.Reading{
		ID:         id,
		UserID:     "u1",
		MetricType: health.MetricBloodPressure,
		Systolic:   health.Float(sys),
		Diastolic:  health.Float(dia),
		RecordedAt: testBase.Add(time.Duration(hours) * time.Hour),
		Unit:       "mmHg",
	}
}

func validQuery(t *testing.T, q models.ReadingQuery) *models.ReadingQuery {
	t.Helper()
	if q.UserID == "" {
		q.UserID = "u1"
	}
	if err := q.Validate(false); err != nil {
		t.Fatalf("Invalid test query: %v", err)
	}
	return &q
}

func newTestAnalysisService(st store.Store) *AnalysisService {
	return NewAnalysisService(logging.Nop(), st, config.DefaultConfig().Analysis)
}
