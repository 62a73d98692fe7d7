package ingest

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/soltixdb/healthtrack/internal/config"
	"github.com/soltixdb/healthtrack/internal/health"
	"github.com/soltixdb/healthtrack/internal/logging"
	"github.com/soltixdb/healthtrack/internal/queue"
	"github.com/soltixdb/healthtrack/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// flakyStore fails the first failures saves
type flakyStore struct {
	store.Store
	failures int32
	calls    atomic.Int32
}

func (f *flakyStore) Save(ctx context.Context, r health.Reading) error {
	if f.calls.Add(1) <= f.failures {
		return errors.New("store unavailable")
	}
	return f.Store.Save(ctx, r)
}

func setupConsumer(t *testing.T, st store.Store) (queue.Queue, *Consumer) {
	t.Helper()
	q, err := queue.NewQueue(config.QueueConfig{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = q.Close() })

	c, err := NewConsumer(q, st, "ht", logging.Nop())
	require.NoError(t, err)
	require.NoError(t, c.Start())
	t.Cleanup(c.Stop)
	return q, c
}

func publish(t *testing.T, q queue.Queue, r health.Reading) {
	t.Helper()
	data, err := ReadingMessage{Reading: r, RequestID: "req-1", PublishedAt: time.Now()}.Encode()
	require.NoError(t, err)
	require.NoError(t, q.Publish(context.Background(), queue.ReadingSubject("ht", r.MetricType), data))
}

func sugarReading(id string) health.Reading {
	return health.Reading{
		ID:         id,
		UserID:     "u1",
		MetricType: health.MetricBloodSugar,
		Value:      health.Float(95),
		RecordedAt: time.Date(2024, 3, 1, 7, 30, 0, 0, time.UTC),
		Unit:       "mg/dL",
	}
}

func TestConsumer_StoresReadings(t *testing.T) {
	st := store.NewMemoryStore()
	q, c := setupConsumer(t, st)

	publish(t, q, sugarReading("s1"))
	bp := health.Reading{
		ID:         "bp1",
		UserID:     "u1",
		MetricType: health.MetricBloodPressure,
		Systolic:   health.Float(125),
		Diastolic:  health.Float(82),
		RecordedAt: time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC),
	}
	publish(t, q, bp)

	assert.Eventually(t, func() bool {
		return c.Stats().Stored == 2
	}, 2*time.Second, 10*time.Millisecond)

	got, err := st.Get(context.Background(), "u1", "bp1")
	require.NoError(t, err)
	assert.Equal(t, 125.0, *got.Systolic)
}

func TestConsumer_RejectsBadPayloads(t *testing.T) {
	st := store.NewMemoryStore()
	q, c := setupConsumer(t, st)
	subject := queue.ReadingSubject("ht", health.MetricWeight)

	require.NoError(t, q.Publish(context.Background(), subject, []byte("{not json")))

	invalid := sugarReading("bad")
	invalid.Value = nil
	publish(t, q, invalid)

	orphan := sugarReading("orphan")
	orphan.UserID = ""
	publish(t, q, orphan)

	assert.Eventually(t, func() bool {
		return c.Stats().Rejected == 3
	}, 2*time.Second, 10*time.Millisecond)

	got, err := st.List(context.Background(), store.Query{UserID: "u1"})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestConsumer_RetriesStoreFailures(t *testing.T) {
	st := &flakyStore{Store: store.NewMemoryStore(), failures: 2}
	q, c := setupConsumer(t, st)

	publish(t, q, sugarReading("s1"))

	assert.Eventually(t, func() bool {
		return c.Stats().Stored == 1
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, int64(2), c.Stats().Failed)
}

func TestConsumer_StartTwice(t *testing.T) {
	_, c := setupConsumer(t, store.NewMemoryStore())
	assert.Error(t, c.Start())

	c.Stop()
	assert.NoError(t, c.Start())
}

func TestNewConsumer_Validation(t *testing.T) {
	q, _ := queue.NewQueue(config.QueueConfig{})
	defer q.Close()

	_, err := NewConsumer(nil, store.NewMemoryStore(), "ht", nil)
	assert.Error(t, err)

	_, err = NewConsumer(q, nil, "ht", nil)
	assert.Error(t, err)
}

func TestReadingMessage_Decode(t *testing.T) {
	_, err := DecodeMessage([]byte("[]"))
	assert.Error(t, err)

	data, err := ReadingMessage{Reading: sugarReading("s1"), RequestID: "r"}.Encode()
	require.NoError(t, err)
	msg, err := DecodeMessage(data)
	require.NoError(t, err)
	assert.Equal(t, "s1", msg.Reading.ID)
	assert.Equal(t, "r", msg.RequestID)
}
