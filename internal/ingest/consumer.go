package ingest

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/soltixdb/healthtrack/internal/logging"
	"github.com/soltixdb/healthtrack/internal/queue"
	"github.com/soltixdb/healthtrack/internal/store"
	"github.com/soltixdb/healthtrack/internal/utils"
)

// Stats counts consumer outcomes since start
type Stats struct {
	Stored   int64 `json:"stored"`
	Rejected int64 `json:"rejected"`
	Failed   int64 `json:"failed"`
}

// Consumer subscribes to every reading subject and writes readings into the
// store. Malformed or invalid payloads are logged and acknowledged; store
// failures are returned so the queue redelivers.
type Consumer struct {
	subscriber queue.Subscriber
	store      store.Store
	subjects   []string
	logger     *logging.Logger

	stored   atomic.Int64
	rejected atomic.Int64
	failed   atomic.Int64

	mu      sync.Mutex
	started bool
}

// NewConsumer creates a consumer for readings published under prefix
func NewConsumer(sub queue.Subscriber, st store.Store, prefix string, logger *logging.Logger) (*Consumer, error) {
	if sub == nil {
		return nil, fmt.Errorf("subscriber is nil")
	}
	if st == nil {
		return nil, fmt.Errorf("store is nil")
	}
	if logger == nil {
		logger = logging.Global()
	}

	return &Consumer{
		subscriber: sub,
		store:      st,
		subjects:   queue.ReadingSubjects(prefix),
		logger:     logger.With("component", "ingest"),
	}, nil
}

// Start subscribes to all reading subjects
func (c *Consumer) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.started {
		return fmt.Errorf("consumer already started")
	}

	for i, subject := range c.subjects {
		if err := c.subscriber.Subscribe(subject, c.handleMessage); err != nil {
			for _, s := range c.subjects[:i] {
				_ = c.subscriber.Unsubscribe(s)
			}
			return fmt.Errorf("failed to subscribe to %s: %w", subject, err)
		}
		c.logger.Info("Subscribed to readings", "subject", subject)
	}

	c.started = true
	return nil
}

// Stop unsubscribes from all subjects. The subscriber itself stays open.
func (c *Consumer) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.started {
		return
	}
	for _, subject := range c.subjects {
		if err := c.subscriber.Unsubscribe(subject); err != nil {
			c.logger.Warn("Failed to unsubscribe", "subject", subject, "error", err)
		}
	}
	c.started = false
}

// Stats returns a snapshot of the counters
func (c *Consumer) Stats() Stats {
	return Stats{
		Stored:   c.stored.Load(),
		Rejected: c.rejected.Load(),
		Failed:   c.failed.Load(),
	}
}

func (c *Consumer) handleMessage(data []byte) error {
	msg, err := DecodeMessage(data)
	if err != nil {
		c.rejected.Add(1)
		c.logger.Error("Dropping malformed reading message",
			"error", err,
			"data_preview", string(data[:min(200, len(data))]))
		return nil
	}

	r := msg.Reading
	if err := r.Validate(); err != nil {
		c.rejected.Add(1)
		c.logger.Warn("Dropping invalid reading",
			"error", err,
			"id", r.ID,
			"request_id", msg.RequestID)
		return nil
	}
	if r.UserID == "" {
		c.rejected.Add(1)
		c.logger.Warn("Dropping reading without user", "id", r.ID, "request_id", msg.RequestID)
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), utils.StoreTimeout)
	defer cancel()

	if err := c.store.Save(ctx, r); err != nil {
		c.failed.Add(1)
		c.logger.Error("Failed to store reading",
			"error", err,
			"id", r.ID,
			"user_id", r.UserID,
			"metric_type", r.MetricType)
		return err
	}

	c.stored.Add(1)
	c.logger.Debug("Stored reading", "id", r.ID, "user_id", r.UserID, "metric_type", r.MetricType)
	return nil
}
