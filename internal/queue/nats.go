package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/soltixdb/healthtrack/internal/utils"
)

// NATSConfig represents NATS JetStream configuration
type NATSConfig struct {
	URL      string
	Username string
	Password string

	// Stream is the JetStream stream holding reading subjects (default: "HEALTHTRACK")
	Stream string

	// Subjects bound to Stream at connect time, e.g. "healthtrack.readings.>"
	Subjects []string
}

// NATSQueue implements Queue interface using NATS JetStream
type NATSQueue struct {
	conn          *nats.Conn
	js            nats.JetStreamContext
	config        NATSConfig
	ownsConn      bool
	subscriptions map[string]*nats.Subscription
	mu            sync.RWMutex
}

// newNATSQueue connects to NATS and ensures the readings stream exists
func newNATSQueue(cfg NATSConfig) (*NATSQueue, error) {
	opts := []nats.Option{nats.Name("healthtrack")}
	if cfg.Username != "" {
		opts = append(opts, nats.UserInfo(cfg.Username, cfg.Password))
	}

	conn, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	q, err := newNATSQueueWithConn(conn, cfg)
	if err != nil {
		conn.Close()
		return nil, err
	}
	q.ownsConn = true
	return q, nil
}

// newNATSQueueWithConn wraps an existing connection (used in tests)
func newNATSQueueWithConn(conn *nats.Conn, cfg NATSConfig) (*NATSQueue, error) {
	js, err := conn.JetStream()
	if err != nil {
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	if cfg.Stream == "" {
		cfg.Stream = "HEALTHTRACK"
	}

	q := &NATSQueue{
		conn:          conn,
		js:            js,
		config:        cfg,
		subscriptions: make(map[string]*nats.Subscription),
	}

	if len(cfg.Subjects) > 0 {
		if err := q.ensureStream(cfg.Stream, cfg.Subjects); err != nil {
			return nil, err
		}
	}
	return q, nil
}

// ensureStream creates the stream if it is missing
func (q *NATSQueue) ensureStream(name string, subjects []string) error {
	if _, err := q.js.StreamInfo(name); err == nil {
		return nil
	} else if !errors.Is(err, nats.ErrStreamNotFound) {
		return fmt.Errorf("failed to look up stream %s: %w", name, err)
	}

	_, err := q.js.AddStream(&nats.StreamConfig{
		Name:       name,
		Subjects:   subjects,
		Storage:    nats.FileStorage,
		Duplicates: 2 * time.Minute,
	})
	if err != nil {
		return fmt.Errorf("failed to create stream %s: %w", name, err)
	}
	return nil
}

// Publish publishes a message and waits for the JetStream ack
func (q *NATSQueue) Publish(ctx context.Context, subject string, data []byte) error {
	if _, err := q.js.Publish(subject, data, nats.Context(ctx)); err != nil {
		return fmt.Errorf("failed to publish to subject %s: %w", subject, err)
	}
	return nil
}

// PublishBatch publishes all messages asynchronously then waits for the acks.
// Message keys become Nats-Msg-Id headers so a retried batch is de-duplicated.
func (q *NATSQueue) PublishBatch(ctx context.Context, messages []Message) (int, error) {
	if len(messages) == 0 {
		return 0, nil
	}

	futures := make([]nats.PubAckFuture, 0, len(messages))
	for _, msg := range messages {
		var opts []nats.PubOpt
		if msg.Key != "" {
			opts = append(opts, nats.MsgId(msg.Key))
		}
		future, err := q.js.PublishAsync(msg.Subject, msg.Data, opts...)
		if err != nil {
			continue
		}
		futures = append(futures, future)
	}

	select {
	case <-q.js.PublishAsyncComplete():
	case <-ctx.Done():
		return 0, fmt.Errorf("timeout waiting for batch publish: %w", ctx.Err())
	}

	published := 0
	var lastErr error
	for _, future := range futures {
		select {
		case <-future.Ok():
			published++
		case err := <-future.Err():
			lastErr = err
		}
	}

	if published < len(messages) {
		if lastErr == nil {
			lastErr = fmt.Errorf("%d messages not queued", len(messages)-len(futures))
		}
		return published, fmt.Errorf("batch publish incomplete: %w", lastErr)
	}
	return published, nil
}

// Subscribe binds a durable, manually acked consumer to subject.
// Handler errors NAK the message; JetStream redelivers up to maxDeliver times.
func (q *NATSQueue) Subscribe(subject string, handler MessageHandler) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if _, exists := q.subscriptions[subject]; exists {
		return fmt.Errorf("already subscribed to subject: %s", subject)
	}

	if _, err := q.js.StreamNameBySubject(subject); err != nil {
		name := q.config.Stream + "-" + sanitizeConsumerName(subject)
		if err := q.ensureStream(name, []string{subject}); err != nil {
			return err
		}
	}

	sub, err := q.js.Subscribe(subject, func(msg *nats.Msg) {
		if err := handler(msg.Data); err != nil {
			_ = msg.Nak()
			return
		}
		_ = msg.Ack()
	},
		nats.Durable("ingest-"+sanitizeConsumerName(subject)),
		nats.ManualAck(),
		nats.MaxAckPending(utils.DefaultBufferSize),
		nats.AckWait(30*time.Second),
		nats.MaxDeliver(maxDeliver),
		nats.DeliverAll(),
	)
	if err != nil {
		return fmt.Errorf("failed to subscribe to subject %s: %w", subject, err)
	}

	q.subscriptions[subject] = sub
	return nil
}

// Unsubscribe unsubscribes from a subject
func (q *NATSQueue) Unsubscribe(subject string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	sub, exists := q.subscriptions[subject]
	if !exists {
		return fmt.Errorf("not subscribed to subject: %s", subject)
	}

	if err := sub.Unsubscribe(); err != nil {
		return fmt.Errorf("failed to unsubscribe from subject %s: %w", subject, err)
	}

	delete(q.subscriptions, subject)
	return nil
}

// Close drains subscriptions and closes the connection if this queue opened it
func (q *NATSQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	for subject, sub := range q.subscriptions {
		_ = sub.Unsubscribe()
		delete(q.subscriptions, subject)
	}

	if q.ownsConn {
		q.conn.Close()
	}
	return nil
}

// sanitizeConsumerName replaces characters not allowed in stream and
// consumer names (anything except A-Z, a-z, 0-9, dash and underscore)
func sanitizeConsumerName(subject string) string {
	result := []byte(subject)
	for i, c := range result {
		switch {
		case c >= 'A' && c <= 'Z', c >= 'a' && c <= 'z', c >= '0' && c <= '9', c == '-', c == '_':
		default:
			result[i] = '_'
		}
	}
	return string(result)
}
