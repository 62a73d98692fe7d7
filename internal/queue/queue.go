// Package queue carries ingested readings from the HTTP layer to the store
// writer over NATS JetStream, Redis Streams, Kafka or an in-process channel.
package queue

import (
	"context"
	"strings"

	"github.com/soltixdb/healthtrack/internal/health"
	"github.com/soltixdb/healthtrack/internal/utils"
)

// Publisher publishes messages to a queue
type Publisher interface {
	// Publish publishes a message to a subject/topic
	Publish(ctx context.Context, subject string, data []byte) error

	// PublishBatch publishes messages and waits for all of them.
	// Returns the number of successfully published messages and any error.
	PublishBatch(ctx context.Context, messages []Message) (int, error)

	// Close closes the connection
	Close() error
}

// Message is a keyed message for batch publishing. Key is the reading ID and
// is used for de-duplication (NATS) or partitioning (Kafka) where supported.
type Message struct {
	Subject string
	Key     string
	Data    []byte
}

// Subscriber subscribes to messages from a queue
type Subscriber interface {
	// Subscribe subscribes to a subject/topic with a handler
	Subscribe(subject string, handler MessageHandler) error

	// Unsubscribe unsubscribes from a subject/topic
	Unsubscribe(subject string) error

	// Close closes the connection
	Close() error
}

// MessageHandler handles incoming messages. A non-nil error asks the backend
// to redeliver the message.
type MessageHandler func(data []byte) error

// Queue combines Publisher and Subscriber interfaces
type Queue interface {
	Publisher
	Subscriber
}

// maxDeliver caps delivery attempts per message on every backend
const maxDeliver = utils.DefaultMaxRetries

// ReadingSubject returns the subject readings of a metric type are published
// on: <prefix>.readings.<metric_type>
func ReadingSubject(prefix string, metric health.MetricType) string {
	return strings.Join([]string{prefix, "readings", string(metric)}, ".")
}

// ReadingSubjects returns one subject per known metric type
func ReadingSubjects(prefix string) []string {
	metrics := health.AllMetricTypes()
	subjects := make([]string, len(metrics))
	for i, m := range metrics {
		subjects[i] = ReadingSubject(prefix, m)
	}
	return subjects
}
