package utils

import "time"

// =============================================================================
// Timeout Constants
// =============================================================================

// HTTP Handler Timeouts
const (
	// DefaultRequestTimeout is the default client timeout for HTTP requests
	DefaultRequestTimeout = 30 * time.Second

	// PublishTimeout bounds a single publish of ingested readings
	PublishTimeout = 5 * time.Second

	// StoreTimeout bounds a single store round trip from a handler or consumer
	StoreTimeout = 10 * time.Second

	// ShutdownTimeout is the grace period for in-flight requests on shutdown
	ShutdownTimeout = 10 * time.Second
)

// =============================================================================
// Retry and Backoff Constants
// =============================================================================

const (
	// DefaultMaxRetries is the default number of retry attempts
	DefaultMaxRetries = 3

	// DefaultRetryBackoff is the default backoff duration between retries
	DefaultRetryBackoff = 100 * time.Millisecond
)

// =============================================================================
// Buffer and Batch Size Constants
// =============================================================================

const (
	// DefaultListLimit caps list queries that do not set a limit
	DefaultListLimit = 1000

	// MaxListLimit is the largest limit a caller may request
	MaxListLimit = 10000

	// MaxBatchSize is the maximum number of readings in one batch request
	MaxBatchSize = 500

	// DefaultBufferSize bounds messages fetched or in flight per consumer read
	DefaultBufferSize = 100
)

// =============================================================================
// Queue Type Constants
// =============================================================================
// QueueType represents the type of message queue
type QueueType string

const (
	// QueueTypeNATS represents NATS JetStream queue
	QueueTypeNATS QueueType = "nats"

	// QueueTypeRedis represents Redis Streams queue
	QueueTypeRedis QueueType = "redis"

	// QueueTypeKafka represents Apache Kafka queue
	QueueTypeKafka QueueType = "kafka"

	// QueueTypeMemory represents in-memory queue (default)
	QueueTypeMemory QueueType = "memory"
)

// =============================================================================
// Store Type Constants
// =============================================================================
// StoreType represents the reading store backend
type StoreType string

const (
	// StoreTypeMemory keeps readings in process (default)
	StoreTypeMemory StoreType = "memory"

	// StoreTypeRedis keeps readings in Redis sorted sets
	StoreTypeRedis StoreType = "redis"

	// StoreTypePostgres keeps readings in a PostgreSQL table
	StoreTypePostgres StoreType = "postgres"

	// StoreTypeBadger keeps readings in an embedded BadgerDB
	StoreTypeBadger StoreType = "badger"
)
