package queue

import (
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/soltixdb/healthtrack/internal/config"
)

func TestNewQueue_DefaultsToMemory(t *testing.T) {
	q, err := NewQueue(config.QueueConfig{})
	if err != nil {
		t.Fatalf("Failed to create default queue: %v", err)
	}
	defer func() { _ = q.Close() }()

	if _, ok := q.(*MemoryQueue); !ok {
		t.Errorf("Expected *MemoryQueue, got %T", q)
	}
}

func TestNewQueue_NATS(t *testing.T) {
	url := setupTestNATS(t)

	q, err := NewQueue(config.QueueConfig{Type: "NATS", URL: url, SubjectPrefix: "healthtrack"})
	if err != nil {
		t.Fatalf("Failed to create NATS queue: %v", err)
	}
	defer func() { _ = q.Close() }()

	nq, ok := q.(*NATSQueue)
	if !ok {
		t.Fatalf("Expected *NATSQueue, got %T", q)
	}
	if _, err := nq.js.StreamInfo("HEALTHTRACK"); err != nil {
		t.Errorf("Expected HEALTHTRACK stream: %v", err)
	}
}

func TestNewQueue_Redis(t *testing.T) {
	mr := miniredis.RunT(t)

	q, err := NewQueue(config.QueueConfig{Type: "redis", URL: mr.Addr(), RedisStream: "rs"})
	if err != nil {
		t.Fatalf("Failed to create Redis queue: %v", err)
	}
	defer func() { _ = q.Close() }()

	rq, ok := q.(*RedisQueue)
	if !ok {
		t.Fatalf("Expected *RedisQueue, got %T", q)
	}
	if rq.config.Stream != "rs" {
		t.Errorf("Expected stream prefix rs, got %s", rq.config.Stream)
	}
}

func TestNewQueue_Kafka(t *testing.T) {
	q, err := NewQueue(config.QueueConfig{Type: "kafka", KafkaBrokers: []string{"localhost:9092"}})
	if err != nil {
		t.Fatalf("Failed to create Kafka queue: %v", err)
	}
	_ = q.Close()
}

func TestNewQueue_UnsupportedType(t *testing.T) {
	if _, err := NewQueue(config.QueueConfig{Type: "unknown"}); err == nil {
		t.Fatal("Expected error for unsupported queue type")
	}
}
