package queue

import (
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
)

// Test-only exports of the unexported constructors.

func NewNATSQueue(cfg NATSConfig) (*NATSQueue, error) {
	return newNATSQueue(cfg)
}

func NewNATSQueueWithConn(conn *nats.Conn, cfg NATSConfig) (*NATSQueue, error) {
	return newNATSQueueWithConn(conn, cfg)
}

func NewRedisQueue(cfg RedisConfig) (*RedisQueue, error) {
	return newRedisQueue(cfg)
}

func NewRedisQueueWithClient(client *redis.Client, cfg RedisConfig) *RedisQueue {
	return newRedisQueueWithClient(client, cfg)
}

func NewKafkaQueue(cfg KafkaConfig) (*KafkaQueue, error) {
	return newKafkaQueue(cfg)
}

func NewMemoryQueue() *MemoryQueue {
	return newMemoryQueue()
}
