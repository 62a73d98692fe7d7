package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/soltixdb/healthtrack/internal/compression"
	"github.com/soltixdb/healthtrack/internal/config"
	"github.com/soltixdb/healthtrack/internal/health"
	"github.com/soltixdb/healthtrack/internal/logging"
)

// RedisStore keeps each user's readings in one sorted set per metric type,
// scored by RecordedAt in unix milliseconds. Members are the encoded readings.
// A hash per user maps reading IDs to members for point lookups.
//
// Range bounds are compared at millisecond resolution.
type RedisStore struct {
	client     *redis.Client
	prefix     string
	compressor compression.Compressor
	ownsClient bool
	logger     *logging.Logger
}

// NewRedisStore connects to Redis and verifies the connection
func NewRedisStore(cfg config.RedisConfig) (*RedisStore, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		opts = &redis.Options{
			Addr:     cfg.URL,
			Password: cfg.Password,
			DB:       cfg.DB,
		}
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	s := newRedisStoreWithClient(client, cfg)
	s.ownsClient = true
	return s, nil
}

func newRedisStoreWithClient(client *redis.Client, cfg config.RedisConfig) *RedisStore {
	prefix := cfg.KeyPrefix
	if prefix == "" {
		prefix = "healthtrack"
	}

	algo := compression.None
	if cfg.Compression {
		algo = compression.Snappy
	}
	compressor, _ := compression.GetCompressor(algo)

	return &RedisStore{
		client:     client,
		prefix:     prefix,
		compressor: compressor,
		logger:     logging.Global().With("component", "store.redis"),
	}
}

func (s *RedisStore) seriesKey(userID string, metric health.MetricType) string {
	return s.prefix + ":readings:" + userID + ":" + string(metric)
}

func (s *RedisStore) indexKey(userID string) string {
	return s.prefix + ":index:" + userID
}

func (s *RedisStore) encode(r health.Reading) ([]byte, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal reading: %w", err)
	}
	return compression.Pack(s.compressor, data)
}

func (s *RedisStore) decode(member string) (health.Reading, error) {
	var r health.Reading
	data, err := compression.Unpack([]byte(member))
	if err != nil {
		return r, err
	}
	if err := json.Unmarshal(data, &r); err != nil {
		return r, fmt.Errorf("failed to unmarshal reading: %w", err)
	}
	return r, nil
}

// Save inserts or replaces a reading. A previous version under the same ID
// is removed from its sorted set in the same transaction.
func (s *RedisStore) Save(ctx context.Context, r health.Reading) error {
	member, err := s.encode(r)
	if err != nil {
		return err
	}

	index := s.indexKey(r.UserID)
	old, err := s.client.HGet(ctx, index, r.ID).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("failed to look up reading %s: %w", r.ID, err)
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		if old != "" {
			if prev, derr := s.decode(old); derr == nil {
				pipe.ZRem(ctx, s.seriesKey(r.UserID, prev.MetricType), old)
			}
		}
		pipe.ZAdd(ctx, s.seriesKey(r.UserID, r.MetricType), redis.Z{
			Score:  float64(r.RecordedAt.UnixMilli()),
			Member: member,
		})
		pipe.HSet(ctx, index, r.ID, member)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save reading %s: %w", r.ID, err)
	}
	return nil
}

// List returns the user's readings matching q
func (s *RedisStore) List(ctx context.Context, q Query) ([]health.Reading, error) {
	rng := &redis.ZRangeBy{Min: "-inf", Max: "+inf"}
	if !q.Start.IsZero() {
		rng.Min = strconv.FormatInt(q.Start.UnixMilli(), 10)
	}
	if !q.End.IsZero() {
		rng.Max = "(" + strconv.FormatInt(q.End.UnixMilli(), 10)
	}
	if q.Limit > 0 {
		rng.Count = int64(q.Limit)
	}

	result := make([]health.Reading, 0)
	for _, metric := range q.metricTypes() {
		key := s.seriesKey(q.UserID, metric)

		var members []string
		var err error
		if q.Limit > 0 {
			members, err = s.client.ZRevRangeByScore(ctx, key, rng).Result()
		} else {
			members, err = s.client.ZRangeByScore(ctx, key, rng).Result()
		}
		if err != nil {
			return nil, fmt.Errorf("failed to range %s: %w", key, err)
		}

		for _, m := range members {
			r, err := s.decode(m)
			if err != nil {
				s.logger.Warn("Skipping undecodable reading", "key", key, "error", err)
				continue
			}
			result = append(result, r)
		}
	}

	return sortAndLimit(result, q.Limit), nil
}

// Get returns one reading
func (s *RedisStore) Get(ctx context.Context, userID, id string) (health.Reading, error) {
	member, err := s.client.HGet(ctx, s.indexKey(userID), id).Result()
	if errors.Is(err, redis.Nil) {
		return health.Reading{}, ErrNotFound
	}
	if err != nil {
		return health.Reading{}, fmt.Errorf("failed to get reading %s: %w", id, err)
	}
	return s.decode(member)
}

// Delete removes one reading
func (s *RedisStore) Delete(ctx context.Context, userID, id string) error {
	index := s.indexKey(userID)
	member, err := s.client.HGet(ctx, index, id).Result()
	if errors.Is(err, redis.Nil) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to get reading %s: %w", id, err)
	}

	r, err := s.decode(member)
	if err != nil {
		return err
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZRem(ctx, s.seriesKey(userID, r.MetricType), member)
		pipe.HDel(ctx, index, id)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete reading %s: %w", id, err)
	}
	return nil
}

// Close closes the client if the store created it
func (s *RedisStore) Close() error {
	if s.ownsClient {
		return s.client.Close()
	}
	return nil
}
