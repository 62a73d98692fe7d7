package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/soltixdb/healthtrack/internal/analytics/timeofday"
	"github.com/soltixdb/healthtrack/internal/compression"
	"github.com/soltixdb/healthtrack/internal/health"
	"github.com/soltixdb/healthtrack/internal/utils"
)

// Config represents the complete application configuration
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Queue    QueueConfig    `mapstructure:"queue"`
	Analysis AnalysisConfig `mapstructure:"analysis"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// ServerConfig represents server configuration
type ServerConfig struct {
	Host         string        `mapstructure:"host"`      // Bind address (e.g., 0.0.0.0 for all interfaces)
	HTTPPort     int           `mapstructure:"http_port"` // HTTP server port
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	BodyLimit    int           `mapstructure:"body_limit"` // Max request body in bytes
}

// StorageConfig selects and configures the reading store
type StorageConfig struct {
	Type     string         `mapstructure:"type"` // memory (default), redis, postgres, badger
	Redis    RedisConfig    `mapstructure:"redis"`
	Postgres PostgresConfig `mapstructure:"postgres"`
	Badger   BadgerConfig   `mapstructure:"badger"`
}

// RedisConfig represents the Redis store connection
type RedisConfig struct {
	URL         string `mapstructure:"url"` // host:port or redis:// URL
	Password    string `mapstructure:"password"`
	DB          int    `mapstructure:"db"`
	KeyPrefix   string `mapstructure:"key_prefix"`  // Prefix for all keys (default: "healthtrack")
	Compression bool   `mapstructure:"compression"` // Snappy-compress stored readings
}

// PostgresConfig represents the PostgreSQL store connection
type PostgresConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// BadgerConfig represents the embedded BadgerDB store
type BadgerConfig struct {
	Path        string `mapstructure:"path"`        // Data directory
	InMemory    bool   `mapstructure:"in_memory"`   // Keep everything in memory, nothing on disk
	Compression string `mapstructure:"compression"` // none, snappy, zstd (default: zstd)
}

// QueueConfig represents message queue configuration
type QueueConfig struct {
	Type          string `mapstructure:"type"`           // Queue type: memory (default), nats, redis, kafka
	URL           string `mapstructure:"url"`            // Queue server URL (e.g., nats://localhost:4222, localhost:6379)
	Username      string `mapstructure:"username"`       // Optional authentication
	Password      string `mapstructure:"password"`       // Optional authentication
	SubjectPrefix string `mapstructure:"subject_prefix"` // Prefix for reading subjects (default: "healthtrack")

	// Redis-specific options
	RedisDB       int    `mapstructure:"redis_db"`       // Redis database number (default: 0)
	RedisStream   string `mapstructure:"redis_stream"`   // Redis stream prefix (default: "healthtrack")
	RedisGroup    string `mapstructure:"redis_group"`    // Redis consumer group (default: "healthtrack-group")
	RedisConsumer string `mapstructure:"redis_consumer"` // Redis consumer name (default: hostname)

	// Kafka-specific options
	KafkaBrokers []string `mapstructure:"kafka_brokers"`  // Kafka broker addresses
	KafkaGroupID string   `mapstructure:"kafka_group_id"` // Kafka consumer group ID
}

// AnalysisConfig holds statistics defaults
type AnalysisConfig struct {
	Timezone         string             `mapstructure:"timezone"`          // Default for time-of-day buckets ("Asia/Tokyo", "+09:00", "UTC")
	DefaultThreshold float64            `mapstructure:"default_threshold"` // z-score threshold for metrics without an override
	Thresholds       map[string]float64 `mapstructure:"thresholds"`        // metric_type -> z-score threshold
	MinReadings      int                `mapstructure:"min_readings"`
	MinGroupSize     int                `mapstructure:"min_group_size"`
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level      string `mapstructure:"level"`       // debug, info, warn, error
	Format     string `mapstructure:"format"`      // json, console
	OutputPath string `mapstructure:"output_path"` // stdout, stderr, file path
	TimeFormat string `mapstructure:"time_format"` // RFC3339, Unix, UnixMs, etc
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("server config: %w", err)
	}

	if err := c.Storage.Validate(); err != nil {
		return fmt.Errorf("storage config: %w", err)
	}

	if err := c.Queue.Validate(); err != nil {
		return fmt.Errorf("queue config: %w", err)
	}

	if err := c.Analysis.Validate(); err != nil {
		return fmt.Errorf("analysis config: %w", err)
	}

	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging config: %w", err)
	}

	return nil
}

// Validate validates server configuration
func (c *ServerConfig) Validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid http_port: %d", c.HTTPPort)
	}

	if c.BodyLimit < 0 {
		return fmt.Errorf("body_limit cannot be negative")
	}

	return nil
}

// Validate validates storage configuration
func (c *StorageConfig) Validate() error {
	switch utils.StoreType(strings.ToLower(c.Type)) {
	case "", utils.StoreTypeMemory:
	case utils.StoreTypeRedis:
		if c.Redis.URL == "" {
			return fmt.Errorf("storage.redis.url is required for redis storage")
		}
	case utils.StoreTypePostgres:
		if c.Postgres.DSN == "" {
			return fmt.Errorf("storage.postgres.dsn is required for postgres storage")
		}
	case utils.StoreTypeBadger:
		if c.Badger.Path == "" && !c.Badger.InMemory {
			return fmt.Errorf("storage.badger.path is required unless storage.badger.in_memory is set")
		}
		if _, err := compression.ParseAlgorithm(c.Badger.Compression); err != nil {
			return fmt.Errorf("storage.badger.compression: %w", err)
		}
	default:
		return fmt.Errorf("storage.type must be one of: memory, redis, postgres, badger")
	}

	return nil
}

// Validate validates queue configuration
func (c *QueueConfig) Validate() error {
	switch utils.QueueType(strings.ToLower(c.Type)) {
	case "", utils.QueueTypeMemory:
	case utils.QueueTypeNATS, utils.QueueTypeRedis:
		if c.URL == "" {
			return fmt.Errorf("queue.url is required for %s queue", c.Type)
		}
	case utils.QueueTypeKafka:
		if len(c.KafkaBrokers) == 0 {
			return fmt.Errorf("queue.kafka_brokers is required for kafka queue")
		}
	default:
		return fmt.Errorf("queue.type must be one of: memory, nats, redis, kafka")
	}

	if strings.ContainsAny(c.SubjectPrefix, " *>") {
		return fmt.Errorf("queue.subject_prefix contains invalid characters")
	}

	return nil
}

// Validate validates analysis configuration
func (c *AnalysisConfig) Validate() error {
	if _, err := timeofday.ParseLocation(c.Timezone); err != nil {
		return fmt.Errorf("analysis.timezone: %w", err)
	}

	if c.DefaultThreshold < 0 {
		return fmt.Errorf("analysis.default_threshold cannot be negative")
	}

	for name, t := range c.Thresholds {
		if _, err := health.ParseMetricType(name); err != nil {
			return fmt.Errorf("analysis.thresholds: %w", err)
		}
		if t <= 0 {
			return fmt.Errorf("analysis.thresholds.%s must be positive", name)
		}
	}

	if c.MinReadings < 0 || c.MinGroupSize < 0 {
		return fmt.Errorf("analysis.min_readings and min_group_size cannot be negative")
	}

	return nil
}

// Validate validates logging configuration
func (c *LoggingConfig) Validate() error {
	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}

	if !validLevels[c.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}

	validFormats := map[string]bool{
		"json":    true,
		"console": true,
	}

	if !validFormats[c.Format] {
		return fmt.Errorf("logging.format must be 'json' or 'console'")
	}

	return nil
}
