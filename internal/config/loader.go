package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Load loads configuration from file
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		// Default config locations
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")                // Current directory
		v.AddConfigPath("./configs")        // Project configs directory
		v.AddConfigPath("/etc/healthtrack") // System-wide config
	}

	setDefaults(v)

	// HEALTHTRACK_SERVER_HTTP_PORT overrides server.http_port
	v.SetEnvPrefix("HEALTHTRACK")
	v.SetEnvKeyReplacer(envKeyReplacer)
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Config file not found; use defaults
			return parseConfig(v)
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	return parseConfig(v)
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	def := DefaultConfig()

	// Server defaults
	v.SetDefault("server.host", def.Server.Host)
	v.SetDefault("server.http_port", def.Server.HTTPPort)
	v.SetDefault("server.read_timeout", def.Server.ReadTimeout)
	v.SetDefault("server.write_timeout", def.Server.WriteTimeout)
	v.SetDefault("server.body_limit", def.Server.BodyLimit)

	// Storage defaults
	v.SetDefault("storage.type", def.Storage.Type)
	v.SetDefault("storage.redis.key_prefix", def.Storage.Redis.KeyPrefix)
	v.SetDefault("storage.redis.compression", def.Storage.Redis.Compression)
	v.SetDefault("storage.badger.path", def.Storage.Badger.Path)
	v.SetDefault("storage.badger.compression", def.Storage.Badger.Compression)
	v.SetDefault("storage.postgres.max_open_conns", def.Storage.Postgres.MaxOpenConns)
	v.SetDefault("storage.postgres.max_idle_conns", def.Storage.Postgres.MaxIdleConns)
	v.SetDefault("storage.postgres.conn_max_lifetime", def.Storage.Postgres.ConnMaxLifetime)

	// Queue defaults
	v.SetDefault("queue.type", def.Queue.Type)
	v.SetDefault("queue.subject_prefix", def.Queue.SubjectPrefix)
	v.SetDefault("queue.redis_stream", def.Queue.RedisStream)
	v.SetDefault("queue.redis_group", def.Queue.RedisGroup)
	v.SetDefault("queue.kafka_group_id", def.Queue.KafkaGroupID)

	// Analysis defaults
	v.SetDefault("analysis.timezone", def.Analysis.Timezone)
	v.SetDefault("analysis.default_threshold", def.Analysis.DefaultThreshold)
	v.SetDefault("analysis.thresholds", def.Analysis.Thresholds)
	v.SetDefault("analysis.min_readings", def.Analysis.MinReadings)
	v.SetDefault("analysis.min_group_size", def.Analysis.MinGroupSize)

	// Logging defaults
	v.SetDefault("logging.level", def.Logging.Level)
	v.SetDefault("logging.format", def.Logging.Format)
	v.SetDefault("logging.output_path", def.Logging.OutputPath)
}

// parseConfig parses viper config into Config struct
func parseConfig(v *viper.Viper) (*Config, error) {
	var cfg Config

	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// LoadOrDefault loads configuration from file or returns default config
func LoadOrDefault(configPath string) *Config {
	cfg, err := Load(configPath)
	if err != nil {
		return DefaultConfig()
	}
	return cfg
}

// DefaultConfig returns default configuration
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:         "0.0.0.0",
			HTTPPort:     8080,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			BodyLimit:    4 * 1024 * 1024,
		},
		Storage: StorageConfig{
			Type: "memory",
			Redis: RedisConfig{
				KeyPrefix:   "healthtrack",
				Compression: true,
			},
			Badger: BadgerConfig{
				Path:        "./data/badger",
				Compression: "zstd",
			},
			Postgres: PostgresConfig{
				MaxOpenConns:    10,
				MaxIdleConns:    5,
				ConnMaxLifetime: 30 * time.Minute,
			},
		},
		Queue: QueueConfig{
			Type:          "memory",
			SubjectPrefix: "healthtrack",
			RedisStream:   "healthtrack",
			RedisGroup:    "healthtrack-group",
			KafkaGroupID:  "healthtrack-ingest",
		},
		Analysis: AnalysisConfig{
			Timezone:         "UTC",
			DefaultThreshold: 2.0,
			Thresholds: map[string]float64{
				"blood_pressure": 1.5,
				"blood_sugar":    1.2,
			},
			MinReadings:  5,
			MinGroupSize: 3,
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "json",
			OutputPath: "stdout",
		},
	}
}
