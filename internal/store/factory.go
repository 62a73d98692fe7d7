package store

import (
	"fmt"
	"strings"

	"github.com/soltixdb/healthtrack/internal/config"
	"github.com/soltixdb/healthtrack/internal/utils"
)

// New creates a Store from configuration. An empty type selects the
// in-memory store.
func New(cfg config.StorageConfig) (Store, error) {
	switch utils.StoreType(strings.ToLower(cfg.Type)) {
	case "", utils.StoreTypeMemory:
		return NewMemoryStore(), nil
	case utils.StoreTypeRedis:
		return NewRedisStore(cfg.Redis)
	case utils.StoreTypePostgres:
		return NewPostgresStore(cfg.Postgres)
	case utils.StoreTypeBadger:
		return NewBadgerStore(cfg.Badger)
	default:
		return nil, fmt.Errorf("unsupported storage type: %s (supported: memory, redis, postgres, badger)", cfg.Type)
	}
}
