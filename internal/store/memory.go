package store

import (
	"context"
	"hash/fnv"
	"sync"

	"github.com/soltixdb/healthtrack/internal/health"
)

const numShards = 16

// memoryShard holds the readings of the users hashed to it
type memoryShard struct {
	mu sync.RWMutex
	// userID -> readingID -> reading
	data map[string]map[string]health.Reading
}

// MemoryStore keeps readings in process. Users are spread across shards by
// FNV hash so writers for different users rarely contend.
type MemoryStore struct {
	shards [numShards]memoryShard
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	s := &MemoryStore{}
	for i := range s.shards {
		s.shards[i].data = make(map[string]map[string]health.Reading)
	}
	return s
}

func (s *MemoryStore) shardFor(userID string) *memoryShard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(userID))
	return &s.shards[h.Sum32()%numShards]
}

// Save inserts or replaces a reading
func (s *MemoryStore) Save(_ context.Context, r health.Reading) error {
	sh := s.shardFor(r.UserID)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	user, ok := sh.data[r.UserID]
	if !ok {
		user = make(map[string]health.Reading)
		sh.data[r.UserID] = user
	}
	user[r.ID] = r
	return nil
}

// List returns the user's readings matching q
func (s *MemoryStore) List(_ context.Context, q Query) ([]health.Reading, error) {
	sh := s.shardFor(q.UserID)
	sh.mu.RLock()
	result := make([]health.Reading, 0)
	for _, r := range sh.data[q.UserID] {
		if q.MetricType != "" && r.MetricType != q.MetricType {
			continue
		}
		if !q.inRange(r.RecordedAt) {
			continue
		}
		result = append(result, r)
	}
	sh.mu.RUnlock()

	return sortAndLimit(result, q.Limit), nil
}

// Get returns one reading
func (s *MemoryStore) Get(_ context.Context, userID, id string) (health.Reading, error) {
	sh := s.shardFor(userID)
	sh.mu.RLock()
	defer sh.mu.RUnlock()

	r, ok := sh.data[userID][id]
	if !ok {
		return health.Reading{}, ErrNotFound
	}
	return r, nil
}

// Delete removes one reading
func (s *MemoryStore) Delete(_ context.Context, userID, id string) error {
	sh := s.shardFor(userID)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	user := sh.data[userID]
	if _, ok := user[id]; !ok {
		return ErrNotFound
	}
	delete(user, id)
	if len(user) == 0 {
		delete(sh.data, userID)
	}
	return nil
}

// Close is a no-op
func (s *MemoryStore) Close() error {
	return nil
}
