package store

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/soltixdb/healthtrack/internal/compression"
	"github.com/soltixdb/healthtrack/internal/config"
	"github.com/soltixdb/healthtrack/internal/health"
	"github.com/soltixdb/healthtrack/internal/logging"
)

// Key layout:
//
//	r\x00<user>\x00<metric>\x00<8-byte time>\x00<id>  -> packed reading
//	i\x00<user>\x00<id>                               -> data key
//
// The time component is RecordedAt in unix nanoseconds with the sign bit
// flipped, big endian, so keys within a series sort chronologically.
const (
	badgerDataTag  = 'r'
	badgerIndexTag = 'i'
	keySep         = 0x00
)

// BadgerStore keeps readings in an embedded BadgerDB
type BadgerStore struct {
	db         *badger.DB
	compressor compression.Compressor
	logger     *logging.Logger
}

// NewBadgerStore opens (or creates) the database at cfg.Path
func NewBadgerStore(cfg config.BadgerConfig) (*BadgerStore, error) {
	algo, err := compression.ParseAlgorithm(cfg.Compression)
	if err != nil {
		return nil, err
	}
	compressor, err := compression.GetCompressor(algo)
	if err != nil {
		return nil, err
	}

	opts := badger.DefaultOptions(cfg.Path)
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	}
	opts = opts.WithLogger(nil)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open BadgerDB: %w", err)
	}

	return &BadgerStore{
		db:         db,
		compressor: compressor,
		logger:     logging.Global().With("component", "store.badger"),
	}, nil
}

func seriesPrefix(userID string, metric health.MetricType) []byte {
	key := make([]byte, 0, len(userID)+len(metric)+4)
	key = append(key, badgerDataTag, keySep)
	key = append(key, userID...)
	key = append(key, keySep)
	key = append(key, metric...)
	return append(key, keySep)
}

func encodeTime(t time.Time) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], uint64(t.UnixNano())^(1<<63))
	return b[:]
}

func dataKey(r health.Reading) []byte {
	key := seriesPrefix(r.UserID, r.MetricType)
	key = append(key, encodeTime(r.RecordedAt)...)
	key = append(key, keySep)
	return append(key, r.ID...)
}

func indexKey(userID, id string) []byte {
	key := make([]byte, 0, len(userID)+len(id)+3)
	key = append(key, badgerIndexTag, keySep)
	key = append(key, userID...)
	key = append(key, keySep)
	return append(key, id...)
}

func (s *BadgerStore) encode(r health.Reading) ([]byte, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal reading: %w", err)
	}
	return compression.Pack(s.compressor, data)
}

func (s *BadgerStore) decode(value []byte) (health.Reading, error) {
	var r health.Reading
	data, err := compression.Unpack(value)
	if err != nil {
		return r, err
	}
	if err := json.Unmarshal(data, &r); err != nil {
		return r, fmt.Errorf("failed to unmarshal reading: %w", err)
	}
	return r, nil
}

// Save inserts or replaces a reading. A previous version under the same ID
// is removed in the same transaction.
func (s *BadgerStore) Save(_ context.Context, r health.Reading) error {
	if bytes.IndexByte([]byte(r.UserID), keySep) >= 0 || bytes.IndexByte([]byte(r.ID), keySep) >= 0 {
		return fmt.Errorf("user and reading IDs must not contain NUL bytes")
	}

	value, err := s.encode(r)
	if err != nil {
		return err
	}
	key := dataKey(r)
	idx := indexKey(r.UserID, r.ID)

	return s.db.Update(func(txn *badger.Txn) error {
		old, err := lookupDataKey(txn, idx)
		switch {
		case errors.Is(err, ErrNotFound):
		case err != nil:
			return err
		case !bytes.Equal(old, key):
			if err := txn.Delete(old); err != nil {
				return err
			}
		}
		if err := txn.Set(key, value); err != nil {
			return err
		}
		return txn.Set(idx, key)
	})
}

func lookupDataKey(txn *badger.Txn, idx []byte) ([]byte, error) {
	item, err := txn.Get(idx)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read index: %w", err)
	}
	return item.ValueCopy(nil)
}

// List returns the user's readings matching q
func (s *BadgerStore) List(_ context.Context, q Query) ([]health.Reading, error) {
	readings := []health.Reading{}

	err := s.db.View(func(txn *badger.Txn) error {
		for _, metric := range q.metricTypes() {
			prefix := seriesPrefix(q.UserID, metric)
			seek := prefix
			if !q.Start.IsZero() {
				seek = append(append([]byte{}, prefix...), encodeTime(q.Start)...)
			}
			var end []byte
			if !q.End.IsZero() {
				end = append(append([]byte{}, prefix...), encodeTime(q.End)...)
			}

			it := txn.NewIterator(badger.IteratorOptions{Prefix: prefix, PrefetchValues: true, PrefetchSize: 100})
			for it.Seek(seek); it.ValidForPrefix(prefix); it.Next() {
				item := it.Item()
				if end != nil && bytes.Compare(item.Key(), end) >= 0 {
					break
				}
				value, err := item.ValueCopy(nil)
				if err != nil {
					it.Close()
					return fmt.Errorf("failed to read reading: %w", err)
				}
				r, err := s.decode(value)
				if err != nil {
					s.logger.Warn("Skipping undecodable reading", "key", string(item.Key()), "error", err)
					continue
				}
				readings = append(readings, r)
			}
			it.Close()
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return sortAndLimit(readings, q.Limit), nil
}

// Get returns one reading
func (s *BadgerStore) Get(_ context.Context, userID, id string) (health.Reading, error) {
	var r health.Reading
	err := s.db.View(func(txn *badger.Txn) error {
		key, err := lookupDataKey(txn, indexKey(userID, id))
		if err != nil {
			return err
		}
		item, err := txn.Get(key)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		value, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		r, err = s.decode(value)
		return err
	})
	return r, err
}

// Delete removes one reading
func (s *BadgerStore) Delete(_ context.Context, userID, id string) error {
	idx := indexKey(userID, id)
	return s.db.Update(func(txn *badger.Txn) error {
		key, err := lookupDataKey(txn, idx)
		if err != nil {
			return err
		}
		if err := txn.Delete(key); err != nil {
			return err
		}
		return txn.Delete(idx)
	})
}

// Close closes the database
func (s *BadgerStore) Close() error {
	return s.db.Close()
}
