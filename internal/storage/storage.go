package storage

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/dgraph-io/badger/v4"
	"github.com/rs/zerolog"
)

// Key layout: 'p' | hash (8 bytes, big endian) | depth (1 byte).
const (
	perftPrefix = 'p'
	perftKeyLen = 10
)

// PerftStore caches perft subtree counts in BadgerDB. Counts depend only
// on the position and the depth, so entries never go stale and the store
// can be shared across runs.
type PerftStore struct {
	db     *badger.DB
	hits   atomic.Uint64
	misses atomic.Uint64
}

// Stats reports cache effectiveness since Open.
type Stats struct {
	Hits   uint64
	Misses uint64
}

// Open opens the store in dir, creating it if needed. An empty dir gives
// an in-memory store that is discarded on Close.
func Open(dir string, logger zerolog.Logger) (*PerftStore, error) {
	opts := badger.DefaultOptions(dir)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	opts.Logger = badgerLogger{logger.With().Str("component", "badger").Logger()}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open perft store %q: %w", dir, err)
	}
	return &PerftStore{db: db}, nil
}

// Close closes the database
func (s *PerftStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func perftKey(hash uint64, depth int) []byte {
	key := make([]byte, perftKeyLen)
	key[0] = perftPrefix
	binary.BigEndian.PutUint64(key[1:], hash)
	key[9] = byte(depth)
	return key
}

// Get returns the stored count for (hash, depth).
func (s *PerftStore) Get(hash uint64, depth int) (uint64, bool, error) {
	var nodes uint64
	found := false

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(perftKey(hash, depth))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			if len(val) != 8 {
				return fmt.Errorf("perft entry for %016x depth %d: %d byte value", hash, depth, len(val))
			}
			nodes = binary.BigEndian.Uint64(val)
			found = true
			return nil
		})
	})
	if err != nil {
		return 0, false, fmt.Errorf("perft store get: %w", err)
	}

	if found {
		s.hits.Add(1)
	} else {
		s.misses.Add(1)
	}
	return nodes, found, nil
}

// Put stores the count for (hash, depth).
func (s *PerftStore) Put(hash uint64, depth int, nodes uint64) error {
	val := make([]byte, 8)
	binary.BigEndian.PutUint64(val, nodes)

	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(perftKey(hash, depth), val)
	})
	if err != nil {
		return fmt.Errorf("perft store put: %w", err)
	}
	return nil
}

// Len counts the stored entries.
func (s *PerftStore) Len() (int, error) {
	n := 0
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte{perftPrefix}
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			n++
		}
		return nil
	})
	return n, err
}

// Stats returns the hit and miss counters.
func (s *PerftStore) Stats() Stats {
	return Stats{Hits: s.hits.Load(), Misses: s.misses.Load()}
}

// badgerLogger routes Badger's log output through zerolog.
type badgerLogger struct {
	zerolog.Logger
}

func (l badgerLogger) Errorf(format string, args ...any) {
	l.Error().Msgf(format, args...)
}

func (l badgerLogger) Warningf(format string, args ...any) {
	l.Warn().Msgf(format, args...)
}

func (l badgerLogger) Infof(format string, args ...any) {
	l.Debug().Msgf(format, args...)
}

func (l badgerLogger) Debugf(format string, args ...any) {
	l.Trace().Msgf(format, args...)
}
