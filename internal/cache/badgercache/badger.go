// Package badgercache implements a persistent cache backend on BadgerDB.
package badgercache

import (
	"fmt"
	"sync/atomic"

	"github.com/dgraph-io/badger/v4"

	"github.com/discochess/moveloss/internal/cache"
	"github.com/discochess/moveloss/internal/stats"
)

var _ cache.Backend = (*Backend)(nil)

// Backend stores values in a BadgerDB directory.
type Backend struct {
	db        *badger.DB
	collector stats.Collector

	hits   atomic.Int64
	misses atomic.Int64
	closed atomic.Bool
}

// Open opens (or creates) the database at dir. An empty dir opens an
// in-memory database.
func Open(dir string, collector stats.Collector) (*Backend, error) {
	opts := badger.DefaultOptions(dir)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	opts.Logger = nil // Disable logging

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("opening cache at %q: %w", dir, err)
	}
	if collector == nil {
		collector = stats.NewNoop()
	}
	return &Backend{db: db, collector: collector}, nil
}

// Get retrieves a value. Read errors count as misses.
func (b *Backend) Get(key string) ([]byte, bool) {
	var data []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		b.misses.Add(1)
		b.collector.IncCounter(stats.MetricCacheMisses, 1)
		return nil, false
	}
	b.hits.Add(1)
	b.collector.IncCounter(stats.MetricCacheHits, 1)
	return data, true
}

// Set stores a value.
func (b *Backend) Set(key string, data []byte) error {
	err := b.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), data)
	})
	if err != nil {
		return fmt.Errorf("writing cache entry: %w", err)
	}
	return nil
}

// Stats returns cache statistics. Size counts the stored keys.
func (b *Backend) Stats() cache.Stats {
	size := 0
	_ = b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			size++
		}
		return nil
	})
	return cache.Stats{
		Hits:   b.hits.Load(),
		Misses: b.misses.Load(),
		Size:   size,
	}
}

// Close closes the database. Subsequent calls are no-ops.
func (b *Backend) Close() error {
	if b.closed.Swap(true) {
		return nil
	}
	return b.db.Close()
}
