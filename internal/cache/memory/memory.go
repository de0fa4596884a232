// Package memory keeps analyses in process memory under a bounded eviction
// strategy.
package memory

import (
	"sync/atomic"

	"github.com/discochess/moveloss/internal/cache"
	"github.com/discochess/moveloss/internal/cache/cachestrategy"
	"github.com/discochess/moveloss/internal/stats"
)

var _ cache.Backend = (*Backend)(nil)

// Backend is safe for concurrent use if its strategy is.
type Backend struct {
	strategy  cachestrategy.Strategy
	collector stats.Collector

	hits      atomic.Int64
	misses    atomic.Int64
	evictions atomic.Int64
}

// New returns a backend evicting through strategy. collector may be nil.
func New(strategy cachestrategy.Strategy, collector stats.Collector) *Backend {
	b := &Backend{strategy: strategy, collector: collector}
	if b.collector == nil {
		b.collector = stats.NewNoop()
	}
	return b
}

func (b *Backend) Get(key string) ([]byte, bool) {
	if val, ok := b.strategy.Get(key); ok {
		b.hits.Add(1)
		b.collector.IncCounter(stats.MetricCacheHits, 1)
		return val, true
	}
	b.misses.Add(1)
	b.collector.IncCounter(stats.MetricCacheMisses, 1)
	return nil, false
}

// Set stores a copy of data, so callers may reuse their buffer.
func (b *Backend) Set(key string, data []byte) error {
	if b.strategy.Add(key, append([]byte(nil), data...)) {
		b.evictions.Add(1)
		b.collector.IncCounter(stats.MetricCacheEvictions, 1)
	}
	b.collector.SetGauge(stats.MetricCacheSize, int64(b.strategy.Len()))
	return nil
}

func (b *Backend) Stats() cache.Stats {
	return cache.Stats{
		Hits:      b.hits.Load(),
		Misses:    b.misses.Load(),
		Evictions: b.evictions.Load(),
		Size:      b.strategy.Len(),
	}
}
