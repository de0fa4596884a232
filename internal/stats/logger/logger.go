// Package logger provides a zap-based stats collector that logs metrics.
package logger

import (
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/discochess/moveloss/internal/stats"
)

// Collector implements stats.Collector by logging every update at debug
// level. It also keeps counter totals so a run can end with a summary.
type Collector struct {
	logger *zap.Logger

	mu     sync.Mutex
	totals map[string]int64
}

var _ stats.Collector = (*Collector)(nil)

// New creates a new logger-based collector.
// If logger is nil, a no-op logger is used.
func New(logger *zap.Logger) *Collector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Collector{logger: logger, totals: make(map[string]int64)}
}

// IncCounter logs a counter increment.
func (c *Collector) IncCounter(name string, delta int64) {
	c.mu.Lock()
	c.totals[name] += delta
	total := c.totals[name]
	c.mu.Unlock()

	c.logger.Debug("counter",
		zap.String("metric", name),
		zap.Int64("delta", delta),
		zap.Int64("total", total),
	)
}

// SetGauge logs a gauge value.
func (c *Collector) SetGauge(name string, value int64) {
	c.logger.Debug("gauge",
		zap.String("metric", name),
		zap.Int64("value", value),
	)
}

// ObserveHistogram logs a histogram observation.
func (c *Collector) ObserveHistogram(name string, value float64) {
	c.logger.Debug("histogram",
		zap.String("metric", name),
		zap.Float64("value", value),
	)
}

// Total returns the accumulated value of a counter.
func (c *Collector) Total(name string) int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.totals[name]
}

// Summary logs every counter total at info level, sorted by name.
func (c *Collector) Summary() {
	c.mu.Lock()
	names := make([]string, 0, len(c.totals))
	for name := range c.totals {
		names = append(names, name)
	}
	sort.Strings(names)
	fields := make([]zap.Field, len(names))
	for i, name := range names {
		fields[i] = zap.Int64(name, c.totals[name])
	}
	c.mu.Unlock()

	c.logger.Info("metrics summary", fields...)
}
