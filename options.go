package moveloss

import (
	"go.uber.org/zap"

	"github.com/discochess/moveloss/internal/engine"
	"github.com/discochess/moveloss/internal/stats"
)

// Default search parameters.
const (
	DefaultDepth   = 5
	DefaultMultiPV = 2
)

// Option configures an Analyzer.
type Option interface {
	apply(*options)
}

// options holds the analyzer configuration.
type options struct {
	engine  engine.Engine
	depth   int
	multiPV int
	stats   stats.Collector
	logger  *zap.Logger
}

// defaultOptions returns the default configuration.
func defaultOptions() options {
	return options{
		depth:   DefaultDepth,
		multiPV: DefaultMultiPV,
		stats:   stats.NewNoop(),
		logger:  zap.NewNop(),
	}
}

// optionFunc wraps a function to implement Option.
type optionFunc func(*options)

// Compile-time check that optionFunc implements Option.
var _ Option = optionFunc(nil)

func (f optionFunc) apply(o *options) { f(o) }

// WithEngine sets the engine used for analysis. The Analyzer takes
// ownership and closes it on Close.
func WithEngine(e engine.Engine) Option {
	return optionFunc(func(o *options) {
		o.engine = e
	})
}

// WithDepth sets the search depth.
// Default is 5.
func WithDepth(depth int) Option {
	return optionFunc(func(o *options) {
		o.depth = depth
	})
}

// WithMultiPV sets how many top lines are requested. Values below 2 are
// raised to 2 so the best move and one alternative are always compared.
// Default is 2.
func WithMultiPV(n int) Option {
	return optionFunc(func(o *options) {
		o.multiPV = n
	})
}

// WithStats sets the stats collector.
// If not set, a no-op collector is used.
func WithStats(c stats.Collector) Option {
	return optionFunc(func(o *options) {
		o.stats = c
	})
}

// WithLogger sets the logger.
// If not set, a no-op logger is used.
func WithLogger(l *zap.Logger) Option {
	return optionFunc(func(o *options) {
		o.logger = l
	})
}
