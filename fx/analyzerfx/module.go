// Package analyzerfx provides an fx module for an analyzer driving a UCI
// engine process, with an optional analysis cache.
package analyzerfx

import (
	"context"
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/discochess/moveloss"
	"github.com/discochess/moveloss/internal/cache"
	"github.com/discochess/moveloss/internal/cache/badgercache"
	"github.com/discochess/moveloss/internal/cache/cachestrategy/lru"
	"github.com/discochess/moveloss/internal/cache/memory"
	"github.com/discochess/moveloss/internal/engine"
	"github.com/discochess/moveloss/internal/engine/cachedengine"
	"github.com/discochess/moveloss/internal/engine/uciengine"
	"github.com/discochess/moveloss/internal/stats"
	"github.com/discochess/moveloss/internal/stats/logger"
	statsprom "github.com/discochess/moveloss/internal/stats/prometheus"
)

// ErrNoEnginePath is returned when Config.EnginePath is empty.
var ErrNoEnginePath = errors.New("analyzerfx: engine path not set")

// Config holds configuration for the analyzer.
type Config struct {
	// EnginePath is the UCI engine executable.
	EnginePath string

	// Depth and MultiPV default to the moveloss defaults when zero.
	Depth   int
	MultiPV int

	// Hash (MB) and Threads are passed to the engine when positive.
	Hash    int
	Threads int

	// CacheDir enables a persistent analysis cache in that directory.
	CacheDir string

	// CacheSize is the number of analyses kept in memory when CacheDir is
	// empty. Zero disables the in-memory cache.
	CacheSize int
}

// Module provides a *moveloss.Analyzer.
// Requires a Config and a *zap.Logger to be provided. When a
// prometheus.Registerer is provided, metrics are registered on it;
// otherwise they are logged.
var Module = fx.Module("analyzer",
	fx.Provide(
		newStatsCollector,
		newEngine,
		newAnalyzer,
	),
)

// StatsParams holds dependencies for creating the stats collector.
type StatsParams struct {
	fx.In

	Logger     *zap.Logger
	Registerer prometheus.Registerer `optional:"true"`
}

func newStatsCollector(p StatsParams) stats.Collector {
	if p.Registerer != nil {
		return statsprom.New(p.Registerer)
	}
	return logger.New(p.Logger.Named("moveloss.stats"))
}

// EngineParams holds dependencies for creating the engine.
type EngineParams struct {
	fx.In

	Config    Config
	Logger    *zap.Logger
	Collector stats.Collector
	Lifecycle fx.Lifecycle
}

func newEngine(p EngineParams) (engine.Engine, error) {
	cfg := p.Config
	if cfg.EnginePath == "" {
		return nil, ErrNoEnginePath
	}

	opts := []uciengine.Option{uciengine.WithLogger(p.Logger.Named("uci"))}
	if cfg.Hash > 0 {
		opts = append(opts, uciengine.WithHash(cfg.Hash))
	}
	if cfg.Threads > 0 {
		opts = append(opts, uciengine.WithThreads(cfg.Threads))
	}
	uci, err := uciengine.New(cfg.EnginePath, opts...)
	if err != nil {
		return nil, err
	}

	var backend cache.Backend
	switch {
	case cfg.CacheDir != "":
		b, err := badgercache.Open(cfg.CacheDir, p.Collector)
		if err != nil {
			uci.Close()
			return nil, err
		}
		// Closed after the analyzer, which closes the engine.
		p.Lifecycle.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				return b.Close()
			},
		})
		backend = b
	case cfg.CacheSize > 0:
		strategy, err := lru.New(cfg.CacheSize)
		if err != nil {
			uci.Close()
			return nil, err
		}
		backend = memory.New(strategy, p.Collector)
	default:
		return uci, nil
	}

	return cachedengine.New(uci, backend, p.Logger.Named("cache")), nil
}

// Params holds dependencies for creating the analyzer.
type Params struct {
	fx.In

	Config    Config
	Engine    engine.Engine
	Logger    *zap.Logger
	Collector stats.Collector
	Lifecycle fx.Lifecycle
}

// Result holds the provided analyzer.
type Result struct {
	fx.Out

	Analyzer *moveloss.Analyzer
}

func newAnalyzer(p Params) (Result, error) {
	opts := []moveloss.Option{
		moveloss.WithEngine(p.Engine),
		moveloss.WithStats(p.Collector),
		moveloss.WithLogger(p.Logger.Named("moveloss")),
	}
	if p.Config.Depth > 0 {
		opts = append(opts, moveloss.WithDepth(p.Config.Depth))
	}
	if p.Config.MultiPV > 0 {
		opts = append(opts, moveloss.WithMultiPV(p.Config.MultiPV))
	}

	a, err := moveloss.New(opts...)
	if err != nil {
		p.Engine.Close()
		return Result{}, err
	}

	p.Lifecycle.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return a.Close()
		},
	})

	return Result{Analyzer: a}, nil
}
