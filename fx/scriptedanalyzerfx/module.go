// Package scriptedanalyzerfx provides an fx module for an analyzer backed
// by a scripted engine. Useful for testing.
package scriptedanalyzerfx

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/discochess/moveloss"
	"github.com/discochess/moveloss/internal/engine/scripted"
	"github.com/discochess/moveloss/internal/stats"
	"github.com/discochess/moveloss/internal/stats/logger"
)

// Module provides an analyzer over a scripted engine for testing.
// Requires a *zap.Logger to be provided.
var Module = fx.Module("scriptedanalyzer",
	fx.Provide(
		newStatsCollector,
		newEngine,
		newAnalyzer,
	),
)

func newStatsCollector(log *zap.Logger) stats.Collector {
	return logger.New(log.Named("moveloss.stats"))
}

func newEngine() *scripted.Engine {
	return scripted.New()
}

// Params holds dependencies for creating the analyzer.
type Params struct {
	fx.In

	Logger    *zap.Logger
	Collector stats.Collector
	Engine    *scripted.Engine
	Lifecycle fx.Lifecycle
}

// Result holds the provided analyzer and engine.
type Result struct {
	fx.Out

	Analyzer *moveloss.Analyzer
	Engine   *scripted.Engine // Exposed for test setup
}

func newAnalyzer(p Params) (Result, error) {
	a, err := moveloss.New(
		moveloss.WithEngine(p.Engine),
		moveloss.WithStats(p.Collector),
		moveloss.WithLogger(p.Logger.Named("moveloss")),
	)
	if err != nil {
		return Result{}, err
	}

	p.Lifecycle.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return a.Close()
		},
	})

	return Result{
		Analyzer: a,
		Engine:   p.Engine,
	}, nil
}
