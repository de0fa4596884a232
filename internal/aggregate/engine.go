package aggregate

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/discochess/moveloss/internal/metric"
	"github.com/discochess/moveloss/internal/record"
	"github.com/discochess/moveloss/internal/wdl"
)

// Option configures an Engine.
type Option interface {
	apply(*options)
}

type options struct {
	models       []wdl.Model
	outlierFloor int
	buckets      []BucketSpec
	columns      []string
	aggs         []Agg
	logger       *zap.Logger
}

func defaultOptions() options {
	return options{
		models:       wdl.Default(),
		outlierFloor: metric.DefaultOutlierFloor,
		aggs:         []Agg{Mean},
		logger:       zap.NewNop(),
	}
}

type optionFunc func(*options)

var _ Option = optionFunc(nil)

func (f optionFunc) apply(o *options) { f(o) }

// WithModels sets the WDL models losses are computed under.
// Default is sf and lichess.
func WithModels(models ...wdl.Model) Option {
	return optionFunc(func(o *options) {
		o.models = models
	})
}

// WithOutlierFloor sets the evaluation below which positions are left out
// of cpl2 and acpl2. Default is -1000.
func WithOutlierFloor(floor int) Option {
	return optionFunc(func(o *options) {
		o.outlierFloor = floor
	})
}

// WithBuckets sets the bucketed reports. Default is DefaultBuckets.
func WithBuckets(specs ...BucketSpec) Option {
	return optionFunc(func(o *options) {
		o.buckets = specs
	})
}

// WithColumns sets the columns of the per-player move report and of
// buckets that name none. Default is elo, bestmove, cpl and one loss column
// per model.
func WithColumns(names ...string) Option {
	return optionFunc(func(o *options) {
		o.columns = names
	})
}

// WithAggs sets the aggregations of the per-player move report and of
// buckets that name none. Default is mean.
func WithAggs(aggs ...Agg) Option {
	return optionFunc(func(o *options) {
		o.aggs = aggs
	})
}

// WithLogger sets the logger.
// If not set, a no-op logger is used.
func WithLogger(l *zap.Logger) Option {
	return optionFunc(func(o *options) {
		o.logger = l
	})
}

// DefaultBuckets returns the rating, ply and evaluation buckets.
func DefaultBuckets() []BucketSpec {
	return []BucketSpec{
		{Name: "rating range", Dimension: DimElo, Start: 1200, Stop: 3000, Width: 100},
		{Name: "game ply", Dimension: DimPly, Start: 0, Stop: 200, Width: 10},
		{Name: "current centipawn evaluation", Dimension: DimCE, Start: -1000, Stop: 1000, Width: 100},
	}
}

// BucketTable is the result of one bucketed report.
type BucketTable struct {
	Spec BucketSpec
	Table
}

// Report is the full set of tables computed over one record set.
type Report struct {
	Records []record.Metrics
	Models  []string

	// OutlierFloor is the floor cpl2 was computed with.
	OutlierFloor int

	Buckets []BucketTable

	// Games has one row per (player, game).
	Games    Table
	Pearson  Matrix
	Spearman Matrix

	// Players aggregates moves per player; PlayerGames averages Games per
	// player.
	Players     Table
	PlayerGames Table
}

// Engine computes metrics and reports under a fixed policy.
type Engine struct {
	models  []wdl.Model
	names   []string
	floor   int
	buckets []BucketSpec
	columns []Column
	aggs    []Agg
	logger  *zap.Logger
}

// New creates an Engine. It fails on bucket specs or columns that cannot be
// resolved.
func New(opts ...Option) (*Engine, error) {
	cfg := defaultOptions()
	for _, opt := range opts {
		opt.apply(&cfg)
	}

	e := &Engine{
		models: cfg.models,
		names:  wdl.Names(cfg.models),
		floor:  cfg.outlierFloor,
		aggs:   cfg.aggs,
		logger: cfg.logger,
	}
	if len(e.aggs) == 0 {
		e.aggs = []Agg{Mean}
	}

	columns := cfg.columns
	if len(columns) == 0 {
		columns = []string{ColElo, ColBestMove, ColCPL}
		for _, name := range e.names {
			columns = append(columns, LossColumn(name))
		}
	}
	if err := e.checkColumns(columns); err != nil {
		return nil, err
	}
	cols, err := Columns(columns, e.floor)
	if err != nil {
		return nil, err
	}
	e.columns = cols

	buckets := cfg.buckets
	if buckets == nil {
		buckets = DefaultBuckets()
	}
	for _, b := range buckets {
		if len(b.Columns) == 0 {
			b.Columns = columns
		}
		if len(b.Aggs) == 0 {
			b.Aggs = e.aggs
		}
		if err := b.Validate(); err != nil {
			return nil, err
		}
		if err := e.checkColumns(b.Columns); err != nil {
			return nil, err
		}
		e.buckets = append(e.buckets, b)
	}

	return e, nil
}

// checkColumns rejects loss columns of models the engine does not compute.
func (e *Engine) checkColumns(names []string) error {
	for _, name := range names {
		if _, err := ColumnByName(name, e.floor); err != nil {
			return err
		}
		model, ok := strings.CutPrefix(name, lossPrefix)
		if !ok {
			continue
		}
		known := false
		for _, n := range e.names {
			if n == model {
				known = true
				break
			}
		}
		if !known {
			return fmt.Errorf("%w: %q has no configured model", ErrUnknownColumn, name)
		}
	}
	return nil
}

// Models returns the engine's WDL models.
func (e *Engine) Models() []wdl.Model {
	return e.models
}

// Compute derives the metrics of a single analysis.
func (e *Engine) Compute(a record.Analysis) record.Metrics {
	return metric.Compute(a, e.models)
}

// Run builds every report over records.
func (e *Engine) Run(records []record.Metrics) *Report {
	r := &Report{
		Records:      records,
		Models:       e.names,
		OutlierFloor: e.floor,
	}

	for _, spec := range e.buckets {
		// Specs were validated by New.
		t, err := Buckets(records, spec, e.floor)
		if err != nil {
			e.logger.Warn("bucket report failed", zap.String("dimension", string(spec.Dimension)), zap.Error(err))
			continue
		}
		r.Buckets = append(r.Buckets, BucketTable{Spec: spec, Table: t})
	}

	r.Games = PerPlayerGame(records, e.names, e.floor)
	r.Pearson = Correlate(r.Games, Pearson)
	r.Spearman = Correlate(r.Games, Spearman)
	r.Players = PerPlayer(records, e.columns, e.aggs)
	r.PlayerGames = PerPlayerOfGames(r.Games)

	e.logger.Debug("aggregated records",
		zap.Int("records", len(records)),
		zap.Int("games", r.Games.Len()),
		zap.Int("players", r.Players.Len()),
	)
	return r
}
