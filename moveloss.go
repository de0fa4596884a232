// Package moveloss measures the quality of moves played in chess games
// against a UCI engine.
//
// An Analyzer asks the engine for its top lines in each position, locates
// the line of the move actually played and records both evaluations:
//
//	eng, err := uciengine.New("/usr/bin/stockfish")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	a, err := moveloss.New(moveloss.WithEngine(eng), moveloss.WithDepth(12))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer a.Close()
//
//	stats, err := a.AnnotateStream(ctx, os.Stdin, os.Stdout)
//
// The annotated output feeds the metric and aggregation packages.
package moveloss

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/discochess/moveloss/internal/engine"
	"github.com/discochess/moveloss/internal/record"
	"github.com/discochess/moveloss/internal/stats"
)

// Sentinel errors for well-defined error conditions.
var (
	// ErrClosed indicates the analyzer has been closed.
	ErrClosed = errors.New("moveloss: analyzer closed")

	// ErrNoEngine indicates no engine was provided.
	ErrNoEngine = errors.New("moveloss: no engine provided")

	// ErrPlayedMoveNotFound indicates no engine line starts with the played move.
	ErrPlayedMoveNotFound = errors.New("moveloss: played move not among engine lines")

	// ErrPlayedMoveDuplicate indicates several engine lines start with the
	// played move.
	ErrPlayedMoveDuplicate = errors.New("moveloss: played move in several engine lines")
)

// AnalysisError reports a position whose engine lines could not be matched
// to the played move. It carries the lines for diagnosis.
type AnalysisError struct {
	FEN   string
	Move  string
	Kind  SelectionKind
	Lines []engine.Line
}

func (e *AnalysisError) Error() string {
	lines := make([]string, len(e.Lines))
	for i, l := range e.Lines {
		lines[i] = l.String()
	}
	return fmt.Sprintf("moveloss: played move %s %s in %q; lines: [%s]",
		e.Move, e.Kind, e.FEN, strings.Join(lines, "; "))
}

func (e *AnalysisError) Unwrap() error {
	if e.Kind == Duplicate {
		return ErrPlayedMoveDuplicate
	}
	return ErrPlayedMoveNotFound
}

// Analyzer evaluates played moves with an engine. Requests are issued one
// at a time; an Analyzer is meant to be driven by a single goroutine.
type Analyzer struct {
	engine  engine.Engine
	depth   int
	multiPV int
	stats   stats.Collector
	logger  *zap.Logger
	closed  atomic.Bool
}

// New creates a new Analyzer with the given options.
func New(opts ...Option) (*Analyzer, error) {
	cfg := defaultOptions()
	for _, opt := range opts {
		opt.apply(&cfg)
	}

	if cfg.engine == nil {
		return nil, ErrNoEngine
	}
	if cfg.depth < 1 {
		return nil, fmt.Errorf("moveloss: depth must be positive, got %d", cfg.depth)
	}

	a := &Analyzer{
		engine:  cfg.engine,
		depth:   cfg.depth,
		multiPV: max(cfg.multiPV, DefaultMultiPV),
		stats:   cfg.stats,
		logger:  cfg.logger,
	}

	a.logger.Debug("analyzer initialized",
		zap.Int("depth", a.depth),
		zap.Int("multiPV", a.multiPV),
	)

	return a, nil
}

// Depth returns the search depth.
func (a *Analyzer) Depth() int {
	return a.depth
}

// MultiPV returns the number of top lines requested.
func (a *Analyzer) MultiPV() int {
	return a.multiPV
}

// Analyze evaluates the played move of p. The result's CE is the score of
// the engine's best line and CE2 the score of the played move's line, both
// from the side to move's perspective.
func (a *Analyzer) Analyze(ctx context.Context, p record.Position) (record.Analysis, error) {
	if a.closed.Load() {
		return record.Analysis{}, ErrClosed
	}
	if p.PlayedMove == "" {
		return record.Analysis{}, &record.MissingFieldError{Key: record.KeyPlayedMove}
	}

	start := time.Now()
	lines, err := a.engine.Analyze(ctx, engine.Request{
		FEN:        p.FEN,
		EnsureMove: p.PlayedMove,
		Depth:      a.depth,
		MultiPV:    a.multiPV,
	})
	a.stats.ObserveHistogram(stats.MetricEngineSeconds, time.Since(start).Seconds())
	if err != nil {
		a.stats.IncCounter(stats.MetricAnalysisErrors, 1)
		return record.Analysis{}, fmt.Errorf("analyzing %q: %w", p.FEN, err)
	}

	sel := SelectPlayed(lines, p.PlayedMove)
	if sel.Kind != Found {
		a.stats.IncCounter(stats.MetricAnalysisErrors, 1)
		return record.Analysis{}, &AnalysisError{
			FEN:   p.FEN,
			Move:  p.PlayedMove,
			Kind:  sel.Kind,
			Lines: lines,
		}
	}

	best := lines[0]
	result := record.Analysis{
		Position: p,
		BestMove: best.FirstMove(),
		CE:       best.Score.Centipawns(),
		CE2:      lines[sel.Index].Score.Centipawns(),
		Depth:    a.depth,
	}

	a.stats.IncCounter(stats.MetricPositionsAnalyzed, 1)
	if result.BestMove == p.PlayedMove {
		a.stats.IncCounter(stats.MetricBestMoves, 1)
	}
	return result, nil
}

// Close releases the engine. After Close, the analyzer should not be used.
func (a *Analyzer) Close() error {
	if !a.closed.CompareAndSwap(false, true) {
		return ErrClosed
	}

	if err := a.engine.Close(); err != nil {
		return fmt.Errorf("closing engine: %w", err)
	}
	return nil
}
