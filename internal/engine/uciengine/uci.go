// Package uciengine implements engine.Engine over a UCI engine process.
package uciengine

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/freeeve/uci"
	"github.com/notnil/chess"
	"go.uber.org/zap"

	"github.com/discochess/moveloss/internal/engine"
	fenpkg "github.com/discochess/moveloss/internal/fen"
)

var (
	// ErrIllegalMove is returned when the move to ensure is not legal in
	// the requested position.
	ErrIllegalMove = errors.New("uciengine: illegal move")

	// ErrNoResults is returned when the engine reports no lines.
	ErrNoResults = errors.New("uciengine: no results from engine")
)

// Option configures an Engine.
type Option func(*options)

type options struct {
	hashMB  int
	threads int
	logger  *zap.Logger
}

// WithHash sets the transposition table size in MB. Default is 128.
func WithHash(mb int) Option {
	return func(o *options) { o.hashMB = mb }
}

// WithThreads sets the engine's search threads. Default is 1.
func WithThreads(n int) Option {
	return func(o *options) { o.threads = n }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.logger = l }
}

// Engine drives one engine process. Requests are serialized.
type Engine struct {
	mu      sync.Mutex
	eng     *uci.Engine
	opts    options
	multiPV int
	closed  atomic.Bool
}

// Compile-time check that Engine implements engine.Engine.
var _ engine.Engine = (*Engine)(nil)

// New starts the engine binary at path.
func New(path string, opts ...Option) (*Engine, error) {
	o := options{hashMB: 128, threads: 1, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}

	eng, err := uci.NewEngine(path)
	if err != nil {
		return nil, fmt.Errorf("create engine: %w", err)
	}

	// Hash and Threads are sent once: resizing the hash clears it.
	err = eng.SetOptions(uci.Options{
		Hash:    o.hashMB,
		Threads: o.threads,
		MultiPV: 1,
		Ponder:  false,
		OwnBook: false,
	})
	if err != nil {
		eng.Close()
		return nil, fmt.Errorf("set options: %w", err)
	}
	e := &Engine{eng: eng, opts: o, multiPV: 1}

	o.logger.Debug("engine started",
		zap.String("path", path),
		zap.Int("hashMB", o.hashMB),
		zap.Int("threads", o.threads),
	)
	return e, nil
}

func (e *Engine) setMultiPV(n int) error {
	if n < 1 {
		n = 1
	}
	if n == e.multiPV {
		return nil
	}
	if err := e.eng.SendOption("MultiPV", n); err != nil {
		return fmt.Errorf("set MultiPV: %w", err)
	}
	e.multiPV = n
	return nil
}

// Analyze searches req.FEN to req.Depth. If req.EnsureMove is not among the
// top lines, the position after that move is searched one ply shallower
// and its score appended as an extra line.
func (e *Engine) Analyze(ctx context.Context, req engine.Request) ([]engine.Line, error) {
	if e.closed.Load() {
		return nil, engine.ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	lines, err := e.search(req.FEN, req.Depth, req.MultiPV)
	if err != nil {
		return nil, err
	}
	if req.EnsureMove == "" || engine.HasMove(lines, req.EnsureMove) {
		return lines, nil
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	line, err := e.searchMove(req.FEN, req.EnsureMove, req.Depth)
	if err != nil {
		return nil, err
	}
	e.opts.logger.Debug("played move outside top lines",
		zap.String("fen", req.FEN),
		zap.String("move", req.EnsureMove),
		zap.Stringer("score", line.Score),
	)
	return append(lines, line), nil
}

// search runs one multi-PV search and returns the lines ordered by rank.
func (e *Engine) search(fen string, depth, multiPV int) ([]engine.Line, error) {
	if err := e.setMultiPV(multiPV); err != nil {
		return nil, err
	}
	if err := e.eng.SetFEN(fen); err != nil {
		return nil, fmt.Errorf("set FEN: %w", err)
	}

	results, err := e.eng.GoDepth(depth, uci.HighestDepthOnly)
	if err != nil {
		return nil, fmt.Errorf("engine search: %w", err)
	}

	// Keep the deepest result per multipv slot.
	best := make(map[int]uci.ScoreResult)
	for _, r := range results.Results {
		slot := max(r.MultiPV, 1)
		if prev, ok := best[slot]; !ok || r.Depth >= prev.Depth {
			best[slot] = r
		}
	}

	slots := make([]int, 0, len(best))
	for slot := range best {
		slots = append(slots, slot)
	}
	sort.Ints(slots)

	lines := make([]engine.Line, 0, len(slots))
	for _, slot := range slots {
		lines = append(lines, toLine(best[slot]))
	}
	if len(lines) == 0 && results.BestMove != "" && results.BestMove != "(none)" {
		lines = append(lines, engine.Line{PV: []string{results.BestMove}})
	}
	if len(lines) == 0 {
		return nil, ErrNoResults
	}
	return lines, nil
}

// searchMove scores move by searching the position it leads to.
func (e *Engine) searchMove(fen, move string, depth int) (engine.Line, error) {
	full, err := fenpkg.Full(fen)
	if err != nil {
		return engine.Line{}, fmt.Errorf("parse FEN %q: %w", fen, err)
	}
	opt, err := chess.FEN(full)
	if err != nil {
		return engine.Line{}, fmt.Errorf("parse FEN: %w", err)
	}
	pos := chess.NewGame(opt).Position()

	var played *chess.Move
	for _, m := range pos.ValidMoves() {
		if m.String() == move {
			played = m
			break
		}
	}
	if played == nil {
		return engine.Line{}, fmt.Errorf("%w: %s in %s", ErrIllegalMove, move, fen)
	}

	child := pos.Update(played)
	switch child.Status() {
	case chess.Checkmate:
		return engine.Line{PV: []string{move}, Score: engine.Mate(1)}, nil
	case chess.Stalemate:
		return engine.Line{PV: []string{move}, Score: engine.CP(0)}, nil
	}

	lines, err := e.search(child.String(), max(depth-1, 1), 1)
	if err != nil {
		return engine.Line{}, fmt.Errorf("searching after %s: %w", move, err)
	}
	reply := lines[0]
	return engine.Line{
		PV:    append([]string{move}, reply.PV...),
		Score: reply.Score.Parent(),
	}, nil
}

func toLine(r uci.ScoreResult) engine.Line {
	score := engine.CP(r.Score)
	if r.Mate {
		score = engine.Mate(r.Score)
	}
	return engine.Line{
		PV:    append([]string(nil), r.BestMoves...),
		Score: score,
	}
}

// Close stops the engine process. Subsequent calls are no-ops.
func (e *Engine) Close() error {
	if e.closed.Swap(true) {
		return nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.eng.Close()
	return nil
}
