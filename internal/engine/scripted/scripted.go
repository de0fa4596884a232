// Package scripted provides an in-memory engine that answers from
// pre-recorded lines. It is intended for tests and dry runs.
package scripted

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/discochess/moveloss/internal/engine"
	"github.com/discochess/moveloss/internal/fen"
)

// ErrNoScript is returned for positions without recorded lines.
var ErrNoScript = errors.New("scripted: no lines for position")

// Engine answers requests from lines recorded per position.
// It is safe for concurrent use.
type Engine struct {
	mu     sync.RWMutex
	lines  map[string][]engine.Line
	calls  []engine.Request
	closed atomic.Bool
}

var _ engine.Engine = (*Engine)(nil)

// New creates an empty scripted engine.
func New() *Engine {
	return &Engine{lines: make(map[string][]engine.Line)}
}

// Script records the full ranked line list of a position. Clock fields of
// the FEN are ignored. Lines beyond the requested MultiPV are only returned
// to satisfy EnsureMove.
func (e *Engine) Script(fenStr string, lines ...engine.Line) error {
	key, err := fen.Normalize(fenStr)
	if err != nil {
		return fmt.Errorf("normalizing FEN: %w", err)
	}
	copied := make([]engine.Line, len(lines))
	for i, l := range lines {
		copied[i] = engine.Line{PV: append([]string(nil), l.PV...), Score: l.Score}
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.lines[key] = copied
	return nil
}

// Analyze returns the first MultiPV recorded lines, plus the first later
// line starting with EnsureMove when the top lines lack it.
func (e *Engine) Analyze(ctx context.Context, req engine.Request) ([]engine.Line, error) {
	if e.closed.Load() {
		return nil, engine.ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	key, err := fen.Normalize(req.FEN)
	if err != nil {
		return nil, fmt.Errorf("normalizing FEN: %w", err)
	}

	e.mu.Lock()
	e.calls = append(e.calls, req)
	all, ok := e.lines[key]
	e.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoScript, req.FEN)
	}

	n := min(max(req.MultiPV, 1), len(all))
	lines := append([]engine.Line(nil), all[:n]...)
	if req.EnsureMove != "" && !engine.HasMove(lines, req.EnsureMove) {
		for _, l := range all[n:] {
			if l.FirstMove() == req.EnsureMove {
				lines = append(lines, l)
				break
			}
		}
	}
	return lines, nil
}

// Calls returns the requests received so far.
func (e *Engine) Calls() []engine.Request {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return append([]engine.Request(nil), e.calls...)
}

// Closed reports whether Close has been called.
func (e *Engine) Closed() bool {
	return e.closed.Load()
}

// Close marks the engine closed.
func (e *Engine) Close() error {
	e.closed.Store(true)
	return nil
}
