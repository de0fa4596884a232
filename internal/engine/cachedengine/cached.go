// Package cachedengine wraps an engine.Engine with a cache of analyses.
package cachedengine

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/discochess/moveloss/internal/cache"
	"github.com/discochess/moveloss/internal/engine"
	"github.com/discochess/moveloss/internal/fen"
)

var _ engine.Engine = (*Engine)(nil)

// Engine answers repeated requests from a cache backend.
type Engine struct {
	underlying engine.Engine
	backend    cache.Backend
	logger     *zap.Logger
}

// New wraps underlying. logger may be nil.
func New(underlying engine.Engine, backend cache.Backend, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{underlying: underlying, backend: backend, logger: logger}
}

// entry is the cached form of a line.
type entry struct {
	PV     []string `json:"pv"`
	CP     int      `json:"cp,omitempty"`
	Mate   int      `json:"mate,omitempty"`
	IsMate bool     `json:"is_mate,omitempty"`
}

// Key returns the cache key of a request. Clock fields of the FEN do not
// take part.
func Key(req engine.Request) (string, error) {
	norm, err := fen.Normalize(req.FEN)
	if err != nil {
		return "", err
	}
	return strings.Join([]string{
		norm,
		req.EnsureMove,
		strconv.Itoa(req.Depth),
		strconv.Itoa(req.MultiPV),
	}, "|"), nil
}

// Analyze returns cached lines when present, otherwise asks the underlying
// engine and stores its answer. Cache write failures are logged, not
// returned.
func (e *Engine) Analyze(ctx context.Context, req engine.Request) ([]engine.Line, error) {
	key, err := Key(req)
	if err != nil {
		return nil, fmt.Errorf("cache key: %w", err)
	}

	if data, ok := e.backend.Get(key); ok {
		lines, err := decode(data)
		if err == nil {
			return lines, nil
		}
		e.logger.Warn("discarding corrupt cache entry", zap.String("key", key), zap.Error(err))
	}

	lines, err := e.underlying.Analyze(ctx, req)
	if err != nil {
		return nil, err
	}

	data, err := encode(lines)
	if err == nil {
		err = e.backend.Set(key, data)
	}
	if err != nil {
		e.logger.Warn("caching analysis", zap.String("key", key), zap.Error(err))
	}
	return lines, nil
}

// Close closes the underlying engine. The backend is owned by the caller.
func (e *Engine) Close() error {
	return e.underlying.Close()
}

// Stats returns cache statistics.
func (e *Engine) Stats() cache.Stats {
	return e.backend.Stats()
}

func encode(lines []engine.Line) ([]byte, error) {
	entries := make([]entry, len(lines))
	for i, l := range lines {
		entries[i] = entry{PV: l.PV, CP: l.Score.CP, Mate: l.Score.Mate, IsMate: l.Score.IsMate}
	}
	return json.Marshal(entries)
}

func decode(data []byte) ([]engine.Line, error) {
	var entries []entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, err
	}
	lines := make([]engine.Line, len(entries))
	for i, en := range entries {
		lines[i] = engine.Line{
			PV:    en.PV,
			Score: engine.Score{CP: en.CP, Mate: en.Mate, IsMate: en.IsMate},
		}
	}
	return lines, nil
}
