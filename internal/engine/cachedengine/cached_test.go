package cachedengine

import (
	"context"
	"errors"
	"testing"

	"github.com/discochess/moveloss/internal/cache/cachestrategy/lru"
	"github.com/discochess/moveloss/internal/cache/memory"
	"github.com/discochess/moveloss/internal/engine"
	"github.com/discochess/moveloss/internal/engine/scripted"
)

const start = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

func newCached(t *testing.T) (*Engine, *scripted.Engine) {
	t.Helper()
	s := scripted.New()
	err := s.Script(start,
		engine.Line{PV: []string{"e2e4", "e7e5"}, Score: engine.CP(30)},
		engine.Line{PV: []string{"f2f3"}, Score: engine.Mate(-4)},
	)
	if err != nil {
		t.Fatalf("Script() error = %v", err)
	}
	strategy, err := lru.New(16)
	if err != nil {
		t.Fatalf("lru.New() error = %v", err)
	}
	return New(s, memory.New(strategy, nil), nil), s
}

func TestEngine_HitAvoidsEngineCall(t *testing.T) {
	e, s := newCached(t)
	ctx := context.Background()
	req := engine.Request{FEN: start, Depth: 5, MultiPV: 2}

	first, err := e.Analyze(ctx, req)
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}

	req.FEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 7 30"
	second, err := e.Analyze(ctx, req)
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}

	if got := len(s.Calls()); got != 1 {
		t.Errorf("underlying calls = %d, want 1", got)
	}
	if len(second) != len(first) || second[1].Score != engine.Mate(-4) || second[0].PV[1] != "e7e5" {
		t.Errorf("cached lines = %+v, want %+v", second, first)
	}
	if st := e.Stats(); st.Hits != 1 || st.Misses != 1 {
		t.Errorf("Stats() = %+v", st)
	}
}

func TestEngine_KeyIncludesRequestShape(t *testing.T) {
	e, s := newCached(t)
	ctx := context.Background()

	reqs := []engine.Request{
		{FEN: start, Depth: 5, MultiPV: 2},
		{FEN: start, Depth: 6, MultiPV: 2},
		{FEN: start, Depth: 5, MultiPV: 1},
		{FEN: start, Depth: 5, MultiPV: 2, EnsureMove: "f2f3"},
	}
	for _, req := range reqs {
		if _, err := e.Analyze(ctx, req); err != nil {
			t.Fatalf("Analyze(%+v) error = %v", req, err)
		}
	}
	if got := len(s.Calls()); got != len(reqs) {
		t.Errorf("underlying calls = %d, want %d", got, len(reqs))
	}
}

func TestEngine_ErrorsNotCached(t *testing.T) {
	e, s := newCached(t)
	ctx := context.Background()
	req := engine.Request{FEN: "8/8/8/8/8/8/8/K6k w - - 0 1", Depth: 5, MultiPV: 2}

	for i := 0; i < 2; i++ {
		if _, err := e.Analyze(ctx, req); !errors.Is(err, scripted.ErrNoScript) {
			t.Fatalf("Analyze() error = %v, want ErrNoScript", err)
		}
	}
	if got := len(s.Calls()); got != 2 {
		t.Errorf("underlying calls = %d, want 2", got)
	}

	if err := e.Close(); err != nil || !s.Closed() {
		t.Errorf("Close() = %v, underlying closed = %v", err, s.Closed())
	}
}
