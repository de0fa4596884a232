package moveloss

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/discochess/moveloss/internal/engine"
	"github.com/discochess/moveloss/internal/engine/scripted"
	"github.com/discochess/moveloss/internal/epd"
	"github.com/discochess/moveloss/internal/metric"
	"github.com/discochess/moveloss/internal/record"
	"github.com/discochess/moveloss/internal/stats"
	statslogger "github.com/discochess/moveloss/internal/stats/logger"
	"github.com/discochess/moveloss/internal/wdl"
)

const (
	startFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"
	e4FEN    = "rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq e3 0 1"
)

func cp(score int, moves ...string) engine.Line {
	return engine.Line{PV: moves, Score: engine.CP(score)}
}

func newScripted(t *testing.T) *scripted.Engine {
	t.Helper()
	s := scripted.New()
	if err := s.Script(startFEN, cp(30, "e2e4", "e7e5"), cp(22, "d2d4"), cp(-60, "g2g4")); err != nil {
		t.Fatalf("Script() error = %v", err)
	}
	if err := s.Script(e4FEN, cp(-25, "c7c5"), cp(-30, "e7e5")); err != nil {
		t.Fatalf("Script() error = %v", err)
	}
	return s
}

func newAnalyzer(t *testing.T, e engine.Engine, opts ...Option) *Analyzer {
	t.Helper()
	a, err := New(append([]Option{WithEngine(e)}, opts...)...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return a
}

func TestNew_RequiresEngine(t *testing.T) {
	if _, err := New(); !errors.Is(err, ErrNoEngine) {
		t.Errorf("New() error = %v, want ErrNoEngine", err)
	}
}

func TestNew_Defaults(t *testing.T) {
	a := newAnalyzer(t, scripted.New())
	if a.Depth() != DefaultDepth || a.MultiPV() != DefaultMultiPV {
		t.Errorf("defaults = depth %d, multipv %d", a.Depth(), a.MultiPV())
	}

	a = newAnalyzer(t, scripted.New(), WithMultiPV(1), WithDepth(9))
	if a.MultiPV() != 2 || a.Depth() != 9 {
		t.Errorf("WithMultiPV(1), WithDepth(9) = multipv %d, depth %d", a.MultiPV(), a.Depth())
	}

	if _, err := New(WithEngine(scripted.New()), WithDepth(0)); err == nil {
		t.Error("New(WithDepth(0)) should fail")
	}
}

func TestSelectPlayed(t *testing.T) {
	lines := []engine.Line{cp(30, "e2e4"), cp(22, "d2d4"), cp(10, "e2e4", "c7c5")}

	tests := []struct {
		move      string
		wantKind  SelectionKind
		wantIndex int
	}{
		{"d2d4", Found, 1},
		{"g1f3", NotFound, -1},
		{"e2e4", Duplicate, -1},
	}

	for _, tt := range tests {
		sel := SelectPlayed(lines, tt.move)
		if sel.Kind != tt.wantKind || sel.Index != tt.wantIndex {
			t.Errorf("SelectPlayed(%s) = %+v, want kind %v index %d", tt.move, sel, tt.wantKind, tt.wantIndex)
		}
	}

	if sel := SelectPlayed(lines, "e2e4"); len(sel.Matches) != 2 {
		t.Errorf("Duplicate matches = %v, want [0 2]", sel.Matches)
	}
}

func TestAnalyzer_Analyze(t *testing.T) {
	s := newScripted(t)
	a := newAnalyzer(t, s)
	ctx := context.Background()

	tests := []struct {
		name     string
		fen      string
		played   string
		wantBest string
		wantCE   int
		wantCE2  int
	}{
		{"best move played", startFEN, "e2e4", "e2e4", 30, 30},
		{"second line played", startFEN, "d2d4", "e2e4", 30, 22},
		{"ensured move outside top two", startFEN, "g2g4", "e2e4", 30, -60},
		{"black to move", e4FEN, "e7e5", "c7c5", -25, -30},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := a.Analyze(ctx, record.Position{FEN: tt.fen, PlayedMove: tt.played})
			if err != nil {
				t.Fatalf("Analyze() error = %v", err)
			}
			if got.BestMove != tt.wantBest || got.CE != tt.wantCE || got.CE2 != tt.wantCE2 || got.Depth != DefaultDepth {
				t.Errorf("Analyze() = bm %s ce %d ce2 %d acd %d, want bm %s ce %d ce2 %d acd %d",
					got.BestMove, got.CE, got.CE2, got.Depth, tt.wantBest, tt.wantCE, tt.wantCE2, DefaultDepth)
			}
		})
	}

	last := s.Calls()[len(s.Calls())-1]
	if last.EnsureMove != "e7e5" || last.MultiPV != DefaultMultiPV || last.Depth != DefaultDepth {
		t.Errorf("request = %+v", last)
	}
}

func TestAnalyzer_AnalyzeMate(t *testing.T) {
	s := scripted.New()
	_ = s.Script(startFEN,
		engine.Line{PV: []string{"e2e4"}, Score: engine.Mate(3)},
		engine.Line{PV: []string{"f2f3"}, Score: engine.Mate(-2)},
	)
	a := newAnalyzer(t, s)

	got, err := a.Analyze(context.Background(), record.Position{FEN: startFEN, PlayedMove: "f2f3"})
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if got.CE != engine.MateScore-3 || got.CE2 != -engine.MateScore+2 {
		t.Errorf("Analyze() ce = %d ce2 = %d", got.CE, got.CE2)
	}
}

func TestAnalyzer_AnalysisErrors(t *testing.T) {
	s := scripted.New()
	_ = s.Script(startFEN, cp(30, "e2e4"), cp(30, "e2e4", "e7e5"))
	a := newAnalyzer(t, s)
	ctx := context.Background()

	_, err := a.Analyze(ctx, record.Position{FEN: startFEN, PlayedMove: "e2e4"})
	var ae *AnalysisError
	if !errors.As(err, &ae) || !errors.Is(err, ErrPlayedMoveDuplicate) {
		t.Fatalf("Analyze(duplicate) error = %v, want AnalysisError(duplicate)", err)
	}
	if len(ae.Lines) != 2 || ae.Move != "e2e4" || ae.FEN != startFEN {
		t.Errorf("AnalysisError = %+v", ae)
	}

	_, err = a.Analyze(ctx, record.Position{FEN: startFEN, PlayedMove: "h2h4"})
	if !errors.Is(err, ErrPlayedMoveNotFound) {
		t.Errorf("Analyze(not found) error = %v, want ErrPlayedMoveNotFound", err)
	}
	if !strings.Contains(err.Error(), "h2h4") {
		t.Errorf("error %q should name the move", err)
	}

	_, err = a.Analyze(ctx, record.Position{FEN: startFEN})
	if !errors.Is(err, record.ErrMissingField) {
		t.Errorf("Analyze(no move) error = %v, want ErrMissingField", err)
	}
}

func TestAnalyzer_Close(t *testing.T) {
	s := scripted.New()
	a := newAnalyzer(t, s)

	if err := a.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if !s.Closed() {
		t.Error("engine not closed")
	}
	if err := a.Close(); !errors.Is(err, ErrClosed) {
		t.Errorf("second Close() error = %v, want ErrClosed", err)
	}
	if _, err := a.Analyze(context.Background(), record.Position{FEN: startFEN, PlayedMove: "e2e4"}); !errors.Is(err, ErrClosed) {
		t.Errorf("Analyze after Close error = %v, want ErrClosed", err)
	}
}

func TestAnnotateStream_EndToEnd(t *testing.T) {
	a := newAnalyzer(t, newScripted(t))
	in := startFEN + ";id g1;player A;elo 2000;result 1-0;ply 10;sm e2e4\n"

	var out bytes.Buffer
	st, err := a.AnnotateStream(context.Background(), strings.NewReader(in), &out)
	if err != nil {
		t.Fatalf("AnnotateStream() error = %v", err)
	}

	want := startFEN + ";id g1;player A;elo 2000;result 1-0;ply 10;sm e2e4;bm e2e4;ce 30;ce2 30;acd 5\n"
	if out.String() != want {
		t.Errorf("output = %q, want %q", out.String(), want)
	}
	if st.Read != 1 || st.Analyzed != 1 || st.BestMoves != 1 {
		t.Errorf("StreamStats = %+v", st)
	}

	fenStr, ann, err := epd.Decode(out.String())
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	an, err := record.AnalysisFromAnnotations(fenStr, ann)
	if err != nil {
		t.Fatalf("AnalysisFromAnnotations() error = %v", err)
	}
	m := metric.Compute(an, wdl.Default())
	if !m.IsBest || m.CPL != 0 {
		t.Errorf("metrics = best %v cpl %d, want true 0", m.IsBest, m.CPL)
	}
}

func TestAnnotateStream_Options(t *testing.T) {
	in := strings.Join([]string{
		startFEN + ";id g1;player A;elo 0;result 1-0;ply 0;sm d2d4",
		startFEN + ";broken",
		startFEN + ";id g1;player A;elo 0;result 1-0;ply 0",
		"",
		e4FEN + ";id g1;player B;elo 0;result 1-0;ply 1;sm e7e5",
		startFEN + ";id g2;player A;elo 0;result 1-0;ply 0;sm e2e4",
	}, "\n") + "\n"
	ctx := context.Background()

	t.Run("abort on malformed", func(t *testing.T) {
		a := newAnalyzer(t, newScripted(t))
		var out bytes.Buffer
		st, err := a.AnnotateStream(ctx, strings.NewReader(in), &out)
		if !errors.Is(err, epd.ErrFormat) {
			t.Fatalf("error = %v, want ErrFormat", err)
		}
		if st.Analyzed != 1 || strings.Count(out.String(), "\n") != 1 {
			t.Errorf("analyzed %d, output %q", st.Analyzed, out.String())
		}
	})

	t.Run("skip malformed with limit", func(t *testing.T) {
		a := newAnalyzer(t, newScripted(t))
		var progress []Progress
		var out bytes.Buffer
		st, err := a.AnnotateStream(ctx, strings.NewReader(in), &out,
			WithSkipMalformed(true),
			WithLimit(2),
			WithProgress(func(p Progress) { progress = append(progress, p) }),
		)
		if err != nil {
			t.Fatalf("AnnotateStream() error = %v", err)
		}
		if st.Analyzed != 2 || st.Skipped != 2 {
			t.Errorf("StreamStats = %+v, want 2 analyzed, 2 skipped", st)
		}
		if len(progress) != 2 || progress[1].Analyzed != 2 {
			t.Errorf("progress = %+v", progress)
		}
		if strings.Contains(out.String(), "g2") {
			t.Error("limit exceeded: g2 was analyzed")
		}
	})

	t.Run("analysis error aborts", func(t *testing.T) {
		a := newAnalyzer(t, newScripted(t))
		bad := startFEN + ";id g1;player A;elo 0;result 1-0;ply 0;sm h2h4\n"
		_, err := a.AnnotateStream(ctx, strings.NewReader(bad), &bytes.Buffer{})
		var ae *AnalysisError
		if !errors.As(err, &ae) {
			t.Errorf("error = %v, want AnalysisError", err)
		}
	})

	t.Run("cancelled context", func(t *testing.T) {
		a := newAnalyzer(t, newScripted(t))
		cancelled, cancel := context.WithCancel(ctx)
		cancel()
		_, err := a.AnnotateStream(cancelled, strings.NewReader(in), &bytes.Buffer{})
		if !errors.Is(err, context.Canceled) {
			t.Errorf("error = %v, want context.Canceled", err)
		}
	})
}

func TestAnnotateStream_Stats(t *testing.T) {
	c := statslogger.New(nil)
	a := newAnalyzer(t, newScripted(t), WithStats(c))

	in := strings.Join([]string{
		startFEN + ";id g1;player A;elo 0;result 1-0;ply 0;sm e2e4",
		"not an epd line",
		e4FEN + ";id g1;player B;elo 0;result 1-0;ply 1;sm e7e5",
	}, "\n")

	if _, err := a.AnnotateStream(context.Background(), strings.NewReader(in), &bytes.Buffer{}, WithSkipMalformed(true)); err != nil {
		t.Fatalf("AnnotateStream() error = %v", err)
	}

	tests := []struct {
		metric string
		want   int64
	}{
		{stats.MetricPositionsAnalyzed, 2},
		{stats.MetricBestMoves, 1},
		{stats.MetricMalformedLines, 1},
		{stats.MetricAnalysisErrors, 0},
	}
	for _, tt := range tests {
		if got := c.Total(tt.metric); got != tt.want {
			t.Errorf("Total(%s) = %d, want %d", tt.metric, got, tt.want)
		}
	}
}
