package logger

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/discochess/moveloss/internal/stats"
)

func TestCollector_Totals(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	c := New(zap.New(core))

	c.IncCounter(stats.MetricPositionsAnalyzed, 2)
	c.IncCounter(stats.MetricPositionsAnalyzed, 3)
	c.IncCounter(stats.MetricBestMoves, 1)
	c.SetGauge(stats.MetricCacheSize, 9)
	c.ObserveHistogram(stats.MetricEngineSeconds, 0.25)

	if got := c.Total(stats.MetricPositionsAnalyzed); got != 5 {
		t.Errorf("Total() = %d, want 5", got)
	}
	if got := logs.FilterMessage("counter").Len(); got != 3 {
		t.Errorf("counter log entries = %d, want 3", got)
	}

	c.Summary()
	summary := logs.FilterMessage("metrics summary").All()
	if len(summary) != 1 {
		t.Fatalf("summary entries = %d, want 1", len(summary))
	}
	fields := summary[0].ContextMap()
	if fields[stats.MetricPositionsAnalyzed] != int64(5) || fields[stats.MetricBestMoves] != int64(1) {
		t.Errorf("summary fields = %v", fields)
	}
}

func TestNew_NilLogger(t *testing.T) {
	c := New(nil)
	c.IncCounter("x", 1)
	c.Summary()
	if c.Total("x") != 1 {
		t.Errorf("Total(x) = %d, want 1", c.Total("x"))
	}
}
