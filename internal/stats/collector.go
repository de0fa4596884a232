// Package stats provides a unified interface for collecting metrics.
package stats

// Metric names used throughout the module.
const (
	// Analyzer metrics.
	MetricPositionsAnalyzed = "moveloss_positions_analyzed_total"
	MetricAnalysisErrors    = "moveloss_analysis_errors_total"
	MetricBestMoves         = "moveloss_best_moves_total"
	MetricEngineSeconds     = "moveloss_engine_seconds"
	MetricMalformedLines    = "moveloss_malformed_lines_total"

	// Converter metrics.
	MetricGamesConverted = "moveloss_games_converted_total"
	MetricGamesSkipped   = "moveloss_games_skipped_total"

	// Analysis cache metrics.
	MetricCacheHits      = "moveloss_cache_hits_total"
	MetricCacheMisses    = "moveloss_cache_misses_total"
	MetricCacheSize      = "moveloss_cache_size"
	MetricCacheEvictions = "moveloss_cache_evictions_total"
)

var help = map[string]string{
	MetricPositionsAnalyzed: "Positions analyzed by the engine.",
	MetricAnalysisErrors:    "Positions whose analysis failed.",
	MetricBestMoves:         "Analyzed positions where the played move was the engine's best move.",
	MetricEngineSeconds:     "Engine time per analyzed position in seconds.",
	MetricMalformedLines:    "Input lines skipped because they could not be decoded.",
	MetricGamesConverted:    "PGN games converted to position records.",
	MetricGamesSkipped:      "PGN games skipped because they could not be parsed.",
	MetricCacheHits:         "Analysis cache hits.",
	MetricCacheMisses:       "Analysis cache misses.",
	MetricCacheSize:         "Entries in the in-memory analysis cache.",
	MetricCacheEvictions:    "Analyses evicted from the in-memory cache.",
}

// Help returns the description of a metric, or its name when unknown.
func Help(name string) string {
	if h, ok := help[name]; ok {
		return h
	}
	return name
}

// engineBuckets covers shallow searches (milliseconds) up to deep ones.
var engineBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30}

// Buckets returns the histogram buckets for a metric, or nil for the
// collector's default.
func Buckets(name string) []float64 {
	if name == MetricEngineSeconds {
		return engineBuckets
	}
	return nil
}

// Collector defines the interface for collecting metrics.
type Collector interface {
	// IncCounter increments a counter metric by delta.
	IncCounter(name string, delta int64)

	// SetGauge sets a gauge metric to value.
	SetGauge(name string, value int64)

	// ObserveHistogram records a value in a histogram metric.
	ObserveHistogram(name string, value float64)
}
