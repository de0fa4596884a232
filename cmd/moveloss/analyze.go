package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"github.com/discochess/moveloss"
	"github.com/discochess/moveloss/fx/analyzerfx"
	"github.com/discochess/moveloss/internal/source"
)

var (
	analyzeEngine        string
	analyzeDepth         int
	analyzeMultiPV       int
	analyzeHash          int
	analyzeThreads       int
	analyzeLimit         int
	analyzeSkipMalformed bool
	analyzeCacheSize     int
	analyzeCacheDir      string
	analyzeMetricsAddr   string
	analyzeOutput        string
	analyzeQuiet         bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [epd...]",
	Short: "Annotate position records with engine evaluations",
	Long: `Analyze runs a UCI engine on every position record and writes it back
with the engine's best move (bm), the best line's evaluation (ce), the
played move's evaluation (ce2) and the search depth (acd).

The engine always returns a line for the played move, even when it is not
among its top choices. Records are processed in input order. With no
inputs, records are read from stdin.`,
	Example: `  moveloss analyze --engine stockfish --depth 12 positions.epd -o analysis.epd
  moveloss convert games.pgn | moveloss analyze --engine /usr/bin/stockfish`,
	RunE: runAnalyze,
}

func init() {
	f := analyzeCmd.Flags()
	f.StringVarP(&analyzeEngine, "engine", "e", "stockfish", "UCI engine executable")
	f.IntVarP(&analyzeDepth, "depth", "d", moveloss.DefaultDepth, "search depth")
	f.IntVar(&analyzeMultiPV, "multipv", moveloss.DefaultMultiPV, "number of engine lines (at least 2)")
	f.IntVar(&analyzeHash, "hash", 0, "engine hash size in MB (0 = engine default)")
	f.IntVar(&analyzeThreads, "threads", 0, "engine threads (0 = engine default)")
	f.IntVarP(&analyzeLimit, "limit", "n", 0, "stop after analyzing this many positions (0 = all)")
	f.BoolVar(&analyzeSkipMalformed, "skip-malformed", false, "skip malformed or incomplete records instead of failing")
	f.IntVar(&analyzeCacheSize, "cache-size", 10000, "in-memory analysis cache entries (0 = disabled)")
	f.StringVar(&analyzeCacheDir, "cache-dir", "", "persistent analysis cache directory (overrides --cache-size)")
	f.StringVar(&analyzeMetricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address (e.g. :9090)")
	f.StringVarP(&analyzeOutput, "output", "o", "-", "output file (.gz and .zst are compressed)")
	f.BoolVarP(&analyzeQuiet, "quiet", "q", false, "do not print progress")
	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	cfg := analyzerfx.Config{
		EnginePath: analyzeEngine,
		Depth:      analyzeDepth,
		MultiPV:    analyzeMultiPV,
		Hash:       analyzeHash,
		Threads:    analyzeThreads,
		CacheDir:   analyzeCacheDir,
		CacheSize:  analyzeCacheSize,
	}

	fxOpts := []fx.Option{
		fx.Supply(cfg, log),
		fx.WithLogger(func() fxevent.Logger {
			l := &fxevent.ZapLogger{Logger: log.Named("fx")}
			l.UseLogLevel(zap.DebugLevel)
			return l
		}),
		analyzerfx.Module,
	}

	var registry *prometheus.Registry
	if analyzeMetricsAddr != "" {
		registry = prometheus.NewRegistry()
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		fxOpts = append(fxOpts, fx.Provide(func() prometheus.Registerer { return registry }))
	}

	var analyzer *moveloss.Analyzer
	fxOpts = append(fxOpts, fx.Populate(&analyzer))

	app := fx.New(fxOpts...)
	if err := app.Err(); err != nil {
		return fmt.Errorf("creating analyzer: %w", err)
	}
	if err := app.Start(ctx); err != nil {
		return fmt.Errorf("starting analyzer: %w", err)
	}
	defer func() {
		stopCtx, stopCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer stopCancel()
		if err := app.Stop(stopCtx); err != nil {
			log.Warn("stopping analyzer", zap.Error(err))
		}
	}()

	if registry != nil {
		srv := serveMetrics(analyzeMetricsAddr, registry)
		defer func() {
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer shutdownCancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	opener := newOpener()
	defer opener.Close()

	in, err := opener.Open(ctx, args...)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := source.Create(analyzeOutput, cmd.OutOrStdout())
	if err != nil {
		return err
	}

	var read atomic.Int64
	streamOpts := []moveloss.StreamOption{
		moveloss.WithLimit(analyzeLimit),
		moveloss.WithSkipMalformed(analyzeSkipMalformed),
	}
	var progress *progressLine
	if !analyzeQuiet {
		progress = newProgressLine(os.Stderr, "Analyze", &read)
		streamOpts = append(streamOpts, moveloss.WithProgress(func(p moveloss.Progress) {
			progress.update(p.Analyzed, p.Skipped)
		}))
	}

	log.Info("analyzing",
		zap.String("engine", analyzeEngine),
		zap.Int("depth", analyzer.Depth()),
		zap.Int("multipv", analyzer.MultiPV()),
	)

	st, err := analyzer.AnnotateStream(ctx, newProgressReader(in, &read), out, streamOpts...)
	if progress != nil {
		progress.finish(st.Analyzed, st.Skipped)
	}
	if cerr := out.Close(); cerr != nil && err == nil {
		err = fmt.Errorf("closing output: %w", cerr)
	}
	if err != nil {
		if errors.Is(err, context.Canceled) {
			log.Warn("interrupted", zap.Int("analyzed", st.Analyzed))
		}
		return err
	}

	bestRate := 0.0
	if st.Analyzed > 0 {
		bestRate = float64(st.BestMoves) / float64(st.Analyzed) * 100
	}
	log.Info("analysis complete",
		zap.Int("read", st.Read),
		zap.Int("analyzed", st.Analyzed),
		zap.Int("skipped", st.Skipped),
		zap.String("best_moves", fmt.Sprintf("%.1f%%", bestRate)),
	)
	return nil
}

// serveMetrics exposes registry on addr until the returned server is shut
// down.
func serveMetrics(addr string, registry *prometheus.Registry) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("metrics server", zap.Error(err))
		}
	}()
	log.Info("serving metrics", zap.String("addr", addr), zap.String("path", "/metrics"))
	return srv
}
