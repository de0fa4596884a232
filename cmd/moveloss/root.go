package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/discochess/moveloss/internal/source"
	"github.com/discochess/moveloss/internal/source/gcssource"
	"github.com/discochess/moveloss/internal/source/s3source"
)

var (
	// Global flags.
	verbose    bool
	s3Endpoint string
	s3Region   string

	log *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "moveloss",
	Short: "Measure move quality in chess games with a UCI engine",
	Long: `Moveloss measures how much each move played in a set of chess games
lost compared with the engine's best move, and summarizes the losses per
player, game, rating, ply and evaluation.

The pipeline has three steps, each reading and writing EPD lines:

  moveloss convert games.pgn > positions.epd
  moveloss analyze --engine stockfish positions.epd > analysis.epd
  moveloss stats analysis.epd

Inputs may be local files, "-" for stdin, s3://bucket/key or
gs://bucket/object; .gz and .zst files are decompressed.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		log, err = newLogger(verbose)
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = log.Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&s3Endpoint, "s3-endpoint", "", "custom S3 endpoint (MinIO and other S3-compatible services)")
	rootCmd.PersistentFlags().StringVar(&s3Region, "s3-region", "", "AWS region for s3:// inputs")
}

// newLogger builds a console logger on stderr; stdout carries results.
func newLogger(debug bool) (*zap.Logger, error) {
	cfg := zap.NewDevelopmentConfig()
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	cfg.DisableStacktrace = true
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	if !debug {
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
		cfg.DisableCaller = true
	}
	return cfg.Build()
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// newOpener returns an input opener for local, S3 and GCS paths.
func newOpener() *source.Opener {
	var s3opts []s3source.Option
	if s3Endpoint != "" {
		s3opts = append(s3opts, s3source.WithEndpoint(s3Endpoint))
	}
	if s3Region != "" {
		s3opts = append(s3opts, s3source.WithRegion(s3Region))
	}
	return source.NewOpener(os.Stdin,
		source.WithBackend(s3source.Scheme, s3source.Factory(s3opts...)),
		source.WithBackend(gcssource.Scheme, gcssource.Factory()),
		source.WithLogger(log.Named("source")),
	)
}
