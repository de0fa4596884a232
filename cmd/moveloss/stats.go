package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/discochess/moveloss/internal/aggregate"
	"github.com/discochess/moveloss/internal/config"
	"github.com/discochess/moveloss/internal/epd"
	"github.com/discochess/moveloss/internal/record"
	"github.com/discochess/moveloss/internal/report"
	"github.com/discochess/moveloss/internal/source"
)

var (
	statsConfig  string
	statsFormat  string
	statsFloor   int
	statsRawRows int
	statsOutput  string
	statsSkip    bool
)

var statsCmd = &cobra.Command{
	Use:   "stats [epd...]",
	Short: "Report move-quality statistics from analyzed records",
	Long: `Stats computes per-move metrics from analyzed records (centipawn
loss, capped loss and expected-score loss under each WDL model) and prints
the raw data, bucketed move statistics, correlations and per-player
statistics.

Lines that cannot be decoded abort the run unless --skip-malformed is
set. Records lacking a required field always abort it.

The report policy is read from --config (or $MOVELOSS_CONFIG) and
MOVELOSS_* environment variables, on top of built-in defaults. With no
inputs, records are read from stdin.`,
	Example: `  moveloss stats analysis.epd
  moveloss stats --format markdown --config policy.yaml analysis.epd.zst`,
	RunE: runStats,
}

func init() {
	statsCmd.Flags().StringVarP(&statsConfig, "config", "c", "", "report policy file (YAML)")
	statsCmd.Flags().StringVarP(&statsFormat, "format", "f", string(report.FormatText), "output format: text or markdown")
	statsCmd.Flags().IntVar(&statsFloor, "floor", 0, "outlier floor in centipawns (overrides the policy)")
	statsCmd.Flags().IntVar(&statsRawRows, "raw-rows", report.DefaultOptions().RawRows, "records shown at each end of the raw data")
	statsCmd.Flags().StringVarP(&statsOutput, "output", "o", "-", "output file")
	statsCmd.Flags().BoolVar(&statsSkip, "skip-malformed", false, "skip lines that cannot be decoded instead of failing")
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	format, err := report.ParseFormat(statsFormat)
	if err != nil {
		return err
	}

	path := statsConfig
	if path == "" {
		path = os.Getenv(config.EnvPrefix + "CONFIG")
	}
	policy, err := config.Load(ctx, path)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("floor") {
		policy.OutlierFloor = statsFloor
	}

	aggOpts, err := policy.AggregateOptions()
	if err != nil {
		return err
	}
	eng, err := aggregate.New(append(aggOpts, aggregate.WithLogger(log.Named("aggregate")))...)
	if err != nil {
		return err
	}

	opener := newOpener()
	defer opener.Close()

	in, err := opener.Open(ctx, args...)
	if err != nil {
		return err
	}
	defer in.Close()

	var metrics []record.Metrics
	scanOpts := []epd.ScannerOption{epd.WithSkipBlank()}
	skipped := 0
	if statsSkip {
		scanOpts = append(scanOpts, epd.WithSkipMalformed(func(fe *epd.FormatError) {
			skipped++
			log.Warn("skipping malformed line", zap.Int("line", fe.Line), zap.String("reason", fe.Reason))
		}))
	}
	sc := epd.NewScanner(in, scanOpts...)
	for sc.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		entry := sc.Entry()
		a, err := record.AnalysisFromAnnotations(entry.FEN, entry.Annotations)
		if err != nil {
			return fmt.Errorf("line %d: %w", entry.Line, err)
		}
		metrics = append(metrics, eng.Compute(a))
	}
	if err := sc.Err(); err != nil {
		return err
	}

	log.Debug("records loaded", zap.Int("records", len(metrics)), zap.Int("skipped", skipped))

	r := eng.Run(metrics)

	out, err := source.Create(statsOutput, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	opts := report.Options{
		GeneralDecimals: policy.Decimals.General,
		PlayerDecimals:  policy.Decimals.Players,
		RawRows:         statsRawRows,
	}
	if err := report.Write(out, format, r, opts); err != nil {
		out.Close()
		return fmt.Errorf("writing report: %w", err)
	}
	return out.Close()
}
