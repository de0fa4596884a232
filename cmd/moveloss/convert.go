package main

import (
	"context"
	"fmt"
	"os"
	"sync/atomic"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/discochess/moveloss/internal/epd"
	"github.com/discochess/moveloss/internal/pgn"
	"github.com/discochess/moveloss/internal/record"
	"github.com/discochess/moveloss/internal/source"
	"github.com/discochess/moveloss/internal/stats/logger"
)

var (
	convertLimit  int
	convertOutput string
	convertQuiet  bool
)

var convertCmd = &cobra.Command{
	Use:   "convert [pgn...]",
	Short: "Convert PGN games into position records",
	Long: `Convert reads PGN games and writes one EPD line per mainline move,
annotated with the game id, the player to move, their rating, the game
result, the ply and the move played.

Game ids are the input's base name, less any .gz or .zst suffix,
then "#" and the game's number in that input. Games that fail to parse are skipped with a warning. With
no inputs, PGN is read from stdin.`,
	Example: `  moveloss convert lichess_2024-01.pgn.zst -o positions.epd.gz
  moveloss convert --limit 100 s3://games/2024/01.pgn`,
	RunE: runConvert,
}

func init() {
	convertCmd.Flags().IntVarP(&convertLimit, "limit", "n", 0, "stop after converting this many games per input (0 = all)")
	convertCmd.Flags().StringVarP(&convertOutput, "output", "o", "-", "output file (.gz and .zst are compressed)")
	convertCmd.Flags().BoolVarP(&convertQuiet, "quiet", "q", false, "do not print progress")
	rootCmd.AddCommand(convertCmd)
}

func runConvert(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	inputs := args
	if len(inputs) == 0 {
		inputs = []string{source.Stdin}
	}

	out, err := source.Create(convertOutput, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	w := epd.NewWriter(out)

	collector := logger.New(log.Named("stats"))
	conv := pgn.NewConverter(
		pgn.WithLimit(convertLimit),
		pgn.WithLogger(log.Named("pgn")),
		pgn.WithStats(collector),
	)

	opener := newOpener()
	defer opener.Close()

	var read atomic.Int64
	var total pgn.Summary
	var progress *progressLine
	if !convertQuiet {
		progress = newProgressLine(os.Stderr, "Convert", &read)
	}

	for _, in := range inputs {
		sum, err := convertOne(ctx, opener, conv, w, in, &read, total, progress)
		total.Games += sum.Games
		total.Converted += sum.Converted
		total.Skipped += sum.Skipped
		total.Positions += sum.Positions
		if err != nil {
			out.Close()
			return fmt.Errorf("converting %s: %w", in, err)
		}
	}

	if progress != nil {
		progress.finish(total.Converted, total.Skipped)
	}
	if err := w.Flush(); err != nil {
		out.Close()
		return fmt.Errorf("writing output: %w", err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("closing output: %w", err)
	}

	log.Info("conversion complete",
		zap.Int("inputs", len(inputs)),
		zap.Int("games", total.Games),
		zap.Int("converted", total.Converted),
		zap.Int("skipped", total.Skipped),
		zap.Int("positions", total.Positions),
	)
	collector.Summary()
	return nil
}

// convertOne converts a single input. before holds the totals of the
// inputs already converted, for progress output.
func convertOne(ctx context.Context, opener *source.Opener, conv *pgn.Converter, w *epd.Writer,
	in string, read *atomic.Int64, before pgn.Summary, progress *progressLine) (pgn.Summary, error) {
	r, err := opener.Open(ctx, in)
	if err != nil {
		return pgn.Summary{}, err
	}
	defer r.Close()

	var converted int
	return conv.Convert(ctx, newProgressReader(r, read), in, func(positions []record.Position) error {
		for _, p := range positions {
			if err := w.Write(p.FEN, p.Annotations()); err != nil {
				return err
			}
		}
		converted++
		if progress != nil {
			progress.update(before.Converted+converted, before.Skipped)
		}
		return nil
	})
}
