package moveloss

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/discochess/moveloss/internal/epd"
	"github.com/discochess/moveloss/internal/record"
	"github.com/discochess/moveloss/internal/stats"
)

// Progress reports the state of a running stream.
type Progress struct {
	Read     int
	Analyzed int
	Skipped  int
	Elapsed  time.Duration
}

// StreamStats summarizes a finished stream.
type StreamStats struct {
	Read      int
	Analyzed  int
	Skipped   int
	BestMoves int
}

// StreamOption configures AnnotateStream.
type StreamOption func(*streamOptions)

type streamOptions struct {
	progress      func(Progress)
	limit         int
	skipMalformed bool
}

// WithProgress sets a callback invoked after every analyzed position.
func WithProgress(fn func(Progress)) StreamOption {
	return func(o *streamOptions) { o.progress = fn }
}

// WithLimit stops after n analyzed positions. Zero means no limit.
func WithLimit(n int) StreamOption {
	return func(o *streamOptions) { o.limit = n }
}

// WithSkipMalformed skips lines that cannot be decoded or lack required
// fields instead of aborting.
func WithSkipMalformed(skip bool) StreamOption {
	return func(o *streamOptions) { o.skipMalformed = skip }
}

// AnnotateStream reads position records from r, analyzes each one and
// writes it to w with bm, ce, ce2 and acd added. Positions are processed in
// order; the first analysis error stops the stream. Output written before
// an error is flushed.
func (a *Analyzer) AnnotateStream(ctx context.Context, r io.Reader, w io.Writer, opts ...StreamOption) (StreamStats, error) {
	var o streamOptions
	for _, opt := range opts {
		opt(&o)
	}

	var st StreamStats
	start := time.Now()

	scanOpts := []epd.ScannerOption{epd.WithSkipBlank()}
	if o.skipMalformed {
		scanOpts = append(scanOpts, epd.WithSkipMalformed(func(fe *epd.FormatError) {
			st.Skipped++
			a.stats.IncCounter(stats.MetricMalformedLines, 1)
			a.logger.Warn("skipping malformed line", zap.Int("line", fe.Line), zap.String("reason", fe.Reason))
		}))
	}
	sc := epd.NewScanner(r, scanOpts...)
	out := epd.NewWriter(w)

	err := func() error {
		for sc.Scan() {
			if err := ctx.Err(); err != nil {
				return err
			}

			entry := sc.Entry()
			st.Read++

			pos, err := record.PositionFromAnnotations(entry.FEN, entry.Annotations)
			if err != nil {
				if o.skipMalformed {
					st.Skipped++
					a.stats.IncCounter(stats.MetricMalformedLines, 1)
					a.logger.Warn("skipping incomplete record", zap.Int("line", entry.Line), zap.Error(err))
					continue
				}
				return fmt.Errorf("line %d: %w", entry.Line, err)
			}

			an, err := a.Analyze(ctx, pos)
			if err != nil {
				return fmt.Errorf("line %d: %w", entry.Line, err)
			}
			if err := out.Write(an.FEN, an.Annotations()); err != nil {
				return fmt.Errorf("writing output: %w", err)
			}

			st.Analyzed++
			if an.BestMove == an.PlayedMove {
				st.BestMoves++
			}
			if o.progress != nil {
				o.progress(Progress{
					Read:     st.Read,
					Analyzed: st.Analyzed,
					Skipped:  st.Skipped,
					Elapsed:  time.Since(start),
				})
			}
			if o.limit > 0 && st.Analyzed >= o.limit {
				return nil
			}
		}
		return sc.Err()
	}()

	if ferr := out.Flush(); ferr != nil && err == nil {
		err = fmt.Errorf("writing output: %w", ferr)
	}
	if err != nil {
		var fe *epd.FormatError
		if errors.As(err, &fe) {
			a.stats.IncCounter(stats.MetricMalformedLines, 1)
		}
		return st, err
	}

	a.logger.Debug("stream annotated",
		zap.Int("read", st.Read),
		zap.Int("analyzed", st.Analyzed),
		zap.Int("skipped", st.Skipped),
		zap.Duration("elapsed", time.Since(start)),
	)
	return st, nil
}
