// Package pgn converts PGN games into position records, one per mainline
// move, ready for engine analysis.
package pgn

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strconv"
	"strings"

	"github.com/notnil/chess"
	"go.uber.org/zap"

	"github.com/discochess/moveloss/internal/codec"
	"github.com/discochess/moveloss/internal/fen"
	"github.com/discochess/moveloss/internal/record"
	"github.com/discochess/moveloss/internal/stats"
)

// ErrNoMoves is reported for games without a single mainline move.
var ErrNoMoves = errors.New("pgn: game has no moves")

// UnknownPlayer is used when a game lacks a White or Black tag.
const UnknownPlayer = "?"

// gameStart marks the first line of a game.
const gameStart = "[Event "

// Summary counts the games seen by Convert.
type Summary struct {
	// Games is the number of games read, skipped ones included.
	Games     int
	Converted int
	Skipped   int
	Positions int
}

// Option configures a Converter.
type Option func(*Converter)

// WithLimit stops after n converted games. Zero means no limit.
func WithLimit(n int) Option {
	return func(c *Converter) { c.limit = n }
}

// WithLogger sets the logger.
// If not set, a no-op logger is used.
func WithLogger(l *zap.Logger) Option {
	return func(c *Converter) { c.logger = l }
}

// WithStats sets the stats collector.
// If not set, a no-op collector is used.
func WithStats(s stats.Collector) Option {
	return func(c *Converter) { c.stats = s }
}

// Converter turns PGN streams into position records.
type Converter struct {
	limit  int
	logger *zap.Logger
	stats  stats.Collector
}

// NewConverter creates a Converter.
func NewConverter(opts ...Option) *Converter {
	c := &Converter{
		logger: zap.NewNop(),
		stats:  stats.NewNoop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GameID returns the id of the n-th game (1-based) of source: the file's
// base name without compression suffix, then "#n".
func GameID(source string, n int) string {
	name := "stdin"
	if source != "" && source != "-" {
		name = path.Base(codec.TrimExtension(source))
	}
	return name + "#" + strconv.Itoa(n)
}

// Convert reads the games of r and calls emit with the positions of every
// game that parses. Unparseable games are skipped with a warning; the game
// number still advances so ids stay aligned with the file. An error from
// emit stops the conversion.
func (c *Converter) Convert(ctx context.Context, r io.Reader, source string, emit func([]record.Position) error) (Summary, error) {
	var sum Summary

	scanner := bufio.NewScanner(r)
	// Increase buffer size for long lines.
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	var game strings.Builder
	flush := func() (bool, error) {
		if game.Len() == 0 {
			return false, nil
		}
		defer game.Reset()

		sum.Games++
		positions, err := Positions(game.String(), GameID(source, sum.Games))
		if err != nil {
			sum.Skipped++
			c.stats.IncCounter(stats.MetricGamesSkipped, 1)
			c.logger.Warn("skipping game",
				zap.String("source", source),
				zap.Int("game", sum.Games),
				zap.Error(err),
			)
			return false, nil
		}

		if err := emit(positions); err != nil {
			return true, err
		}
		sum.Converted++
		sum.Positions += len(positions)
		c.stats.IncCounter(stats.MetricGamesConverted, 1)
		return c.limit > 0 && sum.Converted >= c.limit, nil
	}

	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, gameStart) {
			if err := ctx.Err(); err != nil {
				return sum, err
			}
			if stop, err := flush(); stop || err != nil {
				return sum, err
			}
		}
		// Text before the first game is ignored.
		if game.Len() > 0 || strings.HasPrefix(line, gameStart) {
			game.WriteString(line)
			game.WriteByte('\n')
		}
	}
	if err := scanner.Err(); err != nil {
		return sum, fmt.Errorf("reading PGN: %w", err)
	}

	_, err := flush()
	return sum, err
}

// Positions parses a single PGN game and returns one record per mainline
// move, attributed to the side to move.
func Positions(pgnText, id string) ([]record.Position, error) {
	opt, err := chess.PGN(strings.NewReader(pgnText))
	if err != nil {
		return nil, fmt.Errorf("parsing PGN: %w", err)
	}
	game := chess.NewGame(opt)

	moves := game.Moves()
	if len(moves) == 0 {
		return nil, ErrNoMoves
	}
	positions := game.Positions()

	tag := func(name, fallback string) string {
		if tp := game.GetTagPair(name); tp != nil && tp.Value != "" {
			return tp.Value
		}
		return fallback
	}
	players := map[string]string{fen.White: tag("White", UnknownPlayer), fen.Black: tag("Black", UnknownPlayer)}
	elos := map[string]int{fen.White: elo(tag("WhiteElo", "")), fen.Black: elo(tag("BlackElo", ""))}
	result := tag("Result", "*")

	out := make([]record.Position, 0, len(moves))
	for i, m := range moves {
		fenStr := positions[i].String()
		side, err := fen.SideToMove(fenStr)
		if err != nil {
			return nil, fmt.Errorf("move %d: %w", i+1, err)
		}
		ply, err := fen.Ply(fenStr)
		if err != nil {
			return nil, fmt.Errorf("move %d: %w", i+1, err)
		}

		out = append(out, record.Position{
			FEN:        fenStr,
			ID:         id,
			Player:     players[side],
			Elo:        elos[side],
			Result:     result,
			Ply:        ply,
			PlayedMove: m.String(),
		})
	}
	return out, nil
}

// elo parses a rating tag. Missing or placeholder values ("?", "-") are 0.
func elo(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}
