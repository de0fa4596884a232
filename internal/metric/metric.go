// Package metric derives move-quality measures from analyzed positions.
//
// All functions are pure. Scores are centipawns from the side to move's
// perspective, so a larger loss always means a worse played move.
package metric

import (
	"github.com/discochess/moveloss/internal/fen"
	"github.com/discochess/moveloss/internal/record"
	"github.com/discochess/moveloss/internal/wdl"
)

// CPLCap bounds evaluations before centipawn loss is taken.
const CPLCap = 1000

// DefaultOutlierFloor is the evaluation below which a position is treated
// as already lost for loss averages.
const DefaultOutlierFloor = -1000

// Clamp limits v to [-cap, cap].
func Clamp(v, cap int) int {
	return min(max(v, -cap), cap)
}

// CPL returns the centipawn loss of playing a move scored ce2 when the best
// move scores ce.
func CPL(ce, ce2 int) int {
	return Clamp(ce, CPLCap) - Clamp(ce2, CPLCap)
}

// ExpectedLoss returns the expected points lost under model m.
func ExpectedLoss(m wdl.Model, ce, ce2, ply int) float64 {
	return m.Expectation(ce, ply) - m.Expectation(ce2, ply)
}

// IsBest reports whether the played move is the engine's best move.
func IsBest(played, best string) bool {
	return played == best
}

var whiteScores = map[string]float64{
	record.WhiteWins: 1,
	record.BlackWins: 0,
}

// Score returns the points earned by the side of the given color.
// Draws and unrecognized results count 0.5.
func Score(result, color string) float64 {
	if color == fen.Black {
		result = reverse(result)
	}
	if s, ok := whiteScores[result]; ok {
		return s
	}
	return 0.5
}

func reverse(s string) string {
	r := []rune(s)
	for i, j := 0, len(r)-1; i < j; i, j = i+1, j-1 {
		r[i], r[j] = r[j], r[i]
	}
	return string(r)
}

// Excluded reports whether a position evaluated at ce falls below floor and
// should be left out of loss averages.
func Excluded(ce, floor int) bool {
	return ce < floor
}

// Compute derives the metrics of a single analysis.
func Compute(a record.Analysis, models []wdl.Model) record.Metrics {
	m := record.Metrics{
		Player: a.Player,
		ID:     a.ID,
		Color:  a.Color(),
		Elo:    a.Elo,
		Ply:    a.Ply,
		CE:     a.CE,
		CE2:    a.CE2,
		CPL:    CPL(a.CE, a.CE2),
		IsBest: IsBest(a.PlayedMove, a.BestMove),
	}
	m.Score = Score(a.Result, m.Color)

	m.ExpectedLoss = make([]record.Loss, len(models))
	for i, model := range models {
		m.ExpectedLoss[i] = record.Loss{
			Model: model.Name(),
			Value: ExpectedLoss(model, a.CE, a.CE2, a.Ply),
		}
	}
	return m
}
