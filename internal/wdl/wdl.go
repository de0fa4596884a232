// Package wdl maps engine evaluations to expected game points.
//
// A Model turns a centipawn score from the side to move's perspective into
// the expected score (win = 1, draw = 0.5, loss = 0) for that side. Every
// model returns values in [0, 1] and is non-decreasing in the score.
package wdl

import (
	"errors"
	"fmt"
	"math"
)

// ErrUnknownModel is returned when a model name is not registered.
var ErrUnknownModel = errors.New("wdl: unknown model")

// Model is a named evaluation-to-expectation function.
type Model interface {
	Name() string
	Expectation(cp, ply int) float64
}

// Func adapts a plain function to Model.
type Func struct {
	ModelName string
	F         func(cp, ply int) float64
}

var _ Model = Func{}

// Name returns the model name.
func (f Func) Name() string { return f.ModelName }

// Expectation calls F.
func (f Func) Expectation(cp, ply int) float64 { return f.F(cp, ply) }

// Model names.
const (
	SF      = "sf"
	Lichess = "lichess"
)

var registry = map[string]Model{
	SF:      Func{ModelName: SF, F: sfExpectation},
	Lichess: Func{ModelName: Lichess, F: lichessExpectation},
}

// Lookup returns the named model.
func Lookup(name string) (Model, error) {
	m, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownModel, name)
	}
	return m, nil
}

// Models resolves several names, preserving their order.
func Models(names ...string) ([]Model, error) {
	models := make([]Model, 0, len(names))
	for _, name := range names {
		m, err := Lookup(name)
		if err != nil {
			return nil, err
		}
		models = append(models, m)
	}
	return models, nil
}

// Default returns the sf and lichess models.
func Default() []Model {
	return []Model{registry[SF], registry[Lichess]}
}

// Names returns the names of models in order.
func Names(models []Model) []string {
	names := make([]string, len(models))
	for i, m := range models {
		names[i] = m.Name()
	}
	return names
}

// expectation combines win and loss rates given in permille.
func expectation(wins, losses int) float64 {
	draws := 1000 - wins - losses
	return (float64(wins) + float64(draws)/2) / 1000
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}

// Stockfish 16 win-rate model. Centipawns are converted back to internal
// units (100cp = 328) and the logistic parameters depend on game phase.
var (
	sfA = [4]float64{0.38036525, -2.82015070, 23.17882135, 307.36768407}
	sfB = [4]float64{-2.29434733, 13.27689788, -14.26828904, 63.45318330}
)

const sfPawnValue = 328

func sfWins(cp, ply int) int {
	m := clamp(float64(ply), 0, 240) / 64
	a := ((sfA[0]*m+sfA[1])*m+sfA[2])*m + sfA[3]
	b := ((sfB[0]*m+sfB[1])*m+sfB[2])*m + sfB[3]
	x := clamp(float64(cp)*sfPawnValue/100, -4000, 4000)
	return int(0.5 + 1000/(1+math.Exp((a-x)/b)))
}

func sfExpectation(cp, ply int) float64 {
	return expectation(sfWins(cp, ply), sfWins(-cp, ply))
}

// Lichess accuracy model: a single logistic curve with no draws and no
// dependence on ply.
const lichessK = 0.00368208

func lichessWins(cp int) int {
	x := clamp(float64(cp), -1000, 1000)
	return int(math.Round(1000 / (1 + math.Exp(-lichessK*x))))
}

func lichessExpectation(cp, _ int) float64 {
	return expectation(lichessWins(cp), lichessWins(-cp))
}
