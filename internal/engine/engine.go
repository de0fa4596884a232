// Package engine defines the contract between the analyzer and a chess
// engine that can report several principal variations for a position.
package engine

import (
	"context"
	"errors"
	"strconv"
	"strings"
)

// MateScore is the finite centipawn value standing in for a forced mate.
// Mate in n maps to MateScore-n and being mated in n to -MateScore+n, so
// faster mates score further from zero.
const MateScore = 100000

// ErrClosed is returned by engines used after Close.
var ErrClosed = errors.New("engine: closed")

// Request asks for the top MultiPV lines of a position at a fixed depth.
// When EnsureMove is set the result must also contain a line starting with
// that move, appended after the top lines if the engine did not rank it.
type Request struct {
	FEN        string
	EnsureMove string
	Depth      int
	MultiPV    int
}

// Score is an evaluation from the side to move's perspective.
type Score struct {
	CP     int
	Mate   int
	IsMate bool
}

// CP returns a centipawn score.
func CP(cp int) Score {
	return Score{CP: cp}
}

// Mate returns a mate score. Positive n means the side to move mates in n;
// negative means it is mated. Zero means the side to move is mated.
func Mate(n int) Score {
	return Score{Mate: n, IsMate: true}
}

// Centipawns maps the score to centipawns, replacing mates with MateScore.
func (s Score) Centipawns() int {
	if !s.IsMate {
		return s.CP
	}
	switch {
	case s.Mate > 0:
		return MateScore - s.Mate
	case s.Mate < 0:
		return -MateScore - s.Mate
	}
	return -MateScore
}

// Parent converts the score of a position into the score of the move that
// led to it, from the mover's perspective. Being mated in k becomes mating
// in k+1.
func (s Score) Parent() Score {
	if !s.IsMate {
		return Score{CP: -s.CP}
	}
	if s.Mate <= 0 {
		return Mate(-s.Mate + 1)
	}
	return Mate(-s.Mate)
}

func (s Score) String() string {
	if s.IsMate {
		return "#" + strconv.Itoa(s.Mate)
	}
	return strconv.Itoa(s.CP) + "cp"
}

// Line is one principal variation in UCI move notation.
type Line struct {
	PV    []string
	Score Score
}

// FirstMove returns the first move of the line, or "".
func (l Line) FirstMove() string {
	if len(l.PV) == 0 {
		return ""
	}
	return l.PV[0]
}

func (l Line) String() string {
	return l.Score.String() + " " + strings.Join(l.PV, " ")
}

// Engine analyzes positions. Lines are ordered best first.
// Implementations need not be safe for concurrent use unless documented.
type Engine interface {
	Analyze(ctx context.Context, req Request) ([]Line, error)
	Close() error
}

// HasMove reports whether any line starts with move.
func HasMove(lines []Line, move string) bool {
	for _, l := range lines {
		if l.FirstMove() == move {
			return true
		}
	}
	return false
}
