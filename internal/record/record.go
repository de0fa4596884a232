// Package record defines the typed records that flow through the pipeline
// and their mapping to and from EPD annotations.
package record

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/discochess/moveloss/internal/epd"
	"github.com/discochess/moveloss/internal/fen"
)

// Annotation keys.
const (
	KeyID         = "id"
	KeyPlayer     = "player"
	KeyElo        = "elo"
	KeyResult     = "result"
	KeyPly        = "ply"
	KeyPlayedMove = "sm"
	KeyBestMove   = "bm"
	KeyCE         = "ce"
	KeyCE2        = "ce2"
	KeyDepth      = "acd"
)

// Game results.
const (
	WhiteWins = "1-0"
	BlackWins = "0-1"
	Draw      = "1/2-1/2"
)

var (
	// ErrMissingField is wrapped by MissingFieldError.
	ErrMissingField = errors.New("record: missing field")

	// ErrInvalidField is wrapped by FieldError.
	ErrInvalidField = errors.New("record: invalid field")
)

// MissingFieldError reports a required annotation key that is absent.
type MissingFieldError struct {
	Key string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("record: missing field %q", e.Key)
}

func (e *MissingFieldError) Unwrap() error {
	return ErrMissingField
}

// FieldError reports an annotation value that cannot be parsed.
type FieldError struct {
	Key   string
	Value string
	Err   error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("record: invalid value %q for field %q: %v", e.Value, e.Key, e.Err)
}

func (e *FieldError) Unwrap() []error {
	return []error{ErrInvalidField, e.Err}
}

// Position is one observed board position with the move that was played.
type Position struct {
	FEN        string
	ID         string
	Player     string
	Elo        int
	Result     string
	Ply        int
	PlayedMove string

	// Extra holds the decoded annotations, unknown keys included.
	// It is nil for positions built in code.
	Extra *epd.Annotations
}

// Color returns the side to move ("w" or "b"), or "" if the FEN is malformed.
func (p Position) Color() string {
	side, err := fen.SideToMove(p.FEN)
	if err != nil {
		return ""
	}
	return side
}

// Annotations returns the annotations for p. Keys already present in Extra
// keep their position; missing ones are appended.
func (p Position) Annotations() *epd.Annotations {
	a := p.Extra.Clone()
	a.Set(KeyID, p.ID)
	a.Set(KeyPlayer, p.Player)
	a.Set(KeyElo, strconv.Itoa(p.Elo))
	a.Set(KeyResult, p.Result)
	a.Set(KeyPly, strconv.Itoa(p.Ply))
	a.Set(KeyPlayedMove, p.PlayedMove)
	return a
}

// Analysis is a Position with the engine's evaluation attached.
// CE and CE2 are centipawns from the side to move's perspective.
type Analysis struct {
	Position

	BestMove string
	CE       int
	CE2      int
	Depth    int
}

// Annotations returns the position's annotations followed by bm, ce, ce2 and
// acd. Existing analysis keys are overwritten in place.
func (a Analysis) Annotations() *epd.Annotations {
	ann := a.Position.Annotations()
	ann.Set(KeyBestMove, a.BestMove)
	ann.Set(KeyCE, strconv.Itoa(a.CE))
	ann.Set(KeyCE2, strconv.Itoa(a.CE2))
	ann.Set(KeyDepth, strconv.Itoa(a.Depth))
	return ann
}

// PositionFromAnnotations builds a Position from a decoded EPD line.
func PositionFromAnnotations(fenStr string, a *epd.Annotations) (Position, error) {
	if _, err := fen.SideToMove(fenStr); err != nil {
		return Position{}, &FieldError{Key: "fen", Value: fenStr, Err: err}
	}

	p := Position{FEN: fenStr, Extra: a}
	f := fields{a: a}
	p.ID = f.str(KeyID)
	p.Player = f.str(KeyPlayer)
	p.Elo = f.integer(KeyElo)
	p.Result = f.str(KeyResult)
	p.Ply = f.integer(KeyPly)
	p.PlayedMove = f.str(KeyPlayedMove)
	if f.err != nil {
		return Position{}, f.err
	}
	return p, nil
}

// AnalysisFromAnnotations builds an Analysis from a decoded EPD line.
// The search depth (acd) is optional.
func AnalysisFromAnnotations(fenStr string, a *epd.Annotations) (Analysis, error) {
	p, err := PositionFromAnnotations(fenStr, a)
	if err != nil {
		return Analysis{}, err
	}

	an := Analysis{Position: p}
	f := fields{a: a}
	an.BestMove = f.str(KeyBestMove)
	an.CE = f.integer(KeyCE)
	an.CE2 = f.integer(KeyCE2)
	if _, ok := a.Get(KeyDepth); ok {
		an.Depth = f.integer(KeyDepth)
	}
	if f.err != nil {
		return Analysis{}, f.err
	}
	return an, nil
}

// fields reads required annotation values, keeping the first error.
type fields struct {
	a   *epd.Annotations
	err error
}

func (f *fields) str(key string) string {
	if f.err != nil {
		return ""
	}
	v, ok := f.a.Get(key)
	if !ok {
		f.err = &MissingFieldError{Key: key}
		return ""
	}
	return v
}

func (f *fields) integer(key string) int {
	v := f.str(key)
	if f.err != nil {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		f.err = &FieldError{Key: key, Value: v, Err: err}
		return 0
	}
	return n
}
