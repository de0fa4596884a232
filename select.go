package moveloss

import (
	"github.com/discochess/moveloss/internal/engine"
)

// SelectionKind classifies the outcome of SelectPlayed.
type SelectionKind int

const (
	// Found means exactly one line starts with the played move.
	Found SelectionKind = iota
	// NotFound means no line starts with the played move.
	NotFound
	// Duplicate means several lines start with the played move.
	Duplicate
)

func (k SelectionKind) String() string {
	switch k {
	case Found:
		return "found"
	case NotFound:
		return "not found"
	case Duplicate:
		return "duplicate"
	}
	return "unknown"
}

// Selection is the result of locating the played move among engine lines.
// Index is only meaningful when Kind is Found.
type Selection struct {
	Kind    SelectionKind
	Index   int
	Matches []int
}

// SelectPlayed finds the line whose first move is move.
func SelectPlayed(lines []engine.Line, move string) Selection {
	var matches []int
	for i, l := range lines {
		if l.FirstMove() == move {
			matches = append(matches, i)
		}
	}

	switch len(matches) {
	case 0:
		return Selection{Kind: NotFound, Index: -1}
	case 1:
		return Selection{Kind: Found, Index: matches[0], Matches: matches}
	}
	return Selection{Kind: Duplicate, Index: -1, Matches: matches}
}
