// Package epd reads and writes EPD annotation lines: a FEN followed by
// semicolon-separated "key value" pairs, one record per line.
//
//	rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1;id g.pgn#1;sm e2e4
package epd

import (
	"errors"
	"fmt"
	"strings"
)

// ErrFormat is wrapped by every FormatError.
var ErrFormat = errors.New("epd: malformed line")

// FormatError describes a line that cannot be decoded.
type FormatError struct {
	// Line is the 1-based line number, or 0 when unknown.
	Line   int
	Text   string
	Reason string
}

func (e *FormatError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("epd: line %d: %s: %q", e.Line, e.Reason, e.Text)
	}
	return fmt.Sprintf("epd: %s: %q", e.Reason, e.Text)
}

func (e *FormatError) Unwrap() error {
	return ErrFormat
}

const (
	fieldSep = ";"
	kvSep    = " "
)

// Decode splits an annotated line into its FEN and annotations.
// A single trailing newline is ignored.
func Decode(line string) (string, *Annotations, error) {
	line = strings.TrimSuffix(line, "\n")
	line = strings.TrimSuffix(line, "\r")
	if line == "" {
		return "", nil, &FormatError{Text: line, Reason: "empty line"}
	}

	segments := strings.Split(line, fieldSep)
	fen := segments[0]
	if strings.TrimSpace(fen) == "" {
		return "", nil, &FormatError{Text: line, Reason: "empty FEN"}
	}

	a := New()
	for _, seg := range segments[1:] {
		key, value, ok := strings.Cut(seg, kvSep)
		if !ok {
			return "", nil, &FormatError{Text: seg, Reason: "annotation lacks key/value separator"}
		}
		if key == "" {
			return "", nil, &FormatError{Text: seg, Reason: "annotation has empty key"}
		}
		a.Set(key, value)
	}

	return fen, a, nil
}

// Encode renders fen and annotations as a single line without a trailing
// newline.
func Encode(fen string, a *Annotations) string {
	var b strings.Builder
	b.WriteString(fen)
	for _, k := range a.Keys() {
		v, _ := a.Get(k)
		b.WriteString(fieldSep)
		b.WriteString(k)
		b.WriteString(kvSep)
		b.WriteString(v)
	}
	return b.String()
}
