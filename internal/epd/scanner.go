package epd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
)

// Entry is one decoded line.
type Entry struct {
	Line        int
	FEN         string
	Annotations *Annotations
}

// ScannerOption configures a Scanner.
type ScannerOption func(*Scanner)

// WithSkipMalformed makes the scanner skip malformed lines instead of
// stopping. fn, when non-nil, is called for every skipped line.
func WithSkipMalformed(fn func(*FormatError)) ScannerOption {
	return func(s *Scanner) {
		s.skip = true
		s.onSkip = fn
	}
}

// WithSkipBlank makes the scanner ignore empty lines.
func WithSkipBlank() ScannerOption {
	return func(s *Scanner) { s.skipBlank = true }
}

// Scanner reads annotated lines from a stream.
// By default the first malformed line stops the scan and is reported by Err.
type Scanner struct {
	sc        *bufio.Scanner
	line      int
	entry     Entry
	err       error
	skip      bool
	skipBlank bool
	onSkip    func(*FormatError)
}

// NewScanner returns a Scanner reading from r.
func NewScanner(r io.Reader, opts ...ScannerOption) *Scanner {
	sc := bufio.NewScanner(r)
	// Increase buffer size for long lines.
	sc.Buffer(make([]byte, 64*1024), 1024*1024)

	s := &Scanner{sc: sc}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Scan advances to the next entry. It returns false at the end of input or
// on the first error.
func (s *Scanner) Scan() bool {
	if s.err != nil {
		return false
	}

	for s.sc.Scan() {
		s.line++
		text := s.sc.Text()
		if text == "" && s.skipBlank {
			continue
		}

		fen, a, err := Decode(text)
		if err != nil {
			var fe *FormatError
			if errors.As(err, &fe) {
				fe.Line = s.line
				if s.skip {
					if s.onSkip != nil {
						s.onSkip(fe)
					}
					continue
				}
			}
			s.err = err
			return false
		}

		s.entry = Entry{Line: s.line, FEN: fen, Annotations: a}
		return true
	}

	if err := s.sc.Err(); err != nil {
		s.err = fmt.Errorf("reading EPD: %w", err)
	}
	return false
}

// Entry returns the most recently scanned entry.
func (s *Scanner) Entry() Entry {
	return s.entry
}

// Err returns the first error encountered.
func (s *Scanner) Err() error {
	return s.err
}

// Writer writes annotated lines.
type Writer struct {
	w *bufio.Writer
}

// NewWriter returns a Writer on w. Call Flush when done.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: bufio.NewWriter(w)}
}

// Write writes one encoded line followed by a newline.
func (w *Writer) Write(fen string, a *Annotations) error {
	if _, err := w.w.WriteString(Encode(fen, a)); err != nil {
		return err
	}
	return w.w.WriteByte('\n')
}

// Flush writes any buffered data to the underlying writer.
func (w *Writer) Flush() error {
	return w.w.Flush()
}
