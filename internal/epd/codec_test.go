package epd

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

const startFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

func TestDecode(t *testing.T) {
	tests := []struct {
		name     string
		line     string
		wantFEN  string
		wantKeys []string
		wantVals []string
		wantErr  bool
	}{
		{
			name:     "position record",
			line:     startFEN + ";id g.pgn#1;player A;elo 2000;result 1-0;ply 0;sm e2e4\n",
			wantFEN:  startFEN,
			wantKeys: []string{"id", "player", "elo", "result", "ply", "sm"},
			wantVals: []string{"g.pgn#1", "A", "2000", "1-0", "0", "e2e4"},
		},
		{
			name:     "value with spaces splits on first space only",
			line:     startFEN + ";player Magnus Carlsen",
			wantFEN:  startFEN,
			wantKeys: []string{"player"},
			wantVals: []string{"Magnus Carlsen"},
		},
		{
			name:     "duplicate key keeps first position and last value",
			line:     startFEN + ";ce 10;bm e2e4;ce 30",
			wantFEN:  startFEN,
			wantKeys: []string{"ce", "bm"},
			wantVals: []string{"30", "e2e4"},
		},
		{
			name:     "crlf line ending",
			line:     startFEN + ";sm d2d4\r\n",
			wantFEN:  startFEN,
			wantKeys: []string{"sm"},
			wantVals: []string{"d2d4"},
		},
		{
			name:     "bare fen",
			line:     startFEN,
			wantFEN:  startFEN,
			wantKeys: nil,
		},
		{
			name:    "empty line",
			line:    "",
			wantErr: true,
		},
		{
			name:    "newline only",
			line:    "\n",
			wantErr: true,
		},
		{
			name:    "segment without separator",
			line:    startFEN + ";id",
			wantErr: true,
		},
		{
			name:    "trailing semicolon",
			line:    startFEN + ";id g1;",
			wantErr: true,
		},
		{
			name:    "empty key",
			line:    startFEN + "; value",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fen, a, err := Decode(tt.line)
			if tt.wantErr {
				if !errors.Is(err, ErrFormat) {
					t.Fatalf("Decode() error = %v, want ErrFormat", err)
				}
				var fe *FormatError
				if !errors.As(err, &fe) {
					t.Fatalf("Decode() error type = %T, want *FormatError", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Decode() error = %v", err)
			}
			if fen != tt.wantFEN {
				t.Errorf("Decode() fen = %q, want %q", fen, tt.wantFEN)
			}
			keys := a.Keys()
			if len(keys) != len(tt.wantKeys) {
				t.Fatalf("Decode() keys = %v, want %v", keys, tt.wantKeys)
			}
			for i, k := range keys {
				if k != tt.wantKeys[i] {
					t.Errorf("key[%d] = %q, want %q", i, k, tt.wantKeys[i])
				}
				if v, _ := a.Get(k); v != tt.wantVals[i] {
					t.Errorf("value[%s] = %q, want %q", k, v, tt.wantVals[i])
				}
			}
		})
	}
}

func TestEncode(t *testing.T) {
	a := New()
	a.Set("id", "g1")
	a.Set("sm", "e2e4")
	a.Set("bm", "e2e4")

	got := Encode(startFEN, a)
	want := startFEN + ";id g1;sm e2e4;bm e2e4"
	if got != want {
		t.Errorf("Encode() = %q, want %q", got, want)
	}

	if got := Encode(startFEN, New()); got != startFEN {
		t.Errorf("Encode(empty) = %q, want %q", got, startFEN)
	}
}

func TestRoundTrip(t *testing.T) {
	mappings := []map[string]string{
		{},
		{"id": "file.pgn#12"},
		{"player": "Some Player", "elo": "0", "result": "1/2-1/2"},
		{"k": "", "ce": "-100000", "ce2": "99998"},
	}
	orders := [][]string{
		{},
		{"id"},
		{"player", "elo", "result"},
		{"k", "ce", "ce2"},
	}

	for i, m := range mappings {
		a := New()
		for _, k := range orders[i] {
			a.Set(k, m[k])
		}

		fen, got, err := Decode(Encode(startFEN, a))
		if err != nil {
			t.Fatalf("case %d: Decode(Encode()) error = %v", i, err)
		}
		if fen != startFEN {
			t.Errorf("case %d: fen = %q, want %q", i, fen, startFEN)
		}
		if !got.Equal(a) {
			t.Errorf("case %d: annotations = %v, want %v", i, got.Keys(), a.Keys())
		}
	}
}

func TestAnnotations_SetReplacesInPlace(t *testing.T) {
	a := New()
	a.Set("a", "1")
	a.Set("b", "2")
	a.Set("a", "3")

	if keys := a.Keys(); strings.Join(keys, ",") != "a,b" {
		t.Errorf("Keys() = %v, want [a b]", keys)
	}
	if v, _ := a.Get("a"); v != "3" {
		t.Errorf("Get(a) = %q, want 3", v)
	}

	c := a.Clone()
	c.Set("c", "4")
	if a.Len() != 2 {
		t.Errorf("Clone shares state: Len() = %d, want 2", a.Len())
	}
}

func TestScanner(t *testing.T) {
	input := strings.Join([]string{
		startFEN + ";id g1;sm e2e4",
		startFEN + ";broken",
		startFEN + ";id g2;sm d2d4",
	}, "\n") + "\n"

	t.Run("abort by default", func(t *testing.T) {
		s := NewScanner(strings.NewReader(input))
		var n int
		for s.Scan() {
			n++
		}
		if n != 1 {
			t.Errorf("scanned %d entries, want 1", n)
		}
		var fe *FormatError
		if !errors.As(s.Err(), &fe) {
			t.Fatalf("Err() = %v, want *FormatError", s.Err())
		}
		if fe.Line != 2 {
			t.Errorf("FormatError.Line = %d, want 2", fe.Line)
		}
	})

	t.Run("skip malformed", func(t *testing.T) {
		var skipped []int
		s := NewScanner(strings.NewReader(input), WithSkipMalformed(func(fe *FormatError) {
			skipped = append(skipped, fe.Line)
		}))
		var ids []string
		for s.Scan() {
			id, _ := s.Entry().Annotations.Get("id")
			ids = append(ids, id)
		}
		if s.Err() != nil {
			t.Fatalf("Err() = %v", s.Err())
		}
		if strings.Join(ids, ",") != "g1,g2" {
			t.Errorf("ids = %v, want [g1 g2]", ids)
		}
		if len(skipped) != 1 || skipped[0] != 2 {
			t.Errorf("skipped = %v, want [2]", skipped)
		}
	})

	t.Run("skip blank", func(t *testing.T) {
		s := NewScanner(strings.NewReader(startFEN+";id g1\n\n"+startFEN+";id g2\n"), WithSkipBlank())
		var n int
		for s.Scan() {
			n++
		}
		if s.Err() != nil || n != 2 {
			t.Errorf("scanned %d entries, err = %v; want 2, nil", n, s.Err())
		}
	})
}

func TestWriter(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)

	a := New()
	a.Set("sm", "e2e4")
	if err := w.Write(startFEN, a); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if err := w.Flush(); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}

	want := startFEN + ";sm e2e4\n"
	if buf.String() != want {
		t.Errorf("output = %q, want %q", buf.String(), want)
	}
}
