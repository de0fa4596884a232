package codec

import (
	"bytes"
	"errors"
	"io"
	"testing"
)

func TestForPath(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"games.epd", "none"},
		{"games.epd.gz", "gzip"},
		{"s3://bucket/games.pgn.zst", "zstd"},
		{"-", "none"},
		{"archive.gzip", "none"},
	}

	for _, tt := range tests {
		if got := ForPath(tt.path).Name(); got != tt.want {
			t.Errorf("ForPath(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestByName(t *testing.T) {
	for _, name := range []string{"", "none", "gzip", "zstd"} {
		if _, err := ByName(name); err != nil {
			t.Errorf("ByName(%q) error = %v", name, err)
		}
	}
	if _, err := ByName("brotli"); !errors.Is(err, ErrUnknownCodec) {
		t.Errorf("ByName(brotli) error = %v, want ErrUnknownCodec", err)
	}
}

func TestTrimExtension(t *testing.T) {
	if got := TrimExtension("lichess_2013-01.pgn.zst"); got != "lichess_2013-01.pgn" {
		t.Errorf("TrimExtension() = %q", got)
	}
	if got := TrimExtension("games.pgn"); got != "games.pgn" {
		t.Errorf("TrimExtension() = %q", got)
	}
}

func TestCodec_RoundTrip(t *testing.T) {
	inputs := map[string][]byte{
		"empty":      {},
		"line":       []byte("rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1;id g#1;sm e2e4\n"),
		"repetitive": bytes.Repeat([]byte("8/8/8/8/8/8/8/K6k w - - 0 1;ce 0\n"), 5000),
	}

	for _, c := range []Codec{None{}, Gzip{}, Zstd{}} {
		for name, original := range inputs {
			t.Run(c.Name()+"/"+name, func(t *testing.T) {
				var compressed bytes.Buffer
				w, err := c.NewWriter(&compressed)
				if err != nil {
					t.Fatalf("NewWriter() error = %v", err)
				}
				if _, err := w.Write(original); err != nil {
					t.Fatalf("Write() error = %v", err)
				}
				if err := w.Close(); err != nil {
					t.Fatalf("Close() error = %v", err)
				}

				if c.Name() != "none" && len(original) > 1000 && compressed.Len() >= len(original) {
					t.Errorf("%s did not compress: %d >= %d bytes", c.Name(), compressed.Len(), len(original))
				}

				r, err := c.NewReader(&compressed)
				if err != nil {
					t.Fatalf("NewReader() error = %v", err)
				}
				defer r.Close()
				got, err := io.ReadAll(r)
				if err != nil {
					t.Fatalf("ReadAll() error = %v", err)
				}
				if !bytes.Equal(got, original) {
					t.Errorf("round trip = %d bytes, want %d", len(got), len(original))
				}
			})
		}
	}
}

func TestGzip_InvalidData(t *testing.T) {
	if _, err := (Gzip{}).NewReader(bytes.NewReader([]byte("not gzip data"))); err == nil {
		t.Error("NewReader() expected error for invalid gzip data")
	}
}
