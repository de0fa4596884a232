// Package codec picks stream compression for input and output files from
// their name. Plain, gzip and zstd streams are supported.
package codec

import (
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrUnknownCodec is returned by ByName for unsupported names.
var ErrUnknownCodec = errors.New("codec: unknown codec")

// Codec wraps streams with compression.
type Codec interface {
	// Name identifies the codec ("none", "gzip", "zstd").
	Name() string
	// Extension returns the file suffix including the dot, or "" for none.
	Extension() string
	// NewReader wraps r to decompress data read from it. Closing the
	// returned reader does not close r.
	NewReader(r io.Reader) (io.ReadCloser, error)
	// NewWriter wraps w to compress data written to it. Close flushes the
	// compressed stream but does not close w.
	NewWriter(w io.Writer) (io.WriteCloser, error)
}

var codecs = []Codec{Gzip{}, Zstd{}}

// ForPath returns the codec matching the suffix of path, or None.
func ForPath(path string) Codec {
	for _, c := range codecs {
		if strings.HasSuffix(path, c.Extension()) {
			return c
		}
	}
	return None{}
}

// ByName returns the codec with the given name.
func ByName(name string) (Codec, error) {
	if name == "" || name == (None{}).Name() {
		return None{}, nil
	}
	for _, c := range codecs {
		if c.Name() == name {
			return c, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownCodec, name)
}

// TrimExtension strips a compression suffix from path.
func TrimExtension(path string) string {
	return strings.TrimSuffix(path, ForPath(path).Extension())
}

// None passes data through unchanged.
type None struct{}

var _ Codec = None{}

func (None) Name() string      { return "none" }
func (None) Extension() string { return "" }

func (None) NewReader(r io.Reader) (io.ReadCloser, error) {
	return io.NopCloser(r), nil
}

func (None) NewWriter(w io.Writer) (io.WriteCloser, error) {
	return nopWriteCloser{w}, nil
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }
