package codec

import (
	"io"

	"github.com/klauspost/compress/gzip"
)

// Gzip reads and writes gzip streams. Concatenated members are read as one
// stream, as produced by `cat a.gz b.gz`.
type Gzip struct{}

var _ Codec = Gzip{}

func (Gzip) Name() string      { return "gzip" }
func (Gzip) Extension() string { return ".gz" }

func (Gzip) NewReader(r io.Reader) (io.ReadCloser, error) {
	return gzip.NewReader(r)
}

func (Gzip) NewWriter(w io.Writer) (io.WriteCloser, error) {
	return gzip.NewWriter(w), nil
}
