package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/discochess/moveloss/internal/codec"
)

// Local reads files from the local filesystem.
type Local struct{}

var _ Backend = Local{}

// Open opens the file at loc.Key.
func (Local) Open(ctx context.Context, loc Location) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(loc.Key)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, loc.Key)
		}
		return nil, err
	}
	return f, nil
}

// Close is a no-op.
func (Local) Close() error {
	return nil
}

// Create opens a local output file, compressing by its suffix. The empty
// path and "-" write to stdout, which Close leaves open.
func Create(path string, stdout io.Writer) (io.WriteCloser, error) {
	if path == "" || path == Stdin {
		return nopWriteCloser{stdout}, nil
	}
	if loc, err := Parse(path); err != nil {
		return nil, err
	} else if loc.Scheme != "" {
		return nil, fmt.Errorf("%w for output: %q", ErrUnsupportedScheme, loc.Scheme)
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating output: %w", err)
	}
	c := codec.ForPath(path)
	enc, err := c.NewWriter(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("creating %s encoder: %w", c.Name(), err)
	}
	return &fileWriter{WriteCloser: enc, file: f}, nil
}

type fileWriter struct {
	io.WriteCloser
	file *os.File
}

func (w *fileWriter) Close() error {
	err := w.WriteCloser.Close()
	if cerr := w.file.Close(); err == nil {
		err = cerr
	}
	return err
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }
