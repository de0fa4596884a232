// Package source opens game and position files from local disk, standard
// input or object storage. Compressed files are decompressed by suffix.
package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/discochess/moveloss/internal/codec"
)

// Sentinel errors for well-defined error conditions.
var (
	// ErrNotFound is returned when a file or object does not exist.
	ErrNotFound = errors.New("source: not found")

	// ErrUnsupportedScheme is returned for URLs without a registered backend.
	ErrUnsupportedScheme = errors.New("source: unsupported scheme")

	// ErrClosed is returned after the Opener has been closed.
	ErrClosed = errors.New("source: opener closed")
)

// Stdin is the path that selects standard input.
const Stdin = "-"

// Location is a parsed input path. Local files have an empty Scheme and the
// path in Key.
type Location struct {
	Scheme string
	Bucket string
	Key    string
}

func (l Location) String() string {
	if l.Scheme == "" {
		return l.Key
	}
	return l.Scheme + "://" + l.Bucket + "/" + l.Key
}

// Parse splits a path of the form scheme://bucket/key. Anything without a
// scheme is a local path.
func Parse(path string) (Location, error) {
	scheme, rest, ok := strings.Cut(path, "://")
	if !ok {
		return Location{Key: path}, nil
	}
	bucket, key, _ := strings.Cut(rest, "/")
	if scheme == "" || bucket == "" || key == "" {
		return Location{}, fmt.Errorf("source: invalid URL %q", path)
	}
	return Location{Scheme: scheme, Bucket: bucket, Key: key}, nil
}

// Backend reads raw objects for one URL scheme.
type Backend interface {
	// Open returns the raw, possibly compressed, content of loc.
	Open(ctx context.Context, loc Location) (io.ReadCloser, error)

	// Close releases any resources held by the backend.
	Close() error
}

// Factory creates a Backend on first use, so credentials are only looked up
// when a remote path is actually opened.
type Factory func(ctx context.Context) (Backend, error)

// Option configures an Opener.
type Option func(*Opener)

// WithBackend registers a backend factory for scheme.
func WithBackend(scheme string, f Factory) Option {
	return func(o *Opener) { o.factories[scheme] = f }
}

// WithStdin replaces standard input.
func WithStdin(r io.Reader) Option {
	return func(o *Opener) { o.stdin = r }
}

// WithLogger sets the logger.
// If not set, a no-op logger is used.
func WithLogger(l *zap.Logger) Option {
	return func(o *Opener) { o.logger = l }
}

// Opener opens inputs across backends.
type Opener struct {
	mu        sync.Mutex
	factories map[string]Factory
	backends  map[string]Backend
	stdin     io.Reader
	logger    *zap.Logger
	closed    bool
}

// NewOpener returns an Opener for local files. Remote schemes are added
// with WithBackend.
func NewOpener(stdin io.Reader, opts ...Option) *Opener {
	o := &Opener{
		factories: map[string]Factory{
			"": func(context.Context) (Backend, error) { return Local{}, nil },
		},
		backends: make(map[string]Backend),
		stdin:    stdin,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Open returns the concatenated, decompressed content of paths in order.
// An input whose last line lacks a newline gets one, so lines never span
// two inputs. No paths, or the path "-", read standard input. Every input
// is opened before Open returns, so a missing file fails early.
func (o *Opener) Open(ctx context.Context, paths ...string) (io.ReadCloser, error) {
	if len(paths) == 0 {
		paths = []string{Stdin}
	}

	var opened multiCloser
	readers := make([]io.Reader, 0, len(paths))
	for _, p := range paths {
		rc, err := o.openOne(ctx, p)
		if err != nil {
			_ = opened.Close()
			return nil, err
		}
		opened = append(opened, rc)
		readers = append(readers, &terminatedReader{r: rc})
	}

	return &concatReader{Reader: io.MultiReader(readers...), closers: opened}, nil
}

func (o *Opener) openOne(ctx context.Context, path string) (io.ReadCloser, error) {
	var raw io.ReadCloser
	if path == Stdin {
		raw = io.NopCloser(o.stdin)
	} else {
		loc, err := Parse(path)
		if err != nil {
			return nil, err
		}
		b, err := o.backend(ctx, loc.Scheme)
		if err != nil {
			return nil, err
		}
		raw, err = b.Open(ctx, loc)
		if err != nil {
			return nil, fmt.Errorf("opening %s: %w", path, err)
		}
	}

	c := codec.ForPath(path)
	dec, err := c.NewReader(raw)
	if err != nil {
		raw.Close()
		return nil, fmt.Errorf("opening %s decoder for %s: %w", c.Name(), path, err)
	}
	o.logger.Debug("opened input", zap.String("path", path), zap.String("codec", c.Name()))
	return &concatReader{Reader: dec, closers: multiCloser{dec, raw}}, nil
}

func (o *Opener) backend(ctx context.Context, scheme string) (Backend, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed {
		return nil, ErrClosed
	}
	if b, ok := o.backends[scheme]; ok {
		return b, nil
	}
	f, ok := o.factories[scheme]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedScheme, scheme)
	}
	b, err := f(ctx)
	if err != nil {
		return nil, fmt.Errorf("creating %s backend: %w", scheme, err)
	}
	o.backends[scheme] = b
	return b, nil
}

// Close releases the backends created so far.
func (o *Opener) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed {
		return ErrClosed
	}
	o.closed = true

	var errs []error
	for scheme, b := range o.backends {
		if err := b.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing %s backend: %w", scheme, err))
		}
	}
	return errors.Join(errs...)
}

// multiCloser closes its members in order and joins their errors.
type multiCloser []io.Closer

func (m multiCloser) Close() error {
	var errs []error
	for _, c := range m {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

type concatReader struct {
	io.Reader
	closers multiCloser
}

func (c *concatReader) Close() error {
	return c.closers.Close()
}

// terminatedReader appends a newline to non-empty input that does not end
// with one.
type terminatedReader struct {
	r       io.Reader
	last    byte
	seen    bool
	eof     bool
	pending bool
}

func (t *terminatedReader) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if t.eof {
		if t.pending {
			t.pending = false
			p[0] = '\n'
			return 1, io.EOF
		}
		return 0, io.EOF
	}

	n, err := t.r.Read(p)
	if n > 0 {
		t.last = p[n-1]
		t.seen = true
	}
	if err != io.EOF {
		return n, err
	}

	t.eof = true
	if !t.seen || t.last == '\n' {
		return n, io.EOF
	}
	if n < len(p) {
		p[n] = '\n'
		return n + 1, io.EOF
	}
	t.pending = true
	return n, nil
}
