// Package gcssource reads inputs from Google Cloud Storage.
package gcssource

import (
	"context"
	"errors"
	"fmt"
	"io"

	"cloud.google.com/go/storage"

	"github.com/discochess/moveloss/internal/source"
)

// Scheme is the URL scheme served by this backend.
const Scheme = "gs"

// Compile-time check that Backend implements source.Backend.
var _ source.Backend = (*Backend)(nil)

// objectReader opens one object. It is satisfied by the storage client
// adapter below and by fakes in tests.
type objectReader interface {
	NewReader(ctx context.Context, bucket, object string) (io.ReadCloser, error)
	Close() error
}

// Backend reads objects from GCS.
type Backend struct {
	client objectReader
}

// New creates a GCS backend using application default credentials.
func New(ctx context.Context) (*Backend, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("creating GCS client: %w", err)
	}
	return &Backend{client: gcsClient{client}}, nil
}

// Factory returns a source.Factory creating the backend on first use.
func Factory() source.Factory {
	return func(ctx context.Context) (source.Backend, error) {
		return New(ctx)
	}
}

// Open streams the object at loc.
func (b *Backend) Open(ctx context.Context, loc source.Location) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r, err := b.client.NewReader(ctx, loc.Bucket, loc.Key)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) || errors.Is(err, storage.ErrBucketNotExist) {
			return nil, fmt.Errorf("%w: %s", source.ErrNotFound, loc)
		}
		return nil, fmt.Errorf("creating reader: %w", err)
	}
	return r, nil
}

// Close releases the client.
func (b *Backend) Close() error {
	return b.client.Close()
}

type gcsClient struct {
	c *storage.Client
}

func (g gcsClient) NewReader(ctx context.Context, bucket, object string) (io.ReadCloser, error) {
	return g.c.Bucket(bucket).Object(object).NewReader(ctx)
}

func (g gcsClient) Close() error {
	return g.c.Close()
}
