// Package s3source reads inputs from AWS S3 and S3-compatible services.
package s3source

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/discochess/moveloss/internal/source"
)

// Scheme is the URL scheme served by this backend.
const Scheme = "s3"

// Compile-time check that Backend implements source.Backend.
var _ source.Backend = (*Backend)(nil)

// getObjectAPI is the subset of the S3 client used here.
type getObjectAPI interface {
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Backend reads objects from S3.
type Backend struct {
	client getObjectAPI
}

// options holds the client configuration.
type options struct {
	region   string
	endpoint string
}

// Option configures a Backend.
type Option func(*options)

// WithRegion sets the AWS region.
func WithRegion(region string) Option {
	return func(o *options) { o.region = region }
}

// WithEndpoint sets a custom endpoint (for S3-compatible services like MinIO).
// Path-style addressing is used with a custom endpoint.
func WithEndpoint(endpoint string) Option {
	return func(o *options) { o.endpoint = endpoint }
}

// New creates an S3 backend from the default AWS credential chain.
func New(ctx context.Context, opts ...Option) (*Backend, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	var loadOpts []func(*config.LoadOptions) error
	if o.region != "" {
		loadOpts = append(loadOpts, config.WithRegion(o.region))
	}
	cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(so *s3.Options) {
		if o.endpoint != "" {
			so.BaseEndpoint = aws.String(o.endpoint)
			so.UsePathStyle = true
		}
	})
	return &Backend{client: client}, nil
}

// Factory returns a source.Factory creating the backend on first use.
func Factory(opts ...Option) source.Factory {
	return func(ctx context.Context) (source.Backend, error) {
		return New(ctx, opts...)
	}
}

// Open streams the object at loc.
func (b *Backend) Open(ctx context.Context, loc source.Location) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out, err := b.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(loc.Bucket),
		Key:    aws.String(loc.Key),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, fmt.Errorf("%w: %s", source.ErrNotFound, loc)
		}
		return nil, fmt.Errorf("getting object: %w", err)
	}
	return out.Body, nil
}

// Close releases resources.
func (b *Backend) Close() error {
	// S3 client doesn't need explicit closing.
	return nil
}
