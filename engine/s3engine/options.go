package s3engine

import (
	"log/slog"

	"github.com/go-git/go-billy/v5"

	"github.com/input-output-hk/catalyst-forge-libs/transfer/internal/s3api"
)

// options holds configuration options for the Engine.
type options struct {
	logger           *slog.Logger
	fs               billy.Filesystem
	client           s3api.S3API
	eventBuffer      int
	progressInterval int64
	minPartSize      int64
}

// Option is a functional option for configuring the Engine.
type Option func(*options)

// WithLogger configures the engine with a custom logger.
// If logger is nil, logging will be disabled.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithFilesystem sets the filesystem parts are read from and downloads are
// written to. Defaults to the OS filesystem rooted at /.
func WithFilesystem(fs billy.Filesystem) Option {
	return func(o *options) {
		o.fs = fs
	}
}

// WithClient makes Init use client instead of building an SDK client from
// the configuration and credentials. Useful for testing and for callers that
// need full control over the SDK configuration.
func WithClient(client s3api.S3API) Option {
	return func(o *options) {
		o.client = client
	}
}

// WithEventBuffer sets the size of the event stream buffer.
func WithEventBuffer(size int) Option {
	return func(o *options) {
		o.eventBuffer = size
	}
}

// WithProgressInterval sets the number of downloaded bytes between progress events.
func WithProgressInterval(n int64) Option {
	return func(o *options) {
		o.progressInterval = n
	}
}

// WithMinPartSize sets the smallest part size the store accepts. Configured
// part sizes below it are raised at Init. Defaults to 5 MiB.
func WithMinPartSize(n int64) Option {
	return func(o *options) {
		o.minPartSize = n
	}
}
