package transfer

import (
	"log/slog"

	"github.com/go-git/go-billy/v5"
	"go.opentelemetry.io/otel/trace"
)

// serviceOptions holds configuration options for the Service.
type serviceOptions struct {
	logger *slog.Logger
	tracer trace.Tracer
	newID  func() string
	fs     billy.Filesystem
}

// Option is a functional option for configuring the Service.
type Option func(*serviceOptions)

// WithLogger configures the service with a custom logger.
// If logger is nil, logging will be disabled.
func WithLogger(logger *slog.Logger) Option {
	return func(opts *serviceOptions) {
		opts.logger = logger
	}
}

// WithTracer sets the OpenTelemetry tracer used for upload and download spans.
func WithTracer(tracer trace.Tracer) Option {
	return func(opts *serviceOptions) {
		opts.tracer = tracer
	}
}

// WithIDGenerator replaces the generator of download request identifiers.
func WithIDGenerator(fn func() string) Option {
	return func(opts *serviceOptions) {
		opts.newID = fn
	}
}

// WithFilesystem sets the filesystem used by GetFileInfo.
func WithFilesystem(fs billy.Filesystem) Option {
	return func(opts *serviceOptions) {
		opts.fs = fs
	}
}
