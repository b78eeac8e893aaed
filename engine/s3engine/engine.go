// Package s3engine implements the transfer engine on the AWS SDK for Go v2.
//
// Uploads map one-to-one onto S3 multipart upload calls; the request
// identifier is the S3 upload id. Downloads stream GetObject bodies into
// local files and resume with ranged reads.
//
// Example:
//
//	eng := s3engine.New(s3engine.WithLogger(logger))
//	svc := transfer.New(eng)
//	err := svc.InitWithPlainSecret(ctx, transfertypes.Configuration{Region: "eu-west-1"}, secret)
package s3engine

import (
	"context"
	"log/slog"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/go-git/go-billy/v5/osfs"

	"github.com/input-output-hk/catalyst-forge-libs/transfer/engine"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/errors"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/internal/downloads"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/internal/parts"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/internal/s3api"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/transfertypes"
)

// Engine is an S3 transfer engine.
type Engine struct {
	opts      *options
	events    *engine.EventStream
	downloads *downloads.Manager
	source    *parts.Source

	mu     sync.RWMutex
	client s3api.S3API
	cfg    transfertypes.Configuration

	closeOnce sync.Once
}

var _ engine.Engine = (*Engine)(nil)

// New creates an Engine. It must be initialized before use.
func New(opts ...Option) *Engine {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = slog.New(slog.DiscardHandler)
	}
	if o.fs == nil {
		o.fs = osfs.New("/")
	}
	if o.minPartSize <= 0 {
		o.minPartSize = parts.MinPartSize
	}

	e := &Engine{
		opts:   o,
		events: engine.NewEventStream(o.eventBuffer),
		source: parts.NewSource(o.fs),
	}
	e.downloads = downloads.NewManager(o.fs, e.openObject, e.events,
		downloads.WithLogger(o.logger),
		downloads.WithProgressInterval(o.progressInterval),
	)
	return e
}

// Init builds the S3 client. A nil secret selects session credentials
// fetched from cfg.SessionCredentialURL; the first credential is fetched
// during Init so an unreachable credential service fails initialization.
func (e *Engine) Init(ctx context.Context, cfg transfertypes.Configuration, secret *transfertypes.PlainSecret) error {
	cfg, raised := parts.EnforceMinimum(cfg, e.opts.minPartSize)
	if raised {
		e.opts.logger.DebugContext(ctx, "part sizes raised to the store minimum",
			"min_part_size", e.opts.minPartSize,
			"slice_size", cfg.SliceSizeForUpload,
			"division", cfg.DivisionForUpload)
	}

	client := e.opts.client
	if client == nil {
		awsCfg, err := loadConfig(ctx, cfg, secret)
		if err != nil {
			return err
		}
		client = s3.NewFromConfig(awsCfg, func(o *s3.Options) {
			o.UsePathStyle = cfg.ForcePathStyle
			if cfg.Endpoint != "" {
				o.BaseEndpoint = aws.String(cfg.Endpoint)
			}
		})
	}

	e.mu.Lock()
	e.client = client
	e.cfg = cfg
	e.mu.Unlock()

	e.opts.logger.InfoContext(ctx, "s3 engine initialized",
		"region", cfg.Region,
		"endpoint", cfg.Endpoint,
		"path_style", cfg.ForcePathStyle)
	return nil
}

func (e *Engine) state() (s3api.S3API, transfertypes.Configuration, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.client == nil {
		return nil, e.cfg, errors.ErrNotInitialized
	}
	return e.client, e.cfg, nil
}

// Events returns the engine's event stream.
func (e *Engine) Events() <-chan transfertypes.Event {
	return e.events.C()
}

// Close pauses all running downloads and closes the event stream.
func (e *Engine) Close() error {
	e.closeOnce.Do(func() {
		if n := e.downloads.Active(); n > 0 {
			e.opts.logger.Info("closing engine with unfinished downloads", "downloads", n)
		}
		e.downloads.Close()
		e.events.Close()
	})
	return nil
}
