// Package minioengine implements the transfer engine on the MinIO client, for
// MinIO and other S3-compatible stores.
//
// Session credentials are fetched at Init and fetched again shortly before
// they expire; the client is rebuilt with each new credential.
package minioengine

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/input-output-hk/catalyst-forge-libs/transfer/engine"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/errors"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/internal/downloads"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/internal/parts"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/internal/session"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/transfertypes"
)

// DefaultEndpoint is used when the configuration names no endpoint.
const DefaultEndpoint = "https://s3.amazonaws.com"

// refreshWindow renews session credentials this long before they expire.
const refreshWindow = time.Minute

// CoreAPI is the subset of minio.Core used by the engine.
type CoreAPI interface {
	NewMultipartUpload(ctx context.Context, bucket, object string, opts minio.PutObjectOptions) (string, error)
	ListObjectParts(
		ctx context.Context,
		bucket, object, uploadID string,
		partNumberMarker, maxParts int,
	) (minio.ListObjectPartsResult, error)
	PutObjectPart(
		ctx context.Context,
		bucket, object, uploadID string,
		partID int,
		data io.Reader,
		size int64,
		opts minio.PutObjectPartOptions,
	) (minio.ObjectPart, error)
	CompleteMultipartUpload(
		ctx context.Context,
		bucket, object, uploadID string,
		parts []minio.CompletePart,
		opts minio.PutObjectOptions,
	) (minio.UploadInfo, error)
	AbortMultipartUpload(ctx context.Context, bucket, object, uploadID string) error
	GetObject(
		ctx context.Context,
		bucket, object string,
		opts minio.GetObjectOptions,
	) (io.ReadCloser, minio.ObjectInfo, http.Header, error)
}

var _ CoreAPI = (*minio.Core)(nil)

// coreFactory builds a client for cfg signed with creds.
type coreFactory func(cfg transfertypes.Configuration, creds *credentials.Credentials) (CoreAPI, error)

// Engine is a MinIO transfer engine.
type Engine struct {
	opts      *options
	events    *engine.EventStream
	downloads *downloads.Manager
	source    *parts.Source
	newCore   coreFactory
	now       func() time.Time

	mu      sync.Mutex
	core    CoreAPI
	cfg     transfertypes.Configuration
	fetcher *session.Fetcher
	expires time.Time

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
		opts:    o,
		events:  engine.NewEventStream(o.eventBuffer),
		source:  parts.NewSource(o.fs),
		newCore: newMinioCore,
		now:     time.Now,
	}
	e.downloads = downloads.NewManager(o.fs, e.openObject, e.events,
		downloads.WithLogger(o.logger),
		downloads.WithProgressInterval(o.progressInterval),
	)
	return e
}

// Init connects to the configured endpoint. A nil secret selects session
// credentials fetched from cfg.SessionCredentialURL.
func (e *Engine) Init(ctx context.Context, cfg transfertypes.Configuration, secret *transfertypes.PlainSecret) error {
	cfg, raised := parts.EnforceMinimum(cfg, e.opts.minPartSize)
	if raised {
		e.opts.logger.DebugContext(ctx, "part sizes raised to the store minimum",
			"min_part_size", e.opts.minPartSize,
			"slice_size", cfg.SliceSizeForUpload,
			"division", cfg.DivisionForUpload)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.opts.core != nil {
		e.core, e.cfg = e.opts.core, cfg
		return nil
	}

	if secret != nil {
		core, err := e.newCore(cfg, credentials.NewStaticV4(secret.SecretID, secret.SecretKey, ""))
		if err != nil {
			return err
		}
		e.core, e.cfg, e.fetcher, e.expires = core, cfg, nil, time.Time{}
		e.opts.logger.InfoContext(ctx, "minio engine initialized", "endpoint", cfg.Endpoint, "region", cfg.Region)
		return nil
	}

	fetcher, err := session.NewFetcher(cfg.SessionCredentialURL)
	if err != nil {
		return err //nolint:wrapcheck // already a transfer error
	}
	e.cfg, e.fetcher = cfg, fetcher
	if err := e.refreshLocked(ctx); err != nil {
		e.fetcher = nil
		return err
	}
	e.opts.logger.InfoContext(ctx, "minio engine initialized with session credentials",
		"endpoint", cfg.Endpoint,
		"region", cfg.Region,
		"expires", e.expires)
	return nil
}

// refreshLocked fetches a session credential and rebuilds the client.
// e.mu must be held.
func (e *Engine) refreshLocked(ctx context.Context) error {
	cred, err := e.fetcher.Fetch(ctx)
	if err != nil {
		return err //nolint:wrapcheck // already a transfer error
	}
	core, err := e.newCore(e.cfg, credentials.NewStaticV4(cred.TmpSecretID, cred.TmpSecretKey, cred.SessionToken))
	if err != nil {
		return err
	}
	e.core = core
	e.expires = cred.ExpiredTime
	return nil
}

// client returns the current client, renewing session credentials that are
// about to expire.
func (e *Engine) client(ctx context.Context) (CoreAPI, transfertypes.Configuration, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.core == nil {
		return nil, e.cfg, errors.ErrNotInitialized
	}

	if e.fetcher != nil && !e.expires.IsZero() && !e.now().Add(refreshWindow).Before(e.expires) {
		e.opts.logger.DebugContext(ctx, "renewing session credentials", "expires", e.expires)
		if err := e.refreshLocked(ctx); err != nil {
			return nil, e.cfg, err
		}
	}
	return e.core, e.cfg, nil
}

func newMinioCore(cfg transfertypes.Configuration, creds *credentials.Credentials) (CoreAPI, error) {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	u, err := url.Parse(endpoint)
	if err != nil || u.Host == "" {
		return nil, errors.NewError("init", errors.ErrInvalidConfig).WithMessage("malformed endpoint " + endpoint)
	}

	lookup := minio.BucketLookupAuto
	if cfg.ForcePathStyle {
		lookup = minio.BucketLookupPath
	}

	core, err := minio.NewCore(u.Host, &minio.Options{
		Creds:        creds,
		Secure:       u.Scheme == "https",
		Region:       cfg.Region,
		BucketLookup: lookup,
	})
	if err != nil {
		return nil, errors.NewError("init", err).WithMessage("creating minio client")
	}
	return core, nil
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
