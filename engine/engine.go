// Package engine defines the boundary between the transfer service and the
// component that actually moves bytes to and from object storage.
//
// An Engine performs the individual storage operations (initiate, list,
// upload part, complete, abort, download control) and publishes progress and
// download completion notifications on a single event stream. The transfer
// service drives uploads part by part and correlates stream events back to
// the listeners of the request that produced them.
package engine

import (
	"context"

	"github.com/input-output-hk/catalyst-forge-libs/transfer/transfertypes"
)

// Engine is a transfer engine.
//
// Implementations must be safe for concurrent use. Events must return the
// same channel on every call; the channel is closed by Close.
type Engine interface {
	// Init configures the engine. A nil secret selects session credentials
	// fetched from cfg.SessionCredentialURL.
	Init(ctx context.Context, cfg transfertypes.Configuration, secret *transfertypes.PlainSecret) error

	// InitiateMultipartUpload creates a new multipart upload and returns its identifier.
	InitiateMultipartUpload(ctx context.Context, bucket, key string) (*transfertypes.MultipartUpload, error)

	// ListUploadedParts returns the parts already stored for an upload,
	// ordered by part number.
	ListUploadedParts(ctx context.Context, requestID, bucket, key string) ([]transfertypes.UploadPart, error)

	// UploadPart sends one part of a local file.
	UploadPart(ctx context.Context, req transfertypes.UploadPartRequest) (*transfertypes.UploadPartResult, error)

	// CompleteMultipartUpload assembles the stored parts into the final object.
	CompleteMultipartUpload(
		ctx context.Context,
		requestID, bucket, key string,
		parts []transfertypes.UploadPart,
	) (*transfertypes.UploadResult, error)

	// CancelUpload aborts a multipart upload and discards its parts.
	CancelUpload(ctx context.Context, requestID, bucket, key string) error

	// BeginDownload starts, or resumes, a download identified by requestID.
	// It returns once the download has been accepted; progress and completion
	// are reported on the event stream.
	BeginDownload(ctx context.Context, requestID, bucket, key, destinationPath string) error

	// PauseDownload stops a download, keeping the bytes written so far.
	// Pausing an unknown download is a no-op.
	PauseDownload(ctx context.Context, requestID string) error

	// CancelDownload stops a download and removes the partial file.
	// Cancelling an unknown download is a no-op.
	CancelDownload(ctx context.Context, requestID string) error

	// Events returns the engine's event stream.
	Events() <-chan transfertypes.Event

	// Close stops all running downloads and closes the event stream.
	Close() error
}
