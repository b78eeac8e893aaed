// Package orchestrator drives resumable multipart uploads.
//
// An upload is a sequential loop over an engine: initiate (when no request
// identifier is known), list the parts already stored, then send one part at
// a time until the engine reports the last part, and finally complete the
// upload. The loop checks the caller's pause token before every part, so a
// pause takes effect at the next part boundary and leaves the upload
// resumable with the same request identifier.
package orchestrator

import (
	"cmp"
	"context"
	"log/slog"
	"slices"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/input-output-hk/catalyst-forge-libs/transfer/engine"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/errors"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/transfertypes"
)

// Orchestrator runs uploads against an engine. It holds no per-upload state
// and is safe for concurrent use; each Upload call is independent.
type Orchestrator struct {
	engine engine.Engine
	logger *slog.Logger
	tracer trace.Tracer
}

// New creates an Orchestrator. A nil logger disables logging and a nil tracer
// disables tracing.
func New(e engine.Engine, logger *slog.Logger, tracer trace.Tracer) *Orchestrator {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer("")
	}
	return &Orchestrator{
		engine: e,
		logger: logger,
		tracer: tracer,
	}
}

// Upload uploads req.FilePath to req.Bucket/req.Key.
//
// When req.RequestID is empty a new multipart upload is created and its
// identifier is passed to l.Init before any part is sent. Parts already
// stored for the upload are skipped. If token is paused at a part boundary
// the upload stops without error and without a result notification; the
// returned outcome has Paused set. Any engine failure is reported to
// l.Result and returned.
func (o *Orchestrator) Upload(
	ctx context.Context,
	req transfertypes.UploadRequest,
	l transfertypes.Listeners,
	token *transfertypes.PauseToken,
) (*transfertypes.UploadOutcome, error) {
	ctx, span := o.tracer.Start(ctx, "transfer.Upload", trace.WithAttributes(
		attribute.String("transfer.bucket", req.Bucket),
		attribute.String("transfer.key", req.Key),
		attribute.Bool("transfer.resume", req.RequestID != ""),
	))
	defer span.End()

	outcome, err := o.upload(ctx, req, l, token)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		o.logger.ErrorContext(ctx, "upload failed",
			"bucket", req.Bucket,
			"key", req.Key,
			"request_id", outcome.RequestID,
			"error", err)
		l.NotifyResult(err)
		return outcome, err
	}

	span.SetAttributes(
		attribute.String("transfer.request_id", outcome.RequestID),
		attribute.Int("transfer.parts", len(outcome.Parts)),
		attribute.Bool("transfer.paused", outcome.Paused),
	)
	return outcome, nil
}

func (o *Orchestrator) upload(
	ctx context.Context,
	req transfertypes.UploadRequest,
	l transfertypes.Listeners,
	token *transfertypes.PauseToken,
) (*transfertypes.UploadOutcome, error) {
	outcome := &transfertypes.UploadOutcome{RequestID: req.RequestID}

	if outcome.RequestID == "" {
		upload, err := o.engine.InitiateMultipartUpload(ctx, req.Bucket, req.Key)
		if err != nil {
			return outcome, o.wrap("initiateMultipartUpload", req, "", err)
		}
		outcome.RequestID = upload.RequestID
		o.logger.DebugContext(ctx, "multipart upload initiated",
			"bucket", req.Bucket,
			"key", req.Key,
			"request_id", outcome.RequestID)
		l.NotifyInit(outcome.RequestID)
	}
	id := outcome.RequestID

	existing, err := o.engine.ListUploadedParts(ctx, id, req.Bucket, req.Key)
	if err != nil {
		return outcome, o.wrap("listUploadedParts", req, id, err)
	}

	parts := slices.Clone(existing)
	slices.SortFunc(parts, func(a, b transfertypes.UploadPart) int {
		return cmp.Compare(a.PartNumber, b.PartNumber)
	})
	offset := transfertypes.TotalSize(parts)
	partNumber := int32(len(parts) + 1) //nolint:gosec // part counts are bounded by the service limit of 10000

	outcome.Parts = parts
	outcome.BytesUploaded = offset

	if len(parts) > 0 {
		o.logger.InfoContext(ctx, "resuming upload",
			"request_id", id,
			"parts", len(parts),
			"offset", offset)
	}

	for last := false; !last; {
		if token.Paused() {
			outcome.Paused = true
			o.logger.InfoContext(ctx, "upload paused",
				"request_id", id,
				"next_part", partNumber,
				"offset", offset)
			return outcome, nil
		}

		res, err := o.engine.UploadPart(ctx, transfertypes.UploadPartRequest{
			RequestID:  id,
			Bucket:     req.Bucket,
			Key:        req.Key,
			FilePath:   req.FilePath,
			PartNumber: partNumber,
			Offset:     offset,
		})
		if err != nil {
			return outcome, o.wrap("uploadPart", req, id, err)
		}

		parts = append(parts, transfertypes.UploadPart{
			PartNumber: partNumber,
			Size:       res.PartSize,
			ETag:       res.ETag,
		})
		offset += res.PartSize
		outcome.Parts = parts
		outcome.BytesUploaded = offset
		outcome.FileSize = res.FileSize

		o.logger.DebugContext(ctx, "part uploaded",
			"request_id", id,
			"part", partNumber,
			"size", res.PartSize,
			"offset", offset,
			"last", res.IsLastPart)

		l.NotifyProgress(offset, res.FileSize)
		partNumber++
		last = res.IsLastPart
	}

	result, err := o.engine.CompleteMultipartUpload(ctx, id, req.Bucket, req.Key, parts)
	if err != nil {
		return outcome, o.wrap("completeMultipartUpload", req, id, err)
	}
	outcome.Result = result

	o.logger.InfoContext(ctx, "upload completed",
		"bucket", req.Bucket,
		"key", req.Key,
		"request_id", id,
		"parts", len(parts),
		"size", offset)

	l.NotifyResult(nil)
	return outcome, nil
}

// CancelUpload aborts the multipart upload identified by req. No local state
// is involved; an upload loop still running for the same identifier fails on
// its next engine call.
func (o *Orchestrator) CancelUpload(ctx context.Context, req transfertypes.CancelUploadRequest) error {
	if err := o.engine.CancelUpload(ctx, req.RequestID, req.Bucket, req.Key); err != nil {
		return errors.NewObjectError("cancelUpload", req.Bucket, req.Key, err).WithRequestID(req.RequestID)
	}
	o.logger.InfoContext(ctx, "upload cancelled",
		"bucket", req.Bucket,
		"key", req.Key,
		"request_id", req.RequestID)
	return nil
}

func (o *Orchestrator) wrap(op string, req transfertypes.UploadRequest, id string, err error) error {
	return errors.NewObjectError(op, req.Bucket, req.Key, err).WithRequestID(id)
}
