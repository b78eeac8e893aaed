package transfer

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/input-output-hk/catalyst-forge-libs/transfer/errors"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/internal/validation"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/transfertypes"
)

// Download starts downloading bucket/key into req.FilePath and returns the
// request identifier once the engine has accepted the download.
//
// With an empty req.RequestID a new identifier is generated. l.Init receives
// the identifier before the transfer begins. Progress and the final result
// are delivered asynchronously; the result is delivered at most once, after
// which the identifier's listeners are released. If the engine rejects the
// download, l.Result receives the error and it is also returned.
//
// Reusing the identifier of a paused download resumes it.
func (s *Service) Download(
	ctx context.Context,
	req transfertypes.DownloadRequest,
	l transfertypes.Listeners,
) (string, error) {
	if err := s.requireInit("download"); err != nil {
		l.NotifyResult(err)
		return "", err
	}
	if err := validation.ValidateDownloadRequest(req); err != nil {
		l.NotifyResult(err)
		return "", err
	}

	id := req.RequestID
	if id == "" {
		id = s.opts.newID()
	}

	ctx, span := s.tracer().Start(ctx, "transfer.Download", trace.WithAttributes(
		attribute.String("transfer.bucket", req.Bucket),
		attribute.String("transfer.key", req.Key),
		attribute.String("transfer.request_id", id),
	))
	defer span.End()

	l.NotifyInit(id)
	s.registry.Register(id, l.Progress, l.Result)

	if err := s.engine.BeginDownload(ctx, id, req.Bucket, req.Key, req.FilePath); err != nil {
		s.registry.Remove(id)
		werr := errors.NewObjectError("download", req.Bucket, req.Key, err).WithRequestID(id)
		span.RecordError(werr)
		span.SetStatus(codes.Error, werr.Error())
		s.opts.logger.ErrorContext(ctx, "download rejected",
			"request_id", id,
			"bucket", req.Bucket,
			"key", req.Key,
			"error", err)
		l.NotifyResult(werr)
		return "", werr
	}

	s.opts.logger.InfoContext(ctx, "download started",
		"request_id", id,
		"bucket", req.Bucket,
		"key", req.Key)
	return id, nil
}

// PauseDownload stops a download, keeping the bytes written so far. The
// download's listeners are released first, so no notification for id is
// delivered after PauseDownload returns. Resume with Download and the same
// request identifier.
func (s *Service) PauseDownload(ctx context.Context, id string) error {
	if err := s.requireInit("pauseDownload"); err != nil {
		return err
	}

	s.registry.Remove(id)
	if err := s.engine.PauseDownload(ctx, id); err != nil {
		return errors.NewError("pauseDownload", err).WithRequestID(id)
	}
	s.opts.logger.InfoContext(ctx, "download paused", "request_id", id)
	return nil
}

// CancelDownload stops a download and removes its partial file. The
// download's listeners are released first, so no notification for id is
// delivered after CancelDownload returns.
func (s *Service) CancelDownload(ctx context.Context, id string) error {
	if err := s.requireInit("cancelDownload"); err != nil {
		return err
	}

	s.registry.Remove(id)
	if err := s.engine.CancelDownload(ctx, id); err != nil {
		return errors.NewError("cancelDownload", err).WithRequestID(id)
	}
	s.opts.logger.InfoContext(ctx, "download cancelled", "request_id", id)
	return nil
}
