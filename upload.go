package transfer

import (
	"context"

	"github.com/input-output-hk/catalyst-forge-libs/transfer/errors"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/internal/validation"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/transfertypes"
)

// Upload uploads a local file as a multipart upload and blocks until it
// completes, fails or is paused.
//
// With an empty req.RequestID a new upload is created and l.Init receives
// its identifier before any part is sent. With a known identifier the upload
// resumes after the parts already stored. l.Progress is called after every
// part and l.Result once on completion or failure. Pausing token stops the
// upload at the next part boundary: Upload then returns an outcome with
// Paused set, a nil error, and no result notification.
func (s *Service) Upload(
	ctx context.Context,
	req transfertypes.UploadRequest,
	l transfertypes.Listeners,
	token *transfertypes.PauseToken,
) (*transfertypes.UploadOutcome, error) {
	if err := s.requireInit("upload"); err != nil {
		l.NotifyResult(err)
		return nil, err
	}
	if err := validation.ValidateUploadRequest(req); err != nil {
		l.NotifyResult(err)
		return nil, err
	}

	return s.orchestrator.Upload(ctx, req, l, token)
}

// CancelUpload aborts a multipart upload and discards its stored parts.
func (s *Service) CancelUpload(ctx context.Context, req transfertypes.CancelUploadRequest) error {
	if err := s.requireInit("cancelUpload"); err != nil {
		return err
	}
	if req.RequestID == "" {
		return errors.NewObjectError("cancelUpload", req.Bucket, req.Key, errors.ErrInvalidInput).
			WithMessage("request identifier is required")
	}
	return s.orchestrator.CancelUpload(ctx, req)
}
