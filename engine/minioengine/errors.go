package minioengine

import (
	"fmt"

	"github.com/minio/minio-go/v7"

	"github.com/input-output-hk/catalyst-forge-libs/transfer/errors"
)

// convertMinioError tags MinIO error responses with the matching transfer
// sentinel while keeping the original error in the chain.
func convertMinioError(err error) error {
	if err == nil {
		return nil
	}

	switch minio.ToErrorResponse(err).Code {
	case "NoSuchKey", "NotFound":
		return fmt.Errorf("%w: %w", errors.ErrObjectNotFound, err)
	case "NoSuchBucket":
		return fmt.Errorf("%w: %w", errors.ErrBucketNotFound, err)
	case "NoSuchUpload":
		return fmt.Errorf("%w: %w", errors.ErrUploadNotFound, err)
	case "PreconditionFailed":
		return fmt.Errorf("%w: %w", errors.ErrObjectChanged, err)
	case "AccessDenied", "InvalidAccessKeyId", "SignatureDoesNotMatch", "ExpiredToken":
		return fmt.Errorf("%w: %w", errors.ErrAccessDenied, err)
	}
	return err
}
