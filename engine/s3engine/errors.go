package s3engine

import (
	stderrors "errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"github.com/input-output-hk/catalyst-forge-libs/transfer/errors"
)

// S3 error codes mapped onto transfer errors.
const (
	codeNoSuchKey             = "NoSuchKey"
	codeNotFound              = "NotFound"
	codeNoSuchBucket          = "NoSuchBucket"
	codeNoSuchUpload          = "NoSuchUpload"
	codeAccessDenied          = "AccessDenied"
	codeForbidden             = "Forbidden"
	codeInvalidAccessKeyID    = "InvalidAccessKeyId"
	codeSignatureDoesNotMatch = "SignatureDoesNotMatch"
	codeExpiredToken          = "ExpiredToken"
	codePreconditionFailed    = "PreconditionFailed"
)

// convertAWSError tags SDK errors with the matching transfer sentinel while
// keeping the SDK error in the chain.
func convertAWSError(err error) error {
	if err == nil {
		return nil
	}

	var noSuchKey *types.NoSuchKey
	if stderrors.As(err, &noSuchKey) {
		return fmt.Errorf("%w: %w", errors.ErrObjectNotFound, err)
	}

	var noSuchBucket *types.NoSuchBucket
	if stderrors.As(err, &noSuchBucket) {
		return fmt.Errorf("%w: %w", errors.ErrBucketNotFound, err)
	}

	var noSuchUpload *types.NoSuchUpload
	if stderrors.As(err, &noSuchUpload) {
		return fmt.Errorf("%w: %w", errors.ErrUploadNotFound, err)
	}

	var apiErr smithy.APIError
	if stderrors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case codeNoSuchKey, codeNotFound:
			return fmt.Errorf("%w: %w", errors.ErrObjectNotFound, err)
		case codeNoSuchBucket:
			return fmt.Errorf("%w: %w", errors.ErrBucketNotFound, err)
		case codeNoSuchUpload:
			return fmt.Errorf("%w: %w", errors.ErrUploadNotFound, err)
		case codePreconditionFailed:
			return fmt.Errorf("%w: %w", errors.ErrObjectChanged, err)
		case codeAccessDenied, codeForbidden, codeInvalidAccessKeyID, codeSignatureDoesNotMatch, codeExpiredToken:
			return fmt.Errorf("%w: %w", errors.ErrAccessDenied, err)
		}
	}

	return err
}
