package s3engine

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/input-output-hk/catalyst-forge-libs/transfer/errors"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/internal/downloads"
)

// BeginDownload starts or resumes the download identified by requestID.
func (e *Engine) BeginDownload(_ context.Context, requestID, bucket, key, destinationPath string) error {
	if _, _, err := e.state(); err != nil {
		return err
	}
	return e.downloads.Begin(requestID, bucket, key, destinationPath) //nolint:wrapcheck // already a transfer error
}

// PauseDownload stops the download and keeps its partial file.
func (e *Engine) PauseDownload(_ context.Context, requestID string) error {
	e.downloads.Pause(requestID)
	return nil
}

// CancelDownload stops the download and removes its partial file.
func (e *Engine) CancelDownload(_ context.Context, requestID string) error {
	return e.downloads.Cancel(requestID) //nolint:wrapcheck // already a transfer error
}

func (e *Engine) openObject(
	ctx context.Context,
	bucket, key string,
	offset int64,
	etag string,
) (*downloads.Object, error) {
	client, _, err := e.state()
	if err != nil {
		return nil, err
	}

	input := &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	}
	if offset > 0 {
		input.Range = aws.String(fmt.Sprintf("bytes=%d-", offset))
	}
	if etag != "" {
		input.IfMatch = aws.String(etag)
	}

	out, err := client.GetObject(ctx, input)
	if err != nil {
		return nil, convertAWSError(err)
	}

	size := offset + aws.ToInt64(out.ContentLength)
	if total, ok := parseContentRange(aws.ToString(out.ContentRange)); ok {
		size = total
	} else if offset > 0 {
		_ = out.Body.Close()
		return nil, errors.NewObjectError("download", bucket, key, errors.ErrInvalidResponse).
			WithMessage(fmt.Sprintf("ranged read from offset %d returned no content range", offset))
	}

	return &downloads.Object{
		Body: out.Body,
		Size: size,
		ETag: aws.ToString(out.ETag),
	}, nil
}

// parseContentRange returns the complete length from a Content-Range header
// such as "bytes 100-199/1000".
func parseContentRange(header string) (int64, bool) {
	_, total, ok := strings.Cut(header, "/")
	if !ok || total == "*" {
		return 0, false
	}
	n, err := strconv.ParseInt(strings.TrimSpace(total), 10, 64)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}
