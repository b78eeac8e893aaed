package minioengine

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/minio/minio-go/v7"

	"github.com/input-output-hk/catalyst-forge-libs/transfer/errors"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/internal/downloads"
)

// BeginDownload starts or resumes the download identified by requestID.
func (e *Engine) BeginDownload(ctx context.Context, requestID, bucket, key, destinationPath string) error {
	if _, _, err := e.client(ctx); err != nil {
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
	core, _, err := e.client(ctx)
	if err != nil {
		return nil, err
	}

	opts := minio.GetObjectOptions{}
	if offset > 0 {
		if err := opts.SetRange(offset, 0); err != nil {
			return nil, errors.NewObjectError("download", bucket, key, errors.ErrInvalidInput).
				WithMessage(err.Error())
		}
	}
	if etag != "" {
		if err := opts.SetMatchETag(etag); err != nil {
			return nil, errors.NewObjectError("download", bucket, key, errors.ErrInvalidInput).
				WithMessage(err.Error())
		}
	}

	body, info, header, err := core.GetObject(ctx, bucket, key, opts)
	if err != nil {
		return nil, convertMinioError(err)
	}

	size := offset + info.Size
	if total, ok := totalFromContentRange(header.Get("Content-Range")); ok {
		size = total
	} else if offset > 0 {
		_ = body.Close()
		return nil, errors.NewObjectError("download", bucket, key, errors.ErrInvalidResponse).
			WithMessage(fmt.Sprintf("ranged read from offset %d returned no content range", offset))
	}

	return &downloads.Object{
		Body: body,
		Size: size,
		ETag: info.ETag,
	}, nil
}

// totalFromContentRange returns the complete length from a Content-Range
// header such as "bytes 100-199/1000".
func totalFromContentRange(header string) (int64, bool) {
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
