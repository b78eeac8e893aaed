package minioengine

import (
	"bytes"
	"cmp"
	"context"
	"slices"

	"github.com/minio/minio-go/v7"

	"github.com/input-output-hk/catalyst-forge-libs/transfer/errors"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/internal/parts"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/transfertypes"
)

// listPageSize is the number of parts requested per ListObjectParts call.
const listPageSize = 1000

// InitiateMultipartUpload creates a multipart upload. The content type is
// derived from the key's extension.
func (e *Engine) InitiateMultipartUpload(
	ctx context.Context,
	bucket, key string,
) (*transfertypes.MultipartUpload, error) {
	core, _, err := e.client(ctx)
	if err != nil {
		return nil, err
	}

	id, err := core.NewMultipartUpload(ctx, bucket, key, minio.PutObjectOptions{
		ContentType: parts.ContentTypeForName(key),
	})
	if err != nil {
		return nil, convertMinioError(err)
	}
	if id == "" {
		return nil, errors.NewObjectError("initiateMultipartUpload", bucket, key, errors.ErrInvalidResponse).
			WithMessage("new multipart upload returned no upload id")
	}

	return &transfertypes.MultipartUpload{
		RequestID: id,
		Bucket:    bucket,
		Key:       key,
	}, nil
}

// ListUploadedParts returns every part stored for the upload, ordered by
// part number.
func (e *Engine) ListUploadedParts(
	ctx context.Context,
	requestID, bucket, key string,
) ([]transfertypes.UploadPart, error) {
	core, _, err := e.client(ctx)
	if err != nil {
		return nil, err
	}

	var uploaded []transfertypes.UploadPart
	marker := 0
	for {
		res, err := core.ListObjectParts(ctx, bucket, key, requestID, marker, listPageSize)
		if err != nil {
			return nil, convertMinioError(err)
		}
		for _, p := range res.ObjectParts {
			uploaded = append(uploaded, transfertypes.UploadPart{
				PartNumber: int32(p.PartNumber), //nolint:gosec // part numbers are at most 10000
				Size:       p.Size,
				ETag:       p.ETag,
			})
		}
		if !res.IsTruncated || res.NextPartNumberMarker <= marker {
			break
		}
		marker = res.NextPartNumberMarker
	}

	slices.SortFunc(uploaded, comparePartNumber)
	return uploaded, nil
}

// UploadPart reads the part of req.FilePath starting at req.Offset and
// uploads it as part req.PartNumber.
func (e *Engine) UploadPart(
	ctx context.Context,
	req transfertypes.UploadPartRequest,
) (*transfertypes.UploadPartResult, error) {
	core, cfg, err := e.client(ctx)
	if err != nil {
		return nil, err
	}

	part, err := e.source.ReadPart(req.FilePath, req.Offset, cfg)
	if err != nil {
		return nil, err //nolint:wrapcheck // already a transfer error
	}
	defer part.Release()

	uploaded, err := core.PutObjectPart(ctx, req.Bucket, req.Key, req.RequestID,
		int(req.PartNumber), bytes.NewReader(part.Data), part.Size, minio.PutObjectPartOptions{})
	if err != nil {
		return nil, convertMinioError(err)
	}

	return &transfertypes.UploadPartResult{
		PartNumber: req.PartNumber,
		ETag:       uploaded.ETag,
		PartSize:   part.Size,
		FileSize:   part.FileSize,
		IsLastPart: part.Last,
	}, nil
}

// CompleteMultipartUpload assembles the given parts into the final object.
func (e *Engine) CompleteMultipartUpload(
	ctx context.Context,
	requestID, bucket, key string,
	uploaded []transfertypes.UploadPart,
) (*transfertypes.UploadResult, error) {
	core, _, err := e.client(ctx)
	if err != nil {
		return nil, err
	}

	sorted := slices.Clone(uploaded)
	slices.SortFunc(sorted, comparePartNumber)

	completed := make([]minio.CompletePart, 0, len(sorted))
	for _, p := range sorted {
		completed = append(completed, minio.CompletePart{
			PartNumber: int(p.PartNumber),
			ETag:       p.ETag,
		})
	}

	info, err := core.CompleteMultipartUpload(ctx, bucket, key, requestID, completed, minio.PutObjectOptions{})
	if err != nil {
		return nil, convertMinioError(err)
	}

	return &transfertypes.UploadResult{
		Bucket: bucket,
		Key:    key,
		ETag:   info.ETag,
		Size:   transfertypes.TotalSize(sorted),
	}, nil
}

// CancelUpload aborts the multipart upload.
func (e *Engine) CancelUpload(ctx context.Context, requestID, bucket, key string) error {
	core, _, err := e.client(ctx)
	if err != nil {
		return err
	}
	if err := core.AbortMultipartUpload(ctx, bucket, key, requestID); err != nil {
		return convertMinioError(err)
	}
	return nil
}

func comparePartNumber(a, b transfertypes.UploadPart) int {
	return cmp.Compare(a.PartNumber, b.PartNumber)
}
