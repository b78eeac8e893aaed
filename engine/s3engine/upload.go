package s3engine

import (
	"bytes"
	"cmp"
	"context"
	"slices"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/input-output-hk/catalyst-forge-libs/transfer/errors"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/internal/parts"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/transfertypes"
)

// InitiateMultipartUpload creates a multipart upload. The content type is
// derived from the key's extension.
func (e *Engine) InitiateMultipartUpload(
	ctx context.Context,
	bucket, key string,
) (*transfertypes.MultipartUpload, error) {
	client, _, err := e.state()
	if err != nil {
		return nil, err
	}

	out, err := client.CreateMultipartUpload(ctx, &s3.CreateMultipartUploadInput{
		Bucket:      aws.String(bucket),
		Key:         aws.String(key),
		ContentType: aws.String(parts.ContentTypeForName(key)),
	})
	if err != nil {
		return nil, convertAWSError(err)
	}

	id := aws.ToString(out.UploadId)
	if id == "" {
		return nil, errors.NewObjectError("initiateMultipartUpload", bucket, key, errors.ErrInvalidResponse).
			WithMessage("create multipart upload returned no upload id")
	}

	return &transfertypes.MultipartUpload{
		RequestID: id,
		Bucket:    bucket,
		Key:       key,
	}, nil
}

// ListUploadedParts returns every part stored for the upload, following
// pagination, ordered by part number.
func (e *Engine) ListUploadedParts(
	ctx context.Context,
	requestID, bucket, key string,
) ([]transfertypes.UploadPart, error) {
	client, _, err := e.state()
	if err != nil {
		return nil, err
	}

	paginator := s3.NewListPartsPaginator(client, &s3.ListPartsInput{
		Bucket:   aws.String(bucket),
		Key:      aws.String(key),
		UploadId: aws.String(requestID),
	})

	var uploaded []transfertypes.UploadPart
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, convertAWSError(err)
		}
		for _, p := range page.Parts {
			uploaded = append(uploaded, transfertypes.UploadPart{
				PartNumber: aws.ToInt32(p.PartNumber),
				Size:       aws.ToInt64(p.Size),
				ETag:       aws.ToString(p.ETag),
			})
		}
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
	client, cfg, err := e.state()
	if err != nil {
		return nil, err
	}

	part, err := e.source.ReadPart(req.FilePath, req.Offset, cfg)
	if err != nil {
		return nil, err //nolint:wrapcheck // already a transfer error
	}
	defer part.Release()

	out, err := client.UploadPart(ctx, &s3.UploadPartInput{
		Bucket:        aws.String(req.Bucket),
		Key:           aws.String(req.Key),
		UploadId:      aws.String(req.RequestID),
		PartNumber:    aws.Int32(req.PartNumber),
		Body:          bytes.NewReader(part.Data),
		ContentLength: aws.Int64(part.Size),
	})
	if err != nil {
		return nil, convertAWSError(err)
	}

	return &transfertypes.UploadPartResult{
		PartNumber: req.PartNumber,
		ETag:       aws.ToString(out.ETag),
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
	client, _, err := e.state()
	if err != nil {
		return nil, err
	}

	sorted := slices.Clone(uploaded)
	slices.SortFunc(sorted, comparePartNumber)

	completed := make([]types.CompletedPart, 0, len(sorted))
	for _, p := range sorted {
		completed = append(completed, types.CompletedPart{
			ETag:       aws.String(p.ETag),
			PartNumber: aws.Int32(p.PartNumber),
		})
	}

	out, err := client.CompleteMultipartUpload(ctx, &s3.CompleteMultipartUploadInput{
		Bucket:          aws.String(bucket),
		Key:             aws.String(key),
		UploadId:        aws.String(requestID),
		MultipartUpload: &types.CompletedMultipartUpload{Parts: completed},
	})
	if err != nil {
		return nil, convertAWSError(err)
	}

	return &transfertypes.UploadResult{
		Bucket: bucket,
		Key:    key,
		ETag:   aws.ToString(out.ETag),
		Size:   transfertypes.TotalSize(sorted),
	}, nil
}

// CancelUpload aborts the multipart upload.
func (e *Engine) CancelUpload(ctx context.Context, requestID, bucket, key string) error {
	client, _, err := e.state()
	if err != nil {
		return err
	}

	_, err = client.AbortMultipartUpload(ctx, &s3.AbortMultipartUploadInput{
		Bucket:   aws.String(bucket),
		Key:      aws.String(key),
		UploadId: aws.String(requestID),
	})
	if err != nil {
		return convertAWSError(err)
	}

	e.opts.logger.DebugContext(ctx, "multipart upload aborted",
		"request_id", requestID,
		"bucket", bucket,
		"key", key)
	return nil
}

func comparePartNumber(a, b transfertypes.UploadPart) int {
	return cmp.Compare(a.PartNumber, b.PartNumber)
}
