package s3engine

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/input-output-hk/catalyst-forge-libs/transfer/errors"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/internal/parts"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/internal/session"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/internal/testutil"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/transfertypes"
)

var testSecret = &transfertypes.PlainSecret{SecretID: "AKID", SecretKey: "SECRET"}

func smallParts() transfertypes.Configuration {
	return transfertypes.Configuration{
		Region:             "us-east-1",
		DivisionForUpload:  4,
		SliceSizeForUpload: 4,
	}
}

func newTestEngine(t *testing.T, client *testutil.MockS3Client, fs billy.Filesystem) *Engine {
	t.Helper()
	e := New(WithClient(client), WithFilesystem(fs), WithProgressInterval(4), WithMinPartSize(1))
	t.Cleanup(func() { _ = e.Close() })
	require.NoError(t, e.Init(context.Background(), smallParts(), testSecret))
	return e
}

func TestEngine_RequiresInit(t *testing.T) {
	e := New(WithClient(&testutil.MockS3Client{}), WithFilesystem(memfs.New()))
	defer e.Close()
	ctx := context.Background()

	_, err := e.InitiateMultipartUpload(ctx, "bucket", "key")
	assert.ErrorIs(t, err, errors.ErrNotInitialized)

	_, err = e.UploadPart(ctx, transfertypes.UploadPartRequest{FilePath: "/f", PartNumber: 1})
	assert.ErrorIs(t, err, errors.ErrNotInitialized)

	assert.ErrorIs(t, e.BeginDownload(ctx, "d", "bucket", "key", "/out"), errors.ErrNotInitialized)
}

func TestInitiateMultipartUpload(t *testing.T) {
	mock := &testutil.MockS3Client{
		CreateMultipartUploadFunc: func(
			_ context.Context,
			in *s3.CreateMultipartUploadInput,
			_ ...func(*s3.Options),
		) (*s3.CreateMultipartUploadOutput, error) {
			assert.Equal(t, "photos", aws.ToString(in.Bucket))
			assert.Equal(t, "2024/cat.png", aws.ToString(in.Key))
			assert.Equal(t, "image/png", aws.ToString(in.ContentType))
			return &s3.CreateMultipartUploadOutput{UploadId: aws.String("U1")}, nil
		},
	}
	e := newTestEngine(t, mock, memfs.New())

	upload, err := e.InitiateMultipartUpload(context.Background(), "photos", "2024/cat.png")
	require.NoError(t, err)
	assert.Equal(t, "U1", upload.RequestID)
	assert.Equal(t, "photos", upload.Bucket)
	assert.Equal(t, "2024/cat.png", upload.Key)
}

func TestInitiateMultipartUpload_EmptyUploadID(t *testing.T) {
	e := newTestEngine(t, &testutil.MockS3Client{}, memfs.New())

	_, err := e.InitiateMultipartUpload(context.Background(), "photos", "cat.png")
	assert.ErrorIs(t, err, errors.ErrInvalidResponse)

	var terr *errors.Error
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, "initiateMultipartUpload", terr.Op)
	assert.Equal(t, "photos", terr.Bucket)
	assert.Equal(t, "cat.png", terr.Key)
}

func TestConvertAWSError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"typed no such key", &types.NoSuchKey{}, errors.ErrObjectNotFound},
		{"typed no such bucket", &types.NoSuchBucket{}, errors.ErrBucketNotFound},
		{"typed no such upload", &types.NoSuchUpload{}, errors.ErrUploadNotFound},
		{"head not found", &smithy.GenericAPIError{Code: "NotFound"}, errors.ErrObjectNotFound},
		{"no such bucket code", &smithy.GenericAPIError{Code: "NoSuchBucket"}, errors.ErrBucketNotFound},
		{"no such upload code", &smithy.GenericAPIError{Code: "NoSuchUpload"}, errors.ErrUploadNotFound},
		{"access denied", &smithy.GenericAPIError{Code: "AccessDenied"}, errors.ErrAccessDenied},
		{"expired token", &smithy.GenericAPIError{Code: "ExpiredToken"}, errors.ErrAccessDenied},
		{"precondition failed", &smithy.GenericAPIError{Code: "PreconditionFailed"}, errors.ErrObjectChanged},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := convertAWSError(tt.err)
			assert.ErrorIs(t, got, tt.want)
			assert.ErrorIs(t, got, tt.err)
		})
	}

	other := &smithy.GenericAPIError{Code: "SlowDown"}
	assert.Same(t, other, convertAWSError(other))
	assert.NoError(t, convertAWSError(nil))
}

func TestListUploadedParts_FollowsPagination(t *testing.T) {
	calls := 0
	mock := &testutil.MockS3Client{
		ListPartsFunc: func(
			_ context.Context,
			in *s3.ListPartsInput,
			_ ...func(*s3.Options),
		) (*s3.ListPartsOutput, error) {
			calls++
			assert.Equal(t, "U1", aws.ToString(in.UploadId))
			if in.PartNumberMarker == nil {
				return &s3.ListPartsOutput{
					Parts: []types.Part{
						{PartNumber: aws.Int32(2), Size: aws.Int64(4), ETag: aws.String("e2")},
						{PartNumber: aws.Int32(1), Size: aws.Int64(4), ETag: aws.String("e1")},
					},
					IsTruncated:          aws.Bool(true),
					NextPartNumberMarker: aws.String("2"),
				}, nil
			}
			assert.Equal(t, "2", aws.ToString(in.PartNumberMarker))
			return &s3.ListPartsOutput{
				Parts: []types.Part{
					{PartNumber: aws.Int32(3), Size: aws.Int64(2), ETag: aws.String("e3")},
				},
			}, nil
		},
	}
	e := newTestEngine(t, mock, memfs.New())

	got, err := e.ListUploadedParts(context.Background(), "U1", "bucket", "key")
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.Equal(t, []transfertypes.UploadPart{
		{PartNumber: 1, Size: 4, ETag: "e1"},
		{PartNumber: 2, Size: 4, ETag: "e2"},
		{PartNumber: 3, Size: 2, ETag: "e3"},
	}, got)
}

func TestListUploadedParts_UnknownUpload(t *testing.T) {
	mock := &testutil.MockS3Client{
		ListPartsFunc: func(context.Context, *s3.ListPartsInput, ...func(*s3.Options)) (*s3.ListPartsOutput, error) {
			return nil, &smithy.GenericAPIError{Code: "NoSuchUpload", Message: "gone"}
		},
	}
	e := newTestEngine(t, mock, memfs.New())

	_, err := e.ListUploadedParts(context.Background(), "U1", "bucket", "key")
	assert.ErrorIs(t, err, errors.ErrUploadNotFound)
}

func TestUploadPart(t *testing.T) {
	fs := memfs.New()
	require.NoError(t, util.WriteFile(fs, "/data/file.bin", []byte("0123456789"), 0o644))

	var bodies []string
	mock := &testutil.MockS3Client{
		UploadPartFunc: func(
			_ context.Context,
			in *s3.UploadPartInput,
			_ ...func(*s3.Options),
		) (*s3.UploadPartOutput, error) {
			data, err := io.ReadAll(in.Body)
			require.NoError(t, err)
			bodies = append(bodies, string(data))
			assert.Equal(t, "U1", aws.ToString(in.UploadId))
			assert.Equal(t, int64(len(data)), aws.ToInt64(in.ContentLength))
			return &s3.UploadPartOutput{ETag: aws.String("etag-" + string(data))}, nil
		},
	}
	e := newTestEngine(t, mock, fs)

	tests := []struct {
		offset int64
		part   int32
		want   transfertypes.UploadPartResult
	}{
		{0, 1, transfertypes.UploadPartResult{PartNumber: 1, ETag: "etag-0123", PartSize: 4, FileSize: 10}},
		{4, 2, transfertypes.UploadPartResult{PartNumber: 2, ETag: "etag-4567", PartSize: 4, FileSize: 10}},
		{8, 3, transfertypes.UploadPartResult{PartNumber: 3, ETag: "etag-89", PartSize: 2, FileSize: 10, IsLastPart: true}},
	}

	for _, tt := range tests {
		res, err := e.UploadPart(context.Background(), transfertypes.UploadPartRequest{
			RequestID:  "U1",
			Bucket:     "bucket",
			Key:        "key",
			FilePath:   "/data/file.bin",
			PartNumber: tt.part,
			Offset:     tt.offset,
		})
		require.NoError(t, err)
		assert.Equal(t, tt.want, *res)
	}
	assert.Equal(t, []string{"0123", "4567", "89"}, bodies)
}

func TestUploadPart_MissingFile(t *testing.T) {
	mock := &testutil.MockS3Client{}
	e := newTestEngine(t, mock, memfs.New())

	_, err := e.UploadPart(context.Background(), transfertypes.UploadPartRequest{
		RequestID: "U1", Bucket: "bucket", Key: "key", FilePath: "/missing", PartNumber: 1,
	})
	assert.ErrorIs(t, err, errors.ErrFileNotFound)
	assert.Zero(t, mock.CallCount("UploadPart"))
}

func TestCompleteMultipartUpload(t *testing.T) {
	mock := &testutil.MockS3Client{
		CompleteMultipartUploadFunc: func(
			_ context.Context,
			in *s3.CompleteMultipartUploadInput,
			_ ...func(*s3.Options),
		) (*s3.CompleteMultipartUploadOutput, error) {
			require.NotNil(t, in.MultipartUpload)
			var numbers []int32
			for _, p := range in.MultipartUpload.Parts {
				numbers = append(numbers, aws.ToInt32(p.PartNumber))
			}
			assert.Equal(t, []int32{1, 2}, numbers)
			return &s3.CompleteMultipartUploadOutput{ETag: aws.String("final-2")}, nil
		},
	}
	e := newTestEngine(t, mock, memfs.New())

	res, err := e.CompleteMultipartUpload(context.Background(), "U1", "bucket", "key", []transfertypes.UploadPart{
		{PartNumber: 2, Size: 3, ETag: "b"},
		{PartNumber: 1, Size: 4, ETag: "a"},
	})
	require.NoError(t, err)
	assert.Equal(t, &transfertypes.UploadResult{Bucket: "bucket", Key: "key", ETag: "final-2", Size: 7}, res)
}

func TestCancelUpload(t *testing.T) {
	var aborted string
	mock := &testutil.MockS3Client{
		AbortMultipartUploadFunc: func(
			_ context.Context,
			in *s3.AbortMultipartUploadInput,
			_ ...func(*s3.Options),
		) (*s3.AbortMultipartUploadOutput, error) {
			aborted = aws.ToString(in.UploadId)
			return &s3.AbortMultipartUploadOutput{}, nil
		},
	}
	e := newTestEngine(t, mock, memfs.New())

	require.NoError(t, e.CancelUpload(context.Background(), "U1", "bucket", "key"))
	assert.Equal(t, "U1", aborted)
}

// waitResult reads events until the download result for id arrives.
func waitResult(t *testing.T, e *Engine, id string) ([]transfertypes.ProgressEvent, transfertypes.DownloadResultEvent) {
	t.Helper()
	var progress []transfertypes.ProgressEvent
	timeout := time.After(5 * time.Second)
	for {
		select {
		case ev := <-e.Events():
			switch ev := ev.(type) {
			case transfertypes.ProgressEvent:
				progress = append(progress, ev)
			case transfertypes.DownloadResultEvent:
				if ev.RequestID == id {
					return progress, ev
				}
			}
		case <-timeout:
			t.Fatalf("no result for %s", id)
		}
	}
}

func TestDownload(t *testing.T) {
	fs := memfs.New()
	mock := &testutil.MockS3Client{
		GetObjectFunc: func(
			_ context.Context,
			in *s3.GetObjectInput,
			_ ...func(*s3.Options),
		) (*s3.GetObjectOutput, error) {
			assert.Nil(t, in.Range)
			return &s3.GetObjectOutput{
				Body:          io.NopCloser(strings.NewReader("0123456789")),
				ContentLength: aws.Int64(10),
				ETag:          aws.String("obj-etag"),
			}, nil
		},
	}
	e := newTestEngine(t, mock, fs)

	require.NoError(t, e.BeginDownload(context.Background(), "D1", "bucket", "key", "/out/file.bin"))
	progress, result := waitResult(t, e, "D1")

	assert.True(t, result.Success)
	assert.Equal(t, "obj-etag", result.ETag)
	require.NotEmpty(t, progress)
	last := progress[len(progress)-1]
	assert.Equal(t, int64(10), last.ProcessedBytes)
	assert.Equal(t, int64(10), last.TargetBytes)

	data, err := util.ReadFile(fs, "/out/file.bin")
	require.NoError(t, err)
	assert.Equal(t, "0123456789", string(data))
}

func TestOpenObject_RangedRead(t *testing.T) {
	mock := &testutil.MockS3Client{
		GetObjectFunc: func(
			_ context.Context,
			in *s3.GetObjectInput,
			_ ...func(*s3.Options),
		) (*s3.GetObjectOutput, error) {
			assert.Equal(t, "bytes=5-", aws.ToString(in.Range))
			assert.Equal(t, "obj-etag", aws.ToString(in.IfMatch))
			return &s3.GetObjectOutput{
				Body:          io.NopCloser(strings.NewReader("56789")),
				ContentLength: aws.Int64(5),
				ContentRange:  aws.String("bytes 5-9/10"),
				ETag:          aws.String("obj-etag"),
			}, nil
		},
	}
	e := newTestEngine(t, mock, memfs.New())

	obj, err := e.openObject(context.Background(), "bucket", "key", 5, "obj-etag")
	require.NoError(t, err)
	defer obj.Body.Close()
	assert.Equal(t, int64(10), obj.Size)
	assert.Equal(t, "obj-etag", obj.ETag)
}

func TestOpenObject_RangeIgnored(t *testing.T) {
	closed := false
	mock := &testutil.MockS3Client{
		GetObjectFunc: func(
			_ context.Context,
			in *s3.GetObjectInput,
			_ ...func(*s3.Options),
		) (*s3.GetObjectOutput, error) {
			assert.Equal(t, "bytes=5-", aws.ToString(in.Range))
			return &s3.GetObjectOutput{
				Body:          closeRecorder{Reader: strings.NewReader("0123456789"), closed: &closed},
				ContentLength: aws.Int64(10),
			}, nil
		},
	}
	e := newTestEngine(t, mock, memfs.New())

	_, err := e.openObject(context.Background(), "bucket", "key", 5, "")
	assert.ErrorIs(t, err, errors.ErrInvalidResponse)
	assert.True(t, closed)
}

func TestOpenObject_ReplacedObject(t *testing.T) {
	mock := &testutil.MockS3Client{
		GetObjectFunc: func(
			_ context.Context,
			in *s3.GetObjectInput,
			_ ...func(*s3.Options),
		) (*s3.GetObjectOutput, error) {
			assert.Equal(t, "old-etag", aws.ToString(in.IfMatch))
			return nil, &smithy.GenericAPIError{Code: "PreconditionFailed", Message: "At least one of the pre-conditions you specified did not hold"}
		},
	}
	e := newTestEngine(t, mock, memfs.New())

	_, err := e.openObject(context.Background(), "bucket", "key", 5, "old-etag")
	assert.ErrorIs(t, err, errors.ErrObjectChanged)
}

type closeRecorder struct {
	io.Reader
	closed *bool
}

func (c closeRecorder) Close() error {
	*c.closed = true
	return nil
}

func TestDownload_MissingObject(t *testing.T) {
	mock := &testutil.MockS3Client{
		GetObjectFunc: func(context.Context, *s3.GetObjectInput, ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
			return nil, &types.NoSuchKey{}
		},
	}
	e := newTestEngine(t, mock, memfs.New())

	require.NoError(t, e.BeginDownload(context.Background(), "D2", "bucket", "missing", "/out/missing.bin"))
	_, result := waitResult(t, e, "D2")

	assert.False(t, result.Success)
	assert.Contains(t, result.Reason, "object not found")
}

func TestCancelDownload_UnknownIsNoop(t *testing.T) {
	e := newTestEngine(t, &testutil.MockS3Client{}, memfs.New())

	assert.NoError(t, e.PauseDownload(context.Background(), "nope"))
	assert.NoError(t, e.CancelDownload(context.Background(), "nope"))
}

func TestParseContentRange(t *testing.T) {
	tests := []struct {
		header string
		want   int64
		ok     bool
	}{
		{"bytes 100-199/1000", 1000, true},
		{"bytes 0-0/1", 1, true},
		{"bytes 0-99/*", 0, false},
		{"", 0, false},
		{"bytes 0-9/ten", 0, false},
	}

	for _, tt := range tests {
		got, ok := parseContentRange(tt.header)
		assert.Equal(t, tt.ok, ok, tt.header)
		assert.Equal(t, tt.want, got, tt.header)
	}
}

func TestInit_PlainSecretBuildsClient(t *testing.T) {
	e := New(WithFilesystem(memfs.New()))
	defer e.Close()

	cfg := transfertypes.Configuration{
		Region:         "eu-west-1",
		Endpoint:       "http://localhost:4566",
		ForcePathStyle: true,
	}
	require.NoError(t, e.Init(context.Background(), cfg, testSecret))

	client, got, err := e.state()
	require.NoError(t, err)
	assert.IsType(t, &s3.Client{}, client)
	assert.Equal(t, parts.MinPartSize, got.SliceSizeForUpload)
	assert.Equal(t, parts.MinPartSize, got.DivisionForUpload)
}

func TestUploadPart_DefaultConfigMeetsStoreMinimum(t *testing.T) {
	const mib = 1024 * 1024

	tests := []struct {
		name     string
		fileSize int64
		want     []int64
	}{
		{"small file is one part", 3 * mib, []int64{3 * mib}},
		{"large file", 12 * mib, []int64{5 * mib, 5 * mib, 2 * mib}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := memfs.New()
			require.NoError(t, util.WriteFile(fs, "/data/file.bin", make([]byte, tt.fileSize), 0o644))

			var sent []int64
			mock := &testutil.MockS3Client{
				UploadPartFunc: func(
					_ context.Context,
					in *s3.UploadPartInput,
					_ ...func(*s3.Options),
				) (*s3.UploadPartOutput, error) {
					sent = append(sent, aws.ToInt64(in.ContentLength))
					return &s3.UploadPartOutput{ETag: aws.String("etag")}, nil
				},
			}
			e := New(WithClient(mock), WithFilesystem(fs))
			defer e.Close()

			// the service hands engines its 1 MiB defaults
			cfg := transfertypes.Configuration{Region: "us-east-1"}.WithDefaults()
			require.NoError(t, e.Init(context.Background(), cfg, testSecret))

			offset := int64(0)
			for n := int32(1); ; n++ {
				res, err := e.UploadPart(context.Background(), transfertypes.UploadPartRequest{
					RequestID: "U1", Bucket: "bucket", Key: "key",
					FilePath: "/data/file.bin", PartNumber: n, Offset: offset,
				})
				require.NoError(t, err)
				offset += res.PartSize
				if res.IsLastPart {
					break
				}
			}

			assert.Equal(t, tt.want, sent)
			for _, size := range sent[:len(sent)-1] {
				assert.GreaterOrEqual(t, size, parts.MinPartSize)
			}
		})
	}
}

func TestSessionCredentials(t *testing.T) {
	expires := time.Now().Add(time.Hour).Unix()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"credentials":{"tmpSecretId":"TMPID","tmpSecretKey":"TMPKEY","sessionToken":"TOKEN"},`+
			`"expiredTime":`+strconv.FormatInt(expires, 10)+`}`)
	}))
	defer srv.Close()

	provider, err := credentialsProvider(transfertypes.Configuration{SessionCredentialURL: srv.URL}, nil)
	require.NoError(t, err)

	creds, err := provider.Retrieve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "TMPID", creds.AccessKeyID)
	assert.Equal(t, "TMPKEY", creds.SecretAccessKey)
	assert.Equal(t, "TOKEN", creds.SessionToken)
	assert.True(t, creds.CanExpire)
	// the cache reports expiry early by the refresh window
	assert.Equal(t, expires-int64(sessionExpiryWindow/time.Second), creds.Expires.Unix())
}

func TestSessionProvider_ReportsServiceExpiry(t *testing.T) {
	expires := time.Now().Add(time.Hour).Unix()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"tmpSecretId":"TMPID","tmpSecretKey":"TMPKEY","expiredTime":`+
			strconv.FormatInt(expires, 10)+`}`)
	}))
	defer srv.Close()

	fetcher, err := session.NewFetcher(srv.URL)
	require.NoError(t, err)

	creds, err := (&sessionProvider{fetcher: fetcher}).Retrieve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, sessionCredentialSource, creds.Source)
	assert.Equal(t, expires, creds.Expires.Unix())
}

func TestInit_SessionCredentialFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	e := New(WithFilesystem(memfs.New()))
	defer e.Close()

	err := e.Init(context.Background(), transfertypes.Configuration{
		Region:               "eu-west-1",
		SessionCredentialURL: srv.URL,
	}, nil)
	require.Error(t, err)

	_, _, err = e.state()
	assert.ErrorIs(t, err, errors.ErrNotInitialized)
}

func TestStaticCredentials(t *testing.T) {
	provider, err := credentialsProvider(transfertypes.Configuration{}, testSecret)
	require.NoError(t, err)

	creds, err := provider.Retrieve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "AKID", creds.AccessKeyID)
	assert.Equal(t, "SECRET", creds.SecretAccessKey)
	assert.False(t, creds.CanExpire)
}
