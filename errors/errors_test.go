package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestError_Error(t *testing.T) {
	base := errors.New("boom")

	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{
			name: "op only",
			err:  NewError("init", base),
			want: "transfer.init: boom",
		},
		{
			name: "bucket and key",
			err:  NewObjectError("uploadPart", "photos", "a/b.jpg", base),
			want: "transfer.uploadPart photos/a/b.jpg: boom",
		},
		{
			name: "bucket only",
			err:  NewError("list", base).WithBucket("photos"),
			want: "transfer.list bucket photos: boom",
		},
		{
			name: "key only",
			err:  NewError("download", base).WithKey("x.bin"),
			want: "transfer.download object x.bin: boom",
		},
		{
			name: "with request id",
			err:  NewObjectError("upload", "photos", "x.bin", base).WithRequestID("u-1"),
			want: "transfer.upload photos/x.bin [u-1]: boom",
		},
		{
			name: "with message",
			err:  NewError("init", base).WithMessage("loading credentials"),
			want: "transfer.init: loading credentials: boom",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	err := NewObjectError("complete", "b", "k", ErrUploadNotFound).WithMessage("finishing")
	wrapped := fmt.Errorf("outer: %w", err)

	assert.ErrorIs(t, wrapped, ErrUploadNotFound)

	var terr *Error
	require.ErrorAs(t, wrapped, &terr)
	assert.Equal(t, "complete", terr.Op)
	assert.Equal(t, "b", terr.Bucket)
}

func TestHelpers(t *testing.T) {
	assert.True(t, IsNotFound(NewError("download", ErrObjectNotFound)))
	assert.True(t, IsNotFound(ErrUploadNotFound))
	assert.True(t, IsNotFound(ErrFileNotFound))
	assert.False(t, IsNotFound(ErrAccessDenied))

	assert.True(t, IsAccessDenied(NewError("init", ErrAccessDenied)))
	assert.False(t, IsAccessDenied(nil))

	assert.True(t, IsInvalidInput(ErrInvalidBucketName))
	assert.True(t, IsInvalidInput(NewError("init", ErrInvalidConfig)))
	assert.False(t, IsInvalidInput(ErrDownloadFailed))
}
