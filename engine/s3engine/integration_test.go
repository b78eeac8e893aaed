//go:build integration
// +build integration

package s3engine_test

import (
	"bytes"
	"context"
	"crypto/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/input-output-hk/catalyst-forge-libs/transfer"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/engine/s3engine"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/internal/testutil"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/transfertypes"
)

// TestIntegrationUploadDownload runs a paused and resumed multipart upload
// and a download against LocalStack.
func TestIntegrationUploadDownload(t *testing.T) {
	ls := testutil.SetupLocalStack(t)
	ctx := context.Background()

	const bucket = "transfer-integration"
	require.NoError(t, ls.CreateBucket(ctx, bucket))

	svc := transfer.New(s3engine.New())
	defer svc.Close()

	cfg := transfertypes.Configuration{
		Region:         testutil.LocalStackRegion,
		Endpoint:       ls.Endpoint(),
		ForcePathStyle: true,
	}
	require.NoError(t, svc.InitWithPlainSecret(ctx, cfg, transfertypes.PlainSecret{SecretID: "test", SecretKey: "test"}))

	dir := t.TempDir()
	src := filepath.Join(dir, "source.bin")
	data := make([]byte, 12*1024*1024)
	_, err := rand.Read(data)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(src, data, 0o644))

	// pause after the first part, then resume with the returned identifier
	token := transfertypes.NewPauseToken()
	rec := testutil.NewListenerRecorder()
	l := rec.Listeners()
	l.Progress = func(int64, int64) { token.Pause() }

	req := transfertypes.UploadRequest{Bucket: bucket, Key: "blobs/source.bin", FilePath: src}
	outcome, err := svc.Upload(ctx, req, l, token)
	require.NoError(t, err)
	require.True(t, outcome.Paused)
	require.Len(t, outcome.Parts, 1)

	token.Resume()
	req.RequestID = outcome.RequestID
	outcome, err = svc.Upload(ctx, req, rec.Listeners(), token)
	require.NoError(t, err)
	assert.False(t, outcome.Paused)
	assert.Len(t, outcome.Parts, 3)
	assert.Equal(t, int64(len(data)), outcome.Result.Size)

	dst := filepath.Join(dir, "downloaded.bin")
	done := testutil.NewListenerRecorder()
	_, err = svc.Download(ctx, transfertypes.DownloadRequest{
		Bucket: bucket, Key: "blobs/source.bin", FilePath: dst,
	}, done.Listeners())
	require.NoError(t, err)

	<-done.ResultNotify()
	require.Equal(t, []error{nil}, done.Results())

	got, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.True(t, bytes.Equal(data, got))
}
