package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/input-output-hk/catalyst-forge-libs/transfer/errors"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/transfertypes"
)

func TestValidateBucketName(t *testing.T) {
	tests := []struct {
		name      string
		bucket    string
		wantError bool
		errMsg    string
	}{
		{"valid_simple", "my-bucket", false, ""},
		{"valid_appid_suffix", "examplebucket-1250000000", false, ""},
		{"valid_with_dots", "my.bucket", false, ""},
		{"valid_min_length", "abc", false, ""},
		{"valid_max_length", strings.Repeat("a", 63), false, ""},
		{"valid_leading_digit", "1bucket", false, ""},

		{"empty", "", true, "bucket name cannot be empty"},
		{"too_short", "ab", true, "bucket name must be between 3 and 63 characters long"},
		{"too_long", strings.Repeat("a", 64), true, "bucket name must be between 3 and 63 characters long"},
		{"starts_with_hyphen", "-bucket", true, "bucket name cannot start or end with a hyphen or dot"},
		{"ends_with_dot", "bucket.", true, "bucket name cannot start or end with a hyphen or dot"},
		{"contains_uppercase", "MyBucket", true, "bucket name can only contain lowercase letters, numbers, dots, and hyphens"},
		{"contains_underscore", "my_bucket", true, "bucket name can only contain lowercase letters, numbers, dots, and hyphens"},
		{"double_dots", "my..bucket", true, "bucket name cannot contain two adjacent periods"},
		{"ip_address", "192.168.1.1", true, "bucket name cannot be formatted as an IP address"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateBucketName(tt.bucket)
			if !tt.wantError {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, errors.ErrInvalidBucketName)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestValidateObjectKey(t *testing.T) {
	tests := []struct {
		name      string
		key       string
		wantError bool
		errMsg    string
	}{
		{"simple", "file.txt", false, ""},
		{"nested", "photos/2026/a.jpg", false, ""},
		{"dots_inside_name", "archive..tar", false, ""},
		{"unicode", "文档/报告.pdf", false, ""},
		{"max_length", strings.Repeat("k", MaxObjectKeyLength), false, ""},

		{"empty", "", true, "object key cannot be empty"},
		{"parent_segment", "../etc/passwd", true, "path traversal"},
		{"inner_parent_segment", "a/../../b", true, "path traversal"},
		{"absolute", "/etc/passwd", true, "path traversal"},
		{"windows_absolute", "C:/Windows/win.ini", true, "path traversal"},
		{"too_long", strings.Repeat("k", MaxObjectKeyLength+1), true, "cannot exceed 1024"},
		{"control_char", "bad\x00key", true, "control characters"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateObjectKey(tt.key)
			if !tt.wantError {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, errors.ErrInvalidObjectKey)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestValidateConfiguration(t *testing.T) {
	valid := transfertypes.Configuration{Region: "ap-guangzhou"}.WithDefaults()

	tests := []struct {
		name      string
		mutate    func(*transfertypes.Configuration)
		wantError bool
	}{
		{"defaults", func(*transfertypes.Configuration) {}, false},
		{"endpoint", func(c *transfertypes.Configuration) { c.Endpoint = "http://localhost:9000" }, false},
		{"session_url", func(c *transfertypes.Configuration) { c.SessionCredentialURL = "https://sts.example.com/cred" }, false},
		{"missing_region", func(c *transfertypes.Configuration) { c.Region = " " }, true},
		{"zero_slice", func(c *transfertypes.Configuration) { c.SliceSizeForUpload = 0 }, true},
		{"huge_slice", func(c *transfertypes.Configuration) { c.SliceSizeForUpload = MaxPartSize + 1 }, true},
		{"zero_division", func(c *transfertypes.Configuration) { c.DivisionForUpload = 0 }, true},
		{"relative_endpoint", func(c *transfertypes.Configuration) { c.Endpoint = "localhost:9000" }, true},
		{"ftp_session_url", func(c *transfertypes.Configuration) { c.SessionCredentialURL = "ftp://x/y" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			err := ValidateConfiguration(cfg)
			if tt.wantError {
				assert.ErrorIs(t, err, errors.ErrInvalidConfig)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateRequests(t *testing.T) {
	up := transfertypes.UploadRequest{Bucket: "bucket-1", Key: "a.bin", FilePath: "/tmp/a.bin"}
	assert.NoError(t, ValidateUploadRequest(up))

	up.FilePath = ""
	assert.ErrorIs(t, ValidateUploadRequest(up), errors.ErrInvalidInput)

	down := transfertypes.DownloadRequest{Bucket: "bucket-1", Key: "", FilePath: "/tmp/a.bin"}
	assert.ErrorIs(t, ValidateDownloadRequest(down), errors.ErrInvalidObjectKey)

	down.Key = "a.bin"
	down.Bucket = "B"
	assert.ErrorIs(t, ValidateDownloadRequest(down), errors.ErrInvalidBucketName)
}
