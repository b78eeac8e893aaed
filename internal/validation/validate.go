// Package validation provides input validation for transfer requests and
// engine configuration. Inputs are checked before any engine call is made.
package validation

import (
	"net/url"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/input-output-hk/catalyst-forge-libs/transfer/errors"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/transfertypes"
)

const (
	// MaxObjectKeyLength is the longest object key accepted, in bytes.
	MaxObjectKeyLength = 1024

	// MaxPartSize is the largest part a multipart upload may use.
	MaxPartSize int64 = 5 * 1024 * 1024 * 1024
)

// ValidateBucketName validates that a bucket name is DNS-compliant.
// Returns ErrInvalidBucketName if the bucket name is invalid.
func ValidateBucketName(bucket string) error {
	if bucket == "" {
		return bucketError(bucket, "bucket name cannot be empty")
	}

	if len(bucket) < 3 || len(bucket) > 63 {
		return bucketError(bucket, "bucket name must be between 3 and 63 characters long")
	}

	for _, char := range bucket {
		if !isValidBucketChar(char) {
			return bucketError(bucket, "bucket name can only contain lowercase letters, numbers, dots, and hyphens")
		}
	}

	first, last := bucket[0], bucket[len(bucket)-1]
	if first == '-' || first == '.' || last == '-' || last == '.' {
		return bucketError(bucket, "bucket name cannot start or end with a hyphen or dot")
	}

	if strings.Contains(bucket, "..") {
		return bucketError(bucket, "bucket name cannot contain two adjacent periods")
	}

	if isIPAddress(bucket) {
		return bucketError(bucket, "bucket name cannot be formatted as an IP address")
	}

	return nil
}

// ValidateObjectKey validates that an object key can be stored and cannot be
// used to escape a local download directory.
func ValidateObjectKey(key string) error {
	if key == "" {
		return keyError(key, "object key cannot be empty")
	}

	if hasPathTraversal(key) {
		return keyError(key, "object key cannot contain path traversal sequences")
	}

	if len(key) > MaxObjectKeyLength {
		return keyError(key, "object key cannot exceed 1024 characters")
	}

	if hasControlCharacters(key) {
		return keyError(key, "object key cannot contain control characters")
	}

	return nil
}

// ValidateFilePath validates a local file path.
func ValidateFilePath(path string) error {
	if strings.TrimSpace(path) == "" {
		return errors.NewError("validateFilePath", errors.ErrInvalidInput).
			WithMessage("file path cannot be empty")
	}
	if hasControlCharacters(path) {
		return errors.NewError("validateFilePath", errors.ErrInvalidInput).
			WithMessage("file path cannot contain control characters")
	}
	return nil
}

// ValidateConfiguration validates engine configuration after defaults have
// been applied.
func ValidateConfiguration(cfg transfertypes.Configuration) error {
	if strings.TrimSpace(cfg.Region) == "" {
		return configError("region is required")
	}

	if cfg.SliceSizeForUpload <= 0 || cfg.SliceSizeForUpload > MaxPartSize {
		return configError("slice size for upload must be between 1 byte and 5 GiB")
	}

	if cfg.DivisionForUpload <= 0 || cfg.DivisionForUpload > MaxPartSize {
		return configError("division for upload must be between 1 byte and 5 GiB")
	}

	if cfg.Endpoint != "" {
		if err := validateURL(cfg.Endpoint); err != nil {
			return configError("endpoint must be an absolute http(s) URL")
		}
	}

	if cfg.SessionCredentialURL != "" {
		if err := validateURL(cfg.SessionCredentialURL); err != nil {
			return configError("session credential URL must be an absolute http(s) URL")
		}
	}

	return nil
}

// ValidateUploadRequest validates the fields of an upload request.
func ValidateUploadRequest(req transfertypes.UploadRequest) error {
	if err := ValidateBucketName(req.Bucket); err != nil {
		return err
	}
	if err := ValidateObjectKey(req.Key); err != nil {
		return err
	}
	return ValidateFilePath(req.FilePath)
}

// ValidateDownloadRequest validates the fields of a download request.
func ValidateDownloadRequest(req transfertypes.DownloadRequest) error {
	if err := ValidateBucketName(req.Bucket); err != nil {
		return err
	}
	if err := ValidateObjectKey(req.Key); err != nil {
		return err
	}
	return ValidateFilePath(req.FilePath)
}

func bucketError(bucket, msg string) error {
	return errors.NewError("validateBucketName", errors.ErrInvalidBucketName).
		WithBucket(bucket).
		WithMessage(msg)
}

func keyError(key, msg string) error {
	return errors.NewError("validateObjectKey", errors.ErrInvalidObjectKey).
		WithKey(key).
		WithMessage(msg)
}

func configError(msg string) error {
	return errors.NewError("validateConfiguration", errors.ErrInvalidConfig).WithMessage(msg)
}

func validateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err //nolint:wrapcheck // replaced by configError at the call site
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return errors.ErrInvalidInput
	}
	return nil
}

func isValidBucketChar(char rune) bool {
	return (char >= '0' && char <= '9') || (char >= 'a' && char <= 'z') || char == '.' || char == '-'
}

// isIPAddress checks if a string is formatted as a dotted IPv4 address
func isIPAddress(s string) bool {
	parts := strings.Split(s, ".")
	if len(parts) != 4 {
		return false
	}

	for _, part := range parts {
		if part == "" || len(part) > 3 {
			return false
		}
		num := 0
		for _, char := range part {
			if char < '0' || char > '9' {
				return false
			}
			num = num*10 + int(char-'0')
		}
		if num > 255 {
			return false
		}
	}

	return true
}

// hasPathTraversal checks for path traversal attempts in object keys
func hasPathTraversal(key string) bool {
	for _, segment := range strings.FieldsFunc(key, func(r rune) bool { return r == '/' || r == '\\' }) {
		if segment == ".." {
			return true
		}
	}

	cleaned := filepath.ToSlash(filepath.Clean(key))
	if strings.HasPrefix(cleaned, "/") {
		return true
	}

	// Windows-style absolute paths
	if len(cleaned) >= 3 && cleaned[1] == ':' && cleaned[2] == '/' {
		return true
	}

	return false
}

func hasControlCharacters(s string) bool {
	for _, char := range s {
		if unicode.IsControl(char) {
			return true
		}
	}
	return false
}
