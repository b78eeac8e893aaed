// Package transfertypes provides shared type definitions for the transfer module.
package transfertypes

import (
	"time"
)

const (
	// DefaultDivisionForUpload is the file size up to which an upload is sent as a single part.
	DefaultDivisionForUpload int64 = 1024 * 1024

	// DefaultSliceSizeForUpload is the size of each part of a multipart upload.
	DefaultSliceSizeForUpload int64 = 1024 * 1024
)

// Configuration holds the engine configuration supplied at initialization.
type Configuration struct {
	// Region is the storage region (required)
	Region string

	// DivisionForUpload is the file size threshold at or below which a file
	// is uploaded as one part. Zero selects DefaultDivisionForUpload.
	DivisionForUpload int64

	// SliceSizeForUpload is the size of every part except the last.
	// Zero selects DefaultSliceSizeForUpload.
	SliceSizeForUpload int64

	// Endpoint overrides the service endpoint (S3-compatible stores)
	Endpoint string

	// ForcePathStyle selects path-style bucket addressing
	ForcePathStyle bool

	// SessionCredentialURL is the address of the temporary credential service
	// used when the engine is initialized with session credentials.
	SessionCredentialURL string
}

// WithDefaults returns a copy of c with the part-size defaults filled in.
func (c Configuration) WithDefaults() Configuration {
	if c.DivisionForUpload <= 0 {
		c.DivisionForUpload = DefaultDivisionForUpload
	}
	if c.SliceSizeForUpload <= 0 {
		c.SliceSizeForUpload = DefaultSliceSizeForUpload
	}
	return c
}

// PlainSecret is a long-lived secret id/key pair.
type PlainSecret struct {
	SecretID  string
	SecretKey string
}

// SessionCredential is a temporary credential issued by a credential service.
type SessionCredential struct {
	TmpSecretID  string
	TmpSecretKey string
	SessionToken string
	ExpiredTime  time.Time
}

// Expired reports whether the credential is past its expiry at now.
// A zero ExpiredTime never expires.
func (c SessionCredential) Expired(now time.Time) bool {
	return !c.ExpiredTime.IsZero() && !now.Before(c.ExpiredTime)
}

// UploadRequest describes a file upload. An empty RequestID starts a new
// multipart upload; a non-empty one resumes an existing upload.
type UploadRequest struct {
	RequestID string
	Bucket    string
	Key       string
	FilePath  string
}

// DownloadRequest describes an object download. An empty RequestID makes the
// service generate one.
type DownloadRequest struct {
	RequestID string
	Bucket    string
	Key       string
	FilePath  string
}

// CancelUploadRequest identifies a multipart upload to abort.
type CancelUploadRequest struct {
	RequestID string
	Bucket    string
	Key       string
}

// UploadPart is a part the service has confirmed as stored.
type UploadPart struct {
	// PartNumber is the 1-based position of the part
	PartNumber int32

	// Size is the number of bytes in the part
	Size int64

	// ETag is the service-issued tag of the part
	ETag string
}

// TotalSize returns the sum of the part sizes.
func TotalSize(parts []UploadPart) int64 {
	var total int64
	for _, p := range parts {
		total += p.Size
	}
	return total
}

// MultipartUpload identifies a multipart upload created by the engine.
type MultipartUpload struct {
	RequestID string
	Bucket    string
	Key       string
}

// UploadPartRequest asks the engine to send the part starting at Offset.
type UploadPartRequest struct {
	RequestID  string
	Bucket     string
	Key        string
	FilePath   string
	PartNumber int32
	Offset     int64
}

// UploadPartResult is the engine's confirmation of a stored part.
type UploadPartResult struct {
	PartNumber int32
	ETag       string
	PartSize   int64
	FileSize   int64
	IsLastPart bool
}

// UploadResult describes a completed upload.
type UploadResult struct {
	Bucket string
	Key    string
	ETag   string
	Size   int64
}

// UploadOutcome is returned by a blocking upload. When Paused is true the
// upload can be resumed by issuing a new UploadRequest with RequestID.
type UploadOutcome struct {
	RequestID     string
	Parts         []UploadPart
	BytesUploaded int64
	FileSize      int64
	Paused        bool
	Result        *UploadResult
}

// FileInfo describes a local file.
type FileInfo struct {
	Exists  bool
	Size    int64
	MIME    string
	ModTime time.Time
}
