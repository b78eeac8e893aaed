// Package errors provides error types and handling for transfer operations.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Error represents a transfer operation error with context about the operation that failed.
// It wraps the underlying engine or SDK error so callers can still reach it with errors.Is/As.
type Error struct {
	// Op is the operation that failed (e.g., "upload", "uploadPart", "download")
	Op string

	// Bucket is the bucket name (if applicable)
	Bucket string

	// Key is the object key (if applicable)
	Key string

	// RequestID is the transfer request identifier (if one was assigned)
	RequestID string

	// Err is the underlying error
	Err error
}

// Error implements the error interface by providing a formatted error message.
func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString("transfer.")
	b.WriteString(e.Op)

	switch {
	case e.Bucket != "" && e.Key != "":
		fmt.Fprintf(&b, " %s/%s", e.Bucket, e.Key)
	case e.Bucket != "":
		fmt.Fprintf(&b, " bucket %s", e.Bucket)
	case e.Key != "":
		fmt.Fprintf(&b, " object %s", e.Key)
	}

	if e.RequestID != "" {
		fmt.Fprintf(&b, " [%s]", e.RequestID)
	}

	fmt.Fprintf(&b, ": %v", e.Err)
	return b.String()
}

// Unwrap returns the underlying error for error chaining support.
func (e *Error) Unwrap() error {
	return e.Err
}

// WithBucket adds bucket context to an existing error.
func (e *Error) WithBucket(bucket string) *Error {
	e.Bucket = bucket
	return e
}

// WithKey adds object key context to an existing error.
func (e *Error) WithKey(key string) *Error {
	e.Key = key
	return e
}

// WithRequestID adds the transfer request identifier to an existing error.
func (e *Error) WithRequestID(id string) *Error {
	e.RequestID = id
	return e
}

// WithMessage wraps the underlying error with a custom message.
func (e *Error) WithMessage(message string) *Error {
	e.Err = fmt.Errorf("%s: %w", message, e.Err)
	return e
}

// NewError creates a new Error with the given operation and underlying error.
func NewError(op string, err error) *Error {
	return &Error{
		Op:  op,
		Err: err,
	}
}

// NewObjectError creates a new Error with bucket and key context.
func NewObjectError(op, bucket, key string, err error) *Error {
	return &Error{
		Op:     op,
		Bucket: bucket,
		Key:    key,
		Err:    err,
	}
}

// Sentinel errors for common transfer failures.
// These can be used with errors.Is() for error checking.
var (
	// ErrInvalidInput indicates that the provided input is invalid
	ErrInvalidInput = errors.New("transfer: invalid input")

	// ErrInvalidBucketName indicates that the bucket name is invalid
	ErrInvalidBucketName = errors.New("transfer: invalid bucket name")

	// ErrInvalidObjectKey indicates that the object key is invalid
	ErrInvalidObjectKey = errors.New("transfer: invalid object key")

	// ErrInvalidConfig indicates that the engine configuration is invalid
	ErrInvalidConfig = errors.New("transfer: invalid configuration")

	// ErrInvalidCredentials indicates that credentials are missing or malformed
	ErrInvalidCredentials = errors.New("transfer: invalid credentials")

	// ErrNotInitialized indicates that the engine has not been initialized
	ErrNotInitialized = errors.New("transfer: engine not initialized")

	// ErrUploadNotFound indicates that the multipart upload does not exist
	ErrUploadNotFound = errors.New("transfer: upload not found")

	// ErrObjectNotFound indicates that the requested object does not exist
	ErrObjectNotFound = errors.New("transfer: object not found")

	// ErrBucketNotFound indicates that the requested bucket does not exist
	ErrBucketNotFound = errors.New("transfer: bucket not found")

	// ErrAccessDenied indicates that access to the resource is denied
	ErrAccessDenied = errors.New("transfer: access denied")

	// ErrDownloadFailed is delivered to result listeners when the engine reports
	// an unsuccessful download.
	ErrDownloadFailed = errors.New("transfer: download failed")

	// ErrObjectChanged indicates that an object was replaced while it was
	// being downloaded
	ErrObjectChanged = errors.New("transfer: object changed")

	// ErrInvalidResponse indicates that the storage service answered with a
	// response the engine cannot use
	ErrInvalidResponse = errors.New("transfer: invalid service response")

	// ErrFileNotFound indicates that the local file does not exist
	ErrFileNotFound = errors.New("transfer: file not found")

	// ErrClosed indicates that the service or engine has been closed
	ErrClosed = errors.New("transfer: closed")
)

// IsNotFound reports whether err indicates a missing object, bucket, upload or local file.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrObjectNotFound) ||
		errors.Is(err, ErrBucketNotFound) ||
		errors.Is(err, ErrUploadNotFound) ||
		errors.Is(err, ErrFileNotFound)
}

// IsAccessDenied checks if an error indicates access was denied.
func IsAccessDenied(err error) bool {
	return errors.Is(err, ErrAccessDenied)
}

// IsInvalidInput checks if an error indicates invalid input.
// Bucket, key and configuration validation failures count as invalid input.
func IsInvalidInput(err error) bool {
	return errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrInvalidBucketName) ||
		errors.Is(err, ErrInvalidObjectKey) ||
		errors.Is(err, ErrInvalidConfig)
}
