package testutil

import (
	"context"
	"sync"

	"github.com/input-output-hk/catalyst-forge-libs/transfer/engine"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/transfertypes"
)

// MockEngine is a mock implementation of engine.Engine for testing.
// Each operation can be customized through its function field; unset fields
// return empty successful results. Every call is recorded by name.
type MockEngine struct {
	InitFunc                    func(context.Context, transfertypes.Configuration, *transfertypes.PlainSecret) error
	InitiateMultipartUploadFunc func(context.Context, string, string) (*transfertypes.MultipartUpload, error)
	ListUploadedPartsFunc       func(context.Context, string, string, string) ([]transfertypes.UploadPart, error)
	UploadPartFunc              func(context.Context, transfertypes.UploadPartRequest) (*transfertypes.UploadPartResult, error)
	CompleteMultipartUploadFunc func(context.Context, string, string, string, []transfertypes.UploadPart) (*transfertypes.UploadResult, error)
	CancelUploadFunc            func(context.Context, string, string, string) error
	BeginDownloadFunc           func(context.Context, string, string, string, string) error
	PauseDownloadFunc           func(context.Context, string) error
	CancelDownloadFunc          func(context.Context, string) error

	// Stream is the event stream returned by Events.
	Stream *engine.EventStream

	mu    sync.Mutex
	calls []string
}

var _ engine.Engine = (*MockEngine)(nil)

// NewMockEngine creates a MockEngine with an event stream of the default size.
func NewMockEngine() *MockEngine {
	return &MockEngine{Stream: engine.NewEventStream(0)}
}

func (m *MockEngine) record(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, name)
}

// Calls returns the names of the operations invoked so far, in order.
func (m *MockEngine) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

// CallCount returns how many times the named operation was invoked.
func (m *MockEngine) CallCount(name string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.calls {
		if c == name {
			n++
		}
	}
	return n
}

// Emit publishes ev on the mock's event stream.
func (m *MockEngine) Emit(ev transfertypes.Event) {
	m.Stream.Publish(context.Background(), ev)
}

// Init mocks engine initialization.
func (m *MockEngine) Init(
	ctx context.Context,
	cfg transfertypes.Configuration,
	secret *transfertypes.PlainSecret,
) error {
	m.record("Init")
	if m.InitFunc != nil {
		return m.InitFunc(ctx, cfg, secret)
	}
	return nil
}

// InitiateMultipartUpload mocks upload creation.
func (m *MockEngine) InitiateMultipartUpload(
	ctx context.Context,
	bucket, key string,
) (*transfertypes.MultipartUpload, error) {
	m.record("InitiateMultipartUpload")
	if m.InitiateMultipartUploadFunc != nil {
		return m.InitiateMultipartUploadFunc(ctx, bucket, key)
	}
	return &transfertypes.MultipartUpload{RequestID: "upload-1", Bucket: bucket, Key: key}, nil
}

// ListUploadedParts mocks part listing.
func (m *MockEngine) ListUploadedParts(
	ctx context.Context,
	requestID, bucket, key string,
) ([]transfertypes.UploadPart, error) {
	m.record("ListUploadedParts")
	if m.ListUploadedPartsFunc != nil {
		return m.ListUploadedPartsFunc(ctx, requestID, bucket, key)
	}
	return nil, nil
}

// UploadPart mocks a part upload.
func (m *MockEngine) UploadPart(
	ctx context.Context,
	req transfertypes.UploadPartRequest,
) (*transfertypes.UploadPartResult, error) {
	m.record("UploadPart")
	if m.UploadPartFunc != nil {
		return m.UploadPartFunc(ctx, req)
	}
	return &transfertypes.UploadPartResult{PartNumber: req.PartNumber, IsLastPart: true}, nil
}

// CompleteMultipartUpload mocks upload completion.
func (m *MockEngine) CompleteMultipartUpload(
	ctx context.Context,
	requestID, bucket, key string,
	parts []transfertypes.UploadPart,
) (*transfertypes.UploadResult, error) {
	m.record("CompleteMultipartUpload")
	if m.CompleteMultipartUploadFunc != nil {
		return m.CompleteMultipartUploadFunc(ctx, requestID, bucket, key, parts)
	}
	return &transfertypes.UploadResult{Bucket: bucket, Key: key, Size: transfertypes.TotalSize(parts)}, nil
}

// CancelUpload mocks upload cancellation.
func (m *MockEngine) CancelUpload(ctx context.Context, requestID, bucket, key string) error {
	m.record("CancelUpload")
	if m.CancelUploadFunc != nil {
		return m.CancelUploadFunc(ctx, requestID, bucket, key)
	}
	return nil
}

// BeginDownload mocks download start.
func (m *MockEngine) BeginDownload(ctx context.Context, requestID, bucket, key, destinationPath string) error {
	m.record("BeginDownload")
	if m.BeginDownloadFunc != nil {
		return m.BeginDownloadFunc(ctx, requestID, bucket, key, destinationPath)
	}
	return nil
}

// PauseDownload mocks download pause.
func (m *MockEngine) PauseDownload(ctx context.Context, requestID string) error {
	m.record("PauseDownload")
	if m.PauseDownloadFunc != nil {
		return m.PauseDownloadFunc(ctx, requestID)
	}
	return nil
}

// CancelDownload mocks download cancellation.
func (m *MockEngine) CancelDownload(ctx context.Context, requestID string) error {
	m.record("CancelDownload")
	if m.CancelDownloadFunc != nil {
		return m.CancelDownloadFunc(ctx, requestID)
	}
	return nil
}

// Events returns the mock's event stream.
func (m *MockEngine) Events() <-chan transfertypes.Event {
	return m.Stream.C()
}

// Close closes the event stream.
func (m *MockEngine) Close() error {
	m.record("Close")
	m.Stream.Close()
	return nil
}
