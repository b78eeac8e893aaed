package transfertypes

// Event is a notification published by a transfer engine on its event stream.
// Engines publish ProgressEvent and DownloadResultEvent values.
type Event interface {
	// EventRequestID returns the identifier of the transfer the event belongs to.
	EventRequestID() string
}

// ProgressEvent reports transfer progress. ProcessedBytes may overshoot
// TargetBytes; consumers clamp it.
type ProgressEvent struct {
	RequestID      string
	ProcessedBytes int64
	TargetBytes    int64
}

// EventRequestID implements Event.
func (e ProgressEvent) EventRequestID() string { return e.RequestID }

// DownloadResultEvent reports the completion of a download.
type DownloadResultEvent struct {
	RequestID string
	Success   bool
	// ETag is the object tag on success, empty on failure
	ETag string
	// Reason is a short engine-side description of a failure
	Reason string
}

// EventRequestID implements Event.
func (e DownloadResultEvent) EventRequestID() string { return e.RequestID }
