// Package testutil provides test utilities and mocks for the transfer module.
// This package is internal and should only be used for testing within the module.
package testutil

import (
	"sync"

	"github.com/input-output-hk/catalyst-forge-libs/transfer/transfertypes"
)

// ProgressUpdate represents a single progress notification.
type ProgressUpdate struct {
	Processed int64
	Target    int64
}

// ListenerRecorder records every listener call it receives, in order.
// It is safe for concurrent use.
type ListenerRecorder struct {
	mu       sync.Mutex
	calls    []string
	inits    []string
	progress []ProgressUpdate
	results  []error
	notify   chan struct{}
}

// NewListenerRecorder creates an empty recorder.
func NewListenerRecorder() *ListenerRecorder {
	return &ListenerRecorder{notify: make(chan struct{}, 1)}
}

// Listeners returns a Listeners value whose callbacks record into r.
func (r *ListenerRecorder) Listeners() transfertypes.Listeners {
	return transfertypes.Listeners{
		Init: func(id string) {
			r.mu.Lock()
			r.calls = append(r.calls, "init")
			r.inits = append(r.inits, id)
			r.mu.Unlock()
		},
		Progress: func(processed, target int64) {
			r.mu.Lock()
			r.calls = append(r.calls, "progress")
			r.progress = append(r.progress, ProgressUpdate{Processed: processed, Target: target})
			r.mu.Unlock()
		},
		Result: func(err error) {
			r.mu.Lock()
			r.calls = append(r.calls, "result")
			r.results = append(r.results, err)
			r.mu.Unlock()
			select {
			case r.notify <- struct{}{}:
			default:
			}
		},
	}
}

// Calls returns the callback kinds in the order they were received.
func (r *ListenerRecorder) Calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

// Inits returns the identifiers passed to the init callback.
func (r *ListenerRecorder) Inits() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.inits...)
}

// Progress returns the recorded progress notifications.
func (r *ListenerRecorder) Progress() []ProgressUpdate {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]ProgressUpdate(nil), r.progress...)
}

// Results returns the recorded result errors; nil entries are successes.
func (r *ListenerRecorder) Results() []error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]error(nil), r.results...)
}

// ResultNotify receives a value after each result callback. Notifications
// are coalesced; callers should re-check Results after receiving.
func (r *ListenerRecorder) ResultNotify() <-chan struct{} {
	return r.notify
}
