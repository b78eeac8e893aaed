package engine

import (
	"context"
	"sync"

	"github.com/input-output-hk/catalyst-forge-libs/transfer/transfertypes"
)

// DefaultEventBuffer is the event stream buffer used by NewEventStream when
// size is not positive.
const DefaultEventBuffer = 64

// EventStream is the publishing side of an engine event stream. Publish
// blocks while the buffer is full; after Close it drops events.
type EventStream struct {
	mu     sync.RWMutex
	ch     chan transfertypes.Event
	closed bool
}

// NewEventStream creates an event stream with the given buffer size.
func NewEventStream(size int) *EventStream {
	if size <= 0 {
		size = DefaultEventBuffer
	}
	return &EventStream{ch: make(chan transfertypes.Event, size)}
}

// C returns the receiving side of the stream.
func (s *EventStream) C() <-chan transfertypes.Event {
	return s.ch
}

// Publish sends ev on the stream. It returns false if the stream is closed or
// ctx ends first.
func (s *EventStream) Publish(ctx context.Context, ev transfertypes.Event) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return false
	}

	select {
	case s.ch <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}

// Close closes the stream. It is safe to call more than once.
func (s *EventStream) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.closed {
		s.closed = true
		close(s.ch)
	}
}
