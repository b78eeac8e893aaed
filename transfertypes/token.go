package transfertypes

import "sync/atomic"

// PauseToken is a flag the caller sets to stop an upload at the next part
// boundary. It is safe to flip from any goroutine. A nil *PauseToken is never
// paused.
type PauseToken struct {
	paused atomic.Bool
}

// NewPauseToken returns a token in the running state.
func NewPauseToken() *PauseToken {
	return &PauseToken{}
}

// Pause requests the upload to stop before its next part.
func (t *PauseToken) Pause() {
	t.paused.Store(true)
}

// Resume clears a pause request.
func (t *PauseToken) Resume() {
	t.paused.Store(false)
}

// Paused reports whether a pause has been requested.
func (t *PauseToken) Paused() bool {
	if t == nil {
		return false
	}
	return t.paused.Load()
}
