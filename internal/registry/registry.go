// Package registry correlates engine events with the listeners of the request
// that produced them.
//
// The registry keeps at most one progress listener and one result listener
// per request identifier. Events are dispatched while the registry lock is
// held, so once Remove returns no further callback for that identifier can
// run. Callbacks therefore must not call back into the registry.
package registry

import (
	"context"
	"log/slog"
	"sync"

	"github.com/input-output-hk/catalyst-forge-libs/transfer/errors"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/transfertypes"
)

// Registry is a listener table keyed by request identifier.
type Registry struct {
	mu      sync.Mutex
	entries map[string]entry
	logger  *slog.Logger
}

type entry struct {
	progress transfertypes.ProgressFunc
	result   transfertypes.ResultFunc
}

// New creates an empty registry. A nil logger disables logging.
func New(logger *slog.Logger) *Registry {
	return &Registry{
		entries: make(map[string]entry),
		logger:  logger,
	}
}

// Register sets both listener slots for id, replacing any previous entry.
// The entry is removed when its first completion event is dispatched, before
// result runs, so later events for id are dropped. A nil result still creates
// the entry so the progress listener is released on completion.
func (r *Registry) Register(id string, progress transfertypes.ProgressFunc, result transfertypes.ResultFunc) {
	if result == nil {
		result = func(error) {}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries[id] = entry{progress: progress, result: result}
}

// Remove deletes both listener slots for id. An empty id is ignored.
func (r *Registry) Remove(id string) {
	if id == "" {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.entries, id)
}

// Len returns the number of registered request identifiers.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// lookup returns the entry for id. r.mu must be held.
func (r *Registry) lookup(ctx context.Context, id, kind string) (entry, bool) {
	e, ok := r.entries[id]
	if !ok && r.logger != nil {
		r.logger.DebugContext(ctx, "dropping event for unregistered request",
			"request_id", id,
			"kind", kind)
	}
	return e, ok
}

// Dispatch delivers ev to the matching listener. It reports whether a
// listener was found. Events for unknown identifiers are dropped.
func (r *Registry) Dispatch(ctx context.Context, ev transfertypes.Event) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch e := ev.(type) {
	case transfertypes.ProgressEvent:
		ent, ok := r.lookup(ctx, e.RequestID, "progress")
		if !ok {
			return false
		}
		if ent.progress != nil {
			ent.progress(min(e.ProcessedBytes, e.TargetBytes), e.TargetBytes)
		}
		return true

	case transfertypes.DownloadResultEvent:
		ent, ok := r.lookup(ctx, e.RequestID, "result")
		if !ok {
			return false
		}
		delete(r.entries, e.RequestID)
		ent.result(resultError(e))
		return true

	default:
		if r.logger != nil {
			r.logger.WarnContext(ctx, "unsupported engine event",
				"request_id", ev.EventRequestID())
		}
		return false
	}
}

// Run dispatches events until events is closed or ctx is done.
func (r *Registry) Run(ctx context.Context, events <-chan transfertypes.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			r.Dispatch(ctx, ev)
		}
	}
}

func resultError(e transfertypes.DownloadResultEvent) error {
	if e.Success {
		return nil
	}
	err := errors.NewError("download", errors.ErrDownloadFailed).WithRequestID(e.RequestID)
	if e.Reason != "" {
		err = err.WithMessage(e.Reason)
	}
	return err
}
