// Package downloads runs engine-side download tasks.
//
// Each task streams one object into a local file and publishes progress and
// completion events on the engine event stream. Tasks are keyed by request
// identifier: pausing cancels the transfer but keeps the task and the bytes
// already written, so beginning the same identifier again resumes with a
// ranged read pinned to the object tag seen when the download started, so a
// replaced object fails the download instead of mixing old and new bytes.
// Cancelling removes the task and its partial file. Paused and cancelled
// tasks publish no completion event.
package downloads

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/go-git/go-billy/v5"

	"github.com/input-output-hk/catalyst-forge-libs/transfer/engine"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/errors"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/internal/pool"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/transfertypes"
)

// DefaultProgressInterval is the number of bytes between progress events.
const DefaultProgressInterval = 256 * 1024

// Object is an open object body.
type Object struct {
	// Body yields the object bytes starting at the requested offset.
	Body io.ReadCloser
	// Size is the size of the whole object, not of Body.
	Size int64
	// ETag is the object tag.
	ETag string
}

// OpenFunc opens bucket/key for reading from offset. A non-empty etag makes
// the read conditional on the object still carrying that tag; a store that
// rejects the condition returns an error wrapping errors.ErrObjectChanged.
type OpenFunc func(ctx context.Context, bucket, key string, offset int64, etag string) (*Object, error)

type state int

const (
	running state = iota
	paused
	cancelled
)

type task struct {
	id     string
	bucket string
	key    string
	path   string

	state   state
	written int64
	size    int64
	etag    string
	cancel  context.CancelFunc
	done    chan struct{}
}

// Manager owns the download tasks of one engine.
type Manager struct {
	fs       billy.Filesystem
	open     OpenFunc
	events   *engine.EventStream
	logger   *slog.Logger
	interval int64

	ctx    context.Context
	stop   context.CancelFunc
	wg     sync.WaitGroup
	mu     sync.Mutex
	tasks  map[string]*task
	closed bool
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger. A nil logger disables logging.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithProgressInterval sets the number of bytes between progress events.
func WithProgressInterval(n int64) Option {
	return func(m *Manager) {
		if n > 0 {
			m.interval = n
		}
	}
}

// NewManager creates a Manager writing into fs and publishing on events.
func NewManager(fs billy.Filesystem, open OpenFunc, events *engine.EventStream, opts ...Option) *Manager {
	ctx, stop := context.WithCancel(context.Background())
	m := &Manager{
		fs:       fs,
		open:     open,
		events:   events,
		interval: DefaultProgressInterval,
		ctx:      ctx,
		stop:     stop,
		tasks:    make(map[string]*task),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.logger == nil {
		m.logger = slog.New(slog.DiscardHandler)
	}
	return m
}

// Begin starts the download identified by id, or resumes it if it is paused.
// Beginning a download that is already running is a no-op.
func (m *Manager) Begin(id, bucket, key, path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return errors.NewObjectError("beginDownload", bucket, key, errors.ErrClosed).WithRequestID(id)
	}

	t, ok := m.tasks[id]
	switch {
	case !ok:
		t = &task{id: id, bucket: bucket, key: key, path: path}
		m.tasks[id] = t
	case t.bucket != bucket || t.key != key || t.path != path:
		return errors.NewObjectError("beginDownload", bucket, key, errors.ErrInvalidInput).
			WithRequestID(id).
			WithMessage("request identifier belongs to a different download")
	case t.state == running:
		return nil
	default:
		m.logger.Info("resuming download", "request_id", id, "offset", t.written)
	}

	ctx, cancel := context.WithCancel(m.ctx)
	t.state = running
	t.cancel = cancel
	t.done = make(chan struct{})

	m.wg.Add(1)
	go m.run(ctx, cancel, t, t.written)
	return nil
}

// Pause stops the download identified by id and keeps its partial file.
// It returns once the transfer goroutine has stopped. Unknown identifiers
// are ignored.
func (m *Manager) Pause(id string) {
	m.mu.Lock()
	t, ok := m.tasks[id]
	if !ok || t.state != running {
		m.mu.Unlock()
		return
	}
	t.state = paused
	t.cancel()
	done := t.done
	m.mu.Unlock()

	<-done
	m.logger.Info("download paused", "request_id", id)
}

// Cancel stops the download identified by id and deletes its partial file.
// Unknown identifiers are ignored.
func (m *Manager) Cancel(id string) error {
	m.mu.Lock()
	t, ok := m.tasks[id]
	if !ok {
		m.mu.Unlock()
		return nil
	}
	delete(m.tasks, id)
	wasRunning := t.state == running
	t.state = cancelled
	done := t.done
	if wasRunning {
		t.cancel()
	}
	m.mu.Unlock()

	if wasRunning {
		<-done
	}

	if err := m.fs.Remove(t.path); err != nil && !os.IsNotExist(err) {
		return errors.NewObjectError("cancelDownload", t.bucket, t.key, err).WithRequestID(id)
	}
	m.logger.Info("download cancelled", "request_id", id)
	return nil
}

// Active returns the number of tasks the manager knows about, running or paused.
func (m *Manager) Active() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.tasks)
}

// Close stops all downloads and waits for them to exit. Partial files are kept.
func (m *Manager) Close() {
	m.mu.Lock()
	m.closed = true
	for _, t := range m.tasks {
		if t.state == running {
			t.state = paused
		}
	}
	m.mu.Unlock()

	m.stop()
	m.wg.Wait()
}

func (m *Manager) run(ctx context.Context, cancel context.CancelFunc, t *task, offset int64) {
	defer m.wg.Done()
	defer close(t.done)
	defer cancel()

	etag, err := m.transfer(ctx, t, offset)

	m.mu.Lock()
	st := t.state
	if st == running && m.tasks[t.id] == t {
		delete(m.tasks, t.id)
	}
	m.mu.Unlock()

	if st != running {
		// paused, cancelled or closed: no completion event
		return
	}

	if err != nil {
		m.logger.Error("download failed",
			"request_id", t.id,
			"bucket", t.bucket,
			"key", t.key,
			"error", err)
		m.events.Publish(m.ctx, transfertypes.DownloadResultEvent{
			RequestID: t.id,
			Reason:    err.Error(),
		})
		return
	}

	m.logger.Info("download completed",
		"request_id", t.id,
		"bucket", t.bucket,
		"key", t.key,
		"size", t.written)
	m.events.Publish(m.ctx, transfertypes.DownloadResultEvent{
		RequestID: t.id,
		Success:   true,
		ETag:      etag,
	})
}

func (m *Manager) transfer(ctx context.Context, t *task, offset int64) (string, error) {
	m.mu.Lock()
	size, match := t.size, t.etag
	m.mu.Unlock()

	if offset == 0 {
		match = ""
	} else if offset == size {
		return match, nil
	}

	obj, err := m.open(ctx, t.bucket, t.key, offset, match)
	if err != nil {
		return "", err
	}
	defer obj.Body.Close()

	if match != "" && obj.ETag != "" && obj.ETag != match {
		return "", errors.NewObjectError("download", t.bucket, t.key, errors.ErrObjectChanged).
			WithRequestID(t.id).
			WithMessage("object was replaced after the download started")
	}

	m.mu.Lock()
	t.size = obj.Size
	if offset == 0 {
		t.etag = obj.ETag
	}
	m.mu.Unlock()

	f, err := m.openFile(t.path, offset)
	if err != nil {
		return "", errors.NewObjectError("download", t.bucket, t.key, err).WithRequestID(t.id)
	}
	defer f.Close()

	buf := pool.GetCopyBuffer()
	defer pool.PutCopyBuffer(buf)

	written := offset
	reported := offset
	for {
		n, rerr := obj.Body.Read(buf)
		if n > 0 {
			if _, werr := f.Write(buf[:n]); werr != nil {
				return "", errors.NewObjectError("download", t.bucket, t.key, werr).WithRequestID(t.id)
			}
			written += int64(n)

			m.mu.Lock()
			t.written = written
			m.mu.Unlock()

			if written-reported >= m.interval {
				reported = written
				m.progress(ctx, t.id, written, obj.Size)
			}
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			return "", errors.NewObjectError("download", t.bucket, t.key, rerr).WithRequestID(t.id)
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
	}

	if reported != written || written == 0 {
		m.progress(ctx, t.id, written, obj.Size)
	}
	return obj.ETag, nil
}

func (m *Manager) progress(ctx context.Context, id string, processed, total int64) {
	m.events.Publish(ctx, transfertypes.ProgressEvent{
		RequestID:      id,
		ProcessedBytes: processed,
		TargetBytes:    total,
	})
}

func (m *Manager) openFile(path string, offset int64) (billy.File, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "/" {
		if err := m.fs.MkdirAll(dir, 0o755); err != nil {
			return nil, err //nolint:wrapcheck // wrapped by the caller
		}
	}

	flags := os.O_CREATE | os.O_WRONLY | os.O_TRUNC
	if offset > 0 {
		flags = os.O_CREATE | os.O_WRONLY | os.O_APPEND
	}
	return m.fs.OpenFile(path, flags, 0o644) //nolint:wrapcheck // wrapped by the caller
}
