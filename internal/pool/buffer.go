// Package pool provides reusable byte buffers for part uploads and download
// copies, reducing allocations when many parts of the same size are sent.
package pool

import (
	"sync"
)

// CopyBufferSize is the size of buffers used to stream download bodies (64KB).
const CopyBufferSize = 64 * 1024

// BufferPool manages reusable buffers of one fixed size.
type BufferPool struct {
	size int
	pool *sync.Pool
}

// NewBufferPool creates a pool of buffers of the given size.
func NewBufferPool(size int) *BufferPool {
	return &BufferPool{
		size: size,
		pool: &sync.Pool{
			New: func() interface{} {
				buf := make([]byte, size)
				return &buf
			},
		},
	}
}

// Size returns the buffer size served by the pool.
func (bp *BufferPool) Size() int {
	return bp.size
}

// Get returns a buffer of exactly Size bytes.
// The caller is responsible for calling Put to return the buffer to the pool.
func (bp *BufferPool) Get() []byte {
	bufPtr := bp.pool.Get().(*[]byte)
	return (*bufPtr)[:bp.size]
}

// Put returns a buffer to the pool. Buffers whose capacity does not match the
// pool size are dropped.
func (bp *BufferPool) Put(buf []byte) {
	if cap(buf) != bp.size {
		return
	}
	buf = buf[:bp.size]
	bp.pool.Put(&buf)
}

// Sized keeps one BufferPool per buffer size.
type Sized struct {
	mu    sync.Mutex
	pools map[int]*BufferPool
}

// For returns the pool serving buffers of the given size, creating it on first use.
func (s *Sized) For(size int) *BufferPool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pools == nil {
		s.pools = make(map[int]*BufferPool)
	}
	bp, ok := s.pools[size]
	if !ok {
		bp = NewBufferPool(size)
		s.pools[size] = bp
	}
	return bp
}

var copyBuffers = NewBufferPool(CopyBufferSize)

// GetCopyBuffer returns a CopyBufferSize buffer from the global pool.
func GetCopyBuffer() []byte {
	return copyBuffers.Get()
}

// PutCopyBuffer returns a copy buffer to the global pool.
func PutCopyBuffer(buf []byte) {
	copyBuffers.Put(buf)
}
