package web

import (
	"errors"
	"sync"
	"sync/atomic"
)

// ErrAllocation is returned when every request buffer is in use. It aborts
// only the request that hit it.
var ErrAllocation = errors.New("request buffer unavailable")

// BufferPool is a fixed set of preallocated request buffers.
type BufferPool struct {
	free  chan []byte
	size  int
	inUse atomic.Int64
}

// NewBufferPool allocates n buffers of size bytes each.
func NewBufferPool(n, size int) *BufferPool {
	p := &BufferPool{free: make(chan []byte, n), size: size}
	for i := 0; i < n; i++ {
		p.free <- make([]byte, 0, size)
	}
	return p
}

// Get reserves a buffer without blocking.
func (p *BufferPool) Get() (*RequestBuffer, error) {
	select {
	case b := <-p.free:
		p.inUse.Add(1)
		return &RequestBuffer{pool: p, buf: b[:0]}, nil
	default:
		return nil, ErrAllocation
	}
}

// InUse reports how many buffers are currently reserved.
func (p *BufferPool) InUse() int {
	return int(p.inUse.Load())
}

// Cap is the number of buffers in the pool.
func (p *BufferPool) Cap() int {
	return cap(p.free)
}

// RequestBuffer holds one request line. Content beyond the buffer size is
// discarded.
type RequestBuffer struct {
	pool *BufferPool
	buf  []byte
	once sync.Once
}

// WriteString appends s up to the buffer capacity.
func (b *RequestBuffer) WriteString(s string) {
	room := cap(b.buf) - len(b.buf)
	if len(s) > room {
		s = s[:room]
	}
	b.buf = append(b.buf, s...)
}

// String returns a copy of the buffered bytes.
func (b *RequestBuffer) String() string {
	return string(b.buf)
}

// Release returns the buffer to its pool. Later calls are no-ops.
func (b *RequestBuffer) Release() {
	b.once.Do(func() {
		b.pool.inUse.Add(-1)
		b.pool.free <- b.buf[:0]
		b.buf = nil
	})
}
