package media

import (
	"sync/atomic"
)

// SampleRing is a bounded circular buffer of interleaved float32 samples. It
// is lock-free for exactly one producer and one consumer, so the real-time
// audio callback can read from it without ever blocking.
//
// Both positions run freely and are only masked when indexing the buffer.
type SampleRing struct {
	buf      []float32
	size     uint64
	mask     uint64
	writePos uint64 // advanced by the producer only
	readPos  uint64 // advanced by the consumer only
}

// NewSampleRing creates a ring holding at least capacity samples. The
// capacity is rounded up to a power of two.
func NewSampleRing(capacity int) *SampleRing {
	if capacity <= 0 {
		panic("media.SampleRing: capacity must be positive")
	}
	size := uint64(1)
	for size < uint64(capacity) {
		size <<= 1
	}
	return &SampleRing{
		buf:  make([]float32, size),
		size: size,
		mask: size - 1,
	}
}

// Write copies as many samples as fit and returns how many were written.
func (r *SampleRing) Write(p []float32) int {
	w := atomic.LoadUint64(&r.writePos)
	rd := atomic.LoadUint64(&r.readPos)

	free := r.size - (w - rd)
	n := uint64(len(p))
	if n > free {
		n = free
	}
	for i := uint64(0); i < n; i++ {
		r.buf[(w+i)&r.mask] = p[i]
	}
	atomic.StoreUint64(&r.writePos, w+n)
	return int(n)
}

// Read copies up to len(p) samples into p and returns how many were read.
func (r *SampleRing) Read(p []float32) int {
	rd := atomic.LoadUint64(&r.readPos)
	w := atomic.LoadUint64(&r.writePos)

	n := w - rd
	if n > uint64(len(p)) {
		n = uint64(len(p))
	}
	for i := uint64(0); i < n; i++ {
		p[i] = r.buf[(rd+i)&r.mask]
	}
	atomic.StoreUint64(&r.readPos, rd+n)
	return int(n)
}

// Len returns the number of buffered samples.
func (r *SampleRing) Len() int {
	w := atomic.LoadUint64(&r.writePos)
	rd := atomic.LoadUint64(&r.readPos)
	return int(w - rd)
}

// Free returns the number of samples that can be written without blocking.
func (r *SampleRing) Free() int {
	return int(r.size) - r.Len()
}

func (r *SampleRing) Cap() int {
	return int(r.size)
}
