// Package clock paces video frame delivery on the consumer side.
package clock

import (
	"sync/atomic"
	"time"
)

const (
	DefaultInterval = 33 * time.Millisecond
	MinInterval     = time.Millisecond
	MaxInterval     = 100 * time.Millisecond
)

// Pacer derives the wait before the next frame from the timestamp gap
// between consecutive frames. It is driven by a single consumer goroutine;
// PreviousPTS may be read from any goroutine.
type Pacer struct {
	Default time.Duration
	Min     time.Duration
	Max     time.Duration

	seeded  bool
	prevPTS int64
}

func NewPacer() *Pacer {
	return &Pacer{
		Default: DefaultInterval,
		Min:     MinInterval,
		Max:     MaxInterval,
	}
}

// Next records pts (nanoseconds) and returns how long to wait before the
// following frame. The first frame gets the default interval; later gaps
// are truncated to whole milliseconds and clamped to [Min, Max].
func (p *Pacer) Next(pts int64) time.Duration {
	prev := atomic.SwapInt64(&p.prevPTS, pts)
	if !p.seeded {
		p.seeded = true
		return p.Default
	}

	dt := time.Duration(pts-prev) / time.Millisecond * time.Millisecond
	if dt < p.Min {
		dt = p.Min
	}
	if dt > p.Max {
		dt = p.Max
	}
	return dt
}

// PreviousPTS returns the timestamp most recently passed to Next.
func (p *Pacer) PreviousPTS() int64 {
	return atomic.LoadInt64(&p.prevPTS)
}
