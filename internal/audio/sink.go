package audio

import (
	"sync/atomic"
	"time"

	"github.com/lanikai/alohaplay/internal/media"
)

// Per-sample decay applied to the last output value on underrun or pause.
const fadeDecay = 0.995

// Sink feeds the output device from a SampleRing. Stream runs on the audio
// device's real-time thread: it never blocks, sleeps, logs or waits for the
// decoder. It implements beep.Streamer.
type Sink struct {
	ring    *media.SampleRing
	format  media.AudioFormat
	playing func() bool

	scratch []float32
	last    [2]float64

	underruns uint64
	consumed  uint64
	closed    int32
}

// NewSink creates a sink reading interleaved samples in the given format.
// playing is polled once per callback; while it reports false the sink
// fades to silence without consuming buffered samples.
func NewSink(ring *media.SampleRing, format media.AudioFormat, playing func() bool) *Sink {
	return &Sink{
		ring:    ring,
		format:  format,
		playing: playing,
		scratch: make([]float32, 4096*format.Channels),
	}
}

func (s *Sink) Stream(samples [][2]float64) (n int, ok bool) {
	if atomic.LoadInt32(&s.closed) != 0 {
		return 0, false
	}

	filled := 0
	if s.playing() {
		filled = s.read(samples)
		if filled < len(samples) {
			atomic.AddUint64(&s.underruns, 1)
		}
	}

	// Fade the last delivered value toward zero to avoid a pop.
	for i := filled; i < len(samples); i++ {
		s.last[0] *= fadeDecay
		s.last[1] *= fadeDecay
		samples[i] = s.last
	}
	return len(samples), true
}

// read copies whole frames from the ring and returns how many were written.
func (s *Sink) read(samples [][2]float64) int {
	ch := s.format.Channels

	// The producer may have written part of a frame; only take whole ones.
	avail := s.ring.Len() / ch
	want := len(samples)
	if want > avail {
		want = avail
	}
	if need := want * ch; need > len(s.scratch) {
		s.scratch = make([]float32, need)
	}

	got := s.ring.Read(s.scratch[:want*ch]) / ch
	for i := 0; i < got; i++ {
		l := float64(s.scratch[i*ch])
		r := l
		if ch > 1 {
			r = float64(s.scratch[i*ch+1])
		}
		samples[i] = [2]float64{l, r}
	}
	if got > 0 {
		s.last = samples[got-1]
		atomic.AddUint64(&s.consumed, uint64(got*ch))
	}
	return got
}

func (s *Sink) Err() error {
	return nil
}

// Close makes the sink report end of stream, so the device drops it.
func (s *Sink) Close() {
	atomic.StoreInt32(&s.closed, 1)
}

// Underruns counts callbacks that found fewer samples than requested while
// playing.
func (s *Sink) Underruns() uint64 {
	return atomic.LoadUint64(&s.underruns)
}

// Consumed counts interleaved samples handed to the device.
func (s *Sink) Consumed() uint64 {
	return atomic.LoadUint64(&s.consumed)
}

// Played returns the play time of the samples consumed so far.
func (s *Sink) Played() time.Duration {
	return s.format.Duration(int(s.Consumed()))
}

func (s *Sink) Format() media.AudioFormat {
	return s.format
}
