package audio

import (
	"sync"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/speaker"
	"github.com/pkg/errors"

	"github.com/lanikai/alohaplay/internal/media"
)

// A Device pulls samples from a streamer on its own real-time schedule.
type Device interface {
	// Open starts playback of s at the given format.
	Open(format media.AudioFormat, s beep.Streamer) error
	Close() error
}

// SpeakerDevice plays through the system default output using the beep
// speaker package.
type SpeakerDevice struct {
	// Latency of the device buffer. Larger values survive scheduling hiccups
	// at the cost of delay.
	BufferSize time.Duration

	mu     sync.Mutex
	opened bool
}

func NewSpeakerDevice(bufferSize time.Duration) *SpeakerDevice {
	if bufferSize <= 0 {
		bufferSize = 50 * time.Millisecond
	}
	return &SpeakerDevice{BufferSize: bufferSize}
}

func (d *SpeakerDevice) Open(format media.AudioFormat, s beep.Streamer) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	sr := beep.SampleRate(format.SampleRate)
	if err := speaker.Init(sr, sr.N(d.BufferSize)); err != nil {
		return errors.Wrapf(ErrNoDevice, "%v", err)
	}
	speaker.Play(s)
	d.opened = true
	log.Info("Audio output opened at %v, %v buffer", format, d.BufferSize)
	return nil
}

func (d *SpeakerDevice) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.opened {
		return nil
	}
	d.opened = false
	speaker.Clear()
	speaker.Close()
	return nil
}

// TickerDevice consumes samples in real time without any audio hardware.
// It lets headless runs and tests drain the sample buffer at the playback
// rate.
type TickerDevice struct {
	// Interval between pulls.
	Period time.Duration

	mu     sync.Mutex
	quit   chan struct{}
	done   chan struct{}
	pulled uint64
}

func NewTickerDevice(period time.Duration) *TickerDevice {
	if period <= 0 {
		period = 10 * time.Millisecond
	}
	return &TickerDevice{Period: period}
}

func (d *TickerDevice) Open(format media.AudioFormat, s beep.Streamer) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.quit != nil {
		return errors.New("ticker device already open")
	}
	d.quit = make(chan struct{})
	d.done = make(chan struct{})

	n := beep.SampleRate(format.SampleRate).N(d.Period)
	if n < 1 {
		n = 1
	}
	go d.run(s, make([][2]float64, n), d.quit, d.done)
	return nil
}

func (d *TickerDevice) run(s beep.Streamer, buf [][2]float64, quit, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(d.Period)
	defer ticker.Stop()
	for {
		select {
		case <-quit:
			return
		case <-ticker.C:
			n, ok := s.Stream(buf)
			d.mu.Lock()
			d.pulled += uint64(n)
			d.mu.Unlock()
			if !ok {
				return
			}
		}
	}
}

// Pulled returns the number of sample frames consumed so far.
func (d *TickerDevice) Pulled() uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pulled
}

func (d *TickerDevice) Close() error {
	d.mu.Lock()
	quit, done := d.quit, d.done
	d.quit = nil
	d.mu.Unlock()

	if quit == nil {
		return nil
	}
	close(quit)
	<-done
	return nil
}
