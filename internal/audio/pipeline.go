// Package audio decodes audio packets into the output format, buffers them
// in a lock-free ring and plays them through a real-time device callback.
package audio

import (
	"io"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"

	"github.com/lanikai/alohaplay/internal/decode"
	"github.com/lanikai/alohaplay/internal/logging"
	"github.com/lanikai/alohaplay/internal/media"
)

var log = logging.DefaultLogger.WithTag("audio")

// MaxChannels is the widest output layout; the device is stereo.
const MaxChannels = 2

// DetectFormat returns the output format for a source: the rate and channel
// count of its first audio stream, or fallback if it has none.
func DetectFormat(streams []decode.StreamInfo, fallback media.AudioFormat) media.AudioFormat {
	s, ok := decode.FirstStream(streams, decode.Audio)
	if !ok || s.SampleRate <= 0 {
		return fallback
	}
	f := media.AudioFormat{SampleRate: s.SampleRate, Channels: s.Channels}
	if f.Channels <= 0 {
		f.Channels = fallback.Channels
	}
	if f.Channels > MaxChannels {
		f.Channels = MaxChannels
	}
	return f
}

// Pipeline turns compressed packets of one audio stream into interleaved
// float32 samples on a SampleRing. It is driven by the decode goroutine.
type Pipeline struct {
	dec     decode.AudioDecoder
	target  media.AudioFormat
	ring    *media.SampleRing
	stopped func() bool
	retry   time.Duration

	resampler decode.Resampler

	samples uint64
}

// NewPipeline creates a pipeline. stopped is polled while waiting for ring
// space; once it reports true, pushes fail with media.ErrStopped.
func NewPipeline(dec decode.AudioDecoder, target media.AudioFormat, ring *media.SampleRing, stopped func() bool, retry time.Duration) *Pipeline {
	if retry <= 0 {
		retry = 5 * time.Millisecond
	}
	return &Pipeline{
		dec:     dec,
		target:  target,
		ring:    ring,
		stopped: stopped,
		retry:   retry,
	}
}

// Process decodes one packet and pushes every resulting sample.
func (p *Pipeline) Process(pkt decode.Packet) error {
	err := p.dec.SendPacket(pkt)
	if errors.Is(err, decode.ErrAgain) {
		if err := p.receiveAll(); err != nil {
			return err
		}
		err = p.dec.SendPacket(pkt)
	}
	if err != nil {
		return errors.Wrap(err, "audio decode")
	}
	return p.receiveAll()
}

// Drain flushes the decoder and then the resampler's delay line, pushing
// everything before returning.
func (p *Pipeline) Drain() error {
	if err := p.dec.SendPacket(nil); err != nil && !errors.Is(err, decode.ErrAgain) {
		return errors.Wrap(err, "audio drain")
	}
	if err := p.receiveAll(); err != nil {
		return err
	}
	return p.flushResampler()
}

// Samples returns the number of interleaved samples pushed so far.
func (p *Pipeline) Samples() uint64 {
	return atomic.LoadUint64(&p.samples)
}

func (p *Pipeline) Close() error {
	if p.resampler != nil {
		p.resampler.Close()
		p.resampler = nil
	}
	return p.dec.Close()
}

func (p *Pipeline) receiveAll() error {
	for {
		f, err := p.dec.ReceiveFrame()
		if errors.Is(err, decode.ErrAgain) || err == io.EOF {
			return nil
		} else if err != nil {
			return errors.Wrap(err, "audio decode")
		}

		samples, err := p.resample(f)
		if err != nil {
			return err
		}
		if err := p.push(samples); err != nil {
			return err
		}
	}
}

func (p *Pipeline) resample(f decode.AudioFrame) ([]float32, error) {
	if p.resampler == nil {
		if err := p.buildResampler(f); err != nil {
			return nil, err
		}
	}

	out, err := p.resampler.Resample(f)
	if errors.Is(err, decode.ErrFormatChanged) {
		log.Warn("Audio format changed to %d Hz/%d ch", f.SampleRate(), f.Channels())
		if err := p.flushResampler(); err != nil {
			return nil, err
		}
		p.resampler.Close()
		p.resampler = nil
		if err := p.buildResampler(f); err != nil {
			return nil, err
		}
		out, err = p.resampler.Resample(f)
	}
	if err != nil {
		return nil, errors.Wrap(err, "audio resample")
	}
	return out, nil
}

func (p *Pipeline) buildResampler(f decode.AudioFrame) error {
	r, err := p.dec.NewResampler(f, p.target)
	if err != nil {
		return errors.Wrapf(err, "creating resampler for %d Hz/%d ch", f.SampleRate(), f.Channels())
	}
	log.Info("Resampling %d Hz/%d ch to %v", f.SampleRate(), f.Channels(), p.target)
	p.resampler = r
	return nil
}

func (p *Pipeline) flushResampler() error {
	if p.resampler == nil {
		return nil
	}
	tail, err := p.resampler.Flush()
	if err != nil {
		return errors.Wrap(err, "audio resampler flush")
	}
	return p.push(tail)
}

// push writes all samples, sleeping while the ring is full and checking the
// stop flag between attempts.
func (p *Pipeline) push(samples []float32) error {
	for len(samples) > 0 {
		n := p.ring.Write(samples)
		atomic.AddUint64(&p.samples, uint64(n))
		samples = samples[n:]
		if len(samples) == 0 {
			break
		}
		if p.stopped() {
			return media.ErrStopped
		}
		time.Sleep(p.retry)
	}
	return nil
}
