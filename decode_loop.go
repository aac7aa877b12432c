package alohaplay

import (
	"io"
	"time"

	"github.com/pkg/errors"

	"github.com/lanikai/alohaplay/internal/audio"
	"github.com/lanikai/alohaplay/internal/decode"
	"github.com/lanikai/alohaplay/internal/media"
	"github.com/lanikai/alohaplay/internal/video"
)

// decodeLoop is the body of the decode goroutine. Failures end the goroutine
// and are logged; already buffered media keeps playing.
func (p *Player) decodeLoop(quit <-chan struct{}) {
	err := p.decode(quit)
	switch {
	case err == nil:
		log.Info("End of stream: %s", p.uri)
	case errors.Is(err, media.ErrStopped):
		log.Debug("Decoding stopped: %s", p.uri)
	default:
		log.Error("Decoding %s: %v", p.uri, err)
		p.setErr(err)
	}
}

func (p *Player) decode(quit <-chan struct{}) error {
	src, err := decode.Open(p.uri, p.config.Backend)
	if err != nil {
		return err
	}
	defer src.Close()

	streams := src.Streams()
	for _, s := range streams {
		log.Info("Stream %v", s)
	}
	p.duration.Store(int64(src.Duration()))

	format := audio.DetectFormat(streams, p.config.FallbackAudioFormat)
	ring := media.NewSampleRing(format.Samples(p.config.AudioBuffer) + format.Channels)

	p.mu.Lock()
	p.streams = streams
	p.format = format
	p.ring = ring
	p.mu.Unlock()

	vs, hasVideo := decode.FirstStream(streams, decode.Video)
	as, hasAudio := decode.FirstStream(streams, decode.Audio)

	var vp *video.Pipeline
	if hasVideo {
		dec, err := src.NewVideoDecoder(vs.Index)
		if err != nil {
			return errors.Wrapf(err, "opening video decoder for stream %d", vs.Index)
		}
		vp = video.NewPipeline(dec, vs, p.queue, p.backpressure, video.Config{
			Width:         p.config.Width,
			Height:        p.config.Height,
			RetryInterval: p.config.RetryInterval,
		})
		defer vp.Close()
	}

	var ap *audio.Pipeline
	if hasAudio && !p.config.DisableAudio && p.openAudio(format, ring) {
		dec, err := src.NewAudioDecoder(as.Index)
		if err != nil {
			return errors.Wrapf(err, "opening audio decoder for stream %d", as.Index)
		}
		ap = audio.NewPipeline(dec, format, ring, p.backpressure, p.config.RetryInterval)
		defer ap.Close()
	}

	if vp == nil && ap == nil {
		return errors.Wrap(errNoStreams, p.uri)
	}
	p.audioClock.Store(vp == nil)

	gate := prebufferGate{
		frames:  p.config.PrebufferFrames,
		samples: format.Samples(p.config.AudioPrebuffer),
		video:   vp != nil,
		audio:   ap != nil,
	}

	for {
		if p.shouldStop.Load() {
			return media.ErrStopped
		}
		select {
		case <-quit:
			return media.ErrStopped
		default:
		}

		// Prebuffering ignores the play flag; afterwards a pause halts
		// reading without dropping anything already buffered.
		if p.isReady.Load() && !p.isPlaying.Load() {
			time.Sleep(p.config.PollInterval)
			continue
		}

		pkt, err := src.ReadPacket()
		if err == io.EOF {
			return p.finish(vp, ap)
		} else if err != nil {
			return errors.Wrap(err, "reading packet")
		}

		idx := pkt.StreamIndex()
		switch {
		case vp != nil && idx == vs.Index:
			err = vp.Process(pkt)
		case ap != nil && idx == as.Index:
			err = ap.Process(pkt)
		}
		pkt.Release()
		p.updateCounters(vp, ap)
		if err != nil {
			return err
		}

		if !p.isReady.Load() && gate.satisfied(p.queue.Len(), ring.Len()) {
			p.markReady("prebuffered")
		}
	}
}

// finish drains both pipelines at end of stream. Media too short to reach
// the prebuffer thresholds becomes ready here.
func (p *Player) finish(vp *video.Pipeline, ap *audio.Pipeline) error {
	if vp != nil {
		if err := vp.Drain(); err != nil {
			return err
		}
	}
	if ap != nil {
		if err := ap.Drain(); err != nil {
			return err
		}
	}
	p.updateCounters(vp, ap)
	p.markReady("end of stream")
	return nil
}

func (p *Player) updateCounters(vp *video.Pipeline, ap *audio.Pipeline) {
	if vp != nil {
		p.decodedFrames.Store(vp.Frames())
	}
	if ap != nil {
		p.decodedSamples.Store(ap.Samples())
	}
}
