//////////////////////////////////////////////////////////////////////////////
//
// Player decodes one media source on a background goroutine
//
// Copyright 2019 Lanikai Labs. All rights reserved.
//
//////////////////////////////////////////////////////////////////////////////

// Package alohaplay decodes a media container into RGBA video frames and
// float32 audio, buffering both and pacing their delivery to a renderer and
// an audio output device.
package alohaplay

import (
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"

	"github.com/lanikai/alohaplay/internal/audio"
	"github.com/lanikai/alohaplay/internal/clock"
	"github.com/lanikai/alohaplay/internal/decode"
	"github.com/lanikai/alohaplay/internal/logging"
	"github.com/lanikai/alohaplay/internal/media"
)

var log = logging.DefaultLogger.WithTag("player")

// Player owns the decode goroutine for one media source and the state it
// shares with the render and audio threads. All methods are safe for
// concurrent use; NextFrame and Pace are meant for a single consumer.
type Player struct {
	uri    string
	config Config

	isPlaying  atomic.Bool
	shouldStop atomic.Bool
	isReady    atomic.Bool

	// Nanoseconds; zero when unknown.
	duration atomic.Int64

	// Seconds, as float64 bits, of the most recently delivered frame.
	position atomic.Uint64

	// Set when there is audio but no video; position then follows the
	// samples played.
	audioClock atomic.Bool

	decodedFrames  atomic.Uint64
	decodedSamples atomic.Uint64

	queue *media.VideoQueue
	pacer *clock.Pacer
	loop  *media.Loop

	releaseOnce sync.Once

	// Populated by the decode goroutine.
	mu      sync.Mutex
	streams []decode.StreamInfo
	format  media.AudioFormat
	ring    *media.SampleRing
	sink    *audio.Sink
	device  audio.Device
	err     error
}

// New creates an idle player for uri. It fails if the configuration is
// invalid or no decode backend can handle the URI.
func New(uri string, config Config) (*Player, error) {
	config = config.withDefaults()
	if err := config.validate(); err != nil {
		return nil, err
	}
	if _, err := decode.Lookup(uri, config.Backend); err != nil {
		return nil, err
	}

	pacer := clock.NewPacer()
	pacer.Default = config.ClockDefault
	pacer.Min = config.ClockMin
	pacer.Max = config.ClockMax

	p := &Player{
		uri:    uri,
		config: config,
		queue:  media.NewVideoQueue(config.VideoQueueCapacity),
		pacer:  pacer,
	}
	p.loop = media.NewLoop(p.decodeLoop)
	return p, nil
}

// Start launches the decode goroutine. Only the first call has any effect,
// and none after Destroy.
func (p *Player) Start() {
	if p.loop.Start() {
		log.Debug("Decode goroutine started for %s", p.uri)
	}
}

// Play lets frames and samples flow to the consumers. Before the player is
// ready it only records the intent.
func (p *Player) Play() {
	if p.shouldStop.Load() {
		return
	}
	p.isPlaying.Store(true)
}

// Pause halts delivery. Buffered frames and samples are kept.
func (p *Player) Pause() {
	p.isPlaying.Store(false)
}

// Destroy stops decoding. It does not wait for the decode goroutine; the
// audio device is closed once that goroutine has exited. Safe to call any
// number of times.
func (p *Player) Destroy() {
	p.shouldStop.Store(true)
	p.isPlaying.Store(false)
	p.loop.Stop()

	p.releaseOnce.Do(func() {
		go p.release()
	})
}

func (p *Player) release() {
	<-p.loop.Done()

	// The closed sink is kept for its counters.
	p.mu.Lock()
	sink, device := p.sink, p.device
	p.device = nil
	p.mu.Unlock()

	if sink != nil {
		sink.Close()
	}
	if device != nil {
		if err := device.Close(); err != nil {
			log.Warn("Closing audio device: %v", err)
		}
	}
	p.queue.Clear()
	log.Debug("Released %s", p.uri)
}

// Done is closed when the decode goroutine has exited, whether at end of
// stream, on error, or after Destroy.
func (p *Player) Done() <-chan struct{} {
	return p.loop.Done()
}

// Finished reports whether the decode goroutine has exited and nothing more
// will be delivered: every frame was popped and every sample played, or the
// player never became ready.
func (p *Player) Finished() bool {
	select {
	case <-p.loop.Done():
	default:
		return false
	}
	if !p.isReady.Load() {
		return true
	}
	if p.queue.Len() > 0 {
		return false
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.sink != nil && !p.shouldStop.Load() && p.ring.Len() >= p.format.Channels {
		return false
	}
	return true
}

// Decoding reports whether the decode goroutine is running.
func (p *Player) Decoding() bool {
	return p.loop.Running()
}

func (p *Player) IsReady() bool {
	return p.isReady.Load()
}

func (p *Player) IsPlaying() bool {
	return p.isPlaying.Load()
}

// Position returns the playback position in seconds, counted from the start
// of the media: the last frame handed to the consumer, or for sources without
// video, the audio played so far.
func (p *Player) Position() float64 {
	if p.audioClock.Load() {
		p.mu.Lock()
		sink := p.sink
		p.mu.Unlock()
		if sink != nil {
			return sink.Played().Seconds()
		}
		return 0
	}
	return math.Float64frombits(p.position.Load())
}

// Duration returns the media duration in seconds, or 0 if unknown.
func (p *Player) Duration() float64 {
	return time.Duration(p.duration.Load()).Seconds()
}

// Progress returns Position/Duration clamped to [0, 1], or 0 when the
// duration is unknown.
func (p *Player) Progress() float64 {
	d := p.Duration()
	if d <= 0 {
		return 0
	}
	return math.Max(0, math.Min(1, p.Position()/d))
}

// PreviousPTS returns the timestamp, in nanoseconds, of the last frame
// passed to Pace.
func (p *Player) PreviousPTS() int64 {
	return p.pacer.PreviousPTS()
}

// NextFrame pops the next decoded frame, or returns nil if none is
// available, the player is not ready, or playback is paused.
func (p *Player) NextFrame() *media.Frame {
	if !p.isReady.Load() || !p.isPlaying.Load() {
		return nil
	}
	f := p.queue.Pop()
	if f != nil {
		p.position.Store(math.Float64bits(f.Position))
	}
	return f
}

// Pace records f as displayed and returns how long to wait before showing
// the next frame.
func (p *Player) Pace(f *media.Frame) time.Duration {
	return p.pacer.Next(f.PTS)
}

// Err returns the error that ended the decode goroutine, if any.
func (p *Player) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

// Streams returns the source's streams once it has been opened.
func (p *Player) Streams() []decode.StreamInfo {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.streams
}

// AudioFormat returns the output audio format once the source is open.
func (p *Player) AudioFormat() media.AudioFormat {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.format
}

type Stats struct {
	QueuedFrames    int    `json:"queuedFrames"`
	BufferedSamples int    `json:"bufferedSamples"`
	DecodedFrames   uint64 `json:"decodedFrames"`
	DecodedSamples  uint64 `json:"decodedSamples"`
	Underruns       uint64 `json:"underruns"`
}

func (p *Player) Stats() Stats {
	s := Stats{
		QueuedFrames:   p.queue.Len(),
		DecodedFrames:  p.decodedFrames.Load(),
		DecodedSamples: p.decodedSamples.Load(),
	}
	p.mu.Lock()
	if p.ring != nil {
		s.BufferedSamples = p.ring.Len()
	}
	if p.sink != nil {
		s.Underruns = p.sink.Underruns()
	}
	p.mu.Unlock()
	return s
}

func (p *Player) markReady(reason string) {
	if p.isReady.CompareAndSwap(false, true) {
		log.Info("Ready (%s): %d frames, %v of audio buffered", reason,
			p.queue.Len(), p.bufferedAudio())
	}
}

func (p *Player) bufferedAudio() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ring == nil {
		return 0
	}
	return p.format.Duration(p.ring.Len())
}

func (p *Player) setErr(err error) {
	p.mu.Lock()
	p.err = err
	p.mu.Unlock()
}

// audioPlaying gates the output callback.
func (p *Player) audioPlaying() bool {
	return p.isReady.Load() && p.isPlaying.Load() && !p.shouldStop.Load()
}

// backpressure is polled by the pipelines while a buffer is full. A full
// buffer cannot grow any further, so it also ends prebuffering.
func (p *Player) backpressure() bool {
	if !p.isReady.Load() {
		p.markReady("buffer full")
	}
	return p.shouldStop.Load()
}

func (p *Player) openAudio(format media.AudioFormat, ring *media.SampleRing) bool {
	dev := p.config.AudioDevice
	if dev == nil {
		dev = audio.NewSpeakerDevice(p.config.AudioDeviceBuffer)
	}

	sink := audio.NewSink(ring, format, p.audioPlaying)
	if err := dev.Open(format, sink); err != nil {
		log.Warn("Playing without audio: %v", errors.Wrap(err, "opening output"))
		return false
	}

	p.mu.Lock()
	p.sink = sink
	p.device = dev
	p.mu.Unlock()
	return true
}
