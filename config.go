//////////////////////////////////////////////////////////////////////////////
//
// Config contains configuration data for Player
//
// Copyright 2019 Lanikai Labs. All rights reserved.
//
//////////////////////////////////////////////////////////////////////////////

package alohaplay

import (
	"time"

	"github.com/pkg/errors"

	"github.com/lanikai/alohaplay/internal/audio"
	"github.com/lanikai/alohaplay/internal/clock"
	"github.com/lanikai/alohaplay/internal/media"
)

// Config tunes a Player. The zero value is usable; unset fields take the
// defaults below.
type Config struct {
	// Decode backend to use, e.g. "ffmpeg". Empty picks one by URI.
	Backend string

	// Capacity of the decoded video frame queue (default 100).
	VideoQueueCapacity int

	// Frames buffered before the player reports ready (default 30).
	PrebufferFrames int

	// Output frame size. Zero keeps the decoded size.
	Width  int
	Height int

	// Skip audio decoding and output entirely.
	DisableAudio bool

	// Capacity of the decoded audio buffer (default 3s).
	AudioBuffer time.Duration

	// Audio buffered before the player reports ready (default 500ms).
	AudioPrebuffer time.Duration

	// Output format when the source has no audio stream (default 48 kHz
	// stereo).
	FallbackAudioFormat media.AudioFormat

	// Output device. Nil uses the system default output.
	AudioDevice audio.Device

	// Device buffer latency for the default output (default 50ms).
	AudioDeviceBuffer time.Duration

	// Sleep between attempts to push into a full buffer (default 5ms).
	RetryInterval time.Duration

	// Sleep between checks of the play flag while paused (default 10ms).
	PollInterval time.Duration

	// Frame pacing: interval after the first frame, and the clamp applied to
	// later timestamp gaps (defaults 33ms, 1ms, 100ms).
	ClockDefault time.Duration
	ClockMin     time.Duration
	ClockMax     time.Duration
}

func (c Config) withDefaults() Config {
	if c.VideoQueueCapacity == 0 {
		c.VideoQueueCapacity = 100
	}
	if c.PrebufferFrames == 0 {
		c.PrebufferFrames = 30
	}
	if c.AudioBuffer == 0 {
		c.AudioBuffer = 3 * time.Second
	}
	if c.AudioPrebuffer == 0 {
		c.AudioPrebuffer = 500 * time.Millisecond
	}
	if !c.FallbackAudioFormat.Valid() {
		c.FallbackAudioFormat = media.DefaultAudioFormat
	}
	if c.AudioDeviceBuffer == 0 {
		c.AudioDeviceBuffer = 50 * time.Millisecond
	}
	if c.RetryInterval == 0 {
		c.RetryInterval = 5 * time.Millisecond
	}
	if c.PollInterval == 0 {
		c.PollInterval = 10 * time.Millisecond
	}
	if c.ClockDefault == 0 {
		c.ClockDefault = clock.DefaultInterval
	}
	if c.ClockMin == 0 {
		c.ClockMin = clock.MinInterval
	}
	if c.ClockMax == 0 {
		c.ClockMax = clock.MaxInterval
	}
	return c
}

// Validate reports whether c, with defaults applied, is usable.
func (c Config) Validate() error {
	return c.withDefaults().validate()
}

func (c Config) validate() error {
	switch {
	case c.VideoQueueCapacity < 1:
		return errors.Wrapf(ErrInvalidConfig, "video queue capacity %d", c.VideoQueueCapacity)
	case c.PrebufferFrames < 0 || c.PrebufferFrames > c.VideoQueueCapacity:
		return errors.Wrapf(ErrInvalidConfig, "prebuffer of %d frames with queue capacity %d",
			c.PrebufferFrames, c.VideoQueueCapacity)
	case c.Width < 0 || c.Height < 0 || (c.Width == 0) != (c.Height == 0):
		return errors.Wrapf(ErrInvalidConfig, "output size %dx%d", c.Width, c.Height)
	case c.AudioBuffer < 0 || c.AudioPrebuffer < 0 || c.AudioPrebuffer > c.AudioBuffer:
		return errors.Wrapf(ErrInvalidConfig, "audio prebuffer %v with buffer %v", c.AudioPrebuffer, c.AudioBuffer)
	case c.RetryInterval < 0 || c.PollInterval < 0:
		return errors.Wrap(ErrInvalidConfig, "negative wait interval")
	case c.ClockMin <= 0 || c.ClockMin > c.ClockMax:
		return errors.Wrapf(ErrInvalidConfig, "clock clamp [%v, %v]", c.ClockMin, c.ClockMax)
	}
	return nil
}
