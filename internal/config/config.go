// Package config loads alohaplay settings from a config file, the
// environment and command line flags.
package config

import (
	"time"

	"github.com/pkg/errors"

	"github.com/lanikai/alohaplay"
	"github.com/lanikai/alohaplay/internal/decode"
	"github.com/lanikai/alohaplay/internal/logging"
	"github.com/lanikai/alohaplay/internal/media"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = alohaplay.ErrInvalidConfig

// Config is the complete application configuration.
type Config struct {
	Source SourceConfig `mapstructure:"source"`
	Video  VideoConfig  `mapstructure:"video"`
	Audio  AudioConfig  `mapstructure:"audio"`
	Engine EngineConfig `mapstructure:"engine"`
	Clock  ClockConfig  `mapstructure:"clock"`
	Status StatusConfig `mapstructure:"status"`
	Log    LogConfig    `mapstructure:"log"`
}

type SourceConfig struct {
	// Force a decode backend ("ffmpeg", "mpeg", "beep", "testsrc").
	Backend string `mapstructure:"backend"`
}

type VideoConfig struct {
	QueueCapacity   int `mapstructure:"queue_capacity"`
	PrebufferFrames int `mapstructure:"prebuffer_frames"`
	Width           int `mapstructure:"width"`
	Height          int `mapstructure:"height"`
}

type AudioConfig struct {
	Enabled          bool          `mapstructure:"enabled"`
	Buffer           time.Duration `mapstructure:"buffer"`
	Prebuffer        time.Duration `mapstructure:"prebuffer"`
	DeviceBuffer     time.Duration `mapstructure:"device_buffer"`
	FallbackRate     int           `mapstructure:"fallback_rate"`
	FallbackChannels int           `mapstructure:"fallback_channels"`
}

type EngineConfig struct {
	RetryInterval time.Duration `mapstructure:"retry_interval"`
	PollInterval  time.Duration `mapstructure:"poll_interval"`
}

type ClockConfig struct {
	DefaultInterval time.Duration `mapstructure:"default_interval"`
	MinInterval     time.Duration `mapstructure:"min_interval"`
	MaxInterval     time.Duration `mapstructure:"max_interval"`
}

// StatusConfig controls the status websocket server. An empty Addr disables
// it.
type StatusConfig struct {
	Addr     string        `mapstructure:"addr"`
	Interval time.Duration `mapstructure:"interval"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

// Default returns a Config with the engine defaults.
func Default() *Config {
	return &Config{
		Video: VideoConfig{
			QueueCapacity:   100,
			PrebufferFrames: 30,
		},
		Audio: AudioConfig{
			Enabled:          true,
			Buffer:           3 * time.Second,
			Prebuffer:        500 * time.Millisecond,
			DeviceBuffer:     50 * time.Millisecond,
			FallbackRate:     media.DefaultAudioFormat.SampleRate,
			FallbackChannels: media.DefaultAudioFormat.Channels,
		},
		Engine: EngineConfig{
			RetryInterval: 5 * time.Millisecond,
			PollInterval:  10 * time.Millisecond,
		},
		Clock: ClockConfig{
			DefaultInterval: 33 * time.Millisecond,
			MinInterval:     time.Millisecond,
			MaxInterval:     100 * time.Millisecond,
		},
		Status: StatusConfig{
			Interval: 250 * time.Millisecond,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Validate checks values the engine would otherwise silently replace with
// defaults.
func (c *Config) Validate() error {
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return errors.Wrapf(ErrInvalid, "log.level: %v", err)
	}
	if c.Video.QueueCapacity < 1 {
		return errors.Wrapf(ErrInvalid, "video.queue_capacity = %d", c.Video.QueueCapacity)
	}
	if c.Video.PrebufferFrames < 1 {
		return errors.Wrapf(ErrInvalid, "video.prebuffer_frames = %d", c.Video.PrebufferFrames)
	}
	if c.Audio.FallbackRate < 1 || c.Audio.FallbackChannels < 1 {
		return errors.Wrapf(ErrInvalid, "audio fallback format %d Hz, %d channels",
			c.Audio.FallbackRate, c.Audio.FallbackChannels)
	}
	if c.Status.Addr != "" && c.Status.Interval <= 0 {
		return errors.Wrapf(ErrInvalid, "status.interval = %v", c.Status.Interval)
	}
	if b := c.Source.Backend; b != "" && !knownBackend(b) {
		return errors.Wrapf(ErrInvalid, "source.backend %q not one of %v", b, decode.Backends())
	}
	return c.Player().Validate()
}

func knownBackend(name string) bool {
	for _, b := range decode.Backends() {
		if b == name {
			return true
		}
	}
	return false
}

// Player converts c to the engine configuration.
func (c *Config) Player() alohaplay.Config {
	return alohaplay.Config{
		Backend:            c.Source.Backend,
		VideoQueueCapacity: c.Video.QueueCapacity,
		PrebufferFrames:    c.Video.PrebufferFrames,
		Width:              c.Video.Width,
		Height:             c.Video.Height,
		DisableAudio:       !c.Audio.Enabled,
		AudioBuffer:        c.Audio.Buffer,
		AudioPrebuffer:     c.Audio.Prebuffer,
		FallbackAudioFormat: media.AudioFormat{
			SampleRate: c.Audio.FallbackRate,
			Channels:   c.Audio.FallbackChannels,
		},
		AudioDeviceBuffer: c.Audio.DeviceBuffer,
		RetryInterval:     c.Engine.RetryInterval,
		PollInterval:      c.Engine.PollInterval,
		ClockDefault:      c.Clock.DefaultInterval,
		ClockMin:          c.Clock.MinInterval,
		ClockMax:          c.Clock.MaxInterval,
	}
}
