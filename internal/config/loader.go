package config

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides, e.g. ALOHAPLAY_VIDEO_WIDTH.
const EnvPrefix = "ALOHAPLAY"

// FlagKeys maps command line flag names to configuration keys. Flags not
// present in the flag set are ignored.
var FlagKeys = map[string]string{
	"backend":   "source.backend",
	"width":     "video.width",
	"height":    "video.height",
	"prebuffer": "video.prebuffer_frames",
	"audio":     "audio.enabled",
	"status":    "status.addr",
	"log-level": "log.level",
}

// Load reads the configuration. Values come, in increasing precedence, from
// Default, the file at path (if non-empty), ALOHAPLAY_* environment
// variables and flags that were explicitly set.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v, Default())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "reading %s", path)
		}
	}

	if flags != nil {
		for name, key := range FlagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, errors.Wrapf(err, "binding flag --%s", name)
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "decoding configuration")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// setDefaults registers every key so that environment variables are seen by
// Unmarshal even when no file mentions them.
func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("source.backend", d.Source.Backend)
	v.SetDefault("video.queue_capacity", d.Video.QueueCapacity)
	v.SetDefault("video.prebuffer_frames", d.Video.PrebufferFrames)
	v.SetDefault("video.width", d.Video.Width)
	v.SetDefault("video.height", d.Video.Height)
	v.SetDefault("audio.enabled", d.Audio.Enabled)
	v.SetDefault("audio.buffer", d.Audio.Buffer)
	v.SetDefault("audio.prebuffer", d.Audio.Prebuffer)
	v.SetDefault("audio.device_buffer", d.Audio.DeviceBuffer)
	v.SetDefault("audio.fallback_rate", d.Audio.FallbackRate)
	v.SetDefault("audio.fallback_channels", d.Audio.FallbackChannels)
	v.SetDefault("engine.retry_interval", d.Engine.RetryInterval)
	v.SetDefault("engine.poll_interval", d.Engine.PollInterval)
	v.SetDefault("clock.default_interval", d.Clock.DefaultInterval)
	v.SetDefault("clock.min_interval", d.Clock.MinInterval)
	v.SetDefault("clock.max_interval", d.Clock.MaxInterval)
	v.SetDefault("status.addr", d.Status.Addr)
	v.SetDefault("status.interval", d.Status.Interval)
	v.SetDefault("log.level", d.Log.Level)
}
