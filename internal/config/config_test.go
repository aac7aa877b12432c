package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lanikai/alohaplay/internal/media"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestDefaults(t *testing.T) {
	cfg, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	engine := cfg.Player()
	assert.Equal(t, 100, engine.VideoQueueCapacity)
	assert.Equal(t, 30, engine.PrebufferFrames)
	assert.Equal(t, 500*time.Millisecond, engine.AudioPrebuffer)
	assert.False(t, engine.DisableAudio)
	assert.Equal(t, media.DefaultAudioFormat, engine.FallbackAudioFormat)
}

func TestLoadFile(t *testing.T) {
	path := writeFile(t, "alohaplay.toml", `
[video]
width = 640
height = 360

[audio]
enabled = false
prebuffer = "250ms"

[clock]
max_interval = "200ms"

[log]
level = "debug"
`)
	cfg, err := Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, 640, cfg.Video.Width)
	assert.Equal(t, 360, cfg.Video.Height)
	assert.False(t, cfg.Audio.Enabled)
	assert.Equal(t, 250*time.Millisecond, cfg.Audio.Prebuffer)
	assert.Equal(t, 200*time.Millisecond, cfg.Clock.MaxInterval)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 30, cfg.Video.PrebufferFrames, "untouched keys keep defaults")
	assert.True(t, cfg.Player().DisableAudio)
}

func TestPrecedence(t *testing.T) {
	path := writeFile(t, "alohaplay.yaml", "video:\n  prebuffer_frames: 10\n  queue_capacity: 50\n")
	t.Setenv("ALOHAPLAY_VIDEO_QUEUE_CAPACITY", "60")
	t.Setenv("ALOHAPLAY_SOURCE_BACKEND", "testsrc")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.Int("prebuffer", 30, "")
	flags.String("status", "", "")
	require.NoError(t, flags.Parse([]string{"--prebuffer=20"}))

	cfg, err := Load(path, flags)
	require.NoError(t, err)
	assert.Equal(t, 20, cfg.Video.PrebufferFrames, "flag beats file")
	assert.Equal(t, 60, cfg.Video.QueueCapacity, "environment beats file")
	assert.Equal(t, "testsrc", cfg.Source.Backend)
	assert.Equal(t, "", cfg.Status.Addr, "unset flag keeps default")
}

func TestInvalid(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"), nil)
	assert.Error(t, err)

	cases := map[string]string{
		"level":     "[log]\nlevel = \"loud\"\n",
		"prebuffer": "[video]\nprebuffer_frames = 200\n",
		"size":      "[video]\nwidth = 100\n",
		"backend":   "[source]\nbackend = \"vlc\"\n",
		"clock":     "[clock]\nmin_interval = \"1s\"\n",
		"status":    "[status]\naddr = \":8080\"\ninterval = \"0s\"\n",
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeFile(t, "bad.toml", content), nil)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalid), err.Error())
		})
	}
}
