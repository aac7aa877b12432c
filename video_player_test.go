package alohaplay

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// run ticks vp in real time until cond holds, collecting delivered frames.
func run(t *testing.T, vp *VideoPlayer, timeout time.Duration, cond func() bool) int {
	t.Helper()
	frames := 0
	last := time.Now()
	deadline := last.Add(timeout)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out in state %v", vp.State)
		}
		time.Sleep(5 * time.Millisecond)
		now := time.Now()
		if f := vp.Update(now.Sub(last)); f != nil {
			frames++
		}
		last = now
	}
	return frames
}

func TestVideoPlayerWaitsForID(t *testing.T) {
	vp := NewVideoPlayer(testURI, testConfig())
	assert.Nil(t, vp.Update(time.Millisecond))
	assert.Equal(t, Init, vp.State)
	assert.Nil(t, vp.Player())
	assert.False(t, vp.IsReady())
	assert.Zero(t, vp.Progress())

	vp.ID = "screen"
	vp.Update(time.Millisecond)
	assert.Equal(t, Ready, vp.State)
	require.NotNil(t, vp.Player())

	vp.State = Stop
	vp.Update(time.Millisecond)
	waitDone(t, vp.Player(), time.Second)
}

func TestVideoPlayerPlayback(t *testing.T) {
	vp := NewVideoPlayer(testURI, testConfig())
	vp.ID = "screen"
	vp.Update(0)
	require.Equal(t, Ready, vp.State)

	vp.State = Start
	vp.Update(0)
	assert.Contains(t, []PlaybackState{Loading, Playing}, vp.State)

	run(t, vp, 5*time.Second, func() bool { return vp.State == Playing })
	assert.True(t, vp.IsReady())
	assert.InDelta(t, 10.0, vp.Duration(), 1e-9)

	// Frames are paced at roughly the source rate and position only grows.
	var prev float64
	start := time.Now()
	frames := run(t, vp, 5*time.Second, func() bool {
		pos := vp.Position()
		assert.GreaterOrEqual(t, pos, prev)
		prev = pos
		return time.Since(start) >= time.Second
	})
	assert.InDelta(t, 30, frames, 10)
	assert.Greater(t, vp.Position(), 0.5)
	assert.InDelta(t, vp.Position()/10, vp.Progress(), 1e-9)

	vp.State = Paused
	vp.Update(10 * time.Millisecond)
	assert.False(t, vp.Player().IsPlaying())
	paused := vp.Position()
	for i := 0; i < 5; i++ {
		assert.Nil(t, vp.Update(50*time.Millisecond))
	}
	assert.Equal(t, paused, vp.Position())

	vp.State = Playing
	run(t, vp, 2*time.Second, func() bool { return vp.Position() > paused })

	vp.State = Stop
	vp.Update(0)
	vp.Update(0)
	waitDone(t, vp.Player(), time.Second)
	assert.False(t, vp.Player().IsPlaying())
}

func TestVideoPlayerUnknownBackend(t *testing.T) {
	config := testConfig()
	config.Backend = "nonexistent"
	vp := NewVideoPlayer(testURI, config)
	vp.State = Start
	vp.Update(0)
	vp.Update(0)
	assert.Equal(t, Start, vp.State)
	assert.Nil(t, vp.Player())
	require.Error(t, vp.Err())

	// A failed player is not recreated on later ticks.
	vp.Config.Backend = ""
	vp.Update(0)
	vp.Update(0)
	assert.Nil(t, vp.Player())
	assert.Error(t, vp.Err())
}

func TestPlaybackStateNames(t *testing.T) {
	for s := Init; s <= Stop; s++ {
		parsed, err := ParsePlaybackState(s.String())
		require.NoError(t, err)
		assert.Equal(t, s, parsed)
	}
	_, err := ParsePlaybackState("rewinding")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"rewinding"`)
	assert.Equal(t, "PlaybackState(42)", PlaybackState(42).String())

	text, err := Paused.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "paused", string(text))

	var s PlaybackState
	require.NoError(t, s.UnmarshalText([]byte("stop")))
	assert.Equal(t, Stop, s)
	assert.Error(t, s.UnmarshalText([]byte("?")))
}
