package audio

import (
	"math"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lanikai/alohaplay/internal/media"
)

var stereo = media.AudioFormat{SampleRate: 48000, Channels: 2}

func alwaysPlaying() bool { return true }

func TestSinkDeliversBufferedSamples(t *testing.T) {
	ring := media.NewSampleRing(64)
	ring.Write([]float32{0.1, -0.1, 0.2, -0.2})
	s := NewSink(ring, stereo, alwaysPlaying)

	out := make([][2]float64, 2)
	n, ok := s.Stream(out)
	assert.True(t, ok)
	assert.Equal(t, 2, n)
	assert.InDelta(t, 0.1, out[0][0], 1e-6)
	assert.InDelta(t, -0.2, out[1][1], 1e-6)
	assert.Zero(t, s.Underruns())
	assert.EqualValues(t, 4, s.Consumed())
	assert.Equal(t, 2*time.Second/48000, s.Played())

	// Silence padding is not counted as played.
	s.Stream(out)
	assert.EqualValues(t, 4, s.Consumed())
}

// On underrun the remainder of the buffer decays smoothly from the last
// delivered value instead of dropping straight to zero.
func TestSinkFadesOnUnderrun(t *testing.T) {
	ring := media.NewSampleRing(64)
	ring.Write([]float32{0.8, -0.8})
	s := NewSink(ring, stereo, alwaysPlaying)

	out := make([][2]float64, 200)
	n, ok := s.Stream(out)
	assert.True(t, ok)
	assert.Equal(t, 200, n)
	assert.EqualValues(t, 1, s.Underruns())

	assert.InDelta(t, 0.8, out[0][0], 1e-6)
	for i := 1; i < len(out); i++ {
		assert.True(t, math.Abs(out[i][0]) < math.Abs(out[i-1][0]), "not decaying at %d", i)
		assert.True(t, out[i][0] > 0, "fade crossed zero at %d", i)
		assert.True(t, out[i][1] < 0)
	}
	assert.InDelta(t, 0.8*math.Pow(fadeDecay, 199), out[199][0], 1e-6)
}

func TestSinkPausedDoesNotConsume(t *testing.T) {
	ring := media.NewSampleRing(64)
	ring.Write([]float32{0.5, 0.5, 0.5, 0.5})

	var playing int32
	s := NewSink(ring, stereo, func() bool { return atomic.LoadInt32(&playing) != 0 })

	out := make([][2]float64, 2)
	s.Stream(out)
	assert.Equal(t, 4, ring.Len())
	assert.Equal(t, [2]float64{0, 0}, out[0])
	assert.Zero(t, s.Underruns())

	atomic.StoreInt32(&playing, 1)
	s.Stream(out)
	assert.Equal(t, 0, ring.Len())
}

func TestSinkSkipsPartialFrames(t *testing.T) {
	ring := media.NewSampleRing(64)
	ring.Write([]float32{0.1, 0.2, 0.3})
	s := NewSink(ring, stereo, alwaysPlaying)

	out := make([][2]float64, 4)
	s.Stream(out)
	// The dangling left sample waits for its right channel.
	assert.Equal(t, 1, ring.Len())
	assert.InDelta(t, 0.2, out[0][1], 1e-6)
}

func TestSinkMono(t *testing.T) {
	ring := media.NewSampleRing(16)
	ring.Write([]float32{0.3})
	s := NewSink(ring, media.AudioFormat{SampleRate: 8000, Channels: 1}, alwaysPlaying)

	out := make([][2]float64, 1)
	s.Stream(out)
	assert.InDelta(t, 0.3, out[0][0], 1e-6)
	assert.InDelta(t, 0.3, out[0][1], 1e-6)
}

func TestSinkClose(t *testing.T) {
	s := NewSink(media.NewSampleRing(16), stereo, alwaysPlaying)
	s.Close()
	n, ok := s.Stream(make([][2]float64, 8))
	assert.Equal(t, 0, n)
	assert.False(t, ok)
	assert.NoError(t, s.Err())
}

func TestTickerDevicePullsInRealTime(t *testing.T) {
	ring := media.NewSampleRing(48000 * 2)
	ring.Write(make([]float32, 48000*2))
	s := NewSink(ring, stereo, alwaysPlaying)

	d := NewTickerDevice(5 * time.Millisecond)
	require.NoError(t, d.Open(stereo, s))
	assert.Error(t, d.Open(stereo, s), "second open")

	time.Sleep(100 * time.Millisecond)
	require.NoError(t, d.Close())
	require.NoError(t, d.Close())

	pulled := d.Pulled()
	assert.True(t, pulled > 0)
	assert.True(t, pulled < 48000, "pulled %d frames in 100ms", pulled)
	assert.Equal(t, 48000*2-int(pulled)*2, ring.Len())
}
