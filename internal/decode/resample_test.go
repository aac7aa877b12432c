package decode

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lanikai/alohaplay/internal/media"
)

func ramp(n, channels int) []float32 {
	s := make([]float32, n*channels)
	for i := 0; i < n; i++ {
		for c := 0; c < channels; c++ {
			s[i*channels+c] = float32(i) / float32(n)
		}
	}
	return s
}

func TestPCMResamplerSameRate(t *testing.T) {
	src := NewS16Frame([]int16{0, 16384, -16384, 8192}, 2, 48000, 0)
	r, err := NewPCMResampler(src, media.AudioFormat{SampleRate: 48000, Channels: 2})
	require.NoError(t, err)

	out, err := r.Resample(src)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{0, 0.5, -0.5, 0.25}, toFloat64(out), 1e-6)

	tail, err := r.Flush()
	require.NoError(t, err)
	assert.Empty(t, tail)
}

func TestPCMResamplerChannelMapping(t *testing.T) {
	mono := NewFloat32Frame([]float32{0.1, 0.2}, 1, 8000, 0)
	r, err := NewPCMResampler(mono, media.AudioFormat{SampleRate: 8000, Channels: 2})
	require.NoError(t, err)
	out, err := r.Resample(mono)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{0.1, 0.1, 0.2, 0.2}, toFloat64(out), 1e-6)

	stereo := NewFloat32Frame([]float32{0.2, 0.4}, 2, 8000, 0)
	r, err = NewPCMResampler(stereo, media.AudioFormat{SampleRate: 8000, Channels: 1})
	require.NoError(t, err)
	out, err = r.Resample(stereo)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{0.3}, toFloat64(out), 1e-6)
}

// Upsampling 44.1 kHz to 48 kHz over several frames yields the expected
// number of samples and a continuous ramp.
func TestPCMResamplerUpsample(t *testing.T) {
	const (
		srcRate = 44100
		dstRate = 48000
		chunk   = 441
		chunks  = 100
	)
	all := ramp(chunk*chunks, 2)

	first := NewFloat32Frame(all[:chunk*2], 2, srcRate, 0)
	r, err := NewPCMResampler(first, media.AudioFormat{SampleRate: dstRate, Channels: 2})
	require.NoError(t, err)

	var out []float32
	for i := 0; i < chunks; i++ {
		f := NewFloat32Frame(all[i*chunk*2:(i+1)*chunk*2], 2, srcRate, int64(i*chunk))
		s, err := r.Resample(f)
		require.NoError(t, err)
		out = append(out, s...)
	}
	tail, err := r.Flush()
	require.NoError(t, err)
	out = append(out, tail...)

	want := chunk * chunks * dstRate / srcRate
	assert.InDelta(t, want, len(out)/2, 2)

	for i := 2; i < len(out); i += 2 {
		if out[i] < out[i-2]-1e-6 {
			t.Fatalf("ramp not monotonic at output sample %d: %v < %v", i/2, out[i], out[i-2])
		}
	}
}

func TestPCMResamplerRejectsFormatChange(t *testing.T) {
	a := NewFloat32Frame([]float32{0, 0}, 2, 44100, 0)
	r, err := NewPCMResampler(a, media.AudioFormat{SampleRate: 48000, Channels: 2})
	require.NoError(t, err)

	_, err = r.Resample(NewFloat32Frame([]float32{0}, 1, 44100, 0))
	assert.True(t, isFormatChanged(err))
}

func TestNewPCMResamplerInvalid(t *testing.T) {
	a := NewFloat32Frame([]float32{0, 0}, 2, 44100, 0)
	_, err := NewPCMResampler(a, media.AudioFormat{})
	assert.Error(t, err)
}

func toFloat64(s []float32) []float64 {
	out := make([]float64, len(s))
	for i, v := range s {
		out[i] = float64(v)
	}
	return out
}
