package decode

import (
	"encoding/binary"
	"math"

	"github.com/nareix/joy4/av"
)

// PCMFrame is an AudioFrame of raw PCM in any joy4 sample format. Pure-Go
// backends produce it and PCMResampler consumes it.
type PCMFrame struct {
	Audio av.AudioFrame
	Pts   int64
}

// NewFloat32Frame wraps interleaved float32 samples.
func NewFloat32Frame(samples []float32, channels, rate int, pts int64) *PCMFrame {
	b := make([]byte, len(samples)*4)
	for i, s := range samples {
		binary.LittleEndian.PutUint32(b[i*4:], math.Float32bits(s))
	}
	return &PCMFrame{
		Audio: av.AudioFrame{
			SampleFormat:  av.FLT,
			ChannelLayout: ChannelLayout(channels),
			SampleCount:   len(samples) / channels,
			SampleRate:    rate,
			Data:          [][]byte{b},
		},
		Pts: pts,
	}
}

// NewS16Frame wraps interleaved signed 16-bit samples.
func NewS16Frame(samples []int16, channels, rate int, pts int64) *PCMFrame {
	b := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(b[i*2:], uint16(s))
	}
	return &PCMFrame{
		Audio: av.AudioFrame{
			SampleFormat:  av.S16,
			ChannelLayout: ChannelLayout(channels),
			SampleCount:   len(samples) / channels,
			SampleRate:    rate,
			Data:          [][]byte{b},
		},
		Pts: pts,
	}
}

// ChannelLayout returns a joy4 layout with the given number of channels.
func ChannelLayout(channels int) av.ChannelLayout {
	switch channels {
	case 1:
		return av.CH_MONO
	case 2:
		return av.CH_STEREO
	default:
		return av.ChannelLayout(1<<uint(channels) - 1)
	}
}

func (f *PCMFrame) SampleRate() int { return f.Audio.SampleRate }
func (f *PCMFrame) Channels() int   { return f.Audio.ChannelLayout.Count() }
func (f *PCMFrame) NbSamples() int  { return f.Audio.SampleCount }
func (f *PCMFrame) PTS() int64      { return f.Pts }

// Sample returns sample i of channel ch, scaled to [-1, 1].
func (f *PCMFrame) Sample(ch, i int) float32 {
	a := &f.Audio
	bps := a.SampleFormat.BytesPerSample()

	var b []byte
	if a.SampleFormat.IsPlanar() {
		b = a.Data[ch][i*bps:]
	} else {
		b = a.Data[0][(i*a.ChannelLayout.Count()+ch)*bps:]
	}

	switch a.SampleFormat {
	case av.U8, av.U8P:
		return (float32(b[0]) - 128) / 128
	case av.S16, av.S16P:
		return float32(int16(binary.LittleEndian.Uint16(b))) / 32768
	case av.S32, av.S32P:
		return float32(float64(int32(binary.LittleEndian.Uint32(b))) / 2147483648)
	case av.FLT, av.FLTP:
		return math.Float32frombits(binary.LittleEndian.Uint32(b))
	case av.DBL, av.DBLP:
		return float32(math.Float64frombits(binary.LittleEndian.Uint64(b)))
	default:
		return 0
	}
}
