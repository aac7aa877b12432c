package decode

import (
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRationalNanoseconds(t *testing.T) {
	tb := Rational{1, 90000}
	assert.EqualValues(t, time.Second, tb.Nanoseconds(90000))
	assert.EqualValues(t, 33366666, tb.Nanoseconds(3003))
	assert.InDelta(t, 1.0, tb.Seconds(90000), 1e-9)

	// Ten hours at 90 kHz must not overflow.
	assert.EqualValues(t, 10*time.Hour, tb.Nanoseconds(90000*3600*10))

	assert.EqualValues(t, 0, Rational{}.Nanoseconds(1234))
	assert.EqualValues(t, 0, Rational{}.Seconds(1234))
}

func TestStreamInfoFrameInterval(t *testing.T) {
	s := StreamInfo{FrameRate: Rational{30, 1}}
	assert.Equal(t, 33333333*time.Nanosecond, s.FrameInterval())
	assert.Equal(t, time.Duration(0), StreamInfo{}.FrameInterval())
}

func TestFirstStream(t *testing.T) {
	streams := []StreamInfo{{Index: 0, Type: Other}, {Index: 1, Type: Audio}, {Index: 2, Type: Audio}}
	s, ok := FirstStream(streams, Audio)
	assert.True(t, ok)
	assert.Equal(t, 1, s.Index)
	_, ok = FirstStream(streams, Video)
	assert.False(t, ok)
}

func TestRegistryLookup(t *testing.T) {
	b, err := Lookup("testsrc://?duration=1s", "")
	require.NoError(t, err)
	assert.Equal(t, "testsrc", b.Name)

	b, err = Lookup("/media/clip.MPG", "")
	require.NoError(t, err)
	assert.Equal(t, "mpeg", b.Name)

	b, err = Lookup("http://example.com/song.mp3?token=abc", "")
	require.NoError(t, err)
	assert.Equal(t, "beep", b.Name)

	b, err = Lookup("/media/song.mp3", "testsrc")
	require.NoError(t, err)
	assert.Equal(t, "testsrc", b.Name)

	_, err = Lookup("/media/song.mp3", "nonexistent")
	assert.Error(t, err)

	assert.Contains(t, Backends(), "beep")
	assert.Equal(t, "testsrc", Backends()[0])
}

func TestOpenUnknownSource(t *testing.T) {
	if HasFFmpeg() {
		t.Skip("FFmpeg accepts every URI")
	}
	_, err := Open("/media/unknown.xyz", "")
	assert.Error(t, err)
}

func TestPassthroughDecoder(t *testing.T) {
	d := NewPassthroughAudioDecoder()

	_, err := d.ReceiveFrame()
	assert.Equal(t, ErrAgain, err)

	f := NewFloat32Frame([]float32{0.5, -0.5}, 2, 48000, 7)
	require.NoError(t, d.SendPacket(&FramePacket{Stream: 1, Frame: f}))

	got, err := d.ReceiveFrame()
	require.NoError(t, err)
	assert.EqualValues(t, 7, got.PTS())

	require.NoError(t, d.SendPacket(nil))
	_, err = d.ReceiveFrame()
	assert.Equal(t, io.EOF, err)
}

func TestPCMFrameSampleFormats(t *testing.T) {
	f := NewS16Frame([]int16{16384, -32768, 0, 32767}, 2, 44100, 0)
	assert.Equal(t, 2, f.Channels())
	assert.Equal(t, 2, f.NbSamples())
	assert.InDelta(t, 0.5, f.Sample(0, 0), 1e-6)
	assert.InDelta(t, -1.0, f.Sample(1, 0), 1e-6)
	assert.InDelta(t, 0.0, f.Sample(0, 1), 1e-6)
	assert.InDelta(t, 1.0, f.Sample(1, 1), 1e-4)

	g := NewFloat32Frame([]float32{0.25}, 1, 8000, 0)
	assert.Equal(t, 1, g.Channels())
	assert.InDelta(t, 0.25, g.Sample(0, 0), 1e-9)
}

func TestTestSourceInterleavesByTime(t *testing.T) {
	d, err := Open("testsrc://?duration=1s&fps=10&width=8&height=4&rate=8000&channels=1", "")
	require.NoError(t, err)
	defer d.Close()

	assert.Equal(t, time.Second, d.Duration())
	require.Len(t, d.Streams(), 2)

	var frames, samples int
	last := -1.0
	for {
		p, err := d.ReadPacket()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)

		s := d.Streams()[p.StreamIndex()]
		fp := p.(*FramePacket)
		var pts int64
		switch s.Type {
		case Video:
			frames++
			pts = fp.Frame.(*ImageFrame).PTS()
		case Audio:
			af := fp.Frame.(*PCMFrame)
			samples += af.NbSamples()
			pts = af.PTS()
		}
		sec := s.TimeBase.Seconds(pts)
		assert.True(t, sec >= last, "packets out of order")
		last = sec
		p.Release()
	}
	assert.Equal(t, 10, frames)
	assert.Equal(t, 8000, samples)
}

func TestTestSourceFailure(t *testing.T) {
	d, err := Open("testsrc://?fail=3", "")
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		_, err := d.ReadPacket()
		require.NoError(t, err)
	}
	_, err = d.ReadPacket()
	assert.Error(t, err)
	assert.NotEqual(t, io.EOF, err)
}

func TestParseTestSourceURIRejectsBadOptions(t *testing.T) {
	_, err := ParseTestSourceURI("testsrc://?fps=0")
	assert.Error(t, err)
	_, err = ParseTestSourceURI("testsrc://?video=0&audio=0")
	assert.Error(t, err)
	_, err = ParseTestSourceURI("testsrc://?duration=soon")
	assert.Error(t, err)

	opts, err := ParseTestSourceURI("testsrc://?video=false&rate=22050")
	require.NoError(t, err)
	assert.False(t, opts.Video)
	assert.Equal(t, 22050, opts.SampleRate)
}
