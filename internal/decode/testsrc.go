package decode

import (
	"image"
	"io"
	"math"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/xerrors"
)

func init() {
	Register(Backend{
		Name:     "testsrc",
		Priority: 100,
		Match:    MatchScheme("testsrc"),
		Open:     openTestSource,
	})
}

// TestSourceOptions configures the synthetic source. The URI form is
//
//	testsrc://?duration=10s&fps=30&width=320&height=240&rate=44100&channels=2
//
// with the optional keys video=0, audio=0, pad=N (extra bytes per pixel row)
// and fail=N (fail with an error after N packets).
type TestSourceOptions struct {
	Duration   time.Duration
	FrameRate  int
	Width      int
	Height     int
	SampleRate int
	Channels   int
	Video      bool
	Audio      bool
	RowPadding int
	FailAfter  int
}

func DefaultTestSourceOptions() TestSourceOptions {
	return TestSourceOptions{
		Duration:   10 * time.Second,
		FrameRate:  30,
		Width:      320,
		Height:     240,
		SampleRate: 44100,
		Channels:   2,
		Video:      true,
		Audio:      true,
	}
}

// ParseTestSourceURI reads TestSourceOptions from a testsrc:// URI.
func ParseTestSourceURI(uri string) (TestSourceOptions, error) {
	opts := DefaultTestSourceOptions()

	u, err := url.Parse(uri)
	if err != nil {
		return opts, xerrors.Errorf("testsrc: %w", err)
	}
	q := u.Query()

	ints := map[string]*int{
		"fps":      &opts.FrameRate,
		"width":    &opts.Width,
		"height":   &opts.Height,
		"rate":     &opts.SampleRate,
		"channels": &opts.Channels,
		"pad":      &opts.RowPadding,
		"fail":     &opts.FailAfter,
	}
	for key, dst := range ints {
		if v := q.Get(key); v != "" {
			if *dst, err = strconv.Atoi(v); err != nil {
				return opts, xerrors.Errorf("testsrc: %s: %w", key, err)
			}
		}
	}
	bools := map[string]*bool{"video": &opts.Video, "audio": &opts.Audio}
	for key, dst := range bools {
		if v := q.Get(key); v != "" {
			if *dst, err = strconv.ParseBool(v); err != nil {
				return opts, xerrors.Errorf("testsrc: %s: %w", key, err)
			}
		}
	}
	if v := q.Get("duration"); v != "" {
		if opts.Duration, err = time.ParseDuration(v); err != nil {
			return opts, xerrors.Errorf("testsrc: duration: %w", err)
		}
	}

	if opts.FrameRate <= 0 || opts.Width <= 0 || opts.Height <= 0 ||
		opts.SampleRate <= 0 || opts.Channels <= 0 || opts.Duration <= 0 || opts.RowPadding < 0 {
		return opts, xerrors.Errorf("testsrc: invalid options %+v", opts)
	}
	if !opts.Video && !opts.Audio {
		return opts, xerrors.New("testsrc: no streams enabled")
	}
	return opts, nil
}

// testSource generates colour bars and a 440 Hz tone. The first pixel of each
// frame encodes the frame number (red = low byte, green = high byte).
type testSource struct {
	opts    TestSourceOptions
	streams []StreamInfo

	videoIndex, audioIndex int
	frames, totalFrames    int
	samples, totalSamples  int
	packets                int
}

const testAudioChunk = 1024

func openTestSource(uri string) (Demuxer, error) {
	opts, err := ParseTestSourceURI(uri)
	if err != nil {
		return nil, err
	}
	return NewTestSource(opts), nil
}

// NewTestSource creates a synthetic Demuxer.
func NewTestSource(opts TestSourceOptions) Demuxer {
	s := &testSource{opts: opts, videoIndex: -1, audioIndex: -1}
	if opts.Video {
		s.videoIndex = len(s.streams)
		s.totalFrames = int(opts.Duration.Seconds() * float64(opts.FrameRate))
		s.streams = append(s.streams, StreamInfo{
			Index:     s.videoIndex,
			Type:      Video,
			Codec:     "rawvideo",
			TimeBase:  Rational{1, mpegClock},
			Width:     opts.Width,
			Height:    opts.Height,
			FrameRate: Rational{opts.FrameRate, 1},
		})
	}
	if opts.Audio {
		s.audioIndex = len(s.streams)
		s.totalSamples = int(opts.Duration.Seconds() * float64(opts.SampleRate))
		s.streams = append(s.streams, StreamInfo{
			Index:      s.audioIndex,
			Type:       Audio,
			Codec:      "pcm_s16le",
			TimeBase:   Rational{1, opts.SampleRate},
			SampleRate: opts.SampleRate,
			Channels:   opts.Channels,
		})
	}
	return s
}

func (s *testSource) Streams() []StreamInfo {
	return s.streams
}

func (s *testSource) Duration() time.Duration {
	return s.opts.Duration
}

func (s *testSource) ReadPacket() (Packet, error) {
	if s.opts.FailAfter > 0 && s.packets >= s.opts.FailAfter {
		return nil, xerrors.Errorf("testsrc: injected failure after %d packets", s.packets)
	}

	videoLeft := s.frames < s.totalFrames
	audioLeft := s.samples < s.totalSamples
	videoTime := float64(s.frames) / float64(s.opts.FrameRate)
	audioTime := float64(s.samples) / float64(s.opts.SampleRate)

	var p Packet
	switch {
	case videoLeft && (!audioLeft || videoTime <= audioTime):
		p = &FramePacket{Stream: s.videoIndex, Frame: s.videoFrame()}
		s.frames++
	case audioLeft:
		p = &FramePacket{Stream: s.audioIndex, Frame: s.audioFrame()}
	default:
		return nil, io.EOF
	}
	s.packets++
	return p, nil
}

func (s *testSource) videoFrame() *ImageFrame {
	w, h := s.opts.Width, s.opts.Height
	stride := w*4 + s.opts.RowPadding
	img := &image.RGBA{
		Pix:    make([]byte, stride*h),
		Stride: stride,
		Rect:   image.Rect(0, 0, w, h),
	}

	bars := [][3]byte{
		{192, 192, 192}, {192, 192, 0}, {0, 192, 192}, {0, 192, 0},
		{192, 0, 192}, {192, 0, 0}, {0, 0, 192},
	}
	for y := 0; y < h; y++ {
		row := img.Pix[y*stride:]
		for x := 0; x < w; x++ {
			c := bars[(x*len(bars)/w+s.frames)%len(bars)]
			row[x*4+0] = c[0]
			row[x*4+1] = c[1]
			row[x*4+2] = c[2]
			row[x*4+3] = 0xff
		}
		// Poison the padding so copies that keep it are detectable.
		for i := w * 4; i < stride; i++ {
			row[i] = 0xee
		}
	}
	img.Pix[0] = byte(s.frames)
	img.Pix[1] = byte(s.frames >> 8)

	pts := int64(s.frames) * mpegClock / int64(s.opts.FrameRate)
	return &ImageFrame{Image: img, Pts: pts}
}

func (s *testSource) audioFrame() *PCMFrame {
	n := testAudioChunk
	if left := s.totalSamples - s.samples; left < n {
		n = left
	}
	ch := s.opts.Channels
	pcm := make([]int16, n*ch)
	for i := 0; i < n; i++ {
		t := float64(s.samples+i) / float64(s.opts.SampleRate)
		v := int16(math.Sin(2*math.Pi*440*t) * 0.25 * math.MaxInt16)
		for c := 0; c < ch; c++ {
			pcm[i*ch+c] = v
		}
	}
	f := NewS16Frame(pcm, ch, s.opts.SampleRate, int64(s.samples))
	s.samples += n
	return f
}

func (s *testSource) NewVideoDecoder(stream int) (VideoDecoder, error) {
	if stream < 0 || stream != s.videoIndex {
		return nil, errNoStream
	}
	return NewPassthroughVideoDecoder(), nil
}

func (s *testSource) NewAudioDecoder(stream int) (AudioDecoder, error) {
	if stream < 0 || stream != s.audioIndex {
		return nil, errNoStream
	}
	return NewPassthroughAudioDecoder(), nil
}

func (s *testSource) Close() error {
	return nil
}
