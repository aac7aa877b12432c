package decode

import (
	"io"
	"path"
	"strings"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/mp3"
	"github.com/faiface/beep/vorbis"
	"github.com/faiface/beep/wav"
	"golang.org/x/xerrors"
)

func init() {
	Register(Backend{
		Name:     "beep",
		Priority: 20,
		Match:    MatchExtensions(".mp3", ".ogg", ".oga", ".wav"),
		Open:     openBeep,
	})
}

// Samples per channel read per packet.
const beepChunk = 1024

// beepDemuxer decodes audio-only files with the faiface/beep decoders. It
// exposes a single audio stream whose timestamps count samples.
type beepDemuxer struct {
	stream beep.StreamSeekCloser
	format beep.Format
	info   StreamInfo
	buf    [][2]float64
	pos    int64
}

func openBeep(uri string) (Demuxer, error) {
	rc, err := openReader(uri)
	if err != nil {
		return nil, xerrors.Errorf("beep: %w", err)
	}

	var (
		stream beep.StreamSeekCloser
		format beep.Format
		codec  string
	)
	switch ext := strings.ToLower(path.Ext(uriPath(uri))); ext {
	case ".mp3":
		codec = "mp3"
		stream, format, err = mp3.Decode(rc)
	case ".ogg", ".oga":
		codec = "vorbis"
		stream, format, err = vorbis.Decode(rc)
	case ".wav":
		codec = "pcm"
		stream, format, err = wav.Decode(rc)
	default:
		err = xerrors.Errorf("extension %q: %w", ext, errNotSupported)
	}
	if err != nil {
		rc.Close()
		return nil, xerrors.Errorf("beep: %w", err)
	}

	channels := format.NumChannels
	if channels > 2 {
		channels = 2
	}
	return &beepDemuxer{
		stream: stream,
		format: format,
		info: StreamInfo{
			Index:      0,
			Type:       Audio,
			Codec:      codec,
			TimeBase:   Rational{1, int(format.SampleRate)},
			SampleRate: int(format.SampleRate),
			Channels:   channels,
		},
		buf: make([][2]float64, beepChunk),
	}, nil
}

func (d *beepDemuxer) Streams() []StreamInfo {
	return []StreamInfo{d.info}
}

func (d *beepDemuxer) Duration() time.Duration {
	return d.format.SampleRate.D(d.stream.Len())
}

func (d *beepDemuxer) ReadPacket() (Packet, error) {
	n, _ := d.stream.Stream(d.buf)
	if n == 0 {
		if err := d.stream.Err(); err != nil {
			return nil, xerrors.Errorf("beep: %w", err)
		}
		return nil, io.EOF
	}

	channels := d.info.Channels
	samples := make([]float32, 0, n*channels)
	for _, s := range d.buf[:n] {
		samples = append(samples, float32(s[0]))
		if channels == 2 {
			samples = append(samples, float32(s[1]))
		}
	}
	f := NewFloat32Frame(samples, channels, d.info.SampleRate, d.pos)
	d.pos += int64(n)
	return &FramePacket{Stream: 0, Frame: f}, nil
}

func (d *beepDemuxer) NewVideoDecoder(stream int) (VideoDecoder, error) {
	return nil, errNoStream
}

func (d *beepDemuxer) NewAudioDecoder(stream int) (AudioDecoder, error) {
	if stream != 0 {
		return nil, errNoStream
	}
	return NewPassthroughAudioDecoder(), nil
}

func (d *beepDemuxer) Close() error {
	return d.stream.Close()
}
