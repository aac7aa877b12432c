package decode

import (
	"image"
	"io"
	"time"

	"github.com/gen2brain/mpeg"
	"golang.org/x/xerrors"
)

func init() {
	Register(Backend{
		Name:     "mpeg",
		Priority: 20,
		Match:    MatchExtensions(".mpg", ".mpeg"),
		Open:     openMPEG,
	})
}

// MPEG-PS timestamps tick at 90 kHz.
const mpegClock = 90000

// mpegDemuxer reads MPEG-1 program streams with the pure-Go gen2brain/mpeg
// decoder. Decoding happens while demuxing, so packets carry decoded frames
// and are interleaved by presentation time.
type mpegDemuxer struct {
	rc io.ReadCloser
	m  *mpeg.MPEG

	streams    []StreamInfo
	videoIndex int
	audioIndex int
	sampleRate int

	nextVideo *ImageFrame
	nextAudio *PCMFrame
	videoDone bool
	audioDone bool
}

func openMPEG(uri string) (Demuxer, error) {
	rc, err := openReader(uri)
	if err != nil {
		return nil, xerrors.Errorf("mpeg: %w", err)
	}

	m, err := mpeg.New(rc)
	if err != nil {
		rc.Close()
		return nil, xerrors.Errorf("mpeg: %w", err)
	}

	d := &mpegDemuxer{rc: rc, m: m, videoIndex: -1, audioIndex: -1}

	if m.NumVideoStreams() > 0 {
		d.videoIndex = len(d.streams)
		d.streams = append(d.streams, StreamInfo{
			Index:     d.videoIndex,
			Type:      Video,
			Codec:     "mpeg1video",
			TimeBase:  Rational{1, mpegClock},
			Width:     m.Width(),
			Height:    m.Height(),
			FrameRate: Rational{int(m.Framerate()*1000 + 0.5), 1000},
		})
	} else {
		m.SetVideoEnabled(false)
		d.videoDone = true
	}

	if m.NumAudioStreams() > 0 {
		m.SetAudioFormat(mpeg.AudioS16)
		d.sampleRate = m.Samplerate()
		d.audioIndex = len(d.streams)
		d.streams = append(d.streams, StreamInfo{
			Index:      d.audioIndex,
			Type:       Audio,
			Codec:      "mp2",
			TimeBase:   Rational{1, mpegClock},
			SampleRate: d.sampleRate,
			// Decoded samples are always stereo interleaved.
			Channels: 2,
		})
	} else {
		m.SetAudioEnabled(false)
		d.audioDone = true
	}

	if len(d.streams) == 0 {
		d.Close()
		return nil, xerrors.New("mpeg: no video or audio stream")
	}
	return d, nil
}

func (d *mpegDemuxer) Streams() []StreamInfo {
	return d.streams
}

func (d *mpegDemuxer) Duration() time.Duration {
	if d.videoIndex < 0 {
		return 0
	}
	return d.m.Duration()
}

func (d *mpegDemuxer) ReadPacket() (Packet, error) {
	if d.nextVideo == nil && !d.videoDone {
		d.nextVideo = d.decodeVideo()
	}
	if d.nextAudio == nil && !d.audioDone {
		d.nextAudio = d.decodeAudio()
	}

	switch {
	case d.nextVideo != nil && (d.nextAudio == nil || d.nextVideo.Pts <= d.nextAudio.Pts):
		p := &FramePacket{Stream: d.videoIndex, Frame: d.nextVideo}
		d.nextVideo = nil
		return p, nil
	case d.nextAudio != nil:
		p := &FramePacket{Stream: d.audioIndex, Frame: d.nextAudio}
		d.nextAudio = nil
		return p, nil
	default:
		return nil, io.EOF
	}
}

func (d *mpegDemuxer) decodeVideo() *ImageFrame {
	f := d.m.DecodeVideo()
	if f == nil {
		d.videoDone = true
		return nil
	}
	// The decoder reuses its planes on the next call.
	return &ImageFrame{
		Image: cloneYCbCr(f.YCbCr()),
		Pts:   int64(f.Time * mpegClock),
	}
}

func (d *mpegDemuxer) decodeAudio() *PCMFrame {
	s := d.m.DecodeAudio()
	if s == nil {
		d.audioDone = true
		return nil
	}
	return NewS16Frame(s.S16, 2, d.sampleRate, int64(s.Time*mpegClock))
}

func (d *mpegDemuxer) NewVideoDecoder(stream int) (VideoDecoder, error) {
	if stream != d.videoIndex || stream < 0 {
		return nil, errNoStream
	}
	return NewPassthroughVideoDecoder(), nil
}

func (d *mpegDemuxer) NewAudioDecoder(stream int) (AudioDecoder, error) {
	if stream != d.audioIndex || stream < 0 {
		return nil, errNoStream
	}
	return NewPassthroughAudioDecoder(), nil
}

func (d *mpegDemuxer) Close() error {
	return d.rc.Close()
}

func cloneYCbCr(src *image.YCbCr) *image.YCbCr {
	dst := *src
	dst.Y = append([]byte(nil), src.Y...)
	dst.Cb = append([]byte(nil), src.Cb...)
	dst.Cr = append([]byte(nil), src.Cr...)
	return &dst
}
