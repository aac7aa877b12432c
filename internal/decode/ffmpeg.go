//go:build !noffmpeg
// +build !noffmpeg

package decode

import (
	"encoding/binary"
	"errors"
	"io"
	"math"
	"time"

	"github.com/asticode/go-astiav"
	"golang.org/x/xerrors"

	"github.com/lanikai/alohaplay/internal/media"
)

func init() {
	astiav.SetLogLevel(astiav.LogLevelError)

	// Lowest priority: FFmpeg handles anything the pure-Go backends don't.
	Register(Backend{
		Name:     "ffmpeg",
		Priority: 10,
		Open:     openFFmpeg,
	})
}

const ffmpegAvailable = true

// Row alignment requested when copying scaled pictures out of FFmpeg.
const ffmpegAlign = 32

type ffmpegDemuxer struct {
	fc       *astiav.FormatContext
	pkt      *astiav.Packet
	streams  []StreamInfo
	avStream map[int]*astiav.Stream
}

func openFFmpeg(uri string) (Demuxer, error) {
	fc := astiav.AllocFormatContext()
	if fc == nil {
		return nil, xerrors.New("ffmpeg: allocating format context failed")
	}
	if err := fc.OpenInput(uri, nil, nil); err != nil {
		fc.Free()
		return nil, xerrors.Errorf("ffmpeg: opening input: %w", err)
	}
	if err := fc.FindStreamInfo(nil); err != nil {
		fc.CloseInput()
		fc.Free()
		return nil, xerrors.Errorf("ffmpeg: finding stream info: %w", err)
	}

	d := &ffmpegDemuxer{
		fc:       fc,
		pkt:      astiav.AllocPacket(),
		avStream: make(map[int]*astiav.Stream),
	}
	for _, s := range fc.Streams() {
		cp := s.CodecParameters()
		tb := s.TimeBase()
		info := StreamInfo{
			Index:    s.Index(),
			Codec:    cp.CodecID().String(),
			TimeBase: Rational{tb.Num(), tb.Den()},
		}
		switch cp.MediaType() {
		case astiav.MediaTypeVideo:
			fr := s.AvgFrameRate()
			info.Type = Video
			info.Width = cp.Width()
			info.Height = cp.Height()
			info.FrameRate = Rational{fr.Num(), fr.Den()}
		case astiav.MediaTypeAudio:
			info.Type = Audio
			info.SampleRate = cp.SampleRate()
			info.Channels = cp.ChannelLayout().Channels()
		default:
			info.Type = Other
		}
		d.streams = append(d.streams, info)
		d.avStream[s.Index()] = s
	}
	return d, nil
}

func (d *ffmpegDemuxer) Streams() []StreamInfo {
	return d.streams
}

func (d *ffmpegDemuxer) Duration() time.Duration {
	// Container duration is in AV_TIME_BASE (microsecond) units.
	if us := d.fc.Duration(); us > 0 {
		return time.Duration(us) * time.Microsecond
	}
	return 0
}

func (d *ffmpegDemuxer) ReadPacket() (Packet, error) {
	if err := d.fc.ReadFrame(d.pkt); err != nil {
		if errors.Is(err, astiav.ErrEof) {
			return nil, io.EOF
		}
		return nil, xerrors.Errorf("ffmpeg: reading packet: %w", err)
	}
	return ffmpegPacket{d.pkt}, nil
}

func (d *ffmpegDemuxer) NewVideoDecoder(stream int) (VideoDecoder, error) {
	dec, err := d.newDecoder(stream, astiav.MediaTypeVideo)
	if err != nil {
		return nil, err
	}
	return &ffmpegVideoDecoder{dec}, nil
}

func (d *ffmpegDemuxer) NewAudioDecoder(stream int) (AudioDecoder, error) {
	dec, err := d.newDecoder(stream, astiav.MediaTypeAudio)
	if err != nil {
		return nil, err
	}
	return &ffmpegAudioDecoder{dec}, nil
}

func (d *ffmpegDemuxer) newDecoder(stream int, typ astiav.MediaType) (*ffmpegDecoder, error) {
	s, ok := d.avStream[stream]
	if !ok || s.CodecParameters().MediaType() != typ {
		return nil, errNoStream
	}
	cp := s.CodecParameters()

	codec := astiav.FindDecoder(cp.CodecID())
	if codec == nil {
		return nil, xerrors.Errorf("ffmpeg: no decoder for %s: %w", cp.CodecID(), errNotSupported)
	}
	cc := astiav.AllocCodecContext(codec)
	if cc == nil {
		return nil, xerrors.New("ffmpeg: allocating codec context failed")
	}
	if err := cp.ToCodecContext(cc); err != nil {
		cc.Free()
		return nil, xerrors.Errorf("ffmpeg: copying codec parameters: %w", err)
	}
	if err := cc.Open(codec, nil); err != nil {
		cc.Free()
		return nil, xerrors.Errorf("ffmpeg: opening %s decoder: %w", cp.CodecID(), err)
	}
	return &ffmpegDecoder{cc: cc, frame: astiav.AllocFrame()}, nil
}

func (d *ffmpegDemuxer) Close() error {
	d.pkt.Free()
	d.fc.CloseInput()
	d.fc.Free()
	return nil
}

type ffmpegPacket struct {
	pkt *astiav.Packet
}

func (p ffmpegPacket) StreamIndex() int { return p.pkt.StreamIndex() }
func (p ffmpegPacket) Release()         { p.pkt.Unref() }

// ffmpegDecoder is the send/receive core shared by audio and video.
type ffmpegDecoder struct {
	cc    *astiav.CodecContext
	frame *astiav.Frame
}

func (d *ffmpegDecoder) SendPacket(p Packet) error {
	var pkt *astiav.Packet
	if p != nil {
		fp, ok := p.(ffmpegPacket)
		if !ok {
			return errWrongPacket
		}
		pkt = fp.pkt
	}
	if err := d.cc.SendPacket(pkt); err != nil {
		switch {
		case errors.Is(err, astiav.ErrEagain):
			return ErrAgain
		case errors.Is(err, astiav.ErrEof):
			// Already draining.
			return nil
		}
		return xerrors.Errorf("ffmpeg: sending packet: %w", err)
	}
	return nil
}

func (d *ffmpegDecoder) receive() error {
	d.frame.Unref()
	if err := d.cc.ReceiveFrame(d.frame); err != nil {
		switch {
		case errors.Is(err, astiav.ErrEagain):
			return ErrAgain
		case errors.Is(err, astiav.ErrEof):
			return io.EOF
		}
		return xerrors.Errorf("ffmpeg: receiving frame: %w", err)
	}
	return nil
}

func (d *ffmpegDecoder) Close() error {
	d.frame.Free()
	d.cc.Free()
	return nil
}

func ffmpegPTS(f *astiav.Frame) int64 {
	if pts := f.Pts(); pts != astiav.NoPtsValue {
		return pts
	}
	return NoPTS
}

type ffmpegVideoDecoder struct {
	*ffmpegDecoder
}

func (d *ffmpegVideoDecoder) ReceiveFrame() (VideoFrame, error) {
	if err := d.receive(); err != nil {
		return nil, err
	}
	return ffmpegVideoFrame{d.frame}, nil
}

func (d *ffmpegVideoDecoder) NewScaler(src VideoFrame, width, height int) (Scaler, error) {
	ff, ok := src.(ffmpegVideoFrame)
	if !ok {
		return nil, errWrongFrame
	}
	return newFFmpegScaler(ff.f, width, height)
}

type ffmpegVideoFrame struct {
	f *astiav.Frame
}

func (v ffmpegVideoFrame) Width() int          { return v.f.Width() }
func (v ffmpegVideoFrame) Height() int         { return v.f.Height() }
func (v ffmpegVideoFrame) PixelFormat() string { return v.f.PixelFormat().String() }
func (v ffmpegVideoFrame) PTS() int64          { return ffmpegPTS(v.f) }

// ffmpegScaler converts decoded pictures to RGBA with libswscale.
type ffmpegScaler struct {
	ssc        *astiav.SoftwareScaleContext
	dst        *astiav.Frame
	buf        []byte
	srcW, srcH int
	srcPix     astiav.PixelFormat
	dstW, dstH int
}

func newFFmpegScaler(src *astiav.Frame, width, height int) (*ffmpegScaler, error) {
	sw, sh, sp := src.Width(), src.Height(), src.PixelFormat()
	if width <= 0 || height <= 0 {
		width, height = sw, sh
	}

	ssc, err := astiav.CreateSoftwareScaleContext(
		sw, sh, sp,
		width, height, astiav.PixelFormatRgba,
		astiav.NewSoftwareScaleContextFlags(),
	)
	if err != nil {
		return nil, xerrors.Errorf("ffmpeg: creating scaler %dx%d %s: %w", sw, sh, sp, err)
	}

	dst := astiav.AllocFrame()
	dst.SetWidth(width)
	dst.SetHeight(height)
	dst.SetPixelFormat(astiav.PixelFormatRgba)
	if err := dst.AllocBuffer(ffmpegAlign); err != nil {
		dst.Free()
		ssc.Free()
		return nil, xerrors.Errorf("ffmpeg: allocating scaled frame: %w", err)
	}

	n, err := dst.ImageBufferSize(ffmpegAlign)
	if err != nil {
		dst.Free()
		ssc.Free()
		return nil, xerrors.Errorf("ffmpeg: sizing scaled frame: %w", err)
	}

	log.Debug("Scaler ready: %dx%d %s -> %dx%d rgba", sw, sh, sp, width, height)
	return &ffmpegScaler{
		ssc:    ssc,
		dst:    dst,
		buf:    make([]byte, n),
		srcW:   sw,
		srcH:   sh,
		srcPix: sp,
		dstW:   width,
		dstH:   height,
	}, nil
}

func (s *ffmpegScaler) Scale(f VideoFrame) (Image, error) {
	ff, ok := f.(ffmpegVideoFrame)
	if !ok {
		return Image{}, errWrongFrame
	}
	src := ff.f
	if src.Width() != s.srcW || src.Height() != s.srcH || src.PixelFormat() != s.srcPix {
		return Image{}, ErrFormatChanged
	}

	if err := s.ssc.ScaleFrame(src, s.dst); err != nil {
		return Image{}, xerrors.Errorf("ffmpeg: scaling frame: %w", err)
	}
	// Rows in buf are padded to ffmpegAlign bytes.
	if _, err := s.dst.ImageCopyToBuffer(s.buf, ffmpegAlign); err != nil {
		return Image{}, xerrors.Errorf("ffmpeg: copying scaled frame: %w", err)
	}
	return Image{
		Pix:    s.buf,
		Stride: len(s.buf) / s.dstH,
		Width:  s.dstW,
		Height: s.dstH,
	}, nil
}

func (s *ffmpegScaler) Close() error {
	s.dst.Free()
	s.ssc.Free()
	return nil
}

type ffmpegAudioDecoder struct {
	*ffmpegDecoder
}

func (d *ffmpegAudioDecoder) ReceiveFrame() (AudioFrame, error) {
	if err := d.receive(); err != nil {
		return nil, err
	}
	return ffmpegAudioFrame{d.frame}, nil
}

func (d *ffmpegAudioDecoder) NewResampler(src AudioFrame, dst media.AudioFormat) (Resampler, error) {
	if _, ok := src.(ffmpegAudioFrame); !ok {
		return nil, errWrongFrame
	}
	return newFFmpegResampler(dst)
}

type ffmpegAudioFrame struct {
	f *astiav.Frame
}

func (a ffmpegAudioFrame) SampleRate() int { return a.f.SampleRate() }
func (a ffmpegAudioFrame) Channels() int   { return a.f.ChannelLayout().Channels() }
func (a ffmpegAudioFrame) NbSamples() int  { return a.f.NbSamples() }
func (a ffmpegAudioFrame) PTS() int64      { return ffmpegPTS(a.f) }

// ffmpegResampler converts to packed float32 with libswresample. The context
// configures itself from the first input frame.
type ffmpegResampler struct {
	swr    *astiav.SoftwareResampleContext
	out    *astiav.Frame
	dst    media.AudioFormat
	layout astiav.ChannelLayout

	// Input format, fixed by the first frame.
	srcRate     int
	srcChannels int
}

func newFFmpegResampler(dst media.AudioFormat) (*ffmpegResampler, error) {
	var layout astiav.ChannelLayout
	switch dst.Channels {
	case 1:
		layout = astiav.ChannelLayoutMono
	case 2:
		layout = astiav.ChannelLayoutStereo
	default:
		return nil, xerrors.Errorf("ffmpeg: %d output channels: %w", dst.Channels, errNotSupported)
	}

	swr := astiav.AllocSoftwareResampleContext()
	if swr == nil {
		return nil, xerrors.New("ffmpeg: allocating resample context failed")
	}
	return &ffmpegResampler{
		swr:    swr,
		out:    astiav.AllocFrame(),
		dst:    dst,
		layout: layout,
	}, nil
}

func (r *ffmpegResampler) prepare(nbSamples int) error {
	r.out.Unref()
	r.out.SetChannelLayout(r.layout)
	r.out.SetSampleFormat(astiav.SampleFormatFlt)
	r.out.SetSampleRate(r.dst.SampleRate)
	r.out.SetNbSamples(nbSamples)
	return r.out.AllocBuffer(0)
}

// outputSamples returns an upper bound for the output of n input samples.
func (r *ffmpegResampler) outputSamples(n, inRate int) int {
	delay := r.swr.Delay(int64(inRate))
	return int((delay+int64(n))*int64(r.dst.SampleRate)/int64(inRate)) + 32
}

func (r *ffmpegResampler) Resample(f AudioFrame) ([]float32, error) {
	af, ok := f.(ffmpegAudioFrame)
	if !ok {
		return nil, errWrongFrame
	}
	if err := r.checkInput(af.SampleRate(), af.Channels()); err != nil {
		return nil, err
	}
	if err := r.prepare(r.outputSamples(af.NbSamples(), af.SampleRate())); err != nil {
		return nil, xerrors.Errorf("ffmpeg: allocating resampled frame: %w", err)
	}
	if err := r.swr.ConvertFrame(af.f, r.out); err != nil {
		return nil, swrError(err)
	}
	return r.samples()
}

// checkInput records the first input format and rejects later changes.
func (r *ffmpegResampler) checkInput(rate, channels int) error {
	if r.srcRate == 0 {
		r.srcRate, r.srcChannels = rate, channels
		return nil
	}
	if rate != r.srcRate || channels != r.srcChannels {
		return xerrors.Errorf("ffmpeg: input %d Hz/%d ch, configured for %d Hz/%d ch: %w",
			rate, channels, r.srcRate, r.srcChannels, ErrFormatChanged)
	}
	return nil
}

// swrError maps libswresample's input-changed error to ErrFormatChanged.
func swrError(err error) error {
	if errors.Is(err, astiav.ErrInputChanged) {
		return xerrors.Errorf("ffmpeg: resampling: %v: %w", err, ErrFormatChanged)
	}
	return xerrors.Errorf("ffmpeg: resampling: %w", err)
}

func (r *ffmpegResampler) Flush() ([]float32, error) {
	var out []float32
	// Bounded: each pass drains what the context buffered.
	for i := 0; i < 8; i++ {
		delay := r.swr.Delay(int64(r.dst.SampleRate))
		if delay <= 0 {
			break
		}
		if err := r.prepare(int(delay) + 32); err != nil {
			return out, xerrors.Errorf("ffmpeg: allocating resampled frame: %w", err)
		}
		if err := r.swr.ConvertFrame(nil, r.out); err != nil {
			return out, xerrors.Errorf("ffmpeg: flushing resampler: %w", err)
		}
		s, err := r.samples()
		if err != nil {
			return out, err
		}
		if len(s) == 0 {
			break
		}
		out = append(out, s...)
	}
	return out, nil
}

func (r *ffmpegResampler) samples() ([]float32, error) {
	n := r.out.NbSamples() * r.dst.Channels
	if n == 0 {
		return nil, nil
	}
	b, err := r.out.Data().Bytes(1)
	if err != nil {
		return nil, xerrors.Errorf("ffmpeg: reading resampled data: %w", err)
	}
	if len(b) < n*4 {
		n = len(b) / 4
	}
	out := make([]float32, n)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return out, nil
}

func (r *ffmpegResampler) Close() error {
	r.out.Free()
	r.swr.Free()
	return nil
}
