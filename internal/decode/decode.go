//////////////////////////////////////////////////////////////////////////////
//
// Demuxer and decoder adapter
//
// Copyright 2019 Lanikai Labs. All rights reserved.
//
//////////////////////////////////////////////////////////////////////////////

// Package decode adapts media demuxing and decoding libraries to a single
// send/receive interface consumed by the video and audio pipelines.
package decode

import (
	"fmt"
	"math"
	"time"

	"github.com/lanikai/alohaplay/internal/logging"
	"github.com/lanikai/alohaplay/internal/media"
)

var log = logging.DefaultLogger.WithTag("decode")

// NoPTS marks a frame whose presentation timestamp is unknown.
const NoPTS int64 = math.MinInt64

type MediaType int

const (
	Other MediaType = iota
	Video
	Audio
)

func (t MediaType) String() string {
	switch t {
	case Video:
		return "video"
	case Audio:
		return "audio"
	default:
		return "other"
	}
}

// Rational is a time base or frame rate expressed as Num/Den.
type Rational struct {
	Num int
	Den int
}

func (r Rational) Valid() bool {
	return r.Num > 0 && r.Den > 0
}

// Seconds converts a timestamp in units of r to seconds.
func (r Rational) Seconds(ts int64) float64 {
	if !r.Valid() {
		return 0
	}
	return float64(ts) * float64(r.Num) / float64(r.Den)
}

// Nanoseconds converts a timestamp in units of r to nanoseconds, splitting
// the computation to avoid overflowing int64 for long streams.
func (r Rational) Nanoseconds(ts int64) int64 {
	if !r.Valid() {
		return 0
	}
	num, den := int64(r.Num), int64(r.Den)
	scaled := ts * num
	sec := scaled / den
	rem := scaled % den
	return sec*int64(time.Second) + rem*int64(time.Second)/den
}

// Float returns r as a floating point number, e.g. frames per second.
func (r Rational) Float() float64 {
	if !r.Valid() {
		return 0
	}
	return float64(r.Num) / float64(r.Den)
}

func (r Rational) String() string {
	return fmt.Sprintf("%d/%d", r.Num, r.Den)
}

// StreamInfo describes one elementary stream of a container.
type StreamInfo struct {
	Index    int
	Type     MediaType
	Codec    string
	TimeBase Rational

	// Video streams.
	Width     int
	Height    int
	FrameRate Rational

	// Audio streams.
	SampleRate int
	Channels   int
}

// FrameInterval returns the nominal duration of one video frame, or 0 if
// the frame rate is unknown.
func (s StreamInfo) FrameInterval() time.Duration {
	if !s.FrameRate.Valid() {
		return 0
	}
	return time.Duration(float64(time.Second) / s.FrameRate.Float())
}

func (s StreamInfo) String() string {
	switch s.Type {
	case Video:
		return fmt.Sprintf("#%d video %s %dx%d @ %.3g fps", s.Index, s.Codec, s.Width, s.Height, s.FrameRate.Float())
	case Audio:
		return fmt.Sprintf("#%d audio %s %d Hz/%d ch", s.Index, s.Codec, s.SampleRate, s.Channels)
	default:
		return fmt.Sprintf("#%d %s %s", s.Index, s.Type, s.Codec)
	}
}

// A Packet is a unit of compressed data read from a Demuxer. It remains valid
// until Release is called, which must happen before the next ReadPacket.
type Packet interface {
	StreamIndex() int
	Release()
}

// A Demuxer splits a container into packets and creates decoders for its
// streams. All methods are called from the decode goroutine only.
type Demuxer interface {
	Streams() []StreamInfo

	// Duration of the media, or 0 if unknown.
	Duration() time.Duration

	// ReadPacket returns the next packet in container order, or io.EOF at the
	// end of the source.
	ReadPacket() (Packet, error)

	NewVideoDecoder(stream int) (VideoDecoder, error)
	NewAudioDecoder(stream int) (AudioDecoder, error)

	Close() error
}

// VideoFrame is a decoded picture in the decoder's native pixel format. It is
// valid until the next ReceiveFrame on the decoder that produced it.
type VideoFrame interface {
	Width() int
	Height() int
	PixelFormat() string
	PTS() int64
}

// Image is a packed RGBA8 picture whose rows may be padded: each row starts
// Stride bytes after the previous one.
type Image struct {
	Pix    []byte
	Stride int
	Width  int
	Height int
}

// A Scaler converts frames of one geometry and pixel format to RGBA8 at a
// fixed output size. Scale returns ErrFormatChanged if the input no longer
// matches. The returned Image is borrowed until the next call to Scale.
type Scaler interface {
	Scale(f VideoFrame) (Image, error)
	Close() error
}

type VideoDecoder interface {
	// SendPacket submits a packet. A nil packet signals end of stream and
	// starts draining. ErrAgain means frames must be received first.
	SendPacket(p Packet) error

	// ReceiveFrame returns ErrAgain when more input is needed and io.EOF once
	// the decoder is fully drained.
	ReceiveFrame() (VideoFrame, error)

	// NewScaler builds a scaler for frames shaped like src. Zero width or
	// height keeps the source size.
	NewScaler(src VideoFrame, width, height int) (Scaler, error)

	Close() error
}

// AudioFrame is a decoded block of audio in the decoder's native format. It is
// valid until the next ReceiveFrame on the decoder that produced it.
type AudioFrame interface {
	SampleRate() int
	Channels() int
	NbSamples() int
	PTS() int64
}

// A Resampler converts audio frames to interleaved float32 in a fixed output
// format. Returned slices are owned by the caller.
type Resampler interface {
	Resample(f AudioFrame) ([]float32, error)

	// Flush returns samples still held back by the conversion filter.
	Flush() ([]float32, error)

	Close() error
}

type AudioDecoder interface {
	SendPacket(p Packet) error
	ReceiveFrame() (AudioFrame, error)

	// NewResampler builds a resampler from the format of src to dst.
	NewResampler(src AudioFrame, dst media.AudioFormat) (Resampler, error)

	Close() error
}

// FirstStream returns the first stream of the given type.
func FirstStream(streams []StreamInfo, typ MediaType) (StreamInfo, bool) {
	for _, s := range streams {
		if s.Type == typ {
			return s, true
		}
	}
	return StreamInfo{}, false
}
