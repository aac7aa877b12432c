// Package video decodes video packets into RGBA frames and feeds them to a
// bounded queue.
package video

import (
	"io"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"

	"github.com/lanikai/alohaplay/internal/decode"
	"github.com/lanikai/alohaplay/internal/logging"
	"github.com/lanikai/alohaplay/internal/media"
)

var log = logging.DefaultLogger.WithTag("video")

// Interval assumed between frames without timestamps when the stream does not
// declare a frame rate.
const defaultFrameInterval = 33 * time.Millisecond

type Config struct {
	// Output size. Zero keeps the decoded size.
	Width  int
	Height int

	// Sleep between attempts to push into a full queue.
	RetryInterval time.Duration
}

// Pipeline turns compressed packets of one video stream into frames on a
// VideoQueue. It is driven entirely by the decode goroutine.
type Pipeline struct {
	dec     decode.VideoDecoder
	stream  decode.StreamInfo
	queue   *media.VideoQueue
	stopped func() bool
	config  Config

	scaler  decode.Scaler
	lastPTS int64
	havePTS bool

	// Timestamp of the first frame, in ns and in stream ticks.
	startPTS   int64
	startTicks int64
	haveTicks  bool
	interval   time.Duration

	frames uint64
}

// NewPipeline creates a pipeline. stopped is polled while waiting for queue
// space; once it reports true, pushes fail with media.ErrStopped.
func NewPipeline(dec decode.VideoDecoder, stream decode.StreamInfo, queue *media.VideoQueue, stopped func() bool, config Config) *Pipeline {
	if config.RetryInterval <= 0 {
		config.RetryInterval = 5 * time.Millisecond
	}
	interval := stream.FrameInterval()
	if interval <= 0 {
		interval = defaultFrameInterval
	}
	return &Pipeline{
		dec:      dec,
		stream:   stream,
		queue:    queue,
		stopped:  stopped,
		config:   config,
		interval: interval,
	}
}

// Process decodes one packet and enqueues every frame it yields.
func (p *Pipeline) Process(pkt decode.Packet) error {
	err := p.dec.SendPacket(pkt)
	if errors.Is(err, decode.ErrAgain) {
		// Decoder is full: drain it, then resubmit once.
		if err := p.receiveAll(); err != nil {
			return err
		}
		err = p.dec.SendPacket(pkt)
	}
	if err != nil {
		return errors.Wrap(err, "video decode")
	}
	return p.receiveAll()
}

// Drain flushes frames buffered inside the decoder at end of stream.
func (p *Pipeline) Drain() error {
	if err := p.dec.SendPacket(nil); err != nil && !errors.Is(err, decode.ErrAgain) {
		return errors.Wrap(err, "video drain")
	}
	return p.receiveAll()
}

// Frames returns the number of frames pushed so far.
func (p *Pipeline) Frames() uint64 {
	return atomic.LoadUint64(&p.frames)
}

func (p *Pipeline) Close() error {
	if p.scaler != nil {
		p.scaler.Close()
		p.scaler = nil
	}
	return p.dec.Close()
}

func (p *Pipeline) receiveAll() error {
	for {
		f, err := p.dec.ReceiveFrame()
		if errors.Is(err, decode.ErrAgain) || err == io.EOF {
			return nil
		} else if err != nil {
			return errors.Wrap(err, "video decode")
		}

		frame, err := p.convert(f)
		if err != nil {
			return err
		}
		if err := p.push(frame); err != nil {
			return err
		}
	}
}

func (p *Pipeline) convert(f decode.VideoFrame) (*media.Frame, error) {
	img, err := p.scale(f)
	if err != nil {
		return nil, err
	}

	out := media.NewFrame(img.Width, img.Height)
	StripStride(out.Pix, img)

	pts := f.PTS()
	if pts != decode.NoPTS {
		out.PTS = p.stream.TimeBase.Nanoseconds(pts)
	} else if p.havePTS {
		out.PTS = p.lastPTS + int64(p.interval)
	}
	if !p.havePTS {
		p.startPTS = out.PTS
		p.startTicks, p.haveTicks = pts, pts != decode.NoPTS
	}
	p.lastPTS = out.PTS
	p.havePTS = true

	// Position counts from the first frame, whatever the stream's start time.
	if pts != decode.NoPTS && p.haveTicks {
		out.Position = p.stream.TimeBase.Seconds(pts - p.startTicks)
	} else {
		out.Position = float64(out.PTS-p.startPTS) / float64(time.Second)
	}
	if out.Position < 0 {
		out.Position = 0
	}
	return out, nil
}

// scale lazily builds the scaler from the first frame and rebuilds it once
// whenever the decoded geometry or pixel format changes.
func (p *Pipeline) scale(f decode.VideoFrame) (decode.Image, error) {
	if p.scaler == nil {
		if err := p.buildScaler(f); err != nil {
			return decode.Image{}, err
		}
	}

	img, err := p.scaler.Scale(f)
	if errors.Is(err, decode.ErrFormatChanged) {
		log.Warn("Video format changed to %dx%d %s", f.Width(), f.Height(), f.PixelFormat())
		p.scaler.Close()
		p.scaler = nil
		if err := p.buildScaler(f); err != nil {
			return decode.Image{}, err
		}
		img, err = p.scaler.Scale(f)
	}
	if err != nil {
		return decode.Image{}, errors.Wrap(err, "video scale")
	}
	return img, nil
}

func (p *Pipeline) buildScaler(f decode.VideoFrame) error {
	s, err := p.dec.NewScaler(f, p.config.Width, p.config.Height)
	if err != nil {
		return errors.Wrapf(err, "creating scaler for %dx%d %s", f.Width(), f.Height(), f.PixelFormat())
	}
	log.Info("Scaling %dx%d %s to RGBA", f.Width(), f.Height(), f.PixelFormat())
	p.scaler = s
	return nil
}

// push waits for queue space, checking the stop flag between attempts.
func (p *Pipeline) push(f *media.Frame) error {
	for !p.queue.TryPush(f) {
		if p.stopped() {
			return media.ErrStopped
		}
		time.Sleep(p.config.RetryInterval)
	}
	atomic.AddUint64(&p.frames, 1)
	return nil
}

// StripStride copies an image into dst as rows of exactly Width*4 bytes,
// dropping any row padding.
func StripStride(dst []byte, img decode.Image) {
	row := img.Width * 4
	if img.Stride == row {
		copy(dst, img.Pix[:row*img.Height])
		return
	}
	for y := 0; y < img.Height; y++ {
		src := img.Pix[y*img.Stride:]
		copy(dst[y*row:(y+1)*row], src[:row])
	}
}
