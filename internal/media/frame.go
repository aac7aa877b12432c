package media

import (
	"fmt"
	"time"

	"github.com/pkg/errors"
)

// Frame is one decoded video picture, converted to tightly packed RGBA8.
// A Frame is immutable once it has been pushed to a VideoQueue.
type Frame struct {
	Width  int
	Height int

	// Pix holds Height rows of Width*4 bytes, with no padding between rows.
	Pix []byte

	// Presentation timestamp, in nanoseconds.
	PTS int64

	// Presentation time in seconds since the start of the stream.
	Position float64
}

// NewFrame allocates a frame with an RGBA buffer of the given size.
func NewFrame(width, height int) *Frame {
	return &Frame{
		Width:  width,
		Height: height,
		Pix:    make([]byte, width*height*4),
	}
}

// Validate checks that the pixel buffer is exactly Width*Height*4 bytes.
func (f *Frame) Validate() error {
	if f.Width <= 0 || f.Height <= 0 || len(f.Pix) != f.Width*f.Height*4 {
		return errors.Wrapf(errBadFrame, "%dx%d with %d bytes", f.Width, f.Height, len(f.Pix))
	}
	return nil
}

// Timestamp returns the presentation timestamp as a duration.
func (f *Frame) Timestamp() time.Duration {
	return time.Duration(f.PTS)
}

func (f *Frame) String() string {
	return fmt.Sprintf("frame %dx%d pts=%v pos=%.3fs", f.Width, f.Height, f.Timestamp(), f.Position)
}
