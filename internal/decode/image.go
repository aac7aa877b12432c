package decode

import (
	"fmt"
	"image"

	"golang.org/x/image/draw"
	"golang.org/x/xerrors"
)

// ImageFrame is a VideoFrame backed by a Go image, typically *image.YCbCr or
// *image.RGBA.
type ImageFrame struct {
	Image image.Image
	Pts   int64
}

func (f *ImageFrame) Width() int  { return f.Image.Bounds().Dx() }
func (f *ImageFrame) Height() int { return f.Image.Bounds().Dy() }
func (f *ImageFrame) PTS() int64  { return f.Pts }

func (f *ImageFrame) PixelFormat() string {
	switch img := f.Image.(type) {
	case *image.RGBA:
		return "rgba"
	case *image.YCbCr:
		return "ycbcr" + subsampleNames[img.SubsampleRatio]
	default:
		return fmt.Sprintf("%T", img)
	}
}

var subsampleNames = map[image.YCbCrSubsampleRatio]string{
	image.YCbCrSubsampleRatio444: "444",
	image.YCbCrSubsampleRatio422: "422",
	image.YCbCrSubsampleRatio420: "420",
	image.YCbCrSubsampleRatio440: "440",
	image.YCbCrSubsampleRatio411: "411",
	image.YCbCrSubsampleRatio410: "410",
}

// imageScaler converts ImageFrames to RGBA with golang.org/x/image/draw.
type imageScaler struct {
	srcW, srcH int
	srcFormat  string
	resize     bool
	dst        *image.RGBA
}

// NewImageScaler builds a scaler for ImageFrames shaped like src. Zero width
// or height keeps the source size.
func NewImageScaler(src VideoFrame, width, height int) (Scaler, error) {
	if _, ok := src.(*ImageFrame); !ok {
		return nil, errWrongFrame
	}
	if src.Width() <= 0 || src.Height() <= 0 {
		return nil, xerrors.Errorf("scale: invalid source size %dx%d", src.Width(), src.Height())
	}
	if width <= 0 || height <= 0 {
		width, height = src.Width(), src.Height()
	}
	return &imageScaler{
		srcW:      src.Width(),
		srcH:      src.Height(),
		srcFormat: src.PixelFormat(),
		resize:    width != src.Width() || height != src.Height(),
		dst:       image.NewRGBA(image.Rect(0, 0, width, height)),
	}, nil
}

func (s *imageScaler) Scale(f VideoFrame) (Image, error) {
	frame, ok := f.(*ImageFrame)
	if !ok {
		return Image{}, errWrongFrame
	}
	if f.Width() != s.srcW || f.Height() != s.srcH || f.PixelFormat() != s.srcFormat {
		return Image{}, ErrFormatChanged
	}

	src := frame.Image
	switch {
	case s.resize:
		draw.BiLinear.Scale(s.dst, s.dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	default:
		if rgba, ok := src.(*image.RGBA); ok {
			// Already RGBA, possibly with padded rows.
			return Image{
				Pix:    rgba.Pix[rgba.PixOffset(rgba.Rect.Min.X, rgba.Rect.Min.Y):],
				Stride: rgba.Stride,
				Width:  s.srcW,
				Height: s.srcH,
			}, nil
		}
		draw.Draw(s.dst, s.dst.Bounds(), src, src.Bounds().Min, draw.Src)
	}

	b := s.dst.Bounds()
	return Image{Pix: s.dst.Pix, Stride: s.dst.Stride, Width: b.Dx(), Height: b.Dy()}, nil
}

func (s *imageScaler) Close() error {
	return nil
}
