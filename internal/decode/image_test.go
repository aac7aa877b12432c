package decode

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImageScalerKeepsRGBAStride(t *testing.T) {
	img := &image.RGBA{
		Pix:    make([]byte, (4*4+8)*2),
		Stride: 4*4 + 8,
		Rect:   image.Rect(0, 0, 4, 2),
	}
	img.Set(3, 1, color.RGBA{1, 2, 3, 4})
	f := &ImageFrame{Image: img, Pts: 5}

	s, err := NewImageScaler(f, 0, 0)
	require.NoError(t, err)

	out, err := s.Scale(f)
	require.NoError(t, err)
	assert.Equal(t, 24, out.Stride)
	assert.Equal(t, 4, out.Width)
	assert.Equal(t, 2, out.Height)
	assert.Equal(t, []byte{1, 2, 3, 4}, out.Pix[out.Stride+12:out.Stride+16])
}

func TestImageScalerConvertsYCbCr(t *testing.T) {
	ycc := image.NewYCbCr(image.Rect(0, 0, 4, 4), image.YCbCrSubsampleRatio420)
	for i := range ycc.Y {
		ycc.Y[i] = 235
	}
	for i := range ycc.Cb {
		ycc.Cb[i] = 128
		ycc.Cr[i] = 128
	}
	f := &ImageFrame{Image: ycc}
	assert.Equal(t, "ycbcr420", f.PixelFormat())
	assert.Equal(t, "ycbcr444", (&ImageFrame{Image: image.NewYCbCr(image.Rect(0, 0, 2, 2), image.YCbCrSubsampleRatio444)}).PixelFormat())

	s, err := NewImageScaler(f, 0, 0)
	require.NoError(t, err)
	out, err := s.Scale(f)
	require.NoError(t, err)
	assert.Equal(t, 16, out.Stride)
	// Video white.
	assert.InDelta(t, 235, int(out.Pix[0]), 2)
	assert.Equal(t, byte(0xff), out.Pix[3])
}

func TestImageScalerResizes(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 8, 8))
	f := &ImageFrame{Image: src}

	s, err := NewImageScaler(f, 4, 2)
	require.NoError(t, err)
	out, err := s.Scale(f)
	require.NoError(t, err)
	assert.Equal(t, 4, out.Width)
	assert.Equal(t, 2, out.Height)
	assert.Equal(t, 16, out.Stride)
}

func TestImageScalerFormatChange(t *testing.T) {
	f := &ImageFrame{Image: image.NewRGBA(image.Rect(0, 0, 8, 8))}
	s, err := NewImageScaler(f, 0, 0)
	require.NoError(t, err)

	_, err = s.Scale(&ImageFrame{Image: image.NewRGBA(image.Rect(0, 0, 16, 8))})
	assert.Equal(t, ErrFormatChanged, err)

	_, err = NewImageScaler(&ImageFrame{Image: image.NewRGBA(image.Rect(0, 0, 0, 0))}, 0, 0)
	assert.Error(t, err)
}
