//go:build !noffmpeg
// +build !noffmpeg

package decode

import (
	"errors"
	"testing"

	"github.com/asticode/go-astiav"
	"github.com/stretchr/testify/assert"
)

func TestFFmpegResamplerRejectsInputChange(t *testing.T) {
	r := &ffmpegResampler{}
	assert.NoError(t, r.checkInput(44100, 2))
	assert.NoError(t, r.checkInput(44100, 2))

	err := r.checkInput(48000, 2)
	assert.True(t, errors.Is(err, ErrFormatChanged), "%v", err)
	assert.True(t, errors.Is(r.checkInput(44100, 1), ErrFormatChanged))
}

func TestSwrErrorMapping(t *testing.T) {
	assert.True(t, errors.Is(swrError(astiav.ErrInputChanged), ErrFormatChanged))

	err := swrError(astiav.ErrInvaliddata)
	assert.False(t, errors.Is(err, ErrFormatChanged))
	assert.True(t, errors.Is(err, astiav.ErrInvaliddata))
}
