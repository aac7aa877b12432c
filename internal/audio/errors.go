package audio

import "errors"

var (
	// ErrNoDevice means the audio output device could not be opened.
	ErrNoDevice = errors.New("Audio device unavailable")
)
