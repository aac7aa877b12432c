package alohaplay

import "errors"

var (
	ErrInvalidConfig = errors.New("Invalid configuration")

	errNoStreams = errors.New("No playable stream")
)
