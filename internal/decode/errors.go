package decode

import "errors"

var (
	// ErrAgain means the decoder needs more input before it can produce
	// output, or must be drained before accepting more input.
	ErrAgain = errors.New("Resource temporarily unavailable")

	// ErrNoBackend means no registered backend accepts the source URI.
	ErrNoBackend = errors.New("No decode backend for source")

	// ErrFormatChanged is returned by a Scaler or Resampler fed a frame whose
	// format differs from the one it was built for.
	ErrFormatChanged = errors.New("Frame format changed")

	errWrongFrame   = errors.New("Frame does not belong to this backend")
	errWrongPacket  = errors.New("Packet does not belong to this backend")
	errNoStream     = errors.New("No such stream")
	errNotSupported = errors.New("Not supported")
)

func isFormatChanged(err error) bool {
	return errors.Is(err, ErrFormatChanged)
}
