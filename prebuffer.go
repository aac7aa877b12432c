package alohaplay

// prebufferGate decides when enough media is buffered to start playback. A
// threshold for a stream that is not being decoded is trivially met.
type prebufferGate struct {
	frames  int
	samples int
	video   bool
	audio   bool
}

func (g prebufferGate) satisfied(frames, samples int) bool {
	return (!g.video || frames >= g.frames) && (!g.audio || samples >= g.samples)
}
