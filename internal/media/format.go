package media

import (
	"fmt"
	"time"
)

// AudioFormat describes interleaved float32 PCM as delivered to the output
// device.
type AudioFormat struct {
	SampleRate int
	Channels   int
}

// DefaultAudioFormat is used when the source carries no audio stream.
var DefaultAudioFormat = AudioFormat{SampleRate: 48000, Channels: 2}

func (f AudioFormat) Valid() bool {
	return f.SampleRate > 0 && f.Channels > 0
}

// Samples returns the number of interleaved samples covering d.
func (f AudioFormat) Samples(d time.Duration) int {
	return int(d.Seconds()*float64(f.SampleRate)) * f.Channels
}

// Duration returns the play time of n interleaved samples.
func (f AudioFormat) Duration(n int) time.Duration {
	if !f.Valid() {
		return 0
	}
	frames := n / f.Channels
	return time.Duration(frames) * time.Second / time.Duration(f.SampleRate)
}

func (f AudioFormat) String() string {
	return fmt.Sprintf("%d Hz/%d ch", f.SampleRate, f.Channels)
}
