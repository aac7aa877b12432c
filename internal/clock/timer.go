package clock

import "time"

// Timer is a repeating countdown advanced explicitly by the consumer's tick
// delta rather than by wall-clock callbacks.
type Timer struct {
	interval time.Duration
	elapsed  time.Duration
}

// NewTimer returns a timer that fires on the first Tick, so the first frame
// is shown without delay.
func NewTimer(interval time.Duration) *Timer {
	return &Timer{interval: interval, elapsed: interval}
}

// Tick advances the timer and reports whether the interval has elapsed. A
// fired timer restarts from zero.
func (t *Timer) Tick(delta time.Duration) bool {
	t.elapsed += delta
	if t.elapsed < t.interval {
		return false
	}
	t.elapsed = 0
	return true
}

// SetInterval changes the interval for the current and following periods.
func (t *Timer) SetInterval(d time.Duration) {
	t.interval = d
}

func (t *Timer) Interval() time.Duration {
	return t.interval
}
