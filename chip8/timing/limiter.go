package timing

import "time"

// CHIP-8 pacing constants. The instruction rate is a convention rather
// than hardware fact, so it stays configurable; the timer rate is fixed.
const (
	// DefaultCycleRate is the default instruction execution rate in Hz.
	// Most programs were written against interpreters in this range.
	DefaultCycleRate = 700
	// TimerRate is the fixed decrement rate of the delay and sound timers.
	TimerRate = 60
	// FrameRate is the presentation refresh rate.
	FrameRate = 60
)

// Limiter controls the pacing of the machine cycle loop.
type Limiter interface {
	// WaitForNextCycle blocks until it's time for the next cycle.
	// Returns immediately if timing is behind schedule.
	WaitForNextCycle()

	// Reset resets the timing state, useful after pauses.
	Reset()
}

// NewNoOpLimiter returns a limiter that doesn't limit (for headless mode).
func NewNoOpLimiter() Limiter {
	return &noOpLimiter{}
}

type noOpLimiter struct{}

func (n *noOpLimiter) WaitForNextCycle() {}
func (n *noOpLimiter) Reset()            {}

// CyclePeriod returns the duration of one instruction cycle at the given
// rate in Hz.
func CyclePeriod(rate int) time.Duration {
	if rate <= 0 {
		rate = DefaultCycleRate
	}
	return time.Duration(float64(time.Second) / float64(rate))
}

// TimerPeriod returns the duration between timer decrements.
func TimerPeriod() time.Duration {
	return time.Second / TimerRate
}

// FramePeriod returns the target duration of one presentation frame.
func FramePeriod() time.Duration {
	return time.Second / FrameRate
}
