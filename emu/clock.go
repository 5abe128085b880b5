package emu

import (
	"math"
	"time"
)

// A FrameClock schedules the frame pump ticks.
type FrameClock interface {
	// Arm starts ticking at fps, replacing any previous rate.
	Arm(fps float64)
	// Halt suspends ticks, or resumes them, without losing the rate.
	Halt(halted bool)
	// Disarm stops ticking, Arm must be called again.
	Disarm()
	// Rate returns the tick rate, 0 when disarmed.
	Rate() float64
}

// A tick is due when the accumulator reaches dueThreshold, which absorbs the
// jitter of refreshes arriving slightly early.
const dueThreshold = 0.95

// PacedClock is the FrameClock of a display loop: Due is called once per
// display refresh and reports whether the pump should tick. When the display
// refreshes faster than the core, ticks are spread to keep the core rate.
type PacedClock struct {
	display float64
	fps     float64
	halted  bool

	acc  float64
	last time.Time
}

// NewPacedClock returns a clock driven at the display refresh rate. A
// display rate of 0 means unknown, the core rate is then never capped.
func NewPacedClock(display float64) *PacedClock {
	return &PacedClock{display: display}
}

func (c *PacedClock) Arm(fps float64) {
	if fps <= 0 {
		fps = 60
	}
	c.fps = fps
	c.halted = false
	c.restart()
}

func (c *PacedClock) Halt(halted bool) {
	if c.halted != halted {
		c.halted = halted
		c.restart()
	}
}

func (c *PacedClock) Disarm() {
	c.fps = 0
	c.restart()
}

// Rate returns the rate the clock is locked to: the core rate, unless the
// display can't keep up with it.
func (c *PacedClock) Rate() float64 {
	if c.fps == 0 {
		return 0
	}
	if c.display > 0 {
		return math.Min(c.fps, c.display)
	}
	return c.fps
}

func (c *PacedClock) restart() {
	c.acc = 0
	c.last = time.Time{}
}

// Due reports whether a tick is due at now. The first call after arming is
// always due.
func (c *PacedClock) Due(now time.Time) bool {
	rate := c.Rate()
	if rate == 0 || c.halted {
		return false
	}
	if c.last.IsZero() {
		c.last = now
		return true
	}

	c.acc += now.Sub(c.last).Seconds() * rate
	c.last = now
	if c.acc < dueThreshold {
		return false
	}
	c.acc--
	// Don't try to catch up after a stall.
	c.acc = min(c.acc, 1)
	return true
}
