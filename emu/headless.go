package emu

import (
	"math"
	"time"
)

// HeadlessOutput is an Output without window, for running cores without
// display, in scripts or tests.
type HeadlessOutput struct {
	refresh float64
	period  time.Duration
	limit   int
	frames  int

	pace bool
	next time.Time
}

// NewHeadlessOutput returns an output refreshing at the given rate, which
// stops after frames presents (0 for no limit). When pace is set, Present
// sleeps to honor the refresh rate, otherwise the output runs as fast as
// possible.
func NewHeadlessOutput(refresh float64, frames int, pace bool) *HeadlessOutput {
	if refresh <= 0 {
		refresh = DefaultFPS
	}
	if frames <= 0 {
		frames = math.MaxInt
	}
	return &HeadlessOutput{
		refresh: refresh,
		period:  time.Duration(float64(time.Second) / refresh),
		limit:   frames,
		pace:    pace,
	}
}

func (ho *HeadlessOutput) Poll() bool { return ho.frames < ho.limit }

func (ho *HeadlessOutput) Present() {
	ho.frames++
	if !ho.pace {
		return
	}
	now := time.Now()
	if ho.next.IsZero() || now.Sub(ho.next) > ho.period {
		ho.next = now
	}
	ho.next = ho.next.Add(ho.period)
	time.Sleep(ho.next.Sub(now))
}

// Now returns the time of the output: the number of presents times the
// refresh period. It's used as the emulation clock when not pacing.
func (ho *HeadlessOutput) Now() time.Time {
	return epoch.Add(time.Duration(ho.frames) * ho.period)
}

var epoch = time.Unix(0, 0)

func (ho *HeadlessOutput) RefreshRate() float64 { return ho.refresh }
func (ho *HeadlessOutput) Frames() int          { return ho.frames }
func (ho *HeadlessOutput) Close() error         { return nil }
