package emu

import (
	"testing"
	"time"
)

// countTicks drives the clock with n display refreshes at the given rate.
func countTicks(c *PacedClock, display float64, n int) int {
	period := time.Duration(float64(time.Second) / display)
	start := time.Unix(1000, 0)
	ticks := 0
	for i := range n {
		if c.Due(start.Add(time.Duration(i) * period)) {
			ticks++
		}
	}
	return ticks
}

func TestPacedClockRate(t *testing.T) {
	tests := []struct {
		name         string
		display, fps float64
		want         float64
	}{
		{"same", 60, 60, 60},
		{"faster display", 144, 59.94, 59.94},
		{"slower display", 50, 60, 50},
		{"unknown display", 0, 75, 75},
		{"default fps", 60, 0, 60},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewPacedClock(tt.display)
			if c.Rate() != 0 {
				t.Errorf("Rate() = %v before Arm, want 0", c.Rate())
			}
			c.Arm(tt.fps)
			if got := c.Rate(); got != tt.want {
				t.Errorf("Rate() = %v, want %v", got, tt.want)
			}
			c.Disarm()
			if c.Rate() != 0 {
				t.Errorf("Rate() = %v after Disarm, want 0", c.Rate())
			}
		})
	}
}

func TestPacedClockDue(t *testing.T) {
	tests := []struct {
		name         string
		display, fps float64
		refreshes    int
		min, max     int
	}{
		{"60 on 60", 60, 60, 600, 600, 600},
		{"60 on 120", 120, 60, 600, 299, 301},
		{"60 on 144", 144, 60, 1440, 599, 601},
		{"59.7 on 60", 60, 59.7, 600, 596, 598},
		{"60 on 50", 50, 60, 500, 500, 500},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewPacedClock(tt.display)
			c.Arm(tt.fps)
			got := countTicks(c, tt.display, tt.refreshes)
			if got < tt.min || got > tt.max {
				t.Errorf("got %d ticks, want [%d, %d]", got, tt.min, tt.max)
			}
		})
	}
}

func TestPacedClockFirstTickImmediate(t *testing.T) {
	c := NewPacedClock(60)
	now := time.Unix(1000, 0)
	if c.Due(now) {
		t.Fatalf("disarmed clock is due")
	}
	c.Arm(30)
	if !c.Due(now) {
		t.Errorf("first tick after Arm not due")
	}
	if c.Due(now.Add(time.Second / 60)) {
		t.Errorf("30fps clock due after 1/60s")
	}
	if !c.Due(now.Add(time.Second / 30)) {
		t.Errorf("30fps clock not due after 1/30s")
	}
}

func TestPacedClockHalt(t *testing.T) {
	c := NewPacedClock(60)
	c.Arm(60)
	now := time.Unix(1000, 0)
	c.Due(now)

	c.Halt(true)
	for i := range 10 {
		if c.Due(now.Add(time.Duration(i+1) * time.Second / 60)) {
			t.Fatalf("halted clock is due")
		}
	}
	if c.Rate() != 60 {
		t.Errorf("Rate() = %v while halted, want 60", c.Rate())
	}

	// No catch up of the frames missed while halted.
	c.Halt(false)
	later := now.Add(10 * time.Second)
	ticks := 0
	for i := range 10 {
		if c.Due(later.Add(time.Duration(i) * time.Second / 60)) {
			ticks++
		}
	}
	if ticks != 10 {
		t.Errorf("got %d ticks after resume, want 10", ticks)
	}
}

func TestPacedClockStall(t *testing.T) {
	c := NewPacedClock(60)
	c.Arm(60)
	now := time.Unix(1000, 0)
	c.Due(now)

	// A 1s stall only allows one extra tick.
	now = now.Add(time.Second)
	if !c.Due(now) {
		t.Fatal("not due after stall")
	}
	ticks := 0
	for i := range 10 {
		if c.Due(now.Add(time.Duration(i+1) * time.Second / 60)) {
			ticks++
		}
	}
	if ticks > 10 {
		t.Errorf("got %d ticks after stall, want at most 10", ticks)
	}
}
