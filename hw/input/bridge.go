// Package input provides the joypad state read by cores: a 16-bit mask of
// pressed buttons, polled once per frame.
package input

import "sync/atomic"

// A Button is a libretro joypad button id.
type Button uint8

const (
	B Button = iota
	Y
	Select
	Start
	Up
	Down
	Left
	Right
	A
	X
	L
	R
	L2
	R2
	L3
	R3

	NumButtons
)

var buttonNames = [NumButtons]string{
	"B", "Y", "Select", "Start",
	"Up", "Down", "Left", "Right",
	"A", "X", "L", "R",
	"L2", "R2", "L3", "R3",
}

func (b Button) String() string {
	if b >= NumButtons {
		return "unknown"
	}
	return buttonNames[b]
}

// ButtonByName returns the button with the given name (case sensitive).
func ButtonByName(name string) (Button, bool) {
	for i, n := range buttonNames {
		if n == name {
			return Button(i), true
		}
	}
	return 0, false
}

// A Bridge provides the joypad state to a core. Poll is called by the core
// once per frame, before reading buttons.
type Bridge interface {
	Poll()
	Buttons() uint16
}

// State answers a core input_state query from b. Only the first port is
// connected, and it reports the same buttons whether queried as a joypad or
// as an unspecified device.
func State(b Bridge, port, device, index, id uint32) int16 {
	if b == nil || port != 0 || device > 1 || id >= uint32(NumButtons) {
		return 0
	}
	return int16(b.Buttons()>>id) & 1
}

// Mask is a Bridge whose buttons are set programmatically. It's safe for
// concurrent use: buttons can be pressed from any goroutine.
type Mask struct {
	bits atomic.Uint32
}

func (m *Mask) Poll() {}

func (m *Mask) Buttons() uint16 { return uint16(m.bits.Load()) }

// Set replaces the whole mask.
func (m *Mask) Set(buttons uint16) { m.bits.Store(uint32(buttons)) }

func (m *Mask) Press(b Button)   { m.bits.Or(1 << b) }
func (m *Mask) Release(b Button) { m.bits.And(^uint32(1 << b)) }
