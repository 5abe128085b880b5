package input

import (
	"sync/atomic"

	"github.com/veandco/go-sdl2/sdl"
)

// A Preset maps each joypad button, and the fast-forward hotkey, to a
// physical input.
type Preset struct {
	Buttons     [NumButtons]Code `toml:"buttons"`
	FastForward Code             `toml:"fast_forward"`
}

// DefaultPreset is a keyboard-only preset.
func DefaultPreset() Preset {
	var p Preset
	p.Buttons[Up] = Key(sdl.SCANCODE_UP)
	p.Buttons[Down] = Key(sdl.SCANCODE_DOWN)
	p.Buttons[Left] = Key(sdl.SCANCODE_LEFT)
	p.Buttons[Right] = Key(sdl.SCANCODE_RIGHT)
	p.Buttons[A] = Key(sdl.SCANCODE_X)
	p.Buttons[B] = Key(sdl.SCANCODE_Z)
	p.Buttons[X] = Key(sdl.SCANCODE_S)
	p.Buttons[Y] = Key(sdl.SCANCODE_A)
	p.Buttons[L] = Key(sdl.SCANCODE_Q)
	p.Buttons[R] = Key(sdl.SCANCODE_W)
	p.Buttons[Select] = Key(sdl.SCANCODE_RSHIFT)
	p.Buttons[Start] = Key(sdl.SCANCODE_RETURN)
	p.FastForward = Key(sdl.SCANCODE_TAB)
	return p
}

// Provider is a Bridge reading the SDL keyboard and game controllers through
// a preset.
type Provider struct {
	keystate []uint8
	ctrls    *GameControllers
	preset   Preset

	buttons atomic.Uint32
	ff      atomic.Bool
}

// NewProvider creates a provider. ctrls may be nil, in which case controller
// codes never report pressed.
func NewProvider(preset Preset, ctrls *GameControllers) *Provider {
	var keystate []uint8
	sdl.Do(func() { keystate = sdl.GetKeyboardState() })
	return &Provider{keystate: keystate, ctrls: ctrls, preset: preset}
}

func (p *Provider) pressed(c Code) bool {
	switch c.Type {
	case KeyboardCtrl:
		return int(c.Scancode) < len(p.keystate) && p.keystate[c.Scancode] != 0
	case ButtonCtrl:
		if p.ctrls == nil {
			return false
		}
		if ctrl := p.ctrls.byGUID(c.CtrlGUID); ctrl != nil {
			return ctrl.Button(c.CtrlButton) != 0
		}
	case AxisCtrl:
		if p.ctrls == nil {
			return false
		}
		if ctrl := p.ctrls.byGUID(c.CtrlGUID); ctrl != nil {
			v := int32(ctrl.Axis(c.CtrlAxis)) * int32(c.CtrlAxisDir)
			return v >= JoyAxisThreshold
		}
	}
	return false
}

// Poll samples the inputs mapped by the preset.
func (p *Provider) Poll() {
	var state uint32
	for i, code := range p.preset.Buttons {
		if p.pressed(code) {
			state |= 1 << i
		}
	}
	p.buttons.Store(state)
	p.ff.Store(p.pressed(p.preset.FastForward))
}

func (p *Provider) Buttons() uint16 { return uint16(p.buttons.Load()) }

// FastForward reports whether the fast-forward hotkey was held at last poll.
func (p *Provider) FastForward() bool { return p.ff.Load() }
