package input

import (
	"fmt"
	"strings"

	"github.com/veandco/go-sdl2/sdl"
)

type ControlType uint8

const (
	ControlNotSet ControlType = iota
	KeyboardCtrl
	ButtonCtrl
	AxisCtrl
)

func (t ControlType) String() string {
	switch t {
	case KeyboardCtrl:
		return "key"
	case ButtonCtrl:
		return "joy button"
	case AxisCtrl:
		return "joy axis"
	}
	return "not set"
}

// A Code identifies a physical input: a keyboard key, or the button or axis
// of a given game controller. Codes are stored as text in the configuration,
// e.g. "key W", "joybtn a <guid>" or "joyaxis lefttrigger+ <guid>".
type Code struct {
	Type ControlType

	Scancode sdl.Scancode

	CtrlGUID    string
	CtrlButton  sdl.GameControllerButton
	CtrlAxis    sdl.GameControllerAxis
	CtrlAxisDir int16
}

// Key returns the code of a keyboard key.
func Key(sc sdl.Scancode) Code { return Code{Type: KeyboardCtrl, Scancode: sc} }

// Name returns an user-friendly name for the input code.
func (c Code) Name() string {
	switch c.Type {
	case KeyboardCtrl:
		return sdl.GetScancodeName(c.Scancode)
	case ButtonCtrl:
		return sdl.GameControllerGetStringForButton(c.CtrlButton)
	case AxisCtrl:
		axis := sdl.GameControllerGetStringForAxis(c.CtrlAxis)
		if c.CtrlAxisDir >= 0 {
			return axis + "+"
		}
		return axis + "-"
	}
	return ""
}

func (c Code) MarshalText() ([]byte, error) {
	switch c.Type {
	case KeyboardCtrl:
		return fmt.Appendf(nil, "key %s", c.Name()), nil
	case ButtonCtrl:
		return fmt.Appendf(nil, "joybtn %s %s", c.Name(), c.CtrlGUID), nil
	case AxisCtrl:
		return fmt.Appendf(nil, "joyaxis %s %s", c.Name(), c.CtrlGUID), nil
	}
	return nil, nil
}

func (c *Code) UnmarshalText(text []byte) error {
	s := string(text)
	*c = Code{}

	kind, rest, _ := strings.Cut(s, " ")
	switch kind {
	case "":
		return nil

	case "key":
		// Some key names contain spaces ("Left Shift").
		name := strings.TrimSpace(rest)
		if name == "" {
			return fmt.Errorf("malformed key code: %q", s)
		}
		sc := sdl.GetScancodeFromName(name)
		if sc == sdl.SCANCODE_UNKNOWN {
			return fmt.Errorf("unrecognized key %q", name)
		}
		*c = Key(sc)

	case "joybtn":
		var name, guid string
		if _, err := fmt.Sscanf(rest, "%s %s", &name, &guid); err != nil {
			return fmt.Errorf("malformed joybtn code: %q", s)
		}
		btn := sdl.GameControllerGetButtonFromString(name)
		if btn == sdl.CONTROLLER_BUTTON_INVALID {
			return fmt.Errorf("unrecognized button %q", name)
		}
		*c = Code{Type: ButtonCtrl, CtrlButton: btn, CtrlGUID: guid}

	case "joyaxis":
		var name, guid string
		if _, err := fmt.Sscanf(rest, "%s %s", &name, &guid); err != nil {
			return fmt.Errorf("malformed joyaxis code: %q", s)
		}
		var dir int16
		switch {
		case strings.HasSuffix(name, "+"):
			dir = 1
		case strings.HasSuffix(name, "-"):
			dir = -1
		default:
			return fmt.Errorf("malformed axis direction: %q", name)
		}
		axis := sdl.GameControllerGetAxisFromString(name[:len(name)-1])
		if axis == sdl.CONTROLLER_AXIS_INVALID {
			return fmt.Errorf("unrecognized axis %q", name)
		}
		*c = Code{Type: AxisCtrl, CtrlAxis: axis, CtrlAxisDir: dir, CtrlGUID: guid}

	default:
		return fmt.Errorf("unrecognized input code: %q", s)
	}
	return nil
}
