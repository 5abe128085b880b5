package input

import (
	"fmt"
	"time"

	"github.com/veandco/go-sdl2/sdl"

	"corehost/emu/log"
)

// Capture opens a small window and waits for the next key or game controller
// press, to be mapped onto btn. It returns an unset Code if the user pressed
// Escape or closed the window. SDL must not be initialized.
func Capture(btn string) (Code, error) {
	var code Code

	if err := sdl.Init(sdl.INIT_VIDEO | sdl.INIT_GAMECONTROLLER); err != nil {
		return code, fmt.Errorf("failed to initialize SDL: %s", err)
	}
	defer sdl.Quit()

	win, err := sdl.CreateWindow(
		"Press a key or button for "+btn,
		sdl.WINDOWPOS_CENTERED,
		sdl.WINDOWPOS_CENTERED,
		400, 120,
		sdl.WINDOW_SHOWN,
	)
	if err != nil {
		return code, fmt.Errorf("failed to create window: %s", err)
	}
	defer win.Destroy()

	gamectrls := NewGameControllers()
	defer gamectrls.Close()

	// Drain the events queue before starting. This removes previous events
	// which could have been generated during the release of a joystick trigger
	// for example.
	drainEvents(200 * time.Millisecond)

	for {
		event := sdl.WaitEventTimeout(100)
		if event == nil {
			continue
		}
		switch e := event.(type) {
		case sdl.QuitEvent:
			return code, nil

		case sdl.KeyboardEvent:
			if e.State == sdl.PRESSED {
				if e.Keysym.Scancode != sdl.SCANCODE_ESCAPE {
					code = Key(e.Keysym.Scancode)
				}
				return code, nil
			}

		case sdl.ControllerDeviceEvent:
			gamectrls.UpdateDevices(e)

		case sdl.ControllerButtonEvent:
			if e.Type == sdl.CONTROLLERBUTTONDOWN {
				code = Code{Type: ButtonCtrl, CtrlButton: sdl.GameControllerButton(e.Button), CtrlGUID: gamectrls.GUID(e.Which)}
				log.ModInput.DebugZ("captured").String("code", code.Name()).End()
				return code, nil
			}

		case sdl.ControllerAxisEvent:
			if e.Value < -JoyAxisThreshold || e.Value > JoyAxisThreshold {
				code = Code{
					Type:        AxisCtrl,
					CtrlAxis:    sdl.GameControllerAxis(e.Axis),
					CtrlAxisDir: axissign(e.Value),
					CtrlGUID:    gamectrls.GUID(e.Which),
				}
				log.ModInput.DebugZ("captured").String("code", code.Name()).End()
				return code, nil
			}
		}
	}
}

// Drain the events queue. Since some joystick axes are noisy, wait just long
// enough to drain 'actual' events, like the ones generated when releasing a
// joystick trigger.
func drainEvents(maxwait time.Duration) {
	deadline := time.Now().Add(maxwait)
	for sdl.PollEvent() != nil {
		if time.Now().After(deadline) {
			break
		}
	}
}
