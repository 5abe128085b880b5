package hw

import (
	"fmt"
	"math"
	"sync"
	"sync/atomic"

	"github.com/veandco/go-sdl2/sdl"

	"corehost/emu/log"
	"corehost/hw/input"
	"corehost/hw/shaders"
	"corehost/hw/video"
)

type OutputConfig struct {
	Title       string
	Width       int // initial frame size
	Height      int
	ScaleFactor int
	AspectRatio float64

	DisableVSync bool
	Monitor      int32
	Shader       string

	// OnKey is called from the main thread for each key press.
	OnKey func(sdl.Scancode)
}

// Output is the SDL window the game is presented in. It's a video.Allocator
// creating OpenGL textures, and the video.Surface drawing them.
type Output struct {
	cfg   OutputConfig
	win   *window
	ctrls *input.GameControllers

	refresh float64

	tex    atomic.Pointer[GLTexture]
	aspect atomic.Uint64 // float64 bits

	mu       sync.Mutex
	released []*GLTexture
}

// NewOutput initializes SDL and creates the window. SDL main thread must be
// running (see sdl.Main).
func NewOutput(cfg OutputConfig) (*Output, error) {
	if cfg.ScaleFactor <= 0 {
		cfg.ScaleFactor = 2
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		cfg.Width, cfg.Height = 320, 240
	}
	if !shaders.Valid(cfg.Shader) {
		log.ModVideo.WarnZ("invalid shader, using default").
			String("shader", cfg.Shader).
			String("default", shaders.DefaultName).
			End()
		cfg.Shader = shaders.DefaultName
	}

	out := &Output{cfg: cfg}
	out.SetAspectRatio(cfg.AspectRatio)
	var err error
	sdl.Do(func() { err = out.init() })
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (out *Output) init() error {
	if err := sdl.Init(sdl.INIT_VIDEO | sdl.INIT_GAMECONTROLLER); err != nil {
		return fmt.Errorf("failed to initialize SDL: %s", err)
	}

	win, err := newWindow(out.cfg.Title, out.cfg.Width, out.cfg.Height, out.cfg.ScaleFactor, out.cfg.Monitor, out.cfg.Shader)
	if err != nil {
		sdl.Quit()
		return err
	}
	out.win = win

	interval := 1
	if out.cfg.DisableVSync {
		interval = 0
	}
	if err := sdl.GLSetSwapInterval(interval); err != nil {
		log.ModVideo.WarnZ("can't set swap interval").Error("err", err).End()
	}

	out.refresh = 60
	if mode, err := sdl.GetCurrentDisplayMode(int(out.cfg.Monitor)); err == nil && mode.RefreshRate > 0 {
		out.refresh = float64(mode.RefreshRate)
	}

	out.ctrls = input.NewGameControllers()

	log.ModVideo.InfoZ("window created").
		Int("width", out.cfg.Width*out.cfg.ScaleFactor).
		Int("height", out.cfg.Height*out.cfg.ScaleFactor).
		Float("refresh", out.refresh).
		Bool("vsync", !out.cfg.DisableVSync).
		String("shader", out.cfg.Shader).
		End()
	return nil
}

// RefreshRate returns the refresh rate of the monitor the window is on.
func (out *Output) RefreshRate() float64 { return out.refresh }

// Controllers returns the game controllers connected.
func (out *Output) Controllers() *input.GameControllers { return out.ctrls }

func (out *Output) NewTexture(w, h int) (video.Texture, error) {
	return newGLTexture(w, h), nil
}

// Release schedules the deletion of a texture on the OpenGL thread. A
// released texture stops being drawn, even if it was the current one.
func (out *Output) Release(tex video.Texture) {
	gltex, ok := tex.(*GLTexture)
	if !ok || gltex.released.Swap(true) {
		return
	}
	out.tex.CompareAndSwap(gltex, nil)
	out.mu.Lock()
	out.released = append(out.released, gltex)
	out.mu.Unlock()
}

// takeReleased returns the textures released since the last call.
func (out *Output) takeReleased() []*GLTexture {
	out.mu.Lock()
	defer out.mu.Unlock()
	released := out.released
	out.released = nil
	return released
}

// SetAspectRatio sets the display aspect ratio of frames. With 0, frames
// are stretched to the window.
func (out *Output) SetAspectRatio(aspect float64) {
	out.aspect.Store(math.Float64bits(aspect))
}

// Redraw selects the texture drawn at the next Present.
func (out *Output) Redraw(tex video.Texture) {
	if gltex, ok := tex.(*GLTexture); ok && !gltex.released.Load() {
		out.tex.Store(gltex)
	}
}

// Poll processes the pending window events. It returns false when the user
// closed the window.
func (out *Output) Poll() bool {
	running := true
	sdl.Do(func() {
		for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
			switch e := event.(type) {
			case sdl.QuitEvent:
				running = false
			case sdl.KeyboardEvent:
				if e.Type == sdl.KEYDOWN && e.Repeat == 0 && out.cfg.OnKey != nil {
					out.cfg.OnKey(e.Keysym.Scancode)
				}
			case sdl.ControllerDeviceEvent:
				out.ctrls.UpdateDevices(e)
			}
		}
	})
	return running
}

// Present draws the current texture. With vsync, it blocks until the next
// display refresh.
func (out *Output) Present() {
	sdl.Do(func() {
		for _, tex := range out.takeReleased() {
			tex.delete()
		}

		out.win.draw(out.tex.Load(), math.Float64frombits(out.aspect.Load()))
	})
}

func (out *Output) Close() error {
	var err error
	sdl.Do(func() {
		if tex := out.tex.Load(); tex != nil {
			tex.delete()
		}
		for _, tex := range out.takeReleased() {
			tex.delete()
		}
		out.ctrls.Close()
		err = out.win.destroy()
		sdl.Quit()
	})
	return err
}
