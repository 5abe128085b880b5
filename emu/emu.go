package emu

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/veandco/go-sdl2/sdl"

	"corehost/emu/log"
	"corehost/hw"
	"corehost/hw/audio"
	"corehost/hw/input"
	"corehost/hw/video"
	"corehost/rom"
)

type Output interface {
	Poll() bool
	Present()
	RefreshRate() float64
	Close() error
}

var (
	ErrNotRunning    = errors.New("emulator not running")
	ErrNoSaveStates  = errors.New("save states not available")
	ErrStateRejected = errors.New("state rejected by core")
	ErrNoReset       = errors.New("reset not available")
)

// NumSlots is the number of save state slots.
const NumSlots = 10

type Options struct {
	Console *Console
	Library string // core library path

	Headless bool
	// Frames limits the number of frames the emulator runs, 0 for no limit.
	Frames int
	// Pace makes headless emulation run in real time.
	Pace bool
	// Screenshot is the PNG file the last frame is written to, in headless
	// mode.
	Screenshot string

	Loader Loader
}

// Status is a snapshot of the emulator state.
type Status struct {
	Console     string
	Game        string
	State       State
	FPS         float64
	SampleRate  float64
	FastForward bool
	Frames      uint64
	Audio       audio.Stats
}

// Emulator runs a game in a display loop. All its exported methods can be
// called concurrently with Run, they are marshalled onto the loop.
type Emulator struct {
	console *Console
	game    *rom.ROM
	docs    string

	out     Output
	hwout   *hw.Output
	sink    *video.Sink
	stream  audio.Stream
	session *Session
	clock   *PacedClock
	pump    *Pump
	holdFF  func() bool
	now     func() time.Time

	screenshot string

	reqs chan func()
	done chan struct{}

	// These are accessed concurrently by the emulator loop and the UI.
	quit   atomic.Bool
	paused atomic.Bool
	ff     atomic.Bool
	slot   atomic.Int32
}

// Launch creates the output, audio and input of a console, loads its core
// and starts the game. It doesn't start the emulation loop, call Run() for
// that.
func Launch(game *rom.ROM, cfg Config, opts Options) (*Emulator, error) {
	c := opts.Console
	e := &Emulator{
		console:    c,
		game:       game,
		docs:       cfg.General.DocumentsDir,
		screenshot: opts.Screenshot,
		holdFF:     func() bool { return false },
		now:        time.Now,
		reqs:       make(chan func(), 16),
		done:       make(chan struct{}),
	}

	var (
		alloc  video.Allocator = video.ImageAllocator{}
		bridge input.Bridge
	)
	if opts.Headless {
		ho := NewHeadlessOutput(cfg.Video.RefreshRate, opts.Frames, opts.Pace)
		if !opts.Pace {
			e.now = ho.Now
		}
		e.out = ho
		bridge = &input.Mask{}
	} else {
		out, err := hw.NewOutput(hw.OutputConfig{
			Title:        "corehost - " + c.Name,
			ScaleFactor:  cfg.Video.Scale,
			DisableVSync: cfg.Video.DisableVSync,
			Monitor:      cfg.Video.Monitor,
			Shader:       cfg.Video.Shader,
			OnKey:        e.onKey,
		})
		if err != nil {
			return nil, err
		}
		e.out, e.hwout = out, out
		alloc = out

		prov := input.NewProvider(cfg.Input.Preset(c.Tag), out.Controllers())
		e.holdFF = prov.FastForward
		bridge = prov
	}

	e.sink = video.NewSink(alloc)
	if e.hwout != nil {
		e.sink.AddSurface(e.hwout)
	}
	e.stream = newAudioStream(cfg.Audio, c, opts.Headless)
	e.session = NewSession(c, e.docs, e.sink, e.stream, bridge)
	e.clock = NewPacedClock(e.out.RefreshRate())
	e.pump = NewPump(PumpConfig{
		Library:              opts.Library,
		Loader:               opts.Loader,
		Session:              e.session,
		Audio:                e.stream,
		Clock:                e.clock,
		SampleRateCorrection: cfg.Emulation.SampleRateCorrectionFor(c),
	})

	if err := e.pump.LoadGame(game); err != nil {
		e.release()
		return nil, err
	}
	if e.hwout != nil {
		e.hwout.SetAspectRatio(float64(e.pump.AVInfo().AspectRatio))
	}
	return e, nil
}

func newAudioStream(acfg AudioConfig, c *Console, headless bool) audio.Stream {
	if acfg.DisableAudio || headless {
		log.ModEmu.WarnZ("Audio disabled").End()
		return &audio.NullStream{}
	}

	strategy := c.Audio
	if acfg.Strategy != "" {
		strategy = acfg.Strategy
	}
	if strategy == QueueAudio {
		log.ModEmu.InfoZ("Audio enabled").String("strategy", string(strategy)).End()
		return audio.NewQueueStream(&audio.SDLDevice{}, acfg.QueueThreshold, acfg.MaxInFlight)
	}

	dev, err := audio.NewOtoDevice(acfg.DeviceRate)
	if err != nil {
		log.ModEmu.WarnZ("Audio disabled").Error("err", err).End()
		return &audio.NullStream{}
	}
	log.ModEmu.InfoZ("Audio enabled").
		String("strategy", string(strategy)).
		Int("device_rate", dev.SampleRate()).
		End()
	return audio.NewRingStream(dev, acfg.RingCapacity)
}

// Run runs the emulation loop until the window is closed, the frame limit
// is reached or Stop is called.
func (e *Emulator) Run() {
	for e.out.Poll() {
		e.handleRequests()
		e.handlePause()
		if e.quit.Load() {
			e.pump.Stop()
		}
		if e.pump.State() == Stopped {
			break
		}

		e.pump.SetFastForward(e.ff.Load() || e.holdFF())
		if e.clock.Due(e.now()) {
			e.pump.Tick()
		}
		e.out.Present()
	}
	close(e.done)
	log.ModEmu.InfoZ("Emulation loop exited").Uint("frames", e.session.Frames()).End()

	e.saveScreenshot()
	e.release()
}

func (e *Emulator) release() {
	if err := e.pump.Close(); err != nil {
		log.ModEmu.WarnZ("Failed to close core").Error("err", err).End()
	}
	e.sink.Close()
	if err := e.out.Close(); err != nil {
		log.ModEmu.WarnZ("Failed to close output").Error("err", err).End()
	}
}

func (e *Emulator) saveScreenshot() {
	if e.screenshot == "" {
		return
	}
	img, ok := e.sink.Texture().(*video.Image)
	if !ok {
		log.ModEmu.WarnZ("No frame to save").String("path", e.screenshot).End()
		return
	}
	if err := video.SaveAsPNG(img.RGBA(), e.screenshot); err != nil {
		log.ModEmu.WarnZ("Failed to save screenshot").String("path", e.screenshot).Error("err", err).End()
	}
}

func (e *Emulator) handleRequests() {
	for {
		select {
		case req := <-e.reqs:
			req()
		default:
			return
		}
	}
}

func (e *Emulator) handlePause() {
	switch paused := e.paused.Load(); {
	case paused && e.pump.State() == Running:
		e.pump.Pause()
	case !paused && e.pump.State() == Paused:
		e.pump.Resume()
	}
}

// do runs fn on the emulator loop and waits for its result.
func (e *Emulator) do(fn func() error) error {
	errc := make(chan error, 1)
	select {
	case e.reqs <- func() { errc <- fn() }:
	case <-e.done:
		return ErrNotRunning
	}
	select {
	case err := <-errc:
		return err
	case <-e.done:
		return ErrNotRunning
	}
}

// post runs fn on the emulator loop, without waiting. It never blocks: the
// request is dropped if too many are pending.
func (e *Emulator) post(fn func()) {
	select {
	case e.reqs <- fn:
	default:
		log.ModEmu.WarnZ("Request dropped").End()
	}
}

// SetPause, SetFastForward and Stop allows to control
// the emulator loop in a concurrent-safe way.

func (e *Emulator) SetPause(pause bool)       { e.paused.CompareAndSwap(!pause, pause) }
func (e *Emulator) SetFastForward(ff bool)    { e.ff.Store(ff) }
func (e *Emulator) Stop()                     { e.quit.Store(true) }
func (e *Emulator) IsPaused() bool            { return e.paused.Load() }
func (e *Emulator) Session() *Session         { return e.session }
func (e *Emulator) Output() Output            { return e.out }
func (e *Emulator) Console() *Console         { return e.console }
func (e *Emulator) Sink() *video.Sink         { return e.sink }
func (e *Emulator) AudioStream() audio.Stream { return e.stream }

// Reset soft-resets the game.
func (e *Emulator) Reset() error {
	return e.do(func() error {
		if !e.pump.Reset() {
			return ErrNoReset
		}
		return nil
	})
}

// StatePath returns the path of a save state slot.
func (e *Emulator) StatePath(slot int) string {
	name := fmt.Sprintf("%s.state%d", e.game.BaseName(), slot)
	return filepath.Join(e.docs, "states", e.console.Tag, name)
}

func checkSlot(slot int) error {
	if slot < 0 || slot >= NumSlots {
		return fmt.Errorf("invalid slot %d, must be in [0, %d)", slot, NumSlots)
	}
	return nil
}

// SaveSlot writes the game state to a slot file.
func (e *Emulator) SaveSlot(slot int) error {
	if err := checkSlot(slot); err != nil {
		return err
	}
	return e.do(func() error { return e.saveSlot(slot) })
}

// LoadSlot restores the game state from a slot file.
func (e *Emulator) LoadSlot(slot int) error {
	if err := checkSlot(slot); err != nil {
		return err
	}
	return e.do(func() error { return e.loadSlot(slot) })
}

func (e *Emulator) saveSlot(slot int) error {
	state, ok := e.pump.SaveState()
	if !ok {
		return ErrNoSaveStates
	}
	path := e.StatePath(slot)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	if err := os.WriteFile(path, state, 0644); err != nil {
		return err
	}
	log.ModEmu.InfoZ("State saved").String("path", path).Int("size", len(state)).End()
	return nil
}

func (e *Emulator) loadSlot(slot int) error {
	if !e.pump.Capabilities().SaveStates {
		return ErrNoSaveStates
	}
	path := e.StatePath(slot)
	state, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("load state: %w", err)
	}
	if !e.pump.LoadState(state) {
		return fmt.Errorf("%w: %s", ErrStateRejected, path)
	}
	log.ModEmu.InfoZ("State loaded").String("path", path).Int("size", len(state)).End()
	return nil
}

// Status returns the current emulator status.
func (e *Emulator) Status() (Status, error) {
	var st Status
	err := e.do(func() error {
		st = Status{
			Console:     e.console.Tag,
			Game:        e.game.Name,
			State:       e.pump.State(),
			FPS:         e.pump.FPS(),
			SampleRate:  e.pump.SampleRate(),
			FastForward: e.pump.FastForward(),
			Frames:      e.session.Frames(),
			Audio:       e.stream.Stats(),
		}
		return nil
	})
	return st, err
}

// onKey handles hotkeys. It's called on the SDL main thread while the loop
// waits for events, so it must not wait for the loop.
func (e *Emulator) onKey(sc sdl.Scancode) {
	switch sc {
	case sdl.SCANCODE_ESCAPE:
		e.Stop()
	case sdl.SCANCODE_P, sdl.SCANCODE_PAUSE:
		e.SetPause(!e.paused.Load())
	case sdl.SCANCODE_F:
		e.ff.Store(!e.ff.Load())
	case sdl.SCANCODE_F2:
		e.post(func() { e.pump.Reset() })
	case sdl.SCANCODE_F5:
		slot := int(e.slot.Load())
		e.post(func() { e.logSlotErr(e.saveSlot(slot)) })
	case sdl.SCANCODE_F8:
		slot := int(e.slot.Load())
		e.post(func() { e.logSlotErr(e.loadSlot(slot)) })
	default:
		if sc >= sdl.SCANCODE_1 && sc <= sdl.SCANCODE_0 {
			// SDL orders digit keys from 1 to 0.
			slot := int32(sc-sdl.SCANCODE_1+1) % NumSlots
			e.slot.Store(slot)
			log.ModEmu.InfoZ("State slot selected").Int32("slot", slot).End()
		}
	}
}

func (e *Emulator) logSlotErr(err error) {
	if err != nil {
		log.ModEmu.WarnZ("State slot").Error("err", err).End()
	}
}
