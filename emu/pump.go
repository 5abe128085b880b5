package emu

import (
	"errors"
	"fmt"

	"corehost/emu/log"
	"corehost/hw/audio"
	"corehost/libretro"
	"corehost/rom"
)

var (
	// ErrCoreUnavailable wraps the error of a core library that can't be
	// loaded. It's fatal: no game can run without the core.
	ErrCoreUnavailable = errors.New("core unavailable")

	// ErrGameRejected is returned when the core refuses a game. The pump is
	// left as it was, another game can be loaded.
	ErrGameRejected = errors.New("game rejected by core")
)

// FastForwardFactor is the number of frames run per tick in fast-forward.
const FastForwardFactor = 3

// DefaultFPS is the rate of cores not reporting theirs.
const DefaultFPS = 60

// Rate correction kicks in above this frame rate.
const correctionFPS = 60.05

type State int32

const (
	Unloaded State = iota
	GameLoaded
	Running
	Paused
	Stopped
)

var stateNames = [...]string{"unloaded", "loaded", "running", "paused", "stopped"}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("State(%d)", s)
}

type PumpConfig struct {
	Library string // core library path
	Loader  Loader
	Session *Session
	Audio   audio.Stream
	Clock   FrameClock

	SampleRateCorrection bool
}

// Pump drives a core: it loads it, runs it once per clock tick and handles
// the session lifecycle. A Pump is not safe for concurrent use, it must be
// driven from a single goroutine.
type Pump struct {
	cfg PumpConfig

	core    Core
	persist *Persistence
	game    *rom.ROM
	av      libretro.SystemAVInfo

	state       State
	fps         float64
	rate        float64
	fastForward bool

	ticking bool
	stopReq bool
}

func NewPump(cfg PumpConfig) *Pump {
	if cfg.Loader == nil {
		cfg.Loader = OpenLibretro
	}
	if cfg.Audio == nil {
		cfg.Audio = &audio.NullStream{}
	}
	return &Pump{cfg: cfg}
}

// LoadGame loads the core if needed, hands it the game and starts running it.
func (p *Pump) LoadGame(game *rom.ROM) error {
	if p.state != Unloaded && p.state != Stopped {
		p.Stop()
	}

	if p.core == nil {
		core, err := p.cfg.Loader(p.cfg.Library, p.cfg.Session)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrCoreUnavailable, err)
		}
		core.Init()
		p.core = core
		if caps := core.Capabilities(); caps.SystemInfo {
			si := core.SystemInfo()
			log.ModCore.InfoZ("core loaded").
				String("name", si.LibraryName).
				String("version", si.LibraryVersion).
				Bool("savestates", caps.SaveStates).
				Bool("sram", caps.SaveRAM).
				End()
		}
	}
	if p.game != nil {
		p.core.UnloadGame()
		p.game = nil
	}

	if !p.core.LoadGame(game.Path, game.Data) {
		return fmt.Errorf("%w: %s", ErrGameRejected, game.Name)
	}
	p.game = game
	p.state = GameLoaded

	p.av = p.core.SystemAVInfo()
	p.fps = p.av.FPS
	if p.fps <= 0 {
		p.fps = DefaultFPS
	}
	p.rate = p.av.SampleRate
	if p.cfg.SampleRateCorrection && p.fps > correctionFPS {
		p.rate *= DefaultFPS / p.fps
	}
	log.ModEmu.InfoZ("game loaded").
		String("game", game.Name).
		Int("width", p.av.BaseWidth).
		Int("height", p.av.BaseHeight).
		Float("fps", p.fps).
		Float("rate", p.rate).
		End()

	p.startAudio()
	p.persist = NewPersistence(p.core, p.cfg.Session.SavesDir(), game.BaseName())
	p.persist.LoadSaveRAM()

	p.state = Running
	p.fastForward = false
	p.cfg.Clock.Arm(p.fps)
	return nil
}

func (p *Pump) startAudio() {
	if err := p.cfg.Audio.Start(p.rate); err != nil {
		log.ModAudio.WarnZ("can't start audio").Float("rate", p.rate).Error("err", err).End()
	}
}

// Tick runs one frame, or FastForwardFactor frames in fast-forward. It does
// nothing unless the pump is running.
func (p *Pump) Tick() {
	if p.state != Running {
		return
	}

	n := 1
	if p.fastForward {
		n = FastForwardFactor
	}

	p.ticking = true
	for range n {
		p.core.Run()
		if p.stopReq {
			break
		}
	}
	p.ticking = false

	if p.stopReq {
		p.stopReq = false
		p.Stop()
	}
}

// SetFastForward enables or disables fast-forward. Audio accumulated while
// fast-forwarding is discarded when it's disabled.
func (p *Pump) SetFastForward(on bool) {
	if on == p.fastForward {
		return
	}
	p.fastForward = on
	if !on {
		p.cfg.Audio.Flush()
	}
	log.ModEmu.DebugZ("fast-forward").Bool("on", on).End()
}

// Pause suspends the pump. Save RAM is written, audio stops.
func (p *Pump) Pause() {
	if p.state != Running {
		return
	}
	p.cfg.Clock.Halt(true)
	p.cfg.Audio.Stop()
	p.persist.SaveSaveRAM()
	p.state = Paused
	log.ModEmu.InfoZ("paused").End()
}

// Resume restarts a paused pump, re-arming its clock if it's been disarmed.
func (p *Pump) Resume() {
	if p.state != Paused {
		return
	}
	if p.cfg.Clock.Rate() == 0 {
		p.cfg.Clock.Arm(p.fps)
	} else {
		p.cfg.Clock.Halt(false)
	}
	p.startAudio()
	p.state = Running
	log.ModEmu.InfoZ("resumed").End()
}

// Stop ends the game session: save RAM is written, the clock disarmed and
// audio stopped. Called during a tick, the stop happens at the end of it.
func (p *Pump) Stop() {
	if p.ticking {
		p.stopReq = true
		return
	}
	switch p.state {
	case GameLoaded, Running, Paused:
	default:
		return
	}

	p.persist.SaveSaveRAM()
	p.cfg.Clock.Disarm()
	p.cfg.Audio.Stop()
	p.fastForward = false
	p.state = Stopped
	log.ModEmu.InfoZ("stopped").End()
}

// Reset soft-resets the game. It returns false if the core can't.
func (p *Pump) Reset() bool {
	if p.game == nil || !p.core.Capabilities().Reset {
		return false
	}
	p.core.Reset()
	log.ModEmu.InfoZ("reset").End()
	return true
}

// SaveState returns a snapshot of the running game.
func (p *Pump) SaveState() ([]byte, bool) {
	if !p.active() {
		return nil, false
	}
	return p.persist.SaveState()
}

// LoadState restores a snapshot taken by SaveState.
func (p *Pump) LoadState(state []byte) bool {
	if !p.active() {
		return false
	}
	return p.persist.LoadState(state)
}

func (p *Pump) active() bool {
	return p.state == Running || p.state == Paused
}

// Close stops the session and releases the core. The pump can't be used
// after that.
func (p *Pump) Close() error {
	p.stopReq = false
	p.ticking = false
	p.Stop()
	p.cfg.Clock.Disarm()
	p.state = Unloaded
	if p.core == nil {
		return nil
	}
	if p.game != nil {
		p.core.UnloadGame()
		p.game = nil
	}
	err := p.core.Close()
	p.core = nil
	return err
}

// Capabilities returns the capabilities of the loaded core.
func (p *Pump) Capabilities() libretro.Capabilities {
	if p.core == nil {
		return libretro.Capabilities{}
	}
	return p.core.Capabilities()
}

func (p *Pump) State() State                  { return p.state }
func (p *Pump) FPS() float64                  { return p.fps }
func (p *Pump) SampleRate() float64           { return p.rate }
func (p *Pump) FastForward() bool             { return p.fastForward }
func (p *Pump) AVInfo() libretro.SystemAVInfo { return p.av }
func (p *Pump) Game() *rom.ROM                { return p.game }
