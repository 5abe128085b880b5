package emu

import (
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"corehost/hw/audio"
	"corehost/libretro"
	"corehost/rom"
)

// fakeCore behaves like a libretro core: each Run polls input, outputs a
// frame and a frame worth of audio through its frontend.
type fakeCore struct {
	fe      libretro.Frontend
	caps    libretro.Capabilities
	av      libretro.SystemAVInfo
	libPath string

	reject bool
	sram   []byte
	frame  uint32
	onRun  func()

	// pixel format the core asks for at init.
	format libretro.PixelFormat

	// counters
	loads, inits, runs, unloads, resets, deinits, closes int
	loaded                                               *rom.ROM
	buttons                                              uint16
}

func newFakeCore() *fakeCore {
	return &fakeCore{
		caps: libretro.Capabilities{
			SaveStates: true,
			SaveRAM:    true,
			SystemInfo: true,
			Reset:      true,
			Unload:     true,
		},
		av: libretro.SystemAVInfo{
			BaseWidth:   8,
			BaseHeight:  4,
			MaxWidth:    8,
			MaxHeight:   4,
			AspectRatio: 2,
			FPS:         60,
			SampleRate:  32000,
		},
		sram:   make([]byte, 16),
		format: libretro.PixelFormatRGB565,
	}
}

func (c *fakeCore) loader(path string, fe libretro.Frontend) (Core, error) {
	c.libPath = path
	c.fe = fe
	c.loads++
	return c, nil
}

func (c *fakeCore) Capabilities() libretro.Capabilities { return c.caps }

func (c *fakeCore) Init() {
	c.inits++
	c.fe.CanDupe()
	c.fe.SetPixelFormat(c.format)
	c.fe.SaveDirectory()
}

func (c *fakeCore) SystemInfo() libretro.SystemInfo {
	return libretro.SystemInfo{LibraryName: "fake", LibraryVersion: "1.0", ValidExtensions: "bin"}
}

func (c *fakeCore) SystemAVInfo() libretro.SystemAVInfo { return c.av }

func (c *fakeCore) LoadGame(path string, data []byte) bool {
	if c.reject {
		return false
	}
	c.loaded = &rom.ROM{Path: path, Data: data}
	return true
}

func (c *fakeCore) UnloadGame() {
	c.unloads++
	c.loaded = nil
}

func (c *fakeCore) Run() {
	c.runs++
	c.frame++

	c.fe.InputPoll()
	c.buttons = 0
	for id := range uint32(16) {
		if c.fe.InputState(0, libretro.DeviceJoypad, 0, id) != 0 {
			c.buttons |= 1 << id
		}
	}

	w, h := c.av.BaseWidth, c.av.BaseHeight
	pitch := w*2 + 4
	fb := make([]byte, pitch*h)
	for i := range fb {
		fb[i] = byte(c.frame)
	}
	c.fe.VideoRefresh(libretro.VideoFrame{Width: w, Height: h, Pitch: pitch, Data: fb})

	n := int(c.av.SampleRate / c.av.FPS)
	c.fe.AudioSamples(make([]int16, 2*n))

	if c.onRun != nil {
		c.onRun()
	}
}

func (c *fakeCore) Reset() {
	c.resets++
	c.frame = 0
}

func (c *fakeCore) SerializeSize() int {
	if !c.caps.SaveStates {
		return 0
	}
	return 4
}

func (c *fakeCore) Serialize(buf []byte) bool {
	if len(buf) < 4 {
		return false
	}
	binary.LittleEndian.PutUint32(buf, c.frame)
	return true
}

func (c *fakeCore) Unserialize(buf []byte) bool {
	if len(buf) < 4 {
		return false
	}
	c.frame = binary.LittleEndian.Uint32(buf)
	return true
}

func (c *fakeCore) MemoryData(id uint32) []byte {
	if !c.caps.SaveRAM || id != libretro.MemorySaveRAM {
		return nil
	}
	return c.sram
}

func (c *fakeCore) Deinit() { c.deinits++ }

func (c *fakeCore) Close() error {
	c.closes++
	if c.closes > 1 {
		return libretro.ErrClosed
	}
	c.Deinit()
	return nil
}

// fakeStream records the calls made to an audio stream.
type fakeStream struct {
	starts  []float64
	stops   int
	flushes int
	pushed  int
	running bool
}

func (s *fakeStream) Push(samples []int16) int {
	if !s.running {
		return 0
	}
	s.pushed += len(samples)
	return len(samples)
}

func (s *fakeStream) Flush() { s.flushes++ }

func (s *fakeStream) Start(rate float64) error {
	if rate <= 0 {
		return errors.New("invalid rate")
	}
	s.starts = append(s.starts, rate)
	s.running = true
	return nil
}

func (s *fakeStream) Stop() {
	s.stops++
	s.running = false
}

func (s *fakeStream) Stats() audio.Stats { return audio.Stats{Pushed: uint64(s.pushed)} }

// manualClock is a FrameClock recording its state, ticks are driven by
// calling Pump.Tick directly.
type manualClock struct {
	fps    float64
	halted bool
	arms   []float64
}

func (c *manualClock) Arm(fps float64) {
	if fps <= 0 {
		fps = 60
	}
	c.fps = fps
	c.halted = false
	c.arms = append(c.arms, fps)
}

func (c *manualClock) Halt(halted bool) { c.halted = halted }
func (c *manualClock) Disarm()          { c.fps = 0 }
func (c *manualClock) Rate() float64    { return c.fps }

type pumpFixture struct {
	core   *fakeCore
	stream *fakeStream
	clock  *manualClock
	sess   *Session
	pump   *Pump
	docs   string
}

func newPumpFixture(t *testing.T, c *Console) *pumpFixture {
	t.Helper()

	f := &pumpFixture{
		core:   newFakeCore(),
		stream: &fakeStream{},
		clock:  &manualClock{},
		docs:   t.TempDir(),
	}
	f.sess = NewSession(c, f.docs, nil, f.stream, nil)
	f.pump = NewPump(PumpConfig{
		Library:              "/cores/fake.so",
		Loader:               f.core.loader,
		Session:              f.sess,
		Audio:                f.stream,
		Clock:                f.clock,
		SampleRateCorrection: c.SampleRateCorrection,
	})
	return f
}

// writeROM creates a game file in dir and returns its identity.
func writeROM(t *testing.T, dir, name string) *rom.ROM {
	t.Helper()

	path := filepath.Join(dir, name)
	data := []byte("game data")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}
	return &rom.ROM{Path: path, Name: name, Data: data}
}

func mustConsole(t *testing.T, tag string) *Console {
	t.Helper()

	c, err := ConsoleByTag(tag)
	if err != nil {
		t.Fatal(err)
	}
	return c
}
