package emu

import (
	"errors"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"corehost/emu/log"
	"corehost/libretro"
	"corehost/rom"
)

func TestMain(m *testing.M) {
	log.Disable()
	os.Exit(m.Run())
}

type emuFixture struct {
	core *fakeCore
	cfg  Config
	game *rom.ROM
	opts Options
}

func newEmuFixture(t *testing.T, tag string) *emuFixture {
	t.Helper()

	docs := t.TempDir()
	cfg := DefaultConfig()
	cfg.General.DocumentsDir = docs
	cfg.General.CoresDir = filepath.Join(docs, "cores")
	cfg.Check()

	c := mustConsole(t, tag)
	core := newFakeCore()
	return &emuFixture{
		core: core,
		cfg:  cfg,
		game: writeROM(t, docs, "game"+c.Extensions[0]),
		opts: Options{
			Console:  c,
			Library:  c.LibraryPath(cfg.General.CoresDir),
			Headless: true,
			Loader:   core.loader,
		},
	}
}

func TestEmulatorHeadless(t *testing.T) {
	f := newEmuFixture(t, "snes")
	f.core.av.FPS = 59.7
	f.core.av.SampleRate = 32000
	copy(f.core.sram, "battery backed")
	f.opts.Frames = 10
	f.opts.Screenshot = filepath.Join(t.TempDir(), "last.png")

	e, err := Launch(f.game, f.cfg, f.opts)
	if err != nil {
		t.Fatal(err)
	}
	if e.pump.FPS() != 59.7 || e.pump.SampleRate() != 32000 {
		t.Errorf("fps = %v rate = %v, want 59.7 and 32000", e.pump.FPS(), e.pump.SampleRate())
	}
	if e.clock.Rate() != 59.7 {
		t.Errorf("clock rate = %v, want 59.7", e.clock.Rate())
	}
	e.Run()

	// 10 refreshes at 60Hz for a 59.7Hz core.
	if f.core.runs < 9 || f.core.runs > 10 {
		t.Errorf("core ran %d frames, want 9 or 10", f.core.runs)
	}
	if e.Session().Frames() != uint64(f.core.runs) {
		t.Errorf("session frames = %d, core runs = %d", e.Session().Frames(), f.core.runs)
	}
	uploaded, _ := e.Sink().Frames()
	if uploaded != uint64(f.core.runs) {
		t.Errorf("sink uploaded %d frames, want %d", uploaded, f.core.runs)
	}
	if f.core.closes != 1 {
		t.Errorf("core closed %d times, want 1", f.core.closes)
	}

	sram, err := os.ReadFile(filepath.Join(f.cfg.General.DocumentsDir, "saves", "snes", "game.sav"))
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(f.core.sram, sram); diff != "" {
		t.Errorf("save RAM mismatch (-want +got):\n%s", diff)
	}

	fd, err := os.Open(f.opts.Screenshot)
	if err != nil {
		t.Fatal(err)
	}
	defer fd.Close()
	img, err := png.Decode(fd)
	if err != nil {
		t.Fatal(err)
	}
	if b := img.Bounds(); b.Dx() != f.core.av.BaseWidth || b.Dy() != f.core.av.BaseHeight {
		t.Errorf("screenshot size = %v", b)
	}
}

func TestEmulatorLaunchErrors(t *testing.T) {
	f := newEmuFixture(t, "nes")
	f.core.reject = true
	if _, err := Launch(f.game, f.cfg, f.opts); !errors.Is(err, ErrGameRejected) {
		t.Errorf("Launch() error = %v, want ErrGameRejected", err)
	}
	if f.core.closes != 1 {
		t.Errorf("core closed %d times, want 1", f.core.closes)
	}

	f = newEmuFixture(t, "nes")
	f.opts.Loader = func(path string, _ libretro.Frontend) (Core, error) {
		return nil, &libretro.LoadError{Path: path, Err: libretro.ErrOpen}
	}
	_, err := Launch(f.game, f.cfg, f.opts)
	if !errors.Is(err, ErrCoreUnavailable) || !errors.Is(err, libretro.ErrFatal) {
		t.Errorf("Launch() error = %v, want fatal ErrCoreUnavailable", err)
	}
}

// startEmulator runs an emulator without frame limit until the test ends.
func startEmulator(t *testing.T, f *emuFixture) *Emulator {
	t.Helper()

	e, err := Launch(f.game, f.cfg, f.opts)
	if err != nil {
		t.Fatal(err)
	}
	done := make(chan struct{})
	go func() {
		e.Run()
		close(done)
	}()
	t.Cleanup(func() {
		e.Stop()
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Errorf("emulator loop didn't exit")
		}
	})
	return e
}

func TestEmulatorControl(t *testing.T) {
	f := newEmuFixture(t, "gba")
	e := startEmulator(t, f)

	if err := e.SaveSlot(3); err != nil {
		t.Fatal(err)
	}
	path := e.StatePath(3)
	want := filepath.Join(f.cfg.General.DocumentsDir, "states", "gba", "game.state3")
	if path != want {
		t.Errorf("StatePath(3) = %q, want %q", path, want)
	}
	if fi, err := os.Stat(path); err != nil || fi.Size() != 4 {
		t.Fatalf("state file: %v", err)
	}
	if err := e.LoadSlot(3); err != nil {
		t.Fatal(err)
	}
	if err := e.LoadSlot(4); err == nil {
		t.Errorf("LoadSlot of an empty slot succeeded")
	}
	if err := e.SaveSlot(NumSlots); err == nil {
		t.Errorf("SaveSlot(%d) succeeded", NumSlots)
	}
	if err := e.Reset(); err != nil {
		t.Errorf("Reset() = %v", err)
	}

	e.SetPause(true)
	e.Status()
	st, err := e.Status()
	if err != nil {
		t.Fatal(err)
	}
	if st.State != Paused || st.Console != "gba" || st.Game != "game.gba" {
		t.Errorf("status = %+v", st)
	}
	if st.SampleRate != 32000 || st.FPS != 60 {
		t.Errorf("status = %+v", st)
	}

	e.SetPause(false)
	e.SetFastForward(true)
	e.Status()
	st, _ = e.Status()
	if st.State != Running || !st.FastForward {
		t.Errorf("status = %+v, want running in fast-forward", st)
	}
}

func TestEmulatorNoSaveStates(t *testing.T) {
	f := newEmuFixture(t, "md")
	f.core.caps.SaveStates = false
	f.core.caps.Reset = false
	e := startEmulator(t, f)

	if err := e.SaveSlot(0); !errors.Is(err, ErrNoSaveStates) {
		t.Errorf("SaveSlot() = %v, want ErrNoSaveStates", err)
	}
	if err := e.LoadSlot(0); !errors.Is(err, ErrNoSaveStates) {
		t.Errorf("LoadSlot() = %v, want ErrNoSaveStates", err)
	}
	if err := e.Reset(); !errors.Is(err, ErrNoReset) {
		t.Errorf("Reset() = %v, want ErrNoReset", err)
	}
}

func TestEmulatorStopped(t *testing.T) {
	f := newEmuFixture(t, "nes")
	f.opts.Frames = 3
	e, err := Launch(f.game, f.cfg, f.opts)
	if err != nil {
		t.Fatal(err)
	}
	e.Run()

	if _, err := e.Status(); !errors.Is(err, ErrNotRunning) {
		t.Errorf("Status() = %v, want ErrNotRunning", err)
	}
	if err := e.SaveSlot(0); !errors.Is(err, ErrNotRunning) {
		t.Errorf("SaveSlot() = %v, want ErrNotRunning", err)
	}
}

func TestHeadlessOutput(t *testing.T) {
	ho := NewHeadlessOutput(50, 3, false)
	start := ho.Now()
	n := 0
	for ho.Poll() {
		ho.Present()
		n++
	}
	if n != 3 || ho.Frames() != 3 {
		t.Errorf("presented %d frames, want 3", n)
	}
	if d := ho.Now().Sub(start); d != 60*time.Millisecond {
		t.Errorf("elapsed = %v, want 60ms", d)
	}
	if ho.RefreshRate() != 50 {
		t.Errorf("RefreshRate() = %v, want 50", ho.RefreshRate())
	}
}
