package rpc

import (
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"corehost/emu"
	"corehost/hw/audio"
)

type fakeEmu struct {
	mu     sync.Mutex
	calls  []string
	paused bool
	ff     bool
	slots  map[int]bool
}

func (f *fakeEmu) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeEmu) SetPause(pause bool) {
	f.record("pause")
	f.mu.Lock()
	f.paused = pause
	f.mu.Unlock()
}

func (f *fakeEmu) SetFastForward(ff bool) {
	f.record("ff")
	f.mu.Lock()
	f.ff = ff
	f.mu.Unlock()
}

func (f *fakeEmu) Reset() error { f.record("reset"); return nil }
func (f *fakeEmu) Stop()        { f.record("stop") }

func (f *fakeEmu) SaveSlot(slot int) error {
	f.record("save")
	f.mu.Lock()
	defer f.mu.Unlock()
	f.slots[slot] = true
	return nil
}

func (f *fakeEmu) LoadSlot(slot int) error {
	f.record("load")
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.slots[slot] {
		return errors.New("empty slot")
	}
	return nil
}

func (f *fakeEmu) Status() (emu.Status, error) {
	f.record("status")
	f.mu.Lock()
	defer f.mu.Unlock()
	st := emu.Status{
		Console:     "snes",
		Game:        "game.sfc",
		State:       emu.Running,
		FPS:         60.0988,
		SampleRate:  31988.7,
		FastForward: f.ff,
		Frames:      1234,
		Audio:       audio.Stats{Pushed: 100, Dropped: 2, Underruns: 1},
	}
	if f.paused {
		st.State = emu.Paused
	}
	return st, nil
}

func TestClientServer(t *testing.T) {
	femu := &fakeEmu{slots: make(map[int]bool)}
	port := UnusedPort()
	srv, err := NewServer(port, femu)
	if err != nil {
		t.Fatal(err)
	}
	defer srv.Close()

	client, err := NewClient(port)
	if err != nil {
		t.Fatal(err)
	}
	defer client.Close()

	if err := client.SetPause(true); err != nil {
		t.Fatal(err)
	}
	if err := client.SetFastForward(true); err != nil {
		t.Fatal(err)
	}
	st, err := client.Status()
	if err != nil {
		t.Fatal(err)
	}
	want := emu.Status{
		Console:     "snes",
		Game:        "game.sfc",
		State:       emu.Paused,
		FPS:         60.0988,
		SampleRate:  31988.7,
		FastForward: true,
		Frames:      1234,
		Audio:       audio.Stats{Pushed: 100, Dropped: 2, Underruns: 1},
	}
	if diff := cmp.Diff(want, st); diff != "" {
		t.Errorf("status mismatch (-want +got):\n%s", diff)
	}

	if err := client.SaveSlot(2); err != nil {
		t.Fatal(err)
	}
	if err := client.LoadSlot(2); err != nil {
		t.Fatal(err)
	}
	err = client.LoadSlot(5)
	if err == nil || !strings.Contains(err.Error(), "empty slot") {
		t.Errorf("LoadSlot(5) = %v, want empty slot error", err)
	}
	if err := client.Reset(); err != nil {
		t.Fatal(err)
	}
	if err := client.Stop(); err != nil {
		t.Fatal(err)
	}

	wantCalls := []string{"pause", "ff", "status", "save", "load", "load", "reset", "stop"}
	femu.mu.Lock()
	defer femu.mu.Unlock()
	if diff := cmp.Diff(wantCalls, femu.calls); diff != "" {
		t.Errorf("calls mismatch (-want +got):\n%s", diff)
	}
}
