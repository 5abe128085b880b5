package emu

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"corehost/hw/input"
	"corehost/libretro"
)

func TestNegotiatorPixelFormat(t *testing.T) {
	tests := []struct {
		pf   libretro.PixelFormat
		want bool
	}{
		{libretro.PixelFormat0RGB1555, false},
		{libretro.PixelFormatXRGB8888, false},
		{libretro.PixelFormatRGB565, true},
		{libretro.PixelFormat(3), false},
	}
	for _, tt := range tests {
		t.Run(tt.pf.String(), func(t *testing.T) {
			n := NewNegotiator(t.TempDir(), "snes")
			if got := n.SetPixelFormat(tt.pf); got != tt.want {
				t.Errorf("SetPixelFormat(%v) = %t, want %t", tt.pf, got, tt.want)
			}
			want := libretro.PixelFormat0RGB1555
			if tt.want {
				want = tt.pf
			}
			if got := n.PixelFormat(); got != want {
				t.Errorf("PixelFormat() = %v, want %v", got, want)
			}
		})
	}
}

func TestNegotiatorRefusalKeepsFormat(t *testing.T) {
	n := NewNegotiator(t.TempDir(), "snes")
	n.SetPixelFormat(libretro.PixelFormatRGB565)
	n.SetPixelFormat(libretro.PixelFormatXRGB8888)
	if got := n.PixelFormat(); got != libretro.PixelFormatRGB565 {
		t.Errorf("PixelFormat() = %v, want RGB565", got)
	}
}

func TestNegotiatorSaveDirectory(t *testing.T) {
	docs := t.TempDir()
	n := NewNegotiator(docs, "gba")

	want := filepath.Join(docs, "saves", "gba")
	if n.SavesDir() != want {
		t.Errorf("SavesDir() = %q, want %q", n.SavesDir(), want)
	}
	if _, err := os.Stat(want); !os.IsNotExist(err) {
		t.Fatalf("save directory created before being requested: %v", err)
	}

	for range 2 {
		dir, ok := n.SaveDirectory()
		if !ok || dir != want {
			t.Errorf("SaveDirectory() = %q, %t, want %q, true", dir, ok, want)
		}
	}
	if fi, err := os.Stat(want); err != nil || !fi.IsDir() {
		t.Errorf("save directory not created: %v", err)
	}
	if !n.CanDupe() {
		t.Errorf("CanDupe() = false")
	}
}

func TestNegotiatorSaveDirectoryError(t *testing.T) {
	docs := t.TempDir()
	if err := os.WriteFile(filepath.Join(docs, "saves"), nil, 0644); err != nil {
		t.Fatal(err)
	}
	n := NewNegotiator(docs, "gba")
	if dir, ok := n.SaveDirectory(); ok {
		t.Errorf("SaveDirectory() = %q, true, want failure", dir)
	}
}

type recordSink struct {
	frames []frameCall
}

type frameCall struct {
	W, H, Pitch int
	Dupe        bool
}

func (s *recordSink) Refresh(width, height, pitch int, data []byte) {
	s.frames = append(s.frames, frameCall{width, height, pitch, data == nil})
}

type countBridge struct {
	input.Mask
	polls int
}

func (b *countBridge) Poll() { b.polls++ }

func TestSessionRouting(t *testing.T) {
	sink := &recordSink{}
	stream := &fakeStream{}
	stream.Start(32000)
	bridge := &countBridge{}

	s := NewSession(mustConsole(t, "snes"), t.TempDir(), sink, stream, bridge)
	var fe libretro.Frontend = s
	fe.SetPixelFormat(libretro.PixelFormatRGB565)

	fe.VideoRefresh(libretro.VideoFrame{Width: 256, Height: 224, Pitch: 512, Data: make([]byte, 512*224)})
	fe.VideoRefresh(libretro.VideoFrame{Width: 256, Height: 224, Pitch: 512})
	fe.AudioSamples(make([]int16, 1068))
	fe.InputPoll()

	want := []frameCall{{256, 224, 512, false}, {256, 224, 512, true}}
	if diff := cmp.Diff(want, sink.frames); diff != "" {
		t.Errorf("frames mismatch (-want +got):\n%s", diff)
	}
	if s.Frames() != 2 {
		t.Errorf("Frames() = %d, want 2", s.Frames())
	}
	if stream.pushed != 1068 {
		t.Errorf("pushed = %d, want 1068", stream.pushed)
	}
	if bridge.polls != 1 {
		t.Errorf("polls = %d, want 1", bridge.polls)
	}
}

func TestSessionDropsFramesWithoutRGB565(t *testing.T) {
	sink := &recordSink{}
	s := NewSession(mustConsole(t, "nes"), t.TempDir(), sink, nil, nil)

	frame := libretro.VideoFrame{Width: 256, Height: 240, Pitch: 512, Data: make([]byte, 512*240)}
	s.VideoRefresh(frame)
	s.VideoRefresh(frame)
	if len(sink.frames) != 0 {
		t.Fatalf("%d frames forwarded in 0RGB1555", len(sink.frames))
	}
	if !s.badFormat {
		t.Errorf("dropped frames not reported")
	}

	s.SetPixelFormat(libretro.PixelFormatRGB565)
	s.VideoRefresh(frame)
	want := []frameCall{{256, 240, 512, false}}
	if diff := cmp.Diff(want, sink.frames); diff != "" {
		t.Errorf("frames mismatch (-want +got):\n%s", diff)
	}
	if s.Frames() != 3 {
		t.Errorf("Frames() = %d, want 3", s.Frames())
	}
}

func TestSessionInputLayout(t *testing.T) {
	bridge := &input.Mask{}
	bridge.Set(0xffff)

	nes := NewSession(mustConsole(t, "nes"), t.TempDir(), nil, nil, bridge)
	psx := NewSession(mustConsole(t, "psx"), t.TempDir(), nil, nil, bridge)

	tests := []struct {
		btn      input.Button
		nes, psx int16
	}{
		{input.A, 1, 1},
		{input.B, 1, 1},
		{input.Start, 1, 1},
		{input.Up, 1, 1},
		{input.X, 0, 1},
		{input.L, 0, 1},
		{input.L2, 0, 1},
		{input.R3, 0, 1},
	}
	for _, tt := range tests {
		id := uint32(tt.btn)
		if got := nes.InputState(0, libretro.DeviceJoypad, 0, id); got != tt.nes {
			t.Errorf("nes %v = %d, want %d", tt.btn, got, tt.nes)
		}
		if got := psx.InputState(0, libretro.DeviceJoypad, 0, id); got != tt.psx {
			t.Errorf("psx %v = %d, want %d", tt.btn, got, tt.psx)
		}
	}

	if got := psx.InputState(1, libretro.DeviceJoypad, 0, uint32(input.A)); got != 0 {
		t.Errorf("port 1 = %d, want 0", got)
	}
	if got := psx.InputState(0, libretro.DeviceJoypad, 0, 16); got != 0 {
		t.Errorf("id 16 = %d, want 0", got)
	}
}

func TestSessionNilCollaborators(t *testing.T) {
	s := NewSession(mustConsole(t, "md"), t.TempDir(), nil, nil, nil)
	s.VideoRefresh(libretro.VideoFrame{Width: 1, Height: 1, Pitch: 2, Data: []byte{0, 0}})
	s.AudioSamples([]int16{1, 2})
	s.InputPoll()
	if got := s.InputState(0, libretro.DeviceJoypad, 0, uint32(input.A)); got != 0 {
		t.Errorf("InputState() = %d, want 0", got)
	}
}
