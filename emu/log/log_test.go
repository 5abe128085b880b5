package log

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestModuleByName(t *testing.T) {
	for _, name := range ModuleNames() {
		mod, ok := ModuleByName(name)
		if !ok {
			t.Fatalf("ModuleByName(%q) not found", name)
		}
		if mod.String() != name {
			t.Errorf("ModuleByName(%q).String() = %q", name, mod.String())
		}
	}

	if _, ok := ModuleByName("<error>"); ok {
		t.Errorf("ModuleByName(<error>) should not be found")
	}
	if _, ok := ModuleByName("foobar"); ok {
		t.Errorf("ModuleByName(foobar) should not be found")
	}
}

func TestDebugMask(t *testing.T) {
	defer DisableDebugModules(ModuleMaskAll)

	if ModAudio.Enabled(DebugLevel) {
		t.Fatalf("debug should be disabled by default")
	}
	if !ModAudio.Enabled(WarnLevel) {
		t.Fatalf("warn should always be enabled")
	}
	if ModAudio.DebugZ("msg") != nil {
		t.Fatalf("DebugZ on disabled module should return nil")
	}

	EnableDebugModules(ModAudio.Mask())
	if !ModAudio.Enabled(DebugLevel) {
		t.Fatalf("debug should be enabled for audio")
	}
	if ModVideo.Enabled(DebugLevel) {
		t.Fatalf("debug should not be enabled for video")
	}
}

func TestEntryZ(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)

	ModCore.WarnZ("core said something").
		String("str", "val").
		Int("int", -3).
		Float("rate", 32000).
		Hex16("mask", 0x00f1).
		Error("err", errors.New("boom")).
		End()

	out := buf.String()
	for _, want := range []string{"core said something", "_mod=core", "str=val", "int=-3", "rate=32000", "mask=00f1", "err=boom"} {
		if !strings.Contains(out, want) {
			t.Errorf("output %q doesn't contain %q", out, want)
		}
	}

	// nil entries are safe.
	var z *EntryZ
	z.String("a", "b").Int("c", 1).End()
}
