package emu

import (
	"fmt"
	"path/filepath"
	"runtime"
	"slices"
	"strings"

	"corehost/hw/input"
	"corehost/rom"
)

// AudioStrategy selects how core samples reach the audio device.
type AudioStrategy string

const (
	// RingAudio pushes samples into a ring buffer the device pulls from.
	RingAudio AudioStrategy = "ring"
	// QueueAudio accumulates samples and schedules blocks on the device.
	QueueAudio AudioStrategy = "queue"
)

func (s *AudioStrategy) UnmarshalText(text []byte) error {
	switch AudioStrategy(text) {
	case RingAudio, QueueAudio, "":
		*s = AudioStrategy(text)
		return nil
	}
	return fmt.Errorf("unknown audio strategy %q", text)
}

// A Console describes a console family and how the engine hosts its core.
type Console struct {
	Tag        string // short name, used in paths and on the command line
	Name       string
	Core       string // core library base name
	Extensions []string

	// SampleRateCorrection brings the audio rate of cores running faster
	// than 60Hz back to a 60Hz timebase.
	SampleRateCorrection bool
	Audio                AudioStrategy

	// FullPath cores read the game themselves, they don't get its content.
	FullPath bool

	// Buttons are the joypad buttons of the console pad.
	Buttons []input.Button
}

var dpad = []input.Button{input.Up, input.Down, input.Left, input.Right}

var consoles = []*Console{
	{
		Tag:        "nes",
		Name:       "Nintendo Entertainment System",
		Core:       "fceumm_libretro",
		Extensions: []string{".nes", ".fds", ".unf"},
		Audio:      RingAudio,
		Buttons:    append([]input.Button{input.A, input.B, input.Select, input.Start}, dpad...),
	},
	{
		Tag:                  "snes",
		Name:                 "Super Nintendo",
		Core:                 "snes9x_libretro",
		Extensions:           []string{".sfc", ".smc", ".fig", ".swc"},
		SampleRateCorrection: true,
		Audio:                RingAudio,
		Buttons: append([]input.Button{
			input.A, input.B, input.X, input.Y, input.L, input.R, input.Select, input.Start,
		}, dpad...),
	},
	{
		Tag:        "gba",
		Name:       "Game Boy Advance",
		Core:       "mgba_libretro",
		Extensions: []string{".gba", ".gb", ".gbc"},
		Audio:      QueueAudio,
		Buttons:    append([]input.Button{input.A, input.B, input.L, input.R, input.Select, input.Start}, dpad...),
	},
	{
		Tag:        "md",
		Name:       "Mega Drive",
		Core:       "picodrive_libretro",
		Extensions: []string{".md", ".gen", ".smd", ".sms", ".gg"},
		Audio:      RingAudio,
		// B, A and Y are the A, B and C buttons of the pad, Start is Start,
		// Select is Mode.
		Buttons: append([]input.Button{
			input.A, input.B, input.X, input.Y, input.L, input.R, input.Select, input.Start,
		}, dpad...),
	},
	{
		Tag:        "psx",
		Name:       "PlayStation",
		Core:       "pcsx_rearmed_libretro",
		Extensions: []string{".cue", ".chd", ".pbp", ".m3u", ".iso"},
		Audio:      RingAudio,
		FullPath:   true,
		Buttons: append([]input.Button{
			input.A, input.B, input.X, input.Y,
			input.L, input.R, input.L2, input.R2, input.L3, input.R3,
			input.Select, input.Start,
		}, dpad...),
	},
	{
		Tag:        "nds",
		Name:       "Nintendo DS",
		Core:       "melonds_libretro",
		Extensions: []string{".nds"},
		Audio:      RingAudio,
		Buttons: append([]input.Button{
			input.A, input.B, input.X, input.Y, input.L, input.R, input.Select, input.Start,
		}, dpad...),
	},
}

// ConsoleByTag returns the console with the given tag.
func ConsoleByTag(tag string) (*Console, error) {
	for _, c := range consoles {
		if c.Tag == tag {
			return c, nil
		}
	}
	return nil, fmt.Errorf("unknown console %q (valid: %s)", tag, strings.Join(ConsoleTags(), ", "))
}

// ConsoleTags returns the tags of all supported consoles.
func ConsoleTags() []string {
	tags := make([]string, 0, len(consoles))
	for _, c := range consoles {
		tags = append(tags, c.Tag)
	}
	return tags
}

// DetectConsole finds the console of a game from its file extension.
func DetectConsole(path string) (*Console, error) {
	ext := strings.ToLower(filepath.Ext(path))
	for _, c := range consoles {
		if slices.Contains(c.Extensions, ext) {
			return c, nil
		}
	}
	return nil, fmt.Errorf("can't guess console of %s, use --console", filepath.Base(path))
}

// LibraryPath returns the path of the console core in dir, named after the
// platform shared library convention.
func (c *Console) LibraryPath(dir string) string {
	return filepath.Join(dir, c.Core+libSuffix(runtime.GOOS))
}

func libSuffix(goos string) string {
	switch goos {
	case "darwin", "ios":
		return ".dylib"
	case "windows":
		return ".dll"
	}
	return ".so"
}

// LoadROM reads the game at path, or only identifies it for full path
// cores.
func (c *Console) LoadROM(path string) (*rom.ROM, error) {
	if c.FullPath {
		return rom.Open(path)
	}
	return rom.Load(path, c.Extensions)
}

// ButtonMask returns the mask of the console pad buttons.
func (c *Console) ButtonMask() uint16 {
	var mask uint16
	for _, b := range c.Buttons {
		mask |= 1 << b
	}
	return mask
}
