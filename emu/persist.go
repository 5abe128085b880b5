package emu

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"corehost/emu/log"
	"corehost/libretro"
)

var modPersist = log.ModPersist

// Save RAM file extensions, in lookup order. Only the first one is written.
var sramExts = []string{".sav", ".srm"}

// Persistence takes and restores the state of a core running a game: save
// states as in-memory blobs, and the battery-backed save RAM as a file.
type Persistence struct {
	core  Core
	caps  libretro.Capabilities
	saves string // save RAM directory
	base  string // game base name
}

// NewPersistence returns the persistence of the game named base, running on
// core, with save RAM files in dir.
func NewPersistence(core Core, dir, base string) *Persistence {
	return &Persistence{
		core:  core,
		caps:  core.Capabilities(),
		saves: dir,
		base:  base,
	}
}

// SaveState serializes the core state. It returns false if the core doesn't
// support save states or fails to serialize.
func (p *Persistence) SaveState() ([]byte, bool) {
	if !p.caps.SaveStates {
		return nil, false
	}
	size := p.core.SerializeSize()
	if size <= 0 {
		return nil, false
	}
	buf := make([]byte, size)
	if !p.core.Serialize(buf) {
		modPersist.WarnZ("core failed to serialize state").Int("size", size).End()
		return nil, false
	}
	modPersist.DebugZ("state saved").Int("size", size).End()
	return buf, true
}

// LoadState restores a state returned by SaveState. The blob is handed as
// is to the core, which is the only judge of its validity.
func (p *Persistence) LoadState(state []byte) bool {
	if !p.caps.SaveStates {
		return false
	}
	ok := p.core.Unserialize(state)
	modPersist.DebugZ("state loaded").Int("size", len(state)).Bool("ok", ok).End()
	return ok
}

// SaveRAMPath returns the path save RAM is written to.
func (p *Persistence) SaveRAMPath() string {
	return filepath.Join(p.saves, p.base+sramExts[0])
}

func (p *Persistence) sram() []byte {
	if !p.caps.SaveRAM {
		return nil
	}
	return p.core.MemoryData(libretro.MemorySaveRAM)
}

// LoadSaveRAM copies the save RAM file of the game, if any, into the core
// memory. It returns the number of bytes copied.
func (p *Persistence) LoadSaveRAM() int {
	mem := p.sram()
	if len(mem) == 0 {
		return 0
	}

	for _, ext := range sramExts {
		path := filepath.Join(p.saves, p.base+ext)
		data, err := os.ReadFile(path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			modPersist.WarnZ("can't read save RAM").String("path", path).Error("err", err).End()
			return 0
		}
		if len(data) != len(mem) {
			modPersist.WarnZ("save RAM size mismatch").
				String("path", path).
				Int("file", len(data)).
				Int("core", len(mem)).
				End()
		}
		n := copy(mem, data)
		modPersist.InfoZ("save RAM loaded").String("path", path).Int("size", n).End()
		return n
	}
	return 0
}

// SaveSaveRAM writes the core save RAM to disk. Failures are logged and
// returned, they should never prevent the session from going on.
func (p *Persistence) SaveSaveRAM() error {
	mem := p.sram()
	if len(mem) == 0 {
		return nil
	}

	path := p.SaveRAMPath()
	err := os.MkdirAll(p.saves, 0755)
	if err == nil {
		err = os.WriteFile(path, mem, 0644)
	}
	if err != nil {
		modPersist.ErrorZ("can't write save RAM").String("path", path).Error("err", err).End()
		return err
	}
	modPersist.DebugZ("save RAM written").String("path", path).Int("size", len(mem)).End()
	return nil
}
