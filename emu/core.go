package emu

import "corehost/libretro"

// Core is the part of a libretro core the engine drives. *libretro.Core
// implements it.
type Core interface {
	Capabilities() libretro.Capabilities
	Init()
	SystemInfo() libretro.SystemInfo
	SystemAVInfo() libretro.SystemAVInfo
	LoadGame(path string, data []byte) bool
	UnloadGame()
	Run()
	Reset()
	SerializeSize() int
	Serialize(buf []byte) bool
	Unserialize(buf []byte) bool
	MemoryData(id uint32) []byte
	Deinit()
	Close() error
}

// A Loader opens the core library at path and attaches fe to it.
type Loader func(path string, fe libretro.Frontend) (Core, error)

// OpenLibretro is the Loader of real core libraries.
func OpenLibretro(path string, fe libretro.Frontend) (Core, error) {
	c, err := libretro.Open(path, fe)
	if err != nil {
		return nil, err
	}
	return c, nil
}
