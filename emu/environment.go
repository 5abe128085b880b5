package emu

import (
	"os"
	"path/filepath"

	"corehost/emu/log"
	"corehost/libretro"
)

// A Negotiator answers the environment queries of a core.
type Negotiator struct {
	saves  string
	format libretro.PixelFormat
	made   bool
}

// NewNegotiator returns a negotiator for a console. The core save directory
// is <documents>/saves/<tag>.
func NewNegotiator(documents, tag string) *Negotiator {
	return &Negotiator{
		saves:  filepath.Join(documents, "saves", tag),
		format: libretro.PixelFormat0RGB1555,
	}
}

// CanDupe always allows the core to skip frames identical to the previous one.
func (n *Negotiator) CanDupe() bool {
	log.ModCore.DebugZ("env: can dupe").Bool("value", true).End()
	return true
}

// SetPixelFormat accepts RGB565 only, the format of every texture.
func (n *Negotiator) SetPixelFormat(pf libretro.PixelFormat) bool {
	if pf != libretro.PixelFormatRGB565 {
		log.ModCore.WarnZ("env: pixel format refused").Stringer("format", pf).End()
		return false
	}
	n.format = pf
	log.ModCore.InfoZ("env: pixel format").Stringer("format", pf).End()
	return true
}

// PixelFormat returns the last accepted pixel format.
func (n *Negotiator) PixelFormat() libretro.PixelFormat { return n.format }

// SaveDirectory creates the save directory on first request.
func (n *Negotiator) SaveDirectory() (string, bool) {
	if !n.made {
		if err := os.MkdirAll(n.saves, 0755); err != nil {
			log.ModCore.WarnZ("env: can't create save directory").
				String("dir", n.saves).
				Error("err", err).
				End()
			return "", false
		}
		n.made = true
		log.ModCore.InfoZ("env: save directory").String("dir", n.saves).End()
	}
	return n.saves, true
}

// SavesDir returns the save directory, which may not exist yet.
func (n *Negotiator) SavesDir() string { return n.saves }
