package log

import "sync/atomic"

type ModuleMask uint64
type Module uint

const (
	ModuleMaskAll ModuleMask = 0xFFFFFFFFFFFFFFFF
)

// Standard modules. Packages can register their own with NewModule.
const (
	ModEmu Module = iota + 1
	ModCore
	ModAudio
	ModVideo
	ModInput
	ModPersist

	endStandardMods
)

var modCount = endStandardMods

var (
	modDebugMask ModuleMask
	disabled     atomic.Bool
)

var modNames = []string{
	"<error>", "emu", "core", "audio", "video", "input", "persist",
}

// NewModule registers a new log module. It must be called during package
// initialization, before any logging takes place.
func NewModule(name string) Module {
	mod := modCount
	modCount++
	modNames = append(modNames, name)
	return mod
}

func ModuleByName(name string) (Module, bool) {
	for idx, s := range modNames {
		if idx != 0 && s == name {
			return Module(idx), true
		}
	}
	return Module(0xFFFFFFFF), false
}

// ModuleNames returns the names of all registered modules.
func ModuleNames() []string {
	return append([]string(nil), modNames[1:]...)
}

func EnableDebugModules(mask ModuleMask) {
	modDebugMask |= mask
}

func DisableDebugModules(mask ModuleMask) {
	modDebugMask &^= mask
}

// Disable turns off all logging, whatever the level.
func Disable() { disabled.Store(true) }

func (mod Module) String() string {
	if int(mod) < len(modNames) {
		return modNames[mod]
	}
	return modNames[0]
}

func (mod Module) Mask() ModuleMask {
	return 1 << ModuleMask(mod)
}

func (mod Module) Enabled(level Level) bool {
	if disabled.Load() {
		return false
	}
	return level <= WarnLevel || modDebugMask&mod.Mask() != 0
}

// printf-like family

func (mod Module) Warnf(format string, args ...any) { Entry{mod: mod}.Warnf(format, args...) }

// Z-style, builder functions. They return nil when the level is disabled,
// all EntryZ methods are nil-safe so that a disabled entry costs almost
// nothing.

func (mod Module) logz(lvl Level, msg string) *EntryZ {
	if !mod.Enabled(lvl) {
		return nil
	}
	e := newEntryZ()
	e.lvl = lvl
	e.msg = msg
	e.mod = mod
	return e
}

func (mod Module) DebugZ(msg string) *EntryZ { return mod.logz(DebugLevel, msg) }
func (mod Module) InfoZ(msg string) *EntryZ  { return mod.logz(InfoLevel, msg) }
func (mod Module) WarnZ(msg string) *EntryZ  { return mod.logz(WarnLevel, msg) }
func (mod Module) ErrorZ(msg string) *EntryZ { return mod.logz(ErrorLevel, msg) }
func (mod Module) FatalZ(msg string) *EntryZ { return mod.logz(FatalLevel, msg) }
