package libretro

import (
	"errors"
	"fmt"
	"path/filepath"
	"runtime"
	"strings"
	"unsafe"

	"corehost/emu/log"
)

var modCore = log.ModCore

var (
	// ErrFatal is wrapped by every error preventing a core from being used
	// at all: no retry can help, the session can't start.
	ErrFatal = errors.New("core unusable")

	ErrOpen          = fmt.Errorf("%w: cannot open library", ErrFatal)
	ErrMissingSymbol = fmt.Errorf("%w: missing mandatory symbol", ErrFatal)
	ErrUnsupported   = fmt.Errorf("%w: dynamic loading unsupported on %s", ErrFatal, runtime.GOOS)

	ErrClosed = errors.New("core already closed")
)

// A LoadError describes why a core library couldn't be loaded.
type LoadError struct {
	Path    string
	Symbols []string // missing mandatory symbols, if any
	Err     error
}

func (e *LoadError) Error() string {
	if len(e.Symbols) > 0 {
		return fmt.Sprintf("load %s: %v: %s", e.Path, e.Err, strings.Join(e.Symbols, ", "))
	}
	return fmt.Sprintf("load %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// Capabilities lists the optional features provided by a core.
type Capabilities struct {
	SaveStates bool // serialize, unserialize and serialize_size
	SaveRAM    bool // get_memory_data and get_memory_size
	SystemInfo bool
	Reset      bool
	Unload     bool
}

// Core is a loaded libretro core: the library handle and its function table.
// A Core is not safe for concurrent use, all calls must come from the
// goroutine driving the frame pump.
type Core struct {
	path   string
	handle uintptr
	slot   *slot
	caps   Capabilities
	closed bool
	inited bool

	// Game path and data are kept alive and pinned while a game is loaded.
	game    runtime.Pinner
	gameBuf [2][]byte

	fn struct {
		// mandatory
		init                func()
		run                 func()
		loadGame            func(info unsafe.Pointer) bool
		getSystemAVInfo     func(info unsafe.Pointer)
		setEnvironment      func(cb uintptr)
		setVideoRefresh     func(cb uintptr)
		setAudioSample      func(cb uintptr)
		setAudioSampleBatch func(cb uintptr)
		setInputPoll        func(cb uintptr)
		setInputState       func(cb uintptr)

		// optional
		deinit        func()
		apiVersion    func() uint32
		getSystemInfo func(info unsafe.Pointer)
		unloadGame    func()
		reset         func()
		serializeSize func() uintptr
		serialize     func(data unsafe.Pointer, size uintptr) bool
		unserialize   func(data unsafe.Pointer, size uintptr) bool
		getMemoryData func(id uint32) unsafe.Pointer
		getMemorySize func(id uint32) uintptr
	}
}

// Open loads the core library at path, binds its symbols and registers fe to
// receive its callbacks. Errors wrap ErrFatal, or are ErrSessionActive if a
// frontend is already attached to that library.
func Open(path string, fe Frontend) (*Core, error) {
	key, err := libraryKey(path)
	if err != nil {
		return nil, &LoadError{Path: path, Err: fmt.Errorf("%w: %v", ErrOpen, err)}
	}

	handle, err := dlopen(key)
	if err != nil {
		return nil, &LoadError{Path: key, Err: fmt.Errorf("%w: %v", ErrOpen, err)}
	}

	c := &Core{path: key, handle: handle}
	if err := c.bind(func(name string) (uintptr, error) { return dlsym(handle, name) }); err != nil {
		dlclose(handle)
		return nil, err
	}

	c.slot, err = sessions().attach(key, fe)
	if err != nil {
		dlclose(handle)
		return nil, err
	}

	c.setCallbacks()

	modCore.InfoZ("core library loaded").
		String("path", key).
		Bool("savestates", c.caps.SaveStates).
		Bool("sram", c.caps.SaveRAM).
		End()
	return c, nil
}

func libraryKey(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	return filepath.Clean(abs), nil
}

// bind resolves the function table with lookup. Missing optional symbols
// only turn the corresponding capability off.
func (c *Core) bind(lookup func(name string) (uintptr, error)) error {
	var missing []string
	mandatory := func(fptr any, name string) {
		sym, err := lookup(name)
		if err != nil || sym == 0 {
			missing = append(missing, name)
			return
		}
		registerFunc(fptr, sym)
	}
	optional := func(fptr any, name string) bool {
		sym, err := lookup(name)
		if err != nil || sym == 0 {
			modCore.DebugZ("optional symbol not found").String("name", name).End()
			return false
		}
		registerFunc(fptr, sym)
		return true
	}

	mandatory(&c.fn.init, "retro_init")
	mandatory(&c.fn.run, "retro_run")
	mandatory(&c.fn.loadGame, "retro_load_game")
	mandatory(&c.fn.getSystemAVInfo, "retro_get_system_av_info")
	mandatory(&c.fn.setEnvironment, "retro_set_environment")
	mandatory(&c.fn.setVideoRefresh, "retro_set_video_refresh")
	mandatory(&c.fn.setAudioSample, "retro_set_audio_sample")
	mandatory(&c.fn.setAudioSampleBatch, "retro_set_audio_sample_batch")
	mandatory(&c.fn.setInputPoll, "retro_set_input_poll")
	mandatory(&c.fn.setInputState, "retro_set_input_state")
	if len(missing) > 0 {
		return &LoadError{Path: c.path, Symbols: missing, Err: ErrMissingSymbol}
	}

	optional(&c.fn.deinit, "retro_deinit")
	optional(&c.fn.apiVersion, "retro_api_version")
	c.caps.SystemInfo = optional(&c.fn.getSystemInfo, "retro_get_system_info")
	c.caps.Unload = optional(&c.fn.unloadGame, "retro_unload_game")
	c.caps.Reset = optional(&c.fn.reset, "retro_reset")

	c.caps.SaveStates = optional(&c.fn.serializeSize, "retro_serialize_size")
	c.caps.SaveStates = optional(&c.fn.serialize, "retro_serialize") && c.caps.SaveStates
	c.caps.SaveStates = optional(&c.fn.unserialize, "retro_unserialize") && c.caps.SaveStates

	c.caps.SaveRAM = optional(&c.fn.getMemoryData, "retro_get_memory_data")
	c.caps.SaveRAM = optional(&c.fn.getMemorySize, "retro_get_memory_size") && c.caps.SaveRAM
	return nil
}

func (c *Core) setCallbacks() {
	cbs := c.slot.callbacks()
	c.fn.setEnvironment(cbs.environment)
	c.fn.setVideoRefresh(cbs.videoRefresh)
	c.fn.setAudioSample(cbs.audioSample)
	c.fn.setAudioSampleBatch(cbs.audioSampleBatch)
	c.fn.setInputPoll(cbs.inputPoll)
	c.fn.setInputState(cbs.inputState)
}

func (c *Core) Path() string               { return c.path }
func (c *Core) Capabilities() Capabilities { return c.caps }

func (c *Core) Init() {
	c.fn.init()
	c.inited = true
}

func (c *Core) APIVersion() uint {
	if c.fn.apiVersion == nil {
		return 0
	}
	return uint(c.fn.apiVersion())
}

func (c *Core) SystemInfo() SystemInfo {
	if c.fn.getSystemInfo == nil {
		return SystemInfo{}
	}
	var si cSystemInfo
	c.fn.getSystemInfo(unsafe.Pointer(&si))
	return SystemInfo{
		LibraryName:     gostring(si.libraryName),
		LibraryVersion:  gostring(si.libraryVersion),
		ValidExtensions: gostring(si.validExtensions),
		NeedFullpath:    si.needFullpath,
		BlockExtract:    si.blockExtract,
	}
}

func (c *Core) SystemAVInfo() SystemAVInfo {
	var av cSystemAVInfo
	c.fn.getSystemAVInfo(unsafe.Pointer(&av))
	return SystemAVInfo{
		BaseWidth:   int(av.geometry.baseWidth),
		BaseHeight:  int(av.geometry.baseHeight),
		MaxWidth:    int(av.geometry.maxWidth),
		MaxHeight:   int(av.geometry.maxHeight),
		AspectRatio: av.geometry.aspectRatio,
		FPS:         av.timing.fps,
		SampleRate:  av.timing.sampleRate,
	}
}

// LoadGame hands the game to the core. data may be nil for cores loading
// the game from path themselves. Both stay alive until UnloadGame or Close.
func (c *Core) LoadGame(path string, data []byte) bool {
	c.releaseGame()

	cpath := cstring(path)
	c.gameBuf = [2][]byte{cpath, data}
	c.game.Pin(&cpath[0])

	info := cGameInfo{path: &cpath[0]}
	if len(data) > 0 {
		c.game.Pin(&data[0])
		info.data = unsafe.Pointer(&data[0])
		info.size = uintptr(len(data))
	}

	if !c.fn.loadGame(unsafe.Pointer(&info)) {
		c.releaseGame()
		return false
	}
	return true
}

func (c *Core) releaseGame() {
	c.game.Unpin()
	c.gameBuf = [2][]byte{}
}

func (c *Core) UnloadGame() {
	if c.fn.unloadGame != nil {
		c.fn.unloadGame()
	}
	c.releaseGame()
}

func (c *Core) Run() { c.fn.run() }

func (c *Core) Reset() {
	if c.fn.reset != nil {
		c.fn.reset()
	}
}

func (c *Core) SerializeSize() int {
	if !c.caps.SaveStates {
		return 0
	}
	return int(c.fn.serializeSize())
}

func (c *Core) Serialize(buf []byte) bool {
	if !c.caps.SaveStates || len(buf) == 0 {
		return false
	}
	return c.fn.serialize(unsafe.Pointer(&buf[0]), uintptr(len(buf)))
}

func (c *Core) Unserialize(buf []byte) bool {
	if !c.caps.SaveStates || len(buf) == 0 {
		return false
	}
	return c.fn.unserialize(unsafe.Pointer(&buf[0]), uintptr(len(buf)))
}

// MemoryData returns the memory region id, as a slice aliasing the core
// memory, or nil if the core doesn't expose it.
func (c *Core) MemoryData(id uint32) []byte {
	if !c.caps.SaveRAM {
		return nil
	}
	size := c.fn.getMemorySize(id)
	if size == 0 {
		return nil
	}
	ptr := c.fn.getMemoryData(id)
	if ptr == nil {
		return nil
	}
	return unsafe.Slice((*byte)(ptr), int(size))
}

func (c *Core) Deinit() {
	if c.inited && c.fn.deinit != nil {
		c.fn.deinit()
	}
	c.inited = false
}

// Close deinitializes the core, detaches its frontend and closes the
// library. It must be called only once.
func (c *Core) Close() error {
	if c.closed {
		return ErrClosed
	}
	c.closed = true

	c.Deinit()
	c.releaseGame()
	c.slot.detach()
	if err := dlclose(c.handle); err != nil {
		return fmt.Errorf("close %s: %v", c.path, err)
	}
	modCore.InfoZ("core library closed").String("path", c.path).End()
	return nil
}
