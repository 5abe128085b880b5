// Package libretro loads libretro cores and bridges their C callback ABI to
// Go. It's the only package of corehost dealing with raw pointers: everything
// it hands to the rest of the program is either a Go value, or a slice only
// valid for the duration of a callback.
package libretro

import "unsafe"

// Environment commands answered by the frontend. Every other command is
// refused.
const (
	EnvGetCanDupe       uint32 = 3
	EnvSetPixelFormat   uint32 = 10
	EnvGetLogInterface  uint32 = 27
	EnvGetSaveDirectory uint32 = 31
)

// PixelFormat is a retro_pixel_format value.
type PixelFormat uint32

const (
	PixelFormat0RGB1555 PixelFormat = 0
	PixelFormatXRGB8888 PixelFormat = 1
	PixelFormatRGB565   PixelFormat = 2
)

func (pf PixelFormat) String() string {
	switch pf {
	case PixelFormat0RGB1555:
		return "0RGB1555"
	case PixelFormatXRGB8888:
		return "XRGB8888"
	case PixelFormatRGB565:
		return "RGB565"
	}
	return "unknown"
}

// BytesPerPixel returns the size of a pixel in the given format.
func (pf PixelFormat) BytesPerPixel() int {
	if pf == PixelFormatXRGB8888 {
		return 4
	}
	return 2
}

// Input devices.
const (
	DeviceNone   uint32 = 0
	DeviceJoypad uint32 = 1
)

// Memory regions.
const (
	MemorySaveRAM   uint32 = 0
	MemoryRTC       uint32 = 1
	MemorySystemRAM uint32 = 2
	MemoryVideoRAM  uint32 = 3
)

// Game geometry and timing reported by the core once a game is loaded.
type SystemAVInfo struct {
	BaseWidth   int
	BaseHeight  int
	MaxWidth    int
	MaxHeight   int
	AspectRatio float32

	FPS        float64
	SampleRate float64
}

// SystemInfo describes the core itself.
type SystemInfo struct {
	LibraryName     string
	LibraryVersion  string
	ValidExtensions string
	NeedFullpath    bool
	BlockExtract    bool
}

// C layouts. Field order and types must match libretro.h bit for bit.

type cGameInfo struct {
	path *byte
	data unsafe.Pointer
	size uintptr
	meta *byte
}

type cSystemAVInfo struct {
	geometry struct {
		baseWidth   uint32
		baseHeight  uint32
		maxWidth    uint32
		maxHeight   uint32
		aspectRatio float32
	}
	timing struct {
		fps        float64
		sampleRate float64
	}
}

type cSystemInfo struct {
	libraryName     *byte
	libraryVersion  *byte
	validExtensions *byte
	needFullpath    bool
	blockExtract    bool
}

// gostring copies a NUL-terminated C string.
func gostring(p *byte) string {
	if p == nil {
		return ""
	}
	n := 0
	for *(*byte)(unsafe.Add(unsafe.Pointer(p), n)) != 0 {
		n++
	}
	return string(unsafe.Slice(p, n))
}

// cstring returns a NUL-terminated copy of s.
func cstring(s string) []byte {
	b := make([]byte, len(s)+1)
	copy(b, s)
	return b
}
