package libretro

import (
	"errors"
	"runtime"
	"sync"
	"sync/atomic"
	"unsafe"
)

// ErrSessionActive is returned when a frontend is attached to a library that
// already has one. Core callbacks carry no context pointer so there's no way
// to tell sessions apart: at most one session per loaded library can exist
// in a process. Running more would require one core per subprocess.
var ErrSessionActive = errors.New("a session is already active for this core library")

// registry maps library identities to their slot. Slots are never removed:
// the callbacks created for a library are bound to its slot for the process
// lifetime, since cores can't be told to forget a callback.
type registry struct {
	mu    sync.Mutex
	slots map[string]*slot
}

var sessions = sync.OnceValue(func() *registry {
	return &registry{slots: make(map[string]*slot)}
})

func (r *registry) attach(key string, fe Frontend) (*slot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.slots[key]
	if !ok {
		s = &slot{key: key, cstrs: make(map[string]*byte)}
		r.slots[key] = s
	}
	if !s.fe.CompareAndSwap(nil, &frontendRef{fe}) {
		return nil, ErrSessionActive
	}
	return s, nil
}

// Attached reports whether a session is attached to the library at path.
func Attached(path string) bool {
	key, err := libraryKey(path)
	if err != nil {
		return false
	}
	r := sessions()
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.slots[key]
	return ok && s.fe.Load() != nil
}

type frontendRef struct{ Frontend }

// A slot dispatches the callbacks of a single library to the frontend
// attached to it.
type slot struct {
	key string
	fe  atomic.Pointer[frontendRef]

	cbOnce sync.Once
	cbs    callbacks

	// C strings handed to the core. The core never frees them and may keep
	// them forever, so they stay pinned.
	cmu   sync.Mutex
	cstrs map[string]*byte
	pin   runtime.Pinner

	sample [2]int16
}

func (s *slot) detach() { s.fe.Store(nil) }

func (s *slot) frontend() Frontend {
	if ref := s.fe.Load(); ref != nil {
		return ref.Frontend
	}
	return nil
}

func (s *slot) cstring(str string) *byte {
	s.cmu.Lock()
	defer s.cmu.Unlock()

	if p, ok := s.cstrs[str]; ok {
		return p
	}
	b := cstring(str)
	p := &b[0]
	s.pin.Pin(p)
	s.cstrs[str] = p
	return p
}

// Trampoline bodies. They're plain Go methods so they can be exercised
// without a C caller.

func (s *slot) environment(cmd uint32, data unsafe.Pointer) bool {
	fe := s.frontend()
	if fe == nil || data == nil {
		return false
	}

	switch cmd {
	case EnvGetCanDupe:
		*(*bool)(data) = fe.CanDupe()
		return true
	case EnvSetPixelFormat:
		return fe.SetPixelFormat(PixelFormat(*(*uint32)(data)))
	case EnvGetSaveDirectory:
		dir, ok := fe.SaveDirectory()
		if !ok {
			return false
		}
		*(**byte)(data) = s.cstring(dir)
		return true
	}
	modCore.DebugZ("unsupported environment command").Uint("cmd", uint64(cmd)).End()
	return false
}

func (s *slot) videoRefresh(data unsafe.Pointer, width, height uint32, pitch uintptr) {
	fe := s.frontend()
	if fe == nil {
		return
	}

	frame := VideoFrame{Width: int(width), Height: int(height), Pitch: int(pitch)}
	if data != nil {
		frame.Data = unsafe.Slice((*byte)(data), int(pitch)*int(height))
	}
	fe.VideoRefresh(frame)
}

func (s *slot) audioSample(left, right int16) {
	fe := s.frontend()
	if fe == nil {
		return
	}
	s.sample[0], s.sample[1] = left, right
	fe.AudioSamples(s.sample[:])
}

func (s *slot) audioSampleBatch(data unsafe.Pointer, frames uintptr) uintptr {
	fe := s.frontend()
	if fe == nil || data == nil {
		return 0
	}
	fe.AudioSamples(unsafe.Slice((*int16)(data), int(frames)*2))
	return frames
}

func (s *slot) inputPoll() {
	if fe := s.frontend(); fe != nil {
		fe.InputPoll()
	}
}

func (s *slot) inputState(port, device, index, id uint32) int16 {
	if fe := s.frontend(); fe != nil {
		return fe.InputState(port, device, index, id)
	}
	return 0
}
