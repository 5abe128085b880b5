// Package video receives the frames produced by a core and hands them to
// the surfaces displaying them.
package video

import (
	"fmt"
	"sync"
	"sync/atomic"

	"corehost/emu/log"
)

var modVideo = log.ModVideo

// BytesPerPixel is the size of a RGB565 pixel, the only format accepted from
// cores.
const BytesPerPixel = 2

// A Texture holds the last frame, in RGB565, width*2 bytes per row.
type Texture interface {
	Size() (w, h int)

	// Upload copies h rows of w*2 bytes from data, rows being pitch bytes
	// apart. It must not keep a reference to data.
	Upload(data []byte, pitch int)
}

// An Allocator creates the textures of a given size.
type Allocator interface {
	NewTexture(w, h int) (Texture, error)

	// Release frees a texture that's been replaced.
	Release(Texture)
}

// A Surface displays the texture of a Sink.
type Surface interface {
	// Redraw is called asynchronously after a new frame has been uploaded,
	// or when a frame is duplicated. Notifications are coalesced: a surface
	// slower than the core only sees the last frame.
	Redraw(tex Texture)
}

// A Sink uploads core frames into a texture and notifies surfaces.
type Sink struct {
	alloc Allocator
	tex   Texture

	mu       sync.Mutex
	surfaces []Surface

	notify chan struct{}
	done   chan struct{}

	frames atomic.Uint64
	dupes  atomic.Uint64
}

func NewSink(alloc Allocator) *Sink {
	s := &Sink{
		alloc:  alloc,
		notify: make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
	go s.dispatch()
	return s
}

// AddSurface registers a surface to be notified of new frames.
func (s *Sink) AddSurface(surf Surface) {
	s.mu.Lock()
	s.surfaces = append(s.surfaces, surf)
	s.mu.Unlock()
}

// Texture returns the current texture, nil before the first frame.
func (s *Sink) Texture() Texture {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tex
}

// Refresh uploads a core frame. It's called from the core path: the copy is
// done when it returns, surfaces are notified later. A nil data means the
// core duplicates the previous frame.
func (s *Sink) Refresh(width, height, pitch int, data []byte) {
	if data == nil {
		s.dupes.Add(1)
		s.signal()
		return
	}
	if err := s.upload(width, height, pitch, data); err != nil {
		modVideo.WarnZ("dropped frame").Error("err", err).End()
		return
	}
	s.frames.Add(1)
	s.signal()
}

func (s *Sink) upload(width, height, pitch int, data []byte) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("invalid frame size %dx%d", width, height)
	}
	if pitch < width*BytesPerPixel {
		return fmt.Errorf("pitch %d too small for width %d", pitch, width)
	}
	if len(data) < pitch*(height-1)+width*BytesPerPixel {
		return fmt.Errorf("frame data too short: %d bytes", len(data))
	}

	s.mu.Lock()
	tex := s.tex
	s.mu.Unlock()

	if tex == nil || !sameSize(tex, width, height) {
		ntex, err := s.alloc.NewTexture(width, height)
		if err != nil {
			return fmt.Errorf("texture allocation: %w", err)
		}
		modVideo.InfoZ("new texture").Int("width", width).Int("height", height).End()

		s.mu.Lock()
		s.tex = ntex
		s.mu.Unlock()

		if tex != nil {
			s.alloc.Release(tex)
		}
		tex = ntex
	}

	tex.Upload(data, pitch)
	return nil
}

func sameSize(tex Texture, w, h int) bool {
	tw, th := tex.Size()
	return tw == w && th == h
}

func (s *Sink) signal() {
	select {
	case s.notify <- struct{}{}:
	default:
	}
}

func (s *Sink) dispatch() {
	defer close(s.done)
	for range s.notify {
		s.mu.Lock()
		tex := s.tex
		surfaces := s.surfaces
		s.mu.Unlock()

		if tex == nil {
			continue
		}
		for _, surf := range surfaces {
			surf.Redraw(tex)
		}
	}
}

// Frames returns the number of frames uploaded and duplicated so far.
func (s *Sink) Frames() (uploaded, duplicated uint64) {
	return s.frames.Load(), s.dupes.Load()
}

// Close stops notifying surfaces. Refresh must not be called afterwards.
func (s *Sink) Close() {
	close(s.notify)
	<-s.done
}
