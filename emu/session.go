package emu

import (
	"sync/atomic"

	"corehost/emu/log"
	"corehost/hw/audio"
	"corehost/hw/input"
	"corehost/libretro"
)

// A FrameSink receives the frames of a core. *video.Sink is one.
type FrameSink interface {
	Refresh(width, height, pitch int, data []byte)
}

// Session is the libretro.Frontend of a console: it routes core callbacks
// to the video sink, the audio stream and the input bridge.
type Session struct {
	*Negotiator

	video  FrameSink
	audio  audio.Stream
	input  input.Bridge
	layout uint16

	frames    atomic.Uint64
	badFormat bool // a frame was dropped for its pixel format
}

// NewSession creates the frontend of console c. Any of video, audio and
// bridge may be nil.
func NewSession(c *Console, documents string, video FrameSink, stream audio.Stream, bridge input.Bridge) *Session {
	s := &Session{
		Negotiator: NewNegotiator(documents, c.Tag),
		video:      video,
		audio:      stream,
		input:      bridge,
		layout:     c.ButtonMask(),
	}
	log.ModInput.DebugZ("input layout").String("console", c.Tag).Hex16("buttons", s.layout).End()
	return s
}

var _ libretro.Frontend = (*Session)(nil)

// VideoRefresh forwards frames to the video sink. Frames are dropped until
// the core negotiates RGB565.
func (s *Session) VideoRefresh(frame libretro.VideoFrame) {
	s.frames.Add(1)
	if pf := s.PixelFormat(); pf != libretro.PixelFormatRGB565 {
		if !s.badFormat {
			s.badFormat = true
			log.ModVideo.WarnZ("frames dropped, core didn't negotiate RGB565").Stringer("format", pf).End()
		}
		return
	}
	if s.video != nil {
		s.video.Refresh(frame.Width, frame.Height, frame.Pitch, frame.Data)
	}
}

func (s *Session) AudioSamples(samples []int16) {
	if s.audio != nil {
		s.audio.Push(samples)
	}
}

func (s *Session) InputPoll() {
	if s.input != nil {
		s.input.Poll()
	}
}

// InputState reports the buttons of the console pad only.
func (s *Session) InputState(port, device, index, id uint32) int16 {
	if id < uint32(input.NumButtons) && s.layout&(1<<id) == 0 {
		return 0
	}
	return input.State(s.input, port, device, index, id)
}

// Frames returns the number of frames, duplicated or not, the core output.
func (s *Session) Frames() uint64 { return s.frames.Load() }
