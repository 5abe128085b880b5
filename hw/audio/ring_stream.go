package audio

import (
	"errors"
	"fmt"
	"io"
	"sync"
)

// A PullDevice plays float32 stereo samples it reads, at its own pace, from
// a reader.
type PullDevice interface {
	// SampleRate returns the fixed rate of the device.
	SampleRate() int

	// Play starts pulling from r until the returned player is closed.
	Play(r io.Reader) (io.Closer, error)
}

// RingStream is a Stream backed by a RingBuffer. The device pulls samples
// from the ring, getting silence when the core didn't produce enough.
type RingStream struct {
	dev  PullDevice
	ring *RingBuffer
	c    counters

	// push side
	rs   *Resampler
	rate float64

	mu     sync.Mutex
	player io.Closer

	// pull side, only used by the device.
	scratch []int16
}

// NewRingStream creates a ring stream playing on dev. capacity is the number
// of samples of its ring buffer, 0 meaning DefaultRingCapacity.
func NewRingStream(dev PullDevice, capacity int) *RingStream {
	if capacity <= 0 {
		capacity = DefaultRingCapacity
	}
	return &RingStream{dev: dev, ring: NewRingBuffer(capacity)}
}

func (s *RingStream) Push(samples []int16) int {
	s.c.pushed.Add(uint64(len(samples)))
	if s.rs != nil {
		samples = s.rs.Resample(samples)
	}
	n := s.ring.Write(samples)
	if dropped := len(samples) - n; dropped > 0 {
		s.c.dropped.Add(uint64(dropped))
		modAudio.DebugZ("ring overflow").Int("dropped", dropped).End()
	}
	return n
}

func (s *RingStream) Flush() {
	s.ring.Reset()
	if s.rs != nil {
		s.rs.Reset()
	}
}

// Start attaches the stream to the device. Samples are resampled to the
// device rate if it differs from rate.
func (s *RingStream) Start(rate float64) error {
	if rate <= 0 {
		return fmt.Errorf("invalid sample rate %v", rate)
	}
	s.Stop()

	s.ring.Reset()
	s.c.reset()
	s.rate = rate
	s.rs = nil
	if devrate := float64(s.dev.SampleRate()); devrate != rate {
		if devrate > rate*resampleBufSize/resampleChunk {
			return fmt.Errorf("can't resample from %vHz to %vHz", rate, devrate)
		}
		s.rs = NewResampler(rate, devrate)
	}

	player, err := s.dev.Play(ringReader{s})
	if err != nil {
		return fmt.Errorf("audio device: %w", err)
	}

	s.mu.Lock()
	s.player = player
	s.mu.Unlock()

	modAudio.InfoZ("ring stream started").
		Float("rate", rate).
		Int("device_rate", s.dev.SampleRate()).
		Int("capacity", s.ring.Cap()).
		End()
	return nil
}

func (s *RingStream) Stop() {
	s.mu.Lock()
	player := s.player
	s.player = nil
	s.mu.Unlock()

	if player == nil {
		return
	}
	if err := player.Close(); err != nil {
		modAudio.WarnZ("failed to close player").Error("err", err).End()
	}
}

func (s *RingStream) Stats() Stats { return s.c.stats() }

// Buffered returns the number of samples waiting to be played.
func (s *RingStream) Buffered() int { return s.ring.Len() }

// ringReader serves the device with float32 samples read from the ring.
type ringReader struct{ s *RingStream }

func (r ringReader) Read(p []byte) (int, error) {
	s := r.s
	n := len(p) / 4
	if n == 0 {
		return 0, errors.New("read buffer too small")
	}
	if cap(s.scratch) < n {
		s.scratch = make([]int16, n)
	}
	buf := s.scratch[:n]
	if got := s.ring.Read(buf); got < n {
		s.c.underruns.Add(1)
		modAudio.DebugZ("ring underrun").Int("missing", n-got).End()
	}
	putFloat32(p, buf)
	return n * 4, nil
}
