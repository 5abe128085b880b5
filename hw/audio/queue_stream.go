package audio

import "fmt"

// Default QueueStream tuning.
const (
	DefaultQueueThreshold = 4096 // frames
	DefaultMaxInFlight    = 6    // blocks
)

// A QueueDevice plays blocks of float32 stereo samples in the order they're
// queued.
type QueueDevice interface {
	// Open opens the device at the given rate, and starts playing.
	Open(rate int) error

	// Queue schedules a block. The device copies it.
	Queue(block []byte) error

	// Queued returns the number of bytes not played yet.
	Queued() int

	// Clear discards the queued blocks not played yet.
	Clear()

	// Close stops the device and discards queued blocks.
	Close()
}

// QueueStream is a Stream accumulating samples until a block is large enough
// to be scheduled on a QueueDevice. Blocks are dropped rather than queued
// when too many of them are already in flight, bounding latency.
type QueueStream struct {
	dev         QueueDevice
	threshold   int // in samples
	maxInFlight int
	c           counters

	staging []int16
	fbuf    []byte
	open    bool

	// sizes of the blocks handed to the device, oldest first.
	blocks []int
	total  int
}

// NewQueueStream creates a queue stream. threshold is the block size in
// frames. Zero values select the defaults.
func NewQueueStream(dev QueueDevice, threshold, maxInFlight int) *QueueStream {
	if threshold <= 0 {
		threshold = DefaultQueueThreshold
	}
	if maxInFlight <= 0 {
		maxInFlight = DefaultMaxInFlight
	}
	return &QueueStream{
		dev:         dev,
		threshold:   threshold * 2,
		maxInFlight: maxInFlight,
		staging:     make([]int16, 0, threshold*4),
	}
}

func (s *QueueStream) Push(samples []int16) int {
	s.c.pushed.Add(uint64(len(samples)))
	s.staging = append(s.staging, samples...)
	if len(s.staging) < s.threshold {
		return len(samples)
	}

	block := s.staging
	s.staging = s.staging[:0]

	if !s.open {
		s.c.dropped.Add(uint64(len(block)))
		return len(samples)
	}
	if inflight := s.inFlight(); inflight > s.maxInFlight {
		s.c.dropped.Add(uint64(len(block)))
		modAudio.DebugZ("too many blocks in flight, dropping").
			Int("inflight", inflight).
			Int("samples", len(block)).
			End()
		return len(samples)
	}

	if cap(s.fbuf) < len(block)*4 {
		s.fbuf = make([]byte, len(block)*4)
	}
	fbuf := s.fbuf[:len(block)*4]
	putFloat32(fbuf, block)
	if err := s.dev.Queue(fbuf); err != nil {
		s.c.dropped.Add(uint64(len(block)))
		modAudio.DebugZ("failed to queue audio block").Error("err", err).End()
		return len(samples)
	}
	s.blocks = append(s.blocks, len(fbuf))
	s.total += len(fbuf)
	return len(samples)
}

// inFlight returns the number of blocks the device hasn't finished playing.
func (s *QueueStream) inFlight() int {
	queued := s.dev.Queued()
	i := 0
	for i < len(s.blocks) && s.total-s.blocks[i] >= queued {
		s.total -= s.blocks[i]
		i++
	}
	s.blocks = append(s.blocks[:0], s.blocks[i:]...)
	return len(s.blocks)
}

// Flush drops staged samples and the blocks the device hasn't played.
func (s *QueueStream) Flush() {
	s.staging = s.staging[:0]
	if s.open {
		s.dev.Clear()
	}
	s.blocks = s.blocks[:0]
	s.total = 0
}

// Start opens the device at the exact core rate.
func (s *QueueStream) Start(rate float64) error {
	if rate <= 0 {
		return fmt.Errorf("invalid sample rate %v", rate)
	}
	s.Stop()

	s.staging = s.staging[:0]
	s.blocks = s.blocks[:0]
	s.total = 0
	s.c.reset()

	if err := s.dev.Open(int(rate + 0.5)); err != nil {
		return fmt.Errorf("audio device: %w", err)
	}
	s.open = true

	modAudio.InfoZ("queue stream started").
		Float("rate", rate).
		Int("threshold", s.threshold/2).
		Int("max_inflight", s.maxInFlight).
		End()
	return nil
}

func (s *QueueStream) Stop() {
	if !s.open {
		return
	}
	s.dev.Close()
	s.open = false
	s.blocks = s.blocks[:0]
	s.total = 0
}

func (s *QueueStream) Stats() Stats { return s.c.stats() }
