// Package audio carries the samples produced by a core to an audio device.
//
// Cores produce interleaved stereo int16 samples, at their own rate, in bursts
// of roughly one frame worth of audio. Two strategies move them to the device:
// RingStream, pulled by the device from a ring buffer, and QueueStream,
// accumulating blocks that are then scheduled on the device.
package audio

import (
	"encoding/binary"
	"math"
	"sync/atomic"

	"corehost/emu/log"
)

var modAudio = log.ModAudio

// A Stream receives core samples and plays them.
type Stream interface {
	// Push hands interleaved stereo samples to the stream and returns the
	// number of samples accepted. Samples the stream can't keep up with are
	// dropped.
	Push(samples []int16) int

	// Flush discards any sample not yet played.
	Flush()

	// Start resets the stream and attaches it to the output device at the
	// given core sample rate.
	Start(rate float64) error

	// Stop detaches the stream from the device. Buffered samples are kept.
	Stop()

	// Stats returns the stream counters.
	Stats() Stats
}

// Stats counts the samples lost by a stream. Dropping samples is never an
// error: the stream keeps playing.
type Stats struct {
	Pushed    uint64 // samples received
	Dropped   uint64 // samples dropped on overflow
	Underruns uint64 // device reads that couldn't be fully served
}

type counters struct {
	pushed, dropped, underruns atomic.Uint64
}

func (c *counters) stats() Stats {
	return Stats{
		Pushed:    c.pushed.Load(),
		Dropped:   c.dropped.Load(),
		Underruns: c.underruns.Load(),
	}
}

func (c *counters) reset() {
	c.pushed.Store(0)
	c.dropped.Store(0)
	c.underruns.Store(0)
}

// NullStream discards everything it's given.
type NullStream struct{ c counters }

func (s *NullStream) Push(samples []int16) int {
	s.c.pushed.Add(uint64(len(samples)))
	return len(samples)
}

func (s *NullStream) Flush()                   {}
func (s *NullStream) Start(rate float64) error { return nil }
func (s *NullStream) Stop()                    {}
func (s *NullStream) Stats() Stats             { return s.c.stats() }

const int16ToFloat = 1.0 / 32768.0

// putFloat32 converts samples to little-endian float32 in [-1, 1) into out,
// which must hold 4 bytes per sample.
func putFloat32(out []byte, samples []int16) {
	for i, s := range samples {
		binary.LittleEndian.PutUint32(out[i*4:], math.Float32bits(float32(s)*int16ToFloat))
	}
}
