package audio

import (
	"slices"

	"github.com/arl/blip"
)

const (
	// maximum number of input frames processed at once.
	resampleChunk = 1024

	// output frames a blip buffer can hold, allowing ratios up to 8.
	resampleBufSize = 8 * resampleChunk
)

// A Resampler converts interleaved stereo samples from one rate to another
// with band-limited synthesis, one blip buffer per channel.
type Resampler struct {
	left, right *blip.Buffer
	prev        [2]int16
	out         []int16
}

func NewResampler(from, to float64) *Resampler {
	r := &Resampler{
		left:  blip.NewBuffer(resampleBufSize),
		right: blip.NewBuffer(resampleBufSize),
		out:   make([]int16, 0, 2*resampleBufSize),
	}
	r.left.SetRates(from, to)
	r.right.SetRates(from, to)
	return r
}

// Resample converts samples and returns the output, which is only valid
// until the next call.
func (r *Resampler) Resample(samples []int16) []int16 {
	r.out = r.out[:0]
	for len(samples) >= 2 {
		n := min(len(samples)/2, resampleChunk)
		for i := range n {
			l, rr := samples[2*i], samples[2*i+1]
			if d := int32(l) - int32(r.prev[0]); d != 0 {
				r.left.AddDelta(uint64(i), d)
			}
			if d := int32(rr) - int32(r.prev[1]); d != 0 {
				r.right.AddDelta(uint64(i), d)
			}
			r.prev = [2]int16{l, rr}
		}
		r.left.EndFrame(n)
		r.right.EndFrame(n)
		samples = samples[2*n:]

		avail := r.left.SamplesAvailable()
		start := len(r.out)
		r.out = slices.Grow(r.out, 2*avail)[:start+2*avail]
		dst := r.out[start:]
		r.left.ReadSamples(dst, avail, blip.Stereo)
		r.right.ReadSamples(dst[1:], avail, blip.Stereo)
	}
	return r.out
}

// Reset clears the resampler history.
func (r *Resampler) Reset() {
	r.left.Clear()
	r.right.Clear()
	r.prev = [2]int16{}
}
