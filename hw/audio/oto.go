package audio

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
)

// DefaultDeviceRate is the rate of the oto device when not configured.
const DefaultDeviceRate = 48000

// oto allows a single context per process, its rate is fixed at creation.
var (
	otoCtx     *oto.Context
	otoRate    int
	otoInitErr error
	otoOnce    sync.Once
)

func otoContext(rate int) (*oto.Context, error) {
	otoOnce.Do(func() {
		var ready chan struct{}
		otoCtx, ready, otoInitErr = oto.NewContext(&oto.NewContextOptions{
			SampleRate:   rate,
			ChannelCount: 2,
			Format:       oto.FormatFloat32LE,
			BufferSize:   40 * time.Millisecond,
		})
		if otoInitErr != nil {
			return
		}
		<-ready
		otoRate = rate
	})
	return otoCtx, otoInitErr
}

// OtoDevice is the PullDevice of the system default output, through oto.
type OtoDevice struct {
	ctx  *oto.Context
	rate int
}

// NewOtoDevice returns the oto device. The requested rate is only honored by
// the first call in the process, later calls get the device at that rate.
func NewOtoDevice(rate int) (*OtoDevice, error) {
	if rate <= 0 {
		rate = DefaultDeviceRate
	}
	ctx, err := otoContext(rate)
	if err != nil {
		return nil, fmt.Errorf("oto audio not available: %w", err)
	}
	return &OtoDevice{ctx: ctx, rate: otoRate}, nil
}

func (d *OtoDevice) SampleRate() int { return d.rate }

func (d *OtoDevice) Play(r io.Reader) (io.Closer, error) {
	p := d.ctx.NewPlayer(r)
	// ~40ms of float32 stereo.
	p.SetBufferSize(d.rate / 25 * 2 * 4)
	p.Play()
	return p, nil
}
