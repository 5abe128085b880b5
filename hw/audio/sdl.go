package audio

import (
	"fmt"

	"github.com/veandco/go-sdl2/sdl"
)

// SDLDevice is a QueueDevice on the default SDL audio output.
type SDLDevice struct {
	id sdl.AudioDeviceID
}

func (d *SDLDevice) Open(rate int) error {
	var err error
	sdl.Do(func() {
		if err = sdl.InitSubSystem(sdl.INIT_AUDIO); err != nil {
			return
		}
		spec := sdl.AudioSpec{
			Freq:     int32(rate),
			Format:   sdl.AUDIO_F32,
			Channels: 2,
			Samples:  2048,
		}
		d.id, err = sdl.OpenAudioDevice("", false, &spec, nil, 0)
		if err == nil {
			sdl.PauseAudioDevice(d.id, false)
		}
	})
	if err != nil {
		return fmt.Errorf("failed to open SDL audio device at %dHz: %s", rate, err)
	}
	return nil
}

func (d *SDLDevice) Queue(block []byte) error { return sdl.QueueAudio(d.id, block) }

func (d *SDLDevice) Queued() int { return int(sdl.GetQueuedAudioSize(d.id)) }

func (d *SDLDevice) Clear() { sdl.ClearQueuedAudio(d.id) }

func (d *SDLDevice) Close() {
	sdl.Do(func() {
		sdl.ClearQueuedAudio(d.id)
		sdl.CloseAudioDevice(d.id)
		d.id = 0
	})
}
