package libretro

// A Frontend receives the callbacks of a core. Callbacks are always invoked
// synchronously from within a core entry point (init, load_game, run...), on
// the goroutine that called it.
type Frontend interface {
	// Environment
	CanDupe() bool
	SetPixelFormat(PixelFormat) bool
	SaveDirectory() (string, bool)

	// VideoRefresh receives a frame. frame.Data is nil for duplicate frames
	// and is only valid until VideoRefresh returns.
	VideoRefresh(frame VideoFrame)

	// AudioSamples receives interleaved stereo samples. The slice is only
	// valid until AudioSamples returns.
	AudioSamples(samples []int16)

	InputPoll()
	InputState(port, device, index, id uint32) int16
}

// A VideoFrame references the core framebuffer.
type VideoFrame struct {
	Width  int
	Height int
	Pitch  int // in bytes
	Data   []byte
}
