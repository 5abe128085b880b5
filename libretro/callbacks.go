package libretro

// callbacks holds the C function pointers handed to a core.
type callbacks struct {
	environment      uintptr
	videoRefresh     uintptr
	audioSample      uintptr
	audioSampleBatch uintptr
	inputPoll        uintptr
	inputState       uintptr
}

// callbacks lazily creates the trampolines of a slot. The number of C
// callbacks a process can create is limited, so each library gets a single
// set, reused by every session attached to it.
func (s *slot) callbacks() callbacks {
	s.cbOnce.Do(func() {
		s.cbs = callbacks{
			environment:      newCallback(s.environment),
			videoRefresh:     newCallback(s.videoRefresh),
			audioSample:      newCallback(s.audioSample),
			audioSampleBatch: newCallback(s.audioSampleBatch),
			inputPoll:        newCallback(s.inputPoll),
			inputState:       newCallback(s.inputState),
		}
	})
	return s.cbs
}
