//go:build !darwin && !linux

package libretro

func dlopen(string) (uintptr, error)         { return 0, ErrUnsupported }
func dlsym(uintptr, string) (uintptr, error) { return 0, ErrUnsupported }
func dlclose(uintptr) error                  { return nil }
func registerFunc(any, uintptr)              {}
func newCallback(any) uintptr                { return 0 }
