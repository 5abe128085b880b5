//go:build darwin || linux

package libretro

import "github.com/ebitengine/purego"

func dlopen(path string) (uintptr, error) {
	return purego.Dlopen(path, purego.RTLD_NOW|purego.RTLD_LOCAL)
}

func dlsym(handle uintptr, name string) (uintptr, error) {
	return purego.Dlsym(handle, name)
}

func dlclose(handle uintptr) error {
	return purego.Dlclose(handle)
}

func registerFunc(fptr any, sym uintptr) {
	purego.RegisterFunc(fptr, sym)
}

func newCallback(fn any) uintptr {
	return purego.NewCallback(fn)
}
