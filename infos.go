package main

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"

	"github.com/go-faster/jx"
	"golang.org/x/sync/errgroup"

	"corehost/emu"
	"corehost/libretro"
)

type coreInfo struct {
	Path       string
	Err        error
	APIVersion uint
	System     libretro.SystemInfo
	Caps       libretro.Capabilities
}

// probe is a frontend which ignores all callbacks, cores are never run.
type probe struct{}

func (probe) CanDupe() bool                                   { return true }
func (probe) SetPixelFormat(libretro.PixelFormat) bool        { return false }
func (probe) SaveDirectory() (string, bool)                   { return "", false }
func (probe) VideoRefresh(libretro.VideoFrame)                {}
func (probe) AudioSamples([]int16)                            {}
func (probe) InputPoll()                                      {}
func (probe) InputState(port, device, index, id uint32) int16 { return 0 }

func probeCore(path string) coreInfo {
	info := coreInfo{Path: path}
	core, err := libretro.Open(path, probe{})
	if err != nil {
		info.Err = err
		return info
	}
	defer core.Close()

	info.APIVersion = core.APIVersion()
	info.System = core.SystemInfo()
	info.Caps = core.Capabilities()
	return info
}

// defaultCores returns the libraries of all consoles present in dir.
func defaultCores(dir string) []string {
	var paths []string
	for _, tag := range emu.ConsoleTags() {
		c, _ := emu.ConsoleByTag(tag)
		path := c.LibraryPath(dir)
		if _, err := os.Stat(path); err == nil {
			paths = append(paths, path)
		}
	}
	return paths
}

func coreInfosMain(args CoreInfos) {
	paths := args.Cores
	if len(paths) == 0 {
		cfg := emu.LoadConfigOrDefault()
		paths = defaultCores(cfg.General.CoresDir)
		if len(paths) == 0 {
			fatalf("no core library found in %s", cfg.General.CoresDir)
		}
	}

	infos := make([]coreInfo, len(paths))
	var g errgroup.Group
	g.SetLimit(runtime.NumCPU())
	for i, path := range paths {
		g.Go(func() error {
			infos[i] = probeCore(path)
			return nil
		})
	}
	g.Wait()

	if args.JSON {
		var e jx.Encoder
		encodeCoreInfos(&e, infos)
		os.Stdout.Write(append(e.Bytes(), '\n'))
		return
	}
	for _, info := range infos {
		printCoreInfo(os.Stdout, info)
	}
}

func printCoreInfo(w io.Writer, info coreInfo) {
	fmt.Fprintf(w, "%s\n", info.Path)
	if info.Err != nil {
		fmt.Fprintf(w, "  error: %v\n\n", info.Err)
		return
	}
	fmt.Fprintf(w, "  name:        %s %s\n", info.System.LibraryName, info.System.LibraryVersion)
	fmt.Fprintf(w, "  api version: %d\n", info.APIVersion)
	fmt.Fprintf(w, "  extensions:  %s\n", info.System.ValidExtensions)
	fmt.Fprintf(w, "  full path:   %t\n", info.System.NeedFullpath)

	var caps []string
	for _, c := range []struct {
		name string
		ok   bool
	}{
		{"save-states", info.Caps.SaveStates},
		{"save-ram", info.Caps.SaveRAM},
		{"reset", info.Caps.Reset},
		{"unload", info.Caps.Unload},
	} {
		if c.ok {
			caps = append(caps, c.name)
		}
	}
	fmt.Fprintf(w, "  features:    %s\n\n", strings.Join(caps, ", "))
}

func encodeCoreInfos(e *jx.Encoder, infos []coreInfo) {
	e.ArrStart()
	for _, info := range infos {
		e.Obj(func(e *jx.Encoder) {
			e.Field("path", func(e *jx.Encoder) { e.Str(info.Path) })
			if info.Err != nil {
				e.Field("error", func(e *jx.Encoder) { e.Str(info.Err.Error()) })
				return
			}
			e.Field("name", func(e *jx.Encoder) { e.Str(info.System.LibraryName) })
			e.Field("version", func(e *jx.Encoder) { e.Str(info.System.LibraryVersion) })
			e.Field("api_version", func(e *jx.Encoder) { e.UInt(info.APIVersion) })
			e.Field("extensions", func(e *jx.Encoder) {
				e.ArrStart()
				for _, ext := range strings.Split(info.System.ValidExtensions, "|") {
					if ext != "" {
						e.Str(ext)
					}
				}
				e.ArrEnd()
			})
			e.Field("need_fullpath", func(e *jx.Encoder) { e.Bool(info.System.NeedFullpath) })
			e.Field("save_states", func(e *jx.Encoder) { e.Bool(info.Caps.SaveStates) })
			e.Field("save_ram", func(e *jx.Encoder) { e.Bool(info.Caps.SaveRAM) })
			e.Field("reset", func(e *jx.Encoder) { e.Bool(info.Caps.Reset) })
		})
	}
	e.ArrEnd()
}
