package main

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

func versionMain() {
	version := "(devel)"
	var revision string
	if bi, ok := debug.ReadBuildInfo(); ok {
		if bi.Main.Version != "" {
			version = bi.Main.Version
		}
		for _, s := range bi.Settings {
			if s.Key == "vcs.revision" {
				revision = s.Value
			}
		}
	}

	fmt.Printf("corehost %s", version)
	if revision != "" {
		fmt.Printf(" (%s)", revision)
	}
	fmt.Printf(" %s/%s %s\n", runtime.GOOS, runtime.GOARCH, runtime.Version())
}
