package main

import (
	"os"
)

func main() {
	args := parseArgs(os.Args[1:])

	switch args.mode {
	case coreInfosMode:
		coreInfosMain(args.CoreInfos)
	case ctlMode:
		ctlMain(args.Ctl)
	case mapInputMode:
		mapInputMain(args.MapInput)
	case versionMode:
		versionMain()
	default:
		runMain(args.Run)
	}
}
