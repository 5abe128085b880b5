package main

import (
	"fmt"
	"os"
	"runtime/pprof"

	"github.com/veandco/go-sdl2/sdl"

	"corehost/emu"
	"corehost/emu/log"
	"corehost/emu/rpc"
	"corehost/hw/input"
	"corehost/rom"
)

// runMain runs the emulator directly with the given rom.
func runMain(args Run) {
	cfg := emu.LoadConfigOrDefault()
	cfg.Video.Monitor = args.Monitor

	var (
		console *emu.Console
		err     error
	)
	if args.Console != "" {
		console, err = emu.ConsoleByTag(args.Console)
	} else {
		console, err = emu.DetectConsole(args.RomPath)
	}
	checkf(err, "can't select console")

	library := args.Core
	if library == "" {
		library = console.LibraryPath(cfg.General.CoresDir)
	}

	game, err := console.LoadROM(args.RomPath)
	checkf(err, "failed to load game")

	opts := emu.Options{
		Console:    console,
		Library:    library,
		Headless:   args.Headless,
		Frames:     args.Frames,
		Pace:       args.Frames == 0,
		Screenshot: args.Screenshot,
	}

	if args.Headless {
		os.Exit(runEmulator(game, cfg, opts, args))
	}

	var exitcode int
	sdl.Main(func() {
		exitcode = runEmulator(game, cfg, opts, args)
	})
	os.Exit(exitcode)
}

func runEmulator(game *rom.ROM, cfg emu.Config, opts emu.Options, args Run) int {
	emulator, err := emu.Launch(game, cfg, opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to start emulator: %v\n", err)
		return 1
	}

	if args.CPUProfile != "" {
		f, err := os.Create(args.CPUProfile)
		checkf(err, "failed to create cpu profile file")
		checkf(pprof.StartCPUProfile(f), "failed to start cpu profile")
		defer func() {
			pprof.StopCPUProfile()
			f.Close()
			fmt.Println("CPU profile written to", args.CPUProfile)
		}()
	}

	if args.Port != 0 {
		log.ModEmu.InfoZ("Starting rpc server").Int("port", args.Port).End()
		server, err := rpc.NewServer(args.Port, emulator)
		if err != nil {
			fmt.Fprintf(os.Stderr, "RPC error: %v\n", err)
			emulator.Stop()
			emulator.Run()
			return 1
		}
		defer server.Close()
	}

	if args.StateSlot >= 0 {
		// Slot requests are served by the loop, start it first.
		go func() {
			if err := emulator.LoadSlot(args.StateSlot); err != nil {
				log.ModEmu.WarnZ("Failed to load state").Int("slot", args.StateSlot).Error("err", err).End()
			}
		}()
	}

	emulator.Run()
	return 0
}

// mapInputMain captures an input and maps it to a console button, or to the
// fast-forward hotkey, in the configuration file.
func mapInputMain(args MapInput) {
	console, err := emu.ConsoleByTag(args.Console)
	checkf(err, "invalid console")

	btn, isButton := input.ButtonByName(args.Button)
	if !isButton && args.Button != "fast-forward" {
		fatalf("unknown button %q", args.Button)
	}

	cfg := emu.LoadConfigOrDefault()

	var (
		code input.Code
		cerr error
	)
	sdl.Main(func() {
		code, cerr = input.Capture(console.Name + " " + args.Button)
	})
	checkf(cerr, "failed to capture input")
	if code.Type == input.ControlNotSet {
		fmt.Println("Mapping cancelled")
		return
	}

	preset := cfg.Input.Preset(console.Tag)
	if isButton {
		preset.Buttons[btn] = code
	} else {
		preset.FastForward = code
	}
	if cfg.Input.Presets == nil {
		cfg.Input.Presets = make(map[string]input.Preset)
	}
	cfg.Input.Presets[console.Tag] = preset

	checkf(emu.SaveConfig(cfg), "failed to save config")
	fmt.Printf("%s %s mapped to %s\n", console.Name, args.Button, code.Name())
}
