package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/alecthomas/kong"

	"corehost/emu"
	"corehost/emu/log"
)

type mode byte

const (
	runMode       mode = iota // Run a game
	coreInfosMode             // Show core infos
	ctlMode                   // Control a running emulator
	mapInputMode              // Map a console button
	versionMode               // Show corehost version
)

type (
	CLI struct {
		Run       Run       `cmd:"" help:"Run a game with its console core. (default command)" default:"withargs"`
		CoreInfos CoreInfos `cmd:"" help:"Show infos about core libraries." name:"core-infos"`
		Ctl       Ctl       `cmd:"" help:"Control an emulator started with --port."`
		MapInput  MapInput  `cmd:"" help:"Map a console button to a key or controller input." name:"map-input"`
		Version   Version   `cmd:"" help:"Show corehost version."`

		Log logModMask `help:"${log_help}" placeholder:"mod0,mod1,..."`

		mode mode
	}

	Run struct {
		RomPath string `arg:"" name:"/path/to/rom" help:"${rompath_help}" required:"true" type:"existingfile"`

		Console    string `name:"console" help:"${console_help}"`
		Core       string `name:"core" help:"${core_help}" type:"existingfile"`
		Headless   bool   `name:"headless" help:"Run without window nor audio."`
		Frames     int    `name:"frames" help:"Stop after that many display frames."`
		Screenshot string `name:"screenshot" help:"Write the last frame to a PNG file (headless only)." type:"path"`
		Monitor    int32  `name:"monitor" help:"Monitor index to use." default:"0"`
		StateSlot  int    `name:"state-slot" help:"Load a save state slot at start." default:"-1"`
		CPUProfile string `name:"cpuprofile" help:"${cpuprofile_help}" type:"path"`
		Port       int    `name:"port" help:"Serve emulator controls on this port."`
	}

	CoreInfos struct {
		Cores []string `arg:"" name:"core" help:"Core libraries (default: cores of all consoles)." optional:"" type:"existingfile"`
		JSON  bool     `name:"json" help:"Output JSON."`
	}

	Ctl struct {
		Port    int    `name:"port" help:"Port of the emulator." required:""`
		Command string `arg:"" help:"${ctl_help}" enum:"pause,resume,ff,noff,reset,stop,save,load,status"`
		Slot    int    `name:"slot" help:"Save state slot." default:"0"`
		JSON    bool   `name:"json" help:"Output status as JSON."`
	}

	MapInput struct {
		Console string `arg:"" help:"Console: ${consoles}."`
		Button  string `arg:"" help:"${button_help}"`
	}

	Version struct{}
)

var vars = kong.Vars{
	"rompath_help":    "Game to run. Archives (zip, 7z, gzip, rar) are supported.",
	"console_help":    "Console of the game: ${consoles} (default: guessed from the extension).",
	"core_help":       "Core library to use (default: the console core in the cores directory).",
	"cpuprofile_help": "Write CPU profile to file.",
	"log_help":        "Enable logging for specified modules.",
	"ctl_help":        "One of: ${enum}.",
	"button_help":     "Joypad button (B, Y, Select, Start, Up, Down, Left, Right, A, X, L, R, L2, R2, L3, R3) or 'fast-forward'.",
	"consoles":        strings.Join(emu.ConsoleTags(), ", "),
}

func parseArgs(args []string) CLI {
	var cfg CLI
	parser, err := kong.New(&cfg,
		kong.Name("corehost"),
		kong.Description("Console emulator front-end for libretro cores."),
		kong.UsageOnError(),
		kong.Help(printHelp),
		vars)
	if err != nil {
		panic(err)
	}

	ctx, err := parser.Parse(args)
	checkf(err, "failed to parse command line")
	checkf(ctx.Error, "failed to parse command line")

	switch cmd := ctx.Command(); {
	case strings.HasPrefix(cmd, "core-infos"):
		cfg.mode = coreInfosMode
	case strings.HasPrefix(cmd, "ctl"):
		cfg.mode = ctlMode
	case strings.HasPrefix(cmd, "map-input"):
		cfg.mode = mapInputMode
	case cmd == "version":
		cfg.mode = versionMode
	default:
		cfg.mode = runMode
	}
	return cfg
}

func printHelp(options kong.HelpOptions, ctx *kong.Context) error {
	if err := kong.DefaultHelpPrinter(options, ctx); err != nil {
		return err
	}
	if strings.HasPrefix(ctx.Command(), "run") {
		loggingHelp := `
Log modules:
  The --log flag accepts a comma-separated list of modules.

  Valid log modules are:
%s

  As a special case, the following values are accepted:
    - no                     Disable all logging.
    - all                    Enable all logs.

Hotkeys:
  Escape   quit              P        pause/resume
  F        fast-forward      F2       reset
  F5       save state        F8       load state
  0-9      select state slot
`
		var strs []string
		for _, m := range log.ModuleNames() {
			strs = append(strs, "    - "+m)
		}

		fmt.Fprintf(os.Stderr, loggingHelp, strings.Join(strs, "\n"))
	}

	return nil
}

type logModMask log.ModuleMask

// Decode decodes a comma-separated list of module names into a module mask.
//
// Implements kong.MapperValue interface.
func (lm logModMask) Decode(ctx *kong.DecodeContext) error {
	nolog := false
	allLogs := false

	tok := ctx.Scan.Pop()
	for _, v := range strings.Split(tok.Value.(string), ",") {
		switch v {
		case "all":
			allLogs = true
		case "no":
			nolog = true
		default:
			mod, ok := log.ModuleByName(v)
			if !ok {
				return fmt.Errorf("unknown log module %s", v)
			}
			lm |= logModMask(mod.Mask())
		}
	}

	if nolog {
		if allLogs {
			return fmt.Errorf("cannot use 'all' and 'no' together")
		}
		if lm != 0 {
			return fmt.Errorf("cannot combine 'no' with other log modules")
		}
		log.Disable()
		return nil
	}

	if allLogs {
		lm = logModMask(log.ModuleMaskAll)
	}

	log.EnableDebugModules(log.ModuleMask(lm))
	return nil
}

func checkf(err error, format string, args ...any) {
	if err == nil {
		return
	}
	fatalf(format+".\n"+err.Error(), args...)
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "fatal error:")
	fmt.Fprintf(os.Stderr, "\n\t%s\n", fmt.Sprintf(format, args...))
	os.Exit(1)
}
