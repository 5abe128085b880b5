package main

import (
	"fmt"
	"io"
	"os"

	"github.com/go-faster/jx"

	"corehost/emu"
	"corehost/emu/rpc"
)

// ctlMain sends a single command to an emulator serving controls on a port.
func ctlMain(args Ctl) {
	client, err := rpc.NewClient(args.Port)
	checkf(err, "failed to connect to emulator on port %d", args.Port)
	defer client.Close()

	switch args.Command {
	case "pause":
		err = client.SetPause(true)
	case "resume":
		err = client.SetPause(false)
	case "ff":
		err = client.SetFastForward(true)
	case "noff":
		err = client.SetFastForward(false)
	case "reset":
		err = client.Reset()
	case "stop":
		err = client.Stop()
	case "save":
		err = client.SaveSlot(args.Slot)
	case "load":
		err = client.LoadSlot(args.Slot)
	case "status":
		var st emu.Status
		if st, err = client.Status(); err == nil {
			if args.JSON {
				var e jx.Encoder
				encodeStatus(&e, st)
				os.Stdout.Write(append(e.Bytes(), '\n'))
			} else {
				printStatus(os.Stdout, st)
			}
		}
	}
	checkf(err, "%s command failed", args.Command)
}

func printStatus(w io.Writer, st emu.Status) {
	fmt.Fprintf(w, "console:      %s\n", st.Console)
	fmt.Fprintf(w, "game:         %s\n", st.Game)
	fmt.Fprintf(w, "state:        %s\n", st.State)
	fmt.Fprintf(w, "fps:          %.4f\n", st.FPS)
	fmt.Fprintf(w, "sample rate:  %.1f\n", st.SampleRate)
	fmt.Fprintf(w, "fast-forward: %t\n", st.FastForward)
	fmt.Fprintf(w, "frames:       %d\n", st.Frames)
	fmt.Fprintf(w, "audio:        %d pushed, %d dropped, %d underruns\n",
		st.Audio.Pushed, st.Audio.Dropped, st.Audio.Underruns)
}

func encodeStatus(e *jx.Encoder, st emu.Status) {
	e.ObjStart()
	e.FieldStart("console")
	e.Str(st.Console)
	e.FieldStart("game")
	e.Str(st.Game)
	e.FieldStart("state")
	e.Str(st.State.String())
	e.FieldStart("fps")
	e.Float64(st.FPS)
	e.FieldStart("sample_rate")
	e.Float64(st.SampleRate)
	e.FieldStart("fast_forward")
	e.Bool(st.FastForward)
	e.FieldStart("frames")
	e.UInt64(st.Frames)
	e.FieldStart("audio")
	e.Obj(func(e *jx.Encoder) {
		e.Field("pushed", func(e *jx.Encoder) { e.UInt64(st.Audio.Pushed) })
		e.Field("dropped", func(e *jx.Encoder) { e.UInt64(st.Audio.Dropped) })
		e.Field("underruns", func(e *jx.Encoder) { e.UInt64(st.Audio.Underruns) })
	})
	e.ObjEnd()
}
