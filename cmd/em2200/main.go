// Copyright 2024, Jason S. McMullan <jason.mcmullan@gmail.com>

// em2200 runs 2200 series images described in Starlark.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"

	"github.com/alecthomas/kong"

	"github.com/ezrec/em2200/console"
	"github.com/ezrec/em2200/cpu"
	"github.com/ezrec/em2200/emulator"
	"github.com/ezrec/em2200/loader"
	"github.com/ezrec/em2200/storage"
	"github.com/ezrec/em2200/translate"
	"github.com/ezrec/em2200/word"
)

var f = translate.From

func main() {
	var cli struct {
		Run  runCmd  `cmd:"" help:"Load an image and run it until it stops."`
		Dump dumpCmd `cmd:"" help:"List the banks and words of an image in octal."`
	}

	ctx := kong.Parse(&cli,
		kong.Name("em2200"),
		kong.Description(f("2200 series instruction processor emulator")),
	)
	err := ctx.Run(&kong.Context{})
	ctx.FatalIfErrorf(err)
}

// loadImage reads a Starlark image description.
func loadImage(path string) (img *loader.Image, err error) {
	inf, err := os.Open(path)
	if err != nil {
		return
	}
	defer inf.Close()

	return loader.ParseStarlark(path, inf)
}

type runCmd struct {
	Image       string `arg:"" type:"existingfile" help:"Starlark image description."`
	Verbose     bool   `short:"v" help:"Log processor and loader activity."`
	Trace       bool   `help:"Log every instruction executed."`
	Development bool   `help:"Stop on interrupts instead of vectoring them."`
	MaxSteps    int    `name:"max-steps" help:"Stop after this many instructions."`
	Snapshot    string `help:"Directory to write a storage snapshot to after the run."`
	Processors  int    `default:"1" help:"Number of instruction processors."`
	RCSDepth    int    `name:"rcs-depth" default:"64" help:"Return control stack depth, in frames."`
	ICSDepth    int    `name:"ics-depth" help:"Interrupt control stack depth, in frames."`
	NoHandlers  bool   `name:"no-handlers" help:"Leave the interrupt vectors empty."`
}

func (r *runCmd) Run(ctx *kong.Context) (err error) {
	img, err := loadImage(r.Image)
	if err != nil {
		return
	}

	emu := emulator.NewEmulator(r.Processors)
	emu.Verbose = r.Verbose
	emu.Trace = r.Trace
	emu.Development = r.Development
	emu.MaxSteps = r.MaxSteps
	emu.Console = &console.Line{Input: os.Stdin, Output: os.Stdout}
	emu.Install = loader.InstallOptions{
		Handlers: !r.NoHandlers,
		RCSDepth: uint64(max(r.RCSDepth, 0)),
		ICSDepth: uint64(max(r.ICSDepth, 0)),
	}

	err = emu.Load(img)
	if err != nil {
		return
	}

	run, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	err = emu.Run(run)
	if errors.Is(err, context.Canceled) {
		emu.Stop()
		err = nil
	}
	if err != nil {
		return
	}

	if len(r.Snapshot) != 0 {
		err = os.MkdirAll(r.Snapshot, 0755)
		if err != nil {
			return
		}
		err = emu.Snapshot(storage.DirFS(r.Snapshot))
		if err != nil {
			return
		}
	}

	ip := emu.Boot()
	if r.Verbose {
		log.Print(ip.String())
	}

	reason, detail := emu.StopReason()
	switch {
	case ip.Running():
		log.Print(f("%v: still running at %v after %d instructions", r.Image, ip.PAR, ip.Ticks))
	case reason == cpu.STOP_DEBUG && detail == 0:
	default:
		err = errors.New(f("%v: %v, detail %012o, at %v", r.Image, reason, detail, ip.PAR))
	}

	return
}

type dumpCmd struct {
	Image string `arg:"" type:"existingfile" help:"Starlark image description."`
}

func (d *dumpCmd) Run(ctx *kong.Context) (err error) {
	img, err := loadImage(d.Image)
	if err != nil {
		return
	}

	fmt.Printf("image %v: start %v, dr %v\n", img.Name, img.Start, img.Designator)
	for _, bk := range img.Banks {
		fmt.Printf("bank %v: %v..%06o %v gap=%o sap=%o",
			bk.Name, bk.Address(bk.Lower), bk.Upper(), bk.Type(), bk.GAP.Bits(), bk.SAP.Bits())
		if bk.BaseRegister != 0 {
			fmt.Printf(" B%d", bk.BaseRegister)
		}
		fmt.Println()
	}

	for va, w := range img.Words() {
		bk, _, _ := img.Locate(va)
		iw := word.Instruction(w)
		fmt.Printf("%v: %v %v\n", va, w, cpu.Mnemonic(iw, !bk.Options.Extended))
	}

	return
}
