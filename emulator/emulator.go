// Copyright 2024, Jason S. McMullan <jason.mcmullan@gmail.com>

// Package emulator runs the processors of a 2200 partition: instruction
// processors sharing a main storage processor, found through a registry.
package emulator

import (
	"context"
	"io/fs"
	"log"

	"golang.org/x/sync/errgroup"

	"github.com/ezrec/em2200/cpu"
	"github.com/ezrec/em2200/loader"
	"github.com/ezrec/em2200/storage"
)

const (
	STORAGE_UPI = 1 // UPI of the main storage processor.
	BOOT_UPI    = 0 // UPI of the instruction processor started by Load.
)

// Emulator state. Instruction processors, main storage and the registry
// that connects them.
type Emulator struct {
	Verbose     bool // If set, enables verbose logging.
	Trace       bool // If set, logs every instruction executed.
	Development bool // If set, processors stop on interrupts.

	MaxSteps int                   // Instructions per processor and Run; unlimited when zero.
	Install  loader.InstallOptions // How images are installed.
	Console  cpu.Console           // Console attached to every processor.

	Registry   *Registry
	Storage    *storage.MSP
	Processors []*cpu.Processor
	Image      *loader.Image // Currently loaded image.
}

// NewEmulator creates an emulator with count instruction processors, UPI 0
// and then STORAGE_UPI+1 onwards, and an empty main storage processor.
func NewEmulator(count int) (emu *Emulator) {
	emu = &Emulator{
		Registry: NewRegistry(),
		Storage:  storage.NewMSP(STORAGE_UPI, 0),
		Install:  loader.InstallOptions{Handlers: true},
	}
	_ = emu.Registry.AddStorage(emu.Storage)

	upi := uint64(BOOT_UPI)
	for range max(count, 1) {
		ip := cpu.NewProcessor(upi, emu.Registry)
		_ = emu.Registry.AddProcessor(ip)
		emu.Processors = append(emu.Processors, ip)
		if upi == BOOT_UPI {
			upi = STORAGE_UPI
		}
		upi++
	}

	return
}

func (emu *Emulator) logf(format string, args ...any) {
	if emu.Verbose {
		log.Printf("emu: "+format, args...)
	}
}

// Boot is the processor an image is started on.
func (emu *Emulator) Boot() *cpu.Processor {
	return emu.Processors[0]
}

// configure copies the emulator options to every processor.
func (emu *Emulator) configure() {
	emu.Storage.Verbose = emu.Verbose
	for _, ip := range emu.Processors {
		ip.Verbose = emu.Verbose
		ip.Trace = emu.Trace
		ip.Development = emu.Development
		ip.Console = emu.Console
	}
}

// Load replaces main storage with a new storage processor holding the
// image, and starts the boot processor on it. The other processors are
// cleared.
func (emu *Emulator) Load(img *loader.Image) (err error) {
	msp := storage.NewMSP(STORAGE_UPI, img.FixedWords())
	msp.Verbose = emu.Verbose

	opts := emu.Install
	opts.Verbose = opts.Verbose || emu.Verbose
	state, err := loader.Install(img, msp, opts)
	if err != nil {
		return
	}

	_ = emu.Registry.Remove(emu.Storage.UPI)
	err = emu.Registry.AddStorage(msp)
	if err != nil {
		return
	}
	emu.Storage = msp
	emu.Image = img

	emu.configure()
	for _, ip := range emu.Processors {
		ip.Clear()
	}

	err = emu.Boot().IPL(state)
	if err != nil {
		return
	}

	emu.logf("%v: loaded, %d words of storage", img.Name, msp.Used())

	return
}

// Running reports if any processor is running.
func (emu *Emulator) Running() bool {
	for _, ip := range emu.Processors {
		if ip.Running() {
			return true
		}
	}
	return false
}

// StopReason is the stop reason of the boot processor.
func (emu *Emulator) StopReason() (reason cpu.StopReason, detail uint64) {
	return emu.Boot().StopReason()
}

func runtimeError(ip *cpu.Processor, err error) error {
	if err == nil {
		return nil
	}
	return &ErrRuntime{UPI: ip.UPI, PAR: ip.PAR, Err: err}
}

// Step advances every running processor by one tick.
func (emu *Emulator) Step() (running bool, err error) {
	if emu.Image == nil {
		err = ErrImageMissing
		return
	}
	emu.configure()

	for _, ip := range emu.Processors {
		if !ip.Running() {
			continue
		}
		err = runtimeError(ip, ip.Tick())
		if err != nil {
			return
		}
		running = running || ip.Running()
	}

	return
}

// Run runs every started processor concurrently, until all have stopped,
// one fails, or the context is done.
func (emu *Emulator) Run(ctx context.Context) (err error) {
	if emu.Image == nil {
		err = ErrImageMissing
		return
	}
	emu.configure()

	group, ctx := errgroup.WithContext(ctx)
	for _, ip := range emu.Processors {
		if !ip.Running() {
			continue
		}
		group.Go(func() error {
			err := runtimeError(ip, ip.Run(ctx, emu.MaxSteps))
			if err != nil {
				return err
			}
			reason, detail := ip.StopReason()
			emu.logf("ip%d: %v (%o) at %v", ip.UPI, reason, detail, ip.PAR)
			return nil
		})
	}

	err = group.Wait()
	return
}

// Stop stops every processor.
func (emu *Emulator) Stop() {
	for _, ip := range emu.Processors {
		ip.Stop()
	}
}

// Snapshot writes the contents of main storage.
func (emu *Emulator) Snapshot(filesys storage.CreateFS) (err error) {
	return emu.Storage.Marshal(filesys)
}

// Restore reloads main storage from a snapshot.
func (emu *Emulator) Restore(filesys fs.FS) (err error) {
	return emu.Storage.Unmarshal(filesys)
}
