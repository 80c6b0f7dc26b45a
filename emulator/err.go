package emulator

import (
	"errors"

	"github.com/ezrec/em2200/cpu"
	"github.com/ezrec/em2200/translate"
)

var f = translate.From

var (
	// Registry errors
	ErrUPIDuplicate = errors.New(f("processor UPI already registered"))
	ErrUPIMissing   = errors.New(f("processor UPI not registered"))

	// Emulator errors
	ErrImageMissing = errors.New(f("no image loaded"))
)

// ErrRuntime indicates the processor and location of a runtime error.
type ErrRuntime struct {
	UPI uint64
	PAR cpu.ProgramAddressRegister
	Err error
}

func (err *ErrRuntime) Error() string {
	return f("ip%d at %v: %v", err.UPI, err.PAR, err.Err)
}

func (err *ErrRuntime) Unwrap() error {
	return err.Err
}
