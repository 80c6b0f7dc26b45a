package cpu

import (
	"errors"

	"github.com/ezrec/em2200/translate"
	"github.com/ezrec/em2200/word"
)

var f = translate.From

var (
	// Processor errors
	ErrNotRunning     = errors.New(f("processor not running"))
	ErrStorageMissing = errors.New(f("storage processor missing"))
	ErrStateInvalid   = errors.New(f("initial state invalid"))
	ErrConsoleMissing = errors.New(f("console missing"))

	// errIndirect ends a basic mode indirect hop; the instruction is
	// resumed with its new x, h, i and u fields on the next tick.
	errIndirect = errors.New(f("indirect address pending"))
)

// ErrOpcode attaches the failing instruction to an error.
type ErrOpcode word.Instruction

func (eo ErrOpcode) Error() string {
	iw := word.Instruction(eo)
	return f("opcode %v %v", iw.Word(), Mnemonic(iw, false))
}

func (eo ErrOpcode) Is(err error) (ok bool) {
	_, ok = err.(ErrOpcode)
	return
}

// ErrBaseRegister reports a base register that cannot be loaded.
type ErrBaseRegister struct {
	Index int
	Err   error
}

func (err ErrBaseRegister) Error() string {
	return f("base register %d: %v", err.Index, err.Err)
}

func (err ErrBaseRegister) Unwrap() error {
	return err.Err
}
