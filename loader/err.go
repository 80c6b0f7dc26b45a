package loader

import (
	"errors"

	"github.com/ezrec/em2200/translate"
)

var f = translate.From

var (
	// Image errors
	ErrImageEmpty    = errors.New(f("image has no banks"))
	ErrStartMissing  = errors.New(f("start bank missing"))
	ErrStartInvalid  = errors.New(f("start address outside its bank"))
	ErrFixedCapacity = errors.New(f("fixed segment too small"))

	// Bank errors
	ErrBankDuplicate = errors.New(f("bank duplicated"))
	ErrBankIndex     = errors.New(f("bank level or index invalid"))
	ErrBankLimits    = errors.New(f("bank limits invalid"))
	ErrBankRegister  = errors.New(f("bank base register invalid"))
	ErrBankMissing   = errors.New(f("bank missing"))

	// Script errors
	ErrScriptArgument = errors.New(f("script argument invalid"))
	ErrScriptOpcode   = errors.New(f("script opcode unknown"))
)

// ErrBank attaches the name of the bank to an error.
type ErrBank struct {
	Name string
	Err  error
}

func (err *ErrBank) Error() string {
	return f("bank %v: %v", err.Name, err.Err)
}

func (err *ErrBank) Unwrap() error {
	return err.Err
}

// ErrImage attaches the name of the image to an error.
type ErrImage struct {
	Name string
	Err  error
}

func (err *ErrImage) Error() string {
	return f("image %v: %v", err.Name, err.Err)
}

func (err *ErrImage) Unwrap() error {
	return err.Err
}
