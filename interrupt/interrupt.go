// Package interrupt defines the machine interrupts raised while an
// instruction processor executes.
//
// Every fault or trap is a *MachineInterrupt carrying its class, the short
// status field and the two interrupt status words the hardware saves. A
// MachineInterrupt is an error, so components propagate it through ordinary
// error returns and the interrupt controller recovers it with errors.As.
package interrupt

import (
	"errors"

	"github.com/ezrec/em2200/translate"
	"github.com/ezrec/em2200/word"
)

var f = translate.From

// Class is an interrupt class. The numeric value is the architectural
// class code, which is also the vector offset in the level 0 BDT. A lower
// code has a higher priority.
type Class int

const (
	HARDWARE_DEFAULT                     = Class(000)
	HARDWARE_CHECK                       = Class(001)
	DIAGNOSTIC                           = Class(002)
	REFERENCE_VIOLATION                  = Class(010)
	ADDRESSING_EXCEPTION                 = Class(011)
	TERMINAL_ADDRESSING_EXCEPTION        = Class(012)
	RCS_GENERIC_STACK_UNDERFLOW_OVERFLOW = Class(013)
	SIGNAL                               = Class(014)
	TEST_AND_SET                         = Class(015)
	INVALID_INSTRUCTION                  = Class(016)
	PAGE_EXCEPTION                       = Class(017)
	ARITHMETIC_EXCEPTION                 = Class(020)
	DATA_EXCEPTION                       = Class(021)
	OPERATION_TRAP                       = Class(022)
	BREAKPOINT                           = Class(023)
	QUANTUM_TIMER                        = Class(024)
	SOFTWARE_BREAK                       = Class(030)
	JUMP_HISTORY_FULL                    = Class(031)
	DAYCLOCK                             = Class(033)
	PERFORMANCE_MONITORING               = Class(034)
	INITIAL_PROGRAM_LOAD                 = Class(035)
	UPI_INITIAL                          = Class(036)
	UPI_NORMAL                           = Class(037)

	CLASS_COUNT = 040 // Number of vector slots.
)

var _class_name = map[Class]string{
	HARDWARE_DEFAULT:                     "hardware default",
	HARDWARE_CHECK:                       "hardware check",
	DIAGNOSTIC:                           "diagnostic",
	REFERENCE_VIOLATION:                  "reference violation",
	ADDRESSING_EXCEPTION:                 "addressing exception",
	TERMINAL_ADDRESSING_EXCEPTION:        "terminal addressing exception",
	RCS_GENERIC_STACK_UNDERFLOW_OVERFLOW: "rcs/generic stack underflow/overflow",
	SIGNAL:                               "signal",
	TEST_AND_SET:                         "test and set",
	INVALID_INSTRUCTION:                  "invalid instruction",
	PAGE_EXCEPTION:                       "page exception",
	ARITHMETIC_EXCEPTION:                 "arithmetic exception",
	DATA_EXCEPTION:                       "data exception",
	OPERATION_TRAP:                       "operation trap",
	BREAKPOINT:                           "breakpoint",
	QUANTUM_TIMER:                        "quantum timer",
	SOFTWARE_BREAK:                       "software break",
	JUMP_HISTORY_FULL:                    "jump history full",
	DAYCLOCK:                             "dayclock",
	PERFORMANCE_MONITORING:               "performance monitoring",
	INITIAL_PROGRAM_LOAD:                 "initial program load",
	UPI_INITIAL:                          "upi initial",
	UPI_NORMAL:                           "upi normal",
}

func (c Class) String() string {
	name, ok := _class_name[c]
	if !ok {
		return f("class %03o", int(c))
	}
	return f(name)
}

// Synchrony tells when an interrupt may be taken.
type Synchrony int

const (
	SYNCHRONOUS  = Synchrony(0) // Taken at once, aborting the instruction.
	BROADCAST    = Synchrony(1) // Posted from outside, taken between instructions.
	ASYNCHRONOUS = Synchrony(2) // Posted from outside, taken between instructions.
)

// Deferrability tells if an interrupt may be held off by DB13.
type Deferrability int

const (
	NON_DEFERRABLE = Deferrability(0)
	DEFERRABLE     = Deferrability(1)
	EXIGENT        = Deferrability(2)
)

// MachineInterrupt is a raised interrupt.
type MachineInterrupt struct {
	Class         Class
	ShortStatus   uint64    // Short status field, saved in the indicator/key register.
	Status0       word.Word // Interrupt status word 0.
	Status1       word.Word // Interrupt status word 1.
	Synchrony     Synchrony
	Deferrability Deferrability
	Reason        error // Detailed cause, used for messages and errors.Is matching.

	// Special is set on a read or write access violation governed by the
	// special access permissions (SAP) rather than the general ones.
	Special bool
}

var _ error = &MachineInterrupt{}

func (mi *MachineInterrupt) Error() string {
	if mi.Special {
		return f("%v interrupt (ssf %03o): %v (special access)", mi.Class, mi.ShortStatus, mi.Reason)
	}
	if mi.Reason != nil {
		return f("%v interrupt (ssf %03o): %v", mi.Class, mi.ShortStatus, mi.Reason)
	}
	return f("%v interrupt (ssf %03o)", mi.Class, mi.ShortStatus)
}

func (mi *MachineInterrupt) Unwrap() error {
	return mi.Reason
}

// Is matches another MachineInterrupt of the same class.
func (mi *MachineInterrupt) Is(err error) bool {
	other, ok := err.(*MachineInterrupt)
	if !ok {
		return false
	}
	return other.Class == mi.Class && (other.Reason == nil || other.Reason == mi.Reason)
}

// Deferred reports if the interrupt can be held off while DB13 is clear.
func (mi *MachineInterrupt) Deferred() bool {
	return mi.Deferrability == DEFERRABLE
}

// Priority orders interrupts; a lower value is more urgent.
func (mi *MachineInterrupt) Priority() int {
	return int(mi.Class)
}

// As extracts a MachineInterrupt from an error chain.
func As(err error) (mi *MachineInterrupt, ok bool) {
	ok = errors.As(err, &mi)
	return
}

// Sentinel interrupts usable as errors.Is targets.
var (
	ErrReferenceViolation     = &MachineInterrupt{Class: REFERENCE_VIOLATION}
	ErrAddressingException    = &MachineInterrupt{Class: ADDRESSING_EXCEPTION}
	ErrTerminalAddressing     = &MachineInterrupt{Class: TERMINAL_ADDRESSING_EXCEPTION}
	ErrStackUnderflowOverflow = &MachineInterrupt{Class: RCS_GENERIC_STACK_UNDERFLOW_OVERFLOW}
	ErrInvalidInstruction     = &MachineInterrupt{Class: INVALID_INSTRUCTION}
	ErrArithmeticException    = &MachineInterrupt{Class: ARITHMETIC_EXCEPTION}
)
