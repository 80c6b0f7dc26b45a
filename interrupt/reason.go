package interrupt

import (
	"github.com/ezrec/em2200/word"
)

// ReferenceReason details a reference violation.
type ReferenceReason int

const (
	GRS_VIOLATION         = ReferenceReason(0)
	STORAGE_LIMITS        = ReferenceReason(1)
	READ_ACCESS           = ReferenceReason(2)
	WRITE_ACCESS          = ReferenceReason(3)
	ENTER_ACCESS          = ReferenceReason(4)
	BASE_REGISTER_INVALID = ReferenceReason(5)
)

var _reference_reason = [...]string{
	"grs violation",
	"storage limits violation",
	"read access violation",
	"write access violation",
	"enter access violation",
	"base register invalid",
}

func (r ReferenceReason) Error() string {
	if int(r) < len(_reference_reason) {
		return f(_reference_reason[r])
	}
	return f("reference reason %d", int(r))
}

// AddressingReason details an addressing exception.
type AddressingReason int

const (
	FATAL_ADDRESSING        = AddressingReason(0)
	GBIT_SET_GATE           = AddressingReason(1)
	ENTER_ACCESS_DENIED     = AddressingReason(2)
	INVALID_IS_VALUE        = AddressingReason(3)
	GATE_BANK_BOUNDARY      = AddressingReason(4)
	INVALID_INSTRUCTION_BDT = AddressingReason(5)
	INVALID_SOURCE_LEVEL    = AddressingReason(6)
	GBIT_SET_SOURCE         = AddressingReason(7)
	GBIT_SET_INDIRECT       = AddressingReason(8)
	INVALID_BANK_TYPE       = AddressingReason(9)
)

var _addressing_reason = [...]string{
	"fatal",
	"g-bit set in gate",
	"enter access denied",
	"invalid instruction stack value",
	"gate bank boundary violation",
	"invalid instruction",
	"invalid source level/bdi",
	"g-bit set in source",
	"g-bit set in indirect",
	"invalid bank type",
}

func (r AddressingReason) Error() string {
	if int(r) < len(_addressing_reason) {
		return f(_addressing_reason[r])
	}
	return f("addressing reason %d", int(r))
}

// InstructionReason details an invalid instruction.
type InstructionReason int

const (
	UNDEFINED_FUNCTION_CODE     = InstructionReason(0)
	INVALID_PROCESSOR_PRIVILEGE = InstructionReason(1)
	INVALID_BASE_REGISTER       = InstructionReason(2)
	INVALID_TARGET_INSTRUCTION  = InstructionReason(3)
)

var _instruction_reason = [...]string{
	"undefined function code",
	"invalid processor privilege",
	"invalid base register",
	"invalid target instruction",
}

func (r InstructionReason) Error() string {
	if int(r) < len(_instruction_reason) {
		return f(_instruction_reason[r])
	}
	return f("instruction reason %d", int(r))
}

// StackReason details an RCS or generic stack fault.
type StackReason int

const (
	GENERIC_STACK_OVERFLOW  = StackReason(0)
	GENERIC_STACK_UNDERFLOW = StackReason(1)
	RCS_OVERFLOW            = StackReason(2)
	RCS_UNDERFLOW           = StackReason(3)
)

var _stack_reason = [...]string{
	"generic stack overflow",
	"generic stack underflow",
	"rcs overflow",
	"rcs underflow",
}

func (r StackReason) Error() string {
	if int(r) < len(_stack_reason) {
		return f(_stack_reason[r])
	}
	return f("stack reason %d", int(r))
}

// ArithmeticReason details an arithmetic exception.
type ArithmeticReason int

const (
	MULTIPLY_SINGLE_OVERFLOW = ArithmeticReason(0)
	DIVIDE_CHECK             = ArithmeticReason(1)
)

func (r ArithmeticReason) Error() string {
	switch r {
	case MULTIPLY_SINGLE_OVERFLOW:
		return f("multiply single integer overflow")
	case DIVIDE_CHECK:
		return f("divide check")
	}
	return f("arithmetic reason %d", int(r))
}

func boolBit(b bool) uint64 {
	if b {
		return 1
	}
	return 0
}

// NewReferenceViolation is raised for storage limits, access or GRS faults.
// fetch is set when the violation occurred on an instruction fetch.
func NewReferenceViolation(reason ReferenceReason, fetch bool) *MachineInterrupt {
	return &MachineInterrupt{
		Class:         REFERENCE_VIOLATION,
		ShortStatus:   uint64(reason)<<1 | boolBit(fetch),
		Synchrony:     SYNCHRONOUS,
		Deferrability: EXIGENT,
		Reason:        reason,
	}
}

// NewAccessViolation is a read or write access violation. special is set
// when the special access permissions governed the check.
func NewAccessViolation(reason ReferenceReason, fetch, special bool) *MachineInterrupt {
	mi := NewReferenceViolation(reason, fetch)
	mi.Special = special
	return mi
}

// NewAddressingException is raised for unreachable or malformed bank
// references. level and bdi identify the failing bank name.
func NewAddressingException(reason AddressingReason, level, bdi uint64) *MachineInterrupt {
	return &MachineInterrupt{
		Class:         ADDRESSING_EXCEPTION,
		ShortStatus:   uint64(reason),
		Status1:       word.FromHalves((level&07)<<15|(bdi&077777), 0),
		Synchrony:     SYNCHRONOUS,
		Deferrability: EXIGENT,
		Reason:        reason,
	}
}

// NewTerminalAddressingException is raised when a bank reference fails
// during a hardware-initiated transfer, such as interrupt entry.
func NewTerminalAddressingException(reason AddressingReason, level, bdi uint64) *MachineInterrupt {
	mi := NewAddressingException(reason, level, bdi)
	mi.Class = TERMINAL_ADDRESSING_EXCEPTION
	return mi
}

// NewInvalidInstruction is raised for undefined, privileged or malformed
// instructions.
func NewInvalidInstruction(reason InstructionReason) *MachineInterrupt {
	return &MachineInterrupt{
		Class:         INVALID_INSTRUCTION,
		ShortStatus:   uint64(reason),
		Synchrony:     SYNCHRONOUS,
		Deferrability: EXIGENT,
		Reason:        reason,
	}
}

// NewArithmeticException is raised by enabled divide checks and
// multiply overflows.
func NewArithmeticException(reason ArithmeticReason) *MachineInterrupt {
	return &MachineInterrupt{
		Class:         ARITHMETIC_EXCEPTION,
		ShortStatus:   uint64(reason),
		Synchrony:     SYNCHRONOUS,
		Deferrability: EXIGENT,
		Reason:        reason,
	}
}

// NewStackFault is raised by BUY, SELL and RCS operations.
func NewStackFault(reason StackReason) *MachineInterrupt {
	return &MachineInterrupt{
		Class:         RCS_GENERIC_STACK_UNDERFLOW_OVERFLOW,
		ShortStatus:   uint64(reason),
		Synchrony:     SYNCHRONOUS,
		Deferrability: EXIGENT,
		Reason:        reason,
	}
}

// NewSignal is raised by SGNL; ssf is the low six bits of the operand.
func NewSignal(ssf uint64, operand word.Word) *MachineInterrupt {
	return &MachineInterrupt{
		Class:         SIGNAL,
		ShortStatus:   ssf & 077,
		Status1:       operand,
		Synchrony:     SYNCHRONOUS,
		Deferrability: EXIGENT,
	}
}

// NewTestAndSet is raised when a TS finds its lock already set.
func NewTestAndSet(address word.Word) *MachineInterrupt {
	return &MachineInterrupt{
		Class:         TEST_AND_SET,
		Status1:       address,
		Synchrony:     SYNCHRONOUS,
		Deferrability: EXIGENT,
	}
}

// NewOperationTrap is raised on trapped operations while DB27 is set.
func NewOperationTrap(ssf uint64) *MachineInterrupt {
	return &MachineInterrupt{
		Class:         OPERATION_TRAP,
		ShortStatus:   ssf,
		Synchrony:     SYNCHRONOUS,
		Deferrability: EXIGENT,
	}
}

// NewBreakpoint is raised when the breakpoint register matches.
func NewBreakpoint(address word.Word) *MachineInterrupt {
	return &MachineInterrupt{
		Class:         BREAKPOINT,
		Status1:       address,
		Synchrony:     SYNCHRONOUS,
		Deferrability: EXIGENT,
	}
}

// NewHardwareCheck is a non-recoverable processor fault.
func NewHardwareCheck(cause error) *MachineInterrupt {
	return &MachineInterrupt{
		Class:         HARDWARE_CHECK,
		Synchrony:     ASYNCHRONOUS,
		Deferrability: NON_DEFERRABLE,
		Reason:        cause,
	}
}

// NewJumpHistoryFull is posted when the jump history ring wraps.
func NewJumpHistoryFull() *MachineInterrupt {
	return &MachineInterrupt{
		Class:         JUMP_HISTORY_FULL,
		Synchrony:     ASYNCHRONOUS,
		Deferrability: DEFERRABLE,
	}
}

// NewUPI is posted by another processor. initial selects the initial
// UPI class used on start-up.
func NewUPI(source uint64, initial bool) *MachineInterrupt {
	class := UPI_NORMAL
	if initial {
		class = UPI_INITIAL
	}
	return &MachineInterrupt{
		Class:         class,
		ShortStatus:   source & 017,
		Synchrony:     BROADCAST,
		Deferrability: DEFERRABLE,
	}
}

// NewDayclock is posted on dayclock comparator match.
func NewDayclock() *MachineInterrupt {
	return &MachineInterrupt{
		Class:         DAYCLOCK,
		Synchrony:     ASYNCHRONOUS,
		Deferrability: DEFERRABLE,
	}
}

// NewQuantumTimer is posted when the quantum timer expires while DB12 is set.
func NewQuantumTimer() *MachineInterrupt {
	return &MachineInterrupt{
		Class:         QUANTUM_TIMER,
		Synchrony:     ASYNCHRONOUS,
		Deferrability: DEFERRABLE,
	}
}
