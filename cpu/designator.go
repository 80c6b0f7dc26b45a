package cpu

import (
	"strings"

	"github.com/ezrec/em2200/word"
)

// DesignatorRegister holds the modes and condition flags of a processor.
type DesignatorRegister word.Word

// Designator bits, named by their hardware bit number.
const (
	DB_QUEUE_MONITOR          = DesignatorRegister(1 << 35) // DB0: activity level queue monitor.
	DB_FAULT_HANDLING         = DesignatorRegister(1 << 29) // DB6: fault handling in progress.
	DB_EXEC_24BIT_INDEXING    = DesignatorRegister(1 << 24) // DB11
	DB_QUANTUM_TIMER          = DesignatorRegister(1 << 23) // DB12
	DB_DEFERRABLE_INTERRUPT   = DesignatorRegister(1 << 22) // DB13
	DB_PROCESSOR_PRIVILEGE    = DesignatorRegister(3 << 20) // DB14-15
	DB_BASIC_MODE             = DesignatorRegister(1 << 19) // DB16
	DB_EXEC_REGISTER_SET      = DesignatorRegister(1 << 18) // DB17
	DB_CARRY                  = DesignatorRegister(1 << 17) // DB18
	DB_OVERFLOW               = DesignatorRegister(1 << 16) // DB19
	DB_CHARACTERISTIC_UNDER   = DesignatorRegister(1 << 14) // DB21
	DB_CHARACTERISTIC_OVER    = DesignatorRegister(1 << 13) // DB22
	DB_DIVIDE_CHECK           = DesignatorRegister(1 << 12) // DB23
	DB_OPERATION_TRAP         = DesignatorRegister(1 << 8)  // DB27
	DB_ARITHMETIC_EXCEPTION   = DesignatorRegister(1 << 6)  // DB29
	DB_BASIC_BASE_SELECTION   = DesignatorRegister(1 << 4)  // DB31
	DB_QUARTER_WORD           = DesignatorRegister(1 << 3)  // DB32
	db_user_mask              = DesignatorRegister(0_000000_777777)
	db_processor_privilege_at = 20
)

var _designator_name = []struct {
	bit  DesignatorRegister
	name string
}{
	{DB_QUEUE_MONITOR, "qm"},
	{DB_FAULT_HANDLING, "fhip"},
	{DB_EXEC_24BIT_INDEXING, "x24"},
	{DB_QUANTUM_TIMER, "qt"},
	{DB_DEFERRABLE_INTERRUPT, "di"},
	{DB_BASIC_MODE, "basic"},
	{DB_EXEC_REGISTER_SET, "exec"},
	{DB_CARRY, "carry"},
	{DB_OVERFLOW, "overflow"},
	{DB_CHARACTERISTIC_UNDER, "cu"},
	{DB_CHARACTERISTIC_OVER, "co"},
	{DB_DIVIDE_CHECK, "divide"},
	{DB_OPERATION_TRAP, "trap"},
	{DB_ARITHMETIC_EXCEPTION, "aee"},
	{DB_BASIC_BASE_SELECTION, "bbrs"},
	{DB_QUARTER_WORD, "quarter"},
}

// Has reports if all of the bits are set.
func (dr DesignatorRegister) Has(bits DesignatorRegister) bool {
	return dr&bits == bits
}

// Set turns the bits on or off.
func (dr *DesignatorRegister) Set(bits DesignatorRegister, on bool) {
	if on {
		*dr |= bits
	} else {
		*dr &^= bits
	}
}

// Privilege is the processor privilege, 0 (most privileged) to 3.
func (dr DesignatorRegister) Privilege() uint64 {
	return uint64(dr>>db_processor_privilege_at) & 03
}

// SetPrivilege replaces the processor privilege.
func (dr *DesignatorRegister) SetPrivilege(pp uint64) {
	*dr = (*dr &^ DB_PROCESSOR_PRIVILEGE) | DesignatorRegister(pp&03)<<db_processor_privilege_at
}

// Word is the register as a storage word.
func (dr DesignatorRegister) Word() word.Word {
	return word.Word(dr) & word.MASK
}

func (dr DesignatorRegister) String() string {
	var flags []string
	for _, entry := range _designator_name {
		if dr.Has(entry.bit) {
			flags = append(flags, entry.name)
		}
	}
	text := dr.Word().String() + " pp" + string(rune('0'+dr.Privilege()))
	if len(flags) > 0 {
		text += " " + strings.Join(flags, ",")
	}
	return text
}
