package word

import (
	"fmt"
)

// Instruction is a word viewed as an instruction.
//
//	basic:    f(6) j(4) a(4) x(4) h(1) i(1) u(16)
//	extended: f(6) j(4) a(4) x(4) h(1) i(1) b(4) d(12)
type Instruction Word

func (iw Instruction) F() uint64   { return uint64(iw>>30) & 077 }
func (iw Instruction) J() uint64   { return uint64(iw>>26) & 017 }
func (iw Instruction) A() uint64   { return uint64(iw>>22) & 017 }
func (iw Instruction) X() uint64   { return uint64(iw>>18) & 017 }
func (iw Instruction) H() uint64   { return uint64(iw>>17) & 01 }
func (iw Instruction) I() uint64   { return uint64(iw>>16) & 01 }
func (iw Instruction) U() uint64   { return uint64(iw) & 0177777 }
func (iw Instruction) HIU() uint64 { return uint64(iw) & 0777777 }
func (iw Instruction) B() uint64   { return uint64(iw>>12) & 017 }
func (iw Instruction) D() uint64   { return uint64(iw) & 07777 }

// IB is the 5-bit base register selector i:b used at privilege 0 and 1.
func (iw Instruction) IB() uint64 { return (iw.I() << 4) | iw.B() }

// Word returns the instruction as a data word.
func (iw Instruction) Word() Word { return Word(iw) & MASK }

// WithXHIU replaces the x, h, i and u fields with those of the given word,
// as done by each level of basic mode indirect addressing.
func (iw Instruction) WithXHIU(from Word) Instruction {
	return Instruction((Word(iw) & 0_777760_000000) | (from & 0_000017_777777))
}

// WithU replaces the u field.
func (iw Instruction) WithU(u uint64) Instruction {
	return Instruction((Word(iw) &^ 0177777) | Word(u&0177777))
}

// Basic builds a basic mode format instruction word.
func Basic(f, j, a, x, h, i, u uint64) Instruction {
	return Instruction((f&077)<<30 | (j&017)<<26 | (a&017)<<22 | (x&017)<<18 |
		(h&1)<<17 | (i&1)<<16 | (u & 0177777))
}

// Extended builds an extended mode format instruction word.
func Extended(f, j, a, x, h, i, b, d uint64) Instruction {
	return Instruction((f&077)<<30 | (j&017)<<26 | (a&017)<<22 | (x&017)<<18 |
		(h&1)<<17 | (i&1)<<16 | (b&017)<<12 | (d & 07777))
}

// String renders the fields in octal.
func (iw Instruction) String() string {
	return fmt.Sprintf("f=%02o j=%02o a=%02o x=%02o h=%o i=%o u=%06o",
		iw.F(), iw.J(), iw.A(), iw.X(), iw.H(), iw.I(), iw.U())
}
