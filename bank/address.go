package bank

import (
	"fmt"

	"github.com/ezrec/em2200/word"
)

// VirtualAddress names a word through a bank descriptor table.
type VirtualAddress struct {
	Level  uint64 // BDT level, 0..7
	BDI    uint64 // Bank descriptor index, 15 bits.
	Offset uint64 // Bank relative offset, 18 bits.
}

// NewVirtualAddress decodes an L,BDI,offset word.
func NewVirtualAddress(w word.Word) VirtualAddress {
	return VirtualAddress{
		Level:  uint64(w>>33) & 07,
		BDI:    uint64(w>>18) & 077777,
		Offset: w.H2(),
	}
}

// FromLBDI builds a virtual address from an 18-bit L,BDI field.
func FromLBDI(lbdi uint64, offset uint64) VirtualAddress {
	return VirtualAddress{
		Level:  (lbdi >> 15) & 07,
		BDI:    lbdi & 077777,
		Offset: offset & 0777777,
	}
}

// LBDI returns the 18-bit L,BDI field.
func (va VirtualAddress) LBDI() uint64 {
	return (va.Level&07)<<15 | (va.BDI & 077777)
}

// Word encodes the virtual address.
func (va VirtualAddress) Word() word.Word {
	return word.FromHalves(va.LBDI(), va.Offset)
}

// IsInterruptReserved reports if the bank name is one of the level 0
// entries reserved for interrupt vectors.
func (va VirtualAddress) IsInterruptReserved() bool {
	return va.Level == 0 && va.BDI < 32
}

func (va VirtualAddress) String() string {
	return fmt.Sprintf("%o:%05o:%06o", va.Level, va.BDI, va.Offset)
}

// AbsoluteAddress is a word location within a storage processor.
type AbsoluteAddress struct {
	UPI     uint64 // Storage processor identity.
	Segment uint64 // Segment index.
	Offset  uint64 // Word offset within the segment.
}

// NewAbsoluteAddress decodes the two word absolute address form: segment
// in word 0, UPI in bits 0-3 and offset in bits 4-35 of word 1.
func NewAbsoluteAddress(segment, location word.Word) AbsoluteAddress {
	return AbsoluteAddress{
		UPI:     uint64(location>>32) & 017,
		Segment: segment.W(),
		Offset:  uint64(location) & 037777777777,
	}
}

// Words encodes the absolute address in its two word form.
func (aa AbsoluteAddress) Words() (segment, location word.Word) {
	segment = word.New(aa.Segment)
	location = word.New((aa.UPI&017)<<32 | (aa.Offset & 037777777777))
	return
}

// Add returns the address n words further along.
func (aa AbsoluteAddress) Add(n uint64) AbsoluteAddress {
	aa.Offset += n
	return aa
}

func (aa AbsoluteAddress) String() string {
	return fmt.Sprintf("%o:%o:%o", aa.UPI, aa.Segment, aa.Offset)
}
