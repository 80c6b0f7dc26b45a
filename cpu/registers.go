package cpu

import (
	"fmt"

	"github.com/ezrec/em2200/bank"
	"github.com/ezrec/em2200/word"
)

// General register set locations.
const (
	GRS_SIZE = 0200

	X0  = 000 // User index registers.
	A0  = 014 // User accumulators; A0-A3 overlap X12-X15.
	R0  = 0100
	ER0 = 0120 // Executive R registers.
	EX0 = 0140 // Executive index registers.
	EA0 = 0154 // Executive accumulators; EA0-EA3 overlap EX12-EX15.
)

// Registers with a fixed role.
const (
	R1 = R0 + 1 // Repeat count.
	R2 = R0 + 2 // Test mask.
	R3 = R0 + 3
)

// GRS blocks moved by ACEL and DCEL.
const (
	grs_user_lo    = 000
	grs_user_count = 034
	grs_r_count    = 020

	USER_CONTEXT_WORDS = grs_user_count + grs_r_count
)

// GeneralRegisterSet is the 128 word register file of a processor.
type GeneralRegisterSet [GRS_SIZE]word.Word

// grsReadable reports if a program at privilege pp may read GRS location index.
func grsReadable(index uint64, pp uint64) bool {
	switch {
	case index < 040:
		return true
	case index < 0100:
		return false
	case index < 0120:
		return true
	}
	return pp <= 2
}

// grsWritable reports if a program at privilege pp may write GRS location index.
func grsWritable(index uint64, pp uint64) bool {
	switch {
	case index < 040:
		return true
	case index < 0100:
		return false
	case index < 0120:
		return true
	}
	return pp == 0
}

// IndexRegister is a view over an X register: the increment in H1 and the
// modifier in H2, or with 24-bit indexing a 12-bit increment and a 24-bit
// modifier.
type IndexRegister word.Word

const (
	xr_mask_xi   = word.Word(0_777777_000000)
	xr_mask_xi12 = word.Word(0_777700_000000)
	xr_mask_xm   = word.Word(0_000000_777777)
	xr_mask_xm24 = word.Word(0_000077_777777)
)

func (xr IndexRegister) Word() word.Word { return word.Word(xr) & word.MASK }
func (xr IndexRegister) XI() uint64      { return word.Word(xr).H1() }
func (xr IndexRegister) XM() uint64      { return word.Word(xr).H2() }
func (xr IndexRegister) XI12() uint64    { return word.Word(xr).T1() }
func (xr IndexRegister) XM24() uint64    { return uint64(word.Word(xr) & xr_mask_xm24) }

func (xr IndexRegister) SignedXI() word.Word   { return word.SignExtend18(xr.XI()) }
func (xr IndexRegister) SignedXM() word.Word   { return word.SignExtend18(xr.XM()) }
func (xr IndexRegister) SignedXI12() word.Word { return word.SignExtend12(xr.XI12()) }
func (xr IndexRegister) SignedXM24() word.Word { return word.SignExtend24(xr.XM24()) }

// SetXM replaces the 18-bit modifier.
func (xr *IndexRegister) SetXM(xm uint64) {
	*xr = IndexRegister(word.Word(*xr).SetH2(xm))
}

// SetXI replaces the 18-bit increment.
func (xr *IndexRegister) SetXI(xi uint64) {
	*xr = IndexRegister(word.Word(*xr).SetH1(xi))
}

// SetXM24 replaces the 24-bit modifier.
func (xr *IndexRegister) SetXM24(xm uint64) {
	*xr = IndexRegister((word.Word(*xr) &^ xr_mask_xm24) | (word.Word(xm) & xr_mask_xm24))
}

// SetXI12 replaces the 12-bit increment.
func (xr *IndexRegister) SetXI12(xi uint64) {
	*xr = IndexRegister(word.Word(*xr).SetT1(xi))
}

// Modifier returns the signed modifier in the selected width.
func (xr IndexRegister) Modifier(wide bool) word.Word {
	if wide {
		return xr.SignedXM24()
	}
	return xr.SignedXM()
}

// Increment adds the increment to the modifier.
func (xr *IndexRegister) Increment(wide bool) {
	if wide {
		xr.SetXM24(uint64(word.AddSimple(xr.SignedXM24(), xr.SignedXI12())))
		return
	}
	xr.SetXM(uint64(word.AddSimple(xr.SignedXM(), xr.SignedXI())))
}

// Decrement subtracts the increment from the modifier.
func (xr *IndexRegister) Decrement(wide bool) {
	if wide {
		xr.SetXM24(uint64(word.AddSimple(xr.SignedXM24(), xr.SignedXI12().Negate())))
		return
	}
	xr.SetXM(uint64(word.AddSimple(xr.SignedXM(), xr.SignedXI().Negate())))
}

func (xr IndexRegister) String() string {
	return fmt.Sprintf("%06o_%06o", xr.XI(), xr.XM())
}

// IndicatorKeyRegister holds the short status field of the last interrupt
// (S1), its class (S2) and the access key of the running program (H2).
type IndicatorKeyRegister word.Word

func (ikr IndicatorKeyRegister) ShortStatus() uint64        { return word.Word(ikr).S1() }
func (ikr IndicatorKeyRegister) InterruptClass() uint64     { return word.Word(ikr).S2() }
func (ikr IndicatorKeyRegister) AccessKey() bank.AccessInfo { return bank.NewAccessInfo(word.Word(ikr).H2()) }

func (ikr *IndicatorKeyRegister) SetShortStatus(ssf uint64) {
	*ikr = IndicatorKeyRegister(word.Word(*ikr).SetS1(ssf))
}

func (ikr *IndicatorKeyRegister) SetInterruptClass(class uint64) {
	*ikr = IndicatorKeyRegister(word.Word(*ikr).SetS2(class))
}

func (ikr *IndicatorKeyRegister) SetAccessKey(key bank.AccessInfo) {
	*ikr = IndicatorKeyRegister(word.Word(*ikr).SetH2(key.Value()))
}

// ProgramAddressRegister is the L,BDI of the executing bank and the
// program counter.
type ProgramAddressRegister word.Word

func (par ProgramAddressRegister) LBDI() uint64 { return word.Word(par).H1() }
func (par ProgramAddressRegister) PC() uint64   { return word.Word(par).H2() }

// VirtualAddress is the address of the current instruction.
func (par ProgramAddressRegister) VirtualAddress() bank.VirtualAddress {
	return bank.NewVirtualAddress(word.Word(par))
}

func (par *ProgramAddressRegister) SetPC(pc uint64) {
	*par = ProgramAddressRegister(word.Word(*par).SetH2(pc))
}

func (par *ProgramAddressRegister) SetLBDI(lbdi uint64) {
	*par = ProgramAddressRegister(word.Word(*par).SetH1(lbdi))
}

func (par ProgramAddressRegister) String() string {
	return par.VirtualAddress().String()
}

// ActiveBaseEntry records the bank name loaded into one of B1-B15.
type ActiveBaseEntry struct {
	Level  uint64
	BDI    uint64
	Offset uint64
}

// Word encodes the entry as stored by SBU and friends.
func (abe ActiveBaseEntry) Word() word.Word {
	return word.FromHalves((abe.Level&07)<<15|(abe.BDI&077777), abe.Offset)
}

// Void reports that no bank is named.
func (abe ActiveBaseEntry) Void() bool {
	return abe.Level == 0 && abe.BDI == 0
}
