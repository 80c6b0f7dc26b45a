// Package bank models bank descriptors, base registers and the access
// checks performed on every storage reference.
package bank

import (
	"fmt"

	"github.com/ezrec/em2200/word"
)

// Type is the bank type field of a bank descriptor.
type Type int

const (
	EXTENDED_MODE    = Type(0)
	BASIC_MODE       = Type(1)
	GATE             = Type(2)
	INDIRECT         = Type(3)
	QUEUE            = Type(4)
	QUEUE_REPOSITORY = Type(6)
)

var _type_name = map[Type]string{
	EXTENDED_MODE:    "extended",
	BASIC_MODE:       "basic",
	GATE:             "gate",
	INDIRECT:         "indirect",
	QUEUE:            "queue",
	QUEUE_REPOSITORY: "queue repository",
}

func (t Type) String() string {
	name, ok := _type_name[t]
	if !ok {
		return fmt.Sprintf("reserved(%d)", int(t))
	}
	return name
}

// DESCRIPTOR_WORDS is the size of a bank descriptor in a BDT.
const DESCRIPTOR_WORDS = 8

const (
	bd_gfault = word.Word(0_000020_000000)
	bd_large  = word.Word(0_000004_000000)
	bd_uls    = word.Word(0_000002_000000)
)

// Descriptor is a view over the eight storage words of a bank descriptor.
// Fields are decoded from the words on every call, so a patch to the
// underlying table is seen at once.
type Descriptor []word.Word

// DescriptorAt returns the descriptor view of entry bdi in a BDT, or false
// when the table is too short to hold it.
func DescriptorAt(table []word.Word, bdi uint64) (bd Descriptor, ok bool) {
	start := bdi * DESCRIPTOR_WORDS
	if start+DESCRIPTOR_WORDS > uint64(len(table)) {
		return
	}
	bd = Descriptor(table[start : start+DESCRIPTOR_WORDS : start+DESCRIPTOR_WORDS])
	ok = true
	return
}

// GAP is the general access permission set.
func (bd Descriptor) GAP() Permissions { return NewPermissions(uint64(bd[0]>>33) & 07) }

// SAP is the special access permission set.
func (bd Descriptor) SAP() Permissions { return NewPermissions(uint64(bd[0]>>30) & 07) }

func (bd Descriptor) Type() Type { return Type(uint64(bd[0]>>24) & 017) }

// GeneralFault is the G bit; any reference through the bank faults.
func (bd Descriptor) GeneralFault() bool { return bd[0]&bd_gfault != 0 }

// Large selects the large bank limit granularity.
func (bd Descriptor) Large() bool { return bd[0]&bd_large != 0 }

// UpperLimitSuppression forces the loaded upper limit to 0777777.
func (bd Descriptor) UpperLimitSuppression() bool { return bd[0]&bd_uls != 0 }

// Lock is the access lock.
func (bd Descriptor) Lock() AccessInfo { return NewAccessInfo(bd[0].H2()) }

// LowerLimit is the raw 9-bit lower limit field.
func (bd Descriptor) LowerLimit() uint64 { return uint64(bd[1]>>27) & 0777 }

// UpperLimit is the raw 27-bit upper limit field.
func (bd Descriptor) UpperLimit() uint64 { return uint64(bd[1]) & 0777_777777 }

// LowerNormalized is the lowest valid relative address.
func (bd Descriptor) LowerNormalized() uint64 {
	if bd.Large() {
		return bd.LowerLimit() << 15
	}
	return bd.LowerLimit() << 9
}

// UpperNormalized is the highest valid relative address.
func (bd Descriptor) UpperNormalized() uint64 {
	if bd.Large() {
		return (bd.UpperLimit() << 6) | 077
	}
	if bd.UpperLimitSuppression() {
		return 0777777
	}
	return bd.UpperLimit() & 0777777
}

// Address is the absolute address of the first word of the bank.
func (bd Descriptor) Address() AbsoluteAddress {
	return NewAbsoluteAddress(bd[2], bd[3])
}

// Displacement is the position of the bank within a large bank group.
func (bd Descriptor) Displacement() uint64 { return uint64(bd[4]>>18) & 077777 }

// Target is the L,BDI an indirect bank refers to.
func (bd Descriptor) Target() uint64 { return bd[1].H1() }

// Void reports if no reference may be made through the bank.
func (bd Descriptor) Void() bool {
	return bd.LowerNormalized() > bd.UpperNormalized()
}

// SetAccess sets both permission sets and the lock.
func (bd Descriptor) SetAccess(gap, sap Permissions, lock AccessInfo) {
	w := bd[0] & 0_007777_000000
	w |= word.Word(gap.Bits())<<33 | word.Word(sap.Bits())<<30
	bd[0] = w.SetH2(lock.Value())
}

func (bd Descriptor) SetType(t Type) {
	bd[0] = (bd[0] &^ 0_001700_000000) | word.Word(uint64(t)&017)<<24
}

func (bd Descriptor) flag(mask word.Word, on bool) {
	if on {
		bd[0] |= mask
	} else {
		bd[0] &^= mask
	}
}

func (bd Descriptor) SetGeneralFault(on bool)          { bd.flag(bd_gfault, on) }
func (bd Descriptor) SetLarge(on bool)                 { bd.flag(bd_large, on) }
func (bd Descriptor) SetUpperLimitSuppression(on bool) { bd.flag(bd_uls, on) }

// SetLimits stores normalized limits, scaled by the large bank flag.
// A lower limit that is not a multiple of the granularity is rounded down.
func (bd Descriptor) SetLimits(lower, upper uint64) {
	var ll, ul uint64
	if bd.Large() {
		ll = lower >> 15
		ul = upper >> 6
	} else {
		ll = lower >> 9
		ul = upper
	}
	bd[1] = word.Word((ll&0777)<<27 | (ul & 0777_777777))
}

// SetVoid makes the limits describe an empty bank.
func (bd Descriptor) SetVoid() {
	bd.SetLarge(false)
	bd.SetUpperLimitSuppression(false)
	bd[1] = word.Word(01 << 27)
}

func (bd Descriptor) SetAddress(aa AbsoluteAddress) {
	bd[2], bd[3] = aa.Words()
}

func (bd Descriptor) SetDisplacement(disp uint64) {
	bd[4] = (bd[4] &^ 0_077777_000000) | word.Word(disp&077777)<<18
}

// SetTarget sets the L,BDI of an indirect bank.
func (bd Descriptor) SetTarget(lbdi uint64) {
	bd[1] = bd[1].SetH1(lbdi)
}

func (bd Descriptor) String() string {
	return fmt.Sprintf("%v gap=%o sap=%o lock=%06o limits=%o..%o at %v",
		bd.Type(), bd.GAP().Bits(), bd.SAP().Bits(), bd.Lock().Value(),
		bd.LowerNormalized(), bd.UpperNormalized(), bd.Address())
}
