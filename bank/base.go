package bank

import (
	"fmt"

	"github.com/ezrec/em2200/interrupt"
	"github.com/ezrec/em2200/storage"
	"github.com/ezrec/em2200/word"
)

// Base register roles.
const (
	BASE_REGISTER_COUNT = 32

	BR_CODE      = 0  // Current extended mode code bank.
	BR_BASIC_LO  = 12 // First basic mode base register.
	BR_BDT_LEVEL = 16 // BDT of level 0; levels 1..7 follow.
	BR_RCS       = 25 // Return control stack.
	BR_ICS       = 26 // Interrupt control stack.
)

const (
	br_gap_read  = word.Word(0_200000_000000)
	br_gap_write = word.Word(0_100000_000000)
	br_sap_read  = word.Word(0_020000_000000)
	br_sap_write = word.Word(0_010000_000000)
	br_void      = word.Word(0_000200_000000)
	br_large     = word.Word(0_000004_000000)
)

// BaseRegister is a loaded copy of a bank descriptor. Segment caches the
// storage the bank lives in; it is nil for a void register.
type BaseRegister struct {
	Void    bool
	Large   bool
	Lower   uint64 // Normalized lower limit.
	Upper   uint64 // Normalized upper limit.
	GAP     Permissions
	SAP     Permissions
	Lock    AccessInfo
	Address AbsoluteAddress // Location of relative address Lower.

	Segment *storage.Segment
}

// NewBaseRegister loads a base register from a bank descriptor.
func NewBaseRegister(bd Descriptor) (br BaseRegister) {
	br = BaseRegister{
		Large:   bd.Large(),
		Lower:   bd.LowerNormalized(),
		Upper:   bd.UpperNormalized(),
		GAP:     Permissions{Read: bd.GAP().Read, Write: bd.GAP().Write},
		SAP:     Permissions{Read: bd.SAP().Read, Write: bd.SAP().Write},
		Lock:    bd.Lock(),
		Address: bd.Address(),
	}
	br.Void = br.Lower > br.Upper

	return
}

// NewBaseRegisterSubset loads a base register describing the part of a
// bank starting at offset, with relative address 0 naming that word.
func NewBaseRegisterSubset(bd Descriptor, offset uint64) (br BaseRegister) {
	br = NewBaseRegister(bd)
	if offset == 0 || br.Void {
		return
	}

	if br.Upper < offset {
		br.Void = true
		return
	}

	lower := uint64(0)
	if br.Lower > offset {
		lower = br.Lower - offset
	}
	br.Address.Offset += offset + lower - br.Lower
	br.Lower = lower
	br.Upper -= offset

	return
}

// VoidBaseRegister returns an empty base register.
func VoidBaseRegister() BaseRegister {
	return BaseRegister{Void: true, Lower: 01000}
}

// DecodeBaseRegister loads a base register from its four word form.
func DecodeBaseRegister(words []word.Word) (br BaseRegister) {
	w0, w1 := words[0], words[1]
	br = BaseRegister{
		GAP:   Permissions{Read: w0&br_gap_read != 0, Write: w0&br_gap_write != 0},
		SAP:   Permissions{Read: w0&br_sap_read != 0, Write: w0&br_sap_write != 0},
		Large: w0&br_large != 0,
		Lock:  NewAccessInfo(w0.H2()),
	}

	ll := uint64(w1>>27) & 0777
	ul := uint64(w1) & 0777_777777
	if br.Large {
		br.Lower = ll << 15
		br.Upper = (ul << 6) | 077
	} else {
		br.Lower = ll << 9
		br.Upper = ul & 0777777
	}
	br.Address = NewAbsoluteAddress(words[2], words[3])
	br.Void = w0&br_void != 0 || br.Lower > br.Upper

	return
}

// Words encodes the base register in its four word form.
func (br *BaseRegister) Words() (words [4]word.Word) {
	var w0 word.Word
	if br.GAP.Read {
		w0 |= br_gap_read
	}
	if br.GAP.Write {
		w0 |= br_gap_write
	}
	if br.SAP.Read {
		w0 |= br_sap_read
	}
	if br.SAP.Write {
		w0 |= br_sap_write
	}
	if br.Void {
		w0 |= br_void
	}
	if br.Large {
		w0 |= br_large
	}
	words[0] = w0.SetH2(br.Lock.Value())

	if br.Large {
		words[1] = word.Word(((br.Lower>>15)&0777)<<27 | ((br.Upper >> 6) & 0777_777777))
	} else {
		words[1] = word.Word(((br.Lower>>9)&0777)<<27 | (br.Upper & 0777777))
	}
	words[2], words[3] = br.Address.Words()

	return
}

// Contains reports if count words starting at relative address rel are
// within the limits of the bank.
func (br *BaseRegister) Contains(rel uint64, count uint64) bool {
	if br.Void {
		return false
	}
	if count == 0 {
		count = 1
	}
	return rel >= br.Lower && rel+count-1 <= br.Upper
}

// CheckLimits raises a reference violation when the range is outside the bank.
func (br *BaseRegister) CheckLimits(rel uint64, count uint64, fetch bool) error {
	if br.Void {
		return interrupt.NewReferenceViolation(interrupt.BASE_REGISTER_INVALID, fetch)
	}
	if !br.Contains(rel, count) {
		return interrupt.NewReferenceViolation(interrupt.STORAGE_LIMITS, fetch)
	}
	return nil
}

// CheckAccess checks limits and then the permissions key has on the bank.
func (br *BaseRegister) CheckAccess(rel uint64, count uint64, key AccessInfo, access Access, fetch bool) (err error) {
	err = br.CheckLimits(rel, count, fetch)
	if err != nil {
		return
	}

	special := UseSpecial(key, br.Lock)
	perms := br.GAP
	if special {
		perms = br.SAP
	}
	if access&ACCESS_READ != 0 && !perms.Read {
		return interrupt.NewAccessViolation(interrupt.READ_ACCESS, fetch, special)
	}
	if access&ACCESS_WRITE != 0 && !perms.Write {
		return interrupt.NewAccessViolation(interrupt.WRITE_ACCESS, fetch, special)
	}

	return
}

// Index is the segment word index of relative address rel.
func (br *BaseRegister) Index(rel uint64) uint64 {
	return br.Address.Offset + rel - br.Lower
}

// Absolute is the absolute address of relative address rel.
func (br *BaseRegister) Absolute(rel uint64) AbsoluteAddress {
	aa := br.Address
	aa.Offset = br.Index(rel)
	return aa
}

// Storage returns the count words at relative address rel, or a reference
// violation if the backing segment does not hold them. Limits are not
// checked.
func (br *BaseRegister) Storage(rel uint64, count uint64) (words []word.Word, err error) {
	if br.Void || br.Segment == nil {
		err = interrupt.NewReferenceViolation(interrupt.BASE_REGISTER_INVALID, false)
		return
	}
	index := br.Index(rel)
	if index+count > br.Segment.Len() || index+count < index {
		err = interrupt.NewReferenceViolation(interrupt.STORAGE_LIMITS, false)
		return
	}
	words = br.Segment.Words[index : index+count]
	return
}

// Equal compares base registers, ignoring cached storage. All void
// registers are equal.
func (br *BaseRegister) Equal(other *BaseRegister) bool {
	if br.Void && other.Void {
		return true
	}
	return br.Void == other.Void &&
		br.Large == other.Large &&
		br.Lower == other.Lower &&
		br.Upper == other.Upper &&
		br.GAP == other.GAP &&
		br.SAP == other.SAP &&
		br.Lock == other.Lock &&
		br.Address == other.Address
}

func (br *BaseRegister) String() string {
	if br.Void {
		return "void"
	}
	words := br.Words()
	return fmt.Sprintf("%v %v %v %v", words[0], words[1], words[2], words[3])
}
