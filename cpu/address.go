package cpu

import (
	"github.com/ezrec/em2200/bank"
	"github.com/ezrec/em2200/interrupt"
	"github.com/ezrec/em2200/word"
)

func (ip *Processor) xIndex(n uint64) uint64 {
	if ip.DR.Has(DB_EXEC_REGISTER_SET) {
		return EX0 + (n & 017)
	}
	return X0 + (n & 017)
}

// aIndex allows n up to 16, for the A(a+1) of A15.
func (ip *Processor) aIndex(n uint64) uint64 {
	if ip.DR.Has(DB_EXEC_REGISTER_SET) {
		return (EA0 + n) % GRS_SIZE
	}
	return (A0 + n) % GRS_SIZE
}

func (ip *Processor) rIndex(n uint64) uint64 {
	if ip.DR.Has(DB_EXEC_REGISTER_SET) {
		return ER0 + (n & 017)
	}
	return R0 + (n & 017)
}

// X is index register n of the selected register set.
func (ip *Processor) X(n uint64) *IndexRegister {
	return (*IndexRegister)(&ip.GRS[ip.xIndex(n)])
}

// A is accumulator n of the selected register set.
func (ip *Processor) A(n uint64) *word.Word {
	return &ip.GRS[ip.aIndex(n)]
}

// R is R register n of the selected register set.
func (ip *Processor) R(n uint64) *word.Word {
	return &ip.GRS[ip.rIndex(n)]
}

// wideIndex selects 24-bit index modification.
func (ip *Processor) wideIndex() bool {
	return !ip.DR.Has(DB_BASIC_MODE) && ip.DR.Privilege() < 2 && ip.DR.Has(DB_EXEC_24BIT_INDEXING)
}

func add24(a, b uint64) uint64 {
	a &= 077777777
	b &= 077777777
	sum := a + b
	if sum > 077777777 {
		sum = (sum & 077777777) + 1
	}
	if sum == 077777777 && a != b {
		sum = 0
	}
	return sum
}

// indexed adds the modifier of X(x) to an address field.
func (ip *Processor) indexed(field uint64, x uint64) uint64 {
	if x == 0 {
		return field
	}
	xr := ip.X(x)
	if ip.wideIndex() {
		return add24(field, xr.XM24())
	}
	return word.Add18(field, xr.XM())
}

// relativeAddress forms the operand address of a memory reference: u+XM in
// basic mode and d+XM in extended mode.
func (ip *Processor) relativeAddress(iw word.Instruction) uint64 {
	if ip.DR.Has(DB_BASIC_MODE) {
		return ip.indexed(iw.U(), iw.X())
	}
	return ip.indexed(iw.D(), iw.X())
}

// incrementIndex applies the h bit post-increment of X(x).
func (ip *Processor) incrementIndex(iw word.Instruction) {
	if iw.X() == 0 || iw.H() == 0 {
		return
	}
	ip.X(iw.X()).Increment(ip.wideIndex())
}

// baseIndex is the base register an extended mode operand uses.
func (ip *Processor) baseIndex(iw word.Instruction) int {
	if ip.DR.Privilege() < 2 {
		return int(iw.IB())
	}
	return int(iw.B())
}

// isGRS reports if an operand address names the general register set.
func (ip *Processor) isGRS(iw word.Instruction, rel uint64) bool {
	if rel >= GRS_SIZE {
		return false
	}
	return ip.DR.Has(DB_BASIC_MODE) || ip.baseIndex(iw) == 0
}

// basicModeOrder is the order the basic mode base registers are searched.
var basicModeOrder = [2][4]int{
	{bank.BR_BASIC_LO, bank.BR_BASIC_LO + 2, bank.BR_BASIC_LO + 1, bank.BR_BASIC_LO + 3},
	{bank.BR_BASIC_LO + 1, bank.BR_BASIC_LO + 3, bank.BR_BASIC_LO, bank.BR_BASIC_LO + 2},
}

// findBasicModeBank finds the first of B12..B15 whose limits hold rel.
func (ip *Processor) findBasicModeBank(rel uint64, fetch bool) (index int, err error) {
	order := 0
	if ip.DR.Has(DB_BASIC_BASE_SELECTION) {
		order = 1
	}
	for _, index = range basicModeOrder[order] {
		if ip.BR[index].Contains(rel, 1) {
			return
		}
	}
	err = interrupt.NewReferenceViolation(interrupt.STORAGE_LIMITS, fetch)
	return
}

// reference is a resolved operand location, either consecutive GRS
// registers (wrapping at GRS_SIZE) or words of a bank.
type reference struct {
	grs   *GeneralRegisterSet
	index uint64
	words []word.Word
}

func (ref reference) Get(n int) word.Word {
	if ref.grs != nil {
		return ref.grs[(ref.index+uint64(n))%GRS_SIZE]
	}
	return ref.words[n]
}

func (ref reference) Set(n int, w word.Word) {
	if ref.grs != nil {
		ref.grs[(ref.index+uint64(n))%GRS_SIZE] = w & word.MASK
		return
	}
	ref.words[n] = w & word.MASK
}

// IsGRS reports a register reference.
func (ref reference) IsGRS() bool {
	return ref.grs != nil
}

func (ip *Processor) grsReference(rel uint64, count uint64, access bank.Access) (ref reference, err error) {
	pp := ip.DR.Privilege()
	for n := range count {
		index := (rel + n) % GRS_SIZE
		ok := true
		if access&bank.ACCESS_READ != 0 {
			ok = ok && grsReadable(index, pp)
		}
		if access&bank.ACCESS_WRITE != 0 {
			ok = ok && grsWritable(index, pp)
		}
		if !ok {
			err = interrupt.NewReferenceViolation(interrupt.GRS_VIOLATION, false)
			return
		}
	}
	ref = reference{grs: &ip.GRS, index: rel}
	return
}

// storageReference checks and maps count words at rel through B(index).
func (ip *Processor) storageReference(index int, rel uint64, count uint64, access bank.Access) (ref reference, err error) {
	br := &ip.BR[index]
	err = br.CheckAccess(rel, count, ip.IKR.AccessKey(), access, false)
	if err != nil {
		return
	}

	words, err := br.Storage(rel, count)
	if err != nil {
		return
	}

	if access&bank.ACCESS_READ != 0 {
		ip.checkBreakpoint(BREAK_READ, br.Absolute(rel))
	}
	if access&bank.ACCESS_WRITE != 0 {
		ip.checkBreakpoint(BREAK_WRITE, br.Absolute(rel))
	}

	ref = reference{words: words}
	return
}

// resolve maps the count word operand of a memory reference instruction.
// A basic mode indirect address completes one hop and returns errIndirect.
func (ip *Processor) resolve(iw word.Instruction, count uint64, access bank.Access) (ref reference, err error) {
	rel := ip.relativeAddress(iw)

	if ip.DR.Has(DB_BASIC_MODE) && iw.I() != 0 {
		err = ip.indirect(iw, rel)
		return
	}

	ref, err = ip.locate(iw, rel, count, access)
	if err != nil {
		return
	}

	ip.incrementIndex(iw)
	return
}

// locate maps count words at relative address rel of the operand space of
// iw, without indexing side effects.
func (ip *Processor) locate(iw word.Instruction, rel uint64, count uint64, access bank.Access) (ref reference, err error) {
	if ip.isGRS(iw, rel) {
		ref, err = ip.grsReference(rel, count, access)
		return
	}

	index := 0
	if ip.DR.Has(DB_BASIC_MODE) {
		index, err = ip.findBasicModeBank(rel, false)
		if err != nil {
			return
		}
	} else {
		index = ip.baseIndex(iw)
	}

	ref, err = ip.storageReference(index, rel, count, access)
	return
}

// indirect replaces the x, h, i and u fields of the current instruction
// with those of the word at rel.
func (ip *Processor) indirect(iw word.Instruction, rel uint64) (err error) {
	var ref reference
	if rel < GRS_SIZE {
		ref, err = ip.grsReference(rel, 1, bank.ACCESS_READ)
	} else {
		var index int
		index, err = ip.findBasicModeBank(rel, false)
		if err != nil {
			return
		}
		ref, err = ip.storageReference(index, rel, 1, bank.ACCESS_READ)
	}
	if err != nil {
		return
	}

	ip.incrementIndex(iw)
	ip.current = iw.WithXHIU(ref.Get(0))
	err = errIndirect
	return
}

// jumpTarget is the destination of a jump: u+XM, after any indirection.
func (ip *Processor) jumpTarget(iw word.Instruction) (target uint64, err error) {
	target = ip.indexed(iw.U(), iw.X())
	if ip.DR.Has(DB_BASIC_MODE) && iw.I() != 0 {
		err = ip.indirect(iw, target)
		return
	}
	ip.incrementIndex(iw)
	return
}

// shiftCount is the low seven bits of u+XM.
func (ip *Processor) shiftCount(iw word.Instruction) (count int, err error) {
	target, err := ip.jumpTarget(iw)
	count = int(target & 0177)
	return
}
