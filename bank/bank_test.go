package bank

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ezrec/em2200/interrupt"
	"github.com/ezrec/em2200/storage"
	"github.com/ezrec/em2200/word"
)

func TestAccessInfo(t *testing.T) {
	assert := assert.New(t)

	ai := NewAccessInfo(0_600123)
	assert.Equal(uint64(3), ai.Ring)
	assert.Equal(uint64(0123), ai.Domain)
	assert.Equal(uint64(0_600123), ai.Value())

	p := NewPermissions(05)
	assert.Equal(Permissions{Enter: true, Write: true}, p)
	assert.Equal(uint64(05), p.Bits())
}

func TestUseSpecial(t *testing.T) {
	assert := assert.New(t)

	lock := AccessInfo{Ring: 2, Domain: 5}

	assert.True(UseSpecial(AccessInfo{Ring: 1, Domain: 0}, lock))
	assert.True(UseSpecial(AccessInfo{Ring: 3, Domain: 5}, lock))
	assert.False(UseSpecial(AccessInfo{Ring: 2, Domain: 4}, lock))
	assert.False(UseSpecial(AccessInfo{Ring: 3, Domain: 0}, lock))

	gap := Permissions{Read: true}
	sap := Permissions{Read: true, Write: true}
	assert.Equal(sap, Effective(AccessInfo{Ring: 0, Domain: 0}, lock, gap, sap))
	assert.Equal(gap, Effective(AccessInfo{Ring: 3, Domain: 1}, lock, gap, sap))
}

func TestVirtualAddress(t *testing.T) {
	assert := assert.New(t)

	va := NewVirtualAddress(0_600041_001000)
	assert.Equal(VirtualAddress{Level: 6, BDI: 041, Offset: 01000}, va)
	assert.Equal(uint64(0_600041), va.LBDI())
	assert.Equal(word.Word(0_600041_001000), va.Word())
	assert.False(va.IsInterruptReserved())
	assert.True(FromLBDI(037, 0).IsInterruptReserved())
	assert.Equal("6:00041:001000", va.String())
}

func TestAbsoluteAddress(t *testing.T) {
	assert := assert.New(t)

	aa := AbsoluteAddress{UPI: 1, Segment: 3, Offset: 0100}
	seg, loc := aa.Words()
	assert.Equal(word.Word(3), seg)
	assert.Equal(word.Word(0_040000_000100), loc)
	assert.Equal(aa, NewAbsoluteAddress(seg, loc))
	assert.Equal(uint64(0105), aa.Add(5).Offset)
}

func newDescriptor(lower, upper uint64, large bool) Descriptor {
	bd := make(Descriptor, DESCRIPTOR_WORDS)
	bd.SetType(EXTENDED_MODE)
	bd.SetLarge(large)
	bd.SetLimits(lower, upper)
	bd.SetAccess(Permissions{Read: true}, Permissions{Enter: true, Read: true, Write: true}, AccessInfo{Ring: 1, Domain: 7})
	bd.SetAddress(AbsoluteAddress{UPI: 1, Segment: 2, Offset: 0})
	return bd
}

func TestDescriptor_Fields(t *testing.T) {
	assert := assert.New(t)

	bd := newDescriptor(01000, 01777, false)
	assert.Equal(EXTENDED_MODE, bd.Type())
	assert.Equal(Permissions{Read: true}, bd.GAP())
	assert.Equal(Permissions{Enter: true, Read: true, Write: true}, bd.SAP())
	assert.Equal(AccessInfo{Ring: 1, Domain: 7}, bd.Lock())
	assert.Equal(uint64(01000), bd.LowerNormalized())
	assert.Equal(uint64(01777), bd.UpperNormalized())
	assert.False(bd.Void())
	assert.Equal(word.Word(0_270000_200007), bd[0])

	bd.SetType(GATE)
	assert.Equal(GATE, bd.Type())
	assert.Equal(Permissions{Read: true}, bd.GAP())

	bd.SetGeneralFault(true)
	assert.True(bd.GeneralFault())
	bd.SetGeneralFault(false)
	assert.False(bd.GeneralFault())

	bd.SetDisplacement(012)
	assert.Equal(uint64(012), bd.Displacement())

	bd.SetVoid()
	assert.True(bd.Void())
}

func TestDescriptor_Large(t *testing.T) {
	assert := assert.New(t)

	bd := newDescriptor(0100000, 0177777, true)
	assert.True(bd.Large())
	assert.Equal(uint64(0100000), bd.LowerNormalized())
	assert.Equal(uint64(0177777), bd.UpperNormalized())
	assert.Equal(uint64(01777), bd.UpperLimit())

	small := newDescriptor(0, 0100, false)
	small.SetUpperLimitSuppression(true)
	assert.Equal(uint64(0777777), small.UpperNormalized())
}

func TestDescriptor_LivePatch(t *testing.T) {
	assert := assert.New(t)

	table := make([]word.Word, 3*DESCRIPTOR_WORDS)
	bd, ok := DescriptorAt(table, 2)
	assert.True(ok)
	copy(bd, newDescriptor(0, 077, false))

	// Patching the table is visible through the view.
	table[2*DESCRIPTOR_WORDS] = table[2*DESCRIPTOR_WORDS] &^ (07 << 30)
	assert.Equal(Permissions{}, bd.SAP())

	_, ok = DescriptorAt(table, 3)
	assert.False(ok)
}

func TestDescriptor_Indirect(t *testing.T) {
	assert := assert.New(t)

	bd := make(Descriptor, DESCRIPTOR_WORDS)
	bd.SetType(INDIRECT)
	bd.SetTarget(0_200042)
	assert.Equal(INDIRECT, bd.Type())
	assert.Equal(uint64(0_200042), bd.Target())
}

func TestBaseRegister_Load(t *testing.T) {
	assert := assert.New(t)

	bd := newDescriptor(01000, 01777, false)
	br := NewBaseRegister(bd)

	assert.False(br.Void)
	assert.Equal(uint64(01000), br.Lower)
	assert.Equal(uint64(01777), br.Upper)
	assert.False(br.SAP.Enter)
	assert.True(br.SAP.Write)

	words := br.Words()
	again := DecodeBaseRegister(words[:])
	assert.True(br.Equal(&again))

	void := VoidBaseRegister()
	assert.True(void.Void)
	words = void.Words()
	again = DecodeBaseRegister(words[:])
	assert.True(again.Void)

	bd.SetVoid()
	br = NewBaseRegister(bd)
	assert.True(br.Void)
	assert.True(errors.Is(br.CheckLimits(01000, 1, false), interrupt.BASE_REGISTER_INVALID))
}

func TestBaseRegister_Subset(t *testing.T) {
	assert := assert.New(t)

	bd := newDescriptor(01000, 01777, false)
	full := NewBaseRegister(bd)

	sub := NewBaseRegisterSubset(bd, 01100)
	assert.Equal(uint64(0), sub.Lower)
	assert.Equal(uint64(0677), sub.Upper)
	assert.Equal(full.Index(01100), sub.Index(0))

	sub = NewBaseRegisterSubset(bd, 0200)
	assert.Equal(uint64(0600), sub.Lower)
	assert.Equal(full.Index(01000), sub.Index(0600))

	sub = NewBaseRegisterSubset(bd, 02000)
	assert.True(sub.Void)
}

func TestBaseRegister_Limits(t *testing.T) {
	assert := assert.New(t)

	br := NewBaseRegister(newDescriptor(01000, 01777, false))

	for _, rel := range []uint64{01000, 01234, 01777} {
		assert.NoError(br.CheckLimits(rel, 1, false))
	}
	for _, rel := range []uint64{0, 0777, 02000, 0777777} {
		err := br.CheckLimits(rel, 1, false)
		assert.True(errors.Is(err, interrupt.STORAGE_LIMITS), "%o", rel)
	}

	// Multi-word ranges are checked in whole.
	assert.NoError(br.CheckLimits(01776, 2, false))
	assert.Error(br.CheckLimits(01777, 2, false))

	mi, ok := interrupt.As(br.CheckLimits(0, 1, true))
	assert.True(ok)
	assert.Equal(uint64(03), mi.ShortStatus)
}

func TestBaseRegister_Access(t *testing.T) {
	assert := assert.New(t)

	br := NewBaseRegister(newDescriptor(0, 0777, false))

	special := AccessInfo{Ring: 0, Domain: 0}
	general := AccessInfo{Ring: 2, Domain: 1}

	assert.NoError(br.CheckAccess(0, 1, special, ACCESS_RW, false))
	assert.NoError(br.CheckAccess(0, 1, general, ACCESS_READ, false))

	err := br.CheckAccess(0, 1, general, ACCESS_WRITE, false)
	assert.True(errors.Is(err, interrupt.WRITE_ACCESS))

	mi, ok := interrupt.As(err)
	assert.True(ok)
	assert.False(mi.Special)

	br.GAP.Read = false
	err = br.CheckAccess(0, 1, general, ACCESS_READ, false)
	assert.True(errors.Is(err, interrupt.READ_ACCESS))

	br.SAP.Write = false
	err = br.CheckAccess(0, 1, special, ACCESS_WRITE, false)
	assert.True(errors.Is(err, interrupt.WRITE_ACCESS))
	mi, ok = interrupt.As(err)
	assert.True(ok)
	assert.True(mi.Special)
	assert.Contains(mi.Error(), "special access")
}

func TestBaseRegister_Storage(t *testing.T) {
	assert := assert.New(t)

	msp := storage.NewMSP(1, 0)
	index, err := msp.Create(01000)
	assert.NoError(err)
	seg, _ := msp.Segment(index)
	seg.Words[5] = 0123

	bd := newDescriptor(01000, 01777, false)
	bd.SetAddress(AbsoluteAddress{UPI: 1, Segment: index})
	br := NewBaseRegister(bd)
	br.Segment = seg

	words, err := br.Storage(01005, 1)
	assert.NoError(err)
	assert.Equal(word.Word(0123), words[0])
	assert.Equal(AbsoluteAddress{UPI: 1, Segment: index, Offset: 5}, br.Absolute(01005))

	_, err = br.Storage(01777, 2)
	assert.Error(err)

	// Resizing the segment is seen through the cached handle.
	assert.NoError(msp.Resize(index, 02000))
	words, err = br.Storage(01777, 2)
	assert.NoError(err)
	assert.Len(words, 2)
}

func TestGate(t *testing.T) {
	assert := assert.New(t)

	g := make(Gate, GATE_WORDS)
	target := VirtualAddress{Level: 4, BDI: 0101, Offset: 01000}
	g.SetGate(Permissions{Enter: true}, Permissions{}, AccessInfo{Domain: 3}, target, GateOptions{GotoInhibit: true, LP1Inhibit: true})

	assert.True(g.GAP().Enter)
	assert.False(g.SAP().Enter)
	assert.Equal(AccessInfo{Domain: 3}, g.Lock())
	assert.True(g.GotoInhibit())
	assert.False(g.DBInhibit())
	assert.True(g.LP1Inhibit())
	assert.Equal(target, g.Target())
}
