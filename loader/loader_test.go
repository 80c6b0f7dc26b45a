package loader

import (
	"context"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ezrec/em2200/bank"
	"github.com/ezrec/em2200/cpu"
	"github.com/ezrec/em2200/interrupt"
	"github.com/ezrec/em2200/storage"
	"github.com/ezrec/em2200/word"
)

type testStorage struct {
	msp *storage.MSP
}

func (ts *testStorage) MainStorage(upi uint64) (msp *storage.MSP, err error) {
	if upi != ts.msp.UPI {
		err = cpu.ErrStorageMissing
		return
	}
	msp = ts.msp
	return
}

// boot installs an image in a new storage processor, and runs it to the
// first stop.
func boot(t *testing.T, img *Image, opts InstallOptions) (ip *cpu.Processor, msp *storage.MSP) {
	msp = storage.NewMSP(1, img.FixedWords())
	state, err := Install(img, msp, opts)
	require.NoError(t, err)

	ip = cpu.NewProcessor(0, &testStorage{msp: msp})
	require.NoError(t, ip.IPL(state))
	require.NoError(t, ip.Run(context.Background(), 1000))
	require.False(t, ip.Running())
	return
}

const addScript = `
data = bank("data", bdi=0o44, lower=0o1000, words=[word(-5), 0], br=2)

bank("code", bdi=0o43, lower=0o1000, write_protect=True, words=[
    op("LA", j=U, a=A0, u=7),
    op("AA", a=A0, b=2, d=0o1000),
    op("SA", a=A0, b=2, d=0o1001),
    op("HALT"),
])

start("code")
`

func TestParseStarlark(t *testing.T) {
	assert := assert.New(t)

	img, err := ParseStarlark("add.star", addScript)
	require.NoError(t, err)

	assert.Equal("add.star", img.Name)
	assert.Len(img.Banks, 2)
	assert.Equal(bank.FromLBDI(043, 01000), img.Start)

	code, ok := img.Bank("code")
	require.True(t, ok)
	assert.True(code.Options.Extended)
	assert.True(code.Options.WriteProtect)
	assert.Equal(uint64(01003), code.Upper())
	assert.Equal(word.Extended(010, cpu.J_U, 0, 0, 0, 0, 0, 0).WithU(7).Word(), code.Words[0])
	assert.Equal(word.Extended(077, 017, 017, 0, 0, 0, 0, 0).Word(), code.Words[3])

	data, ok := img.Bank("data")
	require.True(t, ok)
	assert.Equal(2, data.BaseRegister)
	assert.Equal(word.FromInt(-5), data.Words[0])

	bk, index, ok := img.Locate(bank.FromLBDI(044, 01001))
	assert.True(ok)
	assert.Equal(data, bk)
	assert.Equal(1, index)

	count := 0
	for va, w := range img.Words() {
		bk, index, ok := img.Locate(va)
		require.True(t, ok, va.String())
		assert.Equal(bk.Words[index], w)
		count++
	}
	assert.Equal(6, count)
}

func TestParseStarlark_Builtins(t *testing.T) {
	table := [...]struct {
		expr  string
		value word.Word
	}{
		{"word(-1)", word.FromInt(-1)},
		{"word(0o777777777777)", word.MASK},
		{"va(1, 2, 3)", word.FromHalves(1<<15|2, 3)},
		{"extended(0o10, j=U, a=A3, u=0o177777)", word.Extended(010, cpu.J_U, 3, 0, 0, 0, 0, 0).WithU(0177777).Word()},
		{"basic(0o14, a=A1, x=X2, h=1, u=0o1234)", word.Basic(014, 0, 1, 2, 1, 0, 01234).Word()},
		{"op(\"LA\", a=A2, basic=True, u=5)", word.Basic(010, 0, 2, 0, 0, 0, 5).Word()},
		{"op(\"lbu\", a=X3, b=2, d=0o10)", word.Extended(075, 0, 3, 0, 0, 0, 2, 010).Word()},
		{"ascii(\"ABCD\")[0]", word.ASCII("ABCD")[0]},
		{"DB_PRIVILEGE_3", word.Word(3 << 20)},
	}

	for _, entry := range table {
		t.Run(entry.expr, func(t *testing.T) {
			script := "bank(\"code\", words=[" + entry.expr + "])\nstart(\"code\")\n"
			img, err := ParseStarlark("builtins.star", script)
			require.NoError(t, err)
			assert.Equal(t, entry.value, img.Banks[0].Words[0])
		})
	}
}

func TestParseStarlark_Errors(t *testing.T) {
	table := [...]struct {
		name   string
		script string
		err    error
	}{
		{"no-start", `bank("code", words=[0])`, ErrStartMissing},
		{"no-bank", `start("code")`, ErrBankMissing},
		{"empty", `bank("code")` + "\nstart(\"code\")\n", ErrBankLimits},
		{"opcode", `bank("code", words=[op("NOPE")])`, ErrScriptOpcode},
		{"range", `bank("code", words=[word(0o1000000000000)])`, ErrScriptArgument},
		{"lower", `bank("code", lower=0o100, words=[0])` + "\nstart(\"code\")\n", ErrBankLimits},
		{"reserved", `bank("code", bdi=0o40, words=[0])` + "\nstart(\"code\")\n", ErrBankIndex},
		{"duplicate", `bank("a", words=[0])` + "\n" + `bank("b", words=[0])` + "\nstart(\"a\")\n", ErrBankDuplicate},
		{"outside", `bank("code", words=[0])` + "\nstart(\"code\", offset=5)\n", ErrStartInvalid},
	}

	for _, entry := range table {
		t.Run(entry.name, func(t *testing.T) {
			_, err := ParseStarlark(entry.name+".star", entry.script)
			assert.ErrorIs(t, err, entry.err)
		})
	}
}

func TestInstall(t *testing.T) {
	assert := assert.New(t)

	img, err := ParseStarlark("add.star", addScript)
	require.NoError(t, err)
	assert.Equal(uint64(01000+4), img.FixedWords())

	ip, _ := boot(t, img, InstallOptions{})

	reason, detail := ip.StopReason()
	assert.Equal(cpu.STOP_DEBUG, reason)
	assert.Equal(uint64(0), detail)
	assert.Equal(word.Word(2), *ip.A(0))

	words, err := ip.BR[2].Storage(01001, 1)
	require.NoError(t, err)
	assert.Equal(word.Word(2), words[0])
	assert.Equal(cpu.ActiveBaseEntry{Level: 0, BDI: 044}, ip.ABT[2])
}

func TestInstall_State(t *testing.T) {
	assert := assert.New(t)

	img, err := ParseStarlark("add.star", addScript)
	require.NoError(t, err)

	msp := storage.NewMSP(1, img.FixedWords())
	state, err := Install(img, msp, InstallOptions{RCSDepth: 4, ICSDepth: 2})
	require.NoError(t, err)

	assert.Equal(img.Start, state.PAR)
	assert.False(state.DR.Has(cpu.DB_BASIC_MODE))
	assert.Equal(word.Word(4*cpu.RCS_FRAME_WORDS), state.GRS[cpu.EX0])
	assert.Equal(word.FromHalves(cpu.ICS_FRAME_WORDS, 2*cpu.ICS_FRAME_WORDS), state.GRS[cpu.EX0+1])

	bdt := state.BaseRegisters[bank.BR_BDT_LEVEL]
	seg, err := msp.Segment(bdt.Address.Segment)
	require.NoError(t, err)
	assert.Equal(uint64(045*bank.DESCRIPTOR_WORDS), seg.Len())

	bd, ok := bank.DescriptorAt(seg.Words, 043)
	require.True(t, ok)
	assert.Equal(bank.EXTENDED_MODE, bd.Type())
	assert.Equal(uint64(01000), bd.LowerNormalized())
	assert.Equal(uint64(01003), bd.UpperNormalized())
	assert.False(bd.GAP().Write)
	assert.False(bd.SAP().Write)
	assert.Equal(bank.AbsoluteAddress{UPI: 1, Segment: storage.FIXED_SEGMENT, Offset: 2}, bd.Address())

	bd, ok = bank.DescriptorAt(seg.Words, RCS_BDI)
	require.True(t, ok)
	assert.Equal(uint64(4*cpu.RCS_FRAME_WORDS-1), bd.UpperNormalized())

	bd, ok = bank.DescriptorAt(seg.Words, HANDLER_BDI)
	require.True(t, ok)
	assert.True(bd.Void())

	code := state.BaseRegisters[bank.BR_CODE]
	assert.True(code.Equal(&bank.BaseRegister{
		Lower:   01000,
		Upper:   01003,
		GAP:     bank.Permissions{Read: true},
		SAP:     bank.Permissions{Read: true},
		Address: bank.AbsoluteAddress{UPI: 1, Offset: 2},
	}))
}

func TestInstall_Handlers(t *testing.T) {
	assert := assert.New(t)

	img, err := ParseStarlark("protect.star", `
bank("code", lower=0o1000, write_protect=True, words=[
    op("SA", a=A0, b=0, d=0o1000),
    op("HALT"),
])
start("code")
`)
	require.NoError(t, err)

	ip, _ := boot(t, img, InstallOptions{Handlers: true})

	reason, detail := ip.StopReason()
	assert.Equal(cpu.STOP_DEBUG, reason)
	assert.Equal(uint64(cpu.STOP_DETAIL_INTERRUPT|interrupt.REFERENCE_VIOLATION), detail)
	assert.ErrorIs(ip.LastInterrupt(), interrupt.WRITE_ACCESS)
	assert.Equal(uint64(HANDLER_BDI), ip.PAR.LBDI())
}

func TestInstall_Basic(t *testing.T) {
	assert := assert.New(t)

	img, err := ParseStarlark("basic.star", `
bank("code", extended=False, lower=0o1000, words=[
    op("LA", basic=True, j=U, a=A1, u=0o42),
    op("HALT", basic=True, u=7),
])
start("code")
`)
	require.NoError(t, err)

	ip, _ := boot(t, img, InstallOptions{})

	reason, detail := ip.StopReason()
	assert.Equal(cpu.STOP_DEBUG, reason)
	assert.Equal(uint64(7), detail)
	assert.Equal(word.Word(042), *ip.A(1))
	assert.True(ip.DR.Has(cpu.DB_BASIC_MODE))
	assert.Equal(cpu.ActiveBaseEntry{Level: 0, BDI: FIRST_USER_BDI}, ip.ABT[bank.BR_BASIC_LO])
}

func TestInstall_Levels(t *testing.T) {
	assert := assert.New(t)

	img, err := ParseStarlark("levels.star", `
bank("code", words=[
    op("LA", a=A0, b=3, d=0),
    op("HALT"),
])
bank("data", level=2, bdi=5, words=[0o123], dynamic=True, br=3)
start("code")
`)
	require.NoError(t, err)
	assert.Equal([]uint64{0, 2}, slices.Collect(img.Levels()))
	assert.Equal(uint64(1), img.FixedWords())

	ip, msp := boot(t, img, InstallOptions{})

	reason, _ := ip.StopReason()
	assert.Equal(cpu.STOP_DEBUG, reason)
	assert.Equal(word.Word(0123), *ip.A(0))
	assert.False(ip.BR[bank.BR_BDT_LEVEL+2].Void)
	assert.True(ip.BR[bank.BR_BDT_LEVEL+1].Void)
	assert.NotEqual(uint64(storage.FIXED_SEGMENT), ip.BR[3].Address.Segment)

	_, err = msp.Segment(ip.BR[3].Address.Segment)
	assert.NoError(err)
}

func TestInstall_FixedCapacity(t *testing.T) {
	img, err := ParseStarlark("add.star", addScript)
	require.NoError(t, err)

	_, err = Install(img, storage.NewMSP(1, 0), InstallOptions{})
	assert.ErrorIs(t, err, ErrFixedCapacity)
}

func TestImage_Validate(t *testing.T) {
	code := func() *Bank {
		return &Bank{Name: "code", BDI: FIRST_USER_BDI, Words: []word.Word{0}, Options: Options{Extended: true}}
	}

	table := [...]struct {
		name   string
		change func(img *Image)
		err    error
	}{
		{"ok", func(img *Image) {}, nil},
		{"empty", func(img *Image) { img.Banks = nil }, ErrImageEmpty},
		{"level", func(img *Image) { img.Banks[0].Level = 8 }, ErrBankIndex},
		{"bdi-zero", func(img *Image) { img.Banks[0].Level, img.Banks[0].BDI = 1, 0 }, ErrBankIndex},
		{"large", func(img *Image) { img.Banks[0].Options.Large, img.Banks[0].Lower = true, 01000 }, ErrBankLimits},
		{"upper", func(img *Image) { img.Banks[0].Size = 01000001 }, ErrBankLimits},
		{"register", func(img *Image) { img.Banks[0].BaseRegister = 16 }, ErrBankRegister},
		{"basic-register", func(img *Image) {
			img.Banks[0].Options.Extended = false
			img.Banks[0].BaseRegister = 3
		}, ErrBankRegister},
		{"shared-register", func(img *Image) {
			other := code()
			other.Name, other.BDI = "other", FIRST_USER_BDI+1
			other.BaseRegister = 4
			img.Banks[0].BaseRegister = 4
			img.Banks = append(img.Banks, other)
		}, ErrBankRegister},
		{"missing", func(img *Image) { img.Start.BDI = 0100 }, ErrStartMissing},
	}

	for _, entry := range table {
		t.Run(entry.name, func(t *testing.T) {
			img := &Image{Name: entry.name, Banks: []*Bank{code()}, Start: bank.FromLBDI(FIRST_USER_BDI, 0)}
			entry.change(img)
			err := img.Validate()
			if entry.err == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, entry.err)

			var ei *ErrImage
			assert.ErrorAs(t, err, &ei)
		})
	}
}
