package cpu

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ezrec/em2200/bank"
	"github.com/ezrec/em2200/interrupt"
	"github.com/ezrec/em2200/storage"
	"github.com/ezrec/em2200/word"
)

// Bank layout of the test machine; all banks are at level 0.
const (
	testHandlerBDI = 040
	testCodeBDI    = 041
	testDataBDI    = 042
	testRCSBDI     = 043
	testSpareBDI   = 044

	testBDTEntries = 060
	testCodeLower  = 01000
	testDataLower  = 01000
	testRCSWords   = 0100

	testDataBR = 2 // Data bank base register.
)

var testAll = bank.Permissions{Enter: true, Read: true, Write: true}

type testStorage struct {
	msp *storage.MSP
}

func (ts *testStorage) MainStorage(upi uint64) (msp *storage.MSP, err error) {
	if ts.msp == nil || upi != ts.msp.UPI {
		err = ErrStorageMissing
		return
	}
	msp = ts.msp
	return
}

// machine is a processor with a level 0 BDT, default interrupt handlers,
// a code bank, a data bank and an RCS.
type machine struct {
	t    *testing.T
	msp  *storage.MSP
	ip   *Processor
	bdt  []word.Word
	seg  uint64 // Segment of the BDT.
	code []word.Word
	data []word.Word
}

func (m *machine) descriptor(bdi uint64) bank.Descriptor {
	bd, ok := bank.DescriptorAt(m.bdt, bdi)
	require.True(m.t, ok)
	return bd
}

// addBank creates a segment for a bank and describes it at bdi.
func (m *machine) addBank(bdi uint64, kind bank.Type, lower uint64, size uint64, perms bank.Permissions) (words []word.Word) {
	index, err := m.msp.Create(size)
	require.NoError(m.t, err)
	seg, err := m.msp.Segment(index)
	require.NoError(m.t, err)

	bd := m.descriptor(bdi)
	bd.SetType(kind)
	bd.SetAccess(perms, perms, bank.AccessInfo{})
	bd.SetLimits(lower, lower+size-1)
	bd.SetAddress(bank.AbsoluteAddress{UPI: m.msp.UPI, Segment: index})

	return seg.Words
}

// baseRegister loads the bank at bdi as a base register.
func (m *machine) baseRegister(bdi uint64) bank.BaseRegister {
	return bank.NewBaseRegister(m.descriptor(bdi))
}

func newMachine(t *testing.T, code ...word.Instruction) (m *machine) {
	m = &machine{t: t, msp: storage.NewMSP(1, 0)}
	m.ip = NewProcessor(0, &testStorage{msp: m.msp})

	index, err := m.msp.Create(testBDTEntries * bank.DESCRIPTOR_WORDS)
	require.NoError(t, err)
	seg, err := m.msp.Segment(index)
	require.NoError(t, err)
	m.bdt = seg.Words
	m.seg = index

	handlers := m.addBank(testHandlerBDI, bank.EXTENDED_MODE, 0, interrupt.CLASS_COUNT, testAll)
	for class := range uint64(interrupt.CLASS_COUNT) {
		handlers[class] = word.Extended(077, 017, 017, 0, 0, 0, 0, STOP_DETAIL_INTERRUPT|class).Word()
		m.bdt[class] = bank.FromLBDI(testHandlerBDI, class).Word()
	}

	size := uint64(len(code))
	if size == 0 {
		size = 1
	}
	m.code = m.addBank(testCodeBDI, bank.EXTENDED_MODE, testCodeLower, size, testAll)
	for n, iw := range code {
		m.code[n] = iw.Word()
	}
	m.data = m.addBank(testDataBDI, bank.EXTENDED_MODE, testDataLower, 01000, testAll)
	m.addBank(testRCSBDI, bank.EXTENDED_MODE, 0, testRCSWords, testAll)

	return
}

// state is the initial state the machine starts from.
func (m *machine) state() *InitialState {
	bdt := bank.BaseRegister{
		Lower:   0,
		Upper:   uint64(len(m.bdt) - 1),
		GAP:     bank.Permissions{Read: true, Write: true},
		SAP:     bank.Permissions{Read: true, Write: true},
		Address: bank.AbsoluteAddress{UPI: m.msp.UPI, Segment: m.seg},
	}
	return &InitialState{
		BaseRegisters: map[int]bank.BaseRegister{
			bank.BR_CODE:      m.baseRegister(testCodeBDI),
			testDataBR:        m.baseRegister(testDataBDI),
			bank.BR_BDT_LEVEL: bdt,
			bank.BR_RCS:       m.baseRegister(testRCSBDI),
		},
		Banks: map[int]ActiveBaseEntry{
			testDataBR: {Level: 0, BDI: testDataBDI},
		},
		PAR: bank.FromLBDI(testCodeBDI, testCodeLower),
		DR:  DB_ARITHMETIC_EXCEPTION,
		GRS: map[uint64]word.Word{
			EX0: word.New(testRCSWords),
		},
	}
}

// start loads the initial state, after the caller's changes to it.
func (m *machine) start(changes ...func(state *InitialState)) {
	state := m.state()
	for _, change := range changes {
		change(state)
	}
	require.NoError(m.t, m.ip.IPL(state))
}

// run starts the machine and runs it until it stops.
func (m *machine) run(changes ...func(state *InitialState)) (reason StopReason, detail uint64) {
	m.start(changes...)
	require.NoError(m.t, m.ip.Run(context.Background(), 1000))
	require.False(m.t, m.ip.Running(), "processor still running")
	return m.ip.StopReason()
}

// lastInterrupt is the last interrupt taken, as an error.
func (m *machine) lastInterrupt() error {
	mi := m.ip.LastInterrupt()
	if mi == nil {
		return nil
	}
	return mi
}

// halt is the HALT 0 that ends a test program.
var halt = word.Extended(077, 017, 017, 0, 0, 0, 0, 0)

// ext encodes an extended mode instruction.
func ext(f, j, a, x, h, b, d uint64) word.Instruction {
	return word.Extended(f, j, a, x, h, 0, b, d)
}

// immediate encodes an extended mode instruction with a U operand.
func immediate(f, a, u uint64) word.Instruction {
	return word.Extended(f, J_U, a, 0, 0, 0, 0, 0).WithU(u)
}
