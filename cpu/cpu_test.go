package cpu

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ezrec/em2200/bank"
	"github.com/ezrec/em2200/interrupt"
	"github.com/ezrec/em2200/word"
)

func TestProcessor_AddImmediate(t *testing.T) {
	assert := assert.New(t)

	m := newMachine(t,
		immediate(010, 0, 7),   // LA,U A0,7
		immediate(014, 0, 014), // AA,U A0,014
		halt,
	)

	reason, detail := m.run()
	assert.Equal(STOP_DEBUG, reason)
	assert.Equal(uint64(0), detail)
	assert.Equal(word.Word(023), *m.ip.A(0))
	assert.False(m.ip.DR.Has(DB_CARRY))
	assert.False(m.ip.DR.Has(DB_OVERFLOW))
	assert.Equal(uint64(testCodeLower+3), m.ip.PAR.PC())
	assert.Equal(3, m.ip.Ticks)
}

func TestProcessor_NotRunning(t *testing.T) {
	assert := assert.New(t)

	ip := NewProcessor(0, nil)
	assert.ErrorIs(ip.Tick(), ErrNotRunning)

	reason, _ := ip.StopReason()
	assert.Equal(STOP_INITIAL, reason)

	ip.Clear()
	reason, _ = ip.StopReason()
	assert.Equal(STOP_CLEARED, reason)
}

func TestProcessor_Storage(t *testing.T) {
	assert := assert.New(t)

	m := newMachine(t,
		ext(010, J_W, 1, 0, 0, testDataBR, testDataLower),     // LA A1,data[0]
		ext(014, J_W, 1, 0, 0, testDataBR, testDataLower+1),   // AA A1,data[1]
		ext(001, J_W, 1, 0, 0, testDataBR, testDataLower+2),   // SA A1,data[2]
		ext(001, J_H1, 1, 0, 0, testDataBR, testDataLower+3),  // SA,H1 A1,data[3]
		ext(010, J_S6, 2, 0, 0, testDataBR, testDataLower+4),  // LA,S6 A2,data[4]
		ext(010, J_XH2, 3, 0, 0, testDataBR, testDataLower+5), // LA,XH2 A3,data[5]
		ext(005, J_W, 010, 0, 0, testDataBR, testDataLower+6), // INC data[6]
		halt,
	)
	m.data[0] = 0_000000_001000
	m.data[1] = 0_000000_000234
	m.data[3] = 0_777777_777777
	m.data[4] = 0_010203_040577
	m.data[5] = 0_000000_777776
	m.data[6] = 41

	reason, detail := m.run()
	assert.Equal(STOP_DEBUG, reason)
	assert.Equal(uint64(0), detail)
	assert.Equal(word.Word(01234), m.data[2])
	assert.Equal(word.Word(0_001234_777777), m.data[3])
	assert.Equal(word.Word(077), *m.ip.A(2))
	assert.Equal(word.Word(0_777777_777776), *m.ip.A(3))
	assert.Equal(word.Word(42), m.data[6])
}

func TestProcessor_IndexIncrement(t *testing.T) {
	assert := assert.New(t)

	m := newMachine(t,
		ext(014, J_W, 0, 1, 1, testDataBR, testDataLower), // AA A0,data[X1],*X1
		ext(014, J_W, 0, 1, 1, testDataBR, testDataLower), // AA A0,data[X1],*X1
		ext(014, J_W, 0, 1, 1, testDataBR, testDataLower), // AA A0,data[X1],*X1
		halt,
	)
	m.data[0] = 1
	m.data[2] = 2
	m.data[4] = 4

	m.run(func(state *InitialState) {
		state.GRS[X0+1] = word.FromHalves(2, 0)
	})
	assert.Equal(word.Word(7), *m.ip.A(0))
	assert.Equal(uint64(6), m.ip.X(1).XM())
	assert.Equal(uint64(2), m.ip.X(1).XI())
}

func TestProcessor_SkipOnZero(t *testing.T) {
	assert := assert.New(t)

	m := newMachine(t,
		ext(005, J_W, 010, 0, 0, testDataBR, testDataLower), // INC data[0]
		immediate(010, 0, 1),                                // LA,U A0,1 (skipped)
		ext(005, J_W, 010, 0, 0, testDataBR, testDataLower), // INC data[0]
		immediate(010, 1, 1),                                // LA,U A1,1
		halt,
	)
	m.data[0] = word.Word(1).Negate()

	m.run()
	assert.Equal(word.Word(1), m.data[0])
	assert.Equal(word.Word(0), *m.ip.A(0))
	assert.Equal(word.Word(1), *m.ip.A(1))
}

func TestProcessor_Jumps(t *testing.T) {
	assert := assert.New(t)

	m := newMachine(t,
		immediate(010, 0, 3),                                // LA,U A0,3
		ext(074, 001, 0, 0, 0, 0, 0).WithU(testCodeLower+4), // JNZ A0,out
		immediate(010, 1, 1),                                // LA,U A1,1
		halt,
		immediate(010, 2, 2), // out: LA,U A2,2
		halt,
	)

	m.run()
	assert.Equal(word.Word(0), *m.ip.A(1))
	assert.Equal(word.Word(2), *m.ip.A(2))

	history := map[int]word.Word{}
	for n, from := range m.ip.JumpHistory.All() {
		history[n] = from
	}
	require.Len(t, history, 1)
	assert.Equal(uint64(testCodeLower+1), history[0].H2())
}

func TestProcessor_PartialAdds(t *testing.T) {
	assert := assert.New(t)

	table := []struct {
		name   string
		code   word.Instruction
		a      word.Word
		data   word.Word
		result word.Word
	}{
		{"AH", ext(072, 004, 0, 0, 0, testDataBR, testDataLower), 0_000003_000004, 0_000001_000002, 0_000004_000006},
		{"ANH", ext(072, 005, 0, 0, 0, testDataBR, testDataLower), 0_000003_000004, 0_000001_000002, 0_000002_000002},
		{"AT", ext(072, 006, 0, 0, 0, testDataBR, testDataLower), 0_0004_0005_0006, 0_0001_0002_0003, 0_0005_0007_0011},
		{"ANT", ext(072, 007, 0, 0, 0, testDataBR, testDataLower), 0_0004_0005_0006, 0_0001_0002_0003, 0_0003_0003_0003},
	}

	for _, entry := range table {
		m := newMachine(t, entry.code, halt)
		m.data[0] = entry.data

		m.run(func(state *InitialState) {
			state.GRS[A0] = entry.a
		})
		assert.Equal(entry.result, *m.ip.A(0), entry.name)
	}

	m := newMachine(t,
		ext(075, 013, 1, 0, 0, testDataBR, testDataLower), // LXLM X1,data[0]
		halt,
	)
	m.data[0] = 0_123456_765432

	m.run(func(state *InitialState) {
		state.GRS[X0+1] = word.Word(0_0007_00000000)
	})
	assert.Equal(uint64(0_56765432), m.ip.X(1).XM24())
	assert.Equal(uint64(07), m.ip.X(1).XI12())
}

func TestProcessor_DivideCheck(t *testing.T) {
	assert := assert.New(t)

	table := []struct {
		name      string
		dr        DesignatorRegister
		reason    StopReason
		detail    uint64
		quotient  word.Word
		remainder word.Word
	}{
		{"flag", 0, STOP_DEBUG, 0, 0, 0},
		{"interrupt", DB_ARITHMETIC_EXCEPTION, STOP_DEBUG, STOP_DETAIL_INTERRUPT | uint64(interrupt.ARITHMETIC_EXCEPTION), 5, 7},
	}

	for _, entry := range table {
		m := newMachine(t,
			immediate(034, 0, 0), // DI,U A0,0
			halt,
		)

		reason, detail := m.run(func(state *InitialState) {
			state.DR = entry.dr
			state.GRS[A0] = 5
			state.GRS[A0+1] = 7
		})
		assert.Equal(entry.reason, reason, entry.name)
		assert.Equal(entry.detail, detail, entry.name)
		assert.Equal(entry.quotient, m.ip.GRS[A0], entry.name)
		assert.Equal(entry.remainder, m.ip.GRS[A0+1], entry.name)
	}
}

func TestProcessor_Privilege(t *testing.T) {
	assert := assert.New(t)

	for pp := range uint64(4) {
		m := newMachine(t,
			ext(073, 015, 014, 0, 0, testDataBR, testDataLower), // LD data[0]
			halt,
		)
		m.data[0] = 0

		reason, detail := m.run(func(state *InitialState) {
			state.DR.SetPrivilege(pp)
		})
		assert.Equal(STOP_DEBUG, reason)
		if pp == 0 {
			assert.Equal(uint64(0), detail)
			assert.Equal(DesignatorRegister(0), m.ip.DR)
			continue
		}
		assert.Equal(STOP_DETAIL_INTERRUPT|uint64(interrupt.INVALID_INSTRUCTION), detail)
		mi := m.ip.LastInterrupt()
		require.NotNil(t, mi)
		assert.ErrorIs(mi, interrupt.INVALID_PROCESSOR_PRIVILEGE)
	}
}

func TestProcessor_UndefinedFunction(t *testing.T) {
	assert := assert.New(t)

	m := newMachine(t,
		ext(0, 0, 0, 0, 0, 0, 0),
		halt,
	)

	_, detail := m.run()
	assert.Equal(STOP_DETAIL_INTERRUPT|uint64(interrupt.INVALID_INSTRUCTION), detail)
	assert.ErrorIs(m.lastInterrupt(), interrupt.UNDEFINED_FUNCTION_CODE)
}

func TestProcessor_StorageLimits(t *testing.T) {
	assert := assert.New(t)

	m := newMachine(t,
		ext(010, J_W, 0, 0, 0, testDataBR, testDataLower+01000), // LA A0,data[01000]
		halt,
	)

	_, detail := m.run()
	assert.Equal(STOP_DETAIL_INTERRUPT|uint64(interrupt.REFERENCE_VIOLATION), detail)
	assert.ErrorIs(m.lastInterrupt(), interrupt.STORAGE_LIMITS)
}

func TestProcessor_VoidBaseRegister(t *testing.T) {
	assert := assert.New(t)

	m := newMachine(t,
		ext(010, J_W, 0, 0, 0, 5, testDataLower), // LA A0,B5[01000]
		halt,
	)

	_, detail := m.run()
	assert.Equal(STOP_DETAIL_INTERRUPT|uint64(interrupt.REFERENCE_VIOLATION), detail)
	assert.ErrorIs(m.lastInterrupt(), interrupt.BASE_REGISTER_INVALID)
}

func TestProcessor_WriteProtect(t *testing.T) {
	assert := assert.New(t)

	m := newMachine(t,
		ext(001, J_W, 0, 0, 0, testDataBR, testDataLower), // SA A0,data[0]
		halt,
	)
	read := bank.Permissions{Read: true}
	m.descriptor(testDataBDI).SetAccess(read, read, bank.AccessInfo{})

	_, detail := m.run()
	assert.Equal(STOP_DETAIL_INTERRUPT|uint64(interrupt.REFERENCE_VIOLATION), detail)
	assert.ErrorIs(m.lastInterrupt(), interrupt.WRITE_ACCESS)
}

func TestProcessor_GRS(t *testing.T) {
	assert := assert.New(t)

	table := []struct {
		name   string
		pp     uint64
		rel    uint64
		access uint64 // f of the instruction.
		fault  bool
	}{
		{"read X1", 3, X0 + 1, 010, false},
		{"read R5", 3, R0 + 5, 010, false},
		{"read ER0", 3, ER0, 010, true},
		{"read ER0 pp2", 2, ER0, 010, false},
		{"write ER0 pp2", 2, ER0, 001, true},
		{"write ER0 pp0", 0, ER0, 001, false},
		{"read reserved", 0, 040, 010, true},
	}

	for _, entry := range table {
		m := newMachine(t,
			ext(entry.access, J_W, 4, 0, 0, 0, entry.rel),
			halt,
		)

		_, detail := m.run(func(state *InitialState) {
			state.DR.SetPrivilege(entry.pp)
			state.GRS[entry.rel] = 0123
		})
		if entry.fault {
			assert.Equal(STOP_DETAIL_INTERRUPT|uint64(interrupt.REFERENCE_VIOLATION), detail, entry.name)
			assert.ErrorIs(m.lastInterrupt(), interrupt.GRS_VIOLATION, entry.name)
			continue
		}
		assert.NotErrorIs(m.lastInterrupt(), interrupt.GRS_VIOLATION, entry.name)
		if entry.pp == 0 {
			assert.Equal(uint64(0), detail, entry.name)
		}
	}
}

func TestProcessor_Development(t *testing.T) {
	assert := assert.New(t)

	m := newMachine(t,
		immediate(034, 0, 0), // DI,U A0,0
		halt,
	)
	m.ip.Development = true

	reason, detail := m.run()
	assert.Equal(STOP_DEBUG, reason)
	assert.Equal(STOP_DETAIL_INTERRUPT|uint64(interrupt.ARITHMETIC_EXCEPTION), detail)
	assert.Equal(uint64(testCodeLower+1), m.ip.PAR.PC())
	assert.Equal(uint64(testCodeBDI), m.ip.PAR.LBDI())
}

func TestProcessor_InterruptFrame(t *testing.T) {
	assert := assert.New(t)

	m := newMachine(t,
		ext(073, 015, 017, 0, 0, testDataBR, testDataLower), // SGNL data[0]
		halt,
	)
	m.data[0] = 042
	key := bank.AccessInfo{Ring: 2, Domain: 5}

	_, detail := m.run(func(state *InitialState) {
		state.Key = key
	})
	assert.Equal(STOP_DETAIL_INTERRUPT|uint64(interrupt.SIGNAL), detail)

	rcs := m.ip.rcs()
	frame, err := rcs.Peek(RCS_FRAME_WORDS)
	require.NoError(t, err)
	par := ProgramAddressRegister(frame[0])
	assert.Equal(uint64(testCodeBDI), par.LBDI())
	assert.Equal(uint64(testCodeLower+1), par.PC())
	assert.Equal(DB_ARITHMETIC_EXCEPTION.Word(), frame[1])
	assert.Equal(key.Value(), frame[2].H2())
	assert.Equal(bank.AccessInfo{}, m.ip.IKR.AccessKey())

	assert.Equal(uint64(interrupt.SIGNAL), m.ip.IKR.InterruptClass())
	assert.Equal(uint64(042), m.ip.IKR.ShortStatus())
	assert.True(m.ip.DR.Has(DB_EXEC_REGISTER_SET))
	assert.Equal(uint64(testHandlerBDI), m.ip.PAR.LBDI())
}

func TestProcessor_RCSMissing(t *testing.T) {
	assert := assert.New(t)

	m := newMachine(t,
		ext(073, 015, 017, 0, 0, testDataBR, testDataLower), // SGNL data[0]
		halt,
	)

	reason, detail := m.run(func(state *InitialState) {
		delete(state.BaseRegisters, bank.BR_RCS)
	})
	assert.Equal(STOP_RCS_BASE_REGISTER_INVALID, reason)
	assert.Equal(uint64(interrupt.SIGNAL), detail)
}

func TestProcessor_RCSOverflow(t *testing.T) {
	assert := assert.New(t)

	m := newMachine(t,
		ext(073, 015, 017, 0, 0, testDataBR, testDataLower), // SGNL data[0]
		halt,
	)

	reason, _ := m.run(func(state *InitialState) {
		state.GRS[EX0] = 1
	})
	assert.Equal(STOP_RCS_OVERFLOW, reason)
}

func TestProcessor_LocalCall(t *testing.T) {
	assert := assert.New(t)

	m := newMachine(t,
		ext(007, 016, 000, 0, 0, 0, 0).WithU(testCodeLower+3), // LOCL sub
		immediate(010, 1, 1),                                  // LA,U A1,1
		halt,
		immediate(010, 2, 2),           // sub: LA,U A2,2
		ext(073, 017, 003, 0, 0, 0, 0), // RTN
	)

	reason, detail := m.run()
	assert.Equal(STOP_DEBUG, reason)
	assert.Equal(uint64(0), detail)
	assert.Equal(word.Word(1), *m.ip.A(1))
	assert.Equal(word.Word(2), *m.ip.A(2))
	assert.True(m.ip.rcs().Empty())
}

func TestProcessor_Call(t *testing.T) {
	assert := assert.New(t)

	target := bank.FromLBDI(testSpareBDI, 0).Word()
	m := newMachine(t,
		ext(007, 016, 013, 0, 0, testDataBR, testDataLower), // CALL data[0]
		immediate(010, 1, 1),                                // LA,U A1,1
		halt,
	)
	m.data[0] = target
	callee := m.addBank(testSpareBDI, bank.EXTENDED_MODE, 0, 2, testAll)
	callee[0] = immediate(010, 2, 2).Word()           // LA,U A2,2
	callee[1] = ext(073, 017, 003, 0, 0, 0, 0).Word() // RTN

	reason, detail := m.run()
	assert.Equal(STOP_DEBUG, reason)
	assert.Equal(uint64(0), detail)
	assert.Equal(word.Word(1), *m.ip.A(1))
	assert.Equal(word.Word(2), *m.ip.A(2))
	assert.Equal(uint64(testCodeBDI), m.ip.PAR.LBDI())
	assert.True(m.ip.rcs().Empty())
}

func TestProcessor_CallGate(t *testing.T) {
	assert := assert.New(t)

	const gateBDI = testSpareBDI + 1

	m := newMachine(t,
		ext(007, 016, 013, 0, 0, testDataBR, testDataLower), // CALL data[0]
		halt,
	)
	m.data[0] = bank.FromLBDI(gateBDI, 010).Word()

	callee := m.addBank(testSpareBDI, bank.EXTENDED_MODE, 0, 1, testAll)
	callee[0] = ext(073, 017, 003, 0, 0, 0, 0).Word() // RTN

	gates := m.addBank(gateBDI, bank.GATE, 0, 2*bank.GATE_WORDS, testAll)
	gate := bank.Gate(gates[bank.GATE_WORDS:])
	gate.SetGate(testAll, testAll, bank.AccessInfo{}, bank.FromLBDI(testSpareBDI, 0), bank.GateOptions{DBInhibit: true, KeyInhibit: true})
	gate[5] = 0111
	gate[6] = 0222

	reason, detail := m.run()
	assert.Equal(STOP_DEBUG, reason)
	assert.Equal(uint64(0), detail)
	assert.Equal(word.Word(0111), m.ip.GRS[R0])
	assert.Equal(word.Word(0222), m.ip.GRS[R0+1])
}

func TestProcessor_CallGateKey(t *testing.T) {
	assert := assert.New(t)

	const gateBDI = testSpareBDI + 1

	m := newMachine(t,
		ext(007, 016, 013, 0, 0, testDataBR, testDataLower), // CALL data[0]
		halt,
	)
	m.data[0] = bank.FromLBDI(gateBDI, 0).Word()

	callee := m.addBank(testSpareBDI, bank.EXTENDED_MODE, 0, 1, testAll)
	callee[0] = ext(073, 017, 003, 0, 0, 0, 0).Word() // RTN

	gates := m.addBank(gateBDI, bank.GATE, 0, bank.GATE_WORDS, testAll)
	gate := bank.Gate(gates)
	gate.SetGate(testAll, testAll, bank.AccessInfo{}, bank.FromLBDI(testSpareBDI, 0), bank.GateOptions{DBInhibit: true})
	gate[4] = word.New(bank.AccessInfo{Ring: 0, Domain: 3}.Value())

	caller := bank.AccessInfo{Ring: 2, Domain: 5}
	reason, detail := m.run(func(state *InitialState) {
		state.Key = caller
	})
	assert.Equal(STOP_DEBUG, reason)
	assert.Equal(uint64(0), detail)
	assert.Equal(caller, m.ip.IKR.AccessKey())
	assert.Equal(caller.Value(), m.ip.X(0).Word().H2())
	assert.True(m.ip.rcs().Empty())
}

func TestProcessor_CallDenied(t *testing.T) {
	assert := assert.New(t)

	m := newMachine(t,
		ext(007, 016, 013, 0, 0, testDataBR, testDataLower), // CALL data[0]
		halt,
	)
	m.data[0] = bank.FromLBDI(testSpareBDI, 0).Word()
	m.addBank(testSpareBDI, bank.EXTENDED_MODE, 0, 1, bank.Permissions{Read: true})

	_, detail := m.run()
	assert.Equal(STOP_DETAIL_INTERRUPT|uint64(interrupt.ADDRESSING_EXCEPTION), detail)
	assert.ErrorIs(m.lastInterrupt(), interrupt.ENTER_ACCESS_DENIED)
	assert.False(m.ip.rcs().Empty())
}

func TestProcessor_BuySell(t *testing.T) {
	assert := assert.New(t)

	table := []struct {
		name  string
		code  word.Instruction
		xm    uint64
		fault bool
	}{
		{"buy", ext(073, 014, 002, 3, 0, testDataBR, 0), 01400 - 020, false},
		{"buy extra", ext(073, 014, 002, 3, 0, testDataBR, 010), 01400 - 030, false},
		{"sell", ext(073, 014, 003, 3, 0, testDataBR, 0), 01400 + 020, false},
		{"buy overflow", ext(073, 014, 002, 3, 0, testDataBR, 01000), 01400, true},
		{"sell underflow", ext(073, 014, 003, 3, 0, testDataBR, 01000), 01400, true},
	}

	for _, entry := range table {
		m := newMachine(t, entry.code, halt)

		_, detail := m.run(func(state *InitialState) {
			state.GRS[X0+3] = word.FromHalves(020, 01400)
		})
		assert.Equal(entry.xm, IndexRegister(m.ip.GRS[X0+3]).XM(), entry.name)
		if entry.fault {
			assert.Equal(STOP_DETAIL_INTERRUPT|uint64(interrupt.RCS_GENERIC_STACK_UNDERFLOW_OVERFLOW), detail, entry.name)
			continue
		}
		assert.Equal(uint64(0), detail, entry.name)
	}
}

func TestProcessor_BaseRegisterOps(t *testing.T) {
	assert := assert.New(t)

	m := newMachine(t,
		ext(075, 000, 5, 0, 0, testDataBR, testDataLower),   // LBU B5,data[0]
		ext(010, J_W, 0, 0, 0, 5, 0),                        // LA A0,B5[0]
		ext(075, 002, 5, 0, 0, testDataBR, testDataLower+1), // SBU B5,data[1]
		ext(075, 006, 5, 0, 0, testDataBR, testDataLower+2), // SBUD B5,data[2..5]
		halt,
	)
	m.data[0] = bank.FromLBDI(testDataBDI, testDataLower+010).Word()
	m.data[010] = 0777

	reason, detail := m.run()
	assert.Equal(STOP_DEBUG, reason)
	assert.Equal(uint64(0), detail)
	assert.Equal(word.Word(0777), *m.ip.A(0))
	assert.Equal(bank.FromLBDI(testDataBDI, testDataLower+010).Word(), m.data[1])

	image := m.data[2:6]
	decoded := bank.DecodeBaseRegister(image)
	assert.True(decoded.Equal(&m.ip.BR[5]))
}

func TestProcessor_LoadQueueBank(t *testing.T) {
	assert := assert.New(t)

	const indirectBDI = testSpareBDI + 1

	table := []struct {
		name     string
		kind     bank.Type
		indirect bool
	}{
		{"queue", bank.QUEUE, false},
		{"queue repository", bank.QUEUE_REPOSITORY, false},
		{"indirect queue", bank.QUEUE, true},
		{"indirect queue repository", bank.QUEUE_REPOSITORY, true},
	}

	for _, entry := range table {
		m := newMachine(t,
			ext(075, 000, 5, 0, 0, testDataBR, testDataLower), // LBU B5,data[0]
			halt,
		)
		m.addBank(testSpareBDI, entry.kind, 0, 010, testAll)
		m.data[0] = bank.FromLBDI(testSpareBDI, 0).Word()
		if entry.indirect {
			bd := m.descriptor(indirectBDI)
			bd.SetType(bank.INDIRECT)
			bd.SetTarget(testSpareBDI)
			m.data[0] = bank.FromLBDI(indirectBDI, 0).Word()
		}

		_, detail := m.run()
		assert.Equal(STOP_DETAIL_INTERRUPT|uint64(interrupt.ADDRESSING_EXCEPTION), detail, entry.name)
		assert.ErrorIs(m.lastInterrupt(), interrupt.INVALID_BANK_TYPE, entry.name)
		assert.True(m.ip.BR[5].Void, entry.name)
	}
}

func TestProcessor_LoadAllBanks(t *testing.T) {
	assert := assert.New(t)

	m := newMachine(t,
		ext(073, 015, 012, 0, 0, testDataBR, testDataLower), // LAE data[0..14]
		halt,
	)
	m.addBank(testSpareBDI, bank.QUEUE, 0, 010, testAll)
	m.data[0] = bank.FromLBDI(testDataBDI, testDataLower).Word()
	m.data[4] = bank.FromLBDI(testSpareBDI, 0).Word()

	_, detail := m.run()
	assert.Equal(STOP_DETAIL_INTERRUPT|uint64(interrupt.ADDRESSING_EXCEPTION), detail)
	assert.ErrorIs(m.lastInterrupt(), interrupt.INVALID_BANK_TYPE)
	assert.True(m.ip.BR[1].Void)
	assert.False(m.ip.BR[testDataBR].Void)
	assert.Equal(ActiveBaseEntry{Level: 0, BDI: testDataBDI}, m.ip.ABT[testDataBR])

	m = newMachine(t,
		ext(073, 015, 012, 0, 0, testDataBR, testDataLower), // LAE data[0..14]
		ext(010, J_W, 0, 0, 0, 1, 020),                      // LA A0,B1[020]
		halt,
	)
	m.data[0] = bank.FromLBDI(testDataBDI, testDataLower).Word()
	m.data[020] = 0555

	reason, detail := m.run()
	assert.Equal(STOP_DEBUG, reason)
	assert.Equal(uint64(0), detail)
	assert.Equal(word.Word(0555), *m.ip.A(0))
	assert.True(m.ip.BR[testDataBR].Void)
}

func TestProcessor_TVA(t *testing.T) {
	assert := assert.New(t)

	read := word.Word(0_000200_000000)
	write := word.Word(0_000100_000000)

	table := []struct {
		name    string
		va      bank.VirtualAddress
		options word.Word
		skip    bool
	}{
		{"read", bank.FromLBDI(testDataBDI, testDataLower), read, true},
		{"write", bank.FromLBDI(testDataBDI, testDataLower), write, true},
		{"limits", bank.FromLBDI(testDataBDI, 0), read, false},
		{"void", bank.FromLBDI(0, 0), read, false},
		{"protected", bank.FromLBDI(testSpareBDI, 0), write, false},
	}

	for _, entry := range table {
		m := newMachine(t,
			ext(075, 010, 6, 0, 0, 0, 0), // TVA X6
			immediate(010, 1, 1),         // LA,U A1,1
			halt,
		)
		m.addBank(testSpareBDI, bank.EXTENDED_MODE, 0, 1, bank.Permissions{Read: true})

		m.run(func(state *InitialState) {
			state.GRS[X0+6] = entry.va.Word()
			state.GRS[X0+7] = entry.options
		})
		assert.Equal(entry.skip, m.ip.GRS[A0+1] == 0, entry.name)
	}
}

func TestProcessor_Context(t *testing.T) {
	assert := assert.New(t)

	m := newMachine(t,
		ext(073, 015, 004, 0, 0, testDataBR, testDataLower), // DCEL data[0]
		immediate(010, 0, 0),                                // LA,U A0,0
		ext(073, 015, 003, 0, 0, testDataBR, testDataLower), // ACEL data[0]
		halt,
	)

	m.run(func(state *InitialState) {
		state.GRS[A0] = 0123
		state.GRS[R0+017] = 0456
	})
	assert.Equal(word.Word(0123), *m.ip.A(0))
	assert.Equal(word.Word(0123), m.data[A0])
	assert.Equal(word.Word(0456), m.data[grs_user_count+017])
}

func TestProcessor_Run_Context(t *testing.T) {
	assert := assert.New(t)

	m := newMachine(t,
		ext(074, 015, 004, 0, 0, 0, 0).WithU(testCodeLower), // J loop
	)
	m.start()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(m.ip.Run(ctx, 0), context.Canceled)
	assert.True(m.ip.Running())

	assert.NoError(m.ip.Run(context.Background(), 100))
	assert.True(m.ip.Running())
	assert.Equal(100, m.ip.Ticks)

	m.ip.Stop()
	reason, _ := m.ip.StopReason()
	assert.Equal(STOP_PANEL_HALT, reason)
}

func TestProcessor_PostInterrupt(t *testing.T) {
	assert := assert.New(t)

	m := newMachine(t,
		ext(074, 015, 004, 0, 0, 0, 0).WithU(testCodeLower), // J loop
	)
	m.start()
	m.ip.PostInterrupt(interrupt.NewDayclock())
	m.ip.PostInterrupt(interrupt.NewBreakpoint(0))

	require.NoError(t, m.ip.Tick())
	assert.Equal(interrupt.BREAKPOINT, m.ip.LastInterrupt().Class)
	assert.Equal(1, m.ip.Pending())
}
