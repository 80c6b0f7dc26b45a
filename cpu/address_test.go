package cpu

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ezrec/em2200/bank"
	"github.com/ezrec/em2200/word"
)

func TestProcessor_IndexWidth(t *testing.T) {
	assert := assert.New(t)

	table := []struct {
		name  string
		wide  bool
		index word.Word
	}{
		{"18-bit", false, word.FromHalves(1, 010)},
		{"24-bit", true, word.Word(1<<24 | 010)},
	}

	for _, entry := range table {
		m := newMachine(t,
			ext(010, J_W, 0, 1, 1, testDataBR, testDataLower), // LA A0,data[X1],*X1
			ext(010, J_W, 1, 1, 0, testDataBR, testDataLower), // LA A1,data[X1]
			halt,
		)
		m.data[010] = 0777
		m.data[011] = 0666

		reason, detail := m.run(func(state *InitialState) {
			state.DR.Set(DB_EXEC_24BIT_INDEXING, entry.wide)
			state.GRS[X0+1] = entry.index
		})
		assert.Equal(STOP_DEBUG, reason, entry.name)
		assert.Equal(uint64(0), detail, entry.name)
		assert.Equal(word.Word(0777), *m.ip.A(0), entry.name)
		assert.Equal(word.Word(0666), *m.ip.A(1), entry.name)

		xr := m.ip.X(1)
		if entry.wide {
			assert.Equal(uint64(011), xr.XM24(), entry.name)
			assert.Equal(uint64(1), xr.XI12(), entry.name)
		} else {
			assert.Equal(uint64(011), xr.XM(), entry.name)
			assert.Equal(uint64(1), xr.XI(), entry.name)
		}
	}
}

// basicLower is the lower limit of the basic mode data bank.
const basicLower = 02000

// indirection is a basic mode indirect address word.
func indirection(x, i, u uint64) word.Word {
	return word.Basic(0, 0, 0, x, 0, i, u).Word()
}

func TestProcessor_BasicIndirect(t *testing.T) {
	assert := assert.New(t)

	table := []struct {
		name  string
		u     uint64
		data  map[uint64]word.Word // By address.
		grs   map[uint64]word.Word
		value word.Word
		ticks int
	}{
		{
			name:  "one level",
			u:     basicLower,
			data:  map[uint64]word.Word{basicLower: indirection(0, 0, basicLower+5), basicLower + 5: 0543},
			value: 0543,
			ticks: 3,
		},
		{
			name: "chain",
			u:    basicLower,
			data: map[uint64]word.Word{
				basicLower: indirection(0, 1, basicLower+1),
				basicLower + 1: indirection(0, 0, basicLower+5),
				basicLower + 5: 0543,
			},
			value: 0543,
			ticks: 4,
		},
		{
			name: "indexed",
			u:    basicLower,
			data: map[uint64]word.Word{
				basicLower: indirection(1, 0, basicLower+5),
				basicLower + 7: 0654,
			},
			grs:   map[uint64]word.Word{X0 + 1: word.FromHalves(0, 2)},
			value: 0654,
			ticks: 3,
		},
		{
			name:  "through GRS",
			u:     R0,
			data:  map[uint64]word.Word{basicLower + 5: 0543},
			grs:   map[uint64]word.Word{R0: indirection(0, 0, basicLower+5)},
			value: 0543,
			ticks: 3,
		},
	}

	for _, entry := range table {
		m := newMachine(t,
			word.Basic(010, J_W, 0, 0, 0, 1, entry.u), // LA A0,*u
			word.Basic(077, 017, 017, 0, 0, 0, 0),     // HALT 0
		)
		words := m.addBank(testSpareBDI, bank.BASIC_MODE, basicLower, 010, testAll)
		for addr, value := range entry.data {
			words[addr-basicLower] = value
		}

		reason, detail := m.run(func(state *InitialState) {
			state.DR.Set(DB_BASIC_MODE, true)
			state.BaseRegisters[bank.BR_BASIC_LO] = m.baseRegister(testCodeBDI)
			state.BaseRegisters[bank.BR_BASIC_LO+1] = m.baseRegister(testSpareBDI)
			for index, value := range entry.grs {
				state.GRS[index] = value
			}
		})
		assert.Equal(STOP_DEBUG, reason, entry.name)
		assert.Equal(uint64(0), detail, entry.name)
		assert.Equal(entry.value, *m.ip.A(0), entry.name)
		assert.Equal(entry.ticks, m.ip.Ticks, entry.name)
	}
}
