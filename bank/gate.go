package bank

import (
	"github.com/ezrec/em2200/word"
)

// GATE_WORDS is the size of one gate within a gate bank.
const GATE_WORDS = 8

const (
	gate_goto_inhibit = word.Word(0_004000_000000)
	gate_db_inhibit   = word.Word(0_002000_000000)
	gate_key_inhibit  = word.Word(0_001000_000000)
	gate_lp0_inhibit  = word.Word(0_000400_000000)
	gate_lp1_inhibit  = word.Word(0_000200_000000)

	// GATE_DESIGNATOR_MASK selects the designator bits a gate may load.
	GATE_DESIGNATOR_MASK = word.Word(0_000075_000000)
)

// Gate is a view over one gate of a gate bank.
//
//	word 0: GAP (bits 0-2), SAP (bits 3-5), inhibits (bits 6-10), lock (H2)
//	word 1: target L,BDI (H1) and offset (H2)
//	word 2: basic mode base register (bits 0-1)
//	word 3: designator bits 12-17 image
//	word 4: access key (H2)
//	word 5: latent parameter 0
//	word 6: latent parameter 1
type Gate []word.Word

func (g Gate) GAP() Permissions  { return NewPermissions(uint64(g[0]>>33) & 07) }
func (g Gate) SAP() Permissions  { return NewPermissions(uint64(g[0]>>30) & 07) }
func (g Gate) Lock() AccessInfo  { return NewAccessInfo(g[0].H2()) }
func (g Gate) GotoInhibit() bool { return g[0]&gate_goto_inhibit != 0 }
func (g Gate) DBInhibit() bool   { return g[0]&gate_db_inhibit != 0 }
func (g Gate) KeyInhibit() bool  { return g[0]&gate_key_inhibit != 0 }
func (g Gate) LP0Inhibit() bool  { return g[0]&gate_lp0_inhibit != 0 }
func (g Gate) LP1Inhibit() bool  { return g[0]&gate_lp1_inhibit != 0 }

// Target is where a transfer through the gate lands.
func (g Gate) Target() VirtualAddress { return NewVirtualAddress(g[1]) }

// BasicRegister is the basic mode base register (0..3, offset from B12)
// loaded for a transfer to a basic mode bank.
func (g Gate) BasicRegister() uint64 { return uint64(g[2]>>34) & 03 }

// Designator is the designator image loaded unless inhibited.
func (g Gate) Designator() word.Word { return g[3] & GATE_DESIGNATOR_MASK }

func (g Gate) AccessKey() AccessInfo       { return NewAccessInfo(g[4].H2()) }
func (g Gate) LatentParameter0() word.Word { return g[5] }
func (g Gate) LatentParameter1() word.Word { return g[6] }

// GateOptions are the inhibit bits of a gate.
type GateOptions struct {
	GotoInhibit bool
	DBInhibit   bool
	KeyInhibit  bool
	LP0Inhibit  bool
	LP1Inhibit  bool
}

// SetGate fills in a gate.
func (g Gate) SetGate(gap, sap Permissions, lock AccessInfo, target VirtualAddress, options GateOptions) {
	w := word.Word(gap.Bits())<<33 | word.Word(sap.Bits())<<30
	for _, bit := range []struct {
		on   bool
		mask word.Word
	}{
		{options.GotoInhibit, gate_goto_inhibit},
		{options.DBInhibit, gate_db_inhibit},
		{options.KeyInhibit, gate_key_inhibit},
		{options.LP0Inhibit, gate_lp0_inhibit},
		{options.LP1Inhibit, gate_lp1_inhibit},
	} {
		if bit.on {
			w |= bit.mask
		}
	}
	g[0] = w.SetH2(lock.Value())
	g[1] = target.Word()
}
