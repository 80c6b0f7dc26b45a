package cpu

import (
	"fmt"
	"iter"

	"github.com/ezrec/em2200/word"
)

// Mode is the set of addressing modes an opcode is defined in.
type Mode int

const (
	MODE_EXTENDED = Mode(1 << iota)
	MODE_BASIC
	MODE_BOTH = MODE_EXTENDED | MODE_BASIC
)

// ANY marks a j or a field the opcode does not decode on.
const ANY = -1

// Opcode describes one instruction of the function table.
type Opcode struct {
	Name       string
	Mode       Mode
	F          uint64
	J          int  // ANY when j is a partial word designator.
	A          int  // ANY when a names a register.
	Privileged bool // Requires processor privilege 0.

	exec func(*Processor, word.Instruction) error
}

func (op *Opcode) String() string {
	return op.Name
}

type proc = Processor

var _opcodes = []Opcode{
	{"SA", MODE_BOTH, 001, ANY, ANY, false, (*proc).opSA},
	{"SNA", MODE_BOTH, 002, ANY, ANY, false, (*proc).opSNA},
	{"SMA", MODE_BOTH, 003, ANY, ANY, false, (*proc).opSMA},
	{"SR", MODE_BOTH, 004, ANY, ANY, false, (*proc).opSR},
	{"SZ", MODE_BOTH, 005, ANY, 000, false, (*proc).opSZ},
	{"SNZ", MODE_BOTH, 005, ANY, 001, false, (*proc).opSNZ},
	{"SP1", MODE_BOTH, 005, ANY, 002, false, (*proc).opSP1},
	{"SN1", MODE_BOTH, 005, ANY, 003, false, (*proc).opSN1},
	{"SFS", MODE_BOTH, 005, ANY, 004, false, (*proc).opSFS},
	{"SFZ", MODE_BOTH, 005, ANY, 005, false, (*proc).opSFZ},
	{"SAS", MODE_BOTH, 005, ANY, 006, false, (*proc).opSAS},
	{"SAZ", MODE_BOTH, 005, ANY, 007, false, (*proc).opSAZ},
	{"INC", MODE_BOTH, 005, ANY, 010, false, (*proc).opINC},
	{"DEC", MODE_BOTH, 005, ANY, 011, false, (*proc).opDEC},
	{"INC2", MODE_BOTH, 005, ANY, 012, false, (*proc).opINC2},
	{"DEC2", MODE_BOTH, 005, ANY, 013, false, (*proc).opDEC2},
	{"ENZ", MODE_BOTH, 005, ANY, 014, false, (*proc).opENZ},
	{"ADD1", MODE_BOTH, 005, ANY, 015, false, (*proc).opADD1},
	{"SUB1", MODE_BOTH, 005, ANY, 016, false, (*proc).opSUB1},
	{"SX", MODE_BOTH, 006, ANY, ANY, false, (*proc).opSX},
	{"LAQW", MODE_EXTENDED, 007, 004, ANY, false, (*proc).opLAQW},
	{"SAQW", MODE_EXTENDED, 007, 005, ANY, false, (*proc).opSAQW},
	{"LOCL", MODE_EXTENDED, 007, 016, 000, false, (*proc).opLOCL},
	{"CALL", MODE_EXTENDED, 007, 016, 013, false, (*proc).opCALL},
	{"GOTO", MODE_EXTENDED, 007, 017, 000, false, (*proc).opGOTO},
	{"LA", MODE_BOTH, 010, ANY, ANY, false, (*proc).opLA},
	{"LNA", MODE_BOTH, 011, ANY, ANY, false, (*proc).opLNA},
	{"LMA", MODE_BOTH, 012, ANY, ANY, false, (*proc).opLMA},
	{"LNMA", MODE_BOTH, 013, ANY, ANY, false, (*proc).opLNMA},
	{"AA", MODE_BOTH, 014, ANY, ANY, false, (*proc).opAA},
	{"ANA", MODE_BOTH, 015, ANY, ANY, false, (*proc).opANA},
	{"AMA", MODE_BOTH, 016, ANY, ANY, false, (*proc).opAMA},
	{"ANMA", MODE_BOTH, 017, ANY, ANY, false, (*proc).opANMA},
	{"AU", MODE_BOTH, 020, ANY, ANY, false, (*proc).opAU},
	{"ANU", MODE_BOTH, 021, ANY, ANY, false, (*proc).opANU},
	{"LR", MODE_BOTH, 023, ANY, ANY, false, (*proc).opLR},
	{"AX", MODE_BOTH, 024, ANY, ANY, false, (*proc).opAX},
	{"ANX", MODE_BOTH, 025, ANY, ANY, false, (*proc).opANX},
	{"LXM", MODE_BOTH, 026, ANY, ANY, false, (*proc).opLXM},
	{"LX", MODE_BOTH, 027, ANY, ANY, false, (*proc).opLX},
	{"MI", MODE_BOTH, 030, ANY, ANY, false, (*proc).opMI},
	{"MSI", MODE_BOTH, 031, ANY, ANY, false, (*proc).opMSI},
	{"MF", MODE_BOTH, 032, ANY, ANY, false, (*proc).opMF},
	{"DI", MODE_BOTH, 034, ANY, ANY, false, (*proc).opDI},
	{"DSF", MODE_BOTH, 035, ANY, ANY, false, (*proc).opDSF},
	{"DF", MODE_BOTH, 036, ANY, ANY, false, (*proc).opDF},
	{"OR", MODE_BOTH, 040, ANY, ANY, false, (*proc).opOR},
	{"XOR", MODE_BOTH, 041, ANY, ANY, false, (*proc).opXOR},
	{"AND", MODE_BOTH, 042, ANY, ANY, false, (*proc).opAND},
	{"MLU", MODE_BOTH, 043, ANY, ANY, false, (*proc).opMLU},
	{"TEP", MODE_BOTH, 044, ANY, ANY, false, (*proc).opTEP},
	{"TOP", MODE_BOTH, 045, ANY, ANY, false, (*proc).opTOP},
	{"LXI", MODE_BOTH, 046, ANY, ANY, false, (*proc).opLXI},
	{"TLEM", MODE_BOTH, 047, ANY, ANY, false, (*proc).opTLEM},

	{"TNOP", MODE_EXTENDED, 050, ANY, 000, false, (*proc).opTest},
	{"TGZ", MODE_EXTENDED, 050, ANY, 001, false, (*proc).opTest},
	{"TPZ", MODE_EXTENDED, 050, ANY, 002, false, (*proc).opTest},
	{"TP", MODE_EXTENDED, 050, ANY, 003, false, (*proc).opTest},
	{"TMZ", MODE_EXTENDED, 050, ANY, 004, false, (*proc).opTest},
	{"TMZG", MODE_EXTENDED, 050, ANY, 005, false, (*proc).opTest},
	{"TZ", MODE_EXTENDED, 050, ANY, 006, false, (*proc).opTest},
	{"TNLZ", MODE_EXTENDED, 050, ANY, 007, false, (*proc).opTest},
	{"TLZ", MODE_EXTENDED, 050, ANY, 010, false, (*proc).opTest},
	{"TNZ", MODE_EXTENDED, 050, ANY, 011, false, (*proc).opTest},
	{"TPZL", MODE_EXTENDED, 050, ANY, 012, false, (*proc).opTest},
	{"TNMZ", MODE_EXTENDED, 050, ANY, 013, false, (*proc).opTest},
	{"TN", MODE_EXTENDED, 050, ANY, 014, false, (*proc).opTest},
	{"TNPZ", MODE_EXTENDED, 050, ANY, 015, false, (*proc).opTest},
	{"TNGZ", MODE_EXTENDED, 050, ANY, 016, false, (*proc).opTest},
	{"TSKP", MODE_EXTENDED, 050, ANY, 017, false, (*proc).opTest},
	{"TZ", MODE_BASIC, 050, ANY, ANY, false, (*proc).opTZ},
	{"TNZ", MODE_BASIC, 051, ANY, ANY, false, (*proc).opTNZ},
	{"TP", MODE_BASIC, 060, ANY, ANY, false, (*proc).opTP},
	{"TN", MODE_BASIC, 061, ANY, ANY, false, (*proc).opTN},
	{"LXSI", MODE_EXTENDED, 051, ANY, ANY, false, (*proc).opLXSI},

	{"TE", MODE_BOTH, 052, ANY, ANY, false, (*proc).opTE},
	{"TNE", MODE_BOTH, 053, ANY, ANY, false, (*proc).opTNE},
	{"TLE", MODE_BOTH, 054, ANY, ANY, false, (*proc).opTLE},
	{"TG", MODE_BOTH, 055, ANY, ANY, false, (*proc).opTG},
	{"TW", MODE_BOTH, 056, ANY, ANY, false, (*proc).opTW},
	{"TNW", MODE_BOTH, 057, ANY, ANY, false, (*proc).opTNW},
	{"JGD", MODE_BOTH, 070, ANY, ANY, false, (*proc).opJGD},

	{"MTE", MODE_BOTH, 071, 000, ANY, false, (*proc).opMTE},
	{"MTNE", MODE_BOTH, 071, 001, ANY, false, (*proc).opMTNE},
	{"MTLE", MODE_BOTH, 071, 002, ANY, false, (*proc).opMTLE},
	{"MTG", MODE_BOTH, 071, 003, ANY, false, (*proc).opMTG},
	{"MTW", MODE_BOTH, 071, 004, ANY, false, (*proc).opMTW},
	{"MTNW", MODE_BOTH, 071, 005, ANY, false, (*proc).opMTNW},
	{"MATL", MODE_BOTH, 071, 006, ANY, false, (*proc).opMATL},
	{"MATG", MODE_BOTH, 071, 007, ANY, false, (*proc).opMATG},
	{"DA", MODE_BOTH, 071, 010, ANY, false, (*proc).opDA},
	{"DAN", MODE_BOTH, 071, 011, ANY, false, (*proc).opDAN},
	{"DS", MODE_BOTH, 071, 012, ANY, false, (*proc).opDS},
	{"DL", MODE_BOTH, 071, 013, ANY, false, (*proc).opDL},
	{"DLN", MODE_BOTH, 071, 014, ANY, false, (*proc).opDLN},
	{"DLM", MODE_BOTH, 071, 015, ANY, false, (*proc).opDLM},
	{"DJZ", MODE_BOTH, 071, 016, ANY, false, (*proc).opDJZ},
	{"DTE", MODE_BOTH, 071, 017, ANY, false, (*proc).opDTE},

	{"SLJ", MODE_BASIC, 072, 001, ANY, false, (*proc).opSLJ},
	{"JPS", MODE_BOTH, 072, 002, ANY, false, (*proc).opJPS},
	{"JNS", MODE_BOTH, 072, 003, ANY, false, (*proc).opJNS},
	{"AH", MODE_BOTH, 072, 004, ANY, false, (*proc).opAH},
	{"ANH", MODE_BOTH, 072, 005, ANY, false, (*proc).opANH},
	{"AT", MODE_BOTH, 072, 006, ANY, false, (*proc).opAT},
	{"ANT", MODE_BOTH, 072, 007, ANY, false, (*proc).opANT},
	{"SRS", MODE_BOTH, 072, 016, ANY, false, (*proc).opSRS},
	{"LRS", MODE_BOTH, 072, 017, ANY, false, (*proc).opLRS},

	{"SSC", MODE_BOTH, 073, 000, ANY, false, (*proc).opSSC},
	{"DSC", MODE_BOTH, 073, 001, ANY, false, (*proc).opDSC},
	{"SSL", MODE_BOTH, 073, 002, ANY, false, (*proc).opSSL},
	{"DSL", MODE_BOTH, 073, 003, ANY, false, (*proc).opDSL},
	{"SSA", MODE_BOTH, 073, 004, ANY, false, (*proc).opSSA},
	{"DSA", MODE_BOTH, 073, 005, ANY, false, (*proc).opDSA},
	{"LSC", MODE_BOTH, 073, 006, ANY, false, (*proc).opLSC},
	{"DLSC", MODE_BOTH, 073, 007, ANY, false, (*proc).opDLSC},
	{"LSSC", MODE_BOTH, 073, 010, ANY, false, (*proc).opLSSC},
	{"LDSC", MODE_BOTH, 073, 011, ANY, false, (*proc).opLDSC},
	{"LSSL", MODE_BOTH, 073, 012, ANY, false, (*proc).opLSSL},
	{"LDSL", MODE_BOTH, 073, 013, ANY, false, (*proc).opLDSL},
	{"NOP", MODE_BOTH, 073, 014, 000, false, (*proc).opNOP},
	{"BUY", MODE_EXTENDED, 073, 014, 002, false, (*proc).opBUY},
	{"SELL", MODE_EXTENDED, 073, 014, 003, false, (*proc).opSELL},
	{"ACEL", MODE_BOTH, 073, 015, 003, true, (*proc).opACEL},
	{"DCEL", MODE_BOTH, 073, 015, 004, true, (*proc).opDCEL},
	{"SPID", MODE_BOTH, 073, 015, 005, false, (*proc).opSPID},
	{"LAE", MODE_EXTENDED, 073, 015, 012, true, (*proc).opLAE},
	{"LD", MODE_BOTH, 073, 015, 014, true, (*proc).opLD},
	{"SD", MODE_BOTH, 073, 015, 015, false, (*proc).opSD},
	{"SGNL", MODE_BOTH, 073, 015, 017, false, (*proc).opSGNL},
	{"TS", MODE_BOTH, 073, 017, 000, false, (*proc).opTS},
	{"TSS", MODE_BOTH, 073, 017, 001, false, (*proc).opTSS},
	{"TCS", MODE_BOTH, 073, 017, 002, false, (*proc).opTCS},
	{"RTN", MODE_EXTENDED, 073, 017, 003, false, (*proc).opRTN},
	{"LUD", MODE_BOTH, 073, 017, 004, false, (*proc).opLUD},
	{"SUD", MODE_BOTH, 073, 017, 005, false, (*proc).opSUD},
	{"IAR", MODE_BOTH, 073, 017, 006, true, (*proc).opIAR},
	{"SYSC", MODE_EXTENDED, 073, 017, 012, true, (*proc).opSYSC},

	{"JZ", MODE_BOTH, 074, 000, ANY, false, (*proc).opJZ},
	{"JNZ", MODE_BOTH, 074, 001, ANY, false, (*proc).opJNZ},
	{"JP", MODE_BOTH, 074, 002, ANY, false, (*proc).opJP},
	{"JN", MODE_BOTH, 074, 003, ANY, false, (*proc).opJN},
	{"J", MODE_BASIC, 074, 004, ANY, false, (*proc).opJK},
	{"HJ", MODE_BASIC, 074, 005, ANY, false, (*proc).opHJ},
	{"NOP", MODE_BASIC, 074, 006, ANY, false, (*proc).opNOP},
	{"AAIJ", MODE_BASIC, 074, 007, ANY, false, (*proc).opAAIJ},
	{"JNB", MODE_BOTH, 074, 010, ANY, false, (*proc).opJNB},
	{"JB", MODE_BOTH, 074, 011, ANY, false, (*proc).opJB},
	{"JMGI", MODE_BOTH, 074, 012, ANY, false, (*proc).opJMGI},
	{"LMJ", MODE_BOTH, 074, 013, ANY, false, (*proc).opLMJ},
	{"JO", MODE_BOTH, 074, 014, 000, false, (*proc).opJO},
	{"JDF", MODE_BOTH, 074, 014, 003, false, (*proc).opJDF},
	{"JC", MODE_EXTENDED, 074, 014, 004, false, (*proc).opJC},
	{"JNC", MODE_EXTENDED, 074, 014, 005, false, (*proc).opJNC},
	{"AAIJ", MODE_EXTENDED, 074, 014, 006, false, (*proc).opAAIJ},
	{"PAIJ", MODE_BOTH, 074, 014, 007, false, (*proc).opPAIJ},
	{"JNO", MODE_BOTH, 074, 015, 000, false, (*proc).opJNO},
	{"JNDF", MODE_BOTH, 074, 015, 003, false, (*proc).opJNDF},
	{"J", MODE_EXTENDED, 074, 015, 004, false, (*proc).opJ},
	{"HLTJ", MODE_EXTENDED, 074, 015, 005, true, (*proc).opHLTJ},
	{"JC", MODE_BASIC, 074, 016, ANY, false, (*proc).opJC},
	{"JNC", MODE_BASIC, 074, 017, ANY, false, (*proc).opJNC},

	{"LBU", MODE_BOTH, 075, 000, ANY, false, (*proc).opLBU},
	{"SBU", MODE_BOTH, 075, 002, ANY, false, (*proc).opSBU},
	{"LBE", MODE_EXTENDED, 075, 003, ANY, true, (*proc).opLBE},
	{"SBED", MODE_EXTENDED, 075, 004, ANY, true, (*proc).opSBED},
	{"LBED", MODE_EXTENDED, 075, 005, ANY, true, (*proc).opLBED},
	{"SBUD", MODE_EXTENDED, 075, 006, ANY, false, (*proc).opSBUD},
	{"LBUD", MODE_EXTENDED, 075, 007, ANY, true, (*proc).opLBUD},
	{"TVA", MODE_EXTENDED, 075, 010, ANY, false, (*proc).opTVA},
	{"LXLM", MODE_BOTH, 075, 013, ANY, false, (*proc).opLXLM},

	{"HALT", MODE_BOTH, 077, 017, 017, true, (*proc).opHALT},
}

// opcodeTable is indexed by basic mode, f, j and a.
var opcodeTable [2][0100][020][020]*Opcode

func init() {
	for n := range _opcodes {
		op := &_opcodes[n]
		for basic, mode := range []Mode{MODE_EXTENDED, MODE_BASIC} {
			if op.Mode&mode == 0 {
				continue
			}
			for j := range uint64(020) {
				if op.J != ANY && uint64(op.J) != j {
					continue
				}
				for a := range uint64(020) {
					if op.A != ANY && uint64(op.A) != a {
						continue
					}
					opcodeTable[basic][op.F][j][a] = op
				}
			}
		}
	}
}

func lookup(iw word.Instruction, basic bool) *Opcode {
	mode := 0
	if basic {
		mode = 1
	}
	return opcodeTable[mode][iw.F()][iw.J()][iw.A()]
}

// Mnemonic names the instruction in a word.
func Mnemonic(iw word.Instruction, basic bool) string {
	op := lookup(iw, basic)
	if op == nil {
		return fmt.Sprintf("%02o,%02o,%02o?", iw.F(), iw.J(), iw.A())
	}
	return op.Name
}

// Opcodes iterates over the function table.
func Opcodes() iter.Seq[*Opcode] {
	return func(yield func(*Opcode) bool) {
		for n := range _opcodes {
			if !yield(&_opcodes[n]) {
				return
			}
		}
	}
}
