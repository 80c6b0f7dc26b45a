package cpu

import (
	"github.com/ezrec/em2200/bank"
	"github.com/ezrec/em2200/word"
)

func magnitude(w word.Word) word.Word {
	if w.IsNegative() {
		return w.Negate()
	}
	return w & word.MASK
}

func magnitudeDouble(d word.Double) word.Double {
	if d.IsNegative() {
		return d.Negate()
	}
	return d
}

// load sets a register from the operand, transformed by fn.
func (ip *Processor) load(iw word.Instruction, target *word.Word, fn func(word.Word) word.Word) (err error) {
	value, err := ip.operand(iw)
	if err != nil {
		return
	}
	*target = fn(value) & word.MASK
	return
}

func identity(w word.Word) word.Word { return w }
func negative(w word.Word) word.Word { return w.Negate() }
func negativeMagnitude(w word.Word) word.Word {
	return magnitude(w).Negate()
}

func (ip *Processor) opLA(iw word.Instruction) error {
	return ip.load(iw, ip.A(iw.A()), identity)
}

func (ip *Processor) opLNA(iw word.Instruction) error {
	return ip.load(iw, ip.A(iw.A()), negative)
}

func (ip *Processor) opLMA(iw word.Instruction) error {
	return ip.load(iw, ip.A(iw.A()), magnitude)
}

func (ip *Processor) opLNMA(iw word.Instruction) error {
	return ip.load(iw, ip.A(iw.A()), negativeMagnitude)
}

func (ip *Processor) opLR(iw word.Instruction) error {
	return ip.load(iw, ip.R(iw.A()), identity)
}

func (ip *Processor) opLX(iw word.Instruction) error {
	return ip.load(iw, (*word.Word)(ip.X(iw.A())), identity)
}

// opLXM loads the modifier of X(a), 24 bits wide with 24-bit indexing.
func (ip *Processor) opLXM(iw word.Instruction) (err error) {
	value, err := ip.operand(iw)
	if err != nil {
		return
	}
	xr := ip.X(iw.A())
	if ip.wideIndex() {
		xr.SetXM24(uint64(value))
	} else {
		xr.SetXM(uint64(value))
	}
	return
}

// opLXI loads the increment of X(a), 12 bits wide with 24-bit indexing.
func (ip *Processor) opLXI(iw word.Instruction) (err error) {
	value, err := ip.operand(iw)
	if err != nil {
		return
	}
	xr := ip.X(iw.A())
	if ip.wideIndex() {
		xr.SetXI12(uint64(value))
	} else {
		xr.SetXI(uint64(value))
	}
	return
}

func (ip *Processor) opLXLM(iw word.Instruction) (err error) {
	value, err := ip.wordOperand(iw)
	if err != nil {
		return
	}
	ip.X(iw.A()).SetXM24(uint64(value))
	return
}

func (ip *Processor) opLXSI(iw word.Instruction) (err error) {
	value, err := ip.operand(iw)
	if err != nil {
		return
	}
	ip.X(iw.A()).SetXI12(uint64(value))
	return
}

func (ip *Processor) opSA(iw word.Instruction) error {
	return ip.storeOperand(iw, *ip.A(iw.A()))
}

func (ip *Processor) opSNA(iw word.Instruction) error {
	return ip.storeOperand(iw, ip.A(iw.A()).Negate())
}

func (ip *Processor) opSMA(iw word.Instruction) error {
	return ip.storeOperand(iw, magnitude(*ip.A(iw.A())))
}

func (ip *Processor) opSR(iw word.Instruction) error {
	return ip.storeOperand(iw, *ip.R(iw.A()))
}

func (ip *Processor) opSX(iw word.Instruction) error {
	return ip.storeOperand(iw, ip.X(iw.A()).Word())
}

// Constant store values.
const (
	fieldata_spaces = word.Word(0_050505_050505)
	fieldata_zeros  = word.Word(0_606060_606060)
	ascii_spaces    = word.Word(0_040040_040040)
	ascii_zeros     = word.Word(0_060060_060060)
)

func (ip *Processor) opSZ(iw word.Instruction) error {
	return ip.storeOperand(iw, word.POSITIVE_ZERO)
}

func (ip *Processor) opSNZ(iw word.Instruction) error {
	return ip.storeOperand(iw, word.NEGATIVE_ZERO)
}

func (ip *Processor) opSP1(iw word.Instruction) error {
	return ip.storeOperand(iw, 1)
}

func (ip *Processor) opSN1(iw word.Instruction) error {
	return ip.storeOperand(iw, word.Word(1).Negate())
}

func (ip *Processor) opSFS(iw word.Instruction) error {
	return ip.storeOperand(iw, fieldata_spaces)
}

func (ip *Processor) opSFZ(iw word.Instruction) error {
	return ip.storeOperand(iw, fieldata_zeros)
}

func (ip *Processor) opSAS(iw word.Instruction) error {
	return ip.storeOperand(iw, ascii_spaces)
}

func (ip *Processor) opSAZ(iw word.Instruction) error {
	return ip.storeOperand(iw, ascii_zeros)
}

func (ip *Processor) loadDouble(iw word.Instruction, fn func(word.Double) word.Double) (err error) {
	d, err := ip.doubleOperand(iw)
	if err != nil {
		return
	}
	ip.setAPair(iw.A(), fn(d))
	return
}

func (ip *Processor) opDL(iw word.Instruction) error {
	return ip.loadDouble(iw, func(d word.Double) word.Double { return d })
}

func (ip *Processor) opDLN(iw word.Instruction) error {
	return ip.loadDouble(iw, word.Double.Negate)
}

func (ip *Processor) opDLM(iw word.Instruction) error {
	return ip.loadDouble(iw, magnitudeDouble)
}

func (ip *Processor) opDS(iw word.Instruction) (err error) {
	ref, err := ip.consecutive(iw, 2, bank.ACCESS_WRITE)
	if err != nil {
		return
	}
	d := ip.aPair(iw.A())
	ref.Set(0, d[0])
	ref.Set(1, d[1])
	return
}

// quarterSelect is the quarter word named by bits 4-5 of X(x).
func (ip *Processor) quarterSelect(iw word.Instruction) uint64 {
	return (uint64(*ip.X(iw.X())) >> 30) & 03
}

func (ip *Processor) opLAQW(iw word.Instruction) (err error) {
	q := ip.quarterSelect(iw)
	value, err := ip.wordOperand(iw)
	if err != nil {
		return
	}
	*ip.A(iw.A()) = word.Word(uint64(value)>>(27-9*q)) & 0777
	return
}

func (ip *Processor) opSAQW(iw word.Instruction) (err error) {
	q := ip.quarterSelect(iw)
	ref, err := ip.resolve(iw, 1, bank.ACCESS_RW)
	if err != nil {
		return
	}
	shift := 27 - 9*q
	value := ref.Get(0) &^ (word.Word(0777) << shift)
	value |= (*ip.A(iw.A()) & 0777) << shift
	ref.Set(0, value)
	return
}

// registerSpan decodes an LRS/SRS descriptor into its two GRS areas.
func registerSpan(desc word.Word) (area1, count1, area2, count2 uint64) {
	d := uint64(desc)
	area1 = d & 0177
	count1 = (d >> 9) & 0177
	area2 = (d >> 18) & 0177
	count2 = (d >> 27) & 0177
	return
}

// registerWords checks the GRS areas of a register span.
func (ip *Processor) registerWords(desc word.Word, access bank.Access) (area [2]reference, count [2]uint64, err error) {
	var start [2]uint64
	start[0], count[0], start[1], count[1] = registerSpan(desc)
	for n := range 2 {
		area[n], err = ip.grsReference(start[n], count[n], access)
		if err != nil {
			return
		}
	}
	return
}

// opLRS loads GRS areas from consecutive storage words.
func (ip *Processor) opLRS(iw word.Instruction) (err error) {
	area, count, err := ip.registerWords(*ip.A(iw.A()), bank.ACCESS_WRITE)
	if err != nil {
		return
	}
	total := count[0] + count[1]
	if total == 0 {
		return
	}
	ref, err := ip.consecutive(iw, total, bank.ACCESS_READ)
	if err != nil {
		return
	}
	n := 0
	for a := range 2 {
		for k := range int(count[a]) {
			area[a].Set(k, ref.Get(n))
			n++
		}
	}
	return
}

// opSRS stores GRS areas to consecutive storage words.
func (ip *Processor) opSRS(iw word.Instruction) (err error) {
	area, count, err := ip.registerWords(*ip.A(iw.A()), bank.ACCESS_READ)
	if err != nil {
		return
	}
	total := count[0] + count[1]
	if total == 0 {
		return
	}
	ref, err := ip.consecutive(iw, total, bank.ACCESS_WRITE)
	if err != nil {
		return
	}
	n := 0
	for a := range 2 {
		for k := range int(count[a]) {
			ref.Set(n, area[a].Get(k))
			n++
		}
	}
	return
}
