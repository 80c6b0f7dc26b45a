package cpu

import (
	"context"
	"errors"
	"fmt"
	"log"
	"slices"
	"sync"

	"github.com/ezrec/em2200/bank"
	"github.com/ezrec/em2200/interrupt"
	"github.com/ezrec/em2200/storage"
	"github.com/ezrec/em2200/word"
)

// StorageLocator finds the main storage processor for a UPI.
type StorageLocator interface {
	MainStorage(upi uint64) (*storage.MSP, error)
}

// Processor is the simulation context of one instruction processor.
type Processor struct {
	Verbose     bool // Set to enable verbose logging.
	Trace       bool // Set to log every instruction executed.
	Development bool // Set to stop on interrupts instead of vectoring them.

	UPI     uint64         // Unique processor identifier.
	Storage StorageLocator // Storage processors reachable from this processor.
	Console Console        // System console, nil when none is attached.

	GRS GeneralRegisterSet
	BR  [bank.BASE_REGISTER_COUNT]bank.BaseRegister
	ABT [16]ActiveBaseEntry // Bank names loaded into B0..B15.
	DR  DesignatorRegister
	IKR IndicatorKeyRegister
	PAR ProgramAddressRegister

	QuantumTimer word.Word
	Breakpoint   Breakpoint
	JumpHistory  JumpHistory

	Ticks int // Instructions executed.

	mutex         sync.Mutex
	running       bool
	stopReason    StopReason
	stopDetail    uint64
	pending       []*interrupt.MachineInterrupt
	lastInterrupt *interrupt.MachineInterrupt

	current  word.Instruction // Instruction being executed.
	resuming bool             // current holds a partially resolved instruction.
	jumped   bool             // The instruction replaced PAR.PC.
	skip     bool             // The instruction skips its successor.
}

// NewProcessor creates a cleared, stopped processor.
func NewProcessor(upi uint64, locator StorageLocator) (ip *Processor) {
	ip = &Processor{
		UPI:     upi,
		Storage: locator,
	}
	ip.Clear()
	ip.stopReason = STOP_INITIAL

	return
}

func (ip *Processor) logf(format string, args ...any) {
	if ip.Verbose {
		log.Printf("ip%d: %v", ip.UPI, fmt.Sprintf(format, args...))
	}
}

// Clear stops the processor and resets all of its registers.
func (ip *Processor) Clear() {
	ip.logf("clear")

	ip.mutex.Lock()
	ip.running = false
	ip.stopReason = STOP_CLEARED
	ip.stopDetail = 0
	ip.pending = nil
	ip.lastInterrupt = nil
	ip.mutex.Unlock()

	clear(ip.GRS[:])
	for n := range ip.BR {
		ip.BR[n] = bank.VoidBaseRegister()
	}
	clear(ip.ABT[:])
	ip.DR = 0
	ip.IKR = 0
	ip.PAR = 0
	ip.QuantumTimer = 0
	ip.Breakpoint = Breakpoint{}
	ip.JumpHistory.Clear()
	ip.Ticks = 0

	ip.current = 0
	ip.resuming = false
	ip.jumped = false
	ip.skip = false
}

// Start sets the processor running from the current PAR.
func (ip *Processor) Start() {
	ip.mutex.Lock()
	defer ip.mutex.Unlock()

	ip.running = true
}

// Stop halts the processor from the panel.
func (ip *Processor) Stop() {
	ip.stop(STOP_PANEL_HALT, 0)
}

func (ip *Processor) stop(reason StopReason, detail uint64) {
	ip.mutex.Lock()
	defer ip.mutex.Unlock()

	if !ip.running {
		return
	}

	ip.running = false
	ip.stopReason = reason
	ip.stopDetail = detail

	ip.logf("stopped: %v, detail %012o, at %v", reason, detail, ip.PAR)
}

// Running reports if the processor is executing instructions.
func (ip *Processor) Running() bool {
	ip.mutex.Lock()
	defer ip.mutex.Unlock()

	return ip.running
}

// StopReason returns why, and with which detail, the processor last stopped.
func (ip *Processor) StopReason() (reason StopReason, detail uint64) {
	ip.mutex.Lock()
	defer ip.mutex.Unlock()

	return ip.stopReason, ip.stopDetail
}

// LastInterrupt is the most recent interrupt taken, or nil.
func (ip *Processor) LastInterrupt() *interrupt.MachineInterrupt {
	ip.mutex.Lock()
	defer ip.mutex.Unlock()

	return ip.lastInterrupt
}

// PostInterrupt holds an interrupt pending until the next instruction
// boundary at which it may be taken. It is safe to call from any goroutine.
func (ip *Processor) PostInterrupt(mi *interrupt.MachineInterrupt) {
	ip.mutex.Lock()
	defer ip.mutex.Unlock()

	ip.pending = append(ip.pending, mi)
	slices.SortStableFunc(ip.pending, func(a, b *interrupt.MachineInterrupt) int {
		return a.Priority() - b.Priority()
	})
}

// Pending returns the number of interrupts held pending.
func (ip *Processor) Pending() int {
	ip.mutex.Lock()
	defer ip.mutex.Unlock()

	return len(ip.pending)
}

// nextPending removes the most urgent pending interrupt that may be taken.
func (ip *Processor) nextPending() (mi *interrupt.MachineInterrupt) {
	ip.mutex.Lock()
	defer ip.mutex.Unlock()

	deferrable := ip.DR.Has(DB_DEFERRABLE_INTERRUPT)
	for n, candidate := range ip.pending {
		if candidate.Deferred() && !deferrable {
			continue
		}
		mi = candidate
		ip.pending = slices.Delete(ip.pending, n, n+1)
		return
	}

	return
}

// String returns the processor state as a string.
func (ip *Processor) String() (text string) {
	regs := []string{
		"par", "dr", "ikr",
		"x", "a", "r",
		"ex", "ea", "er",
		"br",
		"stop",
	}
	for _, reg := range regs {
		var strval string
		switch reg {
		case "par":
			strval = ip.PAR.String()
		case "dr":
			strval = ip.DR.String()
		case "ikr":
			strval = word.Word(ip.IKR).String()
		case "x", "ex":
			base := uint64(X0)
			if reg == "ex" {
				base = EX0
			}
			for n := range uint64(16) {
				strval += fmt.Sprintf("\n%6s%02d: %v", reg, n, IndexRegister(ip.GRS[base+n]))
			}
		case "a", "ea", "r", "er":
			base := map[string]uint64{"a": A0, "ea": EA0, "r": R0, "er": ER0}[reg]
			for n := range uint64(16) {
				strval += fmt.Sprintf("\n%6s%02d: %v", reg, n, ip.GRS[base+n])
			}
		case "br":
			for n := range ip.BR {
				if ip.BR[n].Void {
					continue
				}
				strval += fmt.Sprintf("\n%6s%02d: %v", reg, n, &ip.BR[n])
			}
		case "stop":
			reason, detail := ip.StopReason()
			strval = fmt.Sprintf("%v %012o", reason, detail)
			if ip.Running() {
				strval = "running"
			}
		}
		text += fmt.Sprintf("% 5s: %v\n", reg, strval)
	}

	return
}

// Run executes instructions until the processor stops, the context is
// done, or maxSteps instructions have run (when maxSteps > 0).
func (ip *Processor) Run(ctx context.Context, maxSteps int) (err error) {
	for steps := 0; maxSteps <= 0 || steps < maxSteps; steps++ {
		if steps%1024 == 0 {
			err = ctx.Err()
			if err != nil {
				return
			}
		}
		if !ip.Running() {
			return
		}
		err = ip.Tick()
		if err != nil {
			return
		}
	}

	return
}

// Tick runs one cycle: it takes an interrupt, or completes an instruction,
// or completes one indirect hop of a basic mode instruction.
func (ip *Processor) Tick() (err error) {
	if !ip.Running() {
		err = ErrNotRunning
		return
	}

	ip.Ticks++

	mi, stopped := ip.checkConditions()
	if stopped {
		return
	}
	if mi == nil {
		mi = ip.nextPending()
	}
	if mi != nil {
		ip.takeInterrupt(mi)
		return
	}

	err = ip.step()
	if err == nil {
		return
	}

	if errors.Is(err, errIndirect) {
		ip.chargeQuantum()
		err = nil
		return
	}

	mi, ok := interrupt.As(err)
	if !ok {
		err = errors.Join(ErrOpcode(ip.current), err)
		return
	}

	ip.resuming = false
	ip.takeInterrupt(mi)
	err = nil

	return
}

// step fetches, decodes and executes one instruction.
func (ip *Processor) step() (err error) {
	if !ip.resuming {
		ip.current, err = ip.fetch()
		if err != nil {
			return
		}
	}
	ip.resuming = false
	ip.jumped = false
	ip.skip = false

	iw := ip.current
	basic := ip.DR.Has(DB_BASIC_MODE)
	if ip.Trace {
		log.Printf("ip%d: %v: %v %v", ip.UPI, ip.PAR, iw.Word(), Mnemonic(iw, basic))
	}

	op := lookup(iw, basic)
	if op == nil {
		ip.advance()
		err = interrupt.NewInvalidInstruction(interrupt.UNDEFINED_FUNCTION_CODE)
		return
	}

	if op.Privileged {
		err = ip.privileged(0)
	}
	if err == nil {
		err = op.exec(ip, iw)
	}
	if errors.Is(err, errIndirect) {
		ip.resuming = true
		return
	}
	if err != nil {
		ip.jumped = false
		ip.skip = false
	}

	ip.advance()
	ip.chargeQuantum()

	return
}

// advance moves PAR.PC past the instruction, and past its successor when
// the instruction skips.
func (ip *Processor) advance() {
	if ip.jumped {
		return
	}
	pc := ip.PAR.PC() + 1
	if ip.skip {
		pc++
	}
	ip.PAR.SetPC(pc & 0777777)
}

func (ip *Processor) chargeQuantum() {
	if !ip.DR.Has(DB_QUANTUM_TIMER) {
		return
	}
	before := ip.QuantumTimer
	ip.QuantumTimer = word.AddSimple(ip.QuantumTimer, word.FromInt(-1))
	if !before.IsNegative() && ip.QuantumTimer.IsNegative() {
		ip.PostInterrupt(interrupt.NewQuantumTimer())
	}
}

// checkConditions turns breakpoint matches and a full jump history into
// interrupts, or stops the processor for a halting breakpoint.
func (ip *Processor) checkConditions() (mi *interrupt.MachineInterrupt, stopped bool) {
	if ip.resuming {
		return
	}

	if ip.Breakpoint.matched {
		ip.Breakpoint.matched = false
		if ip.Breakpoint.Halt {
			ip.stop(STOP_BREAKPOINT, 0)
			stopped = true
			return
		}
		_, location := ip.Breakpoint.Address.Words()
		mi = interrupt.NewBreakpoint(location)
		return
	}

	if ip.JumpHistory.thresholdReached && ip.JumpHistory.FullInterrupt {
		ip.JumpHistory.thresholdReached = false
		mi = interrupt.NewJumpHistoryFull()
		return
	}

	return
}

// fetch reads the instruction at PAR.PC.
func (ip *Processor) fetch() (iw word.Instruction, err error) {
	pc := ip.PAR.PC()

	index := bank.BR_CODE
	if ip.DR.Has(DB_BASIC_MODE) {
		index, err = ip.findBasicModeBank(pc, true)
		if err != nil {
			return
		}
		ip.DR.Set(DB_BASIC_BASE_SELECTION, index == bank.BR_BASIC_LO+1 || index == bank.BR_BASIC_LO+3)
	}

	br := &ip.BR[index]
	err = br.CheckLimits(pc, 1, true)
	if err != nil {
		return
	}

	words, err := br.Storage(pc, 1)
	if err != nil {
		err = interrupt.NewReferenceViolation(interrupt.STORAGE_LIMITS, true)
		return
	}
	ip.checkBreakpoint(BREAK_FETCH, br.Absolute(pc))

	iw = word.Instruction(words[0])
	return
}

// jump transfers control within the current bank.
func (ip *Processor) jump(target uint64) {
	ip.JumpHistory.Record(word.Word(ip.PAR))
	ip.PAR.SetPC(target & 0777777)
	ip.jumped = true
}

// privileged raises an invalid instruction unless the processor privilege
// is at most pp.
func (ip *Processor) privileged(pp uint64) error {
	if ip.DR.Privilege() > pp {
		return interrupt.NewInvalidInstruction(interrupt.INVALID_PROCESSOR_PRIVILEGE)
	}
	return nil
}
