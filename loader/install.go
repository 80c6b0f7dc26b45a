package loader

import (
	"log"

	"github.com/ezrec/em2200/bank"
	"github.com/ezrec/em2200/cpu"
	"github.com/ezrec/em2200/interrupt"
	"github.com/ezrec/em2200/storage"
	"github.com/ezrec/em2200/word"
)

// Level 0 banks built by the loader.
const (
	HANDLER_BDI    = 040 // Default interrupt handlers.
	RCS_BDI        = 041 // Return control stack.
	ICS_BDI        = 042 // Interrupt control stack.
	FIRST_USER_BDI = 043 // First level 0 BDI available to an image.
)

// DEFAULT_RCS_DEPTH is the RCS depth, in frames, when none is given.
const DEFAULT_RCS_DEPTH = 0100

// InstallOptions control how an image is installed.
type InstallOptions struct {
	Verbose  bool   // Log each bank as it is installed.
	Handlers bool   // Build the default interrupt handler bank.
	RCSDepth uint64 // RCS frames; DEFAULT_RCS_DEPTH when zero.
	ICSDepth uint64 // ICS frames; no ICS when zero.
}

// installer carries the state of one Install.
type installer struct {
	img   *Image
	msp   *storage.MSP
	opts  InstallOptions
	fixed uint64 // Next free word of the fixed segment.

	tables map[uint64][]word.Word       // BDT words, by level.
	brs    map[uint64]bank.BaseRegister // BDT base registers, by level.
}

func (in *installer) logf(format string, args ...any) {
	if in.opts.Verbose {
		log.Printf("loader: "+format, args...)
	}
}

// Install places the banks of an image in main storage, and returns the
// processor state that starts it.
func Install(img *Image, msp *storage.MSP, opts InstallOptions) (state *cpu.InitialState, err error) {
	err = img.Validate()
	if err != nil {
		return
	}

	fixed, err := msp.Segment(storage.FIXED_SEGMENT)
	if err != nil {
		return
	}
	if img.FixedWords() > fixed.Len() {
		err = &ErrImage{Name: img.Name, Err: ErrFixedCapacity}
		return
	}

	in := &installer{
		img:    img,
		msp:    msp,
		opts:   opts,
		tables: map[uint64][]word.Word{},
		brs:    map[uint64]bank.BaseRegister{},
	}

	state = &cpu.InitialState{
		BaseRegisters: map[int]bank.BaseRegister{},
		Banks:         map[int]cpu.ActiveBaseEntry{},
		GRS:           map[uint64]word.Word{},
		PAR:           img.Start,
		DR:            img.Designator,
	}

	for level := range img.Levels() {
		err = in.table(level)
		if err != nil {
			return
		}
		state.BaseRegisters[bank.BR_BDT_LEVEL+int(level)] = in.brs[level]
	}

	descriptors := map[*Bank]bank.Descriptor{}
	for _, bk := range img.Banks {
		var bd bank.Descriptor
		bd, err = in.bank(bk)
		if err != nil {
			err = &ErrImage{Name: img.Name, Err: err}
			return
		}
		descriptors[bk] = bd
		if bk.BaseRegister != 0 {
			state.BaseRegisters[bk.BaseRegister] = bank.NewBaseRegister(bd)
			state.Banks[bk.BaseRegister] = cpu.ActiveBaseEntry{Level: bk.Level, BDI: bk.BDI}
		}
	}

	if opts.Handlers {
		err = in.handlers()
		if err != nil {
			return
		}
	}

	depth := opts.RCSDepth
	if depth == 0 {
		depth = DEFAULT_RCS_DEPTH
	}
	rcs, err := in.stack(RCS_BDI, depth*cpu.RCS_FRAME_WORDS)
	if err != nil {
		return
	}
	state.BaseRegisters[bank.BR_RCS] = rcs
	state.GRS[cpu.EX0] = word.New(rcs.Upper + 1)

	if opts.ICSDepth != 0 {
		var ics bank.BaseRegister
		ics, err = in.stack(ICS_BDI, opts.ICSDepth*cpu.ICS_FRAME_WORDS)
		if err != nil {
			return
		}
		state.BaseRegisters[bank.BR_ICS] = ics
		state.GRS[cpu.EX0+1] = word.FromHalves(cpu.ICS_FRAME_WORDS, ics.Upper+1)
	}

	start, _ := img.StartBank()
	code := bank.NewBaseRegister(descriptors[start])
	if start.Options.Extended {
		state.BaseRegisters[bank.BR_CODE] = code
		state.DR.Set(cpu.DB_BASIC_MODE, false)
	} else {
		index := start.BaseRegister
		if index == 0 {
			index = bank.BR_BASIC_LO
		}
		state.BaseRegisters[index] = code
		state.Banks[index] = cpu.ActiveBaseEntry{Level: start.Level, BDI: start.BDI}
		state.DR.Set(cpu.DB_BASIC_MODE, true)
	}

	in.logf("%v: start at %v, dr %v", img.Name, state.PAR, state.DR)

	return
}

// table creates the BDT of a level, large enough for every bank of the
// image at that level.
func (in *installer) table(level uint64) (err error) {
	entries := uint64(1)
	if level == 0 {
		entries = FIRST_USER_BDI
	}
	for _, bk := range in.img.Banks {
		if bk.Level == level {
			entries = max(entries, bk.BDI+1)
		}
	}

	index, err := in.msp.Create(entries * bank.DESCRIPTOR_WORDS)
	if err != nil {
		return
	}
	seg, err := in.msp.Segment(index)
	if err != nil {
		return
	}

	for bdi := range entries {
		if level == 0 && bdi < interrupt.CLASS_COUNT/bank.DESCRIPTOR_WORDS {
			continue
		}
		bd, _ := bank.DescriptorAt(seg.Words, bdi)
		bd.SetVoid()
	}

	in.tables[level] = seg.Words
	rw := bank.Permissions{Read: true, Write: true}
	in.brs[level] = bank.BaseRegister{
		Lower:   0,
		Upper:   seg.Len() - 1,
		GAP:     rw,
		SAP:     rw,
		Address: bank.AbsoluteAddress{UPI: in.msp.UPI, Segment: index},
	}

	in.logf("level %d: BDT of %d entries in segment %d", level, entries, index)

	return
}

// allocate finds storage for size words, in a new segment when dynamic or
// else in the fixed segment.
func (in *installer) allocate(size uint64, dynamic bool) (aa bank.AbsoluteAddress, words []word.Word, err error) {
	aa.UPI = in.msp.UPI
	if dynamic {
		aa.Segment, err = in.msp.Create(size)
		if err != nil {
			return
		}
	} else {
		aa.Segment = storage.FIXED_SEGMENT
		aa.Offset = in.fixed
		in.fixed += size
	}

	seg, err := in.msp.Segment(aa.Segment)
	if err != nil {
		return
	}
	if aa.Offset+size > seg.Len() {
		err = ErrFixedCapacity
		return
	}
	words = seg.Words[aa.Offset : aa.Offset+size]
	return
}

// describe writes a bank descriptor.
func (in *installer) describe(level, bdi uint64, kind bank.Type, large bool, lower, upper uint64, gap, sap bank.Permissions, lock bank.AccessInfo, aa bank.AbsoluteAddress) (bd bank.Descriptor) {
	bd, _ = bank.DescriptorAt(in.tables[level], bdi)
	clear(bd)
	bd.SetType(kind)
	bd.SetLarge(large)
	bd.SetAccess(gap, sap, lock)
	bd.SetLimits(lower, upper)
	bd.SetAddress(aa)
	return
}

// bank installs one image bank.
func (in *installer) bank(bk *Bank) (bd bank.Descriptor, err error) {
	aa, words, err := in.allocate(bk.Len(), bk.Options.Dynamic)
	if err != nil {
		err = &ErrBank{Name: bk.Name, Err: err}
		return
	}
	copy(words, bk.Words)

	gap, sap := bk.GAP, bk.SAP
	if bk.Options.WriteProtect {
		gap.Write = false
		sap.Write = false
	}

	bd = in.describe(bk.Level, bk.BDI, bk.Type(), bk.Options.Large, bk.Lower, bk.Upper(), gap, sap, bk.Lock, aa)

	in.logf("%v: %v at %v", bk.Name, bk.Address(bk.Lower), bd)

	return
}

// handlers builds a bank with a HALT for each interrupt class, and points
// the level 0 interrupt vectors at them.
func (in *installer) handlers() (err error) {
	aa, words, err := in.allocate(interrupt.CLASS_COUNT, true)
	if err != nil {
		return
	}

	vectors := in.tables[0]
	for class := range uint64(interrupt.CLASS_COUNT) {
		words[class] = word.Extended(077, 017, 017, 0, 0, 0, 0, cpu.STOP_DETAIL_INTERRUPT|class).Word()
		vectors[class] = bank.FromLBDI(HANDLER_BDI, class).Word()
	}

	all := bank.Permissions{Enter: true, Read: true}
	in.describe(0, HANDLER_BDI, bank.EXTENDED_MODE, false, 0, interrupt.CLASS_COUNT-1, all, all, bank.AccessInfo{}, aa)

	in.logf("handlers: %d classes at %v", interrupt.CLASS_COUNT, bank.FromLBDI(HANDLER_BDI, 0))

	return
}

// stack builds an empty level 0 stack bank of size words.
func (in *installer) stack(bdi uint64, size uint64) (br bank.BaseRegister, err error) {
	aa, _, err := in.allocate(size, true)
	if err != nil {
		return
	}

	rw := bank.Permissions{Read: true, Write: true}
	bd := in.describe(0, bdi, bank.EXTENDED_MODE, false, 0, size-1, rw, rw, bank.AccessInfo{}, aa)
	br = bank.NewBaseRegister(bd)

	in.logf("stack: %d words at %v", size, bank.FromLBDI(bdi, 0))

	return
}
