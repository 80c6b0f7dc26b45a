// Copyright 2024, Jason S. McMullan <jason.mcmullan@gmail.com>

package loader

import (
	"fmt"
	"iter"
	"log"
	"strings"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"

	"github.com/ezrec/em2200/bank"
	"github.com/ezrec/em2200/cpu"
	"github.com/ezrec/em2200/internal"
	"github.com/ezrec/em2200/word"
)

// Permission bits of the gap and sap bank arguments.
const (
	PERM_ENTER = 04
	PERM_READ  = 02
	PERM_WRITE = 01
	PERM_ALL   = PERM_ENTER | PERM_READ | PERM_WRITE
)

var _partial_name = []string{
	cpu.J_W:   "W",
	cpu.J_H2:  "H2",
	cpu.J_H1:  "H1",
	cpu.J_XH2: "XH2",
	cpu.J_XH1: "XH1",
	cpu.J_XT3: "XT3",
	cpu.J_XT2: "XT2",
	cpu.J_XT1: "XT1",
	cpu.J_S6:  "S6",
	cpu.J_S5:  "S5",
	cpu.J_S4:  "S4",
	cpu.J_S3:  "S3",
	cpu.J_S2:  "S2",
	cpu.J_S1:  "S1",
	cpu.J_U:   "U",
	cpu.J_XU:  "XU",
}

var _designator_bits = map[string]cpu.DesignatorRegister{
	"DB_QUANTUM_TIMER":        cpu.DB_QUANTUM_TIMER,
	"DB_DEFERRABLE_INTERRUPT": cpu.DB_DEFERRABLE_INTERRUPT,
	"DB_EXEC_24BIT_INDEXING":  cpu.DB_EXEC_24BIT_INDEXING,
	"DB_EXEC_REGISTER_SET":    cpu.DB_EXEC_REGISTER_SET,
	"DB_OPERATION_TRAP":       cpu.DB_OPERATION_TRAP,
	"DB_ARITHMETIC_EXCEPTION": cpu.DB_ARITHMETIC_EXCEPTION,
	"DB_QUARTER_WORD":         cpu.DB_QUARTER_WORD,
}

// registers names the a and x field register numbers.
func registers() iter.Seq2[string, uint64] {
	return func(yield func(string, uint64) bool) {
		for n := range uint64(16) {
			for _, prefix := range []string{"X", "A", "R"} {
				if !yield(fmt.Sprintf("%s%d", prefix, n), n) {
					return
				}
			}
		}
	}
}

// partials names the j field designators.
func partials() iter.Seq2[string, uint64] {
	return func(yield func(string, uint64) bool) {
		for j, name := range _partial_name {
			if !yield(name, uint64(j)) {
				return
			}
		}
	}
}

// designators names the designator register bits, and privilege levels.
func designators() iter.Seq2[string, uint64] {
	return func(yield func(string, uint64) bool) {
		for name, bits := range _designator_bits {
			if !yield(name, uint64(bits)) {
				return
			}
		}
		for pp := range uint64(4) {
			var dr cpu.DesignatorRegister
			dr.SetPrivilege(pp)
			if !yield(fmt.Sprintf("DB_PRIVILEGE_%d", pp), uint64(dr)) {
				return
			}
		}
	}
}

// constants are the other predeclared values.
func constants() iter.Seq2[string, uint64] {
	return func(yield func(string, uint64) bool) {
		for name, value := range map[string]uint64{
			"PERM_ENTER":            PERM_ENTER,
			"PERM_READ":             PERM_READ,
			"PERM_WRITE":            PERM_WRITE,
			"PERM_ALL":              PERM_ALL,
			"FIRST_USER_BDI":        FIRST_USER_BDI,
			"STOP_DETAIL_INTERRUPT": cpu.STOP_DETAIL_INTERRUPT,
		} {
			if !yield(name, value) {
				return
			}
		}
	}
}

// script builds an image as a Starlark program runs.
type script struct {
	img *Image

	start      string // Name of the start bank.
	offset     int    // Start offset; the bank lower limit when negative.
	designator int
}

// asWord converts a Starlark integer to a word. Negative values are stored
// in ones complement.
func asWord(v starlark.Value) (w word.Word, err error) {
	i, ok := v.(starlark.Int)
	if !ok {
		err = fmt.Errorf("%w: %v is not an int", ErrScriptArgument, v.Type())
		return
	}
	if i64, ok := i.Int64(); ok && i64 < 0 {
		if -i64 > int64(word.MASK>>1) {
			err = fmt.Errorf("%w: %v out of range", ErrScriptArgument, i)
			return
		}
		w = word.FromInt(i64)
		return
	}
	u64, ok := i.Uint64()
	if !ok || u64 > uint64(word.MASK) {
		err = fmt.Errorf("%w: %v out of range", ErrScriptArgument, i)
		return
	}
	w = word.Word(u64)
	return
}

// asWords flattens a sequence of integers, or of sequences of integers.
func asWords(v starlark.Value) (words []word.Word, err error) {
	if v == nil || v == starlark.None {
		return
	}
	if _, ok := v.(starlark.Int); ok {
		var w word.Word
		w, err = asWord(v)
		words = []word.Word{w}
		return
	}

	seq, ok := v.(starlark.Iterable)
	if !ok {
		err = fmt.Errorf("%w: %v is not a sequence", ErrScriptArgument, v.Type())
		return
	}
	it := seq.Iterate()
	defer it.Done()

	var item starlark.Value
	for it.Next(&item) {
		var more []word.Word
		more, err = asWords(item)
		if err != nil {
			return
		}
		words = append(words, more...)
	}
	return
}

func wordValue(w word.Word) starlark.Value {
	return starlark.MakeUint64(uint64(w))
}

// builtins returns the builtin functions bound to the script.
func (sc *script) builtins() starlark.StringDict {
	return starlark.StringDict{
		"bank":     starlark.NewBuiltin("bank", sc.bank),
		"start":    starlark.NewBuiltin("start", sc.setStart),
		"extended": starlark.NewBuiltin("extended", sc.extended),
		"basic":    starlark.NewBuiltin("basic", sc.basic),
		"op":       starlark.NewBuiltin("op", sc.op),
		"word":     starlark.NewBuiltin("word", sc.word),
		"ascii":    starlark.NewBuiltin("ascii", sc.ascii),
		"va":       starlark.NewBuiltin("va", sc.va),
	}
}

// bank(name, words=[], level=0, bdi=FIRST_USER_BDI, lower=0, size=0,
// extended=True, write_protect=False, dynamic=False, large=False,
// gap=PERM_ALL, sap=PERM_ALL, lock=0, br=0) adds a bank, and returns the
// virtual address of its lower limit.
func (sc *script) bank(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (value starlark.Value, err error) {
	var name string
	var words starlark.Value
	level, bdi, lower, size := 0, FIRST_USER_BDI, 0, 0
	extended, protect, dynamic, large := true, false, false, false
	gap, sap, lock, br := PERM_ALL, PERM_ALL, 0, 0

	err = starlark.UnpackArgs(b.Name(), args, kwargs,
		"name", &name,
		"words?", &words,
		"level?", &level,
		"bdi?", &bdi,
		"lower?", &lower,
		"size?", &size,
		"extended?", &extended,
		"write_protect?", &protect,
		"dynamic?", &dynamic,
		"large?", &large,
		"gap?", &gap,
		"sap?", &sap,
		"lock?", &lock,
		"br?", &br,
	)
	if err != nil {
		return
	}
	if level < 0 || bdi < 0 || lower < 0 || size < 0 || lock < 0 {
		err = fmt.Errorf("%s: %w", b.Name(), ErrScriptArgument)
		return
	}

	bk := &Bank{
		Name:  name,
		Level: uint64(level),
		BDI:   uint64(bdi),
		Lower: uint64(lower),
		Size:  uint64(size),
		Options: Options{
			WriteProtect: protect,
			Extended:     extended,
			Dynamic:      dynamic,
			Large:        large,
		},
		GAP:          bank.NewPermissions(uint64(gap)),
		SAP:          bank.NewPermissions(uint64(sap)),
		Lock:         bank.NewAccessInfo(uint64(lock)),
		BaseRegister: br,
	}
	bk.Words, err = asWords(words)
	if err != nil {
		err = &ErrBank{Name: name, Err: err}
		return
	}

	sc.img.Banks = append(sc.img.Banks, bk)
	value = wordValue(bk.Address(bk.Lower).Word())
	return
}

// start(bank, offset=lower, designator=0) sets the start address.
func (sc *script) setStart(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (value starlark.Value, err error) {
	offset, designator := -1, 0
	var name string
	err = starlark.UnpackArgs(b.Name(), args, kwargs,
		"bank", &name,
		"offset?", &offset,
		"designator?", &designator,
	)
	if err != nil {
		return
	}
	if designator < 0 {
		err = fmt.Errorf("%s: %w", b.Name(), ErrScriptArgument)
		return
	}

	sc.start, sc.offset, sc.designator = name, offset, designator
	value = starlark.None
	return
}

// fields unpacks the instruction fields shared by extended, basic and op.
type fields struct {
	j, a, x, h, i, b, d int
	u                   starlark.Value
}

func (fl *fields) pairs() []any {
	return []any{
		"j?", &fl.j,
		"a?", &fl.a,
		"x?", &fl.x,
		"h?", &fl.h,
		"i?", &fl.i,
		"b?", &fl.b,
		"d?", &fl.d,
		"u?", &fl.u,
	}
}

func (fl *fields) extended(f uint64) (iw word.Instruction, err error) {
	iw = word.Extended(f, uint64(fl.j), uint64(fl.a), uint64(fl.x), uint64(fl.h), uint64(fl.i), uint64(fl.b), uint64(fl.d))
	if fl.u != nil && fl.u != starlark.None {
		var u word.Word
		u, err = asWord(fl.u)
		iw = iw.WithU(uint64(u))
	}
	return
}

func (fl *fields) basic(f uint64) (iw word.Instruction, err error) {
	var u word.Word
	if fl.u != nil && fl.u != starlark.None {
		u, err = asWord(fl.u)
	}
	iw = word.Basic(f, uint64(fl.j), uint64(fl.a), uint64(fl.x), uint64(fl.h), uint64(fl.i), uint64(u))
	return
}

// extended(f, j=0, a=0, x=0, h=0, i=0, b=0, d=0, u=None) encodes an
// extended mode instruction; u replaces the b and d fields.
func (sc *script) extended(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (value starlark.Value, err error) {
	var f int
	var fl fields
	err = starlark.UnpackArgs(b.Name(), args, kwargs, append([]any{"f", &f}, fl.pairs()...)...)
	if err != nil {
		return
	}
	iw, err := fl.extended(uint64(f))
	if err != nil {
		return
	}
	value = wordValue(iw.Word())
	return
}

// basic(f, j=0, a=0, x=0, h=0, i=0, u=0) encodes a basic mode instruction.
func (sc *script) basic(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (value starlark.Value, err error) {
	var f int
	var fl fields
	err = starlark.UnpackArgs(b.Name(), args, kwargs, append([]any{"f", &f}, fl.pairs()...)...)
	if err != nil {
		return
	}
	iw, err := fl.basic(uint64(f))
	if err != nil {
		return
	}
	value = wordValue(iw.Word())
	return
}

// findOpcode looks up an instruction by name in one mode.
func findOpcode(name string, basic bool) (op *cpu.Opcode, ok bool) {
	mode := cpu.MODE_EXTENDED
	if basic {
		mode = cpu.MODE_BASIC
	}
	for op = range cpu.Opcodes() {
		if op.Mode&mode != 0 && strings.EqualFold(op.Name, name) {
			return op, true
		}
	}
	return nil, false
}

// op(name, j=0, a=0, x=0, h=0, i=0, b=0, d=0, u=None, basic=False)
// encodes an instruction by mnemonic. The j and a fields are taken from the
// function table when the instruction decodes on them.
func (sc *script) op(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (value starlark.Value, err error) {
	var name string
	var basic bool
	var fl fields
	pairs := append([]any{"name", &name}, fl.pairs()...)
	pairs = append(pairs, "basic?", &basic)
	err = starlark.UnpackArgs(b.Name(), args, kwargs, pairs...)
	if err != nil {
		return
	}

	op, ok := findOpcode(name, basic)
	if !ok {
		err = fmt.Errorf("%s: %w: %q", b.Name(), ErrScriptOpcode, name)
		return
	}
	if op.J != cpu.ANY {
		fl.j = op.J
	}
	if op.A != cpu.ANY {
		fl.a = op.A
	}

	var iw word.Instruction
	if basic {
		iw, err = fl.basic(op.F)
	} else {
		iw, err = fl.extended(op.F)
	}
	if err != nil {
		return
	}
	value = wordValue(iw.Word())
	return
}

// word(v) is the ones complement word holding v.
func (sc *script) word(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (value starlark.Value, err error) {
	var v starlark.Value
	err = starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 1, &v)
	if err != nil {
		return
	}
	w, err := asWord(v)
	if err != nil {
		return
	}
	value = wordValue(w)
	return
}

// ascii(text) packs text four characters to a word.
func (sc *script) ascii(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (value starlark.Value, err error) {
	var text string
	err = starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 1, &text)
	if err != nil {
		return
	}
	var list []starlark.Value
	for _, w := range word.ASCII(text) {
		list = append(list, wordValue(w))
	}
	value = starlark.NewList(list)
	return
}

// va(level, bdi, offset=0) is the word form of a virtual address.
func (sc *script) va(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (value starlark.Value, err error) {
	var level, bdi, offset int
	err = starlark.UnpackArgs(b.Name(), args, kwargs, "level", &level, "bdi", &bdi, "offset?", &offset)
	if err != nil {
		return
	}
	va := bank.VirtualAddress{Level: uint64(level) & 07, BDI: uint64(bdi) & 077777, Offset: uint64(offset) & 0777777}
	value = wordValue(va.Word())
	return
}

// Predeclared is the set of names defined for an image script, other than
// the builtin functions.
func Predeclared() starlark.StringDict {
	dict := starlark.StringDict{}
	for name, value := range internal.Concat2(registers(), partials(), designators(), constants()) {
		dict[name] = starlark.MakeUint64(value)
	}
	return dict
}

// ParseStarlark runs an image script, and returns the image it describes.
// The source may be a string, a byte slice or an io.Reader.
func ParseStarlark(name string, src any) (img *Image, err error) {
	sc := &script{
		img:    &Image{Name: name},
		offset: -1,
	}

	thread := &starlark.Thread{
		Name: name,
		Print: func(thread *starlark.Thread, msg string) {
			log.Printf("%v: %v", thread.Name, msg)
		},
	}

	predeclared := Predeclared()
	for key, value := range sc.builtins() {
		predeclared[key] = value
	}

	_, err = starlark.ExecFileOptions(&syntax.FileOptions{}, thread, name, src, predeclared)
	if err != nil {
		err = &ErrImage{Name: name, Err: err}
		return
	}

	if sc.start == "" {
		err = &ErrImage{Name: name, Err: ErrStartMissing}
		return
	}
	bk, ok := sc.img.Bank(sc.start)
	if !ok {
		err = &ErrImage{Name: name, Err: &ErrBank{Name: sc.start, Err: ErrBankMissing}}
		return
	}
	offset := bk.Lower
	if sc.offset >= 0 {
		offset = uint64(sc.offset)
	}
	sc.img.Start = bk.Address(offset)
	sc.img.Designator = cpu.DesignatorRegister(sc.designator)

	img = sc.img
	err = img.Validate()
	if err != nil {
		img = nil
	}
	return
}
