// Package loader installs loadable images into main storage and builds the
// initial processor state that starts them.
//
// An image is a set of banks, each with its initial contents, placed at a
// level and bank descriptor index, and a start address. Images are usually
// described in Starlark; see ParseStarlark.
package loader

import (
	"iter"
	"slices"

	"github.com/ezrec/em2200/bank"
	"github.com/ezrec/em2200/cpu"
	"github.com/ezrec/em2200/internal"
	"github.com/ezrec/em2200/word"
)

// Options are the attributes of an image bank.
type Options struct {
	WriteProtect bool // Clears write permission from both permission sets.
	Extended     bool // Extended mode bank; basic mode when clear.
	Dynamic      bool // Own dynamic segment; otherwise placed in the fixed segment.
	Large        bool // Large bank limit granularity.
}

// Bank is one bank of a loadable image.
type Bank struct {
	Name    string
	Level   uint64
	BDI     uint64
	Lower   uint64      // Lower limit; a multiple of 01000 (0100000 for large banks).
	Size    uint64      // Words; the bank is at least as large as Words.
	Words   []word.Word // Initial contents from Lower.
	Options Options
	GAP     bank.Permissions
	SAP     bank.Permissions
	Lock    bank.AccessInfo

	BaseRegister int // B1..B15 loaded with the bank at IPL; 0 for none.
}

// Len is the number of words the bank occupies.
func (bk *Bank) Len() uint64 {
	size := max(bk.Size, uint64(len(bk.Words)))
	if bk.Options.Large {
		size = (size + 077) &^ 077
	}
	return size
}

// Upper is the upper limit of the bank.
func (bk *Bank) Upper() uint64 {
	return bk.Lower + bk.Len() - 1
}

// Type is the bank descriptor type of the bank.
func (bk *Bank) Type() bank.Type {
	if bk.Options.Extended {
		return bank.EXTENDED_MODE
	}
	return bank.BASIC_MODE
}

// Address is the virtual address of an offset in the bank.
func (bk *Bank) Address(offset uint64) bank.VirtualAddress {
	return bank.VirtualAddress{Level: bk.Level, BDI: bk.BDI, Offset: offset}
}

// Contains reports if the virtual address names a word of the bank.
func (bk *Bank) Contains(va bank.VirtualAddress) bool {
	return va.Level == bk.Level && va.BDI == bk.BDI &&
		va.Offset >= bk.Lower && va.Offset <= bk.Upper()
}

// validate checks the placement and limits of the bank.
func (bk *Bank) validate() (err error) {
	switch {
	case bk.Level > 7 || bk.BDI > 077777:
		err = ErrBankIndex
	case bk.Level == 0 && bk.BDI < FIRST_USER_BDI:
		err = ErrBankIndex
	case bk.BDI == 0:
		err = ErrBankIndex
	case bk.Len() == 0:
		err = ErrBankLimits
	case bk.Options.Large && bk.Lower&077777 != 0:
		err = ErrBankLimits
	case !bk.Options.Large && (bk.Lower&0777 != 0 || bk.Upper() > 0777777):
		err = ErrBankLimits
	case bk.BaseRegister < 0 || bk.BaseRegister > 15:
		err = ErrBankRegister
	}
	if err != nil {
		err = &ErrBank{Name: bk.Name, Err: err}
	}
	return
}

// Image is a loadable program.
type Image struct {
	Name       string
	Banks      []*Bank
	Start      bank.VirtualAddress
	Designator cpu.DesignatorRegister // Initial designator register.
}

// Bank finds a bank by name.
func (img *Image) Bank(name string) (bk *Bank, ok bool) {
	index := slices.IndexFunc(img.Banks, func(bk *Bank) bool { return bk.Name == name })
	if index < 0 {
		return
	}
	return img.Banks[index], true
}

// Locate finds the bank holding a virtual address, and the index of the
// word in the bank's contents.
func (img *Image) Locate(va bank.VirtualAddress) (bk *Bank, index int, ok bool) {
	for _, bk = range img.Banks {
		if bk.Contains(va) {
			return bk, int(va.Offset - bk.Lower), true
		}
	}
	return nil, 0, false
}

// FixedWords is the size of fixed segment needed by the banks that are not
// dynamic.
func (img *Image) FixedWords() (words uint64) {
	for _, bk := range img.Banks {
		if !bk.Options.Dynamic {
			words += bk.Len()
		}
	}
	return
}

// Levels iterates over the bank levels used by the image, level 0 first.
func (img *Image) Levels() iter.Seq[uint64] {
	var upper []uint64
	for _, bk := range img.Banks {
		if bk.Level != 0 {
			upper = append(upper, bk.Level)
		}
	}
	slices.Sort(upper)
	return internal.Concat(slices.Values([]uint64{0}), slices.Values(slices.Compact(upper)))
}

// Words iterates over the initial contents of every bank.
func (img *Image) Words() iter.Seq2[bank.VirtualAddress, word.Word] {
	return func(yield func(va bank.VirtualAddress, w word.Word) bool) {
		for _, bk := range img.Banks {
			for n, w := range bk.Words {
				if !yield(bk.Address(bk.Lower+uint64(n)), w) {
					return
				}
			}
		}
	}
}

// Validate checks the image for overlapping banks and a valid start.
func (img *Image) Validate() (err error) {
	defer func() {
		if err != nil {
			err = &ErrImage{Name: img.Name, Err: err}
		}
	}()

	if len(img.Banks) == 0 {
		err = ErrImageEmpty
		return
	}

	names := map[string]bool{}
	places := map[uint64]bool{}
	registers := map[int]bool{}
	for _, bk := range img.Banks {
		err = bk.validate()
		if err != nil {
			return
		}

		place := bk.Address(0).LBDI()
		switch {
		case names[bk.Name], places[place]:
			err = &ErrBank{Name: bk.Name, Err: ErrBankDuplicate}
		case bk.BaseRegister != 0 && registers[bk.BaseRegister]:
			err = &ErrBank{Name: bk.Name, Err: ErrBankRegister}
		}
		if err != nil {
			return
		}
		names[bk.Name] = true
		places[place] = true
		if bk.BaseRegister != 0 {
			registers[bk.BaseRegister] = true
		}
	}

	bk, ok := img.StartBank()
	if !ok {
		err = ErrStartMissing
		if slices.ContainsFunc(img.Banks, func(bk *Bank) bool { return bk.Address(0).LBDI() == img.Start.LBDI() }) {
			err = ErrStartInvalid
		}
		return
	}
	if !bk.Options.Extended && bk.BaseRegister != 0 && bk.BaseRegister < bank.BR_BASIC_LO {
		err = &ErrBank{Name: bk.Name, Err: ErrBankRegister}
	}

	return
}

// StartBank is the bank holding the start address.
func (img *Image) StartBank() (bk *Bank, ok bool) {
	bk, _, ok = img.Locate(img.Start)
	return
}
