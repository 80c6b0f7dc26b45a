// Package storage simulates a Main Storage Processor: a UPI addressed pool
// of word segments shared by the instruction processors of a partition.
package storage

import (
	"iter"
	"log"
	"maps"
	"slices"
	"sync"

	"github.com/ezrec/em2200/word"
)

const (
	// MAX_SEGMENT_SIZE is the largest size a segment may be created with.
	MAX_SEGMENT_SIZE = 0x7FFF_FFFF

	// DEFAULT_CAPACITY is the default total number of words an MSP can hold.
	DEFAULT_CAPACITY = 1 << 24

	// FIXED_SEGMENT is the index of the fixed segment.
	FIXED_SEGMENT = 0
)

// Segment is a contiguous block of storage words. The Segment pointer is
// stable for the life of the segment; a resize replaces Words.
type Segment struct {
	Index uint64
	Words []word.Word
}

// Len is the segment size in words.
func (seg *Segment) Len() uint64 {
	if seg == nil {
		return 0
	}
	return uint64(len(seg.Words))
}

// MSP is a main storage processor.
//
// The segment table is safe for concurrent use. Access to the words of a
// segment is not synchronized; processors sharing storage must coordinate
// through the program they run.
type MSP struct {
	Verbose  bool   // Set to enable verbose logging.
	UPI      uint64 // Unique processor identifier.
	Capacity uint64 // Total word capacity; DEFAULT_CAPACITY when zero.

	mutex    sync.RWMutex
	segments map[uint64](*Segment)
	used     uint64
}

// NewMSP creates a storage processor with a fixed segment of fixed words.
func NewMSP(upi uint64, fixed uint64) (msp *MSP) {
	msp = &MSP{
		UPI: upi,
	}
	msp.segments = map[uint64](*Segment){
		FIXED_SEGMENT: &Segment{Index: FIXED_SEGMENT, Words: make([]word.Word, fixed)},
	}
	msp.used = fixed

	return
}

func (msp *MSP) capacity() uint64 {
	if msp.Capacity == 0 {
		return DEFAULT_CAPACITY
	}
	return msp.Capacity
}

func (msp *MSP) logf(format string, args ...any) {
	if msp.Verbose {
		log.Printf("msp%d: "+format, append([]any{msp.UPI}, args...)...)
	}
}

// Create allocates a new dynamic segment of size words, using the lowest
// free segment index.
func (msp *MSP) Create(size uint64) (index uint64, err error) {
	if size == 0 || size > MAX_SEGMENT_SIZE {
		err = ErrSegmentSize
		return
	}

	msp.mutex.Lock()
	defer msp.mutex.Unlock()

	if msp.used+size > msp.capacity() {
		err = ErrCapacity
		return
	}

	if msp.segments == nil {
		msp.segments = make(map[uint64](*Segment))
	}

	for index = 1; ; index++ {
		if _, ok := msp.segments[index]; !ok {
			break
		}
	}

	msp.segments[index] = &Segment{Index: index, Words: make([]word.Word, size)}
	msp.used += size

	msp.logf("create segment %o, %d words", index, size)

	return
}

// Delete releases a dynamic segment.
func (msp *MSP) Delete(index uint64) (err error) {
	if index == FIXED_SEGMENT {
		err = ErrSegment{Index: index, Err: ErrSegmentFixed}
		return
	}

	msp.mutex.Lock()
	defer msp.mutex.Unlock()

	seg, ok := msp.segments[index]
	if !ok {
		err = ErrSegment{Index: index, Err: ErrSegmentMissing}
		return
	}

	msp.used -= seg.Len()
	delete(msp.segments, index)

	msp.logf("delete segment %o", index)

	return
}

// Resize changes the size of a segment, preserving the words that fit.
func (msp *MSP) Resize(index uint64, size uint64) (err error) {
	if size == 0 || size > MAX_SEGMENT_SIZE {
		err = ErrSegment{Index: index, Err: ErrSegmentSize}
		return
	}

	msp.mutex.Lock()
	defer msp.mutex.Unlock()

	seg, ok := msp.segments[index]
	if !ok {
		err = ErrSegment{Index: index, Err: ErrSegmentMissing}
		return
	}

	old := seg.Len()
	if size > old && msp.used+(size-old) > msp.capacity() {
		err = ErrSegment{Index: index, Err: ErrCapacity}
		return
	}

	words := make([]word.Word, size)
	copy(words, seg.Words)
	seg.Words = words
	msp.used = msp.used - old + size

	msp.logf("resize segment %o, %d to %d words", index, old, size)

	return
}

// Segment looks up a segment by index.
func (msp *MSP) Segment(index uint64) (seg *Segment, err error) {
	msp.mutex.RLock()
	defer msp.mutex.RUnlock()

	seg, ok := msp.segments[index]
	if !ok {
		err = ErrSegment{Index: index, Err: ErrSegmentMissing}
		return
	}

	return
}

// Segments iterates over the segments in index order.
func (msp *MSP) Segments() iter.Seq2[uint64, *Segment] {
	msp.mutex.RLock()
	indices := slices.Sorted(maps.Keys(msp.segments))
	msp.mutex.RUnlock()

	return func(yield func(uint64, *Segment) bool) {
		for _, index := range indices {
			seg, err := msp.Segment(index)
			if err != nil {
				continue
			}
			if !yield(index, seg) {
				return
			}
		}
	}
}

// Used is the number of words allocated.
func (msp *MSP) Used() uint64 {
	msp.mutex.RLock()
	defer msp.mutex.RUnlock()

	return msp.used
}

// Clear releases every dynamic segment and zeros the fixed segment.
func (msp *MSP) Clear() {
	msp.mutex.Lock()
	defer msp.mutex.Unlock()

	fixed, ok := msp.segments[FIXED_SEGMENT]
	msp.segments = make(map[uint64](*Segment))
	msp.used = 0
	if ok {
		clear(fixed.Words)
		msp.segments[FIXED_SEGMENT] = fixed
		msp.used = fixed.Len()
	}

	msp.logf("clear")
}
