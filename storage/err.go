package storage

import (
	"errors"

	"github.com/ezrec/em2200/translate"
)

var f = translate.From

var (
	ErrSegmentMissing  = errors.New(f("segment missing"))
	ErrSegmentFixed    = errors.New(f("fixed segment cannot be released"))
	ErrSegmentSize     = errors.New(f("segment size invalid"))
	ErrCapacity        = errors.New(f("storage capacity exhausted"))
	ErrSnapshotSyntax  = errors.New(f("snapshot syntax"))
	ErrSnapshotOverrun = errors.New(f("snapshot larger than segment"))
)

// ErrSegment attaches a segment index to a storage error.
type ErrSegment struct {
	Index uint64
	Err   error
}

func (err ErrSegment) Error() string {
	return f("segment %o: %v", err.Index, err.Err)
}

func (err ErrSegment) Unwrap() error {
	return err.Err
}
