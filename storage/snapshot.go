package storage

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/ezrec/em2200/word"
)

// CreateFS is a file system that can be written to.
type CreateFS interface {
	// Sub returns a filesystem for a subdirectory.
	Sub(name string) (sub CreateFS, err error)
	// Create creates a new file for writing.
	Create(name string) (file io.WriteCloser, err error)
	// Mkdir creates a new directory with the specified permissions.
	Mkdir(name string, filemode fs.FileMode) (err error)
}

// DirFS is a CreateFS rooted at an operating system directory.
type DirFS string

var _ CreateFS = DirFS("")

func (dir DirFS) Sub(name string) (sub CreateFS, err error) {
	path := filepath.Join(string(dir), name)
	info, err := os.Stat(path)
	if err != nil {
		return
	}
	if !info.IsDir() {
		err = &fs.PathError{Op: "sub", Path: path, Err: fs.ErrInvalid}
		return
	}
	sub = DirFS(path)
	return
}

func (dir DirFS) Create(name string) (file io.WriteCloser, err error) {
	return os.Create(filepath.Join(string(dir), name))
}

func (dir DirFS) Mkdir(name string, filemode fs.FileMode) (err error) {
	return os.Mkdir(filepath.Join(string(dir), name), filemode)
}

var _segment_file = regexp.MustCompile(`^[0-7]{6}\.seg$`)

// Marshal writes a snapshot of every segment as NNNNNN.seg (octal index),
// one octal word per line, into the msp%02d directory of filesys.
func (msp *MSP) Marshal(filesys CreateFS) (err error) {
	dir_name := fmt.Sprintf("msp%02d", msp.UPI)
	subsys, err := filesys.Sub(dir_name)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return
		}
		err = filesys.Mkdir(dir_name, 0755)
		if err != nil {
			return
		}
		subsys, err = filesys.Sub(dir_name)
		if err != nil {
			return
		}
	}

	for index, seg := range msp.Segments() {
		err = marshalSegment(subsys, index, seg)
		if err != nil {
			return
		}
	}

	return
}

func marshalSegment(filesys CreateFS, index uint64, seg *Segment) (err error) {
	file, err := filesys.Create(fmt.Sprintf("%06o.seg", index))
	if err != nil {
		return
	}
	defer func() {
		err = errors.Join(err, file.Close())
	}()

	out := bufio.NewWriter(file)
	for _, w := range seg.Words {
		_, err = fmt.Fprintf(out, "%012o\n", w.W())
		if err != nil {
			return
		}
	}

	err = out.Flush()
	return
}

// Unmarshal restores segments from a snapshot written by Marshal. The
// fixed segment keeps its size; dynamic segments are recreated.
func (msp *MSP) Unmarshal(filesys fs.FS) (err error) {
	dir_name := fmt.Sprintf("msp%02d", msp.UPI)
	subsys, err := fs.Sub(filesys, dir_name)
	if err != nil {
		return
	}

	return fs.WalkDir(subsys, ".", func(path string, d fs.DirEntry, err_in error) (err error) {
		if err_in != nil {
			return err_in
		}
		if d.IsDir() || !_segment_file.MatchString(d.Name()) {
			return
		}

		index, err := strconv.ParseUint(strings.TrimSuffix(d.Name(), ".seg"), 8, 32)
		if err != nil {
			return
		}

		file, err := subsys.Open(path)
		if err != nil {
			return
		}
		defer file.Close()

		words, err := unmarshalWords(file)
		if err != nil {
			return ErrSegment{Index: index, Err: err}
		}

		return msp.restore(index, words)
	})
}

func unmarshalWords(file io.Reader) (words []word.Word, err error) {
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if len(line) == 0 {
			continue
		}
		var value uint64
		value, err = strconv.ParseUint(line, 8, 36)
		if err != nil {
			err = errors.Join(ErrSnapshotSyntax, err)
			return
		}
		words = append(words, word.Word(value))
	}

	err = scanner.Err()
	return
}

func (msp *MSP) restore(index uint64, words []word.Word) (err error) {
	msp.mutex.Lock()
	defer msp.mutex.Unlock()

	if msp.segments == nil {
		msp.segments = make(map[uint64](*Segment))
	}

	seg, ok := msp.segments[index]
	if ok && index == FIXED_SEGMENT {
		if len(words) > len(seg.Words) {
			return ErrSegment{Index: index, Err: ErrSnapshotOverrun}
		}
		clear(seg.Words)
		copy(seg.Words, words)
		return
	}

	if len(words) == 0 {
		return ErrSegment{Index: index, Err: ErrSegmentSize}
	}

	if ok {
		msp.used -= seg.Len()
		seg.Words = words
	} else {
		msp.segments[index] = &Segment{Index: index, Words: words}
	}
	msp.used += uint64(len(words))

	msp.logf("restore segment %o, %d words", index, len(words))

	return
}
