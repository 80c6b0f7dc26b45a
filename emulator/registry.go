package emulator

import (
	"errors"
	"iter"
	"sync"

	"github.com/ezrec/em2200/cpu"
	"github.com/ezrec/em2200/internal"
	"github.com/ezrec/em2200/storage"
)

// Registry is the inventory of the processors of a partition, by UPI.
// A UPI names at most one processor, of either kind.
type Registry struct {
	mutex       sync.RWMutex
	instruction map[uint64]*cpu.Processor
	storage     map[uint64]*storage.MSP
}

var _ cpu.StorageLocator = (*Registry)(nil)

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		instruction: map[uint64]*cpu.Processor{},
		storage:     map[uint64]*storage.MSP{},
	}
}

func (reg *Registry) used(upi uint64) bool {
	_, ip := reg.instruction[upi]
	_, msp := reg.storage[upi]
	return ip || msp
}

// AddProcessor registers an instruction processor, and points its storage
// locator at the registry.
func (reg *Registry) AddProcessor(ip *cpu.Processor) (err error) {
	reg.mutex.Lock()
	defer reg.mutex.Unlock()

	if reg.used(ip.UPI) {
		err = errors.Join(ErrUPIDuplicate, ErrUPI(ip.UPI))
		return
	}
	ip.Storage = reg
	reg.instruction[ip.UPI] = ip
	return
}

// AddStorage registers a main storage processor.
func (reg *Registry) AddStorage(msp *storage.MSP) (err error) {
	reg.mutex.Lock()
	defer reg.mutex.Unlock()

	if reg.used(msp.UPI) {
		err = errors.Join(ErrUPIDuplicate, ErrUPI(msp.UPI))
		return
	}
	reg.storage[msp.UPI] = msp
	return
}

// Remove drops the processor with a UPI.
func (reg *Registry) Remove(upi uint64) (err error) {
	reg.mutex.Lock()
	defer reg.mutex.Unlock()

	if !reg.used(upi) {
		err = errors.Join(ErrUPIMissing, ErrUPI(upi))
		return
	}
	delete(reg.instruction, upi)
	delete(reg.storage, upi)
	return
}

// InstructionProcessor finds an instruction processor.
func (reg *Registry) InstructionProcessor(upi uint64) (ip *cpu.Processor, err error) {
	reg.mutex.RLock()
	defer reg.mutex.RUnlock()

	ip, ok := reg.instruction[upi]
	if !ok {
		err = errors.Join(ErrUPIMissing, ErrUPI(upi))
	}
	return
}

// MainStorage finds a main storage processor.
func (reg *Registry) MainStorage(upi uint64) (msp *storage.MSP, err error) {
	reg.mutex.RLock()
	defer reg.mutex.RUnlock()

	msp, ok := reg.storage[upi]
	if !ok {
		err = errors.Join(cpu.ErrStorageMissing, ErrUPI(upi))
	}
	return
}

// Processors iterates over the instruction processors in UPI order.
func (reg *Registry) Processors() iter.Seq2[uint64, *cpu.Processor] {
	reg.mutex.RLock()
	defer reg.mutex.RUnlock()

	return internal.Sorted(reg.instruction)
}

// ErrUPI names the UPI an error is about.
type ErrUPI uint64

func (err ErrUPI) Error() string {
	return f("upi %d", uint64(err))
}
