// Package store provides the volatile backing store of the encrypted block device.
package store

import (
	"fmt"
	"io"
	"math"
	"math/bits"
	"sync"

	"github.com/pkg/errors"
	"github.com/shirou/gopsutil/mem"

	"github.com/deploymenttheory/go-ebd/internal/interfaces"
	"github.com/deploymenttheory/go-ebd/internal/types"
)

// availableMemory reports how many bytes the host can still hand out.
// Replaced in tests.
var availableMemory = func() (uint64, error) {
	vm, err := mem.VirtualMemory()
	if err != nil {
		return 0, err
	}
	return vm.Available, nil
}

// Memory is a fixed-capacity byte buffer holding the device's ciphertext
type Memory struct {
	mu       sync.RWMutex
	data     []byte
	capacity uint64
	closed   bool
}

var _ interfaces.BackingStore = (*Memory)(nil)

// NewMemory allocates a zero-filled store of exactly capacity bytes.
// It returns types.ErrOutOfMemory rather than a partially usable store when the
// allocation cannot be satisfied.
func NewMemory(capacity uint64) (*Memory, error) {
	if capacity == 0 {
		return nil, errors.Wrap(types.ErrInvalidConfig, "backing store capacity must be greater than zero")
	}
	if capacity > math.MaxInt {
		return nil, errors.Wrapf(types.ErrOutOfMemory, "capacity %d exceeds addressable memory", capacity)
	}

	// The probe is advisory: hosts where it is unavailable fall through to the allocation.
	if avail, err := availableMemory(); err == nil && capacity > avail {
		return nil, errors.Wrapf(types.ErrOutOfMemory, "capacity %d exceeds available memory %d", capacity, avail)
	}

	data, err := allocate(capacity)
	if err != nil {
		return nil, err
	}

	return &Memory{
		data:     data,
		capacity: capacity,
	}, nil
}

// allocate converts a refused slice allocation into an error
func allocate(capacity uint64) (data []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			data = nil
			err = errors.Wrapf(types.ErrOutOfMemory, "allocating %d bytes: %v", capacity, r)
		}
	}()
	return make([]byte, capacity), nil
}

// Capacity returns the size of the store in bytes
func (m *Memory) Capacity() uint64 {
	return m.capacity
}

// checkRange validates [offset, offset+length) against the capacity, including overflow
func (m *Memory) checkRange(offset, length uint64) error {
	end, carry := bits.Add64(offset, length, 0)
	if carry != 0 || end > m.capacity {
		return errors.Wrapf(types.ErrOutOfBounds, "range [%d, +%d) beyond capacity %d", offset, length, m.capacity)
	}
	return nil
}

// Region returns a view of [offset, offset+length) aliasing the store's memory.
// The view is only valid while the caller holds the device lock and the store is open.
func (m *Memory) Region(offset, length uint64) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, types.ErrStoreClosed
	}
	if err := m.checkRange(offset, length); err != nil {
		return nil, err
	}
	return m.data[offset : offset+length : offset+length], nil
}

// ReadSlice returns a copy of length bytes starting at offset
func (m *Memory) ReadSlice(offset, length uint64) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, types.ErrStoreClosed
	}
	if err := m.checkRange(offset, length); err != nil {
		return nil, err
	}

	out := make([]byte, length)
	copy(out, m.data[offset:offset+length])
	return out, nil
}

// WriteSlice copies data into the store at offset. Nothing is written on failure.
func (m *Memory) WriteSlice(offset uint64, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return types.ErrStoreClosed
	}
	if err := m.checkRange(offset, uint64(len(data))); err != nil {
		return err
	}

	copy(m.data[offset:], data)
	return nil
}

// ReadAt implements io.ReaderAt over the raw stored bytes
func (m *Memory) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, fmt.Errorf("negative offset %d", off)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return 0, types.ErrStoreClosed
	}
	if uint64(off) >= m.capacity {
		return 0, io.EOF
	}

	n := copy(p, m.data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// WriteAt implements io.WriterAt. Writes that would run past the end are rejected whole.
func (m *Memory) WriteAt(p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, fmt.Errorf("negative offset %d", off)
	}
	if err := m.WriteSlice(uint64(off), p); err != nil {
		return 0, err
	}
	return len(p), nil
}

// Close releases the buffer. Safe to call more than once.
func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil
	}
	m.closed = true
	m.data = nil
	return nil
}

// Closed reports whether the store has been released
func (m *Memory) Closed() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.closed
}
