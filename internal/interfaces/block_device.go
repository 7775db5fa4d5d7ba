// File: internal/interfaces/block_device.go
package interfaces

import (
	"context"
	"io"

	"github.com/deploymenttheory/go-ebd/internal/types"
)

// BackingStore provides bounded access to the device's raw, encrypted content
type BackingStore interface {
	io.ReaderAt
	io.WriterAt
	io.Closer

	// Capacity returns the size of the store in bytes
	Capacity() uint64

	// ReadSlice returns a copy of length bytes starting at offset
	ReadSlice(offset, length uint64) ([]byte, error)

	// WriteSlice copies data into the store starting at offset
	WriteSlice(offset uint64, data []byte) error

	// Region returns a bounds-checked view of the store that aliases its memory.
	// Callers must hold the device lock for as long as they use the view.
	Region(offset, length uint64) ([]byte, error)
}

// SectorTransferer moves sector ranges between a caller buffer and the backing store
type SectorTransferer interface {
	// Transfer encrypts or decrypts count sectors starting at sector
	Transfer(sector uint64, count uint32, buf []byte, dir types.Direction) error

	// SectorSize returns the external sector size in bytes
	SectorSize() uint32

	// Capacity returns the number of addressable bytes
	Capacity() uint64
}

// BlockDevice is the surface exposed to a host I/O submission path
type BlockDevice interface {
	io.Closer

	// Submit runs a data request and returns its terminal completion
	Submit(ctx context.Context, sector uint64, count uint32, buf []byte, dir types.Direction) types.Completion

	// Geometry returns the synthetic disk geometry
	Geometry() types.Geometry

	// Capacity returns the total addressable size in bytes
	Capacity() uint64

	// SectorSize returns the external sector size in bytes
	SectorSize() uint32
}
