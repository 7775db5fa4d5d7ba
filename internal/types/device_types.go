package types

import "fmt"

// Direction is the data direction of a transfer.
type Direction uint8

const (
	// DirectionRead decrypts from the backing store into the caller's buffer.
	DirectionRead Direction = iota

	// DirectionWrite encrypts from the caller's buffer into the backing store.
	DirectionWrite
)

// String returns the direction name.
func (d Direction) String() string {
	switch d {
	case DirectionRead:
		return "read"
	case DirectionWrite:
		return "write"
	default:
		return fmt.Sprintf("direction(%d)", uint8(d))
	}
}

// Op is the kind of request delivered by the host I/O path.
// Only data requests carry a direction; everything else is a control request.
type Op uint8

const (
	OpRead Op = iota
	OpWrite
	OpFlush
	OpDiscard
	OpControl
)

// String returns the op name.
func (o Op) String() string {
	switch o {
	case OpRead:
		return "read"
	case OpWrite:
		return "write"
	case OpFlush:
		return "flush"
	case OpDiscard:
		return "discard"
	case OpControl:
		return "control"
	default:
		return fmt.Sprintf("op(%d)", uint8(o))
	}
}

// IsData reports whether the op moves sector data.
func (o Op) IsData() bool {
	return o == OpRead || o == OpWrite
}

// Direction maps a data op to its transfer direction.
// The second return is false for control requests.
func (o Op) Direction() (Direction, bool) {
	switch o {
	case OpRead:
		return DirectionRead, true
	case OpWrite:
		return DirectionWrite, true
	default:
		return 0, false
	}
}

// Status is the terminal completion status of a request.
type Status uint8

const (
	StatusOK Status = iota
	StatusOutOfBounds
	StatusAlignment
	StatusNotSupported
	StatusInvalidRequest
	StatusClosed
	StatusCancelled
	StatusIOError
)

// String returns the status name.
func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusOutOfBounds:
		return "out-of-bounds"
	case StatusAlignment:
		return "alignment"
	case StatusNotSupported:
		return "not-supported"
	case StatusInvalidRequest:
		return "invalid-request"
	case StatusClosed:
		return "closed"
	case StatusCancelled:
		return "cancelled"
	case StatusIOError:
		return "io-error"
	default:
		return fmt.Sprintf("status(%d)", uint8(s))
	}
}

// OK reports whether the status is StatusOK.
func (s Status) OK() bool {
	return s == StatusOK
}

// Completion is the terminal outcome of a request. Err carries the wrapped
// cause for any status other than StatusOK.
type Completion struct {
	Status Status
	Err    error
}

// OK reports whether the request completed successfully.
func (c Completion) OK() bool {
	return c.Status.OK()
}

// Geometry is the synthetic disk geometry reported to hosts.
type Geometry struct {
	Cylinders       uint64 `json:"cylinders" yaml:"cylinders"`
	Heads           uint8  `json:"heads" yaml:"heads"`
	SectorsPerTrack uint8  `json:"sectors_per_track" yaml:"sectors_per_track"`
	Start           uint64 `json:"start" yaml:"start"`
	SectorCount     uint64 `json:"sector_count" yaml:"sector_count"`
}

// ComputeGeometry derives the synthetic geometry from capacity alone.
// The cylinder count is computed over 512-byte kernel sectors regardless of the
// device's own sector size.
func ComputeGeometry(capacityBytes uint64, sectorSize uint32) Geometry {
	kernelSectors := capacityBytes / uint64(KernelSectorSize)
	var sectorCount uint64
	if sectorSize > 0 {
		sectorCount = capacityBytes / uint64(sectorSize)
	}
	return Geometry{
		Cylinders:       (kernelSectors &^ GeometryCylinderMask) >> GeometryCylinderShift,
		Heads:           GeometryHeads,
		SectorsPerTrack: GeometrySectorsPerTrack,
		Start:           GeometryStart,
		SectorCount:     sectorCount,
	}
}
