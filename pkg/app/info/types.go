package info

import (
	"github.com/deploymenttheory/go-ebd/internal/device"
	"github.com/deploymenttheory/go-ebd/internal/types"
)

// Request represents a device description request
type Request struct {
	Config device.Config
}

// Response describes a freshly built device
type Response struct {
	ID            string         `json:"id" yaml:"id"`
	Capacity      uint64         `json:"capacity" yaml:"capacity"`
	SectorSize    uint32         `json:"sector_size" yaml:"sector_size"`
	SectorCount   uint64         `json:"sector_count" yaml:"sector_count"`
	Geometry      types.Geometry `json:"geometry" yaml:"geometry"`
	Cipher        string         `json:"cipher" yaml:"cipher"`
	BlockSize     int            `json:"block_size" yaml:"block_size"`
	KeyDerivation string         `json:"key_derivation" yaml:"key_derivation"`
	Scheduler     string         `json:"scheduler" yaml:"scheduler"`
	QueueDepth    int            `json:"queue_depth" yaml:"queue_depth"`
}

// BlocksPerSector returns how many cipher blocks one sector spans, or 0 when
// the sector size is not block aligned
func (r *Response) BlocksPerSector() int {
	if r.BlockSize == 0 || int(r.SectorSize)%r.BlockSize != 0 {
		return 0
	}
	return int(r.SectorSize) / r.BlockSize
}
