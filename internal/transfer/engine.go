// Package transfer translates sector-addressed requests into per-block cipher
// operations over the backing store.
package transfer

import (
	"encoding/hex"
	"math/bits"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/deploymenttheory/go-ebd/internal/interfaces"
	"github.com/deploymenttheory/go-ebd/internal/types"
)

// Engine drives a BlockCodec over a BackingStore one cipher block at a time.
// It holds no lock of its own: callers serialize access with the device lock.
type Engine struct {
	store      interfaces.BackingStore
	codec      interfaces.BlockCodec
	sectorSize uint32
	blockSize  uint64
	log        *logrus.Entry
}

var _ interfaces.SectorTransferer = (*Engine)(nil)

// NewEngine wires a codec to a store. sectorSize must be non-zero.
func NewEngine(store interfaces.BackingStore, codec interfaces.BlockCodec, sectorSize uint32, log *logrus.Entry) (*Engine, error) {
	if store == nil {
		return nil, errors.Wrap(types.ErrInvalidConfig, "backing store is required")
	}
	if codec == nil {
		return nil, errors.Wrap(types.ErrInvalidConfig, "cipher codec is required")
	}
	if sectorSize == 0 {
		return nil, errors.Wrap(types.ErrInvalidConfig, "sector size must be greater than zero")
	}
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}

	return &Engine{
		store:      store,
		codec:      codec,
		sectorSize: sectorSize,
		blockSize:  uint64(codec.BlockSize()),
		log:        log,
	}, nil
}

// SectorSize returns the external sector size in bytes
func (e *Engine) SectorSize() uint32 {
	return e.sectorSize
}

// Capacity returns the number of addressable bytes
func (e *Engine) Capacity() uint64 {
	return e.store.Capacity()
}

// Span computes the byte range covered by count sectors starting at sector.
// It fails with types.ErrOutOfBounds when the range overflows or exceeds capacity.
func (e *Engine) Span(sector uint64, count uint32) (offset, length uint64, err error) {
	hi, offset := bits.Mul64(sector, uint64(e.sectorSize))
	length = uint64(count) * uint64(e.sectorSize)
	end, carry := bits.Add64(offset, length, 0)

	if hi != 0 || carry != 0 || end > e.store.Capacity() {
		return 0, 0, errors.Wrapf(types.ErrOutOfBounds,
			"sectors [%d, +%d) beyond capacity of %d bytes", sector, count, e.store.Capacity())
	}
	return offset, length, nil
}

// Transfer encrypts buf into the store (write) or decrypts the store into buf (read).
// Every check runs before the first block is touched, so a rejected transfer leaves
// both the store and buf unchanged.
func (e *Engine) Transfer(sector uint64, count uint32, buf []byte, dir types.Direction) error {
	if dir != types.DirectionRead && dir != types.DirectionWrite {
		return errors.Wrapf(types.ErrInvalidRequest, "unknown direction %s", dir)
	}
	if count == 0 {
		return errors.Wrap(types.ErrInvalidRequest, "sector count must be greater than zero")
	}

	offset, length, err := e.Span(sector, count)
	if err != nil {
		e.log.WithFields(logrus.Fields{
			"sector": sector,
			"count":  count,
			"dir":    dir.String(),
		}).Warn("Beyond-end transfer rejected")
		return err
	}

	if length%e.blockSize != 0 {
		return errors.Wrapf(types.ErrAlignment,
			"%d bytes is not a multiple of the %d-byte %s block", length, e.blockSize, e.codec.Algorithm())
	}
	if uint64(len(buf)) < length {
		return errors.Wrapf(types.ErrInvalidRequest, "buffer holds %d bytes, transfer needs %d", len(buf), length)
	}

	region, err := e.store.Region(offset, length)
	if err != nil {
		return err
	}

	bs := e.blockSize
	switch dir {
	case types.DirectionWrite:
		for i := uint64(0); i < length; i += bs {
			e.codec.EncryptBlock(region[i:i+bs], buf[i:i+bs])
		}
		e.preview(sector, dir, buf, region)

	case types.DirectionRead:
		for i := uint64(0); i < length; i += bs {
			e.codec.DecryptBlock(buf[i:i+bs], region[i:i+bs])
		}
		e.preview(sector, dir, buf, region)
	}

	return nil
}

// preview logs the leading bytes of plaintext and ciphertext at trace level
func (e *Engine) preview(sector uint64, dir types.Direction, plain, cipherText []byte) {
	if !e.log.Logger.IsLevelEnabled(logrus.TraceLevel) {
		return
	}

	n := types.HexPreviewLength
	if len(cipherText) < n {
		n = len(cipherText)
	}
	e.log.WithFields(logrus.Fields{
		"sector":     sector,
		"dir":        dir.String(),
		"plaintext":  hex.EncodeToString(plain[:n]),
		"ciphertext": hex.EncodeToString(cipherText[:n]),
	}).Trace("Transfer preview")
}
