// Package device assembles the backing store, cipher codec, transfer engine and
// dispatcher into a single encrypted block device and owns its lifecycle.
package device

import (
	"context"
	"math/bits"
	"sync"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"go.uber.org/multierr"

	"github.com/deploymenttheory/go-ebd/internal/cipher"
	"github.com/deploymenttheory/go-ebd/internal/dispatch"
	"github.com/deploymenttheory/go-ebd/internal/interfaces"
	"github.com/deploymenttheory/go-ebd/internal/store"
	"github.com/deploymenttheory/go-ebd/internal/transfer"
	"github.com/deploymenttheory/go-ebd/internal/types"
)

// Device is an encrypted, sector-addressable block device backed by memory
type Device struct {
	id       uuid.UUID
	config   Config
	geometry types.Geometry
	log      *logrus.Entry

	store      *store.Memory
	codec      *cipher.Codec
	engine     *transfer.Engine
	dispatcher *dispatch.Dispatcher

	closeOnce sync.Once
	closeErr  error
}

var _ interfaces.BlockDevice = (*Device)(nil)

// New builds a device from config. On any failure every resource acquired so
// far is released and no device is returned.
func New(config Config) (*Device, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	logger := config.Logger
	if logger == nil {
		logger = logrus.New()
		lvl, _ := config.level()
		logger.SetLevel(lvl)
	}

	id := uuid.New()
	log := logger.WithField("device", id.String())

	hi, capacity := bits.Mul64(config.DriveSize, uint64(config.SectorSize))
	if hi != 0 {
		return nil, errors.Wrapf(types.ErrOutOfMemory,
			"%d sectors of %d bytes overflow the address space", config.DriveSize, config.SectorSize)
	}

	mem, err := store.NewMemory(capacity)
	if err != nil {
		log.WithError(err).Error("Backing store allocation failed")
		return nil, err
	}

	codec, err := cipher.New(cipher.Options{
		Algorithm:  config.Cipher,
		Key:        []byte(config.Key),
		Derivation: config.KeyDerivation,
		Salt:       []byte(config.KeySalt),
		Iterations: config.KeyIterations,
	})
	if err != nil {
		log.WithError(err).Error("Cipher setup failed")
		return nil, multierr.Append(err, mem.Close())
	}

	engine, err := transfer.NewEngine(mem, codec, config.SectorSize, log)
	if err != nil {
		return nil, multierr.Combine(err, codec.Close(), mem.Close())
	}

	sched, err := dispatch.NewScheduler(config.Scheduler)
	if err != nil {
		return nil, multierr.Combine(err, codec.Close(), mem.Close())
	}

	dispatcher, err := dispatch.New(engine, dispatch.Options{
		QueueDepth: config.QueueDepth,
		Scheduler:  sched,
		Logger:     log,
	})
	if err != nil {
		return nil, multierr.Combine(err, codec.Close(), mem.Close())
	}

	config.Key = ""
	config.Logger = logger

	d := &Device{
		id:         id,
		config:     config,
		geometry:   types.ComputeGeometry(capacity, config.SectorSize),
		log:        log,
		store:      mem,
		codec:      codec,
		engine:     engine,
		dispatcher: dispatcher,
	}

	log.WithFields(logrus.Fields{
		"capacity":    capacity,
		"sector_size": config.SectorSize,
		"sectors":     config.DriveSize,
		"cipher":      codec.Algorithm(),
		"scheduler":   sched.Name(),
		"cylinders":   d.geometry.Cylinders,
	}).Info("Encrypted block device ready")

	return d, nil
}

// ID returns the device instance id
func (d *Device) ID() uuid.UUID {
	return d.id
}

// Config returns the configuration the device was built with, without the key
func (d *Device) Config() Config {
	return d.config
}

// Geometry returns the synthetic disk geometry
func (d *Device) Geometry() types.Geometry {
	return d.geometry
}

// Capacity returns the total addressable size in bytes
func (d *Device) Capacity() uint64 {
	return d.engine.Capacity()
}

// SectorSize returns the external sector size in bytes
func (d *Device) SectorSize() uint32 {
	return d.engine.SectorSize()
}

// SectorCount returns the number of addressable sectors
func (d *Device) SectorCount() uint64 {
	return d.config.DriveSize
}

// Cipher returns the cipher algorithm name
func (d *Device) Cipher() string {
	return d.codec.Algorithm()
}

// BlockSize returns the cipher block size in bytes
func (d *Device) BlockSize() int {
	return d.codec.BlockSize()
}

// Scheduler returns the request scheduling policy
func (d *Device) Scheduler() string {
	return d.dispatcher.Scheduler()
}

// Stats returns a snapshot of the request counters
func (d *Device) Stats() dispatch.StatsSnapshot {
	return d.dispatcher.Stats()
}

// Submit runs one data request through the dispatcher and waits for its completion
func (d *Device) Submit(ctx context.Context, sector uint64, count uint32, buf []byte, dir types.Direction) types.Completion {
	return d.dispatcher.Submit(ctx, dispatch.NewDataRequest(dir, sector, count, buf))
}

// SubmitRequest runs a prepared request, including control requests
func (d *Device) SubmitRequest(ctx context.Context, r *dispatch.Request) types.Completion {
	return d.dispatcher.Submit(ctx, r)
}

// ReadSectors decrypts count sectors starting at sector into a new buffer
func (d *Device) ReadSectors(ctx context.Context, sector uint64, count uint32) ([]byte, error) {
	buf := make([]byte, uint64(count)*uint64(d.SectorSize()))
	c := d.Submit(ctx, sector, count, buf, types.DirectionRead)
	if !c.OK() {
		return nil, c.Err
	}
	return buf, nil
}

// WriteSectors encrypts data into the device starting at sector. data must be a
// whole number of sectors.
func (d *Device) WriteSectors(ctx context.Context, sector uint64, data []byte) error {
	size := uint64(d.SectorSize())
	if len(data) == 0 || uint64(len(data))%size != 0 {
		return errors.Wrapf(types.ErrInvalidRequest, "%d bytes is not a whole number of %d-byte sectors", len(data), size)
	}
	count := uint64(len(data)) / size
	if count > uint64(^uint32(0)) {
		return errors.Wrapf(types.ErrInvalidRequest, "%d sectors exceed a single request", count)
	}
	return d.Submit(ctx, sector, uint32(count), data, types.DirectionWrite).Err
}

// ReadRaw returns a copy of the stored ciphertext for a sector range
func (d *Device) ReadRaw(sector uint64, count uint32) ([]byte, error) {
	offset, length, err := d.engine.Span(sector, count)
	if err != nil {
		return nil, err
	}

	var raw []byte
	d.dispatcher.WithDeviceLock(func() {
		raw, err = d.store.ReadSlice(offset, length)
	})
	return raw, err
}

// Close stops the dispatcher after completing queued requests, then releases the
// cipher context and the backing store. Later calls return the first result.
func (d *Device) Close() error {
	d.closeOnce.Do(func() {
		d.closeErr = multierr.Combine(
			d.dispatcher.Close(),
			d.codec.Close(),
			d.store.Close(),
		)

		stats := d.dispatcher.Stats()
		d.log.WithFields(logrus.Fields{
			"completed": stats.Completed,
			"failed":    stats.Failed,
		}).Info("Encrypted block device closed")
	})
	return d.closeErr
}
