package types

// Device Constants
// Values the block device falls back to when the configuration leaves them unset,
// and the fixed numbers used by the synthetic disk geometry.

const (
	// KernelSectorSize is the sector size hosts assume when computing geometry.
	KernelSectorSize uint32 = 512

	// DefaultSectorSize is the external sector size of the device.
	DefaultSectorSize uint32 = 512

	// DefaultDriveSize is the default device size, in sectors.
	DefaultDriveSize uint64 = 1024

	// DefaultKey is a placeholder passphrase that should be overridden.
	DefaultKey = "password"

	// DefaultCipher is the block cipher used when none is configured.
	DefaultCipher = "aes"

	// DefaultKeyDerivation is the key derivation applied to the configured key.
	DefaultKeyDerivation = "pbkdf2"

	// DefaultKeySalt is the PBKDF2 salt used when none is configured.
	DefaultKeySalt = "go-ebd"

	// DefaultKeyIterations is the PBKDF2 iteration count used when none is configured.
	DefaultKeyIterations = 4096

	// DefaultQueueDepth is the capacity of the dispatcher intake queue.
	DefaultQueueDepth = 64

	// DefaultScheduler is the request ordering policy of the dispatcher.
	DefaultScheduler = "fifo"

	// HexPreviewLength is the number of bytes shown in trace-level transfer previews.
	HexPreviewLength = 15
)

// Synthetic geometry. The device has no physical layout, so these are made up
// the same way small RAM disks report them.
const (
	// GeometryHeads is the number of heads reported.
	GeometryHeads uint8 = 4

	// GeometrySectorsPerTrack is the number of sectors per track reported.
	GeometrySectorsPerTrack uint8 = 16

	// GeometryStart is the sector at which data starts.
	GeometryStart uint64 = 4

	// GeometryCylinderMask clears the low bits before the cylinder shift.
	GeometryCylinderMask uint64 = 0x3f

	// GeometryCylinderShift converts kernel sectors into cylinders.
	GeometryCylinderShift = 6
)

// Scheduler names accepted by the dispatcher.
const (
	// SchedulerFIFO dispatches requests in arrival order.
	SchedulerFIFO = "fifo"

	// SchedulerSSTF dispatches the queued request nearest the current head position.
	SchedulerSSTF = "sstf"
)
