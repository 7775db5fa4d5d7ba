package exercise

import (
	"strings"

	"github.com/deploymenttheory/go-ebd/pkg/app"
)

// MaxWorkers bounds the number of concurrent submitters
const MaxWorkers = 256

// Validate validates an exercise request and fills in defaults
func (r *Request) Validate() error {
	if err := r.Config.Validate(); err != nil {
		return app.NewError(app.ErrCodeInvalidInput, "invalid device configuration", err)
	}

	// Zero sectors means the rest of the device from StartSector
	if r.Sectors == 0 && r.StartSector < r.Config.DriveSize {
		r.Sectors = r.Config.DriveSize - r.StartSector
	}
	rng := r.Range()
	if err := rng.Validate(r.Config.DriveSize); err != nil {
		return app.NewError(app.ErrCodeInvalidInput, "invalid sector range", err)
	}

	if r.SectorsPerRequest == 0 {
		r.SectorsPerRequest = 1
	}
	if uint64(r.SectorsPerRequest) > r.Sectors {
		return app.NewError(app.ErrCodeInvalidInput, "sectors per request cannot exceed the exercised range", nil)
	}

	if r.Workers == 0 {
		r.Workers = 1
	}
	if r.Workers < 0 || r.Workers > MaxWorkers {
		return app.NewError(app.ErrCodeInvalidInput, "workers must be between 1 and 256", nil)
	}

	r.Pattern = strings.ToLower(strings.TrimSpace(r.Pattern))
	switch r.Pattern {
	case "":
		r.Pattern = PatternSector
	case PatternSector, PatternZero, PatternOnes, PatternRandom:
	default:
		return app.NewError(app.ErrCodeInvalidInput, "pattern must be one of sector, zero, ones, random", nil)
	}

	return nil
}
