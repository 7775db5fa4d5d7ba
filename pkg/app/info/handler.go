package info

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/deploymenttheory/go-ebd/internal/device"
	"github.com/deploymenttheory/go-ebd/internal/types"
	"github.com/deploymenttheory/go-ebd/pkg/app"
)

// Handle builds a device from the request config, describes it and tears it down
func Handle(ctx *app.Context, req *Request) (*Response, error) {
	if req == nil {
		return nil, app.NewError(app.ErrCodeInvalidInput, "request is required", nil)
	}
	if err := req.Config.Validate(); err != nil {
		return nil, app.NewError(app.ErrCodeInvalidInput, "invalid device configuration", err)
	}

	ctx.Progress("Creating device...", 10)

	dev, err := device.New(req.Config)
	if err != nil {
		return nil, initError(err)
	}

	ctx.Log(fmt.Sprintf("Device %s created with %d sectors of %d bytes", dev.ID(), dev.SectorCount(), dev.SectorSize()))

	cfg := dev.Config()
	response := &Response{
		ID:            dev.ID().String(),
		Capacity:      dev.Capacity(),
		SectorSize:    dev.SectorSize(),
		SectorCount:   dev.SectorCount(),
		Geometry:      dev.Geometry(),
		Cipher:        dev.Cipher(),
		BlockSize:     dev.BlockSize(),
		KeyDerivation: cfg.KeyDerivation,
		Scheduler:     dev.Scheduler(),
		QueueDepth:    cfg.QueueDepth,
	}

	ctx.Progress("Releasing device...", 90)

	if err := dev.Close(); err != nil {
		return nil, app.NewError(app.ErrCodeInternal, "failed to release device", err)
	}

	ctx.Progress("Complete", 100)

	return response, nil
}

// initError classifies a device construction failure
func initError(err error) error {
	if errors.Is(err, types.ErrInvalidConfig) {
		return app.NewError(app.ErrCodeInvalidInput, "invalid device configuration", err)
	}
	return app.NewError(app.ErrCodeDeviceInit, "failed to create device", err)
}
