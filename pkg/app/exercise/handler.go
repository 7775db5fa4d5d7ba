package exercise

import (
	"bytes"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/deploymenttheory/go-ebd/internal/device"
	"github.com/deploymenttheory/go-ebd/internal/dispatch"
	"github.com/deploymenttheory/go-ebd/internal/types"
	"github.com/deploymenttheory/go-ebd/pkg/app"
)

// chunk is one request-sized slice of the exercised range
type chunk struct {
	sector uint64
	count  uint32
}

// Handle builds a device, drives the write and read-verify workload through it
// with concurrent workers, runs the probes and tears the device down. When the
// workload itself fails, the response is returned alongside a VERIFY_FAILED error.
func Handle(ctx *app.Context, req *Request) (resp *Response, err error) {
	startTime := time.Now()

	if req == nil {
		return nil, app.NewError(app.ErrCodeInvalidInput, "request is required", nil)
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	ctx.Progress("Creating device...", 5)

	dev, err := device.New(req.Config)
	if err != nil {
		if errors.Is(err, types.ErrInvalidConfig) {
			return nil, app.NewError(app.ErrCodeInvalidInput, "invalid device configuration", err)
		}
		return nil, app.NewError(app.ErrCodeDeviceInit, "failed to create device", err)
	}
	defer func() {
		if cerr := dev.Close(); cerr != nil {
			err = multierr.Append(err, app.NewError(app.ErrCodeInternal, "failed to release device", cerr))
		}
	}()

	rng := req.Range()
	ctx.Log(fmt.Sprintf("Exercising %s of device %s with %d workers", rng.String(), dev.ID(), req.Workers))

	resp = &Response{
		DeviceID:  dev.ID().String(),
		Cipher:    dev.Cipher(),
		Scheduler: dev.Scheduler(),
		Range:     rng.String(),
		Pattern:   req.Pattern,
		Workers:   req.Workers,
	}

	chunks := split(rng, req.SectorsPerRequest)

	ctx.Progress("Writing...", 15)
	resp.Phases = append(resp.Phases, runPhase(ctx, dev, req, chunks, PhaseWrite))

	ctx.Progress("Checking ciphertext...", 45)
	resp.Probes = append(resp.Probes, probeOpacity(dev, req, chunks[0]))

	ctx.Progress("Reading and verifying...", 50)
	resp.Phases = append(resp.Phases, runPhase(ctx, dev, req, chunks, PhaseVerify))

	if req.ProbeBounds {
		ctx.Progress("Probing...", 85)
		resp.Probes = append(resp.Probes, probeBounds(ctx, dev)...)
	}

	resp.Stats = dev.Stats()
	resp.Elapsed = time.Since(startTime)
	resp.Passed = passed(resp)

	ctx.Progress("Complete", 100)
	ctx.Log(FormatSummary(resp))

	if !resp.Passed {
		return resp, app.NewError(app.ErrCodeVerifyFailed, "device exercise failed", errors.New(FormatSummary(resp)))
	}
	return resp, nil
}

// split cuts a range into request-sized chunks
func split(rng app.SectorRange, perRequest uint32) []chunk {
	var chunks []chunk
	for s := rng.Start; s < rng.End(); s += uint64(perRequest) {
		n := uint64(perRequest)
		if rest := rng.End() - s; rest < n {
			n = rest
		}
		chunks = append(chunks, chunk{sector: s, count: uint32(n)})
	}
	return chunks
}

// runPhase submits every chunk from a bounded pool of workers
func runPhase(ctx *app.Context, dev *device.Device, req *Request, chunks []chunk, phase string) PhaseResult {
	start := time.Now()
	sectorSize := dev.SectorSize()

	var failed, mismatched atomic.Int64
	var moved atomic.Uint64

	bounded, cancel := ctx.WithTimeout(ctx.DefaultTimeout)
	defer cancel()

	g, gctx := errgroup.WithContext(bounded)
	g.SetLimit(req.Workers)

	for _, c := range chunks {
		c := c
		g.Go(func() error {
			size := uint64(c.count) * uint64(sectorSize)
			expected := make([]byte, size)
			fillPattern(req.Pattern, c.sector, sectorSize, expected)

			var completion types.Completion
			var got []byte
			if phase == PhaseWrite {
				completion = dev.Submit(gctx, c.sector, c.count, expected, types.DirectionWrite)
			} else {
				got = make([]byte, size)
				completion = dev.Submit(gctx, c.sector, c.count, got, types.DirectionRead)
			}

			if !completion.OK() {
				failed.Add(1)
				ctx.Log(fmt.Sprintf("%s of sectors %d+%d failed: %s", phase, c.sector, c.count, completion.Status))
				return nil
			}
			moved.Add(size)

			if got != nil && !bytes.Equal(got, expected) {
				mismatched.Add(1)
				ctx.Log(fmt.Sprintf("sectors %d+%d read back different data", c.sector, c.count))
			}
			return nil
		})
	}
	_ = g.Wait()

	return PhaseResult{
		Name:       phase,
		Requests:   len(chunks),
		Bytes:      moved.Load(),
		Failed:     int(failed.Load()),
		Mismatched: int(mismatched.Load()),
		Elapsed:    time.Since(start),
	}
}

// probeOpacity checks that the stored bytes of a written chunk differ from its plaintext
func probeOpacity(dev *device.Device, req *Request, c chunk) ProbeResult {
	result := ProbeResult{Name: ProbeOpacity, Expected: "ciphertext differs from plaintext"}

	raw, err := dev.ReadRaw(c.sector, c.count)
	if err != nil {
		result.Got = err.Error()
		return result
	}

	plain := make([]byte, len(raw))
	fillPattern(req.Pattern, c.sector, dev.SectorSize(), plain)
	if bytes.Equal(raw, plain) {
		result.Got = "plaintext stored unencrypted"
		return result
	}

	result.Got = "ciphertext differs from plaintext"
	result.Passed = true
	return result
}

// probeBounds checks that a write straddling the end is rejected without touching
// the last sector and that a flush is reported as unsupported
func probeBounds(parent *app.Context, dev *device.Device) []ProbeResult {
	ctx, cancel := parent.WithTimeout(parent.DefaultTimeout)
	defer cancel()

	last := dev.SectorCount() - 1
	size := int(dev.SectorSize())

	before, beforeErr := dev.ReadRaw(last, 1)

	oob := dev.Submit(ctx, last, 2, bytes.Repeat([]byte{0xAA}, 2*size), types.DirectionWrite)
	results := []ProbeResult{{
		Name:     ProbeOutOfBounds,
		Expected: types.StatusOutOfBounds.String(),
		Got:      oob.Status.String(),
		Passed:   oob.Status == types.StatusOutOfBounds,
	}}

	after, afterErr := dev.ReadRaw(last, 1)
	boundary := ProbeResult{Name: ProbeBoundary, Expected: "last sector unchanged"}
	switch {
	case beforeErr != nil || afterErr != nil:
		boundary.Got = multierr.Combine(beforeErr, afterErr).Error()
	case !bytes.Equal(before, after):
		boundary.Got = "last sector modified"
	default:
		boundary.Got = "last sector unchanged"
		boundary.Passed = true
	}
	results = append(results, boundary)

	flush := dev.SubmitRequest(ctx, dispatch.NewRequest(types.OpFlush, 0, 0, nil))
	results = append(results, ProbeResult{
		Name:     ProbeFlush,
		Expected: types.StatusNotSupported.String(),
		Got:      flush.Status.String(),
		Passed:   flush.Status == types.StatusNotSupported,
	})

	return results
}

func passed(resp *Response) bool {
	for i := range resp.Phases {
		if !resp.Phases[i].Passed() {
			return false
		}
	}
	for _, p := range resp.Probes {
		if !p.Passed {
			return false
		}
	}
	return true
}
