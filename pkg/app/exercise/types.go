package exercise

import (
	"time"

	"github.com/deploymenttheory/go-ebd/internal/device"
	"github.com/deploymenttheory/go-ebd/internal/dispatch"
	"github.com/deploymenttheory/go-ebd/pkg/app"
)

// Data patterns written by the workload
const (
	PatternSector = "sector" // sector number stamped into each sector
	PatternZero   = "zero"
	PatternOnes   = "ones"
	PatternRandom = "random" // pseudo-random, seeded per sector
)

// Phase and probe names
const (
	PhaseWrite  = "write"
	PhaseVerify = "read-verify"

	ProbeOpacity     = "ciphertext-opacity"
	ProbeOutOfBounds = "out-of-bounds-write"
	ProbeBoundary    = "boundary-untouched"
	ProbeFlush       = "flush-request"
)

// Request represents a device exercise request
type Request struct {
	Config device.Config

	// Workload shape
	StartSector       uint64
	Sectors           uint64
	SectorsPerRequest uint32
	Workers           int
	Pattern           string

	// ProbeBounds runs the out-of-bounds and unsupported-request probes
	ProbeBounds bool
}

// Range returns the exercised sectors
func (r *Request) Range() app.SectorRange {
	return app.SectorRange{Start: r.StartSector, Count: r.Sectors}
}

// Response represents exercise results
type Response struct {
	DeviceID  string                 `json:"device_id" yaml:"device_id"`
	Cipher    string                 `json:"cipher" yaml:"cipher"`
	Scheduler string                 `json:"scheduler" yaml:"scheduler"`
	Range     string                 `json:"range" yaml:"range"`
	Pattern   string                 `json:"pattern" yaml:"pattern"`
	Workers   int                    `json:"workers" yaml:"workers"`
	Phases    []PhaseResult          `json:"phases" yaml:"phases"`
	Probes    []ProbeResult          `json:"probes,omitempty" yaml:"probes,omitempty"`
	Stats     dispatch.StatsSnapshot `json:"stats" yaml:"stats"`
	Elapsed   time.Duration          `json:"elapsed" yaml:"elapsed"`
	Passed    bool                   `json:"passed" yaml:"passed"`
}

// PhaseResult summarises one workload phase
type PhaseResult struct {
	Name       string        `json:"name" yaml:"name"`
	Requests   int           `json:"requests" yaml:"requests"`
	Bytes      uint64        `json:"bytes" yaml:"bytes"`
	Failed     int           `json:"failed" yaml:"failed"`
	Mismatched int           `json:"mismatched" yaml:"mismatched"`
	Elapsed    time.Duration `json:"elapsed" yaml:"elapsed"`
}

// Passed reports whether every request in the phase succeeded
func (p *PhaseResult) Passed() bool {
	return p.Failed == 0 && p.Mismatched == 0
}

// Throughput returns bytes moved per second
func (p *PhaseResult) Throughput() float64 {
	progress := app.ProgressUpdate{Completed: int64(p.Bytes), ElapsedTime: p.Elapsed}
	return progress.Rate()
}

// ProbeResult records an expected-failure or property check
type ProbeResult struct {
	Name     string `json:"name" yaml:"name"`
	Expected string `json:"expected" yaml:"expected"`
	Got      string `json:"got" yaml:"got"`
	Passed   bool   `json:"passed" yaml:"passed"`
}
