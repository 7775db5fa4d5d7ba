package app

import (
	"fmt"
	"math/bits"
	"time"

	"github.com/pkg/errors"
)

// SectorRange selects a contiguous run of sectors across commands
type SectorRange struct {
	Start uint64
	Count uint64
}

// Validate ensures the range is non-empty and fits within sectorCount sectors
func (sr *SectorRange) Validate(sectorCount uint64) error {
	if sr.Count == 0 {
		return errors.New("sector count must be greater than zero")
	}
	end, carry := bits.Add64(sr.Start, sr.Count, 0)
	if carry != 0 || end > sectorCount {
		return errors.Errorf("sectors [%d, %d) exceed the %d-sector device", sr.Start, sr.Start+sr.Count, sectorCount)
	}
	return nil
}

// End returns the first sector past the range
func (sr *SectorRange) End() uint64 {
	return sr.Start + sr.Count
}

// String returns a string representation of the range
func (sr *SectorRange) String() string {
	if sr.Count == 1 {
		return fmt.Sprintf("Sector %d", sr.Start)
	}
	return fmt.Sprintf("Sectors %d-%d", sr.Start, sr.End()-1)
}

// ProgressUpdate represents progress information
type ProgressUpdate struct {
	Message     string
	Completed   int64
	Total       int64
	StartedAt   time.Time
	ElapsedTime time.Duration
}

// Percent calculates completion percentage
func (p *ProgressUpdate) Percent() int {
	if p.Total == 0 {
		return 0
	}
	return int((p.Completed * 100) / p.Total)
}

// Rate calculates items per second
func (p *ProgressUpdate) Rate() float64 {
	if p.ElapsedTime == 0 {
		return 0
	}
	return float64(p.Completed) / p.ElapsedTime.Seconds()
}

// ETA estimates time to completion
func (p *ProgressUpdate) ETA() time.Duration {
	if p.Completed == 0 || p.Total == 0 {
		return 0
	}
	rate := p.Rate()
	if rate == 0 {
		return 0
	}
	remaining := p.Total - p.Completed
	return time.Duration(float64(remaining) / rate * float64(time.Second))
}

// CommonError represents application-level errors
type CommonError struct {
	Code    string
	Message string
	Cause   error
}

func (e *CommonError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *CommonError) Unwrap() error {
	return e.Cause
}

// Common error codes
const (
	ErrCodeInvalidInput = "INVALID_INPUT"
	ErrCodeDeviceInit   = "DEVICE_INIT"
	ErrCodeVerifyFailed = "VERIFY_FAILED"
	ErrCodeTimeout      = "TIMEOUT"
	ErrCodeInternal     = "INTERNAL"
)

// NewError creates a new CommonError
func NewError(code, message string, cause error) *CommonError {
	return &CommonError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// ErrorCode returns the code of the first CommonError in err's chain, or ""
func ErrorCode(err error) string {
	var ce *CommonError
	if errors.As(err, &ce) {
		return ce.Code
	}
	return ""
}
