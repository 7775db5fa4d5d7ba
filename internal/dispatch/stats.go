package dispatch

import (
	"sync"

	"github.com/deploymenttheory/go-ebd/internal/types"
)

// StatsSnapshot is a point-in-time copy of dispatcher counters
type StatsSnapshot struct {
	Submitted      uint64            `json:"submitted" yaml:"submitted"`
	Completed      uint64            `json:"completed" yaml:"completed"`
	Failed         uint64            `json:"failed" yaml:"failed"`
	ByStatus       map[string]uint64 `json:"by_status" yaml:"by_status"`
	BytesRead      uint64            `json:"bytes_read" yaml:"bytes_read"`
	BytesWritten   uint64            `json:"bytes_written" yaml:"bytes_written"`
	QueueHighWater int               `json:"queue_high_water" yaml:"queue_high_water"`
}

// statistics tracks request outcomes
type statistics struct {
	mu             sync.Mutex
	submitted      uint64
	completed      uint64
	failed         uint64
	byStatus       map[types.Status]uint64
	bytesRead      uint64
	bytesWritten   uint64
	queueHighWater int
}

func newStatistics() *statistics {
	return &statistics{byStatus: make(map[types.Status]uint64)}
}

func (s *statistics) recordSubmit() {
	s.mu.Lock()
	s.submitted++
	s.mu.Unlock()
}

func (s *statistics) recordDepth(depth int) {
	s.mu.Lock()
	if depth > s.queueHighWater {
		s.queueHighWater = depth
	}
	s.mu.Unlock()
}

func (s *statistics) recordCompletion(r *Request, status types.Status, bytes uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.completed++
	s.byStatus[status]++
	if !status.OK() {
		s.failed++
		return
	}
	switch r.Op {
	case types.OpRead:
		s.bytesRead += bytes
	case types.OpWrite:
		s.bytesWritten += bytes
	}
}

func (s *statistics) snapshot() StatsSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	byStatus := make(map[string]uint64, len(s.byStatus))
	for status, n := range s.byStatus {
		byStatus[status.String()] = n
	}
	return StatsSnapshot{
		Submitted:      s.submitted,
		Completed:      s.completed,
		Failed:         s.failed,
		ByStatus:       byStatus,
		BytesRead:      s.bytesRead,
		BytesWritten:   s.bytesWritten,
		QueueHighWater: s.queueHighWater,
	}
}
