package dispatch

import (
	"strings"

	"github.com/google/btree"
	"github.com/pkg/errors"

	"github.com/deploymenttheory/go-ebd/internal/types"
)

// Scheduler orders queued requests. It is owned by the dispatcher worker and is
// never touched from more than one goroutine.
type Scheduler interface {
	// Name returns the policy name
	Name() string

	// Add queues a request
	Add(r *Request)

	// Next removes and returns the request to dispatch, or nil when empty
	Next() *Request

	// Len returns the number of queued requests
	Len() int
}

// NewScheduler resolves a policy name. Empty means FIFO.
func NewScheduler(name string) (Scheduler, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", types.SchedulerFIFO:
		return NewFIFOScheduler(), nil
	case types.SchedulerSSTF:
		return NewSSTFScheduler(0), nil
	default:
		return nil, errors.Wrapf(types.ErrInvalidConfig, "unknown scheduler %q", name)
	}
}

// FIFOScheduler dispatches requests in arrival order
type FIFOScheduler struct {
	queue []*Request
}

// NewFIFOScheduler creates an empty FIFO queue
func NewFIFOScheduler() *FIFOScheduler {
	return &FIFOScheduler{}
}

func (f *FIFOScheduler) Name() string { return types.SchedulerFIFO }

func (f *FIFOScheduler) Add(r *Request) {
	f.queue = append(f.queue, r)
}

func (f *FIFOScheduler) Next() *Request {
	if len(f.queue) == 0 {
		return nil
	}
	r := f.queue[0]
	f.queue[0] = nil
	f.queue = f.queue[1:]
	if len(f.queue) == 0 {
		f.queue = nil
	}
	return r
}

func (f *FIFOScheduler) Len() int { return len(f.queue) }

// SSTFScheduler keeps requests ordered by sector and dispatches the one closest
// to the current head position. After a dispatch the head moves to the end of
// the dispatched range. Ties go to the request at or above the head.
type SSTFScheduler struct {
	tree *btree.BTreeG[*Request]
	head uint64
}

// NewSSTFScheduler creates an empty scheduler with the head parked at the given sector
func NewSSTFScheduler(head uint64) *SSTFScheduler {
	return &SSTFScheduler{
		tree: btree.NewG[*Request](8, bySector),
		head: head,
	}
}

// bySector orders by sector, then by arrival
func bySector(a, b *Request) bool {
	if a.Sector != b.Sector {
		return a.Sector < b.Sector
	}
	return a.seq < b.seq
}

func (s *SSTFScheduler) Name() string { return types.SchedulerSSTF }

func (s *SSTFScheduler) Add(r *Request) {
	s.tree.ReplaceOrInsert(r)
}

func (s *SSTFScheduler) Next() *Request {
	if s.tree.Len() == 0 {
		return nil
	}

	// seq 0 is never assigned, so the pivot sorts before every request at the head
	pivot := &Request{Sector: s.head}

	var above, below *Request
	s.tree.AscendGreaterOrEqual(pivot, func(r *Request) bool {
		above = r
		return false
	})
	s.tree.DescendLessOrEqual(pivot, func(r *Request) bool {
		below = r
		return false
	})
	if below != nil {
		// earliest arrival among requests sharing that sector
		s.tree.AscendGreaterOrEqual(&Request{Sector: below.Sector}, func(r *Request) bool {
			below = r
			return false
		})
	}

	next := above
	if above == nil || (below != nil && s.head-below.Sector < above.Sector-s.head) {
		next = below
	}

	s.tree.Delete(next)
	s.head = next.end()
	return next
}

func (s *SSTFScheduler) Len() int { return s.tree.Len() }

// Head returns the current head position
func (s *SSTFScheduler) Head() uint64 { return s.head }
