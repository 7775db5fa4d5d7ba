package dispatch

import (
	"fmt"
	"sync/atomic"

	"github.com/deploymenttheory/go-ebd/internal/types"
)

// State is the lifecycle position of a request
type State uint32

const (
	StateNew State = iota
	StateQueued
	StateInProgress
	StateCompletedOK
	StateCompletedError
)

// String returns the state name
func (s State) String() string {
	switch s {
	case StateNew:
		return "new"
	case StateQueued:
		return "queued"
	case StateInProgress:
		return "in-progress"
	case StateCompletedOK:
		return "completed-ok"
	case StateCompletedError:
		return "completed-error"
	default:
		return fmt.Sprintf("state(%d)", uint32(s))
	}
}

// Completion is the terminal outcome of a request
type Completion = types.Completion

// Request is one host I/O request. It is consumed exactly once by a dispatcher.
type Request struct {
	Op     types.Op
	Sector uint64
	Count  uint32
	Buffer []byte

	seq   uint64
	state atomic.Uint32
	done  chan Completion
}

// NewRequest builds a request for the given op and sector range
func NewRequest(op types.Op, sector uint64, count uint32, buf []byte) *Request {
	return &Request{
		Op:     op,
		Sector: sector,
		Count:  count,
		Buffer: buf,
	}
}

// NewDataRequest builds a read or write request
func NewDataRequest(dir types.Direction, sector uint64, count uint32, buf []byte) *Request {
	op := types.OpRead
	if dir == types.DirectionWrite {
		op = types.OpWrite
	}
	return NewRequest(op, sector, count, buf)
}

// State returns the current lifecycle state
func (r *Request) State() State {
	return State(r.state.Load())
}

// String describes the request for logs
func (r *Request) String() string {
	return fmt.Sprintf("%s sector=%d count=%d", r.Op, r.Sector, r.Count)
}

// end returns the sector just past the request, saturating on overflow
func (r *Request) end() uint64 {
	end := r.Sector + uint64(r.Count)
	if end < r.Sector {
		return ^uint64(0)
	}
	return end
}

func (r *Request) enqueue(seq uint64) {
	r.seq = seq
	r.done = make(chan Completion, 1)
	r.state.Store(uint32(StateQueued))
}

func (r *Request) begin() {
	r.state.Store(uint32(StateInProgress))
}

func (r *Request) complete(c Completion) {
	if c.OK() {
		r.state.Store(uint32(StateCompletedOK))
	} else {
		r.state.Store(uint32(StateCompletedError))
	}
	r.done <- c
}
