package dispatch

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deploymenttheory/go-ebd/internal/types"
)

func queued(sectors ...uint64) []*Request {
	reqs := make([]*Request, len(sectors))
	for i, s := range sectors {
		reqs[i] = NewRequest(types.OpRead, s, 1, nil)
		reqs[i].enqueue(uint64(i + 1))
	}
	return reqs
}

func drainOrder(s Scheduler) []uint64 {
	var order []uint64
	for r := s.Next(); r != nil; r = s.Next() {
		order = append(order, r.Sector)
	}
	return order
}

func TestNewScheduler(t *testing.T) {
	tests := []struct {
		name    string
		want    string
		wantErr bool
	}{
		{name: "", want: types.SchedulerFIFO},
		{name: "fifo", want: types.SchedulerFIFO},
		{name: " SSTF ", want: types.SchedulerSSTF},
		{name: "deadline", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := NewScheduler(tt.name)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, types.ErrInvalidConfig))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, s.Name())
			assert.Zero(t, s.Len())
			assert.Nil(t, s.Next())
		})
	}
}

func TestFIFOScheduler_ArrivalOrder(t *testing.T) {
	s := NewFIFOScheduler()
	for _, r := range queued(50, 10, 90, 10, 0) {
		s.Add(r)
	}
	assert.Equal(t, 5, s.Len())

	if diff := cmp.Diff([]uint64{50, 10, 90, 10, 0}, drainOrder(s)); diff != "" {
		t.Errorf("dispatch order mismatch (-want +got):\n%s", diff)
	}
	assert.Zero(t, s.Len())
}

func TestSSTFScheduler_ShortestSeekFirst(t *testing.T) {
	tests := []struct {
		name    string
		head    uint64
		sectors []uint64
		want    []uint64
	}{
		{
			name:    "sweeps upward from zero",
			head:    0,
			sectors: []uint64{50, 10, 90, 12},
			want:    []uint64{10, 12, 50, 90},
		},
		{
			name:    "alternates around the head",
			head:    50,
			sectors: []uint64{45, 56, 20, 90},
			want:    []uint64{45, 56, 90, 20},
		},
		{
			name:    "tie prefers the higher sector",
			head:    50,
			sectors: []uint64{46, 54},
			want:    []uint64{54, 46},
		},
		{
			name:    "request at the head goes first",
			head:    30,
			sectors: []uint64{31, 30, 29},
			want:    []uint64{30, 31, 29},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSSTFScheduler(tt.head)
			for _, r := range queued(tt.sectors...) {
				s.Add(r)
			}
			if diff := cmp.Diff(tt.want, drainOrder(s)); diff != "" {
				t.Errorf("dispatch order mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSSTFScheduler_SameSectorKeepsArrivalOrder(t *testing.T) {
	s := NewSSTFScheduler(0)
	reqs := queued(7, 7, 7)
	for _, r := range reqs {
		s.Add(r)
	}

	// the head moves past sector 7 after the first dispatch, so the rest are reached from below
	assert.Same(t, reqs[0], s.Next())
	assert.Same(t, reqs[1], s.Next())
	assert.Same(t, reqs[2], s.Next())
}

func TestSSTFScheduler_HeadAdvance(t *testing.T) {
	s := NewSSTFScheduler(0)

	r := NewRequest(types.OpWrite, 100, 8, nil)
	r.enqueue(1)
	s.Add(r)
	s.Next()
	assert.Equal(t, uint64(108), s.Head())

	r = NewRequest(types.OpWrite, math.MaxUint64-1, 4, nil)
	r.enqueue(2)
	s.Add(r)
	s.Next()
	assert.Equal(t, uint64(math.MaxUint64), s.Head(), "head saturates instead of wrapping")
}
