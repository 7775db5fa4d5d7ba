package types

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestComputeGeometry(t *testing.T) {
	tests := []struct {
		name       string
		capacity   uint64
		sectorSize uint32
		want       Geometry
	}{
		{
			name:       "default drive",
			capacity:   1024 * 512,
			sectorSize: 512,
			want:       Geometry{Cylinders: 16, Heads: 4, SectorsPerTrack: 16, Start: 4, SectorCount: 1024},
		},
		{
			name:       "partial cylinder is dropped",
			capacity:   100 * 512,
			sectorSize: 512,
			want:       Geometry{Cylinders: 1, Heads: 4, SectorsPerTrack: 16, Start: 4, SectorCount: 100},
		},
		{
			name:       "smaller than one cylinder",
			capacity:   63 * 512,
			sectorSize: 512,
			want:       Geometry{Cylinders: 0, Heads: 4, SectorsPerTrack: 16, Start: 4, SectorCount: 63},
		},
		{
			name:       "large sectors still count kernel sectors",
			capacity:   1024 * 4096,
			sectorSize: 4096,
			want:       Geometry{Cylinders: 128, Heads: 4, SectorsPerTrack: 16, Start: 4, SectorCount: 1024},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ComputeGeometry(tt.capacity, tt.sectorSize))
		})
	}
}

func TestOp(t *testing.T) {
	dir, ok := OpRead.Direction()
	assert.True(t, ok)
	assert.Equal(t, DirectionRead, dir)

	dir, ok = OpWrite.Direction()
	assert.True(t, ok)
	assert.Equal(t, DirectionWrite, dir)

	for _, op := range []Op{OpFlush, OpDiscard, OpControl} {
		_, ok := op.Direction()
		assert.False(t, ok, op.String())
		assert.False(t, op.IsData())
	}
	assert.Equal(t, "op(42)", Op(42).String())
}

func TestStatusFromError(t *testing.T) {
	tests := []struct {
		err  error
		want Status
	}{
		{nil, StatusOK},
		{errors.Wrap(ErrOutOfBounds, "sector 1023"), StatusOutOfBounds},
		{errors.Wrap(ErrAlignment, "520 bytes"), StatusAlignment},
		{ErrNotSupported, StatusNotSupported},
		{errors.Wrap(ErrInvalidRequest, "zero count"), StatusInvalidRequest},
		{ErrDeviceClosed, StatusClosed},
		{ErrStoreClosed, StatusClosed},
		{context.Canceled, StatusCancelled},
		{errors.Wrap(context.DeadlineExceeded, "waiting for slot"), StatusCancelled},
		{errors.New("disk on fire"), StatusIOError},
	}

	for _, tt := range tests {
		t.Run(tt.want.String(), func(t *testing.T) {
			got := StatusFromError(tt.err)
			assert.Equal(t, tt.want, got)
			if tt.err != nil && tt.want != StatusIOError && tt.err != ErrStoreClosed && !errors.Is(tt.err, context.DeadlineExceeded) {
				assert.True(t, errors.Is(tt.err, got.Err()), "Err() round-trips for %s", got)
			}
		})
	}

	assert.Nil(t, StatusOK.Err())
	assert.Equal(t, ErrIO, StatusIOError.Err())
	assert.True(t, Completion{Status: StatusOK}.OK())
	assert.False(t, Completion{Status: StatusClosed}.OK())
}
