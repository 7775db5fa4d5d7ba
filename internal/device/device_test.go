package device

import (
	"bytes"
	"context"
	"math"
	"testing"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"golang.org/x/sync/errgroup"

	"github.com/deploymenttheory/go-ebd/internal/dispatch"
	"github.com/deploymenttheory/go-ebd/internal/types"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newTestDevice(t *testing.T, mutate func(c *Config)) (*Device, *logtest.Hook) {
	t.Helper()

	logger, hook := logtest.NewNullLogger()
	config := DefaultConfig()
	config.Logger = logger
	if mutate != nil {
		mutate(&config)
	}

	d, err := New(config)
	require.NoError(t, err)
	t.Cleanup(func() { d.Close() })
	return d, hook
}

func TestNew_DefaultDevice(t *testing.T) {
	d, hook := newTestDevice(t, nil)

	assert.Equal(t, uint64(1024*512), d.Capacity())
	assert.Equal(t, uint32(512), d.SectorSize())
	assert.Equal(t, uint64(1024), d.SectorCount())
	assert.Equal(t, "aes", d.Cipher())
	assert.Equal(t, 16, d.BlockSize())
	assert.Equal(t, "fifo", d.Scheduler())
	assert.NotEqual(t, uuid.Nil, d.ID())
	assert.Empty(t, d.Config().Key, "the key is not retained in the device config")

	assert.Equal(t, types.Geometry{
		Cylinders:       16,
		Heads:           4,
		SectorsPerTrack: 16,
		Start:           4,
		SectorCount:     1024,
	}, d.Geometry())

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.InfoLevel, entry.Level)
	assert.Equal(t, "Encrypted block device ready", entry.Message)
}

func TestNew_ConstructionFailures(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr error
	}{
		{name: "zero drive size", mutate: func(c *Config) { c.DriveSize = 0 }, wantErr: types.ErrInvalidConfig},
		{name: "unknown scheduler", mutate: func(c *Config) { c.Scheduler = "cfq" }, wantErr: types.ErrInvalidConfig},
		{name: "unknown cipher", mutate: func(c *Config) { c.Cipher = "rot13" }, wantErr: types.ErrUnsupportedCipher},
		{name: "empty key", mutate: func(c *Config) { c.Key = "" }, wantErr: types.ErrUnsupportedCipherKey},
		{
			name: "raw key of wrong size",
			mutate: func(c *Config) {
				c.KeyDerivation = "raw"
				c.Key = "password"
			},
			wantErr: types.ErrUnsupportedCipherKey,
		},
		{name: "capacity overflows", mutate: func(c *Config) { c.DriveSize = math.MaxUint64 }, wantErr: types.ErrOutOfMemory},
		{name: "capacity beyond memory", mutate: func(c *Config) { c.DriveSize = 1 << 50 }, wantErr: types.ErrOutOfMemory},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, _ := logtest.NewNullLogger()
			config := DefaultConfig()
			config.Logger = logger
			tt.mutate(&config)

			d, err := New(config)
			require.Error(t, err)
			assert.Nil(t, d)
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
		})
	}
}

func TestDevice_Scenario(t *testing.T) {
	d, _ := newTestDevice(t, nil)
	ctx := context.Background()

	plain := bytes.Repeat([]byte{0xAA}, 512)
	c := d.Submit(ctx, 0, 1, plain, types.DirectionWrite)
	require.Equal(t, types.StatusOK, c.Status)

	got := make([]byte, 512)
	c = d.Submit(ctx, 0, 1, got, types.DirectionRead)
	require.Equal(t, types.StatusOK, c.Status)
	assert.Equal(t, plain, got)

	c = d.Submit(ctx, 1023, 2, bytes.Repeat([]byte{0xAA}, 1024), types.DirectionWrite)
	assert.Equal(t, types.StatusOutOfBounds, c.Status)
	assert.True(t, errors.Is(c.Err, types.ErrOutOfBounds))

	raw, err := d.ReadRaw(1023, 1)
	require.NoError(t, err)
	assert.Equal(t, make([]byte, 512), raw, "rejected write leaves sector 1023 untouched")
}

func TestDevice_CiphertextOpacity(t *testing.T) {
	for _, alg := range []string{"aes", "twofish", "blowfish", "cast5"} {
		t.Run(alg, func(t *testing.T) {
			d, _ := newTestDevice(t, func(c *Config) { c.Cipher = alg })
			ctx := context.Background()

			plain := bytes.Repeat([]byte("encrypted block!"), 64)
			require.NoError(t, d.WriteSectors(ctx, 10, plain))

			raw, err := d.ReadRaw(10, 2)
			require.NoError(t, err)
			assert.NotEqual(t, plain, raw)

			got, err := d.ReadSectors(ctx, 10, 2)
			require.NoError(t, err)
			assert.Equal(t, plain, got)
		})
	}
}

func TestDevice_ConcurrentDisjointWrites(t *testing.T) {
	d, _ := newTestDevice(t, func(c *Config) {
		c.Scheduler = types.SchedulerSSTF
		c.QueueDepth = 8
	})
	ctx := context.Background()

	const workers = 8
	var g errgroup.Group
	for w := 0; w < workers; w++ {
		w := w
		g.Go(func() error {
			for s := uint64(w); s < d.SectorCount(); s += workers {
				if err := d.WriteSectors(ctx, s, bytes.Repeat([]byte{byte(s * 7)}, 512)); err != nil {
					return err
				}
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	all, err := d.ReadSectors(ctx, 0, uint32(d.SectorCount()))
	require.NoError(t, err)
	for s := uint64(0); s < d.SectorCount(); s++ {
		sector := all[s*512 : (s+1)*512]
		require.Equal(t, bytes.Repeat([]byte{byte(s * 7)}, 512), sector, "sector %d", s)
	}

	stats := d.Stats()
	assert.Equal(t, uint64(1024+1), stats.Completed)
	assert.Equal(t, uint64(1024*512), stats.BytesWritten)
	assert.Equal(t, uint64(1024*512), stats.BytesRead)
}

func TestDevice_RequestErrors(t *testing.T) {
	d, _ := newTestDevice(t, nil)
	ctx := context.Background()

	err := d.WriteSectors(ctx, 0, make([]byte, 100))
	assert.True(t, errors.Is(err, types.ErrInvalidRequest))

	_, err = d.ReadSectors(ctx, 1024, 1)
	assert.True(t, errors.Is(err, types.ErrOutOfBounds))

	c := d.SubmitRequest(ctx, dispatch.NewRequest(types.OpFlush, 0, 0, nil))
	assert.Equal(t, types.StatusNotSupported, c.Status)

	_, err = d.ReadRaw(1024, 1)
	assert.True(t, errors.Is(err, types.ErrOutOfBounds))
}

func TestDevice_Alignment(t *testing.T) {
	d, _ := newTestDevice(t, func(c *Config) {
		c.SectorSize = 520
		c.DriveSize = 16
	})

	c := d.Submit(context.Background(), 0, 1, make([]byte, 520), types.DirectionWrite)
	assert.Equal(t, types.StatusAlignment, c.Status)

	c = d.Submit(context.Background(), 0, 2, make([]byte, 1040), types.DirectionWrite)
	assert.Equal(t, types.StatusOK, c.Status)
}

func TestDevice_Close(t *testing.T) {
	logger, hook := logtest.NewNullLogger()
	config := DefaultConfig()
	config.Logger = logger

	d, err := New(config)
	require.NoError(t, err)

	require.NoError(t, d.WriteSectors(context.Background(), 0, make([]byte, 512)))
	require.NoError(t, d.Close())
	require.NoError(t, d.Close())

	assert.Equal(t, "Encrypted block device closed", hook.LastEntry().Message)

	c := d.Submit(context.Background(), 0, 1, make([]byte, 512), types.DirectionRead)
	assert.Equal(t, types.StatusClosed, c.Status)

	_, err = d.ReadRaw(0, 1)
	assert.True(t, errors.Is(err, types.ErrStoreClosed))
}
