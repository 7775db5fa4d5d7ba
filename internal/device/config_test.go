package device

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deploymenttheory/go-ebd/internal/types"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	config, err := LoadConfig("", nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), *config)
	assert.Equal(t, uint64(1024), config.DriveSize)
	assert.Equal(t, uint32(512), config.SectorSize)
	assert.Equal(t, "password", config.Key)
	assert.Equal(t, "aes", config.Cipher)
	assert.Equal(t, "fifo", config.Scheduler)
}

func TestLoadConfig_File(t *testing.T) {
	yamlPath := writeConfig(t, "ebd-config.yaml", `
drive_size: 2048
sector_size: 4096
cipher: twofish
scheduler: sstf
queue_depth: 8
`)
	tomlPath := writeConfig(t, "ebd-config.toml", `
drive_size = 16
key = "hunter2"
key_derivation = "pbkdf2"
`)

	config, err := LoadConfig(yamlPath, nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(2048), config.DriveSize)
	assert.Equal(t, uint32(4096), config.SectorSize)
	assert.Equal(t, "twofish", config.Cipher)
	assert.Equal(t, "sstf", config.Scheduler)
	assert.Equal(t, 8, config.QueueDepth)
	assert.Equal(t, types.DefaultKey, config.Key, "unset keys keep their defaults")

	config, err = LoadConfig(tomlPath, nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(16), config.DriveSize)
	assert.Equal(t, "hunter2", config.Key)
}

func TestLoadConfig_MissingExplicitFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"), nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrInvalidConfig))
}

func TestLoadConfig_Precedence(t *testing.T) {
	path := writeConfig(t, "ebd-config.yaml", "drive_size: 2048\nsector_size: 1024\ncipher: cast5\n")
	t.Setenv("EBD_SECTOR_SIZE", "4096")
	t.Setenv("EBD_SCHEDULER", "sstf")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(flags)
	require.NoError(t, flags.Parse([]string{"--drive-size", "64", "--key", "swordfish"}))

	config, err := LoadConfig(path, flags)
	require.NoError(t, err)
	assert.Equal(t, uint64(64), config.DriveSize, "flag beats file")
	assert.Equal(t, uint32(4096), config.SectorSize, "env beats file")
	assert.Equal(t, "sstf", config.Scheduler, "env beats default")
	assert.Equal(t, "swordfish", config.Key)
	assert.Equal(t, "cast5", config.Cipher, "unset flags do not shadow the file")
	assert.Equal(t, types.DefaultQueueDepth, config.QueueDepth)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "defaults", mutate: func(c *Config) {}},
		{name: "zero drive size", mutate: func(c *Config) { c.DriveSize = 0 }, wantErr: true},
		{name: "zero sector size", mutate: func(c *Config) { c.SectorSize = 0 }, wantErr: true},
		{name: "zero queue depth", mutate: func(c *Config) { c.QueueDepth = 0 }, wantErr: true},
		{name: "negative iterations", mutate: func(c *Config) { c.KeyIterations = -1 }, wantErr: true},
		{name: "unknown scheduler", mutate: func(c *Config) { c.Scheduler = "elevator" }, wantErr: true},
		{name: "unknown log level", mutate: func(c *Config) { c.LogLevel = "loud" }, wantErr: true},
		{name: "empty log level", mutate: func(c *Config) { c.LogLevel = "" }},
		{name: "sstf", mutate: func(c *Config) { c.Scheduler = "sstf" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultConfig()
			tt.mutate(&config)
			err := config.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, types.ErrInvalidConfig), "got %v", err)
				return
			}
			assert.NoError(t, err)
		})
	}
}
