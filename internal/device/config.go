package device

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/deploymenttheory/go-ebd/internal/dispatch"
	"github.com/deploymenttheory/go-ebd/internal/types"
)

// Config holds device configuration
type Config struct {
	DriveSize     uint64 `mapstructure:"drive_size" json:"drive_size" yaml:"drive_size"`
	SectorSize    uint32 `mapstructure:"sector_size" json:"sector_size" yaml:"sector_size"`
	Key           string `mapstructure:"key" json:"-" yaml:"-"`
	Cipher        string `mapstructure:"cipher" json:"cipher" yaml:"cipher"`
	KeyDerivation string `mapstructure:"key_derivation" json:"key_derivation" yaml:"key_derivation"`
	KeySalt       string `mapstructure:"key_salt" json:"-" yaml:"-"`
	KeyIterations int    `mapstructure:"key_iterations" json:"key_iterations" yaml:"key_iterations"`
	QueueDepth    int    `mapstructure:"queue_depth" json:"queue_depth" yaml:"queue_depth"`
	Scheduler     string `mapstructure:"scheduler" json:"scheduler" yaml:"scheduler"`
	LogLevel      string `mapstructure:"log_level" json:"log_level" yaml:"log_level"`

	// Logger is an optional logger. If nil, a new logrus logger at LogLevel is used.
	Logger *logrus.Logger `mapstructure:"-" json:"-" yaml:"-"`
}

// configFlags maps config keys to their command-line flag names
var configFlags = map[string]string{
	"drive_size":     "drive-size",
	"sector_size":    "sector-size",
	"key":            "key",
	"cipher":         "cipher",
	"key_derivation": "key-derivation",
	"key_salt":       "key-salt",
	"key_iterations": "key-iterations",
	"queue_depth":    "queue-depth",
	"scheduler":      "scheduler",
	"log_level":      "log-level",
}

// DefaultConfig returns the built-in configuration
func DefaultConfig() Config {
	return Config{
		DriveSize:     types.DefaultDriveSize,
		SectorSize:    types.DefaultSectorSize,
		Key:           types.DefaultKey,
		Cipher:        types.DefaultCipher,
		KeyDerivation: types.DefaultKeyDerivation,
		KeySalt:       types.DefaultKeySalt,
		KeyIterations: types.DefaultKeyIterations,
		QueueDepth:    types.DefaultQueueDepth,
		Scheduler:     types.DefaultScheduler,
		LogLevel:      logrus.InfoLevel.String(),
	}
}

// RegisterFlags adds the device flags to a flag set. Only flags the user sets
// override file and environment values.
func RegisterFlags(fs *pflag.FlagSet) {
	def := DefaultConfig()
	fs.Uint64(configFlags["drive_size"], def.DriveSize, "Drive size in sectors")
	fs.Uint32(configFlags["sector_size"], def.SectorSize, "Sector size in bytes")
	fs.String(configFlags["key"], def.Key, "Cipher key")
	fs.String(configFlags["cipher"], def.Cipher, "Block cipher (aes, twofish, blowfish, cast5)")
	fs.String(configFlags["key_derivation"], def.KeyDerivation, "Key derivation (pbkdf2, raw)")
	fs.String(configFlags["key_salt"], def.KeySalt, "PBKDF2 salt")
	fs.Int(configFlags["key_iterations"], def.KeyIterations, "PBKDF2 iteration count")
	fs.Int(configFlags["queue_depth"], def.QueueDepth, "Maximum number of queued requests")
	fs.String(configFlags["scheduler"], def.Scheduler, "Request scheduler (fifo, sstf)")
	fs.String(configFlags["log_level"], def.LogLevel, "Log level (trace, debug, info, warn, error)")
}

// LoadConfig loads device configuration using Viper. An explicit path must exist;
// otherwise the usual search paths are tried and a missing file is tolerated.
// flags may be nil.
func LoadConfig(path string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("ebd-config")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("$HOME/.ebd")
		v.AddConfigPath("/etc/ebd")
	}

	def := DefaultConfig()
	v.SetDefault("drive_size", def.DriveSize)
	v.SetDefault("sector_size", def.SectorSize)
	v.SetDefault("key", def.Key)
	v.SetDefault("cipher", def.Cipher)
	v.SetDefault("key_derivation", def.KeyDerivation)
	v.SetDefault("key_salt", def.KeySalt)
	v.SetDefault("key_iterations", def.KeyIterations)
	v.SetDefault("queue_depth", def.QueueDepth)
	v.SetDefault("scheduler", def.Scheduler)
	v.SetDefault("log_level", def.LogLevel)

	v.SetEnvPrefix("EBD")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || path != "" {
			return nil, errors.Wrapf(types.ErrInvalidConfig, "error reading config file: %v", err)
		}
	}

	if flags != nil {
		for key, name := range configFlags {
			if f := flags.Lookup(name); f != nil && f.Changed {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, errors.Wrapf(err, "binding flag %s", name)
				}
			}
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, errors.Wrapf(types.ErrInvalidConfig, "error unmarshaling config: %v", err)
	}

	return &config, nil
}

// Validate checks the fields that can be rejected before any allocation
func (c *Config) Validate() error {
	if c.DriveSize == 0 {
		return errors.Wrap(types.ErrInvalidConfig, "drive size must be greater than zero")
	}
	if c.SectorSize == 0 {
		return errors.Wrap(types.ErrInvalidConfig, "sector size must be greater than zero")
	}
	if c.QueueDepth <= 0 {
		return errors.Wrapf(types.ErrInvalidConfig, "queue depth %d must be greater than zero", c.QueueDepth)
	}
	if c.KeyIterations < 0 {
		return errors.Wrapf(types.ErrInvalidConfig, "key iterations %d must not be negative", c.KeyIterations)
	}
	if _, err := dispatch.NewScheduler(c.Scheduler); err != nil {
		return err
	}
	if _, err := c.level(); err != nil {
		return err
	}
	return nil
}

// level parses LogLevel, treating empty as info
func (c *Config) level() (logrus.Level, error) {
	if strings.TrimSpace(c.LogLevel) == "" {
		return logrus.InfoLevel, nil
	}
	lvl, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return 0, errors.Wrapf(types.ErrInvalidConfig, "log level: %v", err)
	}
	return lvl, nil
}
