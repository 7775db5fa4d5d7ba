package cmd

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/deploymenttheory/go-ebd/internal/device"
	"github.com/deploymenttheory/go-ebd/pkg/app"
)

// loadDeviceConfig resolves the device configuration from file, environment and
// flags, and attaches a logger writing to the command's error stream
func loadDeviceConfig(cmd *cobra.Command) (device.Config, error) {
	config, err := device.LoadConfig(configPath, cmd.Flags())
	if err != nil {
		return device.Config{}, app.NewError(app.ErrCodeInvalidInput, "failed to load configuration", err)
	}

	logger := logrus.New()
	logger.SetOutput(cmd.ErrOrStderr())
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
		DisableColors: noColor,
	})

	level, err := logrus.ParseLevel(config.LogLevel)
	if err != nil {
		return device.Config{}, app.NewError(app.ErrCodeInvalidInput, "invalid log level", err)
	}
	switch {
	case GetQuiet():
		level = logrus.ErrorLevel
	case GetVerbose() && level < logrus.DebugLevel:
		level = logrus.DebugLevel
	}
	logger.SetLevel(level)
	config.Logger = logger

	return *config, nil
}
