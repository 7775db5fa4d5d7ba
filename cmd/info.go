package cmd

import (
	"github.com/spf13/cobra"

	"github.com/deploymenttheory/go-ebd/pkg/app/info"
)

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Build a device and describe it",
	Long: `Build an encrypted block device from the current configuration and print
its id, capacity, synthetic geometry, cipher and scheduling policy.

Examples:
  # Describe the default 1024 x 512-byte AES device
  go-ebd info

  # Describe a 64 MiB twofish device as JSON
  go-ebd info --drive-size 131072 --cipher twofish -o json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInfo(cmd)
	},
}

func init() {
	rootCmd.AddCommand(infoCmd)
}

func runInfo(cmd *cobra.Command) error {
	ctx := newAppContext(cmd)

	config, err := loadDeviceConfig(cmd)
	if err != nil {
		return err
	}

	response, err := info.Handle(ctx, &info.Request{Config: config})
	if err != nil {
		return err
	}

	return info.FormatOutput(ctx.Output(), response, ctx.OutputFormat)
}
