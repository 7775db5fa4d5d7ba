package cmd

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/deploymenttheory/go-ebd/internal/device"
	"github.com/deploymenttheory/go-ebd/pkg/app"
)

var (
	// Global output flags
	verbose      bool
	quiet        bool
	noColor      bool
	outputFormat string
	configPath   string
)

var rootCmd = &cobra.Command{
	Use:   "go-ebd",
	Short: "Encrypted in-memory block device",
	Long: `go-ebd builds an encrypted, sector-addressable block device in memory.

Every sector written through the device is encrypted one cipher block at a
time before it reaches the backing store, and decrypted on the way back out.
Configuration is read from ebd-config.{yaml,toml,json}, EBD_* environment
variables and the flags below, in increasing order of precedence.

Commands:
  info        Build a device and describe its capacity, geometry and cipher
  exercise    Drive a concurrent write/read/verify workload through a device`,
	Version:       "0.1.0-dev",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if noColor {
			color.NoColor = true
		}
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		code := app.ErrorCode(err)
		if code == "" {
			code = app.ErrCodeInternal
		}
		fmt.Fprintf(os.Stderr, "Error [%s]: %v\n", code, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress output except errors")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable coloured output")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "table", "output format (table, json, yaml)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default: ebd-config.* in ., ./config, $HOME/.ebd, /etc/ebd)")

	device.RegisterFlags(rootCmd.PersistentFlags())
}

// GetVerbose returns the verbose flag value
func GetVerbose() bool {
	return verbose
}

// GetQuiet returns the quiet flag value
func GetQuiet() bool {
	return quiet
}

// GetOutputFormat returns the output format
func GetOutputFormat() string {
	return outputFormat
}

// newAppContext builds the application context from the global flags
func newAppContext(cmd *cobra.Command) *app.Context {
	ctx := app.NewContext()
	if cmd.Context() != nil {
		ctx.Context = cmd.Context()
	}
	ctx.OutputFormat = GetOutputFormat()
	ctx.Verbose = GetVerbose()
	ctx.Quiet = GetQuiet()
	ctx.NoColor = noColor
	ctx.Stdout = cmd.OutOrStdout()
	ctx.Stderr = cmd.ErrOrStderr()
	return ctx
}
