// Package cli implements the primebench command tree.
package cli

import (
	"fmt"
	"io"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/NetPo4ki/primescope/batch"
	"github.com/NetPo4ki/primescope/internal/logging"
)

// app carries state shared by subcommands.
type app struct {
	log       zerolog.Logger
	logOut    io.Writer
	logFormat string
}

// NewRootCmd creates the root Cobra command for primebench.
func NewRootCmd(version string) *cobra.Command {
	a := &app{}
	cmd := &cobra.Command{
		Use:          "primebench",
		Short:        "Count primes under ten concurrency strategies",
		Long:         "primebench partitions [1, N] into batches and counts primes in them with each coordination strategy, checking that all agree.",
		Version:      version,
		SilenceUsage: true,
		Example:      rootCmdExample,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			a.logOut = cmd.ErrOrStderr()
			a.logFormat, _ = cmd.Flags().GetString("log-format")
			if a.logFormat != "console" && a.logFormat != "json" {
				return fmt.Errorf("%w: log format must be console or json, got %q", batch.ErrInvalidConfiguration, a.logFormat)
			}
			a.log = a.newLogger(levelFromFlags(cmd))
			return nil
		},
	}
	cmd.PersistentFlags().Bool("debug", false, "enable debug logging")
	cmd.PersistentFlags().String("log-level", "info", "log level (trace, debug, info, warn, error)")
	cmd.PersistentFlags().String("log-format", "console", "log encoding (console, json)")
	cmd.AddCommand(newRunCmd(a), newListCmd())
	return cmd
}

func (a *app) newLogger(level string) zerolog.Logger {
	if a.logFormat == "json" {
		return logging.NewJSON(level, a.logOut)
	}
	return logging.New(level, a.logOut)
}

func levelFromFlags(cmd *cobra.Command) string {
	if debug, _ := cmd.Flags().GetBool("debug"); debug {
		return "debug"
	}
	level, _ := cmd.Flags().GetString("log-level")
	return level
}

const rootCmdExample = `  # Run every strategy with the default range
  primebench run

  # One strategy, four workers, checked against a sequential count
  primebench run --strategy pipeline --n 1000000 --batch-size 10000 --concurrency 4 --verify

  # Settings from a file, metrics served while running
  primebench run --config bench.yaml --metrics-addr :9100

  # Print the effective settings as YAML without running
  primebench run --config bench.yaml --n 5000000 --print-config

  # Show the available strategies
  primebench list`
