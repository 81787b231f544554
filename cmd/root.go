package cmd

import (
	"fmt"
	"os"

	"cdc-reconciler/core/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "cdc-reconciler",
	Short: "CDC Reconciliation Engine",
	Long: `cdc-reconciler verifies that a change-data-capture pipeline delivered
every row intact: it compares a source table against its replicated
target, classifies missing, extra, and mismatched rows, and can generate
and apply the SQL needed to converge the target onto the source.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() {
	if err := RootCmd.Execute(); err != nil {
		// Console format at debug level gives readable ISO8601 output for
		// a CLI failure, matching user expectations.
		cfg := &logger.Config{
			Level:  "debug",
			Format: "console",
		}

		l, logErr := logger.New(cfg)
		if logErr == nil {
			l.Error("command failed", zap.Error(err))
			_ = l.Sync()
		} else {
			// Absolute fallback if logger creation fails (rare)
			fmt.Println(err)
		}
		os.Exit(1)
	}
}
