package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var cfgFile string

// newRootCmd creates and configures the root command.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "wmscan",
		Short: "Brute-force prober for date/time stamped recording URLs.",
		Long: `wmscan probes the combinatorial space of URLs built from a base
identifier, a date range, and a per-day time window, recording which
candidates resolve. Interrupted or time-boxed runs save the next
unprocessed date and pick up from it on the following invocation.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (optional)")

	cmd.AddCommand(newScanCmd())

	return cmd
}

// Execute is the main entry point. Any error, configuration or fatal I/O,
// exits with code 1; interrupted and time-boxed runs exit 0.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
