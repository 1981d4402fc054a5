// SPDX-License-Identifier: MIT

// Command rvine selects, evaluates and simulates R-vine copula models from CSV
// data on the unit cube.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var version = "0.1.0-dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "rvine",
		Short: "R-vine copula selection, evaluation and simulation",
		Long: `rvine fits regular vine copula models to pseudo-observations and
evaluates or simulates fitted models.

Data files are CSV with one observation per row and values in (0,1).
A leading header row is skipped when it does not parse as numbers.
Models are exchanged as YAML files written by "rvine select --out".`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags
	rootCmd.PersistentFlags().String("config", "", "YAML controls file")
	rootCmd.PersistentFlags().Bool("debug", false, "Development logging at debug level")
	rootCmd.PersistentFlags().String("metrics-addr", "", "Serve Prometheus metrics on this address (e.g. :9090)")
	rootCmd.PersistentFlags().Int("threads", -1, "Worker count (overrides num_threads; 0 means one per CPU)")

	rootCmd.AddCommand(
		newVersionCmd(),
		newSelectCmd(),
		newSimulateCmd(),
		newPDFCmd(),
		newCDFCmd(),
		newRosenblattCmd(),
		newStructureCmd(),
	)

	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "rvine version %s\n", version)
		},
	}
}
