package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for gravescan.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gravescan",
		Short: "Collect veteran burial records from the Nationwide Gravesite Locator",
		Long: `gravescan searches the Nationwide Gravesite Locator for surnames, pages
through the result table in a browser and keeps the records of people born in
or after a threshold year (1980 by default).

Every surname produces <surname>_veterans.csv in the output directory. Runs
are stored in a local history database and can be listed and compared later.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().Bool("log-json", false, "Write logs as JSON lines")
	cmd.PersistentFlags().StringP("config", "c", "",
		"Configuration file path (default: .gravescan in current or home directory)")
	cmd.PersistentFlags().String("db-dir", "",
		"Directory of the history database (default: XDG data directory)")

	// Add subcommands
	cmd.AddCommand(NewScrapeCmd())
	cmd.AddCommand(NewReplayCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
