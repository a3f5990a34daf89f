package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for prodcheck.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prodcheck",
		Short: "Validate the product records of a catalog API",
		Long: `prodcheck fetches the product list of a catalog API and checks every record
for missing, empty and invalid attributes (title, price, rating).

A check runs against the live API and then against a built-in data set with
known defects. Results are printed, saved as JSON and kept in a local history
database for later comparison.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	cmd.AddCommand(NewCheckCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewMonitorCmd())
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
