// Package cli implements the backfill and audit batch commands.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Global flags
var (
	periodTypeFlag string
	periodsFlag    int
	dryRun         bool
	skipExisting   bool
	forceRefresh   bool
	includeCurrent bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "backfill",
	Short: "Campaign metrics backfill and audit batch tool",
	Long: `Walks weekly or monthly periods per hotel client, rebuilds stale or
missing aggregate summaries from the ads platforms, and audits stored
data against the live API.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&periodTypeFlag, "type", "weekly", "Period type: weekly or monthly")
	rootCmd.PersistentFlags().IntVar(&periodsFlag, "periods", 12, "How many historical periods to walk")
	rootCmd.PersistentFlags().BoolVar(&dryRun, "dry-run", false, "Classify and log without writing")
	rootCmd.PersistentFlags().BoolVar(&skipExisting, "skip-existing", true, "Skip historical periods that already hold good data")
	rootCmd.PersistentFlags().BoolVar(&forceRefresh, "force-refresh", false, "Rebuild even good historical entries")
	rootCmd.PersistentFlags().BoolVar(&includeCurrent, "include-current", false, "Also rebuild the in-progress period")
}
