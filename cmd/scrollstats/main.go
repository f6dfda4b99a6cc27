// scrollstats answers warscroll and faction statistics commands from
// published spreadsheet exports.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "scrollstats",
	Short: "Warscroll and faction statistics from published spreadsheets.",
	Long: `scrollstats loads unit, faction and league spreadsheets exported as CSV,
caches them in memory and answers bot commands over HTTP or from the shell.

Configuration comes from SCROLLSTATS_* environment variables, an optional
.env file and an optional YAML file named by SCROLLSTATS_CONFIG.`,
	RunE:          runServe, // Default to serve mode.
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(serveCmd, queryCmd, refreshCmd, versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}
