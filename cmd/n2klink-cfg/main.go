// N2klink-cfg manages gateway discovery and connection profiles.
//
// It finds NMEA 2000 gateways on serial ports and on the local network,
// and maintains the named connection profiles that n2klink-mon commands
// select with --profile.
//
// Usage:
//
//	n2klink-cfg [command] [flags]
//
// Running without arguments lists the configured profiles.
// See 'n2klink-cfg --help' for available commands.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/muurk/n2klink/internal/version"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "n2klink-cfg",
	Short: "NMEA 2000 Gateway Configuration Utility",
	Long: `Gateway discovery and connection profile management.

Scans serial ports and the local network for NGT-1 style gateways, and
maintains the named profiles n2klink-mon connects with.

If no command is specified, the configured profiles are listed.`,
	Version: version.Version,
	RunE: func(cmd *cobra.Command, args []string) error {
		// Default behavior: list profiles when no subcommand provided
		return runProfileList(cmd, args)
	},
}

func init() {
	// Disable automatic completion command generation
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("n2klink-cfg %s (commit: %s)\n", version.Version, version.Commit)
	},
}
