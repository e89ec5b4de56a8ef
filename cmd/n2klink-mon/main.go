// N2klink-mon is a live traffic tool for NMEA 2000 gateways.
//
// It connects to an NGT-1 style gateway over serial, TCP or WebSocket,
// decodes the stream and provides:
//
//   - A full-screen live traffic monitor (watch)
//   - Plain line-per-message output for piping (dump)
//   - Capture to file and paced replay (record, replay)
//   - Single message transmission onto the bus (send)
//
// Usage:
//
//	n2klink-mon [command] [flags]
//
// Running without arguments launches the live monitor against the
// default profile. See 'n2klink-mon --help' for available commands.
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
	Use:   "n2klink-mon",
	Short: "NMEA 2000 Gateway Traffic Monitor",
	Long: `Live traffic tools for NGT-1 style NMEA 2000 gateways.

Connects over serial, TCP or WebSocket, decodes the gateway stream and
shows bus traffic as typed messages. Supports capture to file, paced
replay and transmitting single messages onto the bus.

If no command is specified, the live monitor launches against the
gateway selected by flags or the default profile.`,
	Version: version.Version,
	RunE: func(cmd *cobra.Command, args []string) error {
		// Default behavior: launch the live monitor
		return runWatch(cmd, args)
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
		fmt.Printf("n2klink-mon %s (commit: %s)\n", version.Version, version.Commit)
	},
}
