// Package cli assembles the boardkeeperd command-line surface: starting
// the daemon, and managing boards/defaults without hand-editing JSON.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var configDirFlag string

var rootCmd = &cobra.Command{
	Use:   "boardkeeperd",
	Short: "Moderation daemon for a federated imageboard platform",
	Long:  "Enforces per-board capacity, bump-limit, and retention rules against a plebbit-style RPC, continuously.",
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configDirFlag, "config-dir", defaultConfigDir(), "configuration directory (global.json + boards/)")
}

func defaultConfigDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return dir + "/boardkeeper"
	}
	return "./boardkeeper-config"
}

// Execute runs the root command, exiting 1 on any returned error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "boardkeeperd: %v\n", err)
		os.Exit(1)
	}
}
