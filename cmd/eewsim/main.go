// Command eewsim drives an earthquake early warning simulation from the
// command line: a scenario ticks on a fixed clock and frame reports print
// to the console.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	cfgFile string
	verbose bool
	version = "dev"
)

var rootCmd = &cobra.Command{
	Use:   "eewsim",
	Short: "Earthquake early warning simulation engine",
	Long: `eewsim drives the eew package's simulation engine: single-hypocenter
and multi-source rupture scenarios, station intensity growth, regional
aggregation, and the progressively-corrected EEW estimate tracker.`,
	Version: version,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "directory searched for a scenario.* config file (default: built-in defaults)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose logging")

	rootCmd.AddCommand(runCmd)
}

// Commands are defined in separate files:
// - runCmd in run.go

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
