package app

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

var (
	managerName string
	dbPath      string
	debugMode   bool

	// RootCmd is the root command for depscope
	RootCmd = &cobra.Command{
		Use:   "depscope",
		Short: "Dependency-aware disk cost attribution for installed packages",
		Long: `depscope maps where your disk space actually goes: it reads the installed
package graph from apt, dnf or flatpak, splits every shared dependency's size
fairly among the packages that pull it in, and charges the result back to the
packages you explicitly installed.

Each explicitly installed package ends up with three numbers:
  • its own size
  • its share of every mandatory recursive requirement
  • its share of every optional recommendation it drags in

Examples:
  # Scan the system and store a snapshot
  depscope scan

  # Per-package cost bars, largest first
  depscope bar

  # Graphviz drawing of the shared-dependency structure
  depscope dot | dot -Tsvg > deps.svg

  # Why is this package installed, and what does it pull in?
  depscope details gimp

  # Rescan automatically when the package database changes
  depscope watch`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if debugMode {
				log.SetLevel(log.DebugLevel)
			}
		},
	}
)

func init() {
	RootCmd.PersistentFlags().StringVarP(&managerName, "manager", "m", "", "package manager: apt, dnf or flatpak (default: autodetect)")
	RootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "database path (default: ~/.depscope/depscope.db)")
	RootCmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "enable debug logging")

	// Enable cobra's built-in suggestion feature for unknown subcommands
	RootCmd.SuggestionsMinimumDistance = 2

	RootCmd.AddCommand(scanCmd)
	RootCmd.AddCommand(barCmd)
	RootCmd.AddCommand(dotCmd)
	RootCmd.AddCommand(detailsCmd)
	RootCmd.AddCommand(watchCmd)
	RootCmd.AddCommand(snapshotsCmd)
}

// Execute runs the root command
func Execute() error {
	return RootCmd.Execute()
}

// getDBPath returns the database path, using the flag value or default
func getDBPath() (string, error) {
	if dbPath != "" {
		return dbPath, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	depscopeDir := filepath.Join(home, ".depscope")
	if err := os.MkdirAll(depscopeDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create depscope directory: %w", err)
	}

	return filepath.Join(depscopeDir, "depscope.db"), nil
}
