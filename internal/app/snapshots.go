package app

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var snapshotsCmd = &cobra.Command{
	Use:   "snapshots",
	Short: "List stored snapshots for a package manager",
	Long: `List the snapshots stored in the depscope database for the selected
package manager, newest first. These are the snapshots --cached reads from.`,
	Example: `  # Snapshots for the autodetected package manager
  depscope snapshots

  # Snapshots for a specific manager
  depscope snapshots --manager flatpak`,
	RunE: runSnapshots,
}

func runSnapshots(cmd *cobra.Command, args []string) error {
	c, err := resolveCollector()
	if err != nil {
		return err
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	snapshots, err := st.ListSnapshots(c.Name())
	if err != nil {
		return err
	}
	if len(snapshots) == 0 {
		fmt.Printf("No snapshots stored for %s. Run 'depscope scan' first.\n", c.Name())
		return nil
	}

	fmt.Printf("%-6s %-20s %-9s %s\n", "ID", "Created", "Packages", "Age")
	for _, snap := range snapshots {
		fmt.Printf("%-6d %-20s %-9d %s\n",
			snap.ID,
			snap.CreatedAt.Local().Format("2006-01-02 15:04:05"),
			snap.PackageCount,
			humanize.Time(snap.CreatedAt))
	}
	return nil
}
