package app

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/blackwell-systems/depscope/internal/analyzer"
)

var (
	scanQuiet bool

	scanCmd = &cobra.Command{
		Use:   "scan",
		Short: "Scan installed packages and store a snapshot",
		Long: `Query the package manager for every installed package, its dependency
edges and its installed size, and store the result as a snapshot in the
depscope database.

Other commands rescan automatically, so running scan by hand is only needed
to refresh the snapshot that --cached reads from.`,
		Example: `  # Scan the autodetected package manager
  depscope scan

  # Scan a specific manager
  depscope scan --manager flatpak`,
		RunE: runScan,
	}
)

func init() {
	scanCmd.Flags().BoolVar(&scanQuiet, "quiet", false, "suppress output")
}

func runScan(cmd *cobra.Command, args []string) error {
	c, err := resolveCollector()
	if err != nil {
		return err
	}

	reg, err := collectAndStore(c)
	if err != nil {
		return err
	}
	analyzer.Run(reg, c.Reclassify)

	if scanQuiet {
		return nil
	}

	var total float64
	for _, id := range reg.UpperIDs() {
		pkg, _ := reg.Get(id)
		total += pkg.TotalBytes()
	}
	dbPath, _ := getDBPath()

	fmt.Printf("Scanned %d packages via %s\n", reg.Len(), c.Name())
	fmt.Printf("  explicitly installed: %d\n", len(reg.UpperIDs()))
	fmt.Printf("  dependencies:         %d\n", len(reg.LowerIDs()))
	fmt.Printf("  attributed disk use:  %s\n", humanize.Bytes(uint64(total)))
	fmt.Printf("  database:             %s\n", dbPath)
	return nil
}
