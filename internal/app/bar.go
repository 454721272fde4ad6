package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/depscope/internal/output"
)

var (
	barCached bool

	barCmd = &cobra.Command{
		Use:   "bar",
		Short: "Per-package disk cost bars, largest first",
		Long: `Render a text bar graph of explicitly installed packages ordered by total
attributed disk cost. Each bar splits into the package's own size, its share
of mandatory recursive requirements, and its share of optional recursive
recommendations, with the three ratios printed alongside.`,
		Example: `  # Bars for the autodetected package manager
  depscope bar

  # Reuse the last stored snapshot instead of rescanning
  depscope bar --cached`,
		RunE: runBar,
	}
)

func init() {
	barCmd.Flags().BoolVar(&barCached, "cached", false, "use the last stored snapshot instead of rescanning")
}

func runBar(cmd *cobra.Command, args []string) error {
	c, err := resolveCollector()
	if err != nil {
		return err
	}
	reg, err := loadRegistry(c, barCached)
	if err != nil {
		return err
	}
	fmt.Print(output.RenderBar(reg, c.Name(), output.IsColorEnabled()))
	return nil
}
