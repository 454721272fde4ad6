package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/depscope/internal/output"
)

var (
	detailsCached bool

	detailsCmd = &cobra.Command{
		Use:   "details <package>",
		Short: "Show one package's dependency neighborhood",
		Long: `Show every package reachable from the given one through requirements or
recommendations, grouped by dependency distance, with a relative size bar
per package. Mandatory dependencies are cyan, optional complements green.

The package argument may be an identifier prefix; a unique match is
resolved automatically.`,
		Example: `  # Full identifier
  depscope details gimp:amd64

  # Unique prefix is enough
  depscope details gim`,
		Args: cobra.ExactArgs(1),
		RunE: runDetails,
	}
)

func init() {
	detailsCmd.Flags().BoolVar(&detailsCached, "cached", false, "use the last stored snapshot instead of rescanning")
}

func runDetails(cmd *cobra.Command, args []string) error {
	c, err := resolveCollector()
	if err != nil {
		return err
	}
	reg, err := loadRegistry(c, detailsCached)
	if err != nil {
		return err
	}
	id, err := output.Candidate(reg, args[0])
	if err != nil {
		return err
	}
	rendered, err := output.RenderDetails(reg, id, output.IsColorEnabled())
	if err != nil {
		return err
	}
	fmt.Print(rendered)
	return nil
}
