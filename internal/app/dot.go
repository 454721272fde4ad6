package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/depscope/internal/output"
)

var (
	dotCached bool

	dotCmd = &cobra.Command{
		Use:   "dot",
		Short: "Emit the dependency graph in DOT language",
		Long: `Emit a Graphviz drawing of the analyzed package graph. Explicitly
installed packages become circles sized by total attributed cost, shared
dependencies collapse into point nodes grouped by the set of packages that
require them, and recommendation targets form rounded boxes on dashed edges.

The output is deterministic: the same installed state always renders the
same bytes.`,
		Example: `  # Render straight to SVG
  depscope dot | dot -Tsvg > deps.svg

  # Large systems usually look better with sfdp
  depscope dot | sfdp -Tsvg > deps.svg`,
		RunE: runDot,
	}
)

func init() {
	dotCmd.Flags().BoolVar(&dotCached, "cached", false, "use the last stored snapshot instead of rescanning")
}

func runDot(cmd *cobra.Command, args []string) error {
	c, err := resolveCollector()
	if err != nil {
		return err
	}
	reg, err := loadRegistry(c, dotCached)
	if err != nil {
		return err
	}
	fmt.Print(output.RenderDot(reg))
	return nil
}
