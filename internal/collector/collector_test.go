package collector

import (
	"testing"

	"github.com/blackwell-systems/depscope/internal/analyzer"
	"github.com/blackwell-systems/depscope/internal/registry"
)

// runPipeline drives a registry through the same sequence the application
// uses: closures, the collector's reclassification hook, attribution.
func runPipeline(t *testing.T, reg *registry.Registry, c Collector) {
	t.Helper()
	analyzer.Run(reg, c.Reclassify)
}
