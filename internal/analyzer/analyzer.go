package analyzer

import (
	"github.com/blackwell-systems/depscope/internal/registry"
)

// Reclassifier adjusts tier membership after closures are computed and
// before attribution runs. Collectors supply one of the policies built on
// Disconnected (Prune, Promote), or nil to leave the tiers as collected.
type Reclassifier func(reg *registry.Registry)

// Run executes the full analysis over a populated registry: closure
// computation, the collector's reclassification pass, then cost attribution.
// The stages are strictly sequential; reclassification is the last mutation
// to tier membership.
func Run(reg *registry.Registry, reclassify Reclassifier) {
	ComputeClosures(reg)
	if reclassify != nil {
		reclassify(reg)
	}
	Attribute(reg)
}
