// Package analyzer computes the derived fields of a populated registry: the
// transitive dependency closures, the attribution of lower-tier disk usage
// across upper-tier packages, and the reclassification pass that corrects
// tier misclassification before attribution runs.
package analyzer

import (
	"time"

	"github.com/charmbracelet/log"

	"github.com/blackwell-systems/depscope/internal/graph"
	"github.com/blackwell-systems/depscope/internal/registry"
)

// requiresOf returns a neighbor function over Requires edges. Edges pointing
// outside the registry are dropped here, so traversal never sees an
// identifier it cannot resolve.
func requiresOf(reg *registry.Registry) graph.NeighborFunc {
	return func(id string) []string {
		pkg, ok := reg.Get(id)
		if !ok {
			return nil
		}
		return memberEdges(reg, pkg.Requires)
	}
}

// complementsOf returns a neighbor function over Requires plus Advises edges.
func complementsOf(reg *registry.Registry) graph.NeighborFunc {
	return func(id string) []string {
		pkg, ok := reg.Get(id)
		if !ok {
			return nil
		}
		edges := memberEdges(reg, pkg.Requires)
		return append(edges, memberEdges(reg, pkg.Advises)...)
	}
}

func memberEdges(reg *registry.Registry, edges []string) []string {
	var members []string
	for _, id := range edges {
		if _, ok := reg.Get(id); ok {
			members = append(members, id)
		}
	}
	return members
}

// ComputeClosures populates RecursiveRequires, RecursiveComplements and the
// two reverse indexes for every record. Re-running on a registry with
// unchanged edges reproduces the same sets: all computed sets are reset
// before the pass.
func ComputeClosures(reg *registry.Registry) {
	start := time.Now()

	ids := reg.IDs()
	for _, id := range ids {
		pkg, _ := reg.Get(id)
		pkg.RecursiveRequires = make(map[string]bool)
		pkg.RecursiveComplements = make(map[string]bool)
		pkg.RecursiveWhatRequires = make(map[string]bool)
		pkg.RecursiveWhatComplements = make(map[string]bool)
	}

	requires := requiresOf(reg)
	complements := complementsOf(reg)

	for _, id := range ids {
		pkg, _ := reg.Get(id)

		required := graph.Reachable(id, requires)
		delete(required, id)
		pkg.RecursiveRequires = required

		complemented := graph.Reachable(id, complements)
		delete(complemented, id)
		for dep := range required {
			delete(complemented, dep)
		}
		pkg.RecursiveComplements = complemented

		for dep := range required {
			target, _ := reg.Get(dep)
			target.RecursiveWhatRequires[id] = true
		}
		for dep := range complemented {
			target, _ := reg.Get(dep)
			target.RecursiveWhatComplements[id] = true
		}
	}

	log.Debug("computed closures", "packages", len(ids), "elapsed", time.Since(start).Round(time.Millisecond))
}
