package analyzer

import (
	"sort"

	"github.com/charmbracelet/log"

	"github.com/blackwell-systems/depscope/internal/registry"
)

// Disconnected returns the lower-tier identifiers that no upper-tier package
// reaches, via either closure. Requires closures to have been computed.
func Disconnected(reg *registry.Registry) map[string]bool {
	disconnected := make(map[string]bool)
	for _, id := range reg.LowerIDs() {
		pkg, _ := reg.Get(id)
		if !claimedFromUpper(reg, pkg) {
			disconnected[id] = true
		}
	}
	return disconnected
}

func claimedFromUpper(reg *registry.Registry, pkg *registry.Package) bool {
	for claimant := range pkg.RecursiveWhatRequires {
		if reg.InUpper(claimant) {
			return true
		}
	}
	for claimant := range pkg.RecursiveWhatComplements {
		if reg.InUpper(claimant) {
			return true
		}
	}
	return false
}

// Prune removes every disconnected lower-tier record from the registry and
// returns the removed identifiers in lexicographic order. Disconnection is
// treated as collector noise to discard.
func Prune(reg *registry.Registry) []string {
	removed := sortedSet(Disconnected(reg))
	for _, id := range removed {
		// Membership comes from LowerIDs, so Remove cannot fail here.
		_ = reg.Remove(id)
	}
	if len(removed) > 0 {
		log.Debug("pruned packages disconnected from the upper tier", "packages", removed)
	}
	return removed
}

// Promote moves to the upper tier every disconnected identifier that is not
// itself a dependency of another disconnected identifier, treating it as an
// explicitly wanted package the collector failed to mark. The disconnected
// set is frozen before any move, so promotion order cannot affect the
// result. Returns the promoted identifiers in lexicographic order.
func Promote(reg *registry.Registry) []string {
	disconnected := Disconnected(reg)

	var promoted []string
	for _, id := range sortedSet(disconnected) {
		pkg, _ := reg.Get(id)
		if dependencyOfMember(pkg, disconnected) {
			continue
		}
		_ = reg.Move(id, registry.TierUpper)
		promoted = append(promoted, id)
	}
	if len(promoted) > 0 {
		log.Debug("promoted packages presumed explicitly installed", "packages", promoted)
	}
	return promoted
}

// dependencyOfMember reports whether any other member of the disconnected
// set reaches pkg, i.e. pkg is merely support for another orphan.
func dependencyOfMember(pkg *registry.Package, disconnected map[string]bool) bool {
	for dependent := range pkg.RecursiveWhatRequires {
		if disconnected[dependent] {
			return true
		}
	}
	for dependent := range pkg.RecursiveWhatComplements {
		if disconnected[dependent] {
			return true
		}
	}
	return false
}

func sortedSet(set map[string]bool) []string {
	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
