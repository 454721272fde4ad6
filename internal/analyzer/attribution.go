package analyzer

import (
	"github.com/blackwell-systems/depscope/internal/registry"
)

// Attribute distributes each lower-tier package's installed size across the
// upper-tier packages whose closures contain it. The split is an equal
// per-claimant share: a package with one mandatory and one optional claimant
// contributes one half to each side. Packages with no upper-tier claimant
// receive a claimant count of zero and attribute nothing.
//
// The sum of InstalledBytes over all packages with a nonzero claimant count
// (the upper tier plus the reachable lower tier) equals the sum of
// TotalBytes over the upper tier.
func Attribute(reg *registry.Registry) {
	for _, id := range reg.UpperIDs() {
		pkg, _ := reg.Get(id)
		pkg.MandatoryPseudobytes = 0
		pkg.OptionalPseudobytes = 0
		pkg.ClaimantCount = 0
	}

	for _, id := range reg.LowerIDs() {
		pkg, _ := reg.Get(id)

		var mandatory, optional []string
		for claimant := range pkg.RecursiveWhatRequires {
			if reg.InUpper(claimant) {
				mandatory = append(mandatory, claimant)
			}
		}
		for claimant := range pkg.RecursiveWhatComplements {
			if reg.InUpper(claimant) {
				optional = append(optional, claimant)
			}
		}

		pkg.ClaimantCount = len(mandatory) + len(optional)
		if pkg.ClaimantCount == 0 {
			continue
		}

		share := float64(pkg.InstalledBytes) / float64(pkg.ClaimantCount)
		for _, claimant := range mandatory {
			target, _ := reg.Get(claimant)
			target.MandatoryPseudobytes += share
		}
		for _, claimant := range optional {
			target, _ := reg.Get(claimant)
			target.OptionalPseudobytes += share
		}
	}
}
