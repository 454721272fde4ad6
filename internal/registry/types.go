package registry

// Tier identifies which level of the registry a package belongs to.
type Tier string

const (
	// TierUpper holds packages considered explicitly wanted by the user.
	TierUpper Tier = "upper"
	// TierLower holds packages present only to satisfy dependencies.
	TierLower Tier = "lower"
)

// Package is one installed package record. The edge lists and InstalledBytes
// are supplied by a collector; the Recursive* sets, ClaimantCount and the
// pseudobyte accumulators are computed by the analyzer.
type Package struct {
	ID string // package name plus architecture/variant qualifier

	// Display metadata, not used by the algorithms.
	Name         string
	Description  string
	Category     string
	Variety      string
	Installation string

	// Direct dependency edges. Requires and Advises are traversed by the
	// closure computation; Suggests, Supplements and Enhances are carried
	// for display only. Edges may reference identifiers outside the
	// registry; such references are inert.
	Requires    []string
	Advises     []string
	Suggests    []string
	Supplements []string
	Enhances    []string

	// InstalledBytes is the package's own on-disk footprint, independent
	// of anything it depends on.
	InstalledBytes int64

	// Transitive closures, excluding the package itself.
	RecursiveRequires    map[string]bool // reachable via Requires only
	RecursiveComplements map[string]bool // reachable via Requires+Advises, minus RecursiveRequires

	// Reverse indexes: who reaches this package.
	RecursiveWhatRequires    map[string]bool
	RecursiveWhatComplements map[string]bool

	// ClaimantCount is the number of distinct upper-tier packages whose
	// closures contain this package. Zero means disconnected.
	ClaimantCount int

	// Cost attributed from lower-tier packages this one transitively
	// pulls in, split by edge strength.
	MandatoryPseudobytes float64
	OptionalPseudobytes  float64
}

// Pseudobytes returns the total attributed cost.
func (p *Package) Pseudobytes() float64 {
	return p.MandatoryPseudobytes + p.OptionalPseudobytes
}

// TotalBytes returns the package's own size plus all attributed cost.
func (p *Package) TotalBytes() float64 {
	return float64(p.InstalledBytes) + p.Pseudobytes()
}

// ByteRatios returns the fractions of TotalBytes that are the package's own
// size, mandatory pseudobytes and optional pseudobytes. ok is false when
// TotalBytes is zero and the ratios are undefined.
func (p *Package) ByteRatios() (own, mandatory, optional float64, ok bool) {
	total := p.TotalBytes()
	if total == 0 {
		return 0, 0, 0, false
	}
	own = float64(p.InstalledBytes) / total
	mandatory = p.MandatoryPseudobytes / total
	optional = 1 - (own + mandatory)
	return own, mandatory, optional, true
}
