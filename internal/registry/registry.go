// Package registry holds the two-tier collection of installed package
// records: explicitly wanted packages in the upper tier and pulled-in support
// packages in the lower tier. Lookup and edge traversal operate over the
// union of both tiers; only tier-specific operations distinguish them.
package registry

import (
	"errors"
	"fmt"
	"sort"
)

var (
	// ErrNotFound is returned when an operation references an identifier
	// that exists in neither tier. It indicates a logic error in the
	// caller, such as a stale identifier after a prune.
	ErrNotFound = errors.New("package not found")

	// ErrDuplicate is returned by Put when the identifier already exists
	// in either tier. The registry never silently overwrites.
	ErrDuplicate = errors.New("duplicate package identifier")

	// ErrInvalidTier is returned when a tier argument is neither
	// TierUpper nor TierLower.
	ErrInvalidTier = errors.New("invalid tier")
)

// Registry is a partition of package records into an upper and a lower tier.
// Every identifier belongs to exactly one tier. Registry is not safe for
// concurrent use; the analysis pipeline owns it exclusively for one run.
type Registry struct {
	upper map[string]*Package
	lower map[string]*Package
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		upper: make(map[string]*Package),
		lower: make(map[string]*Package),
	}
}

func (r *Registry) tier(t Tier) (map[string]*Package, error) {
	switch t {
	case TierUpper:
		return r.upper, nil
	case TierLower:
		return r.lower, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrInvalidTier, t)
}

// Get returns the record for id from whichever tier holds it.
func (r *Registry) Get(id string) (*Package, bool) {
	if p, ok := r.upper[id]; ok {
		return p, true
	}
	if p, ok := r.lower[id]; ok {
		return p, true
	}
	return nil, false
}

// Tier returns the tier holding id.
func (r *Registry) Tier(id string) (Tier, bool) {
	if _, ok := r.upper[id]; ok {
		return TierUpper, true
	}
	if _, ok := r.lower[id]; ok {
		return TierLower, true
	}
	return "", false
}

// Put inserts a new record into the named tier. The record's ID field is set
// from id. It fails if the identifier already exists in either tier.
func (r *Registry) Put(t Tier, id string, pkg *Package) error {
	m, err := r.tier(t)
	if err != nil {
		return err
	}
	if _, ok := r.Get(id); ok {
		return fmt.Errorf("put %s: %w", id, ErrDuplicate)
	}
	pkg.ID = id
	m[id] = pkg
	return nil
}

// Set replaces the record for an identifier that already exists in either
// tier, without changing its tier assignment.
func (r *Registry) Set(id string, pkg *Package) error {
	pkg.ID = id
	if _, ok := r.upper[id]; ok {
		r.upper[id] = pkg
		return nil
	}
	if _, ok := r.lower[id]; ok {
		r.lower[id] = pkg
		return nil
	}
	return fmt.Errorf("set %s: %w", id, ErrNotFound)
}

// Remove deletes the record from whichever tier holds it.
func (r *Registry) Remove(id string) error {
	if _, ok := r.upper[id]; ok {
		delete(r.upper, id)
		return nil
	}
	if _, ok := r.lower[id]; ok {
		delete(r.lower, id)
		return nil
	}
	return fmt.Errorf("remove %s: %w", id, ErrNotFound)
}

// Move transfers an existing record to the target tier without altering its
// content. Moving a record to the tier it is already in is a no-op.
func (r *Registry) Move(id string, target Tier) error {
	dst, err := r.tier(target)
	if err != nil {
		return err
	}
	current, ok := r.Tier(id)
	if !ok {
		return fmt.Errorf("move %s: %w", id, ErrNotFound)
	}
	if current == target {
		return nil
	}
	src, _ := r.tier(current)
	dst[id] = src[id]
	delete(src, id)
	return nil
}

// Len returns the total number of records across both tiers.
func (r *Registry) Len() int {
	return len(r.upper) + len(r.lower)
}

func sortedKeys(m map[string]*Package) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// IDs returns all identifiers from both tiers in lexicographic order.
// Downstream output relies on this order for reproducibility.
func (r *Registry) IDs() []string {
	keys := make([]string, 0, r.Len())
	for k := range r.upper {
		keys = append(keys, k)
	}
	for k := range r.lower {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// UpperIDs returns the upper-tier identifiers in lexicographic order.
func (r *Registry) UpperIDs() []string {
	return sortedKeys(r.upper)
}

// LowerIDs returns the lower-tier identifiers in lexicographic order.
func (r *Registry) LowerIDs() []string {
	return sortedKeys(r.lower)
}

// InUpper reports whether id is an upper-tier identifier.
func (r *Registry) InUpper(id string) bool {
	_, ok := r.upper[id]
	return ok
}

// InLower reports whether id is a lower-tier identifier.
func (r *Registry) InLower(id string) bool {
	_, ok := r.lower[id]
	return ok
}
