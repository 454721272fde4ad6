package analyzer

import (
	"math"
	"testing"

	"github.com/blackwell-systems/depscope/internal/registry"
)

func TestAttributeEqualSplit(t *testing.T) {
	reg := buildRegistry(t, []fixture{
		{id: "app1", tier: registry.TierUpper, requires: []string{"shared"}, bytes: 10},
		{id: "app2", tier: registry.TierUpper, requires: []string{"shared"}, bytes: 10},
		{id: "app3", tier: registry.TierUpper, requires: []string{"shared"}, bytes: 10},
		{id: "shared", tier: registry.TierLower, bytes: 900},
	})

	ComputeClosures(reg)
	Attribute(reg)

	shared, _ := reg.Get("shared")
	if shared.ClaimantCount != 3 {
		t.Errorf("expected claimant count 3, got %d", shared.ClaimantCount)
	}
	for _, id := range []string{"app1", "app2", "app3"} {
		pkg, _ := reg.Get(id)
		if pkg.MandatoryPseudobytes != 300 {
			t.Errorf("%s: expected 300 mandatory pseudobytes, got %v", id, pkg.MandatoryPseudobytes)
		}
		if pkg.OptionalPseudobytes != 0 {
			t.Errorf("%s: expected 0 optional pseudobytes, got %v", id, pkg.OptionalPseudobytes)
		}
	}
}

func TestAttributeMixedClaimants(t *testing.T) {
	// One mandatory and one optional claimant split the cost into equal
	// halves, one counted on each side.
	reg := buildRegistry(t, []fixture{
		{id: "app1", tier: registry.TierUpper, requires: []string{"lib"}},
		{id: "app2", tier: registry.TierUpper, advises: []string{"lib"}},
		{id: "lib", tier: registry.TierLower, bytes: 500},
	})

	ComputeClosures(reg)
	Attribute(reg)

	app1, _ := reg.Get("app1")
	app2, _ := reg.Get("app2")
	if app1.MandatoryPseudobytes != 250 || app1.OptionalPseudobytes != 0 {
		t.Errorf("app1: expected 250/0, got %v/%v", app1.MandatoryPseudobytes, app1.OptionalPseudobytes)
	}
	if app2.MandatoryPseudobytes != 0 || app2.OptionalPseudobytes != 250 {
		t.Errorf("app2: expected 0/250, got %v/%v", app2.MandatoryPseudobytes, app2.OptionalPseudobytes)
	}
}

func TestAttributeDisconnectedReceivesNothing(t *testing.T) {
	reg := buildRegistry(t, []fixture{
		{id: "app", tier: registry.TierUpper, requires: []string{"lib"}, bytes: 100},
		{id: "lib", tier: registry.TierLower, bytes: 300},
		{id: "orphan", tier: registry.TierLower, bytes: 50},
	})

	ComputeClosures(reg)
	Attribute(reg)

	orphan, _ := reg.Get("orphan")
	if orphan.ClaimantCount != 0 {
		t.Errorf("expected claimant count 0, got %d", orphan.ClaimantCount)
	}
	app, _ := reg.Get("app")
	if app.Pseudobytes() != 300 {
		t.Errorf("expected 300 pseudobytes on app, got %v", app.Pseudobytes())
	}
}

func TestAttributeEndToEndScenario(t *testing.T) {
	reg := buildRegistry(t, []fixture{
		{id: "U1", tier: registry.TierUpper, requires: []string{"L1"}, bytes: 100},
		{id: "L1", tier: registry.TierLower, bytes: 300},
	})

	ComputeClosures(reg)
	Attribute(reg)

	u1, _ := reg.Get("U1")
	l1, _ := reg.Get("L1")
	if !u1.RecursiveRequires["L1"] || len(u1.RecursiveRequires) != 1 {
		t.Errorf("expected recursive requires of U1 to be {L1}, got %v", u1.RecursiveRequires)
	}
	if l1.ClaimantCount != 1 {
		t.Errorf("expected claimant count 1, got %d", l1.ClaimantCount)
	}
	if u1.MandatoryPseudobytes != 300 {
		t.Errorf("expected 300 mandatory pseudobytes, got %v", u1.MandatoryPseudobytes)
	}
	if u1.TotalBytes() != 400 {
		t.Errorf("expected total attributed bytes 400, got %v", u1.TotalBytes())
	}
}

// conservation checks the primary correctness property: installed bytes of
// all claimed packages equal the total attributed bytes of the upper tier.
func conservation(t *testing.T, reg *registry.Registry) {
	t.Helper()

	var claimedInstalled float64
	for _, id := range reg.IDs() {
		pkg, _ := reg.Get(id)
		if reg.InUpper(id) || pkg.ClaimantCount != 0 {
			claimedInstalled += float64(pkg.InstalledBytes)
		}
	}

	var upperTotal float64
	for _, id := range reg.UpperIDs() {
		pkg, _ := reg.Get(id)
		upperTotal += pkg.TotalBytes()
	}

	if diff := math.Abs(claimedInstalled - upperTotal); diff > 1e-6*math.Max(1, upperTotal) {
		t.Errorf("conservation violated: claimed installed %v, upper total %v", claimedInstalled, upperTotal)
	}
}

func TestAttributeConservation(t *testing.T) {
	reg := buildRegistry(t, []fixture{
		{id: "editor", tier: registry.TierUpper, requires: []string{"gtk", "glib"}, advises: []string{"spell"}, bytes: 1200},
		{id: "player", tier: registry.TierUpper, requires: []string{"glib", "codec"}, bytes: 800},
		{id: "game", tier: registry.TierUpper, requires: []string{"sdl"}, advises: []string{"codec"}, bytes: 5000},
		{id: "gtk", tier: registry.TierLower, requires: []string{"glib", "pango"}, bytes: 4000},
		{id: "glib", tier: registry.TierLower, bytes: 1500},
		{id: "pango", tier: registry.TierLower, requires: []string{"glib"}, bytes: 600},
		{id: "sdl", tier: registry.TierLower, bytes: 900},
		{id: "codec", tier: registry.TierLower, bytes: 2500},
		{id: "spell", tier: registry.TierLower, bytes: 333},
		{id: "orphan", tier: registry.TierLower, bytes: 777},
	})

	ComputeClosures(reg)
	Attribute(reg)

	conservation(t, reg)

	orphan, _ := reg.Get("orphan")
	if orphan.ClaimantCount != 0 {
		t.Errorf("expected orphan to stay unclaimed, got count %d", orphan.ClaimantCount)
	}
}

func TestAttributeConservationWithCycles(t *testing.T) {
	reg := buildRegistry(t, []fixture{
		{id: "app", tier: registry.TierUpper, requires: []string{"x"}, bytes: 100},
		{id: "x", tier: registry.TierLower, requires: []string{"y"}, bytes: 10},
		{id: "y", tier: registry.TierLower, requires: []string{"x"}, bytes: 20},
	})

	ComputeClosures(reg)
	Attribute(reg)

	conservation(t, reg)
}

func TestAttributeRerunIsStable(t *testing.T) {
	reg := buildRegistry(t, []fixture{
		{id: "app", tier: registry.TierUpper, requires: []string{"lib"}, bytes: 100},
		{id: "lib", tier: registry.TierLower, bytes: 300},
	})

	ComputeClosures(reg)
	Attribute(reg)
	Attribute(reg)

	app, _ := reg.Get("app")
	if app.MandatoryPseudobytes != 300 {
		t.Errorf("re-running attribution must not double-count, got %v", app.MandatoryPseudobytes)
	}
}

func TestRunPipeline(t *testing.T) {
	reg := buildRegistry(t, []fixture{
		{id: "app", tier: registry.TierUpper, requires: []string{"lib"}, bytes: 100},
		{id: "lib", tier: registry.TierLower, bytes: 300},
		{id: "orphan", tier: registry.TierLower, bytes: 50},
	})

	Run(reg, func(r *registry.Registry) { Prune(r) })

	if _, ok := reg.Get("orphan"); ok {
		t.Error("expected orphan to be pruned by the pipeline")
	}
	conservation(t, reg)
}
