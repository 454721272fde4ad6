// Package collector acquires raw package facts from a package manager and
// populates a registry with them. Each collector shells out to the manager's
// query tooling, parses the output into package records with tier guesses,
// and supplies the reclassification policy that corrects those guesses once
// closures are available.
package collector

import (
	"errors"
	"fmt"
	"os/exec"

	"github.com/blackwell-systems/depscope/internal/registry"
)

// ErrManagerNotFound is returned when the package manager's query tooling is
// not available on this system.
var ErrManagerNotFound = errors.New("package manager not found")

// Collector produces a populated registry for one package manager.
type Collector interface {
	// Name returns the manager name as used on the command line.
	Name() string

	// Collect queries the package manager and returns a registry with
	// every record's edges, size and initial tier assignment filled in.
	Collect() (*registry.Registry, error)

	// Reclassify is the manager-specific post-processing hook, invoked
	// once after closures are computed and before attribution runs.
	Reclassify(reg *registry.Registry)
}

// Managers lists the supported manager names in the order they are
// documented.
func Managers() []string {
	return []string{"apt", "dnf", "flatpak"}
}

// ByName returns the collector for a manager name.
func ByName(name string) (Collector, error) {
	switch name {
	case "apt":
		return NewApt(), nil
	case "dnf":
		return NewDnf(), nil
	case "flatpak":
		return NewFlatpak(), nil
	}
	return nil, fmt.Errorf("unknown package manager %q (supported: apt, dnf, flatpak)", name)
}

// Detect returns the collector for the first supported manager whose query
// tooling is installed on this system.
func Detect() (Collector, error) {
	probes := []struct {
		binary  string
		manager string
	}{
		{"dpkg-query", "apt"},
		{"rpm", "dnf"},
		{"flatpak", "flatpak"},
	}
	for _, probe := range probes {
		if _, err := exec.LookPath(probe.binary); err == nil {
			return ByName(probe.manager)
		}
	}
	return nil, fmt.Errorf("%w: no supported package manager detected", ErrManagerNotFound)
}

// run executes a command and returns its stdout, mapping a missing binary to
// ErrManagerNotFound and surfacing stderr on failure.
func run(name string, args ...string) ([]byte, error) {
	out, err := exec.Command(name, args...).Output()
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return nil, fmt.Errorf("%w: command %q not available", ErrManagerNotFound, name)
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return nil, fmt.Errorf("%s failed: %w (stderr: %s)", name, err, string(exitErr.Stderr))
		}
		return nil, fmt.Errorf("%s failed: %w", name, err)
	}
	return out, nil
}
