package collector

import (
	"bufio"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/blackwell-systems/depscope/internal/analyzer"
	"github.com/blackwell-systems/depscope/internal/graph"
	"github.com/blackwell-systems/depscope/internal/registry"
)

// Apt collects installed Debian packages via dpkg-query. The operating
// system baseline (required/important/standard priorities, task packages,
// everything they transitively require, and installer-era transactions from
// the history logs) is excluded up front; the remaining packages are split
// into tiers by the apt auto-installed marker plus the history evidence.
// Library packages start in the lower tier unless history shows the user
// installed them by hand, since their marker is unreliable.
type Apt struct {
	// ExtendedStatesPath holds apt's auto-installed markers, overridable
	// in tests.
	ExtendedStatesPath string
	// HistoryLogGlob matches apt's transaction logs, including rotated
	// ones.
	HistoryLogGlob string
}

// NewApt returns a collector over the system dpkg database.
func NewApt() *Apt {
	return &Apt{
		ExtendedStatesPath: "/var/lib/apt/extended_states",
		HistoryLogGlob:     "/var/log/apt/history.log*",
	}
}

// Name implements Collector.
func (a *Apt) Name() string { return "apt" }

// Reclassify implements Collector. Lower-tier packages disconnected from the
// upper tier are leftovers of the baseline subtraction and are discarded.
func (a *Apt) Reclassify(reg *registry.Registry) {
	analyzer.Prune(reg)
}

const dpkgShowFormat = "${Package}\\t${Architecture}\\t${Installed-Size}\\t${Priority}\\t${Section}\\t${binary:Summary}\\t${Depends}\\t${Pre-Depends}\\t${Recommends}\\t${Suggests}\\t${Enhances}\\n"

// dpkgRecord is one parsed dpkg-query line.
type dpkgRecord struct {
	name       string
	arch       string
	sizeKiB    int64
	priority   string
	section    string
	summary    string
	depends    string
	preDepends string
	recommends string
	suggests   string
	enhances   string
}

func (r dpkgRecord) id() string { return r.name + ":" + r.arch }

// Collect implements Collector.
func (a *Apt) Collect() (*registry.Registry, error) {
	out, err := run("dpkg-query", "--show", "--showformat="+dpkgShowFormat)
	if err != nil {
		return nil, err
	}

	records := parseDpkgOutput(string(out))

	auto := make(map[string]bool)
	if data, err := os.ReadFile(a.ExtendedStatesPath); err == nil {
		auto = parseExtendedStates(string(data))
	} else {
		log.Debug("cannot read extended states, assuming all packages manual", "err", err)
	}

	return buildAptRegistry(records, auto, readAptHistory(a.HistoryLogGlob)), nil
}

func parseDpkgOutput(out string) []dpkgRecord {
	var records []dpkgRecord
	scanner := bufio.NewScanner(strings.NewReader(out))
	scanner.Buffer(make([]byte, 0, 1024*1024), 1024*1024)
	for scanner.Scan() {
		cells := strings.Split(scanner.Text(), "\t")
		if len(cells) < 11 {
			continue
		}
		size, _ := strconv.ParseInt(cells[2], 10, 64)
		records = append(records, dpkgRecord{
			name:       cells[0],
			arch:       cells[1],
			sizeKiB:    size,
			priority:   cells[3],
			section:    cells[4],
			summary:    cells[5],
			depends:    cells[6],
			preDepends: cells[7],
			recommends: cells[8],
			suggests:   cells[9],
			enhances:   cells[10],
		})
	}
	return records
}

// parseExtendedStates returns the identifiers marked Auto-Installed in apt's
// extended_states stanza file.
func parseExtendedStates(data string) map[string]bool {
	auto := make(map[string]bool)
	var name, arch string
	var isAuto bool

	flush := func() {
		if name != "" && isAuto {
			auto[name+":"+arch] = true
		}
		name, arch, isAuto = "", "", false
	}

	scanner := bufio.NewScanner(strings.NewReader(data))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			flush()
			continue
		}
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		value = strings.TrimSpace(value)
		switch key {
		case "Package":
			name = value
		case "Architecture":
			arch = value
		case "Auto-Installed":
			isAuto = value == "1"
		}
	}
	flush()
	return auto
}

// osPriorities are the dpkg priorities whose packages belong to the
// operating system baseline rather than to the user.
var osPriorities = map[string]bool{
	"required":  true,
	"important": true,
	"standard":  true,
}

func buildAptRegistry(records []dpkgRecord, auto map[string]bool, hist aptHistory) *registry.Registry {
	byID := make(map[string]dpkgRecord, len(records))
	byName := make(map[string][]string)
	for _, r := range records {
		byID[r.id()] = r
		byName[r.name] = append(byName[r.name], r.id())
	}

	resolve := func(from dpkgRecord, field string) []string {
		return resolveDependencyField(field, from.arch, byName)
	}

	// The OS baseline: priority/section seeds plus everything they
	// transitively require.
	osNeighbors := func(id string) []string {
		r, ok := byID[id]
		if !ok {
			return nil
		}
		return append(resolve(r, r.depends), resolve(r, r.preDepends)...)
	}
	osSet := make(map[string]bool)
	for _, r := range records {
		if osPriorities[r.priority] || r.section == "tasks" {
			for id := range graph.Reachable(r.id(), osNeighbors) {
				osSet[id] = true
			}
		}
	}

	userSet := make(map[string]bool)
	for _, r := range records {
		if !osSet[r.id()] && !hist.os[r.id()] {
			userSet[r.id()] = true
		}
	}

	onlyUser := func(ids []string) []string {
		var kept []string
		for _, id := range ids {
			if userSet[id] {
				kept = append(kept, id)
			}
		}
		return kept
	}

	reg := registry.New()
	for _, r := range records {
		id := r.id()
		if !userSet[id] {
			continue
		}
		tier := registry.TierUpper
		// A libs-section package stays on top only when history shows a
		// surviving hand-picked install.
		if auto[id] || hist.auto[id] ||
			(strings.HasPrefix(r.section, "libs") && !hist.manual[id]) {
			tier = registry.TierLower
		}
		// Duplicates cannot occur: byID deduplicates, but dpkg-query can
		// emit one line per arch of a multi-arch package under the same
		// name, which the arch qualifier keeps distinct.
		_ = reg.Put(tier, id, &registry.Package{
			Name:           r.name,
			Description:    r.summary,
			Category:       r.section,
			Requires:       onlyUser(append(resolve(r, r.depends), resolve(r, r.preDepends)...)),
			Advises:        onlyUser(resolve(r, r.recommends)),
			Suggests:       resolve(r, r.suggests),
			Enhances:       resolve(r, r.enhances),
			InstalledBytes: r.sizeKiB * 1024,
		})
	}
	return reg
}

// resolveDependencyField parses a dpkg relationship field ("a (>= 1), b | c")
// and resolves each comma group to the first installed alternative,
// preferring the dependent's own architecture.
func resolveDependencyField(field, arch string, byName map[string][]string) []string {
	if strings.TrimSpace(field) == "" {
		return nil
	}
	var resolved []string
	for _, group := range strings.Split(field, ",") {
		for _, alternative := range strings.Split(group, "|") {
			name := dependencyName(alternative)
			candidates := byName[name]
			if len(candidates) == 0 {
				continue
			}
			chosen := candidates[0]
			for _, id := range candidates {
				if strings.HasSuffix(id, ":"+arch) {
					chosen = id
					break
				}
			}
			resolved = append(resolved, chosen)
			break
		}
	}
	return resolved
}

// dependencyName strips version constraints and architecture qualifiers from
// one alternative of a relationship field.
func dependencyName(alternative string) string {
	name := strings.TrimSpace(alternative)
	if idx := strings.IndexAny(name, " ("); idx >= 0 {
		name = name[:idx]
	}
	if idx := strings.Index(name, ":"); idx >= 0 {
		name = name[:idx]
	}
	return name
}
