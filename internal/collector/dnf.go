package collector

import (
	"bufio"
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/blackwell-systems/depscope/internal/analyzer"
	"github.com/blackwell-systems/depscope/internal/registry"
)

// Dnf collects installed RPM packages. Package facts and capability arrays
// come from rpm; the install reason comes from dnf's history database.
// Packages installed as part of a comps group are excluded outright, since
// they are neither wanted by the user nor dependencies of anything.
// Capabilities are resolved through a provides index built from the same
// query, so capabilities nothing installed provides (file paths, boolean
// deps) become inert dangling edges.
//
// The "user" reason is known to be abused by installers, so the promote
// policy moves disconnected packages that are not merely support for
// another orphan back into the upper tier.
type Dnf struct{}

// NewDnf returns a collector over the system RPM database.
func NewDnf() *Dnf { return &Dnf{} }

// Name implements Collector.
func (d *Dnf) Name() string { return "dnf" }

// Reclassify implements Collector.
func (d *Dnf) Reclassify(reg *registry.Registry) {
	analyzer.Promote(reg)
}

const rpmQueryFormat = "%{NAME}\\t%{ARCH}\\t%{SIZE}\\t%{GROUP}\\t%{SUMMARY}\\t" +
	"[%{PROVIDENAME},]\\t[%{REQUIRENAME},]\\t[%{RECOMMENDNAME},]\\t" +
	"[%{SUGGESTNAME},]\\t[%{SUPPLEMENTNAME},]\\t[%{ENHANCENAME},]\\n"

// rpmRecord is one parsed `rpm -qa` line.
type rpmRecord struct {
	name        string
	arch        string
	sizeBytes   int64
	group       string
	summary     string
	provides    []string
	requires    []string
	recommends  []string
	suggests    []string
	supplements []string
	enhances    []string
}

func (r rpmRecord) id() string { return r.name + ":" + r.arch }

// Collect implements Collector.
func (d *Dnf) Collect() (*registry.Registry, error) {
	rpmOut, err := run("rpm", "-qa", "--queryformat", rpmQueryFormat)
	if err != nil {
		return nil, err
	}
	reasonOut, err := run("dnf", "repoquery", "--installed", "--qf", "%{name}\\t%{arch}\\t%{reason}\\n")
	if err != nil {
		return nil, err
	}

	records := parseRpmOutput(string(rpmOut))
	reasons := parseInstallReasons(string(reasonOut))
	return buildDnfRegistry(records, reasons), nil
}

func parseRpmOutput(out string) []rpmRecord {
	var records []rpmRecord
	scanner := bufio.NewScanner(strings.NewReader(out))
	scanner.Buffer(make([]byte, 0, 1024*1024), 4*1024*1024)
	for scanner.Scan() {
		cells := strings.Split(scanner.Text(), "\t")
		if len(cells) < 11 {
			continue
		}
		size, _ := strconv.ParseInt(cells[2], 10, 64)
		records = append(records, rpmRecord{
			name:        cells[0],
			arch:        cells[1],
			sizeBytes:   size,
			group:       cells[3],
			summary:     cells[4],
			provides:    splitRpmArray(cells[5]),
			requires:    splitRpmArray(cells[6]),
			recommends:  splitRpmArray(cells[7]),
			suggests:    splitRpmArray(cells[8]),
			supplements: splitRpmArray(cells[9]),
			enhances:    splitRpmArray(cells[10]),
		})
	}
	return records
}

// splitRpmArray splits an rpm tag array formatted with a trailing separator
// ("a,b,c,"). The literal "(none)" appears when the tag is empty.
func splitRpmArray(field string) []string {
	field = strings.TrimSuffix(field, ",")
	if field == "" || field == "(none)" {
		return nil
	}
	return strings.Split(field, ",")
}

// parseInstallReasons maps identifiers to dnf's install reason ("user",
// "dependency", "group", ...).
func parseInstallReasons(out string) map[string]string {
	reasons := make(map[string]string)
	scanner := bufio.NewScanner(strings.NewReader(out))
	for scanner.Scan() {
		cells := strings.Split(strings.TrimSpace(scanner.Text()), "\t")
		if len(cells) == 3 {
			reasons[cells[0]+":"+cells[1]] = cells[2]
		}
	}
	return reasons
}

// skippedPrefixes are package families excluded from the analysis entirely:
// kernels accumulate versioned installs and glib components are wired into
// everything.
var skippedPrefixes = []string{"kernel", "glib"}

func skippedPackage(name string) bool {
	for _, prefix := range skippedPrefixes {
		if strings.HasPrefix(name, prefix) {
			return true
		}
	}
	return false
}

func buildDnfRegistry(records []rpmRecord, reasons map[string]string) *registry.Registry {
	providers := make(map[string][]string)
	kept := make([]rpmRecord, 0, len(records))
	for _, r := range records {
		// Group installs are neither wanted by the user nor dependencies
		// of anything; they leave the analysis entirely, provides and
		// all.
		if skippedPackage(r.name) || reasons[r.id()] == "group" {
			continue
		}
		kept = append(kept, r)
		for _, capability := range r.provides {
			providers[capabilityName(capability)] = append(providers[capabilityName(capability)], r.id())
		}
	}
	for capability := range providers {
		sort.Strings(providers[capability])
	}

	resolve := func(r rpmRecord, capabilities []string) []string {
		var resolved []string
		for _, capability := range capabilities {
			for _, provider := range providers[capabilityName(capability)] {
				// A package never depends on itself through its own
				// provides.
				if !strings.HasPrefix(provider, r.name+":") {
					resolved = append(resolved, provider)
				}
			}
		}
		return resolved
	}

	reg := registry.New()
	for _, r := range kept {
		tier := registry.TierLower
		if reasons[r.id()] == "user" {
			tier = registry.TierUpper
		}
		category := r.group
		if category == "Unspecified" {
			category = ""
		}
		err := reg.Put(tier, r.id(), &registry.Package{
			Name:           r.name,
			Description:    r.summary,
			Category:       category,
			Requires:       resolve(r, r.requires),
			Advises:        resolve(r, r.recommends),
			Suggests:       resolve(r, r.suggests),
			Supplements:    resolve(r, r.supplements),
			Enhances:       resolve(r, r.enhances),
			InstalledBytes: r.sizeBytes,
		})
		if err != nil {
			// rpm can report the same name.arch twice while a
			// transaction is half-finished; keep the first record.
			log.Debug("skipping duplicate rpm record", "id", r.id(), "err", err)
		}
	}
	return reg
}

// capabilityName strips any version constraint from a dependency capability
// ("libfoo >= 2.1" or "cap = 1").
func capabilityName(capability string) string {
	capability = strings.TrimSpace(capability)
	if idx := strings.IndexByte(capability, ' '); idx >= 0 {
		capability = capability[:idx]
	}
	return capability
}
