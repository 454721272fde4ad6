package collector

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"

	"github.com/blackwell-systems/depscope/internal/registry"
)

// Flatpak collects installed applications, runtimes and runtime extensions.
// Applications start in the upper tier, runtimes and extensions in the lower
// tier. Extensions are attached to their extension points as advises edges;
// Locale and Debug extensions are hidden and their bytes folded into the
// package that owns the extension point.
type Flatpak struct {
	// Installation roots, overridable in tests.
	SystemRoot string
	UserRoot   string
}

// NewFlatpak returns a collector over the standard system and per-user
// flatpak installations.
func NewFlatpak() *Flatpak {
	home, _ := os.UserHomeDir()
	return &Flatpak{
		SystemRoot: "/var/lib/flatpak",
		UserRoot:   filepath.Join(home, ".local/share/flatpak"),
	}
}

// Name implements Collector.
func (f *Flatpak) Name() string { return "flatpak" }

// Reclassify implements Collector. Flatpak has no reclassification policy:
// the app/runtime split from the listing is authoritative.
func (f *Flatpak) Reclassify(*registry.Registry) {}

var flatpakColumns = []string{
	"ref", "name", "runtime", "branch", "size", "installation", "active", "description",
}

// Collect implements Collector.
func (f *Flatpak) Collect() (*registry.Registry, error) {
	out, err := run("flatpak", "list", "--all", "--columns="+strings.Join(flatpakColumns, ","))
	if err != nil {
		return nil, err
	}

	reg, err := parseFlatpakList(string(out))
	if err != nil {
		return nil, err
	}
	f.resolveExtensions(reg)
	return reg, nil
}

var hiddenExtensionPattern = regexp.MustCompile(`.*\.(?:Locale|Debug)/.*/.*`)

// parseFlatpakList builds a registry from `flatpak list` tab-separated
// output.
func parseFlatpakList(out string) (*registry.Registry, error) {
	reg := registry.New()

	scanner := bufio.NewScanner(strings.NewReader(out))
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		cells := strings.Split(line, "\t")
		for len(cells) < len(flatpakColumns) {
			cells = append(cells, "")
		}
		ref, name, runtime, branch := cells[0], cells[1], cells[2], cells[3]
		size, installation, description := cells[4], cells[5], cells[7]

		tier := registry.TierLower
		variety := "runtime"
		var requires []string
		if runtime != "" {
			tier = registry.TierUpper
			variety = "app"
			requires = []string{runtime}
		} else if hiddenExtensionPattern.MatchString(ref) {
			variety = "runtime/extension/hidden"
		}

		bytes, err := parseFlatpakSize(size)
		if err != nil {
			return nil, fmt.Errorf("parse size for %s: %w", ref, err)
		}

		err = reg.Put(tier, ref, &registry.Package{
			Name:           flatpakLabel(name, branch),
			Description:    description,
			Variety:        variety,
			Installation:   installation,
			Requires:       requires,
			InstalledBytes: bytes,
		})
		if err != nil {
			return nil, err
		}
	}
	return reg, nil
}

// parseFlatpakSize converts flatpak's human-readable sizes ("1.2 GB") to
// bytes.
func parseFlatpakSize(s string) (int64, error) {
	if s == "" {
		return 0, nil
	}
	n, err := humanize.ParseBytes(s)
	if err != nil {
		return 0, err
	}
	return int64(n), nil
}

// flatpakLabel appends the branch to the display name unless the name
// already carries it or the branch is a stable one.
func flatpakLabel(name, branch string) string {
	if strings.HasSuffix(name, branch) || strings.HasPrefix(branch, "stable") {
		return name
	}
	return name + " " + branch
}

// resolveExtensions reads each package's metadata file, resolves its
// extension points against the installed refs and wires the results into the
// registry.
func (f *Flatpak) resolveExtensions(reg *registry.Registry) {
	ids := reg.IDs()
	for _, ref := range ids {
		pkg, _ := reg.Get(ref)
		points := f.extensionPoints(pkg.Installation, strings.SplitN(pkg.Variety, "/", 2)[0], ref)
		for _, extension := range resolveExtensionPoints(points, ids) {
			ext, ok := reg.Get(extension)
			if !ok || extension == ref {
				continue
			}
			if ext.Variety == "runtime/extension/hidden" {
				pkg.InstalledBytes += ext.InstalledBytes
				ext.InstalledBytes = 0
			} else {
				pkg.Advises = append(pkg.Advises, extension)
				ext.Variety = "runtime/extension"
			}
		}
	}
}

// extensionPoint is one "[Extension name]" declaration from a metadata file,
// with the branch versions it accepts.
type extensionPoint struct {
	name     string
	versions []string
}

// extensionPoints parses the metadata file of an installed ref.
func (f *Flatpak) extensionPoints(installation, kind, ref string) []extensionPoint {
	root := f.SystemRoot
	if installation == "user" {
		root = f.UserRoot
	}
	path := filepath.Join(root, kind, ref, "active", "metadata")
	data, err := os.ReadFile(path)
	if err != nil {
		log.Debug("no metadata for ref", "ref", ref, "err", err)
		return nil
	}
	branch := ref[strings.LastIndex(ref, "/")+1:]
	return parseExtensionPoints(string(data), branch)
}

var extensionSectionPattern = regexp.MustCompile(`^\[Extension ([^@\]]*)@?([^\]]*)\]$`)

// parseExtensionPoints extracts extension points from flatpak metadata
// keyfile content. If neither "version" nor "versions" is given, the branch
// of the declaring ref is assumed.
func parseExtensionPoints(data, refBranch string) []extensionPoint {
	var points []extensionPoint
	var current *extensionPoint
	var version string
	var versions []string

	flush := func() {
		if current == nil {
			return
		}
		for _, v := range append(versions, version, refBranch) {
			if v != "" && !contains(current.versions, v) {
				current.versions = append(current.versions, v)
			}
		}
		points = append(points, *current)
		current = nil
	}

	scanner := bufio.NewScanner(strings.NewReader(data))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if strings.HasPrefix(line, "[") {
			flush()
			version, versions = "", nil
			if m := extensionSectionPattern.FindStringSubmatch(line); m != nil {
				current = &extensionPoint{name: m[1]}
			}
			continue
		}
		if current == nil {
			continue
		}
		if key, value, ok := strings.Cut(line, "="); ok {
			switch strings.TrimSpace(key) {
			case "version":
				version = strings.TrimSpace(value)
			case "versions":
				for _, v := range strings.Split(value, ";") {
					if v = strings.TrimSpace(v); v != "" {
						versions = append(versions, v)
					}
				}
			}
		}
	}
	flush()
	return points
}

// resolveExtensionPoints matches extension points against installed refs.
// A ref matches a point when it extends the point's name and its branch is
// one of the accepted versions.
func resolveExtensionPoints(points []extensionPoint, refs []string) []string {
	var extensions []string
	for _, point := range points {
		for _, ref := range refs {
			rest, ok := strings.CutPrefix(ref, point.name)
			if !ok || rest == "" || (rest[0] != '.' && rest[0] != '/') {
				continue
			}
			idx := strings.LastIndex(ref, "/")
			if idx < 0 {
				continue
			}
			if contains(point.versions, ref[idx+1:]) {
				extensions = append(extensions, ref)
			}
		}
	}
	return extensions
}

func contains(values []string, v string) bool {
	for _, x := range values {
		if x == v {
			return true
		}
	}
	return false
}
