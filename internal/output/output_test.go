package output

import (
	"strings"
	"testing"

	"github.com/blackwell-systems/depscope/internal/analyzer"
	"github.com/blackwell-systems/depscope/internal/registry"
)

type fixture struct {
	id       string
	name     string
	tier     registry.Tier
	requires []string
	advises  []string
	bytes    int64
}

func sampleFixtures() []fixture {
	return []fixture{
		{"app:amd64", "app", registry.TierUpper, []string{"lib:amd64"}, []string{"opt:amd64"}, 400},
		{"tool:amd64", "tool", registry.TierUpper, []string{"lib:amd64"}, nil, 100},
		{"lib:amd64", "lib", registry.TierLower, nil, nil, 300},
		{"opt:amd64", "opt", registry.TierLower, nil, nil, 600},
	}
}

func buildAnalyzed(t *testing.T, fixtures []fixture) *registry.Registry {
	t.Helper()
	reg := registry.New()
	for _, f := range fixtures {
		pkg := &registry.Package{
			Name:           f.name,
			Requires:       f.requires,
			Advises:        f.advises,
			InstalledBytes: f.bytes,
		}
		if err := reg.Put(f.tier, f.id, pkg); err != nil {
			t.Fatalf("Put(%s) failed: %v", f.id, err)
		}
	}
	analyzer.Run(reg, nil)
	return reg
}

func TestWrapLabel(t *testing.T) {
	tests := []struct {
		in    string
		width int
		want  string
	}{
		{"short", 10, "short"},
		{"two words", 10, "two words"},
		{"gnome image viewer", 10, `gnome\nimage\nviewer`},
		{"", 10, ""},
		{"overlongsingleword", 5, "overlongsingleword"},
	}
	for _, tt := range tests {
		if got := wrapLabel(tt.in, tt.width); got != tt.want {
			t.Errorf("wrapLabel(%q, %d) = %q, want %q", tt.in, tt.width, got, tt.want)
		}
	}
}

func TestMinMaxNormalize(t *testing.T) {
	if got := minMaxNormalize(5, 0, 10, 0, 1); got != 0.5 {
		t.Errorf("midpoint = %v, want 0.5", got)
	}
	if got := minMaxNormalize(10, 0, 10, 0.2, 2); got != 2 {
		t.Errorf("maximum = %v, want 2", got)
	}
	// Degenerate range collapses to the midpoint of the target interval.
	if got := minMaxNormalize(7, 7, 7, 0, 2); got != 1 {
		t.Errorf("degenerate = %v, want 1", got)
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("abcdef", 4); got != "abcd" {
		t.Errorf("truncate = %q, want %q", got, "abcd")
	}
	if got := truncate("ab", 4); got != "ab" {
		t.Errorf("truncate = %q, want %q", got, "ab")
	}
	// Cutting by rune, not byte, keeps multibyte names valid UTF-8.
	if got := truncate("libréoffice", 4); got != "libr" {
		t.Errorf("truncate = %q, want %q", got, "libr")
	}
	if got := truncate("安定版パッケージ", 3); got != "安定版" {
		t.Errorf("truncate = %q, want %q", got, "安定版")
	}
}

func TestColorizeDisabled(t *testing.T) {
	if got := colorize("x", colorCyan, false); got != "x" {
		t.Errorf("disabled colorize = %q", got)
	}
	if got := colorize("x", colorCyan, true); got != colorCyan+"x"+colorReset {
		t.Errorf("enabled colorize = %q", got)
	}
}

func TestRenderDotStructure(t *testing.T) {
	reg := buildAnalyzed(t, sampleFixtures())
	dot := RenderDot(reg)

	if !strings.HasPrefix(dot, "digraph D {") {
		t.Fatalf("missing digraph header:\n%s", dot)
	}
	// lib is required by both upper packages, so it forms a shared group.
	if !strings.Contains(dot, `"#0"`) {
		t.Errorf("expected aggregated bottom group node:\n%s", dot)
	}
	if !strings.Contains(dot, `"app:amd64" -> "#0"`) || !strings.Contains(dot, `"tool:amd64" -> "#0"`) {
		t.Errorf("expected edges from both claimants to the group:\n%s", dot)
	}
	// opt is only recommended, so it lands in a rounded advice box.
	if !strings.Contains(dot, `"#R0"`) {
		t.Errorf("expected advice group node:\n%s", dot)
	}
	if !strings.Contains(dot, `label="opt\l"`) {
		t.Errorf("expected advice group label with opt:\n%s", dot)
	}
	if !strings.Contains(dot, `"app:amd64" -> "#R0"`) {
		t.Errorf("expected dashed edge to advice group:\n%s", dot)
	}
	if !strings.Contains(dot, `shape="circle"`) {
		t.Errorf("expected upper-tier circle nodes:\n%s", dot)
	}
}

func TestRenderDotDeterministic(t *testing.T) {
	first := RenderDot(buildAnalyzed(t, sampleFixtures()))

	// Same data inserted in reverse order must render identically.
	fixtures := sampleFixtures()
	for i, j := 0, len(fixtures)-1; i < j; i, j = i+1, j-1 {
		fixtures[i], fixtures[j] = fixtures[j], fixtures[i]
	}
	second := RenderDot(buildAnalyzed(t, fixtures))

	if first != second {
		t.Errorf("renders differ:\n%s\n---\n%s", first, second)
	}
}

func TestRenderBarOrderAndLegend(t *testing.T) {
	reg := buildAnalyzed(t, sampleFixtures())
	out := RenderBar(reg, "apt", false)

	if !strings.Contains(out, "explicitly user-installed") {
		t.Errorf("missing apt legend:\n%s", out)
	}
	appAt := strings.Index(out, " app")
	toolAt := strings.Index(out, " tool")
	if appAt < 0 || toolAt < 0 {
		t.Fatalf("missing package rows:\n%s", out)
	}
	// app carries 1150 attributed bytes, tool only 250.
	if appAt > toolAt {
		t.Errorf("expected app before tool:\n%s", out)
	}
}

func TestRenderBarFlatpakLegend(t *testing.T) {
	reg := buildAnalyzed(t, sampleFixtures())
	out := RenderBar(reg, "flatpak", false)
	if !strings.Contains(out, "application size") {
		t.Errorf("missing flatpak legend:\n%s", out)
	}
}

func TestRenderBarRatios(t *testing.T) {
	reg := buildAnalyzed(t, sampleFixtures())
	out := RenderBar(reg, "apt", false)

	// app: 400 own + 150 mandatory + 600 optional of 1150 total.
	if !strings.Contains(out, "0.3 0.1 0.5") {
		t.Errorf("missing app attribution ratios:\n%s", out)
	}
	// Optional attribution dominates app's bar, so the costliest
	// recommendation is called out.
	if !strings.Contains(out, "-> opt") {
		t.Errorf("missing notable advice pointer:\n%s", out)
	}
}

func TestRenderBarNoPackages(t *testing.T) {
	out := RenderBar(registry.New(), "apt", false)
	if !strings.HasSuffix(out, "\n") {
		t.Errorf("expected trailing newline:\n%q", out)
	}
}

func TestRenderDetailsLevels(t *testing.T) {
	reg := buildAnalyzed(t, sampleFixtures())
	out, err := RenderDetails(reg, "app:amd64", false)
	if err != nil {
		t.Fatalf("RenderDetails failed: %v", err)
	}

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected 4 lines (root, separator, two deps), got %d:\n%s", len(lines), out)
	}
	if !strings.HasPrefix(lines[0], "app") {
		t.Errorf("expected root first: %q", lines[0])
	}
	if lines[1] != "" {
		t.Errorf("expected blank separator between levels: %q", lines[1])
	}
	if !strings.HasPrefix(lines[2], "lib") || !strings.HasPrefix(lines[3], "opt") {
		t.Errorf("expected lib and opt at distance one:\n%s", out)
	}
}

func TestRenderDetailsAlignsMultibyteNames(t *testing.T) {
	fixtures := []fixture{
		{"café:amd64", "café", registry.TierUpper, []string{"lib:amd64"}, nil, 400},
		{"lib:amd64", "liblongname", registry.TierLower, nil, nil, 300},
	}
	reg := buildAnalyzed(t, fixtures)
	out, err := RenderDetails(reg, "café:amd64", false)
	if err != nil {
		t.Fatalf("RenderDetails failed: %v", err)
	}

	// The bars must line up in the same column whichever name precedes
	// them, counted in runes rather than bytes.
	barColumn := -1
	for _, line := range strings.Split(strings.TrimRight(out, "\n"), "\n") {
		if line == "" {
			continue
		}
		column := 0
		for _, r := range line {
			if r == '╴' || r == '━' {
				break
			}
			column++
		}
		if barColumn == -1 {
			barColumn = column
		} else if column != barColumn {
			t.Errorf("bar starts at column %d, want %d:\n%s", column, barColumn, out)
		}
	}
}

func TestRenderDetailsUnknownPackage(t *testing.T) {
	reg := buildAnalyzed(t, sampleFixtures())
	if _, err := RenderDetails(reg, "nope", false); err == nil {
		t.Error("expected error for unknown package")
	}
}

func TestCandidateUniquePrefix(t *testing.T) {
	reg := buildAnalyzed(t, sampleFixtures())
	got, err := Candidate(reg, "app")
	if err != nil {
		t.Fatalf("Candidate failed: %v", err)
	}
	if got != "app:amd64" {
		t.Errorf("Candidate = %q, want app:amd64", got)
	}
}

func TestCandidateAmbiguousPrefix(t *testing.T) {
	reg := registry.New()
	for _, id := range []string{"libfoo:amd64", "libbar:amd64"} {
		if err := reg.Put(registry.TierLower, id, &registry.Package{Name: id}); err != nil {
			t.Fatal(err)
		}
	}
	_, err := Candidate(reg, "lib")
	if err == nil {
		t.Fatal("expected error for ambiguous prefix")
	}
	if !strings.Contains(err.Error(), "libbar:amd64") || !strings.Contains(err.Error(), "libfoo:amd64") {
		t.Errorf("error should list both matches: %v", err)
	}
}

func TestCandidateSuggestsClosest(t *testing.T) {
	reg := buildAnalyzed(t, sampleFixtures())
	_, err := Candidate(reg, "apq")
	if err == nil {
		t.Fatal("expected error for unknown prefix")
	}
	if !strings.Contains(err.Error(), "did you mean") || !strings.Contains(err.Error(), "app:amd64") {
		t.Errorf("expected closest-match suggestion: %v", err)
	}
}

func TestEditDistance(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"abc", "abc", 0},
		{"abc", "abd", 1},
		{"kitten", "sitting", 3},
		{"", "abc", 3},
	}
	for _, tt := range tests {
		if got := editDistance(tt.a, tt.b); got != tt.want {
			t.Errorf("editDistance(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}
