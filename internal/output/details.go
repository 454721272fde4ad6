package output

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/blackwell-systems/depscope/internal/graph"
	"github.com/blackwell-systems/depscope/internal/registry"
)

const detailsBarWidth = 10

// RenderDetails renders the dependency neighborhood of one package: every
// package reachable through requirements or recommendations, grouped by hop
// distance, with a size bar per package. Names of mandatory dependencies are
// cyan, complements green.
func RenderDetails(reg *registry.Registry, id string, color bool) (string, error) {
	root, ok := reg.Get(id)
	if !ok {
		return "", fmt.Errorf("package %q not found", id)
	}

	neighbors := func(id string) []string {
		pkg, ok := reg.Get(id)
		if !ok {
			return nil
		}
		var out []string
		for _, edge := range append(append([]string(nil), pkg.Requires...), pkg.Advises...) {
			if _, ok := reg.Get(edge); ok {
				out = append(out, edge)
			}
		}
		return out
	}
	distances := graph.Distances(id, neighbors)

	ids := make([]string, 0, len(distances))
	for k := range distances {
		ids = append(ids, k)
	}
	sort.Slice(ids, func(i, j int) bool {
		if distances[ids[i]] != distances[ids[j]] {
			return distances[ids[i]] < distances[ids[j]]
		}
		return ids[i] < ids[j]
	})

	maxName := 0
	var maxBytes int64
	for _, k := range ids {
		pkg, _ := reg.Get(k)
		if n := utf8.RuneCountInString(pkg.Name); n > maxName {
			maxName = n
		}
		if pkg.InstalledBytes > maxBytes {
			maxBytes = pkg.InstalledBytes
		}
	}

	var lines []string
	previousLevel := 0
	for _, k := range ids {
		if level := distances[k]; level != previousLevel {
			lines = append(lines, "")
			previousLevel = level
		}
		pkg, _ := reg.Get(k)
		filled := 0
		if maxBytes > 0 {
			filled = int(math.Round(minMaxNormalize(
				float64(pkg.InstalledBytes), 0, float64(maxBytes), 0, detailsBarWidth)))
		}
		bar := colorize(strings.Repeat("╴", detailsBarWidth-filled), colorGray, color) +
			colorize(strings.Repeat(barChar, filled), colorYellow, color)

		nameColor := ""
		switch {
		case k == id:
		case root.RecursiveRequires[k]:
			nameColor = colorCyan
		default:
			nameColor = colorGreen
		}
		padded := pkg.Name + strings.Repeat(" ", maxName-utf8.RuneCountInString(pkg.Name))
		lines = append(lines, colorize(padded, nameColor, color)+" "+bar)
	}
	return strings.Join(lines, "\n") + "\n", nil
}

// Candidate resolves a package identifier prefix to a full identifier. When
// the prefix is ambiguous or unknown the error lists the closest match and
// every identifier sharing the prefix.
func Candidate(reg *registry.Registry, prefix string) (string, error) {
	var matches []string
	for _, id := range reg.IDs() {
		if strings.HasPrefix(id, prefix) {
			matches = append(matches, id)
		}
	}
	if len(matches) == 1 {
		return matches[0], nil
	}

	var sb strings.Builder
	if closest := closestMatch(reg.IDs(), prefix); closest != "" {
		fmt.Fprintf(&sb, "did you mean %q?", closest)
	} else {
		fmt.Fprintf(&sb, "package %q not found", prefix)
	}
	if len(matches) > 1 {
		fmt.Fprintf(&sb, "\n\npackages that start with %q:", prefix)
		for _, m := range matches {
			fmt.Fprintf(&sb, "\n  • %s", m)
		}
	}
	return "", fmt.Errorf("%s", sb.String())
}

// closestMatch returns the candidate with the smallest edit distance to s.
func closestMatch(candidates []string, s string) string {
	best := ""
	bestDist := -1
	for _, cand := range candidates {
		d := editDistance(s, cand)
		if bestDist < 0 || d < bestDist || (d == bestDist && cand < best) {
			best = cand
			bestDist = d
		}
	}
	return best
}

func editDistance(a, b string) int {
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min3(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}

func min3(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}
