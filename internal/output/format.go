// Package output renders the analyzed package graph for the terminal.
//
// This package includes:
//   - A DOT renderer for the two-tier dependency graph
//   - A text bar graph of per-package disk cost with attribution ratios
//   - A per-package detail view ordered by dependency distance
//
// All text renderers use ANSI color codes gated on TTY detection and the
// NO_COLOR convention. The DOT renderer emits sorted statements so that
// repeated runs over the same data produce byte-identical output.
package output

import (
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"
)

// ANSI color codes for the bar and detail renderers.
const (
	colorReset  = "\033[0m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
	colorGreen  = "\033[32m"
	colorGray   = "\033[90m"

	colorBrightYellow = "\033[93m"
	colorBrightCyan   = "\033[96m"
	colorBrightGreen  = "\033[92m"
)

// IsColorEnabled returns true if ANSI color codes should be emitted.
// It checks that os.Stdout is a TTY and that the NO_COLOR env var is not set.
func IsColorEnabled() bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	return isatty.IsTerminal(os.Stdout.Fd())
}

// colorize wraps s in the given ANSI code when color output is enabled.
func colorize(s, color string, enabled bool) string {
	if !enabled || color == "" {
		return s
	}
	return color + s + colorReset
}

// formatSize renders a byte count in SI units, e.g. "340 MB".
func formatSize(bytes int64) string {
	if bytes < 0 {
		return "0 B"
	}
	return humanize.Bytes(uint64(bytes))
}

// minMaxNormalize rescales x from the range [min, max] to [a, b].
// When the input range is degenerate the midpoint of [a, b] is returned.
func minMaxNormalize(x, min, max, a, b float64) float64 {
	if max <= min {
		return (a + b) / 2
	}
	return a + (x-min)*(b-a)/(max-min)
}

// wrapLabel breaks s into lines no wider than width runes, splitting on
// existing word boundaries where possible. Lines are joined with the DOT
// escape sequence "\n".
func wrapLabel(s string, width int) string {
	var lines []string
	var current string
	for _, word := range strings.Fields(s) {
		switch {
		case current == "":
			current = word
		case len(current)+1+len(word) <= width:
			current += " " + word
		default:
			lines = append(lines, current)
			current = word
		}
	}
	if current != "" {
		lines = append(lines, current)
	}
	if len(lines) == 0 {
		return s
	}
	return strings.Join(lines, `\n`)
}

// truncate shortens s to at most n runes.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

func fmtRatio(r float64) string {
	return fmt.Sprintf("%.1f", r)
}
