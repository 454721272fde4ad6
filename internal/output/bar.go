package output

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/blackwell-systems/depscope/internal/registry"
)

const (
	barChar  = "━"
	padChar  = " "
	barWidth = 15

	// Share of total bytes above which recursive complements are called out.
	notableComplementRatio = 0.33
)

// RenderBar renders a horizontal bar per upper-tier package, largest total
// cost first. Each bar splits into own, mandatory and optional segments, with
// the three ratios printed alongside. The manager name only selects the
// legend wording.
func RenderBar(reg *registry.Registry, manager string, color bool) string {
	var lines []string
	if manager == "flatpak" {
		lines = append(lines,
			colorize(barChar, colorYellow, color)+" application size",
			colorize(barChar, colorCyan, color)+" runtime size per share count",
			colorize(barChar, colorGreen, color)+" sum of size per share count over all recursive extensions",
		)
	} else {
		lines = append(lines,
			colorize(barChar, colorYellow, color)+" size of the explicitly user-installed package",
			colorize(barChar, colorCyan, color)+" sum of size per share count over all implicit recursive requirements",
			colorize(barChar, colorGreen, color)+" sum of size per share count over all other implicit recursive requirements and recommendations",
		)
	}
	lines = append(lines, "")

	ids := reg.UpperIDs()
	sort.SliceStable(ids, func(i, j int) bool {
		a, _ := reg.Get(ids[i])
		b, _ := reg.Get(ids[j])
		if a.TotalBytes() != b.TotalBytes() {
			return a.TotalBytes() > b.TotalBytes()
		}
		return ids[i] < ids[j]
	})
	if len(ids) == 0 {
		return strings.Join(lines, "\n") + "\n"
	}

	var minTotal, maxTotal float64
	for i, id := range ids {
		pkg, _ := reg.Get(id)
		total := pkg.TotalBytes()
		if i == 0 || total > maxTotal {
			maxTotal = total
		}
		if i == 0 || total < minTotal {
			minTotal = total
		}
	}
	// Smallest bar width is proportional to the smallest total so that bar
	// lengths stay comparable across packages.
	minWidth := float64(barWidth)
	if maxTotal > 0 {
		minWidth = math.Round(minTotal * barWidth / maxTotal)
	}

	for _, id := range ids {
		pkg, _ := reg.Get(id)
		size := minMaxNormalize(pkg.TotalBytes(), minTotal, maxTotal, minWidth, barWidth)

		var a, b, c int
		var ratios string
		own, mandatory, optional, ok := pkg.ByteRatios()
		if !ok {
			ratios = colorize("NaN NaN NaN", colorGray, color)
		} else {
			a = int(math.Round(size * own))
			b = int(math.Round(size * mandatory))
			c = int(math.Round(size * optional))

			// Rounding drift goes to the dominant segment so the bar
			// fills its allotted width exactly.
			segments := []int{a, b, c}
			values := []float64{own, mandatory, optional}
			dominant := 0
			for i, v := range values {
				if v > values[dominant] {
					dominant = i
				}
			}
			segments[dominant] += int(math.Round(size)) - (a + b + c)
			a, b, c = segments[0], segments[1], segments[2]

			ratios = strings.Join([]string{
				colorize(fmtRatio(own), ratioColor(own, values[dominant], colorYellow, colorBrightYellow), color),
				colorize(fmtRatio(mandatory), ratioColor(mandatory, values[dominant], colorCyan, colorBrightCyan), color),
				colorize(fmtRatio(optional), ratioColor(optional, values[dominant], colorGreen, colorBrightGreen), color),
			}, " ")
		}

		notable := notableAdvice(reg, pkg, optional, color)

		value, unit := splitSize(int64(pkg.TotalBytes()))
		bar := colorize(strings.Repeat(barChar, a), colorYellow, color) +
			colorize(strings.Repeat(barChar, b), colorCyan, color) +
			colorize(strings.Repeat(barChar, c), colorGreen, color) +
			strings.Repeat(padChar, barWidth-a-b-c)
		lines = append(lines, fmt.Sprintf("%4s %-2s %s [%s] %s%s",
			value, unit, ratios, bar, pkg.Name, notable))
	}
	return strings.Join(lines, "\n") + "\n"
}

// ratioColor picks gray for an empty segment and the bright variant for the
// dominant one.
func ratioColor(ratio, dominant float64, normal, bright string) string {
	switch {
	case ratio == 0:
		return colorGray
	case ratio == dominant:
		return bright
	default:
		return normal
	}
}

// notableAdvice points at the costliest recommended lower-tier package when
// optional attribution dominates enough to be worth investigating.
func notableAdvice(reg *registry.Registry, pkg *registry.Package, optional float64, color bool) string {
	if optional <= notableComplementRatio {
		return ""
	}
	var best string
	var bestShare float64
	for _, advice := range pkg.Advises {
		target, ok := reg.Get(advice)
		if !ok || !reg.InLower(advice) {
			continue
		}
		count := target.ClaimantCount
		if count < 1 {
			count = 1
		}
		share := float64(target.InstalledBytes) / float64(count)
		if best == "" || share > bestShare || (share == bestShare && advice < best) {
			best = advice
			bestShare = share
		}
	}
	if best == "" {
		return ""
	}
	target, _ := reg.Get(best)
	suffix := ""
	complements := 0
	for id := range pkg.RecursiveComplements {
		if reg.InLower(id) {
			complements++
		}
	}
	if complements > 1 {
		suffix = "..."
	}
	return colorize(" -> "+target.Name+suffix, colorGreen, color)
}

// splitSize splits a humanized SI size into value and unit columns.
func splitSize(bytes int64) (value, unit string) {
	parts := strings.SplitN(formatSize(bytes), " ", 2)
	if len(parts) != 2 {
		return parts[0], ""
	}
	return parts[0], parts[1]
}
