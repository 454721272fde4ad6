package output

import (
	"fmt"
	"sort"
	"strings"

	"github.com/blackwell-systems/depscope/internal/registry"
)

// Lower-tier packages whose claimant sets are smaller than this are left out
// of the drawing to keep it readable.
const groupCutOff = 2

// Fixed palette. Edge and fill variants carry an alpha suffix.
const (
	dotColorTop          = "#c98d5f"
	dotColorTopFill      = "#c98d5fa0"
	dotColorRequires     = "#73afc3"
	dotColorRequiresEdge = "#73afc380"
	dotColorAdvises      = "#8fbc8f"
	dotColorAdvisesFill  = "#8fbc8f60"
)

// depGraph accumulates DOT statements. Statements are sorted at render time
// so output does not depend on traversal order.
type depGraph struct {
	options []string
	nodes   []string
	edges   []string
}

func newDepGraph() *depGraph {
	return &depGraph{
		options: []string{
			"overlap=prism",
			"overlap_scaling=-6",
			"smoothing=rng",
			"splines=true",
			`esep="+10"`,
			"start=1",
			`tooltip=" "`,
			"node [fontname=Cantarell]",
		},
	}
}

func (g *depGraph) node(id, attrs string) {
	g.nodes = append(g.nodes, fmt.Sprintf("%q [%s]", id, attrs))
}

func (g *depGraph) edge(tail, head, attrs string) {
	g.edges = append(g.edges, fmt.Sprintf("%q -> %q [%s]", tail, head, attrs))
}

func (g *depGraph) render() string {
	var sb strings.Builder
	sb.WriteString("digraph D {\n\n")
	sort.Strings(g.nodes)
	sort.Strings(g.edges)
	for _, section := range [][]string{g.options, g.nodes, g.edges} {
		for _, stmt := range section {
			sb.WriteString("  ")
			sb.WriteString(stmt)
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}
	sb.WriteString("}\n")
	return sb.String()
}

type dotGroup struct {
	size    int64
	members []string
}

// RenderDot draws the two-tier graph in DOT language. Upper-tier packages
// become circles sized by total attributed bytes, lower-tier packages are
// aggregated into point nodes keyed by their set of upper-tier claimants,
// and recommendation targets form rounded boxes attached with dashed edges.
func RenderDot(reg *registry.Registry) string {
	graph := newDepGraph()
	allowedTop := make(map[string]bool)

	// Aggregate the lower tier by claimant set.
	bottomGroups := make(map[string]*dotGroup)
	for _, id := range reg.LowerIDs() {
		pkg, _ := reg.Get(id)
		var claimants []string
		for claimant := range pkg.RecursiveWhatRequires {
			if reg.InUpper(claimant) {
				claimants = append(claimants, claimant)
			}
		}
		sort.Strings(claimants)
		key := strings.Join(claimants, ",")
		group := bottomGroups[key]
		if group == nil {
			group = &dotGroup{}
			bottomGroups[key] = group
		}
		group.size += pkg.InstalledBytes
		group.members = append(group.members, id)
	}

	var groupSizes []float64
	for key, group := range bottomGroups {
		if key != "" && len(strings.Split(key, ",")) >= groupCutOff {
			groupSizes = append(groupSizes, float64(group.size))
		}
	}
	minBottom, maxBottom := minMax(groupSizes)

	var topSizes []float64
	for _, id := range reg.UpperIDs() {
		pkg, _ := reg.Get(id)
		topSizes = append(topSizes, pkg.TotalBytes())
	}
	minTop, maxTop := minMax(topSizes)

	// Requirement edges within the upper tier.
	for _, id := range reg.UpperIDs() {
		pkg, _ := reg.Get(id)
		for _, req := range pkg.Requires {
			if reg.InUpper(req) {
				allowedTop[id] = true
				allowedTop[req] = true
				graph.edge(id, req,
					fmt.Sprintf(`penwidth="4",color=%q`, dotColorTop))
			}
		}
	}

	// Recommendation edges within the upper tier, plus grouping of
	// recommendation targets that live in the lower tier.
	reverseAdvises := make(map[string]map[string]bool)
	for _, id := range reg.UpperIDs() {
		pkg, _ := reg.Get(id)
		for _, advice := range pkg.Advises {
			switch {
			case reg.InUpper(advice):
				allowedTop[id] = true
				allowedTop[advice] = true
				graph.edge(id, advice,
					fmt.Sprintf(`style="dashed",penwidth="4",color=%q`, dotColorAdvises))
			case reg.InLower(advice):
				if reverseAdvises[advice] == nil {
					reverseAdvises[advice] = make(map[string]bool)
				}
				reverseAdvises[advice][id] = true
			}
		}
	}
	adviceGroups := make(map[string]*dotGroup)
	for _, advice := range sortedKeys(reverseAdvises) {
		pkg, _ := reg.Get(advice)
		var advisers []string
		for adviser := range reverseAdvises[advice] {
			advisers = append(advisers, adviser)
		}
		sort.Strings(advisers)
		key := strings.Join(advisers, ",")
		group := adviceGroups[key]
		if group == nil {
			group = &dotGroup{}
			adviceGroups[key] = group
		}
		group.size += pkg.InstalledBytes
		group.members = append(group.members, advice)
	}

	// Point nodes for the aggregated lower tier.
	i := 0
	for _, key := range sortedKeys(bottomGroups) {
		claimants := strings.Split(key, ",")
		if key == "" || len(claimants) < groupCutOff {
			continue
		}
		group := bottomGroups[key]
		groupID := fmt.Sprintf("#%d", i)
		members := append([]string(nil), group.members...)
		sort.Strings(members)
		height := minMaxNormalize(float64(group.size), minBottom, maxBottom, 0.2, 2)
		graph.node(groupID, fmt.Sprintf(
			`shape="point",height="%.2f",fixedsize="true",color=%q,tooltip="%s"`,
			height, dotColorRequires, strings.Join(members, `\n`)))
		for _, claimant := range claimants {
			allowedTop[claimant] = true
			graph.edge(claimant, groupID, fmt.Sprintf(
				`arrowhead="none",color=%q,penwidth="1.5"`, dotColorRequiresEdge))
		}
		i++
	}

	// Rounded boxes for grouped recommendation targets.
	i = 0
	for _, key := range sortedKeys(adviceGroups) {
		group := adviceGroups[key]
		groupID := fmt.Sprintf("#R%d", i)
		members := append([]string(nil), group.members...)
		sort.Strings(members)
		names := make(map[string]bool)
		for _, member := range members {
			if pkg, ok := reg.Get(member); ok {
				names[pkg.Name] = true
			}
		}
		label := strings.Join(sortedKeys(names), `\l`) + `\l`
		graph.node(groupID, fmt.Sprintf(
			`label="%s",tooltip="%s",shape="box",fixedsize="false",style="rounded,filled",penwidth="2",color=%q,fillcolor=%q,labeljust="l"`,
			label, strings.Join(members, `\n`), dotColorAdvises, dotColorAdvisesFill))
		for _, adviser := range strings.Split(key, ",") {
			allowedTop[adviser] = true
			graph.edge(adviser, groupID, fmt.Sprintf(
				`style="dashed",penwidth="2",arrowhead="none",color=%q`, dotColorAdvises))
		}
		i++
	}

	// Circles for the upper tier.
	for _, id := range reg.UpperIDs() {
		if !allowedTop[id] {
			continue
		}
		pkg, _ := reg.Get(id)
		label := wrapLabel(truncate(pkg.Name, 40), 10)
		height := minMaxNormalize(pkg.TotalBytes(), minTop, maxTop, 1.2, 3)
		graph.node(id, fmt.Sprintf(
			`label="%s",shape="circle",penwidth="4",height="%.2f",fixedsize="true",color=%q,fillcolor=%q,style="filled"`,
			label, height, dotColorTop, dotColorTopFill))
	}

	return graph.render()
}

func minMax(values []float64) (min, max float64) {
	for i, v := range values {
		if i == 0 || v < min {
			min = v
		}
		if i == 0 || v > max {
			max = v
		}
	}
	return min, max
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
