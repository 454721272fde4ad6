// Package graph provides traversal primitives over an abstract identifier
// space. The caller supplies a neighbor function; the package knows nothing
// about package semantics and is reused by the analyzer, the collectors and
// the output layers.
package graph

// NeighborFunc returns the direct neighbors of an identifier. It may return
// identifiers more than once; traversal visits each identifier at most once.
type NeighborFunc func(id string) []string

// Reachable returns the set of all identifiers reachable from start,
// including start itself. It uses an explicit stack rather than recursion so
// that deep dependency chains cannot exhaust the call stack, and a visited
// set so that cycles terminate.
func Reachable(start string, neighbors NeighborFunc) map[string]bool {
	visited := map[string]bool{start: true}
	stack := []string{start}

	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		for _, next := range neighbors(id) {
			if !visited[next] {
				visited[next] = true
				stack = append(stack, next)
			}
		}
	}

	return visited
}

// Distances returns the shortest hop count from start to every reachable
// identifier, 0 for start itself. Identifiers are visited in non-decreasing
// distance order (breadth-first), which output layers use to group packages
// into ranks.
func Distances(start string, neighbors NeighborFunc) map[string]int {
	distances := map[string]int{start: 0}
	queue := []string{start}

	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]

		for _, next := range neighbors(id) {
			if _, seen := distances[next]; !seen {
				distances[next] = distances[id] + 1
				queue = append(queue, next)
			}
		}
	}

	return distances
}
