package manifest

import (
	"fmt"
	"slices"
	"strings"
)

// CycleWarning reports functions that include each other.
//
// Cycles are warnings, not errors: Assemble pulls in a single level of
// includes, so mutually including functions still assemble. They only fail
// once the compiler sees the recursion.
type CycleWarning struct {
	Path    []string `json:"path"` // ["a", "b", "a"]
	Message string   `json:"message"`
}

// includeGraph maps a function name to the functions it includes.
type includeGraph map[string][]string

// AnalyzeCycles finds include cycles among m's functions.
//
// The graph has an edge f -> g when f includes the entry symbol of g.
// Each strongly connected component with more than one function is
// reported once. Self-includes are left to Validate (ErrSelfInclude).
// A manifest without cycles returns an empty list.
func AnalyzeCycles(m *Manifest) []CycleWarning {
	graph, order := buildIncludeGraph(m)

	warnings := []CycleWarning{}
	for _, scc := range tarjanSCC(graph, order) {
		if len(scc) < 2 {
			continue
		}
		path := cyclePath(scc, graph)
		warnings = append(warnings, CycleWarning{
			Path:    path,
			Message: fmt.Sprintf("include cycle: %s", strings.Join(path, " → ")),
		})
	}
	return warnings
}

// buildIncludeGraph returns the graph and the function names in
// declaration order, which fixes the order of reported cycles.
func buildIncludeGraph(m *Manifest) (includeGraph, []string) {
	graph := make(includeGraph, len(m.Functions))
	order := make([]string, 0, len(m.Functions))
	for _, fn := range m.Functions {
		graph[fn.Name] = []string{}
		order = append(order, fn.Name)
	}
	for _, fn := range m.Functions {
		for _, inc := range fn.Includes {
			if _, ok := graph[inc.Symbol]; ok && inc.Symbol != fn.Name {
				graph[fn.Name] = append(graph[fn.Name], inc.Symbol)
			}
		}
	}
	return graph, order
}

// tarjanSCC finds strongly connected components using Tarjan's algorithm.
func tarjanSCC(graph includeGraph, order []string) [][]string {
	var (
		index   = 0
		stack   []string
		indices = make(map[string]int)
		lowlink = make(map[string]int)
		onStack = make(map[string]bool)
		sccs    [][]string
	)

	var strongConnect func(string)
	strongConnect = func(v string) {
		indices[v] = index
		lowlink[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range graph[v] {
			if _, visited := indices[w]; !visited {
				strongConnect(w)
				lowlink[v] = min(lowlink[v], lowlink[w])
			} else if onStack[w] {
				lowlink[v] = min(lowlink[v], indices[w])
			}
		}

		// v is a root: pop its component.
		if lowlink[v] == indices[v] {
			var scc []string
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				scc = append(scc, w)
				if w == v {
					break
				}
			}
			sccs = append(sccs, scc)
		}
	}

	for _, node := range order {
		if _, visited := indices[node]; !visited {
			strongConnect(node)
		}
	}
	return sccs
}

// cyclePath returns a shortest cycle through the component's root, found
// by breadth-first search inside the component.
func cyclePath(scc []string, graph includeGraph) []string {
	members := make(map[string]bool, len(scc))
	for _, n := range scc {
		members[n] = true
	}

	// Tarjan pops the root last.
	start := scc[len(scc)-1]
	prev := map[string]string{}
	queue := []string{start}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for _, w := range graph[current] {
			if !members[w] {
				continue
			}
			if w == start {
				path := []string{start}
				for n := current; n != start; n = prev[n] {
					path = append(path, n)
				}
				slices.Reverse(path[1:])
				return append(path, start)
			}
			if _, seen := prev[w]; !seen {
				prev[w] = current
				queue = append(queue, w)
			}
		}
	}
	return []string{start, start}
}
