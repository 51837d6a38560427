// Package graph discovers join paths across the model relation graph. The
// autocomplete surface suggests the intermediate models needed to connect the
// models a user already dragged onto the diagram.
package graph

import (
	"sort"
	"strings"

	"github.com/goliatone/go-qbe/pkg/registry"
)

// FindAllPaths returns every simple path between two nodes as ordered node
// sequences, start and end included.
func FindAllPaths(g registry.Graph, start, end string) [][]string {
	return extendPath(g, start, end, nil)
}

func extendPath(g registry.Graph, start, end string, path []string) [][]string {
	path = append(append([]string(nil), path...), start)
	if start == end {
		return [][]string{path}
	}
	edges, ok := g[start]
	if !ok {
		return nil
	}
	var paths [][]string
	for _, edge := range edges {
		if containsNode(path, edge.Target) {
			continue
		}
		paths = append(paths, extendPath(g, edge.Target, end, path)...)
	}
	return paths
}

// Autocomplete returns, for the models currently selected, the sets of
// intermediate models that would complete a join path covering all of them.
// Results are deduplicated and sorted by size, shortest completion first.
// Fewer than two selected models yields nil.
func Autocomplete(g registry.Graph, selected []string) [][]string {
	if len(selected) < 2 {
		return nil
	}
	want := make(map[string]struct{}, len(selected))
	for _, node := range selected {
		want[node] = struct{}{}
	}

	var valid [][]string
	seen := make(map[string]struct{})
	for i := 0; i < len(selected); i++ {
		for j := i + 1; j < len(selected); j++ {
			for _, path := range FindAllPaths(g, selected[i], selected[j]) {
				if !coversAll(path, want) {
					continue
				}
				completion := stripSelected(path, want)
				key := strings.Join(completion, "|")
				if _, dup := seen[key]; dup {
					continue
				}
				seen[key] = struct{}{}
				valid = append(valid, completion)
			}
		}
	}
	sort.Slice(valid, func(i, j int) bool {
		if len(valid[i]) != len(valid[j]) {
			return len(valid[i]) < len(valid[j])
		}
		return strings.Join(valid[i], "|") < strings.Join(valid[j], "|")
	})
	return valid
}

func coversAll(path []string, want map[string]struct{}) bool {
	have := make(map[string]struct{}, len(path))
	for _, node := range path {
		have[node] = struct{}{}
	}
	for node := range want {
		if _, ok := have[node]; !ok {
			return false
		}
	}
	return true
}

func stripSelected(path []string, want map[string]struct{}) []string {
	out := make([]string, 0, len(path))
	for _, node := range path {
		if _, ok := want[node]; ok {
			continue
		}
		out = append(out, node)
	}
	return out
}

// ShortestPath returns the shortest simple path between two nodes, or nil
// when the nodes are not connected. Ties break lexicographically so query
// generation stays deterministic.
func ShortestPath(g registry.Graph, start, end string) []string {
	paths := FindAllPaths(g, start, end)
	if len(paths) == 0 {
		return nil
	}
	sort.Slice(paths, func(i, j int) bool {
		if len(paths[i]) != len(paths[j]) {
			return len(paths[i]) < len(paths[j])
		}
		return strings.Join(paths[i], "|") < strings.Join(paths[j], "|")
	})
	return paths[0]
}

// EdgeBetween resolves the graph edge connecting two adjacent nodes.
func EdgeBetween(g registry.Graph, from, to string) (registry.Edge, bool) {
	for _, edge := range g[from] {
		if edge.Target == to {
			return edge, true
		}
	}
	return registry.Edge{}, false
}

func containsNode(path []string, node string) bool {
	for _, existing := range path {
		if existing == node {
			return true
		}
	}
	return false
}
