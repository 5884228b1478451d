package graph

import (
	"fmt"
	"sort"
)

// Build constructs a graph from base -> derived edges. Cycles are allowed
// in the result; call Validate or DetectIncompleteProcessing to find them.
func Build(edges []Edge) (*Graph, error) {
	g := NewGraph()
	for _, e := range edges {
		if e.From == "" || e.To == "" {
			return nil, fmt.Errorf("edge %q -> %q has an empty feature name", e.From, e.To)
		}
		g.AddEdge(e.From, e.To)
	}
	return g, nil
}

// BuildFromMap constructs a graph from a base -> derived-set mapping.
func BuildFromMap(deps map[string][]string) (*Graph, error) {
	bases := make([]string, 0, len(deps))
	for base := range deps {
		bases = append(bases, base)
	}
	sort.Strings(bases)

	var edges []Edge
	for _, base := range bases {
		for _, derived := range deps[base] {
			edges = append(edges, Edge{From: base, To: derived})
		}
	}
	return Build(edges)
}
