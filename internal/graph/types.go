// Package graph provides the feature dependency graph used by shader analysis.
package graph

import "sort"

// Node is one feature in the dependency graph.
type Node struct {
	Name    string // Feature name
	Derived bool   // True if the feature was declared as depending on another
}

// Edge represents a dependency relationship between features.
type Edge struct {
	From string // Base feature
	To   string // Derived feature
}

// Graph is a directed graph of feature dependencies. Edges point from a base
// feature to the features derived from it.
type Graph struct {
	Nodes    map[string]*Node    // feature name -> node
	Children map[string][]string // base -> derived (outgoing edges)
	Parents  map[string][]string // derived -> base (incoming edges)
	edges    map[Edge]bool
}

// NewGraph creates a new empty graph.
func NewGraph() *Graph {
	return &Graph{
		Nodes:    make(map[string]*Node),
		Children: make(map[string][]string),
		Parents:  make(map[string][]string),
		edges:    make(map[Edge]bool),
	}
}

// AddNode adds a feature node. Adding an existing name is a no-op.
func (g *Graph) AddNode(name string) *Node {
	if node, ok := g.Nodes[name]; ok {
		return node
	}
	node := &Node{Name: name}
	g.Nodes[name] = node
	return node
}

// AddEdge adds a base -> derived relationship, creating both nodes as needed.
// Duplicate edges are ignored.
func (g *Graph) AddEdge(base, derived string) {
	g.AddNode(base)
	g.AddNode(derived).Derived = true

	edge := Edge{From: base, To: derived}
	if g.edges[edge] {
		return
	}
	g.edges[edge] = true

	// Add to children map (forward edges)
	g.Children[base] = append(g.Children[base], derived)

	// Add to parents map (reverse edges)
	g.Parents[derived] = append(g.Parents[derived], base)
}

// GetChildren returns the features derived from base.
func (g *Graph) GetChildren(base string) []string {
	return g.Children[base]
}

// GetParents returns the bases a derived feature depends on.
func (g *Graph) GetParents(derived string) []string {
	return g.Parents[derived]
}

// HasNode returns true if the graph contains a node with the given name.
func (g *Graph) HasNode(name string) bool {
	_, exists := g.Nodes[name]
	return exists
}

// HasEdge reports whether base -> derived was added.
func (g *Graph) HasEdge(base, derived string) bool {
	return g.edges[Edge{From: base, To: derived}]
}

// NodeCount returns the number of nodes in the graph.
func (g *Graph) NodeCount() int {
	return len(g.Nodes)
}

// EdgeCount returns the number of edges in the graph.
func (g *Graph) EdgeCount() int {
	return len(g.edges)
}

// AllNodes returns all feature names, sorted.
func (g *Graph) AllNodes() []string {
	nodes := make([]string, 0, len(g.Nodes))
	for name := range g.Nodes {
		nodes = append(nodes, name)
	}
	sort.Strings(nodes)
	return nodes
}

// AllEdges returns all edges sorted by base, then derived.
func (g *Graph) AllEdges() []Edge {
	edges := make([]Edge, 0, len(g.edges))
	for e := range g.edges {
		edges = append(edges, e)
	}
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].From != edges[j].From {
			return edges[i].From < edges[j].From
		}
		return edges[i].To < edges[j].To
	})
	return edges
}

// InDegree returns the number of incoming edges for a node.
func (g *Graph) InDegree(name string) int {
	return len(g.Parents[name])
}

// OutDegree returns the number of outgoing edges for a node.
func (g *Graph) OutDegree(name string) int {
	return len(g.Children[name])
}
