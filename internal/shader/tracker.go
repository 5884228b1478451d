package shader

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dbsmedya/assetprof/internal/graph"
)

// DefaultDerivedPrefix marks a feature as derived from the feature named by
// the rest of its name: USE_FOG derives from FOG.
const DefaultDerivedPrefix = "USE_"

// DependencyEdge lists the features derived from one base feature.
type DependencyEdge struct {
	Base    Feature   `json:"base" yaml:"base"`
	Derived []Feature `json:"derived" yaml:"derived"`
}

// Tracker records base -> derived feature relationships. It only keeps
// books; enumeration ignores it.
type Tracker struct {
	prefix string
	known  map[Feature]bool
	edges  map[Feature]map[Feature]bool
}

// NewTracker returns a tracker using prefix to recognize derived features.
// An empty prefix disables prefix detection; Declare still works.
func NewTracker(prefix string) *Tracker {
	return &Tracker{
		prefix: prefix,
		known:  make(map[Feature]bool),
		edges:  make(map[Feature]map[Feature]bool),
	}
}

// Record notes a feature seen on the shader and, when its name carries the
// derived prefix, adds an edge from its base.
func (t *Tracker) Record(f Feature) {
	t.known[f] = true
	if t.prefix == "" || !strings.HasPrefix(string(f), t.prefix) {
		return
	}
	base := Feature(strings.TrimPrefix(string(f), t.prefix))
	if base == "" {
		return
	}
	t.addEdge(base, f)
}

// RecordAll calls Record for each feature.
func (t *Tracker) RecordAll(features []Feature) {
	for _, f := range features {
		t.Record(f)
	}
}

// Declare adds an explicit base -> derived edge. Both names are required.
func (t *Tracker) Declare(base, derived Feature) error {
	if base == "" || derived == "" {
		return fmt.Errorf("dependency %q -> %q has an empty feature name", base, derived)
	}
	t.addEdge(base, derived)
	return nil
}

func (t *Tracker) addEdge(base, derived Feature) {
	set, ok := t.edges[base]
	if !ok {
		set = make(map[Feature]bool)
		t.edges[base] = set
	}
	set[derived] = true
}

// Known reports whether f was recorded on the shader.
func (t *Tracker) Known(f Feature) bool {
	return t.known[f]
}

// EdgesFrom returns the features derived from base, sorted.
func (t *Tracker) EdgesFrom(base Feature) []Feature {
	set := t.edges[base]
	out := make([]Feature, 0, len(set))
	for f := range set {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Edges returns all dependency edges ordered by base.
func (t *Tracker) Edges() []DependencyEdge {
	bases := make([]Feature, 0, len(t.edges))
	for b := range t.edges {
		bases = append(bases, b)
	}
	sort.Slice(bases, func(i, j int) bool { return bases[i] < bases[j] })

	out := make([]DependencyEdge, 0, len(bases))
	for _, b := range bases {
		out = append(out, DependencyEdge{Base: b, Derived: t.EdgesFrom(b)})
	}
	return out
}

// Inconsistent counts the variants that enable a derived feature while
// leaving its base off. Bases never recorded on the shader are ignored.
func (t *Tracker) Inconsistent(variants []Variant) int {
	count := 0
	for _, v := range variants {
		for base, derived := range t.edges {
			if !t.known[base] || v.Has(base) {
				continue
			}
			if anyEnabled(v, derived) {
				count++
				break
			}
		}
	}
	return count
}

func anyEnabled(v Variant, features map[Feature]bool) bool {
	for f := range features {
		if v.Has(f) {
			return true
		}
	}
	return false
}

// Graph builds the dependency graph.
func (t *Tracker) Graph() (*graph.Graph, error) {
	deps := make(map[string][]string, len(t.edges))
	for _, e := range t.Edges() {
		for _, d := range e.Derived {
			deps[string(e.Base)] = append(deps[string(e.Base)], string(d))
		}
	}
	return graph.BuildFromMap(deps)
}

// Cycles returns the features taking part in a dependency cycle, sorted.
// Prefix-derived edges cannot form one; declared edges can.
func (t *Tracker) Cycles() ([]Feature, error) {
	g, err := t.Graph()
	if err != nil {
		return nil, err
	}
	info := g.DetectIncompleteProcessing()
	if info == nil {
		return nil, nil
	}
	out := make([]Feature, 0, len(info.CycleParticipants))
	for _, name := range info.CycleParticipants {
		out = append(out, Feature(name))
	}
	return out, nil
}

// Order returns the features in the dependency graph base-first.
func (t *Tracker) Order() ([]Feature, error) {
	g, err := t.Graph()
	if err != nil {
		return nil, err
	}
	names, err := g.TopologicalSort()
	if err != nil {
		return nil, err
	}
	out := make([]Feature, len(names))
	for i, n := range names {
		out[i] = Feature(n)
	}
	return out, nil
}
