package graph

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrCycleDetected is returned when the dependency graph contains a cycle.
var ErrCycleDetected = errors.New("cycle detected in feature dependency graph")

// CycleInfo describes the features Kahn's algorithm could not order.
type CycleInfo struct {
	TotalNodes        int      // features in the graph
	ProcessedNodes    int      // features that were ordered
	UnprocessedNodes  []string // on a cycle or downstream of one, sorted
	CycleParticipants []string // the subset that lies on a cycle, sorted
	CyclePath         []string // one cycle, first participant at both ends
}

// CycleError wraps CycleInfo as an error.
type CycleError struct {
	Info *CycleInfo
}

func (e *CycleError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "cycle detected in feature dependency graph: %d of %d features could not be ordered",
		len(e.Info.UnprocessedNodes), e.Info.TotalNodes)
	if len(e.Info.CyclePath) > 0 {
		b.WriteString("\nCycle path: " + strings.Join(e.Info.CyclePath, " -> "))
	}
	if len(e.Info.CycleParticipants) > 0 {
		b.WriteString("\nFeatures in cycle: " + strings.Join(e.Info.CycleParticipants, ", "))
	}
	return b.String()
}

// Is lets errors.Is match ErrCycleDetected.
func (e *CycleError) Is(target error) bool {
	return target == ErrCycleDetected
}

// CalculateInDegrees returns the number of bases each feature depends on.
func (g *Graph) CalculateInDegrees() map[string]int {
	in := make(map[string]int, len(g.Nodes))
	for name := range g.Nodes {
		in[name] = len(g.Parents[name])
	}
	return in
}

// kahn orders the features base-first. The ready set is kept sorted and the
// smallest name is taken next, so the order depends only on the edges. Any
// feature missing from the result is on or behind a cycle.
func (g *Graph) kahn() []string {
	in := g.CalculateInDegrees()

	var ready []string
	for name, d := range in {
		if d == 0 {
			ready = append(ready, name)
		}
	}
	sort.Strings(ready)

	order := make([]string, 0, len(g.Nodes))
	for len(ready) > 0 {
		next := ready[0]
		ready = ready[1:]
		order = append(order, next)

		for _, child := range g.Children[next] {
			in[child]--
			if in[child] == 0 {
				i := sort.SearchStrings(ready, child)
				ready = append(ready, "")
				copy(ready[i+1:], ready[i:])
				ready[i] = child
			}
		}
	}
	return order
}

// TopologicalSort returns features base-first, or a *CycleError.
func (g *Graph) TopologicalSort() ([]string, error) {
	order := g.kahn()
	if len(order) != len(g.Nodes) {
		return nil, &CycleError{Info: g.cycleInfo(order)}
	}
	return order, nil
}

// DetectIncompleteProcessing returns nil when every feature can be ordered
// and the cycle diagnostics otherwise.
func (g *Graph) DetectIncompleteProcessing() *CycleInfo {
	order := g.kahn()
	if len(order) == len(g.Nodes) {
		return nil
	}
	return g.cycleInfo(order)
}

// HasCycle reports whether the graph contains a cycle.
func (g *Graph) HasCycle() bool {
	return len(g.kahn()) != len(g.Nodes)
}

// Validate returns a *CycleError if the graph contains a cycle.
func (g *Graph) Validate() error {
	if info := g.DetectIncompleteProcessing(); info != nil {
		return &CycleError{Info: info}
	}
	return nil
}

func (g *Graph) cycleInfo(order []string) *CycleInfo {
	done := make(map[string]bool, len(order))
	for _, name := range order {
		done[name] = true
	}

	stuck := make(map[string]bool)
	var unprocessed []string
	for _, name := range g.AllNodes() {
		if !done[name] {
			stuck[name] = true
			unprocessed = append(unprocessed, name)
		}
	}

	var participants []string
	for _, name := range unprocessed {
		if g.onCycle(name, stuck) {
			participants = append(participants, name)
		}
	}

	info := &CycleInfo{
		TotalNodes:        len(g.Nodes),
		ProcessedNodes:    len(order),
		UnprocessedNodes:  unprocessed,
		CycleParticipants: participants,
	}
	if len(participants) > 0 {
		info.CyclePath = g.FindCyclePath(participants[0], stuck)
	}
	return info
}

// onCycle reports whether start can reach itself through nodes in within.
func (g *Graph) onCycle(start string, within map[string]bool) bool {
	seen := make(map[string]bool)
	stack := append([]string(nil), g.Children[start]...)
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if n == start {
			return true
		}
		if seen[n] || !within[n] {
			continue
		}
		seen[n] = true
		stack = append(stack, g.Children[n]...)
	}
	return false
}

// FindCyclePath returns a cycle through start, restricted to nodes in
// within, as [start, ..., start]. Children are tried in name order. It
// returns nil when start is not on such a cycle.
func (g *Graph) FindCyclePath(start string, within map[string]bool) []string {
	seen := map[string]bool{start: true}
	var walk func(path []string) []string
	walk = func(path []string) []string {
		last := path[len(path)-1]
		children := append([]string(nil), g.Children[last]...)
		sort.Strings(children)
		for _, child := range children {
			if !within[child] {
				continue
			}
			if child == start {
				return append(path, start)
			}
			if seen[child] {
				continue
			}
			seen[child] = true
			if found := walk(append(path, child)); found != nil {
				return found
			}
		}
		return nil
	}
	return walk([]string{start})
}
