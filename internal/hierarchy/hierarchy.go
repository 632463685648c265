// Package hierarchy groups the composed view into nested nodes keyed by
// an ordered subset of levels, for tree and sunburst style browsing.
package hierarchy

import (
	"sort"
	"strconv"

	"github.com/Dainanahan/drugtree/pkg/core"
)

// NoValue labels rows that carry no value on a level, such as drugs
// without a group membership.
const NoValue = "(none)"

// Node is one value of one level together with the rows beneath it.
type Node struct {
	Level    core.Level `json:"level" yaml:"level"`
	Value    string     `json:"value" yaml:"value"`
	Count    int        `json:"count" yaml:"count"`
	Children []*Node    `json:"children,omitempty" yaml:"children,omitempty"`

	// Selection is the event a click on this node produces: every value
	// on the path from the root down to and including this node. It is
	// nil for NoValue nodes and everything beneath them, since equality
	// on a level cannot select rows that lack it.
	Selection core.Selection `json:"selection,omitempty" yaml:"selection,omitempty"`
}

// Selectable reports whether the node maps onto a selection whose filtered
// view holds exactly Count rows.
func (n *Node) Selectable() bool {
	return n.Selection != nil
}

// Build groups view by levels in order and returns the top level nodes.
// Levels must be distinct members of the closed set.
func Build(view *core.View, levels []core.Level) ([]*Node, error) {
	seen := make(map[core.Level]bool, len(levels))
	for _, l := range levels {
		if !l.Valid() {
			return nil, &core.UnknownLevelError{Name: string(l)}
		}
		if seen[l] {
			return nil, &DuplicateLevelError{Level: l}
		}
		seen[l] = true
	}
	if len(levels) == 0 {
		return []*Node{}, nil
	}
	return group(view.Rows(), levels, core.Selection{}), nil
}

func group(rows []*core.Row, levels []core.Level, path core.Selection) []*Node {
	level := levels[0]
	buckets := make(map[string][]*core.Row)
	for _, r := range rows {
		v, ok := r.Value(level)
		if !ok {
			v = NoValue
		}
		buckets[v] = append(buckets[v], r)
	}

	values := make([]string, 0, len(buckets))
	for v := range buckets {
		values = append(values, v)
	}
	sortValues(level, values)

	nodes := make([]*Node, 0, len(values))
	for _, v := range values {
		var sel core.Selection
		if path != nil && v != NoValue {
			sel = path.Clone()
			sel[level] = v
		}
		n := &Node{
			Level:     level,
			Value:     v,
			Count:     len(buckets[v]),
			Selection: sel,
		}
		if len(levels) > 1 {
			n.Children = group(buckets[v], levels[1:], sel)
		}
		nodes = append(nodes, n)
	}
	return nodes
}

// sortValues orders calendar levels numerically and everything else
// lexically, with NoValue last.
func sortValues(level core.Level, values []string) {
	numeric := level == core.LevelCreatedYear || level == core.LevelCreatedMonth
	sort.Slice(values, func(i, j int) bool {
		a, b := values[i], values[j]
		if a == NoValue || b == NoValue {
			return b == NoValue && a != NoValue
		}
		if numeric {
			x, _ := strconv.Atoi(a)
			y, _ := strconv.Atoi(b)
			return x < y
		}
		return a < b
	})
}

// Walk visits nodes depth first, passing each node's depth.
func Walk(nodes []*Node, fn func(n *Node, depth int)) {
	var visit func([]*Node, int)
	visit = func(ns []*Node, depth int) {
		for _, n := range ns {
			fn(n, depth)
			visit(n.Children, depth+1)
		}
	}
	visit(nodes, 0)
}

// DuplicateLevelError is returned when a level appears twice in a hierarchy.
type DuplicateLevelError struct {
	Level core.Level
}

func (e *DuplicateLevelError) Error() string {
	return "hierarchy level " + strconv.Quote(string(e.Level)) + " listed more than once"
}
