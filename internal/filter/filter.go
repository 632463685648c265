// Package filter turns a hierarchy selection into a conjunction of typed
// equality predicates over the composed view.
//
// Filters are rebuilt from scratch for every selection event. A selection
// always replaces the previous one wholesale, so there is no incremental
// state to carry between events.
package filter

import (
	"strconv"
	"strings"

	"github.com/Dainanahan/drugtree/pkg/core"
)

// Predicate reports whether a row satisfies a condition.
type Predicate func(*core.Row) bool

// True matches every row.
func True(*core.Row) bool { return true }

// Eq returns the equality predicate for one level. Month values are
// trimmed of surrounding whitespace; all other values compare exactly.
// Calendar fields compare against the row's decimal rendering, so "03"
// does not match month 3. A nil group never matches.
func Eq(level core.Level, value string) Predicate {
	switch level {
	case core.LevelGroup:
		return func(r *core.Row) bool {
			return r.Group != nil && *r.Group == value
		}
	case core.LevelState:
		return func(r *core.Row) bool {
			return r.State == value
		}
	case core.LevelCreatedYear:
		return intEq(value, func(r *core.Row) int { return r.CreatedYear })
	case core.LevelCreatedMonth:
		return intEq(strings.TrimSpace(value), func(r *core.Row) int { return r.CreatedMonth })
	}
	return True
}

func intEq(value string, field func(*core.Row) int) Predicate {
	n, ok := canonicalInt(value)
	if !ok {
		return func(*core.Row) bool { return false }
	}
	return func(r *core.Row) bool {
		// 0 means the row carries no timestamp
		v := field(r)
		return v != 0 && v == n
	}
}

// canonicalInt parses s only when it is the exact decimal rendering of a
// positive integer.
func canonicalInt(s string) (int, bool) {
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 || strconv.Itoa(n) != s {
		return 0, false
	}
	return n, true
}

// And combines predicates conjunctively. And() matches every row.
func And(preds ...Predicate) Predicate {
	switch len(preds) {
	case 0:
		return True
	case 1:
		return preds[0]
	}
	return func(r *core.Row) bool {
		for _, p := range preds {
			if !p(r) {
				return false
			}
		}
		return true
	}
}

// Build returns the conjunction for sel in year, month, group, state order.
// Empty values are skipped and levels outside the closed set are ignored.
func Build(sel core.Selection) Predicate {
	preds := make([]Predicate, 0, len(sel))
	for _, l := range core.Levels() {
		if v, ok := sel[l]; ok && v != "" {
			preds = append(preds, Eq(l, v))
		}
	}
	return And(preds...)
}

// Apply returns the rows of view matching sel as a new view. The input
// view is returned unchanged when sel places no constraint.
func Apply(view *core.View, sel core.Selection) *core.View {
	if !constrained(sel) {
		return view
	}
	pred := Build(sel)
	matched := make([]*core.Row, 0)
	for i := 0; i < view.Len(); i++ {
		if r := view.Row(i); pred(r) {
			matched = append(matched, r)
		}
	}
	return core.NewView(matched)
}

func constrained(sel core.Selection) bool {
	for _, l := range core.Levels() {
		if sel[l] != "" {
			return true
		}
	}
	return false
}
