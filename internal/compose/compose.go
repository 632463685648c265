// Package compose joins drug entity records with their group memberships
// into the read-only view browsed by the rest of drugtree.
package compose

import (
	"fmt"
	"strings"

	"github.com/Dainanahan/drugtree/pkg/core"
)

// DuplicateKeyError is returned when two entity records share a primary key.
type DuplicateKeyError struct {
	ID string
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("duplicate drug primary key %q", e.ID)
}

// IsUnsetState reports whether a raw state value counts as missing.
func IsUnsetState(s string) bool {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", "NA", "N/A", "NAN", "NULL", "NONE":
		return true
	}
	return false
}

// NormalizeState replaces every unset state with core.StateUnknown in place.
func NormalizeState(drugs []core.Drug) {
	for i := range drugs {
		if IsUnsetState(drugs[i].State) {
			drugs[i].State = core.StateUnknown
		}
	}
}

// Compose performs a full outer join of drugs and memberships on
// Drug.ID = GroupMembership.DrugID.
//
// Rows follow drug input order, one row per membership in membership
// order, with a single nil-group row for drugs without memberships.
// Memberships whose DrugID matches no drug come last as rows with empty
// entity fields.
func Compose(drugs []core.Drug, memberships []core.GroupMembership) (*core.View, error) {
	byDrug := make(map[string][]string, len(drugs))
	known := make(map[string]bool, len(drugs))
	for _, d := range drugs {
		if known[d.ID] {
			return nil, &DuplicateKeyError{ID: d.ID}
		}
		known[d.ID] = true
	}

	var orphans []core.GroupMembership
	for _, m := range memberships {
		if !known[m.DrugID] {
			orphans = append(orphans, m)
			continue
		}
		byDrug[m.DrugID] = append(byDrug[m.DrugID], m.Group)
	}

	rows := make([]*core.Row, 0, len(drugs)+len(memberships))
	add := func(r *core.Row) {
		r.Index = len(rows)
		rows = append(rows, r)
	}

	for i := range drugs {
		d := &drugs[i]
		groups := byDrug[d.ID]
		if len(groups) == 0 {
			add(entityRow(d, nil))
			continue
		}
		for _, g := range groups {
			add(entityRow(d, &g))
		}
	}

	for _, m := range orphans {
		g := m.Group
		add(&core.Row{
			DrugID: m.DrugID,
			State:  core.StateUnknown,
			Group:  &g,
		})
	}

	return core.NewView(rows), nil
}

func entityRow(d *core.Drug, group *string) *core.Row {
	r := &core.Row{
		DrugID: d.ID,
		Name:   d.Name,
		Type:   d.Type,
		State:  d.State,
		Group:  group,
	}
	if IsUnsetState(r.State) {
		r.State = core.StateUnknown
	}
	if !d.Created.IsZero() {
		r.CreatedYear = d.Created.Year()
		r.CreatedMonth = int(d.Created.Month())
	}
	return r
}
