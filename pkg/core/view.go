package core

import "strconv"

// Row is one row of the composed view: a drug's display attributes joined
// with at most one group label and the calendar fields derived from its
// creation date.
type Row struct {
	// Index is the row's position in the composed view and serves as its
	// identity across filtered subsets.
	Index int `json:"index" yaml:"index"`

	DrugID       string  `json:"drug_id" yaml:"drug_id"`
	Name         string  `json:"name" yaml:"name"`
	Type         string  `json:"type" yaml:"type"`
	State        string  `json:"state" yaml:"state"`
	Group        *string `json:"group" yaml:"group"`
	CreatedYear  int     `json:"created_year" yaml:"created_year"`
	CreatedMonth int     `json:"created_month" yaml:"created_month"`
}

// GroupLabel returns the row's group or "" when the drug has none.
func (r *Row) GroupLabel() string {
	if r.Group == nil {
		return ""
	}
	return *r.Group
}

// Value returns the display form of the row's field for a level.
func (r *Row) Value(l Level) (string, bool) {
	switch l {
	case LevelGroup:
		if r.Group == nil {
			return "", false
		}
		return *r.Group, true
	case LevelState:
		return r.State, true
	case LevelCreatedYear:
		if r.CreatedYear == 0 {
			return "", false
		}
		return strconv.Itoa(r.CreatedYear), true
	case LevelCreatedMonth:
		if r.CreatedMonth == 0 {
			return "", false
		}
		return strconv.Itoa(r.CreatedMonth), true
	}
	return "", false
}

// ViewColumns is the fixed projection exposed for display and filtering.
var ViewColumns = []string{"name", "type", "state", "group", "created_year", "created_month"}

// View is a read-only, ordered set of composed rows. Views are never
// mutated after construction; filtering produces a new View that shares
// row pointers with its parent.
type View struct {
	rows []*Row
}

// NewView wraps rows into a View. The caller must not modify rows
// afterwards.
func NewView(rows []*Row) *View {
	return &View{rows: rows}
}

// Len returns the number of rows.
func (v *View) Len() int {
	if v == nil {
		return 0
	}
	return len(v.rows)
}

// Row returns the i-th row.
func (v *View) Row(i int) *Row {
	return v.rows[i]
}

// Rows returns a copy of the row slice.
func (v *View) Rows() []*Row {
	if v == nil {
		return nil
	}
	out := make([]*Row, len(v.rows))
	copy(out, v.rows)
	return out
}

// Columns returns the projected column names.
func (v *View) Columns() []string {
	out := make([]string, len(ViewColumns))
	copy(out, ViewColumns)
	return out
}

// Slice returns rows[start:end] clamped to the view bounds.
func (v *View) Slice(start, end int) []*Row {
	n := v.Len()
	if start < 0 {
		start = 0
	}
	if end > n {
		end = n
	}
	if start >= end {
		return []*Row{}
	}
	out := make([]*Row, end-start)
	copy(out, v.rows[start:end])
	return out
}

// Page is one fixed-size window of a view.
type Page struct {
	Number int    `json:"number"`
	Size   int    `json:"size"`
	Total  int    `json:"total"`
	Pages  int    `json:"pages"`
	Rows   []*Row `json:"rows"`
}

// Page returns the 1-based page n of the view. Out of range page numbers
// are clamped to the first or last page.
func (v *View) Page(n, size int) Page {
	if size <= 0 {
		size = 10
	}
	total := v.Len()
	pages := (total + size - 1) / size
	if pages == 0 {
		pages = 1
	}
	if n < 1 {
		n = 1
	}
	if n > pages {
		n = pages
	}
	start := (n - 1) * size
	return Page{
		Number: n,
		Size:   size,
		Total:  total,
		Pages:  pages,
		Rows:   v.Slice(start, start+size),
	}
}
