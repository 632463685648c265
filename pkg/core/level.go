package core

import (
	"fmt"
	"sort"
	"strings"
)

// Level is a filterable field of the composed view that can also be used
// as one tier of the browsing hierarchy.
type Level string

// The closed set of hierarchy levels.
const (
	LevelGroup        Level = "group"
	LevelState        Level = "state"
	LevelCreatedYear  Level = "created_year"
	LevelCreatedMonth Level = "created_month"
)

// Levels returns every level in predicate order.
func Levels() []Level {
	return []Level{LevelCreatedYear, LevelCreatedMonth, LevelGroup, LevelState}
}

// Valid reports whether l belongs to the closed level set.
func (l Level) Valid() bool {
	switch l {
	case LevelGroup, LevelState, LevelCreatedYear, LevelCreatedMonth:
		return true
	}
	return false
}

// ParseLevel converts a level name into a Level. Hyphenated and short
// aliases ("year", "month") are accepted so CLI flags read naturally.
func ParseLevel(name string) (Level, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	n = strings.ReplaceAll(n, "-", "_")
	switch n {
	case "year":
		n = string(LevelCreatedYear)
	case "month":
		n = string(LevelCreatedMonth)
	}
	l := Level(n)
	if !l.Valid() {
		return "", &UnknownLevelError{Name: name}
	}
	return l, nil
}

// ParseLevels parses a list of level names, rejecting duplicates.
func ParseLevels(names []string) ([]Level, error) {
	seen := make(map[Level]bool, len(names))
	levels := make([]Level, 0, len(names))
	for _, name := range names {
		if strings.TrimSpace(name) == "" {
			continue
		}
		l, err := ParseLevel(name)
		if err != nil {
			return nil, err
		}
		if seen[l] {
			return nil, fmt.Errorf("level %q listed more than once", l)
		}
		seen[l] = true
		levels = append(levels, l)
	}
	return levels, nil
}

// UnknownLevelError is returned when a selection or hierarchy names a
// level outside the closed set.
type UnknownLevelError struct {
	Name string
}

func (e *UnknownLevelError) Error() string {
	return fmt.Sprintf("unknown hierarchy level %q (valid: group, state, created_year, created_month)", e.Name)
}

// ConflictingLevelError is returned when two names for the same level,
// such as "year" and "created_year", carry different values.
type ConflictingLevelError struct {
	Level  Level
	Values []string
}

func (e *ConflictingLevelError) Error() string {
	return fmt.Sprintf("level %q selected with conflicting values %q", e.Level, e.Values)
}

// Selection maps hierarchy levels to the value currently selected on
// that level. A missing key means no constraint on that level.
type Selection map[Level]string

// ParseSelection converts an untyped mapping, as received from a query
// string or a REPL line, into a Selection. Empty values are dropped.
// Aliases of one level must agree.
func ParseSelection(raw map[string]string) (Selection, error) {
	sel := make(Selection, len(raw))
	for k, v := range raw {
		l, err := ParseLevel(k)
		if err != nil {
			return nil, err
		}
		if v == "" {
			continue
		}
		if prev, ok := sel[l]; ok && prev != v {
			values := []string{prev, v}
			sort.Strings(values)
			return nil, &ConflictingLevelError{Level: l, Values: values}
		}
		sel[l] = v
	}
	return sel, nil
}

// Empty reports whether the selection places no constraint.
func (s Selection) Empty() bool {
	for _, v := range s {
		if v != "" {
			return false
		}
	}
	return true
}

// Clone returns an independent copy of the selection.
func (s Selection) Clone() Selection {
	c := make(Selection, len(s))
	for k, v := range s {
		c[k] = v
	}
	return c
}

// String renders the selection as space separated key=value pairs in
// predicate order.
func (s Selection) String() string {
	parts := make([]string, 0, len(s))
	for _, l := range Levels() {
		if v, ok := s[l]; ok && v != "" {
			parts = append(parts, fmt.Sprintf("%s=%s", l, v))
		}
	}
	// Keys outside the closed set never come out of ParseSelection but a
	// literal map can still carry them.
	var extra []string
	for l, v := range s {
		if !l.Valid() && v != "" {
			extra = append(extra, fmt.Sprintf("%s=%s", l, v))
		}
	}
	sort.Strings(extra)
	return strings.Join(append(parts, extra...), " ")
}
