package loader

import "fmt"

// MissingColumnError is returned when a source table lacks a column the
// composed view depends on.
type MissingColumnError struct {
	Table  string
	Column string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("table %q is missing required column %q", e.Table, e.Column)
}

// MalformedValueError is returned when a source value cannot be parsed.
type MalformedValueError struct {
	Table  string
	Column string
	Key    string
	Value  string
}

func (e *MalformedValueError) Error() string {
	return fmt.Sprintf("table %q row %q: cannot parse %s value %q", e.Table, e.Key, e.Column, e.Value)
}
