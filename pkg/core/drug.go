package core

import "time"

// StateUnknown replaces an unset physical state so that equality filters
// can select it like any other category.
const StateUnknown = "Unknown"

// Drug is one entity record of the drug registry export.
type Drug struct {
	ID      string
	Name    string
	Type    string
	State   string
	Created time.Time
}

// GroupMembership associates a drug with a group label such as
// "approved" or "withdrawn". A drug may belong to any number of groups.
type GroupMembership struct {
	DrugID string
	Group  string
}

// Dataset is the raw input to composition: entity records and their
// group memberships as read from a source.
type Dataset struct {
	Drugs       []Drug
	Memberships []GroupMembership
}
