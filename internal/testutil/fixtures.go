package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// DrugsCSV is a small entity export. DB00003 has no state and DB00004 has
// no group membership.
const DrugsCSV = `primary_key,name,type,state,created
DB00001,Lepirudin,biotech,liquid,2005-06-13
DB00002,Cetuximab,biotech,solid,2016-03-09
DB00003,Dornase alfa,biotech,,2016-03-21
DB00004,Etanercept,small molecule,solid,2016-11-02 10:15:00
`

// GroupsCSV is the membership export matching DrugsCSV. DB09999 matches
// no drug.
const GroupsCSV = `parent_key,group
DB00001,approved
DB00001,withdrawn
DB00002,approved
DB00003,investigational
DB09999,experimental
`

// Composed row counts for the fixtures.
const (
	FixtureRows        = 6
	FixtureRows2016    = 3
	FixtureApproved    = 2
	FixtureUnknownRows = 2
)

// WriteRegistry writes the fixture exports into a temp dir and returns it.
func WriteRegistry(t testing.TB) string {
	t.Helper()
	dir := t.TempDir()
	WriteFile(t, filepath.Join(dir, "drugs.csv"), DrugsCSV)
	WriteFile(t, filepath.Join(dir, "drug_groups.csv"), GroupsCSV)
	return dir
}

// WriteFile writes content to path, failing the test on error.
func WriteFile(t testing.TB, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
