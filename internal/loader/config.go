package loader

import (
	"path/filepath"

	"github.com/Dainanahan/drugtree/pkg/core"
)

// Columns names the source columns the loader reads.
type Columns struct {
	ID      string `koanf:"id"`
	Name    string `koanf:"name"`
	Type    string `koanf:"type"`
	State   string `koanf:"state"`
	Created string `koanf:"created"`

	MemberKey string `koanf:"member_key"`
	Group     string `koanf:"group"`
}

// DefaultColumns follows the column naming of the drug registry export.
func DefaultColumns() Columns {
	return Columns{
		ID:        "primary_key",
		Name:      "name",
		Type:      "type",
		State:     "state",
		Created:   "created",
		MemberKey: "parent_key",
		Group:     "group",
	}
}

func (c Columns) withDefaults() Columns {
	d := DefaultColumns()
	for _, p := range []struct{ v, def *string }{
		{&c.ID, &d.ID}, {&c.Name, &d.Name}, {&c.Type, &d.Type}, {&c.State, &d.State},
		{&c.Created, &d.Created}, {&c.MemberKey, &d.MemberKey}, {&c.Group, &d.Group},
	} {
		if *p.v == "" {
			*p.v = *p.def
		}
	}
	return c
}

// Tables names the source tables and, for CSV sources, their files.
type Tables struct {
	Drugs  string `koanf:"drugs"`
	Groups string `koanf:"groups"`

	DrugsFile  string `koanf:"drugs_file"`
	GroupsFile string `koanf:"groups_file"`
}

// DefaultTables returns the default table and file names.
func DefaultTables() Tables {
	return Tables{
		Drugs:      "drugs",
		Groups:     "drug_groups",
		DrugsFile:  "drugs.csv",
		GroupsFile: "drug_groups.csv",
	}
}

func (t Tables) withDefaults() Tables {
	d := DefaultTables()
	if t.Drugs == "" {
		t.Drugs = d.Drugs
	}
	if t.Groups == "" {
		t.Groups = d.Groups
	}
	if t.DrugsFile == "" {
		t.DrugsFile = d.DrugsFile
	}
	if t.GroupsFile == "" {
		t.GroupsFile = d.GroupsFile
	}
	return t
}

// Config describes where the registry lives.
type Config struct {
	Adapter core.AdapterConfig

	// CSVDir, when set, holds the registry as CSV exports that are loaded
	// into the adapter before reading.
	CSVDir string

	Tables  Tables
	Columns Columns
}

// CSVPaths returns the entity and membership file paths under CSVDir.
func (c Config) CSVPaths() (drugs, groups string) {
	t := c.Tables.withDefaults()
	return filepath.Join(c.CSVDir, t.DrugsFile), filepath.Join(c.CSVDir, t.GroupsFile)
}
