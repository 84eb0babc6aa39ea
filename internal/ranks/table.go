// Package ranks maps Roblox group ranks to Discord roles and nickname prefixes.
package ranks

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	// CivilianLabel prefixes members without a mapped rank.
	CivilianLabel = "CIV"
	// CivilianRole is given to anyone outside the group.
	CivilianRole = "Civilian"
)

// Entry is one rank of the group.
type Entry struct {
	Name  string `yaml:"name"`
	Label string `yaml:"label"`
}

// Table maps exact rank names to short labels.
type Table struct {
	entries []Entry
	labels  map[string]string
}

// DefaultTable is the CBA group's rank structure, lowest first.
func DefaultTable() *Table {
	t, _ := NewTable([]Entry{
		{"Recruit", "RCT"},
		{"Private", "PTE"},
		{"Lance Corporal", "LCP"},
		{"Corporal", "CPL"},
		{"Sergeant", "SGT"},
		{"Staff Sergeant", "SSG"},
		{"Warrant Officer Class 2", "WO2"},
		{"Warrant Officer Class 1", "WO1"},
		{"Second Lieutenant", "2LT"},
		{"Lieutenant", "LT"},
		{"Captain", "CPT"},
		{"Major", "MAJ"},
		{"Lieutenant Colonel", "LTC"},
		{"Colonel", "COL"},
		{"Brigadier", "BRG"},
		{"Major General", "MG"},
		{"Lieutenant General", "LG"},
		{"General", "GEN"},
		{"Field Marshal", "FM"},
	})
	return t
}

func NewTable(entries []Entry) (*Table, error) {
	t := &Table{labels: make(map[string]string, len(entries))}
	for _, e := range entries {
		name := strings.TrimSpace(e.Name)
		label := strings.TrimSpace(e.Label)
		if name == "" || label == "" {
			return nil, fmt.Errorf("rank entry needs name and label: %+v", e)
		}
		if name == CivilianRole {
			return nil, fmt.Errorf("rank name %q is reserved", name)
		}
		if _, dup := t.labels[name]; dup {
			return nil, fmt.Errorf("duplicate rank %q", name)
		}
		t.labels[name] = label
		t.entries = append(t.entries, Entry{Name: name, Label: label})
	}
	return t, nil
}

type tableFile struct {
	Ranks []Entry `yaml:"ranks"`
}

// LoadTable reads a YAML file of the form
//
//	ranks:
//	  - name: Recruit
//	    label: RCT
func LoadTable(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rank table: %w", err)
	}
	return ParseTable(data)
}

func ParseTable(data []byte) (*Table, error) {
	var f tableFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse rank table: %w", err)
	}
	if len(f.Ranks) == 0 {
		return nil, fmt.Errorf("rank table is empty")
	}
	return NewTable(f.Ranks)
}

// Label returns the prefix for rankName, CIV when absent or unmapped.
func (t *Table) Label(rankName string) string {
	if rankName == "" || rankName == "Unknown" {
		return CivilianLabel
	}
	if label, ok := t.labels[rankName]; ok {
		return label
	}
	return CivilianLabel
}

// Has reports whether name is a rank of the table.
func (t *Table) Has(name string) bool {
	_, ok := t.labels[name]
	return ok
}

func (t *Table) Entries() []Entry {
	out := make([]Entry, len(t.entries))
	copy(out, t.entries)
	return out
}

// Nickname builds "[LABEL] username", cut to Discord's 32 character limit.
func Nickname(label, username string) string {
	nick := fmt.Sprintf("[%s] %s", label, username)
	if r := []rune(nick); len(r) > 32 {
		nick = string(r[:32])
	}
	return nick
}
