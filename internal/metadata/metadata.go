package metadata

import (
	"cmp"
	"encoding/json"
	"slices"
	"strings"
)

type Author struct {
	Name    string `json:"name"`
	Website string `json:"website"`
	Email   string `json:"email"`
}

// Metadata is what a script declares about itself in its plugindef function.
type Metadata struct {
	Name                   string   `json:"name"`
	ScriptGroupName        string   `json:"scriptGroupName"`
	ScriptGroupDescription string   `json:"scriptGroupDescription"`
	MenuItems              []string `json:"menuItems"`
	FileName               string   `json:"fileName"`
	UndoText               string   `json:"undoText"`
	ShortDescription       string   `json:"shortDescription"`
	RequireSelection       bool     `json:"requireSelection"`
	RequireScore           bool     `json:"requireScore"`
	NoStore                bool     `json:"noStore"`
	Author                 Author   `json:"author"`
	Copyright              string   `json:"copyright"`
	Version                string   `json:"version"`
	Categories             []string `json:"categories"`
	Date                   string   `json:"date"`
	Notes                  string   `json:"notes"`
	RevisionNotes          []string `json:"revisionNotes"`
	ID                     string   `json:"id"`
	MinJWLuaVersion        string   `json:"minJWLuaVersion"`
	MaxJWLuaVersion        string   `json:"maxJWLuaVersion"`
	MinFinaleVersion       string   `json:"minFinaleVersion"`
	MaxFinaleVersion       string   `json:"maxFinaleVersion"`
}

func newMetadata(fileName string) Metadata {
	return Metadata{
		FileName:      fileName,
		MenuItems:     make([]string, 0),
		Categories:    make([]string, 0),
		RevisionNotes: make([]string, 0),
	}
}

// Catalogue is the sorted collection written to the metadata JSON file.
type Catalogue []Metadata

func NewCatalogue(items []Metadata) Catalogue {
	catalogue := slices.Clone(items)
	slices.SortStableFunc(catalogue, func(a, b Metadata) int {
		if byName := cmp.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name)); byName != 0 {
			return byName
		}
		return cmp.Compare(a.FileName, b.FileName)
	})
	if catalogue == nil {
		catalogue = make(Catalogue, 0)
	}
	return catalogue
}

func (c Catalogue) MarshalIndent() ([]byte, error) {
	if c == nil {
		c = make(Catalogue, 0)
	}
	return json.MarshalIndent([]Metadata(c), "", "  ")
}
