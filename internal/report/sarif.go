package report

import (
	"encoding/json"
	"sort"
	"strings"
)

const (
	sarifSchemaURI = "https://json.schemastore.org/sarif-2.1.0.json"
	sarifVersion   = "2.1.0"

	ruleUnresolvedImport = "luapack/bundle/unresolved-import"
	ruleSyntaxError      = "luapack/check/syntax-error"
	ruleStuckLibrary     = "luapack/library/unprepared"
)

type sarifLog struct {
	Schema  string     `json:"$schema"`
	Version string     `json:"version"`
	Runs    []sarifRun `json:"runs"`
}

type sarifRun struct {
	Tool    sarifTool     `json:"tool"`
	Results []sarifResult `json:"results"`
}

type sarifTool struct {
	Driver sarifDriver `json:"driver"`
}

type sarifDriver struct {
	Name           string      `json:"name"`
	InformationURI string      `json:"informationUri,omitempty"`
	Version        string      `json:"version,omitempty"`
	Rules          []sarifRule `json:"rules,omitempty"`
}

type sarifRule struct {
	ID               string        `json:"id"`
	Name             string        `json:"name,omitempty"`
	ShortDescription sarifMessage  `json:"shortDescription"`
	Help             *sarifMessage `json:"help,omitempty"`
}

type sarifResult struct {
	RuleID     string            `json:"ruleId"`
	Level      string            `json:"level,omitempty"`
	Message    sarifMessage      `json:"message"`
	Locations  []sarifLocation   `json:"locations,omitempty"`
	Properties map[string]string `json:"properties,omitempty"`
}

type sarifMessage struct {
	Text string `json:"text"`
}

type sarifLocation struct {
	PhysicalLocation sarifPhysicalLocation `json:"physicalLocation"`
}

type sarifPhysicalLocation struct {
	ArtifactLocation sarifArtifactLocation `json:"artifactLocation"`
}

type sarifArtifactLocation struct {
	URI string `json:"uri"`
}

var sarifRules = map[string]sarifRule{
	ruleUnresolvedImport: {
		ID:               ruleUnresolvedImport,
		Name:             "unresolved-import",
		ShortDescription: sarifMessage{Text: "Required module could not be found"},
		Help:             &sarifMessage{Text: "Add the module to the source tree or list it as ignored if the host provides it."},
	},
	ruleSyntaxError: {
		ID:               ruleSyntaxError,
		Name:             "syntax-error",
		ShortDescription: sarifMessage{Text: "Bundled script does not parse"},
	},
	ruleStuckLibrary: {
		ID:               ruleStuckLibrary,
		Name:             "unprepared-library",
		ShortDescription: sarifMessage{Text: "Library could not be inlined"},
		Help:             &sarifMessage{Text: "The library requires a library that is missing or part of a cycle."},
	},
}

func formatSARIF(rep Report) (string, error) {
	results, ruleIDs := buildSARIFResults(rep)
	rules := make([]sarifRule, 0, len(ruleIDs))
	for _, id := range ruleIDs {
		rules = append(rules, sarifRules[id])
	}

	log := sarifLog{
		Schema:  sarifSchemaURI,
		Version: sarifVersion,
		Runs: []sarifRun{{
			Tool: sarifTool{Driver: sarifDriver{
				Name:           "luapack",
				InformationURI: "https://github.com/ben-ranford/luapack",
				Version:        reportVersion(rep),
				Rules:          rules,
			}},
			Results: results,
		}},
	}
	payload, err := json.MarshalIndent(log, "", "  ")
	if err != nil {
		return "", err
	}
	return string(payload) + "\n", nil
}

func reportVersion(rep Report) string {
	if version := strings.TrimSpace(rep.SchemaVersion); version != "" {
		return version
	}
	return SchemaVersion
}

func buildSARIFResults(rep Report) ([]sarifResult, []string) {
	results := make([]sarifResult, 0)
	used := make(map[string]struct{})
	add := func(result sarifResult) {
		used[result.RuleID] = struct{}{}
		results = append(results, result)
	}

	for _, script := range rep.Scripts {
		for _, item := range script.Unresolved {
			add(sarifResult{
				RuleID:     ruleUnresolvedImport,
				Level:      "error",
				Message:    sarifMessage{Text: "unresolvable import " + item.Import + " in " + item.File},
				Locations:  locationsFor(item.File),
				Properties: map[string]string{"script": script.File, "import": item.Import},
			})
		}
		if script.SyntaxErr != "" {
			add(sarifResult{
				RuleID:    ruleSyntaxError,
				Level:     "error",
				Message:   sarifMessage{Text: script.SyntaxErr},
				Locations: locationsFor(script.File),
			})
		}
	}
	for _, name := range rep.StuckLibraries {
		add(sarifResult{
			RuleID:  ruleStuckLibrary,
			Level:   "warning",
			Message: sarifMessage{Text: "library " + name + " was not prepared"},
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].RuleID != results[j].RuleID {
			return results[i].RuleID < results[j].RuleID
		}
		return results[i].Message.Text < results[j].Message.Text
	})
	ids := make([]string, 0, len(used))
	for id := range used {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return results, ids
}

func locationsFor(file string) []sarifLocation {
	if file == "" {
		return nil
	}
	return []sarifLocation{{PhysicalLocation: sarifPhysicalLocation{
		ArtifactLocation: sarifArtifactLocation{URI: strings.ReplaceAll(file, "\\", "/")},
	}}}
}
