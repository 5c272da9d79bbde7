package report

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatSARIF Format = "sarif"
)

const SchemaVersion = "0.1.0"

var ErrUnknownFormat = errors.New("unknown format")

func ParseFormat(value string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", string(FormatTable):
		return FormatTable, nil
	case string(FormatJSON):
		return FormatJSON, nil
	case string(FormatSARIF):
		return FormatSARIF, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnknownFormat, value)
	}
}

// Report describes one bundle run.
type Report struct {
	SchemaVersion  string         `json:"schemaVersion"`
	GeneratedAt    time.Time      `json:"generatedAt"`
	SourcePath     string         `json:"sourcePath"`
	SourceRevision string         `json:"sourceRevision,omitempty"`
	OutputPath     string         `json:"outputPath"`
	Mode           string         `json:"mode"`
	Scripts        []ScriptReport `json:"scripts"`
	Skipped        []SkippedEntry `json:"skipped,omitempty"`
	StuckLibraries []string       `json:"stuckLibraries,omitempty"`
	Summary        *Summary       `json:"summary,omitempty"`
	Warnings       []string       `json:"warnings,omitempty"`
}

type ScriptReport struct {
	File       string             `json:"file"`
	Bundled    []string           `json:"bundled"`
	Unresolved []UnresolvedImport `json:"unresolved,omitempty"`
	Bytes      int                `json:"bytes"`
	Hash       string             `json:"hash,omitempty"`
	SyntaxErr  string             `json:"syntaxError,omitempty"`
}

// UnresolvedImport names the file (entry script or module path) whose
// require could not be satisfied.
type UnresolvedImport struct {
	File   string `json:"file"`
	Import string `json:"import"`
}

type SkippedEntry struct {
	File    string `json:"file"`
	Pattern string `json:"pattern"`
}

type Summary struct {
	ScriptCount     int `json:"scriptCount"`
	ModuleCount     int `json:"moduleCount"`
	UnresolvedCount int `json:"unresolvedCount"`
	SyntaxErrCount  int `json:"syntaxErrorCount"`
	SkippedCount    int `json:"skippedCount"`
}

func ComputeSummary(rep Report) *Summary {
	summary := &Summary{
		ScriptCount:  len(rep.Scripts),
		SkippedCount: len(rep.Skipped),
	}
	modules := make(map[string]struct{})
	for _, script := range rep.Scripts {
		for _, module := range script.Bundled {
			modules[module] = struct{}{}
		}
		summary.UnresolvedCount += len(script.Unresolved)
		if script.SyntaxErr != "" {
			summary.SyntaxErrCount++
		}
	}
	summary.ModuleCount = len(modules)
	return summary
}

func (r Report) Failed() bool {
	for _, script := range r.Scripts {
		if len(script.Unresolved) > 0 || script.SyntaxErr != "" {
			return true
		}
	}
	return false
}
