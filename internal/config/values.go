package config

import (
	"fmt"
	"path"
	"slices"
	"strings"

	"github.com/ben-ranford/luapack/internal/notes"
)

const (
	ModeTable  = "table"
	ModeInline = "inline"

	ScannerPattern = "pattern"
	ScannerSyntax  = "syntax"

	DefaultSource           = "src"
	DefaultOutput           = "dist"
	DefaultExtension        = "lua"
	DefaultLibraryNamespace = "library"
	DefaultExtensionPoint   = "library.mixin"
	DefaultExtensionDir     = "mixin"
	DefaultMetadataFile     = "metadata.json"
	DefaultHashURLBase      = notes.DefaultHashURLBase
	DefaultJobs             = 4
)

var (
	DefaultExclude = []string{"personal*"}
	// DefaultIgnore names modules the host provides at runtime.
	DefaultIgnore = []string{"lfs", "luaosutils", "cjson"}
	validModes     = []string{ModeTable, ModeInline}
	validScanners  = []string{ScannerPattern, ScannerSyntax}
)

// Values is the fully resolved run configuration.
type Values struct {
	Source           string
	Output           string
	Extension        string
	Ignore           []string
	Mode             string
	Scanner          string
	LibraryNamespace string
	ExtensionPoint   string
	ExtensionDir     string
	Exclude          []string
	StripComments    bool
	InjectExtras     bool
	HashURLBase      string
	HashDir          string
	MetadataFile     string
	Check            bool
	Jobs             int
}

// Overrides holds values set by a config file or the command line. Nil means
// unset.
type Overrides struct {
	Source           *string
	Output           *string
	Extension        *string
	Ignore           []string
	Mode             *string
	Scanner          *string
	LibraryNamespace *string
	ExtensionPoint   *string
	ExtensionDir     *string
	Exclude          []string
	StripComments    *bool
	InjectExtras     *bool
	HashURLBase      *string
	HashDir          *string
	MetadataFile     *string
	Check            *bool
	Jobs             *int
}

func Defaults() Values {
	return Values{
		Source:           DefaultSource,
		Output:           DefaultOutput,
		Extension:        DefaultExtension,
		Ignore:           slices.Clone(DefaultIgnore),
		Mode:             ModeTable,
		Scanner:          ScannerPattern,
		LibraryNamespace: DefaultLibraryNamespace,
		ExtensionPoint:   DefaultExtensionPoint,
		ExtensionDir:     DefaultExtensionDir,
		Exclude:          slices.Clone(DefaultExclude),
		HashURLBase:      DefaultHashURLBase,
		MetadataFile:     DefaultMetadataFile,
		Jobs:             DefaultJobs,
	}
}

func (o *Overrides) Apply(base Values) Values {
	resolved := base
	applyString(&resolved.Source, o.Source)
	applyString(&resolved.Output, o.Output)
	applyString(&resolved.Extension, o.Extension)
	applyString(&resolved.Mode, o.Mode)
	applyString(&resolved.Scanner, o.Scanner)
	applyString(&resolved.LibraryNamespace, o.LibraryNamespace)
	applyString(&resolved.ExtensionPoint, o.ExtensionPoint)
	applyString(&resolved.ExtensionDir, o.ExtensionDir)
	applyString(&resolved.HashURLBase, o.HashURLBase)
	applyString(&resolved.HashDir, o.HashDir)
	applyString(&resolved.MetadataFile, o.MetadataFile)
	if o.Ignore != nil {
		resolved.Ignore = normalizeList(o.Ignore)
	}
	if o.Exclude != nil {
		resolved.Exclude = normalizeList(o.Exclude)
	}
	if o.StripComments != nil {
		resolved.StripComments = *o.StripComments
	}
	if o.InjectExtras != nil {
		resolved.InjectExtras = *o.InjectExtras
	}
	if o.Check != nil {
		resolved.Check = *o.Check
	}
	if o.Jobs != nil {
		resolved.Jobs = *o.Jobs
	}
	return resolved
}

// Merge layers higher on top of base.
func Merge(base, higher Overrides) Overrides {
	merged := base
	mergeString(&merged.Source, higher.Source)
	mergeString(&merged.Output, higher.Output)
	mergeString(&merged.Extension, higher.Extension)
	mergeString(&merged.Mode, higher.Mode)
	mergeString(&merged.Scanner, higher.Scanner)
	mergeString(&merged.LibraryNamespace, higher.LibraryNamespace)
	mergeString(&merged.ExtensionPoint, higher.ExtensionPoint)
	mergeString(&merged.ExtensionDir, higher.ExtensionDir)
	mergeString(&merged.HashURLBase, higher.HashURLBase)
	mergeString(&merged.HashDir, higher.HashDir)
	mergeString(&merged.MetadataFile, higher.MetadataFile)
	if higher.Ignore != nil {
		merged.Ignore = slices.Clone(higher.Ignore)
	}
	if higher.Exclude != nil {
		merged.Exclude = slices.Clone(higher.Exclude)
	}
	if higher.StripComments != nil {
		merged.StripComments = higher.StripComments
	}
	if higher.InjectExtras != nil {
		merged.InjectExtras = higher.InjectExtras
	}
	if higher.Check != nil {
		merged.Check = higher.Check
	}
	if higher.Jobs != nil {
		merged.Jobs = higher.Jobs
	}
	return merged
}

func (v *Values) Validate() error {
	for name, value := range map[string]string{
		"source":           v.Source,
		"output":           v.Output,
		"extension":        v.Extension,
		"libraryNamespace": v.LibraryNamespace,
	} {
		if strings.TrimSpace(value) == "" {
			return fmt.Errorf("invalid %s: must not be empty", name)
		}
	}
	if strings.Contains(v.Extension, ".") {
		return fmt.Errorf("invalid extension %q: give it without a dot", v.Extension)
	}
	if !slices.Contains(validModes, v.Mode) {
		return fmt.Errorf("invalid mode %q: expected one of %s", v.Mode, strings.Join(validModes, ", "))
	}
	if !slices.Contains(validScanners, v.Scanner) {
		return fmt.Errorf("invalid scanner %q: expected one of %s", v.Scanner, strings.Join(validScanners, ", "))
	}
	if v.Jobs < 1 {
		return fmt.Errorf("invalid jobs: must be >= 1, got %d", v.Jobs)
	}
	for _, pattern := range v.Exclude {
		if _, err := path.Match(pattern, ""); err != nil {
			return fmt.Errorf("invalid exclude pattern %q: %w", pattern, err)
		}
	}
	return nil
}

func applyString(target *string, value *string) {
	if value != nil {
		*target = strings.TrimSpace(*value)
	}
}

func mergeString(target **string, value *string) {
	if value != nil {
		*target = value
	}
}

func normalizeList(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	normalized := make([]string, 0, len(values))
	for _, value := range values {
		trimmed := strings.TrimSpace(value)
		if trimmed == "" {
			continue
		}
		if _, exists := seen[trimmed]; exists {
			continue
		}
		seen[trimmed] = struct{}{}
		normalized = append(normalized, trimmed)
	}
	return normalized
}
