package bundle

import (
	"regexp"
	"sort"
	"strings"
)

// LibraryPlaceholder stands in for a library's own table variable in its
// canonical text. Inlining replaces it with the importer's local name.
const LibraryPlaceholder = "BUNDLED_LIBRARY_VARIABLE_NAME"

const (
	DefaultLibraryNamespace = "library"
	maxLibraryPasses        = 10
)

var (
	tableDeclarationPattern = regexp.MustCompile(`^local ([A-Za-z_][A-Za-z0-9_]*) = \{\}`)
	bindingPattern          = regexp.MustCompile(`^\s*(?:local\s+)?([A-Za-z_][A-Za-z0-9_]*)\s*=`)
)

type LibraryFile struct {
	Contents string
}

// Library maps a library name (the module name without its namespace
// prefix) to its canonical text.
type Library map[string]LibraryFile

func (l Library) Names() []string {
	names := make([]string, 0, len(l))
	for name := range l {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

type LibraryInput struct {
	Name     string
	Contents string
}

type LibraryOptions struct {
	Scanner   Scanner
	Namespace string
}

func (o LibraryOptions) withDefaults() LibraryOptions {
	if o.Scanner == nil {
		o.Scanner = NewPatternScanner(nil)
	}
	if o.Namespace == "" {
		o.Namespace = DefaultLibraryNamespace
	}
	return o
}

// PrepareLibraryFile rewrites a library so its table is named
// LibraryPlaceholder and drops its trailing return. The table is the one
// declared as `local <name> = {}`, or else the first `local X = {}` in the
// file. Only top-level (unindented) lines are rewritten.
func PrepareLibraryFile(contents, name string) string {
	lines := strings.Split(contents, "\n")
	internal := internalTableName(lines, name)

	quoted := regexp.QuoteMeta(internal)
	declaration := regexp.MustCompile(`^local ` + quoted + ` = \{\}`)
	method := regexp.MustCompile(`^function ` + quoted + `([.:])`)
	ret := regexp.MustCompile(`^return ` + quoted + `\s*;?\s*$`)

	output := make([]string, 0, len(lines))
	for _, line := range lines {
		if ret.MatchString(line) {
			continue
		}
		line = declaration.ReplaceAllLiteralString(line, "local "+LibraryPlaceholder+" = {}")
		line = method.ReplaceAllString(line, "function "+LibraryPlaceholder+"${1}")
		output = append(output, line)
	}
	return strings.Join(output, "\n")
}

func internalTableName(lines []string, name string) string {
	own := regexp.MustCompile(`^local ` + regexp.QuoteMeta(name) + ` = \{\}`)
	for _, line := range lines {
		if own.MatchString(line) {
			return name
		}
	}
	for _, line := range lines {
		if matches := tableDeclarationPattern.FindStringSubmatch(line); matches != nil {
			return matches[1]
		}
	}
	return name
}

// PrepareLibrary canonicalizes a set of library files, inlining each file's
// library dependencies as it goes. A file is only prepared once every
// library it requires is already in the table, so the loop runs until
// nothing is pending or no pass makes progress, capped at a fixed number of
// passes. Names that never became ready are returned sorted.
func PrepareLibrary(files []LibraryInput, opts LibraryOptions) (Library, []string) {
	opts = opts.withDefaults()
	library := make(Library, len(files))
	pending := append([]LibraryInput(nil), files...)

	for pass := 0; pass < maxLibraryPasses && len(pending) > 0; pass++ {
		remaining := make([]LibraryInput, 0, len(pending))
		for _, file := range pending {
			if !dependenciesReady(file.Contents, library, opts) {
				remaining = append(remaining, file)
				continue
			}
			prepared := PrepareLibraryFile(file.Contents, file.Name)
			library[file.Name] = LibraryFile{Contents: Inline(prepared, library, opts)}
		}
		if len(remaining) == len(pending) {
			pending = remaining
			break
		}
		pending = remaining
	}

	stuck := make([]string, 0, len(pending))
	for _, file := range pending {
		stuck = append(stuck, file.Name)
	}
	sort.Strings(stuck)
	return library, stuck
}

func dependenciesReady(contents string, library Library, opts LibraryOptions) bool {
	for _, name := range opts.Scanner.Scan(contents) {
		key, ok := libraryKey(name, opts.Namespace)
		if !ok {
			continue
		}
		if _, done := library[key]; !done {
			return false
		}
	}
	return true
}

// Inline replaces every `[local] x = require("<namespace>.<lib>")` line whose
// library is in the table with that library's canonical text, bound to x.
// Lines that bind nothing or name an unknown library are kept.
func Inline(contents string, library Library, opts LibraryOptions) string {
	if len(library) == 0 {
		return contents
	}
	opts = opts.withDefaults()
	lines := strings.Split(contents, "\n")
	for index, line := range lines {
		if IsCommentLine(line) {
			continue
		}
		binding := BindingName(line)
		if binding == "" {
			continue
		}
		for _, name := range LineImports(line) {
			key, ok := libraryKey(name, opts.Namespace)
			if !ok {
				continue
			}
			file, found := library[key]
			if !found {
				continue
			}
			lines[index] = strings.ReplaceAll(file.Contents, LibraryPlaceholder, binding)
			break
		}
	}
	return strings.Join(lines, "\n")
}

// BindingName returns the variable a line assigns to, or "".
func BindingName(line string) string {
	matches := bindingPattern.FindStringSubmatch(line)
	if matches == nil {
		return ""
	}
	return matches[1]
}

func libraryKey(name, namespace string) (string, bool) {
	key, ok := strings.CutPrefix(name, namespace+".")
	if !ok || key == "" {
		return "", false
	}
	return key, true
}
