package bundle

import (
	"regexp"
	"strings"
)

// OriginalRequireAlias is the name the runtime shim keeps the host's own
// require under. Calls through it are scanned like plain require calls.
const OriginalRequireAlias = "__original_require"

// Scanner extracts module names referenced by a chunk of source text.
type Scanner interface {
	Scan(text string) []string
}

// requirePattern accepts `require("x")` with the literal as the only
// argument, or the paren-less `require "x"`. Concatenations and extra
// arguments never match.
var requirePattern = regexp.MustCompile(`(?:require|` + OriginalRequireAlias + `)` +
	`(?:\s*\(\s*(?:"([^"\n]*)"|'([^'\n]*)')\s*\)|\s*(?:"([^"\n]*)"|'([^'\n]*)'))`)

// PatternScanner matches require calls line by line. Full-line comments are
// skipped; trailing comments are not stripped.
type PatternScanner struct {
	ignore map[string]struct{}
}

func NewPatternScanner(ignore []string) *PatternScanner {
	return &PatternScanner{ignore: ignoreSet(ignore)}
}

func (s *PatternScanner) Scan(text string) []string {
	imports := newOrderedSet()
	for _, line := range strings.Split(text, "\n") {
		if IsCommentLine(line) {
			continue
		}
		for _, name := range LineImports(line) {
			if s.ignored(name) {
				continue
			}
			imports.add(name)
		}
	}
	return imports.items
}

func (s *PatternScanner) ignored(name string) bool {
	if s == nil {
		return false
	}
	_, ok := s.ignore[name]
	return ok
}

// LineImports returns every module name required on a single line, in order
// of appearance.
func LineImports(line string) []string {
	matches := requirePattern.FindAllStringSubmatchIndex(line, -1)
	if len(matches) == 0 {
		return nil
	}
	names := make([]string, 0, len(matches))
	for _, match := range matches {
		if match[0] > 0 && isCalleeContinuation(line[match[0]-1]) {
			continue
		}
		name := ""
		for group := 1; group < len(match)/2; group++ {
			if start := match[2*group]; start >= 0 {
				name = line[start:match[2*group+1]]
				break
			}
		}
		if name == "" {
			continue
		}
		names = append(names, name)
	}
	return names
}

// isCalleeContinuation reports whether c would make the matched identifier
// part of a longer name or a field access (my_require, x.require, obj:require).
func isCalleeContinuation(c byte) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		return true
	case c == '_', c == '.', c == ':':
		return true
	}
	return false
}

// IsCommentLine reports whether the first non-blank characters of line open a
// Lua comment.
func IsCommentLine(line string) bool {
	return strings.HasPrefix(strings.TrimSpace(line), "--")
}

func ignoreSet(names []string) map[string]struct{} {
	set := make(map[string]struct{}, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		set[name] = struct{}{}
	}
	return set
}

type orderedSet struct {
	seen  map[string]struct{}
	items []string
}

func newOrderedSet() *orderedSet {
	return &orderedSet{seen: make(map[string]struct{}), items: make([]string, 0)}
}

func (s *orderedSet) add(item string) {
	if _, ok := s.seen[item]; ok {
		return
	}
	s.seen[item] = struct{}{}
	s.items = append(s.items, item)
}
