package workspace

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

// Scope matches entry file names against exclude globs. `*` and `?` stop at
// `/`, `**` crosses directories.
type Scope struct {
	patterns []compiledPattern
}

type compiledPattern struct {
	pattern string
	regex   *regexp.Regexp
}

func NewScope(exclude []string) (*Scope, error) {
	patterns := normalizePatterns(exclude)
	compiled := make([]compiledPattern, 0, len(patterns))
	for _, pattern := range patterns {
		regex, err := regexp.Compile(globToRegexp(pattern))
		if err != nil {
			return nil, fmt.Errorf("compile exclude pattern %q: %w", pattern, err)
		}
		compiled = append(compiled, compiledPattern{pattern: pattern, regex: regex})
	}
	return &Scope{patterns: compiled}, nil
}

// Excluded reports whether name matches a pattern, and which one.
func (s *Scope) Excluded(name string) (bool, string) {
	if s == nil {
		return false, ""
	}
	slashed := filepath.ToSlash(filepath.Clean(name))
	for _, pattern := range s.patterns {
		if pattern.regex.MatchString(slashed) {
			return true, pattern.pattern
		}
	}
	return false, ""
}

func normalizePatterns(patterns []string) []string {
	seen := make(map[string]struct{}, len(patterns))
	result := make([]string, 0, len(patterns))
	for _, pattern := range patterns {
		trimmed := strings.TrimSpace(pattern)
		if trimmed == "" {
			continue
		}
		if _, exists := seen[trimmed]; exists {
			continue
		}
		seen[trimmed] = struct{}{}
		result = append(result, filepath.ToSlash(trimmed))
	}
	return result
}

func globToRegexp(pattern string) string {
	var builder strings.Builder
	builder.Grow(len(pattern) * 2)
	builder.WriteString("^")
	for index := 0; index < len(pattern); index++ {
		char := pattern[index]
		switch char {
		case '*':
			segment, next := asteriskSegment(pattern, index)
			builder.WriteString(segment)
			index = next
			continue
		case '?':
			builder.WriteString("[^/]")
			continue
		}
		if strings.ContainsRune(`.+()|[]{}^$\`, rune(char)) {
			builder.WriteByte('\\')
		}
		builder.WriteByte(char)
	}
	builder.WriteString("$")
	return builder.String()
}

func asteriskSegment(pattern string, index int) (string, int) {
	if index+1 < len(pattern) && pattern[index+1] == '*' {
		if index+2 < len(pattern) && pattern[index+2] == '/' {
			return "(?:.*/)?", index + 2
		}
		return ".*", index + 1
	}
	return "[^/]*", index
}
