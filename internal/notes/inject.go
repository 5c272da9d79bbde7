package notes

import (
	"path/filepath"
	"regexp"
	"strings"
)

// DefaultHashURLBase is where published hash files live.
const DefaultHashURLBase = "https://raw.githubusercontent.com/finale-lua/lua-scripts/master/hash/"

const defaultBodyIndent = "    "

var (
	pluginDefPattern = regexp.MustCompile(`^\s*function\s+plugindef\s*\(`)
	notesPattern     = regexp.MustCompile(`^(\s*)finaleplugin\.Notes\s*=\s*(.*)$`)
	rtfNotesPattern  = regexp.MustCompile(`^\s*finaleplugin\.RTFNotes\b`)
	hashURLPattern   = regexp.MustCompile(`^\s*finaleplugin\.HashURL\b`)
	closingPattern   = regexp.MustCompile(`^\s*(?:return\b|end\b)`)
)

type InjectOptions struct {
	HashURLBase string
	// SkipRTF leaves RTFNotes out even when the script has Notes.
	SkipRTF bool
}

// HashURL is the published location of the hash file for fileName.
func HashURL(base, fileName string) string {
	if base == "" {
		base = DefaultHashURLBase
	}
	return base + Stem(fileName) + ".hash"
}

// Stem is the file name without directory or extension.
func Stem(fileName string) string {
	base := filepath.Base(fileName)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Inject adds finaleplugin.RTFNotes (rendered from Notes) and
// finaleplugin.HashURL to the plugindef function of a script, just before
// its first return or end line outside a long string. Fields the script
// already sets are left alone. Scripts without plugindef are returned as is.
func Inject(fileName, contents string, opts InjectOptions) string {
	lines := strings.Split(contents, "\n")
	start := -1
	for i, line := range lines {
		if pluginDefPattern.MatchString(line) {
			start = i
			break
		}
	}
	if start < 0 {
		return contents
	}

	def := scanPluginDef(lines, start+1)
	if def.insertAt < 0 {
		return contents
	}

	injected := make([]string, 0, 16)
	if def.hasNotes && !def.hasRTF && !opts.SkipRTF {
		rtfIndent := def.notesIndent + defaultBodyIndent
		injected = append(injected, def.notesIndent+"finaleplugin.RTFNotes = [[")
		for _, line := range strings.Split(RenderRTF(def.notes), "\n") {
			injected = append(injected, indentLine(rtfIndent, line))
		}
		injected = append(injected, def.notesIndent+"]]")
	}
	if !def.hasHashURL {
		injected = append(injected, def.bodyIndent+`finaleplugin.HashURL = "`+HashURL(opts.HashURLBase, fileName)+`"`)
	}
	if len(injected) == 0 {
		return contents
	}

	out := make([]string, 0, len(lines)+len(injected))
	out = append(out, lines[:def.insertAt]...)
	out = append(out, injected...)
	out = append(out, lines[def.insertAt:]...)
	return strings.Join(out, "\n")
}

type pluginDef struct {
	insertAt    int
	bodyIndent  string
	notesIndent string
	notes       string
	hasNotes    bool
	hasRTF      bool
	hasHashURL  bool
}

func scanPluginDef(lines []string, from int) pluginDef {
	def := pluginDef{insertAt: -1, bodyIndent: defaultBodyIndent, notesIndent: defaultBodyIndent}
	indentSet := false
	inLongString := false
	var notes []string
	collecting := false

	for i := from; i < len(lines); i++ {
		line := lines[i]
		if inLongString {
			if collecting && strings.HasPrefix(strings.TrimSpace(line), "]]") {
				def.notes = Dedent(strings.Join(notes, "\n"))
				collecting = false
			} else if collecting {
				notes = append(notes, line)
			}
			if strings.Contains(line, "]]") {
				inLongString = false
			}
			continue
		}

		if closingPattern.MatchString(line) {
			def.insertAt = i
			return def
		}
		if trimmed := strings.TrimSpace(line); trimmed != "" && !indentSet {
			if indent := leadingSpace(line); indent != "" {
				def.bodyIndent = indent
			}
			indentSet = true
		}

		switch {
		case rtfNotesPattern.MatchString(line):
			def.hasRTF = true
		case hashURLPattern.MatchString(line):
			def.hasHashURL = true
		}
		if matches := notesPattern.FindStringSubmatch(line); matches != nil {
			def.hasNotes = true
			def.notesIndent = matches[1]
			value := strings.TrimSpace(matches[2])
			if body, ok := strings.CutPrefix(value, "[["); ok {
				if inline, _, closed := strings.Cut(body, "]]"); closed {
					def.notes = strings.TrimSpace(inline)
				} else {
					collecting = true
					notes = notes[:0]
					if strings.TrimSpace(body) != "" {
						notes = append(notes, body)
					}
				}
			} else {
				def.notes = strings.Trim(value, `"'`)
			}
		}
		if opensLongString(line) {
			inLongString = true
		}
	}
	return def
}

func opensLongString(line string) bool {
	open := strings.LastIndex(line, "[[")
	return open >= 0 && !strings.Contains(line[open:], "]]")
}

// Dedent removes the indentation shared by every non-blank line.
func Dedent(s string) string {
	lines := strings.Split(s, "\n")
	common := ""
	first := true
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		indent := leadingSpace(line)
		if first {
			common, first = indent, false
			continue
		}
		for !strings.HasPrefix(indent, common) {
			common = common[:len(common)-1]
		}
	}
	for i, line := range lines {
		if strings.TrimSpace(line) == "" {
			lines[i] = ""
			continue
		}
		lines[i] = strings.TrimPrefix(line, common)
	}
	return strings.Join(lines, "\n")
}

func leadingSpace(line string) string {
	return line[:len(line)-len(strings.TrimLeft(line, " \t"))]
}

func indentLine(indent, line string) string {
	if line == "" {
		return line
	}
	return indent + line
}
