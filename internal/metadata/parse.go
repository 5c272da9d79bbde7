package metadata

import (
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"
)

const (
	pluginDefPrefix = "function plugindef()"
	fieldPrefix     = "finaleplugin."
	longStringOpen  = "[["
	longStringClose = "]]"
	dateLayout      = "2006-01-02"
)

// Layouts accepted for finaleplugin.Date, most common first.
var dateLayouts = []string{
	"January 2, 2006",
	"Jan 2, 2006",
	"January 2 2006",
	"Jan 2 2006",
	"2 January 2006",
	"2 Jan 2006",
	"2006-01-02",
	"2006/01/02",
	"2006/1/2",
	"1/2/2006",
	"01/02/2006",
}

var fieldPattern = regexp.MustCompile(`^finaleplugin\.([A-Za-z]+)\s*=\s*(.*)$`)

type multilineField int

const (
	noMultiline multilineField = iota
	notesField
	revisionNotesField
	menuItemsField
	discardedField
)

type parser struct {
	meta        Metadata
	returnCount int
	multiline   multilineField
	collected   []string
}

// Parse reads the plugindef function of a script. The second value is false
// when the script has no plugindef.
func Parse(contents, fileName string) (Metadata, bool) {
	p := &parser{meta: newMetadata(fileName)}
	inPluginDef := false
	inReturn := false

	for _, raw := range strings.Split(contents, "\n") {
		line := strings.TrimLeft(raw, " \t")
		if p.multiline != notesField {
			line = strings.TrimRight(line, " \t\r")
		}

		switch {
		case !inPluginDef:
			inPluginDef = strings.HasPrefix(line, pluginDefPrefix)
		case p.multiline != noMultiline:
			p.continueMultiline(line)
		case inReturn || strings.HasPrefix(line, "return "):
			inReturn = true
			p.parseReturn(line)
		case strings.HasPrefix(line, fieldPrefix):
			p.parseField(line)
		}

		if inReturn && strings.HasPrefix(line, "end") {
			break
		}
	}

	slices.Sort(p.meta.MenuItems)
	return p.meta, inPluginDef
}

func (p *parser) parseField(line string) {
	matches := fieldPattern.FindStringSubmatch(line)
	if matches == nil {
		return
	}
	name, value := matches[1], matches[2]
	meta := &p.meta

	switch name {
	case "Author":
		meta.Author.Name = stringValue(value)
	case "AuthorURL":
		meta.Author.Website = stringValue(value)
	case "AuthorEmail":
		meta.Author.Email = stringValue(value)
	case "ScriptGroupName":
		meta.ScriptGroupName = stringValue(value)
	case "ScriptGroupDescription":
		meta.ScriptGroupDescription = stringValue(value)
	case "Version":
		meta.Version = stringValue(value)
	case "Copyright":
		meta.Copyright = stringValue(value)
	case "Id":
		meta.ID = stringValue(value)
	case "MinJWLuaVersion":
		meta.MinJWLuaVersion = rawValue(value)
	case "MaxJWLuaVersion":
		meta.MaxJWLuaVersion = rawValue(value)
	case "MinFinaleVersion":
		meta.MinFinaleVersion = rawValue(value)
	case "MaxFinaleVersion":
		meta.MaxFinaleVersion = rawValue(value)
	case "CategoryTags":
		meta.Categories = splitCategories(stringValue(value))
	case "Date":
		meta.Date = NormalizeDate(stringValue(value))
	case "RequireScore":
		meta.RequireScore = value == "true"
	case "RequireSelection":
		meta.RequireSelection = value == "true"
	case "NoStore":
		meta.NoStore = value == "true"
	case "Notes":
		p.startMultiline(notesField, value)
	case "RevisionNotes":
		p.startMultiline(revisionNotesField, value)
	case "AdditionalMenuOptions":
		p.startMultiline(menuItemsField, value)
	case "RTFNotes":
		p.startMultiline(discardedField, value)
	}
}

// startMultiline handles both `[[ ... ]]` on one line and blocks that close
// on a later line. A plain quoted string is accepted too.
func (p *parser) startMultiline(field multilineField, value string) {
	body, ok := strings.CutPrefix(value, longStringOpen)
	if !ok {
		p.collected = []string{stringValue(value)}
		p.finishMultiline(field)
		return
	}
	if inline, _, closed := strings.Cut(body, longStringClose); closed {
		p.collected = []string{strings.TrimSpace(inline)}
		p.finishMultiline(field)
		return
	}
	p.multiline = field
	p.collected = nil
}

func (p *parser) continueMultiline(line string) {
	if !strings.HasPrefix(line, longStringClose) {
		p.collected = append(p.collected, line)
		return
	}
	p.finishMultiline(p.multiline)
	p.multiline = noMultiline
}

func (p *parser) finishMultiline(field multilineField) {
	switch field {
	case notesField:
		p.meta.Notes = strings.Join(p.collected, "\n")
	case revisionNotesField:
		p.meta.RevisionNotes = nonEmpty(p.collected)
	case menuItemsField:
		p.meta.MenuItems = nonEmpty(p.collected)
	}
	p.collected = nil
}

// parseReturn consumes the quoted strings of the plugindef return statement:
// menu item, undo text, then short description. Grouped scripts take their
// name and description from the script group instead.
func (p *parser) parseReturn(line string) {
	line = strings.TrimPrefix(line, "return ")
	meta := &p.meta
	var current strings.Builder
	inString := false
	for _, char := range line {
		if char != '"' {
			if inString {
				current.WriteRune(char)
			}
			continue
		}
		inString = !inString
		if inString {
			continue
		}

		value := current.String()
		current.Reset()
		switch p.returnCount {
		case 0:
			meta.Name = value
			if len(meta.MenuItems) > 0 && meta.ScriptGroupName != "" {
				meta.Name = meta.ScriptGroupName
			}
			meta.MenuItems = append(meta.MenuItems, value)
		case 1:
			meta.UndoText = value
		default:
			meta.ShortDescription = value
			if len(meta.MenuItems) > 1 && meta.ScriptGroupDescription != "" {
				meta.ShortDescription = meta.ScriptGroupDescription
			}
		}
		p.returnCount++
	}
}

// NormalizeDate rewrites a human date as yyyy-mm-dd. Unrecognised input is
// returned trimmed but otherwise unchanged.
func NormalizeDate(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	for _, layout := range dateLayouts {
		if parsed, err := time.Parse(layout, value); err == nil {
			return parsed.Format(dateLayout)
		}
	}
	return value
}

func stringValue(value string) string {
	value = strings.TrimSpace(value)
	start := strings.IndexByte(value, '"')
	end := strings.LastIndexByte(value, '"')
	if start < 0 || end <= start {
		return ""
	}
	return value[start+1 : end]
}

// rawValue accepts both bare numbers and quoted strings.
func rawValue(value string) string {
	value = strings.TrimSpace(value)
	if unquoted, err := strconv.Unquote(value); err == nil {
		return unquoted
	}
	if quoted := stringValue(value); quoted != "" {
		return quoted
	}
	if before, _, found := strings.Cut(value, "--"); found {
		value = strings.TrimSpace(before)
	}
	return value
}

func splitCategories(value string) []string {
	categories := strings.FieldsFunc(value, func(r rune) bool {
		return r == ' ' || r == ','
	})
	if categories == nil {
		categories = make([]string, 0)
	}
	return categories
}

func nonEmpty(lines []string) []string {
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
