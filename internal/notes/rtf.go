package notes

import (
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

var rtfHeader = []string{
	`{\rtf1\ansi\deff0{\fonttbl{\f0 \fswiss Helvetica;}{\f1 \fmodern Courier New;}}`,
	`{\colortbl;\red255\green0\blue0;\red0\green0\blue255;}`,
	`\widowctrl\hyphauto`,
	`\f0\fs20`,
	`\f1\fs20`,
}

const (
	paragraphPrefix = `{\pard \ql \f0 \sa180 \li0 \fi0 `
	listIndentStep  = 360
)

var headingSizes = map[int]string{1: `\fs32`, 2: `\fs28`, 3: `\fs24`}

// RenderRTF converts Markdown help text into a standalone RTF document.
// Headings, paragraphs, emphasis, inline code, code blocks, links and
// (nested) lists are supported; anything else is rendered as plain text.
func RenderRTF(markdown string) string {
	source := []byte(markdown)
	document := goldmark.New().Parser().Parse(text.NewReader(source))

	w := &rtfWriter{source: source, lines: append([]string(nil), rtfHeader...)}
	for child := document.FirstChild(); child != nil; child = child.NextSibling() {
		w.block(child, 0)
	}
	w.lines = append(w.lines, "}")
	return strings.Join(w.lines, "\n")
}

type rtfWriter struct {
	source []byte
	lines  []string
}

func (w *rtfWriter) emit(paragraph string) {
	w.lines = append(w.lines, strings.Split(paragraph, "\n")...)
}

func (w *rtfWriter) block(node ast.Node, depth int) {
	switch n := node.(type) {
	case *ast.Heading:
		size, ok := headingSizes[n.Level]
		if !ok {
			size = `\fs20`
		}
		w.emit(paragraphPrefix + `\b ` + size + " " + w.inlines(n) + `\par}`)
	case *ast.Paragraph, *ast.TextBlock:
		w.emit(paragraphPrefix + w.inlines(n) + `\par}`)
	case *ast.FencedCodeBlock:
		w.emit(paragraphPrefix + `\f1 ` + w.codeLines(n.Lines()) + `\par}`)
	case *ast.CodeBlock:
		w.emit(paragraphPrefix + `\f1 ` + w.codeLines(n.Lines()) + `\par}`)
	case *ast.List:
		w.list(n, depth)
	case *ast.Blockquote:
		for child := n.FirstChild(); child != nil; child = child.NextSibling() {
			w.block(child, depth)
		}
	case *ast.ThematicBreak:
		w.emit(`{\pard \qc \f0 \sa180 \li0 \fi0 \emdash\emdash\emdash\emdash\emdash\par}`)
	default:
		if lines := node.Lines(); lines != nil && lines.Len() > 0 {
			w.emit(paragraphPrefix + escape(string(lines.Value(w.source))) + `\par}`)
		}
	}
}

func (w *rtfWriter) list(list *ast.List, depth int) {
	indent := listIndentStep * (depth + 1)
	number := list.Start
	if number == 0 {
		number = 1
	}
	for item := list.FirstChild(); item != nil; item = item.NextSibling() {
		marker := `\bullet `
		if list.IsOrdered() {
			marker = fmt.Sprintf("%d%c", number, list.Marker)
			number++
		}

		var nested []ast.Node
		body := ""
		for child := item.FirstChild(); child != nil; child = child.NextSibling() {
			if body == "" && isTextBlock(child) {
				body = w.inlines(child)
				continue
			}
			nested = append(nested, child)
		}

		spacing := ""
		if item.NextSibling() == nil && depth == 0 {
			spacing = `\sa180`
		}
		w.emit(fmt.Sprintf(`{\pard \ql \f0 \sa0 \li%d \fi-%d %s\tx%d\tab %s%s\par}`,
			indent, listIndentStep, marker, indent, body, spacing))
		for _, child := range nested {
			w.block(child, depth+1)
		}
	}
}

func isTextBlock(node ast.Node) bool {
	switch node.(type) {
	case *ast.Paragraph, *ast.TextBlock:
		return true
	}
	return false
}

func (w *rtfWriter) codeLines(lines *text.Segments) string {
	out := make([]string, 0, lines.Len())
	for i := 0; i < lines.Len(); i++ {
		segment := lines.At(i)
		line := strings.TrimRight(string(segment.Value(w.source)), "\r\n")
		out = append(out, escape(line))
	}
	return strings.Join(out, "\\line\n")
}

func (w *rtfWriter) inlines(parent ast.Node) string {
	var b strings.Builder
	for child := parent.FirstChild(); child != nil; child = child.NextSibling() {
		w.inline(&b, child)
	}
	return b.String()
}

func (w *rtfWriter) inline(b *strings.Builder, node ast.Node) {
	switch n := node.(type) {
	case *ast.Text:
		b.WriteString(escape(string(n.Segment.Value(w.source))))
		switch {
		case n.HardLineBreak():
			b.WriteString(`\line `)
		case n.SoftLineBreak():
			b.WriteString(" ")
		}
	case *ast.String:
		b.WriteString(escape(string(n.Value)))
	case *ast.Emphasis:
		style := `\i `
		if n.Level >= 2 {
			style = `\b `
		}
		b.WriteString("{" + style + w.inlines(n) + "}")
	case *ast.CodeSpan:
		var code strings.Builder
		for child := n.FirstChild(); child != nil; child = child.NextSibling() {
			if segment, ok := child.(*ast.Text); ok {
				code.Write(segment.Segment.Value(w.source))
			}
		}
		b.WriteString(`{\f1 ` + escape(code.String()) + "}")
	case *ast.Link:
		b.WriteString(hyperlink(string(n.Destination), w.inlines(n)))
	case *ast.AutoLink:
		url := string(n.URL(w.source))
		b.WriteString(hyperlink(url, escape(url)))
	default:
		b.WriteString(w.inlines(n))
	}
}

func hyperlink(url, label string) string {
	return `{\field{\*\fldinst{HYPERLINK "` + escape(url) + `"}}{\fldrslt{\ul ` + label + `}}}`
}

// escape quotes RTF control characters and writes non-ASCII runes as \u
// escapes with a ? fallback.
func escape(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r == '\\' || r == '{' || r == '}':
			b.WriteByte('\\')
			b.WriteRune(r)
		case r == '\t':
			b.WriteString(`\tab `)
		case r < 0x80:
			b.WriteRune(r)
		case r <= 0xFFFF:
			fmt.Fprintf(&b, `\u%d?`, int16(r))
		default:
			r -= 0x10000
			fmt.Fprintf(&b, `\u%d?\u%d?`, int16(0xD800+(r>>10)), int16(0xDC00+(r&0x3FF)))
		}
	}
	return b.String()
}
