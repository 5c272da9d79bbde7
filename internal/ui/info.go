package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/ben-ranford/luapack/internal/metadata"
)

const defaultWrap = 80

// Info renders the metadata of one script for a terminal.
type Info struct {
	Width int
	// Style is a glamour standard style name ("dark", "light", "notty").
	// Empty picks one from the terminal background.
	Style string
}

func NewInfo() *Info {
	return &Info{Width: defaultWrap}
}

func (i *Info) Render(meta metadata.Metadata) (string, error) {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("39"))

	labelStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("214"))

	valueStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("245"))

	sectionStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("99")).
		MarginTop(1)

	var sb strings.Builder
	title := meta.Name
	if title == "" {
		title = meta.FileName
	}
	sb.WriteString(titleStyle.Render(title))
	sb.WriteString("\n")
	if meta.ShortDescription != "" {
		sb.WriteString(valueStyle.Render(meta.ShortDescription))
		sb.WriteString("\n")
	}
	sb.WriteString("\n")

	for _, field := range infoFields(meta) {
		if field.value == "" {
			continue
		}
		sb.WriteString(labelStyle.Render(fmt.Sprintf("%-12s", field.label)))
		sb.WriteString(valueStyle.Render(field.value))
		sb.WriteString("\n")
	}

	if len(meta.MenuItems) > 0 {
		sb.WriteString(sectionStyle.Render("Menu items"))
		sb.WriteString("\n")
		for _, item := range meta.MenuItems {
			sb.WriteString(valueStyle.Render("  • " + item))
			sb.WriteString("\n")
		}
	}

	if strings.TrimSpace(meta.Notes) != "" {
		sb.WriteString(sectionStyle.Render("Notes"))
		sb.WriteString("\n")
		notes, err := i.renderMarkdown(meta.Notes)
		if err != nil {
			return "", fmt.Errorf("render notes: %w", err)
		}
		sb.WriteString(notes)
	}

	if len(meta.RevisionNotes) > 0 {
		sb.WriteString(sectionStyle.Render("Revisions"))
		sb.WriteString("\n")
		for _, note := range meta.RevisionNotes {
			sb.WriteString(valueStyle.Render("  " + note))
			sb.WriteString("\n")
		}
	}
	return sb.String(), nil
}

type infoField struct {
	label string
	value string
}

func infoFields(meta metadata.Metadata) []infoField {
	author := meta.Author.Name
	if meta.Author.Email != "" {
		author = strings.TrimSpace(author + " <" + meta.Author.Email + ">")
	}
	return []infoField{
		{"File", meta.FileName},
		{"Author", author},
		{"Website", meta.Author.Website},
		{"Version", meta.Version},
		{"Date", meta.Date},
		{"Categories", strings.Join(meta.Categories, ", ")},
		{"Copyright", meta.Copyright},
		{"Requires", requirements(meta)},
		{"Finale", versionRange(meta.MinFinaleVersion, meta.MaxFinaleVersion)},
		{"JW Lua", versionRange(meta.MinJWLuaVersion, meta.MaxJWLuaVersion)},
	}
}

func requirements(meta metadata.Metadata) string {
	var parts []string
	if meta.RequireScore {
		parts = append(parts, "score")
	}
	if meta.RequireSelection {
		parts = append(parts, "selection")
	}
	if meta.NoStore {
		parts = append(parts, "no store")
	}
	return strings.Join(parts, ", ")
}

func versionRange(minVersion, maxVersion string) string {
	switch {
	case minVersion == "" && maxVersion == "":
		return ""
	case maxVersion == "":
		return ">= " + minVersion
	case minVersion == "":
		return "<= " + maxVersion
	default:
		return minVersion + " - " + maxVersion
	}
}

func (i *Info) renderMarkdown(content string) (string, error) {
	var rendererOpts []glamour.TermRendererOption
	if i.Style != "" {
		rendererOpts = append(rendererOpts, glamour.WithStandardStyle(i.Style))
	} else {
		rendererOpts = append(rendererOpts, glamour.WithAutoStyle())
	}
	if i.Width > 0 {
		rendererOpts = append(rendererOpts, glamour.WithWordWrap(i.Width))
	}

	renderer, err := glamour.NewTermRenderer(rendererOpts...)
	if err != nil {
		return "", err
	}
	return renderer.Render(content)
}
