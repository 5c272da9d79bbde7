package ui

import (
	"strings"
	"testing"

	"github.com/ben-ranford/luapack/internal/metadata"
)

func sampleMetadata() metadata.Metadata {
	return metadata.Metadata{
		Name:             "Transpose Chromatic...",
		FileName:         "transpose.lua",
		ShortDescription: "Chromatic transposition of selected region",
		MenuItems:        []string{"Transpose Chromatic Down", "Transpose Chromatic..."},
		Author:           metadata.Author{Name: "Robert Patterson", Email: "info@example.com"},
		Version:          "1.1",
		Date:             "2021-03-20",
		Categories:       []string{"Pitch", "Transposition"},
		RequireSelection: true,
		MinJWLuaVersion:  "0.59",
		Notes:            "# Transpose\n\nMoves **notes** by an interval.",
		RevisionNotes:    []string{"v1.1 Fix octave handling"},
	}
}

func TestInfoRender(t *testing.T) {
	info := &Info{Width: 60, Style: "notty"}
	out, err := info.Render(sampleMetadata())
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	for _, want := range []string{
		"Transpose Chromatic...",
		"Chromatic transposition of selected region",
		"transpose.lua",
		"Robert Patterson <info@example.com>",
		"Pitch, Transposition",
		"selection",
		">= 0.59",
		"Transpose Chromatic Down",
		"Moves",
		"interval",
		"v1.1 Fix octave handling",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Website") {
		t.Fatalf("empty fields should be omitted:\n%s", out)
	}
}

func TestInfoFallsBackToFileName(t *testing.T) {
	info := NewInfo()
	info.Style = "notty"
	out, err := info.Render(metadata.Metadata{FileName: "bare.lua"})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(out, "bare.lua") {
		t.Fatalf("expected file name as title, got %q", out)
	}
	if strings.Contains(out, "Notes") {
		t.Fatalf("expected no notes section, got %q", out)
	}
}

func TestVersionRange(t *testing.T) {
	cases := []struct {
		min, max, want string
	}{
		{"", "", ""},
		{"0.59", "", ">= 0.59"},
		{"", "27", "<= 27"},
		{"25", "27", "25 - 27"},
	}
	for _, tc := range cases {
		if got := versionRange(tc.min, tc.max); got != tc.want {
			t.Fatalf("versionRange(%q, %q) = %q, want %q", tc.min, tc.max, got, tc.want)
		}
	}
}
