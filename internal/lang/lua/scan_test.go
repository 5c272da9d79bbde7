package lua

import (
	"reflect"
	"testing"

	"github.com/ben-ranford/luapack/internal/bundle"
)

var _ bundle.Scanner = (*SyntaxScanner)(nil)

func TestSyntaxScannerFindsRequireCalls(t *testing.T) {
	source := `
local articulation = require("library.articulation")
local client = require 'library.client'
local raw = __original_require("library.raw")
local again = require("library.articulation")
`
	got := NewSyntaxScanner(nil).Scan(source)
	want := []string{"library.articulation", "library.client", "library.raw"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %#v, got %#v", want, got)
	}
}

func TestSyntaxScannerSkipsComments(t *testing.T) {
	source := `
-- local a = require("a")
--[[
local b = require("b")
]]
local c = require("c") -- require("d")
`
	got := NewSyntaxScanner(nil).Scan(source)
	if !reflect.DeepEqual(got, []string{"c"}) {
		t.Fatalf("expected only c, got %#v", got)
	}
}

func TestSyntaxScannerIgnoresOtherCallees(t *testing.T) {
	source := `
local a = my_require("a")
local b = import("b")
local c = require(name)
`
	if got := NewSyntaxScanner(nil).Scan(source); len(got) != 0 {
		t.Fatalf("expected no imports, got %#v", got)
	}
}

func TestSyntaxScannerSkipsDynamicRequireArguments(t *testing.T) {
	source := `
local a = require("mixin." .. kind)
local b = require("a", "b")
local c = require("library.utils")
`
	got := NewSyntaxScanner(nil).Scan(source)
	if !reflect.DeepEqual(got, []string{"library.utils"}) {
		t.Fatalf("expected only library.utils, got %#v", got)
	}
}

func TestSyntaxScannerDropsIgnoredNames(t *testing.T) {
	got := NewSyntaxScanner([]string{"lfs"}).Scan("local lfs = require(\"lfs\")\nlocal u = require(\"library.utils\")\n")
	if !reflect.DeepEqual(got, []string{"library.utils"}) {
		t.Fatalf("unexpected imports: %#v", got)
	}
}

func TestSyntaxScannerEmptyInput(t *testing.T) {
	got := NewSyntaxScanner(nil).Scan("")
	if got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil result, got %#v", got)
	}
}

func TestSyntaxScannerDrivesAssembler(t *testing.T) {
	reader := bundle.MapReader{"library/utils.lua": "return {}"}
	assembler := bundle.NewAssembler(bundle.Options{Reader: reader, Scanner: NewSyntaxScanner(nil)})
	result := assembler.BundleSource("main.lua", "--[[ require(\"library.ghost\") ]]\nlocal utils = require(\"library.utils\")\n")
	if !reflect.DeepEqual(result.Bundled, []string{"library.utils"}) || result.Failed() {
		t.Fatalf("unexpected result: %#v", result)
	}
}
