package app

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"go.uber.org/goleak"

	"github.com/ben-ranford/luapack/internal/bundle"
	"github.com/ben-ranford/luapack/internal/config"
	"github.com/ben-ranford/luapack/internal/metadata"
	"github.com/ben-ranford/luapack/internal/report"
	"github.com/ben-ranford/luapack/internal/testutil"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const pluginScript = `function plugindef()
    finaleplugin.Author = "Jane Doe"
    finaleplugin.Version = "1.0"
    finaleplugin.Date = "March 26, 2022"
    finaleplugin.Notes = [[
        # Hello

        Says **hello**.
    ]]
    return "Hello World", "Hello World", "Prints a greeting"
end

local utils = require("library.utils") -- helpers
print(utils.greet())
`

func newTestApp(logs *bytes.Buffer) *App {
	logger := log.New(logs)
	logger.SetLevel(log.DebugLevel)
	application := New(logger)
	application.Now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }
	application.Info.Style = "notty"
	return application
}

func bundleRequest(t *testing.T, files map[string]string) (Request, string) {
	t.Helper()
	root := t.TempDir()
	source := filepath.Join(root, "src")
	testutil.WriteTree(t, source, files)
	req := DefaultRequest()
	req.Config.Source = source
	req.Config.Output = filepath.Join(root, "dist")
	return req, root
}

func TestExecuteUnknownMode(t *testing.T) {
	_, err := New(nil).Execute(context.Background(), Request{Mode: "nope"})
	if !errors.Is(err, ErrUnknownMode) {
		t.Fatalf("expected ErrUnknownMode, got %v", err)
	}
}

func TestExecuteBundleWritesScriptsAndSkipsExcluded(t *testing.T) {
	req, root := bundleRequest(t, map[string]string{
		"hello.lua":         pluginScript,
		"personal_test.lua": `print("mine")`,
		"library/utils.lua": "local utils = {}\nfunction utils.greet()\n    return \"hi\"\nend\nreturn utils",
	})
	req.Config.HashDir = filepath.Join(root, "hash")
	req.Format = report.FormatJSON

	var logs bytes.Buffer
	output, err := newTestApp(&logs).Execute(context.Background(), req)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}

	bundled := testutil.MustReadFile(t, filepath.Join(root, "dist", "hello.lua"))
	if !strings.HasPrefix(bundled, bundle.RequireShim()) {
		t.Fatalf("expected shim first, got:\n%s", bundled)
	}
	if !strings.Contains(bundled, `__imports["library.utils"]`) {
		t.Fatalf("expected wrapped library, got:\n%s", bundled)
	}
	if _, err := os.Stat(filepath.Join(root, "dist", "personal_test.lua")); !os.IsNotExist(err) {
		t.Fatalf("expected excluded script to be skipped, stat err=%v", err)
	}
	hash := testutil.MustReadFile(t, filepath.Join(root, "hash", "hello.hash"))
	if len(hash) != 64 {
		t.Fatalf("expected sha256 hex digest, got %q", hash)
	}

	var rep report.Report
	if err := json.Unmarshal([]byte(output), &rep); err != nil {
		t.Fatalf("decode report: %v\n%s", err, output)
	}
	if len(rep.Scripts) != 1 || rep.Scripts[0].File != "hello.lua" || rep.Scripts[0].Hash != hash {
		t.Fatalf("unexpected scripts: %#v", rep.Scripts)
	}
	if len(rep.Skipped) != 1 || rep.Skipped[0].Pattern != "personal*" {
		t.Fatalf("unexpected skipped entries: %#v", rep.Skipped)
	}
	if rep.Summary == nil || rep.Summary.ModuleCount != 1 {
		t.Fatalf("unexpected summary: %#v", rep.Summary)
	}
	if !strings.Contains(logs.String(), "skipping excluded script") {
		t.Fatalf("expected skip warning in logs, got %q", logs.String())
	}
}

func TestExecuteBundleUnresolvedStillWritesOutput(t *testing.T) {
	entry := `local missing = require("library.missing")`
	req, root := bundleRequest(t, map[string]string{"main.lua": entry})

	var logs bytes.Buffer
	output, err := newTestApp(&logs).Execute(context.Background(), req)
	if !errors.Is(err, ErrUnresolvedImports) {
		t.Fatalf("expected ErrUnresolvedImports, got %v", err)
	}
	if !strings.Contains(output, "library.missing") {
		t.Fatalf("expected report to name the import, got %q", output)
	}
	if got := testutil.MustReadFile(t, filepath.Join(root, "dist", "main.lua")); got != entry {
		t.Fatalf("expected untouched entry, got %q", got)
	}
	if !strings.Contains(logs.String(), "unresolvable import") {
		t.Fatalf("expected error log, got %q", logs.String())
	}
}

func TestExecuteBundleDefaultConfigSkipsHostModules(t *testing.T) {
	entry := "local lfs = require(\"lfs\")\nlocal os = require(\"luaosutils\")\nlocal json = require(\"cjson\")\n"
	req, root := bundleRequest(t, map[string]string{"main.lua": entry})

	var logs bytes.Buffer
	if _, err := newTestApp(&logs).Execute(context.Background(), req); err != nil {
		t.Fatalf("expected host modules to be ignored, got %v", err)
	}
	if got := testutil.MustReadFile(t, filepath.Join(root, "dist", "main.lua")); got != entry {
		t.Fatalf("expected untouched entry, got %q", got)
	}
}

func TestExecuteBundleInlineMode(t *testing.T) {
	req, root := bundleRequest(t, map[string]string{
		"main.lua":                 "local art = require(\"library.articulation\")\nart.delete()",
		"library/articulation.lua": "local articulation = {}\nfunction articulation.delete()\nend\nreturn articulation",
		"library/broken.lua":       "local broken = {}\nlocal x = require(\"library.nowhere\")\nreturn broken",
	})
	req.Config.Mode = config.ModeInline
	req.Format = report.FormatJSON

	var logs bytes.Buffer
	output, err := newTestApp(&logs).Execute(context.Background(), req)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	want := "local art = {}\nfunction art.delete()\nend\nart.delete()"
	if got := testutil.MustReadFile(t, filepath.Join(root, "dist", "main.lua")); got != want {
		t.Fatalf("unexpected inline output:\n%q\n---\n%q", got, want)
	}

	var rep report.Report
	if err := json.Unmarshal([]byte(output), &rep); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	if len(rep.StuckLibraries) != 1 || rep.StuckLibraries[0] != "broken" {
		t.Fatalf("unexpected stuck libraries: %#v", rep.StuckLibraries)
	}
	if !strings.Contains(logs.String(), "library could not be prepared") {
		t.Fatalf("expected stuck library warning, got %q", logs.String())
	}
}

func TestExecuteBundleStripAndInject(t *testing.T) {
	req, root := bundleRequest(t, map[string]string{
		"hello.lua":         pluginScript,
		"library/utils.lua": "-- greeting helpers\nlocal utils = {}\nreturn utils",
	})
	req.Config.StripComments = true
	req.Config.InjectExtras = true
	req.Config.HashURLBase = "https://example.com/hash/"

	if _, err := newTestApp(&bytes.Buffer{}).Execute(context.Background(), req); err != nil {
		t.Fatalf("execute: %v", err)
	}
	got := testutil.MustReadFile(t, filepath.Join(root, "dist", "hello.lua"))
	for _, want := range []string{
		`finaleplugin.HashURL = "https://example.com/hash/hello.hash"`,
		"finaleplugin.RTFNotes = [[",
		`{\rtf1`,
	} {
		if !strings.Contains(got, want) {
			t.Fatalf("expected %q in output:\n%s", want, got)
		}
	}
	if strings.Contains(got, "-- helpers") || strings.Contains(got, "greeting helpers") {
		t.Fatalf("expected comments to be stripped:\n%s", got)
	}
}

func TestExecuteBundleSyntaxCheck(t *testing.T) {
	req, _ := bundleRequest(t, map[string]string{
		"good.lua": `print("ok")`,
		"bad.lua":  "local x = = 1",
	})
	req.Config.Check = true
	req.Format = report.FormatJSON

	output, err := newTestApp(&bytes.Buffer{}).Execute(context.Background(), req)
	if !errors.Is(err, ErrSyntaxCheckFailed) {
		t.Fatalf("expected ErrSyntaxCheckFailed, got %v", err)
	}
	var rep report.Report
	if err := json.Unmarshal([]byte(output), &rep); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	if rep.Summary.SyntaxErrCount != 1 {
		t.Fatalf("expected one syntax error, got %#v", rep.Summary)
	}
	for _, script := range rep.Scripts {
		if (script.File == "bad.lua") != (script.SyntaxErr != "") {
			t.Fatalf("unexpected syntax result for %s: %q", script.File, script.SyntaxErr)
		}
	}
}

func TestExecuteBundleParallelSyntaxScanner(t *testing.T) {
	files := map[string]string{
		"library/utils.lua": "return {}",
	}
	names := []string{"a.lua", "b.lua", "c.lua", "d.lua", "e.lua"}
	for _, name := range names {
		files[name] = "--[[ require(\"library.ghost\") ]]\nlocal utils = require(\"library.utils\")"
	}
	req, root := bundleRequest(t, files)
	req.Config.Scanner = config.ScannerSyntax
	req.Config.Jobs = 2
	req.Format = report.FormatJSON

	output, err := newTestApp(&bytes.Buffer{}).Execute(context.Background(), req)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	var rep report.Report
	if err := json.Unmarshal([]byte(output), &rep); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	if len(rep.Scripts) != len(names) {
		t.Fatalf("expected %d scripts, got %d", len(names), len(rep.Scripts))
	}
	for index, script := range rep.Scripts {
		if script.File != names[index] {
			t.Fatalf("expected scripts in entry order, got %s at %d", script.File, index)
		}
		if len(script.Bundled) != 1 || script.Bundled[0] != "library.utils" {
			t.Fatalf("unexpected bundled modules for %s: %#v", script.File, script.Bundled)
		}
		testutil.MustReadFile(t, filepath.Join(root, "dist", script.File))
	}
}

func TestExecuteBundleCanceledContext(t *testing.T) {
	req, _ := bundleRequest(t, map[string]string{"main.lua": `print("hi")`})
	_, err := newTestApp(&bytes.Buffer{}).Execute(testutil.CanceledContext(), req)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestExecuteBundleMissingSource(t *testing.T) {
	req := DefaultRequest()
	req.Config.Source = filepath.Join(t.TempDir(), "missing")
	if _, err := New(nil).Execute(context.Background(), req); err == nil {
		t.Fatalf("expected error for missing source dir")
	}
}

func TestExecuteBundleTableOutput(t *testing.T) {
	req, _ := bundleRequest(t, map[string]string{"main.lua": `print("hi")`})
	output, err := newTestApp(&bytes.Buffer{}).Execute(context.Background(), req)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !strings.Contains(output, "main.lua") {
		t.Fatalf("expected table to list the script, got %q", output)
	}
}

func TestExecuteMetadataWritesCatalogue(t *testing.T) {
	req, root := bundleRequest(t, map[string]string{
		"hello.lua": pluginScript,
		"plain.lua": `print("no plugindef")`,
	})
	req.Mode = ModeMetadata

	var logs bytes.Buffer
	output, err := newTestApp(&logs).Execute(context.Background(), req)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !strings.Contains(output, "Wrote metadata for 1 scripts") {
		t.Fatalf("unexpected output %q", output)
	}

	var catalogue []metadata.Metadata
	data := testutil.MustReadFile(t, filepath.Join(root, "dist", config.DefaultMetadataFile))
	if err := json.Unmarshal([]byte(data), &catalogue); err != nil {
		t.Fatalf("decode catalogue: %v", err)
	}
	if len(catalogue) != 1 {
		t.Fatalf("expected one entry, got %#v", catalogue)
	}
	got := catalogue[0]
	if got.Name != "Hello World" || got.FileName != "hello.lua" || got.Date != "2022-03-26" || got.Author.Name != "Jane Doe" {
		t.Fatalf("unexpected metadata: %#v", got)
	}
	if !strings.Contains(logs.String(), "plain.lua") {
		t.Fatalf("expected warning for script without plugindef, got %q", logs.String())
	}
}

func TestExecuteMetadataJSONFormat(t *testing.T) {
	req, _ := bundleRequest(t, map[string]string{"hello.lua": pluginScript})
	req.Mode = ModeMetadata
	req.Format = report.FormatJSON

	output, err := newTestApp(&bytes.Buffer{}).Execute(context.Background(), req)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	var catalogue []metadata.Metadata
	if err := json.Unmarshal([]byte(output), &catalogue); err != nil {
		t.Fatalf("decode output: %v\n%s", err, output)
	}
	if len(catalogue) != 1 || catalogue[0].ShortDescription != "Prints a greeting" {
		t.Fatalf("unexpected catalogue: %#v", catalogue)
	}
}

func TestExecuteInfo(t *testing.T) {
	path := testutil.WriteTempFile(t, "hello.lua", pluginScript)
	req := Request{Mode: ModeInfo, InfoFile: path}

	output, err := newTestApp(&bytes.Buffer{}).Execute(context.Background(), req)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	for _, want := range []string{"Hello World", "Jane Doe", "hello.lua", "2022-03-26"} {
		if !strings.Contains(output, want) {
			t.Fatalf("expected %q in output:\n%s", want, output)
		}
	}
}

func TestExecuteInfoWithoutPluginDef(t *testing.T) {
	path := testutil.WriteTempFile(t, "plain.lua", `print("hi")`)
	_, err := New(nil).Execute(context.Background(), Request{Mode: ModeInfo, InfoFile: path})
	if !errors.Is(err, ErrNoPluginDef) {
		t.Fatalf("expected ErrNoPluginDef, got %v", err)
	}
}

func TestExecuteInfoMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.lua")
	_, err := New(nil).Execute(context.Background(), Request{Mode: ModeInfo, InfoFile: path})
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
}
