package app

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/ben-ranford/luapack/internal/bundle"
	"github.com/ben-ranford/luapack/internal/config"
	"github.com/ben-ranford/luapack/internal/lang/lua"
	"github.com/ben-ranford/luapack/internal/luacheck"
	"github.com/ben-ranford/luapack/internal/luasrc"
	"github.com/ben-ranford/luapack/internal/notes"
	"github.com/ben-ranford/luapack/internal/report"
	"github.com/ben-ranford/luapack/internal/workspace"
)

// bundleRun is the shared, read-only state of one bundle command.
type bundleRun struct {
	cfg         config.Values
	ws          *workspace.Workspace
	output      workspace.Output
	scanner     bundle.Scanner
	extras      []string
	library     bundle.Library
	libraryOpts bundle.LibraryOptions
}

func (a *App) executeBundle(ctx context.Context, req Request) (string, error) {
	cfg := req.Config
	ws, entries, skipped, err := a.openWorkspace(cfg)
	if err != nil {
		return "", err
	}
	outputDir, err := workspace.NormalizePath(cfg.Output)
	if err != nil {
		return "", fmt.Errorf("resolve output path: %w", err)
	}

	extras, err := ws.ExtensionModules(cfg.ExtensionDir)
	if err != nil {
		return "", err
	}
	run := &bundleRun{
		cfg:     cfg,
		ws:      ws,
		output:  workspace.Output{Dir: outputDir, HashDir: cfg.HashDir},
		scanner: newScanner(cfg),
		extras:  extras,
	}
	run.libraryOpts = bundle.LibraryOptions{Scanner: run.scanner, Namespace: cfg.LibraryNamespace}

	rep := report.Report{
		SchemaVersion: report.SchemaVersion,
		GeneratedAt:   a.Now().UTC(),
		SourcePath:    ws.Root,
		OutputPath:    outputDir,
		Mode:          cfg.Mode,
		Skipped:       skippedEntries(skipped),
	}
	if req.ConfigPath != "" {
		a.Logger.Debug("loaded config", "path", req.ConfigPath)
	}

	if cfg.Mode == config.ModeInline {
		stuck, err := a.prepareLibrary(run)
		if err != nil {
			return "", err
		}
		rep.StuckLibraries = stuck
	}

	scripts := make([]report.ScriptReport, len(entries))
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(cfg.Jobs)
	for index, entry := range entries {
		group.Go(func() error {
			if err := groupCtx.Err(); err != nil {
				return err
			}
			script, err := a.bundleEntry(run, entry)
			if err != nil {
				return err
			}
			scripts[index] = script
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return "", err
	}
	rep.Scripts = scripts

	if revision, err := workspace.SourceRevision(ws.Root); err == nil {
		rep.SourceRevision = revision
	} else {
		a.Logger.Debug("no source revision", "err", err)
	}
	rep.Summary = report.ComputeSummary(rep)

	formatted, err := a.Formatter.Format(rep, req.Format)
	if err != nil {
		return "", err
	}
	switch {
	case rep.Summary.UnresolvedCount > 0:
		return formatted, ErrUnresolvedImports
	case rep.Summary.SyntaxErrCount > 0:
		return formatted, ErrSyntaxCheckFailed
	}
	return formatted, nil
}

func (a *App) openWorkspace(cfg config.Values) (*workspace.Workspace, []string, []workspace.Skipped, error) {
	ws, err := workspace.New(cfg.Source, cfg.Extension)
	if err != nil {
		return nil, nil, nil, err
	}
	scope, err := workspace.NewScope(cfg.Exclude)
	if err != nil {
		return nil, nil, nil, err
	}
	entries, skipped, err := ws.Entries(scope)
	if err != nil {
		return nil, nil, nil, err
	}
	for _, entry := range skipped {
		a.Logger.Warn("skipping excluded script", "file", entry.File, "pattern", entry.Pattern)
	}
	return ws, entries, skipped, nil
}

func (a *App) prepareLibrary(run *bundleRun) ([]string, error) {
	inputs, err := run.ws.LibraryInputs(run.cfg.LibraryNamespace)
	if err != nil {
		return nil, err
	}
	library, stuck := bundle.PrepareLibrary(inputs, run.libraryOpts)
	for _, name := range stuck {
		a.Logger.Warn("library could not be prepared", "library", name)
	}
	a.Logger.Debug("prepared library", "count", len(library))
	run.library = library
	return stuck, nil
}

func (a *App) bundleEntry(run *bundleRun, entry string) (report.ScriptReport, error) {
	contents, err := run.ws.ReadEntry(entry)
	if err != nil {
		return report.ScriptReport{}, err
	}
	if run.library != nil {
		contents = bundle.Inline(contents, run.library, run.libraryOpts)
	}

	assembler := bundle.NewAssembler(bundle.Options{
		Reader:         run.ws.Reader(),
		Scanner:        run.scanner,
		Extension:      run.cfg.Extension,
		ExtensionPoint: run.cfg.ExtensionPoint,
		Extras:         run.extras,
		Logger:         a.Logger,
	})
	result := assembler.BundleSource(entry, contents)

	text := result.Text
	if run.cfg.StripComments {
		text = luasrc.StripComments(text)
	}
	if run.cfg.InjectExtras {
		text = notes.Inject(entry, text, notes.InjectOptions{HashURLBase: run.cfg.HashURLBase})
	}

	script := report.ScriptReport{
		File:    entry,
		Bundled: result.Bundled,
		Bytes:   len(text),
		Hash:    workspace.Hash(text),
	}
	for _, missing := range result.Unresolved {
		script.Unresolved = append(script.Unresolved, report.UnresolvedImport{File: missing.File, Import: missing.Import})
	}
	if run.cfg.Check {
		if err := luacheck.Check(entry, text); err != nil {
			script.SyntaxErr = err.Error()
			a.Logger.Error("syntax check failed", "file", entry, "err", err)
		}
	}

	if _, err := run.output.WriteScript(entry, text); err != nil {
		return report.ScriptReport{}, err
	}
	if _, err := run.output.WriteHash(notes.Stem(entry), text); err != nil {
		return report.ScriptReport{}, err
	}
	a.Logger.Debug("bundled script", "file", entry, "modules", len(result.Bundled), "bytes", len(text))
	return script, nil
}

func newScanner(cfg config.Values) bundle.Scanner {
	if cfg.Scanner == config.ScannerSyntax {
		return lua.NewSyntaxScanner(cfg.Ignore)
	}
	return bundle.NewPatternScanner(cfg.Ignore)
}

func skippedEntries(skipped []workspace.Skipped) []report.SkippedEntry {
	entries := make([]report.SkippedEntry, 0, len(skipped))
	for _, entry := range skipped {
		entries = append(entries, report.SkippedEntry{File: entry.File, Pattern: entry.Pattern})
	}
	return entries
}
