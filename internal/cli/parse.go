package cli

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/ben-ranford/luapack/internal/app"
	"github.com/ben-ranford/luapack/internal/config"
	"github.com/ben-ranford/luapack/internal/report"
)

var ErrHelpRequested = errors.New("help requested")

// configDir is where config files are discovered.
var configDir = "."

func ParseArgs(args []string) (app.Request, error) {
	req := app.DefaultRequest()
	if len(args) == 0 {
		return parseRun(nil, req, app.ModeBundle)
	}

	if isHelpArg(args[0]) {
		return req, ErrHelpRequested
	}

	switch args[0] {
	case "bundle":
		return parseRun(args[1:], req, app.ModeBundle)
	case "metadata":
		return parseRun(args[1:], req, app.ModeMetadata)
	case "info":
		return parseInfo(args[1:], req)
	default:
		if strings.HasPrefix(args[0], "-") {
			return parseRun(args, req, app.ModeBundle)
		}
		return req, fmt.Errorf("unknown command: %s", args[0])
	}
}

func parseRun(args []string, req app.Request, mode app.Mode) (app.Request, error) {
	args = normalizeArgs(args)

	fs := flag.NewFlagSet(string(mode), flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	defaults := req.Config
	source := fs.String("source", defaults.Source, "source directory")
	output := fs.String("output", defaults.Output, "output directory")
	configPath := fs.String("config", "", "config file path")
	modeFlag := fs.String("mode", defaults.Mode, "library handling")
	scanner := fs.String("scanner", defaults.Scanner, "import scanner")
	extension := fs.String("extension", defaults.Extension, "source file extension")
	libraryNamespace := fs.String("library-namespace", defaults.LibraryNamespace, "library namespace")
	extensionPoint := fs.String("extension-point", defaults.ExtensionPoint, "extension point module")
	extensionDir := fs.String("extension-dir", defaults.ExtensionDir, "extension modules dir")
	hashURLBase := fs.String("hash-url-base", defaults.HashURLBase, "hash URL base")
	hashDir := fs.String("hash-dir", defaults.HashDir, "hash output dir")
	metadataFile := fs.String("metadata-file", defaults.MetadataFile, "catalogue file name")
	stripComments := fs.Bool("strip-comments", defaults.StripComments, "strip comments")
	injectExtras := fs.Bool("inject-extras", defaults.InjectExtras, "inject RTFNotes and HashURL")
	check := fs.Bool("check", defaults.Check, "syntax check bundled output")
	jobs := fs.Int("jobs", defaults.Jobs, "parallel jobs")
	formatFlag := fs.String("format", string(req.Format), "report format")
	verbose := fs.Bool("verbose", false, "debug logging")
	ignore := newPatternListFlag(nil)
	fs.Var(ignore, "ignore", "modules never bundled")
	exclude := newPatternListFlag(nil)
	fs.Var(exclude, "exclude", "entry globs to skip")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return req, ErrHelpRequested
		}
		return req, err
	}
	if fs.NArg() > 0 {
		return req, fmt.Errorf("unexpected arguments for %s: %s", mode, strings.Join(fs.Args(), " "))
	}

	format, err := report.ParseFormat(*formatFlag)
	if err != nil {
		return req, err
	}

	loaded, err := config.Load(configDir, strings.TrimSpace(*configPath))
	if err != nil {
		return req, err
	}

	visited := visitedFlags(fs)
	cliOverrides := config.Overrides{}
	stringFlags := []struct {
		name   string
		value  *string
		target **string
	}{
		{"source", source, &cliOverrides.Source},
		{"output", output, &cliOverrides.Output},
		{"mode", modeFlag, &cliOverrides.Mode},
		{"scanner", scanner, &cliOverrides.Scanner},
		{"extension", extension, &cliOverrides.Extension},
		{"library-namespace", libraryNamespace, &cliOverrides.LibraryNamespace},
		{"extension-point", extensionPoint, &cliOverrides.ExtensionPoint},
		{"extension-dir", extensionDir, &cliOverrides.ExtensionDir},
		{"hash-url-base", hashURLBase, &cliOverrides.HashURLBase},
		{"hash-dir", hashDir, &cliOverrides.HashDir},
		{"metadata-file", metadataFile, &cliOverrides.MetadataFile},
	}
	for _, f := range stringFlags {
		if visited[f.name] {
			*f.target = f.value
		}
	}
	if visited["strip-comments"] {
		cliOverrides.StripComments = stripComments
	}
	if visited["inject-extras"] {
		cliOverrides.InjectExtras = injectExtras
	}
	if visited["check"] {
		cliOverrides.Check = check
	}
	if visited["jobs"] {
		cliOverrides.Jobs = jobs
	}
	cliOverrides.Ignore = resolvePatterns(visited, "ignore", ignore.Values())
	cliOverrides.Exclude = resolvePatterns(visited, "exclude", exclude.Values())

	overrides := config.Merge(loaded.Overrides, cliOverrides)
	resolved := overrides.Apply(config.Defaults())
	if err := resolved.Validate(); err != nil {
		return req, err
	}

	req.Mode = mode
	req.Config = resolved
	req.Format = format
	req.ConfigPath = loaded.ConfigPath
	req.Verbose = *verbose
	return req, nil
}

func parseInfo(args []string, req app.Request) (app.Request, error) {
	args = normalizeArgs(args)

	fs := flag.NewFlagSet("info", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	verbose := fs.Bool("verbose", false, "debug logging")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return req, ErrHelpRequested
		}
		return req, err
	}
	switch fs.NArg() {
	case 0:
		return req, fmt.Errorf("missing script path for info")
	case 1:
	default:
		return req, fmt.Errorf("too many arguments for info")
	}

	req.Mode = app.ModeInfo
	req.InfoFile = strings.TrimSpace(fs.Arg(0))
	req.Verbose = *verbose
	return req, nil
}

// resolvePatterns returns nil when the flag was not given, so config values
// survive the merge. A visited flag always yields a non-nil list.
func resolvePatterns(visited map[string]bool, name string, values []string) []string {
	if !visited[name] {
		return nil
	}
	merged := mergePatterns(nil, values)
	if merged == nil {
		merged = []string{}
	}
	return merged
}

func isHelpArg(arg string) bool {
	switch arg {
	case "-h", "--help", "help":
		return true
	default:
		return false
	}
}

func normalizeArgs(args []string) []string {
	if len(args) == 0 {
		return args
	}

	flags := make([]string, 0, len(args))
	positionals := make([]string, 0, 1)

	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--" {
			positionals = append(positionals, args[i+1:]...)
			break
		}
		if strings.HasPrefix(arg, "-") {
			flags = append(flags, arg)
			if flagNeedsValue(arg) && i+1 < len(args) {
				flags = append(flags, args[i+1])
				i++
			}
			continue
		}
		positionals = append(positionals, arg)
	}

	return append(flags, positionals...)
}

func flagNeedsValue(arg string) bool {
	if strings.Contains(arg, "=") {
		return false
	}
	switch strings.TrimLeft(arg, "-") {
	case "source", "output", "config", "mode", "scanner", "extension", "ignore", "exclude",
		"library-namespace", "extension-point", "extension-dir", "hash-url-base", "hash-dir",
		"metadata-file", "jobs", "format":
		return true
	default:
		return false
	}
}

func visitedFlags(fs *flag.FlagSet) map[string]bool {
	visited := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) {
		visited[f.Name] = true
	})
	return visited
}
