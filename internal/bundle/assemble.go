package bundle

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/charmbracelet/log"
)

// DefaultExtensionPoint is the module whose inclusion pulls in the extra
// modules given to the assembler.
const DefaultExtensionPoint = "library.mixin"

const blockSeparator = "\n\n"

type Options struct {
	Reader    Reader
	Scanner   Scanner
	Extension string
	// ExtensionPoint names the module that, once bundled, also queues Extras.
	// Empty disables the behaviour.
	ExtensionPoint string
	Extras         []string
	Logger         *log.Logger
}

// UnresolvedImport is a require that could not be satisfied. File is the
// module that asked for it.
type UnresolvedImport struct {
	File   string `json:"file"`
	Import string `json:"import"`
}

type Result struct {
	Text       string
	Bundled    []string
	Unresolved []UnresolvedImport
}

func (r Result) Failed() bool {
	return len(r.Unresolved) > 0
}

type Assembler struct {
	opts Options
}

func NewAssembler(opts Options) *Assembler {
	if opts.Scanner == nil {
		opts.Scanner = NewPatternScanner(nil)
	}
	if opts.Extension == "" {
		opts.Extension = DefaultExtension
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	return &Assembler{opts: opts}
}

// Bundle reads the entry file at path (relative to the reader's root) and
// returns it with every resolvable dependency wrapped in front of it. Only a
// failure to read the entry itself is returned as an error.
func (a *Assembler) Bundle(path string) (Result, error) {
	contents, err := readModule(a.opts.Reader, path)
	if err != nil {
		return Result{}, fmt.Errorf("read entry %s: %w", path, err)
	}
	return a.BundleSource(path, contents), nil
}

type pendingImport struct {
	name      string
	requester string
}

// BundleSource bundles contents as if it had been read from name.
//
// Imports are resolved depth first from a stack, so siblings are visited in
// reverse declaration order. Blocks are emitted in reverse discovery order:
// the shim first (when anything was bundled), the entry body last.
func (a *Assembler) BundleSource(name, contents string) Result {
	cache := NewImportCache(a.opts.Scanner, a.opts.Extension)
	result := Result{Bundled: make([]string, 0)}

	blocks := []string{contents}
	pending := make([]pendingImport, 0)
	pending = pushImports(pending, a.opts.Scanner.Scan(contents), name)

	visited := make(map[string]struct{})
	reported := make(map[UnresolvedImport]struct{})
	extensionPoint := ""
	if a.opts.ExtensionPoint != "" {
		extensionPoint = ResolveModule(a.opts.ExtensionPoint, a.opts.Extension)
	}

	for len(pending) > 0 {
		next := pending[len(pending)-1]
		pending = pending[:len(pending)-1]
		if _, ok := visited[next.name]; ok {
			continue
		}

		if !cache.Fetch(next.name, a.opts.Reader) {
			unresolved := UnresolvedImport{File: next.requester, Import: next.name}
			if _, ok := reported[unresolved]; ok {
				continue
			}
			reported[unresolved] = struct{}{}
			result.Unresolved = append(result.Unresolved, unresolved)
			a.opts.Logger.Error("unresolvable import", "file", next.requester, "import", next.name, "err", cache.Err(next.name))
			continue
		}

		visited[next.name] = struct{}{}
		record, _ := cache.Record(next.name)
		pending = pushImports(pending, record.Dependencies, next.name)
		blocks = append(blocks, record.Wrapped)
		result.Bundled = append(result.Bundled, next.name)
		a.opts.Logger.Debug("bundled module", "file", name, "module", next.name)

		if extensionPoint != "" && ResolveModule(next.name, a.opts.Extension) == extensionPoint {
			pending = pushImports(pending, a.opts.Extras, next.name)
		}
	}

	if len(blocks) > 1 {
		blocks = append(blocks, RequireShim())
	}
	slices.Reverse(blocks)
	result.Text = strings.Join(blocks, blockSeparator)
	return result
}

func pushImports(pending []pendingImport, names []string, requester string) []pendingImport {
	for _, name := range names {
		pending = append(pending, pendingImport{name: name, requester: requester})
	}
	return pending
}
