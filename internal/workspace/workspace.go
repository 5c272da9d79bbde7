package workspace

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ben-ranford/luapack/internal/bundle"
	"github.com/ben-ranford/luapack/internal/safeio"
)

// Workspace is a source tree of Lua scripts. Entry scripts live directly in
// Root; library and extension modules live in subdirectories.
type Workspace struct {
	Root      string
	Extension string
}

func New(root, extension string) (*Workspace, error) {
	normalized, err := NormalizePath(root)
	if err != nil {
		return nil, fmt.Errorf("resolve source path: %w", err)
	}
	info, err := os.Stat(normalized)
	if err != nil {
		return nil, fmt.Errorf("open source dir: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("source path is not a directory: %s", normalized)
	}
	if extension == "" {
		extension = bundle.DefaultExtension
	}
	return &Workspace{Root: normalized, Extension: extension}, nil
}

func NormalizePath(path string) (string, error) {
	if path == "" {
		path = "."
	}
	return filepath.Abs(path)
}

// Reader resolves module paths relative to the workspace root.
func (w *Workspace) Reader() bundle.DirReader {
	return bundle.DirReader{Root: w.Root}
}

// Skipped is an entry script left out by an exclude pattern.
type Skipped struct {
	File    string
	Pattern string
}

// Entries lists the scripts directly under the root, sorted by name. Files
// matching scope are returned separately as skipped.
func (w *Workspace) Entries(scope *Scope) ([]string, []Skipped, error) {
	names, err := w.sourceFiles(".")
	if err != nil {
		return nil, nil, err
	}
	entries := make([]string, 0, len(names))
	skipped := make([]Skipped, 0)
	for _, name := range names {
		if excluded, pattern := scope.Excluded(name); excluded {
			skipped = append(skipped, Skipped{File: name, Pattern: pattern})
			continue
		}
		entries = append(entries, name)
	}
	return entries, skipped, nil
}

// ExtensionModules returns the module names of every script in dir, e.g.
// mixin.FCMControl for mixin/FCMControl.lua. A missing dir yields nothing.
func (w *Workspace) ExtensionModules(dir string) ([]string, error) {
	if strings.TrimSpace(dir) == "" {
		return []string{}, nil
	}
	names, err := w.sourceFiles(dir)
	if err != nil {
		return nil, err
	}
	prefix := strings.ReplaceAll(filepath.ToSlash(filepath.Clean(dir)), "/", ".")
	modules := make([]string, 0, len(names))
	for _, name := range names {
		modules = append(modules, prefix+"."+w.stem(name))
	}
	return modules, nil
}

// LibraryInputs reads every script of the library namespace directory.
func (w *Workspace) LibraryInputs(namespace string) ([]bundle.LibraryInput, error) {
	dir := filepath.Join(strings.Split(namespace, ".")...)
	names, err := w.sourceFiles(dir)
	if err != nil {
		return nil, err
	}
	inputs := make([]bundle.LibraryInput, 0, len(names))
	for _, name := range names {
		content, err := safeio.ReadRel(w.Root, filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("read library %s: %w", name, err)
		}
		inputs = append(inputs, bundle.LibraryInput{Name: w.stem(name), Contents: string(content)})
	}
	return inputs, nil
}

func (w *Workspace) ReadEntry(name string) (string, error) {
	content, err := safeio.ReadRel(w.Root, name)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", name, err)
	}
	return string(content), nil
}

func (w *Workspace) sourceFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(w.Root, dir))
	if err != nil {
		if os.IsNotExist(err) && dir != "." {
			return []string{}, nil
		}
		return nil, fmt.Errorf("list %s: %w", dir, err)
	}
	suffix := "." + w.Extension
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.Type().IsRegular() || !strings.HasSuffix(entry.Name(), suffix) {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)
	return names, nil
}

func (w *Workspace) stem(name string) string {
	return strings.TrimSuffix(name, "."+w.Extension)
}
