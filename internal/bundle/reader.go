package bundle

import (
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/ben-ranford/luapack/internal/safeio"
)

// Reader loads the contents of a module file given its path relative to the
// source root. A missing file is reported as an error wrapping fs.ErrNotExist.
type Reader interface {
	Read(path string) (string, error)
}

// ReaderFunc adapts a function to Reader.
type ReaderFunc func(path string) (string, error)

func (f ReaderFunc) Read(path string) (string, error) {
	return f(path)
}

// DirReader reads modules from a source directory. Reads cannot escape it.
type DirReader struct {
	Root string
}

func (r DirReader) Read(path string) (string, error) {
	data, err := safeio.ReadRel(r.Root, path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// MapReader serves modules from memory, keyed by slash-separated path.
type MapReader map[string]string

func (m MapReader) Read(path string) (string, error) {
	contents, ok := m[filepath.ToSlash(path)]
	if !ok {
		return "", fmt.Errorf("read %s: %w", path, fs.ErrNotExist)
	}
	return contents, nil
}
