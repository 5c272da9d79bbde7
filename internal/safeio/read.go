package safeio

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

var ErrEscapesRoot = errors.New("path escapes root")

// ReadRel reads relPath relative to rootDir. Paths that would leave rootDir
// are rejected before any filesystem access.
func ReadRel(rootDir, relPath string) ([]byte, error) {
	rel, err := cleanRel(relPath)
	if err != nil {
		return nil, err
	}
	root, err := os.OpenRoot(rootDir)
	if err != nil {
		return nil, fmt.Errorf("open root: %w", err)
	}
	defer root.Close()

	file, err := root.Open(rel)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return io.ReadAll(file)
}

// ReadUnder reads targetPath (absolute or relative to the working directory)
// only if it resolves under rootDir.
func ReadUnder(rootDir, targetPath string) ([]byte, error) {
	rootAbs, err := filepath.Abs(rootDir)
	if err != nil {
		return nil, fmt.Errorf("resolve root path: %w", err)
	}
	targetAbs, err := filepath.Abs(targetPath)
	if err != nil {
		return nil, fmt.Errorf("resolve target path: %w", err)
	}
	rel, err := filepath.Rel(rootAbs, targetAbs)
	if err != nil {
		return nil, fmt.Errorf("compute relative path: %w", err)
	}
	return ReadRel(rootAbs, rel)
}

// ReadFile reads the exact targetPath by opening its parent directory as a root.
func ReadFile(targetPath string) ([]byte, error) {
	targetAbs, err := filepath.Abs(targetPath)
	if err != nil {
		return nil, fmt.Errorf("resolve target path: %w", err)
	}
	return ReadRel(filepath.Dir(targetAbs), filepath.Base(targetAbs))
}

// WriteRel writes data to relPath under rootDir, creating parent directories.
func WriteRel(rootDir, relPath string, data []byte) error {
	rel, err := cleanRel(relPath)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(rootDir, 0o750); err != nil {
		return fmt.Errorf("create root: %w", err)
	}
	root, err := os.OpenRoot(rootDir)
	if err != nil {
		return fmt.Errorf("open root: %w", err)
	}
	defer root.Close()

	if dir := filepath.Dir(rel); dir != "." {
		if err := root.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	return root.WriteFile(rel, data, 0o644)
}

func cleanRel(relPath string) (string, error) {
	if filepath.IsAbs(relPath) {
		return "", fmt.Errorf("%w: %s", ErrEscapesRoot, relPath)
	}
	rel := filepath.Clean(relPath)
	if rel == ".." || strings.HasPrefix(rel, ".."+string(os.PathSeparator)) {
		return "", fmt.Errorf("%w: %s", ErrEscapesRoot, relPath)
	}
	if !fs.ValidPath(filepath.ToSlash(rel)) {
		return "", fmt.Errorf("invalid path: %s", relPath)
	}
	return rel, nil
}
