package safeio

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const unexpectedErrFmt = "unexpected error: %v"

func TestReadRelReadsNestedFile(t *testing.T) {
	rootDir := t.TempDir()
	targetPath := filepath.Join(rootDir, "library", "articulation.lua")
	if err := os.MkdirAll(filepath.Dir(targetPath), 0o755); err != nil {
		t.Fatalf("create parent dir: %v", err)
	}
	if err := os.WriteFile(targetPath, []byte("local articulation = {}"), 0o600); err != nil {
		t.Fatalf("write file: %v", err)
	}

	data, err := ReadRel(rootDir, filepath.Join("library", "articulation.lua"))
	if err != nil {
		t.Fatalf("ReadRel returned error: %v", err)
	}
	if got := string(data); got != "local articulation = {}" {
		t.Fatalf("unexpected content: got %q", got)
	}
}

func TestReadRelRejectsTraversal(t *testing.T) {
	rootDir := t.TempDir()
	for _, rel := range []string{"..", filepath.Join("..", "secret.lua"), filepath.Join("a", "..", "..", "b.lua")} {
		_, err := ReadRel(rootDir, rel)
		if !errors.Is(err, ErrEscapesRoot) {
			t.Fatalf("expected ErrEscapesRoot for %q, got %v", rel, err)
		}
	}
}

func TestReadRelMissingFileIsNotExist(t *testing.T) {
	_, err := ReadRel(t.TempDir(), "missing.lua")
	if !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("expected fs.ErrNotExist, got %v", err)
	}
}

func TestReadRelRejectsNonDirectoryRoot(t *testing.T) {
	rootDir := t.TempDir()
	rootFile := filepath.Join(rootDir, "root-file")
	if err := os.WriteFile(rootFile, []byte("not-a-dir"), 0o600); err != nil {
		t.Fatalf("write root file: %v", err)
	}

	_, err := ReadRel(rootFile, "x.lua")
	if err == nil {
		t.Fatal("expected error when root is not a directory")
	}
	if !strings.Contains(err.Error(), "open root") {
		t.Fatalf(unexpectedErrFmt, err)
	}
}

func TestReadUnderRejectsOutsidePath(t *testing.T) {
	parentDir := t.TempDir()
	rootDir := filepath.Join(parentDir, "root")
	if err := os.MkdirAll(rootDir, 0o755); err != nil {
		t.Fatalf("create root dir: %v", err)
	}
	outsidePath := filepath.Join(parentDir, "secret.txt")
	if err := os.WriteFile(outsidePath, []byte("secret"), 0o600); err != nil {
		t.Fatalf("write outside file: %v", err)
	}

	_, err := ReadUnder(rootDir, outsidePath)
	if !errors.Is(err, ErrEscapesRoot) {
		t.Fatalf(unexpectedErrFmt, err)
	}
}

func TestReadFileReadsExactPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	if err := os.WriteFile(path, []byte("jobs: 2\n"), 0o600); err != nil {
		t.Fatalf("write file: %v", err)
	}
	data, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile returned error: %v", err)
	}
	if string(data) != "jobs: 2\n" {
		t.Fatalf("unexpected content: %q", string(data))
	}
}

func TestWriteRelCreatesParents(t *testing.T) {
	rootDir := filepath.Join(t.TempDir(), "dist")
	if err := WriteRel(rootDir, filepath.Join("hash", "script.hash"), []byte("abc")); err != nil {
		t.Fatalf("WriteRel returned error: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(rootDir, "hash", "script.hash"))
	if err != nil {
		t.Fatalf("read written file: %v", err)
	}
	if string(data) != "abc" {
		t.Fatalf("unexpected content: %q", string(data))
	}
}

func TestWriteRelRejectsAbsolutePath(t *testing.T) {
	rootDir := t.TempDir()
	err := WriteRel(rootDir, filepath.Join(rootDir, "abs.lua"), []byte("x"))
	if !errors.Is(err, ErrEscapesRoot) {
		t.Fatalf("expected ErrEscapesRoot, got %v", err)
	}
}
