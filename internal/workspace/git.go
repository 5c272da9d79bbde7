package workspace

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

var ErrGitUnavailable = errors.New("git executable not found")

var gitCandidates = []string{"/usr/bin/git", "/bin/git"}

const gitSafePath = "PATH=/usr/bin:/bin:/usr/sbin:/sbin"

// SourceRevision returns the HEAD commit of the git checkout containing
// path. Callers treat any error as "not under version control".
func SourceRevision(path string) (string, error) {
	normalized, err := NormalizePath(path)
	if err != nil {
		return "", err
	}
	gitPath, err := gitBinary()
	if err != nil {
		return "", err
	}
	// #nosec G204 -- the binary comes from a fixed list and the only argument is an absolute directory.
	cmd := exec.Command(gitPath, "-C", normalized, "rev-parse", "--verify", "HEAD")
	cmd.Env = gitEnv(os.Environ())
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	output, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("resolve source revision: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return strings.TrimSpace(string(output)), nil
}

func gitBinary() (string, error) {
	for _, candidate := range gitCandidates {
		info, err := os.Stat(candidate)
		if err != nil || info.IsDir() || info.Mode()&0o111 == 0 {
			continue
		}
		return candidate, nil
	}
	return "", ErrGitUnavailable
}

// gitEnv drops variables that would point git at another repository and
// pins PATH.
func gitEnv(environ []string) []string {
	filtered := make([]string, 0, len(environ)+1)
	for _, entry := range environ {
		name, _, _ := strings.Cut(entry, "=")
		switch name {
		case "GIT_DIR", "GIT_WORK_TREE", "GIT_INDEX_FILE", "PATH":
			continue
		}
		filtered = append(filtered, entry)
	}
	return append(filtered, gitSafePath)
}
