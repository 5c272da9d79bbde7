package workspace

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/ben-ranford/luapack/internal/safeio"
)

const hashExtension = ".hash"

// Output writes bundled scripts and their hash files under Dir.
type Output struct {
	Dir     string
	HashDir string
}

func (o Output) WriteScript(name, text string) (string, error) {
	if err := safeio.WriteRel(o.Dir, name, []byte(text)); err != nil {
		return "", fmt.Errorf("write %s: %w", name, err)
	}
	return name, nil
}

// WriteHash stores the sha256 of text as <stem>.hash. It is a no-op when no
// hash dir is configured.
func (o Output) WriteHash(stem, text string) (string, error) {
	if o.HashDir == "" {
		return "", nil
	}
	name := stem + hashExtension
	if err := safeio.WriteRel(o.HashDir, name, []byte(Hash(text))); err != nil {
		return "", fmt.Errorf("write hash %s: %w", name, err)
	}
	return name, nil
}

func (o Output) WriteFile(name string, data []byte) error {
	if err := safeio.WriteRel(o.Dir, name, data); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}

// Hash is the hex sha256 digest of text.
func Hash(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
