package bundle

import (
	"path/filepath"
	"strings"
)

// DefaultExtension is the source file extension, without the dot.
const DefaultExtension = "lua"

// ResolveModule maps a dotted module name to a relative file path. A trailing
// segment equal to ext is dropped so "foo.lua" and "foo" resolve alike.
func ResolveModule(name, ext string) string {
	if ext == "" {
		ext = DefaultExtension
	}
	segments := strings.Split(name, ".")
	if segments[len(segments)-1] == ext {
		segments = segments[:len(segments)-1]
	}
	return filepath.Join(segments...) + "." + ext
}
