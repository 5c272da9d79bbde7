package bundle

import (
	"fmt"
	"strings"
)

const wrapIndent = "    "

var keyEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

// Wrap registers body as a lazily invoked factory under name in the
// __imports table. An existing registration is kept.
func Wrap(name, body string) string {
	lines := strings.Split(body, "\n")
	output := make([]string, 0, len(lines)+2)
	key := keyEscaper.Replace(name)
	output = append(output, fmt.Sprintf(`__imports["%s"] = __imports["%s"] or function()`, key, key))
	for _, line := range lines {
		if line == "" {
			output = append(output, line)
			continue
		}
		output = append(output, wrapIndent+line)
	}
	output = append(output, "end")
	return strings.Join(output, "\n")
}
