package luasrc

import (
	"regexp"
	"strings"
)

var (
	blockCommentPattern = regexp.MustCompile(`(?s)--\[\[.*?\]\]`)
	blankRunPattern     = regexp.MustCompile(`\n\n+`)
	trailingSpaces      = regexp.MustCompile(`(?m) +$`)
)

// StripComments removes block comments, then line comments, then squeezes
// runs of newlines and trailing spaces. A `--` directly after a double quote
// is kept so string literals such as "--flag" survive.
func StripComments(contents string) string {
	contents = blockCommentPattern.ReplaceAllLiteralString(contents, "")

	lines := strings.Split(contents, "\n")
	for i, line := range lines {
		lines[i] = stripLineComment(line)
	}
	contents = strings.Join(lines, "\n")

	contents = blankRunPattern.ReplaceAllLiteralString(contents, "\n")
	return trailingSpaces.ReplaceAllLiteralString(contents, "")
}

func stripLineComment(line string) string {
	for i := 0; i+1 < len(line); i++ {
		if line[i] != '-' || line[i+1] != '-' {
			continue
		}
		if i > 0 && line[i-1] == '"' {
			continue
		}
		return line[:i]
	}
	return line
}
