package luacheck

import (
	"errors"
	"fmt"
	"strings"

	"github.com/yuin/gopher-lua/parse"
)

var ErrSyntax = errors.New("lua syntax error")

// Check parses source as a Lua chunk without running it.
func Check(name, source string) error {
	if _, err := parse.Parse(strings.NewReader(source), name); err != nil {
		return fmt.Errorf("%w: %v", ErrSyntax, err)
	}
	return nil
}
