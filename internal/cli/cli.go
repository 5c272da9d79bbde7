package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/ben-ranford/luapack/internal/app"
)

type Runner interface {
	Execute(ctx context.Context, req app.Request) (string, error)
}

type CLI struct {
	Runner Runner
	Out    io.Writer
	Err    io.Writer
	// Logger is switched to debug level by --verbose. May be nil.
	Logger *log.Logger
}

func New(runner Runner, out io.Writer, errOut io.Writer) *CLI {
	return &CLI{
		Runner: runner,
		Out:    out,
		Err:    errOut,
	}
}

func (c *CLI) Run(ctx context.Context, args []string) int {
	req, err := ParseArgs(args)
	if err != nil {
		if errors.Is(err, ErrHelpRequested) {
			if _, writeErr := fmt.Fprint(c.Out, Usage()); writeErr != nil {
				return 1
			}
			return 0
		}
		if _, writeErr := fmt.Fprintf(c.Err, "error: %v\n\n", err); writeErr != nil {
			return 1
		}
		if _, writeErr := fmt.Fprint(c.Err, Usage()); writeErr != nil {
			return 1
		}
		return 2
	}
	if req.Verbose && c.Logger != nil {
		c.Logger.SetLevel(log.DebugLevel)
	}

	output, runErr := c.Runner.Execute(ctx, req)
	if output != "" {
		if !strings.HasSuffix(output, "\n") {
			output += "\n"
		}
		if _, writeErr := fmt.Fprint(c.Out, output); writeErr != nil {
			return 1
		}
	}

	if runErr != nil {
		fmt.Fprintln(c.Err, runErr.Error())
		return 1
	}
	return 0
}
