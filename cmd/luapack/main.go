package main

import (
	"context"
	"io"
	"os"

	"github.com/charmbracelet/log"

	"github.com/ben-ranford/luapack/internal/app"
	"github.com/ben-ranford/luapack/internal/cli"
)

var exitFunc = os.Exit

func run(args []string, out io.Writer, errOut io.Writer) int {
	logger := log.NewWithOptions(errOut, log.Options{Prefix: "luapack"})
	runner := app.New(logger)
	commandLine := cli.New(runner, out, errOut)
	commandLine.Logger = logger
	return commandLine.Run(context.Background(), args)
}

func main() {
	exitFunc(run(os.Args[1:], os.Stdout, os.Stderr))
}
