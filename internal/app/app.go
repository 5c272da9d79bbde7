package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"

	"github.com/ben-ranford/luapack/internal/metadata"
	"github.com/ben-ranford/luapack/internal/report"
	"github.com/ben-ranford/luapack/internal/safeio"
	"github.com/ben-ranford/luapack/internal/ui"
)

var (
	ErrUnknownMode       = errors.New("unknown mode")
	ErrUnresolvedImports = errors.New("unresolved imports")
	ErrSyntaxCheckFailed = errors.New("bundled output failed the syntax check")
	ErrNoPluginDef       = errors.New("no plugindef function found")
)

type App struct {
	Logger    *log.Logger
	Formatter report.Formatter
	Info      *ui.Info
	Now       func() time.Time
}

func New(logger *log.Logger) *App {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &App{
		Logger:    logger,
		Formatter: report.NewFormatter(),
		Info:      ui.NewInfo(),
		Now:       time.Now,
	}
}

// Execute runs one command. A failed bundle run returns its formatted report
// together with the error so callers can still print it.
func (a *App) Execute(ctx context.Context, req Request) (string, error) {
	switch req.Mode {
	case ModeBundle:
		return a.executeBundle(ctx, req)
	case ModeMetadata:
		return a.executeMetadata(ctx, req)
	case ModeInfo:
		return a.executeInfo(req)
	default:
		return "", ErrUnknownMode
	}
}

func (a *App) executeInfo(req Request) (string, error) {
	contents, err := safeio.ReadFile(req.InfoFile)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", req.InfoFile, err)
	}
	meta, found := metadata.Parse(string(contents), filepath.Base(req.InfoFile))
	if !found {
		return "", fmt.Errorf("%w in %s", ErrNoPluginDef, req.InfoFile)
	}
	return a.Info.Render(meta)
}
