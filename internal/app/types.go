package app

import (
	"github.com/ben-ranford/luapack/internal/config"
	"github.com/ben-ranford/luapack/internal/report"
)

type Mode string

const (
	ModeBundle   Mode = "bundle"
	ModeMetadata Mode = "metadata"
	ModeInfo     Mode = "info"
)

type Request struct {
	Mode   Mode
	Config config.Values
	Format report.Format
	// ConfigPath is the config file the values came from, if any.
	ConfigPath string
	// InfoFile is the script shown by ModeInfo.
	InfoFile string
	Verbose  bool
}

func DefaultRequest() Request {
	return Request{
		Mode:   ModeBundle,
		Config: config.Defaults(),
		Format: report.FormatTable,
	}
}
