package app

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/ben-ranford/luapack/internal/metadata"
	"github.com/ben-ranford/luapack/internal/report"
	"github.com/ben-ranford/luapack/internal/workspace"
)

// executeMetadata writes the catalogue of every entry script that declares a
// plugindef. With the JSON format the catalogue itself is also returned.
func (a *App) executeMetadata(ctx context.Context, req Request) (string, error) {
	cfg := req.Config
	ws, entries, _, err := a.openWorkspace(cfg)
	if err != nil {
		return "", err
	}
	outputDir, err := workspace.NormalizePath(cfg.Output)
	if err != nil {
		return "", fmt.Errorf("resolve output path: %w", err)
	}

	items := make([]metadata.Metadata, 0, len(entries))
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		contents, err := ws.ReadEntry(entry)
		if err != nil {
			return "", err
		}
		meta, found := metadata.Parse(contents, entry)
		if !found {
			a.Logger.Warn("no plugindef, leaving script out of the catalogue", "file", entry)
			continue
		}
		items = append(items, meta)
	}

	payload, err := metadata.NewCatalogue(items).MarshalIndent()
	if err != nil {
		return "", fmt.Errorf("encode catalogue: %w", err)
	}
	output := workspace.Output{Dir: outputDir}
	if err := output.WriteFile(cfg.MetadataFile, payload); err != nil {
		return "", err
	}

	if req.Format == report.FormatJSON {
		return string(payload) + "\n", nil
	}
	return fmt.Sprintf("Wrote metadata for %d scripts to %s\n", len(items), filepath.Join(outputDir, cfg.MetadataFile)), nil
}
