package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/ben-ranford/luapack/internal/safeio"
)

const (
	readConfigFileErrFmt = "read config file %s: %w"
	parseConfigErrFmt    = "parse config file %s: %w"
)

var configFileNames = []string{".luapack.yml", ".luapack.yaml", "luapack.json", "luapack.toml"}

type LoadResult struct {
	Overrides  Overrides
	Resolved   Values
	ConfigPath string
}

// Load finds and parses the config file for dir. An explicit path wins over
// discovery; when neither yields a file the defaults are returned.
func Load(dir, explicitPath string) (LoadResult, error) {
	dirAbs, err := filepath.Abs(dir)
	if err != nil {
		return LoadResult{}, fmt.Errorf("resolve config dir: %w", err)
	}
	explicitPath = strings.TrimSpace(explicitPath)

	configPath, found, err := resolveConfigPath(dirAbs, explicitPath)
	if err != nil {
		return LoadResult{}, err
	}
	if !found {
		return LoadResult{Resolved: Defaults()}, nil
	}

	data, err := readConfigFile(dirAbs, configPath)
	if err != nil {
		return LoadResult{}, fmt.Errorf(readConfigFileErrFmt, configPath, err)
	}
	cfg, err := parseConfig(configPath, data)
	if err != nil {
		return LoadResult{}, fmt.Errorf(parseConfigErrFmt, configPath, err)
	}

	overrides := cfg.toOverrides()
	resolved := overrides.Apply(Defaults())
	if err := resolved.Validate(); err != nil {
		return LoadResult{}, fmt.Errorf(parseConfigErrFmt, configPath, err)
	}
	return LoadResult{Overrides: overrides, Resolved: resolved, ConfigPath: configPath}, nil
}

func resolveConfigPath(dir, explicitPath string) (string, bool, error) {
	if explicitPath != "" {
		candidate := explicitPath
		if !filepath.IsAbs(candidate) {
			candidate = filepath.Join(dir, candidate)
		}
		candidate = filepath.Clean(candidate)
		if _, err := os.Stat(candidate); err != nil {
			if os.IsNotExist(err) {
				return "", false, fmt.Errorf("config file not found: %s", candidate)
			}
			return "", false, fmt.Errorf(readConfigFileErrFmt, candidate, err)
		}
		return candidate, true, nil
	}

	for _, name := range configFileNames {
		candidate := filepath.Join(dir, name)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !os.IsNotExist(err) {
			return "", false, fmt.Errorf(readConfigFileErrFmt, candidate, err)
		}
	}
	return "", false, nil
}

func readConfigFile(dir, path string) ([]byte, error) {
	if isPathUnderRoot(dir, path) {
		return safeio.ReadUnder(dir, path)
	}
	return safeio.ReadFile(path)
}

func parseConfig(path string, data []byte) (rawConfig, error) {
	var cfg rawConfig
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		decoder := json.NewDecoder(bytes.NewReader(data))
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return rawConfig{}, fmt.Errorf("invalid JSON config: %w", err)
		}
		if decoder.More() {
			return rawConfig{}, fmt.Errorf("invalid JSON config: multiple JSON values")
		}
	case ".toml":
		decoder := toml.NewDecoder(bytes.NewReader(data))
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return rawConfig{}, fmt.Errorf("invalid TOML config: %w", err)
		}
	default:
		if len(bytes.TrimSpace(data)) == 0 {
			return cfg, nil
		}
		decoder := yaml.NewDecoder(bytes.NewReader(data))
		decoder.KnownFields(true)
		if err := decoder.Decode(&cfg); err != nil {
			return rawConfig{}, fmt.Errorf("invalid YAML config: %w", err)
		}
	}
	return cfg, nil
}

type rawConfig struct {
	Source           *string  `yaml:"source" json:"source" toml:"source"`
	Output           *string  `yaml:"output" json:"output" toml:"output"`
	Extension        *string  `yaml:"extension" json:"extension" toml:"extension"`
	Ignore           []string `yaml:"ignore" json:"ignore" toml:"ignore"`
	Mode             *string  `yaml:"mode" json:"mode" toml:"mode"`
	Scanner          *string  `yaml:"scanner" json:"scanner" toml:"scanner"`
	LibraryNamespace *string  `yaml:"libraryNamespace" json:"libraryNamespace" toml:"libraryNamespace"`
	ExtensionPoint   *string  `yaml:"extensionPoint" json:"extensionPoint" toml:"extensionPoint"`
	ExtensionDir     *string  `yaml:"extensionDir" json:"extensionDir" toml:"extensionDir"`
	Exclude          []string `yaml:"exclude" json:"exclude" toml:"exclude"`
	StripComments    *bool    `yaml:"stripComments" json:"stripComments" toml:"stripComments"`
	InjectExtras     *bool    `yaml:"injectExtras" json:"injectExtras" toml:"injectExtras"`
	HashURLBase      *string  `yaml:"hashURLBase" json:"hashURLBase" toml:"hashURLBase"`
	HashDir          *string  `yaml:"hashDir" json:"hashDir" toml:"hashDir"`
	MetadataFile     *string  `yaml:"metadataFile" json:"metadataFile" toml:"metadataFile"`
	Check            *bool    `yaml:"check" json:"check" toml:"check"`
	Jobs             *int     `yaml:"jobs" json:"jobs" toml:"jobs"`
}

func (c *rawConfig) toOverrides() Overrides {
	return Overrides{
		Source:           c.Source,
		Output:           c.Output,
		Extension:        c.Extension,
		Ignore:           c.Ignore,
		Mode:             c.Mode,
		Scanner:          c.Scanner,
		LibraryNamespace: c.LibraryNamespace,
		ExtensionPoint:   c.ExtensionPoint,
		ExtensionDir:     c.ExtensionDir,
		Exclude:          c.Exclude,
		StripComments:    c.StripComments,
		InjectExtras:     c.InjectExtras,
		HashURLBase:      c.HashURLBase,
		HashDir:          c.HashDir,
		MetadataFile:     c.MetadataFile,
		Check:            c.Check,
		Jobs:             c.Jobs,
	}
}

func isPathUnderRoot(rootPath, targetPath string) bool {
	relative, err := filepath.Rel(rootPath, targetPath)
	if err != nil {
		return false
	}
	return relative != ".." && !strings.HasPrefix(relative, ".."+string(os.PathSeparator))
}
