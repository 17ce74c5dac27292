package source

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"path"
	"strings"

	"github.com/tailscale/hujson"

	"ngstandalone/internal/core/errors"
)

// TSConfig is the part of a resolved tsconfig.json the migration needs.
// All paths are absolute or relative to the working directory, never to the
// config file.
type TSConfig struct {
	Path string
	Dir  string

	Files   []string
	Include []string
	Exclude []string

	BaseURL   string
	Paths     map[string][]string
	PathsBase string
	OutDir    string
}

type rawTSConfig struct {
	Extends         json.RawMessage `json:"extends"`
	Files           *[]string       `json:"files"`
	Include         *[]string       `json:"include"`
	Exclude         *[]string       `json:"exclude"`
	CompilerOptions struct {
		BaseURL *string             `json:"baseUrl"`
		Paths   map[string][]string `json:"paths"`
		OutDir  *string             `json:"outDir"`
	} `json:"compilerOptions"`
}

// LoadTSConfig reads the config at configPath and merges its extends chain.
func LoadTSConfig(storage Storage, configPath string) (*TSConfig, error) {
	return loadTSConfig(storage, cleanPath(configPath), map[string]bool{})
}

func loadTSConfig(storage Storage, configPath string, seen map[string]bool) (*TSConfig, error) {
	if seen[configPath] {
		return nil, errors.AddContext(errors.New(errors.CodeValidationError, "circular tsconfig extends"), errors.CtxPath, configPath)
	}
	seen[configPath] = true

	content, err := storage.ReadFile(configPath)
	if err != nil {
		return nil, errors.AddContext(errors.Wrap(err, errors.CodeNotFound, "read tsconfig"), errors.CtxPath, configPath)
	}
	var raw rawTSConfig
	if err := decodeJSONC(content, &raw); err != nil {
		return nil, errors.AddContext(errors.Wrap(err, errors.CodeValidationError, "parse tsconfig"), errors.CtxPath, configPath)
	}

	dir := path.Dir(configPath)
	cfg := &TSConfig{}
	for _, parent := range extendsList(raw.Extends) {
		if !isRelative(parent) && !path.IsAbs(parent) {
			slog.Warn("ignoring package tsconfig extends", "path", configPath, "extends", parent)
			continue
		}
		parentPath := path.Join(dir, parent)
		if !strings.HasSuffix(parentPath, ".json") {
			if _, err := storage.ReadFile(parentPath); err != nil {
				parentPath += ".json"
			}
		}
		base, err := loadTSConfig(storage, parentPath, seen)
		if err != nil {
			return nil, err
		}
		cfg.inherit(base)
	}

	cfg.Path = configPath
	cfg.Dir = dir
	if raw.Files != nil {
		cfg.Files = joinAll(dir, *raw.Files)
	}
	if raw.Include != nil {
		cfg.Include = joinAll(dir, *raw.Include)
	}
	if raw.Exclude != nil {
		cfg.Exclude = joinAll(dir, *raw.Exclude)
	}
	opts := raw.CompilerOptions
	if opts.BaseURL != nil {
		cfg.BaseURL = cleanPath(path.Join(dir, *opts.BaseURL))
	}
	if opts.Paths != nil {
		cfg.Paths = opts.Paths
		cfg.PathsBase = dir
	}
	if opts.OutDir != nil {
		cfg.OutDir = cleanPath(path.Join(dir, *opts.OutDir))
	}
	if cfg.BaseURL != "" && opts.Paths != nil {
		cfg.PathsBase = cfg.BaseURL
	}
	return cfg, nil
}

// inherit copies the settings of an extended config. Later parents win.
func (c *TSConfig) inherit(base *TSConfig) {
	if base.Files != nil {
		c.Files = base.Files
	}
	if base.Include != nil {
		c.Include = base.Include
	}
	if base.Exclude != nil {
		c.Exclude = base.Exclude
	}
	if base.BaseURL != "" {
		c.BaseURL = base.BaseURL
	}
	if base.Paths != nil {
		c.Paths = base.Paths
		c.PathsBase = base.PathsBase
	}
	if base.OutDir != "" {
		c.OutDir = base.OutDir
	}
}

func extendsList(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return nil
	}
	var single string
	if err := json.Unmarshal(raw, &single); err == nil {
		return []string{single}
	}
	var many []string
	if err := json.Unmarshal(raw, &many); err == nil {
		return many
	}
	return nil
}

func joinAll(dir string, entries []string) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, cleanPath(path.Join(dir, e)))
	}
	return out
}

// decodeJSONC decodes a tsconfig-style document: JSON with comments and
// trailing commas.
func decodeJSONC(content []byte, v any) error {
	std, err := hujson.Standardize(append([]byte(nil), content...))
	if err != nil {
		return err
	}
	return json.Unmarshal(std, v)
}

func (c *TSConfig) String() string {
	return fmt.Sprintf("%s (include=%v exclude=%v files=%d)", c.Path, c.Include, c.Exclude, len(c.Files))
}
