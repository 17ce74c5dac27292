package config

import (
	"os"
	"strings"

	"github.com/BurntSushi/toml"

	"ngstandalone/internal/core/errors"
)

// DefaultPath is the config file looked up in the working directory when no
// -config flag is given.
const DefaultPath = "ngstandalone.toml"

type Config struct {
	TSConfig string  `toml:"tsconfig"`
	DryRun   bool    `toml:"dry_run"`
	Exclude  Exclude `toml:"exclude"`
	Format   Format  `toml:"format"`
	Rewrite  Rewrite `toml:"rewrite"`
	History  History `toml:"history"`
	Metrics  Metrics `toml:"metrics"`
	Tracing  Tracing `toml:"tracing"`
}

// Exclude holds glob patterns on top of the tsconfig exclude list. Dirs match
// directory paths, Files match base names.
type Exclude struct {
	Dirs  []string `toml:"dirs"`
	Files []string `toml:"files"`
}

type Format struct {
	IndentSize int `toml:"indent_size"`
}

type Rewrite struct {
	// ImportsConflict is "merge" or "append".
	ImportsConflict string `toml:"imports_conflict"`
}

type History struct {
	Enabled *bool  `toml:"enabled"`
	Path    string `toml:"path"`
}

type Metrics struct {
	Textfile string `toml:"textfile"`
}

type Tracing struct {
	Enabled  bool   `toml:"enabled"`
	Endpoint string `toml:"endpoint"`
	Insecure bool   `toml:"insecure"`
}

func (h History) IsEnabled() bool {
	if h.Enabled == nil {
		return true
	}
	return *h.Enabled
}

// Default returns the configuration used when no config file exists.
func Default() *Config {
	var cfg Config
	applyDefaults(&cfg, nil)
	return &cfg
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.AddContext(errors.Wrap(err, errors.CodeNotFound, "config file not found"), errors.CtxPath, path)
		}
		return nil, errors.AddContext(errors.Wrap(err, errors.CodeIO, "read config"), errors.CtxPath, path)
	}

	var cfg Config
	md, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return nil, errors.AddContext(errors.Wrap(err, errors.CodeValidationError, "decode config"), errors.CtxPath, path)
	}

	applyDefaults(&cfg, &md)
	ApplyEnvOverrides(&cfg)
	normalize(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, errors.AddContext(errors.Wrap(err, errors.CodeValidationError, "invalid config"), errors.CtxPath, path)
	}
	return &cfg, nil
}

// LoadOptional behaves like Load but falls back to Default when path does
// not exist.
func LoadOptional(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.IsCode(err, errors.CodeNotFound) {
		cfg = Default()
		ApplyEnvOverrides(cfg)
		normalize(cfg)
		if err := validate(cfg); err != nil {
			return nil, errors.Wrap(err, errors.CodeValidationError, "invalid environment overrides")
		}
		return cfg, nil
	}
	return cfg, err
}

// applyDefaults fills the keys the file left out. Keys written in the file
// are kept even when blank, so validation can reject them.
func applyDefaults(cfg *Config, md *toml.MetaData) {
	unset := func(key ...string) bool { return md == nil || !md.IsDefined(key...) }

	if unset("tsconfig") && cfg.TSConfig == "" {
		cfg.TSConfig = "tsconfig.json"
	}
	if unset("format", "indent_size") && cfg.Format.IndentSize == 0 {
		cfg.Format.IndentSize = 2
	}
	if unset("rewrite", "imports_conflict") && cfg.Rewrite.ImportsConflict == "" {
		cfg.Rewrite.ImportsConflict = "merge"
	}
	if unset("history", "path") && cfg.History.Path == "" {
		cfg.History.Path = ".ngstandalone/history.db"
	}
	if unset("tracing", "endpoint") && cfg.Tracing.Endpoint == "" {
		cfg.Tracing.Endpoint = "localhost:4317"
	}
}

func normalize(cfg *Config) {
	cfg.TSConfig = strings.TrimSpace(cfg.TSConfig)
	cfg.Rewrite.ImportsConflict = strings.ToLower(strings.TrimSpace(cfg.Rewrite.ImportsConflict))
	cfg.History.Path = strings.TrimSpace(cfg.History.Path)
	cfg.Metrics.Textfile = strings.TrimSpace(cfg.Metrics.Textfile)
	cfg.Tracing.Endpoint = strings.TrimSpace(cfg.Tracing.Endpoint)
}
