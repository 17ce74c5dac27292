package config

import (
	"path/filepath"
	"strings"
)

// ResolvedPaths holds the file locations of a config made absolute against
// the directory of the config file.
type ResolvedPaths struct {
	TSConfig        string
	HistoryDB       string
	MetricsTextfile string
}

func ResolvePaths(cfg *Config, baseDir string) ResolvedPaths {
	resolved := ResolvedPaths{
		TSConfig:  ResolveRelative(baseDir, cfg.TSConfig),
		HistoryDB: ResolveRelative(baseDir, cfg.History.Path),
	}
	if cfg.Metrics.Textfile != "" {
		resolved.MetricsTextfile = ResolveRelative(baseDir, cfg.Metrics.Textfile)
	}
	return resolved
}

func ResolveRelative(base, value string) string {
	raw := strings.TrimSpace(value)
	if raw == "" {
		return filepath.Clean(base)
	}
	if filepath.IsAbs(raw) {
		return filepath.Clean(raw)
	}
	return filepath.Clean(filepath.Join(base, raw))
}
