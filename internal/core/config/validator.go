package config

import (
	"fmt"
	"strings"

	"github.com/gobwas/glob"
)

// Validate re-checks cfg after callers changed it, e.g. from command-line flags.
func (c *Config) Validate() error {
	normalize(c)
	return validate(c)
}

func validate(cfg *Config) error {
	if cfg.TSConfig == "" {
		return fmt.Errorf("tsconfig must not be empty")
	}
	if err := validateFormat(cfg); err != nil {
		return err
	}
	if err := validateRewrite(cfg); err != nil {
		return err
	}
	if err := validateExclude(cfg); err != nil {
		return err
	}
	if cfg.History.IsEnabled() && cfg.History.Path == "" {
		return fmt.Errorf("history.path must not be empty when history is enabled")
	}
	if cfg.Tracing.Enabled && cfg.Tracing.Endpoint == "" {
		return fmt.Errorf("tracing.endpoint must not be empty when tracing.enabled=true")
	}
	return nil
}

func validateFormat(cfg *Config) error {
	if cfg.Format.IndentSize < 1 || cfg.Format.IndentSize > 16 {
		return fmt.Errorf("format.indent_size must be between 1 and 16, got %d", cfg.Format.IndentSize)
	}
	return nil
}

func validateRewrite(cfg *Config) error {
	switch cfg.Rewrite.ImportsConflict {
	case "merge", "append":
		return nil
	default:
		return fmt.Errorf("rewrite.imports_conflict must be one of: merge, append")
	}
}

func validateExclude(cfg *Config) error {
	for i, pattern := range cfg.Exclude.Dirs {
		if err := validateGlob(fmt.Sprintf("exclude.dirs[%d]", i), pattern); err != nil {
			return err
		}
	}
	for i, pattern := range cfg.Exclude.Files {
		if strings.Contains(pattern, "/") {
			return fmt.Errorf("exclude.files[%d] matches base names and must not contain '/': %q", i, pattern)
		}
		if err := validateGlob(fmt.Sprintf("exclude.files[%d]", i), pattern); err != nil {
			return err
		}
	}
	return nil
}

func validateGlob(ref, pattern string) error {
	if strings.TrimSpace(pattern) == "" {
		return fmt.Errorf("%s must not be empty", ref)
	}
	if _, err := glob.Compile(pattern, '/'); err != nil {
		return fmt.Errorf("%s is not a valid glob %q: %w", ref, pattern, err)
	}
	return nil
}
