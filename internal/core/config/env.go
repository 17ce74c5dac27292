package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
)

// ApplyEnvOverrides applies environment variable overrides to the configuration.
// Pattern: NGSTANDALONE_[SECTION]_[KEY] (e.g., NGSTANDALONE_HISTORY_PATH).
func ApplyEnvOverrides(cfg *Config) {
	setEnvString(&cfg.TSConfig, "NGSTANDALONE_TSCONFIG")
	setEnvBool(&cfg.DryRun, "NGSTANDALONE_DRY_RUN")

	setEnvInt(&cfg.Format.IndentSize, "NGSTANDALONE_FORMAT_INDENT_SIZE")
	setEnvString(&cfg.Rewrite.ImportsConflict, "NGSTANDALONE_REWRITE_IMPORTS_CONFLICT")

	setEnvBoolPtr(&cfg.History.Enabled, "NGSTANDALONE_HISTORY_ENABLED")
	setEnvString(&cfg.History.Path, "NGSTANDALONE_HISTORY_PATH")

	setEnvString(&cfg.Metrics.Textfile, "NGSTANDALONE_METRICS_TEXTFILE")

	setEnvBool(&cfg.Tracing.Enabled, "NGSTANDALONE_TRACING_ENABLED")
	setEnvString(&cfg.Tracing.Endpoint, "NGSTANDALONE_TRACING_ENDPOINT")
	setEnvBool(&cfg.Tracing.Insecure, "NGSTANDALONE_TRACING_INSECURE")
}

func setEnvString(target *string, key string) {
	if val, ok := os.LookupEnv(key); ok {
		slog.Debug("applying env override", "key", key, "value", val)
		*target = val
	}
}

func setEnvInt(target *int, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(val); err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = i
		}
	}
}

func setEnvBool(target *bool, key string) {
	if val, ok := os.LookupEnv(key); ok {
		b, err := strconv.ParseBool(strings.ToLower(val))
		if err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = b
		}
	}
}

func setEnvBoolPtr(target **bool, key string) {
	if val, ok := os.LookupEnv(key); ok {
		b, err := strconv.ParseBool(strings.ToLower(val))
		if err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = &b
		}
	}
}
