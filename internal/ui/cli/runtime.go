package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/mattn/go-isatty"

	coreapp "ngstandalone/internal/core/app"
	"ngstandalone/internal/core/config"
	domainerrors "ngstandalone/internal/core/errors"
	"ngstandalone/internal/data/history"
	"ngstandalone/internal/shared/observability"
	"ngstandalone/internal/shared/util"
)

// streams are the process standard streams. interactive is true when both
// ends are terminals, which enables the prompt and the spinner.
type streams struct {
	in          io.Reader
	out         io.Writer
	errOut      io.Writer
	interactive bool
}

func Run(args []string) int {
	interactive := isTerminal(os.Stdin) && isTerminal(os.Stdout)
	return run(args, streams{in: os.Stdin, out: os.Stdout, errOut: os.Stderr, interactive: interactive})
}

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func run(args []string, s streams) int {
	opts, err := parseOptions(args, s.errOut)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	if opts.version {
		fmt.Fprintf(s.out, "ngstandalone v%s\n", versionString)
		return 0
	}

	cleanupLogs := configureLogging(s, opts.verbose)
	defer cleanupLogs()

	cfg, err := loadConfig(opts)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		fmt.Fprintln(s.errOut, errorStyle.Render(err.Error()))
		return configExitCode(err)
	}
	applyOverrides(opts, cfg)
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(s.errOut, errorStyle.Render(err.Error()))
		return 2
	}
	paths := config.ResolvePaths(cfg, filepath.Dir(opts.configPath))
	cfg.Metrics.Textfile = paths.MetricsTextfile

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tsconfig, err := chooseTSConfig(opts, s, paths.TSConfig)
	if err != nil {
		if errors.Is(err, errPromptCancelled) {
			return 1
		}
		slog.Error("failed to read tsconfig path", "error", err)
		return 1
	}

	store := openHistory(cfg, paths)
	if store != nil {
		defer store.Close()
	}

	if opts.history > 0 {
		return printHistory(s, store, tsconfig, opts.history)
	}

	if cfg.Tracing.Enabled {
		shutdown, err := observability.InitTracing(ctx, observability.TracingOptions{
			Endpoint: cfg.Tracing.Endpoint,
			Insecure: cfg.Tracing.Insecure,
			Version:  versionString,
		})
		if err != nil {
			slog.Warn("tracing disabled", "error", err)
		} else {
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(shutdownCtx); err != nil {
					slog.Warn("tracing shutdown failed", "error", err)
				}
			}()
		}
	}

	deps := coreapp.Deps{ProjectKey: filepath.ToSlash(filepath.Clean(tsconfig))}
	if store != nil {
		deps.History = store
	}
	migrator := coreapp.New(cfg, tsconfig, deps)

	if s.interactive {
		err = runInteractive(ctx, s.in, s.out, migrator.Phases())
	} else {
		err = runPlain(ctx, s.errOut, migrator.Phases())
	}
	result := migrator.Result()
	slog.Debug("run finished", "heap_mb", util.GetHeapAllocMB(), "duration", result.Duration)
	if err != nil {
		slog.Error("migration failed", "error", err)
		fmt.Fprintln(s.errOut, errorStyle.Render(err.Error()))
		return 1
	}

	if cfg.DryRun && result.Diff != "" {
		if opts.diffOut != "" {
			if err := util.WriteStringWithDirs(opts.diffOut, result.Diff, 0o644); err != nil {
				fmt.Fprintln(s.errOut, errorStyle.Render(err.Error()))
				return 1
			}
		} else {
			fmt.Fprint(s.out, result.Diff)
		}
	}
	fmt.Fprint(s.errOut, renderSummary(result))
	return 0
}

// configExitCode is 2 for a malformed or invalid config file, like flag
// misuse, and 1 when the file cannot be read at all.
func configExitCode(err error) int {
	if domainerrors.CodeOf(err) == domainerrors.CodeValidationError {
		return 2
	}
	return 1
}

func loadConfig(opts cliOptions) (*config.Config, error) {
	if opts.configExplicit {
		return config.Load(opts.configPath)
	}
	return config.LoadOptional(opts.configPath)
}

// chooseTSConfig picks the -project flag, then the prompt answer, then the
// configured path.
func chooseTSConfig(opts cliOptions, s streams, configured string) (string, error) {
	if opts.project != "" {
		return opts.project, nil
	}
	if !s.interactive || opts.noPrompt || opts.history > 0 {
		return configured, nil
	}
	return promptTSConfig(s.in, s.out, configured)
}

func openHistory(cfg *config.Config, paths config.ResolvedPaths) *history.Store {
	if !cfg.History.IsEnabled() {
		return nil
	}
	store, err := history.Open(paths.HistoryDB)
	if err != nil {
		if history.IsCorruptError(err) {
			slog.Warn("history database is corrupt; runs are not recorded", "path", paths.HistoryDB, "error", err)
		} else {
			slog.Warn("history unavailable", "path", paths.HistoryDB, "error", err)
		}
		return nil
	}
	return store
}

func printHistory(s streams, store *history.Store, tsconfig string, limit int) int {
	if store == nil {
		fmt.Fprintln(s.errOut, errorStyle.Render("history is disabled or unavailable"))
		return 1
	}
	runs, err := store.LoadRuns(filepath.ToSlash(filepath.Clean(tsconfig)), limit)
	if err != nil {
		slog.Error("failed to load history", "error", err)
		return 1
	}
	fmt.Fprint(s.out, renderHistory(runs))
	return 0
}

func configureLogging(s streams, verbose bool) func() {
	logLevel := slog.LevelInfo
	if verbose {
		logLevel = slog.LevelDebug
	}

	output := s.errOut
	closeFn := func() {}
	if s.interactive {
		// Keep logs away from the terminal the spinner draws on.
		logPath := resolveLogPath()
		if err := os.MkdirAll(filepath.Dir(logPath), 0o700); err != nil {
			fmt.Fprintf(s.errOut, "warning: failed to create log dir for %s: %v\n", logPath, err)
		} else if fi, err := os.Lstat(logPath); err == nil && (fi.Mode()&os.ModeSymlink) != 0 {
			fmt.Fprintf(s.errOut, "warning: refusing to write logs to symlink path %s\n", logPath)
		} else {
			f, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
			if err == nil {
				output = f
				closeFn = func() { _ = f.Close() }
			} else {
				fmt.Fprintf(s.errOut, "warning: failed to open log file %s: %v\n", logPath, err)
			}
		}
	} else if !verbose {
		logLevel = slog.LevelWarn
	}

	logger := slog.New(slog.NewTextHandler(output, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)
	return closeFn
}

func resolveLogPath() string {
	if xdg := os.Getenv("XDG_STATE_HOME"); xdg != "" {
		return filepath.Join(xdg, "ngstandalone", "ngstandalone.log")
	}

	home, err := os.UserHomeDir()
	if err == nil && home != "" {
		return filepath.Join(home, ".local", "state", "ngstandalone", "ngstandalone.log")
	}

	return "ngstandalone.log"
}
