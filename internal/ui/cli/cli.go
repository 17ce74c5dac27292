package cli

import (
	"flag"
	"io"

	"ngstandalone/internal/core/config"
)

const versionString = "1.0.0"

type cliOptions struct {
	configPath      string
	configExplicit  bool
	project         string
	noPrompt        bool
	dryRun          bool
	diffOut         string
	importsConflict string
	history         int
	verbose         bool
	version         bool
}

func parseOptions(args []string, stderr io.Writer) (cliOptions, error) {
	var opts cliOptions
	fs := flag.NewFlagSet("ngstandalone", flag.ContinueOnError)
	fs.SetOutput(stderr)

	fs.StringVar(&opts.configPath, "config", config.DefaultPath, "Path to config file")
	fs.StringVar(&opts.project, "project", "", "Path to the tsconfig of the compilation unit (skips the prompt)")
	fs.BoolVar(&opts.noPrompt, "no-prompt", false, "Never prompt; use the configured tsconfig")
	fs.BoolVar(&opts.dryRun, "dry-run", false, "Print unified diffs instead of writing files")
	fs.StringVar(&opts.diffOut, "diff-out", "", "With -dry-run, write the diff to this file instead of stdout")
	fs.StringVar(&opts.importsConflict, "imports-conflict", "", "How to treat an existing imports property: merge or append")
	fs.IntVar(&opts.history, "history", 0, "Print the last N recorded runs and exit")
	fs.BoolVar(&opts.verbose, "verbose", false, "Enable verbose logging")
	fs.BoolVar(&opts.version, "version", false, "Print version and exit")

	if err := fs.Parse(args); err != nil {
		return cliOptions{}, err
	}
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "config" {
			opts.configExplicit = true
		}
	})
	return opts, nil
}

// applyOverrides lets flags win over the config file.
func applyOverrides(opts cliOptions, cfg *config.Config) {
	if opts.dryRun {
		cfg.DryRun = true
	}
	if opts.importsConflict != "" {
		cfg.Rewrite.ImportsConflict = opts.importsConflict
	}
}
