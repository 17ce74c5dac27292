package source

import (
	"fmt"
	"log/slog"
	"path"
	"sort"
	"strings"

	"github.com/gobwas/glob"

	"ngstandalone/internal/core/errors"
)

var defaultExcludeDirs = []string{"node_modules", "bower_components", "jspm_packages"}

// Open loads the compilation unit described by the tsconfig at configPath.
func Open(storage Storage, configPath string, opts Options) (*Project, error) {
	cfg, err := LoadTSConfig(storage, configPath)
	if err != nil {
		return nil, err
	}
	p := NewProject(storage, opts)
	p.SetModuleResolution(cfg.BaseURL, cfg.Paths, cfg.PathsBase)

	files, err := p.discover(cfg)
	if err != nil {
		return nil, err
	}
	for _, file := range files {
		if _, err := p.LoadFile(file); err != nil {
			return nil, err
		}
	}
	slog.Info("project loaded", "tsconfig", cfg.Path, "files", len(files))
	return p, nil
}

// discover lists the files of cfg in sorted order: explicit files plus
// everything matching include that matches neither exclude nor the tool's
// exclude globs.
func (p *Project) discover(cfg *TSConfig) ([]string, error) {
	include := cfg.Include
	if include == nil && cfg.Files == nil {
		include = []string{path.Join(cfg.Dir, "**/*")}
	}
	exclude := cfg.Exclude
	if exclude == nil {
		for _, d := range defaultExcludeDirs {
			exclude = append(exclude, path.Join(cfg.Dir, d))
		}
		if cfg.OutDir != "" {
			exclude = append(exclude, cfg.OutDir)
		}
	}

	includeGlobs, err := compileTSGlobs(include)
	if err != nil {
		return nil, err
	}
	excludeGlobs, err := compileTSGlobs(exclude)
	if err != nil {
		return nil, err
	}
	dirGlobs, err := compileBaseGlobs(p.opts.ExcludeDirs)
	if err != nil {
		return nil, err
	}
	fileGlobs, err := compileBaseGlobs(p.opts.ExcludeFiles)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var out []string
	add := func(file string) {
		file = cleanPath(file)
		if seen[file] || !p.parser.IsSupportedPath(file) || matchesAny(fileGlobs, path.Base(file)) {
			return
		}
		seen[file] = true
		out = append(out, file)
	}

	for _, file := range cfg.Files {
		add(file)
	}
	if len(includeGlobs) > 0 {
		skipDir := func(name string) bool {
			if matchesAny(dirGlobs, name) {
				return true
			}
			return cfg.Exclude == nil && containsString(defaultExcludeDirs, name)
		}
		walked, err := p.storage.Walk(cfg.Dir, skipDir)
		if err != nil {
			return nil, errors.AddContext(errors.Wrap(err, errors.CodeIO, "list project files"), errors.CtxPath, cfg.Dir)
		}
		for _, file := range walked {
			file = cleanPath(file)
			if matchesAny(includeGlobs, file) && !excluded(excludeGlobs, file) {
				add(file)
			}
		}
	}
	sort.Strings(out)
	return out, nil
}

// compileTSGlobs compiles tsconfig include/exclude entries. An entry without
// wildcards or extension names a directory and covers everything below it.
// `**/` may match zero directories, so each occurrence is expanded into
// variants with and without it.
func compileTSGlobs(patterns []string) ([]glob.Glob, error) {
	var out []glob.Glob
	for _, pattern := range patterns {
		last := path.Base(pattern)
		if !strings.ContainsAny(last, "*?") && path.Ext(last) == "" {
			pattern = path.Join(pattern, "**/*")
		}
		for _, variant := range expandGlobstar(pattern) {
			g, err := glob.Compile(variant, '/')
			if err != nil {
				return nil, errors.Wrap(err, errors.CodeValidationError, fmt.Sprintf("invalid tsconfig pattern %q", pattern))
			}
			out = append(out, g)
		}
	}
	return out, nil
}

func expandGlobstar(pattern string) []string {
	idx := strings.Index(pattern, "**/")
	if idx < 0 {
		return []string{pattern}
	}
	var out []string
	for _, rest := range expandGlobstar(pattern[idx+3:]) {
		out = append(out, pattern[:idx+3]+rest, pattern[:idx]+rest)
	}
	return out
}

func compileBaseGlobs(patterns []string) ([]glob.Glob, error) {
	out := make([]glob.Glob, 0, len(patterns))
	for _, p := range patterns {
		g, err := glob.Compile(p)
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeValidationError, fmt.Sprintf("invalid exclude pattern %q", p))
		}
		out = append(out, g)
	}
	return out, nil
}

// excluded also treats every parent directory of file as a candidate, since
// an exclude entry matching a directory removes its whole subtree.
func excluded(globs []glob.Glob, file string) bool {
	for dir := file; dir != "." && dir != "/" && dir != ""; dir = path.Dir(dir) {
		if matchesAny(globs, dir) {
			return true
		}
		if path.Dir(dir) == dir {
			break
		}
	}
	return false
}

func matchesAny(globs []glob.Glob, value string) bool {
	for _, g := range globs {
		if g.Match(value) {
			return true
		}
	}
	return false
}

func containsString(values []string, v string) bool {
	for _, s := range values {
		if s == v {
			return true
		}
	}
	return false
}
