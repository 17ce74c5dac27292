// Package app runs a migration: load the compilation unit, build the module
// graph, rewrite the pure candidates and write the result.
package app

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"ngstandalone/internal/core/config"
	"ngstandalone/internal/core/errors"
	"ngstandalone/internal/core/ports"
	"ngstandalone/internal/data/history"
	"ngstandalone/internal/engine/graph"
	"ngstandalone/internal/engine/rewrite"
	"ngstandalone/internal/engine/source"
	"ngstandalone/internal/shared/observability"
)

const (
	PhaseLoad    = "load"
	PhaseAnalyze = "analyze"
	PhaseRewrite = "rewrite"
	PhaseWrite   = "write"
)

// Deps are the adapters a migration runs against. History may be nil.
type Deps struct {
	Storage    source.Storage
	History    ports.HistoryStore
	ProjectKey string
}

// Result summarizes a migration run. Fields fill in as phases complete.
type Result struct {
	TSConfig       string
	DryRun         bool
	FileCount      int
	ModuleCount    int
	CandidateCount int
	Collisions     map[string][]graph.ModuleID
	Cycles         [][]graph.ModuleID
	Report         rewrite.Report
	Diff           string
	FilesWritten   int
	RunID          string
	Duration       time.Duration
}

type App struct {
	cfg  *config.Config
	deps Deps

	project *source.Project
	graph   *graph.Graph
	result  Result
	started time.Time
}

// New prepares a migration of the compilation unit described by
// tsconfigPath.
func New(cfg *config.Config, tsconfigPath string, deps Deps) *App {
	if deps.Storage == nil {
		deps.Storage = source.DiskStorage{}
	}
	return &App{
		cfg:    cfg,
		deps:   deps,
		result: Result{TSConfig: tsconfigPath, DryRun: cfg.DryRun},
	}
}

// Phases returns the migration steps in the order they must run. A failed
// step leaves the later ones without input, so callers stop at the first
// error.
func (a *App) Phases() []ports.Phase {
	return []ports.Phase{
		{Name: PhaseLoad, Run: a.wrap(PhaseLoad, a.load)},
		{Name: PhaseAnalyze, Run: a.wrap(PhaseAnalyze, a.analyze)},
		{Name: PhaseRewrite, Run: a.wrap(PhaseRewrite, a.rewrite)},
		{Name: PhaseWrite, Run: a.wrap(PhaseWrite, a.write)},
	}
}

// Run executes every phase in order.
func (a *App) Run(ctx context.Context) (Result, error) {
	for _, phase := range a.Phases() {
		if err := phase.Run(ctx); err != nil {
			return a.result, err
		}
	}
	return a.result, nil
}

func (a *App) Result() Result {
	return a.result
}

func (a *App) wrap(name string, fn func(context.Context) error) func(context.Context) error {
	return func(ctx context.Context) error {
		if a.started.IsZero() {
			a.started = time.Now()
		}
		ctx, span := observability.Tracer.Start(ctx, "migrate."+name)
		defer span.End()

		start := time.Now()
		err := fn(ctx)
		observability.PhaseDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return errors.AddContext(err, errors.CtxOperation, name)
		}
		return nil
	}
}

func (a *App) load(ctx context.Context) error {
	p, err := source.Open(a.deps.Storage, a.result.TSConfig, source.Options{
		IndentSize:   a.cfg.Format.IndentSize,
		ExcludeDirs:  a.cfg.Exclude.Dirs,
		ExcludeFiles: a.cfg.Exclude.Files,
	})
	if err != nil {
		return err
	}
	a.project = p
	a.result.FileCount = len(p.Files())
	return nil
}

func (a *App) analyze(ctx context.Context) error {
	if a.project == nil {
		return errors.New(errors.CodeInternal, "analyze before load")
	}
	a.graph = graph.Build(a.project)
	a.result.ModuleCount = len(a.graph.Modules())
	a.result.CandidateCount = len(a.graph.Candidates())
	a.result.Collisions = a.graph.Collisions()
	a.result.Cycles = a.graph.DetectCycles()
	for _, cycle := range a.result.Cycles {
		slog.Debug("module consumer cycle", "modules", cycle)
	}
	return nil
}

func (a *App) rewrite(ctx context.Context) error {
	if a.graph == nil {
		return errors.New(errors.CodeInternal, "rewrite before analyze")
	}
	r := rewrite.New(a.project, rewrite.Options{ImportsMode: rewrite.ImportsMode(a.cfg.Rewrite.ImportsConflict)})
	report, err := r.Run(ctx, a.graph)
	a.result.Report = report
	return err
}

// write flushes the edited files, or renders them as a diff on a dry run.
// History and metrics failures are logged, not returned.
func (a *App) write(ctx context.Context) error {
	if a.project == nil {
		return errors.New(errors.CodeInternal, "write before load")
	}
	if a.cfg.DryRun {
		diff, err := a.project.Diff()
		if err != nil {
			return err
		}
		a.result.Diff = diff
	} else {
		if err := ctx.Err(); err != nil {
			return err
		}
		n, err := a.project.Flush()
		a.result.FilesWritten = n
		if err != nil {
			return err
		}
	}
	a.result.Duration = time.Since(a.started)

	a.recordHistory(ctx)
	if a.cfg.Metrics.Textfile != "" {
		if err := observability.WriteTextfile(a.cfg.Metrics.Textfile); err != nil {
			slog.Warn("metrics textfile not written", "path", a.cfg.Metrics.Textfile, "error", err)
		}
	}
	return nil
}

func (a *App) recordHistory(ctx context.Context) {
	if a.deps.History == nil || a.cfg.DryRun {
		return
	}
	_, span := observability.Tracer.Start(ctx, "history.save")
	defer span.End()

	run := history.Run{
		ProjectKey:     a.deps.ProjectKey,
		TSConfig:       a.result.TSConfig,
		FileCount:      a.result.FileCount,
		ModuleCount:    a.result.ModuleCount,
		CandidateCount: a.result.CandidateCount,
		FilesWritten:   a.result.FilesWritten,
		Duration:       a.result.Duration,
		Entries:        historyEntries(a.result.Report),
	}
	id, err := a.deps.History.SaveRun(run)
	if err != nil {
		span.RecordError(err)
		slog.Warn("run not recorded in history", "error", err)
		return
	}
	span.SetAttributes(attribute.String("run.id", id))
	a.result.RunID = id
}

func historyEntries(report rewrite.Report) []history.Entry {
	entries := make([]history.Entry, 0, len(report.Converted)+len(report.Skipped))
	for _, c := range report.Converted {
		entries = append(entries, history.Entry{
			File:           c.Module.File,
			Module:         c.Module.Name,
			Artifact:       c.Artifact,
			Kind:           c.Kind.String(),
			CarriedImports: c.CarriedImports,
		})
	}
	for _, s := range report.Skipped {
		entries = append(entries, history.Entry{
			File:   s.Module.File,
			Module: s.Module.Name,
			Reason: string(s.Reason),
			Detail: s.Detail,
		})
	}
	return entries
}
