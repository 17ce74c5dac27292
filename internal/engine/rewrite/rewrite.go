// # internal/engine/rewrite/rewrite.go

// Package rewrite folds convertible NgModules into their single artifact.
//
// Every step re-reads classes, decorators and references from the project at
// the moment it runs, so a module converted later in the batch sees the
// renames and deletions made by earlier conversions.
package rewrite

import (
	"context"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"ngstandalone/internal/core/errors"
	"ngstandalone/internal/engine/graph"
	"ngstandalone/internal/engine/ngmodule"
	"ngstandalone/internal/engine/parser"
	"ngstandalone/internal/engine/source"
	"ngstandalone/internal/shared/observability"
)

// ImportsMode decides what happens when the artifact already declares imports.
type ImportsMode string

const (
	// ImportsMerge appends the missing carried imports to the existing list.
	ImportsMerge ImportsMode = "merge"
	// ImportsAppend adds a second imports property after the existing one.
	ImportsAppend ImportsMode = "append"
)

type Options struct {
	ImportsMode ImportsMode
}

type SkipReason string

const (
	SkipImpure              SkipReason = "impure"
	SkipModuleMissing       SkipReason = "module_missing"
	SkipArtifactNotFound    SkipReason = "artifact_not_found"
	SkipUnsupportedMetadata SkipReason = "unsupported_metadata"
	SkipDefaultExport       SkipReason = "default_export"
)

type Conversion struct {
	Module         graph.ModuleID
	Artifact       string
	Kind           ngmodule.ArtifactKind
	CarriedImports []string
}

type Skip struct {
	Module graph.ModuleID
	Reason SkipReason
	Detail string
}

type Report struct {
	Converted []Conversion
	Skipped   []Skip
}

type Rewriter struct {
	project *source.Project
	opts    Options
}

func New(p *source.Project, opts Options) *Rewriter {
	if opts.ImportsMode == "" {
		opts.ImportsMode = ImportsMerge
	}
	return &Rewriter{project: p, opts: opts}
}

// Run converts every pure candidate of g in discovery order. Per-module
// problems end up in the report; an error means the project could not be
// edited and should not be flushed.
func (r *Rewriter) Run(ctx context.Context, g *graph.Graph) (Report, error) {
	var report Report
	for _, id := range g.Candidates() {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		conv, skip, err := r.convert(ctx, g, id)
		if err != nil {
			return report, errors.AddContext(err, errors.CtxSymbol, id.String())
		}
		if skip != nil {
			observability.ModulesSkipped.WithLabelValues(string(skip.Reason)).Inc()
			slog.Info("module skipped", "module", id.Name, "file", id.File, "reason", skip.Reason, "detail", skip.Detail)
			report.Skipped = append(report.Skipped, *skip)
			continue
		}
		observability.ModulesConverted.WithLabelValues(conv.Kind.String()).Inc()
		slog.Info("module converted", "module", id.Name, "file", id.File, "artifact", conv.Artifact, "kind", conv.Kind)
		report.Converted = append(report.Converted, *conv)
	}
	return report, nil
}

func (r *Rewriter) convert(ctx context.Context, g *graph.Graph, id graph.ModuleID) (*Conversion, *Skip, error) {
	_, span := observability.Tracer.Start(ctx, "rewrite.convert", trace.WithAttributes(
		attribute.String("module", id.Name),
		attribute.String("file", id.File),
	))
	defer span.End()

	if chain, blocked := g.BlockingChain(id); blocked {
		return nil, &Skip{Module: id, Reason: SkipImpure, Detail: "consumed by " + describeChain(chain)}, nil
	}

	p := r.project
	module := p.FindClass(id.File, id.Name, ngmodule.ModuleDecorator)
	if module == nil {
		return nil, &Skip{Module: id, Reason: SkipModuleMissing}, nil
	}
	if p.File(id.File).Syntax().DefaultExport() == id.Name {
		return nil, &Skip{Module: id, Reason: SkipDefaultExport, Detail: "removing the class would leave the default export dangling"}, nil
	}
	meta := ngmodule.ModuleDecoratorOf(module)
	target := ngmodule.Target(meta)
	carried, ok := ngmodule.CarriedImports(meta)
	if !ok {
		return nil, &Skip{Module: id, Reason: SkipUnsupportedMetadata, Detail: "module imports is not an array literal"}, nil
	}

	_, artifactDec, kind, ok := ngmodule.FindArtifact(p.File(id.File).Classes(), target)
	if !ok {
		return nil, &Skip{Module: id, Reason: SkipArtifactNotFound, Detail: target}, nil
	}

	if err := p.UpdateDecoratorMetadata(id.File, artifactDec, r.metadataEdits(kind, carried)); err != nil {
		if errors.IsCode(err, errors.CodeNotSupported) {
			return nil, &Skip{Module: id, Reason: SkipUnsupportedMetadata, Detail: err.Error()}, nil
		}
		return nil, nil, err
	}

	module = p.FindClass(id.File, id.Name, ngmodule.ModuleDecorator)
	if err := p.RenameClass(id.File, module, target); err != nil {
		return nil, nil, err
	}
	if err := r.dedupeImports(id.File, target); err != nil {
		return nil, nil, err
	}
	if module = p.FindClass(id.File, target, ngmodule.ModuleDecorator); module != nil {
		if err := p.RemoveClass(id.File, module); err != nil {
			return nil, nil, err
		}
	}
	if !declaresModule(p.File(id.File).Classes()) {
		if err := p.RemoveNamedImport(id.File, ngmodule.FrameworkPackage, ngmodule.ModuleDecorator); err != nil {
			return nil, nil, err
		}
	}

	return &Conversion{Module: id, Artifact: target, Kind: kind, CarriedImports: carried}, nil, nil
}

func (r *Rewriter) metadataEdits(kind ngmodule.ArtifactKind, carried []string) []source.PropertyEdit {
	edits := []source.PropertyEdit{{Key: "standalone", Value: "true"}}
	if len(carried) == 0 || !kind.AcceptsImports() {
		return edits
	}
	imports := source.PropertyEdit{Key: "imports", Elements: carried, Mode: source.MergeList}
	if r.opts.ImportsMode == ImportsAppend {
		imports.Mode = source.AppendProperty
		imports.Value = "[" + strings.Join(carried, ", ") + "]"
	}
	return append(edits, imports)
}

// dedupeImports keeps one import specifier per file for the class name in
// file. The rename leaves files that imported both the module and the
// artifact with the name listed twice.
func (r *Rewriter) dedupeImports(file, name string) error {
	byFile := make(map[string][]*parser.ImportSpecifier)
	var order []string
	for _, ref := range r.project.FindReferences(source.DeclKey{File: file, Name: name}) {
		if !ref.IsImportSpecifier() {
			continue
		}
		if _, ok := byFile[ref.File]; !ok {
			order = append(order, ref.File)
		}
		byFile[ref.File] = append(byFile[ref.File], ref.Specifier)
	}
	for _, f := range order {
		specs := byFile[f]
		if len(specs) < 2 {
			continue
		}
		slog.Debug("removing duplicate imports", "file", f, "name", name, "count", len(specs)-1)
		if err := r.project.RemoveImportSpecifiers(f, specs[1:]); err != nil {
			return err
		}
	}
	return nil
}

func declaresModule(classes []*parser.Class) bool {
	for _, cls := range classes {
		if ngmodule.ModuleDecoratorOf(cls) != nil {
			return true
		}
	}
	return false
}

func describeChain(chain []graph.ModuleID) string {
	names := make([]string, 0, len(chain))
	for _, id := range chain[1:] {
		names = append(names, id.Name)
	}
	return strings.Join(names, " <- ")
}
