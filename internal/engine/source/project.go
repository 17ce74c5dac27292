// Package source is the mutable source tree the migration runs against.
//
// A Project owns the text of every file in the compilation unit together
// with a syntax model extracted by tree-sitter. Queries (classes, imports,
// references) always reflect the current text: every mutation is applied as
// a set of byte-range modifications, the touched file is reparsed and the
// project generation is bumped, which drops cached symbol resolutions.
// Syntax nodes and references handed out by a query are only valid until the
// next mutation.
package source

import (
	"fmt"
	"log/slog"
	"path"
	"path/filepath"
	"strings"

	"ngstandalone/internal/core/errors"
	"ngstandalone/internal/engine/parser"
)

type Options struct {
	// IndentSize is the indentation width of the lines the rewrite adds to
	// a multi-line object literal, relative to the line the literal opens on.
	IndentSize int
	// ExcludeDirs and ExcludeFiles are glob patterns matched against base names.
	ExcludeDirs  []string
	ExcludeFiles []string
}

// SourceFile is one file of the project.
type SourceFile struct {
	Path     string
	text     []byte
	original []byte
	syntax   *parser.File
	dirty    bool
}

func (f *SourceFile) Text() string { return string(f.text) }

func (f *SourceFile) Syntax() *parser.File { return f.syntax }

// Dirty reports whether the file has edits that were not flushed yet.
func (f *SourceFile) Dirty() bool { return f.dirty }

func (f *SourceFile) Contains(marker string) bool {
	return strings.Contains(string(f.text), marker)
}

// Classes returns the top-level class declarations in source order.
func (f *SourceFile) Classes() []*parser.Class {
	return f.syntax.Classes
}

// DeclKey identifies a class declaration by its file and name.
type DeclKey struct {
	File string
	Name string
}

func (k DeclKey) String() string { return k.File + "#" + k.Name }

type Project struct {
	storage Storage
	parser  *parser.Parser
	opts    Options

	files map[string]*SourceFile
	order []string

	baseURL   string
	paths     map[string][]string
	pathsBase string

	generation int
	bindings   map[DeclKey]bindingResult
}

func NewProject(storage Storage, opts Options) *Project {
	if opts.IndentSize <= 0 {
		opts.IndentSize = 2
	}
	return &Project{
		storage:  storage,
		parser:   parser.NewParser(),
		opts:     opts,
		files:    make(map[string]*SourceFile),
		bindings: make(map[DeclKey]bindingResult),
	}
}

// SetModuleResolution configures non-relative import resolution the way
// compilerOptions.baseUrl and compilerOptions.paths do.
func (p *Project) SetModuleResolution(baseURL string, paths map[string][]string, pathsBase string) {
	p.baseURL = cleanPath(baseURL)
	p.paths = paths
	p.pathsBase = cleanPath(pathsBase)
	if p.pathsBase == "" {
		p.pathsBase = p.baseURL
	}
	p.invalidate()
}

// AddFile registers a file with the given content. The content is treated
// as already persisted.
func (p *Project) AddFile(filePath string, content []byte) (*SourceFile, error) {
	key := cleanPath(filePath)
	if !p.parser.IsSupportedPath(key) {
		return nil, errors.AddContext(errors.New(errors.CodeNotSupported, "not a TypeScript source"), errors.CtxPath, key)
	}
	syntax, err := p.parser.ParseFile(key, content)
	if err != nil {
		return nil, err
	}
	if syntax.HasErrors {
		slog.Debug("source has syntax errors", "path", key)
	}

	f := &SourceFile{
		Path:     key,
		text:     append([]byte(nil), content...),
		original: append([]byte(nil), content...),
		syntax:   syntax,
	}
	if _, exists := p.files[key]; !exists {
		p.order = append(p.order, key)
	}
	p.files[key] = f
	p.invalidate()
	return f, nil
}

// LoadFile reads filePath from storage and registers it.
func (p *Project) LoadFile(filePath string) (*SourceFile, error) {
	content, err := p.storage.ReadFile(cleanPath(filePath))
	if err != nil {
		return nil, errors.AddContext(errors.Wrap(err, errors.CodeNotFound, "read source file"), errors.CtxPath, filePath)
	}
	return p.AddFile(filePath, content)
}

// Files returns the project files in discovery order.
func (p *Project) Files() []*SourceFile {
	out := make([]*SourceFile, 0, len(p.order))
	for _, key := range p.order {
		out = append(out, p.files[key])
	}
	return out
}

func (p *Project) File(filePath string) *SourceFile {
	return p.files[cleanPath(filePath)]
}

// Generation increases with every applied mutation.
func (p *Project) Generation() int { return p.generation }

// FindClass returns the first top-level class in file named name that
// carries a decorator tagged tag. An empty tag matches any class.
func (p *Project) FindClass(filePath, name, tag string) *parser.Class {
	f := p.File(filePath)
	if f == nil {
		return nil
	}
	for _, cls := range f.syntax.Classes {
		if cls.Name != name {
			continue
		}
		if tag == "" || cls.Decorator(tag) != nil {
			return cls
		}
	}
	return nil
}

// IsListBinding reports whether name is bound in file to a top-level array
// variable, either declared locally or imported from another project file.
func (p *Project) IsListBinding(filePath, name string) bool {
	f := p.File(filePath)
	if f == nil {
		return false
	}
	if f.syntax.ListVars[name] {
		return true
	}
	for _, imp := range f.syntax.Imports {
		for _, spec := range imp.Specifiers {
			if spec.Local() != name {
				continue
			}
			target, ok := p.resolveModule(f.Path, imp.Source)
			if !ok {
				return false
			}
			return p.File(target).syntax.ListVars[spec.Name]
		}
	}
	return false
}

func (p *Project) invalidate() {
	p.generation++
	if len(p.bindings) > 0 {
		p.bindings = make(map[DeclKey]bindingResult)
	}
}

func (p *Project) reparse(f *SourceFile) error {
	syntax, err := p.parser.ParseFile(f.Path, f.text)
	if err != nil {
		return err
	}
	f.syntax = syntax
	p.invalidate()
	return nil
}

func cleanPath(p string) string {
	if p == "" {
		return ""
	}
	return path.Clean(filepath.ToSlash(p))
}

func describe(f *SourceFile, span parser.Span) string {
	return fmt.Sprintf("%s:%d", f.Path, lineOf(f.text, span.Start))
}

func lineOf(text []byte, offset int) int {
	line := 1
	for i := 0; i < offset && i < len(text); i++ {
		if text[i] == '\n' {
			line++
		}
	}
	return line
}
