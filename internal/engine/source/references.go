package source

import (
	"path"
	"sort"
	"strings"

	"ngstandalone/internal/engine/parser"
)

// Reference is a located use of a class declaration.
type Reference struct {
	File      string
	Name      string // text at the occurrence; differs from the class name for aliases
	Span      parser.Span
	Role      parser.OccurrenceRole
	Site      *parser.DecoratorSite
	Import    *parser.Import
	Specifier *parser.ImportSpecifier
}

// IsImportSpecifier reports whether the reference is the whole content of an
// import specifier, i.e. `{ Name }` without an alias.
func (r Reference) IsImportSpecifier() bool {
	return r.Role == parser.RoleImportName && r.Specifier != nil && r.Specifier.Alias == ""
}

// InDecorator reports whether the nearest enclosing decorator is tagged tag.
func (r Reference) InDecorator(tag string) bool {
	return r.Site != nil && r.Site.Decorator == tag
}

// EnclosingClass is the class owning the nearest enclosing decorator.
func (r Reference) EnclosingClass() string {
	if r.Site == nil {
		return ""
	}
	return r.Site.Class
}

type bindingResult struct {
	decl DeclKey
	ok   bool
}

// FindReferences returns every occurrence in the project that resolves to
// decl, in file-discovery order. The declaration name itself is excluded.
func (p *Project) FindReferences(decl DeclKey) []Reference {
	refs := make([]Reference, 0)
	for _, f := range p.Files() {
		for i := range f.syntax.Occurrences {
			occ := &f.syntax.Occurrences[i]
			if occ.Role == parser.RoleDeclaration {
				continue
			}
			target, ok := p.resolveOccurrence(f.Path, occ)
			if !ok || target != decl {
				continue
			}
			refs = append(refs, Reference{
				File:      f.Path,
				Name:      occ.Name,
				Span:      occ.Span,
				Role:      occ.Role,
				Site:      occ.Site,
				Import:    occ.Import,
				Specifier: occ.Specifier,
			})
		}
	}
	return refs
}

func (p *Project) resolveOccurrence(file string, occ *parser.Occurrence) (DeclKey, bool) {
	switch occ.Role {
	case parser.RoleImportName, parser.RoleImportAlias:
		target, ok := p.resolveModule(file, occ.Import.Source)
		if !ok {
			return DeclKey{}, false
		}
		return p.resolveExport(target, occ.Specifier.Name, map[DeclKey]bool{})
	case parser.RoleExportName:
		if occ.ExportSource != "" {
			target, ok := p.resolveModule(file, occ.ExportSource)
			if !ok {
				return DeclKey{}, false
			}
			return p.resolveExport(target, occ.Name, map[DeclKey]bool{})
		}
		return p.resolveBinding(file, occ.Name)
	case parser.RoleMember:
		return p.resolveMember(file, occ.Namespace, occ.Name)
	default:
		return p.resolveBinding(file, occ.Name)
	}
}

// resolveBinding resolves a name used at module scope in file.
func (p *Project) resolveBinding(file, local string) (DeclKey, bool) {
	key := DeclKey{File: file, Name: local}
	if cached, ok := p.bindings[key]; ok {
		return cached.decl, cached.ok
	}
	decl, ok := p.resolveLocal(file, local, map[DeclKey]bool{})
	p.bindings[key] = bindingResult{decl: decl, ok: ok}
	return decl, ok
}

// resolveMember resolves `ns.name` where ns is a namespace import of file.
// Members of anything else do not resolve.
func (p *Project) resolveMember(file, ns, name string) (DeclKey, bool) {
	f := p.File(file)
	if f == nil {
		return DeclKey{}, false
	}
	for _, imp := range f.syntax.Imports {
		if imp.Namespace != ns {
			continue
		}
		target, ok := p.resolveModule(f.Path, imp.Source)
		if !ok {
			return DeclKey{}, false
		}
		return p.resolveExport(target, name, map[DeclKey]bool{})
	}
	return DeclKey{}, false
}

func (p *Project) resolveLocal(file, local string, seen map[DeclKey]bool) (DeclKey, bool) {
	f := p.File(file)
	if f == nil {
		return DeclKey{}, false
	}
	for _, cls := range f.syntax.Classes {
		if cls.Name == local {
			return DeclKey{File: f.Path, Name: local}, true
		}
	}
	for _, imp := range f.syntax.Imports {
		imported := ""
		switch {
		case imp.Default == local:
			imported = "default"
		default:
			for _, spec := range imp.Specifiers {
				if spec.Local() == local {
					imported = spec.Name
					break
				}
			}
		}
		if imported == "" {
			continue
		}
		target, ok := p.resolveModule(f.Path, imp.Source)
		if !ok {
			return DeclKey{}, false
		}
		return p.resolveExport(target, imported, seen)
	}
	return DeclKey{}, false
}

// resolveExport follows name as exported by file through re-export chains.
func (p *Project) resolveExport(file, name string, seen map[DeclKey]bool) (DeclKey, bool) {
	visit := DeclKey{File: file, Name: name}
	if seen[visit] {
		return DeclKey{}, false
	}
	seen[visit] = true

	f := p.File(file)
	if f == nil {
		return DeclKey{}, false
	}
	for _, cls := range f.syntax.Classes {
		if cls.Name == name || (name == "default" && cls.Default) {
			return DeclKey{File: f.Path, Name: cls.Name}, true
		}
	}
	for _, exp := range f.syntax.Exports {
		if exp.Star {
			continue
		}
		for _, spec := range exp.Specifiers {
			if spec.Exported() != name {
				continue
			}
			if exp.Source == "" {
				return p.resolveLocal(f.Path, spec.Name, seen)
			}
			target, ok := p.resolveModule(f.Path, exp.Source)
			if !ok {
				return DeclKey{}, false
			}
			return p.resolveExport(target, spec.Name, seen)
		}
	}
	if name == "default" {
		// `export *` never forwards the default export.
		return DeclKey{}, false
	}
	for _, exp := range f.syntax.Exports {
		if !exp.Star {
			continue
		}
		target, ok := p.resolveModule(f.Path, exp.Source)
		if !ok {
			continue
		}
		if decl, ok := p.resolveExport(target, name, seen); ok {
			return decl, true
		}
	}
	return DeclKey{}, false
}

// resolveModule maps an import source to a project file path.
func (p *Project) resolveModule(from, spec string) (string, bool) {
	if spec == "" {
		return "", false
	}
	if isRelative(spec) {
		return p.lookupModule(path.Join(path.Dir(from), spec))
	}
	for _, pattern := range sortedPathPatterns(p.paths) {
		targets := p.paths[pattern]
		captured, ok := matchPathPattern(pattern, spec)
		if !ok {
			continue
		}
		for _, target := range targets {
			candidate := strings.Replace(target, "*", captured, 1)
			if resolved, ok := p.lookupModule(path.Join(p.pathsBase, candidate)); ok {
				return resolved, true
			}
		}
	}
	if p.baseURL != "" {
		return p.lookupModule(path.Join(p.baseURL, spec))
	}
	return "", false
}

func (p *Project) lookupModule(base string) (string, bool) {
	base = cleanPath(base)
	stem := base
	for _, ext := range []string{".js", ".mjs", ".cjs"} {
		if strings.HasSuffix(stem, ext) {
			stem = strings.TrimSuffix(stem, ext)
			break
		}
	}
	candidates := []string{
		base,
		stem + ".ts",
		stem + ".tsx",
		stem + ".mts",
		path.Join(stem, "index.ts"),
		path.Join(stem, "index.tsx"),
	}
	for _, c := range candidates {
		if _, ok := p.files[c]; ok {
			return c, true
		}
	}
	return "", false
}

func isRelative(spec string) bool {
	return spec == "." || spec == ".." || strings.HasPrefix(spec, "./") || strings.HasPrefix(spec, "../")
}

// matchPathPattern matches spec against a tsconfig paths key with at most
// one `*` wildcard and returns the captured part.
func matchPathPattern(pattern, spec string) (string, bool) {
	star := strings.Index(pattern, "*")
	if star < 0 {
		return "", pattern == spec
	}
	prefix, suffix := pattern[:star], pattern[star+1:]
	if len(spec) < len(prefix)+len(suffix) || !strings.HasPrefix(spec, prefix) || !strings.HasSuffix(spec, suffix) {
		return "", false
	}
	return spec[len(prefix) : len(spec)-len(suffix)], true
}

// sortedPathPatterns orders patterns by longest prefix before the wildcard,
// which is the precedence the TypeScript compiler applies.
func sortedPathPatterns(paths map[string][]string) []string {
	keys := make([]string, 0, len(paths))
	for k := range paths {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		pi, pj := patternPrefixLen(keys[i]), patternPrefixLen(keys[j])
		if pi != pj {
			return pi > pj
		}
		return keys[i] < keys[j]
	})
	return keys
}

func patternPrefixLen(pattern string) int {
	if star := strings.Index(pattern, "*"); star >= 0 {
		return star
	}
	return len(pattern)
}
