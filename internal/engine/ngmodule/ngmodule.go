// # internal/engine/ngmodule/ngmodule.go

// Package ngmodule knows the shape of Angular module and artifact metadata.
package ngmodule

import (
	"ngstandalone/internal/engine/parser"
)

const (
	ModuleDecorator  = "NgModule"
	FrameworkPackage = "@angular/core"
)

// ArtifactKind is one of the decorators an NgModule can declare.
type ArtifactKind int

const (
	KindComponent ArtifactKind = iota + 1
	KindDirective
	KindPipe
)

var artifactKinds = map[ArtifactKind]struct {
	tag            string
	name           string
	acceptsImports bool
}{
	KindComponent: {tag: "Component", name: "component", acceptsImports: true},
	KindDirective: {tag: "Directive", name: "directive"},
	KindPipe:      {tag: "Pipe", name: "pipe"},
}

// Kinds lists the artifact kinds in lookup order.
var Kinds = []ArtifactKind{KindComponent, KindDirective, KindPipe}

// Tag is the decorator name of the kind.
func (k ArtifactKind) Tag() string { return artifactKinds[k].tag }

// String is the lower-case kind name used in reports, metrics and history.
func (k ArtifactKind) String() string {
	if name := artifactKinds[k].name; name != "" {
		return name
	}
	return "unknown"
}

// AcceptsImports reports whether a standalone artifact of this kind may carry
// its own `imports` list. Only components render a template.
func (k ArtifactKind) AcceptsImports() bool { return artifactKinds[k].acceptsImports }

// KindOf maps a decorator tag to its artifact kind. Matching is exact.
func KindOf(tag string) (ArtifactKind, bool) {
	for _, k := range Kinds {
		if artifactKinds[k].tag == tag {
			return k, true
		}
	}
	return 0, false
}

// ListResolver answers whether an identifier in a file is bound to a list.
type ListResolver interface {
	IsListBinding(file, name string) bool
}

// IsEligible reports whether an NgModule wraps exactly one artifact: a single
// declaration that is also its single export. lists may be nil, in which case
// identifiers are never treated as lists.
func IsEligible(file string, dec *parser.Decorator, lists ListResolver) bool {
	if dec == nil || dec.Object == nil {
		return false
	}
	declarations, ok := listProperty(dec.Object, "declarations")
	if !ok || len(declarations) != 1 {
		return false
	}
	exports, ok := listProperty(dec.Object, "exports")
	if !ok || len(exports) != 1 {
		return false
	}

	declared := declarations[0]
	if declared.Kind != parser.ValueIdentifier {
		return false
	}
	if lists != nil && lists.IsListBinding(file, declared.Text) {
		return false
	}
	return declared.Text == exports[0].Text
}

// Target is the textual form of the first declarations element.
func Target(dec *parser.Decorator) string {
	if dec == nil {
		return ""
	}
	elems, ok := listProperty(dec.Object, "declarations")
	if !ok || len(elems) == 0 {
		return ""
	}
	return elems[0].Text
}

// CarriedImports returns the elements of the module's imports array verbatim.
// It reports false when imports is present but not an array literal, which
// makes the module non-convertible.
func CarriedImports(dec *parser.Decorator) ([]string, bool) {
	if dec == nil {
		return nil, true
	}
	prop := dec.Object.Property("imports")
	if prop == nil {
		return nil, true
	}
	if prop.Shorthand || prop.Value.Kind != parser.ValueArray {
		return nil, false
	}
	out := make([]string, 0, len(prop.Value.Elements))
	for _, el := range prop.Value.Elements {
		out = append(out, el.Text)
	}
	return out, true
}

// FindArtifact looks for the class called name that carries an artifact
// decorator. The first matching class wins.
func FindArtifact(classes []*parser.Class, name string) (*parser.Class, *parser.Decorator, ArtifactKind, bool) {
	for _, cls := range classes {
		if cls.Name != name {
			continue
		}
		for _, dec := range cls.Decorators {
			if kind, ok := KindOf(dec.Name); ok {
				return cls, dec, kind, true
			}
		}
	}
	return nil, nil, 0, false
}

// ModuleDecoratorOf returns the NgModule decorator of cls, if any.
func ModuleDecoratorOf(cls *parser.Class) *parser.Decorator {
	return cls.Decorator(ModuleDecorator)
}

func listProperty(obj *parser.Object, key string) ([]parser.Value, bool) {
	prop := obj.Property(key)
	if prop == nil || prop.Shorthand || prop.Value.Kind != parser.ValueArray {
		return nil, false
	}
	return prop.Value.Elements, true
}
