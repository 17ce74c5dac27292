// # internal/engine/parser/types.go
package parser

// Span is a half-open byte range [Start, End) into a file's source.
type Span struct {
	Start int
	End   int
}

func (s Span) Len() int { return s.End - s.Start }

func (s Span) Contains(other Span) bool {
	return s.Start <= other.Start && other.End <= s.End
}

// File is the syntax model extracted from one TypeScript source file.
// It holds no tree-sitter nodes, so it stays valid after the tree is closed.
type File struct {
	Path        string
	Language    string
	Classes     []*Class
	Imports     []*Import
	Exports     []*Export
	ListVars    map[string]bool // top-level variables initialized with an array literal
	Occurrences []Occurrence
	HasErrors   bool
}

// Class is a top-level class declaration.
type Class struct {
	Name       string
	NameSpan   Span
	Span       Span // full statement, including decorators and `export`
	Exported   bool
	Default    bool // `export default class`
	Decorators []*Decorator
}

// Decorator returns the first decorator with the given tag.
func (c *Class) Decorator(tag string) *Decorator {
	for _, d := range c.Decorators {
		if d.Name == tag {
			return d
		}
	}
	return nil
}

type Decorator struct {
	Name     string
	Span     Span
	IsCall   bool
	ArgsSpan Span    // parentheses of the call, when IsCall
	Args     []Value // call arguments in order
	Object   *Object // first argument when it is an object literal
}

// Object is an object literal.
type Object struct {
	Span       Span
	Properties []*Property
	// Opaque is set when the literal holds spreads, methods or computed keys.
	Opaque bool
}

// Property returns the last property assignment named key; later keys win in JS.
func (o *Object) Property(key string) *Property {
	if o == nil {
		return nil
	}
	var found *Property
	for _, p := range o.Properties {
		if p.Key == key {
			found = p
		}
	}
	return found
}

type Property struct {
	Key   string
	Span  Span
	Value Value
	// Shorthand is `{ declarations }` style, where Value is the identifier.
	Shorthand bool
}

type ValueKind int

const (
	ValueOther ValueKind = iota
	ValueIdentifier
	ValueArray
	ValueSpread
	ValueObject
	ValueMember
	ValueCall
	ValueLiteral
)

func (k ValueKind) String() string {
	switch k {
	case ValueIdentifier:
		return "identifier"
	case ValueArray:
		return "array"
	case ValueSpread:
		return "spread"
	case ValueObject:
		return "object"
	case ValueMember:
		return "member"
	case ValueCall:
		return "call"
	case ValueLiteral:
		return "literal"
	default:
		return "other"
	}
}

// Value is an expression with its verbatim text.
type Value struct {
	Kind     ValueKind
	Text     string
	Span     Span
	Elements []Value // array elements, comments excluded
}

type Import struct {
	Source     string
	Span       Span // whole statement
	Default    string
	Namespace  string
	Specifiers []*ImportSpecifier
	// NamedSpan covers `{ ... }`; zero when the import has no named bindings.
	NamedSpan Span
}

type ImportSpecifier struct {
	Name     string // exported name in the source module
	Alias    string // local binding when `as` is used
	NameSpan Span
	Span     Span
}

// Local is the name the specifier binds in the importing file.
func (s *ImportSpecifier) Local() string {
	if s.Alias != "" {
		return s.Alias
	}
	return s.Name
}

// DefaultExport is the local name the file exports as `default`, or "".
func (f *File) DefaultExport() string {
	for _, cls := range f.Classes {
		if cls.Default {
			return cls.Name
		}
	}
	for _, exp := range f.Exports {
		if exp.Source != "" {
			continue
		}
		for _, spec := range exp.Specifiers {
			if spec.Exported() == "default" {
				return spec.Name
			}
		}
	}
	return ""
}

// Export is an `export { ... }` clause or an `export * from` statement.
type Export struct {
	Source     string // empty for local re-exports
	Star       bool
	Specifiers []ExportSpecifier
}

type ExportSpecifier struct {
	Name  string // local or source-module name
	Alias string // exported name when `as` is used
}

func (s ExportSpecifier) Exported() string {
	if s.Alias != "" {
		return s.Alias
	}
	return s.Name
}

type OccurrenceRole int

const (
	RoleUse OccurrenceRole = iota
	RoleImportName
	RoleImportAlias
	RoleExportName
	RoleDeclaration
	// RoleMember is the property of `ns.Name` where ns is a plain identifier.
	RoleMember
)

// DecoratorSite names the decorator an occurrence sits in.
type DecoratorSite struct {
	Class     string
	Decorator string
}

// Occurrence is one identifier token in the file.
type Occurrence struct {
	Name string
	Span Span
	Role OccurrenceRole
	// Import is set for RoleImportName and RoleImportAlias.
	Import *Import
	// Specifier is set for RoleImportName and RoleImportAlias.
	Specifier *ImportSpecifier
	// ExportSource is the `from` module of an export specifier, if any.
	ExportSource string
	// Namespace is the object identifier of a RoleMember occurrence.
	Namespace string
	// Site is the nearest enclosing decorator, nil outside decorators.
	Site *DecoratorSite
}
