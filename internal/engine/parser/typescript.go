// # internal/engine/parser/typescript.go
package parser

import (
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// TypeScriptExtractor builds the syntax model the migration works on:
// top-level classes with their decorator metadata, import/export tables and
// every identifier occurrence with its decorator context.
type TypeScriptExtractor struct {
	engine *ExtractorEngine
}

func NewTypeScriptExtractor() *TypeScriptExtractor {
	x := &TypeScriptExtractor{}
	x.engine = NewExtractorEngine(map[string]NodeHandler{
		"import_statement":              x.handleImport,
		"export_statement":              x.handleExport,
		"class_declaration":             x.handleClass,
		"abstract_class_declaration":    x.handleClass,
		"decorator":                     x.handleDecorator,
		"lexical_declaration":           x.handleVariables,
		"variable_declaration":          x.handleVariables,
		"identifier":                    x.handleIdentifier,
		"type_identifier":               x.handleIdentifier,
		"shorthand_property_identifier": x.handleIdentifier,
		"member_expression":             x.handleMember,
	})
	return x
}

func (x *TypeScriptExtractor) Extract(root *sitter.Node, source []byte, filePath string) *File {
	file := &File{
		Path:     filePath,
		ListVars: make(map[string]bool),
	}
	ctx := &ExtractionContext{Source: source, File: file}
	if root != nil {
		file.HasErrors = root.HasError()
	}
	x.engine.Walk(ctx, root)
	return file
}

func (x *TypeScriptExtractor) handleImport(ctx *ExtractionContext, node *sitter.Node) bool {
	imp := &Import{
		Span:   ctx.Span(node),
		Source: ctx.StringValue(node.ChildByFieldName("source")),
	}
	ctx.File.Imports = append(ctx.File.Imports, imp)

	clause := childOfKind(node, "import_clause")
	for _, child := range namedChildren(clause) {
		switch child.Kind() {
		case "identifier":
			imp.Default = ctx.Text(child)
			spec := &ImportSpecifier{Name: "default", Alias: imp.Default, Span: ctx.Span(child)}
			ctx.addOccurrence(Occurrence{Name: imp.Default, Span: ctx.Span(child), Role: RoleImportAlias, Import: imp, Specifier: spec})
		case "namespace_import":
			if id := childOfKind(child, "identifier"); id != nil {
				imp.Namespace = ctx.Text(id)
			}
		case "named_imports":
			imp.NamedSpan = ctx.Span(child)
			for _, specNode := range namedChildren(child) {
				if specNode.Kind() != "import_specifier" {
					continue
				}
				nameNode := specNode.ChildByFieldName("name")
				if nameNode == nil {
					continue
				}
				spec := &ImportSpecifier{
					Name:     ctx.StringValue(nameNode),
					NameSpan: ctx.Span(nameNode),
					Span:     ctx.Span(specNode),
				}
				aliasNode := specNode.ChildByFieldName("alias")
				if aliasNode != nil {
					spec.Alias = ctx.Text(aliasNode)
				}
				imp.Specifiers = append(imp.Specifiers, spec)

				ctx.addOccurrence(Occurrence{Name: spec.Name, Span: spec.NameSpan, Role: RoleImportName, Import: imp, Specifier: spec})
				if aliasNode != nil {
					ctx.addOccurrence(Occurrence{Name: spec.Alias, Span: ctx.Span(aliasNode), Role: RoleImportAlias, Import: imp, Specifier: spec})
				}
			}
		}
	}
	return true
}

func (x *TypeScriptExtractor) handleExport(ctx *ExtractionContext, node *sitter.Node) bool {
	decl := node.ChildByFieldName("declaration")
	if decl == nil || !isClassKind(decl.Kind()) {
		if c := childOfKind(node, "class_declaration", "abstract_class_declaration"); c != nil {
			decl = c
		}
	}
	isDefault := childOfKind(node, "default") != nil
	if value := node.ChildByFieldName("value"); isDefault && value != nil {
		switch {
		case value.Kind() == "class" && value.ChildByFieldName("name") != nil:
			decl = value
		case value.Kind() == "identifier":
			name := ctx.Text(value)
			ctx.File.Exports = append(ctx.File.Exports, &Export{Specifiers: []ExportSpecifier{{Name: name, Alias: "default"}}})
			ctx.addOccurrence(Occurrence{Name: name, Span: ctx.Span(value), Role: RoleExportName})
			return true
		}
	}
	if decl != nil && (isClassKind(decl.Kind()) || decl.Kind() == "class") {
		if cls := x.extractClass(ctx, decl, node, childrenOfKind(node, "decorator"), true); cls != nil {
			cls.Default = isDefault
		}
		return true
	}

	source := node.ChildByFieldName("source")
	if clause := childOfKind(node, "export_clause"); clause != nil {
		exp := &Export{Source: ctx.StringValue(source)}
		for _, specNode := range namedChildren(clause) {
			if specNode.Kind() != "export_specifier" {
				continue
			}
			nameNode := specNode.ChildByFieldName("name")
			if nameNode == nil {
				continue
			}
			spec := ExportSpecifier{Name: ctx.StringValue(nameNode)}
			if alias := specNode.ChildByFieldName("alias"); alias != nil {
				spec.Alias = ctx.StringValue(alias)
			}
			exp.Specifiers = append(exp.Specifiers, spec)
			ctx.addOccurrence(Occurrence{Name: spec.Name, Span: ctx.Span(nameNode), Role: RoleExportName, ExportSource: exp.Source})
		}
		ctx.File.Exports = append(ctx.File.Exports, exp)
		return true
	}
	if source != nil && childOfKind(node, "*") != nil && childOfKind(node, "namespace_export") == nil {
		ctx.File.Exports = append(ctx.File.Exports, &Export{Source: ctx.StringValue(source), Star: true})
		return true
	}
	return false
}

func (x *TypeScriptExtractor) handleClass(ctx *ExtractionContext, node *sitter.Node) bool {
	x.extractClass(ctx, node, node, nil, false)
	return true
}

func (x *TypeScriptExtractor) extractClass(ctx *ExtractionContext, classNode, stmt *sitter.Node, outer []*sitter.Node, exported bool) *Class {
	nameNode := classNode.ChildByFieldName("name")
	name := ctx.Text(nameNode)

	var cls *Class
	if parent := stmt.Parent(); parent != nil && parent.Kind() == "program" && name != "" {
		cls = &Class{
			Name:     name,
			NameSpan: ctx.Span(nameNode),
			Span:     ctx.Span(stmt),
			Exported: exported,
		}
		ctx.File.Classes = append(ctx.File.Classes, cls)
	}
	if nameNode != nil {
		ctx.addOccurrence(Occurrence{Name: name, Span: ctx.Span(nameNode), Role: RoleDeclaration})
	}

	ctx.pushClass(name)
	defer ctx.popClass()

	decorators := append(append([]*sitter.Node(nil), outer...), childrenOfKind(classNode, "decorator")...)
	for _, dn := range decorators {
		d := x.extractDecorator(ctx, dn)
		if cls != nil {
			cls.Decorators = append(cls.Decorators, d)
		}
	}

	for i := uint(0); i < classNode.ChildCount(); i++ {
		child := classNode.Child(i)
		if child == nil || child.Kind() == "decorator" || sameNode(child, nameNode) {
			continue
		}
		x.engine.Walk(ctx, child)
	}
	return cls
}

func (x *TypeScriptExtractor) handleDecorator(ctx *ExtractionContext, node *sitter.Node) bool {
	x.extractDecorator(ctx, node)
	return true
}

func (x *TypeScriptExtractor) extractDecorator(ctx *ExtractionContext, node *sitter.Node) *Decorator {
	d := &Decorator{Span: ctx.Span(node)}
	children := namedChildren(node)
	if len(children) > 0 {
		expr := children[0]
		switch expr.Kind() {
		case "call_expression":
			d.IsCall = true
			d.Name = decoratorName(ctx, expr.ChildByFieldName("function"))
			args := expr.ChildByFieldName("arguments")
			d.ArgsSpan = ctx.Span(args)
			for i, arg := range namedChildren(args) {
				d.Args = append(d.Args, x.value(ctx, arg))
				if i == 0 && arg.Kind() == "object" {
					d.Object = x.object(ctx, arg)
				}
			}
		default:
			d.Name = decoratorName(ctx, expr)
		}
	}

	ctx.pushSite(&DecoratorSite{Class: ctx.currentClass(), Decorator: d.Name})
	x.engine.WalkChildren(ctx, node)
	ctx.popSite()
	return d
}

func decoratorName(ctx *ExtractionContext, node *sitter.Node) string {
	if node == nil {
		return ""
	}
	switch node.Kind() {
	case "member_expression":
		return ctx.Text(node.ChildByFieldName("property"))
	case "call_expression":
		return decoratorName(ctx, node.ChildByFieldName("function"))
	default:
		return ctx.Text(node)
	}
}

func (x *TypeScriptExtractor) object(ctx *ExtractionContext, node *sitter.Node) *Object {
	obj := &Object{Span: ctx.Span(node)}
	for _, child := range namedChildren(node) {
		switch child.Kind() {
		case "pair":
			key, ok := propertyKey(ctx, child.ChildByFieldName("key"))
			if !ok {
				obj.Opaque = true
				continue
			}
			obj.Properties = append(obj.Properties, &Property{
				Key:   key,
				Span:  ctx.Span(child),
				Value: x.value(ctx, child.ChildByFieldName("value")),
			})
		case "shorthand_property_identifier":
			obj.Properties = append(obj.Properties, &Property{
				Key:       ctx.Text(child),
				Span:      ctx.Span(child),
				Value:     Value{Kind: ValueIdentifier, Text: ctx.Text(child), Span: ctx.Span(child)},
				Shorthand: true,
			})
		default:
			obj.Opaque = true
		}
	}
	return obj
}

func propertyKey(ctx *ExtractionContext, node *sitter.Node) (string, bool) {
	if node == nil {
		return "", false
	}
	switch node.Kind() {
	case "property_identifier", "number":
		return ctx.Text(node), true
	case "string":
		return ctx.StringValue(node), true
	default:
		return "", false
	}
}

func (x *TypeScriptExtractor) value(ctx *ExtractionContext, node *sitter.Node) Value {
	if node == nil {
		return Value{}
	}
	v := Value{Text: ctx.Text(node), Span: ctx.Span(node)}
	switch node.Kind() {
	case "identifier":
		v.Kind = ValueIdentifier
	case "array":
		v.Kind = ValueArray
		for _, el := range namedChildren(node) {
			v.Elements = append(v.Elements, x.value(ctx, el))
		}
	case "spread_element":
		v.Kind = ValueSpread
	case "object":
		v.Kind = ValueObject
	case "member_expression", "subscript_expression":
		v.Kind = ValueMember
	case "call_expression", "new_expression":
		v.Kind = ValueCall
	case "string", "number", "true", "false", "null", "undefined", "template_string":
		v.Kind = ValueLiteral
	}
	return v
}

func (x *TypeScriptExtractor) handleVariables(ctx *ExtractionContext, node *sitter.Node) bool {
	if !isTopLevelStatement(node) {
		return false
	}
	for _, decl := range namedChildren(node) {
		if decl.Kind() != "variable_declarator" {
			continue
		}
		name := decl.ChildByFieldName("name")
		if name == nil || name.Kind() != "identifier" {
			continue
		}
		if isListInitializer(decl.ChildByFieldName("value")) || isListType(ctx, decl.ChildByFieldName("type")) {
			ctx.File.ListVars[ctx.Text(name)] = true
		}
	}
	return false
}

func isListInitializer(node *sitter.Node) bool {
	for node != nil {
		switch node.Kind() {
		case "array":
			return true
		case "as_expression", "satisfies_expression", "parenthesized_expression", "non_null_expression":
			children := namedChildren(node)
			if len(children) == 0 {
				return false
			}
			node = children[0]
		default:
			return false
		}
	}
	return false
}

func isListType(ctx *ExtractionContext, node *sitter.Node) bool {
	if node == nil {
		return false
	}
	text := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(ctx.Text(node)), ":"))
	return strings.HasSuffix(text, "[]") || strings.HasPrefix(text, "Array<") || strings.HasPrefix(text, "ReadonlyArray<")
}

func (x *TypeScriptExtractor) handleIdentifier(ctx *ExtractionContext, node *sitter.Node) bool {
	ctx.addOccurrence(Occurrence{
		Name: ctx.Text(node),
		Span: ctx.Span(node),
		Role: RoleUse,
		Site: ctx.currentSite(),
	})
	return true
}

// handleMember records `ns.Name` where ns is a plain identifier, so names
// reached through namespace imports resolve like direct ones.
func (x *TypeScriptExtractor) handleMember(ctx *ExtractionContext, node *sitter.Node) bool {
	object := node.ChildByFieldName("object")
	property := node.ChildByFieldName("property")
	if object != nil && property != nil && object.Kind() == "identifier" && property.Kind() == "property_identifier" {
		ctx.addOccurrence(Occurrence{
			Name:      ctx.Text(property),
			Span:      ctx.Span(property),
			Role:      RoleMember,
			Namespace: ctx.Text(object),
			Site:      ctx.currentSite(),
		})
	}
	return false
}

func isClassKind(kind string) bool {
	return kind == "class_declaration" || kind == "abstract_class_declaration"
}

func isTopLevelStatement(node *sitter.Node) bool {
	parent := node.Parent()
	if parent == nil {
		return false
	}
	if parent.Kind() == "program" {
		return true
	}
	if parent.Kind() == "export_statement" {
		grand := parent.Parent()
		return grand != nil && grand.Kind() == "program"
	}
	return false
}

func childrenOfKind(node *sitter.Node, kind string) []*sitter.Node {
	var out []*sitter.Node
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child != nil && child.Kind() == kind {
			out = append(out, child)
		}
	}
	return out
}
