package source

import (
	"fmt"
	"log/slog"
	"strings"

	"ngstandalone/internal/core/errors"
	"ngstandalone/internal/engine/parser"
)

type PropertyMode int

const (
	// SetValue replaces the value of an existing property, or appends one.
	SetValue PropertyMode = iota
	// AppendProperty always appends, even when the key already exists.
	AppendProperty
	// MergeList appends missing Elements to an existing list, or appends
	// the property when the key is absent.
	MergeList
)

type PropertyEdit struct {
	Key      string
	Value    string
	Elements []string
	Mode     PropertyMode
}

func (e PropertyEdit) valueText() string {
	if e.Value != "" || e.Mode != MergeList {
		return e.Value
	}
	return "[" + strings.Join(e.Elements, ", ") + "]"
}

func (e PropertyEdit) assignment() string {
	return e.Key + ": " + e.valueText()
}

// UpdateDecoratorMetadata applies edits to the object literal passed as the
// decorator's first argument, creating the argument when the decorator has none.
func (p *Project) UpdateDecoratorMetadata(filePath string, dec *parser.Decorator, edits []PropertyEdit) error {
	f := p.File(filePath)
	if f == nil {
		return errors.AddContext(errors.New(errors.CodeNotFound, "file not in project"), errors.CtxPath, filePath)
	}
	if len(edits) == 0 {
		return nil
	}

	var mods []Modification
	switch {
	case dec.Object != nil:
		mods = p.objectEdits(f, dec.Object, edits)
	case dec.IsCall && len(dec.Args) == 0:
		mods = []Modification{replaceSpan(dec.ArgsSpan, "("+inlineObject(edits)+")")}
	case !dec.IsCall:
		mods = []Modification{insertAt(dec.Span.End, "("+inlineObject(edits)+")")}
	default:
		err := errors.New(errors.CodeNotSupported, fmt.Sprintf("@%s argument is not an object literal", dec.Name))
		return errors.AddContext(err, errors.CtxPath, describe(f, dec.Span))
	}
	return p.apply(f.Path, mods)
}

func inlineObject(edits []PropertyEdit) string {
	parts := make([]string, 0, len(edits))
	for _, e := range edits {
		parts = append(parts, e.assignment())
	}
	return "{ " + strings.Join(parts, ", ") + " }"
}

func (p *Project) objectEdits(f *SourceFile, obj *parser.Object, edits []PropertyEdit) []Modification {
	var mods []Modification
	var appended []string
	for _, e := range edits {
		existing := obj.Property(e.Key)
		switch {
		case existing == nil || e.Mode == AppendProperty:
			appended = append(appended, e.assignment())
		case e.Mode == MergeList:
			if m, ok := mergeList(existing, e); ok {
				mods = append(mods, m)
			}
		case existing.Shorthand:
			mods = append(mods, replaceSpan(existing.Span, e.assignment()))
		default:
			mods = append(mods, replaceSpan(existing.Value.Span, e.valueText()))
		}
	}
	if len(appended) > 0 {
		mods = append(mods, p.appendProperties(f, obj, appended))
	}
	return mods
}

func mergeList(existing *parser.Property, e PropertyEdit) (Modification, bool) {
	val := existing.Value
	if existing.Shorthand || val.Kind != parser.ValueArray {
		elems := append([]string{"..." + val.Text}, e.Elements...)
		text := "[" + strings.Join(elems, ", ") + "]"
		if existing.Shorthand {
			return replaceSpan(existing.Span, e.Key+": "+text), true
		}
		return replaceSpan(val.Span, text), true
	}

	present := make(map[string]bool, len(val.Elements))
	for _, el := range val.Elements {
		present[el.Text] = true
	}
	var missing []string
	for _, el := range e.Elements {
		if !present[el] {
			missing = append(missing, el)
			present[el] = true
		}
	}
	if len(missing) == 0 {
		return Modification{}, false
	}
	if len(val.Elements) == 0 {
		return replaceSpan(val.Span, "["+strings.Join(missing, ", ")+"]"), true
	}
	last := val.Elements[len(val.Elements)-1]
	return insertAt(last.Span.End, ", "+strings.Join(missing, ", ")), true
}

// appendProperties adds assignments after the last member of obj. A literal
// spread over several lines gets one new line per assignment, indented
// IndentSize past the line the literal opens on.
func (p *Project) appendProperties(f *SourceFile, obj *parser.Object, props []string) Modification {
	text := f.text
	closing := obj.Span.End - 1

	anchor := -1
	lineRef := -1
	if n := len(obj.Properties); n > 0 && !obj.Opaque {
		last := obj.Properties[n-1]
		anchor = last.Span.End
		lineRef = last.Span.Start
	} else {
		j := closing - 1
		for j > obj.Span.Start && isSpace(text[j]) {
			j--
		}
		if j > obj.Span.Start {
			anchor = j + 1
			lineRef = j
		}
	}

	if anchor < 0 {
		inner := parser.Span{Start: obj.Span.Start + 1, End: closing}
		if !strings.Contains(string(text[inner.Start:inner.End]), "\n") {
			return replaceSpan(obj.Span, "{ "+strings.Join(props, ", ")+" }")
		}
		closeIndent := indentationAt(text, closing)
		indent := closeIndent + strings.Repeat(" ", p.opts.IndentSize)
		return replaceSpan(inner, "\n"+indent+strings.Join(props, ",\n"+indent)+"\n"+closeIndent)
	}

	trailing := false
	k := anchor
	for k < closing && isSpace(text[k]) {
		k++
	}
	if k < closing && text[k] == ',' {
		trailing = true
		anchor = k + 1
	}

	multiline := strings.Contains(string(text[obj.Span.Start:lineRef]), "\n")
	var b strings.Builder
	if multiline {
		indent := indentationAt(text, obj.Span.Start) + strings.Repeat(" ", p.opts.IndentSize)
		for _, prop := range props {
			if !trailing {
				b.WriteString(",")
			}
			b.WriteString("\n" + indent + prop)
			if trailing {
				b.WriteString(",")
			}
		}
		return insertAt(anchor, b.String())
	}
	for _, prop := range props {
		if trailing {
			b.WriteString(" " + prop + ",")
		} else {
			b.WriteString(", " + prop)
		}
	}
	return insertAt(anchor, b.String())
}

// RenameClass renames the class declaration and every reference to it that
// spells the old name. Aliased uses keep their alias.
func (p *Project) RenameClass(filePath string, cls *parser.Class, newName string) error {
	f := p.File(filePath)
	if f == nil {
		return errors.AddContext(errors.New(errors.CodeNotFound, "file not in project"), errors.CtxPath, filePath)
	}
	if cls.Name == newName {
		return nil
	}

	byFile := map[string][]Modification{
		f.Path: {replaceSpan(cls.NameSpan, newName)},
	}
	for _, ref := range p.FindReferences(DeclKey{File: f.Path, Name: cls.Name}) {
		if ref.Name != cls.Name {
			continue
		}
		byFile[ref.File] = append(byFile[ref.File], replaceSpan(ref.Span, newName))
	}

	for _, key := range p.order {
		mods, ok := byFile[key]
		if !ok {
			continue
		}
		if err := p.apply(key, mods); err != nil {
			return errors.AddContext(err, errors.CtxSymbol, cls.Name)
		}
	}
	slog.Debug("renamed class", "from", cls.Name, "to", newName, "files", len(byFile))
	return nil
}

// RemoveClass deletes the class statement, decorators included, together with
// the whitespace of the lines it occupied.
func (p *Project) RemoveClass(filePath string, cls *parser.Class) error {
	f := p.File(filePath)
	if f == nil {
		return errors.AddContext(errors.New(errors.CodeNotFound, "file not in project"), errors.CtxPath, filePath)
	}
	return p.apply(f.Path, []Modification{deleteSpan(lineExtended(f.text, cls.Span))})
}

// RemoveImportSpecifiers removes the given specifiers from their import
// declarations. An import left without bindings is removed entirely.
func (p *Project) RemoveImportSpecifiers(filePath string, specs []*parser.ImportSpecifier) error {
	f := p.File(filePath)
	if f == nil {
		return errors.AddContext(errors.New(errors.CodeNotFound, "file not in project"), errors.CtxPath, filePath)
	}
	remove := make(map[parser.Span]bool, len(specs))
	for _, s := range specs {
		remove[s.Span] = true
	}

	var mods []Modification
	for _, imp := range f.syntax.Imports {
		mods = append(mods, importRemovals(f.text, imp, remove)...)
	}
	return p.apply(f.Path, mods)
}

func importRemovals(text []byte, imp *parser.Import, remove map[parser.Span]bool) []Modification {
	specs := imp.Specifiers
	firstKept := -1
	removed := 0
	for i, s := range specs {
		if remove[s.Span] {
			removed++
		} else if firstKept < 0 {
			firstKept = i
		}
	}
	if removed == 0 {
		return nil
	}

	if firstKept < 0 {
		if imp.Default == "" && imp.Namespace == "" {
			return []Modification{deleteSpan(lineExtended(text, imp.Span))}
		}
		start := imp.NamedSpan.Start
		for start > imp.Span.Start && text[start-1] != ',' {
			start--
		}
		if start > imp.Span.Start {
			start--
		}
		return []Modification{deleteSpan(parser.Span{Start: start, End: imp.NamedSpan.End})}
	}

	var mods []Modification
	if firstKept > 0 {
		mods = append(mods, deleteSpan(parser.Span{Start: specs[0].Span.Start, End: specs[firstKept].Span.Start}))
	}
	for j := firstKept + 1; j < len(specs); j++ {
		if remove[specs[j].Span] {
			mods = append(mods, deleteSpan(parser.Span{Start: specs[j-1].Span.End, End: specs[j].Span.End}))
		}
	}
	return mods
}

// RemoveNamedImport drops `name` from the named imports of the declaration
// importing moduleSource. Other bindings of that declaration are kept.
func (p *Project) RemoveNamedImport(filePath, moduleSource, name string) error {
	f := p.File(filePath)
	if f == nil {
		return errors.AddContext(errors.New(errors.CodeNotFound, "file not in project"), errors.CtxPath, filePath)
	}
	for _, imp := range f.syntax.Imports {
		if imp.Source != moduleSource {
			continue
		}
		for _, spec := range imp.Specifiers {
			if spec.Name == name {
				return p.RemoveImportSpecifiers(f.Path, []*parser.ImportSpecifier{spec})
			}
		}
	}
	return nil
}

// lineExtended grows span over the indentation before it and the line break
// after it when the span is alone on its lines.
func lineExtended(text []byte, span parser.Span) parser.Span {
	start := span.Start
	for start > 0 && (text[start-1] == ' ' || text[start-1] == '\t') {
		start--
	}
	if start > 0 && text[start-1] != '\n' {
		return span
	}
	end := span.End
	for end < len(text) && (text[end] == ' ' || text[end] == '\t') {
		end++
	}
	switch {
	case end < len(text) && text[end] == '\n':
		end++
	case end+1 < len(text) && text[end] == '\r' && text[end+1] == '\n':
		end += 2
	case end < len(text):
		return parser.Span{Start: start, End: span.End}
	}
	return parser.Span{Start: start, End: end}
}

func indentationAt(text []byte, offset int) string {
	start := offset
	for start > 0 && text[start-1] != '\n' {
		start--
	}
	end := start
	for end < len(text) && (text[end] == ' ' || text[end] == '\t') {
		end++
	}
	return string(text[start:end])
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}
