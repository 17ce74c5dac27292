package source

import (
	"fmt"
	"sort"

	"ngstandalone/internal/core/errors"
	"ngstandalone/internal/engine/parser"
)

type ModificationType int

const (
	Insert ModificationType = iota
	Delete
	Replace
)

// Modification is a change to a byte range of one file, expressed against
// the text of the current generation.
type Modification struct {
	Start   int
	End     int
	NewText string
	Type    ModificationType
}

func insertAt(offset int, text string) Modification {
	return Modification{Start: offset, End: offset, NewText: text, Type: Insert}
}

func deleteSpan(span parser.Span) Modification {
	return Modification{Start: span.Start, End: span.End, Type: Delete}
}

func replaceSpan(span parser.Span, text string) Modification {
	return Modification{Start: span.Start, End: span.End, NewText: text, Type: Replace}
}

// apply writes mods into the file text in one pass, then reparses the file.
// Overlapping ranges are rejected; inserts at the same offset keep their order.
func (p *Project) apply(filePath string, mods []Modification) error {
	if len(mods) == 0 {
		return nil
	}
	f := p.File(filePath)
	if f == nil {
		return errors.AddContext(errors.New(errors.CodeNotFound, "file not in project"), errors.CtxPath, filePath)
	}

	ordered := append([]Modification(nil), mods...)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Start != ordered[j].Start {
			return ordered[i].Start < ordered[j].Start
		}
		return ordered[i].End < ordered[j].End
	})
	for i, m := range ordered {
		if m.Start < 0 || m.End < m.Start || m.End > len(f.text) {
			return errors.AddContext(errors.New(errors.CodeInternal, fmt.Sprintf("modification out of range [%d,%d)", m.Start, m.End)), errors.CtxPath, filePath)
		}
		if i > 0 && ordered[i-1].End > m.Start {
			return errors.AddContext(errors.New(errors.CodeInternal, "overlapping modifications"), errors.CtxPath, filePath)
		}
	}

	out := make([]byte, 0, len(f.text))
	cursor := 0
	for _, m := range ordered {
		out = append(out, f.text[cursor:m.Start]...)
		out = append(out, m.NewText...)
		cursor = m.End
	}
	out = append(out, f.text[cursor:]...)

	f.text = out
	f.dirty = string(f.text) != string(f.original)
	return p.reparse(f)
}
