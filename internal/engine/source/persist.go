package source

import (
	"log/slog"
	"strings"

	"github.com/pmezard/go-difflib/difflib"

	"ngstandalone/internal/core/errors"
	"ngstandalone/internal/shared/observability"
)

// DirtyFiles lists files with unflushed edits in discovery order.
func (p *Project) DirtyFiles() []*SourceFile {
	var out []*SourceFile
	for _, f := range p.Files() {
		if f.dirty {
			out = append(out, f)
		}
	}
	return out
}

// Flush writes every dirty file back to storage. Clean files are not touched.
// It stops at the first failed write; files written before it stay written.
func (p *Project) Flush() (int, error) {
	written := 0
	for _, f := range p.DirtyFiles() {
		if err := p.storage.WriteFile(f.Path, f.text); err != nil {
			wrapped := errors.Wrap(err, errors.CodeIO, "write source file")
			return written, errors.AddContext(wrapped, errors.CtxPath, f.Path)
		}
		f.original = append([]byte(nil), f.text...)
		f.dirty = false
		written++
		observability.FilesWritten.Inc()
		slog.Debug("wrote file", "path", f.Path)
	}
	return written, nil
}

// Diff renders unified diffs of every dirty file against its last persisted
// content.
func (p *Project) Diff() (string, error) {
	var b strings.Builder
	for _, f := range p.DirtyFiles() {
		diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
			A:        difflib.SplitLines(string(f.original)),
			B:        difflib.SplitLines(string(f.text)),
			FromFile: "a/" + f.Path,
			ToFile:   "b/" + f.Path,
			Context:  3,
		})
		if err != nil {
			return "", errors.AddContext(errors.Wrap(err, errors.CodeInternal, "render diff"), errors.CtxPath, f.Path)
		}
		b.WriteString(diff)
	}
	return b.String(), nil
}
