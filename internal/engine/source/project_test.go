package source

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ngstandalone/internal/engine/parser"
	"ngstandalone/internal/shared/util"
)

func newTestProject(t *testing.T, files map[string]string) (*Project, *MemoryStorage) {
	t.Helper()
	storage := NewMemoryStorage()
	p := NewProject(storage, Options{})
	for _, path := range util.SortedStringKeys(files) {
		storage.Put(path, files[path])
		_, err := p.LoadFile(path)
		require.NoError(t, err)
	}
	return p, storage
}

func fileText(t *testing.T, p *Project, path string) string {
	t.Helper()
	f := p.File(path)
	require.NotNil(t, f, "file %s", path)
	return f.Text()
}

func TestProject_AddFileRejectsDeclarationFiles(t *testing.T) {
	p := NewProject(NewMemoryStorage(), Options{})
	_, err := p.AddFile("src/types.d.ts", []byte("export declare const x: number;\n"))
	require.Error(t, err)
}

func TestProject_FilesKeepDiscoveryOrder(t *testing.T) {
	p := NewProject(NewMemoryStorage(), Options{})
	for _, path := range []string{"src/b.ts", "src/a.ts", "./src/c.ts"} {
		_, err := p.AddFile(path, []byte("export const x = 1;\n"))
		require.NoError(t, err)
	}

	var got []string
	for _, f := range p.Files() {
		got = append(got, f.Path)
	}
	assert.Equal(t, []string{"src/b.ts", "src/a.ts", "src/c.ts"}, got)
}

func TestProject_FindClassByTag(t *testing.T) {
	p, _ := newTestProject(t, map[string]string{
		"src/baz.ts": `import { Component, NgModule } from '@angular/core';

@Component({ selector: 'baz', template: '' })
export class BazComponent {}

@NgModule({ declarations: [BazComponent] })
export class BazComponent {}
`,
	})

	cmp := p.FindClass("src/baz.ts", "BazComponent", "Component")
	mod := p.FindClass("src/baz.ts", "BazComponent", "NgModule")
	require.NotNil(t, cmp)
	require.NotNil(t, mod)
	assert.NotEqual(t, cmp.Span, mod.Span)
	assert.Nil(t, p.FindClass("src/baz.ts", "BazComponent", "Pipe"))
	assert.Equal(t, cmp, p.FindClass("src/baz.ts", "BazComponent", ""))
}

func TestProject_IsListBinding(t *testing.T) {
	p, _ := newTestProject(t, map[string]string{
		"src/shared.ts": `export const SHARED = [AComponent, BComponent];
export const TYPED: Type<any>[] = build();
export const SINGLE = AComponent;
`,
		"src/mod.ts": `import { SHARED, TYPED as Renamed, SINGLE } from './shared';
const LOCAL = [CComponent] as const;
`,
	})

	assert.True(t, p.IsListBinding("src/mod.ts", "SHARED"))
	assert.True(t, p.IsListBinding("src/mod.ts", "Renamed"))
	assert.True(t, p.IsListBinding("src/mod.ts", "LOCAL"))
	assert.False(t, p.IsListBinding("src/mod.ts", "SINGLE"))
	assert.False(t, p.IsListBinding("src/mod.ts", "AComponent"))
}

func TestProject_GenerationAdvancesOnMutation(t *testing.T) {
	p, _ := newTestProject(t, map[string]string{
		"src/a.ts": "import { A, B } from './x';\n",
	})
	before := p.Generation()
	imp := p.File("src/a.ts").Syntax().Imports[0]
	require.NoError(t, p.RemoveImportSpecifiers("src/a.ts", []*parser.ImportSpecifier{imp.Specifiers[1]}))
	assert.Greater(t, p.Generation(), before)
	assert.Len(t, p.File("src/a.ts").Syntax().Imports[0].Specifiers, 1)
}

func TestApply_RejectsOverlappingModifications(t *testing.T) {
	p, _ := newTestProject(t, map[string]string{"src/a.ts": "const a = 1;\n"})
	err := p.apply("src/a.ts", []Modification{
		replaceSpan(parser.Span{Start: 0, End: 5}, "let"),
		replaceSpan(parser.Span{Start: 3, End: 8}, "x"),
	})
	require.Error(t, err)
	assert.Equal(t, "const a = 1;\n", fileText(t, p, "src/a.ts"))
}

func TestApply_InsertsAtSameOffsetKeepOrder(t *testing.T) {
	p, _ := newTestProject(t, map[string]string{"src/a.ts": "const a = 1;\n"})
	err := p.apply("src/a.ts", []Modification{
		insertAt(0, "// one\n"),
		insertAt(0, "// two\n"),
	})
	require.NoError(t, err)
	assert.Equal(t, "// one\n// two\nconst a = 1;\n", fileText(t, p, "src/a.ts"))
	assert.True(t, p.File("src/a.ts").Dirty())
}

func TestApply_RevertingEditClearsDirty(t *testing.T) {
	p, _ := newTestProject(t, map[string]string{"src/a.ts": "const a = 1;\n"})
	require.NoError(t, p.apply("src/a.ts", []Modification{replaceSpan(parser.Span{Start: 6, End: 7}, "b")}))
	require.True(t, p.File("src/a.ts").Dirty())
	require.NoError(t, p.apply("src/a.ts", []Modification{replaceSpan(parser.Span{Start: 6, End: 7}, "a")}))
	assert.False(t, p.File("src/a.ts").Dirty())
}
