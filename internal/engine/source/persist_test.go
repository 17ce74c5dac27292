package source

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ngstandalone/internal/core/errors"
	"ngstandalone/internal/engine/parser"
)

func TestFlush_WritesOnlyDirtyFiles(t *testing.T) {
	p, storage := newTestProject(t, map[string]string{
		"src/a.ts": "import { A, B } from './x';\n",
		"src/b.ts": "import { C } from './x';\n",
	})
	imp := p.File("src/a.ts").Syntax().Imports[0]
	require.NoError(t, p.RemoveImportSpecifiers("src/a.ts", []*parser.ImportSpecifier{imp.Specifiers[1]}))

	written, err := p.Flush()
	require.NoError(t, err)
	assert.Equal(t, 1, written)
	assert.Equal(t, []string{"src/a.ts"}, storage.Writes())

	content, ok := storage.Get("src/a.ts")
	require.True(t, ok)
	assert.Equal(t, "import { A } from './x';\n", content)
	assert.False(t, p.File("src/a.ts").Dirty())

	written, err = p.Flush()
	require.NoError(t, err)
	assert.Zero(t, written)
}

func TestFlush_StopsAtFirstFailure(t *testing.T) {
	p, storage := newTestProject(t, map[string]string{
		"src/a.ts": "const a = 1;\n",
		"src/b.ts": "const b = 1;\n",
		"src/c.ts": "const c = 1;\n",
	})
	for _, path := range []string{"src/a.ts", "src/b.ts", "src/c.ts"} {
		require.NoError(t, p.apply(path, []Modification{insertAt(0, "// edited\n")}))
	}
	storage.FailWrites("src/b.ts", fmt.Errorf("disk full"))

	written, err := p.Flush()
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeIO))
	assert.Contains(t, err.Error(), "src/b.ts")
	assert.Equal(t, 1, written)
	assert.Equal(t, []string{"src/a.ts"}, storage.Writes())
	assert.True(t, p.File("src/b.ts").Dirty())
}

func TestDiff(t *testing.T) {
	p, _ := newTestProject(t, map[string]string{
		"src/a.ts": "import { A, B } from './x';\n\nexport const list = [A, B];\n",
		"src/b.ts": "const untouched = 1;\n",
	})
	imp := p.File("src/a.ts").Syntax().Imports[0]
	require.NoError(t, p.RemoveImportSpecifiers("src/a.ts", []*parser.ImportSpecifier{imp.Specifiers[1]}))

	diff, err := p.Diff()
	require.NoError(t, err)
	assert.Contains(t, diff, "--- a/src/a.ts")
	assert.Contains(t, diff, "+++ b/src/a.ts")
	assert.Contains(t, diff, "-import { A, B } from './x';")
	assert.Contains(t, diff, "+import { A } from './x';")
	assert.NotContains(t, diff, "src/b.ts")
}

func TestDiskStorage_PreservesMode(t *testing.T) {
	dir := t.TempDir()
	path := filepath.ToSlash(filepath.Join(dir, "a.ts"))
	require.NoError(t, os.WriteFile(path, []byte("old"), 0o600))

	require.NoError(t, DiskStorage{}.WriteFile(path, []byte("new")))
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	created := filepath.ToSlash(filepath.Join(dir, "nested", "b.ts"))
	require.NoError(t, DiskStorage{}.WriteFile(created, []byte("x")))
	info, err = os.Stat(created)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o644), info.Mode().Perm())
}

func TestDiskStorage_WalkSkipsDirectories(t *testing.T) {
	dir := t.TempDir()
	for _, rel := range []string{"src/a.ts", "node_modules/lib/index.ts", "src/deep/b.ts"} {
		full := filepath.Join(dir, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte(""), 0o644))
	}

	files, err := DiskStorage{}.Walk(filepath.ToSlash(dir), func(name string) bool { return name == "node_modules" })
	require.NoError(t, err)
	var rel []string
	for _, f := range files {
		rel = append(rel, strings.TrimPrefix(f, filepath.ToSlash(dir)+"/"))
	}
	assert.ElementsMatch(t, []string{"src/a.ts", "src/deep/b.ts"}, rel)
}
