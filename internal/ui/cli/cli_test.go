package cli

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coreapp "ngstandalone/internal/core/app"
	"ngstandalone/internal/core/config"
	"ngstandalone/internal/core/ports"
	"ngstandalone/internal/engine/enginetest"
	"ngstandalone/internal/engine/graph"
	"ngstandalone/internal/engine/ngmodule"
	"ngstandalone/internal/engine/rewrite"
)

func TestParseOptions(t *testing.T) {
	opts, err := parseOptions(nil, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, config.DefaultPath, opts.configPath)
	assert.False(t, opts.configExplicit)

	opts, err = parseOptions([]string{"-config", "ng.toml", "-dry-run", "-imports-conflict", "append", "-history", "3"}, &bytes.Buffer{})
	require.NoError(t, err)
	assert.True(t, opts.configExplicit)
	assert.Equal(t, 3, opts.history)

	cfg := config.Default()
	applyOverrides(opts, cfg)
	assert.True(t, cfg.DryRun)
	assert.Equal(t, "append", cfg.Rewrite.ImportsConflict)

	_, err = parseOptions([]string{"-unknown"}, &bytes.Buffer{})
	assert.Error(t, err)
}

func TestPromptModel(t *testing.T) {
	m := newPromptModel("tsconfig.json")
	for _, r := range "apps/web/tsconfig.app.json" {
		updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
		m = updated.(promptModel)
	}
	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = updated.(promptModel)
	assert.Equal(t, "apps/web/tsconfig.app.json", m.value)
	assert.NotNil(t, cmd)

	updated, _ = newPromptModel("tsconfig.json").Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, "tsconfig.json", updated.(promptModel).value)

	updated, _ = newPromptModel("tsconfig.json").Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.True(t, updated.(promptModel).cancelled)
	assert.Empty(t, updated.(promptModel).View())
}

func fakePhases(calls *[]string, failAt string) []ports.Phase {
	var phases []ports.Phase
	for _, name := range []string{"load", "analyze", "rewrite", "write"} {
		name := name
		phases = append(phases, ports.Phase{Name: name, Run: func(context.Context) error {
			*calls = append(*calls, name)
			if name == failAt {
				return errors.New(name + " broke")
			}
			return nil
		}})
	}
	return phases
}

func TestProgressModel(t *testing.T) {
	var calls []string
	m := newProgressModel(context.Background(), fakePhases(&calls, "rewrite"))
	assert.Equal(t, phaseRunning, m.states[0])

	msg := m.runPhase(0)()
	updated, cmd := m.Update(msg)
	m = updated.(progressModel)
	assert.Equal(t, []phaseState{phaseDone, phaseRunning, phasePending, phasePending}, m.states)
	require.NotNil(t, cmd)

	updated, _ = m.Update(cmd())
	m = updated.(progressModel)
	updated, _ = m.Update(m.runPhase(2)())
	m = updated.(progressModel)

	assert.Equal(t, []string{"load", "analyze", "rewrite"}, calls)
	assert.Equal(t, []phaseState{phaseDone, phaseDone, phaseFailed, phaseAborted}, m.states)
	assert.EqualError(t, m.err, "rewrite broke")
	assert.Error(t, m.ctx.Err(), "a failure cancels the remaining work")

	view := m.View()
	assert.Contains(t, view, "✓ load")
	assert.Contains(t, view, "✗ rewrite")
	assert.Contains(t, view, "- write")
}

func TestProgressModel_CtrlCCancels(t *testing.T) {
	var calls []string
	m := newProgressModel(context.Background(), fakePhases(&calls, ""))
	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	assert.Error(t, updated.(progressModel).ctx.Err())
}

func TestRunPlain(t *testing.T) {
	var calls []string
	var out bytes.Buffer
	err := runPlain(context.Background(), &out, fakePhases(&calls, "analyze"))
	assert.EqualError(t, err, "analyze broke")
	assert.Equal(t, []string{"load", "analyze"}, calls)
	assert.Contains(t, out.String(), "load     ok")
	assert.Contains(t, out.String(), "analyze  failed")
}

func TestRenderSummary(t *testing.T) {
	baz := graph.ModuleID{File: "baz.component.ts", Name: "BazModule"}
	bar := graph.ModuleID{File: "bar.component.ts", Name: "BarModule"}
	out := renderSummary(coreapp.Result{
		TSConfig:       "tsconfig.json",
		FileCount:      6,
		ModuleCount:    6,
		CandidateCount: 4,
		FilesWritten:   1,
		Report: rewrite.Report{
			Converted: []rewrite.Conversion{{Module: baz, Artifact: "BazComponent", Kind: ngmodule.KindComponent, CarriedImports: []string{"CommonModule"}}},
			Skipped:   []rewrite.Skip{{Module: bar, Reason: rewrite.SkipImpure, Detail: "consumed by FooModule"}},
		},
		Collisions: map[string][]graph.ModuleID{"SharedModule": {{File: "a.ts"}, {File: "b.ts"}}},
		Cycles:     [][]graph.ModuleID{{{File: "a.ts", Name: "AModule"}, {File: "b.ts", Name: "BModule"}}},
	})

	assert.Contains(t, out, "tsconfig.json: 6 files, 6 modules, 4 candidates")
	assert.Contains(t, out, "BazModule -> BazComponent (component) imports [CommonModule]")
	assert.Contains(t, out, "BarModule: impure (consumed by FooModule)")
	assert.Contains(t, out, "SharedModule is declared in a.ts, b.ts")
	assert.Contains(t, out, "cycle: AModule -> BModule -> AModule")
	assert.Contains(t, out, "1 files written")

	assert.Contains(t, renderSummary(coreapp.Result{DryRun: true}), "dry run: no files written")
	assert.Contains(t, renderHistory(nil), "no recorded runs")
}

func writeProject(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files := enginetest.Chain()
	files["tsconfig.json"] = `{ "include": ["**/*.ts"] }`
	files[config.DefaultPath] = "[history]\npath = \"state/history.db\"\n"
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	return dir
}

func TestRun_EndToEnd(t *testing.T) {
	dir := writeProject(t)
	args := []string{"-config", filepath.Join(dir, config.DefaultPath)}

	var out, errOut bytes.Buffer
	code := run(args, streams{in: strings.NewReader(""), out: &out, errOut: &errOut})
	require.Equal(t, 0, code, errOut.String())

	baz, err := os.ReadFile(filepath.Join(dir, "baz.component.ts"))
	require.NoError(t, err)
	assert.Equal(t, enginetest.ConvertedBaz, string(baz))
	foo, err := os.ReadFile(filepath.Join(dir, "foo.component.ts"))
	require.NoError(t, err)
	assert.Equal(t, enginetest.Chain()["foo.component.ts"], string(foo))
	assert.Contains(t, errOut.String(), "BazModule -> BazComponent")
	assert.Empty(t, out.String())

	out.Reset()
	code = run(append(args, "-history", "5"), streams{in: strings.NewReader(""), out: &out, errOut: &errOut})
	require.Equal(t, 0, code)
	assert.Contains(t, out.String(), "Last 1 runs")
	assert.Contains(t, out.String(), "converted=2 skipped=2 written=2")
}

func TestRun_DryRun(t *testing.T) {
	dir := writeProject(t)
	diffPath := filepath.Join(dir, "out", "changes.diff")
	args := []string{"-config", filepath.Join(dir, config.DefaultPath), "-dry-run", "-diff-out", diffPath}

	var out, errOut bytes.Buffer
	code := run(args, streams{in: strings.NewReader(""), out: &out, errOut: &errOut})
	require.Equal(t, 0, code, errOut.String())

	baz, err := os.ReadFile(filepath.Join(dir, "baz.component.ts"))
	require.NoError(t, err)
	assert.Equal(t, enginetest.BazFile, string(baz))

	diff, err := os.ReadFile(diffPath)
	require.NoError(t, err)
	assert.Contains(t, string(diff), "+      standalone: true,\n")
	assert.Contains(t, errOut.String(), "dry run: no files written")
}

func TestRun_Failures(t *testing.T) {
	var out, errOut bytes.Buffer
	s := streams{in: strings.NewReader(""), out: &out, errOut: &errOut}

	assert.Equal(t, 1, run([]string{"-config", filepath.Join(t.TempDir(), "missing.toml")}, s))
	badConfig := filepath.Join(t.TempDir(), config.DefaultPath)
	require.NoError(t, os.WriteFile(badConfig, []byte("[format]\nindent_size = 0\n"), 0o644))
	assert.Equal(t, 2, run([]string{"-config", badConfig}, s))
	assert.Contains(t, errOut.String(), "path="+badConfig)
	assert.Equal(t, 2, run([]string{"-config", filepath.Join(writeProject(t), config.DefaultPath), "-imports-conflict", "replace"}, s))
	assert.Equal(t, 1, run([]string{"-config", filepath.Join(writeProject(t), config.DefaultPath), "-project", "nope/tsconfig.json"}, s))
	assert.Equal(t, 0, run([]string{"-version"}, s))
	assert.Contains(t, out.String(), "ngstandalone v")
}
