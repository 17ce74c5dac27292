package rewrite

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ngstandalone/internal/engine/enginetest"
	"ngstandalone/internal/engine/graph"
	"ngstandalone/internal/engine/ngmodule"
	"ngstandalone/internal/engine/source"
)

func run(t *testing.T, p *source.Project, opts Options) Report {
	t.Helper()
	report, err := New(p, opts).Run(context.Background(), graph.Build(p))
	require.NoError(t, err)
	return report
}

func text(t *testing.T, p *source.Project, path string) string {
	t.Helper()
	f := p.File(path)
	require.NotNil(t, f, path)
	return f.Text()
}

func TestRun_ChainScenario(t *testing.T) {
	files := enginetest.Chain()
	p, _ := enginetest.NewProject(t, files)

	report := run(t, p, Options{})

	require.Len(t, report.Converted, 2)
	assert.Equal(t, "BazComponent", report.Converted[0].Artifact)
	assert.Equal(t, ngmodule.KindComponent, report.Converted[0].Kind)
	assert.Equal(t, []string{"CommonModule"}, report.Converted[0].CarriedImports)
	assert.Equal(t, "NetComponent", report.Converted[1].Artifact)
	assert.Equal(t, []string{"CommonModule", "BazComponent"}, report.Converted[1].CarriedImports)

	require.Len(t, report.Skipped, 2)
	assert.Equal(t, "BarModule", report.Skipped[0].Module.Name)
	assert.Equal(t, SkipImpure, report.Skipped[0].Reason)
	assert.Equal(t, "consumed by FooModule <- RootModule", report.Skipped[0].Detail)
	assert.Equal(t, "FooModule", report.Skipped[1].Module.Name)
	assert.Equal(t, SkipImpure, report.Skipped[1].Reason)

	assert.Equal(t, enginetest.ConvertedBaz, text(t, p, "baz.component.ts"))
	assert.Equal(t, enginetest.ConvertedNet, text(t, p, "net.component.ts"))
	for _, path := range []string{"root.module.ts", "foo.component.ts", "bar.component.ts", "component-not-aim.ts"} {
		assert.Equal(t, files[path], text(t, p, path), path)
		assert.False(t, p.File(path).Dirty(), path)
	}
}

func TestRun_DeduplicatesImportSpecifiers(t *testing.T) {
	p, _ := enginetest.NewProject(t, map[string]string{
		"baz.component.ts": enginetest.BazFile,
		"net.component.ts": `
    import { NgModule, Component } from '@angular/core';
    import { CommonModule } from '@angular/common';
    import { BazModule, BazComponent } from './baz.component';

    @Component({
      template: '',
      selector: ''
    })
    class NetComponent {
        boo(comp: BazComponent) {}
     }

    @NgModule({
      imports: [CommonModule, BazModule],
      declarations: [NetComponent],
      exports: [NetComponent]
    })
    export class NetModule { }
    `,
	})

	report := run(t, p, Options{})
	require.Len(t, report.Converted, 2)

	assert.Equal(t, `
    import { Component } from '@angular/core';
    import { CommonModule } from '@angular/common';
    import { BazComponent } from './baz.component';

    @Component({
      template: '',
      selector: '',
      standalone: true,
      imports: [CommonModule, BazComponent]
    })
    class NetComponent {
        boo(comp: BazComponent) {}
     }

    `, text(t, p, "net.component.ts"))
	assert.Equal(t, enginetest.ConvertedBaz, text(t, p, "baz.component.ts"))
}

func TestRun_MismatchedModuleUntouched(t *testing.T) {
	src := `import { NgModule, Component } from '@angular/core';

@Component({ template: '' })
export class AComponent {}

@NgModule({ declarations: [AComponent], exports: [AComponent, Undeclared] })
export class AModule {}
`
	p, _ := enginetest.NewProject(t, map[string]string{"a.ts": src})

	report := run(t, p, Options{})
	assert.Empty(t, report.Converted)
	assert.Empty(t, report.Skipped)
	assert.Equal(t, src, text(t, p, "a.ts"))
}

func TestRun_ImportsOnlyForComponents(t *testing.T) {
	p, _ := enginetest.NewProject(t, map[string]string{
		"dir.ts": `import { NgModule, Directive } from '@angular/core';
import { CommonModule } from '@angular/common';

@Directive({ selector: '[hl]' })
export class HighlightDirective {}

@NgModule({ imports: [CommonModule], declarations: [HighlightDirective], exports: [HighlightDirective] })
export class HighlightModule {}
`,
		"pipe.ts": `import { NgModule, Pipe } from '@angular/core';

@Pipe({ name: 'short' })
export class ShortPipe {}

@NgModule({ imports: [CommonModule], declarations: [ShortPipe], exports: [ShortPipe] })
export class ShortModule {}
`,
		"view.ts": `import { NgModule, Component } from '@angular/core';

@Component({ template: '' })
export class ViewComponent {}

@NgModule({ imports: [], declarations: [ViewComponent], exports: [ViewComponent] })
export class ViewModule {}
`,
	})

	report := run(t, p, Options{})
	require.Len(t, report.Converted, 3)

	assert.Equal(t, `import { Directive } from '@angular/core';
import { CommonModule } from '@angular/common';

@Directive({ selector: '[hl]', standalone: true })
export class HighlightDirective {}

`, text(t, p, "dir.ts"))
	assert.Equal(t, `import { Pipe } from '@angular/core';

@Pipe({ name: 'short', standalone: true })
export class ShortPipe {}

`, text(t, p, "pipe.ts"))
	assert.Equal(t, `import { Component } from '@angular/core';

@Component({ template: '', standalone: true })
export class ViewComponent {}

`, text(t, p, "view.ts"))
}

const existingImports = `import { NgModule, Component } from '@angular/core';
import { CommonModule } from '@angular/common';
import { SharedThing } from './shared';

@Component({
  selector: 'x',
  imports: [SharedThing],
})
export class XComponent {}

@NgModule({
  imports: [CommonModule, SharedThing],
  declarations: [XComponent],
  exports: [XComponent],
})
export class XModule {}
`

func TestRun_ExistingImportsMerge(t *testing.T) {
	p, _ := enginetest.NewProject(t, map[string]string{"x.ts": existingImports})
	report := run(t, p, Options{ImportsMode: ImportsMerge})
	require.Len(t, report.Converted, 1)

	assert.Equal(t, `import { Component } from '@angular/core';
import { CommonModule } from '@angular/common';
import { SharedThing } from './shared';

@Component({
  selector: 'x',
  imports: [SharedThing, CommonModule],
  standalone: true,
})
export class XComponent {}

`, text(t, p, "x.ts"))
}

func TestRun_ExistingImportsAppend(t *testing.T) {
	p, _ := enginetest.NewProject(t, map[string]string{"x.ts": existingImports})
	report := run(t, p, Options{ImportsMode: ImportsAppend})
	require.Len(t, report.Converted, 1)

	assert.Contains(t, text(t, p, "x.ts"), `@Component({
  selector: 'x',
  imports: [SharedThing],
  standalone: true,
  imports: [CommonModule, SharedThing],
})`)
}

func TestRun_ArtifactInAnotherFile(t *testing.T) {
	src := `import { NgModule } from '@angular/core';
import { OtherComponent } from './other';

@NgModule({ declarations: [OtherComponent], exports: [OtherComponent] })
export class OtherModule {}
`
	p, _ := enginetest.NewProject(t, map[string]string{
		"module.ts": src,
		"other.ts":  "import { Component } from '@angular/core';\n\n@Component({ template: '' })\nexport class OtherComponent {}\n",
	})

	report := run(t, p, Options{})
	require.Len(t, report.Skipped, 1)
	assert.Equal(t, SkipArtifactNotFound, report.Skipped[0].Reason)
	assert.Equal(t, "OtherComponent", report.Skipped[0].Detail)
	assert.Equal(t, src, text(t, p, "module.ts"))
	assert.False(t, p.File("other.ts").Dirty())
}

func TestRun_UnsupportedArtifactMetadata(t *testing.T) {
	src := `import { NgModule, Component } from '@angular/core';

@Component(CONFIG)
export class AComponent {}

@NgModule({ declarations: [AComponent], exports: [AComponent] })
export class AModule {}
`
	p, _ := enginetest.NewProject(t, map[string]string{"a.ts": src})

	report := run(t, p, Options{})
	require.Len(t, report.Skipped, 1)
	assert.Equal(t, SkipUnsupportedMetadata, report.Skipped[0].Reason)
	assert.Equal(t, src, text(t, p, "a.ts"))
}

func TestRun_KeepsFrameworkImportForRemainingModules(t *testing.T) {
	p, _ := enginetest.NewProject(t, map[string]string{
		"a.ts": `import { NgModule, Component } from '@angular/core';

@Component({ template: '' })
export class AComponent {}

@NgModule({ declarations: [AComponent], exports: [AComponent] })
export class AModule {}

@NgModule({ providers: [] })
export class ShellModule {}
`,
	})

	report := run(t, p, Options{})
	require.Len(t, report.Converted, 1)
	assert.Equal(t, `import { NgModule, Component } from '@angular/core';

@Component({ template: '', standalone: true })
export class AComponent {}


@NgModule({ providers: [] })
export class ShellModule {}
`, text(t, p, "a.ts"))
}

func TestRun_StopsOnCancelledContext(t *testing.T) {
	p, _ := enginetest.NewProject(t, enginetest.Chain())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(p, Options{}).Run(ctx, graph.Build(p))
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, p.DirtyFiles())
}

const bazEligible = `import { NgModule, Component } from '@angular/core';

@Component({ template: '' })
export class BazComponent {}

@NgModule({ declarations: [BazComponent], exports: [BazComponent] })
export class BazModule {}
`

func TestRun_NamespaceConsumerBlocks(t *testing.T) {
	root := `import { NgModule } from '@angular/core';
import * as baz from './baz';

@NgModule({ imports: [baz.BazModule] })
export class RootModule {}
`
	p, _ := enginetest.NewProject(t, map[string]string{"baz.ts": bazEligible, "root.ts": root})
	g := graph.Build(p)

	consumers, ok := g.Consumers(graph.ModuleID{File: "baz.ts", Name: "BazModule"})
	require.True(t, ok)
	assert.Equal(t, []graph.ModuleID{{File: "root.ts", Name: "RootModule"}}, consumers)

	report := run(t, p, Options{})
	assert.Empty(t, report.Converted)
	require.Len(t, report.Skipped, 1)
	assert.Equal(t, SkipImpure, report.Skipped[0].Reason)
	assert.Equal(t, "consumed by RootModule", report.Skipped[0].Detail)
	assert.Equal(t, bazEligible, text(t, p, "baz.ts"))
	assert.Equal(t, root, text(t, p, "root.ts"))
}

func TestRun_NamespaceUseOutsideModulesRenamed(t *testing.T) {
	p, _ := enginetest.NewProject(t, map[string]string{
		"baz.ts": bazEligible,
		"shell.ts": `import { Component } from '@angular/core';
import * as baz from './baz';

@Component({ standalone: true, imports: [baz.BazModule], template: '' })
export class ShellComponent {}
`,
	})

	report := run(t, p, Options{})
	require.Len(t, report.Converted, 1)
	assert.Equal(t, `import { Component } from '@angular/core';
import * as baz from './baz';

@Component({ standalone: true, imports: [baz.BazComponent], template: '' })
export class ShellComponent {}
`, text(t, p, "shell.ts"))
}

func TestRun_DefaultImportConsumerBlocks(t *testing.T) {
	baz := strings.Replace(bazEligible, "export class BazModule", "export default class BazModule", 1)
	root := `import { NgModule } from '@angular/core';
import BazModule from './baz';

@NgModule({ imports: [BazModule] })
export class RootModule {}
`
	p, _ := enginetest.NewProject(t, map[string]string{"baz.ts": baz, "root.ts": root})

	consumers, _ := graph.Build(p).Consumers(graph.ModuleID{File: "baz.ts", Name: "BazModule"})
	assert.Equal(t, []graph.ModuleID{{File: "root.ts", Name: "RootModule"}}, consumers)

	report := run(t, p, Options{})
	assert.Empty(t, report.Converted)
	require.Len(t, report.Skipped, 1)
	assert.Equal(t, SkipImpure, report.Skipped[0].Reason)
	assert.Equal(t, baz, text(t, p, "baz.ts"))
	assert.Equal(t, root, text(t, p, "root.ts"))
}

func TestRun_DefaultExportedModuleSkipped(t *testing.T) {
	for name, baz := range map[string]string{
		"declaration": strings.Replace(bazEligible, "export class BazModule", "export default class BazModule", 1),
		"statement":   bazEligible + "export default BazModule;\n",
	} {
		t.Run(name, func(t *testing.T) {
			p, _ := enginetest.NewProject(t, map[string]string{"baz.ts": baz})

			report := run(t, p, Options{})
			assert.Empty(t, report.Converted)
			require.Len(t, report.Skipped, 1)
			assert.Equal(t, SkipDefaultExport, report.Skipped[0].Reason)
			assert.Equal(t, baz, text(t, p, "baz.ts"))
		})
	}
}

func TestRun_NonLiteralModuleImports(t *testing.T) {
	src := `import { NgModule, Component } from '@angular/core';

const SHARED = [CommonModule];

@Component({ template: '' })
export class AComponent {}

@NgModule({ imports: SHARED, declarations: [AComponent], exports: [AComponent] })
export class AModule {}
`
	p, _ := enginetest.NewProject(t, map[string]string{"a.ts": src})

	report := run(t, p, Options{})
	assert.Empty(t, report.Converted)
	require.Len(t, report.Skipped, 1)
	assert.Equal(t, SkipUnsupportedMetadata, report.Skipped[0].Reason)
	assert.Equal(t, "module imports is not an array literal", report.Skipped[0].Detail)
	assert.Equal(t, src, text(t, p, "a.ts"))
	assert.False(t, p.File("a.ts").Dirty())
}
