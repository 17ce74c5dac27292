package parser

import "testing"

func FuzzTypeScriptParser(f *testing.F) {
	f.Add([]byte(`import { NgModule } from '@angular/core';
@NgModule({ declarations: [A], imports: [...SHARED] })
export class AModule {}`))
	f.Add([]byte(`@Component({ selector: 'x' }) class X {}`))
	f.Add([]byte(`export { A as B } from './a'; export * from './b';`))

	p := NewParser()
	f.Fuzz(func(t *testing.T, data []byte) {
		file, err := p.ParseFile("fuzz.ts", data)
		if err != nil {
			return
		}
		for _, occ := range file.Occurrences {
			if occ.Span.Start < 0 || occ.Span.End > len(data) || occ.Span.Start > occ.Span.End {
				t.Fatalf("occurrence %q has span %v outside a %d byte source", occ.Name, occ.Span, len(data))
			}
		}
	})
}
