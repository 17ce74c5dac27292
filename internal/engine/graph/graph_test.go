// # internal/engine/graph/graph_test.go
package graph

import (
	"reflect"
	"testing"

	"ngstandalone/internal/engine/enginetest"
)

func TestBuild_Chain(t *testing.T) {
	p, _ := enginetest.NewProject(t, enginetest.Chain())
	g := Build(p)

	wantCandidates := []string{"BarModule", "BazModule", "FooModule", "NetModule"}
	if got := g.CandidateNames(); !reflect.DeepEqual(got, wantCandidates) {
		t.Errorf("CandidateNames() = %v, want %v", got, wantCandidates)
	}

	wantConsumers := map[string][]string{
		"BarModule":     {"FooModule"},
		"BazModule":     {"NetModule"},
		"FooModule":     {"RootModule"},
		"NetModule":     {},
		"NopeComponent": {},
		"RootModule":    {},
	}
	for name, want := range wantConsumers {
		if got := g.ConsumerNames(name); !reflect.DeepEqual(got, want) {
			t.Errorf("ConsumerNames(%s) = %v, want %v", name, got, want)
		}
	}
	if len(g.Modules()) != len(wantConsumers) {
		t.Errorf("expected %d modules, got %v", len(wantConsumers), g.Modules())
	}
}

func TestBuild_ChainIndependentOfDeclarationOrder(t *testing.T) {
	// c.ts sorts first, so the consumer is seen before the module it uses.
	p, _ := enginetest.NewProject(t, map[string]string{
		"c.ts": `import { NgModule } from '@angular/core';
import { BModule } from './b';
@NgModule({ imports: [BModule] })
export class CModule {}
`,
		"b.ts": `import { NgModule } from '@angular/core';
import { AModule } from './a';
@NgModule({ imports: [AModule] })
export class BModule {}
`,
		"a.ts": `import { NgModule } from '@angular/core';
@NgModule({})
export class AModule {}
`,
	})
	g := Build(p)

	if got := g.ConsumerNames("AModule"); !reflect.DeepEqual(got, []string{"BModule"}) {
		t.Errorf("ConsumerNames(AModule) = %v", got)
	}
	if got := g.ConsumerNames("BModule"); !reflect.DeepEqual(got, []string{"CModule"}) {
		t.Errorf("ConsumerNames(BModule) = %v", got)
	}
}

func TestBuild_SkipsFilesWithoutMarker(t *testing.T) {
	p, _ := enginetest.NewProject(t, map[string]string{
		"a.ts": `import * as core from '@angular/core';
@core.NgModule({ declarations: [A], exports: [A] })
export class AModule {}
`,
	})
	g := Build(p)
	if len(g.Modules()) != 0 {
		t.Errorf("expected no modules, got %v", g.Modules())
	}
}

func TestIsPure(t *testing.T) {
	p, _ := enginetest.NewProject(t, enginetest.Chain())
	g := Build(p)

	tests := map[ModuleID]bool{
		{File: "bar.component.ts", Name: "BarModule"}: false,
		{File: "foo.component.ts", Name: "FooModule"}: false,
		{File: "baz.component.ts", Name: "BazModule"}: true,
		{File: "net.component.ts", Name: "NetModule"}: true,
		{File: "nowhere.ts", Name: "Unrecorded"}:      true,
	}
	for id, want := range tests {
		if got := g.IsPure(id); got != want {
			t.Errorf("IsPure(%s) = %v, want %v", id, got, want)
		}
	}

	chain, blocked := g.BlockingChain(ModuleID{File: "bar.component.ts", Name: "BarModule"})
	want := []ModuleID{
		{File: "bar.component.ts", Name: "BarModule"},
		{File: "foo.component.ts", Name: "FooModule"},
		{File: "root.module.ts", Name: "RootModule"},
	}
	if !blocked || !reflect.DeepEqual(chain, want) {
		t.Errorf("BlockingChain(BarModule) = %v, %v", chain, blocked)
	}
}

func TestIsPure_Cycles(t *testing.T) {
	g := newGraph()
	a := ModuleID{File: "a.ts", Name: "AModule"}
	b := ModuleID{File: "b.ts", Name: "BModule"}
	c := ModuleID{File: "c.ts", Name: "CModule"}
	g.addModule(a, []ModuleID{b})
	g.addModule(b, []ModuleID{a})
	g.addCandidate(a)
	g.addCandidate(b)

	if !g.IsPure(a) {
		t.Error("a cycle of candidates should be pure")
	}

	g.addModule(c, []ModuleID{c, a})
	if g.IsPure(c) {
		t.Error("a non-candidate consuming itself should be impure")
	}

	cycles := g.DetectCycles()
	if len(cycles) != 2 {
		t.Fatalf("expected 2 cycles, got %v", cycles)
	}
	if !reflect.DeepEqual(cycles[0], []ModuleID{a, b}) {
		t.Errorf("unexpected first cycle %v", cycles[0])
	}
}

func TestCollisions(t *testing.T) {
	p, _ := enginetest.NewProject(t, map[string]string{
		"one/shared.module.ts": `import { NgModule } from '@angular/core';
@NgModule({ declarations: [A], exports: [A] })
export class SharedModule {}
`,
		"two/shared.module.ts": `import { NgModule } from '@angular/core';
import { SharedModule as One } from '../one/shared.module';
@NgModule({ imports: [One] })
export class SharedModule {}
`,
	})
	g := Build(p)

	collisions := g.Collisions()
	ids, ok := collisions["SharedModule"]
	if !ok || len(ids) != 2 {
		t.Fatalf("expected SharedModule collision, got %v", collisions)
	}

	first := ModuleID{File: "one/shared.module.ts", Name: "SharedModule"}
	second := ModuleID{File: "two/shared.module.ts", Name: "SharedModule"}
	consumers, _ := g.Consumers(first)
	if !reflect.DeepEqual(consumers, []ModuleID{second}) {
		t.Errorf("Consumers(%s) = %v", first, consumers)
	}
	if !g.IsCandidate(first) || g.IsCandidate(second) {
		t.Error("only the first SharedModule is eligible")
	}
	// Qualified keys keep the two modules apart, so the first one is blocked
	// by the second rather than treated as consuming itself.
	if g.IsPure(first) {
		t.Error("first SharedModule is consumed by a non-candidate")
	}
}
