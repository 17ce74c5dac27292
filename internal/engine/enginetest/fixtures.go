// Package enginetest holds project fixtures shared by the engine tests.
package enginetest

import (
	"testing"

	"ngstandalone/internal/engine/source"
	"ngstandalone/internal/shared/util"
)

// NewProject loads files into an in-memory project in sorted path order.
func NewProject(t testing.TB, files map[string]string) (*source.Project, *source.MemoryStorage) {
	t.Helper()
	storage := source.NewMemoryStorage()
	p := source.NewProject(storage, source.Options{})
	for _, path := range util.SortedStringKeys(files) {
		storage.Put(path, files[path])
		if _, err := p.LoadFile(path); err != nil {
			t.Fatalf("load %s: %v", path, err)
		}
	}
	return p, storage
}

// Chain is RootModule -> FooModule -> BarModule, where "->" means imports,
// plus BazModule imported by NetModule and a module declaring two artifacts.
func Chain() map[string]string {
	return map[string]string{
		"root.module.ts": `
    import { NgModule } from '@angular/core';
    import { FooModule } from './foo.component';

    @NgModule({
      imports: [FooModule]
    })
    export class RootModule { }
  `,
		"foo.component.ts": `
    import { NgModule, Component } from '@angular/core';
    import { CommonModule } from '@angular/common';
    import { BarModule } from './bar.component';

    @Component({
      template: '',
      selector: ''
    })
    class FooComponent { }

    // consumed by RootModule, which is not convertible
    @NgModule({
      imports: [CommonModule, BarModule],
      declarations: [FooComponent],
      exports: [FooComponent]
    })
    export class FooModule { }
    `,
		"bar.component.ts": BarFile,
		"baz.component.ts": BazFile,
		"net.component.ts": NetFile,
		"component-not-aim.ts": `
    import { NgModule, Component } from '@angular/core';
    import { CommonModule } from '@angular/common';

    @Component({
      template: '',
      selector: ''
    })
    class NopeComponent { }

    @NgModule({
      imports: [CommonModule],
      declarations: [NopeComponent, BlaComponent],
      exports: [NopeComponent, BlaComponent]
    })
    class NopeComponent { }
    `,
	}
}

const BarFile = `
    import { NgModule, Component } from '@angular/core';
    import { CommonModule } from '@angular/common';

    @Component({
      template: '',
      selector: ''
    })
    class BarComponent { }

    // consumed by FooModule only
    @NgModule({
      imports: [CommonModule],
      declarations: [BarComponent],
      exports: [BarComponent]
    })
    export class BarModule { }
    `

const BazFile = `

    import { NgModule, Component } from '@angular/core';
    import { CommonModule } from '@angular/common';

    @Component({
      template: '',
      selector: ''
    })
    class BazComponent { }

    // convertible
    @NgModule({
      imports: [CommonModule],
      declarations: [BazComponent],
      exports: [BazComponent]
    })
    export class BazModule { }
    `

const NetFile = `
    import { NgModule, Component } from '@angular/core';
    import { CommonModule } from '@angular/common';
    import { BazModule } from './baz.component';

    @Component({
      template: '',
      selector: ''
    })
    class NetComponent { }

    // convertible
    @NgModule({
      imports: [CommonModule, BazModule],
      declarations: [NetComponent],
      exports: [NetComponent]
    })
    export class NetModule { }
    `

// ConvertedBaz and ConvertedNet are BazFile and NetFile after conversion.
const ConvertedBaz = `

    import { Component } from '@angular/core';
    import { CommonModule } from '@angular/common';

    @Component({
      template: '',
      selector: '',
      standalone: true,
      imports: [CommonModule]
    })
    class BazComponent { }

    // convertible
    `

const ConvertedNet = `
    import { Component } from '@angular/core';
    import { CommonModule } from '@angular/common';
    import { BazComponent } from './baz.component';

    @Component({
      template: '',
      selector: '',
      standalone: true,
      imports: [CommonModule, BazComponent]
    })
    class NetComponent { }

    // convertible
    `
