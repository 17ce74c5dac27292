// # internal/engine/graph/graph.go
package graph

import (
	"log/slog"
	"sort"

	"ngstandalone/internal/engine/ngmodule"
	"ngstandalone/internal/engine/source"
	"ngstandalone/internal/shared/observability"
)

// ModuleID qualifies an NgModule class by the file declaring it.
type ModuleID struct {
	File string
	Name string
}

func (id ModuleID) String() string { return id.File + "#" + id.Name }

// Graph holds every NgModule of a project, the eligible ones, and for each
// module the modules whose decorator metadata references it.
type Graph struct {
	modules    []ModuleID
	candidates []ModuleID
	eligible   map[ModuleID]bool
	consumers  map[ModuleID][]ModuleID
}

func newGraph() *Graph {
	return &Graph{
		eligible:  make(map[ModuleID]bool),
		consumers: make(map[ModuleID][]ModuleID),
	}
}

// Build scans the project for NgModule classes. Only files mentioning
// @NgModule are inspected.
func Build(p *source.Project) *Graph {
	g := newGraph()
	marker := "@" + ngmodule.ModuleDecorator
	for _, f := range p.Files() {
		if !f.Contains(marker) {
			continue
		}
		for _, cls := range f.Classes() {
			dec := ngmodule.ModuleDecoratorOf(cls)
			if dec == nil {
				continue
			}
			id := ModuleID{File: f.Path, Name: cls.Name}

			consumers := make([]ModuleID, 0)
			for _, ref := range p.FindReferences(source.DeclKey{File: f.Path, Name: cls.Name}) {
				if !ref.InDecorator(ngmodule.ModuleDecorator) {
					continue
				}
				consumer := ModuleID{File: ref.File, Name: ref.EnclosingClass()}
				if consumer == id {
					continue
				}
				consumers = append(consumers, consumer)
			}
			g.addModule(id, consumers)

			if ngmodule.IsEligible(f.Path, dec, p) {
				g.addCandidate(id)
			}
		}
	}

	observability.ModulesScanned.Add(float64(len(g.modules)))
	observability.CandidatesFound.Add(float64(len(g.candidates)))
	slog.Info("module graph built", "modules", len(g.modules), "candidates", len(g.candidates))
	for name, ids := range g.Collisions() {
		slog.Warn("module name declared in several files", "module", name, "count", len(ids))
	}
	return g
}

func (g *Graph) addModule(id ModuleID, consumers []ModuleID) {
	if _, seen := g.consumers[id]; !seen {
		g.modules = append(g.modules, id)
	}
	g.consumers[id] = consumers
}

func (g *Graph) addCandidate(id ModuleID) {
	if g.eligible[id] {
		return
	}
	g.eligible[id] = true
	g.candidates = append(g.candidates, id)
}

// Modules returns every NgModule in discovery order.
func (g *Graph) Modules() []ModuleID { return append([]ModuleID(nil), g.modules...) }

// Candidates returns the eligible modules in discovery order.
func (g *Graph) Candidates() []ModuleID { return append([]ModuleID(nil), g.candidates...) }

func (g *Graph) IsCandidate(id ModuleID) bool { return g.eligible[id] }

// Consumers returns the recorded direct consumers of id. The second result
// is false when id was never recorded.
func (g *Graph) Consumers(id ModuleID) ([]ModuleID, bool) {
	c, ok := g.consumers[id]
	return c, ok
}

// IsPure reports whether every transitive consumer of id is a candidate.
// A module without recorded consumers is pure.
func (g *Graph) IsPure(id ModuleID) bool {
	_, blocked := g.BlockingChain(id)
	return !blocked
}

// CandidateNames lists candidate class names in discovery order.
func (g *Graph) CandidateNames() []string {
	out := make([]string, 0, len(g.candidates))
	for _, id := range g.candidates {
		out = append(out, id.Name)
	}
	return out
}

// ConsumerNames lists the consumer class names of every module called name.
func (g *Graph) ConsumerNames(name string) []string {
	out := make([]string, 0)
	for _, id := range g.modules {
		if id.Name != name {
			continue
		}
		for _, c := range g.consumers[id] {
			out = append(out, c.Name)
		}
	}
	return out
}

// Collisions returns bare module names declared by more than one module.
func (g *Graph) Collisions() map[string][]ModuleID {
	byName := make(map[string][]ModuleID)
	for _, id := range g.modules {
		byName[id.Name] = append(byName[id.Name], id)
	}
	out := make(map[string][]ModuleID)
	for name, ids := range byName {
		if len(ids) > 1 {
			sort.Slice(ids, func(i, j int) bool { return ids[i].File < ids[j].File })
			out[name] = ids
		}
	}
	return out
}
