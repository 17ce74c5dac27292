package parser

import (
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// NodeHandler processes a node for the extractor.
// Returns true if the handler has processed children and the walker should stop.
type NodeHandler func(ctx *ExtractionContext, node *sitter.Node) bool

// ExtractionContext carries shared state/helpers used while walking one file.
type ExtractionContext struct {
	Source []byte
	File   *File

	classes []string
	sites   []*DecoratorSite
}

// ExtractorEngine walks the syntax tree and dispatches node handlers by kind.
type ExtractorEngine struct {
	handlers map[string]NodeHandler
}

func NewExtractorEngine(handlers map[string]NodeHandler) *ExtractorEngine {
	return &ExtractorEngine{handlers: handlers}
}

func (e *ExtractorEngine) Walk(ctx *ExtractionContext, node *sitter.Node) {
	if node == nil {
		return
	}
	if handler, ok := e.handlers[node.Kind()]; ok {
		if handler(ctx, node) {
			return
		}
	}
	e.WalkChildren(ctx, node)
}

func (e *ExtractorEngine) WalkChildren(ctx *ExtractionContext, node *sitter.Node) {
	for i := uint(0); i < node.ChildCount(); i++ {
		e.Walk(ctx, node.Child(i))
	}
}

func (c *ExtractionContext) Text(node *sitter.Node) string {
	if node == nil {
		return ""
	}
	return string(c.Source[node.StartByte():node.EndByte()])
}

func (c *ExtractionContext) Span(node *sitter.Node) Span {
	if node == nil {
		return Span{}
	}
	return Span{Start: int(node.StartByte()), End: int(node.EndByte())}
}

func (c *ExtractionContext) StringValue(node *sitter.Node) string {
	return strings.Trim(c.Text(node), "'\"`")
}

func (c *ExtractionContext) pushClass(name string) { c.classes = append(c.classes, name) }

func (c *ExtractionContext) popClass() { c.classes = c.classes[:len(c.classes)-1] }

func (c *ExtractionContext) currentClass() string {
	if len(c.classes) == 0 {
		return ""
	}
	return c.classes[len(c.classes)-1]
}

func (c *ExtractionContext) pushSite(site *DecoratorSite) { c.sites = append(c.sites, site) }

func (c *ExtractionContext) popSite() { c.sites = c.sites[:len(c.sites)-1] }

func (c *ExtractionContext) currentSite() *DecoratorSite {
	if len(c.sites) == 0 {
		return nil
	}
	return c.sites[len(c.sites)-1]
}

func (c *ExtractionContext) addOccurrence(occ Occurrence) {
	c.File.Occurrences = append(c.File.Occurrences, occ)
}

// namedChildren returns the named children of node, skipping comments.
func namedChildren(node *sitter.Node) []*sitter.Node {
	if node == nil {
		return nil
	}
	out := make([]*sitter.Node, 0, node.NamedChildCount())
	for i := uint(0); i < node.NamedChildCount(); i++ {
		child := node.NamedChild(i)
		if child == nil || child.Kind() == "comment" {
			continue
		}
		out = append(out, child)
	}
	return out
}

func childOfKind(node *sitter.Node, kinds ...string) *sitter.Node {
	if node == nil {
		return nil
	}
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child == nil {
			continue
		}
		for _, kind := range kinds {
			if child.Kind() == kind {
				return child
			}
		}
	}
	return nil
}

func sameNode(a, b *sitter.Node) bool {
	if a == nil || b == nil {
		return false
	}
	return a.StartByte() == b.StartByte() && a.EndByte() == b.EndByte() && a.Kind() == b.Kind()
}
