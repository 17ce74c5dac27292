// # internal/engine/parser/parser.go
package parser

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"ngstandalone/internal/core/errors"
	"ngstandalone/internal/shared/observability"

	sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"
)

const (
	LangTypeScript = "typescript"
	LangTSX        = "tsx"
)

// Parser turns TypeScript sources into syntax models.
type Parser struct {
	pools      map[string]*ParserPool
	extensions map[string]string
	extractor  *TypeScriptExtractor
}

func NewParser() *Parser {
	return &Parser{
		pools: map[string]*ParserPool{
			LangTypeScript: NewParserPool(sitter.NewLanguage(tree_sitter_typescript.LanguageTypescript())),
			LangTSX:        NewParserPool(sitter.NewLanguage(tree_sitter_typescript.LanguageTSX())),
		},
		extensions: map[string]string{
			".ts":  LangTypeScript,
			".mts": LangTypeScript,
			".cts": LangTypeScript,
			".tsx": LangTSX,
		},
		extractor: NewTypeScriptExtractor(),
	}
}

// IsSupportedPath reports whether path is a TypeScript source the parser
// handles. Declaration files carry no decorators and are skipped.
func (p *Parser) IsSupportedPath(path string) bool {
	if strings.HasSuffix(strings.ToLower(path), ".d.ts") {
		return false
	}
	return p.language(path) != ""
}

func (p *Parser) language(path string) string {
	return p.extensions[strings.ToLower(filepath.Ext(path))]
}

// ParseFile parses content and extracts its syntax model.
func (p *Parser) ParseFile(path string, content []byte) (*File, error) {
	lang := p.language(path)
	if lang == "" {
		return nil, errors.New(errors.CodeNotSupported, fmt.Sprintf("unsupported file type: %s", path))
	}

	start := time.Now()
	pool := p.pools[lang]
	sp := pool.Get()
	defer pool.Put(sp)

	tree := sp.Parse(content, nil)
	if tree == nil {
		return nil, errors.AddContext(errors.New(errors.CodeInternal, "parse failed"), errors.CtxPath, path)
	}
	defer tree.Close()

	file := p.extractor.Extract(tree.RootNode(), content, path)
	file.Language = lang
	observability.ParsingDuration.WithLabelValues(lang).Observe(time.Since(start).Seconds())
	return file, nil
}
