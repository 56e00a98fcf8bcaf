// Package markdown implements a link extractor for Markdown files.
// It recognizes inline links, images and HTML anchor tags. Links inside
// fenced code, inline code and HTML comments are ignored.
//
// Two extraction modes are available. The scan mode (default) works line by
// line and never fails on malformed input. The AST mode builds a goldmark
// syntax tree and additionally resolves reference-style links.
package markdown

import (
	"fmt"
	"sort"
	"strings"

	"github.com/goobits/docs-engine-sub003/internal/parser"
	"github.com/yuin/goldmark"
	gmparser "github.com/yuin/goldmark/parser"
)

// Mode selects the extraction strategy.
type Mode string

const (
	// ModeScan extracts links with a line scanner.
	ModeScan Mode = "scan"
	// ModeAST extracts links from a goldmark syntax tree.
	ModeAST Mode = "ast"
)

// ParseMode converts a mode name into a Mode. An empty name selects ModeScan.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeScan:
		return ModeScan, nil
	case ModeAST:
		return ModeAST, nil
	default:
		return "", fmt.Errorf("unknown markdown parser mode %q (valid: scan, ast)", s)
	}
}

// Parser implements parser.FileParser for markdown files.
type Parser struct {
	mode Mode
	md   goldmark.Markdown
}

// Option configures a Parser.
type Option func(*Parser)

// WithMode sets the extraction mode.
func WithMode(m Mode) Option {
	return func(p *Parser) {
		if m != "" {
			p.mode = m
		}
	}
}

// New creates a new markdown parser.
func New(opts ...Option) *Parser {
	p := &Parser{mode: ModeScan}
	for _, opt := range opts {
		opt(p)
	}
	if p.mode == ModeAST {
		p.md = goldmark.New(
			goldmark.WithParserOptions(gmparser.WithAutoHeadingID()),
		)
	}
	return p
}

// Mode returns the extraction mode in use.
func (p *Parser) Mode() Mode {
	return p.mode
}

// Extensions returns the file extensions this parser handles.
func (*Parser) Extensions() []string {
	return []string{".md", ".mdx", ".markdown"}
}

// Parse extracts links from markdown content in document order.
func (p *Parser) Parse(filename string, content []byte) ([]parser.Link, error) {
	var links []parser.Link
	if p.mode == ModeAST {
		links = extractAST(p.md, content, filename)
	} else {
		links = scan(content, filename)
	}

	sort.SliceStable(links, func(i, j int) bool {
		if links[i].Line != links[j].Line {
			return links[i].Line < links[j].Line
		}
		return links[i].Column < links[j].Column
	})
	return links, nil
}

// init registers the markdown parser with the default registry.
func init() {
	parser.RegisterParser(New())
}
