// Package htmldoc implements a link extractor for standalone HTML documents.
package htmldoc

import (
	"github.com/goobits/docs-engine-sub003/internal/parser"
)

// Parser implements parser.FileParser for HTML files.
type Parser struct{}

// New creates a new HTML document parser.
func New() *Parser {
	return &Parser{}
}

// Extensions returns the file extensions this parser handles.
func (*Parser) Extensions() []string {
	return []string{".html", ".htm"}
}

// Parse extracts <a href> and <img src> references. Markup inside
// comments is not reported.
func (*Parser) Parse(filename string, content []byte) ([]parser.Link, error) {
	lines := parser.BuildLineIndex(content)

	anchors := parser.ScanHTMLAnchors(content)
	images := parser.ScanHTMLImages(content)
	links := make([]parser.Link, 0, len(anchors)+len(images))

	// Merge both lists by offset to keep document order.
	i, j := 0, 0
	for i < len(anchors) || j < len(images) {
		var (
			ref  parser.HTMLAnchor
			kind parser.Kind
		)
		if j >= len(images) || (i < len(anchors) && anchors[i].Offset <= images[j].Offset) {
			ref, kind = anchors[i], parser.KindHTML
			i++
		} else {
			ref, kind = images[j], parser.KindImage
			j++
		}
		if ref.Href == "" {
			continue
		}

		line, col := lines.Position(ref.Offset)
		links = append(links, parser.Link{
			URL:      ref.Href,
			Text:     ref.Text,
			FilePath: filename,
			Line:     line,
			Column:   col,
			Kind:     kind,
		})
	}

	return links, nil
}

func init() {
	parser.RegisterParser(New())
}
