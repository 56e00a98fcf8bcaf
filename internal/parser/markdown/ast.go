package markdown

import (
	"bytes"

	"github.com/goobits/docs-engine-sub003/internal/parser"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// linkExtractor walks the AST and extracts links.
type linkExtractor struct {
	filePath string
	links    []parser.Link
	source   []byte
	lines    parser.LineIndex
}

// extractAST parses content with goldmark and collects links from the tree.
func extractAST(md goldmark.Markdown, content []byte, filePath string) []parser.Link {
	doc := md.Parser().Parse(text.NewReader(content))

	e := &linkExtractor{
		filePath: filePath,
		links:    make([]parser.Link, 0, 32),
		source:   content,
		lines:    parser.BuildLineIndex(content),
	}
	_ = ast.Walk(doc, e.walk)

	return e.links
}

// walk is the AST walker function.
func (e *linkExtractor) walk(n ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}

	switch node := n.(type) {
	case *ast.CodeBlock, *ast.FencedCodeBlock, *ast.CodeSpan:
		return ast.WalkSkipChildren, nil
	case *ast.Link:
		dest := string(node.Destination)
		e.add(dest, e.nodeText(node), parser.KindLink, e.linkOffset(node, dest))
	case *ast.Image:
		dest := string(node.Destination)
		e.add(dest, e.nodeText(node), parser.KindImage, e.inlineOffset(node, 2, "]("+dest))
		return ast.WalkSkipChildren, nil
	case *ast.AutoLink:
		if node.AutoLinkType == ast.AutoLinkURL {
			url := string(node.URL(e.source))
			e.add(url, "", parser.KindLink, e.inlineOffset(node, 1, "<"+url))
		}
	case *ast.RawHTML:
		e.handleRawHTML(node)
	case *ast.HTMLBlock:
		// Type 2 blocks are <!-- comments -->.
		if node.HTMLBlockType != ast.HTMLBlockType2 {
			e.handleHTMLBlock(node)
		}
	}

	return ast.WalkContinue, nil
}

func (e *linkExtractor) add(url, linkText string, kind parser.Kind, offset int) {
	line, col := e.lines.Position(offset)
	e.links = append(e.links, parser.Link{
		URL:      url,
		Text:     linkText,
		FilePath: e.filePath,
		Line:     line,
		Column:   col,
		Kind:     kind,
	})
}

// handleRawHTML processes inline HTML such as <a href="...">. The anchor's
// text is taken from the text node that follows the opening tag.
func (e *linkExtractor) handleRawHTML(node *ast.RawHTML) {
	if node.Segments.Len() == 0 {
		return
	}
	raw, toSource := joinSegments(e.source, node.Segments)
	for _, a := range parser.ScanHTMLAnchors(raw) {
		if a.Href == "" {
			continue
		}
		linkText := a.Text
		if linkText == "" {
			if next, ok := node.NextSibling().(*ast.Text); ok {
				linkText = string(bytes.TrimSpace(next.Segment.Value(e.source)))
			}
		}
		e.add(a.Href, linkText, parser.KindHTML, toSource(a.Offset))
	}
}

// handleHTMLBlock processes block-level HTML.
func (e *linkExtractor) handleHTMLBlock(node *ast.HTMLBlock) {
	segs := text.NewSegments()
	lines := node.Lines()
	for i := 0; i < lines.Len(); i++ {
		segs.Append(lines.At(i))
	}
	if node.HasClosure() {
		segs.Append(node.ClosureLine)
	}
	if segs.Len() == 0 {
		return
	}

	raw, toSource := joinSegments(e.source, segs)
	for _, a := range parser.ScanHTMLAnchors(raw) {
		if a.Href == "" {
			continue
		}
		e.add(a.Href, a.Text, parser.KindHTML, toSource(a.Offset))
	}
}

// joinSegments concatenates segment values and returns a function mapping an
// offset in the joined buffer back to an offset in source.
func joinSegments(source []byte, segs *text.Segments) ([]byte, func(int) int) {
	var buf bytes.Buffer
	starts := make([]int, segs.Len())
	for i := 0; i < segs.Len(); i++ {
		starts[i] = buf.Len()
		seg := segs.At(i)
		buf.Write(seg.Value(source))
	}

	toSource := func(off int) int {
		for i := len(starts) - 1; i >= 0; i-- {
			if off >= starts[i] {
				return segs.At(i).Start + off - starts[i]
			}
		}
		return segs.At(0).Start
	}
	return buf.Bytes(), toSource
}

// nodeText extracts text content from a node's children.
func (e *linkExtractor) nodeText(n ast.Node) string {
	var buf bytes.Buffer
	for child := n.FirstChild(); child != nil; child = child.NextSibling() {
		switch c := child.(type) {
		case *ast.Text:
			buf.Write(c.Segment.Value(e.source))
		case *ast.String:
			buf.Write(c.Value)
		default:
			if child.HasChildren() {
				buf.WriteString(e.nodeText(child))
			}
		}
	}
	return string(bytes.TrimSpace(buf.Bytes()))
}

// inlineOffset estimates the source offset of an inline node's opening
// delimiter from its first text descendant. delim is the width of the
// opening syntax ("[" or "![") preceding the text. Nodes without text are
// located by searching the enclosing block's lines for needle.
func (e *linkExtractor) inlineOffset(n ast.Node, delim int, needle string) int {
	if seg, ok := firstTextSegment(n); ok {
		if off := seg.Start - delim; off >= 0 {
			return off
		}
		return seg.Start
	}

	for p := n.Parent(); p != nil; p = p.Parent() {
		if p.Type() != ast.TypeBlock {
			continue
		}
		lines := p.Lines()
		if lines == nil || lines.Len() == 0 {
			continue
		}
		for i := 0; i < lines.Len(); i++ {
			seg := lines.At(i)
			if idx := bytes.Index(seg.Value(e.source), []byte(needle)); idx >= 0 {
				return seg.Start + idx
			}
		}
		return lines.At(0).Start
	}
	return 0
}

// linkOffset locates a link's opening bracket. A link whose text starts
// with an image, as in [![badge](img)](url), sits one byte before it.
func (e *linkExtractor) linkOffset(node *ast.Link, dest string) int {
	if img, ok := node.FirstChild().(*ast.Image); ok {
		if off := e.inlineOffset(img, 2, "]("+string(img.Destination)) - 1; off >= 0 {
			return off
		}
	}
	return e.inlineOffset(node, 1, "]("+dest)
}

// firstTextSegment returns the segment of the first text node below n.
func firstTextSegment(n ast.Node) (text.Segment, bool) {
	for child := n.FirstChild(); child != nil; child = child.NextSibling() {
		if t, ok := child.(*ast.Text); ok {
			return t.Segment, true
		}
		if seg, ok := firstTextSegment(child); ok {
			return seg, true
		}
	}
	return text.Segment{}, false
}
