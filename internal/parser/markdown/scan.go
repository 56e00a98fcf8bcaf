package markdown

import (
	"bytes"
	"regexp"
	"strings"

	"github.com/goobits/docs-engine-sub003/internal/parser"
)

// linkRegex matches [text](url) and ![alt](url). The text may contain one
// level of nested brackets so that [![badge](img)](url) is recognized, and
// the URL one level of balanced parentheses as in wiki/Foo_(bar). An
// optional <...> wrapper and "title" after the URL are accepted.
var linkRegex = regexp.MustCompile(`(!?)\[((?:[^\[\]]|\[[^\[\]]*\])*)\]\(\s*<?((?:[^()\s>]|\([^()\s]*\))+)>?(?:\s+["'(][^)]*)?\)`)

var (
	commentOpen  = []byte("<!--")
	commentClose = []byte("-->")
)

// scan extracts links line by line.
func scan(content []byte, filePath string) []parser.Link {
	var (
		links     []parser.Link
		inFence   bool
		inComment bool
	)

	lineNum := 0
	for len(content) > 0 || lineNum == 0 {
		lineNum++

		var line []byte
		if i := bytes.IndexByte(content, '\n'); i >= 0 {
			line, content = content[:i], content[i+1:]
		} else {
			line, content = content, nil
		}
		line = bytes.TrimSuffix(line, []byte{'\r'})

		if !inComment && bytes.HasPrefix(bytes.TrimSpace(line), []byte("```")) {
			inFence = !inFence
			continue
		}
		if inFence {
			continue
		}

		var visible []byte
		visible, inComment = maskComments(line, inComment)
		links = append(links, scanSegment(string(visible), 0, lineNum, filePath)...)
		links = append(links, scanHTML(visible, lineNum, filePath)...)
	}

	return links
}

// scanSegment finds markdown links and images in s, which starts at byte
// column offset within the line. Link text is scanned again for nested images.
func scanSegment(s string, offset, lineNum int, filePath string) []parser.Link {
	var links []parser.Link
	for _, m := range linkRegex.FindAllStringSubmatchIndex(s, -1) {
		if inInlineCode(s, m[0]) {
			continue
		}

		kind := parser.KindLink
		if m[3] > m[2] {
			kind = parser.KindImage
		}
		text := s[m[4]:m[5]]

		links = append(links, parser.Link{
			URL:      s[m[6]:m[7]],
			Text:     strings.TrimSpace(text),
			FilePath: filePath,
			Line:     lineNum,
			Column:   offset + m[0] + 1,
			Kind:     kind,
		})

		if kind == parser.KindLink && strings.Contains(text, "](") {
			links = append(links, scanSegment(text, offset+m[4], lineNum, filePath)...)
		}
	}
	return links
}

// scanHTML finds <a href> anchors on a single (comment-masked) line.
func scanHTML(line []byte, lineNum int, filePath string) []parser.Link {
	anchors := parser.ScanHTMLAnchors(line)
	if len(anchors) == 0 {
		return nil
	}

	s := string(line)
	links := make([]parser.Link, 0, len(anchors))
	for _, a := range anchors {
		if a.Href == "" || inInlineCode(s, a.Offset) {
			continue
		}
		links = append(links, parser.Link{
			URL:      a.Href,
			Text:     a.Text,
			FilePath: filePath,
			Line:     lineNum,
			Column:   a.Offset + 1,
			Kind:     parser.KindHTML,
		})
	}
	return links
}

// inInlineCode reports whether an odd number of backticks precede pos.
func inInlineCode(s string, pos int) bool {
	return strings.Count(s[:pos], "`")%2 == 1
}

// maskComments blanks out the parts of line that fall inside HTML comments,
// keeping byte columns intact. inComment carries state across lines.
func maskComments(line []byte, inComment bool) ([]byte, bool) {
	if !inComment && !bytes.Contains(line, commentOpen) {
		return line, false
	}

	out := bytes.Clone(line)
	pos := 0
	for pos < len(out) {
		if !inComment {
			start := bytes.Index(out[pos:], commentOpen)
			if start < 0 {
				break
			}
			pos += start
			blank(out[pos : pos+len(commentOpen)])
			pos += len(commentOpen)
			inComment = true
			continue
		}

		end := bytes.Index(out[pos:], commentClose)
		if end < 0 {
			blank(out[pos:])
			return out, true
		}
		blank(out[pos : pos+end+len(commentClose)])
		pos += end + len(commentClose)
		inComment = false
	}
	return out, inComment
}

func blank(b []byte) {
	for i := range b {
		b[i] = ' '
	}
}
