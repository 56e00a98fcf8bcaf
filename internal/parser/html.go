package parser

import (
	"bytes"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// HTMLAnchor is an <a href> element found in an HTML fragment.
type HTMLAnchor struct {
	Href   string
	Text   string
	Offset int // Byte offset of the opening tag within the fragment
}

// ScanHTMLAnchors tokenizes an HTML fragment and returns every <a> element
// carrying an href attribute, in document order. Malformed markup is
// tolerated; tokenizing stops at the first unrecoverable error.
func ScanHTMLAnchors(fragment []byte) []HTMLAnchor {
	if !bytes.Contains(fragment, []byte("<")) {
		return nil
	}

	var (
		anchors []HTMLAnchor
		open    = -1 // index into anchors of the <a> whose text is being collected
		text    strings.Builder
		offset  int
	)

	z := html.NewTokenizer(bytes.NewReader(fragment))
	for {
		tt := z.Next()
		raw := z.Raw()
		start := offset
		offset += len(raw)

		switch tt {
		case html.ErrorToken:
			if z.Err() != io.EOF {
				return anchors
			}
			if open >= 0 {
				anchors[open].Text = strings.TrimSpace(text.String())
			}
			return anchors

		case html.StartTagToken, html.SelfClosingTagToken:
			name, hasAttr := z.TagName()
			if atom.Lookup(name) != atom.A {
				continue
			}
			if open >= 0 {
				anchors[open].Text = strings.TrimSpace(text.String())
				open = -1
			}
			href, ok := findAttr(z, hasAttr, "href")
			if !ok {
				continue
			}
			anchors = append(anchors, HTMLAnchor{Href: strings.TrimSpace(href), Offset: start})
			if tt == html.StartTagToken {
				open = len(anchors) - 1
				text.Reset()
			}

		case html.EndTagToken:
			name, _ := z.TagName()
			if atom.Lookup(name) == atom.A && open >= 0 {
				anchors[open].Text = strings.TrimSpace(text.String())
				open = -1
			}

		case html.TextToken:
			if open >= 0 {
				text.Write(z.Text())
			}
		}
	}
}

// findAttr returns the value of the named attribute on the current tag.
func findAttr(z *html.Tokenizer, hasAttr bool, want string) (string, bool) {
	for hasAttr {
		var key, val []byte
		key, val, hasAttr = z.TagAttr()
		if string(key) == want {
			return string(val), true
		}
	}
	return "", false
}

// ScanHTMLImages returns the src of every <img> element in an HTML fragment.
// Text holds the alt attribute.
func ScanHTMLImages(fragment []byte) []HTMLAnchor {
	var (
		images []HTMLAnchor
		offset int
	)

	z := html.NewTokenizer(bytes.NewReader(fragment))
	for {
		tt := z.Next()
		start := offset
		offset += len(z.Raw())

		switch tt {
		case html.ErrorToken:
			return images
		case html.StartTagToken, html.SelfClosingTagToken:
			name, hasAttr := z.TagName()
			if atom.Lookup(name) != atom.Img {
				continue
			}
			img := HTMLAnchor{Offset: start}
			for hasAttr {
				var key, val []byte
				key, val, hasAttr = z.TagAttr()
				switch string(key) {
				case "src":
					img.Href = strings.TrimSpace(string(val))
				case "alt":
					img.Text = string(val)
				}
			}
			if img.Href != "" {
				images = append(images, img)
			}
		}
	}
}
