package resolver

import (
	"bufio"
	"bytes"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"unicode"

	"github.com/PuerkitoBio/goquery"
)

var (
	headingRegex   = regexp.MustCompile(`^#+\s+(.+)$`)
	customIDRegex  = regexp.MustCompile(`\s*\{#([^}\s]+)\}\s*$`)
	closingHashes  = regexp.MustCompile(`\s+#+\s*$`)
	whitespaceRuns = regexp.MustCompile(`\s+`)
)

// Slugify converts heading text into an anchor slug: lowercase, characters
// other than letters, digits, marks, underscores, whitespace and hyphens
// removed, whitespace runs collapsed to a single hyphen.
func Slugify(heading string) string {
	lower := strings.ToLower(strings.TrimSpace(heading))

	var b strings.Builder
	b.Grow(len(lower))
	for _, r := range lower {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsMark(r) ||
			r == '_' || r == '-' || unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}

	return whitespaceRuns.ReplaceAllString(strings.TrimSpace(b.String()), "-")
}

// NormalizeAnchor applies the request-side normalization: percent-decoding,
// lowercasing and whitespace runs to hyphens. "My Section" and "my-section"
// normalize to the same value.
func NormalizeAnchor(anchor string) string {
	if decoded, err := url.PathUnescape(anchor); err == nil {
		anchor = decoded
	}
	return whitespaceRuns.ReplaceAllString(strings.ToLower(strings.TrimSpace(anchor)), "-")
}

// SupportsAnchors reports whether fragments in links to path can be checked.
func SupportsAnchors(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".mdx", ".markdown", ".html", ".htm":
		return true
	default:
		return false
	}
}

// AnchorSet holds the anchors defined in one document.
type AnchorSet struct {
	slugs    map[string]struct{} // compared after NormalizeAnchor
	explicit map[string]struct{} // compared literally
}

// Has reports whether anchor is defined in the set.
func (s *AnchorSet) Has(anchor string) bool {
	if s == nil || anchor == "" {
		return false
	}
	if _, ok := s.explicit[anchor]; ok {
		return true
	}
	if decoded, err := url.PathUnescape(anchor); err == nil {
		if _, ok := s.explicit[decoded]; ok {
			return true
		}
	}
	_, ok := s.slugs[NormalizeAnchor(anchor)]
	return ok
}

// Len returns the number of distinct anchors.
func (s *AnchorSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.slugs) + len(s.explicit)
}

// ParseAnchors collects the anchors defined in a document. Markdown
// headings contribute slugs (with -1, -2 ... suffixes for repeats and
// {#id} attributes verbatim); <a name> and <a id> contribute literal values.
// For HTML documents every element id is included.
func ParseAnchors(path string, content []byte) *AnchorSet {
	set := &AnchorSet{
		slugs:    map[string]struct{}{},
		explicit: map[string]struct{}{},
	}

	ext := strings.ToLower(filepath.Ext(path))
	isHTML := ext == ".html" || ext == ".htm"

	if !isHTML {
		seen := map[string]int{}
		sc := bufio.NewScanner(bytes.NewReader(content))
		sc.Buffer(make([]byte, 0, 64*1024), len(content)+1)
		for sc.Scan() {
			m := headingRegex.FindStringSubmatch(strings.TrimRight(sc.Text(), "\r"))
			if m == nil {
				continue
			}
			text := m[1]
			if id := customIDRegex.FindStringSubmatch(text); id != nil {
				set.explicit[id[1]] = struct{}{}
				text = text[:len(text)-len(id[0])]
			}
			text = closingHashes.ReplaceAllString(text, "")

			slug := Slugify(text)
			if n := seen[slug]; n > 0 {
				set.slugs[slug+"-"+strconv.Itoa(n)] = struct{}{}
			} else {
				set.slugs[slug] = struct{}{}
			}
			seen[slug]++
		}
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(content))
	if err != nil {
		return set
	}
	selector := "a[name], a[id]"
	if isHTML {
		selector = "a[name], [id]"
	}
	doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
		for _, attr := range []string{"name", "id"} {
			if v, ok := s.Attr(attr); ok && v != "" {
				set.explicit[v] = struct{}{}
			}
		}
	})

	return set
}

// AnchorIndex caches the anchor sets of files for the duration of a run.
// It is safe for concurrent use.
type AnchorIndex struct {
	mu    sync.Mutex
	files map[string]*AnchorSet
}

// NewAnchorIndex creates an empty index.
func NewAnchorIndex() *AnchorIndex {
	return &AnchorIndex{files: map[string]*AnchorSet{}}
}

// Has reports whether anchor is defined in the file at path. Each file is
// read at most once; unreadable files are remembered as having no anchors.
func (x *AnchorIndex) Has(path, anchor string) bool {
	return x.Lookup(path).Has(anchor)
}

// Lookup returns the anchor set for path, reading the file on first use.
// Unreadable files produce a nil set.
func (x *AnchorIndex) Lookup(path string) *AnchorSet {
	x.mu.Lock()
	defer x.mu.Unlock()

	if set, ok := x.files[path]; ok {
		return set
	}

	var set *AnchorSet
	if content, err := os.ReadFile(path); err == nil {
		set = ParseAnchors(path, content)
	}
	x.files[path] = set
	return set
}
