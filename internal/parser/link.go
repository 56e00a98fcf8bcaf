package parser

import (
	"regexp"
	"strings"
)

// Kind identifies the syntax a link was written in.
type Kind int

const (
	// KindLink is an inline markdown link: [text](url).
	KindLink Kind = iota
	// KindImage is a markdown image: ![alt](url).
	KindImage
	// KindHTML is an HTML anchor: <a href="url">.
	KindHTML
)

// String returns the lowercase name of the kind.
func (k Kind) String() string {
	switch k {
	case KindLink:
		return "link"
	case KindImage:
		return "image"
	case KindHTML:
		return "html"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler so kinds serialize by name.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Link is a single reference found in a document.
type Link struct {
	URL      string // Raw reference exactly as written, fragment included
	Text     string // Display text or image alt text
	FilePath string // Absolute path of the containing document
	Line     int    // 1-indexed line number
	Column   int    // 1-indexed byte column
	Kind     Kind
}

// Class reports how the link's URL is classified.
func (l Link) Class() Class {
	return Classify(l.URL)
}

// IsExternal reports whether the link points to an http(s) resource.
func (l Link) IsExternal() bool {
	return Classify(l.URL) == ClassExternal
}

// IsAnchorOnly reports whether the link targets a fragment in its own document.
func (l Link) IsAnchorOnly() bool {
	return Classify(l.URL) == ClassAnchor
}

// Class is the category a raw URL falls into.
type Class int

const (
	// ClassInternalRelative is a path relative to the containing document.
	ClassInternalRelative Class = iota
	// ClassInternalAbsolute is a path rooted at the documentation base directory.
	ClassInternalAbsolute
	// ClassAnchor is a fragment-only reference (#section).
	ClassAnchor
	// ClassExternal is an http, https or protocol-relative URL.
	ClassExternal
	// ClassUnsupported is any other URI scheme (mailto:, tel:, data: ...).
	ClassUnsupported
)

// String returns a short name for the class.
func (c Class) String() string {
	switch c {
	case ClassInternalRelative:
		return "internal-relative"
	case ClassInternalAbsolute:
		return "internal-absolute"
	case ClassAnchor:
		return "anchor"
	case ClassExternal:
		return "external"
	case ClassUnsupported:
		return "unsupported"
	default:
		return "unknown"
	}
}

// IsInternal reports whether the class is resolved against the filesystem.
func (c Class) IsInternal() bool {
	return c == ClassInternalRelative || c == ClassInternalAbsolute
}

// schemeRegex matches an RFC 3986 scheme prefix such as "mailto:".
var schemeRegex = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9+.\-]*:`)

// Classify categorizes a raw URL. It never fails.
func Classify(rawURL string) Class {
	lower := strings.ToLower(rawURL)
	switch {
	case strings.HasPrefix(lower, "http://"), strings.HasPrefix(lower, "https://"), strings.HasPrefix(rawURL, "//"):
		return ClassExternal
	case strings.HasPrefix(rawURL, "#"):
		return ClassAnchor
	case strings.HasPrefix(rawURL, "/"):
		return ClassInternalAbsolute
	case schemeRegex.MatchString(rawURL):
		return ClassUnsupported
	default:
		return ClassInternalRelative
	}
}
