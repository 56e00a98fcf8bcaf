// Package parser extracts link references from documentation files.
// Format-specific parsers register themselves by file extension and
// ExtractFromFiles fans files out across them.
package parser

import (
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// FileParser extracts links from one document format.
type FileParser interface {
	// Extensions lists the handled extensions with their leading dot.
	Extensions() []string

	// Parse extracts links from content. filename is recorded on every link.
	Parse(filename string, content []byte) ([]Link, error)
}

// Registry maps file extensions to parsers. It is safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	parsers map[string]FileParser
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{parsers: map[string]FileParser{}}
}

// Register adds p under each of its extensions, replacing any parser
// already registered for them.
func (r *Registry) Register(p FileParser) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, ext := range p.Extensions() {
		r.parsers[normalizeExtension(ext)] = p
	}
}

// Get returns the parser for ext. The leading dot and case are optional.
func (r *Registry) Get(ext string) (FileParser, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.parsers[normalizeExtension(ext)]
	return p, ok
}

// GetForFile returns the parser for filename's extension.
func (r *Registry) GetForFile(filename string) (FileParser, bool) {
	return r.Get(filepath.Ext(filename))
}

// HasParser reports whether filename has a registered parser.
func (r *Registry) HasParser(filename string) bool {
	_, ok := r.GetForFile(filename)
	return ok
}

// Extensions returns the registered extensions, sorted.
func (r *Registry) Extensions() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	exts := make([]string, 0, len(r.parsers))
	for ext := range r.parsers {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

func normalizeExtension(ext string) string {
	ext = strings.ToLower(ext)
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}

var defaultRegistry = NewRegistry()

// DefaultRegistry returns the registry that format packages add
// themselves to on import.
func DefaultRegistry() *Registry {
	return defaultRegistry
}

// RegisterParser registers p with the default registry.
func RegisterParser(p FileParser) {
	defaultRegistry.Register(p)
}
