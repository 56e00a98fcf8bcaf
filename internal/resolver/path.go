// Package resolver maps internal link targets onto the filesystem and
// checks that referenced anchors exist in their target documents.
package resolver

import (
	"errors"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// DefaultExtensions are tried in order when a link omits the file extension.
var DefaultExtensions = []string{".md", ".mdx"}

// ErrFileNotFound is wrapped by every resolution failure.
var ErrFileNotFound = errors.New("file not found")

// ResolveError reports the path that was attempted when resolution failed.
type ResolveError struct {
	Attempted string
}

func (e *ResolveError) Error() string {
	return "file not found: " + e.Attempted
}

func (e *ResolveError) Unwrap() error {
	return ErrFileNotFound
}

// Resolver resolves internal link targets.
type Resolver struct {
	// BaseDir is the root that links starting with "/" are resolved against.
	BaseDir string

	// Extensions are appended in order when the bare path is not a file,
	// and form "index<ext>" candidates when it is a directory.
	Extensions []string
}

// New creates a Resolver rooted at baseDir. A nil extension list selects
// DefaultExtensions.
func New(baseDir string, extensions []string) *Resolver {
	if extensions == nil {
		extensions = DefaultExtensions
	}
	return &Resolver{BaseDir: baseDir, Extensions: extensions}
}

// SplitFragment splits a raw URL on its first '#'.
func SplitFragment(rawURL string) (path, fragment string, hasFragment bool) {
	path, fragment, hasFragment = strings.Cut(rawURL, "#")
	return path, fragment, hasFragment
}

// Resolve returns the file a link points to. The fragment and any query
// string are ignored. An empty path resolves to sourceFile itself.
//
// Candidates are tried in order: the path as written, the path with each
// extension appended, then index<ext> inside the path when it is a
// directory. The first regular file wins.
func (r *Resolver) Resolve(rawURL, sourceFile string) (string, error) {
	p, _, _ := SplitFragment(rawURL)
	p, _, _ = strings.Cut(p, "?")
	if p == "" {
		return sourceFile, nil
	}
	if decoded, err := url.PathUnescape(p); err == nil {
		p = decoded
	}

	var target string
	if strings.HasPrefix(p, "/") {
		target = filepath.Join(r.BaseDir, filepath.FromSlash(p))
	} else {
		target = filepath.Join(filepath.Dir(sourceFile), filepath.FromSlash(p))
	}

	if isFile(target) {
		return target, nil
	}
	for _, ext := range r.Extensions {
		if candidate := target + ext; isFile(candidate) {
			return candidate, nil
		}
	}
	if isDir(target) {
		for _, ext := range r.Extensions {
			if candidate := filepath.Join(target, "index"+ext); isFile(candidate) {
				return candidate, nil
			}
		}
	}

	return "", &ResolveError{Attempted: target}
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
