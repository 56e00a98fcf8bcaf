// Package scanner discovers the documents to check under a root directory.
package scanner

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gobwas/glob"
)

// ErrNoFiles is returned when no document matches the scan options.
var ErrNoFiles = errors.New("no files found")

// DefaultExtensions are used when ScanOptions has no include patterns.
var DefaultExtensions = []string{".md", ".mdx"}

// ScanOptions holds options for scanning files with filtering.
type ScanOptions struct {
	// Root is the directory to scan. A regular file is returned as is.
	Root string

	// Include patterns (glob, relative to Root). A file is kept when it
	// matches any of them. When empty, Extensions decides.
	Include []string

	// Exclude patterns (glob, relative to Root). Matching files and
	// directories are dropped.
	Exclude []string

	// Extensions are used only when Include is empty. Defaults to
	// DefaultExtensions.
	Extensions []string
}

// FindFiles walks a directory and returns all files matching the given extensions.
// Extensions should include the leading dot (e.g., ".md", ".mdx").
// It skips hidden directories (starting with .) like .git.
func FindFiles(root string, extensions []string) ([]string, error) {
	if len(extensions) == 0 {
		return nil, nil
	}

	exts := make(map[string]bool, len(extensions))
	for _, ext := range extensions {
		exts[strings.ToLower(ext)] = true
	}

	var files []string
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if isHidden(d.Name()) && path != root {
				return filepath.SkipDir
			}
			return nil
		}
		if exts[strings.ToLower(filepath.Ext(d.Name()))] {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

// FindFilesWithOptions returns the sorted absolute paths of every file
// under opts.Root that matches an include pattern and no exclude pattern.
// Hidden directories below the root are never entered. ErrNoFiles is
// returned when nothing matches.
func FindFilesWithOptions(opts ScanOptions) ([]string, error) {
	root, err := filepath.Abs(opts.Root)
	if err != nil {
		return nil, fmt.Errorf("resolving root: %w", err)
	}

	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", opts.Root, err)
	}
	if !info.IsDir() {
		return []string{root}, nil
	}

	include, err := compilePatterns(opts.Include)
	if err != nil {
		return nil, err
	}
	exclude, err := compilePatterns(opts.Exclude)
	if err != nil {
		return nil, err
	}

	var files []string
	if len(include) == 0 {
		exts := opts.Extensions
		if len(exts) == 0 {
			exts = DefaultExtensions
		}
		if files, err = FindFiles(root, exts); err != nil {
			return nil, err
		}
		files = filterExcluded(files, root, exclude)
	} else {
		if files, err = walkMatching(root, include, exclude); err != nil {
			return nil, err
		}
	}

	if len(files) == 0 {
		return nil, ErrNoFiles
	}
	sort.Strings(files)
	return files, nil
}

func walkMatching(root string, include, exclude []glob.Glob) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == root {
			return nil
		}
		rel := relSlash(root, path)
		if d.IsDir() {
			if isHidden(d.Name()) || matchesAnyGlob(rel+"/", exclude) {
				return filepath.SkipDir
			}
			return nil
		}
		if matchesAnyGlob(rel, include) && !matchesAnyGlob(rel, exclude) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

func filterExcluded(files []string, root string, exclude []glob.Glob) []string {
	if len(exclude) == 0 {
		return files
	}
	result := make([]string, 0, len(files))
	for _, f := range files {
		if !matchesAnyGlob(relSlash(root, f), exclude) {
			result = append(result, f)
		}
	}
	return result
}

// compilePatterns compiles each pattern with '/' as the separator. A "**/"
// segment also matches zero directories, so "**/*.md" matches "index.md".
func compilePatterns(patterns []string) ([]glob.Glob, error) {
	compiled := make([]glob.Glob, 0, len(patterns))
	for _, p := range patterns {
		for _, variant := range expandDoubleStar(filepath.ToSlash(p)) {
			g, err := glob.Compile(variant, '/')
			if err != nil {
				return nil, fmt.Errorf("invalid glob pattern %q: %w", p, err)
			}
			compiled = append(compiled, g)
		}
	}
	return compiled, nil
}

// expandDoubleStar returns p plus every variant with one or more "**/"
// segments collapsed to nothing.
func expandDoubleStar(p string) []string {
	variants := []string{p}
	seen := map[string]bool{p: true}
	for i := 0; i < len(variants); i++ {
		v := variants[i]
		for j := 0; j+3 <= len(v); j++ {
			if v[j:j+3] != "**/" || (j > 0 && v[j-1] != '/') {
				continue
			}
			collapsed := v[:j] + v[j+3:]
			if !seen[collapsed] {
				seen[collapsed] = true
				variants = append(variants, collapsed)
			}
		}
	}
	return variants
}

func matchesAnyGlob(path string, patterns []glob.Glob) bool {
	for _, g := range patterns {
		if g.Match(path) {
			return true
		}
	}
	return false
}

func relSlash(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		rel = path
	}
	return filepath.ToSlash(rel)
}

func isHidden(name string) bool {
	return len(name) > 1 && strings.HasPrefix(name, ".")
}
