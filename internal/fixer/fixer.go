// Package fixer rewrites external links that redirect to a working final
// URL so documents point at the destination directly.
package fixer

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/goobits/docs-engine-sub003/internal/helpers"
	"github.com/goobits/docs-engine-sub003/internal/validation"
)

// Fix represents a single URL replacement to be made.
type Fix struct {
	FilePath    string // File containing the URL
	OldURL      string // Original URL (redirect source)
	NewURL      string // Final URL (redirect destination)
	Line        int    // First line where the URL appears
	Occurrences int    // How many links in the file use this URL
}

// FileChanges groups all fixes for a single file.
type FileChanges struct {
	FilePath   string
	Fixes      []Fix
	TotalFixes int // Total number of replacements (accounting for occurrences)
}

// FixResult represents the outcome of applying fixes to a file.
type FixResult struct {
	Error       error
	FilePath    string
	ChangedURLs []URLChange
	Applied     int
	Skipped     int
}

// URLChange represents a single URL that was changed.
type URLChange struct {
	OldURL string
	NewURL string
	Line   int
}

// Fixer finds and applies redirect fixes. Root is only used to shorten
// paths in previews and summaries.
type Fixer struct {
	Root string
}

// New creates a new Fixer for documents under root.
func New(root string) *Fixer {
	return &Fixer{Root: root}
}

// IsFixable reports whether a result is a redirect whose destination
// answered successfully.
func IsFixable(r validation.Result) bool {
	return r.Outcome == validation.ExternalValid &&
		r.RedirectURL != "" &&
		r.RedirectURL != r.Link.URL
}

// FindFixes analyzes validation results and returns fixable items grouped
// by file, sorted by path and then by line.
func (*Fixer) FindFixes(results []validation.Result) []FileChanges {
	byFile := map[string]map[string]*Fix{}

	for _, r := range results {
		if !IsFixable(r) {
			continue
		}

		path := r.Link.FilePath
		if byFile[path] == nil {
			byFile[path] = map[string]*Fix{}
		}
		if existing, ok := byFile[path][r.Link.URL]; ok {
			existing.Occurrences++
			existing.Line = min(existing.Line, r.Link.Line)
			continue
		}
		byFile[path][r.Link.URL] = &Fix{
			FilePath:    path,
			OldURL:      r.Link.URL,
			NewURL:      r.RedirectURL,
			Line:        r.Link.Line,
			Occurrences: 1,
		}
	}

	return buildFileChanges(byFile)
}

func buildFileChanges(byFile map[string]map[string]*Fix) []FileChanges {
	paths := make([]string, 0, len(byFile))
	for p := range byFile {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	result := make([]FileChanges, 0, len(byFile))
	for _, path := range paths {
		fixes := make([]Fix, 0, len(byFile[path]))
		total := 0
		for _, fix := range byFile[path] {
			fixes = append(fixes, *fix)
			total += fix.Occurrences
		}
		sort.Slice(fixes, func(i, j int) bool {
			if fixes[i].Line != fixes[j].Line {
				return fixes[i].Line < fixes[j].Line
			}
			return fixes[i].OldURL < fixes[j].OldURL
		})

		result = append(result, FileChanges{
			FilePath:   path,
			Fixes:      fixes,
			TotalFixes: total,
		})
	}
	return result
}

// Preview returns a formatted string showing what changes would be made.
func (f *Fixer) Preview(changes []FileChanges) string {
	if len(changes) == 0 {
		return "No fixable redirects found."
	}

	totalFixes := 0
	for _, fc := range changes {
		totalFixes += fc.TotalFixes
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d fixable %s across %d %s:\n\n",
		totalFixes, helpers.Plural(totalFixes, "redirect", "redirects"),
		len(changes), helpers.Plural(len(changes), "file", "files"))

	for _, fc := range changes {
		fmt.Fprintf(&b, "%s (%d %s)\n", helpers.RelPath(f.Root, fc.FilePath),
			fc.TotalFixes, helpers.Plural(fc.TotalFixes, "fix", "fixes"))

		for _, fix := range fc.Fixes {
			fmt.Fprintf(&b, "  Line %d: %s\n", fix.Line, helpers.TruncateURL(fix.OldURL, 60))
			fmt.Fprintf(&b, "          -> %s", helpers.TruncateURL(fix.NewURL, 60))
			if fix.Occurrences > 1 {
				fmt.Fprintf(&b, " (%d occurrences)", fix.Occurrences)
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	return b.String()
}

// ApplyToFile applies all fixes to a single file. Only whole-URL matches
// are replaced: a URL that is a prefix of a longer URL is left alone.
func (*Fixer) ApplyToFile(fc FileChanges) (*FixResult, error) {
	result := &FixResult{
		FilePath:    fc.FilePath,
		ChangedURLs: []URLChange{},
	}

	info, err := os.Stat(fc.FilePath)
	if err != nil {
		result.Error = fmt.Errorf("reading file: %w", err)
		return result, result.Error
	}
	content, err := os.ReadFile(fc.FilePath)
	if err != nil {
		result.Error = fmt.Errorf("reading file: %w", err)
		return result, result.Error
	}

	original := string(content)
	modified := original

	for _, fix := range fc.Fixes {
		var replaced int
		modified, replaced = ReplaceURL(modified, fix.OldURL, fix.NewURL)
		if replaced == 0 {
			result.Skipped++
			continue
		}
		result.Applied += replaced
		result.ChangedURLs = append(result.ChangedURLs, URLChange{
			Line:   fix.Line,
			OldURL: fix.OldURL,
			NewURL: fix.NewURL,
		})
	}

	if modified == original {
		return result, nil
	}

	if err := os.WriteFile(fc.FilePath, []byte(modified), info.Mode().Perm()); err != nil {
		result.Error = fmt.Errorf("writing file: %w", err)
		return result, result.Error
	}

	return result, nil
}

// ApplyAll applies fixes to all files and returns results.
func (f *Fixer) ApplyAll(changes []FileChanges) []FixResult {
	results := make([]FixResult, 0, len(changes))
	for _, fc := range changes {
		result, _ := f.ApplyToFile(fc)
		results = append(results, *result)
	}
	return results
}

// ReplaceURL replaces every occurrence of oldURL in content that is not
// immediately followed by another URL character. It returns the new
// content and the number of replacements.
func ReplaceURL(content, oldURL, newURL string) (string, int) {
	if oldURL == "" {
		return content, 0
	}

	var b strings.Builder
	count := 0
	rest := content
	for {
		i := strings.Index(rest, oldURL)
		if i < 0 {
			break
		}
		end := i + len(oldURL)
		if end < len(rest) && !isURLTerminator(rest[end]) {
			b.WriteString(rest[:end])
			rest = rest[end:]
			continue
		}
		b.WriteString(rest[:i])
		b.WriteString(newURL)
		rest = rest[end:]
		count++
	}
	if count == 0 {
		return content, 0
	}
	b.WriteString(rest)
	return b.String(), count
}

func isURLTerminator(c byte) bool {
	switch c {
	case ')', '>', '"', '\'', ' ', '\t', '\n', '\r', ']', '<', '`':
		return true
	}
	return false
}

// Summary returns a formatted summary of fix results.
func Summary(results []FixResult) string {
	totalApplied, totalSkipped, filesModified := 0, 0, 0
	var errs []string

	for _, r := range results {
		totalApplied += r.Applied
		totalSkipped += r.Skipped
		if r.Applied > 0 {
			filesModified++
		}
		if r.Error != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", r.FilePath, r.Error))
		}
	}

	if totalApplied == 0 && len(errs) == 0 {
		return "No changes made."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Fixed %d %s across %d %s.\n",
		totalApplied, helpers.Plural(totalApplied, "redirect", "redirects"),
		filesModified, helpers.Plural(filesModified, "file", "files"))

	if totalSkipped > 0 {
		fmt.Fprintf(&b, "Skipped %d (URL not found in file).\n", totalSkipped)
	}

	if len(errs) > 0 {
		b.WriteString("\nErrors:\n")
		for _, e := range errs {
			fmt.Fprintf(&b, "  %s\n", e)
		}
	}

	return b.String()
}

// DetailedSummary returns a detailed summary showing each change.
func (f *Fixer) DetailedSummary(results []FixResult) string {
	totalApplied, filesModified := 0, 0
	for _, r := range results {
		if r.Applied > 0 {
			totalApplied += r.Applied
			filesModified++
		}
	}

	if totalApplied == 0 {
		return "No changes made."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Fixed %d %s across %d %s:\n\n",
		totalApplied, helpers.Plural(totalApplied, "redirect", "redirects"),
		filesModified, helpers.Plural(filesModified, "file", "files"))

	for _, r := range results {
		for _, change := range r.ChangedURLs {
			fmt.Fprintf(&b, "  %s\n", helpers.Location(f.Root, r.FilePath, change.Line))
			fmt.Fprintf(&b, "    %s\n", helpers.TruncateURL(change.OldURL, 70))
			fmt.Fprintf(&b, "    -> %s\n", helpers.TruncateURL(change.NewURL, 70))
		}
	}

	return b.String()
}
