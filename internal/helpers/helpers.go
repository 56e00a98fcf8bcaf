// Package helpers provides small display and counting utilities shared by
// the report, UI and command packages.
package helpers

import (
	"path/filepath"
	"strconv"
	"strings"
)

// TruncateText shortens text to maxLen bytes, adding "..." if truncated.
// Returns "" for empty or whitespace-only input.
func TruncateText(text string, maxLen int) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}
	return TruncateURL(text, maxLen)
}

// TruncateURL shortens a URL to maxLen bytes for display, adding "..." if
// truncated. Limits below 4 leave the URL unchanged.
func TruncateURL(url string, maxLen int) string {
	if maxLen < 4 || len(url) <= maxLen {
		return url
	}
	return url[:maxLen-3] + "..."
}

// CountUniqueStrings returns the number of distinct strings in items.
func CountUniqueStrings(items []string) int {
	seen := make(map[string]struct{}, len(items))
	for _, item := range items {
		seen[item] = struct{}{}
	}
	return len(seen)
}

// RelPath returns path relative to root for display. It falls back to path
// when root is empty or path lies outside root.
func RelPath(root, path string) string {
	if root == "" {
		return path
	}
	rel, err := filepath.Rel(root, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return path
	}
	return filepath.ToSlash(rel)
}

// Location formats a source position as file:line.
func Location(root, path string, line int) string {
	return RelPath(root, path) + ":" + strconv.Itoa(line)
}

// Plural returns singular when n == 1 and plural otherwise.
func Plural(n int, singular, plural string) string {
	if n == 1 {
		return singular
	}
	return plural
}
