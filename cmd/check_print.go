package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/goobits/docs-engine-sub003/internal/helpers"
	"github.com/goobits/docs-engine-sub003/internal/report"
)

// printFound displays how many documents were discovered.
func printFound(w io.Writer, files []string) {
	fmt.Fprintf(w, "Found %d %s\n", len(files), helpers.Plural(len(files), "document", "documents"))
}

// printProgress displays the number of links about to be validated.
func printProgress(w io.Writer, total, uniqueExternal int, external bool) {
	if total == 0 {
		fmt.Fprintln(w, "No links found.")
		return
	}
	if external && uniqueExternal > 0 {
		fmt.Fprintf(w, "Found %d %s, probing %d unique external %s...\n",
			total, helpers.Plural(total, "link", "links"),
			uniqueExternal, helpers.Plural(uniqueExternal, "URL", "URLs"))
		return
	}
	fmt.Fprintf(w, "Found %d %s, validating...\n", total, helpers.Plural(total, "link", "links"))
}

// printSummaryLine prints the report summary on a single line.
func printSummaryLine(w io.Writer, rep *report.Report) {
	s := rep.Summary
	parts := []string{
		fmt.Sprintf("%d valid", s.Valid),
		fmt.Sprintf("%d broken", s.Broken),
	}
	if s.Skipped > 0 {
		parts = append(parts, fmt.Sprintf("%d skipped", s.Skipped))
	}
	if n := len(rep.FileErrors); n > 0 {
		parts = append(parts, fmt.Sprintf("%d unreadable", n))
	}
	if n := len(rep.Ignored); n > 0 {
		parts = append(parts, fmt.Sprintf("%d ignored", n))
	}
	fmt.Fprintf(w, "\nSummary: %s\n", strings.Join(parts, " | "))
}
