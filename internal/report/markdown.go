package report

import (
	"fmt"
	"strings"

	"github.com/goobits/docs-engine-sub003/internal/helpers"
)

// MarkdownFormatter formats reports as Markdown.
type MarkdownFormatter struct{}

// Format implements Formatter.
func (*MarkdownFormatter) Format(report *Report) ([]byte, error) {
	var b strings.Builder
	b.Grow(len(report.Results)*120 + 500)

	b.WriteString("# Link Check Report\n\n")
	fmt.Fprintf(&b, "**Generated:** %s  \n", report.GeneratedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "**Files Scanned:** %d\n\n", len(report.Files))

	s := report.Summary
	b.WriteString("## Summary\n\n")
	b.WriteString("| Metric | Count |\n")
	b.WriteString("|--------|-------|\n")
	fmt.Fprintf(&b, "| Total | %d |\n", s.Total)
	fmt.Fprintf(&b, "| Valid | %d |\n", s.Valid)
	fmt.Fprintf(&b, "| Broken | %d |\n", s.Broken)
	fmt.Fprintf(&b, "| Internal | %d |\n", s.Internal)
	fmt.Fprintf(&b, "| External | %d |\n", s.External)
	if s.Skipped > 0 {
		fmt.Fprintf(&b, "| Skipped | %d |\n", s.Skipped)
	}
	b.WriteString("\n")

	for _, cat := range Categories() {
		group := report.Group(cat)
		if len(group) == 0 {
			continue
		}
		fmt.Fprintf(&b, "## %s (%d)\n\n", cat.Title(), len(group))
		b.WriteString("| Location | URL | Error |\n")
		b.WriteString("|----------|-----|-------|\n")
		for _, r := range group {
			fmt.Fprintf(&b, "| `%s` | %s | %s |\n",
				helpers.Location(report.Root, r.Link.FilePath, r.Link.Line),
				escapeMarkdown(helpers.TruncateURL(r.Link.URL, 80)),
				escapeMarkdown(r.Error))
		}
		b.WriteString("\n")
	}

	if len(report.FileErrors) > 0 {
		fmt.Fprintf(&b, "## Unreadable Files (%d)\n\n", len(report.FileErrors))
		for _, fe := range report.FileErrors {
			fmt.Fprintf(&b, "- `%s`: %s\n", helpers.RelPath(report.Root, fe.Path), escapeMarkdown(fe.Error))
		}
		b.WriteString("\n")
	}

	if len(report.Ignored) > 0 {
		fmt.Fprintf(&b, "## Ignored Links (%d)\n\n", len(report.Ignored))
		b.WriteString("| URL | Location | Reason | Rule |\n")
		b.WriteString("|-----|----------|--------|------|\n")
		for _, ig := range report.Ignored {
			fmt.Fprintf(&b, "| %s | `%s` | %s | `%s` |\n",
				escapeMarkdown(helpers.TruncateURL(ig.URL, 60)),
				helpers.Location(report.Root, ig.File, ig.Line),
				ig.Reason, ig.Rule)
		}
		b.WriteString("\n")
	}

	if report.AllValid() {
		b.WriteString("**Result:** all links valid\n")
	} else {
		fmt.Fprintf(&b, "**Result:** %d broken %s\n", s.Broken, helpers.Plural(s.Broken, "link", "links"))
	}

	return []byte(b.String()), nil
}

// escapeMarkdown escapes characters that break table cells.
func escapeMarkdown(s string) string {
	s = strings.ReplaceAll(s, "|", "\\|")
	s = strings.ReplaceAll(s, "`", "\\`")
	return s
}
