package report

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/goobits/docs-engine-sub003/internal/helpers"
	"github.com/goobits/docs-engine-sub003/internal/validation"
)

var (
	sectionStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	passStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("82"))
	failStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
)

// TextFormatter renders the human-readable report: one section per broken
// category listing file:line, URL and error, then the summary block and a
// pass/fail banner.
type TextFormatter struct {
	// Color enables ANSI styling.
	Color bool

	// ShowIgnored lists links dropped by ignore rules.
	ShowIgnored bool
}

func (f *TextFormatter) style(s lipgloss.Style, text string) string {
	if !f.Color {
		return text
	}
	return s.Render(text)
}

// Format implements Formatter.
func (f *TextFormatter) Format(report *Report) ([]byte, error) {
	var b strings.Builder

	for _, cat := range Categories() {
		group := report.Group(cat)
		if len(group) == 0 {
			continue
		}
		b.WriteString(f.style(sectionStyle, fmt.Sprintf("=== %s (%d) ===", cat.Title(), len(group))))
		b.WriteString("\n\n")
		for _, r := range group {
			f.writeBroken(&b, report.Root, r)
		}
	}

	if len(report.FileErrors) > 0 {
		b.WriteString(f.style(warnStyle, fmt.Sprintf("=== Skipped Files (%d) ===", len(report.FileErrors))))
		b.WriteString("\n\n")
		for _, fe := range report.FileErrors {
			fmt.Fprintf(&b, "  %s\n       Error: %s\n\n", helpers.RelPath(report.Root, fe.Path), fe.Error)
		}
	}

	if f.ShowIgnored && len(report.Ignored) > 0 {
		b.WriteString(f.style(mutedStyle, fmt.Sprintf("=== Ignored Links (%d) ===", len(report.Ignored))))
		b.WriteString("\n\n")
		for _, ig := range report.Ignored {
			fmt.Fprintf(&b, "  [IGNORED] %s\n", ig.URL)
			fmt.Fprintf(&b, "            File: %s\n", helpers.Location(report.Root, ig.File, ig.Line))
			fmt.Fprintf(&b, "            Reason: %s %q\n\n", ig.Reason, ig.Rule)
		}
	}

	s := report.Summary
	b.WriteString(f.style(sectionStyle, "=== Summary ==="))
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "  Total:     %5d\n", s.Total)
	fmt.Fprintf(&b, "  Valid:     %5d\n", s.Valid)
	fmt.Fprintf(&b, "  Broken:    %5d\n", s.Broken)
	fmt.Fprintf(&b, "  Internal:  %5d\n", s.Internal)
	fmt.Fprintf(&b, "  External:  %5d\n", s.External)
	if s.Skipped > 0 {
		fmt.Fprintf(&b, "  Skipped:   %5d\n", s.Skipped)
	}
	b.WriteString("\n")

	if report.AllValid() {
		b.WriteString(f.style(passStyle, fmt.Sprintf("✓ All %d %s valid", s.Total, helpers.Plural(s.Total, "link", "links"))))
	} else {
		b.WriteString(f.style(failStyle, fmt.Sprintf("✗ %d broken %s found", s.Broken, helpers.Plural(s.Broken, "link", "links"))))
	}
	b.WriteString("\n")

	return []byte(b.String()), nil
}

func (f *TextFormatter) writeBroken(b *strings.Builder, root string, r validation.Result) {
	fmt.Fprintf(b, "  %s\n", helpers.Location(root, r.Link.FilePath, r.Link.Line))
	fmt.Fprintf(b, "       URL:   %s\n", r.Link.URL)
	if text := helpers.TruncateText(r.Link.Text, 50); text != "" {
		fmt.Fprintf(b, "       Text:  %q\n", text)
	}
	if r.RedirectURL != "" {
		fmt.Fprintf(b, "       Final: %s\n", r.RedirectURL)
	}
	fmt.Fprintf(b, "       Error: %s\n\n", f.style(failStyle, r.Error))
}
