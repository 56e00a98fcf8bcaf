package ui

import (
	"fmt"
	"strings"

	"github.com/goobits/docs-engine-sub003/internal/helpers"
	"github.com/goobits/docs-engine-sub003/internal/validation"
)

// ResultItem wraps a validation result to implement list.DefaultItem.
type ResultItem struct {
	Result validation.Result
	Root   string
}

// FilterValue implements list.Item.
func (i ResultItem) FilterValue() string {
	return i.Result.Link.URL + " " + i.Result.Link.FilePath
}

// Title shows the link text when there is one, otherwise the URL.
func (i ResultItem) Title() string {
	if text := helpers.TruncateText(i.Result.Link.Text, 60); text != "" {
		return fmt.Sprintf("%q", text)
	}
	return helpers.TruncateURL(i.Result.Link.URL, 80)
}

// Description shows the URL (when Title used the text), the error and the
// source location.
func (i ResultItem) Description() string {
	r := i.Result
	var parts []string
	if r.Link.Text != "" {
		parts = append(parts, helpers.TruncateURL(r.Link.URL, 50))
	}
	if r.Error != "" {
		parts = append(parts, helpers.TruncateText(r.Error, 40))
	}
	parts = append(parts, helpers.Location(i.Root, r.Link.FilePath, r.Link.Line))
	return strings.Join(parts, " | ")
}

// DetailView returns an expanded detail view for the selected item.
func (i ResultItem) DetailView() string {
	r := i.Result
	var b strings.Builder

	row := func(label, value string) {
		fmt.Fprintf(&b, "│ %s  %s\n", DetailLabelStyle.Render(label), value)
	}

	b.WriteString("┌─ Details ─────────────────────────────────────────────────────────────\n")
	row("Outcome:", OutcomeBadge(r.Outcome)+" "+r.Outcome.String())
	row("URL:", r.Link.URL)
	if r.StatusCode > 0 {
		row("HTTP Code:", fmt.Sprintf("%d", r.StatusCode))
	}
	if r.RedirectURL != "" {
		row("Final URL:", r.RedirectURL)
	}
	if r.Error != "" {
		row("Error:", r.Error)
	}
	if text := helpers.TruncateText(r.Link.Text, 60); text != "" {
		row("Text:", fmt.Sprintf("%q", text))
	}
	b.WriteString("│\n")
	row("File:", helpers.Location(i.Root, r.Link.FilePath, r.Link.Line))
	b.WriteString("└────────────────────────────────────────────────────────────────────────\n")

	return b.String()
}
