// Package report groups validation results and renders them as text,
// JSON, YAML, Markdown or JUnit XML.
package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/goobits/docs-engine-sub003/internal/filter"
	"github.com/goobits/docs-engine-sub003/internal/parser"
	"github.com/goobits/docs-engine-sub003/internal/validation"
)

// Format represents an output format type.
type Format string

const (
	// FormatText is the grouped human-readable report.
	FormatText Format = "text"
	// FormatJSON is the ordered array of all results.
	FormatJSON Format = "json"
	// FormatYAML is the full report with summary as YAML.
	FormatYAML Format = "yaml"
	// FormatMarkdown is a Markdown report with one table per category.
	FormatMarkdown Format = "markdown"
	// FormatJUnit is JUnit XML for CI systems.
	FormatJUnit Format = "junit"
)

// ValidFormats returns all valid format strings.
func ValidFormats() []string {
	return []string{
		string(FormatText),
		string(FormatJSON),
		string(FormatYAML),
		string(FormatMarkdown),
		string(FormatJUnit),
	}
}

// IsValidFormat checks if a format string is valid.
func IsValidFormat(s string) bool {
	switch Format(strings.ToLower(s)) {
	case FormatText, FormatJSON, FormatYAML, FormatMarkdown, FormatJUnit:
		return true
	default:
		return false
	}
}

// Category groups broken links for reporting.
type Category int

const (
	// CategoryFileNotFound holds internal links whose target does not exist.
	CategoryFileNotFound Category = iota
	// CategoryBrokenAnchor holds links whose #fragment matches no heading or id.
	CategoryBrokenAnchor
	// CategoryHTTPError holds external links answered with a non-2xx status.
	CategoryHTTPError
	// CategoryTimeout holds external links that timed out or hit a network error.
	CategoryTimeout
	// CategoryOther holds links whose validation failed internally.
	CategoryOther
)

// Categories returns every category in report order.
func Categories() []Category {
	return []Category{CategoryFileNotFound, CategoryBrokenAnchor, CategoryHTTPError, CategoryTimeout, CategoryOther}
}

// Title returns the section heading for the category.
func (c Category) Title() string {
	switch c {
	case CategoryFileNotFound:
		return "Files Not Found"
	case CategoryBrokenAnchor:
		return "Broken Anchors"
	case CategoryHTTPError:
		return "External Link Errors"
	case CategoryTimeout:
		return "Timeouts"
	default:
		return "Other Errors"
	}
}

// CategoryOf returns the category of a broken outcome. ok is false for
// valid outcomes.
func CategoryOf(o validation.Outcome) (c Category, ok bool) {
	switch o {
	case validation.FileNotFound:
		return CategoryFileNotFound, true
	case validation.AnchorNotFound:
		return CategoryBrokenAnchor, true
	case validation.ExternalHTTPError:
		return CategoryHTTPError, true
	case validation.ExternalTimeout, validation.ExternalNetworkError:
		return CategoryTimeout, true
	case validation.InternalError:
		return CategoryOther, true
	default:
		return 0, false
	}
}

// Summary holds aggregate counts over all results.
type Summary struct {
	Total    int `json:"total" yaml:"total"`
	Valid    int `json:"valid" yaml:"valid"`
	Broken   int `json:"broken" yaml:"broken"`
	Internal int `json:"internal" yaml:"internal"`
	External int `json:"external" yaml:"external"`
	Skipped  int `json:"skipped" yaml:"skipped"`
}

// Summarize counts results.
func Summarize(results []validation.Result) Summary {
	s := Summary{Total: len(results)}
	for _, r := range results {
		if r.IsValid {
			s.Valid++
		} else {
			s.Broken++
		}
		if r.IsExternal() {
			s.External++
		} else {
			s.Internal++
		}
		if r.Outcome == validation.ExternalSkipped {
			s.Skipped++
		}
	}
	return s
}

// FileError is a document that could not be read or parsed.
type FileError struct {
	Path  string
	Error string
}

// IgnoredLink is a link left out by an ignore rule.
type IgnoredLink struct {
	URL    string
	File   string
	Line   int
	Reason string // "domain", "pattern" or "regex"
	Rule   string
}

// Report contains everything the formatters render.
type Report struct {
	GeneratedAt time.Time
	Root        string // File paths are shown relative to Root when set
	Files       []string
	Results     []validation.Result
	Summary     Summary
	FileErrors  []FileError
	Ignored     []IgnoredLink
	Stats       map[string]any // Optional performance stats for structured output
}

// Build assembles a report from one run.
func Build(files []string, results []validation.Result, fileErrs []parser.FileError) *Report {
	r := &Report{
		GeneratedAt: time.Now(),
		Files:       files,
		Results:     results,
		Summary:     Summarize(results),
	}
	for _, fe := range fileErrs {
		r.FileErrors = append(r.FileErrors, FileError{Path: fe.Path, Error: fe.Err.Error()})
	}
	return r
}

// WithIgnored records the links an ignore filter dropped.
func (r *Report) WithIgnored(reasons []filter.IgnoreReason) *Report {
	for _, ig := range reasons {
		r.Ignored = append(r.Ignored, IgnoredLink{
			URL:    ig.URL,
			File:   ig.File,
			Line:   ig.Line,
			Reason: string(ig.Type),
			Rule:   ig.Rule,
		})
	}
	return r
}

// AllValid reports whether no result is broken.
func (r *Report) AllValid() bool {
	return r.Summary.Broken == 0
}

// Broken returns the broken results, in result order.
func (r *Report) Broken() []validation.Result {
	return validation.Broken(r.Results)
}

// Group returns the broken results of one category, in result order.
func (r *Report) Group(c Category) []validation.Result {
	var out []validation.Result
	for _, res := range r.Results {
		if cat, ok := CategoryOf(res.Outcome); ok && cat == c {
			out = append(out, res)
		}
	}
	return out
}

// Formatter is the interface that output formatters implement.
type Formatter interface {
	Format(report *Report) ([]byte, error)
}

// GetFormatter returns the formatter for a format.
func GetFormatter(format Format) (Formatter, error) {
	switch format {
	case FormatText:
		return &TextFormatter{}, nil
	case FormatJSON:
		return &JSONFormatter{}, nil
	case FormatYAML:
		return &YAMLFormatter{}, nil
	case FormatMarkdown:
		return &MarkdownFormatter{}, nil
	case FormatJUnit:
		return &JUnitFormatter{}, nil
	default:
		return nil, fmt.Errorf("unknown format: %s", format)
	}
}

// FormatReport formats a report using the specified format.
func FormatReport(report *Report, format Format) ([]byte, error) {
	formatter, err := GetFormatter(format)
	if err != nil {
		return nil, err
	}
	return formatter.Format(report)
}

// InferFormat determines the output format from a filename extension.
func InferFormat(filename string) (Format, error) {
	if strings.HasSuffix(strings.ToLower(filename), ".junit.xml") {
		return FormatJUnit, nil
	}

	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".xml":
		return FormatJUnit, nil
	case ".md", ".markdown":
		return FormatMarkdown, nil
	case ".txt", ".log":
		return FormatText, nil
	default:
		return "", fmt.Errorf(
			"cannot infer format from extension %q (supported: .json, .yaml, .yml, .xml, .junit.xml, .md, .markdown, .txt, .log)",
			ext,
		)
	}
}

// WriteToFile writes the report to filename in the format its extension implies.
func WriteToFile(report *Report, filename string) error {
	format, err := InferFormat(filename)
	if err != nil {
		return err
	}

	data, err := FormatReport(report, format)
	if err != nil {
		return fmt.Errorf("formatting report: %w", err)
	}

	if err := os.WriteFile(filename, data, 0o600); err != nil {
		return fmt.Errorf("writing file: %w", err)
	}
	return nil
}
