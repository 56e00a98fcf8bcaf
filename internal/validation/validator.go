// Package validation turns extracted links into verdicts.
//
// Internal and anchor-only links are resolved against the filesystem in
// input order. External links, when enabled, are probed as one bounded
// concurrent batch and their results are appended afterwards, again in
// input order. Links with other schemes (mailto:, tel:, ...) produce no
// result.
package validation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/goobits/docs-engine-sub003/internal/checker"
	"github.com/goobits/docs-engine-sub003/internal/filter"
	"github.com/goobits/docs-engine-sub003/internal/metrics"
	"github.com/goobits/docs-engine-sub003/internal/parser"
	"github.com/goobits/docs-engine-sub003/internal/resolver"
)

// Options configures a Validator.
type Options struct {
	// BaseDir is the root that links starting with "/" resolve against.
	BaseDir string

	// Extensions are tried when an internal link omits its extension.
	// Nil selects resolver.DefaultExtensions.
	Extensions []string

	// CheckExternal enables probing of external links. When false,
	// external links are left out of the results.
	CheckExternal bool

	// Checker probes external links. When nil and CheckExternal is set, a
	// checker with default options is created.
	Checker *checker.Checker

	// Filter drops links matching ignore rules before validation. May be nil.
	Filter *filter.Filter

	// Logger receives debug output for broken links. Defaults to slog.Default().
	Logger *slog.Logger

	// Metrics counts outcomes. May be nil.
	Metrics *metrics.Metrics

	// OnResult is called for every result as it is produced.
	OnResult func(Result)
}

// Validator validates links for a single run.
type Validator struct {
	opts     Options
	resolver *resolver.Resolver
	anchors  *resolver.AnchorIndex
	checker  *checker.Checker
	probes   checker.Summary
}

// New creates a Validator.
func New(opts Options) *Validator {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	v := &Validator{
		opts:     opts,
		resolver: resolver.New(opts.BaseDir, opts.Extensions),
		anchors:  resolver.NewAnchorIndex(),
		checker:  opts.Checker,
	}
	if opts.CheckExternal && v.checker == nil {
		v.checker = checker.New(checker.DefaultOptions().WithMetrics(opts.Metrics))
	}
	return v
}

// ValidateAll returns one result per validated link: internal and
// anchor-only results first, then external results. Each group keeps the
// order of links. A failure validating one link never affects the others.
func (v *Validator) ValidateAll(ctx context.Context, links []parser.Link) []Result {
	results := make([]Result, 0, len(links))
	var external []parser.Link

	for _, link := range links {
		if v.opts.Filter.ShouldIgnore(link.URL, link.FilePath, link.Line) {
			v.opts.Logger.Debug("ignoring link", "url", link.URL, "file", link.FilePath, "line", link.Line)
			continue
		}
		switch link.Class() {
		case parser.ClassExternal:
			if v.opts.CheckExternal {
				external = append(external, link)
			}
		case parser.ClassUnsupported:
			continue
		default:
			results = append(results, v.emit(v.ValidateInternal(link)))
		}
	}

	if len(external) == 0 {
		return results
	}

	batch := make([]checker.Link, len(external))
	for i, link := range external {
		batch[i] = checker.Link{URL: link.URL, FilePath: link.FilePath, Line: link.Line}
	}
	checked := v.checker.CheckAll(ctx, batch)
	v.probes = checker.Summarize(checked)
	for i, cr := range checked {
		results = append(results, v.emit(fromCheck(external[i], cr)))
	}
	return results
}

// ProbeSummary counts the external probes of the last ValidateAll call.
func (v *Validator) ProbeSummary() checker.Summary {
	return v.probes
}

// ValidateInternal checks one internal or anchor-only link. A panic during
// validation is returned as an InternalError result.
func (v *Validator) ValidateInternal(link parser.Link) (r Result) {
	defer func() {
		if p := recover(); p != nil {
			r = newResult(link, InternalError, fmt.Sprintf("%v", p))
		}
	}()

	_, anchor, hasAnchor := resolver.SplitFragment(link.URL)
	if link.IsAnchorOnly() && anchor == "" {
		return newResult(link, AnchorNotFound, "empty anchor")
	}

	target, err := v.resolver.Resolve(link.URL, link.FilePath)
	if err != nil {
		if errors.Is(err, resolver.ErrFileNotFound) {
			return newResult(link, FileNotFound, err.Error())
		}
		return newResult(link, InternalError, err.Error())
	}

	if !hasAnchor || anchor == "" || !resolver.SupportsAnchors(target) {
		return newResult(link, InternalResolved, "")
	}
	if !v.anchors.Has(target, anchor) {
		return newResult(link, AnchorNotFound, fmt.Sprintf("anchor #%s not found in %s", anchor, target))
	}
	return newResult(link, InternalResolved, "")
}

func (v *Validator) emit(r Result) Result {
	v.opts.Metrics.LinkValidated(r.Outcome.String())
	if !r.IsValid {
		v.opts.Logger.Debug("broken link",
			"url", r.Link.URL,
			"file", r.Link.FilePath,
			"line", r.Link.Line,
			"outcome", r.Outcome.String(),
			"error", r.Error,
		)
	}
	if v.opts.OnResult != nil {
		v.opts.OnResult(r)
	}
	return r
}

// fromCheck converts a probe result into a validation result.
func fromCheck(link parser.Link, cr checker.Result) Result {
	var outcome Outcome
	switch {
	case cr.Skipped:
		outcome = ExternalSkipped
	case cr.Valid:
		outcome = ExternalValid
	case cr.ErrKind == checker.ErrKindHTTP:
		outcome = ExternalHTTPError
	case cr.ErrKind == checker.ErrKindTimeout:
		outcome = ExternalTimeout
	default:
		outcome = ExternalNetworkError
	}

	r := newResult(link, outcome, cr.Error)
	r.StatusCode = cr.StatusCode
	r.RedirectURL = cr.FinalURL
	return r
}
