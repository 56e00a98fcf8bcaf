// Package filter decides which links are left out of validation.
// Rules are domains (external links only), glob patterns and regular
// expressions, all matched against the link URL as written.
package filter

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"sync"

	"github.com/gobwas/glob"
)

// RuleType names the kind of rule that matched a link.
type RuleType string

const (
	RuleDomain  RuleType = "domain"
	RulePattern RuleType = "pattern"
	RuleRegex   RuleType = "regex"
)

// IgnoreReason records a link that was ignored and the rule responsible.
type IgnoreReason struct {
	Type RuleType
	Rule string // The rule as configured
	URL  string
	File string
	Line int
}

// Filter determines which links should be skipped during validation.
// It is safe for concurrent use.
type Filter struct {
	// domains maps domain names for O(1) lookup.
	// Each domain also matches its subdomains.
	domains map[string]bool

	globPatterns  []compiledGlob
	regexPatterns []compiledRegex

	mu      sync.Mutex
	ignored []IgnoreReason
}

type compiledGlob struct {
	pattern  glob.Glob
	original string
}

type compiledRegex struct {
	pattern  *regexp.Regexp
	original string
}

// Config holds filter rules.
type Config struct {
	Domains       []string // Hosts to ignore, subdomains included
	GlobPatterns  []string // e.g. "https://*.internal/*", "../drafts/*"
	RegexPatterns []string // e.g. `^https?://.*\.local(/|$)`
}

// New compiles the rules in cfg. It fails on the first invalid pattern.
func New(cfg Config) (*Filter, error) {
	f := &Filter{domains: map[string]bool{}}

	for _, d := range cfg.Domains {
		d = strings.ToLower(strings.TrimSpace(d))
		if d != "" {
			f.domains[d] = true
		}
	}

	for _, p := range cfg.GlobPatterns {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		g, err := glob.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid glob pattern %q: %w", p, err)
		}
		f.globPatterns = append(f.globPatterns, compiledGlob{pattern: g, original: p})
	}

	for _, p := range cfg.RegexPatterns {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		r, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid regex pattern %q: %w", p, err)
		}
		f.regexPatterns = append(f.regexPatterns, compiledRegex{pattern: r, original: p})
	}

	return f, nil
}

// ShouldIgnore reports whether the link should be skipped and records the
// reason. Rules are checked domain, then glob, then regex. A nil Filter
// ignores nothing.
func (f *Filter) ShouldIgnore(rawURL, file string, line int) bool {
	if f == nil {
		return false
	}

	typ, rule, ok := f.Match(rawURL)
	if !ok {
		return false
	}

	f.mu.Lock()
	f.ignored = append(f.ignored, IgnoreReason{Type: typ, Rule: rule, URL: rawURL, File: file, Line: line})
	f.mu.Unlock()
	return true
}

// Match returns the first rule matching rawURL without recording it.
func (f *Filter) Match(rawURL string) (RuleType, string, bool) {
	if f == nil {
		return "", "", false
	}
	if rule, ok := f.matchesDomain(rawURL); ok {
		return RuleDomain, rule, true
	}
	for _, g := range f.globPatterns {
		if g.pattern.Match(rawURL) {
			return RulePattern, g.original, true
		}
	}
	for _, r := range f.regexPatterns {
		if r.pattern.MatchString(rawURL) {
			return RuleRegex, r.original, true
		}
	}
	return "", "", false
}

// matchesDomain checks the URL's host, or any parent domain of it, against
// the ignored domains. URLs without a host never match.
func (f *Filter) matchesDomain(rawURL string) (string, bool) {
	if len(f.domains) == 0 {
		return "", false
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", false
	}
	host := strings.ToLower(parsed.Hostname())
	if host == "" {
		return "", false
	}

	for h := host; h != ""; {
		if f.domains[h] {
			return h, true
		}
		_, rest, found := strings.Cut(h, ".")
		if !found {
			break
		}
		h = rest
	}
	return "", false
}

// IgnoredCount returns the number of links ignored so far.
func (f *Filter) IgnoredCount() int {
	if f == nil {
		return 0
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.ignored)
}

// IgnoredURLs returns a copy of the recorded ignore reasons.
func (f *Filter) IgnoredURLs() []IgnoreReason {
	if f == nil {
		return nil
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]IgnoreReason(nil), f.ignored...)
}

// Reset clears the recorded ignore reasons.
func (f *Filter) Reset() {
	if f == nil {
		return
	}
	f.mu.Lock()
	f.ignored = f.ignored[:0]
	f.mu.Unlock()
}

// HasRules reports whether any rule is configured.
func (f *Filter) HasRules() bool {
	if f == nil {
		return false
	}
	return len(f.domains) > 0 || len(f.globPatterns) > 0 || len(f.regexPatterns) > 0
}

// Stats returns the number of rules of each type.
func (f *Filter) Stats() (domains, globs, regexes int) {
	if f == nil {
		return 0, 0, 0
	}
	return len(f.domains), len(f.globPatterns), len(f.regexPatterns)
}
