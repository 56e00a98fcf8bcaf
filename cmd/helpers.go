package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/goobits/docs-engine-sub003/internal/checker"
	"github.com/goobits/docs-engine-sub003/internal/config"
	"github.com/goobits/docs-engine-sub003/internal/filter"
	"github.com/goobits/docs-engine-sub003/internal/helpers"
	"github.com/goobits/docs-engine-sub003/internal/metrics"
	"github.com/goobits/docs-engine-sub003/internal/parser"
	"github.com/goobits/docs-engine-sub003/internal/parser/htmldoc"
	"github.com/goobits/docs-engine-sub003/internal/parser/markdown"
	"github.com/goobits/docs-engine-sub003/internal/scanner"
	"github.com/goobits/docs-engine-sub003/internal/stats"
	"github.com/goobits/docs-engine-sub003/internal/ui"
	"github.com/goobits/docs-engine-sub003/internal/validation"
)

// linkFlags are the flags shared by check, interactive and fix. Each one
// overrides the config file only when set explicitly.
type linkFlags struct {
	configPath string
	noConfig   bool

	baseDir     string
	external    bool
	timeout     int
	concurrency int
	skipDomains []string
	exts        []string
	include     []string
	exclude     []string
	retries     int
	parser      string
	rateLimit   float64
	strict      bool

	ignoreDomains  []string
	ignorePatterns []string
	ignoreRegex    []string
}

func (f *linkFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()

	fl.StringVar(&f.configPath, "config", "",
		"Config file (default: search for doclinks.config.json or .doclinksrc.{json,yaml,yml,toml})")
	fl.BoolVar(&f.noConfig, "no-config", false,
		"Skip loading a config file")

	fl.StringVar(&f.baseDir, "base-dir", "",
		"Root directory that links starting with / resolve against")
	fl.BoolVar(&f.external, "external", false,
		"Probe external http(s) links")
	fl.IntVarP(&f.timeout, "timeout", "t", int(checker.DefaultTimeout.Milliseconds()),
		"Timeout per external probe in milliseconds")
	fl.IntVarP(&f.concurrency, "concurrency", "c", checker.DefaultConcurrency,
		"Maximum concurrent external probes")
	fl.StringSliceVar(&f.skipDomains, "skip-domain", nil,
		"Hostname fragments reported valid without a request (replaces the default list)")
	fl.StringSliceVar(&f.exts, "ext", nil,
		"Extensions tried when a link omits one (default .md,.mdx)")
	fl.StringSliceVar(&f.include, "include", nil,
		"Glob patterns of documents to check (default **/*.md,**/*.mdx)")
	fl.StringSliceVar(&f.exclude, "exclude", nil,
		"Glob patterns of documents to skip")
	fl.IntVarP(&f.retries, "retries", "r", checker.DefaultMaxRetries,
		"Retries for transient external failures")
	fl.StringVar(&f.parser, "parser", string(markdown.ModeScan),
		"Markdown extraction mode: scan or ast")
	fl.Float64Var(&f.rateLimit, "rate-limit", 0,
		"Maximum external requests per second (0 = unlimited)")
	fl.BoolVar(&f.strict, "strict", false,
		"Fail when a document cannot be read or parsed")

	fl.StringSliceVar(&f.ignoreDomains, "ignore-domain", nil,
		"Domains whose links are not validated, subdomains included")
	fl.StringSliceVar(&f.ignorePatterns, "ignore-pattern", nil,
		"Glob patterns of link URLs that are not validated")
	fl.StringSliceVar(&f.ignoreRegex, "ignore-regex", nil,
		"Regex patterns of link URLs that are not validated")
}

// effectiveConfig loads the config file and applies explicitly set flags.
// root is the scan path argument, or "" when none was given.
func (f *linkFlags) effectiveConfig(cmd *cobra.Command, root string, logger *slog.Logger) (*config.Config, error) {
	loaded, err := config.Load(config.LoadOptions{
		Path:     f.configPath,
		NoConfig: f.noConfig,
		Logger:   logger,
	})
	if err != nil {
		return nil, err
	}
	cfg := loaded.Config

	changed := cmd.Flags().Changed
	switch {
	case changed("base-dir"):
		cfg.BaseDir = f.baseDir
	case root != "" && (loaded.Path == "" || loaded.Err != nil):
		// Without usable config, the checked directory is the site root.
		if info, err := os.Stat(root); err == nil && info.IsDir() {
			cfg.BaseDir = root
		}
	}
	if changed("external") {
		cfg.CheckExternal = f.external
	}
	if changed("timeout") {
		cfg.Timeout = f.timeout
	}
	if changed("concurrency") {
		cfg.Concurrency = f.concurrency
	}
	if changed("skip-domain") {
		cfg.SkipDomains = f.skipDomains
	}
	if changed("ext") {
		cfg.ValidExtensions = normalizeExtensions(f.exts)
	}
	if changed("include") {
		cfg.Include = f.include
	}
	if changed("exclude") {
		cfg.Exclude = f.exclude
	}
	if changed("retries") {
		cfg.Retries = f.retries
	}
	if changed("parser") {
		cfg.Parser = f.parser
	}
	if changed("rate-limit") {
		cfg.RateLimit = f.rateLimit
	}
	if changed("strict") {
		cfg.Strict = f.strict
	}
	cfg.MergeIgnore(config.IgnoreConfig{
		Domains:  f.ignoreDomains,
		Patterns: f.ignorePatterns,
		Regex:    f.ignoreRegex,
	})

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid settings: %w", err)
	}

	abs, err := filepath.Abs(cfg.BaseDir)
	if err != nil {
		return nil, fmt.Errorf("resolving base dir: %w", err)
	}
	cfg.BaseDir = abs
	return cfg, nil
}

func normalizeExtensions(exts []string) []string {
	out := make([]string, 0, len(exts))
	for _, e := range exts {
		e = strings.TrimSpace(e)
		if e == "" {
			continue
		}
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		out = append(out, strings.ToLower(e))
	}
	return out
}

// linkRun wires one run's collaborators from the effective configuration.
type linkRun struct {
	cfg      *config.Config
	root     string
	logger   *slog.Logger
	metrics  *metrics.Metrics
	filter   *filter.Filter
	registry *parser.Registry
	checker  *checker.Checker
	perf     *stats.Stats
}

func newLinkRun(cfg *config.Config, root string, logger *slog.Logger, m *metrics.Metrics) (*linkRun, error) {
	if root == "" {
		root = cfg.BaseDir
	}

	mode, err := markdown.ParseMode(cfg.Parser)
	if err != nil {
		return nil, err
	}
	registry := parser.NewRegistry()
	registry.Register(markdown.New(markdown.WithMode(mode)))
	registry.Register(htmldoc.New())

	var urlFilter *filter.Filter
	if cfg.HasIgnoreRules() {
		urlFilter, err = filter.New(filter.Config{
			Domains:       cfg.Ignore.Domains,
			GlobPatterns:  cfg.Ignore.Patterns,
			RegexPatterns: cfg.Ignore.Regex,
		})
		if err != nil {
			return nil, fmt.Errorf("creating ignore filter: %w", err)
		}
	}

	var c *checker.Checker
	if cfg.CheckExternal {
		c = checker.New(checker.DefaultOptions().
			WithConcurrency(cfg.Concurrency).
			WithTimeout(cfg.TimeoutDuration()).
			WithMaxRetries(cfg.Retries).
			WithMaxRedirects(cfg.MaxRedirects).
			WithUserAgent(cfg.UserAgent).
			WithSkipDomains(cfg.SkipDomains).
			WithRateLimit(cfg.RateLimit).
			WithMetrics(m))
	}

	return &linkRun{
		cfg:      cfg,
		root:     root,
		logger:   logger,
		metrics:  m,
		filter:   urlFilter,
		registry: registry,
		checker:  c,
		perf:     stats.New(),
	}, nil
}

// discover returns the documents to check.
func (r *linkRun) discover(context.Context) ([]string, error) {
	r.perf.StartDiscover()
	files, err := scanner.FindFilesWithOptions(scanner.ScanOptions{
		Root:       r.root,
		Include:    r.cfg.Include,
		Exclude:    r.cfg.Exclude,
		Extensions: r.cfg.ValidExtensions,
	})
	if err != nil {
		r.perf.EndDiscover(0)
		return nil, err
	}

	// Include patterns may match files no parser understands.
	parsable := files[:0]
	for _, f := range files {
		if r.registry.HasParser(f) {
			parsable = append(parsable, f)
			continue
		}
		r.logger.Debug("skipping unsupported document", "path", f, "supported", r.registry.Extensions())
	}
	r.perf.EndDiscover(len(parsable))
	if len(parsable) == 0 {
		return nil, scanner.ErrNoFiles
	}
	r.logger.Debug("discovered documents", "root", r.root, "files", len(parsable))
	return parsable, nil
}

// extract reads every document and returns its links in file order.
func (r *linkRun) extract(ctx context.Context, files []string) ([]parser.Link, []parser.FileError, error) {
	r.perf.StartExtract()
	links, fileErrs, err := parser.ExtractFromFiles(ctx, files, parser.ExtractOptions{
		Registry: r.registry,
		Logger:   r.logger,
		OnFile: func(_ string, n int, err error) {
			r.metrics.FileExtracted(n, err)
		},
	})
	r.perf.EndExtract(len(links), len(fileErrs))
	return links, fileErrs, err
}

// validate resolves and probes links. onResult may be nil.
func (r *linkRun) validate(ctx context.Context, links []parser.Link, onResult func(validation.Result)) []validation.Result {
	r.perf.StartValidate()
	v := validation.New(validation.Options{
		BaseDir:       r.cfg.BaseDir,
		Extensions:    r.cfg.ValidExtensions,
		CheckExternal: r.cfg.CheckExternal,
		Checker:       r.checker,
		Filter:        r.filter,
		Logger:        r.logger,
		Metrics:       r.metrics,
		OnResult:      onResult,
	})
	results := v.ValidateAll(ctx, links)
	probes := v.ProbeSummary()
	r.perf.RecordProbes(probes.Cached, probes.Skipped, probes.Timeouts)
	r.perf.EndValidate(r.uniqueExternal(links), r.filter.IgnoredCount())
	return results
}

func (r *linkRun) uniqueExternal(links []parser.Link) int {
	if !r.cfg.CheckExternal {
		return 0
	}
	var urls []string
	for _, l := range links {
		if l.IsExternal() {
			urls = append(urls, l.URL)
		}
	}
	return helpers.CountUniqueStrings(urls)
}

// pipeline adapts the run for the interactive UI.
func (r *linkRun) pipeline() ui.Pipeline {
	return ui.Pipeline{
		Discover: r.discover,
		Extract:  r.extract,
		Validate: r.validate,
	}
}

// skipRequested reports whether BUILD_SKIP_LINK_CHECK is set to a truthy value.
func skipRequested() bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(skipEnvVar))) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

const skipEnvVar = "BUILD_SKIP_LINK_CHECK"
