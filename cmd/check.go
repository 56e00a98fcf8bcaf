package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/goobits/docs-engine-sub003/internal/helpers"
	"github.com/goobits/docs-engine-sub003/internal/metrics"
	"github.com/goobits/docs-engine-sub003/internal/report"
	"github.com/goobits/docs-engine-sub003/internal/scanner"
)

// checkOptions holds the check command's flags.
type checkOptions struct {
	links linkFlags

	format      string
	output      string
	metricsFile string
	showStats   bool
	showIgnored bool
}

func newCheckCmd(g *globalOptions) *cobra.Command {
	o := &checkOptions{}

	cmd := &cobra.Command{
		Use:   "check [path]",
		Short: "Validate every link in a documentation tree",
		Long: `Scan a directory for markdown documents and validate every link.

Relative links must resolve to an existing file (extensions from --ext are
tried, and directories resolve to their index file). Anchors must match a
heading or explicit id in the target document. External links are probed
over HTTP when --external is set.

If no path is provided, scans the current directory.

Exit codes:
  0 - All links are valid
  1 - Broken links found (or unreadable files with --strict)
  2 - No documents found

Set BUILD_SKIP_LINK_CHECK=1 to skip the check entirely (exit 0).

Examples:
  doclinks check                         # Check the current directory
  doclinks check ./docs                  # Check a specific directory
  doclinks check --external              # Also probe http(s) links
  doclinks check --base-dir=./site       # Resolve /links against ./site
  doclinks check --format=json           # Output JSON to stdout
  doclinks check --output=report.junit.xml  # Write JUnit XML for CI/CD
  doclinks check --parser=ast            # Use the CommonMark AST extractor
  doclinks check --stats                 # Show performance statistics

Note: --format and --output are mutually exclusive.

Ignore patterns:
  doclinks check --ignore-domain=localhost,example.com
  doclinks check --ignore-pattern="https://*.local/*"
  doclinks check --ignore-regex=".*\\.test$"
  doclinks check --show-ignored          # Show which links were ignored

Config file (.doclinksrc.yaml):
  baseDir: ./docs
  checkExternal: true
  ignore:
    domains: [localhost]
    patterns: ["https://*.local/*"]`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd, g, o, args)
		},
	}

	o.links.register(cmd)
	cmd.Flags().StringVarP(&o.format, "format", "f", "",
		"Output format for stdout: "+strings.Join(report.ValidFormats(), ", "))
	cmd.Flags().StringVarP(&o.output, "output", "o", "",
		"Write report to file (format inferred from extension: .json, .yaml, .xml, .junit.xml, .md, .txt)")
	cmd.Flags().StringVar(&o.metricsFile, "metrics-file", "",
		"Write Prometheus metrics in textfile format to this path")
	cmd.Flags().BoolVar(&o.showStats, "stats", false,
		"Show detailed performance statistics")
	cmd.Flags().BoolVar(&o.showIgnored, "show-ignored", false,
		"Show which links were ignored and why")
	return cmd
}

// validate checks for invalid flag combinations.
func (o *checkOptions) validate() error {
	if o.format != "" && o.output != "" {
		return errors.New("--format and --output are mutually exclusive; " +
			"use --format for stdout output, or --output for file output")
	}
	if o.format != "" && !report.IsValidFormat(o.format) {
		return fmt.Errorf("invalid format %q; valid formats: %s",
			o.format, strings.Join(report.ValidFormats(), ", "))
	}
	if o.output != "" {
		if _, err := report.InferFormat(o.output); err != nil {
			return err
		}
	}
	return nil
}

// humanOutput reports whether progress lines may go to stdout.
func (o *checkOptions) humanOutput() bool {
	return o.format == "" || o.format == string(report.FormatText)
}

// runCheck is the main entry point for the check command.
func runCheck(cmd *cobra.Command, g *globalOptions, o *checkOptions, args []string) error {
	logger, err := newLogger(cmd.ErrOrStderr(), g.logLevel, g.logFormat)
	if err != nil {
		return err
	}

	if skipRequested() {
		logger.Warn("link check skipped", "env", skipEnvVar)
		return nil
	}
	if err := o.validate(); err != nil {
		return err
	}

	root := pathArg(args)
	cfg, err := o.links.effectiveConfig(cmd, root, logger)
	if err != nil {
		return err
	}

	var m *metrics.Metrics
	if o.metricsFile != "" {
		m = metrics.New(version)
	}

	run, err := newLinkRun(cfg, root, logger, m)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	// Phase 1: find documents
	files, err := run.discover(ctx)
	if errors.Is(err, scanner.ErrNoFiles) {
		return &exitError{code: ExitNoFiles, err: err}
	}
	if err != nil {
		return err
	}
	if o.humanOutput() {
		printFound(out, files)
	}

	// Phase 2: extract links
	links, fileErrs, err := run.extract(ctx, files)
	if err != nil {
		return fmt.Errorf("extracting links: %w", err)
	}
	if o.humanOutput() {
		printProgress(out, len(links), run.uniqueExternal(links), cfg.CheckExternal)
	}

	// Phase 3: validate
	results := run.validate(ctx, links, nil)
	if err := ctx.Err(); err != nil {
		logger.Warn("check interrupted, results are partial", "error", err)
	}

	// Phase 4: report
	rep := report.Build(files, results, fileErrs)
	rep.Root = displayRoot(root, cfg.BaseDir)
	if o.showIgnored {
		rep.WithIgnored(run.filter.IgnoredURLs())
	}
	if o.showStats {
		rep.Stats = run.perf.ToMap()
	}

	if err := o.writeReport(out, rep, run.perf, g.noColor); err != nil {
		return err
	}
	if err := writeMetrics(m, o.metricsFile, logger); err != nil {
		return err
	}

	if cfg.Strict && len(fileErrs) > 0 {
		return &exitError{code: ExitBroken, err: fmt.Errorf("%d %s could not be read (strict mode)",
			len(fileErrs), helpers.Plural(len(fileErrs), "file", "files"))}
	}
	if !rep.AllValid() {
		return &exitError{code: ExitBroken}
	}
	return nil
}

// pathArg returns the path argument or "." as default.
func pathArg(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return "."
}

// displayRoot is the directory report paths are shown relative to.
func displayRoot(root, baseDir string) string {
	abs, err := filepath.Abs(root)
	if err != nil {
		return baseDir
	}
	if info, err := os.Stat(abs); err == nil && !info.IsDir() {
		return filepath.Dir(abs)
	}
	return abs
}
