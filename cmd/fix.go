package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/goobits/docs-engine-sub003/internal/fixer"
	"github.com/goobits/docs-engine-sub003/internal/helpers"
	"github.com/goobits/docs-engine-sub003/internal/scanner"
	"github.com/goobits/docs-engine-sub003/internal/validation"
)

// fixOptions holds the fix command's flags.
type fixOptions struct {
	links linkFlags

	yes       bool
	dryRun    bool
	showStats bool
}

func newFixCmd(g *globalOptions) *cobra.Command {
	o := &fixOptions{}

	cmd := &cobra.Command{
		Use:   "fix [path]",
		Short: "Rewrite redirected external links to their final URL",
		Long: `Probe external links and update redirected ones to their final destination.

Only redirects whose destination answers with a success status are
rewritten. Broken links are reported by check and never modified.
External probing is always enabled for this command.

By default, the command runs interactively, prompting for each file.
Use --yes to apply all fixes automatically (useful for CI/scripts).
Use --dry-run to preview changes without modifying files.

Examples:
  doclinks fix                      # Interactive mode, current directory
  doclinks fix ./docs               # Interactive mode, specific directory
  doclinks fix --dry-run            # Preview what would be fixed
  doclinks fix --yes                # Apply all fixes without prompting
  doclinks fix --ignore-domain=localhost`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFix(cmd, g, o, args)
		},
	}

	o.links.register(cmd)
	cmd.Flags().BoolVarP(&o.yes, "yes", "y", false,
		"Apply all fixes without prompting")
	cmd.Flags().BoolVarP(&o.dryRun, "dry-run", "n", false,
		"Preview changes without modifying files")
	cmd.Flags().BoolVar(&o.showStats, "stats", false,
		"Show detailed performance statistics")
	return cmd
}

// runFix scans for redirects and applies fixes interactively or automatically.
func runFix(cmd *cobra.Command, g *globalOptions, o *fixOptions, args []string) error {
	logger, err := newLogger(cmd.ErrOrStderr(), g.logLevel, g.logFormat)
	if err != nil {
		return err
	}

	root := pathArg(args)
	cfg, err := o.links.effectiveConfig(cmd, root, logger)
	if err != nil {
		return err
	}
	cfg.CheckExternal = true

	run, err := newLinkRun(cfg, root, logger, nil)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	files, err := run.discover(ctx)
	if errors.Is(err, scanner.ErrNoFiles) {
		return &exitError{code: ExitNoFiles, err: err}
	}
	if err != nil {
		return err
	}
	printFound(out, files)

	links, _, err := run.extract(ctx, files)
	if err != nil {
		return fmt.Errorf("extracting links: %w", err)
	}
	unique := run.uniqueExternal(links)
	if unique == 0 {
		fmt.Fprintln(out, "No external links found.")
		return nil
	}
	fmt.Fprintf(out, "Checking %d unique %s for redirects...\n",
		unique, helpers.Plural(unique, "URL", "URLs"))

	results := run.validate(ctx, links, nil)
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("fix interrupted: %w", err)
	}

	f := fixer.New(displayRoot(root, cfg.BaseDir))
	changes := f.FindFixes(results)
	defer func() {
		if o.showStats {
			fmt.Fprint(out, run.perf.String())
		}
	}()

	if len(changes) == 0 {
		fmt.Fprintln(out, "\nNo fixable redirects found.")
		printFixSummary(out, results)
		return nil
	}

	fmt.Fprintln(out)
	fmt.Fprint(out, f.Preview(changes))

	switch {
	case o.dryRun:
		fmt.Fprintln(out, "Dry-run mode: no files were modified.")
		return nil
	case o.yes:
		fixResults := f.ApplyAll(changes)
		fmt.Fprintln(out, f.DetailedSummary(fixResults))
		return fixErrors(fixResults)
	default:
		fixResults := runInteractiveFix(cmd.InOrStdin(), out, f, changes)
		return fixErrors(fixResults)
	}
}

// fixErrors joins the write errors of every file.
func fixErrors(results []fixer.FixResult) error {
	var errs []error
	for _, r := range results {
		if r.Error != nil {
			errs = append(errs, fmt.Errorf("%s: %w", r.FilePath, r.Error))
		}
	}
	return errors.Join(errs...)
}

// runInteractiveFix prompts for each file before applying fixes. End of
// input behaves like quit.
func runInteractiveFix(in io.Reader, out io.Writer, f *fixer.Fixer, changes []fixer.FileChanges) []fixer.FixResult {
	reader := bufio.NewReader(in)
	var allResults []fixer.FixResult
	applyAll := false

	skipRest := func(from int) {
		for _, fc := range changes[from:] {
			allResults = append(allResults, fixer.FixResult{FilePath: fc.FilePath, Skipped: fc.TotalFixes})
		}
	}
	apply := func(fc fixer.FileChanges) {
		result, err := f.ApplyToFile(fc)
		if err != nil {
			fmt.Fprintf(out, "Error: %v\n", err)
		} else {
			fmt.Fprintf(out, "Fixed %d %s in %s\n",
				result.Applied, helpers.Plural(result.Applied, "redirect", "redirects"),
				helpers.RelPath(f.Root, fc.FilePath))
		}
		allResults = append(allResults, *result)
	}

	for i := 0; i < len(changes); i++ {
		fc := changes[i]

		if applyAll {
			apply(fc)
			continue
		}

		fmt.Fprintf(out, "\nFix %s? (%d %s) [y/n/a/q/?] ",
			helpers.RelPath(f.Root, fc.FilePath), fc.TotalFixes,
			helpers.Plural(fc.TotalFixes, "change", "changes"))

		input, err := reader.ReadString('\n')
		if err != nil && input == "" {
			fmt.Fprintln(out, "\nNo more input. Remaining files were not modified.")
			skipRest(i)
			break
		}

		switch strings.TrimSpace(strings.ToLower(input)) {
		case "y", "yes":
			apply(fc)
		case "n", "no":
			fmt.Fprintf(out, "Skipped %s\n", helpers.RelPath(f.Root, fc.FilePath))
			allResults = append(allResults, fixer.FixResult{FilePath: fc.FilePath, Skipped: fc.TotalFixes})
		case "a", "all":
			apply(fc)
			applyAll = true
		case "q", "quit":
			fmt.Fprintln(out, "\nQuitting. Remaining files were not modified.")
			skipRest(i)
			i = len(changes)
		case "?", "help":
			printInteractiveHelp(out)
			i--
		default:
			fmt.Fprintln(out, "Invalid input. Use y/n/a/q/? (or type 'help')")
			i--
		}
	}

	fmt.Fprintln(out)
	printInteractiveResults(out, allResults)
	return allResults
}

func printInteractiveHelp(out io.Writer) {
	fmt.Fprintln(out, `
Interactive mode options:
  y, yes  - Fix this file
  n, no   - Skip this file
  a, all  - Fix this file and all remaining files
  q, quit - Quit without fixing remaining files
  ?, help - Show this help`)
}

// printInteractiveResults displays a summary of the interactive session.
func printInteractiveResults(out io.Writer, results []fixer.FixResult) {
	applied, filesModified, filesSkipped := 0, 0, 0
	for _, r := range results {
		applied += r.Applied
		if r.Applied > 0 {
			filesModified++
		}
		if r.Skipped > 0 && r.Applied == 0 {
			filesSkipped++
		}
	}

	if applied > 0 {
		fmt.Fprintf(out, "Fixed %d %s across %d %s.\n",
			applied, helpers.Plural(applied, "redirect", "redirects"),
			filesModified, helpers.Plural(filesModified, "file", "files"))
	}
	if filesSkipped > 0 {
		fmt.Fprintf(out, "Skipped %d %s.\n", filesSkipped, helpers.Plural(filesSkipped, "file", "files"))
	}
}

// printFixSummary displays external link outcomes for context.
func printFixSummary(out io.Writer, results []validation.Result) {
	valid, redirected, broken := 0, 0, 0
	for _, r := range results {
		if !r.IsExternal() {
			continue
		}
		switch {
		case fixer.IsFixable(r):
			redirected++
		case r.IsValid:
			valid++
		default:
			broken++
		}
	}
	fmt.Fprintf(out, "\nExternal links: %d valid | %d redirected | %d broken\n", valid, redirected, broken)
	if broken > 0 {
		fmt.Fprintln(out, "Broken links are not rewritten; run check for details.")
	}
}
