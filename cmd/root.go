package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// version is set by main.go via SetVersion.
var version = "dev"

// SetVersion sets the version string (called from main).
func SetVersion(v string) {
	version = v
}

// Exit codes.
const (
	ExitOK      = 0
	ExitBroken  = 1
	ExitNoFiles = 2
)

// exitError carries a process exit code out of a command. A nil err means
// the command already reported what happened.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("exit status %d", e.code)
	}
	return e.err.Error()
}

func (e *exitError) Unwrap() error {
	return e.err
}

// globalOptions holds the persistent flags shared by every subcommand.
type globalOptions struct {
	logLevel  string
	logFormat string
	noColor   bool
}

// NewRootCmd builds the command tree. Output goes to stdout and logs to
// stderr as configured on the returned command.
func NewRootCmd() *cobra.Command {
	g := &globalOptions{}

	root := &cobra.Command{
		Use:     "doclinks",
		Short:   "A link checker for documentation sites",
		Version: version,
		Long: `doclinks validates every link in a tree of markdown documents.

Relative links are resolved against the filesystem with extension
inference and index-file resolution, anchors are checked against the
target document's headings, and external URLs can optionally be probed
over HTTP with bounded concurrency.

Examples:
  doclinks check                  # Check the current directory
  doclinks check ./docs           # Check a specific directory
  doclinks check --external       # Also probe external URLs
  doclinks check --format=json
  doclinks interactive            # Browse results in a terminal UI
  doclinks fix --dry-run          # Preview redirect rewrites`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&g.logLevel, "log-level", "info",
		"Log level: debug, info, warn, error")
	root.PersistentFlags().StringVar(&g.logFormat, "log-format", "text",
		"Log format: text, json")
	root.PersistentFlags().BoolVar(&g.noColor, "no-color", false,
		"Disable colored output")

	root.AddCommand(
		newCheckCmd(g),
		newInteractiveCmd(g),
		newFixCmd(g),
	)
	return root
}

// Run executes the command line in args and returns the process exit code.
func Run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	root := NewRootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	if err == nil {
		return ExitOK
	}

	var exitErr *exitError
	if errors.As(err, &exitErr) {
		if exitErr.err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", exitErr.err)
		}
		return exitErr.code
	}

	fmt.Fprintf(stderr, "Error: %v\n", err)
	return ExitBroken
}

// Execute runs the root command with signal handling and exits the process.
// This is called by main.main().
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := Run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code) //nolint:revive // deep-exit is acceptable for CLI entry points
}
