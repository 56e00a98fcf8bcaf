package cmd

import (
	"errors"
	"fmt"
	"io"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/goobits/docs-engine-sub003/internal/ui"
)

func newInteractiveCmd(g *globalOptions) *cobra.Command {
	flags := &linkFlags{}

	cmd := &cobra.Command{
		Use:     "interactive [path]",
		Aliases: []string{"i", "tui"},
		Short:   "Browse link check results in a terminal UI",
		Long: `Run a link check with live progress, then browse broken links by
category. Press f/tab to cycle categories, / to search, q to quit.

Takes the same configuration and link flags as check. The exit status is 1
when broken links were found.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInteractive(cmd, g, flags, args)
		},
	}

	flags.register(cmd)
	return cmd
}

func runInteractive(cmd *cobra.Command, g *globalOptions, flags *linkFlags, args []string) error {
	if _, err := newLogger(io.Discard, g.logLevel, g.logFormat); err != nil {
		return err
	}
	// Logs below error would corrupt the alternate screen.
	logger, err := newLogger(cmd.ErrOrStderr(), "error", g.logFormat)
	if err != nil {
		return err
	}

	root := pathArg(args)
	cfg, err := flags.effectiveConfig(cmd, root, logger)
	if err != nil {
		return err
	}
	run, err := newLinkRun(cfg, root, logger, nil)
	if err != nil {
		return err
	}

	model := ui.New(cmd.Context(), run.pipeline(), displayRoot(root, cfg.BaseDir))
	p := tea.NewProgram(model,
		tea.WithAltScreen(),
		tea.WithContext(cmd.Context()),
		tea.WithInput(cmd.InOrStdin()),
		tea.WithOutput(cmd.OutOrStdout()),
	)

	final, err := p.Run()
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("running interface: %w", err)
	}

	if m, ok := final.(ui.Model); ok && m.Broken() > 0 {
		return &exitError{code: ExitBroken}
	}
	return nil
}
