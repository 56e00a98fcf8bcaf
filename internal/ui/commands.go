package ui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/goobits/docs-engine-sub003/internal/parser"
	"github.com/goobits/docs-engine-sub003/internal/validation"
)

// Pipeline supplies the three phases the model drives. The check command
// builds it from the same scanner, extractor and validator it uses itself.
type Pipeline struct {
	Discover func(ctx context.Context) ([]string, error)
	Extract  func(ctx context.Context, files []string) ([]parser.Link, []parser.FileError, error)
	Validate func(ctx context.Context, links []parser.Link, onResult func(validation.Result)) []validation.Result
}

// runState is shared by every copy of the model so commands can reach the
// running validation.
type runState struct {
	ctx     context.Context
	cancel  context.CancelFunc
	results <-chan validation.Result
}

// DiscoverCmd finds the documents to check.
func DiscoverCmd(p Pipeline, run *runState) tea.Cmd {
	return func() tea.Msg {
		files, err := p.Discover(run.ctx)
		return FilesFoundMsg{Files: files, Err: err}
	}
}

// ExtractCmd extracts links from the given files.
func ExtractCmd(p Pipeline, run *runState, files []string) tea.Cmd {
	return func() tea.Msg {
		links, fileErrs, err := p.Extract(run.ctx, files)
		return LinksExtractedMsg{Links: links, FileErrors: fileErrs, Err: err}
	}
}

// StartValidationCmd starts validation in the background and returns the
// first result.
func StartValidationCmd(p Pipeline, run *runState, links []parser.Link) tea.Cmd {
	return func() tea.Msg {
		ch := make(chan validation.Result)
		run.results = ch
		go func() {
			defer close(ch)
			p.Validate(run.ctx, links, func(r validation.Result) {
				select {
				case ch <- r:
				case <-run.ctx.Done():
				}
			})
		}()
		return nextResult(run)
	}
}

// WaitForResultCmd waits for the next result from the running validation.
func WaitForResultCmd(run *runState) tea.Cmd {
	return func() tea.Msg {
		return nextResult(run)
	}
}

func nextResult(run *runState) tea.Msg {
	if run.results == nil {
		return ValidationDoneMsg{}
	}
	r, ok := <-run.results
	if !ok {
		return ValidationDoneMsg{}
	}
	return ResultMsg{Result: r}
}
