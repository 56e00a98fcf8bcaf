// Package ui implements the interactive terminal view of a link check:
// live progress while documents are scanned and validated, then a
// browsable list of broken links filtered by category.
package ui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/goobits/docs-engine-sub003/internal/helpers"
	"github.com/goobits/docs-engine-sub003/internal/parser"
	"github.com/goobits/docs-engine-sub003/internal/report"
	"github.com/goobits/docs-engine-sub003/internal/validation"
)

// =============================================================================
// STATE MACHINE
// =============================================================================

type appState int

const (
	stateScanning   appState = iota // Finding documents
	stateExtracting                 // Extracting links from files
	stateValidating                 // Resolving and probing links
	stateResults                    // Showing results (list view)
)

// =============================================================================
// FILTERS
// =============================================================================

// filter selects which broken links the list shows: every broken link, or
// one report category.
type filter struct {
	all      bool
	category report.Category
}

func filters() []filter {
	fs := []filter{{all: true}}
	for _, c := range report.Categories() {
		fs = append(fs, filter{category: c})
	}
	return fs
}

func (f filter) String() string {
	if f.all {
		return "All Broken"
	}
	return f.category.Title()
}

// =============================================================================
// MODEL
// =============================================================================

// Model is the main application model.
type Model struct {
	state    appState
	quitting bool
	err      error

	files      []string
	links      []parser.Link
	fileErrors []parser.FileError
	results    []validation.Result

	valid      int
	broken     int
	byCategory map[report.Category][]validation.Result

	filters   []filter
	filterIdx int

	spinner spinner.Model
	list    list.Model
	help    help.Model
	keys    KeyMap

	pipeline Pipeline
	run      *runState

	width    int
	height   int
	showHelp bool

	root string
}

// New creates a Model that runs p. root shortens displayed paths.
func New(ctx context.Context, p Pipeline, root string) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = SpinnerStyle()

	delegate := list.NewDefaultDelegate()
	delegate.ShowDescription = true
	delegate.Styles.SelectedTitle = SelectedStyle
	delegate.Styles.SelectedDesc = StatusStyle

	l := list.New([]list.Item{}, delegate, 0, 0)
	l.Title = "Broken Links"
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(true)
	l.SetShowHelp(false)
	l.Styles.Title = TitleStyle

	runCtx, cancel := context.WithCancel(ctx)

	return Model{
		state:      stateScanning,
		spinner:    s,
		list:       l,
		help:       help.New(),
		keys:       DefaultKeyMap(),
		filters:    filters(),
		byCategory: map[report.Category][]validation.Result{},
		pipeline:   p,
		run:        &runState{ctx: runCtx, cancel: cancel},
		root:       root,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, DiscoverCmd(m.pipeline, m.run))
}

// Results returns every validation result received so far.
func (m Model) Results() []validation.Result {
	return m.results
}

// Broken reports the number of broken links received so far.
func (m Model) Broken() int {
	return m.broken
}

// =============================================================================
// UPDATE
// =============================================================================

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.list.SetSize(msg.Width, max(msg.Height-14, 5))
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case FilesFoundMsg:
		if msg.Err != nil {
			m.err = msg.Err
			m.state = stateResults
			return m, nil
		}
		m.files = msg.Files
		m.state = stateExtracting
		return m, ExtractCmd(m.pipeline, m.run, msg.Files)

	case LinksExtractedMsg:
		if msg.Err != nil {
			m.err = msg.Err
			m.state = stateResults
			return m, nil
		}
		m.links = msg.Links
		m.fileErrors = msg.FileErrors
		if len(m.links) == 0 {
			m.state = stateResults
			return m, nil
		}
		m.state = stateValidating
		return m, StartValidationCmd(m.pipeline, m.run, m.links)

	case ResultMsg:
		m.record(msg.Result)
		return m, WaitForResultCmd(m.run)

	case ValidationDoneMsg:
		m.state = stateResults
		m.run.results = nil
		m.updateListItems()
		return m, nil
	}

	if m.state == stateResults {
		var cmd tea.Cmd
		m.list, cmd = m.list.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) && m.list.FilterState() != list.Filtering {
		m.run.cancel()
		m.quitting = true
		return m, tea.Quit
	}

	if key.Matches(msg, m.keys.Help) {
		m.showHelp = !m.showHelp
		return m, nil
	}

	if m.state != stateResults {
		return m, nil
	}

	if m.list.FilterState() != list.Filtering {
		switch {
		case key.Matches(msg, m.keys.NextFilter):
			m.filterIdx = (m.filterIdx + 1) % len(m.filters)
			m.updateListItems()
			return m, nil
		case key.Matches(msg, m.keys.PrevFilter):
			m.filterIdx = (m.filterIdx + len(m.filters) - 1) % len(m.filters)
			m.updateListItems()
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m *Model) record(r validation.Result) {
	m.results = append(m.results, r)
	if r.IsValid {
		m.valid++
		return
	}
	m.broken++
	if c, ok := report.CategoryOf(r.Outcome); ok {
		m.byCategory[c] = append(m.byCategory[c], r)
	}
}

func (m *Model) updateListItems() {
	filtered := m.filteredResults()
	items := make([]list.Item, len(filtered))
	for i, r := range filtered {
		items[i] = ResultItem{Result: r, Root: m.root}
	}
	m.list.SetItems(items)
}

func (m *Model) filteredResults() []validation.Result {
	f := m.filters[m.filterIdx]
	if !f.all {
		return m.byCategory[f.category]
	}
	var all []validation.Result
	for _, c := range report.Categories() {
		all = append(all, m.byCategory[c]...)
	}
	return all
}

// =============================================================================
// VIEW
// =============================================================================

// View implements tea.Model.
func (m Model) View() string {
	if m.quitting {
		return "Goodbye!\n"
	}

	s := TitleStyle.Render("doclinks - Documentation Link Checker")
	s += "\n\n"

	if m.err != nil {
		s += ErrorStyle.Render(fmt.Sprintf("Error: %v", m.err))
		s += "\n"
		s += HelpStyle.Render("Press q to quit")
		return s
	}

	switch m.state {
	case stateScanning:
		s += m.spinner.View() + " Scanning for documents..."
	case stateExtracting:
		s += m.spinner.View() + fmt.Sprintf(" Found %d %s, extracting links...",
			len(m.files), helpers.Plural(len(m.files), "file", "files"))
	case stateValidating:
		s += m.renderProgress()
	case stateResults:
		s += m.renderResults()
	}

	if m.showHelp {
		s += "\n\n" + m.help.View(m.keys)
	} else {
		s += "\n\n" + HelpStyle.Render("↑/↓ navigate • f category • / search • ? help • q quit")
	}
	return s
}

func (m Model) renderProgress() string {
	s := m.spinner.View() + fmt.Sprintf(" Validating links... %d/%d", len(m.results), len(m.links))
	s += "\n\n"
	s += fmt.Sprintf("  %s  %s",
		SuccessStyle.Render(fmt.Sprintf("✓ %d valid", m.valid)),
		ErrorStyle.Render(fmt.Sprintf("✗ %d broken", m.broken)))
	return s
}

func (m Model) renderResults() string {
	s := fmt.Sprintf("Scanned %d %s, validated %d %s",
		len(m.files), helpers.Plural(len(m.files), "file", "files"),
		len(m.results), helpers.Plural(len(m.results), "link", "links"))
	if len(m.fileErrors) > 0 {
		s += WarningStyle.Render(fmt.Sprintf(" (%d unreadable)", len(m.fileErrors)))
	}
	s += "\n\n"

	s += SuccessStyle.Render(fmt.Sprintf("✓ %d valid", m.valid))
	for _, c := range report.Categories() {
		if n := len(m.byCategory[c]); n > 0 {
			s += " | " + ErrorStyle.Render(fmt.Sprintf("%s: %d", c.Title(), n))
		}
	}
	s += "\n\n"

	if m.broken == 0 {
		s += SuccessStyle.Render("All links valid!")
		return s
	}

	s += fmt.Sprintf("Category: %s (%d/%d)\n\n",
		SelectedStyle.Render(m.filters[m.filterIdx].String()),
		len(m.filteredResults()),
		m.broken)

	s += m.list.View()

	if item, ok := m.list.SelectedItem().(ResultItem); ok {
		s += "\n" + item.DetailView()
	}
	return s
}
