package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/subcommands"
	"go.uber.org/multierr"

	"github.com/wippyai/structlayout"
	"github.com/wippyai/structlayout/abi"
	"github.com/wippyai/structlayout/report"
	"github.com/wippyai/structlayout/resolver"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	profileStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

type browseCmd struct {
	profile profileFlags
}

func newBrowseCmd() *browseCmd {
	return &browseCmd{}
}

func (*browseCmd) Name() string     { return "browse" }
func (*browseCmd) Synopsis() string { return "Explore the layouts of a file interactively." }
func (*browseCmd) Usage() string    { return "layout browse [-profile P] file\n" }

func (cmd *browseCmd) SetFlags(f *flag.FlagSet) {
	cmd.profile.register(f, "reference")
}

func (cmd *browseCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprint(os.Stderr, cmd.Usage())
		return subcommands.ExitUsageError
	}
	p, err := cmd.profile.profile()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	src, err := os.ReadFile(f.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}

	prog := tea.NewProgram(newBrowseModel(f.Arg(0), string(src), p), tea.WithAltScreen())
	if _, err := prog.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

type browseState int

const (
	stateList browseState = iota
	stateFilter
	stateDetail
)

type browseModel struct {
	err      error
	failures []error
	filename string
	source   string
	profiles []*abi.Profile
	blocks   []*resolver.Layout
	visible  []int
	filter   textinput.Model
	view     viewport.Model
	current  int
	selected int
	state    browseState
	loaded   bool
}

// newBrowseModel cycles through p first, then every other registered profile.
func newBrowseModel(filename, source string, p *abi.Profile) *browseModel {
	profiles := []*abi.Profile{p}
	for _, name := range abi.Names() {
		if other, err := abi.Lookup(name); err == nil && other != p {
			profiles = append(profiles, other)
		}
	}

	ti := textinput.New()
	ti.Placeholder = "aggregate name"
	ti.Prompt = "/ "
	ti.Width = 40

	return &browseModel{
		filename: filename,
		source:   source,
		profiles: profiles,
		filter:   ti,
		view:     viewport.New(80, 20),
	}
}

type analyzedMsg struct {
	err      error
	failures []error
	blocks   []*resolver.Layout
}

func (m *browseModel) Init() tea.Cmd {
	return m.analyze
}

func (m *browseModel) profile() *abi.Profile {
	return m.profiles[m.current]
}

func (m *browseModel) analyze() tea.Msg {
	p := m.profile()
	res, err := structlayout.Analyze(structlayout.Unit{Name: m.filename, Source: m.source, Profile: p})
	if err != nil {
		return analyzedMsg{err: err}
	}
	return analyzedMsg{
		blocks:   report.Blocks(res.Layouts, p.Order),
		failures: multierr.Errors(res.Err),
	}
}

func (m *browseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.view.Width = msg.Width
		m.view.Height = max(msg.Height-6, 3)
		return m, nil

	case analyzedMsg:
		m.loaded = true
		m.err = msg.err
		m.failures = msg.failures
		m.blocks = msg.blocks
		m.refilter()
		if m.state == stateDetail {
			m.showSelected()
		}
		return m, nil

	case tea.KeyMsg:
		if m.state == stateFilter {
			switch msg.String() {
			case "enter", "esc":
				m.filter.Blur()
				m.state = stateList
				return m, nil
			}
			var cmd tea.Cmd
			m.filter, cmd = m.filter.Update(msg)
			m.refilter()
			return m, cmd
		}

		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit

		case "p":
			m.current = (m.current + 1) % len(m.profiles)
			return m, m.analyze

		case "esc":
			m.state = stateList
			return m, nil
		}

		if m.state == stateDetail {
			if msg.String() == "enter" {
				m.state = stateList
				return m, nil
			}
			var cmd tea.Cmd
			m.view, cmd = m.view.Update(msg)
			return m, cmd
		}

		switch msg.String() {
		case "up", "k":
			if m.selected > 0 {
				m.selected--
			}
		case "down", "j":
			if m.selected < len(m.visible)-1 {
				m.selected++
			}
		case "/":
			m.state = stateFilter
			return m, m.filter.Focus()
		case "enter":
			if len(m.visible) > 0 {
				m.state = stateDetail
				m.showSelected()
			}
		}
	}
	return m, nil
}

func (m *browseModel) refilter() {
	q := strings.ToLower(m.filter.Value())
	m.visible = m.visible[:0]
	for i, l := range m.blocks {
		if q == "" || strings.Contains(strings.ToLower(l.Name()), q) {
			m.visible = append(m.visible, i)
		}
	}
	if m.selected >= len(m.visible) {
		m.selected = max(len(m.visible)-1, 0)
	}
}

func (m *browseModel) showSelected() {
	if len(m.visible) == 0 {
		m.view.SetContent("")
		return
	}
	l := m.blocks[m.visible[m.selected]]
	m.view.SetContent(report.String([]*resolver.Layout{l}, m.profile()))
	m.view.GotoTop()
}

func (m *browseModel) View() string {
	if m.err != nil {
		return errorStyle.Render(fmt.Sprintf("Error: %v\n\nPress q to quit.", m.err))
	}
	if !m.loaded {
		return "Resolving layouts..."
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("Layout"))
	b.WriteString(" ")
	b.WriteString(m.filename)
	b.WriteString(" ")
	b.WriteString(profileStyle.Render("[" + m.profile().Name + "]"))
	b.WriteString("\n\n")

	switch m.state {
	case stateList, stateFilter:
		if m.state == stateFilter || m.filter.Value() != "" {
			b.WriteString(m.filter.View())
			b.WriteString("\n\n")
		}
		if len(m.visible) == 0 {
			b.WriteString("No aggregates.\n")
		}
		for i, idx := range m.visible {
			l := m.blocks[idx]
			line := fmt.Sprintf("%s %s  size=%d align=%d holes=%d",
				l.Aggregate.Keyword, l.Name(), l.Size, l.Align, len(l.Holes))
			if i == m.selected {
				b.WriteString(selectedStyle.Render("> " + line))
			} else {
				b.WriteString("  " + line)
			}
			b.WriteString("\n")
		}
		for _, e := range m.failures {
			b.WriteString(errorStyle.Render(e.Error()))
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("↑/↓ select • enter show • / filter • p profile • q quit"))

	case stateDetail:
		b.WriteString(m.view.View())
		b.WriteString("\n\n")
		b.WriteString(helpStyle.Render("↑/↓ scroll • esc back • p profile • q quit"))
	}
	return b.String()
}
