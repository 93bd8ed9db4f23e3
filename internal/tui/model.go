package tui

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"habitualize/internal/stats"
)

type mode int

const (
	modeList mode = iota
	modeAdd
)

// overviewMsg carries a refreshed overview or the error that stopped it.
type overviewMsg struct {
	overview stats.Overview
	err      error
}

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	scoreStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	cursorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true)
	doneStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	pointsStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	helpStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	emptyStyle   = lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("241"))
	errBadFormat = errors.New("use name:points, e.g. Read:10")
)

type model struct {
	ctx      context.Context
	tracker  Tracker
	overview stats.Overview
	cursor   int
	mode     mode
	input    textinput.Model
	loading  bool
	err      error
	quitting bool
	width    int
}

func newModel(ctx context.Context, tracker Tracker) model {
	ti := textinput.New()
	ti.Placeholder = "name:points"
	ti.CharLimit = 120
	ti.Width = 40

	return model{
		ctx:     ctx,
		tracker: tracker,
		input:   ti,
		loading: true,
		width:   80,
	}
}

func (m model) Init() tea.Cmd {
	return m.refresh()
}

func (m model) refresh() tea.Cmd {
	return func() tea.Msg {
		overview, err := m.tracker.DailyOverview(m.ctx)
		return overviewMsg{overview: overview, err: err}
	}
}

// then runs action and reloads the overview afterwards.
func (m model) then(action func() error) tea.Cmd {
	return func() tea.Msg {
		if err := action(); err != nil {
			return overviewMsg{overview: m.overview, err: err}
		}
		overview, err := m.tracker.DailyOverview(m.ctx)
		return overviewMsg{overview: overview, err: err}
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case overviewMsg:
		m.loading = false
		m.err = msg.err
		m.overview = msg.overview
		if m.cursor >= len(m.overview.Habits) {
			m.cursor = max(len(m.overview.Habits)-1, 0)
		}
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.quitting = true
			return m, tea.Quit
		}
		if m.mode == modeAdd {
			return m.updateAdd(msg)
		}
		return m.updateList(msg)
	}
	return m, nil
}

func (m model) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "esc":
		m.quitting = true
		return m, tea.Quit

	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}

	case "down", "j":
		if m.cursor < len(m.overview.Habits)-1 {
			m.cursor++
		}

	case " ", "enter":
		if len(m.overview.Habits) == 0 || m.loading {
			return m, nil
		}
		h := m.overview.Habits[m.cursor]
		m.loading = true
		return m, m.then(func() error {
			return m.tracker.ToggleHabit(m.ctx, h.Name, !h.Completed)
		})

	case "a":
		m.mode = modeAdd
		m.err = nil
		m.input.SetValue("")
		return m, m.input.Focus()

	case "r":
		m.loading = true
		return m, m.refresh()
	}
	return m, nil
}

func (m model) updateAdd(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.mode = modeList
		m.input.Blur()
		return m, nil

	case "enter":
		name, points, err := parseHabitInput(m.input.Value())
		if err != nil {
			m.err = err
			return m, nil
		}
		m.mode = modeList
		m.input.Blur()
		m.loading = true
		return m, m.then(func() error {
			return m.tracker.AddHabit(m.ctx, name, points)
		})
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// parseHabitInput splits "name:points" at the last colon.
func parseHabitInput(s string) (string, int, error) {
	i := strings.LastIndex(s, ":")
	if i < 0 {
		return "", 0, errBadFormat
	}
	name := strings.TrimSpace(s[:i])
	points, err := strconv.Atoi(strings.TrimSpace(s[i+1:]))
	if name == "" || err != nil {
		return "", 0, errBadFormat
	}
	return name, points, nil
}

func (m model) View() string {
	if m.quitting {
		return ""
	}

	var s strings.Builder
	s.WriteString(m.renderHeader())
	s.WriteString("\n\n")

	if len(m.overview.Habits) == 0 && !m.loading {
		s.WriteString(emptyStyle.Render("No active habits. Press a to add one."))
		s.WriteString("\n")
	}
	for i, h := range m.overview.Habits {
		s.WriteString(m.renderHabit(i, h))
		s.WriteString("\n")
	}

	if m.mode == modeAdd {
		s.WriteString("\nNew habit: ")
		s.WriteString(m.input.View())
		s.WriteString("\n")
	}
	if m.err != nil {
		s.WriteString("\n")
		s.WriteString(errorStyle.Render("Error: " + m.err.Error()))
		s.WriteString("\n")
	}

	s.WriteString("\n")
	s.WriteString(m.renderHelp())
	return s.String()
}

func (m model) renderHeader() string {
	o := m.overview
	score := fmt.Sprintf("%d/%d points (%d%%)", o.EarnedPoints, o.TotalPoints, o.Percentage)
	if m.loading {
		score += " ..."
	}
	return fmt.Sprintf("%s\n%s", titleStyle.Render("Today"), scoreStyle.Render(score))
}

func (m model) renderHabit(i int, h stats.HabitStatus) string {
	cursor := "  "
	if i == m.cursor {
		cursor = cursorStyle.Render("> ")
	}
	check := "[ ]"
	name := h.Name
	if h.Completed {
		check = doneStyle.Render("[x]")
		name = doneStyle.Render(name)
	}
	return fmt.Sprintf("%s%s %s %s", cursor, check, name, pointsStyle.Render(fmt.Sprintf("(%d)", h.Points)))
}

func (m model) renderHelp() string {
	if m.mode == modeAdd {
		return helpStyle.Render("enter: add • esc: cancel")
	}
	return helpStyle.Render("↑/↓: move • space: toggle • a: add • r: refresh • q: quit")
}
