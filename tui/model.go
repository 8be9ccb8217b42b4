package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"foreshadow/engine"
	"foreshadow/rally"
	"foreshadow/theme"
)

type Model struct {
	Rally    *rally.Rally
	Theme    *theme.Theme
	Backend  string
	quitting bool
}

type UpdateMsg struct{}

type tickMsg struct{}

func NewModel(r *rally.Rally, th *theme.Theme, backend string) Model {
	return Model{
		Rally:   r,
		Theme:   th,
		Backend: backend,
	}
}

func ListenForUpdates(r *rally.Rally) tea.Cmd {
	return func() tea.Msg {
		<-r.UpdateChan
		return UpdateMsg{}
	}
}

// tick keeps the countdown column moving even when nothing fires.
func tick() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(time.Time) tea.Msg {
		return tickMsg{}
	})
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		ListenForUpdates(m.Rally),
		tick(),
	)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			m.Rally.Stop()
			return m, tea.Quit

		case "b":
			m.Rally.ScheduleBrick()

		case "p":
			m.Rally.SchedulePaddle()

		case "c":
			m.Rally.CancelNext()

		case "x":
			m.Rally.CancelAll()

		case "a":
			m.Rally.ToggleAuto()
		}

	case UpdateMsg:
		return m, ListenForUpdates(m.Rally)

	case tickMsg:
		return m, tick()
	}

	return m, nil
}

// countdownBar renders time remaining against a 3 second window, draining
// right to left as the impact approaches.
func (m Model) countdownBar(remain float64) string {
	const width = 10
	filled := int(remain / 3.0 * width)
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}
	var b strings.Builder
	for i := 0; i < width; i++ {
		if i < filled {
			b.WriteRune(m.Theme.Symbols.BarFill)
		} else {
			b.WriteRune(m.Theme.Symbols.BarEmpty)
		}
	}
	return b.String()
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	now := m.Rally.Now()

	headerStyle := lipgloss.NewStyle().Foreground(m.Theme.Accent())
	dimStyle := lipgloss.NewStyle().Foreground(m.Theme.Muted())
	fgStyle := lipgloss.NewStyle().Foreground(m.Theme.FG())
	activeStyle := lipgloss.NewStyle().Foreground(m.Theme.Active())
	okStyle := lipgloss.NewStyle().Foreground(m.Theme.Success())
	warnStyle := lipgloss.NewStyle().Foreground(m.Theme.Warning())

	autoState := "auto:off"
	if m.Rally.Auto() {
		autoState = "auto:ON"
	}
	header := headerStyle.Render(fmt.Sprintf("foreshadow  t=%7.2fs  out:%s  %s", now, m.Backend, autoState))

	var out strings.Builder
	out.WriteString("\n")
	out.WriteString(header)
	out.WriteString("\n\n")

	// Active records
	active := m.Rally.Engine.Active()
	if len(active) == 0 {
		out.WriteString(dimStyle.Render("  no active foreshadows"))
		out.WriteString("\n")
	}
	for _, info := range active {
		sym := m.Theme.Symbols.Scheduled
		style := fgStyle
		if info.Phase == engine.PhaseDraining {
			sym = m.Theme.Symbols.Draining
			style = dimStyle
		}
		remain := info.EndTime - now
		if remain < 0 {
			remain = 0
		}
		line := fmt.Sprintf("  %c %-12s %-12s %-10s %2d notes  %s %4.2fs",
			sym, info.ID, info.Type, info.Instrument, info.NoteCount, m.countdownBar(remain), remain)
		out.WriteString(style.Render(line))
		out.WriteString("\n")
	}
	out.WriteString("\n")

	// Event feed, newest last
	for _, line := range m.Rally.Feed() {
		var rendered string
		switch line.Kind {
		case "note":
			noteStyle := lipgloss.NewStyle().Foreground(m.Theme.Velocity(line.Velocity))
			rendered = noteStyle.Render(fmt.Sprintf("  %c %7.2f  %s  vel %.2f",
				m.Theme.Symbols.NoteFired, line.At, line.Text, line.Velocity))
		case "completed":
			rendered = okStyle.Render(fmt.Sprintf("  %c %7.2f  %s", m.Theme.Symbols.Completed, line.At, line.Text))
		case "cancelled":
			rendered = warnStyle.Render(fmt.Sprintf("  %c %7.2f  %s", m.Theme.Symbols.Cancelled, line.At, line.Text))
		default:
			rendered = activeStyle.Render(fmt.Sprintf("  %c %7.2f  %s", m.Theme.Symbols.Scheduled, line.At, line.Text))
		}
		out.WriteString(rendered)
		out.WriteString("\n")
	}

	out.WriteString("\n")
	out.WriteString(dimStyle.Render("b:brick  p:paddle  c:cancel next  x:cancel all  a:auto rally  q:quit"))

	return out.String()
}
