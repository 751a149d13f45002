// Package panel is a terminal diagnostics panel showing the retained entries
// of a ringlog.Facade, refreshed while new records arrive.
package panel

import (
	"fmt"
	"strings"
	"time"

	"github.com/abyssdigger/ringlog"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("36"))

	statusBarStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("235")).
			Foreground(lipgloss.Color("230")).
			Padding(0, 1)

	logPanelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)

	timeStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	targetStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))

	levelStyles = [...]lipgloss.Style{
		ringlog.LVL_UNKNOWN: lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
		ringlog.LVL_TRACE:   lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
		ringlog.LVL_DEBUG:   lipgloss.NewStyle().Foreground(lipgloss.Color("244")),
		ringlog.LVL_INFO:    lipgloss.NewStyle().Foreground(lipgloss.Color("46")),
		ringlog.LVL_WARN:    lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		ringlog.LVL_ERROR:   lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
	}
)

// Refresh is the interval between version checks.
var Refresh = 200 * time.Millisecond

type keyMap struct {
	Quit  key.Binding
	Up    key.Binding
	Down  key.Binding
	Pause key.Binding
	Level key.Binding
}

var keys = keyMap{
	Quit:  key.NewBinding(key.WithKeys("q", "ctrl+c", "esc"), key.WithHelp("q", "quit")),
	Up:    key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "older")),
	Down:  key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "newer")),
	Pause: key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "pause")),
	Level: key.NewBinding(key.WithKeys("l"), key.WithHelp("l", "level")),
}

func (k keyMap) help() string {
	parts := make([]string, 0, 3)
	for _, b := range []key.Binding{k.Quit, k.Pause, k.Level} {
		parts = append(parts, b.Help().Key+" "+b.Help().Desc)
	}
	return strings.Join(parts, ", ")
}

type tickMsg time.Time

func tickCmd() tea.Cmd {
	return tea.Tick(Refresh, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Model is the bubbletea model of the panel.
//
// Keys: q quits, up/down (k/j) scroll, p pauses refreshing, l cycles the
// minimal level shown.
type Model struct {
	facade   *ringlog.Facade
	entries  []ringlog.Entry
	version  uint64
	minLevel ringlog.LogLevel
	paused   bool
	offset   int // lines scrolled up from the newest entry
	width    int
	height   int
}

// New returns a panel model over f.
func New(f *ringlog.Facade) Model {
	m := Model{facade: f, width: 100, height: 24}
	m.refresh()
	return m
}

func (m *Model) refresh() {
	m.version = m.facade.Version()
	m.entries = m.facade.Entries()
}

func (m Model) Init() tea.Cmd {
	return tickCmd()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, keys.Up):
			m.offset++
		case key.Matches(msg, keys.Down):
			if m.offset > 0 {
				m.offset--
			}
		case key.Matches(msg, keys.Pause):
			m.paused = !m.paused
		case key.Matches(msg, keys.Level):
			m.minLevel++
			if !m.minLevel.IsValid() {
				m.minLevel = ringlog.LVL_UNKNOWN
			}
			m.offset = 0
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tickMsg:
		if !m.paused && m.facade.Version() != m.version {
			m.refresh()
		}
		return m, tickCmd()
	}
	return m, nil
}

// Visible returns the entries passing the minimal level of the panel.
func (m Model) Visible() []ringlog.Entry {
	if m.minLevel == ringlog.LVL_UNKNOWN {
		return m.entries
	}
	visible := make([]ringlog.Entry, 0, len(m.entries))
	for _, e := range m.entries {
		if e.Level >= m.minLevel {
			visible = append(visible, e)
		}
	}
	return visible
}

func (m Model) View() string {
	// border 2, title 1, status bar 1
	lines := max(m.height-4, 1)
	entries := m.Visible()
	m.offset = min(m.offset, max(len(entries)-lines, 0))
	end := len(entries) - m.offset
	start := max(end-lines, 0)

	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("Recent log entries (%d retained)", len(m.entries))))
	b.WriteByte('\n')
	b.WriteString(Render(entries[start:end], m.width-4))

	shown := "all levels"
	if m.minLevel != ringlog.LVL_UNKNOWN {
		shown = m.minLevel.String() + " and above"
	}
	status := fmt.Sprintf("v%d | %s", m.version, shown)
	if m.paused {
		status += " | paused"
	}
	status += " | " + keys.help()

	return logPanelStyle.Width(max(m.width-2, 20)).Render(b.String()) + "\n" +
		statusBarStyle.Render(status)
}

func levelStyle(level ringlog.LogLevel) lipgloss.Style {
	if !level.IsValid() {
		return levelStyles[ringlog.LVL_UNKNOWN]
	}
	return levelStyles[level]
}

// Render formats entries one per line, oldest first, truncating lines to width
// cells (no truncation if width < 20).
func Render(entries []ringlog.Entry, width int) string {
	var b strings.Builder
	for i, e := range entries {
		if i > 0 {
			b.WriteByte('\n')
		}
		msg := strings.ReplaceAll(e.Message, "\n", " ")
		stamp := e.Time.Format("15:04:05.000")
		headLen := len(stamp) + len(e.Level.ShortName()) + ansi.StringWidth(e.Target) + 3
		if room := width - headLen; width >= 20 && room > 1 {
			msg = ansi.Truncate(msg, room, "…")
		}
		b.WriteString(timeStyle.Render(stamp))
		b.WriteByte(' ')
		b.WriteString(levelStyle(e.Level).Render(e.Level.ShortName()))
		b.WriteByte(' ')
		b.WriteString(targetStyle.Render(e.Target))
		b.WriteByte(' ')
		b.WriteString(msg)
	}
	return b.String()
}
