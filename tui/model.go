package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"padtrace/replay"
	"padtrace/session"
	"padtrace/theme"
	"padtrace/widgets"
)

// LiveSource reports the state of the live capture layer.
type LiveSource interface {
	Connected() bool
	RecordingID() int64
	EventCount() int64
}

// speedSteps cycled by the +/- keys.
var speedSteps = []float64{0.25, 0.5, 1.0, 2.0, 4.0}

type Model struct {
	Store  *session.Store
	Engine *replay.Engine
	Live   LiveSource
	Theme  *theme.Theme

	sessions []session.Session
	selected int
	summary  *session.Summary
	speedIdx int
	status   string
	quitting bool
}

type tickMsg time.Time

func NewModel(store *session.Store, engine *replay.Engine, live LiveSource, th *theme.Theme) Model {
	m := Model{
		Store:    store,
		Engine:   engine,
		Live:     live,
		Theme:    th,
		speedIdx: 2, // 1.0x
	}
	m.reload()
	return m
}

func tick() tea.Cmd {
	return tea.Tick(500*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m Model) Init() tea.Cmd {
	return tick()
}

func (m *Model) reload() {
	sessions, err := m.Store.ListSessions("", 20)
	if err != nil {
		m.status = fmt.Sprintf("list sessions: %v", err)
		return
	}
	m.sessions = sessions
	if m.selected >= len(m.sessions) {
		m.selected = max(0, len(m.sessions)-1)
	}
	m.loadSummary()
}

func (m *Model) loadSummary() {
	m.summary = nil
	if m.selected < len(m.sessions) {
		sum, err := m.Store.Summarize(m.sessions[m.selected].ID)
		if err == nil {
			m.summary = sum
		}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			m.Engine.Stop()
			return m, tea.Quit

		case "j", "down":
			if m.selected < len(m.sessions)-1 {
				m.selected++
				m.loadSummary()
			}

		case "k", "up":
			if m.selected > 0 {
				m.selected--
				m.loadSummary()
			}

		case "r":
			m.reload()

		case "enter":
			if m.selected < len(m.sessions) {
				id := m.sessions[m.selected].ID
				speed := speedSteps[m.speedIdx]
				if err := m.Engine.PlaySession(id, speed, true, true); err != nil {
					m.status = fmt.Sprintf("play: %v", err)
				} else {
					m.status = fmt.Sprintf("playing session %d at %.2gx", id, speed)
				}
			}

		case " ":
			switch m.Engine.State() {
			case replay.StatePlaying:
				m.Engine.Pause()
			case replay.StatePaused:
				m.Engine.Resume()
			}

		case "s":
			m.Engine.Stop()
			m.status = "playback stopped"

		case "+", "=":
			if m.speedIdx < len(speedSteps)-1 {
				m.speedIdx++
				m.Engine.SetSpeed(speedSteps[m.speedIdx])
			}

		case "-", "_":
			if m.speedIdx > 0 {
				m.speedIdx--
				m.Engine.SetSpeed(speedSteps[m.speedIdx])
			}

		case "e":
			if m.selected < len(m.sessions) {
				id := m.sessions[m.selected].ID
				path := fmt.Sprintf("session_%d.json", id)
				if err := m.Store.ExportSession(id, path); err != nil {
					m.status = fmt.Sprintf("export: %v", err)
				} else {
					m.status = fmt.Sprintf("exported to %s", path)
				}
			}

		case "a":
			if m.selected < len(m.sessions) {
				id := m.sessions[m.selected].ID
				path := fmt.Sprintf("session_%d.txt", id)
				if err := replay.GenerateASCIITimeline(m.Store, id, path); err != nil {
					m.status = fmt.Sprintf("ascii: %v", err)
				} else {
					m.status = fmt.Sprintf("ascii timeline in %s", path)
				}
			}
		}

	case tickMsg:
		// Sessions appear as recordings end; keep the list fresh.
		m.reload()
		return m, tick()
	}

	return m, nil
}

func (m Model) View() string {
	if m.quitting {
		return "bye\n"
	}

	accent := lipgloss.NewStyle().Foreground(m.Theme.Accent())
	muted := lipgloss.NewStyle().Foreground(m.Theme.Muted())
	active := lipgloss.NewStyle().Foreground(m.Theme.Active())

	var out strings.Builder

	out.WriteString(accent.Render("padtrace") + "  ")
	out.WriteString(m.liveLine(active, muted))
	out.WriteString("\n\n")

	out.WriteString(m.sessionTable(accent, muted))
	out.WriteString("\n")

	if m.summary != nil {
		out.WriteString(muted.Render(m.summary.String()))
		out.WriteString("\n\n")
		out.WriteString(m.heatmap())
		out.WriteString("\n")
	}

	out.WriteString("\n")
	out.WriteString(m.transportLine(active, muted))
	out.WriteString("\n\n")

	out.WriteString(widgets.RenderKeyHelp([]widgets.KeySection{
		{Keys: []widgets.KeyBinding{
			{Key: "j / k", Desc: "select session"},
			{Key: "enter", Desc: "replay selected"},
			{Key: "space", Desc: "pause / resume"},
			{Key: "s", Desc: "stop playback"},
			{Key: "+ / -", Desc: "playback speed"},
			{Key: "e / a", Desc: "export json / ascii"},
			{Key: "q", Desc: "quit (ends recording)"},
		}},
	}))

	return out.String()
}

// heatmap shades the selected session's most-pressed cells.
func (m Model) heatmap() string {
	var counts [9][9]int
	for _, c := range m.summary.MostPressed {
		if c.X >= 0 && c.X < 9 && c.Y >= 0 && c.Y < 9 {
			counts[c.Y][c.X] = c.Count
		}
	}
	base := [3]uint8(m.Theme.RGB(theme.RoleActive))
	return widgets.RenderHeatmap(counts, base)
}

func (m Model) liveLine(active, muted lipgloss.Style) string {
	if !m.Live.Connected() {
		return muted.Render("waiting for Launchpad...")
	}
	return active.Render(fmt.Sprintf("● recording session %d  events=%d",
		m.Live.RecordingID(), m.Live.EventCount()))
}

func (m Model) sessionTable(accent, muted lipgloss.Style) string {
	if len(m.sessions) == 0 {
		return muted.Render("  (no sessions yet - play some pads)")
	}

	var out strings.Builder
	out.WriteString(muted.Render("  ID   Profile          Date              Duration  Events"))
	out.WriteString("\n")

	for i, sess := range m.sessions {
		prefix := "  "
		if i == m.selected {
			prefix = "> "
		}
		date := time.Unix(int64(sess.StartTime), 0).Format("01-02 15:04")
		line := fmt.Sprintf("%s%-4d %-16s %-17s %7.1fs  %6d",
			prefix, sess.ID, truncate(sess.UserProfile, 16), date, sess.Duration, sess.TotalEvents)
		if i == m.selected {
			out.WriteString(accent.Render(line))
		} else {
			out.WriteString(line)
		}
		out.WriteString("\n")
	}
	return out.String()
}

func (m Model) transportLine(active, muted lipgloss.Style) string {
	state := m.Engine.State()
	symbol := string(m.Theme.Symbols.Dot)
	switch state {
	case replay.StatePlaying:
		symbol = string(m.Theme.Symbols.Playhead)
	case replay.StatePaused:
		symbol = string(m.Theme.Symbols.PauseMark)
	}

	line := fmt.Sprintf("%s %s  speed %.2gx", symbol, state, speedSteps[m.speedIdx])
	if m.status != "" {
		line += muted.Render("   " + m.status)
	}
	if state == replay.StatePlaying || state == replay.StatePaused {
		return active.Render(line)
	}
	return line
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
