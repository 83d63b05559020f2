// Package tui is a terminal dashboard for a running sign session.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ayusman/mudra/internal/confirm"
	"github.com/ayusman/mudra/internal/session"
)

const refreshInterval = 100 * time.Millisecond

// Source is the session the dashboard shows and drives.
type Source interface {
	Status(now time.Time) session.Snapshot
	Speak() bool
	Clear()
}

type tickMsg time.Time

var (
	titleStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("246")).Bold(true)
	sentenceStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("4")).Bold(true)
	emptyStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	detectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	holdStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("33"))
	waitStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	readyStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	noticeStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("208"))
	helpStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("239"))
	helpKeyStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("239")).Bold(true)
)

// Model is the bubbletea model.
type Model struct {
	source Source
	now    func() time.Time
	snap   session.Snapshot
	notice string
	width  int
}

// NewModel creates a dashboard for source.
func NewModel(source Source) Model {
	m := Model{source: source, now: time.Now}
	m.snap = source.Status(m.now())
	return m
}

// Run shows the dashboard until the user quits or ctx is cancelled.
func Run(ctx context.Context, source Source) error {
	p := tea.NewProgram(NewModel(source), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}

func tick() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m Model) Init() tea.Cmd {
	return tick()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "s":
			if m.source.Speak() {
				m.notice = "spoken"
			} else {
				m.notice = "nothing to speak"
			}
		case "c":
			m.source.Clear()
			m.notice = "cleared"
		}
		m.snap = m.source.Status(m.now())

	case tickMsg:
		m.snap = m.source.Status(m.now())
		return m, tick()
	}
	return m, nil
}

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("mudra") + "\n\n")

	if m.snap.Sentence == "" {
		b.WriteString(emptyStyle.Render("(sign a letter to start)"))
	} else {
		b.WriteString(sentenceStyle.Render(m.snap.Sentence) + sentenceStyle.Render("▏"))
	}
	b.WriteString("\n\n")

	b.WriteString(StatusLine(m.snap) + "\n")
	if m.notice != "" {
		b.WriteString(noticeStyle.Render(m.notice) + "\n")
	}
	b.WriteString("\n")

	b.WriteString(helpKeyStyle.Render("s") + helpStyle.Render(" speak  "))
	b.WriteString(helpKeyStyle.Render("c") + helpStyle.Render(" clear  "))
	b.WriteString(helpKeyStyle.Render("q") + helpStyle.Render(" quit"))
	b.WriteString("\n")

	return b.String()
}

// StatusLine renders the recognition state of a snapshot.
func StatusLine(snap session.Snapshot) string {
	st := snap.Status
	switch {
	case st.Kind == confirm.StatusDetected:
		return detectedStyle.Render("● Detected " + st.Symbol.String())
	case snap.InCooldown:
		line := fmt.Sprintf("◌ Wait %.1fs", snap.CooldownRemaining)
		if snap.ConfirmedSign != nil {
			line += "  (last " + snap.ConfirmedSign.String() + ")"
		}
		return waitStyle.Render(line)
	case st.Kind == confirm.StatusDetecting:
		return holdStyle.Render("◐ Hold " + st.Symbol.String())
	}
	return readyStyle.Render("○ Ready")
}
