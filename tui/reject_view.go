package tui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

func (m Model) renderRejectView() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render("REJECT PLACEMENT"))
	s.WriteString("\n\n")

	if row, ok := m.selected(); ok && len(row.Fields) > 0 {
		s.WriteString(m.renderField(row.Fields[0].Label, row.Fields[0].Value))
		s.WriteString("\n")
	}

	s.WriteString("> ")
	s.WriteString(m.comments.View())
	s.WriteString("\n\n")
	s.WriteString(m.renderStatus())
	s.WriteString("\n")

	// Help
	s.WriteString(m.renderRejectHelp())

	return s.String()
}

func (m Model) renderRejectHelp() string {
	help := []string{
		"Enter: Reject",
		"Esc: Cancel",
	}
	return helpStyle.Render(strings.Join(help, " • "))
}

func (m Model) handleRejectKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.comments.Blur()
		m.viewMode = ViewList
		m.err = nil
		return m, nil
	case "enter":
		row, ok := m.selected()
		if !ok {
			m.viewMode = ViewList
			return m, nil
		}
		comments := strings.TrimSpace(m.comments.Value())
		if comments == "" {
			m.err = errCommentsEmpty
			return m, nil
		}
		m.comments.Blur()
		m.err = nil
		return m, m.reject(row.ID, comments)
	}

	// Update the comments input
	var cmd tea.Cmd
	m.comments, cmd = m.comments.Update(msg)
	return m, cmd
}
