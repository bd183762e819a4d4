package tui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	fieldLabelStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("170")).
			Width(20)

	fieldValueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))
)

func (m Model) renderDetailView() string {
	var s strings.Builder

	// Title
	s.WriteString(titleStyle.Render(strings.ToUpper(tabNames[m.tab]) + " DETAIL"))
	s.WriteString("\n\n")

	row, ok := m.selected()
	if !ok {
		s.WriteString("Nothing selected")
	} else {
		for _, f := range row.Fields {
			s.WriteString(m.renderField(f.Label, f.Value))
		}
		s.WriteString(m.renderField("ID", row.ID))
	}

	s.WriteString("\n")
	s.WriteString(m.renderStatus())
	s.WriteString("\n")

	// Help
	s.WriteString(m.renderDetailHelp(row.Pending))

	return s.String()
}

func (m Model) renderField(label, value string) string {
	if value == "" {
		value = "-"
	}
	return fieldLabelStyle.Render(label+":") + " " + fieldValueStyle.Render(value) + "\n"
}

func (m Model) renderDetailHelp(pending bool) string {
	help := []string{"Esc: Back"}
	if pending {
		help = append(help, "a: Approve", "x: Reject")
	}
	help = append(help, "q: Quit")
	return helpStyle.Render(strings.Join(help, " • "))
}

func (m Model) handleDetailKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.viewMode = ViewList
	case "a":
		return m.startApprove()
	case "x":
		return m.startReject()
	}

	return m, nil
}
