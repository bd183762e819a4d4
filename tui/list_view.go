package tui

import (
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jstnrme77/reportcard-portal/views"
)

// field is one label/value pair shown in the detail view.
type field struct {
	Label string
	Value string
}

// listRow is one table row with what the detail view and actions need.
type listRow struct {
	ID      string
	Cells   table.Row
	Pending bool
	Fields  []field
}

func (m Model) columns() []table.Column {
	switch m.tab {
	case TabApprovals:
		return []table.Column{
			{Title: "Website", Width: 25},
			{Title: "DR", Width: 4},
			{Title: "Status", Width: 10},
			{Title: "Decided", Width: 14},
			{Title: "Comments", Width: 30},
		}
	case TabDeliverables:
		return []table.Column{
			{Title: "URL", Width: 40},
			{Title: "Placed", Width: 14},
			{Title: "Service", Width: 14},
			{Title: "Cost", Width: 10},
		}
	case TabLiveLinks:
		return []table.Column{
			{Title: "URL", Width: 40},
			{Title: "Placed", Width: 14},
			{Title: "DR", Width: 4},
			{Title: "Campaign", Width: 20},
		}
	case TabReports:
		return []table.Column{
			{Title: "Month", Width: 16},
			{Title: "Service", Width: 14},
			{Title: "Notes", Width: 50},
		}
	}
	return nil
}

// tableErr is the load error of the bindings behind the current tab.
func (m Model) tableErr() error {
	p := m.portal
	switch m.tab {
	case TabApprovals:
		return p.Approvals.Snapshot().Err
	case TabDeliverables, TabLiveLinks:
		return p.Links.Snapshot().Err
	case TabReports:
		return p.Reports.Snapshot().Err
	}
	return nil
}

func (m Model) rows() []listRow {
	p := m.portal
	var out []listRow

	switch m.tab {
	case TabApprovals:
		for _, r := range views.ApprovalRows(p.Approvals.Snapshot().Data, p.Links.Snapshot().Data) {
			out = append(out, listRow{
				ID:      r.ID,
				Cells:   table.Row{r.WebsiteName, fmt.Sprintf("%.0f", r.DomainRating), r.Status, r.DecisionDate, r.Comments},
				Pending: r.IsPending(),
				Fields: []field{
					{"Website", r.WebsiteName},
					{"URL", r.WebsiteURL},
					{"Domain Rating", fmt.Sprintf("%.0f", r.DomainRating)},
					{"Status", r.Status},
					{"Decided", r.DecisionDate},
					{"Comments", r.Comments},
					{"Client Notes", r.ClientNotes},
				},
			})
		}
	case TabDeliverables:
		for _, r := range views.DeliverableRows(p.Links.Snapshot().Data) {
			out = append(out, listRow{
				ID:    r.ID,
				Cells: table.Row{r.URL, r.FormattedDate, r.ServiceType, fmt.Sprintf("$%.2f", r.LinkCost)},
				Fields: []field{
					{"URL", r.URL},
					{"Anchor Text", r.AnchorText},
					{"Target Page", r.TargetPage},
					{"Placed", r.FormattedDate},
					{"Service", r.ServiceType},
					{"Cost", fmt.Sprintf("$%.2f", r.LinkCost)},
				},
			})
		}
	case TabLiveLinks:
		for _, r := range views.LiveLinkRows(p.Links.Snapshot().Data, p.Campaigns.Snapshot().Data) {
			out = append(out, listRow{
				ID:    r.ID,
				Cells: table.Row{r.URL, r.FormattedDate, fmt.Sprintf("%.0f", r.DomainRating), r.Campaign},
				Fields: []field{
					{"URL", r.URL},
					{"Anchor Text", r.AnchorText},
					{"Placed", r.FormattedDate},
					{"Domain Rating", fmt.Sprintf("%.0f", r.DomainRating)},
					{"Content Type", r.ContentType},
					{"Campaign", r.Campaign},
				},
			})
		}
	case TabReports:
		for _, c := range views.ReportCards(p.Reports.Snapshot().Data) {
			out = append(out, listRow{
				ID:    c.ID,
				Cells: table.Row{c.MonthLabel, c.ServiceType, c.Notes},
				Fields: []field{
					{"Month", c.MonthLabel},
					{"Service", c.ServiceType},
					{"PDF", c.PDFURL},
					{"Notes", c.Notes},
				},
			})
		}
	}
	return out
}

func (m Model) selected() (listRow, bool) {
	rows := m.rows()
	if m.selectedRow < 0 || m.selectedRow >= len(rows) {
		return listRow{}, false
	}
	return rows[m.selectedRow], true
}

func (m *Model) clampSelection() {
	n := len(m.rows())
	if m.selectedRow >= n {
		m.selectedRow = n - 1
	}
	if m.selectedRow < 0 {
		m.selectedRow = 0
	}
}

func (m Model) renderListView() string {
	var s strings.Builder

	// Title
	s.WriteString(titleStyle.Render("REPORTCARD"))
	s.WriteString("\n\n")

	// Tabs
	s.WriteString(m.renderTabs())
	s.WriteString("\n\n")

	s.WriteString(m.renderTable())
	s.WriteString("\n")
	s.WriteString(m.renderStatus())
	s.WriteString("\n")

	// Help
	s.WriteString(m.renderListHelp())

	return s.String()
}

func (m Model) renderTabs() string {
	var rendered []string
	for i, tab := range tabNames {
		if Tab(i) == m.tab {
			rendered = append(rendered, tabActiveStyle.Render(tab))
		} else {
			rendered = append(rendered, tabInactiveStyle.Render(tab))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, rendered...)
}

func (m Model) renderTable() string {
	if m.loading {
		return "Loading..."
	}
	if err := m.tableErr(); err != nil {
		return errorStyle.Render(fmt.Sprintf("Error: %v", err))
	}

	list := m.rows()
	if len(list) == 0 {
		return "No records"
	}
	rows := make([]table.Row, 0, len(list))
	for _, r := range list {
		rows = append(rows, r.Cells)
	}

	height := m.height - 10
	if height < 3 {
		height = 3
	}
	t := table.New(
		table.WithColumns(m.columns()),
		table.WithRows(rows),
		table.WithFocused(true),
		table.WithHeight(height),
	)

	// Set selected row
	if m.selectedRow < len(rows) {
		t.SetCursor(m.selectedRow)
	}

	return t.View()
}

func (m Model) renderStatus() string {
	switch {
	case m.err != nil:
		return errorStyle.Render(fmt.Sprintf("Error: %v", m.err))
	case m.message != "":
		return successStyle.Render(m.message)
	}
	return ""
}

func (m Model) renderListHelp() string {
	help := []string{
		"↑/↓: Navigate",
		"←/→: Switch tabs",
		"Enter: Details",
		"r: Refresh",
		"g: Link map",
		"q: Quit",
	}
	if m.tab == TabApprovals {
		help = slices.Insert(help, 4, "a: Approve", "x: Reject")
	}
	return helpStyle.Render(strings.Join(help, " • "))
}

func (m Model) switchTab(delta int) Model {
	n := len(tabNames)
	m.tab = Tab((int(m.tab) + delta + n) % n)
	m.selectedRow = 0
	m.message = ""
	return m
}

func (m Model) handleListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if m.selectedRow > 0 {
			m.selectedRow--
		}
	case "down", "j":
		if m.selectedRow < len(m.rows())-1 {
			m.selectedRow++
		}
	case "right", "l", "tab":
		m = m.switchTab(1)
	case "left", "h", "shift+tab":
		m = m.switchTab(-1)
	case "r":
		m.loading = true
		m.err = nil
		m.message = ""
		return m, m.fetch()
	case "enter":
		if _, ok := m.selected(); ok {
			m.viewMode = ViewDetail
		}
	case "a":
		return m.startApprove()
	case "x":
		return m.startReject()
	case "g":
		m.viewMode = ViewGraph
		m.graphDOT = ""
		return m, m.drawGraph()
	}

	return m, nil
}

// selectedPending returns the selected approval when it is still pending.
func (m *Model) selectedPending() (listRow, bool) {
	if m.tab != TabApprovals {
		return listRow{}, false
	}
	row, ok := m.selected()
	if !ok {
		return listRow{}, false
	}
	if !row.Pending {
		m.message = ""
		m.err = fmt.Errorf("%s has already been decided", row.ID)
		return listRow{}, false
	}
	return row, true
}

func (m Model) startApprove() (tea.Model, tea.Cmd) {
	row, ok := m.selectedPending()
	if !ok {
		return m, nil
	}
	return m, m.approve(row.ID)
}

func (m Model) startReject() (tea.Model, tea.Cmd) {
	if _, ok := m.selectedPending(); !ok {
		return m, nil
	}
	m.viewMode = ViewReject
	m.comments.SetValue("")
	m.comments.Focus()
	return m, textinput.Blink
}
