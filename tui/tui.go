// ABOUTME: Terminal User Interface using bubbletea framework
// ABOUTME: Tabbed approvals, deliverables, live links and reports over the portal bindings
package tui

import (
	"context"
	"errors"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jstnrme77/reportcard-portal/models"
	"github.com/jstnrme77/reportcard-portal/portal"
	"github.com/jstnrme77/reportcard-portal/viz"
)

// ViewMode represents the current TUI view
type ViewMode int

const (
	ViewList ViewMode = iota
	ViewDetail
	ViewReject
	ViewGraph
)

// Tab is one collection page
type Tab int

const (
	TabApprovals Tab = iota
	TabDeliverables
	TabLiveLinks
	TabReports
)

var errCommentsEmpty = errors.New("comments are required to reject")

var tabNames = []string{"Approvals", "Deliverables", "Live Links", "Reports"}

// fetchedMsg reports that every binding has finished fetching.
type fetchedMsg struct{}

// decidedMsg carries the outcome of an approve or reject.
type decidedMsg struct {
	approval models.Approval
	err      error
}

// changedMsg reports that a binding changed outside the model's own commands.
type changedMsg struct{}

type graphMsg struct {
	dot string
	err error
}

// Model is the main bubbletea model
type Model struct {
	portal   *portal.Portal
	viewMode ViewMode
	tab      Tab

	changes   <-chan struct{}
	stopWatch func()
	watching  bool

	selectedRow int
	loading     bool

	// Reject form
	comments textinput.Model

	graphDOT string

	// UI state
	message string
	width   int
	height  int
	err     error
}

// NewModel creates a new TUI model
func NewModel(p *portal.Portal) Model {
	comments := textinput.New()
	comments.Placeholder = "Why is this placement rejected?"
	comments.CharLimit = 500
	comments.Width = 60

	changes, stop := p.Watch()
	return Model{
		portal:    p,
		viewMode:  ViewList,
		tab:       TabApprovals,
		changes:   changes,
		stopWatch: stop,
		comments:  comments,
		loading:   true,
		width:     80,
		height:    24,
	}
}

// Close stops watching the portal bindings.
func (m Model) Close() {
	if m.stopWatch != nil {
		m.stopWatch()
	}
}

func (m Model) Init() tea.Cmd {
	return m.fetch()
}

// fetch refreshes every binding off the UI goroutine.
func (m Model) fetch() tea.Cmd {
	p := m.portal
	return func() tea.Msg {
		portal.Fetch(context.Background(), p.All()...)
		return fetchedMsg{}
	}
}

// waitForChange blocks until a binding changes.
func (m Model) waitForChange() tea.Cmd {
	changes := m.changes
	return func() tea.Msg {
		if _, ok := <-changes; !ok {
			return nil
		}
		return changedMsg{}
	}
}

func (m Model) approve(id string) tea.Cmd {
	p := m.portal
	return func() tea.Msg {
		a, err := p.Approve(context.Background(), id)
		return decidedMsg{approval: a, err: err}
	}
}

func (m Model) reject(id, comments string) tea.Cmd {
	p := m.portal
	return func() tea.Msg {
		a, err := p.Reject(context.Background(), id, comments)
		return decidedMsg{approval: a, err: err}
	}
}

func (m Model) drawGraph() tea.Cmd {
	p := m.portal
	return func() tea.Msg {
		ctx := context.Background()
		portal.Fetch(ctx, p.Campaigns, p.Links)
		dot, err := viz.GenerateLinkGraph(ctx, p.Campaigns.Snapshot().Data, p.Links.Snapshot().Data)
		return graphMsg{dot: dot, err: err}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case fetchedMsg:
		m.loading = false
		m.clampSelection()
		if m.watching || m.changes == nil {
			return m, nil
		}
		m.watching = true
		return m, m.waitForChange()
	case changedMsg:
		m.clampSelection()
		return m, m.waitForChange()
	case decidedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		m.message = "✓ " + msg.approval.Status + ": " + msg.approval.ID
		m.viewMode = ViewList
		return m, nil
	case graphMsg:
		if msg.err != nil {
			m.err = msg.err
			m.viewMode = ViewList
			return m, nil
		}
		m.graphDOT = msg.dot
		return m, nil
	}
	return m, nil
}

func (m Model) View() string {
	switch m.viewMode {
	case ViewList:
		return m.renderListView()
	case ViewDetail:
		return m.renderDetailView()
	case ViewReject:
		return m.renderRejectView()
	case ViewGraph:
		return m.renderGraphView()
	}
	return ""
}

func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// The reject form owns every key but esc and enter.
	if m.viewMode == ViewReject {
		return m.handleRejectKeys(msg)
	}

	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	}

	// Delegate to view-specific handlers
	switch m.viewMode {
	case ViewList:
		return m.handleListKeys(msg)
	case ViewDetail:
		return m.handleDetailKeys(msg)
	case ViewGraph:
		return m.handleGraphKeys(msg)
	}

	return m, nil
}

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("170")).
			MarginBottom(1)

	tabActiveStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("170")).
			Background(lipgloss.Color("235")).
			Padding(0, 2)

	tabInactiveStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("240")).
				Padding(0, 2)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			MarginTop(1)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42"))
)
