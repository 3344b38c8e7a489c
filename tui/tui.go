// ABOUTME: Terminal User Interface using bubbletea framework
// ABOUTME: Browses every entity kind and runs the notification and lead workflows
package tui

import (
	"context"
	"encoding/json"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/harperreed/crmd/db"
	"github.com/harperreed/crmd/models"
)

// ViewMode represents the current TUI view
type ViewMode int

const (
	ViewList ViewMode = iota
	ViewDetail
	ViewConfirmDelete
)

// Model is the main bubbletea model
type Model struct {
	ctx   context.Context
	store *db.Store

	viewMode  ViewMode
	kindIndex int

	// List view state
	records     []map[string]any
	selectedRow int

	status string
	err    error

	width  int
	height int
}

// recordsLoadedMsg carries a fresh listing for one kind.
type recordsLoadedMsg struct {
	kind    models.Kind
	records []map[string]any
	err     error
}

// actionDoneMsg reports a finished workflow; the current kind is reloaded after it.
type actionDoneMsg struct {
	status string
	err    error
}

// NewModel creates a new TUI model
func NewModel(ctx context.Context, store *db.Store) Model {
	return Model{
		ctx:      ctx,
		store:    store,
		viewMode: ViewList,
		width:    80,
		height:   24,
	}
}

// Run starts the full-screen browser and blocks until the user quits.
func Run(ctx context.Context, store *db.Store) error {
	p := tea.NewProgram(NewModel(ctx, store), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}

func (m Model) Init() tea.Cmd {
	return m.loadRecords()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case recordsLoadedMsg:
		if msg.kind != m.kind() {
			return m, nil
		}
		m.err = msg.err
		m.records = msg.records
		if m.selectedRow >= len(m.records) {
			m.selectedRow = max(len(m.records)-1, 0)
		}
		return m, nil
	case actionDoneMsg:
		m.err = msg.err
		m.status = msg.status
		m.viewMode = ViewList
		return m, m.loadRecords()
	}
	return m, nil
}

func (m Model) View() string {
	switch m.viewMode {
	case ViewList:
		return m.renderListView()
	case ViewDetail:
		return m.renderDetailView()
	case ViewConfirmDelete:
		return m.renderConfirmDeleteView()
	}
	return ""
}

func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "q":
		if m.viewMode == ViewList {
			return m, tea.Quit
		}
	}

	// Delegate to view-specific handlers
	switch m.viewMode {
	case ViewList:
		return m.handleListKeys(msg)
	case ViewDetail:
		return m.handleDetailKeys(msg)
	case ViewConfirmDelete:
		return m.handleConfirmDeleteKeys(msg)
	}

	return m, nil
}

func (m Model) kind() models.Kind {
	return models.Kinds[m.kindIndex]
}

func (m Model) selected() (map[string]any, bool) {
	if m.selectedRow < 0 || m.selectedRow >= len(m.records) {
		return nil, false
	}
	return m.records[m.selectedRow], true
}

func (m Model) selectedID() string {
	rec, ok := m.selected()
	if !ok {
		return ""
	}
	id, _ := rec["id"].(string)
	return id
}

func (m Model) loadRecords() tea.Cmd {
	ctx, store, kind := m.ctx, m.store, m.kind()
	return func() tea.Msg {
		res, err := store.ResourceFor(kind)
		if err != nil {
			return recordsLoadedMsg{kind: kind, err: err}
		}
		raw, err := res.ListJSON(ctx)
		if err != nil {
			return recordsLoadedMsg{kind: kind, err: err}
		}
		var records []map[string]any
		if err := json.Unmarshal(raw, &records); err != nil {
			return recordsLoadedMsg{kind: kind, err: err}
		}
		return recordsLoadedMsg{kind: kind, records: records}
	}
}

func (m Model) generateNotifications() tea.Cmd {
	ctx, store := m.ctx, m.store
	return func() tea.Msg {
		batch, err := store.GenerateNotifications(ctx)
		if err != nil {
			return actionDoneMsg{err: err}
		}
		return actionDoneMsg{status: fmt.Sprintf("Generated %d notification(s)", len(batch))}
	}
}

func (m Model) markNotificationsRead() tea.Cmd {
	ctx, store := m.ctx, m.store
	return func() tea.Msg {
		all, err := store.MarkAllNotificationsRead(ctx)
		if err != nil {
			return actionDoneMsg{err: err}
		}
		return actionDoneMsg{status: fmt.Sprintf("Marked %d notification(s) read", len(all))}
	}
}

func (m Model) convertLead(id string) tea.Cmd {
	ctx, store := m.ctx, m.store
	return func() tea.Msg {
		result, err := store.ConvertLead(ctx, id)
		if err != nil {
			return actionDoneMsg{err: err}
		}
		return actionDoneMsg{status: fmt.Sprintf("Converted %s into deal %s", result.Contact.Name, result.Deal.ID)}
	}
}

func (m Model) deleteRecord(kind models.Kind, id string) tea.Cmd {
	ctx, store := m.ctx, m.store
	return func() tea.Msg {
		res, err := store.ResourceFor(kind)
		if err != nil {
			return actionDoneMsg{err: err}
		}
		if _, err := res.DeleteJSON(ctx, id); err != nil {
			return actionDoneMsg{err: err}
		}
		return actionDoneMsg{status: fmt.Sprintf("Deleted %s %s", kind, id)}
	}
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
			Padding(0, 1)

	tabInactiveStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("240")).
				Padding(0, 1)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			MarginTop(1)

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("10"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9")).
			Bold(true)
)
