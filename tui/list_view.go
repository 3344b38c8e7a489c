// ABOUTME: List view for the TUI
// ABOUTME: Renders kind tabs and a record table, and dispatches the list key bindings
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/harperreed/crmd/models"
)

const cellWidth = 24

func (m Model) renderListView() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render("CRMD"))
	s.WriteString("\n\n")

	s.WriteString(m.renderTabs())
	s.WriteString("\n\n")

	if m.err != nil {
		s.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
		s.WriteString("\n\n")
	}

	if len(m.records) == 0 {
		s.WriteString(fmt.Sprintf("No %s found", m.kind()))
	} else {
		s.WriteString(m.renderTable())
	}
	s.WriteString("\n")

	if m.status != "" {
		s.WriteString("\n")
		s.WriteString(statusStyle.Render(m.status))
	}
	s.WriteString("\n")
	s.WriteString(m.renderListHelp())

	return s.String()
}

func (m Model) renderTabs() string {
	var rendered []string
	for i, kind := range models.Kinds {
		if i == m.kindIndex {
			rendered = append(rendered, tabActiveStyle.Render(string(kind)))
		} else {
			rendered = append(rendered, tabInactiveStyle.Render(string(kind)))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, rendered...)
}

func (m Model) renderTable() string {
	fields := append([]string{"id"}, m.kind().SummaryFields()...)

	columns := make([]table.Column, len(fields))
	for i, f := range fields {
		columns[i] = table.Column{Title: f, Width: cellWidth}
	}

	rows := make([]table.Row, 0, len(m.records))
	for _, rec := range m.records {
		row := make(table.Row, len(fields))
		for i, f := range fields {
			row[i] = cellText(rec[f])
		}
		rows = append(rows, row)
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithRows(rows),
		table.WithFocused(true),
		table.WithHeight(max(m.height-12, 3)),
	)
	t.SetCursor(m.selectedRow)

	return t.View()
}

func (m Model) renderListHelp() string {
	help := []string{"↑/↓: navigate", "tab: next kind", "enter: view"}
	kind := m.kind()
	if kind.Allows(models.VerbDelete) {
		help = append(help, "d: delete")
	}
	switch kind {
	case models.KindNotifications:
		help = append(help, "g: generate", "r: mark all read")
	case models.KindLeads:
		help = append(help, "c: convert")
	}
	help = append(help, "q: quit")
	return helpStyle.Render(strings.Join(help, " • "))
}

func (m Model) handleListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if m.selectedRow > 0 {
			m.selectedRow--
		}
	case "down", "j":
		if m.selectedRow < len(m.records)-1 {
			m.selectedRow++
		}
	case "tab":
		return m.switchKind(1)
	case "shift+tab":
		return m.switchKind(len(models.Kinds) - 1)
	case "enter":
		if _, ok := m.selected(); ok {
			m.viewMode = ViewDetail
		}
	case "d":
		if _, ok := m.selected(); ok && m.kind().Allows(models.VerbDelete) {
			m.viewMode = ViewConfirmDelete
		}
	case "g":
		if m.kind() == models.KindNotifications {
			return m, m.generateNotifications()
		}
	case "r":
		if m.kind() == models.KindNotifications {
			return m, m.markNotificationsRead()
		}
	case "c":
		if id := m.selectedID(); id != "" && m.kind() == models.KindLeads {
			return m, m.convertLead(id)
		}
	}
	return m, nil
}

func (m Model) switchKind(step int) (tea.Model, tea.Cmd) {
	m.kindIndex = (m.kindIndex + step) % len(models.Kinds)
	m.records = nil
	m.selectedRow = 0
	m.status = ""
	m.err = nil
	return m, m.loadRecords()
}

func cellText(v any) string {
	var s string
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		s = val
	case float64:
		if val == float64(int64(val)) {
			s = fmt.Sprintf("%d", int64(val))
		} else {
			s = fmt.Sprintf("%.2f", val)
		}
	default:
		s = fmt.Sprint(val)
	}
	return strings.ReplaceAll(s, "\n", " ")
}
