// ABOUTME: Delete confirmation view for TUI
// ABOUTME: Asks before removing the selected record of any deletable kind
package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	confirmBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("9")).
			Padding(1, 2).
			Width(60).
			Align(lipgloss.Center)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9")).
			Bold(true)

	confirmButtonStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("15")).
				Background(lipgloss.Color("9")).
				Padding(0, 2).
				MarginRight(2)

	cancelButtonStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("15")).
				Background(lipgloss.Color("8")).
				Padding(0, 2)
)

func (m Model) renderConfirmDeleteView() string {
	rec, ok := m.selected()
	if !ok {
		return "No record selected"
	}

	label := m.selectedID()
	for _, f := range []string{"name", "title", "subject"} {
		if v, ok := rec[f].(string); ok && v != "" {
			label = v
			break
		}
	}

	title := warningStyle.Render("⚠  DELETE CONFIRMATION  ⚠")
	message := fmt.Sprintf("Delete this record from %s?", m.kind())
	info := fmt.Sprintf("\n%s (%s)\n", label, m.selectedID())
	warning := "\nThis action cannot be undone!"

	buttons := lipgloss.JoinHorizontal(
		lipgloss.Left,
		confirmButtonStyle.Render("Yes, Delete (y)"),
		cancelButtonStyle.Render("Cancel (n/esc)"),
	)

	content := strings.Join([]string{title, "", message, info, warning, "", buttons}, "\n")
	return confirmBoxStyle.Render(content)
}

func (m Model) handleConfirmDeleteKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		return m, m.deleteRecord(m.kind(), m.selectedID())
	case "n", "N", "esc", "q":
		m.viewMode = ViewList
	}
	return m, nil
}
