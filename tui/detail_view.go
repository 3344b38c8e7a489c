// ABOUTME: Detail view for the TUI
// ABOUTME: Shows every field of the selected record
package tui

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var fieldStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("86")).
	Bold(true).
	Width(22)

func (m Model) renderDetailView() string {
	rec, ok := m.selected()
	if !ok {
		return "No record selected"
	}

	var s strings.Builder
	s.WriteString(titleStyle.Render(fmt.Sprintf("%s: %s", strings.ToUpper(string(m.kind())), m.selectedID())))
	s.WriteString("\n\n")

	keys := make([]string, 0, len(rec))
	for k := range rec {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		s.WriteString(fieldStyle.Render(k))
		s.WriteString(detailText(rec[k]))
		s.WriteString("\n")
	}

	s.WriteString(helpStyle.Render("esc: back • q: back"))
	return s.String()
}

// detailText prints nested values as compact JSON and scalars like the table does.
func detailText(v any) string {
	switch v.(type) {
	case map[string]any, []any:
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v)
		}
		return string(data)
	}
	return cellText(v)
}

func (m Model) handleDetailKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "q", "backspace":
		m.viewMode = ViewList
	}
	return m, nil
}
