// ABOUTME: Tests for the TUI model
// ABOUTME: Drives Update with key messages and runs the returned commands synchronously
package tui

import (
	"context"
	"io"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harperreed/crmd/db"
	"github.com/harperreed/crmd/models"
)

var testNow = time.Date(2024, 6, 15, 9, 0, 0, 0, time.UTC)

func newTestModel(t *testing.T) Model {
	t.Helper()
	backend := db.NewMemoryBackend()
	require.NoError(t, backend.Save(context.Background(), &db.Snapshot{
		Contacts: db.NewCollection(
			models.Contact{ID: "contact-1", Name: "Ada Lovelace", Email: "ada@acme.com", CompanyID: "comp-1"},
			models.Contact{ID: "contact-2", Name: "Grace Hopper", Email: "grace@navy.mil"},
		),
		Companies: db.NewCollection(models.Company{ID: "comp-1", Name: "ACME"}),
		Deals: db.NewCollection(
			models.Deal{ID: "deal-1", Title: "Website redesign", Value: 50000, Stage: models.StageProposal, ContactID: "contact-1", CompanyID: "comp-1"},
		),
		Leads: db.NewCollection(
			models.Lead{ID: "lead-1", Name: "Dennis Ritchie", CompanyName: "Bell Labs", Status: models.LeadStatusNew},
		),
	}))

	store, err := db.NewStore(backend, db.Options{
		Logger: log.New(io.Discard),
		Now:    func() time.Time { return testNow },
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	m := NewModel(context.Background(), store)
	return settle(m, m.Init())
}

// settle runs cmd and feeds every resulting message back into the model.
func settle(m Model, cmd tea.Cmd) Model {
	for cmd != nil {
		msg := cmd()
		if _, ok := msg.(tea.QuitMsg); ok {
			return m
		}
		next, nextCmd := m.Update(msg)
		m = next.(Model)
		cmd = nextCmd
	}
	return m
}

func press(m Model, key string) Model {
	var msg tea.KeyMsg
	switch key {
	case "tab":
		msg = tea.KeyMsg{Type: tea.KeyTab}
	case "shift+tab":
		msg = tea.KeyMsg{Type: tea.KeyShiftTab}
	case "enter":
		msg = tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		msg = tea.KeyMsg{Type: tea.KeyEsc}
	default:
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)}
	}
	next, cmd := m.Update(msg)
	return settle(next.(Model), cmd)
}

func TestInitLoadsContacts(t *testing.T) {
	m := newTestModel(t)

	assert.Equal(t, ViewList, m.viewMode)
	assert.Len(t, m.records, 2)
	view := m.View()
	assert.Contains(t, view, "contact-1")
	assert.Contains(t, view, "contacts")
	assert.Contains(t, view, "d: delete")
}

func TestSwitchKind(t *testing.T) {
	m := newTestModel(t)

	m = press(m, "tab")
	assert.Equal(t, models.KindCompanies, m.kind())
	require.Len(t, m.records, 1)
	assert.Equal(t, "comp-1", m.records[0]["id"])

	m = press(m, "shift+tab")
	m = press(m, "shift+tab")
	assert.Equal(t, models.KindArticles, m.kind())
	assert.Empty(t, m.records)
	assert.Contains(t, m.View(), "No articles found")
}

func TestNavigationStaysInBounds(t *testing.T) {
	m := newTestModel(t)

	m = press(m, "k")
	assert.Equal(t, 0, m.selectedRow)
	m = press(m, "j")
	m = press(m, "j")
	assert.Equal(t, 1, m.selectedRow)
	assert.Equal(t, "contact-2", m.selectedID())
}

func TestDetailView(t *testing.T) {
	m := newTestModel(t)

	m = press(m, "enter")
	require.Equal(t, ViewDetail, m.viewMode)
	view := m.View()
	assert.Contains(t, view, "CONTACTS: contact-1")
	assert.Contains(t, view, "ada@acme.com")
	assert.Contains(t, view, "relationshipStrength")

	m = press(m, "esc")
	assert.Equal(t, ViewList, m.viewMode)
}

func TestDeleteFlow(t *testing.T) {
	m := newTestModel(t)

	m = press(m, "d")
	require.Equal(t, ViewConfirmDelete, m.viewMode)
	assert.Contains(t, m.View(), "DELETE CONFIRMATION")
	assert.Contains(t, m.View(), "Ada Lovelace")

	m = press(m, "n")
	assert.Equal(t, ViewList, m.viewMode)
	assert.Len(t, m.records, 2)

	m = press(m, "d")
	m = press(m, "y")
	assert.Equal(t, ViewList, m.viewMode)
	assert.NoError(t, m.err)
	assert.Equal(t, "Deleted contacts contact-1", m.status)
	require.Len(t, m.records, 1)
	assert.Equal(t, "contact-2", m.records[0]["id"])
}

func TestNotificationActions(t *testing.T) {
	m := newTestModel(t)
	for m.kind() != models.KindNotifications {
		m = press(m, "tab")
	}
	assert.Empty(t, m.records)
	assert.Contains(t, m.View(), "g: generate")
	assert.NotContains(t, m.View(), "d: delete")

	m = press(m, "g")
	assert.Equal(t, "Generated 1 notification(s)", m.status)
	require.Len(t, m.records, 1)
	assert.Equal(t, false, m.records[0]["isRead"])

	m = press(m, "d")
	assert.Equal(t, ViewList, m.viewMode)

	m = press(m, "r")
	assert.Equal(t, "Marked 1 notification(s) read", m.status)
	require.Len(t, m.records, 1)
	assert.Equal(t, true, m.records[0]["isRead"])
}

func TestConvertLead(t *testing.T) {
	m := newTestModel(t)
	for m.kind() != models.KindLeads {
		m = press(m, "tab")
	}
	require.Len(t, m.records, 1)

	m = press(m, "c")
	assert.NoError(t, m.err)
	assert.Contains(t, m.status, "Converted Dennis Ritchie")
	assert.Empty(t, m.records)

	for m.kind() != models.KindContacts {
		m = press(m, "shift+tab")
	}
	assert.Len(t, m.records, 3)
}

func TestQuit(t *testing.T) {
	m := newTestModel(t)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())

	m = press(m, "enter")
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	assert.Nil(t, cmd)
	assert.Equal(t, ViewList, next.(Model).viewMode)
}

func TestCellText(t *testing.T) {
	assert.Equal(t, "", cellText(nil))
	assert.Equal(t, "50000", cellText(float64(50000)))
	assert.Equal(t, "0.25", cellText(0.25))
	assert.Equal(t, "a b", cellText("a\nb"))
}
