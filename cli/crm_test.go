// ABOUTME: Tests for the CRM, viz and logger CLI commands
// ABOUTME: Runs each command against an in-memory store and checks the printed output
package cli

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/harperreed/crmd/config"
	"github.com/harperreed/crmd/db"
	"github.com/harperreed/crmd/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2024, 6, 15, 9, 0, 0, 0, time.UTC)

func newTestStore(t *testing.T) *db.Store {
	t.Helper()
	backend := db.NewMemoryBackend()
	require.NoError(t, backend.Save(context.Background(), &db.Snapshot{
		Contacts: db.NewCollection(
			models.Contact{ID: "contact-1", Name: "Ada Lovelace", Email: "ada@acme.com", Title: "Engineer", CompanyID: "comp-1"},
		),
		Companies: db.NewCollection(
			models.Company{ID: "comp-1", Name: "ACME", Industry: "Technology"},
		),
		Deals: db.NewCollection(
			models.Deal{ID: "deal-1", Title: "Website redesign", Value: 50000, Stage: models.StageProposal, ContactID: "contact-1", CompanyID: "comp-1"},
		),
		Leads: db.NewCollection(
			models.Lead{ID: "lead-1", Name: "Dennis Ritchie", CompanyName: "Bell Labs", Status: models.LeadStatusNew},
		),
		Users: db.NewCollection(models.User{ID: "user-1", Name: "Owner"}),
	}))

	store, err := db.NewStore(backend, db.Options{
		Logger: log.New(io.Discard),
		Now:    func() time.Time { return testNow },
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestListCommand(t *testing.T) {
	store := newTestStore(t)
	var out bytes.Buffer

	require.NoError(t, ListCommand(context.Background(), store, &out, []string{"contacts"}))
	text := out.String()
	assert.Contains(t, text, "ID")
	assert.Contains(t, text, "RELATIONSHIPSTRENGTH")
	assert.Contains(t, text, "contact-1")
	assert.Contains(t, text, "ada@acme.com")
	assert.Contains(t, text, "Total: 1 contacts")
}

func TestListCommandFormatsNumbers(t *testing.T) {
	store := newTestStore(t)
	var out bytes.Buffer

	require.NoError(t, ListCommand(context.Background(), store, &out, []string{"deals"}))
	assert.Contains(t, out.String(), "50000")
	assert.NotContains(t, out.String(), "5e+04")
}

func TestListCommandEmptyAndErrors(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	var out bytes.Buffer
	require.NoError(t, ListCommand(ctx, store, &out, []string{"articles"}))
	assert.Equal(t, "No articles found\n", out.String())

	assert.Error(t, ListCommand(ctx, store, &out, nil))
	assert.ErrorIs(t, ListCommand(ctx, store, &out, []string{"widgets"}), db.ErrUnknownKind)
}

func TestListCommandLimit(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	_, err := store.Users().Create(ctx, models.User{ID: "user-2", Name: "Second"})
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, ListCommand(ctx, store, &out, []string{"--limit", "1", "users"}))
	assert.Contains(t, out.String(), "user-2")
	assert.NotContains(t, out.String(), "user-1")
	assert.Contains(t, out.String(), "Showing 1 of 2 users")
}

func TestFormatCell(t *testing.T) {
	assert.Equal(t, "", formatCell(nil))
	assert.Equal(t, "42", formatCell(float64(42)))
	assert.Equal(t, "2.50", formatCell(2.5))
	assert.Equal(t, "true", formatCell(true))
	assert.Equal(t, "a b", formatCell("a\nb"))

	long := formatCell(string(bytes.Repeat([]byte("x"), 100)))
	assert.Len(t, long, maxCellWidth)
	assert.Equal(t, "...", long[len(long)-3:])
}

func TestConvertLeadCommand(t *testing.T) {
	store := newTestStore(t)
	var out bytes.Buffer

	require.NoError(t, ConvertLeadCommand(context.Background(), store, &out, []string{"lead-1"}))
	text := out.String()
	assert.Contains(t, text, "✓ Lead converted: Dennis Ritchie")
	assert.Contains(t, text, "Company: Bell Labs")
	assert.Contains(t, text, ", new)")
	assert.Contains(t, text, models.StageQualified)

	err := ConvertLeadCommand(context.Background(), store, &out, []string{"lead-1"})
	assert.ErrorIs(t, err, db.ErrNotFound)
	assert.Error(t, ConvertLeadCommand(context.Background(), store, &out, nil))
}

func TestNotifyAndMarkReadCommands(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	var out bytes.Buffer
	require.NoError(t, NotifyCommand(ctx, store, &out, nil))
	assert.Contains(t, out.String(), "✓ Generated 1 notification(s)")
	assert.Contains(t, out.String(), `[reminder] Deal "Website redesign"`)

	out.Reset()
	require.NoError(t, NotifyCommand(ctx, store, &out, nil))
	assert.Equal(t, "No new notifications\n", out.String())

	out.Reset()
	require.NoError(t, MarkReadCommand(ctx, store, &out, nil))
	assert.Equal(t, "✓ Marked 1 notification(s) read\n", out.String())
}

func TestStrengthCommand(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	var out bytes.Buffer
	require.NoError(t, StrengthCommand(ctx, store, &out, []string{"contact", "contact-1"}))
	assert.Equal(t, "Ada Lovelace (contact contact-1): 10/100 from 0 activities\n", out.String())

	assert.Error(t, StrengthCommand(ctx, store, &out, []string{"deal", "deal-1"}))
	assert.ErrorIs(t, StrengthCommand(ctx, store, &out, []string{"company", "nope"}), db.ErrNotFound)
	assert.Error(t, StrengthCommand(ctx, store, &out, []string{"contact"}))
}

func TestVizCommands(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	var out bytes.Buffer
	require.NoError(t, VizDashboardCommand(ctx, store, &out, testNow))
	assert.Contains(t, out.String(), "1 contacts  1 companies  1 deals  1 leads")

	path := filepath.Join(t.TempDir(), "crm.dot")
	out.Reset()
	require.NoError(t, VizGraphCommand(ctx, store, &out, []string{"--output", path}))
	assert.Empty(t, out.String())
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "company_comp-1")
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewLogger("warn", &buf)
	require.NoError(t, err)

	logger.Info("hidden")
	logger.Warn("shown", "kind", "deals")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
	assert.Contains(t, buf.String(), "kind=deals")

	_, err = NewLogger("loud", &buf)
	assert.Error(t, err)
}

func TestNewEnrichWorkerDisabled(t *testing.T) {
	cfg := config.Default()
	worker, err := newEnrichWorker(cfg, newTestStore(t), log.New(io.Discard))
	require.NoError(t, err)
	assert.Nil(t, worker)
}

func TestNewEnrichWorkerEnabled(t *testing.T) {
	cfg := config.Default()
	cfg.CompletionEndpoint = "http://localhost:1"
	cfg.CompletionModel = "test-model"

	worker, err := newEnrichWorker(cfg, newTestStore(t), log.New(io.Discard))
	require.NoError(t, err)
	require.NotNil(t, worker)
	require.NoError(t, worker.Close(context.Background()))
}

func TestServeCommandStopsOnCancel(t *testing.T) {
	store := newTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	err := ServeCommand(ctx, config.Default(), store, log.New(io.Discard), []string{"--addr", "127.0.0.1:0"})
	assert.NoError(t, err)
}
