// ABOUTME: HTTP API tests through httptest against a seeded in-memory store
// ABOUTME: Covers the envelope, status mapping, workflows, metrics and the websocket feed
package web

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/harperreed/crmd/db"
	"github.com/harperreed/crmd/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"nhooyr.io/websocket"
)

var testNow = time.Date(2024, 6, 15, 9, 0, 0, 0, time.UTC)

type switchableBackend struct {
	*db.MemoryBackend
	fail atomic.Bool
}

func (b *switchableBackend) Save(ctx context.Context, snap *db.Snapshot) error {
	if b.fail.Load() {
		return errors.New("disk full")
	}
	return b.MemoryBackend.Save(ctx, snap)
}

type fixture struct {
	server  *Server
	store   *db.Store
	backend *switchableBackend
	http    *httptest.Server
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := log.New(io.Discard)
	backend := &switchableBackend{MemoryBackend: db.NewMemoryBackend()}
	store, err := db.NewStore(backend, db.Options{
		Logger: logger,
		Now:    func() time.Time { return testNow },
	})
	require.NoError(t, err)
	require.NoError(t, store.Hydrate(context.Background()))

	server := NewServer(store, Config{Logger: logger, MaxBodyBytes: 4096})
	store.SetObserver(server.Publish)

	ts := httptest.NewServer(server)
	t.Cleanup(func() {
		server.hub.Close()
		ts.Close()
		_ = store.Close()
	})
	return &fixture{server: server, store: store, backend: backend, http: ts}
}

type response struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

func (f *fixture) do(t *testing.T, method, path, body string) (int, response) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, f.http.URL+path, reader)
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := f.http.Client().Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	var env response
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return resp.StatusCode, env
}

func decodeList[T any](t *testing.T, raw json.RawMessage) []T {
	t.Helper()
	var items []T
	require.NoError(t, json.Unmarshal(raw, &items))
	return items
}

func TestListContactsIncludesStrength(t *testing.T) {
	f := newFixture(t)

	status, env := f.do(t, http.MethodGet, "/api/contacts", "")
	require.Equal(t, http.StatusOK, status)
	assert.True(t, env.Success)
	assert.Empty(t, env.Error)

	contacts := decodeList[models.Contact](t, env.Data)
	require.Len(t, contacts, 50)
	for _, c := range contacts {
		require.NotNil(t, c.RelationshipStrength, c.ID)
		assert.GreaterOrEqual(t, *c.RelationshipStrength, 0)
		assert.LessOrEqual(t, *c.RelationshipStrength, 100)
	}
}

func TestCreateUpdateDelete(t *testing.T) {
	f := newFixture(t)

	status, env := f.do(t, http.MethodPost, "/api/tasks", `{"id": "task-new", "title": "Call back", "status": "To Do"}`)
	require.Equal(t, http.StatusCreated, status)
	assert.True(t, env.Success)

	_, env = f.do(t, http.MethodGet, "/api/tasks", "")
	tasks := decodeList[models.Task](t, env.Data)
	assert.Equal(t, "task-new", tasks[0].ID)
	count := len(tasks)

	status, env = f.do(t, http.MethodPut, "/api/tasks/task-new", `{"id": "task-new", "title": "Call back", "status": "Done"}`)
	require.Equal(t, http.StatusOK, status)
	var updated models.Task
	require.NoError(t, json.Unmarshal(env.Data, &updated))
	assert.Equal(t, models.TaskStatusDone, updated.Status)

	status, env = f.do(t, http.MethodDelete, "/api/tasks/task-new", "")
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"id": "task-new"}`, string(env.Data))

	_, env = f.do(t, http.MethodGet, "/api/tasks", "")
	assert.Len(t, decodeList[models.Task](t, env.Data), count-1)
}

func TestErrorStatusMapping(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		want   int
	}{
		{"unknown entity", http.MethodGet, "/api/widgets", "", http.StatusNotFound},
		{"update missing", http.MethodPut, "/api/deals/missing", `{"id": "missing"}`, http.StatusNotFound},
		{"delete missing", http.MethodDelete, "/api/deals/missing", "", http.StatusNotFound},
		{"convert missing", http.MethodPost, "/api/leads/missing-lead-id/convert", "", http.StatusNotFound},
		{"create notification", http.MethodPost, "/api/notifications", `{"id": "n1"}`, http.StatusMethodNotAllowed},
		{"delete notification", http.MethodDelete, "/api/notifications/n1", "", http.StatusMethodNotAllowed},
		{"malformed json", http.MethodPost, "/api/contacts", `{"id": `, http.StatusBadRequest},
		{"missing id", http.MethodPost, "/api/contacts", `{"name": "Ada"}`, http.StatusBadRequest},
		{"bad enum", http.MethodPost, "/api/deals", `{"id": "d", "stage": "Won"}`, http.StatusBadRequest},
		{"too large", http.MethodPost, "/api/contacts", `{"id": "big", "name": "` + strings.Repeat("x", 5000) + `"}`, http.StatusRequestEntityTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, env := f.do(t, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.want, status)
			assert.False(t, env.Success)
			assert.NotEmpty(t, env.Error)
			assert.Nil(t, env.Data)
		})
	}
}

func TestStorageFailureIs500(t *testing.T) {
	f := newFixture(t)
	f.backend.fail.Store(true)

	status, env := f.do(t, http.MethodPost, "/api/comments", `{"id": "c1", "content": "hi"}`)
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.False(t, env.Success)

	f.backend.fail.Store(false)
	_, env = f.do(t, http.MethodGet, "/api/comments", "")
	assert.Empty(t, decodeList[models.Comment](t, env.Data))
}

func TestConvertLeadRoute(t *testing.T) {
	f := newFixture(t)

	status, env := f.do(t, http.MethodPost, "/api/leads/lead-1/convert", "")
	require.Equal(t, http.StatusOK, status)

	var result db.Conversion
	require.NoError(t, json.Unmarshal(env.Data, &result))
	assert.Equal(t, models.StageQualified, result.Deal.Stage)
	assert.Equal(t, result.Contact.ID, result.Deal.ContactID)
	assert.Equal(t, result.Company.ID, result.Deal.CompanyID)

	status, _ = f.do(t, http.MethodPost, "/api/leads/lead-1/convert", "")
	assert.Equal(t, http.StatusNotFound, status)
}

func TestNotificationRoutes(t *testing.T) {
	f := newFixture(t)

	status, env := f.do(t, http.MethodPost, "/api/notifications/generate", "")
	require.Equal(t, http.StatusOK, status)
	first := decodeList[models.Notification](t, env.Data)
	require.NotEmpty(t, first, "seeded pipeline has stale deals")

	_, env = f.do(t, http.MethodPost, "/api/notifications/generate", "")
	assert.JSONEq(t, `[]`, string(env.Data))

	status, env = f.do(t, http.MethodPut, "/api/notifications/read", "")
	require.Equal(t, http.StatusOK, status)
	for _, n := range decodeList[models.Notification](t, env.Data) {
		assert.True(t, n.IsRead)
	}

	_, env = f.do(t, http.MethodGet, "/api/notifications", "")
	assert.Len(t, decodeList[models.Notification](t, env.Data), len(first))
}

func TestRequestIDHeader(t *testing.T) {
	f := newFixture(t)

	resp, err := http.Get(f.http.URL + "/health")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Len(t, resp.Header.Get(requestIDHeader), 36)

	req, err := http.NewRequest(http.MethodGet, f.http.URL+"/health", nil)
	require.NoError(t, err)
	req.Header.Set(requestIDHeader, "trace-123")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, "trace-123", resp.Header.Get(requestIDHeader))
}

func TestMetricsEndpoint(t *testing.T) {
	f := newFixture(t)
	f.do(t, http.MethodGet, "/api/users", "")

	scrape := func() string {
		resp, err := http.Get(f.http.URL + "/metrics")
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		return string(body)
	}

	// Counters are recorded after the response is flushed
	assert.Eventually(t, func() bool {
		return strings.Contains(scrape(), `crmd_http_requests_total{method="GET",route="GET /api/{entity}",status="200"} 1`)
	}, 2*time.Second, 10*time.Millisecond)
	assert.Contains(t, scrape(), "crmd_http_request_duration_seconds")
}

func TestEventsFeed(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	wsURL := "ws" + strings.TrimPrefix(f.http.URL, "http") + "/api/events"
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	require.NoError(t, err)
	defer func() { _ = conn.Close(websocket.StatusNormalClosure, "") }()

	require.Eventually(t, func() bool { return f.server.hub.Subscribers() == 1 }, 2*time.Second, 10*time.Millisecond)

	status, _ := f.do(t, http.MethodPost, "/api/goals", `{"id": "goal-new", "title": "Close 3 deals"}`)
	require.Equal(t, http.StatusCreated, status)

	_, msg, err := conn.Read(ctx)
	require.NoError(t, err)

	var change db.Change
	require.NoError(t, json.NewDecoder(bytes.NewReader(msg)).Decode(&change))
	assert.Equal(t, models.KindGoals, change.Kind)
	assert.Equal(t, models.VerbCreate, change.Verb)
	assert.Equal(t, "goal-new", change.ID)
	assert.Equal(t, testNow, change.At)
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, statusFor(&db.NotFoundError{Kind: models.KindDeals, ID: "x"}))
	assert.Equal(t, http.StatusInternalServerError, statusFor(&db.StorageError{Op: "save", Err: errors.New("boom")}))
	assert.Equal(t, http.StatusInternalServerError, statusFor(errors.New("unexpected")))
}
