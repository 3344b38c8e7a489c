// ABOUTME: Tests for the HTTP completion client
// ABOUTME: Runs against an httptest server speaking the chat completions protocol
package enrich

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPCompleterComplete(t *testing.T) {
	var got chatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices": [{"message": {"role": "assistant", "content": "  Acme sells anvils.  "}}]}`))
	}))
	defer server.Close()

	c, err := NewHTTPCompleter(HTTPCompleterOptions{Endpoint: server.URL + "/v1/", Model: "gpt-test", APIKey: "secret"})
	require.NoError(t, err)

	text, err := c.Complete(context.Background(), "Summarize Acme")
	require.NoError(t, err)
	assert.Equal(t, "Acme sells anvils.", text)
	assert.Equal(t, "gpt-test", got.Model)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, "user", got.Messages[0].Role)
	assert.Equal(t, "Summarize Acme", got.Messages[0].Content)
}

func TestHTTPCompleterErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{"server error", http.StatusBadGateway, `upstream down`, "returned 502: upstream down"},
		{"no choices", http.StatusOK, `{"choices": []}`, "no choices"},
		{"empty content", http.StatusOK, `{"choices": [{"message": {"content": " "}}]}`, "empty"},
		{"bad json", http.StatusOK, `not json`, "decode"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			c, err := NewHTTPCompleter(HTTPCompleterOptions{Endpoint: server.URL, Model: "m"})
			require.NoError(t, err)
			_, err = c.Complete(context.Background(), "p")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestNewHTTPCompleterRequiresEndpointAndModel(t *testing.T) {
	_, err := NewHTTPCompleter(HTTPCompleterOptions{Model: "m"})
	assert.Error(t, err)
	_, err = NewHTTPCompleter(HTTPCompleterOptions{Endpoint: "http://localhost"})
	assert.Error(t, err)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 5))
	assert.Equal(t, "ab...", truncate("abcdef", 2))
	// "é" is two bytes; cutting inside it backs up to the rune start.
	assert.Equal(t, "caf...", truncate("café au lait", 4))
	assert.Equal(t, "café...", truncate("café au lait", 5))
	assert.True(t, utf8.ValidString(truncate("日本語テキスト", 7)))
}
