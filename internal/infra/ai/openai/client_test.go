package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/bryanwahyu/leakscan/internal/domain/ai"
)

func completionServer(t *testing.T, status int, content string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if status != http.StatusOK {
			_, _ = w.Write([]byte(`{"error":{"message":"slow down","type":"rate_limit"}}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":      "cmpl-1",
			"object":  "chat.completion",
			"choices": []map[string]any{{"index": 0, "message": map[string]any{"role": "assistant", "content": content}}},
		})
	}))
}

func TestTriageReturnsModelJSON(t *testing.T) {
	srv := completionServer(t, http.StatusOK, `{"summary":"ok","severity":"low"}`)
	defer srv.Close()

	c := NewClientWithBaseURL("test", srv.URL, "")
	out, err := c.Triage(context.Background(), "[]")
	require.NoError(t, err)
	assert.JSONEq(t, `{"summary":"ok","severity":"low"}`, out)
}

func TestTriageRejectsNonJSON(t *testing.T) {
	srv := completionServer(t, http.StatusOK, "sure, here you go")
	defer srv.Close()

	_, err := NewClientWithBaseURL("test", srv.URL, "").Triage(context.Background(), "[]")
	assert.ErrorIs(t, err, domain.ErrNoTriage)
}

func TestTriageMapsRateLimit(t *testing.T) {
	srv := completionServer(t, http.StatusTooManyRequests, "")
	defer srv.Close()

	_, err := NewClientWithBaseURL("test", srv.URL, "").Triage(context.Background(), "[]")
	assert.ErrorIs(t, err, domain.ErrQuotaExceeded)
}

func TestIsReasoningModel(t *testing.T) {
	assert.True(t, isReasoningModel("o3-mini"))
	assert.True(t, isReasoningModel("gpt-5"))
	assert.False(t, isReasoningModel("gpt-4o-mini"))
}
