package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/firebase/genkit/go/genkit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitaldesk/vitaldesk/internal/agent/chat"
	"github.com/vitaldesk/vitaldesk/internal/log"
	"github.com/vitaldesk/vitaldesk/internal/rag"
	"github.com/vitaldesk/vitaldesk/internal/store"
	"github.com/vitaldesk/vitaldesk/internal/testutil"
	"github.com/vitaldesk/vitaldesk/internal/tools"
)

// disabledRetriever satisfies chat.ContextRetriever with RAG off.
type disabledRetriever struct{}

func (disabledRetriever) Enabled() bool { return false }

func (disabledRetriever) RetrieveAndAugment(context.Context, string, int) rag.Augmentation {
	return rag.Augmentation{}
}

func newChatServer(t *testing.T) (http.Handler, *testutil.MockLLM) {
	t.Helper()

	g := genkit.Init(context.Background())
	mock := testutil.NewMockLLM("default answer")
	mock.Register(g)

	st, err := store.Open(filepath.Join(t.TempDir(), "records.json"), log.NewNop())
	require.NoError(t, err)

	registry := tools.NewRegistry(g, st, log.NewNop())
	assistant, err := chat.New(chat.Config{
		Genkit:    g,
		Registry:  registry,
		Retriever: disabledRetriever{},
		Logger:    log.NewNop(),
		ModelName: testutil.MockModelName,
	})
	require.NoError(t, err)

	reporter := rag.NewReporter(nil, false)
	srv := NewServer(assistant, reporter, st, nil, log.NewNop())
	return srv.Handler(), mock
}

func TestChat_HappyPath(t *testing.T) {
	t.Parallel()

	handler, mock := newChatServer(t)
	mock.AddResponse("hello", "Hi! How can I help with your health today?")

	body := `{"message":"hello there"}`
	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp chatResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Hi! How can I help with your health today?", resp.Response)
	assert.NotEmpty(t, resp.SessionID)
	assert.False(t, resp.RAGUsed)

	// Arrays are present even when empty.
	assert.Contains(t, rec.Body.String(), `"toolsExecuted":[]`)
	assert.Contains(t, rec.Body.String(), `"citations":[]`)
}

func TestChat_SessionStickiness(t *testing.T) {
	t.Parallel()

	handler, _ := newChatServer(t)

	send := func(body string) chatResponse {
		req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(body))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
		var resp chatResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		return resp
	}

	first := send(`{"message":"hi"}`)
	second := send(fmt.Sprintf(`{"message":"again","sessionId":%q}`, first.SessionID))
	assert.Equal(t, first.SessionID, second.SessionID)
}

func TestChat_MissingMessage(t *testing.T) {
	t.Parallel()

	handler, _ := newChatServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "message is required")
}

func TestChat_InvalidBody(t *testing.T) {
	t.Parallel()

	handler, _ := newChatServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader("not json"))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestChat_ErrorStatusMapping(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"unauthorized", chat.ErrUnauthorized, http.StatusUnauthorized},
		{"rate limited", chat.ErrRateLimited, http.StatusTooManyRequests},
		{"bad request", chat.ErrBadRequest, http.StatusBadRequest},
		{"empty message", chat.ErrEmptyMessage, http.StatusBadRequest},
		{"model not configured", chat.ErrModelNotConfigured, http.StatusInternalServerError},
		{"generic", errors.New("boom"), http.StatusInternalServerError},
	}

	h := &ChatHandler{logger: log.NewNop()}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			rec := httptest.NewRecorder()
			h.writeChatError(rec, tt.err)
			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestChat_NoModelCredential(t *testing.T) {
	t.Parallel()

	g := genkit.Init(context.Background())
	testutil.NewMockLLM("unused").Register(g)
	st, err := store.Open(filepath.Join(t.TempDir(), "records.json"), log.NewNop())
	require.NoError(t, err)

	assistant, err := chat.New(chat.Config{
		Genkit:     g,
		Registry:   tools.NewRegistry(g, st, log.NewNop()),
		Retriever:  disabledRetriever{},
		Logger:     log.NewNop(),
		ModelName:  testutil.MockModelName,
		ModelReady: func() bool { return false },
	})
	require.NoError(t, err)

	srv := NewServer(assistant, rag.NewReporter(nil, false), st, nil, log.NewNop())
	handler := srv.Handler()

	// The server answers; the missing credential surfaces as a 500 with
	// an explanatory body, not a startup failure.
	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(`{"message":"hi"}`))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "no model credential configured")
}

func TestRAGStatus_Disabled(t *testing.T) {
	t.Parallel()

	handler, _ := newChatServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/chat/rag-status", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var status rag.Status
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, rag.StatusDisabled, status.Status)
	assert.NotEmpty(t, status.Reason)
}

func TestHealth(t *testing.T) {
	t.Parallel()

	handler, _ := newChatServer(t)

	for _, path := range []string{"/health", "/ready"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}
}
