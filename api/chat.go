package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/vitaldesk/vitaldesk/internal/agent/chat"
	"github.com/vitaldesk/vitaldesk/internal/log"
	"github.com/vitaldesk/vitaldesk/internal/rag"
)

// ChatHandler serves the chat exchange and retrieval status endpoints.
type ChatHandler struct {
	assistant *chat.Assistant
	reporter  *rag.Reporter
	logger    log.Logger
}

// NewChatHandler creates a chat handler.
func NewChatHandler(assistant *chat.Assistant, reporter *rag.Reporter, logger log.Logger) *ChatHandler {
	return &ChatHandler{
		assistant: assistant,
		reporter:  reporter,
		logger:    logger,
	}
}

// RegisterRoutes registers chat endpoints on the mux.
func (h *ChatHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/chat", h.handleChat)
	mux.HandleFunc("GET /api/chat/rag-status", h.handleRAGStatus)
}

// chatRequest is the POST /api/chat request body.
type chatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"sessionId,omitempty"`
}

// chatResponse is the POST /api/chat response envelope.
type chatResponse struct {
	Response      string               `json:"response"`
	ToolsExecuted []chat.ToolExecution `json:"toolsExecuted"`
	RAGUsed       bool                 `json:"ragUsed"`
	Citations     []rag.Citation       `json:"citations"`
	SessionID     string               `json:"sessionId"`
}

func (h *ChatHandler) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if req.Message == "" {
		writeError(w, http.StatusBadRequest, "message is required", "")
		return
	}

	result, err := h.assistant.Respond(r.Context(), req.SessionID, req.Message)
	if err != nil {
		h.writeChatError(w, err)
		return
	}

	// Empty slices serialize as [], not null.
	toolsExecuted := result.ToolsExecuted
	if toolsExecuted == nil {
		toolsExecuted = []chat.ToolExecution{}
	}
	citations := result.Citations
	if citations == nil {
		citations = []rag.Citation{}
	}

	writeJSON(w, http.StatusOK, chatResponse{
		Response:      result.Response,
		ToolsExecuted: toolsExecuted,
		RAGUsed:       result.RAGUsed,
		Citations:     citations,
		SessionID:     result.SessionID,
	})
}

// writeChatError maps orchestrator errors onto HTTP statuses. Provider
// statuses pass through so the browser client can distinguish a bad key
// from throttling.
func (h *ChatHandler) writeChatError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, chat.ErrEmptyMessage):
		writeError(w, http.StatusBadRequest, "message is required", "")
	case errors.Is(err, chat.ErrModelNotConfigured):
		writeError(w, http.StatusInternalServerError, "no model credential configured",
			"set the API key for the configured provider and restart")
	case errors.Is(err, chat.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, "model provider rejected credentials", err.Error())
	case errors.Is(err, chat.ErrRateLimited):
		writeError(w, http.StatusTooManyRequests, "model provider rate limit exceeded", err.Error())
	case errors.Is(err, chat.ErrBadRequest):
		writeError(w, http.StatusBadRequest, "model provider rejected request", err.Error())
	default:
		h.logger.Error("chat exchange failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to process chat message", err.Error())
	}
}

func (h *ChatHandler) handleRAGStatus(w http.ResponseWriter, r *http.Request) {
	status := h.reporter.Report(r.Context())
	if status.Status == rag.StatusError {
		writeJSON(w, http.StatusInternalServerError, status)
		return
	}
	writeJSON(w, http.StatusOK, status)
}
