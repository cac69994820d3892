package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/shoptalk-demo/shoptalk/internal/conversation"
	"github.com/shoptalk-demo/shoptalk/internal/registry"
	"github.com/shoptalk-demo/shoptalk/internal/store"
	"github.com/shoptalk-demo/shoptalk/internal/toolcall"
	"github.com/shoptalk-demo/shoptalk/internal/transcript"
)

// maxChatBodyBytes limits chat request bodies.
const maxChatBodyBytes = 1024 * 1024

// apologyMessage is shown to the user when the model call fails.
// The user's message stays in the transcript so a retry keeps context.
const apologyMessage = "Sorry, I encountered an error while processing your request. Please make sure your API key is configured correctly."

// Converser runs one conversation turn. Satisfied by
// *conversation.Orchestrator.
type Converser interface {
	Converse(ctx context.Context, history []toolcall.Message) (*conversation.Turn, error)
}

// chatRequest is the body of POST /api/v1/chat.
type chatRequest struct {
	Message string `json:"message"`
}

// chatResponse is the success body of POST /api/v1/chat.
type chatResponse struct {
	Message toolcall.Message `json:"message"`
	DB      store.Snapshot   `json:"db"`
}

// messagesResponse is the body of GET /api/v1/messages.
type messagesResponse struct {
	Messages []toolcall.Message `json:"messages"`
}

// toolsResponse is the body of GET /api/v1/tools.
type toolsResponse struct {
	Tools []registry.Descriptor `json:"tools"`
}

// chatHandler handles chat, transcript, and database endpoints.
type chatHandler struct {
	converser  Converser
	transcript *transcript.Store
	store      *store.Store
	registry   *registry.Registry
	logger     *slog.Logger
}

// send handles POST /api/v1/chat: append the user message, run one
// turn, append the assistant message, and return it with a database
// snapshot.
func (h *chatHandler) send(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxChatBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid request body", h.logger)
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeError(w, http.StatusBadRequest, "missing_message", "message is required", h.logger)
		return
	}

	history := h.transcript.Append(toolcall.Message{
		Role:    toolcall.RoleUser,
		Content: req.Message,
	})

	turn, err := h.converser.Converse(r.Context(), history)
	if err != nil {
		// The user's message stays appended; only the reply is an apology.
		h.logger.Error("conversation turn failed", "error", err)
		h.transcript.Append(toolcall.Message{
			Role:    toolcall.RoleAssistant,
			Content: apologyMessage,
		})
		code := "model_unavailable"
		if errors.Is(err, conversation.ErrNoResponse) {
			code = "no_response"
		}
		writeError(w, http.StatusBadGateway, code, apologyMessage, h.logger)
		return
	}

	assistant := toolcall.Message{
		Role:      toolcall.RoleAssistant,
		Content:   turn.Content,
		ToolCalls: turn.ToolCalls,
	}
	h.transcript.Append(assistant)

	writeJSON(w, http.StatusOK, chatResponse{
		Message: assistant,
		DB:      turn.DB,
	}, h.logger)
}

// listMessages handles GET /api/v1/messages.
func (h *chatHandler) listMessages(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, messagesResponse{
		Messages: h.transcript.Messages(),
	}, h.logger)
}

// clearMessages handles DELETE /api/v1/messages.
func (h *chatHandler) clearMessages(w http.ResponseWriter, _ *http.Request) {
	h.transcript.Clear()
	w.WriteHeader(http.StatusNoContent)
}

// getDB handles GET /api/v1/db.
func (h *chatHandler) getDB(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.store.Snapshot(), h.logger)
}

// resetDB handles POST /api/v1/db/reset and returns the seed snapshot.
func (h *chatHandler) resetDB(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.store.Reset(), h.logger)
}

// listTools handles GET /api/v1/tools.
func (h *chatHandler) listTools(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, toolsResponse{
		Tools: h.registry.Tools(),
	}, h.logger)
}
