package conversation

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mealmind/nutrition-coach/pkg/logging"
)

// Handler exposes the conversation engine over HTTP.
type Handler struct {
	engine *Engine
	logger *logging.Logger
}

func NewHandler(engine *Engine, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{engine: engine, logger: logger}
}

type messageRequest struct {
	Text string `json:"text"`
	// MessageID lets retrying clients mark a redelivery; optional.
	MessageID string `json:"message_id"`
}

type historyMessage struct {
	Role      string `json:"role"`
	Text      string `json:"text"`
	Timestamp string `json:"timestamp"`
}

// HandleStart opens a session and returns the opening message.
// POST /sessions
func (h *Handler) HandleStart(w http.ResponseWriter, r *http.Request) {
	resp, err := h.engine.StartSession(r.Context())
	if err != nil {
		h.logger.Error("failed to start session", "error", err)
		http.Error(w, "failed to start session", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

// HandleMessage processes one user turn.
// POST /sessions/{sessionID}/messages
func (h *Handler) HandleMessage(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if sessionID == "" {
		http.Error(w, "session ID required", http.StatusBadRequest)
		return
	}

	var req messageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	resp, err := h.engine.ProcessMessage(r.Context(), sessionID, req.MessageID, req.Text)
	switch {
	case errors.Is(err, ErrSessionNotFound):
		http.Error(w, "session not found", http.StatusNotFound)
		return
	case errors.Is(err, ErrSessionTerminal):
		http.Error(w, "session already completed", http.StatusConflict)
		return
	case err != nil:
		h.logger.Error("failed to process message", "session_id", sessionID, "error", err)
		http.Error(w, "failed to process message", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// HandleHistory returns the session transcript.
// GET /sessions/{sessionID}/history
func (h *Handler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if sessionID == "" {
		http.Error(w, "session ID required", http.StatusBadRequest)
		return
	}

	turns, err := h.engine.History(sessionID)
	if errors.Is(err, ErrSessionNotFound) {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}

	messages := make([]historyMessage, 0, len(turns)*2)
	for _, t := range turns {
		ts := t.Timestamp.Format(time.RFC3339)
		messages = append(messages,
			historyMessage{Role: "user", Text: t.UserText, Timestamp: ts},
			historyMessage{Role: "assistant", Text: t.ProviderReply, Timestamp: ts},
		)
	}
	writeJSON(w, http.StatusOK, map[string]any{"messages": messages})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
