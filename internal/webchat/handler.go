// Package webchat serves the browser chat widget over WebSocket with an
// HTTP fallback for environments that block socket upgrades.
package webchat

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"golang.org/x/net/websocket"

	"github.com/mealmind/nutrition-coach/internal/conversation"
	"github.com/mealmind/nutrition-coach/internal/events"
	"github.com/mealmind/nutrition-coach/pkg/logging"
)

// Handler manages webchat connections and relays turns to the engine.
type Handler struct {
	engine *conversation.Engine
	logger *logging.Logger

	mu    sync.RWMutex
	conns map[string]*wsConn // sessionID -> active connection
}

type wsConn struct {
	conn *websocket.Conn
	done chan struct{}
}

// InboundMessage is what the widget sends. MessageID is optional and
// marks redeliveries for idempotent handling.
type InboundMessage struct {
	Type      string `json:"type"` // "message", "ping"
	SessionID string `json:"session_id"`
	MessageID string `json:"message_id"`
	Text      string `json:"text"`
}

// OutboundFrame wraps every event pushed to the widget.
type OutboundFrame struct {
	Type      string           `json:"type"`
	Sender    string           `json:"sender,omitempty"`
	Text      string           `json:"text,omitempty"`
	SessionID string           `json:"session_id,omitempty"`
	Options   []string         `json:"options,omitempty"`
	Messages  []historyMessage `json:"messages,omitempty"`
}

type historyMessage struct {
	Role      string `json:"role"`
	Text      string `json:"text"`
	Timestamp string `json:"timestamp"`
}

func NewHandler(engine *conversation.Engine, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		engine: engine,
		logger: logger,
		conns:  make(map[string]*wsConn),
	}
}

// HandleWebSocket upgrades to WebSocket and handles real-time messaging.
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	websocket.Handler(func(conn *websocket.Conn) {
		h.serveWS(conn, r)
	}).ServeHTTP(w, r)
}

func (h *Handler) serveWS(conn *websocket.Conn, r *http.Request) {
	sessionID := r.URL.Query().Get("session")
	if sessionID == "" {
		start, err := h.engine.StartSession(r.Context())
		if err != nil {
			_ = websocket.JSON.Send(conn, OutboundFrame{Type: events.TypeError, Text: "could not start session"})
			return
		}
		sessionID = start.SessionID
		_ = websocket.JSON.Send(conn, OutboundFrame{Type: "session", SessionID: sessionID})
		_ = websocket.JSON.Send(conn, OutboundFrame{
			Type:   events.TypeMessage,
			Sender: events.SenderAssistant,
			Text:   start.Reply,
		})
	} else {
		_ = websocket.JSON.Send(conn, OutboundFrame{Type: "session", SessionID: sessionID})
		if turns, err := h.engine.History(sessionID); err == nil && len(turns) > 0 {
			_ = websocket.JSON.Send(conn, OutboundFrame{Type: "history", Messages: flattenHistory(turns)})
		}
	}

	wsc := &wsConn{conn: conn, done: make(chan struct{})}
	h.mu.Lock()
	h.conns[sessionID] = wsc
	h.mu.Unlock()
	defer func() {
		h.mu.Lock()
		if h.conns[sessionID] == wsc {
			delete(h.conns, sessionID)
		}
		h.mu.Unlock()
		close(wsc.done)
	}()

	h.logger.Info("webchat: connection opened", "session_id", sessionID)

	for {
		var msg InboundMessage
		if err := websocket.JSON.Receive(conn, &msg); err != nil {
			h.logger.Debug("webchat: connection closed", "session_id", sessionID, "error", err)
			return
		}

		if msg.Type == "ping" {
			_ = websocket.JSON.Send(conn, OutboundFrame{Type: "pong"})
			continue
		}
		if msg.Type != "message" {
			continue
		}

		h.processTurn(r.Context(), sessionID, msg.MessageID, msg.Text)
	}
}

// processTurn runs one turn and pushes the resulting event frames.
func (h *Handler) processTurn(ctx context.Context, sessionID, messageID, text string) {
	resp, err := h.engine.ProcessMessage(ctx, sessionID, messageID, text)
	if err != nil {
		reason := "Sorry, something went wrong. Please try again."
		if errors.Is(err, conversation.ErrSessionNotFound) {
			reason = "This session has expired. Please refresh to start over."
		} else if errors.Is(err, conversation.ErrSessionTerminal) {
			reason = "This conversation is complete. Your plan is on its way."
		}
		h.sendTo(sessionID, OutboundFrame{Type: events.TypeError, Text: reason})
		return
	}

	h.sendTo(sessionID, OutboundFrame{
		Type:   events.TypeMessage,
		Sender: events.SenderAssistant,
		Text:   resp.Reply,
	})
	if len(resp.Suggestions) > 0 {
		h.sendTo(sessionID, OutboundFrame{Type: events.TypeSuggestions, Options: resp.Suggestions})
	}
	if resp.PlanStarted {
		h.sendTo(sessionID, OutboundFrame{Type: events.TypePlanStarted, SessionID: sessionID})
	}
	if resp.Done {
		h.sendTo(sessionID, OutboundFrame{Type: events.TypeDone})
	}
}

func (h *Handler) sendTo(sessionID string, frame OutboundFrame) {
	h.mu.RLock()
	wsc, ok := h.conns[sessionID]
	h.mu.RUnlock()
	if !ok {
		return
	}
	_ = websocket.JSON.Send(wsc.conn, frame)
}

// HandleMessage is the HTTP fallback for sending messages.
// POST /webchat/message
func (h *Handler) HandleMessage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SessionID string `json:"session_id"`
		MessageID string `json:"message_id"`
		Text      string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.SessionID == "" {
		start, err := h.engine.StartSession(r.Context())
		if err != nil {
			http.Error(w, "could not start session", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusCreated, start)
		return
	}

	resp, err := h.engine.ProcessMessage(r.Context(), req.SessionID, req.MessageID, req.Text)
	switch {
	case errors.Is(err, conversation.ErrSessionNotFound):
		http.Error(w, "session not found", http.StatusNotFound)
		return
	case errors.Is(err, conversation.ErrSessionTerminal):
		http.Error(w, "session already completed", http.StatusConflict)
		return
	case err != nil:
		h.logger.Error("webchat: failed to process message", "error", err, "session_id", req.SessionID)
		http.Error(w, "failed to process message", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// HandleHistory returns chat history for a session.
// GET /webchat/history?session=...
func (h *Handler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session")
	if sessionID == "" {
		http.Error(w, "session parameter required", http.StatusBadRequest)
		return
	}

	turns, err := h.engine.History(sessionID)
	if errors.Is(err, conversation.ErrSessionNotFound) {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"messages": flattenHistory(turns)})
}

func flattenHistory(turns []conversation.Turn) []historyMessage {
	out := make([]historyMessage, 0, len(turns)*2)
	for _, t := range turns {
		ts := t.Timestamp.Format(time.RFC3339)
		out = append(out,
			historyMessage{Role: "user", Text: t.UserText, Timestamp: ts},
			historyMessage{Role: "assistant", Text: t.ProviderReply, Timestamp: ts},
		)
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
