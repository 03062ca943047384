package webchat

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/websocket"

	"github.com/mealmind/nutrition-coach/internal/conversation"
	"github.com/mealmind/nutrition-coach/internal/events"
	"github.com/mealmind/nutrition-coach/internal/plan"
	"github.com/mealmind/nutrition-coach/pkg/logging"
)

func newTestHandler(t *testing.T) (*Handler, *conversation.Engine) {
	t.Helper()
	logger := logging.New("error")
	engine := conversation.NewEngine(conversation.EngineOptions{
		Logger:  logger,
		Planner: &plan.LogTrigger{Logger: logger},
	})
	return NewHandler(engine, logger), engine
}

func TestHandleMessageStartsSessionWithoutID(t *testing.T) {
	h, _ := newTestHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/webchat/message", strings.NewReader(`{"text":"hi"}`))
	rec := httptest.NewRecorder()
	h.HandleMessage(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	var start conversation.StartResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &start))
	assert.NotEmpty(t, start.SessionID)
	assert.NotEmpty(t, start.Reply)
}

func TestHandleMessageProcessesTurn(t *testing.T) {
	h, engine := newTestHandler(t)
	start, err := engine.StartSession(t.Context())
	require.NoError(t, err)

	body := `{"session_id":"` + start.SessionID + `","text":"I want to lose some weight"}`
	req := httptest.NewRequest(http.MethodPost, "/webchat/message", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.HandleMessage(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var turn conversation.TurnResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &turn))
	assert.NotEmpty(t, turn.Reply)
}

func TestHandleMessageUnknownSession(t *testing.T) {
	h, _ := newTestHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/webchat/message",
		strings.NewReader(`{"session_id":"nope","text":"hi"}`))
	rec := httptest.NewRecorder()
	h.HandleMessage(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleHistoryRequiresSessionParam(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := httptest.NewRecorder()
	h.HandleHistory(rec, httptest.NewRequest(http.MethodGet, "/webchat/history", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWebSocketTurnEmitsEventFrames(t *testing.T) {
	h, engine := newTestHandler(t)
	start, err := engine.StartSession(t.Context())
	require.NoError(t, err)

	srv := httptest.NewServer(http.HandlerFunc(h.HandleWebSocket))
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "?session=" + start.SessionID
	conn, err := websocket.Dial(wsURL, "", srv.URL)
	require.NoError(t, err)
	defer conn.Close()

	// Session frame arrives first on reconnect.
	var frame OutboundFrame
	require.NoError(t, websocket.JSON.Receive(conn, &frame))
	assert.Equal(t, "session", frame.Type)
	assert.Equal(t, start.SessionID, frame.SessionID)

	// Ping keeps the connection alive.
	require.NoError(t, websocket.JSON.Send(conn, InboundMessage{Type: "ping"}))
	require.NoError(t, websocket.JSON.Receive(conn, &frame))
	assert.Equal(t, "pong", frame.Type)

	// A turn produces a message frame.
	require.NoError(t, websocket.JSON.Send(conn, InboundMessage{Type: "message", Text: "hello"}))
	require.NoError(t, websocket.JSON.Receive(conn, &frame))
	assert.Equal(t, events.TypeMessage, frame.Type)
	assert.Equal(t, events.SenderAssistant, frame.Sender)
	assert.NotEmpty(t, frame.Text)
}
