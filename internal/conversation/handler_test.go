package conversation

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mealmind/nutrition-coach/pkg/logging"
)

func newTestServer(t *testing.T) (*httptest.Server, *Engine) {
	t.Helper()
	engine := newTestEngine(t, nil, nil)
	h := NewHandler(engine, logging.New("error"))

	r := chi.NewRouter()
	r.Post("/sessions", h.HandleStart)
	r.Post("/sessions/{sessionID}/messages", h.HandleMessage)
	r.Get("/sessions/{sessionID}/history", h.HandleHistory)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, engine
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(raw))
	require.NoError(t, err)
	return resp
}

func TestHandleStartReturnsOpeningMessage(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := postJSON(t, srv.URL+"/sessions", map[string]any{})
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var start StartResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&start))
	assert.NotEmpty(t, start.SessionID)
	assert.Equal(t, openingMessage, start.Reply)
}

func TestHandleMessageFlow(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := postJSON(t, srv.URL+"/sessions", map[string]any{})
	var start StartResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&start))
	resp.Body.Close()

	resp = postJSON(t, fmt.Sprintf("%s/sessions/%s/messages", srv.URL, start.SessionID),
		map[string]string{"text": "I want to lose some weight"})
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var turn TurnResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&turn))
	assert.Equal(t, start.SessionID, turn.SessionID)
	assert.NotEmpty(t, turn.Reply)
	assert.False(t, turn.Done)
}

func TestHandleMessageUnknownSession(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := postJSON(t, srv.URL+"/sessions/does-not-exist/messages",
		map[string]string{"text": "hello"})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHandleMessageTerminalSessionConflicts(t *testing.T) {
	srv, engine := newTestServer(t)

	start, err := engine.StartSession(t.Context())
	require.NoError(t, err)

	// Drive the session to completion: goal known, then past the turn
	// threshold.
	for i := 0; i < 6; i++ {
		_, err := engine.ProcessMessage(t.Context(), start.SessionID, "", "I want to lose weight")
		require.NoError(t, err)
	}

	resp := postJSON(t, fmt.Sprintf("%s/sessions/%s/messages", srv.URL, start.SessionID),
		map[string]string{"text": "anything else?"})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestHandleMessageBadBody(t *testing.T) {
	srv, engine := newTestServer(t)
	start, err := engine.StartSession(t.Context())
	require.NoError(t, err)

	resp, err := http.Post(fmt.Sprintf("%s/sessions/%s/messages", srv.URL, start.SessionID),
		"application/json", bytes.NewReader([]byte("{not json")))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHandleHistory(t *testing.T) {
	srv, engine := newTestServer(t)
	start, err := engine.StartSession(t.Context())
	require.NoError(t, err)
	_, err = engine.ProcessMessage(t.Context(), start.SessionID, "", "hello there")
	require.NoError(t, err)

	resp, err := http.Get(fmt.Sprintf("%s/sessions/%s/history", srv.URL, start.SessionID))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Messages []historyMessage `json:"messages"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Len(t, body.Messages, 2)
	assert.Equal(t, "user", body.Messages[0].Role)
	assert.Equal(t, "hello there", body.Messages[0].Text)
	assert.Equal(t, "assistant", body.Messages[1].Role)
}

func TestHandleHistoryUnknownSession(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/sessions/nope/history")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
