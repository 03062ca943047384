package router

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mealmind/nutrition-coach/internal/conversation"
	"github.com/mealmind/nutrition-coach/internal/observability/metrics"
	"github.com/mealmind/nutrition-coach/internal/plan"
	"github.com/mealmind/nutrition-coach/internal/webchat"
	"github.com/mealmind/nutrition-coach/pkg/logging"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	logger := logging.New("error")
	engine := conversation.NewEngine(conversation.EngineOptions{
		Logger:  logger,
		Planner: &plan.LogTrigger{Logger: logger},
	})
	return New(&Config{
		Logger:              logger,
		ConversationHandler: conversation.NewHandler(engine, logger),
		WebchatHandler:      webchat.NewHandler(engine, logger),
		MetricsHandler:      metrics.Handler(),
		CORSAllowedOrigins:  []string{"*"},
	})
}

func TestHealthEndpoint(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestRouter(t).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
}

func TestMetricsEndpoint(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestRouter(t).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSessionRoutesAreWired(t *testing.T) {
	r := newTestRouter(t)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/sessions", strings.NewReader("{}")))
	require.Equal(t, http.StatusCreated, rec.Code)

	var start conversation.StartResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &start))

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/sessions/"+start.SessionID+"/messages",
		strings.NewReader(`{"text":"hello"}`)))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/sessions/"+start.SessionID+"/history", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestWebchatFallbackRouteIsWired(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestRouter(t).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/webchat/message",
		strings.NewReader(`{"text":"hi"}`)))
	assert.Equal(t, http.StatusCreated, rec.Code, "no session id starts a new session")
}

func TestUnknownRouteReturns404(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestRouter(t).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
