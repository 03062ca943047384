// Package router assembles the HTTP surface of the coaching service.
package router

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/mealmind/nutrition-coach/internal/conversation"
	httpmiddleware "github.com/mealmind/nutrition-coach/internal/http/middleware"
	"github.com/mealmind/nutrition-coach/internal/webchat"
	"github.com/mealmind/nutrition-coach/pkg/logging"
)

// Config holds router configuration.
type Config struct {
	Logger              *logging.Logger
	ConversationHandler *conversation.Handler
	WebchatHandler      *webchat.Handler
	MetricsHandler      http.Handler
	CORSAllowedOrigins  []string
	RateLimitPerSecond  float64
	RateLimitBurst      int
}

// New creates a chi router with all routes configured.
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	r.Get("/health", handleHealth)
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	// Conversation turns go through the rate limiter; the provider
	// quota is the scarce resource behind them.
	r.Group(func(limited chi.Router) {
		if cfg.RateLimitPerSecond > 0 {
			limited.Use(httpmiddleware.RateLimit(cfg.RateLimitPerSecond, cfg.RateLimitBurst))
		}

		if cfg.ConversationHandler != nil {
			limited.Post("/sessions", cfg.ConversationHandler.HandleStart)
			limited.Post("/sessions/{sessionID}/messages", cfg.ConversationHandler.HandleMessage)
			limited.Get("/sessions/{sessionID}/history", cfg.ConversationHandler.HandleHistory)
		}

		if cfg.WebchatHandler != nil {
			limited.Get("/webchat/ws", cfg.WebchatHandler.HandleWebSocket)
			limited.Post("/webchat/message", cfg.WebchatHandler.HandleMessage)
			limited.Get("/webchat/history", cfg.WebchatHandler.HandleHistory)
		}
	})

	return r
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
