package conversation

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/mealmind/nutrition-coach/internal/nutrition"
	"github.com/mealmind/nutrition-coach/internal/observability/metrics"
	"github.com/mealmind/nutrition-coach/internal/plan"
	"github.com/mealmind/nutrition-coach/internal/profile"
	"github.com/mealmind/nutrition-coach/internal/suggest"
	"github.com/mealmind/nutrition-coach/pkg/logging"
)

var (
	ErrSessionNotFound = errors.New("conversation: session not found")
	ErrSessionTerminal = errors.New("conversation: session already completed")
)

const openingMessage = "Hi! I'm here to help you set up a meal plan that actually fits your life. To get started, what brings you here today?"

const emptyReprompt = "I didn't catch that. Could you tell me a bit more?"

const wrapUpClosing = "Thanks, that gives me plenty to work with. I'm putting your plan together now."

// TurnResponse is the outcome of one processed user turn.
type TurnResponse struct {
	SessionID   string   `json:"session_id"`
	Reply       string   `json:"reply"`
	Suggestions []string `json:"suggestions,omitempty"`
	Done        bool     `json:"done"`
	PlanStarted bool     `json:"plan_started,omitempty"`
	Suppressed  bool     `json:"suppressed,omitempty"`
}

// StartResponse is returned when a session is opened.
type StartResponse struct {
	SessionID string `json:"session_id"`
	Reply     string `json:"reply"`
}

// Engine drives the profile-building dialogue: it calls the response
// provider, runs extraction over each exchange, decides when enough is
// known, and hands the finished profile to plan generation.
type Engine struct {
	logger   *logging.Logger
	llm      LLMClient
	sessions *SessionStore
	deduper  TurnDeduper
	planner  plan.Trigger
	model    string
	timeout  time.Duration
	tracer   trace.Tracer
}

// EngineOptions configures an Engine. LLM may be nil; every turn is then
// answered by the deterministic fallback responder.
type EngineOptions struct {
	Logger          *logging.Logger
	LLM             LLMClient
	Deduper         TurnDeduper
	Planner         plan.Trigger
	ModelID         string
	ProviderTimeout time.Duration
}

func NewEngine(opts EngineOptions) *Engine {
	if opts.Logger == nil {
		panic("conversation: Logger is required")
	}
	if opts.Planner == nil {
		panic("conversation: Planner is required")
	}
	deduper := opts.Deduper
	if deduper == nil {
		deduper = NoopDeduper{}
	}
	timeout := opts.ProviderTimeout
	if timeout <= 0 {
		timeout = 12 * time.Second
	}
	return &Engine{
		logger:   opts.Logger,
		llm:      opts.LLM,
		sessions: NewSessionStore(),
		deduper:  deduper,
		planner:  opts.Planner,
		model:    opts.ModelID,
		timeout:  timeout,
		tracer:   otel.Tracer("nutrition-coach/conversation"),
	}
}

// Sessions exposes the session store for history reads and idle pruning.
func (e *Engine) Sessions() *SessionStore {
	return e.sessions
}

// StartSession opens a new session and returns the opening message.
// The opening message is not run through extraction and does not count
// as a turn.
func (e *Engine) StartSession(ctx context.Context) (*StartResponse, error) {
	_, span := e.tracer.Start(ctx, "engine.StartSession")
	defer span.End()

	sess := e.sessions.Create(uuid.NewString())
	sess.State = StateActive
	span.SetAttributes(attribute.String("session.id", sess.ID))

	e.logger.Info("session started", "session_id", sess.ID)
	return &StartResponse{SessionID: sess.ID, Reply: openingMessage}, nil
}

// History returns a copy of the session's recorded turns.
func (e *Engine) History(sessionID string) ([]Turn, error) {
	sess := e.sessions.Get(sessionID)
	if sess == nil {
		return nil, ErrSessionNotFound
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()

	out := make([]Turn, len(sess.History))
	copy(out, sess.History)
	return out, nil
}

// Profile returns a snapshot of the session's profile.
func (e *Engine) Profile(sessionID string) (*profile.Profile, error) {
	sess := e.sessions.Get(sessionID)
	if sess == nil {
		return nil, ErrSessionNotFound
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.Store.Get().Clone(), nil
}

// ProcessMessage handles one user turn end to end. Turns within a
// session are strictly sequential; the provider is called at most once
// per turn and never retried. messageID identifies the delivery for
// idempotent retries; clients that don't retry may pass "".
func (e *Engine) ProcessMessage(ctx context.Context, sessionID, messageID, userText string) (*TurnResponse, error) {
	ctx, span := e.tracer.Start(ctx, "engine.ProcessMessage",
		trace.WithAttributes(attribute.String("session.id", sessionID)))
	defer span.End()

	started := time.Now()

	sess := e.sessions.Get(sessionID)
	if sess == nil {
		return nil, ErrSessionNotFound
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.State == StateTerminal {
		return nil, ErrSessionTerminal
	}
	sess.LastSeen = time.Now().UTC()

	// Empty input never mutates the session. Re-prompt and wait.
	if strings.TrimSpace(userText) == "" {
		metrics.TurnsTotal.WithLabelValues("reprompt").Inc()
		return &TurnResponse{SessionID: sess.ID, Reply: emptyReprompt}, nil
	}

	if messageID != "" {
		if cached, ok := e.deduper.Lookup(ctx, sess.ID, messageID); ok {
			e.logger.Info("redelivered turn served from cache",
				"session_id", sess.ID, "message_id", messageID)
			return cached, nil
		}
	}

	sess.State = StateProcessing

	reply, usedFallback := e.respond(ctx, sess, userText)
	if usedFallback {
		metrics.ProviderFallbackTotal.Inc()
	}

	profile.Extract(userText, reply, sess.Store)
	sess.appendTurn(userText, reply)
	sess.UserTurns++

	sess.State = StateEvaluated
	action := profile.Evaluate(sess.Store.Get(), sess.UserTurns)
	span.SetAttributes(
		attribute.String("turn.action", string(action)),
		attribute.Int("turn.count", sess.UserTurns),
		attribute.Bool("turn.fallback", usedFallback),
	)

	var resp *TurnResponse
	switch action {
	case profile.ActionContinue:
		sess.State = StateActive
		resp = e.continueTurn(sess, reply)
	default:
		sess.State = StateFinalizing
		resp = e.finalizeTurn(ctx, sess, reply, action)
		sess.State = StateTerminal
	}

	if messageID != "" {
		e.deduper.Remember(ctx, sess.ID, messageID, resp)
	}
	metrics.TurnsTotal.WithLabelValues(strings.ToLower(string(action))).Inc()
	metrics.TurnLatency.Observe(time.Since(started).Seconds())

	e.logger.Info("turn processed",
		"session_id", sess.ID,
		"turn", sess.UserTurns,
		"action", string(action),
		"fallback", usedFallback,
		"suppressed", resp.Suppressed,
	)
	return resp, nil
}

// respond obtains the assistant reply for a turn. Provider errors,
// timeouts, and blank completions all fall back to the deterministic
// keyword responder; the turn still advances.
func (e *Engine) respond(ctx context.Context, sess *Session, userText string) (reply string, usedFallback bool) {
	if e.llm == nil {
		return FallbackReply(userText), true
	}

	callCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	messages := make([]ChatMessage, 0, maxProviderTurns*2+1)
	for _, turn := range sess.recentTurns(maxProviderTurns) {
		messages = append(messages,
			ChatMessage{Role: ChatRoleUser, Content: turn.UserText},
			ChatMessage{Role: ChatRoleAssistant, Content: turn.ProviderReply},
		)
	}
	messages = append(messages, ChatMessage{Role: ChatRoleUser, Content: userText})

	out, err := e.llm.Complete(callCtx, LLMRequest{
		Model:       e.model,
		System:      []string{buildSystemPrompt(sess.Store.Get(), sess.Store.Needed())},
		Messages:    messages,
		MaxTokens:   512,
		Temperature: 0.4,
	})
	if err != nil {
		e.logger.Warn("provider call failed, using fallback",
			"session_id", sess.ID, "error", err)
		return FallbackReply(userText), true
	}
	if strings.TrimSpace(out.Text) == "" {
		e.logger.Warn("provider returned empty reply, using fallback",
			"session_id", sess.ID)
		return FallbackReply(userText), true
	}
	return out.Text, false
}

func (e *Engine) continueTurn(sess *Session, reply string) *TurnResponse {
	guarded := GuardReply(reply, sess.Store.Get().HideNumbers)
	if guarded.Suppressed {
		metrics.RepliesSuppressedTotal.Inc()
	}

	history := make([]suggest.Exchange, len(sess.History))
	for i, turn := range sess.History {
		history[i] = suggest.Exchange{UserText: turn.UserText, ProviderReply: turn.ProviderReply}
	}
	suggestions := suggest.Suggest(history, sess.Store.Needed(), sess.UserTurns)
	suggestions = GuardSuggestions(suggestions, sess.Store.Get().HideNumbers)

	return &TurnResponse{
		SessionID:   sess.ID,
		Reply:       guarded.Text,
		Suggestions: suggestions,
		Suppressed:  guarded.Suppressed,
	}
}

// finalizeTurn derives nutrition targets, fires the plan hand-off, and
// closes the session. The full numeric profile goes downstream even
// when numbers are hidden from the user-visible text.
func (e *Engine) finalizeTurn(ctx context.Context, sess *Session, reply string, action profile.Action) *TurnResponse {
	p := sess.Store.Get()
	targets := nutrition.Derive(p)
	nutrition.Apply(p, targets)

	if action == profile.ActionWrapUp {
		reply = wrapUpClosing
	}
	guarded := GuardReply(reply, p.HideNumbers)
	if guarded.Suppressed {
		metrics.RepliesSuppressedTotal.Inc()
	}

	if err := e.planner.BeginPlan(ctx, sess.ID, p.Clone()); err != nil {
		e.logger.Error("plan hand-off failed", "session_id", sess.ID, "error", err)
	}
	metrics.SessionsFinalizedTotal.Inc()

	e.logger.Info("session finalized",
		"session_id", sess.ID,
		"turns", sess.UserTurns,
		"target_calories", targets.TargetCalories,
		"hide_numbers", p.HideNumbers,
	)

	return &TurnResponse{
		SessionID:   sess.ID,
		Reply:       guarded.Text,
		Done:        true,
		PlanStarted: true,
		Suppressed:  guarded.Suppressed,
	}
}
