package conversation

import (
	"sync"
	"time"

	"github.com/mealmind/nutrition-coach/internal/profile"
)

// SessionState tracks where a session is in its lifecycle.
type SessionState string

const (
	StateIdle       SessionState = "idle"
	StateActive     SessionState = "active"
	StateProcessing SessionState = "processing"
	StateEvaluated  SessionState = "evaluated"
	StateFinalizing SessionState = "finalizing"
	StateTerminal   SessionState = "terminal"
)

// Turn is one completed user/assistant exchange.
type Turn struct {
	UserText      string    `json:"user_text"`
	ProviderReply string    `json:"provider_reply"`
	Timestamp     time.Time `json:"timestamp"`
}

// maxProviderTurns caps how much history is sent to the response provider.
const maxProviderTurns = 5

// Session owns one conversation's mutable state: the profile store, the
// append-only history, and the turn counter. Turns for a session are
// processed strictly one at a time; mu serializes them.
type Session struct {
	mu sync.Mutex

	ID        string
	State     SessionState
	Store     *profile.Store
	History   []Turn
	UserTurns int
	StartedAt time.Time
	LastSeen  time.Time
}

func newSession(id string) *Session {
	now := time.Now().UTC()
	return &Session{
		ID:        id,
		State:     StateIdle,
		Store:     profile.NewStore(),
		StartedAt: now,
		LastSeen:  now,
	}
}

// appendTurn records a completed exchange. History is append-only.
func (s *Session) appendTurn(userText, reply string) {
	s.History = append(s.History, Turn{
		UserText:      userText,
		ProviderReply: reply,
		Timestamp:     time.Now().UTC(),
	})
}

// recentTurns returns at most the last n turns for provider context.
func (s *Session) recentTurns(n int) []Turn {
	if len(s.History) <= n {
		return s.History
	}
	return s.History[len(s.History)-n:]
}

// SessionStore holds live sessions in memory. Session state is
// memory-resident only; abandoning a session just drops its entry.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewSessionStore creates an empty in-memory session store.
func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: make(map[string]*Session)}
}

// Create registers a new session under the given ID.
func (st *SessionStore) Create(id string) *Session {
	sess := newSession(id)
	st.mu.Lock()
	st.sessions[id] = sess
	st.mu.Unlock()
	return sess
}

// Get returns the session for id, or nil if unknown.
func (st *SessionStore) Get(id string) *Session {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.sessions[id]
}

// Delete drops a session. There are no external resources to release.
func (st *SessionStore) Delete(id string) {
	st.mu.Lock()
	delete(st.sessions, id)
	st.mu.Unlock()
}

// PruneIdle removes sessions that have been quiet longer than maxIdle.
// Returns how many were dropped.
func (st *SessionStore) PruneIdle(maxIdle time.Duration) int {
	cutoff := time.Now().UTC().Add(-maxIdle)
	st.mu.Lock()
	defer st.mu.Unlock()

	dropped := 0
	for id, sess := range st.sessions {
		if sess.LastSeen.Before(cutoff) {
			delete(st.sessions, id)
			dropped++
		}
	}
	return dropped
}

// Len reports how many sessions are live.
func (st *SessionStore) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}
