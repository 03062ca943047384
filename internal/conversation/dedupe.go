package conversation

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// TurnDeduper remembers recent turn responses by client-supplied message
// ID so a redelivered request returns the original response instead of
// advancing the conversation twice. The key is the delivery identity,
// never the message text: a user repeating the same words is a new turn.
type TurnDeduper interface {
	// Lookup returns the cached response for this delivery, if any.
	Lookup(ctx context.Context, sessionID, messageID string) (*TurnResponse, bool)
	// Remember caches the response under the delivery ID for a short TTL.
	Remember(ctx context.Context, sessionID, messageID string, resp *TurnResponse)
}

func dedupeKey(sessionID, messageID string) string {
	return "turn:" + sessionID + ":" + messageID
}

// NoopDeduper disables de-duplication.
type NoopDeduper struct{}

func (NoopDeduper) Lookup(context.Context, string, string) (*TurnResponse, bool) { return nil, false }

func (NoopDeduper) Remember(context.Context, string, string, *TurnResponse) {}

// RedisDeduper backs the cache with redis so retries across instances
// still hit.
type RedisDeduper struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisDeduper(client *redis.Client, ttl time.Duration) *RedisDeduper {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &RedisDeduper{client: client, ttl: ttl}
}

func (d *RedisDeduper) Lookup(ctx context.Context, sessionID, messageID string) (*TurnResponse, bool) {
	raw, err := d.client.Get(ctx, dedupeKey(sessionID, messageID)).Bytes()
	if err != nil {
		return nil, false
	}
	var resp TurnResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, false
	}
	return &resp, true
}

func (d *RedisDeduper) Remember(ctx context.Context, sessionID, messageID string, resp *TurnResponse) {
	raw, err := json.Marshal(resp)
	if err != nil {
		return
	}
	d.client.Set(ctx, dedupeKey(sessionID, messageID), raw, d.ttl)
}

// MemoryDeduper is the single-instance fallback when redis is not
// configured but de-duplication is still wanted.
type MemoryDeduper struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]memoryEntry
}

type memoryEntry struct {
	resp      TurnResponse
	expiresAt time.Time
}

func NewMemoryDeduper(ttl time.Duration) *MemoryDeduper {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &MemoryDeduper{ttl: ttl, entries: make(map[string]memoryEntry)}
}

func (d *MemoryDeduper) Lookup(_ context.Context, sessionID, messageID string) (*TurnResponse, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	key := dedupeKey(sessionID, messageID)
	entry, ok := d.entries[key]
	if !ok || time.Now().After(entry.expiresAt) {
		delete(d.entries, key)
		return nil, false
	}
	resp := entry.resp
	return &resp, true
}

func (d *MemoryDeduper) Remember(_ context.Context, sessionID, messageID string, resp *TurnResponse) {
	d.mu.Lock()
	defer d.mu.Unlock()

	// Opportunistic sweep keeps the map from growing unbounded.
	now := time.Now()
	for k, e := range d.entries {
		if now.After(e.expiresAt) {
			delete(d.entries, k)
		}
	}
	d.entries[dedupeKey(sessionID, messageID)] = memoryEntry{
		resp:      *resp,
		expiresAt: now.Add(d.ttl),
	}
}
