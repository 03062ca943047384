// Package plan hands a finished profile off to plan generation.
// Generation itself happens out of band; the conversation engine only
// needs to fire the hand-off without blocking the turn.
package plan

import (
	"context"
	"sync"

	"github.com/mealmind/nutrition-coach/internal/profile"
	"github.com/mealmind/nutrition-coach/pkg/logging"
)

// Trigger begins plan generation for a completed profile. BeginPlan
// must not block on downstream work.
type Trigger interface {
	BeginPlan(ctx context.Context, sessionID string, p *profile.Profile) error
}

// LogTrigger records the hand-off and does nothing else. Used when no
// plan backend is configured.
type LogTrigger struct {
	Logger *logging.Logger
}

func (t *LogTrigger) BeginPlan(_ context.Context, sessionID string, p *profile.Profile) error {
	t.Logger.Info("plan generation triggered",
		"session_id", sessionID,
		"target_calories", p.TargetCalories,
		"hide_numbers", p.HideNumbers,
	)
	return nil
}

// planRequest is one queued hand-off.
type planRequest struct {
	sessionID string
	profile   *profile.Profile
}

// AsyncTrigger queues hand-offs on a buffered channel and drains them
// on a single background worker. If the buffer is full the request is
// dropped and logged; a turn never waits on plan generation.
type AsyncTrigger struct {
	logger *logging.Logger
	sink   Trigger
	queue  chan planRequest

	stopOnce sync.Once
	done     chan struct{}
}

// NewAsyncTrigger starts the worker. sink receives each dequeued
// request; pass a LogTrigger when there is no real backend.
func NewAsyncTrigger(logger *logging.Logger, sink Trigger, buffer int) *AsyncTrigger {
	if buffer <= 0 {
		buffer = 64
	}
	t := &AsyncTrigger{
		logger: logger,
		sink:   sink,
		queue:  make(chan planRequest, buffer),
		done:   make(chan struct{}),
	}
	go t.run()
	return t
}

func (t *AsyncTrigger) run() {
	defer close(t.done)
	for req := range t.queue {
		if err := t.sink.BeginPlan(context.Background(), req.sessionID, req.profile); err != nil {
			t.logger.Error("plan hand-off failed", "session_id", req.sessionID, "error", err)
		}
	}
}

func (t *AsyncTrigger) BeginPlan(_ context.Context, sessionID string, p *profile.Profile) error {
	select {
	case t.queue <- planRequest{sessionID: sessionID, profile: p.Clone()}:
	default:
		t.logger.Warn("plan queue full, dropping hand-off", "session_id", sessionID)
	}
	return nil
}

// Stop closes the queue and waits for queued hand-offs to drain.
func (t *AsyncTrigger) Stop() {
	t.stopOnce.Do(func() {
		close(t.queue)
		<-t.done
	})
}
