package app

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/yourusername/vidstream-go/internal/domain"
)

// Registry is the process-wide table of in-flight download sessions.
// The registry owns the id-to-session mapping; each session guards its
// own mutable fields, so concurrent downloads never contend on a
// single lock here beyond the map itself.
type Registry struct {
	logger *zap.Logger

	mu       sync.RWMutex
	sessions map[string]*domain.Session
	timers   map[string]*time.Timer
}

// NewRegistry creates an empty session registry
func NewRegistry(logger *zap.Logger) *Registry {
	return &Registry{
		logger:   logger,
		sessions: make(map[string]*domain.Session),
		timers:   make(map[string]*time.Timer),
	}
}

// Create allocates a new session in the starting state for the given
// subscriber and stores it under a fresh identifier.
func (r *Registry) Create(subscriberID string) *domain.Session {
	session := domain.NewSession(subscriberID)

	r.mu.Lock()
	r.sessions[session.ID] = session
	r.mu.Unlock()

	r.logger.Info("Session created",
		zap.String("session_id", session.ID),
		zap.String("subscriber_id", subscriberID))

	return session
}

// Get retrieves a session by id
func (r *Registry) Get(id string) (*domain.Session, error) {
	r.mu.RLock()
	session, ok := r.sessions[id]
	r.mu.RUnlock()

	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return session, nil
}

// List returns summaries of all tracked sessions
func (r *Registry) List() []domain.SessionSummary {
	r.mu.RLock()
	sessions := make([]*domain.Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		sessions = append(sessions, s)
	}
	r.mu.RUnlock()

	summaries := make([]domain.SessionSummary, 0, len(sessions))
	for _, s := range sessions {
		summaries = append(summaries, s.Summary())
	}
	return summaries
}

// Count returns the number of tracked sessions
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// ScheduleRemoval removes the session after the delay elapses, unless
// it was already removed. Rescheduling replaces the pending timer. The
// delay lets subscribers observe the terminal event before cleanup.
func (r *Registry) ScheduleRemoval(id string, delay time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[id]; !ok {
		return
	}
	if t, ok := r.timers[id]; ok {
		t.Stop()
	}
	r.timers[id] = time.AfterFunc(delay, func() {
		r.Remove(id)
	})
}

// Remove deletes a session immediately and cancels any pending
// scheduled removal.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if t, ok := r.timers[id]; ok {
		t.Stop()
		delete(r.timers, id)
	}
	if _, ok := r.sessions[id]; ok {
		delete(r.sessions, id)
		r.logger.Debug("Session removed", zap.String("session_id", id))
	}
}

// Close cancels all pending removals and clears the registry. Used at
// process shutdown.
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, t := range r.timers {
		t.Stop()
		delete(r.timers, id)
	}
	r.sessions = make(map[string]*domain.Session)
}
