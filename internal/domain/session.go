package domain

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// SessionStatus represents the lifecycle state of a download session.
type SessionStatus string

const (
	StatusStarting    SessionStatus = "starting"
	StatusDownloading SessionStatus = "downloading"
	StatusCompleted   SessionStatus = "completed"
	StatusError       SessionStatus = "error"
)

// IsTerminal reports whether no further transitions are permitted.
func (s SessionStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusError
}

// Progress is the stored byte-progress snapshot of a session.
type Progress struct {
	Downloaded int64   `json:"downloaded"`
	Total      int64   `json:"total"`
	Percent    int     `json:"percent"`
	Speed      float64 `json:"speed"`
	ETA        string  `json:"eta"`
}

// Session tracks one in-flight download from acceptance to terminal
// outcome. All mutation goes through the Mark methods, which serialize
// on the session's own lock so transitions never race with reads.
type Session struct {
	ID           string
	SubscriberID string
	StartedAt    time.Time

	mu       sync.Mutex
	status   SessionStatus
	progress Progress
	errMsg   string
}

// SessionSummary is the read-only view exposed by List and Get.
type SessionSummary struct {
	ID           string        `json:"id"`
	SubscriberID string        `json:"subscriberId"`
	Status       SessionStatus `json:"status"`
	Progress     Progress      `json:"progress"`
	Error        string        `json:"error,omitempty"`
	StartedAt    time.Time     `json:"startedAt"`
}

// NewSession creates a session in the starting state with a fresh
// collision-resistant identifier.
func NewSession(subscriberID string) *Session {
	return &Session{
		ID:           uuid.New().String(),
		SubscriberID: subscriberID,
		StartedAt:    time.Now(),
		status:       StatusStarting,
	}
}

// Status returns the current lifecycle state.
func (s *Session) Status() SessionStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Summary returns a consistent snapshot of the session.
func (s *Session) Summary() SessionSummary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return SessionSummary{
		ID:           s.ID,
		SubscriberID: s.SubscriberID,
		Status:       s.status,
		Progress:     s.progress,
		Error:        s.errMsg,
		StartedAt:    s.StartedAt,
	}
}

// MarkDownloading records a progress sample and moves the session to
// downloading. Returns false without touching state once the session
// is terminal, so duplicate callbacks from an already-finished stream
// are harmless.
func (s *Session) MarkDownloading(p Progress) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status.IsTerminal() {
		return false
	}
	s.status = StatusDownloading
	s.progress = p
	return true
}

// MarkCompleted moves the session to its successful terminal state.
// Idempotent no-op when already terminal.
func (s *Session) MarkCompleted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status.IsTerminal() {
		return false
	}
	s.status = StatusCompleted
	return true
}

// MarkFailed moves the session to the error terminal state with the
// failure detail. Idempotent no-op when already terminal.
func (s *Session) MarkFailed(errMsg string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status.IsTerminal() {
		return false
	}
	s.status = StatusError
	s.errMsg = errMsg
	return true
}
