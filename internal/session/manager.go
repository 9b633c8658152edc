package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/thywilljoshua/study-docs/internal/apperr"
)

// DefaultMaxSessions limits concurrent sessions to prevent memory exhaustion
const DefaultMaxSessions = 100

// Manager owns the live sessions.
type Manager struct {
	mu          sync.RWMutex
	sessions    map[string]*Session
	deps        Deps
	maxSessions int
	log         *slog.Logger
}

// NewManager creates a session manager. maxSessions <= 0 uses DefaultMaxSessions.
func NewManager(deps Deps, maxSessions int) *Manager {
	if maxSessions <= 0 {
		maxSessions = DefaultMaxSessions
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	return &Manager{
		sessions:    make(map[string]*Session),
		deps:        deps,
		maxSessions: maxSessions,
		log:         deps.Logger.With("component", "sessions"),
	}
}

// Create starts a new idle session.
func (m *Manager) Create() (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.sessions) >= m.maxSessions {
		return nil, apperr.Errorf(apperr.KindBusy, "session.Create", "session limit of %d reached", m.maxSessions)
	}
	s := New(uuid.New().String(), m.deps)
	m.sessions[s.ID()] = s

	if m.deps.Metrics != nil {
		m.deps.Metrics.SessionsCreated.Inc()
		m.deps.Metrics.ActiveSessions.Set(float64(len(m.sessions)))
	}
	m.log.Info("session created", "session", shortID(s.ID()), "active", len(m.sessions))
	return s, nil
}

// Get looks a session up and marks it as accessed.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, apperr.Errorf(apperr.KindNotFound, "session.Get", "session not found: %s", id)
	}
	s.mu.Lock()
	s.lastAccess = time.Now()
	s.mu.Unlock()
	return s, nil
}

// Delete removes a session. In-flight operations of the session are discarded.
func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	if ok {
		delete(m.sessions, id)
	}
	n := len(m.sessions)
	m.mu.Unlock()

	if !ok {
		return apperr.Errorf(apperr.KindNotFound, "session.Delete", "session not found: %s", id)
	}
	s.Reset()
	if m.deps.Metrics != nil {
		m.deps.Metrics.ActiveSessions.Set(float64(n))
	}
	return nil
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// CleanupIdle evicts sessions not accessed for maxAge. Sessions with an
// operation in flight are kept.
func (m *Manager) CleanupIdle(maxAge time.Duration) int {
	cutoff := time.Now().Add(-maxAge)

	m.mu.Lock()
	var evicted []*Session
	for id, s := range m.sessions {
		last, busy := s.activity()
		if busy || last.After(cutoff) {
			continue
		}
		delete(m.sessions, id)
		evicted = append(evicted, s)
	}
	n := len(m.sessions)
	m.mu.Unlock()

	for _, s := range evicted {
		s.Reset()
	}
	if len(evicted) > 0 {
		if m.deps.Metrics != nil {
			m.deps.Metrics.SessionsEvicted.Add(float64(len(evicted)))
			m.deps.Metrics.ActiveSessions.Set(float64(n))
		}
		m.log.Info("evicted idle sessions", "count", len(evicted), "active", n)
	}
	return len(evicted)
}

// RunJanitor calls CleanupIdle every interval until ctx is done.
func (m *Manager) RunJanitor(ctx context.Context, interval, maxAge time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.CleanupIdle(maxAge)
		}
	}
}
