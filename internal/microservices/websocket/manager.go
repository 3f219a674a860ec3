package websocket

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"wsgateway/internal/shared"
)

// SessionSettings configures sessions built by the SessionManager
type SessionSettings struct {
	Timeout   time.Duration // inactivity before a session is expired
	RateLimit float64       // inbound commands per second, 0 disables the limiter
	RateBurst int
}

// SessionManager is the registry of live sessions, shared by every
// connection driver and the sweeper. Each method locks on its own; callers
// never hold the lock.
type SessionManager struct {
	sessions map[string]*Session
	mu       sync.RWMutex
	settings SessionSettings
	logger   *slog.Logger
	metrics  *Metrics
}

// constructor for SessionManager
func NewSessionManager(settings SessionSettings, logger *slog.Logger, metrics *Metrics) *SessionManager {
	if settings.Timeout <= 0 {
		settings.Timeout = DefaultSessionTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionManager{
		sessions: make(map[string]*Session),
		settings: settings,
		logger:   logger,
		metrics:  metrics,
	}
}

// Create builds a session around outbound, stores it and returns the shared handle
func (m *SessionManager) Create(outbound chan<- Frame, opts ...SessionOption) *Session {
	sess := newSession(outbound, m.settings.Timeout, m.logger, m.metrics)
	if m.settings.RateLimit > 0 {
		sess.limiter = rate.NewLimiter(rate.Limit(m.settings.RateLimit), m.settings.RateBurst)
	}
	for _, opt := range opts {
		opt(sess)
	}

	m.mu.Lock()
	m.sessions[sess.ID] = sess
	count := len(m.sessions)
	m.mu.Unlock()

	m.metrics.sessionCreated(count)
	m.logger.Info("session_created",
		"session_id", sess.ID,
		"user_id", sess.UserID,
		"remote_addr", sess.RemoteAddr,
	)
	return sess
}

// Remove deletes id from the registry; unknown ids are a no-op.
// It reports whether a session was actually removed.
func (m *SessionManager) Remove(id string) bool {
	m.mu.Lock()
	_, exists := m.sessions[id]
	delete(m.sessions, id)
	count := len(m.sessions)
	m.mu.Unlock()

	if !exists {
		return false
	}
	m.metrics.sessionRemoved(count)
	m.logger.Info("session_removed",
		"session_id", id,
	)
	return true
}

// Get returns the session registered under id
func (m *SessionManager) Get(id string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sess, ok := m.sessions[id]
	return sess, ok
}

// ForEach visits a snapshot of the registry taken under the read lock.
// Sessions created or removed during the visit may or may not be seen.
func (m *SessionManager) ForEach(visit func(*Session)) {
	m.mu.RLock()
	snapshot := make([]*Session, 0, len(m.sessions))
	for _, sess := range m.sessions {
		snapshot = append(snapshot, sess)
	}
	m.mu.RUnlock()

	for _, sess := range snapshot {
		visit(sess)
	}
}

// Count returns the number of registered sessions
func (m *SessionManager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Sweep asks every session idle at now (unix millis) to close.
// It only enqueues a close frame; the connection driver removes the entry
// once its loops wind down. Returns the number of expired sessions.
func (m *SessionManager) Sweep(now int64) int {
	expired := 0
	m.ForEach(func(sess *Session) {
		if !sess.IsExpired(now) {
			return
		}
		expired++
		m.metrics.sessionExpired()
		if err := sess.Send(CloseFrame(CloseNormal, CloseReasonIdle)); err != nil && !errors.Is(err, ErrSessionClosed) {
			m.logger.Warn("session_expire_failed",
				"session_id", sess.ID,
				"error", err.Error(),
			)
			return
		}
		m.logger.Info("session_expired",
			"session_id", sess.ID,
			"last_active_at", sess.LastActiveAt(),
		)
	})
	return expired
}

// RunSweeper calls Sweep every interval until ctx is done.
// The timestamp is captured once per tick so every session is judged against the same instant.
func (m *SessionManager) RunSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	m.logger.Info("sweeper_started",
		"interval", interval.String(),
		"timeout", m.settings.Timeout.String(),
	)
	for {
		select {
		case <-ticker.C:
			if n := m.Sweep(shared.CurrentTimestamp()); n > 0 {
				m.logger.Info("sweep_completed",
					"expired", n,
					"sessions", m.Count(),
				)
			}
		case <-ctx.Done():
			m.logger.Info("sweeper_stopped")
			return
		}
	}
}
