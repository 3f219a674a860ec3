package websocket

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"wsgateway/internal/shared"
)

// Session is the server-side handle of one live connection.
// Any goroutine holding it may enqueue frames; only the connection's send
// loop drains them.
type Session struct {
	ID          string // unique session ID = key in the registry
	UserID      string // authenticated user (JWT claims), empty when auth is off
	RemoteAddr  string
	ConnectedAt time.Time

	outbound   chan<- Frame  // bounded FIFO drained by the send loop
	detached   chan struct{} // closed once the send loop is gone
	detachOnce sync.Once

	mu           sync.RWMutex // guards lastActiveAt: receive loop writes, sweeper reads
	lastActiveAt int64        // unix millis
	timeout      int64        // millis of silence before the session counts as expired

	dropped atomic.Uint64
	limiter *rate.Limiter // nil when rate limiting is disabled

	logger  *slog.Logger
	metrics *Metrics
}

// SessionOption customizes a session at creation time
type SessionOption func(*Session)

// WithUserID tags the session with an authenticated user
func WithUserID(userID string) SessionOption {
	return func(s *Session) { s.UserID = userID }
}

// WithRemoteAddr records the peer address for logging
func WithRemoteAddr(addr string) SessionOption {
	return func(s *Session) { s.RemoteAddr = addr }
}

func newSession(outbound chan<- Frame, timeout time.Duration, logger *slog.Logger, metrics *Metrics) *Session {
	return &Session{
		ID:           shared.NewID(),
		ConnectedAt:  time.Now(),
		outbound:     outbound,
		detached:     make(chan struct{}),
		lastActiveAt: shared.CurrentTimestamp(),
		timeout:      timeout.Milliseconds(),
		logger:       logger,
		metrics:      metrics,
	}
}

// Send enqueues f without blocking.
// A full queue sheds f: the drop is logged and counted and Send returns nil.
// Once the send loop has exited Send returns ErrSessionClosed.
func (s *Session) Send(f Frame) error {
	select {
	case <-s.detached:
		return ErrSessionClosed
	default:
	}

	select {
	case s.outbound <- f:
		return nil
	default:
		dropped := s.dropped.Add(1)
		s.logger.Warn("session_outbound_saturated",
			"session_id", s.ID,
			"queued", len(s.outbound),
			"dropped_total", dropped,
			"frame_kind", f.Kind.String(),
		)
		s.metrics.outboundDropped()
		return nil
	}
}

// SendText enqueues a plain text frame
func (s *Session) SendText(text string) error {
	return s.Send(TextFrame(text))
}

// SendResponse serializes resp and enqueues it as a text frame.
// An encoding failure only fails this call.
func (s *Session) SendResponse(resp *Response) error {
	data, err := resp.ToJSON()
	if err != nil {
		s.logger.Error("response_encode_failed",
			"session_id", s.ID,
			"error", err.Error(),
		)
		return err
	}
	return s.Send(Frame{Kind: FrameText, Payload: data})
}

// UpdateActiveTime marks inbound activity. Outbound traffic never counts.
func (s *Session) UpdateActiveTime() {
	s.mu.Lock()
	s.lastActiveAt = shared.CurrentTimestamp()
	s.mu.Unlock()
}

// LastActiveAt returns the last inbound activity in unix millis
func (s *Session) LastActiveAt() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastActiveAt
}

// IsExpired reports whether now (unix millis) is at least the timeout past the last activity
func (s *Session) IsExpired(now int64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return now-s.lastActiveAt >= s.timeout
}

// Allow consumes one inbound token; always true without a limiter
func (s *Session) Allow() bool {
	if s.limiter == nil {
		return true
	}
	return s.limiter.Allow()
}

// Dropped returns how many frames were shed because the queue was full
func (s *Session) Dropped() uint64 {
	return s.dropped.Load()
}

// Queued returns the number of frames waiting for the send loop
func (s *Session) Queued() int {
	return len(s.outbound)
}

// Closed reports whether the send loop has exited
func (s *Session) Closed() bool {
	select {
	case <-s.detached:
		return true
	default:
		return false
	}
}

// detach marks the consumer side gone; safe to call more than once
func (s *Session) detach() {
	s.detachOnce.Do(func() { close(s.detached) })
}
