package websocket

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	DefaultSendQueueSize        = 128
	DefaultSessionTimeout       = 120 * time.Second
	DefaultSweepInterval        = 120 * time.Second
	DefaultShutdownGrace        = 5 * time.Second
	DefaultWriteWait            = 10 * time.Second
	DefaultMaxMessageSize int64 = 1 << 20

	PongText              = "pong"
	BinaryUnsupportedText = "Binary data type is not supported"
	ShutdownReason        = "server shutdown"
)

// Options configures a Server; zero fields fall back to the defaults above
type Options struct {
	SendQueueSize  int
	SessionTimeout time.Duration
	SweepInterval  time.Duration
	ShutdownGrace  time.Duration // bounded wait for the sibling loop, and for peers on shutdown
	WriteWait      time.Duration
	MaxMessageSize int64
	RateLimit      float64
	RateBurst      int

	// OnStateChange observes connection state transitions, may be nil
	OnStateChange func(sessionID string, state ConnState)
}

func (o Options) withDefaults() Options {
	if o.SendQueueSize <= 0 {
		o.SendQueueSize = DefaultSendQueueSize
	}
	if o.SessionTimeout <= 0 {
		o.SessionTimeout = DefaultSessionTimeout
	}
	if o.SweepInterval <= 0 {
		o.SweepInterval = DefaultSweepInterval
	}
	if o.ShutdownGrace <= 0 {
		o.ShutdownGrace = DefaultShutdownGrace
	}
	if o.WriteWait <= 0 {
		o.WriteWait = DefaultWriteWait
	}
	if o.MaxMessageSize <= 0 {
		o.MaxMessageSize = DefaultMaxMessageSize
	}
	return o
}

// Server owns the session registry, the dispatcher and the sweeper.
// It is built once at startup and shared by every connection.
type Server struct {
	opts       Options
	sessions   *SessionManager
	dispatcher *Dispatcher
	logger     *slog.Logger
	metrics    *Metrics

	// lifecycle: cancelling ctx cancels every connection driver and the sweeper
	ctx    context.Context
	cancel context.CancelFunc

	mu          sync.Mutex // guards closing against conns.Add
	closing     bool
	conns       sync.WaitGroup // connection drivers
	background  sync.WaitGroup // sweeper
	sweeperOnce sync.Once
}

// NewServer wires the backend. A nil dispatcher routes nothing; a nil
// registerer disables metrics.
func NewServer(opts Options, dispatcher *Dispatcher, logger *slog.Logger, registerer prometheus.Registerer) *Server {
	opts = opts.withDefaults()
	if logger == nil {
		logger = slog.Default()
	}
	if dispatcher == nil {
		dispatcher, _ = NewDispatcher(logger)
	}
	metrics := NewMetrics(registerer)

	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		opts: opts,
		sessions: NewSessionManager(SessionSettings{
			Timeout:   opts.SessionTimeout,
			RateLimit: opts.RateLimit,
			RateBurst: opts.RateBurst,
		}, logger, metrics),
		dispatcher: dispatcher,
		logger:     logger,
		metrics:    metrics,
		ctx:        ctx,
		cancel:     cancel,
	}
}

func (s *Server) Sessions() *SessionManager { return s.sessions }

func (s *Server) Dispatcher() *Dispatcher { return s.dispatcher }

func (s *Server) Options() Options { return s.opts }

// TransportOptions returns the adapter settings matching this server's options
func (s *Server) TransportOptions() TransportOptions {
	return TransportOptions{
		WriteWait:      s.opts.WriteWait,
		MaxMessageSize: s.opts.MaxMessageSize,
	}
}

// StartSweeper launches the liveness sweeper; later calls are no-ops
func (s *Server) StartSweeper() {
	s.sweeperOnce.Do(func() {
		s.background.Add(1)
		go func() {
			defer s.background.Done()
			s.sessions.RunSweeper(s.ctx, s.opts.SweepInterval)
		}()
	})
}

// track registers a new connection driver unless shutdown has begun
func (s *Server) track() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closing {
		return false
	}
	s.conns.Add(1)
	return true
}

// Shutdown asks every session to close, waits up to the shutdown grace for
// connections to finish on their own, then cancels the rest and waits for them
// or for ctx.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.closing = true
	s.mu.Unlock()

	s.logger.Info("server_shutting_down",
		"sessions", s.sessions.Count(),
	)
	s.sessions.ForEach(func(sess *Session) {
		_ = sess.Send(CloseFrame(CloseGoingAway, ShutdownReason))
	})

	done := make(chan struct{})
	go func() {
		s.conns.Wait()
		close(done)
	}()

	grace := time.NewTimer(s.opts.ShutdownGrace)
	defer grace.Stop()
	select {
	case <-done:
	case <-grace.C:
	case <-ctx.Done():
	}

	s.cancel()
	s.background.Wait()

	select {
	case <-done:
		s.logger.Info("server_stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
