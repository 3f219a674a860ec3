package websocket

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"wsgateway/internal/shared"
)

// ConnState is the lifecycle of one connection driver
type ConnState uint8

const (
	StateActive     ConnState = iota + 1 // both loops running
	StateClosing                         // one loop ended, the other is being cancelled
	StateTerminated                      // registry entry removed, transport closed
)

func (s ConnState) String() string {
	switch s {
	case StateActive:
		return "active"
	case StateClosing:
		return "closing"
	case StateTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// why a loop ended, used for logs and the connections_closed_total label
const (
	reasonPeerClose     = "peer_close"
	reasonReadError     = "read_error"
	reasonWriteError    = "write_error"
	reasonSessionClosed = "session_closed"
	reasonCancelled     = "cancelled"
)

// Serve drives one connection until it terminates: it registers a session,
// runs the receive and send loops, and when either ends cancels the other,
// waits for it at most ShutdownGrace, closes t and removes the session.
func (s *Server) Serve(ctx context.Context, t Transport, opts ...SessionOption) {
	if !s.track() {
		_ = t.Close()
		return
	}
	defer s.conns.Done()

	outbound := make(chan Frame, s.opts.SendQueueSize)
	opts = append([]SessionOption{WithRemoteAddr(t.RemoteAddr())}, opts...)
	sess := s.sessions.Create(outbound, opts...)

	connCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(s.ctx, cancel)
	defer stop()

	s.setState(sess, StateActive)

	var sendReason, recvReason string
	sendDone := make(chan struct{})
	recvDone := make(chan struct{})
	go func() {
		defer close(sendDone)
		sendReason = s.sendLoop(connCtx, sess, outbound, t)
	}()
	go func() {
		defer close(recvDone)
		recvReason = s.receiveLoop(connCtx, sess, t)
	}()

	// first loop to finish decides; the sibling is cancelled
	var sibling <-chan struct{}
	var reason string
	select {
	case <-sendDone:
		sibling, reason = recvDone, sendReason
	case <-recvDone:
		sibling, reason = sendDone, recvReason
	}

	s.setState(sess, StateClosing)
	cancel()
	sess.detach()

	abandon := time.NewTimer(s.opts.ShutdownGrace)
	defer abandon.Stop()
	select {
	case <-sibling:
	case <-abandon.C:
		s.logger.Warn("connection_loop_abandoned",
			"session_id", sess.ID,
			"grace", s.opts.ShutdownGrace.String(),
		)
	}

	_ = t.Close()
	s.sessions.Remove(sess.ID)
	s.metrics.connectionClosed(reason)
	s.setState(sess, StateTerminated)

	s.logger.Info("connection_terminated",
		"session_id", sess.ID,
		"reason", reason,
		"dropped_frames", sess.Dropped(),
	)
}

func (s *Server) setState(sess *Session, state ConnState) {
	s.logger.Debug("connection_state",
		"session_id", sess.ID,
		"state", state.String(),
	)
	if s.opts.OnStateChange != nil {
		s.opts.OnStateChange(sess.ID, state)
	}
}

// receiveLoop reads frames until the peer closes, the transport fails, the
// session's send side is gone, or ctx is cancelled
func (s *Server) receiveLoop(ctx context.Context, sess *Session, t Transport) string {
	for {
		f, err := t.ReadFrame(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return reasonCancelled
			}
			s.logReadError(sess, err)
			return reasonReadError
		}
		s.metrics.frameReceived(f.Kind)

		if reason, stop := s.handleFrame(sess, f); stop {
			return reason
		}
	}
}

func (s *Server) handleFrame(sess *Session, f Frame) (string, bool) {
	var err error
	switch f.Kind {
	case FrameText:
		sess.UpdateActiveTime()
		err = s.handleText(sess, f.Payload)
	case FramePing:
		sess.UpdateActiveTime()
		err = sess.Send(PongFrame(f.Payload))
	case FramePong:
		sess.UpdateActiveTime()
		// a pong is answered with a ping carrying the same payload
		err = sess.Send(PingFrame(f.Payload))
	case FrameClose:
		_ = sess.Send(CloseFrame(f.CloseCode, f.CloseReason))
		s.sessions.Remove(sess.ID)
		return reasonPeerClose, true
	case FrameBinary:
		err = sess.SendText(BinaryUnsupportedText)
	}

	if errors.Is(err, ErrSessionClosed) {
		return reasonSessionClosed, true
	}
	return "", false
}

func (s *Server) handleText(sess *Session, payload []byte) error {
	text := strings.TrimSpace(string(payload))
	if strings.EqualFold(text, "ping") {
		return sess.SendText(PongText)
	}

	if !sess.Allow() {
		s.metrics.rateLimitHit()
		s.logger.Warn("rate_limit_exceeded",
			"session_id", sess.ID,
		)
		return sess.SendResponse(NewResponse().WithRateLimited())
	}

	cmd, err := DecodeCommand([]byte(text))
	if err != nil {
		s.metrics.decodeFailed()
		s.logger.Debug("invalid_command_received",
			"session_id", sess.ID,
			"error", err.Error(),
		)
		return sess.SendResponse(NewResponse().WithBadCommand())
	}
	if cmd.RequestID == nil {
		id := shared.NewID()
		cmd.RequestID = &id
	}

	name, ok := s.dispatcher.Dispatch(sess, cmd)
	if !ok {
		s.metrics.commandUnrouted()
		s.logger.Debug("command_unrouted",
			"session_id", sess.ID,
			"op", cmd.Op,
			"request_id", cmd.ID(),
		)
		return nil
	}
	s.metrics.commandDispatched(name)

	// the handler may have hit a closed session; surface it to the loop
	if sess.Closed() {
		return ErrSessionClosed
	}
	return nil
}

// sendLoop writes queued frames in FIFO order until a write fails or ctx is
// cancelled. On cancellation it makes one best-effort pass over frames that
// were already queued, so a close echo still reaches the peer.
func (s *Server) sendLoop(ctx context.Context, sess *Session, outbound <-chan Frame, t Transport) string {
	defer sess.detach()
	for {
		select {
		case <-ctx.Done():
			s.flush(sess, outbound, t)
			return reasonCancelled
		case f := <-outbound:
			if err := t.WriteFrame(f); err != nil {
				s.logger.Warn("client_write_error",
					"session_id", sess.ID,
					"frame_kind", f.Kind.String(),
					"error", err.Error(),
				)
				return reasonWriteError
			}
			s.metrics.frameSent(f.Kind)
		}
	}
}

func (s *Server) flush(sess *Session, outbound <-chan Frame, t Transport) {
	for n := len(outbound); n > 0; n-- {
		f := <-outbound
		if err := t.WriteFrame(f); err != nil {
			s.logger.Debug("flush_aborted",
				"session_id", sess.ID,
				"remaining", n-1,
				"error", err.Error(),
			)
			return
		}
		s.metrics.frameSent(f.Kind)
	}
}

// expected disconnects are logged quietly, anything else as an error
func (s *Server) logReadError(sess *Session, err error) {
	if errors.Is(err, io.EOF) || websocket.IsCloseError(err,
		websocket.CloseNormalClosure,
		websocket.CloseGoingAway,
		websocket.CloseNoStatusReceived,
	) {
		s.logger.Info("client_disconnected",
			"session_id", sess.ID,
		)
		return
	}
	s.logger.Warn("client_read_error",
		"session_id", sess.ID,
		"error", err.Error(),
	)
}
