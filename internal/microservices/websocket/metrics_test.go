package websocket

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMetrics_NilRegisterer(t *testing.T) {
	m := NewMetrics(nil)
	require.Nil(t, m)

	// every recorder is a no-op on nil
	assert.NotPanics(t, func() {
		m.sessionCreated(1)
		m.sessionRemoved(0)
		m.connectionClosed(reasonPeerClose)
		m.frameReceived(FrameText)
		m.frameSent(FrameText)
		m.outboundDropped()
		m.sessionExpired()
		m.commandDispatched("echo")
		m.commandUnrouted()
		m.decodeFailed()
		m.rateLimitHit()
	})
}

func TestMetrics_SessionLifecycle(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	mgr := NewSessionManager(SessionSettings{}, discardLogger(), m)

	a := mgr.Create(make(chan Frame, 1))
	mgr.Create(make(chan Frame, 1))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.sessionsActive))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.sessionsCreated))

	mgr.Remove(a.ID)
	mgr.Remove(a.ID)
	assert.Equal(t, float64(1), testutil.ToFloat64(m.sessionsActive))

	// a full queue is counted
	b := mgr.Create(make(chan Frame, 1))
	require.NoError(t, b.SendText("1"))
	require.NoError(t, b.SendText("2"))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.outboundDrops))
}

func TestMetrics_ConnectionCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	d, err := NewDispatcher(discardLogger(), echoHandler())
	require.NoError(t, err)
	srv := NewServer(Options{}, d, discardLogger(), reg)
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })

	ft := newFakeTransport()
	done := serve(srv, ft)

	ft.in <- TextFrame(`{"op":"echo"}`)
	expectFrame(t, ft)
	ft.in <- TextFrame(`{"op":"nobody"}`)
	ft.in <- TextFrame(`not json`)
	expectFrame(t, ft)
	ft.in <- CloseFrame(CloseNormal, "")
	expectFrame(t, ft)
	waitDone(t, done)

	m := srv.metrics
	assert.Equal(t, float64(3), testutil.ToFloat64(m.framesReceived.WithLabelValues("text")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.framesReceived.WithLabelValues("close")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.commandsDispatched.WithLabelValues("echo")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.commandsUnrouted))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.decodeFailures))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.connectionsClosed.WithLabelValues(reasonPeerClose)))
	assert.Equal(t, float64(0), testutil.ToFloat64(m.sessionsActive))
}
