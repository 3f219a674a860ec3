package websocket

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewServer_Defaults(t *testing.T) {
	srv := NewServer(Options{}, nil, nil, nil)
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })

	opts := srv.Options()
	assert.Equal(t, 128, opts.SendQueueSize)
	assert.Equal(t, 120*time.Second, opts.SessionTimeout)
	assert.Equal(t, 120*time.Second, opts.SweepInterval)
	assert.Equal(t, DefaultShutdownGrace, opts.ShutdownGrace)
	assert.Equal(t, TransportOptions{WriteWait: DefaultWriteWait, MaxMessageSize: DefaultMaxMessageSize}, srv.TransportOptions())

	require.NotNil(t, srv.Dispatcher())
	assert.Empty(t, srv.Dispatcher().Names())
	assert.Equal(t, 0, srv.Sessions().Count())
}

func TestServer_SweeperLifecycle(t *testing.T) {
	srv := NewServer(Options{SessionTimeout: time.Millisecond, SweepInterval: 10 * time.Millisecond}, nil, discardLogger(), nil)
	srv.StartSweeper()
	srv.StartSweeper()

	ft := newFakeTransport()
	done := serve(srv, ft)

	fr := expectFrame(t, ft)
	assert.Equal(t, FrameClose, fr.Kind)
	assert.Equal(t, CloseReasonIdle, fr.CloseReason)

	ft.in <- CloseFrame(CloseNormal, CloseReasonIdle)
	waitDone(t, done)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	assert.NoError(t, srv.Shutdown(ctx))
}

func TestServer_ShutdownWithoutConnections(t *testing.T) {
	srv := NewServer(Options{}, nil, discardLogger(), nil)

	start := time.Now()
	require.NoError(t, srv.Shutdown(context.Background()))
	// nothing to wait for, the grace period is not spent
	assert.Less(t, time.Since(start), DefaultShutdownGrace)
}
