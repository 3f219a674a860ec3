package websocket

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSession(capacity int) (*Session, chan Frame) {
	outbound := make(chan Frame, capacity)
	return newSession(outbound, DefaultSessionTimeout, discardLogger(), nil), outbound
}

func TestSession_SendQueuesInOrder(t *testing.T) {
	sess, outbound := newTestSession(4)

	require.NoError(t, sess.SendText("a"))
	require.NoError(t, sess.SendText("b"))
	require.NoError(t, sess.Send(PingFrame(nil)))

	assert.Equal(t, 3, sess.Queued())
	assert.Equal(t, "a", (<-outbound).Text())
	assert.Equal(t, "b", (<-outbound).Text())
	assert.Equal(t, FramePing, (<-outbound).Kind)
}

func TestSession_SendOnFullQueueDrops(t *testing.T) {
	sess, outbound := newTestSession(2)

	require.NoError(t, sess.SendText("1"))
	require.NoError(t, sess.SendText("2"))
	// the third frame is shed without blocking or failing
	require.NoError(t, sess.SendText("3"))

	assert.Equal(t, uint64(1), sess.Dropped())
	assert.Equal(t, 2, sess.Queued())
	assert.Equal(t, "1", (<-outbound).Text())
	assert.Equal(t, "2", (<-outbound).Text())
}

func TestSession_SendAfterDetach(t *testing.T) {
	sess, _ := newTestSession(2)

	sess.detach()
	sess.detach()

	assert.True(t, sess.Closed())
	assert.ErrorIs(t, sess.SendText("x"), ErrSessionClosed)
	assert.ErrorIs(t, sess.SendResponse(NewResponse()), ErrSessionClosed)
	assert.Equal(t, uint64(0), sess.Dropped())
}

func TestSession_SendResponse(t *testing.T) {
	sess, outbound := newTestSession(2)

	require.NoError(t, sess.SendResponse(NewResponse().WithInvalidParams()))
	fr := <-outbound
	assert.Equal(t, FrameText, fr.Kind)
	assert.JSONEq(t, `{"code":"4006","message":"invalid params"}`, fr.Text())
}

func TestSession_SendResponseEncodeFailure(t *testing.T) {
	sess, _ := newTestSession(2)

	err := sess.SendResponse(NewResponse().WithData(make(chan int)))
	assert.Error(t, err)
	assert.Equal(t, 0, sess.Queued())
}

func TestSession_IsExpired(t *testing.T) {
	sess, _ := newTestSession(1)
	sess.mu.Lock()
	sess.lastActiveAt = 1_000_000
	sess.mu.Unlock()

	tests := []struct {
		name string
		now  int64
		want bool
	}{
		{name: "just active", now: 1_000_000, want: false},
		{name: "one ms short", now: 1_000_000 + 119_999, want: false},
		{name: "exactly timeout", now: 1_000_000 + 120_000, want: true},
		{name: "long idle", now: 1_000_000 + 500_000, want: true},
		{name: "clock behind", now: 999_000, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, sess.IsExpired(tt.now))
		})
	}
}

func TestSession_UpdateActiveTime(t *testing.T) {
	sess, _ := newTestSession(1)
	sess.mu.Lock()
	sess.lastActiveAt = 0
	sess.mu.Unlock()

	before := time.Now().UnixMilli()
	sess.UpdateActiveTime()

	assert.GreaterOrEqual(t, sess.LastActiveAt(), before)
	assert.False(t, sess.IsExpired(time.Now().UnixMilli()))
}

func TestSession_OutboundDoesNotRefreshActivity(t *testing.T) {
	sess, _ := newTestSession(4)
	sess.mu.Lock()
	sess.lastActiveAt = 42
	sess.mu.Unlock()

	require.NoError(t, sess.SendText("x"))
	assert.Equal(t, int64(42), sess.LastActiveAt())
}

func TestSession_AllowWithoutLimiter(t *testing.T) {
	sess, _ := newTestSession(1)
	for range 100 {
		assert.True(t, sess.Allow())
	}
}

func TestSession_ConcurrentSenders(t *testing.T) {
	sess, outbound := newTestSession(DefaultSendQueueSize)

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 50 {
				_ = sess.SendText("x")
				sess.UpdateActiveTime()
				_ = sess.IsExpired(time.Now().UnixMilli())
			}
		}()
	}
	wg.Wait()

	// 400 attempts against a queue of 128: everything is either queued or counted
	assert.Equal(t, DefaultSendQueueSize, len(outbound))
	assert.Equal(t, uint64(400-DefaultSendQueueSize), sess.Dropped())
}
