package websocket

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// fakeTransport is an in-memory peer: tests push frames into in and read
// what the server wrote from out
type fakeTransport struct {
	in  chan Frame
	out chan Frame

	closed    chan struct{}
	closeOnce sync.Once

	mu       sync.Mutex
	writeErr error
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{
		in:     make(chan Frame, 64),
		out:    make(chan Frame, 256),
		closed: make(chan struct{}),
	}
}

func (f *fakeTransport) ReadFrame(ctx context.Context) (Frame, error) {
	select {
	case <-ctx.Done():
		return Frame{}, ctx.Err()
	case <-f.closed:
		return Frame{}, io.EOF
	case fr, ok := <-f.in:
		if !ok {
			return Frame{}, io.EOF
		}
		return fr, nil
	}
}

func (f *fakeTransport) WriteFrame(fr Frame) error {
	f.mu.Lock()
	err := f.writeErr
	f.mu.Unlock()
	if err != nil {
		return err
	}

	select {
	case <-f.closed:
		return errors.New("write on closed transport")
	default:
	}
	f.out <- fr
	return nil
}

func (f *fakeTransport) Close() error {
	f.closeOnce.Do(func() { close(f.closed) })
	return nil
}

func (f *fakeTransport) RemoteAddr() string { return "fake:1234" }

func (f *fakeTransport) failWrites(err error) {
	f.mu.Lock()
	f.writeErr = err
	f.mu.Unlock()
}

func (f *fakeTransport) isClosed() bool {
	select {
	case <-f.closed:
		return true
	default:
		return false
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestServer(t *testing.T, opts Options, handlers ...Handler) *Server {
	t.Helper()
	d, err := NewDispatcher(discardLogger(), handlers...)
	require.NoError(t, err)
	if opts.ShutdownGrace == 0 {
		opts.ShutdownGrace = time.Second
	}
	srv := NewServer(opts, d, discardLogger(), nil)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	})
	return srv
}

// serve runs srv.Serve on ft and returns a channel closed when it returns
func serve(srv *Server, ft *fakeTransport, opts ...SessionOption) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		srv.Serve(context.Background(), ft, opts...)
	}()
	return done
}

func expectFrame(t *testing.T, ft *fakeTransport) Frame {
	t.Helper()
	select {
	case fr := <-ft.out:
		return fr
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a frame")
		return Frame{}
	}
}

func waitDone(t *testing.T, done <-chan struct{}) {
	t.Helper()
	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("connection driver did not terminate")
	}
}

// onlySession waits for exactly one registered session and returns it
func onlySession(t *testing.T, srv *Server) *Session {
	t.Helper()
	require.Eventually(t, func() bool { return srv.Sessions().Count() == 1 }, 2*time.Second, 5*time.Millisecond)
	var sess *Session
	srv.Sessions().ForEach(func(s *Session) { sess = s })
	require.NotNil(t, sess)
	return sess
}
