package websocket

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// TransportOptions tunes the gorilla connection adapter
type TransportOptions struct {
	WriteWait      time.Duration // deadline for each write, also the close handshake grace
	MaxMessageSize int64         // read limit per message, 0 keeps the library default
}

// ConnTransport adapts a gorilla *websocket.Conn to the Transport frame stream.
// gorilla answers ping/close on its own by default; the handlers installed here
// surface them as frames instead so the receive loop decides the replies.
type ConnTransport struct {
	conn      *websocket.Conn
	writeWait time.Duration

	frames    chan Frame    // filled by readPump, closed when it exits
	readErr   error         // written by readPump before frames is closed
	done      chan struct{} // closed by Close to release a blocked readPump
	closeOnce sync.Once
}

var _ Transport = (*ConnTransport)(nil)

// NewConnTransport wraps conn and starts its read pump
func NewConnTransport(conn *websocket.Conn, opts TransportOptions) *ConnTransport {
	if opts.WriteWait <= 0 {
		opts.WriteWait = DefaultWriteWait
	}
	t := &ConnTransport{
		conn:      conn,
		writeWait: opts.WriteWait,
		frames:    make(chan Frame, 16),
		done:      make(chan struct{}),
	}
	if opts.MaxMessageSize > 0 {
		conn.SetReadLimit(opts.MaxMessageSize)
	}

	// control handlers run on the readPump goroutine inside ReadMessage
	conn.SetPingHandler(func(data string) error {
		t.push(PingFrame([]byte(data)))
		return nil
	})
	conn.SetPongHandler(func(data string) error {
		t.push(PongFrame([]byte(data)))
		return nil
	})
	conn.SetCloseHandler(func(code int, text string) error {
		t.push(CloseFrame(code, text))
		return nil
	})

	go t.readPump()
	return t
}

func (t *ConnTransport) push(f Frame) bool {
	select {
	case t.frames <- f:
		return true
	case <-t.done:
		return false
	}
}

func (t *ConnTransport) readPump() {
	defer close(t.frames)
	for {
		msgType, data, err := t.conn.ReadMessage()
		if err != nil {
			t.readErr = err
			return
		}

		var f Frame
		switch msgType {
		case websocket.TextMessage:
			f = Frame{Kind: FrameText, Payload: data}
		case websocket.BinaryMessage:
			f = BinaryFrame(data)
		default:
			continue
		}
		if !t.push(f) {
			return
		}
	}
}

// ReadFrame returns the next frame; after the peer goes away it returns the read error
func (t *ConnTransport) ReadFrame(ctx context.Context) (Frame, error) {
	select {
	case <-ctx.Done():
		return Frame{}, ctx.Err()
	case f, ok := <-t.frames:
		if !ok {
			if t.readErr != nil {
				return Frame{}, t.readErr
			}
			return Frame{}, io.EOF
		}
		return f, nil
	}
}

func (t *ConnTransport) WriteFrame(f Frame) error {
	deadline := time.Now().Add(t.writeWait)

	switch f.Kind {
	case FrameText, FrameBinary:
		msgType := websocket.TextMessage
		if f.Kind == FrameBinary {
			msgType = websocket.BinaryMessage
		}
		if err := t.conn.SetWriteDeadline(deadline); err != nil {
			return err
		}
		return t.conn.WriteMessage(msgType, f.Payload)
	case FramePing:
		return t.conn.WriteControl(websocket.PingMessage, f.Payload, deadline)
	case FramePong:
		return t.conn.WriteControl(websocket.PongMessage, f.Payload, deadline)
	case FrameClose:
		code := f.CloseCode
		if code == 0 {
			code = CloseNormal
		}
		err := t.conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, f.CloseReason), deadline)
		// the peer has writeWait to answer the close, a dead peer must not pin the reader
		_ = t.conn.SetReadDeadline(deadline)
		return err
	}
	return nil
}

func (t *ConnTransport) Close() error {
	var err error
	t.closeOnce.Do(func() {
		close(t.done)
		err = t.conn.Close()
	})
	return err
}

func (t *ConnTransport) RemoteAddr() string {
	return t.conn.RemoteAddr().String()
}
