package websocket

import (
	"context"
	"fmt"
)

// FrameKind is the transport-level type of a frame
type FrameKind uint8

const (
	FrameText FrameKind = iota + 1
	FrameBinary
	FramePing
	FramePong
	FrameClose
)

func (k FrameKind) String() string {
	switch k {
	case FrameText:
		return "text"
	case FrameBinary:
		return "binary"
	case FramePing:
		return "ping"
	case FramePong:
		return "pong"
	case FrameClose:
		return "close"
	default:
		return fmt.Sprintf("frame(%d)", uint8(k))
	}
}

// Close codes used by the gateway (RFC 6455 section 7.4.1)
const (
	CloseNormal     = 1000
	CloseGoingAway  = 1001
	CloseNoStatus   = 1005
	CloseAbnormal   = 1006
	CloseReasonIdle = "expired"
)

// Frame is one discrete unit of transport data
type Frame struct {
	Kind    FrameKind
	Payload []byte
	// set on close frames only
	CloseCode   int
	CloseReason string
}

func TextFrame(text string) Frame {
	return Frame{Kind: FrameText, Payload: []byte(text)}
}

func BinaryFrame(data []byte) Frame {
	return Frame{Kind: FrameBinary, Payload: data}
}

func PingFrame(payload []byte) Frame {
	return Frame{Kind: FramePing, Payload: payload}
}

func PongFrame(payload []byte) Frame {
	return Frame{Kind: FramePong, Payload: payload}
}

func CloseFrame(code int, reason string) Frame {
	return Frame{Kind: FrameClose, CloseCode: code, CloseReason: reason}
}

// Text returns the payload as a string
func (f Frame) Text() string {
	return string(f.Payload)
}

// Transport is a duplex frame stream for one connection.
// ReadFrame is called only from the receive loop and WriteFrame only from the
// send loop, so implementations need not serialize either side internally.
type Transport interface {
	// ReadFrame blocks for the next inbound frame or until ctx is done
	ReadFrame(ctx context.Context) (Frame, error)
	WriteFrame(f Frame) error
	// Close releases the underlying connection and unblocks pending reads
	Close() error
	RemoteAddr() string
}
