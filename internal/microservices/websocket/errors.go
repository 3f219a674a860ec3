package websocket

import "errors"

var (
	// ErrSessionClosed is returned by Send when the session's send loop has exited
	ErrSessionClosed = errors.New("session closed")
	// ErrEmptyOperation is returned by DecodeCommand for a payload without an op
	ErrEmptyOperation = errors.New("command op is required")

	ErrNilHandler       = errors.New("handler is nil")
	ErrEmptyHandlerName = errors.New("handler name is required")
	ErrDuplicateHandler = errors.New("handler already registered")
)
