package processor

import (
	gateway "wsgateway/internal/microservices/websocket"
)

// Fallback matches every command and rejects it as unknown.
// Register it last so real handlers get the first chance.
func Fallback() gateway.Handler {
	return gateway.HandlerFunc("fallback",
		func(*gateway.Command) bool { return true },
		func(sess *gateway.Session, cmd *gateway.Command) {
			_ = sess.SendResponse(gateway.ResponseFrom(cmd).WithBadCommand())
		},
	)
}

// Defaults returns the handlers the gateway binary ships with, in priority order
func Defaults() []gateway.Handler {
	return []gateway.Handler{Echo(), Fallback()}
}
