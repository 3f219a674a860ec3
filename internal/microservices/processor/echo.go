package processor

import (
	gateway "wsgateway/internal/microservices/websocket"
)

const EchoOp = "echo"

// Echo answers "echo" commands with their own args as data
func Echo() gateway.Handler {
	return gateway.HandlerFunc("echo", gateway.MatchOp(EchoOp), func(sess *gateway.Session, cmd *gateway.Command) {
		resp := gateway.ResponseFrom(cmd).WithSuccess()
		if cmd.Args != nil {
			resp = resp.WithData(cmd.Args)
		}
		_ = sess.SendResponse(resp)
	})
}
