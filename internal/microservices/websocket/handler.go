package websocket

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// UserIDKey is the gin context key the auth middleware stores the user id under
const UserIDKey = "userID"

// NewUpgrader returns the upgrader used for gateway connections.
// Origin checks are left to the deployment (reverse proxy or auth middleware).
func NewUpgrader() *websocket.Upgrader {
	return &websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
	}
}

// WSHandler upgrades the HTTP request and drives the connection on the
// request goroutine until it terminates
func WSHandler(srv *Server, upgrader *websocket.Upgrader) gin.HandlerFunc {
	if upgrader == nil {
		upgrader = NewUpgrader()
	}
	return func(c *gin.Context) {
		var opts []SessionOption
		if userID := c.GetString(UserIDKey); userID != "" {
			opts = append(opts, WithUserID(userID))
		}

		// Upgrade writes the HTTP error response itself on failure
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			srv.logger.Warn("websocket_upgrade_failed",
				"remote_addr", c.ClientIP(),
				"error", err.Error(),
			)
			return
		}

		srv.Serve(c.Request.Context(), NewConnTransport(conn, srv.TransportOptions()), opts...)
	}
}
