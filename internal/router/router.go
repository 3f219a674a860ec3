package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"wsgateway/internal/config"
	"wsgateway/internal/middleware"
	gateway "wsgateway/internal/microservices/websocket"
)

// New builds the HTTP surface of the gateway: the WebSocket upgrade route,
// a health check, and the metrics endpoint when gatherer is non-nil.
func New(srv *gateway.Server, cfg *config.Config, gatherer prometheus.Gatherer) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.IsDevelopment() {
		r.Use(gin.Logger())
	}

	ws := []gin.HandlerFunc{}
	if cfg.AuthEnabled() {
		ws = append(ws, middleware.JWTAuth(cfg.JWTSecret))
	}
	ws = append(ws, gateway.WSHandler(srv, gateway.NewUpgrader()))
	r.GET(cfg.WSPath, ws...)

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":   "ok",
			"sessions": srv.Sessions().Count(),
		})
	})

	if cfg.MetricsEnabled && gatherer != nil {
		r.GET(cfg.MetricsPath, gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}
	return r
}
