package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"wsgateway/internal/config"
	"wsgateway/internal/microservices/processor"
	gateway "wsgateway/internal/microservices/websocket"
	"wsgateway/internal/router"
)

func main() {
	// Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	// Setup structured logging
	logger := config.NewLogger(cfg, os.Stdout)
	slog.SetDefault(logger)
	logger.Info("config_loaded",
		"env", cfg.GoEnv,
		"listen_addr", cfg.ListenAddr(),
		"ws_path", cfg.WSPath,
		"auth_enabled", cfg.AuthEnabled(),
		"metrics_enabled", cfg.MetricsEnabled,
	)

	var (
		registerer prometheus.Registerer
		gatherer   prometheus.Gatherer
	)
	if cfg.MetricsEnabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		registerer, gatherer = reg, reg
	}

	dispatcher, err := gateway.NewDispatcher(logger, processor.Defaults()...)
	if err != nil {
		log.Fatalf("Failed to register handlers: %v", err)
	}

	srv := gateway.NewServer(cfg.GatewayOptions(), dispatcher, logger, registerer)
	srv.StartSweeper()

	httpServer := &http.Server{
		Addr:              cfg.ListenAddr(),
		Handler:           router.New(srv, cfg, gatherer),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	// Start server in goroutine
	errChan := make(chan error, 1)
	go func() {
		logger.Info("starting_gateway_server",
			"addr", httpServer.Addr,
		)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	// Wait for shutdown signal or error
	select {
	case <-sigChan:
		logger.Info("received_shutdown_signal")
	case err := <-errChan:
		logger.Error("server_error", "error", err.Error())
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*cfg.ShutdownGrace)
	defer cancel()

	// stop accepting upgrades first, hijacked connections are not tracked by net/http
	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Warn("http_shutdown_error", "error", err.Error())
	}
	if err := srv.Shutdown(ctx); err != nil {
		logger.Warn("gateway_shutdown_incomplete",
			"error", err.Error(),
			"sessions", srv.Sessions().Count(),
		)
		os.Exit(1)
	}
	logger.Info("server_stopped_gracefully")
}
