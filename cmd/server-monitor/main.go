package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/server-monitor/internal/admin"
	"github.com/server-monitor/internal/config"
	"github.com/server-monitor/internal/kafka"
	"github.com/server-monitor/internal/rank"
	"github.com/server-monitor/internal/report"
	"github.com/server-monitor/internal/scheduler"
	"github.com/server-monitor/internal/session"
	"github.com/server-monitor/internal/sim"
	"github.com/server-monitor/internal/transport"
	"github.com/server-monitor/internal/websocket"
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", "config.yaml", "Path to bootstrap configuration file")
	flag.Parse()

	// Setup structured logging
	level := new(slog.LevelVar)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	// Load bootstrap configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Warn("failed to load config file, using defaults", "error", err)
		cfg = config.DefaultBootstrap()
	}

	// Load the game-facing server settings. A missing or malformed file
	// keeps the defaults; nothing here is fatal.
	store := config.NewStore(cfg.Paths.ServerSettings)
	if err := store.Load(); err != nil {
		logger.Debug("server settings not loaded, using defaults", "error", err)
	}
	level.Set(store.Current().LogLevel())
	logger.Info("server settings loaded",
		"server", store.Current().ServerID,
		"interval", store.Current().Interval,
		"rank_source", int(store.Current().RankSource),
	)

	// Start the simulation loop that owns all live state
	loop := sim.NewLoop(logger)
	if err := loop.Start(); err != nil {
		logger.Error("failed to start simulation loop", "error", err)
		os.Exit(1)
	}

	host := sim.NewHost(loop)
	registry := session.NewRegistry(logger)

	resolver := rank.NewResolver(store.Current, cfg.Paths, cfg.Redis, logger)
	builder := report.NewBuilder(logger)
	sender := transport.NewSender(store.Current, logger)

	// Initialize WebSocket hub for the live report feed
	wsHub := websocket.NewHub(logger)
	go wsHub.Run()
	logger.Info("WebSocket hub initialized")

	// Initialize the optional Kafka report mirror
	var publisher *kafka.Publisher
	var mirror scheduler.ReportMirror
	if cfg.Kafka.Enabled {
		logger.Info("initializing Kafka report mirror",
			"brokers", cfg.Kafka.Brokers,
			"topic", cfg.Kafka.Topic,
		)
		publisher, err = kafka.NewPublisher(&cfg.Kafka, logger)
		if err != nil {
			logger.Warn("failed to create Kafka publisher, continuing without mirror", "error", err)
		} else {
			mirror = publisher
		}
	}

	// Initialize the scheduler
	sched := scheduler.New(loop, registry, host, resolver, builder, sender, store, wsHub, mirror, logger)
	sched.SetLogLevelVar(level)
	if err := sched.Start(); err != nil {
		logger.Error("failed to start scheduler", "error", err)
		os.Exit(1)
	}

	bridge := scheduler.NewBridge(host, sched)

	// Initialize the admin HTTP surface
	adminHandler := admin.NewHandler(sched, bridge, wsHub, logger)

	server := &http.Server{
		Addr:         cfg.Admin.Addr,
		Handler:      adminHandler.Router(),
		ReadTimeout:  cfg.Admin.ReadTimeout,
		WriteTimeout: cfg.Admin.WriteTimeout,
		IdleTimeout:  cfg.Admin.IdleTimeout,
	}

	go func() {
		logger.Info("starting admin HTTP server", "addr", cfg.Admin.Addr)
		logger.Info("report feed available at /ws")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("admin HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("failed to shutdown admin server", "error", err)
	}

	if err := sched.Stop(); err != nil {
		logger.Error("failed to stop scheduler", "error", err)
	}

	wsHub.Stop()

	if publisher != nil {
		if err := publisher.Close(); err != nil {
			logger.Error("failed to close Kafka publisher", "error", err)
		}
	}

	if err := loop.Stop(); err != nil {
		logger.Error("failed to stop simulation loop", "error", err)
	}

	logger.Info("stopped")
}
