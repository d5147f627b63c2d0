// Package main is the entry point for the API server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/debot-app/debot-backend/internal/bus"
	"github.com/debot-app/debot-backend/internal/config"
	"github.com/debot-app/debot-backend/internal/flight"
	"github.com/debot-app/debot-backend/internal/handler"
	"github.com/debot-app/debot-backend/internal/middleware"
	"github.com/debot-app/debot-backend/internal/slack"
	"github.com/debot-app/debot-backend/internal/store"
	"github.com/debot-app/debot-backend/pkg/logger"
	"github.com/debot-app/debot-backend/pkg/tracing"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	logger.SetGlobal(log)

	log.Info("starting API server")

	// Initialize tracing if enabled
	ctx := context.Background()
	if cfg.TracingEnabled {
		tp, err := tracing.InitTracer(ctx, "debot-backend", cfg.TracingEndpoint)
		if err != nil {
			log.Warn("failed to initialize tracing", zap.Error(err))
		} else {
			defer tracing.Shutdown(ctx, tp)
		}
	}

	// Connect to NATS when the event journal is configured
	var busClient *bus.Client
	var journal store.Journal
	if cfg.NATSURL != "" {
		busClient, err = bus.Connect(ctx, bus.Config{
			URL:      cfg.NATSURL,
			CAFile:   cfg.NATSCAFile,
			CertFile: cfg.NATSCertFile,
			KeyFile:  cfg.NATSKeyFile,
			Token:    cfg.NATSToken,
		}, log)
		if err != nil {
			log.Error("failed to connect to NATS", zap.Error(err))
			os.Exit(1)
		}
		defer busClient.Close()

		j := bus.NewJournal(busClient, log)
		if err := j.EnsureStream(ctx); err != nil {
			log.Error("failed to ensure event stream", zap.Error(err))
			os.Exit(1)
		}
		journal = j
	}

	// Initialize the Slack client. A missing token is not fatal; the store
	// starts disconnected and surfaces that state to clients.
	if cfg.SlackToken == "" {
		log.Warn("slack token not configured, starting disconnected")
	}
	slackClient := slack.NewClient(slack.Config{
		Token:             cfg.SlackToken,
		BaseURL:           cfg.SlackAPIBase,
		Timeout:           cfg.SlackTimeout,
		RequestsPerSecond: float64(cfg.SlackRequestsPerSecond),
		HistoryLimit:      cfg.SlackHistoryLimit,
	}, log)

	// Initialize the flight lookup service
	flightClient := flight.NewClient(flight.Config{
		APIKey:  cfg.FlightAPIKey,
		BaseURL: cfg.FlightAPIBase,
	}, log)
	flightSvc := flight.NewService(flightClient, cfg.CacheTTL, cfg.RecentFlightsMax, log)

	// Initialize the message store and warm it in the background
	st := store.New(slackClient, journal, log)
	defer st.Stop()

	go func() {
		warmCtx, cancel := context.WithTimeout(ctx, 60*time.Second)
		defer cancel()
		if err := st.Load(warmCtx); err != nil {
			log.Warn("initial feed load failed", zap.Error(err))
		}
	}()

	// Initialize handlers
	healthHandler := handler.NewHealthHandler(busClient)
	messageHandler := handler.NewMessageHandler(st, log)
	channelHandler := handler.NewChannelHandler(st, log)
	flightHandler := handler.NewFlightHandler(flightSvc, log)
	streamHandler := handler.NewStreamHandler(st, log)
	wsHandler := handler.NewWSHandler(st, log)

	// Create router
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging(log))
	r.Use(middleware.SecurityHeaders)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS())

	// Health endpoints (no auth required)
	r.Get("/health", healthHandler.Health)
	r.Get("/ready", healthHandler.Ready)

	// Metrics endpoint
	r.Handle("/metrics", promhttp.Handler())

	// API routes with authentication
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWTSecret))
		r.Use(middleware.RateLimit(cfg.RateLimitRequests, cfg.RateLimitWindow))

		// Message feed
		r.Route("/messages", func(r chi.Router) {
			r.Get("/", messageHandler.List)
			r.Post("/refresh", messageHandler.Refresh)
			r.Get("/unread_count", messageHandler.UnreadCount)
			r.Post("/read_all", messageHandler.MarkAllRead)

			r.Route("/{id}", func(r chi.Router) {
				r.Post("/read", messageHandler.MarkRead)
				r.Post("/reactions", messageHandler.ToggleReaction)
			})
		})

		// Threads
		r.Get("/threads/{id}", messageHandler.Thread)

		// Channels
		r.Route("/channels", func(r chi.Router) {
			r.Get("/", channelHandler.List)
			r.Post("/{id}/messages", channelHandler.Send)
		})

		// Flights
		r.Route("/flights", func(r chi.Router) {
			r.Get("/random", flightHandler.Random)
			r.Get("/search", flightHandler.Search)
			r.Get("/recent", flightHandler.Recent)
			r.Delete("/cache", flightHandler.ClearCache)
		})

		// Live updates
		r.Get("/stream", streamHandler.Stream)
		r.Get("/ws", wsHandler.Serve)
	})

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      r,
		ReadTimeout:  cfg.ServerReadTimeout,
		WriteTimeout: cfg.ServerWriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info("server listening", zap.String("port", cfg.ServerPort))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", zap.Error(err))
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}

	log.Info("server stopped")
}
