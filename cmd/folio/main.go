// Package main is the entry point for the folio blog server.
// It loads configuration, connects to services, sets up routing, and starts
// the HTTP server with graceful shutdown support.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"folio/internal/cache"
	"folio/internal/config"
	"folio/internal/database"
	"folio/internal/handlers"
	"folio/internal/moderation"
	"folio/internal/notify"
	"folio/internal/router"
	"folio/internal/session"
	"folio/internal/store"
)

func main() {
	// Structured logger — outputs JSON in production, text in development.
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	slog.SetDefault(logger)

	// Load configuration from environment variables.
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("configuration loaded",
		"env", cfg.Env,
		"addr", cfg.Addr(),
	)

	// Connect to PostgreSQL.
	db, err := database.Connect(cfg.DSN())
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Run pending migrations.
	if err := database.Migrate(db); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	// Seed development data (no-op if data already exists).
	if cfg.IsDev() {
		if err := database.Seed(db); err != nil {
			slog.Error("failed to seed database", "error", err)
			os.Exit(1)
		}
	}

	// Connect to Valkey (Redis-compatible cache + session store).
	valkeyClient, err := cache.ConnectValkey(cfg.ValkeyHost, cfg.ValkeyPort, cfg.ValkeyPassword)
	if err != nil {
		slog.Error("failed to connect to valkey", "error", err)
		os.Exit(1)
	}
	defer valkeyClient.Close()

	// Initialize session store backed by Valkey.
	// In non-development environments, mark session cookies as Secure (HTTPS-only).
	secureCookies := !cfg.IsDev()
	sessionStore := session.NewStore(valkeyClient, secureCookies)

	// Initialize data stores.
	userStore := store.NewUserStore(db)
	postStore := store.NewPostStore(db)
	categoryStore := store.NewCategoryStore(db)
	seriesStore := store.NewSeriesStore(db)
	relationStore := store.NewRelationStore(db)
	commentStore := store.NewCommentStore(db)
	profileStore := store.NewProfileStore(db)
	revisionStore := store.NewRevisionStore(db)
	cacheLogStore := store.NewCacheLogStore(db)

	// Initialize the response cache (public API payloads in Valkey).
	respCache := cache.NewResponseCache(valkeyClient, cache.DefaultResponseTTL)

	// Initialize the comment moderation checker. With no API keys
	// configured every comment starts in the review queue.
	checker := moderation.New(moderation.Config{
		OpenAIKey:      cfg.OpenAIKey,
		OpenAIBaseURL:  cfg.OpenAIBaseURL,
		MistralKey:     cfg.MistralKey,
		MistralBaseURL: cfg.MistralBaseURL,
	})
	if checker == nil {
		slog.Warn("no moderation backend configured — all comments will be held for review")
	}

	// Comment notifications: SMTP when configured, otherwise log-only.
	var notifier notify.Notifier = notify.LogNotifier{}
	if cfg.SMTPHost != "" && cfg.NotifyEmail != "" {
		notifier = notify.NewSMTPNotifier(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.NotifyFrom, cfg.NotifyEmail)
		slog.Info("smtp notifications enabled", "host", cfg.SMTPHost, "to", cfg.NotifyEmail)
	} else {
		slog.Warn("smtp not configured — comment notifications will be logged only")
	}

	// Create handler groups with their dependencies.
	adminHandlers := handlers.NewAdmin(postStore, categoryStore, seriesStore, relationStore,
		commentStore, profileStore, revisionStore, cacheLogStore, respCache)
	authHandlers := handlers.NewAuth(sessionStore, userStore)
	publicHandlers := handlers.NewPublic(postStore, categoryStore, seriesStore, relationStore,
		commentStore, profileStore, respCache, checker, notifier)

	// Set up the Chi router with all middleware and routes.
	r := router.New(sessionStore, adminHandlers, authHandlers, publicHandlers, secureCookies)

	// Create the HTTP server with sensible timeouts.
	// WriteTimeout must accommodate comment submissions that wait on the
	// moderation API (up to 20s before the checker gives up).
	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Start the server in a goroutine so we can listen for shutdown signals.
	go func() {
		slog.Info("server starting", "addr", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown: wait for SIGINT or SIGTERM, then drain connections.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	slog.Info("shutdown signal received", "signal", sig)

	// Give active requests up to 30 seconds to complete.
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped gracefully")
}
