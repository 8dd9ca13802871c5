/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package cmd

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/flamego/csrf"
	"github.com/flamego/flamego"
	"github.com/flamego/session"
	"github.com/urfave/cli/v3"

	"github.com/humaidq/labwise/analyzer"
	"github.com/humaidq/labwise/cache"
	"github.com/humaidq/labwise/db"
	"github.com/humaidq/labwise/notify"
	"github.com/humaidq/labwise/processor"
	"github.com/humaidq/labwise/routes"
	"github.com/humaidq/labwise/storage"
	"github.com/humaidq/labwise/textextract"
	"github.com/humaidq/labwise/whatsapp"
)

const (
	sessionLifetime = 30 * 24 * time.Hour
	shutdownTimeout = 15 * time.Second
)

var CmdStart = &cli.Command{
	Name:    "start",
	Aliases: []string{"run"},
	Usage:   "Start the web server",
	Flags:   startFlags(),
	Action:  start,
}

func start(ctx context.Context, cmd *cli.Command) error {
	cfg, err := startConfigFromCommand(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Set DATABASE_URL for db package
	if err := os.Setenv("DATABASE_URL", cfg.DatabaseURL); err != nil {
		return fmt.Errorf("failed to set DATABASE_URL: %w", err)
	}

	appLogger.Info("Connecting to database")

	if err := db.Init(ctx); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	appLogger.Info("Syncing database schema")

	if err := db.SyncSchema(ctx); err != nil {
		return fmt.Errorf("failed to sync schema: %w", err)
	}

	appLogger.Info("Database schema synced")

	store, err := storage.New(cfg.Storage)
	if err != nil {
		return fmt.Errorf("failed to set up storage: %w", err)
	}

	cacheClient, err := cache.New(ctx, cache.Config{URL: cfg.RedisURL, TTL: cfg.CacheTTL})
	if err != nil {
		return err
	}
	defer func() {
		if err := cacheClient.Close(); err != nil {
			appLogger.Warn("Failed to close cache", "error", err)
		}
	}()

	extractor, err := textextract.New(cfg.Extract)
	if err != nil {
		return err
	}

	engine, err := analyzer.New(ctx, cfg.Analyzer)
	if err != nil {
		return fmt.Errorf("failed to set up analyzer: %w", err)
	}

	appLogger.Info("Analyzer ready", "engine", engine.Name())

	if cfg.WhatsApp {
		if err := whatsapp.Initialize(ctx, cfg.DatabaseURL); err != nil {
			// Notifications over WhatsApp are skipped until it is set up.
			whatsappLogger.Error("Failed to initialize WhatsApp", "error", err)
		}
	}

	notifier, err := buildNotifier(ctx, cfg)
	if err != nil {
		return err
	}

	var tokens *routes.TokenIssuer
	if cfg.JWTSecret != "" {
		if tokens, err = routes.NewTokenIssuer(cfg.JWTSecret, cfg.TokenTTL); err != nil {
			return err
		}
	} else {
		appLogger.Warn("JWT_SECRET is not set, bearer token authentication is disabled")
	}

	proc := processor.New(cfg.Processor, processor.Deps{
		Store:     store,
		Extractor: extractor,
		Analyzer:  engine,
		Cache:     cacheClient,
		Notifier:  notifier,
	})

	if err := proc.Start(ctx); err != nil {
		return fmt.Errorf("failed to start processor: %w", err)
	}
	defer proc.Stop()

	svc := &routes.Services{
		Jobs:          proc,
		Store:         store,
		Cache:         cacheClient,
		Tokens:        tokens,
		MaxUploadSize: cfg.MaxUploadSize,
	}

	f := newWebApp(cfg, svc)

	srv := &http.Server{
		Addr:              net.JoinHostPort("0.0.0.0", cfg.Port),
		Handler:           f,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       2 * time.Minute,
		WriteTimeout:      2 * time.Minute,
		ErrorLog:          requestStdLogger,
		BaseContext: func(net.Listener) context.Context {
			return ctx
		},
	}

	errCh := make(chan error, 1)

	go func() {
		appLogger.Info("Starting web server", "port", cfg.Port, "production", cfg.Production)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("web server failed: %w", err)
		}

		return nil
	case <-ctx.Done():
	}

	appLogger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down web server: %w", err)
	}

	return nil
}

func newWebApp(cfg startConfig, svc *routes.Services) *flamego.Flame {
	f := flamego.New()
	f.Use(flamego.Recovery())

	f.Use(session.Sessioner(session.Options{
		Initer: db.PostgresSessionIniter(),
		Config: db.PostgresSessionConfig{
			Lifetime: sessionLifetime,
		},
		Cookie: session.CookieOptions{
			Name:     "labwise_session",
			MaxAge:   int(sessionLifetime.Seconds()),
			Secure:   cfg.Production,
			HTTPOnly: true,
			SameSite: http.SameSiteLaxMode,
		},
	}))
	f.Use(csrf.Csrfer(csrf.Options{
		Secret: cfg.CSRFSecret,
	}))
	f.Use(routes.RequestLogger)
	f.Use(routes.NoCacheHeaders())
	f.Map(svc)

	routes.Mount(f)

	return f
}

// buildNotifier combines the configured delivery channels. Missing channels
// are skipped.
func buildNotifier(ctx context.Context, cfg startConfig) (notify.Notifier, error) {
	var notifiers notify.Multi

	if cfg.FirebaseCredentials != "" {
		fcm, err := notify.NewFCM(ctx, cfg.FirebaseCredentials)
		if err != nil {
			return nil, err
		}

		notifiers = append(notifiers, fcm)
	}

	if cfg.WhatsApp {
		notifiers = append(notifiers, notify.NewWhatsApp())
	}

	if len(notifiers) == 0 {
		appLogger.Info("No notification channels configured")
		return nil, nil //nolint:nilnil // The processor treats a nil notifier as disabled.
	}

	return notifiers, nil
}
