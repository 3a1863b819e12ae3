// Package app assembles the Faturabot service: SQLite-backed audit store,
// completion provider, gateway authenticator and client, per-session rate
// limiter, and the HTTP server hosting the WebSocket endpoint.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/faturabot/faturabot/internal/faturabot/config"
	"github.com/faturabot/faturabot/internal/faturabot/gateway"
	"github.com/faturabot/faturabot/internal/faturabot/nlp"
	"github.com/faturabot/faturabot/internal/faturabot/session"
	"github.com/faturabot/faturabot/internal/faturabot/store"
)

// App is the assembled service.
type App struct {
	cfg        *config.Config
	store      *store.Store
	httpServer *HTTPServer
}

// New wires up the application from its configuration.
func New(cfg *config.Config) (*App, error) {
	slog.Info("opening database", "path", cfg.DatabasePath)
	st, err := store.New(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("initialize database: %w", err)
	}

	provider := nlp.New(nlp.Config{
		APIKey:  cfg.LLM.APIKey,
		BaseURL: cfg.LLM.BaseURL,
		Model:   cfg.LLM.Model,
		Timeout: cfg.LLM.Timeout,
	})

	cell := &gateway.TokenCell{}
	auth := gateway.NewAuthenticator(gateway.AuthConfig{
		URL:         cfg.AuthURL,
		Username:    cfg.ServiceUsername,
		Password:    cfg.ServicePassword,
		InsecureTLS: cfg.InsecureTLS,
	}, cell)

	client := gateway.NewClient(gateway.ClientConfig{
		BaseURL:     cfg.GatewayURL,
		InsecureTLS: cfg.InsecureTLS,
	}, auth)

	limiter := nlp.NewRateLimiter(cfg.ExtractionRateLimit, time.Minute)

	wsServer := session.NewServer(provider, client, auth, limiter, st)

	httpServer := NewHTTPServer(cfg.ListenAddr, st)
	wsServer.RegisterRoutes(httpServer)
	slog.Info("websocket endpoint registered", "path", "/ws")

	return &App{
		cfg:        cfg,
		store:      st,
		httpServer: httpServer,
	}, nil
}

// Run starts the HTTP server and blocks until an interrupt signal arrives.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := a.httpServer.Start(ctx); err != nil {
		return err
	}

	slog.Info("faturabot is running; press Ctrl+C to stop",
		"addr", a.cfg.ListenAddr, "gateway", a.cfg.GatewayURL)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	slog.Info("shutting down")
	return nil
}

// Stop tears down the HTTP server and the database.
func (a *App) Stop() {
	slog.Info("stopping http server")
	a.httpServer.Stop()

	slog.Info("closing database")
	if err := a.store.Close(); err != nil {
		slog.Warn("closing database", "err", err)
	}
}
