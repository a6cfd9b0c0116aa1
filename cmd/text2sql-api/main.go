package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tamaraiselva/text2sql/internal/api"
	"github.com/tamaraiselva/text2sql/internal/api/uistatic"
	"github.com/tamaraiselva/text2sql/internal/auth"
	"github.com/tamaraiselva/text2sql/internal/config"
	"github.com/tamaraiselva/text2sql/internal/exec"
	"github.com/tamaraiselva/text2sql/internal/nlsql"
	"github.com/tamaraiselva/text2sql/internal/observability"
	"github.com/tamaraiselva/text2sql/internal/schema"
	"github.com/tamaraiselva/text2sql/internal/session"
)

func main() {
	cfg, err := config.LoadFromEnv("text2sql-api")
	if err != nil {
		slog.Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg, os.Stdout)

	completer, err := nlsql.NewCompleter(nlsql.Settings{
		Provider:    cfg.Model.Provider,
		BaseURL:     cfg.Model.BaseURL,
		APIKey:      cfg.Model.APIKey,
		Model:       cfg.Model.Model,
		Temperature: cfg.Model.Temperature,
		Timeout:     cfg.Model.Timeout,
	})
	if err != nil {
		logger.Error("failed to initialize model backend", slog.Any("error", err))
		os.Exit(1)
	}
	generator := nlsql.NewGenerator(completer, cfg.Model.Provider, cfg.Model.Model, cfg.Model.AllowedModels, cfg.Model.Timeout)
	executor := exec.New(exec.Policy{
		ReadOnly: cfg.Query.ReadOnly,
		RowLimit: cfg.Query.RowLimit,
		Timeout:  cfg.Query.Timeout,
	})
	registry := session.NewRegistry(cfg.Session.IdleTTL)

	deps := api.Dependencies{
		Logger:         logger,
		Sessions:       registry,
		Generator:      generator,
		Executor:       executor,
		ConnectTimeout: cfg.Database.ConnectTimeout,
		SchemaOptions:  schema.Options{MaxTables: cfg.Schema.MaxTables},
		Repair:         cfg.Query.Repair,
		UI:             uistatic.Handler(),
	}
	if cfg.Auth.Required {
		validator, err := auth.NewStaticAPIKeyValidator(cfg.Auth.StaticKeys)
		if err != nil {
			logger.Error("failed to parse static auth keys", slog.Any("error", err))
			os.Exit(1)
		}
		deps.AuthMiddleware = auth.Middleware(logger, validator)
	}

	handler := api.NewHandler(cfg, deps)
	server := &http.Server{
		Addr:         cfg.HTTP.Address,
		Handler:      handler,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Session.IdleTTL > 0 {
		go reapLoop(ctx, logger, registry, cfg.Session.IdleTTL)
	}

	go func() {
		logger.Info("starting api server",
			slog.String("addr", cfg.HTTP.Address),
			slog.String("model_provider", cfg.Model.Provider),
			slog.Bool("read_only", cfg.Query.ReadOnly),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("api server failed", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	logger.Info("shutting down api server")
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", slog.Any("error", err))
		_ = server.Close()
	}
	registry.CloseAll()
	observability.SetActiveSessions(0)
}

func reapLoop(ctx context.Context, logger *slog.Logger, registry *session.Registry, ttl time.Duration) {
	interval := ttl / 2
	if interval < time.Minute {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if reaped := registry.ReapIdle(); reaped > 0 {
				observability.SetActiveSessions(registry.Len())
				logger.Info("reaped idle sessions", slog.Int("count", reaped))
			}
		}
	}
}
