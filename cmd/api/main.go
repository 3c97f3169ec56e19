package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/nikhilbhutani/narrator/internal/acquire"
	"github.com/nikhilbhutani/narrator/internal/api"
	"github.com/nikhilbhutani/narrator/internal/artifact"
	"github.com/nikhilbhutani/narrator/internal/config"
	"github.com/nikhilbhutani/narrator/internal/llm"
	"github.com/nikhilbhutani/narrator/internal/narrate"
	"github.com/nikhilbhutani/narrator/internal/sanitize"
	"github.com/nikhilbhutani/narrator/internal/speech"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.Log.Level}))
	slog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	// Artifact store: in-process by default, redis when several instances share audio
	var store artifact.Store
	switch cfg.Artifact.Store {
	case "redis":
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			slog.Error("redis unavailable", "addr", cfg.Redis.Addr, "error", err)
			os.Exit(1)
		}
		store = artifact.NewRedisStore(rdb, cfg.Artifact.TTL)
	default:
		store = artifact.NewMemoryStore(cfg.Artifact.TTL)
	}

	guard := sanitize.NewURLGuard(sanitize.WithAllowedNetworks(cfg.Security.AllowCIDRs...))
	source := acquire.New(acquire.Config{
		MaxTextLength: cfg.Limits.MaxTextLength,
		MaxFileSize:   cfg.Limits.MaxFileSize,
		FetchTimeout:  cfg.Limits.FetchTimeout,
	}, guard)
	generator := llm.NewGeneratorFromConfig(cfg.LLM)
	synthesizer := speech.NewServiceFromConfig(cfg.Speech)
	pipeline := narrate.NewPipeline(source, sanitize.NewSanitizer(cfg.Limits.MaxTextLength),
		generator, synthesizer, cfg.Limits.ContextTokens)

	slog.Info("narrator configured",
		"models", generator.SupportedModels(),
		"speech_backends", cfg.Speech.Backends,
		"artifact_store", cfg.Artifact.Store,
		"auth", cfg.Auth.JWTSecret != "",
	)

	// Setup router
	router := api.NewRouter(cfg, api.Services{
		Narrator: pipeline,
		Models:   generator,
		Voices:   synthesizer,
		Store:    store,
	})
	handler := router.Setup()

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      cfg.Limits.FetchTimeout + cfg.LLM.Timeout + cfg.Speech.Timeout + 30*time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		slog.Info("starting API server", "addr", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced shutdown", "error", err)
	}
	slog.Info("server stopped")
}
