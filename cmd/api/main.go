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

	"voicedash/internal/audiostore"
	"voicedash/internal/audit"
	"voicedash/internal/auth"
	"voicedash/internal/config"
	"voicedash/internal/httpapi"
	"voicedash/internal/provider"
	"voicedash/internal/provider/gateway"
	"voicedash/internal/provider/openai"
	"voicedash/internal/provider/vapi"
	"voicedash/internal/reporting"
	"voicedash/internal/store"
	"voicedash/internal/syncer"
	"voicedash/pkg/logger"
	"voicedash/pkg/utils"

	"github.com/gin-gonic/gin"
	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	// Root context that cancels on shutdown
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}

	log := logger.New(cfg.App.Env)
	slog.SetDefault(log)

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	authManager, err := auth.NewManager(cfg.Auth)
	if err != nil {
		log.Error("auth init failed", "err", err)
		os.Exit(1)
	}

	db, err := utils.OpenPostgres(rootCtx, "pgx", cfg.PostgresDSN(), utils.PostgresPoolConfig{})
	if err != nil {
		log.Error("postgres init failed", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	rdb, err := utils.OpenRedis(rootCtx, utils.RedisConfig{Addr: cfg.RedisAddr()})
	if err != nil {
		log.Error("redis init failed", "err", err)
		os.Exit(1)
	}
	defer rdb.Close()

	audio, err := audiostore.New(cfg.Audio.Dir)
	if err != nil {
		log.Error("audio store init failed", "dir", cfg.Audio.Dir, "err", err)
		os.Exit(1)
	}

	registry := buildRegistry(cfg.Providers, log)

	st := store.NewPostgres(db)
	sync := syncer.New(st, registry, audio, log,
		syncer.WithDashboardTimeout(cfg.Sync.DashboardTimeout),
	)

	h := httpapi.Handlers{
		Auth:      authManager,
		Store:     st,
		Syncer:    sync,
		Locker:    syncer.NewLocker(rdb, cfg.Sync.LockTTL),
		Reporting: reporting.NewService(st),
		Audit:     audit.NewService(audit.NewMemoryRepo()),
		Audio:     audio,
	}

	// Gin router
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.Middleware(log))

	registerRoutes(r, h, auth.RequireAccessToken(authManager))

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      2 * time.Minute, // sync triggers and audio streaming run long
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("api listening", "addr", srv.Addr, "env", cfg.App.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", "err", err)
			stop()
		}
	}()

	<-rootCtx.Done()
	log.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", "err", err)
	}

	_ = logger.ShutdownFlush(shutdownCtx, 2*time.Second)
}

// buildRegistry registers the process-default adapters. Tenant credentials
// are applied per integration at sync time; the defaults here back local
// development and platform-level keys.
func buildRegistry(p config.ProvidersConfig, log *slog.Logger) *provider.Registry {
	registry := provider.NewRegistry(log)

	registry.Register(vapi.New(vapi.Config{
		APIKey:  p.Vapi.APIKey,
		BaseURL: p.Vapi.BaseURL,
	}))
	registry.Register(openai.New(openai.Config{
		APIKey:  p.OpenAI.APIKey,
		BaseURL: p.OpenAI.BaseURL,
		Model:   p.OpenAI.Model,
	}))
	if p.Gateway.BaseURL != "" {
		registry.Register(gateway.New(gateway.Config{
			ID:       p.Gateway.ID,
			APIKey:   p.Gateway.APIKey,
			BaseURL:  p.Gateway.BaseURL,
			Upstream: p.Gateway.Upstream,
		}))
	}
	return registry
}
