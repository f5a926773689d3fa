// File: cmd/app/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"creator-analytics-client/internal/application"
	"creator-analytics-client/internal/config"
	"creator-analytics-client/internal/domain/ports/adapter"
	"creator-analytics-client/internal/domain/ports/repository"
	"creator-analytics-client/internal/infra/adapters/analytics"
	"creator-analytics-client/internal/infra/adapters/notify"
	"creator-analytics-client/internal/infra/auth"
	httpapi "creator-analytics-client/internal/infra/http"
	"creator-analytics-client/internal/infra/logging"
	"creator-analytics-client/internal/infra/memkv"
	"creator-analytics-client/internal/infra/metrics"
	red "creator-analytics-client/internal/infra/redis"
	"creator-analytics-client/internal/infra/registry"
	"creator-analytics-client/internal/infra/sched"
	"creator-analytics-client/internal/infra/security"
	"creator-analytics-client/internal/infra/web"
	"creator-analytics-client/internal/infra/worker"
	"creator-analytics-client/internal/usecase"
)

var (
	version = "dev"
	commit  = "none"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "developer mode: console logs, in-memory session store")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Info().Msg("dev mode enabled")
	}

	// ---- Metrics ----
	metrics.MustRegister()
	metrics.SetBuildInfo(version, commit)

	// ---- Session store (Redis, or memory in dev) ----
	var store repository.SessionStore
	var limiter *red.RateLimiter
	if cfg.Redis.URL != "" {
		redisClient, err := red.NewClient(ctx, &cfg.Redis)
		if err != nil {
			logger.Fatal().Err(err).Msg("redis")
		}
		defer redisClient.Close()
		limiter = red.NewRateLimiter(redisClient)

		var cipher *security.EncryptionService
		if cfg.Security.EncryptionKey != "" {
			cipher, err = security.NewEncryptionService(cfg.Security.EncryptionKey)
			if err != nil {
				logger.Fatal().Err(err).Msg("encryption")
			}
		}
		store = red.NewSessionStore(redisClient, cfg.Redis.TTL, cipher)
	} else {
		logger.Info().Msg("using in-memory session store")
		store = memkv.New()
	}

	// ---- Backend client ----
	creds := auth.NewTokenSource(cfg.Backend.Token, cfg.Backend.TokenFile)
	if tok, err := creds.Token(ctx); err == nil {
		if id, err := auth.ParseIdentity(tok); err == nil {
			logger.Info().Str("subject", id.Subject).Str("plan", id.PlanID).Msg("credential loaded")
			if auth.ExpiresWithin(id, 24*time.Hour) {
				logger.Warn().Time("expires_at", *id.ExpiresAt).Msg("credential expires soon")
			}
		}
	} else {
		logger.Warn().Msg("no bearer credential configured yet; backend calls will fail until one is set")
	}
	backend, err := analytics.NewClient(cfg.Backend.URL, creds, cfg.Backend.Timeout, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("backend client")
	}

	// ---- Registry + usecases ----
	reg := registry.New(logger)
	continuityUC := usecase.NewContinuityUseCase(store, cfg.Continuity.Staleness, logger)
	billingUC := usecase.NewBillingUseCase(backend, logger)
	resumeUC := usecase.NewResumeUseCase(store, billingUC, logger)
	trackerUC := usecase.NewTrackerUseCase(backend, reg, continuityUC, resumeUC, cfg.Analysis.MaxComments, logger)
	defer trackerUC.Close()
	askUC := usecase.NewAskUseCase(backend, continuityUC, resumeUC, logger)

	facade := application.NewClientFacade(trackerUC, askUC, billingUC, resumeUC, continuityUC, creds, logger)

	// ---- Completion notifier ----
	var notifier adapter.Notifier
	if cfg.Notify.Provider == "telegram" {
		notifier, err = notify.NewTelegramNotifier(cfg.Notify.Token, cfg.Notify.ChatID, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("telegram notifier")
		}
	} else {
		notifier = notify.NewNoopNotifier(logger)
	}
	pool := worker.NewPool(cfg.Notify.Workers, logger)
	pool.Start(ctx)
	defer pool.Stop()
	notifyWorker := sched.NewNotifyWorker(reg, notifier, pool, logger)
	go func() { _ = notifyWorker.Run(ctx) }()

	// ---- Bridge ----
	bridge := web.NewServer(web.ServerDeps{
		Facade:     facade,
		Tracker:    trackerUC,
		Ask:        askUC,
		Billing:    billingUC,
		Resume:     resumeUC,
		Continuity: continuityUC,
		Backend:    backend,
		Creds:      creds,
		Limiter:    limiter,
		RateLimit:  cfg.Bridge.RateLimit,
		APIKey:     cfg.Bridge.APIKey,
		Timeout:    cfg.Bridge.Timeout,
	}, logger)
	bridgeServer := &http.Server{
		Addr:    fmt.Sprintf("127.0.0.1:%d", cfg.Bridge.Port),
		Handler: bridge.Router(),
	}
	go func() {
		logger.Info().Str("addr", bridgeServer.Addr).Msg("bridge listening")
		if err := bridgeServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("bridge server")
		}
	}()

	// ---- Checkout return listener ----
	returnServer := httpapi.NewReturnServer(cfg.Return.Port, cfg.Return.Path, billingUC, logger)
	go func() {
		if err := returnServer.Start(); err != nil {
			logger.Error().Err(err).Msg("return listener")
		}
	}()

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	logger.Info().Msg("shutdown requested")
	cancel()

	shutCtx, shutCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutCancel()
	if err := bridgeServer.Shutdown(shutCtx); err != nil {
		logger.Warn().Err(err).Msg("bridge shutdown")
	}
	if err := returnServer.Shutdown(shutCtx); err != nil {
		logger.Warn().Err(err).Msg("return listener shutdown")
	}
}
