// File: cmd/app/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"edu-content-subscription/internal/config"
	"edu-content-subscription/internal/infra/api"
	apiv1 "edu-content-subscription/internal/infra/api/apiv1"
	pg "edu-content-subscription/internal/infra/db/postgres"
	"edu-content-subscription/internal/infra/i18n"
	"edu-content-subscription/internal/infra/logging"
	"edu-content-subscription/internal/infra/metrics"
	red "edu-content-subscription/internal/infra/redis"
	"edu-content-subscription/internal/infra/sched"
	"edu-content-subscription/internal/usecase"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Info().Msg("[DEV MODE] Enabled")
	}

	metrics.MustRegister()

	// ---- Postgres ----
	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, cfg.Database.MaxConns)
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer pool.Close()

	// ---- Redis ----
	redisClient, err := red.NewClient(ctx, &cfg.Redis)
	if err != nil {
		log.Fatalf("redis: %v", err)
	}
	defer redisClient.Close()
	rateLimiter := red.NewRateLimiter(redisClient)

	// ---- Repositories ----
	codeRepo := pg.NewActivationCodeRepo(pool)
	profileRepo := pg.NewProfileRepo(pool)
	logRepo := pg.NewActivationLogRepo(pool)
	txm := pg.NewTxManager(pool)

	// ---- i18n ----
	translator, err := i18n.NewTranslator(i18n.LocalesFS, cfg.I18n.Lang)
	if err != nil {
		log.Fatalf("i18n: %v", err)
	}

	// ---- Use cases ----
	activationUC := usecase.NewActivationUseCase(codeRepo, profileRepo, logRepo, txm, translator, logger)
	entitlementUC := usecase.NewEntitlementUseCase(profileRepo, logger)

	// ---- HTTP ----
	tokens := api.NewTokenManager(cfg.Auth.HMACSecret, cfg.Auth.TokenTTL)

	r := chi.NewRouter()
	r.Use(
		api.TraceID(logger),
		api.RequestLog(logger),
		api.Recover(logger),
		api.Timeout(cfg.Server.RequestTimeout),
	)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Handle("/metrics", promhttp.Handler())

	srv := apiv1.NewServer(activationUC, entitlementUC, logger).
		WithRateLimit(rateLimiter, cfg.RateLimit.ValidateLimit, cfg.RateLimit.ValidateWindow, red.ValidateAttemptKey)
	r.Group(func(r chi.Router) {
		r.Use(tokens.Guard())
		apiv1.RegisterAPIV1(r, srv)
	})

	server := &http.Server{Addr: fmt.Sprintf(":%d", cfg.Server.Port), Handler: r}
	go func() {
		logger.Info().Str("addr", server.Addr).Msg("http server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("http server error")
		}
	}()

	// ---- Expiry worker ----
	worker := sched.NewExpiryWorker(cfg.Worker.ExpiryInterval, entitlementUC, logger)
	go func() { _ = worker.Run(ctx) }()

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	logger.Info().Msg("shutdown requested")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown error")
	}
}
