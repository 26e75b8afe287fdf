package main

import (
	"context"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"wompi_webhook/api"
	"wompi_webhook/internal/config"
	"wompi_webhook/internal/dedup"
	"wompi_webhook/internal/reconcile"
	"wompi_webhook/internal/rollbase"
)

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	cfg, err := config.Load(logger)
	if err != nil {
		logger.Fatal("invalid configuration", zap.Error(err))
	}
	if cfg.Development() {
		logger, _ = zap.NewDevelopment()
		defer logger.Sync()
	}

	client := rollbase.NewClient(cfg.Rollbase, logger.Named("rollbase"))
	defer client.Close()

	var guard dedup.Guard = dedup.Noop{}
	if cfg.DedupRedisAddr != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		redisGuard, err := dedup.Open(ctx, cfg.DedupRedisAddr, cfg.DedupRedisPassword, cfg.DedupTTL)
		cancel()
		if err != nil {
			logger.Warn("duplicate guard disabled", zap.Error(err))
		} else {
			defer redisGuard.Close()
			guard = redisGuard
			logger.Info("duplicate guard enabled", zap.String("addr", cfg.DedupRedisAddr), zap.Duration("ttl", cfg.DedupTTL))
		}
	}

	if cfg.EventsSecret == "" {
		logger.Warn("WOMPI_EVENTS_SECRET not set, signatures are not verified")
	}

	svc := reconcile.NewService(client, guard, logger.Named("reconcile"))

	if !cfg.Development() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := api.NewRouter(svc, api.Options{
		EventsSecret:     cfg.EventsSecret,
		EnforceSignature: cfg.EnforceSignature,
	}, logger.Named("api"))

	if err := r.Run(":" + cfg.Port); err != nil {
		panic(fmt.Errorf("error trying to start server: %v", err))
	}
}
