package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/kiosko-dev/backend-consign/internal/config"
	"github.com/kiosko-dev/backend-consign/internal/db"
	"github.com/kiosko-dev/backend-consign/internal/listing"
	"github.com/kiosko-dev/backend-consign/internal/obs"
	"github.com/kiosko-dev/backend-consign/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logFormat := envOrDefault("OBS_LOG_FORMAT", "json")
	logLevel := envOrDefault("OBS_LOG_LEVEL", "info")
	logger := obs.NewLogger(logFormat, logLevel).With().Str("component", "worker").Logger()

	obs.MustRegisterDomainMetrics(envOrDefault("OBS_METRICS_NAMESPACE", "consign"), nil)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL, "consign-worker")
	if err != nil {
		logger.Fatal().Err(err).Msg("connect database")
	}
	defer pool.Close()

	redisOpt, err := asynq.ParseRedisURI(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse redis url")
	}

	sweeper := &worker.Sweeper{
		Store:  &listing.Store{Pool: pool},
		Logger: logger,
	}

	mux := asynq.NewServeMux()
	mux.Handle(worker.TaskExpirySweep, sweeper)

	scheduler := asynq.NewScheduler(redisOpt, nil)
	cronspec := fmt.Sprintf("@every %s", cfg.ExpirySweepInterval)
	if _, err := scheduler.Register(cronspec, worker.NewExpirySweepTask()); err != nil {
		logger.Fatal().Err(err).Msg("register expiry sweep")
	}
	if err := scheduler.Start(); err != nil {
		logger.Fatal().Err(err).Msg("start scheduler")
	}
	defer scheduler.Shutdown()

	srv := asynq.NewServer(redisOpt, asynq.Config{Concurrency: 2})

	logger.Info().Str("interval", cfg.ExpirySweepInterval.String()).Msg("worker starting")
	go func() {
		<-ctx.Done()
		srv.Shutdown()
	}()
	if err := srv.Run(mux); err != nil {
		logger.Error().Err(err).Msg("worker stopped with error")
		return
	}
	logger.Info().Msg("worker shutdown complete")
}

func envOrDefault(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		trimmed := strings.TrimSpace(val)
		if trimmed != "" {
			return trimmed
		}
	}
	return fallback
}
