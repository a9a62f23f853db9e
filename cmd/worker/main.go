// File: cmd/worker/main.go
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

	"call-stt-pipeline/internal/config"
	pg "call-stt-pipeline/internal/infra/db/postgres"
	"call-stt-pipeline/internal/infra/logging"
	"call-stt-pipeline/internal/infra/metrics"
	red "call-stt-pipeline/internal/infra/redis"
	"call-stt-pipeline/internal/infra/stt"
	"call-stt-pipeline/internal/infra/worker"

	"github.com/prometheus/client_golang/prometheus/promhttp"
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
	metrics.MustRegister()

	// ---- Postgres ----
	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, 10)
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

	queue := red.NewJobQueue(redisClient, logger)
	records := pg.NewCallRecordRepo(pool)
	router := stt.NewRouter(&cfg.STT, logger)

	// ---- Metrics exporter ----
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	metricsSrv := &http.Server{Addr: fmt.Sprintf(":%d", cfg.Worker.MetricsPort), Handler: mux}
	go func() {
		logger.Info().Str("addr", metricsSrv.Addr).Msg("worker metrics exporter listening")
		if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("metrics server error")
		}
	}()

	// ---- Worker loops ----
	loops := worker.NewPool(cfg.Worker.Count)
	loops.Start(ctx)
	for i := 0; i < cfg.Worker.Count; i++ {
		w := worker.NewSTTWorker(
			queue, records, router,
			cfg.Worker.MaxRetries, cfg.Worker.BaseBackoff, cfg.Worker.IdleSleep,
			logger,
		)
		if err := loops.Submit(func(ctx context.Context) error {
			w.RunForever(ctx, cfg.Worker.FetchTimeout)
			return nil
		}); err != nil {
			log.Fatalf("worker pool: %v", err)
		}
	}
	logger.Info().Int("count", cfg.Worker.Count).Msg("stt workers started")

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	logger.Info().Msg("shutdown requested")
	cancel()
	_ = metricsSrv.Close()
	loops.Stop()
}
