// File: cmd/admin/main.go
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

	"call-stt-pipeline/internal/config"
	pg "call-stt-pipeline/internal/infra/db/postgres"
	"call-stt-pipeline/internal/infra/logging"
	"call-stt-pipeline/internal/infra/metrics"
	red "call-stt-pipeline/internal/infra/redis"
	"call-stt-pipeline/internal/infra/web"
	"call-stt-pipeline/internal/usecase"
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
	if cfg.Admin.JWTSecret == "" {
		log.Fatalf("admin.jwt_secret is required")
	}
	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	metrics.MustRegister()

	// ---- Postgres ----
	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, 5)
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
	locker := red.NewLocker(redisClient)
	records := pg.NewCallRecordRepo(pool)
	audit := pg.NewAuditLogRepo(pool)
	tm := pg.NewTxManager(pool)

	replayUC := usecase.NewReplayUseCase(queue, records, audit, tm, locker, logger)
	auth := web.NewAuthManager(cfg.Admin.JWTSecret, cfg.Admin.SessionTTL)
	srv := web.NewServer(replayUC, auth, logger)

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Admin.Port),
		Handler: srv.Router(),
	}
	go func() {
		logger.Info().Str("addr", server.Addr).Msg("admin api listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("admin server error")
		}
	}()

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	logger.Info().Msg("shutdown requested")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	_ = server.Shutdown(shutdownCtx)
	cancel()
}
