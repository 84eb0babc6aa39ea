package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"infinite-experiment/garrison/internal/api"
	"infinite-experiment/garrison/internal/common"
	"infinite-experiment/garrison/internal/config"
	"infinite-experiment/garrison/internal/db"
	"infinite-experiment/garrison/internal/logging"
	"infinite-experiment/garrison/internal/metrics"
	"infinite-experiment/garrison/internal/routes"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
)

// @title Garrison API
// @version 1.0
// @description Backend for the Garrison community bot.
// @BasePath /
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if err := logging.Init(cfg.Env); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logging.Close()

	logging.Info("Garrison starting up",
		"environment", cfg.Env,
		"db_driver", cfg.DBDriver,
		"session_store", cfg.SessionStore,
		"timestamp", time.Now().Format(time.RFC3339),
	)

	orm, err := db.InitORM(cfg)
	if err != nil {
		logging.Fatal("Failed to connect to database", "error", err.Error())
	}
	if err := db.Migrate(orm); err != nil {
		logging.Fatal("Failed to migrate database", "error", err.Error())
	}

	sqlDB, err := db.SQLXFromORM(orm, cfg.DBDriver)
	if err != nil {
		logging.Fatal("Failed to open sqlx handle", "error", err.Error())
	}

	var redisClient *redis.Client
	if cfg.RedisEnabled {
		redisClient = common.NewRedisClient(cfg.RedisAddr(), cfg.RedisPassword)
		pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		if err := redisClient.Ping(pingCtx).Err(); err != nil {
			logging.Warn("Redis not reachable at startup", "addr", cfg.RedisAddr(), "error", err.Error())
		}
		cancel()
	}

	promReg := prometheus.NewRegistry()
	promReg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metricsReg := metrics.NewMetricsRegistry(promReg)

	deps, err := api.InitDependencies(cfg, orm, sqlDB, redisClient, metricsReg)
	if err != nil {
		logging.Fatal("Failed to initialize dependencies", "error", err.Error())
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.MemberCountGuildID != "" {
		go deps.MemberCount.RunScheduled(ctx, cfg.MemberCountInterval)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           routes.RegisterRoutes(deps, promReg),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logging.Info("Server starting", "port", cfg.Port, "environment", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Fatal("Server failed", "error", err.Error())
		}
	}()

	<-ctx.Done()
	logging.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.Error("Graceful shutdown failed", "error", err.Error())
	}

	deps.Close()
	if redisClient != nil {
		_ = redisClient.Close()
	}
	if err := sqlDB.Close(); err != nil {
		logging.Warn("Failed to close database", "error", err.Error())
	}
}
