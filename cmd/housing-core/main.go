package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/RishHolt/Urban-Planning-Sys-sub000/internal/config"
	"github.com/RishHolt/Urban-Planning-Sys-sub000/internal/database"
	httpapi "github.com/RishHolt/Urban-Planning-Sys-sub000/internal/http"
	"github.com/RishHolt/Urban-Planning-Sys-sub000/internal/logger"
	"github.com/RishHolt/Urban-Planning-Sys-sub000/internal/repository"
	"github.com/RishHolt/Urban-Planning-Sys-sub000/internal/screening"
	"github.com/RishHolt/Urban-Planning-Sys-sub000/internal/service"
	"github.com/RishHolt/Urban-Planning-Sys-sub000/internal/store"
	"github.com/RishHolt/Urban-Planning-Sys-sub000/internal/waitlist"
)

func main() {
	cfg := config.Load()

	zapLogger, err := logger.NewLogger(cfg.Log.Level, cfg.Log.Format, "housing-core")
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	defer zapLogger.Sync()

	zapLogger.Info("Starting housing-core",
		zap.String("http_addr", cfg.HTTP.Addr),
		zap.Bool("db_enabled", cfg.DBEnabled),
		zap.Duration("sweep_interval", cfg.Engine.SweepInterval),
	)

	// Redis backs the waitlist snapshot cache. The service degrades to
	// uncached reads when Redis is unreachable.
	var kv store.KV
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		zapLogger.Warn("Redis unreachable, snapshot caching disabled", zap.Error(err))
		redisClient.Close()
		redisClient = nil
	} else {
		kv = store.NewRedisKV(redisClient)
	}

	// Postgres is the system of record; the in-memory store keeps local
	// development and demos runnable without one.
	var repos repository.Repos
	var db interface{ Close() error }
	if cfg.DBEnabled {
		pg, err := database.NewPostgresDB(&cfg.Database)
		if err != nil {
			zapLogger.Fatal("Failed to connect to database", zap.Error(err))
		}
		db = pg
		repos = repository.Repos{
			Beneficiaries: repository.NewPostgresBeneficiariesRepo(pg),
			Blacklist:     repository.NewPostgresBlacklistRepo(pg),
			Programs:      repository.NewPostgresProgramsRepo(pg),
			Applications:  repository.NewPostgresApplicationsRepo(pg),
			Waitlist:      repository.NewPostgresWaitlistRepo(pg),
			Units:         repository.NewPostgresUnitsRepo(pg),
			Allocations:   repository.NewPostgresAllocationsRepo(pg),
			History:       repository.NewPostgresHistoryRepo(pg),
		}
		zapLogger.Info("Using PostgreSQL repositories", zap.String("database", cfg.Database.Database))
	} else {
		repos = repository.NewMemoryStore().Repos()
		zapLogger.Warn("DB disabled, using in-memory repositories (data is not persisted)")
	}

	screener := screening.NewScreener(cfg.Engine.SimilarityFloor, zapLogger)
	manager := waitlist.NewManager(repos.Waitlist, kv, cfg.Engine.SnapshotTTL, zapLogger)

	appService := service.NewApplicationService(repos, screener, manager, zapLogger)
	waitlistService := service.NewWaitlistService(repos, manager, zapLogger)
	allocService := service.NewAllocationService(repos, manager, cfg.Engine.AcceptanceWindowDays, zapLogger)

	router := httpapi.NewRouter(zapLogger)
	router.RegisterApplicationRoutes(httpapi.NewApplicationHandler(appService, zapLogger))
	router.RegisterWaitlistRoutes(httpapi.NewWaitlistHandler(waitlistService, zapLogger))
	router.RegisterAllocationRoutes(httpapi.NewAllocationHandler(allocService, zapLogger))

	server := service.NewServer(cfg.HTTP.Addr, router, zapLogger)

	sweepCtx, cancelSweep := context.WithCancel(context.Background())
	sweeper := service.NewSweepRunner(allocService, cfg.Engine.SweepInterval, zapLogger)
	go sweeper.Start(sweepCtx)

	go func() {
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	zapLogger.Info("Received shutdown signal", zap.String("signal", sig.String()))

	cancelSweep()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Stop(shutdownCtx); err != nil {
		zapLogger.Error("HTTP server shutdown error", zap.Error(err))
	}

	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			zapLogger.Error("Redis close error", zap.Error(err))
		}
	}
	if db != nil {
		if err := db.Close(); err != nil {
			zapLogger.Error("Database close error", zap.Error(err))
		}
	}

	zapLogger.Info("housing-core stopped")
}
