package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/stemsi/exprep-backend/internal/bank"
	"github.com/stemsi/exprep-backend/internal/config"
	"github.com/stemsi/exprep-backend/internal/database"
	"github.com/stemsi/exprep-backend/internal/handler"
	"github.com/stemsi/exprep-backend/internal/logger"
	"github.com/stemsi/exprep-backend/internal/repository"
	"github.com/stemsi/exprep-backend/internal/router"
	"github.com/stemsi/exprep-backend/internal/service"
	"github.com/stemsi/exprep-backend/internal/store"
	"github.com/stemsi/exprep-backend/internal/validator"
	"github.com/stemsi/exprep-backend/internal/worker"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat, nil)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("store", cfg.StoreDriver).
		Bool("remote_bank", cfg.RemoteBankEnabled).
		Bool("sync", cfg.SyncEnabled).
		Msg("Starting ExPrep Backend")

	// ─── Initialize Validator ──────────────────────────────────────────
	validator.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ─── Load Built-in Catalog ─────────────────────────────────────────
	local, err := bank.Catalog()
	if err != nil {
		log.Fatal().Err(err).Msg("Built-in question catalog is invalid")
	}
	log.Info().Int("questions", local.Len()).Msg("Catalog loaded")

	// ─── Connect to PostgreSQL ─────────────────────────────────────────
	// Accounts, published banks and the attempt mirror live here.
	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	// ─── Connect to Redis ──────────────────────────────────────────────
	// Redis carries the sync queue. Without it the server still runs with
	// cloud sync reported as offline.
	var rdb *redis.Client
	if cfg.SyncEnabled || cfg.StoreDriver == config.StoreDriverRedis {
		rdb, err = database.NewRedisClient(ctx, cfg, log)
		if err != nil {
			if cfg.StoreDriver == config.StoreDriverRedis {
				log.Fatal().Err(err).Msg("Failed to connect to Redis")
			}
			log.Warn().Err(err).Msg("Redis unavailable, cloud sync disabled")
			rdb = nil
		} else {
			defer rdb.Close()
		}
	}

	// ─── Learner Store ─────────────────────────────────────────────────
	kv, purger, closeStore := openStore(ctx, cfg, pool, rdb, log)
	defer closeStore()
	profile := store.NewProfile(kv, log)

	// ─── Initialize Repositories ───────────────────────────────────────
	accountRepo := repository.NewAccountRepository(pool)
	bankRepo := repository.NewBankRepository(pool)
	mirrorRepo := repository.NewAttemptMirrorRepository(pool)

	// ─── Initialize Services ──────────────────────────────────────────
	authService := service.NewAuthService(cfg, accountRepo, kv, log)
	syncService := service.NewSyncService(cfg, rdb, log)
	bankService := service.NewBankService(cfg, local, bankRepo, profile, log)
	sessionService := service.NewSessionService(cfg, bankService, profile, syncService, log)
	flashcardService := service.NewFlashcardService(bankService, profile, log)
	progressService := service.NewProgressService(bankService, flashcardService, profile, log)
	settingService := service.NewSettingService(profile, log)

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		Auth:      handler.NewAuthHandler(authService),
		Bank:      handler.NewBankHandler(bankService, log),
		Session:   handler.NewSessionHandler(sessionService, log),
		Flashcard: handler.NewFlashcardHandler(flashcardService),
		Progress:  handler.NewProgressHandler(progressService),
		Setting:   handler.NewSettingHandler(settingService),
		Sync:      handler.NewSyncHandler(syncService, log, cfg.AllowedOrigins),
		System:    handler.NewSystemHandler(cfg, pool, rdb, bankService, log),
	}

	// ─── Start Background Workers ─────────────────────────────────────
	workerCtx, workerCancel := context.WithCancel(context.Background())
	var workers sync.WaitGroup

	if syncService.Enabled() {
		syncWorker := worker.NewSyncWorker(cfg, rdb, mirrorRepo, syncService, log)
		workers.Go(func() { syncWorker.Start(workerCtx) })
	}
	if purger != nil {
		expiryWorker := worker.NewExpiryWorker(purger, log)
		workers.Go(func() { expiryWorker.Start(workerCtx) })
	}

	// ─── Prewarm Remote Bank ──────────────────────────────────────────
	// Resolve the published bank once before accepting traffic so the first
	// learner does not pay for the load.
	if cfg.RemoteBankEnabled {
		b := bankService.Base(ctx)
		log.Info().Str("version", b.Version).Int("questions", b.Len()).Msg("Active bank resolved")
	}

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(ctx, authService, handlers, cfg)

	// ─── Create HTTP Server ────────────────────────────────────────────
	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// ─── Start Server in Goroutine ─────────────────────────────────────
	go func() {
		log.Info().Str("addr", ":"+cfg.ServerPort).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	// ─── Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully...")

	// 1. Stop accepting new HTTP requests (5s timeout).
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	// 2. Let in-flight submissions finish queueing their mirror tasks.
	sessionService.Wait()

	// 3. Stop background workers and wait for queues to drain.
	workerCancel()
	workers.Wait()

	log.Info().Msg("Shutdown complete")
}

// openStore builds the learner key-value backend selected by STORE_DRIVER.
// purger is nil for backends that expire keys themselves.
func openStore(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool, rdb *redis.Client, log zerolog.Logger) (kv store.KV, purger store.Purger, closeFn func()) {
	closeFn = func() {}

	switch cfg.StoreDriver {
	case config.StoreDriverPostgres:
		pg := store.NewPostgresKV(pool)
		return pg, pg, closeFn

	case config.StoreDriverRedis:
		return store.NewRedisKV(rdb), nil, closeFn

	case config.StoreDriverSQLite:
		db, err := database.NewSQLiteDB(ctx, cfg.SQLitePath, log)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to open SQLite")
		}
		lite, err := store.NewSQLiteKV(ctx, db)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to prepare SQLite store")
		}
		return lite, lite, func() { db.Close() }

	case config.StoreDriverMemory:
		log.Warn().Msg("Learner data is kept in memory and lost on restart")
		mem := store.NewMemoryKV()
		return mem, mem, closeFn

	default:
		log.Fatal().Str("driver", cfg.StoreDriver).Msg("Unknown STORE_DRIVER")
		return nil, nil, closeFn
	}
}
