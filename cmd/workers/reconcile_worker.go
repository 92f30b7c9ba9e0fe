package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/quorumops/minutebook/internal/config"
	"github.com/quorumops/minutebook/internal/resolutions"
	"github.com/quorumops/minutebook/pkg/storage"
)

// sweepTimeout bounds a single reconcile sweep so overlapping runs
// cannot pile up behind a slow object store.
const sweepTimeout = 4 * time.Minute

func main() {
	godotenv.Load()

	cfg, err := config.LoadConfig(os.Getenv("CONFIG_PATH"))
	if err != nil {
		panic(err)
	}

	logger := buildLogger(cfg.Logging.Level)
	defer logger.Sync()

	if err := cfg.Validate(); err != nil {
		logger.Fatal("Invalid configuration", zap.Error(err))
	}

	// Connect to database
	db, err := sqlx.Connect("postgres", cfg.Database.URL)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		logger.Fatal("Failed to ping database", zap.Error(err))
	}

	// Connect to object storage
	store, err := storage.NewS3Client(context.Background(), storage.Options{
		Endpoint:        cfg.Storage.Endpoint,
		Region:          cfg.Storage.Region,
		AccessKeyID:     cfg.Storage.AccessKeyID,
		SecretAccessKey: cfg.Storage.SecretAccessKey,
		UsePathStyle:    cfg.Storage.UsePathStyle,
	})
	if err != nil {
		logger.Fatal("Failed to initialize object storage", zap.Error(err))
	}

	reconciler := resolutions.NewReconciler(
		resolutions.NewPostgresRepository(db),
		store,
		cfg.Storage.Bucket,
		cfg.Worker.BatchSize,
		cfg.Worker.Concurrency,
		logger,
	)

	runSweep := func() {
		ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
		defer cancel()

		if _, err := reconciler.ReconcileOnce(ctx); err != nil {
			logger.Error("Reconcile sweep failed", zap.Error(err))
		}
	}

	logger.Info("Reconcile worker starting",
		zap.String("schedule", cfg.Worker.ReconcileSchedule),
		zap.Int("batch_size", cfg.Worker.BatchSize),
		zap.Int("concurrency", cfg.Worker.Concurrency))

	// Sweep once at startup, then on the cron schedule
	runSweep()

	scheduler := cron.New()
	if _, err := scheduler.AddFunc(cfg.Worker.ReconcileSchedule, runSweep); err != nil {
		logger.Fatal("Invalid reconcile schedule",
			zap.String("schedule", cfg.Worker.ReconcileSchedule),
			zap.Error(err))
	}
	scheduler.Start()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutdown signal received")

	stopCtx := scheduler.Stop()
	<-stopCtx.Done()

	logger.Info("Reconcile worker stopped")
}

func buildLogger(level string) *zap.Logger {
	if level == "debug" {
		logger, _ := zap.NewDevelopment()
		return logger
	}
	logger, _ := zap.NewProduction()
	return logger
}
