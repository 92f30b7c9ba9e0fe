package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/quorumops/minutebook/internal/auth"
	"github.com/quorumops/minutebook/internal/certificates"
	"github.com/quorumops/minutebook/internal/config"
	"github.com/quorumops/minutebook/internal/registry"
	"github.com/quorumops/minutebook/internal/resolutions"
	"github.com/quorumops/minutebook/pkg/storage"
)

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

	db.SetMaxOpenConns(cfg.Database.MaxConnections)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.Database.MaxLifetime)

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

	// Resolution renderer
	resolutionOpts := resolutions.DefaultPDFOptions()
	resolutionOpts.OrgName = cfg.Branding.OrgName
	resolutionsRepo := resolutions.NewPostgresRepository(db)
	resolutionsService := resolutions.NewService(resolutionsRepo, store,
		resolutions.NewPDFRenderer(resolutionOpts), cfg.Storage.Bucket, logger)
	resolutionsHandler := resolutions.NewHandler(resolutionsService, logger)

	// Certificate renderer
	certificateOpts := certificates.DefaultPDFOptions()
	certificateOpts.OrgName = cfg.Branding.OrgName
	certificatesService := certificates.NewService(certificates.NewPostgresResolver(db),
		certificates.NewPDFRenderer(certificateOpts), logger)
	certificatesHandler := certificates.NewHandler(certificatesService, logger)

	// Registry reads
	registryService := registry.NewService(registry.NewRepository(db), store,
		cfg.Storage.Bucket, cfg.Storage.PresignTTL, logger)
	registryHandler := registry.NewHandler(registryService, logger)

	// Setup router
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	// CORS middleware
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	// Register routes
	api := router.Group("/api/v1")
	api.Use(auth.Middleware(cfg.Auth.JWTSecret, cfg.Service.APIKey, logger))
	{
		resolutionsHandler.RegisterRoutes(api)
		certificatesHandler.RegisterRoutes(api)
		registryHandler.RegisterRoutes(api)
	}

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":    "healthy",
			"timestamp": time.Now(),
		})
	})

	// Start server
	srv := &http.Server{
		Addr:         cfg.Server.GetServerAddr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	logger.Info("Server started",
		zap.String("addr", srv.Addr),
		zap.String("bucket", cfg.Storage.Bucket))

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exiting")
}

func buildLogger(level string) *zap.Logger {
	if level == "debug" {
		logger, _ := zap.NewDevelopment()
		return logger
	}
	logger, _ := zap.NewProduction()
	return logger
}
