// File: /main.go
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"sushicount-api/config"
	"sushicount-api/database"
	"sushicount-api/jobs"
	"sushicount-api/logger"
	"sushicount-api/repositories"
	"sushicount-api/routes"
	"sushicount-api/services"
	"sushicount-api/storage"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Init("info", "production")
		logger.Fatal("Invalid configuration", err)
	}

	logger.Init(cfg.LogLevel, cfg.AppEnv)
	defer logger.Sync()

	// Initialize database
	db, err := database.Initialize(cfg)
	if err != nil {
		logger.Fatal("Failed to connect to database", err)
	}

	// Run migrations
	if err := database.Migrate(db); err != nil {
		logger.Fatal("Failed to migrate database", err)
	}

	blobs, err := newBlobStore(context.Background(), cfg, db)
	if err != nil {
		logger.Fatal("Failed to initialize blob store", err)
	}

	if cfg.SeedData {
		if err := database.SeedData(context.Background(), db, blobs, cfg.SeedFile); err != nil {
			logger.Warn("Failed to seed database", "error", err)
		}
	}

	if cfg.IsDevelopment() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	// Answered friend requests are purged after the retention window; 0 keeps them forever
	if cfg.FriendRequestRetention > 0 && cfg.CleanupInterval > 0 {
		cleanupJob := jobs.NewFriendRequestCleanupJob(repositories.NewFriendRepository(db), cfg.CleanupInterval, cfg.FriendRequestRetention)
		cleanupJob.Start()
		defer cleanupJob.Stop()
	}

	router := routes.NewRouter(db, cfg, blobs, services.NewNotifier(cfg))

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Starting SushiCount API server", "port", cfg.Port, "env", cfg.AppEnv)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}
}

func newBlobStore(ctx context.Context, cfg *config.Config, db *gorm.DB) (storage.BlobStore, error) {
	if cfg.BlobBackend == config.BlobBackendMinio {
		return storage.NewMinioStore(ctx, cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey, cfg.MinioBucket, cfg.MinioUseSSL)
	}
	return storage.NewDatabaseStore(db), nil
}
