package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	migrate "github.com/rubenv/sql-migrate"
	"go.uber.org/zap"

	"github.com/johnquangdev/complexchaos/internal/adapter/handler"
	"github.com/johnquangdev/complexchaos/internal/adapter/repository"
	"github.com/johnquangdev/complexchaos/internal/infrastructure/cache"
	"github.com/johnquangdev/complexchaos/internal/infrastructure/database"
	"github.com/johnquangdev/complexchaos/internal/infrastructure/external/assemblyai"
	"github.com/johnquangdev/complexchaos/internal/infrastructure/storage"
	"github.com/johnquangdev/complexchaos/internal/usecase/participation"
	"github.com/johnquangdev/complexchaos/internal/usecase/synthesis"
	pkgai "github.com/johnquangdev/complexchaos/pkg/ai"
	"github.com/johnquangdev/complexchaos/pkg/config"
	pkglogger "github.com/johnquangdev/complexchaos/pkg/logger"
	pkgvalidator "github.com/johnquangdev/complexchaos/pkg/validator"
)

// @title           Complex Chaos API
// @version         1.0
// @description     Multi-stakeholder deliberation: perspectives in, consensus syntheses out
// @BasePath        /v1

const maxBodySize = "25M"

type locker interface {
	synthesis.Locker
	Close() error
}

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := pkglogger.New(cfg.Server.Environment)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	// Initialize Echo instance
	e := echo.New()
	e.Validator = pkgvalidator.New()
	e.HideBanner = true

	e.Use(middleware.RequestID())
	e.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Format: "${time_rfc3339} | ${id} | ${status} | ${method} ${uri} | ${latency_human}\n",
	}))
	e.Use(middleware.Recover())
	e.Use(middleware.BodyLimit(maxBodySize))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: cfg.Server.AllowedOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderXRequestID},
	}))

	logger.Info("🔧 Initializing dependencies...")

	// Database
	db, err := database.NewPostgresDB(cfg)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer database.CloseDB(db)

	// Migrations on boot only when explicitly enabled. Production deployments
	// run cmd/migrate instead.
	if cfg.Database.AutoMigrate {
		if cfg.IsProduction() {
			logger.Fatal("DB_AUTO_MIGRATE is enabled in production; run cmd/migrate instead")
		}
		n, err := database.Migrate(db, migrate.Up)
		if err != nil {
			logger.Fatal("Failed to apply migrations", zap.Error(err))
		}
		logger.Info("🔄 Migrations applied", zap.Int("count", n))
	}

	repo := repository.NewConsensusRepository(db)

	// Session lock
	locks, err := newLocker(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize session lock", zap.Error(err))
	}
	defer locks.Close()

	// Model provider
	completer, err := pkgai.NewOpenAIClient(&cfg.LLM, logger)
	if err != nil {
		logger.Fatal("Failed to initialize model client", zap.Error(err))
	}

	// Attachments are optional; nil interfaces disable them
	var objectStore participation.ObjectStore
	if cfg.StorageEnabled() {
		minioClient, err := storage.NewMinIOClient(context.Background(), &cfg.Storage)
		if err != nil {
			logger.Fatal("Failed to initialize object storage", zap.Error(err))
		}
		objectStore = minioClient
		logger.Info("📦 Object storage enabled", zap.String("bucket", cfg.Storage.BucketName))
	} else {
		logger.Warn("⚠️  STORAGE_ENDPOINT not set, attachment submissions disabled")
	}

	var transcriber participation.Transcriber
	if cfg.Assembly.APIKey != "" {
		transcriber = assemblyai.NewTranscriber(cfg.Assembly.APIKey, logger)
	} else {
		logger.Warn("⚠️  ASSEMBLYAI_API_KEY not set, audio submissions disabled")
	}

	participationService := participation.NewService(repo, objectStore, transcriber, logger)
	synthesisService := synthesis.NewService(repo, completer, locks, cfg.Synthesis.LockTTL, logger)

	router := handler.NewRouter(cfg,
		handler.NewSessionHandler(participationService, logger),
		handler.NewSynthesisHandler(synthesisService, participationService, logger),
	)
	router.Setup(e)

	// Start server
	go func() {
		addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
		logger.Info("🚀 Starting server",
			zap.String("addr", addr),
			zap.String("environment", cfg.Server.Environment),
			zap.String("model", completer.Model()),
		)

		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("🛑 Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		logger.Error("❌ Server forced to shutdown", zap.Error(err))
		return
	}

	logger.Info("✅ Server stopped gracefully")
}

// newLocker picks Redis when REDIS_ADDR is set and the in-process store otherwise
func newLocker(cfg *config.Config, logger *zap.Logger) (locker, error) {
	if cfg.Redis.Addr == "" {
		logger.Warn("⚠️  REDIS_ADDR not set, using in-memory session lock (single instance only)")
		return cache.NewMemoryStore(), nil
	}

	client, err := cache.NewRedisClient(&cfg.Redis)
	if err != nil {
		return nil, err
	}
	logger.Info("📦 Redis session lock enabled", zap.String("addr", cfg.Redis.Addr))
	return cache.NewRedisStore(client), nil
}
