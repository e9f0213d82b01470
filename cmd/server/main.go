// @title CrossList API
// @version 1.0
// @description Marketplace cross-listing and synchronization service.
// @BasePath /api/v1
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/crosslist/backend/internal/application/lifecycle"
	"github.com/crosslist/backend/internal/domain/marketplace"
	"github.com/crosslist/backend/internal/domain/shared"
	"github.com/crosslist/backend/internal/infrastructure/config"
	"github.com/crosslist/backend/internal/infrastructure/logger"
	infraMarketplace "github.com/crosslist/backend/internal/infrastructure/marketplace"
	"github.com/crosslist/backend/internal/infrastructure/notification"
	"github.com/crosslist/backend/internal/infrastructure/persistence"
	"github.com/crosslist/backend/internal/infrastructure/scheduler"
	"github.com/crosslist/backend/internal/interfaces/http/handler"
	"github.com/crosslist/backend/internal/interfaces/http/router"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	defer logger.Sync(log)

	log.Info("Starting crosslist server",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
	)

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Database
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Failed to close database", zap.Error(err))
		}
	}()

	// Repositories
	listingRepo := persistence.NewGormListingRepository(db.DB)
	platformRepo := persistence.NewGormPlatformListingRepository(db.DB)
	syncLogRepo := persistence.NewGormSyncLogRepository(db.DB)

	// Marketplace adapters
	registry, err := infraMarketplace.NewRegistryFromConfig(cfg.Marketplaces)
	if err != nil {
		log.Fatal("Failed to build marketplace registry", zap.Error(err))
	}

	// Notification sinks. The structured log sink is always on; the redis
	// channel is opt-in.
	sinks := []marketplace.Notifier{notification.NewLogNotifier(log)}
	if cfg.Notification.RedisEnabled {
		redisNotifier, err := notification.NewRedisNotifier(&cfg.Redis, &cfg.Notification)
		if err != nil {
			log.Fatal("Failed to connect to redis", zap.Error(err))
		}
		defer func() {
			if err := redisNotifier.Close(); err != nil {
				log.Error("Failed to close redis notifier", zap.Error(err))
			}
		}()
		sinks = append(sinks, redisNotifier)
	}
	notifier := notification.NewCompositeNotifier(sinks...)

	clock := shared.NewSystemClock()

	// Application services
	listingService := lifecycle.NewListingService(listingRepo, platformRepo, registry, syncLogRepo, clock, log)
	saleService := lifecycle.NewSaleService(
		listingRepo, platformRepo, registry, syncLogRepo, notifier, clock, log,
		lifecycle.WithDelistDelay(cfg.Delist.Delay),
		lifecycle.WithAdapterTimeout(cfg.Delist.AdapterTimeout),
	)
	statusSyncService := lifecycle.NewStatusSyncService(platformRepo, registry, syncLogRepo, clock, log)
	retirementService := lifecycle.NewRetirementService(
		platformRepo, registry, syncLogRepo, notifier, clock, log,
		lifecycle.RetirementConfig{
			BatchSize:      cfg.Delist.BatchSize,
			Workers:        cfg.Delist.Workers,
			AdapterTimeout: cfg.Delist.AdapterTimeout,
			RetryCooldown:  cfg.Delist.RetryCooldown,
			MaxAttempts:    cfg.Delist.MaxAttempts,
		},
	)
	archiveService := lifecycle.NewArchiveService(
		listingRepo, syncLogRepo, clock, log,
		cfg.Archive.Retention, cfg.Archive.BatchSize,
	)

	// Background sweepers
	delistSweeper, err := scheduler.NewDelistSweeper(retirementService, log, scheduler.DelistSweeperConfig{
		Enabled:      true,
		Interval:     cfg.Delist.SweepInterval,
		SweepTimeout: 5 * time.Minute,
	})
	if err != nil {
		log.Fatal("Failed to build delist sweeper", zap.Error(err))
	}
	archiveSweeper, err := scheduler.NewArchiveSweeper(archiveService, log, scheduler.ArchiveSweeperConfig{
		Enabled:      cfg.Archive.Enabled,
		Interval:     cfg.Archive.SweepInterval,
		SweepTimeout: 10 * time.Minute,
	})
	if err != nil {
		log.Fatal("Failed to build archive sweeper", zap.Error(err))
	}

	sweeperCtx, stopSweepers := context.WithCancel(context.Background())
	defer stopSweepers()
	if err := delistSweeper.Start(sweeperCtx); err != nil {
		log.Fatal("Failed to start delist sweeper", zap.Error(err))
	}
	if err := archiveSweeper.Start(sweeperCtx); err != nil {
		log.Fatal("Failed to start archive sweeper", zap.Error(err))
	}

	// HTTP layer
	engine := router.NewEngine(log, cfg.HTTP.MaxBodySize, nil)
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Fatal("Invalid trusted proxies", zap.Error(err))
		}
	}

	// Health probe sits outside the versioned API group.
	handler.NewSystemHandler(db).RegisterRoutes(engine.Group(""))

	router.NewRouter(engine).
		Register(handler.NewListingHandler(listingService)).
		Register(handler.NewSaleHandler(saleService, statusSyncService)).
		Register(handler.NewAdminHandler(delistSweeper, archiveService, platformRepo)).
		Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	stopSweepers()
	if err := delistSweeper.Stop(shutdownCtx); err != nil {
		log.Error("Delist sweeper did not stop cleanly", zap.Error(err))
	}
	if err := archiveSweeper.Stop(shutdownCtx); err != nil {
		log.Error("Archive sweeper did not stop cleanly", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}
