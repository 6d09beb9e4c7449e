package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stwalsh4118/wealthmap/internal/client"
	"github.com/stwalsh4118/wealthmap/internal/config"
	"github.com/stwalsh4118/wealthmap/internal/database"
	apierrors "github.com/stwalsh4118/wealthmap/internal/errors"
	"github.com/stwalsh4118/wealthmap/internal/handlers"
	"github.com/stwalsh4118/wealthmap/internal/logger"
	"github.com/stwalsh4118/wealthmap/internal/maplayer"
	"github.com/stwalsh4118/wealthmap/internal/middleware"
	"github.com/stwalsh4118/wealthmap/internal/models"
	"github.com/stwalsh4118/wealthmap/internal/persistence"
	"github.com/stwalsh4118/wealthmap/internal/report"
	"github.com/stwalsh4118/wealthmap/internal/repository"
	"github.com/stwalsh4118/wealthmap/internal/scheduler"
	"github.com/stwalsh4118/wealthmap/internal/services"
	"github.com/stwalsh4118/wealthmap/internal/storage"
)

const (
	shutdownTimeout = 30 * time.Second
)

func main() {
	// Load configuration from environment variables
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize structured logger
	log := logger.New(cfg.Server.Env)
	if cfg.Server.LogLevel != "" {
		if err := log.SetLevel(cfg.Server.LogLevel); err != nil {
			log.Warn("Ignoring invalid LOG_LEVEL", map[string]interface{}{
				"level": cfg.Server.LogLevel,
			})
		}
	}
	log.Info("Starting Wealth Map API", map[string]interface{}{
		"version":     handlers.APIVersion,
		"environment": cfg.Server.Env,
		"port":        cfg.Server.Port,
	})

	// Create database connection pool
	ctx := context.Background()
	db, err := database.NewPostgresPool(ctx, cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database", err, map[string]interface{}{
			"host": cfg.Database.Host,
			"port": cfg.Database.Port,
			"name": cfg.Database.Name,
		})
	}
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		log.Fatal("Failed to migrate database", err, nil)
	}

	log.Info("Database connection established", map[string]interface{}{
		"host":     cfg.Database.Host,
		"port":     cfg.Database.Port,
		"database": cfg.Database.Name,
		"pool_min": cfg.Database.PoolMin,
		"pool_max": cfg.Database.PoolMax,
		"sslmode":  cfg.Database.SSLMode,
	})

	// Property data comes from our own table or an upstream API
	var source services.PropertySource
	switch cfg.Source.Kind {
	case config.SourceUpstream:
		source = client.NewPropertyClient(cfg.Source.UpstreamURL, cfg.Source.Timeout)
	default:
		source = repository.NewPropertyRepository(db)
	}
	log.Info("Property source selected", map[string]interface{}{
		"source": cfg.Source.Kind,
	})

	deps := map[string]handlers.Pinger{"database": db}

	// Key/value state: bookmarks and the last map view
	var store persistence.Gateway
	if cfg.Local.BookmarkStore == config.StoreLocal {
		local, err := persistence.OpenLocalStore(ctx, cfg.Local.StorePath)
		if err != nil {
			log.Fatal("Failed to open local store", err, map[string]interface{}{
				"path": cfg.Local.StorePath,
			})
		}
		defer local.Close()
		store = local
		deps["local_store"] = local
	} else {
		store = persistence.NewRemoteStore(db)
	}

	brackets := maplayer.DefaultBrackets
	if cfg.Map.BracketsFile != "" {
		brackets, err = maplayer.LoadBrackets(cfg.Map.BracketsFile)
		if err != nil {
			log.Fatal("Failed to load price brackets", err, map[string]interface{}{
				"path": cfg.Map.BracketsFile,
			})
		}
	}

	// Initialize repository and service layers
	sessions := services.NewSessions(store, services.SessionDefaults{
		Center:         models.LatLng{Lat: cfg.Map.DefaultLat, Lng: cfg.Map.DefaultLng},
		Zoom:           cfg.Map.DefaultZoom,
		Brackets:       brackets,
		ClusterIcon:    maplayer.SizedClusterIcon(cfg.Map.ClusterMediumAt, cfg.Map.ClusterLargeAt),
		HeatmapDivisor: cfg.Map.HeatmapDivisor,
	}, log.WithComponent("sessions"))

	propertyService := services.NewPropertyService(source, log)
	mapService := services.NewMapService(sessions, propertyService, log)
	viewService := services.NewViewService(repository.NewViewRepository(db), sessions, log)
	searchService := services.NewSearchService(repository.NewSearchRepository(db), mapService, log)
	favoriteService := services.NewFavoriteService(repository.NewFavoriteRepository(db), sessions, log)
	bookmarkService := services.NewBookmarkService(store, propertyService, log)

	var uploader services.Uploader
	if cfg.Report.UploadEnabled() {
		s3, err := storage.NewS3Uploader(ctx, cfg.Report)
		if err != nil {
			log.Fatal("Failed to configure report storage", err, map[string]interface{}{
				"bucket": cfg.Report.Bucket,
			})
		}
		uploader = s3
	}
	composer := report.NewComposer(cfg.Report.ChartTimeout, log.WithComponent("report"))
	reportService := services.NewReportService(propertyService, mapService, composer, uploader, log)

	// Background jobs
	jobs := scheduler.New(cfg.Scheduler, mapService, log.WithComponent("scheduler"))
	if err := jobs.Start(); err != nil {
		log.Fatal("Failed to start scheduler", err, map[string]interface{}{
			"spec": cfg.Scheduler.SweepCron,
		})
	}

	// Setup Gin router
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	if err := apierrors.SetupValidator(); err != nil {
		log.Fatal("Failed to register validation messages", err, nil)
	}
	router := gin.New()

	// Add middleware in order: RequestID -> Logger -> Recovery -> CORS
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(log))
	router.Use(middleware.Recovery(log))
	router.Use(middleware.CORS(cfg.CORS.Origins))

	// Register health check routes
	healthHandler := handlers.NewHealthHandler(deps, sessions, cfg.Server.Env)
	router.GET("/health", healthHandler.Health)
	router.GET("/health/ready", healthHandler.Ready)
	router.GET("/api/v1/info", healthHandler.Info)

	// Register API v1 routes
	api := &handlers.API{
		Properties: handlers.NewPropertyHandler(propertyService),
		Map:        handlers.NewMapHandler(mapService),
		Views:      handlers.NewViewHandler(viewService),
		Searches:   handlers.NewSearchHandler(searchService),
		Saved:      handlers.NewSavedHandler(bookmarkService, favoriteService),
		Reports:    handlers.NewReportHandler(reportService),
	}
	v1 := router.Group("/api/v1")
	v1.Use(middleware.Identity())
	api.Register(v1)

	// Create HTTP server
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: router,
	}

	// Start server in goroutine
	go func() {
		log.Info("Server listening", map[string]interface{}{
			"port": cfg.Server.Port,
			"addr": srv.Addr,
		})
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Server failed to start", err, nil)
		}
	}()

	// Wait for interrupt signal (SIGINT or SIGTERM)
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	// Graceful shutdown
	log.Info("Shutting down server...", nil)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", err, map[string]interface{}{
			"timeout": shutdownTimeout.String(),
		})
	}
	if err := jobs.Stop(shutdownCtx); err != nil {
		log.Error("Scheduler did not stop in time", err, nil)
	}

	log.Info("Server exited", nil)
}
