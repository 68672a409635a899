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
	"github.com/stwalsh4118/rackplan/internal/config"
	"github.com/stwalsh4118/rackplan/internal/database"
	"github.com/stwalsh4118/rackplan/internal/handlers"
	"github.com/stwalsh4118/rackplan/internal/logger"
	"github.com/stwalsh4118/rackplan/internal/metrics"
	"github.com/stwalsh4118/rackplan/internal/middleware"
	"github.com/stwalsh4118/rackplan/internal/reference"
	"github.com/stwalsh4118/rackplan/internal/repository"
	"github.com/stwalsh4118/rackplan/internal/seismic"
	"github.com/stwalsh4118/rackplan/internal/services"
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
	log.Info("Starting RackPlan API", map[string]interface{}{
		"version":         handlers.APIVersion,
		"environment":     cfg.Server.Env,
		"port":            cfg.Server.Port,
		"markets_version": reference.MarketsVersion(),
	})

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	// The lookup store is optional; without it lookups are cached in memory only
	var (
		store       seismic.Store
		lookupStore handlers.Store
	)
	if cfg.Database.Enabled {
		db, err := database.NewPostgresPool(ctx, cfg.Database)
		if err != nil {
			log.Fatal("Failed to connect to database", err, map[string]interface{}{
				"host": cfg.Database.Host,
				"port": cfg.Database.Port,
				"name": cfg.Database.Name,
			})
		}
		defer db.Close()

		log.Info("Database connection established", map[string]interface{}{
			"host":     cfg.Database.Host,
			"port":     cfg.Database.Port,
			"database": cfg.Database.Name,
			"pool_min": cfg.Database.PoolMin,
			"pool_max": cfg.Database.PoolMax,
		})

		lookups := repository.NewSiteLookupRepository(db)
		go purgeExpired(ctx, lookups, cfg.Lookup.CacheTTL, log)
		store = lookups
		lookupStore = db
	} else {
		log.Info("Lookup store disabled, caching lookups in memory", nil)
	}

	// External lookups and the resolver
	geocoder := seismic.NewNominatimGeocoder(cfg.Lookup.GeocoderURL, cfg.Lookup.UserAgent, cfg.Lookup.Timeout, cfg.Lookup.GeocoderRatePerSec)
	hazard := seismic.NewUSGSClient(cfg.Lookup.HazardURL, cfg.Lookup.UserAgent, cfg.Lookup.Timeout)
	resolver := seismic.NewResolver(geocoder, hazard, seismic.Options{
		Policy: seismic.RetryPolicy{
			Timeout:    cfg.Lookup.Timeout,
			MaxRetries: cfg.Lookup.MaxRetries,
			Backoff:    cfg.Lookup.Backoff,
		},
		CacheTTL: cfg.Lookup.CacheTTL,
		Store:    store,
	}, log.Component("resolver"))

	// Initialize service layer
	siteService := services.NewSiteService(resolver, log)
	designService := services.NewDesignService(resolver, log)
	fireService := services.NewFireService(log)
	bomService := services.NewBOMService(log)
	layoutService := services.NewLayoutService(log)
	pricingService := services.NewPricingService(cfg.Pricing.DefaultMargin, reference.Suppliers{
		Rack:    cfg.Pricing.RackManufacturer,
		Anchor:  cfg.Pricing.AnchorSupplier,
		Decking: cfg.Pricing.DeckingSupplier,
	}, log)

	// Setup Gin router
	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	// Add middleware in order: RequestID -> Logger -> Recovery -> Metrics -> CORS
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(log))
	router.Use(middleware.Recovery(log))
	router.Use(middleware.Metrics())
	router.Use(middleware.CORS(cfg.CORS.Origins))

	// Register health check and metrics routes
	healthHandler := handlers.NewHealthHandler(lookupStore, cfg.Server.Env)
	router.GET("/health", healthHandler.Health)
	router.GET("/health/ready", healthHandler.Ready)
	router.GET("/api/v1/info", healthHandler.Info)
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	// Initialize handlers
	seismicHandler := handlers.NewSeismicHandler(siteService)
	designHandler := handlers.NewDesignHandler(designService, fireService)
	bomHandler := handlers.NewBOMHandler(bomService)
	pricingHandler := handlers.NewPricingHandler(pricingService, bomService)
	layoutHandler := handlers.NewLayoutHandler(layoutService)

	// Register API routes
	api := router.Group("/api")
	{
		seismicRoutes := api.Group("/seismic")
		{
			seismicRoutes.GET("", seismicHandler.Lookup)
			seismicRoutes.GET("/markets", seismicHandler.Markets)
			seismicRoutes.GET("/market", seismicHandler.Market)
			seismicRoutes.GET("/sdc-requirements", seismicHandler.Requirements)
		}
		api.POST("/design", designHandler.Design)
		api.GET("/fire-assessment", designHandler.FireAssessment)
		api.POST("/layout-svg", layoutHandler.FloorPlan)
		api.POST("/bom", bomHandler.Compute)
		api.POST("/pricing", pricingHandler.Price)
		api.POST("/generate-xlsx", pricingHandler.GenerateXLSX)
	}

	// Create HTTP server
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ErrorLog:          log.Component("http").ErrorLog(),
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
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", err, map[string]interface{}{
			"timeout": shutdownTimeout.String(),
		})
	}

	log.Info("Server exited", nil)
}

// purgeExpired deletes expired lookup rows once per TTL until ctx is done.
func purgeExpired(ctx context.Context, repo repository.SiteLookupRepository, every time.Duration, log *logger.Logger) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := repo.PurgeExpired(ctx)
			if err != nil {
				log.Error("Failed to purge expired lookups", err, nil)
				continue
			}
			if n > 0 {
				log.Debug("Purged expired lookups", map[string]interface{}{"rows": n})
			}
		}
	}
}
