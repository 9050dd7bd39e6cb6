package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/epeers/fundsheet/config"
	_ "github.com/epeers/fundsheet/docs"
	"github.com/epeers/fundsheet/internal/cache"
	"github.com/epeers/fundsheet/internal/database"
	"github.com/epeers/fundsheet/internal/handlers"
	"github.com/epeers/fundsheet/internal/middleware"
	"github.com/epeers/fundsheet/internal/repository"
	"github.com/epeers/fundsheet/internal/scheduler"
	"github.com/epeers/fundsheet/internal/schema"
	"github.com/epeers/fundsheet/internal/services"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title fundsheet API
// @description Schema-inferring ingest, metrics and columnar export for spreadsheet-shaped financial data
// @version 1.0
func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize database connection
	db, err := database.New(ctx, cfg.PGURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Initialize repositories
	entityRepo := repository.NewEntityRepository(db.Pool)
	tsRepo := repository.NewTimeSeriesRepository(db.Pool)
	portfolioRepo := repository.NewPortfolioRepository(db.Pool)
	metricsRepo := repository.NewMetricsRepository(db.Pool)

	// Initialize the in-memory period registry and bundle loader
	registry := schema.NewPeriodRegistry()
	loader := cache.NewLoader(tsRepo)

	// Initialize services
	ingestSvc := services.NewIngestService(entityRepo, tsRepo, registry)
	exportSvc := services.NewExportService(entityRepo, tsRepo, loader)
	batchSvc := services.NewBatchService(portfolioRepo, entityRepo, metricsRepo, loader, cfg.ComputeParallelism)

	// Initialize handlers
	ingestHandler := handlers.NewIngestHandler(ingestSvc)
	exportHandler := handlers.NewExportHandler(exportSvc)
	batchHandler := handlers.NewBatchHandler(batchSvc)
	portfolioHandler := handlers.NewPortfolioHandler(portfolioRepo)

	// Scheduled full recompute, disabled when no cron spec is configured
	sched := scheduler.New(ctx)
	if cfg.RecomputeCron != "" {
		err := sched.Add(cfg.RecomputeCron, "recompute-all", func(jobCtx context.Context) {
			if _, err := batchSvc.ComputeAll(jobCtx, nil); err != nil {
				log.Errorf("scheduled recompute failed: %v", err)
			}
		})
		if err != nil {
			log.Fatalf("Failed to register recompute job: %v", err)
		}
		sched.Start()
		defer sched.Stop()
	}

	// Setup Gin router
	router := gin.Default()
	router.Use(middleware.RequireAPIKey(cfg.APIKey))

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	router.POST("/ingest", ingestHandler.Upload)
	router.GET("/export", exportHandler.Export)

	router.POST("/portfolios", portfolioHandler.Create)
	router.GET("/portfolios", portfolioHandler.List)
	router.GET("/portfolios/:id", portfolioHandler.Get)
	router.PUT("/portfolios/:id/holdings", portfolioHandler.SetHolding)

	router.POST("/portfolios/:id/compute", batchHandler.Compute)
	router.POST("/compute-all", batchHandler.ComputeAll)
	router.GET("/portfolios/:id/metrics", batchHandler.GetMetrics)
	router.GET("/portfolios/:id/aggregate", batchHandler.GetAggregate)

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Create HTTP server
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	// Start server in goroutine
	go func() {
		log.Infof("Starting server on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")
	cancel()

	// Give outstanding requests 5 seconds to complete
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	fmt.Println("Server exited")
}
