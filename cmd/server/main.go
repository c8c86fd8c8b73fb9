package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	archiveapp "github.com/batchline/backend/internal/application/archive"
	eventapp "github.com/batchline/backend/internal/application/event"
	ledgerapp "github.com/batchline/backend/internal/application/ledger"
	productionapp "github.com/batchline/backend/internal/application/production"
	warehouseapp "github.com/batchline/backend/internal/application/warehouse"
	"github.com/batchline/backend/internal/domain/shared"
	"github.com/batchline/backend/internal/infrastructure/auth"
	"github.com/batchline/backend/internal/infrastructure/cache"
	"github.com/batchline/backend/internal/infrastructure/config"
	"github.com/batchline/backend/internal/infrastructure/event"
	"github.com/batchline/backend/internal/infrastructure/logger"
	"github.com/batchline/backend/internal/infrastructure/persistence"
	"github.com/batchline/backend/internal/infrastructure/scheduler"
	"github.com/batchline/backend/internal/infrastructure/storage"
	"github.com/batchline/backend/internal/infrastructure/telemetry"
	"github.com/batchline/backend/internal/interfaces/http/handler"
	"github.com/batchline/backend/internal/interfaces/http/middleware"
	"github.com/batchline/backend/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	_ "github.com/batchline/backend/docs"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

//	@title			Batchline Backend API
//	@version		1.0
//	@description	Inventory stock ledger and production reservation engine API
//	@termsOfService	http://swagger.io/terms/

//	@contact.name	API Support
//	@contact.url	https://github.com/batchline/backend
//	@contact.email	support@batchline.example.com

//	@license.name	Apache 2.0
//	@license.url	http://www.apache.org/licenses/LICENSE-2.0.html

//	@host		localhost:8080
//	@BasePath	/api/v1

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token authentication. Format: "Bearer {token}"

//	@externalDocs.description	OpenAPI
//	@externalDocs.url			https://swagger.io/resources/open-api/

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting Batchline Backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Initialize telemetry providers (no-ops when disabled)
	tracerProvider, err := telemetry.NewTracerProvider(context.Background(), telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracerProvider.Shutdown(ctx); err != nil {
			log.Error("Error shutting down tracer provider", zap.Error(err))
		}
	}()

	meterProvider, err := telemetry.NewMeterProvider(context.Background(), telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize meter provider", zap.Error(err))
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := meterProvider.Shutdown(ctx); err != nil {
			log.Error("Error shutting down meter provider", zap.Error(err))
		}
	}()

	loggerProvider, err := telemetry.NewLoggerProvider(context.Background(), telemetry.LogsConfig{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize logger provider", zap.Error(err))
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := loggerProvider.Shutdown(ctx); err != nil {
			log.Error("Error shutting down logger provider", zap.Error(err))
		}
	}()

	// Continuous profiling via Pyroscope (no-op when disabled)
	profiler, err := telemetry.NewProfiler(telemetry.ProfilerConfig{
		Enabled:             cfg.Telemetry.ProfilingEnabled,
		ServerAddress:       cfg.Telemetry.PyroscopeEndpoint,
		ApplicationName:     cfg.Telemetry.ServiceName,
		ProfileCPU:          true,
		ProfileAllocObjects: true,
		ProfileAllocSpace:   true,
		ProfileInuseObjects: true,
		ProfileInuseSpace:   true,
		ProfileGoroutines:   true,
	}, log)
	if err != nil {
		log.Warn("Failed to start profiler, continuing without it", zap.Error(err))
	} else {
		defer func() {
			if err := profiler.Stop(); err != nil {
				log.Error("Error stopping profiler", zap.Error(err))
			}
		}()
	}
	if cfg.Telemetry.Enabled && cfg.Telemetry.ProfilingEnabled {
		// Link trace spans to profiles so flamegraphs can be filtered per span
		if err := tracerProvider.EnableSpanProfiles(); err != nil {
			log.Warn("Failed to enable span profiles", zap.Error(err))
		}
	}

	// Create GORM logger backed by zap
	gormLogLevel := logger.MapGormLogLevel(cfg.Log.Level)
	gormLog := logger.NewGormLogger(log, gormLogLevel)

	// Initialize database connection with custom logger
	db, err := persistence.NewDatabaseWithCustomLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	// Database query tracing and pool metrics
	if cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled {
		dbTracing := telemetry.NewDBTracingPlugin(telemetry.DBTracingConfig{
			Enabled:         true,
			LogFullSQL:      cfg.Telemetry.DBLogFullSQL,
			SlowQueryThresh: cfg.Telemetry.DBSlowQueryThresh,
		}, log)
		if err := dbTracing.RegisterOtelGorm(db.DB); err != nil {
			log.Warn("Failed to register database tracing", zap.Error(err))
		}
	}
	if cfg.Telemetry.Enabled {
		if _, err := telemetry.RegisterDBMetrics(db.DB, meterProvider, telemetry.DBMetricsConfig{
			Enabled:            true,
			SlowQueryThreshold: cfg.Telemetry.DBSlowQueryThresh,
		}, log); err != nil {
			log.Warn("Failed to register database metrics", zap.Error(err))
		}
	}

	// Initialize repositories
	stockRecordRepo := persistence.NewGormStockRecordRepository(db.DB)
	stockTxRepo := persistence.NewGormStockTransactionRepository(db.DB)
	warehouseBatchRepo := persistence.NewGormWarehouseBatchRepository(db.DB)
	productionBatchRepo := persistence.NewGormProductionBatchRepository(db.DB)
	outboxRepo := event.NewGormOutboxRepository(db.DB)

	// Versioned serializer: stored outbox payloads carry a schema version and
	// old payloads are upgraded on read, so event structs can evolve safely
	eventSerializer := event.NewVersionedSerializer(log)
	event.RegisterAllEvents(eventSerializer)

	// Create outbox publisher for transactional event saving
	outboxPublisher := event.NewOutboxPublisher(eventSerializer)

	// Inject outbox publisher so stock mutations and their events commit atomically
	stockRecordRepo.SetOutboxEventSaver(outboxPublisher)

	// Transaction scope groups multi-write operations into a single DB transaction
	txScope := persistence.NewGormTransactionScope(db.DB)
	txScope.SetOutboxEventSaver(outboxPublisher)

	// Object storage for archive exports
	var objectStorage archiveapp.ObjectStorage
	if cfg.Storage.Bucket != "" {
		s3Storage, err := storage.NewS3ObjectStorage(&cfg.Storage,
			storage.WithLogger(log),
			storage.WithPresignExpiration(cfg.Storage.PresignExpiration),
		)
		if err != nil {
			log.Fatal("Failed to initialize object storage", zap.Error(err))
		}
		objectStorage = s3Storage
		log.Info("Object storage configured",
			zap.String("bucket", cfg.Storage.Bucket),
			zap.String("endpoint", cfg.Storage.Endpoint),
		)
	} else {
		objectStorage = storage.NewStubObjectStorage()
		log.Warn("No storage bucket configured, archive exports use in-memory stub storage")
	}

	// Initialize application services
	ledgerService := ledgerapp.NewLedgerService(txScope, stockRecordRepo, stockTxRepo)
	warehouseService := warehouseapp.NewWarehouseService(txScope, warehouseBatchRepo)
	productionService := productionapp.NewProductionService(txScope, productionBatchRepo)
	archiveService := archiveapp.NewArchiveService(stockTxRepo, objectStorage, log)

	// JWT token manager for bearer auth (tenant falls back to X-Tenant-ID in development)
	jwtService := auth.NewJWTService(cfg.JWT)

	// Initialize event bus and handlers
	eventBus := event.NewInMemoryEventBus(log)

	// Idempotency store dedupes low-stock notifications across outbox redelivery.
	// Redis when reachable, in-memory fallback for single-instance dev setups.
	storeFactory := cache.NewIdempotencyStoreFactory(cfg.Redis, cache.WithLogger(log))
	idempotencyStore, err := storeFactory.CreateStore()
	if err != nil {
		log.Fatal("Failed to create idempotency store", zap.Error(err))
	}

	// Low stock detection -> deduplicated alert handling
	lowStockHandler := ledgerapp.NewLowStockHandler(log)
	idempotentLowStock := event.NewIdempotentHandler(lowStockHandler, idempotencyStore, log)
	eventBus.Subscribe(idempotentLowStock)

	log.Info("Event handlers registered",
		zap.Strings("low_stock_events", lowStockHandler.EventTypes()),
	)

	// Start event bus
	if err := eventBus.Start(context.Background()); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	defer func() {
		if err := eventBus.Stop(context.Background()); err != nil {
			log.Error("Error stopping event bus", zap.Error(err))
		}
	}()

	// Initialize and start outbox processor for guaranteed event delivery
	// The outbox processor reads events from the outbox_events table and publishes them to the event bus
	outboxProcessorConfig := event.DefaultOutboxProcessorConfig()
	outboxProcessor := event.NewOutboxProcessor(outboxRepo, eventBus, eventSerializer, outboxProcessorConfig, log)
	if err := outboxProcessor.Start(context.Background()); err != nil {
		log.Fatal("Failed to start outbox processor", zap.Error(err))
	}
	defer func() {
		if err := outboxProcessor.Stop(context.Background()); err != nil {
			log.Error("Error stopping outbox processor", zap.Error(err))
		}
	}()
	log.Info("Outbox processor started",
		zap.Int("batch_size", outboxProcessorConfig.BatchSize),
		zap.Duration("poll_interval", outboxProcessorConfig.PollInterval),
	)

	// Inject event bus into services that publish events
	ledgerService.SetEventPublisher(eventBus)
	warehouseService.SetEventPublisher(eventBus)
	productionService.SetEventPublisher(eventBus)

	// Business metrics observed from the ledger (reserved quantities, low stock counts)
	var businessMetrics *telemetry.BusinessMetrics
	if cfg.Telemetry.Enabled {
		businessMetrics, err = telemetry.NewBusinessMetrics(telemetry.BusinessMetricsConfig{
			Meter:          meterProvider.Meter("batchline.business"),
			Logger:         log,
			LedgerProvider: telemetry.NewGormLedgerMetricsProvider(db.DB),
		})
		if err != nil {
			log.Warn("Failed to initialize business metrics", zap.Error(err))
		} else {
			businessMetrics.StartPeriodicCollection(
				context.Background(),
				telemetry.NewGormTenantProvider(db.DB),
				5*time.Minute,
			)
			defer businessMetrics.Stop()
		}
	}

	// Initialize background job scheduler (low-stock scan, daily ledger archive)
	if cfg.Scheduler.Enabled {
		schedulerConfig := scheduler.SchedulerConfig{
			Enabled:           cfg.Scheduler.Enabled,
			MaxConcurrentJobs: cfg.Scheduler.MaxConcurrentJobs,
			JobTimeout:        cfg.Scheduler.JobTimeout,
			RetryAttempts:     cfg.Scheduler.RetryAttempts,
			RetryDelay:        cfg.Scheduler.RetryDelay,
		}
		jobExecutor := scheduler.NewLedgerJobExecutor(stockRecordRepo, archiveService, eventBus, log)
		if businessMetrics != nil {
			jobExecutor = jobExecutor.WithGauge(businessMetrics)
		}
		ledgerScheduler := scheduler.NewScheduler(schedulerConfig, jobExecutor, log)
		if err := ledgerScheduler.Start(context.Background()); err != nil {
			log.Fatal("Failed to start ledger scheduler", zap.Error(err))
		}
		defer func() {
			if err := ledgerScheduler.Stop(context.Background()); err != nil {
				log.Error("Error stopping ledger scheduler", zap.Error(err))
			}
		}()

		cronTrigger := scheduler.NewCronTrigger(scheduler.CronTriggerConfig{
			DailyArchiveHour:     cfg.Scheduler.DailyArchiveHour,
			DailyArchiveMinute:   cfg.Scheduler.DailyArchiveMinute,
			LowStockScanInterval: cfg.Scheduler.LowStockScanInterval,
			CheckInterval:        time.Minute,
		}, ledgerScheduler, persistence.NewGormLedgerTenantProvider(db.DB), log)
		if err := cronTrigger.Start(context.Background()); err != nil {
			log.Fatal("Failed to start cron trigger", zap.Error(err))
		}
		defer func() {
			if err := cronTrigger.Stop(context.Background()); err != nil {
				log.Error("Error stopping cron trigger", zap.Error(err))
			}
		}()
		log.Info("Ledger scheduler started",
			zap.Int("max_concurrent_jobs", cfg.Scheduler.MaxConcurrentJobs),
			zap.Duration("job_timeout", cfg.Scheduler.JobTimeout),
			zap.Duration("low_stock_scan_interval", cfg.Scheduler.LowStockScanInterval),
		)
	}

	// Initialize HTTP handlers
	ledgerHandler := handler.NewLedgerHandler(ledgerService)
	warehouseHandler := handler.NewWarehouseHandler(warehouseService)
	productionHandler := handler.NewProductionHandler(productionService)
	archiveHandler := handler.NewArchiveHandler(archiveService)
	outboxHandler := handler.NewOutboxHandler(eventapp.NewOutboxService(outboxRepo, log))
	systemHandler := handler.NewSystemHandler()

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Setup validation
	middleware.SetupValidator()

	// Initialize router with custom middleware
	engine := gin.New()

	// Configure trusted proxies
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Apply middleware stack in order:
	// 1. RequestID - Generate/propagate request ID
	// 2. Recovery - Catch panics
	// 3. Tracing - OpenTelemetry spans
	// 4. Logger - Log requests
	// 5. Metrics - HTTP RED metrics
	// 6. Profiling - Pyroscope request labels
	// 7. Security - Add security headers
	// 8. CORS - Handle cross-origin requests
	// 9. BodyLimit - Limit request body size
	// 10. RateLimit - Apply rate limiting (if enabled)
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(middleware.TracingWithConfig(middleware.TracingConfig{
		ServiceName: cfg.Telemetry.ServiceName,
		Enabled:     cfg.Telemetry.Enabled,
	}))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.HTTPMetricsWithMeter(meterProvider.Meter("batchline.http"), cfg.Telemetry.Enabled))
	if cfg.Telemetry.ProfilingEnabled {
		engine.Use(middleware.Profiling())
	}
	engine.Use(middleware.Secure())

	// Configure CORS from config
	corsConfig := middleware.CORSConfig{
		AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
		AllowMethods:     cfg.HTTP.CORSAllowMethods,
		AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
		ExposeHeaders:    []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	engine.Use(middleware.CORSWithConfig(corsConfig))

	// Body size limit
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	// Rate limiting (if enabled)
	if cfg.HTTP.RateLimitEnabled {
		rateLimiter := middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		engine.Use(middleware.RateLimit(rateLimiter))
		log.Info("Rate limiting enabled",
			zap.Int("requests", cfg.HTTP.RateLimitRequests),
			zap.Duration("window", cfg.HTTP.RateLimitWindow),
		)
	}

	// Health and readiness endpoints (outside API versioning)
	engine.GET("/health", healthHandler(db, log))
	engine.GET("/ready", readyHandler(db, log))

	// Swagger documentation endpoint
	if cfg.Swagger.Enabled {
		swaggerProtection := middleware.SwaggerProtection(middleware.SwaggerConfig{
			Enabled:     cfg.Swagger.Enabled,
			RequireAuth: cfg.Swagger.RequireAuth,
			AllowedIPs:  cfg.Swagger.AllowedIPs,
		}, middleware.JWTAuthMiddleware(jwtService))
		engine.GET("/swagger/*any", swaggerProtection, ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// Setup API routes using router
	r := router.NewRouter(engine, router.WithAPIVersion("v1"))

	// Bearer tokens are honored when present; requests without one fall back to
	// the X-Tenant-ID header (identity lives in a separate service)
	r.Use(middleware.OptionalJWTAuthMiddleware(jwtService))

	// Resolve tenant context (JWT claim, then X-Tenant-ID header); handlers
	// default to the development tenant when neither is present
	tenantConfig := middleware.DefaultTenantConfig()
	tenantConfig.Required = false
	tenantConfig.Logger = log
	r.Use(middleware.TenantMiddlewareWithConfig(tenantConfig))

	// Mutation endpoints honor X-Idempotency-Key, backed by the same store
	// that dedupes event delivery
	r.Use(middleware.IdempotencyKey(idempotencyStore, shared.DefaultIdempotencyConfig().TTL, log))

	// Ledger domain (stock levels, movements, reservations, sales)
	inventoryRoutes := router.NewDomainGroup("inventory", "/inventory")
	inventoryRoutes.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "inventory service ready"})
	})

	// Stock level queries
	inventoryRoutes.GET("/stock-levels", ledgerHandler.ListStockLevels)
	inventoryRoutes.GET("/stock-levels/one", ledgerHandler.GetStockLevel)
	inventoryRoutes.GET("/stock-levels/reconcile", ledgerHandler.ReconcileStock)
	inventoryRoutes.GET("/alerts/low-stock", ledgerHandler.GetLowStockAlerts)
	inventoryRoutes.GET("/statistics", ledgerHandler.GetStatistics)

	// Stock mutations
	inventoryRoutes.POST("/stock/add", ledgerHandler.AddStock)
	inventoryRoutes.POST("/stock/deduct", ledgerHandler.DeductStock)
	inventoryRoutes.POST("/stock/reserve", ledgerHandler.ReserveStock)
	inventoryRoutes.POST("/stock/unreserve", ledgerHandler.UnreserveStock)
	inventoryRoutes.PUT("/stock/threshold", ledgerHandler.SetThreshold)
	inventoryRoutes.POST("/sales/process", ledgerHandler.ProcessSale)

	// Transaction audit and archival
	inventoryRoutes.GET("/transactions", ledgerHandler.ListTransactions)
	inventoryRoutes.POST("/transactions/export", archiveHandler.Export)
	inventoryRoutes.GET("/transactions/export/download-url", archiveHandler.DownloadURL)

	// Warehouse domain (purchased intake batches)
	warehouseRoutes := router.NewDomainGroup("warehouse", "/warehouse")
	warehouseRoutes.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "warehouse service ready"})
	})
	warehouseRoutes.GET("/batches", warehouseHandler.List)
	warehouseRoutes.POST("/batches", warehouseHandler.Create)
	warehouseRoutes.GET("/batches/next-number", warehouseHandler.GetNextNumber)
	warehouseRoutes.GET("/batches/:id", warehouseHandler.GetByID)
	warehouseRoutes.DELETE("/batches/:id", warehouseHandler.Delete)
	warehouseRoutes.POST("/batches/:id/items", warehouseHandler.AddItems)
	warehouseRoutes.GET("/statistics", warehouseHandler.GetStatistics)

	// Production domain (production runs over reserved stock)
	productionRoutes := router.NewDomainGroup("production", "/production")
	productionRoutes.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "production service ready"})
	})
	productionRoutes.GET("/batches", productionHandler.List)
	productionRoutes.POST("/batches", productionHandler.Create)
	productionRoutes.GET("/batches/:id", productionHandler.GetByID)
	productionRoutes.DELETE("/batches/:id", productionHandler.Delete)
	productionRoutes.POST("/batches/:id/items", productionHandler.AddItems)
	productionRoutes.PUT("/batches/:id/status", productionHandler.UpdateStatus)
	productionRoutes.GET("/statistics", productionHandler.GetStatistics)

	// System routes with swagger-documented handlers
	systemRoutes := router.NewDomainGroup("system", "/system")
	systemRoutes.GET("/info", systemHandler.GetSystemInfo)
	systemRoutes.GET("/ping", systemHandler.Ping)

	// Outbox operations (dead letter inspection and replay)
	systemRoutes.GET("/outbox/dead", outboxHandler.GetDeadLetterEntries)
	systemRoutes.GET("/outbox/stats", outboxHandler.GetStats)
	systemRoutes.GET("/outbox/:id", outboxHandler.GetEntry)
	systemRoutes.POST("/outbox/:id/retry", outboxHandler.RetryDeadEntry)
	systemRoutes.POST("/outbox/dead/retry-all", outboxHandler.RetryAllDeadEntries)

	// Register all domain groups
	r.Register(inventoryRoutes).
		Register(warehouseRoutes).
		Register(productionRoutes).
		Register(systemRoutes)

	// Setup routes
	r.Setup()

	// Also keep a simple ping at root API level for basic health checks
	engine.GET("/api/v1/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	// Create HTTP server with config
	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	// Start server in goroutine
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// healthHandler returns a handler for health check endpoints
func healthHandler(db *persistence.Database, _ *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		reqLog := logger.GetGinLogger(c)
		if err := db.Ping(); err != nil {
			reqLog.Warn("Health check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"time":     time.Now().Format(time.RFC3339),
				"database": "error",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":   "healthy",
			"time":     time.Now().Format(time.RFC3339),
			"database": "ok",
		})
	}
}

// readyHandler reports whether the service can serve traffic. The database is
// the only hard dependency; object storage and telemetry degrade gracefully.
func readyHandler(db *persistence.Database, _ *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		reqLog := logger.GetGinLogger(c)
		if err := db.Ping(); err != nil {
			reqLog.Warn("Readiness check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "not ready",
				"time":   time.Now().Format(time.RFC3339),
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status": "ready",
			"time":   time.Now().Format(time.RFC3339),
		})
	}
}
