package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	appfulfillment "github.com/storefront/backend/internal/application/fulfillment"
	"github.com/storefront/backend/internal/infrastructure/cache"
	"github.com/storefront/backend/internal/infrastructure/config"
	"github.com/storefront/backend/internal/infrastructure/event"
	"github.com/storefront/backend/internal/infrastructure/logger"
	"github.com/storefront/backend/internal/infrastructure/notification"
	"github.com/storefront/backend/internal/infrastructure/persistence"
	"github.com/storefront/backend/internal/infrastructure/telemetry"
	"github.com/storefront/backend/internal/interfaces/http/handler"
	"github.com/storefront/backend/internal/interfaces/http/middleware"
	"github.com/storefront/backend/internal/interfaces/http/router"
)

// version is overridden at build time with -ldflags "-X main.version=..."
var version = "dev"

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
		Service:    cfg.App.Name,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	ctx := context.Background()

	// Telemetry providers; all three are no-ops when telemetry is disabled
	telemetryCfg := telemetry.Config{
		Enabled:               cfg.Telemetry.Enabled,
		CollectorEndpoint:     cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:         cfg.Telemetry.SamplingRatio,
		ServiceName:           cfg.Telemetry.ServiceName,
		ServiceVersion:        version,
		Insecure:              cfg.Telemetry.Insecure,
		MetricsExportInterval: cfg.Telemetry.MetricsInterval,
	}
	tracerProvider, err := telemetry.NewTracerProvider(ctx, telemetryCfg, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}
	meterProvider, err := telemetry.NewMeterProvider(ctx, telemetryCfg, log)
	if err != nil {
		log.Fatal("Failed to initialize meter provider", zap.Error(err))
	}
	loggerProvider, err := telemetry.NewLoggerProvider(ctx, telemetryCfg, log)
	if err != nil {
		log.Fatal("Failed to initialize logger provider", zap.Error(err))
	}
	log = telemetry.BridgeLogger(log, loggerProvider, logger.ParseLevel(cfg.Log.Level))

	log.Info("Starting fulfillment service",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
		zap.Bool("telemetry", cfg.Telemetry.Enabled),
	)

	// Create GORM logger backed by zap
	gormLogLevel := logger.MapGormLogLevel(cfg.Log.Level)
	gormLog := logger.NewGormLogger(log, gormLogLevel)

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

	dbCfg := telemetry.DefaultDBConfig()
	dbCfg.TracingEnabled = cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled
	dbCfg.MetricsEnabled = cfg.Telemetry.Enabled
	dbCfg.LogFullSQL = cfg.Telemetry.DBLogFullSQL
	dbCfg.SlowQueryThreshold = cfg.Telemetry.DBSlowQueryThresh
	dbMetrics, err := telemetry.InstrumentDB(ctx, db.DB, dbCfg, meterProvider, log)
	if err != nil {
		log.Warn("Database instrumentation disabled", zap.Error(err))
	}

	// Repositories
	orderRepo := persistence.NewGormFulfillmentOrderRepository(db.DB)
	shipmentRepo := persistence.NewGormShipmentRepository(db.DB)
	txScope := persistence.NewGormFulfillmentTransactionScope(db.DB)

	// Fulfillment metrics; the gauge reads live counts from the order table
	var fulfillmentMetrics *telemetry.FulfillmentMetrics
	if meterProvider.IsEnabled() {
		fulfillmentMetrics, err = telemetry.NewFulfillmentMetrics(telemetry.FulfillmentMetricsConfig{
			Meter:          meterProvider.Meter("fulfillment"),
			Logger:         log,
			StatusProvider: orderRepo,
		})
		if err != nil {
			log.Warn("Fulfillment metrics disabled", zap.Error(err))
		} else {
			fulfillmentMetrics.StartPeriodicCollection(ctx, cfg.Telemetry.MetricsInterval)
		}
	}

	// Event bus with audit logging and idempotent customer notices
	eventSerializer := event.NewEventSerializer()
	event.RegisterFulfillmentEvents(eventSerializer)
	notification.RegisterEvents(eventSerializer)

	eventBus := event.NewInMemoryEventBus(log)
	eventBus.Subscribe(event.NewAuditHandler(eventSerializer, log))

	idempotencyStore, err := cache.NewIdempotencyStoreFactory(cfg, cache.WithLogger(log)).CreateStore(ctx)
	if err != nil {
		log.Fatal("Failed to create idempotency store", zap.Error(err))
	}
	defer func() {
		if err := idempotencyStore.Close(); err != nil {
			log.Error("Error closing idempotency store", zap.Error(err))
		}
	}()
	noticeHandler := notification.Subscribe(eventBus, notification.NewLogNoticeHandler(log), idempotencyStore, cfg.Fulfillment.IdempotencyTTL, log)

	log.Info("Event handlers registered",
		zap.Strings("event_types", eventSerializer.RegisteredTypes()),
		zap.Strings("notice_events", noticeHandler.EventTypes()),
	)

	if err := eventBus.Start(ctx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	defer func() {
		if err := eventBus.Stop(context.Background()); err != nil {
			log.Error("Error stopping event bus", zap.Error(err))
		}
	}()

	// A nil notifier suppresses every customer notice
	var notifier appfulfillment.Notifier
	if cfg.Fulfillment.NotificationsEnabled {
		notifier = notification.NewEventBusNotifier(eventBus)
	} else {
		log.Warn("Customer notifications are disabled")
	}

	fulfillmentService := appfulfillment.NewFulfillmentService(appfulfillment.ServiceConfig{
		OrderRepo:                 orderRepo,
		ShipmentRepo:              shipmentRepo,
		TxScope:                   txScope,
		Notifier:                  notifier,
		EventPublisher:            eventBus,
		Metrics:                   fulfillmentMetrics,
		Logger:                    log,
		IssueDescriptionMinLength: cfg.Fulfillment.IssueDescriptionMinLength,
		DefaultPageSize:           cfg.Fulfillment.DefaultPageSize,
		MaxPageSize:               cfg.Fulfillment.MaxPageSize,
	})

	// Set Gin mode based on environment
	if cfg.App.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	middleware.SetupValidator()

	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
		log.Warn("Failed to set trusted proxies", zap.Error(err))
	}

	corsConfig := middleware.DefaultCORSConfig()
	corsConfig.AllowOrigins = cfg.HTTP.CORSAllowOrigins

	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(middleware.TracingWithConfig(middleware.TracingConfig{
		ServiceName: cfg.Telemetry.ServiceName,
		Enabled:     tracerProvider.IsEnabled(),
	}))
	engine.Use(middleware.SpanAttributes())
	engine.Use(middleware.SpanErrorMarker())
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.HTTPMetrics(middleware.HTTPMetricsConfig{
		MeterProvider: meterProvider,
		Enabled:       true,
		Logger:        log,
	}))
	engine.Use(middleware.Secure())
	engine.Use(middleware.CORSWithConfig(corsConfig))
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))
	engine.Use(middleware.Timeout(cfg.HTTP.WriteTimeout))

	systemHandler := handler.NewSystemHandler(cfg.App.Name, version, db)

	// Health check endpoint (outside API versioning)
	engine.GET("/health", systemHandler.Health)

	fulfillmentRoutes := handler.FulfillmentRoutes(handler.NewFulfillmentHandler(fulfillmentService))
	systemRoutes := handler.SystemRoutes(systemHandler)

	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	r.Register(fulfillmentRoutes).Register(systemRoutes)
	r.Setup()

	for _, group := range []*router.DomainGroup{fulfillmentRoutes, systemRoutes} {
		for _, route := range group.Routes() {
			log.Debug("Route registered",
				zap.String("group", group.Name()),
				zap.String("method", route.Method),
				zap.String("path", r.BasePath()+route.Path),
			)
		}
	}

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
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	fulfillmentMetrics.Stop()
	if dbMetrics != nil {
		dbMetrics.Stop()
	}
	shutdownTelemetry(shutdownCtx, log, tracerProvider, meterProvider, loggerProvider)

	log.Info("Server exited gracefully")
}

type shutdowner interface {
	Shutdown(ctx context.Context) error
}

// shutdownTelemetry flushes exporters; the logger provider goes last so
// shutdown logs from the others are still exported
func shutdownTelemetry(ctx context.Context, log *zap.Logger, providers ...shutdowner) {
	for _, p := range providers {
		if err := p.Shutdown(ctx); err != nil {
			log.Warn("Telemetry shutdown failed", zap.Error(err))
		}
	}
}
