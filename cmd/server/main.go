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
	appcommission "github.com/otec/backoffice/internal/application/commission"
	appcompliance "github.com/otec/backoffice/internal/application/compliance"
	appproject "github.com/otec/backoffice/internal/application/project"
	"github.com/otec/backoffice/internal/infrastructure/cache"
	"github.com/otec/backoffice/internal/infrastructure/config"
	"github.com/otec/backoffice/internal/infrastructure/logger"
	"github.com/otec/backoffice/internal/infrastructure/migration"
	"github.com/otec/backoffice/internal/infrastructure/persistence"
	"github.com/otec/backoffice/internal/infrastructure/registry"
	"github.com/otec/backoffice/internal/infrastructure/telemetry"
	"github.com/otec/backoffice/internal/interfaces/http/handler"
	"github.com/otec/backoffice/internal/interfaces/http/middleware"
	"github.com/otec/backoffice/internal/interfaces/http/router"
	"github.com/otec/backoffice/migrations"
	"go.uber.org/zap"
)

//	@title			Backoffice API
//	@version		1.0
//	@description	Project cost ledger, commission tiers and sworn statement synchronization for a training provider.

//	@BasePath	/api/v1

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.NewFromConfig(cfg.App, cfg.Log)
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting backoffice",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", cfg.App.Version),
	)

	// Tracing, metrics and log export are no-op providers when disabled
	tp, err := telemetry.NewTracerProvider(context.Background(), telemetry.ConfigFrom(cfg.App, cfg.Telemetry), log)
	if err != nil {
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}

	mp, err := telemetry.NewMeterProvider(context.Background(), telemetry.MetricsConfigFrom(cfg.App, cfg.Telemetry), log)
	if err != nil {
		log.Fatal("Failed to initialize meter provider", zap.Error(err))
	}

	lp, err := telemetry.NewLoggerProvider(context.Background(), telemetry.LogsConfigFrom(cfg.App, cfg.Telemetry), log)
	if err != nil {
		log.Fatal("Failed to initialize logger provider", zap.Error(err))
	}
	log = telemetry.BridgeLogger(log, lp, cfg.Telemetry.ServiceName, log.Level())

	businessMetrics, err := telemetry.NewBusinessMetrics(mp.Meter(telemetry.TracerName))
	if err != nil {
		log.Fatal("Failed to create business metrics", zap.Error(err))
	}

	// Database with a zap-backed GORM logger
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	if cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled {
		plugin := telemetry.NewDBTracingPlugin(telemetry.DBTracingConfigFrom(cfg.Telemetry), log)
		if err := plugin.RegisterOtelGorm(db.DB); err != nil {
			log.Warn("Failed to register database tracing", zap.Error(err))
		}
	}

	if cfg.Database.MigrateOnStart {
		if err := migrateOnStart(db, log); err != nil {
			log.Fatal("Failed to apply migrations", zap.Error(err))
		}
	}

	// Course lock: Redis when reachable, in-memory otherwise (unless required)
	locker, err := cache.NewKeyLockerFactory(cfg.Redis, cache.WithLogger(log)).CreateLocker()
	if err != nil {
		log.Fatal("Failed to create key locker", zap.Error(err))
	}
	defer func() {
		if err := locker.Close(); err != nil {
			log.Error("Error closing key locker", zap.Error(err))
		}
	}()

	gateway := registry.Disabled()
	if cfg.Sync.Endpoint != "" {
		client, err := registry.NewClient(registry.ConfigFrom(cfg.Sync), log.Named("registry"))
		if err != nil {
			log.Fatal("Invalid registry configuration", zap.Error(err))
		}
		gateway = client
	} else {
		log.Warn("sync.endpoint is not set, sworn statement syncs will fail")
	}

	// Repositories
	projectRepo := persistence.NewGormProjectRepository(db.DB)
	costLineRepo := persistence.NewGormCostLineRepository(db.DB)
	tierRepo := persistence.NewGormCommissionTierRepository(db.DB)
	courseRepo := persistence.NewGormCourseRepository(db.DB)
	credentialRepo := persistence.NewGormCredentialRepository(db.DB)
	entityRepo := persistence.NewGormComplianceEntityRepository(db.DB)
	statementRepo := persistence.NewGormSwornStatementRepository(db.DB)
	txScope := persistence.NewGormTransactionScope(db.DB)

	// Application services
	ledgerService := appproject.NewCostLedgerService(txScope.ProjectScope(), projectRepo, costLineRepo, nil, log.Named("cost_ledger"))
	ledgerService.SetMetrics(businessMetrics)
	tierService := appcommission.NewTierService(txScope.CommissionScope(), tierRepo)
	orchestrator := appcompliance.NewSyncOrchestrator(appcompliance.SyncDependencies{
		Courses:     courseRepo,
		Credentials: credentialRepo,
		Entities:    entityRepo,
		Statements:  statementRepo,
		Gateway:     gateway,
		Locker:      locker,
		Metrics:     businessMetrics,
	}, appcompliance.SyncConfig{
		JobTimeout: cfg.Sync.JobTimeout,
		LockTTL:    cfg.Sync.LockTTL,
	}, log.Named("sync"))
	statementService := appcompliance.NewStatementService(courseRepo, statementRepo, orchestrator, log.Named("statements"))

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Setup validation
	middleware.SetupValidator()

	engine := gin.New()

	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Middleware order:
	// 1. Tracing - root span per request
	// 2. RequestID - generate or propagate the request id
	// 3. Span enrichment and error marking
	// 4. HTTP metrics
	// 5. Logger and recovery
	// 6. Security headers, CORS and body limit
	tracingCfg := middleware.DefaultTracingConfig()
	if cfg.Telemetry.ServiceName != "" {
		tracingCfg.ServiceName = cfg.Telemetry.ServiceName
	}
	tracingCfg.Enabled = tp.IsEnabled()
	engine.Use(middleware.TracingWithConfig(tracingCfg))
	engine.Use(middleware.RequestID())
	engine.Use(middleware.TracingAttributeInjector())
	engine.Use(middleware.SpanErrorMarker())
	engine.Use(middleware.HTTPMetrics(middleware.HTTPMetricsConfig{
		MeterProvider: mp,
		Logger:        log,
	}))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(logger.Recovery(log))
	engine.Use(middleware.Secure())
	engine.Use(middleware.CORSForOrigins(cfg.HTTP.CORSAllowOrigins))
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	handlers := router.Handlers{
		CostLedger: handler.NewCostLedgerHandler(ledgerService),
		Commission: handler.NewCommissionHandler(tierService),
		Compliance: handler.NewComplianceHandler(orchestrator, statementService),
		System:     handler.NewSystemHandler(db, cfg.App.Version),
	}
	if cfg.HTTP.SyncTriggerPerMinute > 0 {
		limiter := middleware.NewRateLimiter(cfg.HTTP.SyncTriggerPerMinute, time.Minute)
		handlers.SyncTriggerLimit = middleware.RateLimit(limiter)
		log.Info("Sync trigger rate limiting enabled",
			zap.Int("per_minute", cfg.HTTP.SyncTriggerPerMinute),
		)
	}

	router.RegisterAPI(router.NewRouter(engine), handlers).Setup()

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
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
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
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	// in-flight sync runs end Failed with "sync cancelled"
	if err := orchestrator.Shutdown(ctx); err != nil {
		log.Error("Sync runs did not stop in time", zap.Error(err))
	}

	if err := tp.Shutdown(ctx); err != nil {
		log.Error("Tracer provider shutdown failed", zap.Error(err))
	}
	if err := mp.Shutdown(ctx); err != nil {
		log.Error("Meter provider shutdown failed", zap.Error(err))
	}

	log.Info("Server exited gracefully")
	// the collector gets nothing logged after this
	if err := lp.Shutdown(ctx); err != nil {
		log.Error("Logger provider shutdown failed", zap.Error(err))
	}
}

// migrateOnStart applies the embedded migrations. The migrator is not closed:
// its postgres driver owns the connection pool it was given.
func migrateOnStart(db *persistence.Database, log *zap.Logger) error {
	sqlDB, err := db.DB.DB()
	if err != nil {
		return err
	}
	m, err := migration.NewFromFS(sqlDB, migrations.FS, log.Named("migrate"))
	if err != nil {
		return err
	}
	return m.Up()
}
