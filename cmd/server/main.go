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
	clientapp "github.com/invoicer/backend/internal/application/client"
	"github.com/invoicer/backend/internal/application/document"
	identityapp "github.com/invoicer/backend/internal/application/identity"
	invoiceapp "github.com/invoicer/backend/internal/application/invoice"
	reportapp "github.com/invoicer/backend/internal/application/report"
	"github.com/invoicer/backend/internal/infrastructure/auth"
	"github.com/invoicer/backend/internal/infrastructure/cache"
	"github.com/invoicer/backend/internal/infrastructure/config"
	"github.com/invoicer/backend/internal/infrastructure/logger"
	"github.com/invoicer/backend/internal/infrastructure/migration"
	"github.com/invoicer/backend/internal/infrastructure/persistence"
	"github.com/invoicer/backend/internal/infrastructure/printing"
	"github.com/invoicer/backend/internal/infrastructure/storage"
	"github.com/invoicer/backend/internal/infrastructure/telemetry"
	"github.com/invoicer/backend/internal/interfaces/http/handler"
	"github.com/invoicer/backend/internal/interfaces/http/middleware"
	"github.com/invoicer/backend/internal/interfaces/http/router"
	"go.uber.org/zap"

	_ "github.com/invoicer/backend/docs"
)

//	@title			Invoicer API
//	@version		1.0
//	@description	Invoicing backend for small sellers: clients, invoices, PDF documents and revenue statistics.

//	@BasePath	/api/v1

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token authentication. Format: "Bearer {token}"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

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
		_ = log.Sync()
	}()

	ctx := context.Background()

	// Telemetry: traces, metrics, log export and continuous profiling
	exporter := telemetry.Exporter{
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		Insecure:          cfg.Telemetry.Insecure,
		ServiceName:       cfg.Telemetry.ServiceName,
		ServiceVersion:    cfg.App.Version,
	}

	tracerProvider, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Exporter:      exporter,
		Enabled:       cfg.Telemetry.Enabled,
		SamplingRatio: cfg.Telemetry.SamplingRatio,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}

	meterProvider, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Exporter:       exporter,
		Enabled:        cfg.Telemetry.MetricsEnabled,
		ExportInterval: cfg.Telemetry.MetricsInterval,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize meter provider", zap.Error(err))
	}

	loggerProvider, err := telemetry.NewLoggerProvider(ctx, telemetry.LogsConfig{
		Exporter: exporter,
		Enabled:  cfg.Telemetry.LogsEnabled,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize log exporter", zap.Error(err))
	}
	log = loggerProvider.Bridge(log, logger.ParseLevel(cfg.Log.Level))

	profiler, err := telemetry.NewProfiler(telemetry.ProfilerConfig{
		Enabled:         cfg.Telemetry.ProfilingEnabled,
		ServerAddress:   cfg.Telemetry.PyroscopeAddress,
		ApplicationName: cfg.Telemetry.ServiceName,
	}, log)
	if err != nil {
		log.Fatal("Failed to start profiler", zap.Error(err))
	}
	if profiler.IsEnabled() {
		tracerProvider.EnableSpanProfiles()
	}

	log.Info("Starting Invoicer",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level),
		logger.WithSlowThreshold(cfg.Telemetry.DBSlowQueryThresh))

	db, err := persistence.Open(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	if err := telemetry.NewDBTracingPlugin(telemetry.DBTracingConfig{
		Enabled:         cfg.Telemetry.DBTraceEnabled,
		LogFullSQL:      cfg.Telemetry.DBLogFullSQL,
		SlowQueryThresh: cfg.Telemetry.DBSlowQueryThresh,
		DBName:          cfg.Database.DBName,
	}, log).Register(db.DB); err != nil {
		log.Warn("Failed to register database tracing", zap.Error(err))
	}

	if cfg.Database.AutoMigrate {
		if err := runMigrations(db, log); err != nil {
			log.Fatal("Failed to apply migrations", zap.Error(err))
		}
	}

	// Redis backs revocations and rate limits when configured
	cacheFactory := cache.NewFactory(cfg.Redis, cache.WithLogger(log))
	defer func() {
		if err := cacheFactory.Close(); err != nil {
			log.Error("Error closing Redis client", zap.Error(err))
		}
	}()

	blacklist, err := cacheFactory.CreateTokenBlacklist(ctx)
	if err != nil {
		log.Fatal("Failed to create token blacklist", zap.Error(err))
	}

	generalLimiter := newLimiter(ctx, cacheFactory, "api",
		cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow, log)
	authLimiter := newLimiter(ctx, cacheFactory, "auth",
		cfg.HTTP.AuthRateLimitRequests, cfg.HTTP.AuthRateLimitWindow, log)

	objects, err := newObjectStorage(ctx, cfg, log)
	if err != nil {
		log.Fatal("Failed to initialize object storage", zap.Error(err))
	}

	templateEngine, err := printing.NewTemplateEngine(
		printing.WithLocale(cfg.Document.Locale),
		printing.WithCurrency(cfg.Document.Currency),
	)
	if err != nil {
		log.Fatal("Failed to load document templates", zap.Error(err))
	}

	renderer := printing.NewChromedpRenderer(printing.ChromeConfigFromDocument(cfg.Document, log))
	defer func() {
		if err := renderer.Close(); err != nil {
			log.Error("Error closing PDF renderer", zap.Error(err))
		}
	}()

	metrics, err := telemetry.NewLedgerMetrics(meterProvider.Meter("invoicer"))
	if err != nil {
		log.Warn("Failed to create business metrics", zap.Error(err))
	}

	// Repositories
	userRepo := persistence.NewGormUserRepository(db.DB)
	sessionRepo := persistence.NewGormSessionRepository(db.DB)
	clientRepo := persistence.NewGormClientRepository(db.DB)
	invoiceRepo := persistence.NewGormInvoiceRepository(db.DB)

	// Application services
	jwtService := auth.NewJWTService(cfg.JWT)
	authService := identityapp.NewAuthService(userRepo, sessionRepo, jwtService, blacklist, metrics, log)
	profileService := identityapp.NewProfileService(userRepo, objects, log)
	clientService := clientapp.NewClientService(clientRepo, log)
	invoiceService := invoiceapp.NewInvoiceService(invoiceRepo, clientRepo, metrics, log)
	reportService := reportapp.NewReportService(invoiceRepo, clientRepo)
	documentService := document.NewService(document.Deps{
		Invoices:   invoiceRepo,
		Users:      userRepo,
		Sessions:   sessionRepo,
		JWT:        jwtService,
		Blacklist:  blacklist,
		Signatures: profileService,
		Engine:     templateEngine,
		Renderer:   renderer,
		PublicURL:  cfg.HTTP.PublicURL,
		Metrics:    metrics,
		Logger:     log,
	})

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	authenticate := middleware.JWTAuthMiddlewareWithConfig(middleware.JWTMiddlewareConfig{
		JWTService:     jwtService,
		TokenBlacklist: blacklist,
		Sessions:       sessionRepo,
		Logger:         log,
	})

	systemHandler := handler.NewSystemHandler(cfg.App.Name, cfg.App.Version, db)

	engine := router.NewEngine(router.EngineConfig{
		Logger:  log,
		HTTP:    cfg.HTTP,
		Swagger: cfg.Swagger,
		Tracing: middleware.TracingConfig{
			ServiceName: cfg.Telemetry.ServiceName,
			Enabled:     cfg.Telemetry.Enabled,
		},
		Profiling:     profiler.IsEnabled(),
		MeterProvider: meterProvider,
		Limiter:       generalLimiter,
		SwaggerAuth:   authenticate,
		Health:        systemHandler.Health,
	})

	guards := router.Guards{Authenticate: authenticate}
	if cfg.HTTP.AuthRateLimitEnabled {
		guards.Credentials = middleware.RateLimit(authLimiter, middleware.ClientIPKey, log)
	}

	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	protectedRoutes := router.RegisterAPI(r, router.Handlers{
		System:   systemHandler,
		Auth:     handler.NewAuthHandler(authService),
		Profile:  handler.NewProfileHandler(profileService),
		Client:   handler.NewClientHandler(clientService),
		Invoice:  handler.NewInvoiceHandler(invoiceService, documentService),
		Document: handler.NewDocumentHandler(documentService),
		Report:   handler.NewReportHandler(reportService),
	}, guards)
	r.Setup()
	log.Debug("API routes mounted",
		zap.String("base_path", r.BasePath()),
		zap.Int("protected_routes", len(protectedRoutes)))

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

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	if err := profiler.Stop(); err != nil {
		log.Warn("Error stopping profiler", zap.Error(err))
	}
	if err := meterProvider.Shutdown(shutdownCtx); err != nil {
		log.Warn("Error shutting down meter provider", zap.Error(err))
	}
	if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
		log.Warn("Error shutting down tracer provider", zap.Error(err))
	}
	if err := loggerProvider.Shutdown(shutdownCtx); err != nil {
		log.Warn("Error shutting down log exporter", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

func runMigrations(db *persistence.Database, log *zap.Logger) error {
	sqlDB, err := db.DB.DB()
	if err != nil {
		return err
	}
	m, err := migration.New(sqlDB, log)
	if err != nil {
		return err
	}
	// Closing the migrator would close the shared connection pool
	return m.Up()
}

// newLimiter prefers a Redis limiter so limits hold across instances
func newLimiter(ctx context.Context, f *cache.Factory, prefix string, limit int, window time.Duration, log *zap.Logger) middleware.Limiter {
	if f.Enabled() {
		client, err := f.Client(ctx)
		if err == nil {
			return middleware.NewRedisLimiter(client, prefix, limit, window)
		}
		log.Warn("Redis unavailable, rate limits are per instance", zap.Error(err))
	}
	return middleware.NewMemoryLimiter(limit, window)
}

func newObjectStorage(ctx context.Context, cfg *config.Config, log *zap.Logger) (storage.ObjectStorage, error) {
	if cfg.Storage.Endpoint == "" && cfg.Storage.Bucket == "" {
		log.Info("Object storage not configured, keeping signatures in memory")
		return storage.NewMemoryObjectStorage(), nil
	}
	s3, err := storage.NewS3ObjectStorage(&cfg.Storage, storage.WithLogger(log))
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := s3.EnsureBucket(ctx); err != nil {
		return nil, err
	}
	log.Info("Object storage ready", zap.String("bucket", s3.Bucket()))
	return s3, nil
}
