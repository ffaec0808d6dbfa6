package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Gobusters/ectoenv"
	"github.com/Gobusters/ectoinject"
	"github.com/Gobusters/ectologger"
	"github.com/Gobusters/ectologger/zapadapter"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"

	"github.com/Ramsey-B/fern/config"
	assignmentrepo "github.com/Ramsey-B/fern/internal/repositories/assignment"
	auditrepo "github.com/Ramsey-B/fern/internal/repositories/audit"
	deliveryrepo "github.com/Ramsey-B/fern/internal/repositories/delivery"
	issuerepo "github.com/Ramsey-B/fern/internal/repositories/issue"
	schedulerepo "github.com/Ramsey-B/fern/internal/repositories/schedule"
	trackingrepo "github.com/Ramsey-B/fern/internal/repositories/trackingpoint"
	vehiclerepo "github.com/Ramsey-B/fern/internal/repositories/vehicle"
	assignmentsvc "github.com/Ramsey-B/fern/internal/services/assignment"
	issuesvc "github.com/Ramsey-B/fern/internal/services/issues"
	"github.com/Ramsey-B/fern/internal/services/scheduler"
	statssvc "github.com/Ramsey-B/fern/internal/services/stats"
	"github.com/Ramsey-B/fern/internal/services/tracker"
	"github.com/Ramsey-B/fern/pkg/database"
	"github.com/Ramsey-B/fern/pkg/faults"
	"github.com/Ramsey-B/fern/pkg/kafka"
	"github.com/Ramsey-B/fern/pkg/middleware"
	"github.com/Ramsey-B/fern/pkg/redis"
	deliveryroutes "github.com/Ramsey-B/fern/pkg/routes/delivery"
	"github.com/Ramsey-B/fern/pkg/routes/health"
	issueroutes "github.com/Ramsey-B/fern/pkg/routes/issue"
	scheduleroutes "github.com/Ramsey-B/fern/pkg/routes/schedule"
	vehicleroutes "github.com/Ramsey-B/fern/pkg/routes/vehicle"
	"github.com/Ramsey-B/fern/pkg/tracing"
	"github.com/Ramsey-B/fern/pkg/tracing/exporters"
)

func main() {
	_ = godotenv.Load()

	var cfg config.Config
	if err := ectoenv.BindEnv(&cfg); err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := buildLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg, logger); err != nil {
		logger.WithError(err).Error("Server exited with error")
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, logger ectologger.Logger) error {
	if cfg.TracingEnabled {
		shutdown, err := setupTracing(ctx, cfg)
		if err != nil {
			return err
		}
		defer shutdown(context.Background())
	}

	// Database
	dsn := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.DatabaseHost, cfg.DatabasePort, cfg.DatabaseUserName, cfg.DatabasePassword, cfg.DatabaseName, cfg.DatabaseSSLMode,
	)
	sqlxDB, err := sqlx.Connect(cfg.DatabaseDriver, dsn)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer sqlxDB.Close()
	sqlxDB.SetMaxOpenConns(cfg.DatabaseMaxOpenConns)
	sqlxDB.SetMaxIdleConns(cfg.DatabaseMaxIdleConns)
	sqlxDB.SetConnMaxLifetime(cfg.DatabaseConnMaxLifetime)

	driver, err := migratepg.WithInstance(sqlxDB.DB, &migratepg.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}
	migrations := database.NewMigrationService(logger, &database.MigrationConfig{
		MigrationFolderPath: cfg.DatabaseMigrationFolderPath,
		Version:             uint(cfg.DatabaseMigrationVersion),
		Force:               cfg.DatabaseMigrationForce,
		AutoRollback:        cfg.DatabaseMigrationAutoRollback,
	})
	if err := migrations.Migrate(cfg.DatabaseName, driver); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	db := database.NewDatabaseInstance(sqlxDB, logger)

	// Redis
	var redisClient *redis.Client
	var redisHealth interface{ Ping() error }
	if cfg.RedisEnabled {
		redisClient, err = redis.NewClient(redis.Config{
			Host:     cfg.RedisHost,
			Port:     cfg.RedisPort,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		}, logger)
		if err != nil {
			return err
		}
		defer redisClient.Close()
		redisHealth = redisClient
	}
	statsCache := redis.NewStatsCache(redisClient, cfg.StatsCacheTTL)

	// Kafka producer
	var producer *kafka.Producer
	if cfg.KafkaProducerEnabled {
		producer = kafka.NewProducer(kafka.ProducerConfig{
			Brokers:      cfg.KafkaBrokers,
			Topic:        cfg.KafkaOutputTopic,
			BatchSize:    cfg.KafkaBatchSize,
			BatchTimeout: time.Duration(cfg.KafkaBatchTimeout) * time.Millisecond,
			RequiredAcks: cfg.KafkaRequiredAcks,
			Compression:  cfg.KafkaCompression,
		}, logger)
		defer producer.Close()
	}

	// Repositories
	scheduleRepo := schedulerepo.NewRepository(db, logger)
	assignmentRepo := assignmentrepo.NewRepository(db, logger)
	deliveryRepo := deliveryrepo.NewRepository(db, logger)
	trackingRepo := trackingrepo.NewRepository(db, logger)
	issueRepo := issuerepo.NewRepository(db, logger)
	vehicleRepo := vehiclerepo.NewRepository(db, logger)
	auditRepo := auditrepo.NewRepository(db, logger)

	// Services
	schedulerService := scheduler.NewService(scheduleRepo, assignmentRepo, deliveryRepo, issueRepo, auditRepo, producer, statsCache, logger)
	assignmentService := assignmentsvc.NewService(assignmentRepo, scheduleRepo, vehicleRepo, auditRepo, logger)
	trackerService := tracker.NewService(deliveryRepo, scheduleRepo, trackingRepo, producer, logger)
	issuesService := issuesvc.NewService(issueRepo, scheduleRepo, deliveryRepo, producer, logger)
	statsService := statssvc.NewService(scheduleRepo, statsCache, logger)

	if err := registerDependencies(schedulerService, assignmentService, trackerService, issuesService, statsService); err != nil {
		return fmt.Errorf("failed to register dependencies: %w", err)
	}

	// Telemetry consumer
	var consumer *kafka.Consumer
	if cfg.KafkaConsumerEnabled {
		consumer = kafka.NewConsumer(kafka.ConsumerConfig{
			Brokers:       cfg.KafkaBrokers,
			Topic:         cfg.KafkaTelemetryTopic,
			ConsumerGroup: cfg.KafkaConsumerGroup,
		}, logger, telemetryHandler(trackerService, logger))
		if err := consumer.Start(ctx); err != nil {
			return err
		}
		defer consumer.Stop()
	}

	// HTTP server
	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = middleware.Error(logger)
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins: cfg.AllowOrigins,
		AllowMethods: cfg.AllowMethods,
	}))
	if cfg.TracingEnabled {
		e.Use(otelecho.Middleware(cfg.AppName))
	}
	e.Use(middleware.Context())
	e.Use(middleware.Logger(logger))

	api := e.Group("/api/v1")
	scheduleroutes.Register(api.Group("/schedules"))
	deliveryroutes.Register(api.Group("/deliveries"))
	issueroutes.Register(api.Group("/issues"))
	vehicleroutes.Register(api.Group("/vehicles"))

	checker := health.NewChecker(sqlxDB, redisHealth, cfg.Version)
	checker.RegisterRoutes(e)

	if cfg.MetricsEnabled {
		e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	}

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		ReadTimeout:       time.Duration(cfg.HttpServerReadTimeoutSeconds) * time.Second,
		WriteTimeout:      time.Duration(cfg.HttpServerWriteTimeoutSeconds) * time.Second,
		IdleTimeout:       time.Duration(cfg.HttpServerIdleTimeoutSeconds) * time.Second,
		ReadHeaderTimeout: time.Duration(cfg.ReadHeaderTimeoutSeconds) * time.Second,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("Starting %s on port %d", cfg.AppName, cfg.Port)
		if err := e.StartServer(server); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()
	checker.SetReady(true)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	checker.SetReady(false)
	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

func buildLogger(cfg config.Config) (ectologger.Logger, error) {
	var zapLogger *zap.Logger
	var err error
	if cfg.PrettyLogs {
		zapLogger, err = zap.NewDevelopment()
	} else {
		zapLogger, err = zap.NewProduction()
	}
	if err != nil {
		return nil, err
	}
	return zapadapter.NewZapEctoLogger(zapLogger, nil), nil
}

func registerDependencies(deps ...any) error {
	container, err := ectoinject.NewDIDefaultContainer()
	if err != nil {
		return err
	}

	for _, dep := range deps {
		switch d := dep.(type) {
		case *scheduler.Service:
			err = ectoinject.RegisterInstance[*scheduler.Service](container, d)
		case *assignmentsvc.Service:
			err = ectoinject.RegisterInstance[*assignmentsvc.Service](container, d)
		case *tracker.Service:
			err = ectoinject.RegisterInstance[*tracker.Service](container, d)
		case *issuesvc.Service:
			err = ectoinject.RegisterInstance[*issuesvc.Service](container, d)
		case *statssvc.Service:
			err = ectoinject.RegisterInstance[*statssvc.Service](container, d)
		}
		if err != nil {
			return err
		}
	}

	return nil
}

func setupTracing(ctx context.Context, cfg config.Config) (func(context.Context) error, error) {
	var exporter sdktrace.SpanExporter
	var err error
	switch cfg.TracingExporter {
	case "console":
		exporter = &exporters.ConsoleExporter{}
	default:
		protocol := "grpc"
		if cfg.TracingExporter == "otlp-http" {
			protocol = "http"
		}
		exporter, err = exporters.NewOTLPExporter(ctx, exporters.OTLPConfig{
			Endpoint: cfg.TracingOTLPEndpoint,
			Protocol: protocol,
			Insecure: true,
			Timeout:  10 * time.Second,
		})
	}
	if err != nil {
		return nil, err
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithSampler(sdktrace.TraceIDRatioBased(cfg.TracingSampleRate)),
	)
	tracing.SetTracer(provider.Tracer(cfg.AppName))

	return provider.Shutdown, nil
}

// telemetryHandler routes vehicle telemetry pings into the tracker. Domain
// rejections (frozen schedule, unknown delivery) are dropped so a bad ping
// cannot wedge the partition; anything else is retried via redelivery.
func telemetryHandler(svc *tracker.Service, logger ectologger.Logger) kafka.MessageHandler {
	return func(ctx context.Context, msg *kafka.IncomingMessage) error {
		req := msg.ToLocationRequest()
		if req == nil {
			return nil
		}

		_, err := svc.RecordLocation(ctx, msg.GetTenantID(), msg.GetDeliveryID(), *req, "telemetry")
		if err != nil {
			switch faults.Code(err) {
			case faults.CodeTrackingNotAllowed, faults.CodeNotFound, faults.CodeInvalidTransition, faults.CodeImmutableRecord:
				logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
					"delivery_id": msg.GetDeliveryID(),
				}).Warn("Dropping telemetry ping")
				return nil
			}
			return err
		}

		return nil
	}
}
