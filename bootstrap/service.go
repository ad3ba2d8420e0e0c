// Package bootstrap wires the emissions service together from its configuration.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/consorcio/emissions/api"
	"github.com/consorcio/emissions/auth"
	"github.com/consorcio/emissions/config"
	"github.com/consorcio/emissions/database"
	"github.com/consorcio/emissions/export"
	"github.com/consorcio/emissions/health"
	"github.com/consorcio/emissions/logging"
	"github.com/consorcio/emissions/messaging"
	"github.com/consorcio/emissions/records"
	"github.com/consorcio/emissions/resilience"
	"github.com/consorcio/emissions/telemetry"
)

// Service holds all initialized components of the emissions service.
type Service struct {
	Config      *config.Config
	Logger      *logging.Logger
	Telemetry   *telemetry.Telemetry
	AppInsights *logging.AppInsightsClient
	Connections *database.Connections
	Records     *records.Service
	Exporter    *export.Exporter
	Audit       *logging.AuditLogger
	Health      *health.Checker
	JWT         *auth.JWTManager

	publisher messaging.Publisher
	busClient *messaging.ServiceBusClient
}

// Options configures which integrations are started.
type Options struct {
	// UseRedis enables the summary cache and the export lock when Redis is configured.
	UseRedis bool
	// UseServiceBus enables event publishing when Service Bus is configured.
	UseServiceBus bool
	// RunMigrations applies pending migrations on startup.
	RunMigrations bool
}

// DefaultOptions enables every configured integration.
func DefaultOptions() Options {
	return Options{
		UseRedis:      true,
		UseServiceBus: true,
		RunMigrations: false,
	}
}

// Initialize loads configuration (Key Vault in production, environment
// variables otherwise) and builds the service.
func Initialize(ctx context.Context, serviceName string, opts Options) (*Service, error) {
	cfg, err := config.Load(serviceName)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return New(ctx, cfg, opts)
}

// New builds the service from an already loaded configuration.
func New(ctx context.Context, cfg *config.Config, opts Options) (*Service, error) {
	logger := logging.NewLogger(cfg.LogLevel).WithService(cfg.ServiceName)
	logger.Info("starting service",
		"environment", cfg.Environment,
		"version", cfg.Version,
		"key_vault", valueOrNone(cfg.KeyVaultName),
	)

	s := &Service{
		Config: cfg,
		Logger: logger,
		Audit: logging.NewAuditLogger(logging.AuditLoggerConfig{
			ServiceName: cfg.ServiceName,
			Environment: cfg.Environment,
			Logger:      logger.Logger,
		}),
		AppInsights: logging.NewAppInsightsClient(cfg.AppInsightsKey, cfg.ServiceName),
		Health:      health.NewChecker(cfg.Version),
		JWT: auth.NewJWTManager(auth.JWTConfig{
			Secret:       cfg.JWTSecret,
			Issuer:       cfg.JWTIssuer,
			Audience:     cfg.JWTAudience,
			AccessExpiry: config.GetEnvDuration("JWT_ACCESS_EXPIRY", 15*time.Minute),
		}),
		publisher: messaging.NopPublisher{},
	}

	tel, err := telemetry.Setup(ctx, telemetry.Config{
		ServiceName:                 cfg.ServiceName,
		ServiceVersion:              cfg.Version,
		Environment:                 cfg.Environment,
		AppInsightsConnectionString: cfg.AppInsightsConnectionString,
		OTLPEndpoint:                cfg.OTLPEndpoint,
		OTLPInsecure:                cfg.IsDevelopment(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to set up telemetry: %w", err)
	}
	s.Telemetry = tel

	connCfg := database.ConnectionConfigFromConfig(cfg)
	if !opts.UseRedis {
		connCfg.Redis.Host = ""
	}
	conns, err := database.NewConnections(ctx, connCfg, logger)
	if err != nil {
		s.Close(ctx)
		return nil, fmt.Errorf("failed to create database connections: %w", err)
	}
	s.Connections = conns

	if err := conns.InitializeAll(ctx); err != nil {
		s.Close(ctx)
		return nil, err
	}

	if opts.RunMigrations {
		if _, err := s.Migrate(ctx); err != nil {
			s.Close(ctx)
			return nil, err
		}
	}

	if opts.UseServiceBus && cfg.ServiceBusEnabled() {
		if err := s.connectServiceBus(); err != nil {
			s.Close(ctx)
			return nil, err
		}
	}

	s.wireRecords()
	if err := s.wireExporter(); err != nil {
		s.Close(ctx)
		return nil, err
	}
	s.wireHealth()

	return s, nil
}

func (s *Service) connectServiceBus() error {
	cfg := s.Config
	client, err := messaging.NewServiceBusClient(messaging.ServiceBusConfig{
		Namespace:        cfg.ServiceBusNS,
		ConnectionString: cfg.ServiceBusConnectionString,
		Topic:            cfg.ServiceBusTopic,
	})
	if err != nil {
		return err
	}
	pub, err := client.NewTopicPublisher()
	if err != nil {
		_ = client.Close(context.Background())
		return err
	}
	s.busClient = client

	breakerCfg := resilience.DefaultCircuitBreakerConfig("servicebus")
	breakerCfg.OnStateChange = func(name string, from, to resilience.CircuitState) {
		s.Logger.Warn("circuit breaker state changed",
			"breaker", name,
			"from", from.String(),
			"to", to.String(),
		)
	}

	s.publisher = messaging.NewTracedPublisher(
		messaging.NewBreakerPublisher(pub, resilience.NewCircuitBreaker(breakerCfg)),
		s.Telemetry.Tracer, "servicebus", cfg.ServiceBusTopic,
	)
	s.Logger.Info("publishing events to Service Bus", "topic", cfg.ServiceBusTopic)
	return nil
}

func (s *Service) wireRecords() {
	repo := records.NewInstrumentedRepository(
		records.NewPostgresRepository(s.Connections.Postgres),
		s.Telemetry.Tracer,
		s.Telemetry.Database,
	)

	opts := []records.Option{
		records.WithLogger(s.Logger),
		records.WithPublisher(s.publisher),
		records.WithMetrics(businessMetrics{s.Telemetry.Emission, s.AppInsights}),
	}
	if s.Connections.Redis != nil {
		opts = append(opts, records.WithCache(records.NewRedisSummaryCache(s.Connections.Redis, s.Config.SummaryCacheTTL)))
	}

	s.Records = records.NewService(repo, opts...)
}

func (s *Service) wireExporter() error {
	sink, err := s.exportSink()
	if err != nil {
		return err
	}
	s.Exporter = s.ExporterTo(sink)
	return nil
}

// ExporterTo builds an exporter of the stored records that writes to sink.
// It reports to the same metrics and takes the same lock as s.Exporter.
func (s *Service) ExporterTo(sink export.Sink) *export.Exporter {
	return s.newExporter(s.Records, sink)
}

func (s *Service) newExporter(source export.Source, sink export.Sink) *export.Exporter {
	opts := []export.Option{
		export.WithLogger(s.Logger),
		export.WithMetrics(exportMetrics{s.Telemetry.Emission, s.AppInsights}),
	}
	if s.Connections != nil && s.Connections.Redis != nil {
		opts = append(opts, export.WithLocker(export.NewRedisLocker(s.Connections.Redis), database.RedisTTLs.ExportLock))
	}
	return export.NewExporter(source, sink, opts...)
}

func (s *Service) exportSink() (export.Sink, error) {
	cfg := s.Config
	if !cfg.BlobExportEnabled() {
		return export.NewFileSink(cfg.ExportDir), nil
	}

	sink, err := export.NewBlobSink(export.BlobConfig{
		ConnectionString: cfg.ExportStorageConnectionString,
		AccountURL:       cfg.ExportStorageAccountURL,
		Container:        cfg.ExportContainer,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create export sink: %w", err)
	}
	return sink, nil
}

func (s *Service) wireHealth() {
	s.Health.AddCheck("postgres", health.PingCheck(s.Connections.Postgres, 0), true)
	if s.Connections.Redis != nil {
		// The cache degrades to the database, so Redis is not critical.
		s.Health.AddCheck("redis", health.PingCheck(s.Connections.Redis, 0), false)
	}
}

// Migrate applies the pending records migrations.
func (s *Service) Migrate(ctx context.Context) (int, error) {
	migrator := database.NewMigrator(s.Connections.Postgres)
	if err := migrator.LoadFromFS(records.Migrations, records.MigrationsDir); err != nil {
		return 0, fmt.Errorf("failed to load migrations: %w", err)
	}

	applied, err := migrator.Up(ctx)
	if err != nil {
		return applied, fmt.Errorf("failed to apply migrations: %w", err)
	}

	s.Logger.Info("migrations applied", "count", applied)
	s.Audit.LogAdminAction(ctx, "system", "", "migration", "schema", records.MigrationsDir,
		logging.AuditOutcomeSuccess, map[string]interface{}{"applied": applied})
	return applied, nil
}

// API builds the HTTP handler of the service.
func (s *Service) API() *api.API {
	return api.New(api.Config{
		CORSAllowedOrigins:  s.Config.CORSAllowedOrigins,
		RequestTimeout:      s.Config.RequestTimeout,
		SubmitRatePerSecond: float64(s.Config.SubmitRatePerSecond),
		SubmitBurst:         s.Config.SubmitBurst,
	}, api.Dependencies{
		Records:   s.Records,
		Exporter:  s.Exporter,
		JWT:       s.JWT,
		Audit:     s.Audit,
		Health:    s.Health,
		Telemetry: s.Telemetry,
		Logger:    s.Logger,
	})
}

// Close releases every resource. It is safe on a partially built service.
func (s *Service) Close(ctx context.Context) {
	var errs []error
	if s.publisher != nil {
		errs = append(errs, s.publisher.Close(ctx))
	}
	if s.busClient != nil {
		errs = append(errs, s.busClient.Close(ctx))
	}
	if s.Connections != nil {
		s.Connections.Close(s.Logger)
	}
	if s.Telemetry != nil {
		errs = append(errs, s.Telemetry.Shutdown(ctx))
	}
	s.AppInsights.Close()

	if err := errors.Join(errs...); err != nil {
		s.Logger.WithError(err).Warn("errors while shutting down")
	}
}

// businessMetrics fans submission measurements out to several sinks.
type businessMetrics []records.Metrics

func (m businessMetrics) RecordSubmission(ctx context.Context, vehicle, fuel string, distanceKm, co2Kg float64) {
	for _, sink := range m {
		sink.RecordSubmission(ctx, vehicle, fuel, distanceKm, co2Kg)
	}
}

func (m businessMetrics) RecordRejection(ctx context.Context, reason string) {
	for _, sink := range m {
		sink.RecordRejection(ctx, reason)
	}
}

// exportMetrics fans export runs out to several sinks.
type exportMetrics []export.Metrics

func (m exportMetrics) RecordExport(ctx context.Context, rows int, err error) {
	for _, sink := range m {
		sink.RecordExport(ctx, rows, err)
	}
}

func valueOrNone(s string) string {
	if s == "" {
		return "(none - using env vars)"
	}
	return s
}
