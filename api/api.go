// Package api exposes the form engine and the emission records over HTTP.
package api

import (
	"compress/flate"
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/consorcio/emissions/auth"
	"github.com/consorcio/emissions/export"
	"github.com/consorcio/emissions/form"
	"github.com/consorcio/emissions/health"
	httpx "github.com/consorcio/emissions/http"
	"github.com/consorcio/emissions/logging"
	"github.com/consorcio/emissions/records"
	"github.com/consorcio/emissions/telemetry"
)

// RecordService stores and aggregates emission records.
type RecordService interface {
	Submit(ctx context.Context, sel form.Selection) (records.Record, error)
	List(ctx context.Context) ([]records.Record, error)
	CO2Summary(ctx context.Context) (records.Summary, error)
	KMSummary(ctx context.Context) (records.Summary, error)
	Vehicles(ctx context.Context) ([]string, error)
	Fuels(ctx context.Context) ([]string, error)
}

// Exporter runs a data export.
type Exporter interface {
	Export(ctx context.Context) (export.Result, error)
}

// Config holds the HTTP settings of the API.
type Config struct {
	CORSAllowedOrigins  []string
	RequestTimeout      time.Duration
	SubmitRatePerSecond float64
	SubmitBurst         int
}

// Dependencies are the collaborators of the API. Records and JWT are
// required; the rest fall back to no-ops.
type Dependencies struct {
	Records   RecordService
	Exporter  Exporter
	JWT       *auth.JWTManager
	Audit     *logging.AuditLogger
	Health    *health.Checker
	Telemetry *telemetry.Telemetry
	Logger    *logging.Logger
}

// API is the HTTP handler of the service.
type API struct {
	router  chi.Router
	limiter *httpx.RateLimiter
	deps    Dependencies
}

// New builds the router with the middleware chain and every route.
func New(cfg Config, deps Dependencies) *API {
	if deps.Logger == nil {
		deps.Logger = logging.NewLogger("info")
	}
	if deps.Telemetry == nil {
		deps.Telemetry = telemetry.NewNop()
	}
	if deps.Health == nil {
		deps.Health = health.NewChecker("")
	}

	limiterCfg := httpx.DefaultRateLimiterConfig()
	if cfg.SubmitRatePerSecond > 0 {
		limiterCfg.RequestsPerSecond = cfg.SubmitRatePerSecond
	}
	if cfg.SubmitBurst > 0 {
		limiterCfg.BurstSize = cfg.SubmitBurst
	}
	limiterCfg.OnLimitExceeded = func(r *http.Request, key string) {
		deps.Audit.LogSecurityEvent(r.Context(), logging.AuditEventRateLimitExceeded,
			logging.ClientIP(r), r.UserAgent(),
			map[string]interface{}{"path": r.URL.Path, "key": key},
		)
	}

	a := &API{
		router:  chi.NewRouter(),
		limiter: httpx.NewRateLimiter(limiterCfg),
		deps:    deps,
	}
	a.routes(cfg)
	return a
}

func (a *API) routes(cfg Config) {
	r := a.router
	logger := a.deps.Logger

	r.Use(httpx.RequestID)
	r.Use(httpx.RealIP)
	r.Use(withLogger(logger))
	r.Use(telemetry.TracingMiddleware(a.deps.Telemetry.Tracer))
	r.Use(telemetry.MetricsMiddleware(a.deps.Telemetry.HTTP))
	r.Use(httpx.Logger(logger))
	r.Use(httpx.Recoverer(logger))
	r.Use(httpx.SecurityHeaders)
	r.Use(httpx.CORS(cfg.CORSAllowedOrigins))
	r.Use(httpx.Compress(flate.DefaultCompression))
	if cfg.RequestTimeout > 0 {
		r.Use(httpx.Timeout(cfg.RequestTimeout))
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httpx.Error(w, r, notFound("route"))
	})

	r.Get("/health/live", a.deps.Health.LivenessHandler())
	r.Get("/health/ready", a.deps.Health.ReadinessHandler())

	r.Route("/api", func(r chi.Router) {
		r.Route("/form", func(r chi.Router) {
			r.Get("/taxonomy", a.taxonomy)
			r.Get("/state", a.formState)
			r.Post("/validate", a.validateForm)
		})

		r.Route("/emission", func(r chi.Router) {
			r.With(a.limiter.Middleware).Post("/", a.createEmission)
			r.Get("/", a.listEmissions)
			r.Get("/co2/", a.co2Summary)
			r.Get("/km/", a.kmSummary)
			r.Get("/vehicles/", a.vehicles)
			r.Get("/fuels/", a.fuels)

			// Audited between authentication and the role check so that
			// denied attempts are recorded with their actor.
			r.With(
				auth.Middleware(a.deps.JWT),
				logging.AuditMiddleware(a.deps.Audit, logging.AuditEventDataExport, auth.AuditActor),
				auth.RequireRole(auth.RoleAdmin),
			).Post("/export", a.exportRecords)
		})

		r.Get("/labels/{key}", a.label)
	})
}

// ServeHTTP implements http.Handler.
func (a *API) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.router.ServeHTTP(w, r)
}

// Close stops background work of the API.
func (a *API) Close() {
	a.limiter.Close()
}

// withLogger makes the logger available to handlers through the context.
func withLogger(logger *logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(logger.WithContext(r.Context())))
		})
	}
}
