package records

import (
	"context"
	"errors"
	"fmt"

	"github.com/consorcio/emissions/database"
	"github.com/consorcio/emissions/emission"
	"github.com/consorcio/emissions/form"
	"github.com/consorcio/emissions/logging"
	"github.com/consorcio/emissions/messaging"
)

// Metrics receives business measurements of submissions.
type Metrics interface {
	RecordSubmission(ctx context.Context, vehicle, fuel string, distanceKm, co2Kg float64)
	RecordRejection(ctx context.Context, reason string)
}

type nopMetrics struct{}

func (nopMetrics) RecordSubmission(context.Context, string, string, float64, float64) {}
func (nopMetrics) RecordRejection(context.Context, string)                            {}

// Service validates, calculates, stores and announces trips.
type Service struct {
	repo      Repository
	cache     SummaryCache
	publisher messaging.Publisher
	metrics   Metrics
	logger    *logging.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithCache sets the summary cache.
func WithCache(cache SummaryCache) Option {
	return func(s *Service) {
		s.cache = cache
	}
}

// WithPublisher sets the event publisher.
func WithPublisher(publisher messaging.Publisher) Option {
	return func(s *Service) {
		s.publisher = publisher
	}
}

// WithMetrics sets the business metrics sink.
func WithMetrics(metrics Metrics) Option {
	return func(s *Service) {
		s.metrics = metrics
	}
}

// WithLogger sets the logger.
func WithLogger(logger *logging.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// NewService creates a service. Without options nothing is cached,
// published or measured.
func NewService(repo Repository, opts ...Option) *Service {
	s := &Service{
		repo:      repo,
		cache:     NopCache{},
		publisher: messaging.NopPublisher{},
		metrics:   nopMetrics{},
		logger:    logging.NewLogger("info"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit validates the selection and stores the trip. Validation failures
// are returned as *form.ValidationError.
func (s *Service) Submit(ctx context.Context, sel form.Selection) (Record, error) {
	req, err := form.Validate(sel)
	if err != nil {
		var verr *form.ValidationError
		if errors.As(err, &verr) {
			s.metrics.RecordRejection(ctx, string(verr.Kind))
		}
		return Record{}, err
	}
	return s.Record(ctx, req)
}

// Record calculates the emission of a validated request and stores it.
// Once the row is written the call succeeds: cache invalidation and event
// publishing failures are only logged.
func (s *Service) Record(ctx context.Context, req form.TripRequest) (Record, error) {
	amount, err := emission.Calculate(req)
	if err != nil {
		return Record{}, fmt.Errorf("calculate emission: %w", err)
	}

	rec := NewRecord(req, amount)
	if err := s.repo.Create(ctx, &rec); err != nil {
		return Record{}, err
	}

	logger := s.logger.With("record_id", rec.ID)
	if id := logging.RequestIDFromContext(ctx); id != "" {
		logger = logger.WithRequestID(id)
	}

	if err := s.cache.Invalidate(ctx); err != nil {
		logger.WithError(err).Warn("failed to invalidate summary cache")
	}

	event := messaging.NewEvent(messaging.EventEmissionRecorded, rec)
	event.CorrelationID = logging.RequestIDFromContext(ctx)
	if err := s.publisher.Publish(ctx, event); err != nil {
		logger.WithError(err).Warn("failed to publish event", "event_type", event.Type)
	}

	s.metrics.RecordSubmission(ctx, rec.Vehicle, rec.Fuel, rec.Distance.InexactFloat64(), rec.EmissionAmount.InexactFloat64())

	logger.Info("emission record created",
		"vehicle", rec.Vehicle,
		"fuel", rec.Fuel,
		"distance_km", rec.Distance.String(),
		"emission_kg", rec.EmissionAmount.String(),
	)
	return rec, nil
}

// List returns every record ordered by ID.
func (s *Service) List(ctx context.Context) ([]Record, error) {
	recs, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	if recs == nil {
		recs = []Record{}
	}
	return recs, nil
}

// CO2Summary returns the emission total and every emission amount.
func (s *Service) CO2Summary(ctx context.Context) (Summary, error) {
	return readThrough(ctx, s, database.RedisKeys.SummaryCO2, func(ctx context.Context) (Summary, error) {
		values, err := s.repo.EmissionAmounts(ctx)
		if err != nil {
			return Summary{}, err
		}
		return Summarize(values), nil
	})
}

// KMSummary returns the distance total and every distance.
func (s *Service) KMSummary(ctx context.Context) (Summary, error) {
	return readThrough(ctx, s, database.RedisKeys.SummaryKM, func(ctx context.Context) (Summary, error) {
		values, err := s.repo.Distances(ctx)
		if err != nil {
			return Summary{}, err
		}
		return Summarize(values), nil
	})
}

// Vehicles returns the vehicle key of every record.
func (s *Service) Vehicles(ctx context.Context) ([]string, error) {
	return readThrough(ctx, s, database.RedisKeys.Vehicles, s.repo.Vehicles)
}

// Fuels returns the fuel code of every record.
func (s *Service) Fuels(ctx context.Context) ([]string, error) {
	return readThrough(ctx, s, database.RedisKeys.Fuels, s.repo.Fuels)
}

// readThrough serves key from the cache, loading and storing it on a miss.
// A failing cache degrades to reading the repository.
func readThrough[T any](ctx context.Context, s *Service, key string, load func(context.Context) (T, error)) (T, error) {
	var cached T
	found, err := s.cache.Get(ctx, key, &cached)
	if err != nil {
		s.logger.WithError(err).Warn("summary cache read failed", "key", key)
	} else if found {
		return cached, nil
	}

	// Taken before loading so an insert racing with the load discards our write.
	generation, genErr := s.cache.Generation(ctx)
	if genErr != nil {
		s.logger.WithError(genErr).Warn("summary cache generation read failed", "key", key)
	}

	value, err := load(ctx)
	if err != nil {
		var zero T
		return zero, err
	}

	if genErr == nil {
		if err := s.cache.Set(ctx, key, value, generation); err != nil {
			s.logger.WithError(err).Warn("summary cache write failed", "key", key)
		}
	}
	return value, nil
}
