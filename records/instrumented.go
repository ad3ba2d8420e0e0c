package records

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/consorcio/emissions/form"
	"github.com/consorcio/emissions/telemetry"
)

const recordsTable = "emission_records"

// InstrumentedRepository traces and measures every call of a Repository.
type InstrumentedRepository struct {
	next    Repository
	tracer  trace.Tracer
	metrics *telemetry.DatabaseMetrics
}

// NewInstrumentedRepository wraps next.
func NewInstrumentedRepository(next Repository, tracer trace.Tracer, metrics *telemetry.DatabaseMetrics) *InstrumentedRepository {
	return &InstrumentedRepository{next: next, tracer: tracer, metrics: metrics}
}

func (r *InstrumentedRepository) observe(ctx context.Context, operation string, fn func(context.Context) error) error {
	start := time.Now()
	err := telemetry.WrapDatabaseOperation(ctx, r.tracer, "postgresql", operation, recordsTable, fn)
	r.metrics.RecordOperation(ctx, operation, time.Since(start), err)
	return err
}

// Create implements Repository.
func (r *InstrumentedRepository) Create(ctx context.Context, rec *Record) error {
	return r.observe(ctx, "INSERT", func(ctx context.Context) error {
		telemetry.SetSpanAttributes(ctx, telemetry.EmissionAttributes(rec.Vehicle, rec.Fuel)...)
		return r.next.Create(ctx, rec)
	})
}

// List implements Repository.
func (r *InstrumentedRepository) List(ctx context.Context) ([]Record, error) {
	var out []Record
	err := r.observe(ctx, "SELECT", func(ctx context.Context) error {
		var err error
		out, err = r.next.List(ctx)
		return err
	})
	return out, err
}

// EmissionAmounts implements Repository.
func (r *InstrumentedRepository) EmissionAmounts(ctx context.Context) ([]form.Amount, error) {
	var out []form.Amount
	err := r.observe(ctx, "SELECT", func(ctx context.Context) error {
		var err error
		out, err = r.next.EmissionAmounts(ctx)
		return err
	})
	return out, err
}

// Distances implements Repository.
func (r *InstrumentedRepository) Distances(ctx context.Context) ([]form.Amount, error) {
	var out []form.Amount
	err := r.observe(ctx, "SELECT", func(ctx context.Context) error {
		var err error
		out, err = r.next.Distances(ctx)
		return err
	})
	return out, err
}

// Vehicles implements Repository.
func (r *InstrumentedRepository) Vehicles(ctx context.Context) ([]string, error) {
	var out []string
	err := r.observe(ctx, "SELECT", func(ctx context.Context) error {
		var err error
		out, err = r.next.Vehicles(ctx)
		return err
	})
	return out, err
}

// Fuels implements Repository.
func (r *InstrumentedRepository) Fuels(ctx context.Context) ([]string, error) {
	var out []string
	err := r.observe(ctx, "SELECT", func(ctx context.Context) error {
		var err error
		out, err = r.next.Fuels(ctx)
		return err
	})
	return out, err
}
