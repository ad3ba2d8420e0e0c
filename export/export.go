// Package export writes every stored emission record to a dated CSV file,
// either in a local directory or in an Azure Blob Storage container.
package export

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/consorcio/emissions/database"
	apperrors "github.com/consorcio/emissions/errors"
	"github.com/consorcio/emissions/logging"
	"github.com/consorcio/emissions/records"
)

// LockKey serializes export runs across service instances.
var LockKey = database.RedisKeys.ExportLock

var (
	// ErrNoRecords is returned when there is nothing to export. No file is written.
	ErrNoRecords = apperrors.New(apperrors.CodeNoRecords, "there are no emission records to export")
	// ErrInProgress is returned when another export holds the lock.
	ErrInProgress = apperrors.New(apperrors.CodeExportInProgress, "an export is already running")
)

// Source lists the records to export in ID order.
type Source interface {
	List(ctx context.Context) ([]records.Record, error)
}

// Sink stores a finished export and returns where it was written.
type Sink interface {
	Write(ctx context.Context, name string, data []byte) (string, error)
}

// Locker grants exclusive export runs. release is never nil when err is nil.
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (release func(context.Context) error, err error)
}

// Metrics receives export measurements.
type Metrics interface {
	RecordExport(ctx context.Context, rows int, err error)
}

// Result describes a finished export.
type Result struct {
	Name     string `json:"name"`
	Location string `json:"location"`
	Rows     int    `json:"rows"`
}

type nopLocker struct{}

func (nopLocker) Acquire(context.Context, string, time.Duration) (func(context.Context) error, error) {
	return func(context.Context) error { return nil }, nil
}

type nopMetrics struct{}

func (nopMetrics) RecordExport(context.Context, int, error) {}

// Exporter runs exports.
type Exporter struct {
	source  Source
	sink    Sink
	locker  Locker
	lockTTL time.Duration
	metrics Metrics
	logger  *logging.Logger
	now     func() time.Time
}

// Option configures an Exporter.
type Option func(*Exporter)

// WithLocker sets the lock that keeps exports from overlapping.
func WithLocker(locker Locker, ttl time.Duration) Option {
	return func(e *Exporter) {
		e.locker = locker
		e.lockTTL = ttl
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(metrics Metrics) Option {
	return func(e *Exporter) {
		e.metrics = metrics
	}
}

// WithLogger sets the logger.
func WithLogger(logger *logging.Logger) Option {
	return func(e *Exporter) {
		e.logger = logger
	}
}

// WithClock sets the clock used to name files.
func WithClock(now func() time.Time) Option {
	return func(e *Exporter) {
		e.now = now
	}
}

// NewExporter creates an exporter reading from source and writing to sink.
func NewExporter(source Source, sink Sink, opts ...Option) *Exporter {
	e := &Exporter{
		source:  source,
		sink:    sink,
		locker:  nopLocker{},
		lockTTL: database.RedisTTLs.ExportLock,
		metrics: nopMetrics{},
		logger:  logging.NewLogger("info"),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// FileName returns the export name for the given day.
func FileName(t time.Time) string {
	return t.Format("2006-01-02") + ".csv"
}

// Export writes all records to the sink. An empty table yields ErrNoRecords
// and a running export yields ErrInProgress; neither is reported as an export.
func (e *Exporter) Export(ctx context.Context) (res Result, err error) {
	defer func() {
		if !errors.Is(err, ErrInProgress) && !errors.Is(err, ErrNoRecords) {
			e.metrics.RecordExport(ctx, res.Rows, err)
		}
	}()

	release, err := e.locker.Acquire(ctx, LockKey, e.lockTTL)
	if err != nil {
		if errors.Is(err, database.ErrLockNotAcquired) {
			return Result{}, ErrInProgress
		}
		return Result{}, fmt.Errorf("acquire export lock: %w", err)
	}
	defer func() {
		if relErr := release(context.WithoutCancel(ctx)); relErr != nil {
			e.logger.WithError(relErr).Warn("failed to release export lock")
		}
	}()

	recs, err := e.source.List(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("read emission records: %w", err)
	}
	if len(recs) == 0 {
		e.logger.Info("emission table is empty, no export written")
		return Result{}, ErrNoRecords
	}

	data, err := EncodeCSV(recs)
	if err != nil {
		return Result{}, fmt.Errorf("encode export: %w", err)
	}

	name := FileName(e.now())
	location, err := e.sink.Write(ctx, name, data)
	if err != nil {
		return Result{}, fmt.Errorf("write export %s: %w", name, err)
	}

	e.logger.Info("emission records exported",
		"rows", len(recs),
		"location", location,
	)
	return Result{Name: name, Location: location, Rows: len(recs)}, nil
}

// RedisLocker adapts the Redis client lock to Locker.
type RedisLocker struct {
	client *database.RedisClient
}

// NewRedisLocker creates a locker backed by Redis.
func NewRedisLocker(client *database.RedisClient) *RedisLocker {
	return &RedisLocker{client: client}
}

// Acquire takes the lock without waiting.
func (l *RedisLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (func(context.Context) error, error) {
	lock, err := l.client.AcquireLock(ctx, key, ttl)
	if err != nil {
		return nil, err
	}
	return lock.Release, nil
}
