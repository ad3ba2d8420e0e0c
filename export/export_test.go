package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/consorcio/emissions/database"
	apperrors "github.com/consorcio/emissions/errors"
	"github.com/consorcio/emissions/form"
	"github.com/consorcio/emissions/logging"
	"github.com/consorcio/emissions/records"
)

type staticSource struct {
	recs []records.Record
	err  error
}

func (s staticSource) List(context.Context) ([]records.Record, error) {
	return s.recs, s.err
}

type memorySink struct {
	files map[string][]byte
	err   error
}

func (s *memorySink) Write(_ context.Context, name string, data []byte) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	if s.files == nil {
		s.files = make(map[string][]byte)
	}
	s.files[name] = data
	return "mem://" + name, nil
}

type memoryLocker struct {
	mu       sync.Mutex
	held     map[string]bool
	released int
}

func (l *memoryLocker) Acquire(_ context.Context, key string, _ time.Duration) (func(context.Context) error, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.held == nil {
		l.held = make(map[string]bool)
	}
	if l.held[key] {
		return nil, database.ErrLockNotAcquired
	}
	l.held[key] = true
	return func(context.Context) error {
		l.mu.Lock()
		defer l.mu.Unlock()
		delete(l.held, key)
		l.released++
		return nil
	}, nil
}

type exportCall struct {
	rows int
	err  error
}

type recordingMetrics struct {
	calls []exportCall
}

func (m *recordingMetrics) RecordExport(_ context.Context, rows int, err error) {
	m.calls = append(m.calls, exportCall{rows: rows, err: err})
}

func amount(s string) form.Amount {
	return form.NewAmount(decimal.RequireFromString(s))
}

func sampleRecords() []records.Record {
	three := 3
	created := time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC)
	return []records.Record{
		{
			ID:             1,
			PersonName:     "Ana",
			EmissionAmount: amount("0.47"),
			Distance:       amount("10"),
			PeopleAmount:   &three,
			Vehicle:        "car-flex",
			Fuel:           "ethanol",
			CreatedAt:      created,
		},
		{
			ID:             2,
			PersonName:     "Bo, Jr.",
			EmissionAmount: amount("2.14"),
			Distance:       amount("5"),
			Vehicle:        "bus-micro-bus",
			Fuel:           "diesel",
			CreatedAt:      created.Add(time.Hour),
		},
	}
}

func fixedClock() time.Time {
	return time.Date(2024, 5, 2, 8, 0, 0, 0, time.UTC)
}

func TestEncodeCSV(t *testing.T) {
	data, err := EncodeCSV(sampleRecords())
	require.NoError(t, err)

	rows, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, Header, rows[0])
	assert.Equal(t, []string{"1", "Ana", "0.47", "10.00", "3", "car-flex", "ethanol", "2024-05-01T12:30:00Z"}, rows[1])
	assert.Equal(t, []string{"2", "Bo, Jr.", "2.14", "5.00", "", "bus-micro-bus", "diesel", "2024-05-01T13:30:00Z"}, rows[2])
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "2024-05-02.csv", FileName(fixedClock()))
}

func TestExporter_Export(t *testing.T) {
	sink := &memorySink{}
	locker := &memoryLocker{}
	metrics := &recordingMetrics{}

	exp := NewExporter(staticSource{recs: sampleRecords()}, sink,
		WithLocker(locker, time.Minute),
		WithMetrics(metrics),
		WithLogger(logging.NewNopLogger()),
		WithClock(fixedClock),
	)

	res, err := exp.Export(context.Background())
	require.NoError(t, err)

	assert.Equal(t, Result{Name: "2024-05-02.csv", Location: "mem://2024-05-02.csv", Rows: 2}, res)
	assert.Contains(t, string(sink.files["2024-05-02.csv"]), "person_name")
	assert.Equal(t, 1, locker.released)
	assert.Equal(t, []exportCall{{rows: 2}}, metrics.calls)
}

func TestExporter_NoRecords(t *testing.T) {
	sink := &memorySink{}
	metrics := &recordingMetrics{}
	exp := NewExporter(staticSource{}, sink, WithMetrics(metrics), WithLogger(logging.NewNopLogger()))

	_, err := exp.Export(context.Background())

	assert.ErrorIs(t, err, ErrNoRecords)
	assert.Equal(t, apperrors.CodeNoRecords, apperrors.Code(err))
	assert.Empty(t, sink.files, "no file is written for an empty table")
	assert.Empty(t, metrics.calls, "an empty table is not a failed export")
}

func TestExporter_InProgress(t *testing.T) {
	locker := &memoryLocker{}
	release, err := locker.Acquire(context.Background(), LockKey, time.Minute)
	require.NoError(t, err)

	metrics := &recordingMetrics{}
	exp := NewExporter(staticSource{recs: sampleRecords()}, &memorySink{},
		WithLocker(locker, time.Minute),
		WithMetrics(metrics),
		WithLogger(logging.NewNopLogger()),
	)

	_, err = exp.Export(context.Background())
	assert.ErrorIs(t, err, ErrInProgress)
	assert.Empty(t, metrics.calls, "a rejected run is not an export")

	require.NoError(t, release(context.Background()))
	_, err = exp.Export(context.Background())
	assert.NoError(t, err)
}

func TestExporter_Failures(t *testing.T) {
	boom := errors.New("boom")

	tests := []struct {
		name   string
		source Source
		sink   *memorySink
	}{
		{"source error", staticSource{err: boom}, &memorySink{}},
		{"sink error", staticSource{recs: sampleRecords()}, &memorySink{err: boom}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			locker := &memoryLocker{}
			metrics := &recordingMetrics{}
			exp := NewExporter(tt.source, tt.sink,
				WithLocker(locker, time.Minute),
				WithMetrics(metrics),
				WithLogger(logging.NewNopLogger()),
			)

			_, err := exp.Export(context.Background())
			assert.ErrorIs(t, err, boom)
			assert.Equal(t, 1, locker.released, "the lock is released on failure")
			require.Len(t, metrics.calls, 1)
			assert.Error(t, metrics.calls[0].err)
		})
	}
}

func TestFileSink(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "exports")
	sink := NewFileSink(dir)

	location, err := sink.Write(context.Background(), "2024-05-02.csv", []byte("id\n1\n"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "2024-05-02.csv"), location)

	data, err := os.ReadFile(location)
	require.NoError(t, err)
	assert.Equal(t, "id\n1\n", string(data))

	// Same day overwrites.
	_, err = sink.Write(context.Background(), "2024-05-02.csv", []byte("id\n2\n"))
	require.NoError(t, err)
	data, _ = os.ReadFile(location)
	assert.Equal(t, "id\n2\n", string(data))
}

func TestNewBlobSink_RequiresLocation(t *testing.T) {
	_, err := NewBlobSink(BlobConfig{Container: "exports"})
	assert.Error(t, err)
}
