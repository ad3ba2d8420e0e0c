package records

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/consorcio/emissions/telemetry"
)

var (
	_ Repository = (*PostgresRepository)(nil)
	_ Repository = (*InstrumentedRepository)(nil)
	_ Metrics    = (*telemetry.EmissionMetrics)(nil)
)

func TestInstrumentedRepository_Delegates(t *testing.T) {
	tel := telemetry.NewNop()
	inner := &memoryRepository{}
	repo := NewInstrumentedRepository(inner, tel.Tracer, tel.Database)
	ctx := context.Background()

	rec := Record{PersonName: "Ana", EmissionAmount: amount("1"), Distance: amount("2"), Vehicle: "car-standard", Fuel: "gasoline"}
	require.NoError(t, repo.Create(ctx, &rec))
	assert.Equal(t, int64(1), rec.ID)

	recs, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, recs, 1)

	vehicles, err := repo.Vehicles(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"car-standard"}, vehicles)

	fuels, err := repo.Fuels(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"gasoline"}, fuels)

	emissions, err := repo.EmissionAmounts(ctx)
	require.NoError(t, err)
	assert.Len(t, emissions, 1)

	distances, err := repo.Distances(ctx)
	require.NoError(t, err)
	assert.Equal(t, "2.00", distances[0].String())
}

func TestInstrumentedRepository_PropagatesErrors(t *testing.T) {
	tel := telemetry.NewNop()
	inner := &memoryRepository{createErr: errors.New("unique violation")}
	repo := NewInstrumentedRepository(inner, tel.Tracer, tel.Database)

	err := repo.Create(context.Background(), &Record{})
	assert.EqualError(t, err, "unique violation")
}
