package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/consorcio/emissions/errors"
	"github.com/consorcio/emissions/form"
	pkgtesting "github.com/consorcio/emissions/testing"
	"github.com/consorcio/emissions/testing/fixtures"
	"github.com/consorcio/emissions/vehicle"
)

func TestTaxonomy(t *testing.T) {
	ta := newTestAPI(t, Config{})

	var resp taxonomyResponse
	ta.get(t, "/api/form/taxonomy").AssertOK().DecodeJSON(&resp)
	require.Len(t, resp.Categories, 3)

	byValue := make(map[vehicle.Category]categoryEntry)
	for _, c := range resp.Categories {
		byValue[c.Value] = c
	}

	car := byValue[vehicle.CategoryCar]
	assert.Equal(t, "Carro", car.Label)
	assert.Equal(t, 5, car.OccupancyMax)
	require.Len(t, car.Subtypes, 2)

	bus := byValue[vehicle.CategoryBus]
	assert.Zero(t, bus.OccupancyMax)
	for _, s := range bus.Subtypes {
		switch s.Value {
		case vehicle.SubtypeMicroBus:
			require.NotNil(t, s.ImpliedFuel)
			assert.Equal(t, "diesel", s.ImpliedFuel.Code)
			assert.Empty(t, s.FuelChoices)
		case vehicle.SubtypeTravelBus:
			assert.Nil(t, s.ImpliedFuel)
			require.Len(t, s.FuelChoices, 2)
			assert.Equal(t, "Biodiesel", s.FuelChoices[1].Label)
			assert.Equal(t, "Ônibus de Viagem", s.Label)
		}
	}
}

func TestFormState(t *testing.T) {
	tests := []struct {
		name  string
		query string
		check func(t *testing.T, state form.FormState)
	}{
		{
			name:  "no category hides everything",
			query: "",
			check: func(t *testing.T, state form.FormState) {
				assert.Equal(t, form.FormState{}, state)
			},
		},
		{
			name:  "car shows occupancy",
			query: "?vehicle=car",
			check: func(t *testing.T, state form.FormState) {
				assert.True(t, state.ShowSubtype)
				assert.True(t, state.ShowOccupancy)
				assert.Equal(t, 5, state.OccupancyMax)
				assert.False(t, state.ShowFuel)
			},
		},
		{
			name:  "travel bus offers fuels",
			query: "?vehicle=bus&vehicle_type=travel-bus",
			check: func(t *testing.T, state form.FormState) {
				assert.True(t, state.ShowFuel)
				assert.Equal(t, []vehicle.Fuel{vehicle.FuelDiesel, vehicle.FuelBiodiesel}, state.FuelOptions)
				assert.False(t, state.ShowOccupancy)
			},
		},
		{
			name:  "input is normalized",
			query: "?vehicle=Bus&vehicle_type=Municipal+Bus",
			check: func(t *testing.T, state form.FormState) {
				assert.Equal(t, vehicle.SubtypeMunicipalBus, state.SelectedSubtype)
				assert.True(t, state.ShowFuel)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ta := newTestAPI(t, Config{})

			var state form.FormState
			ta.get(t, "/api/form/state"+tt.query).AssertOK().DecodeJSON(&state)
			tt.check(t, state)
		})
	}
}

func TestFormState_UnknownCategory(t *testing.T) {
	ta := newTestAPI(t, Config{})

	resp := ta.get(t, "/api/form/state?vehicle=truck").AssertBadRequest()
	body := resp.ErrorBody()
	assert.Equal(t, apperrors.CodeValidation, body.Error.Code)
	assert.Contains(t, body.Error.Details, "vehicle")
}

func TestValidateForm(t *testing.T) {
	ta := newTestAPI(t, Config{})

	var req form.TripRequest
	ta.post(t, "/api/form/validate", fixtures.AnaCarFlexEthanol.Selection).AssertOK().DecodeJSON(&req)
	assert.Equal(t, "10.00", req.Distance.String())
	assert.Equal(t, vehicle.FuelEthanol, req.Fuel)
	assert.Empty(t, ta.repo.recs, "validation does not store")

	ta.post(t, "/api/form/validate", fixtures.InvalidSelections()[0].Selection).
		AssertBadRequest().
		AssertErrorCode(apperrors.CodeMissingField)
}

func TestLabel(t *testing.T) {
	tests := []struct {
		key   string
		label string
	}{
		{"car-flex", "Carro Flex"},
		{"ethanol", "Etanol"},
		{"unknown-key", "unknown-key"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			ta := newTestAPI(t, Config{})

			var resp labelResponse
			req := pkgtesting.NewHTTPTestRequest(http.MethodGet, "/api/labels/"+tt.key).Build(t)
			pkgtesting.ExecuteRequest(t, ta, req).AssertOK().DecodeJSON(&resp)
			assert.Equal(t, labelResponse{Key: tt.key, Label: tt.label}, resp)
		})
	}
}

func TestFormError(t *testing.T) {
	err := formError(form.OccupancyLimitExceeded(vehicle.CategoryMotorcycle, 2))

	assert.Equal(t, apperrors.CodeOccupancyLimitExceeded, apperrors.Code(err))
	assert.Equal(t, http.StatusBadRequest, apperrors.HTTPStatus(err))
	assert.ErrorIs(t, err, form.ErrOccupancyLimitExceeded)

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, map[string]string{"people_amount": "must be at most 2"}, appErr.Details)
}
