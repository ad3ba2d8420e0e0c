package form

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/consorcio/emissions/vehicle"
)

func TestSession_SetCategoryResetsDependents(t *testing.T) {
	s := NewSession()
	assert.False(t, s.State().ShowSubtype)

	state := s.SetCategory(vehicle.CategoryCar)
	assert.Equal(t, vehicle.SubtypeStandard, state.SelectedSubtype)
	assert.Equal(t, vehicle.FuelGasoline, state.ImpliedFuel)
	assert.Equal(t, 5, state.OccupancyMax)

	s.SetSubtype(vehicle.SubtypeFlex)
	s.SetFuel(vehicle.FuelEthanol)
	s.SetPeopleAmount(4)

	state = s.SetCategory(vehicle.CategoryBus)
	sel := s.Selection()
	assert.Equal(t, "micro-bus", sel.VehicleType)
	assert.Empty(t, sel.Fuel)
	assert.Empty(t, sel.PeopleAmount)
	assert.False(t, state.ShowOccupancy)
	assert.Equal(t, vehicle.FuelDiesel, state.ImpliedFuel)
}

func TestSession_SetSubtypePreselectsFuel(t *testing.T) {
	s := NewSession()
	s.SetCategory(vehicle.CategoryBus)

	state := s.SetSubtype(vehicle.SubtypeMunicipalBus)
	assert.True(t, state.ShowFuel)
	assert.Equal(t, vehicle.FuelDiesel, state.SelectedFuel)
	assert.Equal(t, "Diesel", s.Selection().Fuel)

	s.SetFuel(vehicle.FuelBiodiesel)
	s.SetSubtype(vehicle.SubtypeTravelBus)
	assert.Equal(t, "Diesel", s.Selection().Fuel)
}

func TestSession_UnknownCategory(t *testing.T) {
	s := NewSession()
	state := s.SetCategory("truck")
	assert.Equal(t, FormState{}, state)
	assert.Equal(t, "", s.Selection().VehicleType)
}

func TestSession_Submit(t *testing.T) {
	s := NewSession()
	s.SetPersonName("Ana")
	s.SetDistance("10,0")
	s.SetCategory(vehicle.CategoryCar)
	s.SetSubtype(vehicle.SubtypeFlex)
	s.SetFuel(vehicle.FuelEthanol)
	s.SetPeopleAmount(3)

	req, err := s.Submit()
	require.NoError(t, err)
	assert.Equal(t, "10.00", req.Distance.String())
	assert.Equal(t, vehicle.FuelEthanol, req.Fuel)

	// A successful submit clears the form.
	assert.Equal(t, Selection{}, s.Selection())
	assert.False(t, s.State().ShowSubtype)
}

func TestSession_SubmitFailureKeepsSelection(t *testing.T) {
	s := NewSession()
	s.SetDistance("5")
	s.SetCategory(vehicle.CategoryBus)

	_, err := s.Submit()
	assert.ErrorIs(t, err, MissingField(FieldPersonName))
	assert.Equal(t, "5", s.Selection().Distance)
}

func TestSession_Independent(t *testing.T) {
	a := NewSession()
	b := NewSession()

	a.SetCategory(vehicle.CategoryMotorcycle)
	b.SetCategory(vehicle.CategoryBus)

	assert.Equal(t, 2, a.State().OccupancyMax)
	assert.False(t, b.State().ShowOccupancy)
}
