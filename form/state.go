// Package form implements the trip emissions form: which fields are shown and
// required for the current selection, and validation of a submitted selection.
//
// Everything here is pure. The taxonomy lives in package vehicle; a Session
// is owned by the caller and never shared.
package form

import "github.com/consorcio/emissions/vehicle"

// FormState describes which dependent fields the form shows and what they accept.
type FormState struct {
	ShowSubtype     bool              `json:"show_subtype"`
	SubtypeOptions  []vehicle.Subtype `json:"subtype_options"`
	SelectedSubtype vehicle.Subtype   `json:"selected_subtype,omitempty"`

	ShowOccupancy     bool `json:"show_occupancy"`
	OccupancyRequired bool `json:"occupancy_required"`
	OccupancyMax      int  `json:"occupancy_max,omitempty"`

	ShowFuel     bool           `json:"show_fuel"`
	FuelRequired bool           `json:"fuel_required"`
	FuelOptions  []vehicle.Fuel `json:"fuel_options"`
	SelectedFuel vehicle.Fuel   `json:"selected_fuel,omitempty"`
	ImpliedFuel  vehicle.Fuel   `json:"implied_fuel,omitempty"`
}

// DeriveFormState computes the form state for a category and an optional subtype.
// An empty or unknown category hides every dependent section; an empty subtype,
// or one that does not belong to the category, hides the fuel section.
func DeriveFormState(category vehicle.Category, subtype vehicle.Subtype) FormState {
	var state FormState

	options, err := vehicle.SubtypesFor(category)
	if err != nil {
		return state
	}

	state.ShowSubtype = true
	state.SubtypeOptions = options
	state.SelectedSubtype = options[0]

	if limit, ok := category.OccupancyLimit(); ok {
		state.ShowOccupancy = true
		state.OccupancyRequired = true
		state.OccupancyMax = limit
	}

	if subtype == "" {
		return state
	}

	policy, err := vehicle.FuelPolicyFor(category, subtype)
	if err != nil {
		return state
	}
	state.SelectedSubtype = subtype

	if policy.IsFixed() {
		state.ImpliedFuel = policy.Fixed()
		return state
	}

	state.ShowFuel = true
	state.FuelRequired = true
	state.FuelOptions = policy.Choices()
	state.SelectedFuel = state.FuelOptions[0]

	return state
}
