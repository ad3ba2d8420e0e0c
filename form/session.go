package form

import (
	"strconv"

	"github.com/consorcio/emissions/vehicle"
)

// Session holds the in-progress selection of one form. Every change to the
// category or subtype re-derives the form state and resets the fields that
// depend on it to their defaults.
//
// A Session is not safe for concurrent use; each form owns its own.
type Session struct {
	sel   Selection
	state FormState
}

// NewSession returns an empty session with every dependent section hidden.
func NewSession() *Session {
	return &Session{}
}

// SetCategory selects a category. The subtype is pre-selected to the first
// option and the fuel to the first choice, if any. Occupancy is cleared.
func (s *Session) SetCategory(category vehicle.Category) FormState {
	s.sel.Vehicle = string(category)
	s.sel.VehicleType = ""
	s.sel.Fuel = ""
	s.sel.PeopleAmount = ""

	s.state = DeriveFormState(category, "")
	if !s.state.ShowSubtype {
		return s.state
	}
	return s.SetSubtype(s.state.SelectedSubtype)
}

// SetSubtype selects a subtype and resets the fuel to its default.
func (s *Session) SetSubtype(subtype vehicle.Subtype) FormState {
	s.sel.VehicleType = string(subtype)
	s.state = DeriveFormState(vehicle.Category(s.sel.Vehicle), subtype)
	s.sel.Fuel = string(s.state.SelectedFuel)
	return s.state
}

// SetFuel records the chosen fuel. It has no effect on the form state.
func (s *Session) SetFuel(fuel vehicle.Fuel) {
	s.sel.Fuel = string(fuel)
}

// SetPeopleAmount records the number of occupants.
func (s *Session) SetPeopleAmount(n int) {
	s.sel.PeopleAmount = strconv.Itoa(n)
}

// SetDistance records the distance exactly as typed.
func (s *Session) SetDistance(distance string) {
	s.sel.Distance = distance
}

// SetPersonName records the person name.
func (s *Session) SetPersonName(name string) {
	s.sel.PersonName = name
}

// State returns the current form state.
func (s *Session) State() FormState {
	return s.state
}

// Selection returns a copy of the current selection.
func (s *Session) Selection() Selection {
	return s.sel
}

// Submit validates the current selection. On success the session is reset,
// matching a form that is cleared after submission.
func (s *Session) Submit() (TripRequest, error) {
	req, err := Validate(s.sel)
	if err != nil {
		return TripRequest{}, err
	}
	s.Reset()
	return req, nil
}

// Reset discards the selection.
func (s *Session) Reset() {
	s.sel = Selection{}
	s.state = FormState{}
}
