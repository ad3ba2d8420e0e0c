package form

import (
	"strconv"
	"strings"

	"github.com/consorcio/emissions/vehicle"
)

// Selection is a snapshot of the raw form input.
type Selection struct {
	PersonName   string `json:"person_name"`
	Distance     string `json:"distance"`
	Vehicle      string `json:"vehicle"`
	VehicleType  string `json:"vehicle_type"`
	Fuel         string `json:"fuel"`
	PeopleAmount string `json:"people_amount"`
}

// TripRequest is a validated trip estimate request.
type TripRequest struct {
	PersonName   string           `json:"person_name"`
	Distance     Amount           `json:"distance"`
	Vehicle      vehicle.Category `json:"vehicle"`
	VehicleType  vehicle.Subtype  `json:"vehicle_type"`
	Fuel         vehicle.Fuel     `json:"fuel"`
	PeopleAmount *int             `json:"people_amount,omitempty"`
}

// Key returns the (category, subtype) pair of the request.
func (r TripRequest) Key() vehicle.Key {
	return vehicle.Key{Category: r.Vehicle, Subtype: r.VehicleType}
}

// Validate checks a selection and assembles a TripRequest. It stops at the
// first failure and returns a *ValidationError; no partial request is returned.
func Validate(sel Selection) (TripRequest, error) {
	name := strings.TrimSpace(sel.PersonName)
	if name == "" {
		return TripRequest{}, MissingField(FieldPersonName)
	}

	distance, err := ParseDistance(sel.Distance)
	if err != nil {
		return TripRequest{}, err
	}

	category := vehicle.ParseCategory(sel.Vehicle)
	if !category.IsValid() {
		return TripRequest{}, MissingField(FieldVehicle)
	}

	subtype := vehicle.ParseSubtype(sel.VehicleType)
	policy, err := vehicle.FuelPolicyFor(category, subtype)
	if err != nil {
		return TripRequest{}, MissingField(FieldVehicleType)
	}

	var people *int
	if limit, ok := category.OccupancyLimit(); ok {
		n, err := strconv.Atoi(strings.TrimSpace(sel.PeopleAmount))
		if err != nil || n < 1 {
			return TripRequest{}, MissingField(FieldPeopleAmount)
		}
		if n > limit {
			return TripRequest{}, OccupancyLimitExceeded(category, limit)
		}
		people = &n
	}

	fuel, err := resolveFuel(policy, sel.Fuel)
	if err != nil {
		return TripRequest{}, err
	}

	return TripRequest{
		PersonName:   name,
		Distance:     distance,
		Vehicle:      category,
		VehicleType:  subtype,
		Fuel:         fuel,
		PeopleAmount: people,
	}, nil
}

// resolveFuel applies the fuel policy. A fixed fuel ignores the user input.
func resolveFuel(policy vehicle.FuelPolicy, input string) (vehicle.Fuel, error) {
	if policy.IsFixed() {
		return policy.Fixed(), nil
	}
	if strings.TrimSpace(input) == "" {
		return "", MissingField(FieldFuel)
	}
	fuel, ok := vehicle.ParseFuel(input)
	if !ok || !policy.Allows(fuel) {
		return "", invalidFuel()
	}
	return fuel, nil
}
