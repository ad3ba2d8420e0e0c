// Package emission estimates the CO2 emitted by a trip from a static table of
// emission factors in kg CO2 per km.
package emission

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/consorcio/emissions/form"
	"github.com/consorcio/emissions/vehicle"
)

// ErrNoFactor is returned when the table has no factor for a trip.
var ErrNoFactor = errors.New("no emission factor")

// factorKey indexes the table. People is zero for categories without occupancy.
type factorKey struct {
	vehicle vehicle.Key
	fuel    vehicle.Fuel
	people  int
}

var factors = buildFactors()

func buildFactors() map[factorKey]decimal.Decimal {
	m := make(map[factorKey]decimal.Decimal)
	add := func(c vehicle.Category, s vehicle.Subtype, f vehicle.Fuel, perPerson ...string) {
		k := vehicle.Key{Category: c, Subtype: s}
		if len(perPerson) == 1 {
			m[factorKey{vehicle: k, fuel: f}] = decimal.RequireFromString(perPerson[0])
			return
		}
		for i, v := range perPerson {
			m[factorKey{vehicle: k, fuel: f, people: i + 1}] = decimal.RequireFromString(v)
		}
	}

	add(vehicle.CategoryBus, vehicle.SubtypeMicroBus, vehicle.FuelDiesel, "0.427")
	add(vehicle.CategoryBus, vehicle.SubtypeMunicipalBus, vehicle.FuelDiesel, "0.09")
	add(vehicle.CategoryBus, vehicle.SubtypeMunicipalBus, vehicle.FuelBiodiesel, "0.084")
	add(vehicle.CategoryBus, vehicle.SubtypeTravelBus, vehicle.FuelDiesel, "0.028")
	add(vehicle.CategoryBus, vehicle.SubtypeTravelBus, vehicle.FuelBiodiesel, "0.026")

	add(vehicle.CategoryCar, vehicle.SubtypeStandard, vehicle.FuelGasoline, "0.135", "0.068", "0.045", "0.034", "0.027")
	add(vehicle.CategoryCar, vehicle.SubtypeFlex, vehicle.FuelGasoline, "0.138", "0.069", "0.046", "0.035", "0.028")
	add(vehicle.CategoryCar, vehicle.SubtypeFlex, vehicle.FuelEthanol, "0.140", "0.07", "0.047", "0.035", "0.028")

	add(vehicle.CategoryMotorcycle, vehicle.SubtypeStandard, vehicle.FuelGasoline, "0.036", "0.018")
	add(vehicle.CategoryMotorcycle, vehicle.SubtypeFlex, vehicle.FuelEthanol, "0.041", "0.02")
	add(vehicle.CategoryMotorcycle, vehicle.SubtypeFlex, vehicle.FuelGasoline, "0.039", "0.019")

	return m
}

// Factor returns the emission factor in kg CO2 per km for one trip.
// people is ignored for categories without occupancy.
func Factor(k vehicle.Key, fuel vehicle.Fuel, people int) (decimal.Decimal, error) {
	fk := factorKey{vehicle: k, fuel: fuel}
	if k.Category.HasOccupancy() {
		fk.people = people
	}
	f, ok := factors[fk]
	if !ok {
		return decimal.Zero, fmt.Errorf("%w for %s with %s and %d people", ErrNoFactor, k, fuel.Code(), fk.people)
	}
	return f, nil
}

// Calculate returns the estimated emission of a validated trip in kg CO2.
// A trip without a people amount counts as one person.
func Calculate(req form.TripRequest) (form.Amount, error) {
	people := 1
	if req.PeopleAmount != nil {
		people = *req.PeopleAmount
	}
	f, err := Factor(req.Key(), req.Fuel, people)
	if err != nil {
		return form.Amount{}, err
	}
	return form.NewAmount(f.Mul(req.Distance.Decimal)), nil
}
