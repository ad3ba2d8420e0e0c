// Package fixtures provides test data for unit and integration tests.
package fixtures

import (
	"github.com/consorcio/emissions/form"
)

// SelectionFixture is a form submission together with what it should store.
type SelectionFixture struct {
	Name      string
	Selection form.Selection
	// Expected stored values.
	Vehicle  string
	Fuel     string
	Emission string
	Distance string
}

// Valid submissions covering every category.
var (
	AnaCarFlexEthanol = SelectionFixture{
		Name: "car flex ethanol with three people",
		Selection: form.Selection{
			PersonName:   "Ana",
			Distance:     "10,0",
			Vehicle:      "car",
			VehicleType:  "flex",
			Fuel:         "Etanol",
			PeopleAmount: "3",
		},
		Vehicle:  "car-flex",
		Fuel:     "ethanol",
		Emission: "0.47",
		Distance: "10.00",
	}

	BoMicroBus = SelectionFixture{
		Name: "micro-bus with implied diesel",
		Selection: form.Selection{
			PersonName:  "Bo",
			Distance:    "5",
			Vehicle:     "bus",
			VehicleType: "micro-bus",
		},
		Vehicle:  "bus-micro-bus",
		Fuel:     "diesel",
		Emission: "2.14",
		Distance: "5.00",
	}

	CaioCarStandard = SelectionFixture{
		Name: "car standard alone",
		Selection: form.Selection{
			PersonName:   "Caio",
			Distance:     "12.5",
			Vehicle:      "car",
			VehicleType:  "standard",
			PeopleAmount: "1",
		},
		Vehicle:  "car-standard",
		Fuel:     "gasoline",
		Emission: "1.69",
		Distance: "12.50",
	}

	DaniMotorcycle = SelectionFixture{
		Name: "motorcycle standard with a passenger",
		Selection: form.Selection{
			PersonName:   "Dani",
			Distance:     "20",
			Vehicle:      "motorcycle",
			VehicleType:  "standard",
			PeopleAmount: "2",
		},
		Vehicle:  "motorcycle-standard",
		Fuel:     "gasoline",
		Emission: "0.36",
		Distance: "20.00",
	}

	EvaTravelBusBiodiesel = SelectionFixture{
		Name: "travel bus on biodiesel",
		Selection: form.Selection{
			PersonName:  "Eva",
			Distance:    "100",
			Vehicle:     "bus",
			VehicleType: "travel-bus",
			Fuel:        "Biodiesel",
		},
		Vehicle:  "bus-travel-bus",
		Fuel:     "biodiesel",
		Emission: "2.60",
		Distance: "100.00",
	}
)

// ValidSelections returns every valid fixture.
func ValidSelections() []SelectionFixture {
	return []SelectionFixture{
		AnaCarFlexEthanol,
		BoMicroBus,
		CaioCarStandard,
		DaniMotorcycle,
		EvaTravelBusBiodiesel,
	}
}

// InvalidSelection is a submission that fails validation on Field.
type InvalidSelection struct {
	Name      string
	Selection form.Selection
	Field     string
	Code      string
}

// InvalidSelections returns submissions that each fail on one field.
func InvalidSelections() []InvalidSelection {
	return []InvalidSelection{
		{
			Name:      "blank name",
			Selection: form.Selection{PersonName: " ", Distance: "5", Vehicle: "bus", VehicleType: "micro-bus"},
			Field:     form.FieldPersonName,
			Code:      "MISSING_FIELD",
		},
		{
			Name:      "negative distance",
			Selection: form.Selection{PersonName: "Ana", Distance: "-2", Vehicle: "bus", VehicleType: "micro-bus"},
			Field:     form.FieldDistance,
			Code:      "INVALID_DISTANCE",
		},
		{
			Name:      "fuel not offered",
			Selection: form.Selection{PersonName: "Ana", Distance: "2", Vehicle: "car", VehicleType: "flex", Fuel: "Diesel", PeopleAmount: "1"},
			Field:     form.FieldFuel,
			Code:      "INVALID_FUEL",
		},
		{
			Name:      "car over capacity",
			Selection: form.Selection{PersonName: "Ana", Distance: "2", Vehicle: "car", VehicleType: "standard", PeopleAmount: "6"},
			Field:     form.FieldPeopleAmount,
			Code:      "OCCUPANCY_LIMIT_EXCEEDED",
		},
	}
}

// Admin identity used to mint tokens in tests.
const (
	AdminSubject = "admin-1"
	AdminEmail   = "admin@example.com"
)
