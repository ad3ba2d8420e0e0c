// Package i18n holds the Portuguese display labels for vehicles and fuels.
package i18n

import "github.com/consorcio/emissions/vehicle"

var labels = map[string]string{
	"motorcycle-flex":     "Motocicleta Flex",
	"motorcycle-standard": "Motocicleta Padrão",
	"car-flex":            "Carro Flex",
	"car-standard":        "Carro Padrão",
	"bus-municipal-bus":   "Ônibus Municipal",
	"bus-micro-bus":       "Micro-ônibus",
	"bus-travel-bus":      "Ônibus de Viagem",

	"car":        "Carro",
	"bus":        "Ônibus",
	"motorcycle": "Motocicleta",

	"gasoline":  "Gasolina",
	"ethanol":   "Etanol",
	"diesel":    "Diesel",
	"biodiesel": "Biodiesel",
}

// Translate returns the label for key, or key itself when there is none.
func Translate(key string) string {
	if label, ok := labels[key]; ok {
		return label
	}
	return key
}

// VehicleKey builds the "category-subtype" dictionary key.
func VehicleKey(c vehicle.Category, s vehicle.Subtype) string {
	return vehicle.Key{Category: c, Subtype: s}.String()
}

// VehicleLabel returns the label of a (category, subtype) pair.
func VehicleLabel(c vehicle.Category, s vehicle.Subtype) string {
	return Translate(VehicleKey(c, s))
}

// FuelLabel returns the label of a fuel, looked up by its storage code.
func FuelLabel(f vehicle.Fuel) string {
	return Translate(f.Code())
}
