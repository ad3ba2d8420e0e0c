package i18n

import (
	"testing"

	"github.com/consorcio/emissions/vehicle"
)

func TestTranslate(t *testing.T) {
	tests := []struct {
		key  string
		want string
	}{
		{"car-flex", "Carro Flex"},
		{"bus-micro-bus", "Micro-ônibus"},
		{"motorcycle", "Motocicleta"},
		{"gasoline", "Gasolina"},
		{"car-diesel", "car-diesel"},
		{"", ""},
		{"truck", "truck"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			if got := Translate(tt.key); got != tt.want {
				t.Errorf("Translate(%q) = %q, want %q", tt.key, got, tt.want)
			}
		})
	}
}

func TestEveryVehicleHasLabel(t *testing.T) {
	for _, k := range vehicle.AllKeys() {
		if got := VehicleLabel(k.Category, k.Subtype); got == k.String() {
			t.Errorf("no label for %s", k)
		}
	}
	for _, c := range vehicle.AllCategories() {
		if Translate(c.String()) == c.String() {
			t.Errorf("no label for category %s", c)
		}
	}
}

func TestFuelLabel(t *testing.T) {
	for _, f := range vehicle.AllFuels() {
		if got := FuelLabel(f); got != f.String() {
			t.Errorf("FuelLabel(%s) = %q, want %q", f, got, f)
		}
	}
}

func TestVehicleKey(t *testing.T) {
	if got := VehicleKey(vehicle.CategoryBus, vehicle.SubtypeTravelBus); got != "bus-travel-bus" {
		t.Errorf("VehicleKey = %q", got)
	}
}
