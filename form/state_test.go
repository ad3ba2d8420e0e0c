package form

import (
	"reflect"
	"testing"

	"github.com/consorcio/emissions/vehicle"
)

func TestDeriveFormState_Hidden(t *testing.T) {
	for _, c := range []vehicle.Category{"", "truck"} {
		got := DeriveFormState(c, vehicle.SubtypeFlex)
		if !reflect.DeepEqual(got, FormState{}) {
			t.Errorf("DeriveFormState(%q) = %+v, want everything hidden", c, got)
		}
	}
}

func TestDeriveFormState_Occupancy(t *testing.T) {
	tests := []struct {
		category vehicle.Category
		show     bool
		max      int
	}{
		{vehicle.CategoryCar, true, 5},
		{vehicle.CategoryMotorcycle, true, 2},
		{vehicle.CategoryBus, false, 0},
	}

	for _, tt := range tests {
		subtypes, err := vehicle.SubtypesFor(tt.category)
		if err != nil {
			t.Fatalf("SubtypesFor(%s): %v", tt.category, err)
		}
		for _, s := range append([]vehicle.Subtype{""}, subtypes...) {
			got := DeriveFormState(tt.category, s)
			if got.ShowOccupancy != tt.show || got.OccupancyRequired != tt.show {
				t.Errorf("%s/%s: ShowOccupancy=%v OccupancyRequired=%v, want %v",
					tt.category, s, got.ShowOccupancy, got.OccupancyRequired, tt.show)
			}
			if got.OccupancyMax != tt.max {
				t.Errorf("%s/%s: OccupancyMax=%d, want %d", tt.category, s, got.OccupancyMax, tt.max)
			}
		}
	}
}

func TestDeriveFormState_Fuel(t *testing.T) {
	tests := []struct {
		name         string
		category     vehicle.Category
		subtype      vehicle.Subtype
		showFuel     bool
		options      []vehicle.Fuel
		selectedFuel vehicle.Fuel
		impliedFuel  vehicle.Fuel
	}{
		{
			name:        "car standard implies gasoline",
			category:    vehicle.CategoryCar,
			subtype:     vehicle.SubtypeStandard,
			impliedFuel: vehicle.FuelGasoline,
		},
		{
			name:        "motorcycle standard implies gasoline",
			category:    vehicle.CategoryMotorcycle,
			subtype:     vehicle.SubtypeStandard,
			impliedFuel: vehicle.FuelGasoline,
		},
		{
			name:         "car flex offers gasoline and ethanol",
			category:     vehicle.CategoryCar,
			subtype:      vehicle.SubtypeFlex,
			showFuel:     true,
			options:      []vehicle.Fuel{vehicle.FuelGasoline, vehicle.FuelEthanol},
			selectedFuel: vehicle.FuelGasoline,
		},
		{
			name:        "micro-bus implies diesel",
			category:    vehicle.CategoryBus,
			subtype:     vehicle.SubtypeMicroBus,
			impliedFuel: vehicle.FuelDiesel,
		},
		{
			name:         "travel-bus offers diesel and biodiesel",
			category:     vehicle.CategoryBus,
			subtype:      vehicle.SubtypeTravelBus,
			showFuel:     true,
			options:      []vehicle.Fuel{vehicle.FuelDiesel, vehicle.FuelBiodiesel},
			selectedFuel: vehicle.FuelDiesel,
		},
		{
			name:     "subtype unset hides fuel",
			category: vehicle.CategoryBus,
		},
		{
			name:     "subtype of another category hides fuel",
			category: vehicle.CategoryCar,
			subtype:  vehicle.SubtypeMicroBus,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DeriveFormState(tt.category, tt.subtype)
			if !got.ShowSubtype {
				t.Fatal("subtype section should be shown for a valid category")
			}
			if got.ShowFuel != tt.showFuel || got.FuelRequired != tt.showFuel {
				t.Errorf("ShowFuel=%v FuelRequired=%v, want %v", got.ShowFuel, got.FuelRequired, tt.showFuel)
			}
			if !reflect.DeepEqual(got.FuelOptions, tt.options) {
				t.Errorf("FuelOptions = %v, want %v", got.FuelOptions, tt.options)
			}
			if got.SelectedFuel != tt.selectedFuel {
				t.Errorf("SelectedFuel = %q, want %q", got.SelectedFuel, tt.selectedFuel)
			}
			if got.ImpliedFuel != tt.impliedFuel {
				t.Errorf("ImpliedFuel = %q, want %q", got.ImpliedFuel, tt.impliedFuel)
			}
		})
	}
}

func TestDeriveFormState_DefaultSubtype(t *testing.T) {
	got := DeriveFormState(vehicle.CategoryBus, "")
	if got.SelectedSubtype != vehicle.SubtypeMicroBus {
		t.Errorf("SelectedSubtype = %q, want first option %q", got.SelectedSubtype, vehicle.SubtypeMicroBus)
	}

	got = DeriveFormState(vehicle.CategoryBus, vehicle.SubtypeTravelBus)
	if got.SelectedSubtype != vehicle.SubtypeTravelBus {
		t.Errorf("SelectedSubtype = %q, want %q", got.SelectedSubtype, vehicle.SubtypeTravelBus)
	}
}

func TestDeriveFormState_Idempotent(t *testing.T) {
	for _, k := range vehicle.AllKeys() {
		first := DeriveFormState(k.Category, k.Subtype)
		second := DeriveFormState(k.Category, k.Subtype)
		if !reflect.DeepEqual(first, second) {
			t.Errorf("%s: state changed between calls", k)
		}
	}
}
