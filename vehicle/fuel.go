package vehicle

import "strings"

// Fuel is a fuel as shown on the form.
type Fuel string

const (
	FuelGasoline  Fuel = "Gasolina"
	FuelEthanol   Fuel = "Etanol"
	FuelDiesel    Fuel = "Diesel"
	FuelBiodiesel Fuel = "Biodiesel"
)

var fuelCodes = map[Fuel]string{
	FuelGasoline:  "gasoline",
	FuelEthanol:   "ethanol",
	FuelDiesel:    "diesel",
	FuelBiodiesel: "biodiesel",
}

// AllFuels returns all known fuels.
func AllFuels() []Fuel {
	return []Fuel{FuelGasoline, FuelEthanol, FuelDiesel, FuelBiodiesel}
}

// IsValid checks if the fuel is known.
func (f Fuel) IsValid() bool {
	_, ok := fuelCodes[f]
	return ok
}

// String returns the form label of the fuel.
func (f Fuel) String() string {
	return string(f)
}

// Code returns the storage code of the fuel ("gasoline", "diesel", ...).
func (f Fuel) Code() string {
	return fuelCodes[f]
}

// ParseFuel accepts a form label or a storage code, case-insensitively.
func ParseFuel(s string) (Fuel, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	for f, code := range fuelCodes {
		if strings.EqualFold(s, string(f)) || strings.EqualFold(s, code) {
			return f, true
		}
	}
	return "", false
}

// FuelPolicy tells whether the fuel of a (category, subtype) pair is implied
// or chosen by the user from a fixed list.
type FuelPolicy struct {
	fixed   Fuel
	choices []Fuel
}

// FixedFuel returns a policy where the fuel is implied and never shown.
func FixedFuel(f Fuel) FuelPolicy {
	return FuelPolicy{fixed: f}
}

// FuelChoice returns a policy where the user must pick one of fuels.
func FuelChoice(fuels ...Fuel) FuelPolicy {
	return FuelPolicy{choices: fuels}
}

// IsFixed reports whether the fuel is implied.
func (p FuelPolicy) IsFixed() bool {
	return p.fixed != ""
}

// Fixed returns the implied fuel, or "" for a choice policy.
func (p FuelPolicy) Fixed() Fuel {
	return p.fixed
}

// Choices returns the ordered fuels the user may pick, or nil for a fixed policy.
func (p FuelPolicy) Choices() []Fuel {
	if p.IsFixed() {
		return nil
	}
	out := make([]Fuel, len(p.choices))
	copy(out, p.choices)
	return out
}

// Allows reports whether f satisfies the policy.
func (p FuelPolicy) Allows(f Fuel) bool {
	if p.IsFixed() {
		return f == p.fixed
	}
	for _, c := range p.choices {
		if c == f {
			return true
		}
	}
	return false
}

var fuelPolicies = map[Key]FuelPolicy{
	{CategoryCar, SubtypeStandard}:        FixedFuel(FuelGasoline),
	{CategoryCar, SubtypeFlex}:            FuelChoice(FuelGasoline, FuelEthanol),
	{CategoryMotorcycle, SubtypeStandard}: FixedFuel(FuelGasoline),
	{CategoryMotorcycle, SubtypeFlex}:     FuelChoice(FuelGasoline, FuelEthanol),
	{CategoryBus, SubtypeMicroBus}:        FixedFuel(FuelDiesel),
	{CategoryBus, SubtypeMunicipalBus}:    FuelChoice(FuelDiesel, FuelBiodiesel),
	{CategoryBus, SubtypeTravelBus}:       FuelChoice(FuelDiesel, FuelBiodiesel),
}

// FuelPolicyFor returns the fuel policy of a (category, subtype) pair.
func FuelPolicyFor(c Category, s Subtype) (FuelPolicy, error) {
	if !c.IsValid() {
		return FuelPolicy{}, &LookupError{Category: c, Subtype: s, Err: ErrUnknownCategory}
	}
	policy, ok := fuelPolicies[Key{Category: c, Subtype: s}]
	if !ok {
		return FuelPolicy{}, &LookupError{Category: c, Subtype: s, Err: ErrUnknownSubtypeForCategory}
	}
	return policy, nil
}
