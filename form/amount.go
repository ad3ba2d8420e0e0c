package form

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// Amount is a non-negative decimal quantity kept at two fractional digits.
// It is used for distances (km) and emissions (kg CO2).
type Amount struct {
	decimal.Decimal
}

// NewAmount rounds d to two fractional digits.
func NewAmount(d decimal.Decimal) Amount {
	return Amount{Decimal: d.Round(2)}
}

// String returns the amount with exactly two fractional digits.
func (a Amount) String() string {
	return a.StringFixed(2)
}

// MarshalJSON encodes the amount as a string, e.g. "12.50".
func (a Amount) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

// UnmarshalJSON accepts a JSON string or number.
func (a *Amount) UnmarshalJSON(data []byte) error {
	raw := strings.Trim(string(data), `"`)
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return fmt.Errorf("invalid amount %s: %w", data, err)
	}
	*a = NewAmount(d)
	return nil
}

// MaxDistance is the largest distance a record column (numeric(12,2)) holds.
var MaxDistance = NewAmount(decimal.RequireFromString("9999999999.99"))

// distancePattern accepts unsigned decimals with either "." or "," as separator.
var distancePattern = regexp.MustCompile(`^(\d+([.,]\d*)?|[.,]\d+)$`)

// ParseDistance parses a distance typed into the form.
// Either "." or "," is accepted as decimal separator; negative values,
// exponents, thousands separators and values above MaxDistance are rejected.
func ParseDistance(s string) (Amount, error) {
	s = strings.TrimSpace(s)
	if !distancePattern.MatchString(s) {
		return Amount{}, invalidDistance()
	}
	s = strings.Replace(s, ",", ".", 1)
	if strings.HasPrefix(s, ".") {
		s = "0" + s
	}
	d, err := decimal.NewFromString(strings.TrimSuffix(s, "."))
	if err != nil {
		return Amount{}, invalidDistance()
	}
	a := NewAmount(d)
	if a.GreaterThan(MaxDistance.Decimal) {
		return Amount{}, invalidDistance()
	}
	return a, nil
}
