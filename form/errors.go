package form

import (
	"fmt"

	"github.com/consorcio/emissions/vehicle"
)

// Kind classifies a validation failure.
type Kind string

const (
	KindMissingField           Kind = "missing_field"
	KindInvalidDistance        Kind = "invalid_distance"
	KindInvalidFuel            Kind = "invalid_fuel"
	KindOccupancyLimitExceeded Kind = "occupancy_limit_exceeded"
)

// Form field names, matching the JSON payload.
const (
	FieldPersonName   = "person_name"
	FieldDistance     = "distance"
	FieldVehicle      = "vehicle"
	FieldVehicleType  = "vehicle_type"
	FieldFuel         = "fuel"
	FieldPeopleAmount = "people_amount"
)

// ValidationError is returned by Validate. It is a value, never a panic.
type ValidationError struct {
	Kind     Kind
	Field    string
	Category vehicle.Category
	Max      int
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	switch e.Kind {
	case KindMissingField:
		return fmt.Sprintf("missing field: %s", e.Field)
	case KindInvalidDistance:
		return "invalid distance: must be a non-negative number"
	case KindInvalidFuel:
		return "invalid fuel for the selected vehicle type"
	case KindOccupancyLimitExceeded:
		return fmt.Sprintf("occupancy limit exceeded: %s allows at most %d people", e.Category, e.Max)
	default:
		return string(e.Kind)
	}
}

// Message returns a short per-field message for error details.
func (e *ValidationError) Message() string {
	switch e.Kind {
	case KindMissingField:
		return "is required"
	case KindInvalidDistance:
		return "must be a non-negative number"
	case KindInvalidFuel:
		return "is not available for the selected vehicle type"
	case KindOccupancyLimitExceeded:
		return fmt.Sprintf("must be at most %d", e.Max)
	default:
		return "is invalid"
	}
}

// Is matches another *ValidationError with the same kind. A target with an
// empty Field matches any field.
func (e *ValidationError) Is(target error) bool {
	t, ok := target.(*ValidationError)
	if !ok {
		return false
	}
	if e.Kind != t.Kind {
		return false
	}
	return t.Field == "" || t.Field == e.Field
}

// Sentinels for errors.Is.
var (
	ErrMissingField           = &ValidationError{Kind: KindMissingField}
	ErrInvalidDistance        = &ValidationError{Kind: KindInvalidDistance, Field: FieldDistance}
	ErrInvalidFuel            = &ValidationError{Kind: KindInvalidFuel, Field: FieldFuel}
	ErrOccupancyLimitExceeded = &ValidationError{Kind: KindOccupancyLimitExceeded, Field: FieldPeopleAmount}
)

// MissingField returns a missing-field error for field.
func MissingField(field string) *ValidationError {
	return &ValidationError{Kind: KindMissingField, Field: field}
}

// OccupancyLimitExceeded returns an occupancy error for category.
func OccupancyLimitExceeded(category vehicle.Category, max int) *ValidationError {
	return &ValidationError{
		Kind:     KindOccupancyLimitExceeded,
		Field:    FieldPeopleAmount,
		Category: category,
		Max:      max,
	}
}

func invalidDistance() *ValidationError {
	return &ValidationError{Kind: KindInvalidDistance, Field: FieldDistance}
}

func invalidFuel() *ValidationError {
	return &ValidationError{Kind: KindInvalidFuel, Field: FieldFuel}
}
