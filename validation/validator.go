// Package validation checks request payload shape with go-playground
// validator before the form engine runs.
package validation

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	apperrors "github.com/consorcio/emissions/errors"
	"github.com/consorcio/emissions/logging"
	"github.com/consorcio/emissions/vehicle"
)

// MaxBodyBytes bounds request bodies accepted by DecodeAndValidate.
const MaxBodyBytes = 1 << 20

var (
	validate *validator.Validate
	once     sync.Once
)

// GetValidator returns the singleton validator instance.
func GetValidator() *validator.Validate {
	once.Do(func() {
		validate = validator.New()

		// Use JSON tag names for error messages
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})

		registerCustomValidations(validate)
	})

	return validate
}

func registerCustomValidations(v *validator.Validate) {
	v.RegisterValidation("vehicle_category", validateVehicleCategory)
}

// vehicle_category accepts any known category, case-insensitively.
func validateVehicleCategory(fl validator.FieldLevel) bool {
	return vehicle.ParseCategory(fl.Field().String()).IsValid()
}

// Validate validates a struct and returns validation errors.
func Validate(s interface{}) error {
	return GetValidator().Struct(s)
}

// ValidateVar validates a single variable.
func ValidateVar(field interface{}, tag string) error {
	return GetValidator().Var(field, tag)
}

// ValidationError represents a single validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

// Error implements the error interface.
func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return ""
	}
	var sb strings.Builder
	for i, e := range ve {
		if i > 0 {
			sb.WriteString("; ")
		}
		sb.WriteString(e.Field)
		sb.WriteString(": ")
		sb.WriteString(e.Message)
	}
	return sb.String()
}

// Details returns the errors keyed by field, for an error response.
func (ve ValidationErrors) Details() map[string]string {
	details := make(map[string]string, len(ve))
	for _, e := range ve {
		if _, exists := details[e.Field]; !exists {
			details[e.Field] = e.Message
		}
	}
	return details
}

// ParseValidationErrors converts validator.ValidationErrors to our format.
func ParseValidationErrors(err error) ValidationErrors {
	if err == nil {
		return nil
	}

	var validationErrors ValidationErrors

	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		for _, e := range ve {
			validationErrors = append(validationErrors, ValidationError{
				Field:   e.Field(),
				Message: getErrorMessage(e),
			})
		}
	}

	return validationErrors
}

func getErrorMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "min":
		return "must be at least " + e.Param()
	case "max":
		return "must be at most " + e.Param()
	case "vehicle_category":
		return "must be one of: car, motorcycle, bus"
	case "oneof":
		return "must be one of: " + e.Param()
	case "gt":
		return "must be greater than " + e.Param()
	case "gte":
		return "must be greater than or equal to " + e.Param()
	case "lte":
		return "must be less than or equal to " + e.Param()
	default:
		return "is invalid"
	}
}

// DecodeAndValidate decodes a JSON request body into dst and validates it.
// On failure it writes the error response and returns false.
func DecodeAndValidate(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	requestID := logging.RequestIDFromContext(r.Context())

	if ct := r.Header.Get("Content-Type"); ct != "" {
		mediaType, _, err := mime.ParseMediaType(ct)
		if err != nil || mediaType != "application/json" {
			apperrors.WriteError(w, apperrors.New(apperrors.CodeUnsupportedMediaType, "content type must be application/json"), requestID)
			return false
		}
	}

	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		msg := "invalid JSON body"
		if errors.Is(err, io.EOF) {
			msg = "request body is empty"
		}
		apperrors.WriteError(w, apperrors.BadRequest(msg), requestID)
		return false
	}

	if err := Validate(dst); err != nil {
		details := ParseValidationErrors(err)
		if len(details) == 0 {
			apperrors.WriteError(w, apperrors.BadRequest(err.Error()), requestID)
			return false
		}
		apperrors.WriteError(w, apperrors.ValidationWithDetails("invalid request payload", details.Details()), requestID)
		return false
	}

	return true
}
