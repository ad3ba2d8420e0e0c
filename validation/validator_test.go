package validation

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	apperrors "github.com/consorcio/emissions/errors"
)

func TestValidateVehicleCategory(t *testing.T) {
	tests := []struct {
		value string
		valid bool
	}{
		{"car", true},
		{"motorcycle", true},
		{"bus", true},
		{"Bus", true},
		{"truck", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			err := ValidateVar(tt.value, "vehicle_category")
			if (err == nil) != tt.valid {
				t.Errorf("vehicle_category(%q) valid = %v, want %v", tt.value, err == nil, tt.valid)
			}
		})
	}
}

type statePayload struct {
	Vehicle     string `json:"vehicle" validate:"omitempty,vehicle_category"`
	VehicleType string `json:"vehicle_type" validate:"max=32"`
}

type emissionPayload struct {
	PersonName string `json:"person_name" validate:"required,max=120"`
	Distance   string `json:"distance" validate:"max=32"`
}

func TestValidateStruct(t *testing.T) {
	tests := []struct {
		name      string
		input     interface{}
		wantField string
	}{
		{"valid state", statePayload{Vehicle: "car", VehicleType: "flex"}, ""},
		{"empty category allowed", statePayload{}, ""},
		{"unknown category", statePayload{Vehicle: "truck"}, "vehicle"},
		{"missing name", emissionPayload{Distance: "10"}, "person_name"},
		{"long distance string", emissionPayload{PersonName: "Ana", Distance: string(bytes.Repeat([]byte("1"), 33))}, "distance"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.input)
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("Validate() unexpected error: %v", err)
				}
				return
			}

			errs := ParseValidationErrors(err)
			if len(errs) != 1 {
				t.Fatalf("expected one error, got %v", errs)
			}
			if errs[0].Field != tt.wantField {
				t.Errorf("Field = %q, want %q", errs[0].Field, tt.wantField)
			}
		})
	}
}

func TestValidationErrors(t *testing.T) {
	errs := ValidationErrors{
		{Field: "person_name", Message: "is required"},
		{Field: "vehicle", Message: "must be one of: car, motorcycle, bus"},
		{Field: "person_name", Message: "must be at most 120"},
	}

	if got := errs.Error(); got != "person_name: is required; vehicle: must be one of: car, motorcycle, bus; person_name: must be at most 120" {
		t.Errorf("Error() = %q", got)
	}

	details := errs.Details()
	if len(details) != 2 || details["person_name"] != "is required" {
		t.Errorf("Details() = %v, want first message per field", details)
	}

	if ParseValidationErrors(nil) != nil {
		t.Error("ParseValidationErrors(nil) should be nil")
	}
}

func TestDecodeAndValidate(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		contentType string
		wantOK      bool
		wantStatus  int
		wantCode    string
	}{
		{
			name:        "valid request",
			body:        `{"person_name": "Ana", "distance": "10"}`,
			contentType: "application/json",
			wantOK:      true,
		},
		{
			name:        "charset parameter",
			body:        `{"person_name": "Ana"}`,
			contentType: "application/json; charset=utf-8",
			wantOK:      true,
		},
		{
			name:        "invalid json",
			body:        `{"person_name": invalid}`,
			contentType: "application/json",
			wantStatus:  http.StatusBadRequest,
			wantCode:    apperrors.CodeBadRequest,
		},
		{
			name:        "empty body",
			body:        ``,
			contentType: "application/json",
			wantStatus:  http.StatusBadRequest,
			wantCode:    apperrors.CodeBadRequest,
		},
		{
			name:        "validation error",
			body:        `{"person_name": ""}`,
			contentType: "application/json",
			wantStatus:  http.StatusBadRequest,
			wantCode:    apperrors.CodeValidation,
		},
		{
			name:        "wrong content type",
			body:        `person_name=Ana`,
			contentType: "application/x-www-form-urlencoded",
			wantStatus:  http.StatusUnsupportedMediaType,
			wantCode:    apperrors.CodeUnsupportedMediaType,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/emission/", bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", tt.contentType)
			w := httptest.NewRecorder()

			var payload emissionPayload
			ok := DecodeAndValidate(w, req, &payload)

			if ok != tt.wantOK {
				t.Fatalf("DecodeAndValidate() = %v, want %v", ok, tt.wantOK)
			}
			if ok {
				if payload.PersonName != "Ana" {
					t.Errorf("PersonName = %q, want Ana", payload.PersonName)
				}
				return
			}

			if w.Code != tt.wantStatus {
				t.Errorf("status = %v, want %v", w.Code, tt.wantStatus)
			}
			var resp apperrors.ErrorResponse
			if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
				t.Fatalf("decode error response: %v", err)
			}
			if resp.Error.Code != tt.wantCode {
				t.Errorf("code = %q, want %q", resp.Error.Code, tt.wantCode)
			}
		})
	}
}
