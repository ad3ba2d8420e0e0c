package api

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/consorcio/emissions/form"
)

// flexString accepts a JSON string, a JSON number or null. Numbers keep
// their literal text so that "10.5" and 10.5 validate the same way.
type flexString string

// UnmarshalJSON implements json.Unmarshaler.
func (s *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*s = ""
		return nil
	}

	if len(data) > 0 && data[0] == '"' {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		*s = flexString(str)
		return nil
	}

	var num json.Number
	if err := json.Unmarshal(data, &num); err != nil {
		return fmt.Errorf("expected a string or a number, got %s", data)
	}
	*s = flexString(num.String())
	return nil
}

// emissionPayload is the body of the submission and validation endpoints.
// Presence and consistency of the fields are checked by the form engine so
// that failures carry its error codes; only sizes are bounded here.
type emissionPayload struct {
	PersonName   string     `json:"person_name" validate:"max=255"`
	Distance     flexString `json:"distance" validate:"max=32"`
	Vehicle      string     `json:"vehicle" validate:"max=32"`
	VehicleType  string     `json:"vehicle_type" validate:"max=32"`
	Fuel         string     `json:"fuel" validate:"max=32"`
	PeopleAmount flexString `json:"people_amount" validate:"max=8"`
}

func (p emissionPayload) selection() form.Selection {
	return form.Selection{
		PersonName:   p.PersonName,
		Distance:     string(p.Distance),
		Vehicle:      p.Vehicle,
		VehicleType:  p.VehicleType,
		Fuel:         p.Fuel,
		PeopleAmount: string(p.PeopleAmount),
	}
}

// stateQuery holds the query parameters of the form state endpoint.
type stateQuery struct {
	Vehicle     string `json:"vehicle" validate:"omitempty,vehicle_category"`
	VehicleType string `json:"vehicle_type" validate:"omitempty,max=32"`
}
