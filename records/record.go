// Package records stores submitted trips with their calculated emissions
// and serves the aggregates shown on the dashboard.
package records

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/consorcio/emissions/form"
)

// Record is a stored trip.
type Record struct {
	ID             int64       `json:"id"`
	PersonName     string      `json:"person_name"`
	EmissionAmount form.Amount `json:"emission_amount"`
	Distance       form.Amount `json:"distance"`
	PeopleAmount   *int        `json:"people_amount"`
	// Vehicle is the category-subtype key, e.g. "car-flex".
	Vehicle string `json:"vehicle"`
	// Fuel is the fuel code, e.g. "ethanol".
	Fuel      string    `json:"fuel"`
	CreatedAt time.Time `json:"created_at"`
}

// NewRecord builds an unsaved record from a validated request.
func NewRecord(req form.TripRequest, emission form.Amount) Record {
	return Record{
		PersonName:     req.PersonName,
		EmissionAmount: emission,
		Distance:       req.Distance,
		PeopleAmount:   req.PeopleAmount,
		Vehicle:        req.Key().String(),
		Fuel:           req.Fuel.Code(),
	}
}

// ConfirmationMessage is the message shown after the record is stored.
func (r Record) ConfirmationMessage() string {
	return fmt.Sprintf("Registro de emissão criado para %s. Emissão calculada: %s kg CO₂.", r.PersonName, r.EmissionAmount)
}

// Summary is the total of one column together with every value in it.
type Summary struct {
	Total   form.Amount   `json:"total"`
	Records []form.Amount `json:"records"`
}

// Summarize adds the values up.
func Summarize(values []form.Amount) Summary {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(v.Decimal)
	}
	if values == nil {
		values = []form.Amount{}
	}
	return Summary{Total: form.NewAmount(total), Records: values}
}
