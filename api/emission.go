package api

import (
	"errors"
	"net/http"
	"strconv"

	apperrors "github.com/consorcio/emissions/errors"
	"github.com/consorcio/emissions/form"
	httpx "github.com/consorcio/emissions/http"
	"github.com/consorcio/emissions/logging"
	"github.com/consorcio/emissions/records"
	"github.com/consorcio/emissions/validation"
)

type createResponse struct {
	OK      bool           `json:"ok"`
	Message string         `json:"message"`
	Record  records.Record `json:"record"`
}

type emissionAmount struct {
	EmissionAmount form.Amount `json:"emission_amount"`
}

type co2Response struct {
	TotalCO2 form.Amount      `json:"total_co2"`
	Records  []emissionAmount `json:"records"`
}

type distanceValue struct {
	Distance form.Amount `json:"distance"`
}

type kmResponse struct {
	TotalKM form.Amount     `json:"total_km"`
	Records []distanceValue `json:"records"`
}

type vehicleEntry struct {
	Vehicle string `json:"vehicle"`
}

type fuelEntry struct {
	Fuel string `json:"fuel"`
}

func (a *API) createEmission(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var p emissionPayload
	if !validation.DecodeAndValidate(w, r, &p) {
		return
	}

	rec, err := a.deps.Records.Submit(ctx, p.selection())
	if err != nil {
		var verr *form.ValidationError
		if errors.As(err, &verr) {
			a.deps.Audit.LogEmission(ctx, "", p.PersonName, logging.AuditOutcomeFailure, map[string]interface{}{
				"reason": string(verr.Kind),
				"field":  verr.Field,
			})
		}
		httpx.Error(w, r, formError(err))
		return
	}

	a.deps.Audit.LogEmission(ctx, strconv.FormatInt(rec.ID, 10), rec.PersonName, logging.AuditOutcomeSuccess, map[string]interface{}{
		"vehicle":         rec.Vehicle,
		"fuel":            rec.Fuel,
		"emission_amount": rec.EmissionAmount.String(),
	})

	httpx.Created(w, createResponse{
		OK:      true,
		Message: rec.ConfirmationMessage(),
		Record:  rec,
	})
}

func (a *API) listEmissions(w http.ResponseWriter, r *http.Request) {
	recs, err := a.deps.Records.List(r.Context())
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	if recs == nil {
		recs = []records.Record{}
	}
	httpx.OK(w, recs)
}

func (a *API) co2Summary(w http.ResponseWriter, r *http.Request) {
	sum, err := a.deps.Records.CO2Summary(r.Context())
	if err != nil {
		httpx.Error(w, r, err)
		return
	}

	resp := co2Response{TotalCO2: sum.Total, Records: make([]emissionAmount, 0, len(sum.Records))}
	for _, v := range sum.Records {
		resp.Records = append(resp.Records, emissionAmount{EmissionAmount: v})
	}
	httpx.OK(w, resp)
}

func (a *API) kmSummary(w http.ResponseWriter, r *http.Request) {
	sum, err := a.deps.Records.KMSummary(r.Context())
	if err != nil {
		httpx.Error(w, r, err)
		return
	}

	resp := kmResponse{TotalKM: sum.Total, Records: make([]distanceValue, 0, len(sum.Records))}
	for _, v := range sum.Records {
		resp.Records = append(resp.Records, distanceValue{Distance: v})
	}
	httpx.OK(w, resp)
}

func (a *API) vehicles(w http.ResponseWriter, r *http.Request) {
	values, err := a.deps.Records.Vehicles(r.Context())
	if err != nil {
		httpx.Error(w, r, err)
		return
	}

	out := make([]vehicleEntry, 0, len(values))
	for _, v := range values {
		out = append(out, vehicleEntry{Vehicle: v})
	}
	httpx.OK(w, out)
}

func (a *API) fuels(w http.ResponseWriter, r *http.Request) {
	values, err := a.deps.Records.Fuels(r.Context())
	if err != nil {
		httpx.Error(w, r, err)
		return
	}

	out := make([]fuelEntry, 0, len(values))
	for _, v := range values {
		out = append(out, fuelEntry{Fuel: v})
	}
	httpx.OK(w, out)
}

func (a *API) exportRecords(w http.ResponseWriter, r *http.Request) {
	if a.deps.Exporter == nil {
		httpx.Error(w, r, apperrors.Unavailable("export is not configured"))
		return
	}

	res, err := a.deps.Exporter.Export(r.Context())
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.OK(w, res)
}
