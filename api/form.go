package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	apperrors "github.com/consorcio/emissions/errors"
	"github.com/consorcio/emissions/form"
	httpx "github.com/consorcio/emissions/http"
	"github.com/consorcio/emissions/i18n"
	"github.com/consorcio/emissions/validation"
	"github.com/consorcio/emissions/vehicle"
)

type fuelOption struct {
	Value vehicle.Fuel `json:"value"`
	Code  string       `json:"code"`
	Label string       `json:"label"`
}

type subtypeEntry struct {
	Value       vehicle.Subtype `json:"value"`
	Key         string          `json:"key"`
	Label       string          `json:"label"`
	ImpliedFuel *fuelOption     `json:"implied_fuel,omitempty"`
	FuelChoices []fuelOption    `json:"fuel_choices,omitempty"`
}

type categoryEntry struct {
	Value        vehicle.Category `json:"value"`
	Label        string           `json:"label"`
	OccupancyMax int              `json:"occupancy_max,omitempty"`
	Subtypes     []subtypeEntry   `json:"subtypes"`
}

type taxonomyResponse struct {
	Categories []categoryEntry `json:"categories"`
}

func newFuelOption(f vehicle.Fuel) fuelOption {
	return fuelOption{Value: f, Code: f.Code(), Label: i18n.FuelLabel(f)}
}

// buildTaxonomy lists every category with its subtypes and fuel policies.
func buildTaxonomy() taxonomyResponse {
	var resp taxonomyResponse
	for _, c := range vehicle.AllCategories() {
		entry := categoryEntry{Value: c, Label: i18n.Translate(c.String())}
		if limit, ok := c.OccupancyLimit(); ok {
			entry.OccupancyMax = limit
		}

		subtypes, _ := vehicle.SubtypesFor(c)
		for _, s := range subtypes {
			sub := subtypeEntry{
				Value: s,
				Key:   i18n.VehicleKey(c, s),
				Label: i18n.VehicleLabel(c, s),
			}
			policy, err := vehicle.FuelPolicyFor(c, s)
			if err != nil {
				continue
			}
			if policy.IsFixed() {
				opt := newFuelOption(policy.Fixed())
				sub.ImpliedFuel = &opt
			} else {
				for _, f := range policy.Choices() {
					sub.FuelChoices = append(sub.FuelChoices, newFuelOption(f))
				}
			}
			entry.Subtypes = append(entry.Subtypes, sub)
		}
		resp.Categories = append(resp.Categories, entry)
	}
	return resp
}

var taxonomyBody = buildTaxonomy()

func (a *API) taxonomy(w http.ResponseWriter, r *http.Request) {
	httpx.OK(w, taxonomyBody)
}

func (a *API) formState(w http.ResponseWriter, r *http.Request) {
	q := stateQuery{
		Vehicle:     r.URL.Query().Get("vehicle"),
		VehicleType: r.URL.Query().Get("vehicle_type"),
	}
	if err := validation.Validate(q); err != nil {
		details := validation.ParseValidationErrors(err)
		httpx.Error(w, r, apperrors.ValidationWithDetails("invalid query parameters", details.Details()))
		return
	}

	state := form.DeriveFormState(vehicle.ParseCategory(q.Vehicle), vehicle.ParseSubtype(q.VehicleType))
	httpx.OK(w, state)
}

func (a *API) validateForm(w http.ResponseWriter, r *http.Request) {
	var p emissionPayload
	if !validation.DecodeAndValidate(w, r, &p) {
		return
	}

	req, err := form.Validate(p.selection())
	if err != nil {
		httpx.Error(w, r, formError(err))
		return
	}
	httpx.OK(w, req)
}

type labelResponse struct {
	Key   string `json:"key"`
	Label string `json:"label"`
}

// label translates a dictionary key. Unknown keys are echoed back.
func (a *API) label(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	httpx.OK(w, labelResponse{Key: key, Label: i18n.Translate(key)})
}
