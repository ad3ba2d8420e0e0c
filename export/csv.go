package export

import (
	"bytes"
	"encoding/csv"
	"strconv"
	"time"

	"github.com/consorcio/emissions/records"
)

// Header is the first row of every export.
var Header = []string{
	"id",
	"person_name",
	"emission_amount",
	"distance",
	"people_amount",
	"vehicle",
	"fuel",
	"created_at",
}

// EncodeCSV renders records as CSV. An unset people amount is left empty.
func EncodeCSV(recs []records.Record) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(Header); err != nil {
		return nil, err
	}
	for _, rec := range recs {
		people := ""
		if rec.PeopleAmount != nil {
			people = strconv.Itoa(*rec.PeopleAmount)
		}
		row := []string{
			strconv.FormatInt(rec.ID, 10),
			rec.PersonName,
			rec.EmissionAmount.String(),
			rec.Distance.String(),
			people,
			rec.Vehicle,
			rec.Fuel,
			rec.CreatedAt.UTC().Format(time.RFC3339),
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
