package emission_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/consorcio/emissions/emission"
	"github.com/consorcio/emissions/form"
	"github.com/consorcio/emissions/testing/fixtures"
)

func TestCalculate_Fixtures(t *testing.T) {
	for _, fx := range fixtures.ValidSelections() {
		t.Run(fx.Name, func(t *testing.T) {
			req, err := form.Validate(fx.Selection)
			require.NoError(t, err)

			got, err := emission.Calculate(req)
			require.NoError(t, err)
			assert.Equal(t, fx.Emission, got.String())
			assert.Equal(t, fx.Vehicle, req.Key().String())
			assert.Equal(t, fx.Fuel, req.Fuel.Code())
		})
	}
}
