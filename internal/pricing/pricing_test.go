package pricing

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BariBariGood/custom-checkout-app/internal/domain"
	apperrors "github.com/BariBariGood/custom-checkout-app/pkg/errors"
)

func TestComputeWorkedExample(t *testing.T) {
	// 24 8/16" x 36 0/16" -> 62.23cm x 91.44cm
	// ((62.23 * 91.44 * 0.0018) + 60) * 2 * 1.1 / 0.4 = 386.334...
	quote, err := Compute(
		domain.Dimension{WholeInches: 24, Sixteenths: 8},
		domain.Dimension{WholeInches: 36, Sixteenths: 0},
	)
	require.NoError(t, err)

	assert.Equal(t, "386.33", quote.Amount)
	assert.InDelta(t, 24.5, quote.WidthInches, 1e-9)
	assert.InDelta(t, 36.0, quote.HeightInches, 1e-9)
	assert.InDelta(t, 62.23, quote.WidthCm, 1e-9)
	assert.InDelta(t, 91.44, quote.HeightCm, 1e-9)
}

func TestComputeMinimalDimensions(t *testing.T) {
	quote, err := Compute(
		domain.Dimension{WholeInches: 1, Sixteenths: 0},
		domain.Dimension{WholeInches: 1, Sixteenths: 0},
	)
	require.NoError(t, err)

	amount, err := strconv.ParseFloat(quote.Amount, 64)
	require.NoError(t, err)
	assert.Greater(t, amount, 0.0)
}

func TestComputeDeterministic(t *testing.T) {
	w := domain.Dimension{WholeInches: 48, Sixteenths: 12}
	h := domain.Dimension{WholeInches: 72, Sixteenths: 3}

	first, err := Compute(w, h)
	require.NoError(t, err)

	for i := 0; i < 50; i++ {
		again, err := Compute(w, h)
		require.NoError(t, err)
		assert.Equal(t, first.Amount, again.Amount)
	}
}

func TestComputeAcceptsAnySixteenths(t *testing.T) {
	// UI only offers a subset, but the computation must accept 0-15.
	for frac := 0; frac <= 15; frac++ {
		_, err := Compute(
			domain.Dimension{WholeInches: 30, Sixteenths: frac},
			domain.Dimension{WholeInches: 40, Sixteenths: frac},
		)
		assert.NoError(t, err, "sixteenths=%d", frac)
	}
}

func TestComputeValidation(t *testing.T) {
	tests := []struct {
		name   string
		width  domain.Dimension
		height domain.Dimension
	}{
		{"zero width", domain.Dimension{WholeInches: 0}, domain.Dimension{WholeInches: 36}},
		{"negative height", domain.Dimension{WholeInches: 24}, domain.Dimension{WholeInches: -1}},
		{"sixteenths too large", domain.Dimension{WholeInches: 24, Sixteenths: 16}, domain.Dimension{WholeInches: 36}},
		{"negative sixteenths", domain.Dimension{WholeInches: 24}, domain.Dimension{WholeInches: 36, Sixteenths: -1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Compute(tt.width, tt.height)
			require.Error(t, err)
			var vErr *apperrors.ErrValidation
			assert.ErrorAs(t, err, &vErr)
		})
	}
}
