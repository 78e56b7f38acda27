package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/BariBariGood/custom-checkout-app/internal/domain"
	"github.com/BariBariGood/custom-checkout-app/pkg/errors"
)

// Blinds pricing formula constants.
const (
	inchToCm        = 2.54
	areaRate        = 18.0 / 10000.0
	baseCharge      = 60.0
	doubleFactor    = 2.0
	marginFactor    = 1.1
	discountDivisor = 0.4 // undoes a 60%-off list discount
)

// Compute converts a fractional-inch dimension pair into a price quote.
// The amount is rounded half-up to 2 decimal places exactly once, at the
// end, so the same inputs always produce the same string.
func Compute(width, height domain.Dimension) (domain.PriceQuote, error) {
	if err := validate("width", width); err != nil {
		return domain.PriceQuote{}, err
	}
	if err := validate("height", height); err != nil {
		return domain.PriceQuote{}, err
	}

	widthIn := width.Inches()
	heightIn := height.Inches()
	widthCm := widthIn * inchToCm
	heightCm := heightIn * inchToCm

	base := ((widthCm * heightCm * areaRate) + baseCharge) * doubleFactor * marginFactor
	final := base / discountDivisor

	amount := decimal.NewFromFloat(final).Round(2).StringFixed(2)

	return domain.PriceQuote{
		WidthInches:  widthIn,
		HeightInches: heightIn,
		WidthCm:      widthCm,
		HeightCm:     heightCm,
		Amount:       amount,
	}, nil
}

func validate(name string, d domain.Dimension) error {
	if d.WholeInches <= 0 {
		return &errors.ErrValidation{
			Message: "whole inches must be positive",
			Fields:  map[string]string{name: "whole inches must be > 0"},
		}
	}
	if d.Sixteenths < 0 || d.Sixteenths > 15 {
		return &errors.ErrValidation{
			Message: "sixteenths out of range",
			Fields:  map[string]string{name: "sixteenths must be in 0-15"},
		}
	}
	return nil
}
