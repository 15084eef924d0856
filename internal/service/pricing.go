package service

import (
	"fmt"

	"github.com/editlance/marketplace/internal/models"
)

// All currency amounts are integer cents.
const (
	TaxRatePercent  = 10
	FlatShippingFee = 5000
)

type Totals struct {
	Subtotal int64 `json:"subtotal"`
	Tax      int64 `json:"tax"`
	Shipping int64 `json:"shipping"`
	Discount int64 `json:"discount"`
	Total    int64 `json:"total"`
}

func rentalRate(p *models.Product, unit models.RentalUnit) int64 {
	switch unit {
	case models.UnitDay:
		return p.RateDay
	case models.UnitWeek:
		return p.RateWeek
	case models.UnitMonth:
		return p.RateMonth
	}
	return 0
}

// ResolveUnitPrice returns the price of a single unit of p in the given
// mode. A rental against a unit the product has no rate for is a data
// error and must fail, never price at zero.
func ResolveUnitPrice(p *models.Product, mode models.ItemMode, duration int, unit models.RentalUnit) (int64, error) {
	switch mode {
	case models.ModePurchase:
		return p.SalePrice, nil
	case models.ModeRental:
		if duration <= 0 {
			return 0, fmt.Errorf("%w: rental duration must be > 0", ErrValidation)
		}
		rate := rentalRate(p, unit)
		if rate <= 0 {
			return 0, fmt.Errorf("%w: product %d has no %s rental rate", ErrValidation, p.ID, unit)
		}
		return rate * int64(duration), nil
	}
	return 0, fmt.Errorf("%w: unknown item mode %q", ErrValidation, mode)
}

// ComputeTotals applies the one documented order of operations: discount
// comes off the subtotal before tax. Tax rounds half-up on cents, the only
// rounding step in the pipeline. A coupon can at most zero the total; flat
// amounts never turn into a payout.
func ComputeTotals(subtotal, discount int64, hasPurchase bool) Totals {
	taxable := subtotal - discount
	if taxable < 0 {
		taxable = 0
	}
	tax := (taxable*TaxRatePercent + 50) / 100

	var shipping int64
	if hasPurchase {
		shipping = FlatShippingFee
	}

	total := subtotal + tax + shipping - discount
	if total < 0 {
		total = 0
	}

	return Totals{
		Subtotal: subtotal,
		Tax:      tax,
		Shipping: shipping,
		Discount: discount,
		Total:    total,
	}
}
