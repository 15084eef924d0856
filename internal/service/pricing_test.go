package service

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/editlance/marketplace/internal/models"
)

func TestComputeTotalsPurchase(t *testing.T) {
	// 200.00 sale + 60.00 rental = 260.00 subtotal, 10% tax, flat shipping.
	totals := ComputeTotals(26000, 0, true)

	require.Equal(t, int64(26000), totals.Subtotal)
	require.Equal(t, int64(2600), totals.Tax)
	require.Equal(t, int64(5000), totals.Shipping)
	require.Equal(t, int64(0), totals.Discount)
	require.Equal(t, int64(33600), totals.Total)
}

func TestComputeTotalsRentalOnlySkipsShipping(t *testing.T) {
	totals := ComputeTotals(6000, 0, false)

	require.Equal(t, int64(0), totals.Shipping)
	require.Equal(t, int64(600), totals.Tax)
	require.Equal(t, int64(6600), totals.Total)
}

func TestComputeTotalsDiscountBeforeTax(t *testing.T) {
	// Tax applies to the discounted base: (10000-2000)*10% = 800.
	totals := ComputeTotals(10000, 2000, false)

	require.Equal(t, int64(800), totals.Tax)
	require.Equal(t, int64(8800), totals.Total)
}

func TestComputeTotalsDiscountExceedingSubtotal(t *testing.T) {
	// An oversized coupon zeroes the bill; it never goes negative.
	totals := ComputeTotals(1000, 5000, false)

	require.Equal(t, int64(0), totals.Tax)
	require.Equal(t, int64(0), totals.Total)
	require.Equal(t, int64(5000), totals.Discount)

	// Shipping still has to be covered before the clamp kicks in.
	totals = ComputeTotals(1000, 2000, true)
	require.Equal(t, int64(1000+0+5000-2000), totals.Total)
}

func TestComputeTotalsRoundsHalfUp(t *testing.T) {
	// 10% of 105 cents is 10.5 cents, which rounds to 11.
	totals := ComputeTotals(105, 0, false)
	require.Equal(t, int64(11), totals.Tax)

	// 10% of 104 cents is 10.4, which rounds down to 10.
	totals = ComputeTotals(104, 0, false)
	require.Equal(t, int64(10), totals.Tax)
}

func TestResolveUnitPricePurchase(t *testing.T) {
	p := models.Product{SalePrice: 19900}

	price, err := ResolveUnitPrice(&p, models.ModePurchase, 0, "")
	require.NoError(t, err)
	require.Equal(t, int64(19900), price)
}

func TestResolveUnitPriceRental(t *testing.T) {
	p := models.Product{RateDay: 1500, RateWeek: 8000}

	price, err := ResolveUnitPrice(&p, models.ModeRental, 4, models.UnitDay)
	require.NoError(t, err)
	require.Equal(t, int64(6000), price)

	price, err = ResolveUnitPrice(&p, models.ModeRental, 2, models.UnitWeek)
	require.NoError(t, err)
	require.Equal(t, int64(16000), price)
}

func TestResolveUnitPriceMissingRateFails(t *testing.T) {
	p := models.Product{ID: 7, RateDay: 1500}

	_, err := ResolveUnitPrice(&p, models.ModeRental, 1, models.UnitMonth)
	require.ErrorIs(t, err, ErrValidation)
}

func TestResolveUnitPriceBadDuration(t *testing.T) {
	p := models.Product{RateDay: 1500}

	_, err := ResolveUnitPrice(&p, models.ModeRental, 0, models.UnitDay)
	require.ErrorIs(t, err, ErrValidation)
}
