package cart

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"autobesa/pkg/money"
)

func TestComputeTotals(t *testing.T) {
	items := []Item{{Price: 100, Quantity: 2}, {Price: 50, Quantity: 1}}

	t.Run("flat shipping below threshold", func(t *testing.T) {
		got, err := ComputeTotals(items, Pricing{TaxRate: 0.18, FreeShippingThreshold: 1000, ShippingFee: 500})
		require.NoError(t, err)
		assert.Equal(t, Totals{Subtotal: 250, Tax: 45, Shipping: 500, Total: 795}, got)
	})

	t.Run("free shipping at threshold", func(t *testing.T) {
		got, err := ComputeTotals(items, Pricing{TaxRate: 0.18, FreeShippingThreshold: 250, ShippingFee: 500})
		require.NoError(t, err)
		assert.Equal(t, Totals{Subtotal: 250, Tax: 45, Shipping: 0, Total: 295}, got)
	})

	t.Run("default pricing", func(t *testing.T) {
		car := []Item{{Price: money.Euros(50_000), Quantity: 1}}
		got, err := ComputeTotals(car, DefaultPricing())
		require.NoError(t, err)
		assert.Equal(t, money.Cents(5_000_000), got.Subtotal)
		assert.Equal(t, money.Cents(900_000), got.Tax)
		assert.Zero(t, got.Shipping)
		assert.Equal(t, money.Cents(5_900_000), got.Total)
	})

	t.Run("rounds tax", func(t *testing.T) {
		got, err := ComputeTotals([]Item{{Price: 3, Quantity: 1}}, DefaultPricing())
		require.NoError(t, err)
		assert.Equal(t, money.Cents(1), got.Tax)
	})
}

func TestComputeTotalsRejectsBadLines(t *testing.T) {
	_, err := ComputeTotals([]Item{{ID: "a", Price: money.Euros(100), Quantity: 1}, {ID: "b", Price: -500, Quantity: 1}}, DefaultPricing())
	assert.ErrorIs(t, err, ErrInvalidPrice)

	_, err = ComputeTotals([]Item{{ID: "a", Price: money.Cents(math.MaxInt64 / 100), Quantity: 1}}, DefaultPricing())
	assert.ErrorIs(t, err, ErrInvalidPrice)

	top := []Item{{ID: "a", Price: MaxPrice, Quantity: MaxQuantity}}
	_, err = ComputeTotals(top, Pricing{TaxRate: 1e10})
	assert.ErrorIs(t, err, money.ErrOverflow)
	_, err = ComputeTotals(top, Pricing{FreeShippingThreshold: math.MaxInt64, ShippingFee: math.MaxInt64})
	assert.ErrorIs(t, err, money.ErrOverflow)
}

func TestTotalsReadLegacyNames(t *testing.T) {
	var got Totals
	require.NoError(t, json.Unmarshal([]byte(`{"subtotalCents":4590000,"taxCents":826200,"shippingCents":0,"totalCents":5416200}`), &got))
	assert.Equal(t, Totals{Subtotal: 4_590_000, Tax: 826_200, Total: 5_416_200}, got)

	require.NoError(t, json.Unmarshal([]byte(`{"subtotal":100,"tax":18,"shipping":500,"total":618,"totalCents":1}`), &got))
	assert.Equal(t, Totals{Subtotal: 100, Tax: 18, Shipping: 500, Total: 618}, got)

	b, err := json.Marshal(got)
	require.NoError(t, err)
	assert.JSONEq(t, `{"subtotal":100,"tax":18,"shipping":500,"total":618}`, string(b))
}
