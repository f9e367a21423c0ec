package cart

import (
	"encoding/json"
	"fmt"

	"autobesa/pkg/money"
)

// Pricing holds the checkout rates.
type Pricing struct {
	TaxRate               float64
	FreeShippingThreshold money.Cents
	ShippingFee           money.Cents
}

// DefaultPricing is 18% tax, free shipping from €50,000.00, otherwise €5.00.
func DefaultPricing() Pricing {
	return Pricing{
		TaxRate:               0.18,
		FreeShippingThreshold: money.Euros(50_000),
		ShippingFee:           500,
	}
}

// Totals are all in cents.
type Totals struct {
	Subtotal money.Cents `json:"subtotal"`
	Tax      money.Cents `json:"tax"`
	Shipping money.Cents `json:"shipping"`
	Total    money.Cents `json:"total"`
}

// UnmarshalJSON also reads the subtotalCents, taxCents, shippingCents and
// totalCents names used by order history written by the older page scripts.
func (t *Totals) UnmarshalJSON(b []byte) error {
	var raw struct {
		Subtotal       *money.Cents `json:"subtotal"`
		Tax            *money.Cents `json:"tax"`
		Shipping       *money.Cents `json:"shipping"`
		Total          *money.Cents `json:"total"`
		LegacySubtotal money.Cents  `json:"subtotalCents"`
		LegacyTax      money.Cents  `json:"taxCents"`
		LegacyShipping money.Cents  `json:"shippingCents"`
		LegacyTotal    money.Cents  `json:"totalCents"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	pick := func(v *money.Cents, legacy money.Cents) money.Cents {
		if v != nil {
			return *v
		}
		return legacy
	}
	*t = Totals{
		Subtotal: pick(raw.Subtotal, raw.LegacySubtotal),
		Tax:      pick(raw.Tax, raw.LegacyTax),
		Shipping: pick(raw.Shipping, raw.LegacyShipping),
		Total:    pick(raw.Total, raw.LegacyTotal),
	}
	return nil
}

// ComputeTotals sums the lines and applies tax and shipping. Lines priced
// outside [0, MaxPrice] are rejected with ErrInvalidPrice; sums too large
// for Cents with money.ErrOverflow.
func ComputeTotals(items []Item, p Pricing) (Totals, error) {
	var t Totals
	for _, it := range items {
		if err := validPrice(it.Price); err != nil {
			return Totals{}, fmt.Errorf("line %s: %w", it.ID, err)
		}
		line, err := it.LineTotal()
		if err != nil {
			return Totals{}, fmt.Errorf("line %s: %w", it.ID, err)
		}
		if t.Subtotal, err = t.Subtotal.Add(line); err != nil {
			return Totals{}, fmt.Errorf("subtotal: %w", err)
		}
	}
	var err error
	if t.Tax, err = t.Subtotal.Rate(p.TaxRate); err != nil {
		return Totals{}, fmt.Errorf("tax: %w", err)
	}
	if t.Subtotal < p.FreeShippingThreshold {
		t.Shipping = p.ShippingFee
	}
	if t.Total, err = t.Subtotal.Add(t.Tax); err == nil {
		t.Total, err = t.Total.Add(t.Shipping)
	}
	if err != nil {
		return Totals{}, fmt.Errorf("total: %w", err)
	}
	return t, nil
}
