package cart

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"

	"autobesa/pkg/money"
)

// Item is one cart line.
type Item struct {
	ID        string      `json:"id"`
	Model     string      `json:"model"`
	Price     money.Cents `json:"priceCents"`
	Quantity  int         `json:"quantity"`
	Image     string      `json:"image"`
	DateAdded time.Time   `json:"dateAdded"`
}

// LineTotal is unit price times quantity.
func (i Item) LineTotal() (money.Cents, error) {
	return i.Price.Mul(int64(i.Quantity))
}

type itemFields Item

// UnmarshalJSON accepts both the canonical shape and entries written by the
// older page scripts: numeric ids, "price" in major units (number or text),
// "qty", "title" and "img". A missing quantity counts as one.
func (i *Item) UnmarshalJSON(b []byte) error {
	var raw struct {
		itemFields
		ID          json.RawMessage `json:"id"`
		LegacyPrice json.RawMessage `json:"price"`
		LegacyQty   int             `json:"qty"`
		LegacyTitle string          `json:"title"`
		LegacyImage string          `json:"img"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}

	*i = Item(raw.itemFields)
	i.ID = decodeID(raw.ID)

	if i.Price == 0 && len(raw.LegacyPrice) > 0 {
		i.Price = decodeLegacyPrice(raw.LegacyPrice)
	}
	if i.Quantity == 0 {
		i.Quantity = raw.LegacyQty
	}
	if i.Quantity <= 0 {
		i.Quantity = 1
	}
	if i.Model == "" {
		i.Model = raw.LegacyTitle
	}
	if i.Image == "" {
		i.Image = raw.LegacyImage
	}
	return nil
}

func decodeID(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}

func decodeLegacyPrice(raw json.RawMessage) money.Cents {
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return money.FromMajor(f)
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if c, err := money.Parse(strings.TrimSpace(s)); err == nil {
			return c
		}
	}
	return 0
}
