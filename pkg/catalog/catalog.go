// Package catalog models the static set of car cards rendered on a catalog
// page and the filter, sort and pagination view derived from it.
package catalog

import (
	"errors"
	"strconv"

	"autobesa/pkg/money"
)

var (
	// ErrCardNotFound is returned when no card has the requested id.
	ErrCardNotFound = errors.New("card not found")
	// ErrDetailsUnavailable is returned when a detail page lacks a usable
	// name or price.
	ErrDetailsUnavailable = errors.New("could not load item details")
	// ErrUnknownSort is returned for a sort key outside the supported set.
	ErrUnknownSort = errors.New("unknown sort key")
)

// Card is one catalog item as exposed by the page.
type Card struct {
	ID           string      `json:"id"`
	Title        string      `json:"title"`
	Brand        string      `json:"brand"`
	Price        money.Cents `json:"priceCents"`
	PriceText    string      `json:"priceText,omitempty"`
	Year         int         `json:"year,omitempty"`
	Mileage      int         `json:"km,omitempty"`
	Transmission string      `json:"transmission,omitempty"`
	Fuel         string      `json:"fuel,omitempty"`
	Image        string      `json:"image,omitempty"`
	Meta         string      `json:"meta,omitempty"`
	DetailsURL   string      `json:"detailsUrl,omitempty"`
	// Text is the card's visible text, lower-cased, used by search.
	Text string `json:"-"`
}

// Catalog is an immutable, ordered set of cards.
type Catalog struct {
	cards []Card
	byID  map[string]int
}

// New returns a catalog over cards in document order. Cards without an id
// are assigned car-N from their 1-based position; later duplicates of an id
// are ignored by lookups.
func New(cards []Card) *Catalog {
	c := &Catalog{
		cards: make([]Card, len(cards)),
		byID:  make(map[string]int, len(cards)),
	}
	copy(c.cards, cards)
	for i := range c.cards {
		if c.cards[i].ID == "" {
			c.cards[i].ID = PositionalID(i)
		}
		if _, dup := c.byID[c.cards[i].ID]; !dup {
			c.byID[c.cards[i].ID] = i
		}
	}
	return c
}

// PositionalID is the id given to the card at zero-based index i when the
// page does not provide one.
func PositionalID(i int) string {
	return "car-" + strconv.Itoa(i+1)
}

// Len is the number of cards.
func (c *Catalog) Len() int { return len(c.cards) }

// Cards returns a copy of the cards in document order.
func (c *Catalog) Cards() []Card {
	out := make([]Card, len(c.cards))
	copy(out, c.cards)
	return out
}

// Card looks a card up by id.
func (c *Catalog) Card(id string) (Card, error) {
	i, ok := c.byID[id]
	if !ok {
		return Card{}, ErrCardNotFound
	}
	return c.cards[i], nil
}

// Resolve maps ids to cards, skipping unknown ids and keeping the order of
// ids.
func (c *Catalog) Resolve(ids []string) []Card {
	out := make([]Card, 0, len(ids))
	for _, id := range ids {
		if i, ok := c.byID[id]; ok {
			out = append(out, c.cards[i])
		}
	}
	return out
}
