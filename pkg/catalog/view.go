package catalog

import (
	"cmp"
	"slices"
	"strings"

	"autobesa/pkg/money"
)

// Criteria narrows the visible cards. Zero fields do not filter.
type Criteria struct {
	// Search is matched case-insensitively against the card text.
	Search string `json:"search"`
	Brand  string `json:"brand"`
	// MaxPrice is an inclusive upper bound.
	MaxPrice money.Cents `json:"maxPriceCents"`
	// MinYear is an inclusive lower bound.
	MinYear      int    `json:"minYear"`
	Transmission string `json:"transmission"`
	Fuel         string `json:"fuel"`
}

// IsZero reports whether c filters nothing.
func (c Criteria) IsZero() bool { return c == Criteria{} }

// Match reports whether card satisfies every set criterion.
func (c Criteria) Match(card Card) bool {
	if c.Search != "" && !strings.Contains(card.Text, strings.ToLower(c.Search)) {
		return false
	}
	if c.Brand != "" && card.Brand != c.Brand {
		return false
	}
	if c.MaxPrice > 0 && card.Price > c.MaxPrice {
		return false
	}
	if c.MinYear > 0 && card.Year < c.MinYear {
		return false
	}
	if c.Transmission != "" && card.Transmission != c.Transmission {
		return false
	}
	if c.Fuel != "" && card.Fuel != c.Fuel {
		return false
	}
	return true
}

// SortKey names a card ordering.
type SortKey string

const (
	SortNone      SortKey = ""
	SortPriceAsc  SortKey = "priceAsc"
	SortPriceDesc SortKey = "priceDesc"
	SortYearDesc  SortKey = "yearDesc"
	SortKmAsc     SortKey = "kmAsc"
)

var comparators = map[SortKey]func(a, b Card) int{
	SortPriceAsc:  func(a, b Card) int { return cmp.Compare(a.Price, b.Price) },
	SortPriceDesc: func(a, b Card) int { return cmp.Compare(b.Price, a.Price) },
	SortYearDesc:  func(a, b Card) int { return cmp.Compare(b.Year, a.Year) },
	SortKmAsc:     func(a, b Card) int { return cmp.Compare(a.Mileage, b.Mileage) },
}

// ParseSortKey validates s. The empty string selects document order.
func ParseSortKey(s string) (SortKey, error) {
	k := SortKey(s)
	if k == SortNone {
		return k, nil
	}
	if _, ok := comparators[k]; !ok {
		return "", ErrUnknownSort
	}
	return k, nil
}

// Page is one slice of the visible cards.
type Page struct {
	Items      []Card `json:"items"`
	Number     int    `json:"page"`
	PageSize   int    `json:"pageSize"`
	TotalPages int    `json:"totalPages"`
	TotalCount int    `json:"totalCount"`
	HasPrev    bool   `json:"hasPrev"`
	HasNext    bool   `json:"hasNext"`
}

// View is the filtered, sorted projection of a catalog. It is not safe for
// concurrent use; build one per request.
type View struct {
	catalog  *Catalog
	order    []Card
	criteria Criteria
	sortKey  SortKey
}

// NewView returns a view showing every card in document order.
func NewView(c *Catalog) *View {
	return &View{catalog: c, order: c.Cards()}
}

// ApplyFilters replaces the criteria and returns the visible count.
func (v *View) ApplyFilters(c Criteria) int {
	v.criteria = c
	return len(v.Visible())
}

// Criteria returns the active criteria.
func (v *View) Criteria() Criteria { return v.criteria }

// Sort reorders the full card set. Ties keep document order.
func (v *View) Sort(key SortKey) error {
	if key == SortNone {
		v.order = v.catalog.Cards()
		v.sortKey = key
		return nil
	}
	compare, ok := comparators[key]
	if !ok {
		return ErrUnknownSort
	}
	// Restart from document order so ties never depend on a previous sort.
	order := v.catalog.Cards()
	slices.SortStableFunc(order, compare)
	v.order = order
	v.sortKey = key
	return nil
}

// SortKey returns the active ordering.
func (v *View) SortKey() SortKey { return v.sortKey }

// Visible returns the cards matching the criteria in the current order.
func (v *View) Visible() []Card {
	out := make([]Card, 0, len(v.order))
	for _, c := range v.order {
		if v.criteria.Match(c) {
			out = append(out, c)
		}
	}
	return out
}

// Paginate returns page number of the visible cards. The number is clamped
// to the available pages; there is always at least one page.
func (v *View) Paginate(pageSize, number int) Page {
	return paginate(v.Visible(), pageSize, number)
}

func paginate(cards []Card, pageSize, number int) Page {
	pageSize = max(1, pageSize)
	total := max(1, (len(cards)+pageSize-1)/pageSize)
	number = min(max(1, number), total)

	start := (number - 1) * pageSize
	end := min(start+pageSize, len(cards))
	return Page{
		Items:      cards[start:end],
		Number:     number,
		PageSize:   pageSize,
		TotalPages: total,
		TotalCount: len(cards),
		HasPrev:    number > 1,
		HasNext:    number < total,
	}
}
