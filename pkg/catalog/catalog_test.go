package catalog

import (
	"context"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"autobesa/pkg/kv/memory"
	"autobesa/pkg/logger"
	"autobesa/pkg/money"
)

const page = `<!doctype html>
<html><body>
<div class="inventory-grid">
  <div class="car-card" data-id="bmw-320" data-brand="BMW" data-price="28000" data-year="2019" data-km="61000" data-transmission="Automatik" data-fuel="Diesel">
    <img src="img/bmw320.jpg" alt="BMW 320d">
    <h3 class="car-title">BMW 320d</h3>
    <p class="car-meta">2019 &middot; 61,000 km</p>
    <span class="price">€28,000</span>
    <a class="btn-detajet" href="bmw-320.html">Detajet</a>
  </div>
  <div class="car-card" data-brand="Audi" data-price="31000" data-year="2020" data-km="40000" data-transmission="Automatik" data-fuel="Benzin">
    <img data-src="img/a4.jpg">
    <h3 class="car-title">Audi A4</h3>
    <span class="price">€31,000</span>
  </div>
  <div class="car-card" data-brand="BMW" data-year="2021">
    <h3 class="car-title">BMW X5</h3>
    <span class="price">€45,500.50</span>
  </div>
</div>
</body></html>`

func TestParseCards(t *testing.T) {
	cards, err := ParseCards(strings.NewReader(page))
	require.NoError(t, err)
	require.Len(t, cards, 3)

	bmw := cards[0]
	assert.Equal(t, "bmw-320", bmw.ID)
	assert.Equal(t, "BMW 320d", bmw.Title)
	assert.Equal(t, "BMW", bmw.Brand)
	assert.Equal(t, money.Euros(28000), bmw.Price)
	assert.Equal(t, "€28,000", bmw.PriceText)
	assert.Equal(t, 2019, bmw.Year)
	assert.Equal(t, 61000, bmw.Mileage)
	assert.Equal(t, "img/bmw320.jpg", bmw.Image)
	assert.Equal(t, "bmw-320.html", bmw.DetailsURL)
	assert.Contains(t, bmw.Text, "bmw 320d")

	assert.Equal(t, "car-2", cards[1].ID)
	assert.Equal(t, "img/a4.jpg", cards[1].Image)

	assert.Equal(t, "car-3", cards[2].ID)
	assert.Equal(t, money.Cents(4550050), cards[2].Price, "price text fallback")
}

func TestParseDetailPage(t *testing.T) {
	doc := `<div class="slider"><img class="slider-image" src="a.jpg"><img class="slider-image active" src="b.jpg"></div>
<div class="car-details-header"><h1> Mercedes  C 220 </h1><div class="car-price">€ 32,900</div></div>`
	d, err := ParseDetailPage(strings.NewReader(doc))
	require.NoError(t, err)
	assert.Equal(t, "car-mercedes-c-220", d.ID)
	assert.Equal(t, "Mercedes  C 220", d.Name, "inner whitespace is kept, only the ends are trimmed")
	assert.Equal(t, money.Euros(32900), d.Price)
	assert.Equal(t, "b.jpg", d.Image)

	d, err = ParseDetailPage(strings.NewReader(`<div class="car-details-header"><h1>BMW<span>X5</span></h1><div class="car-price">€<b>45,000</b></div></div>`))
	require.NoError(t, err)
	assert.Equal(t, "BMWX5", d.Name)
	assert.Equal(t, "car-bmwx5", d.ID)
	assert.Equal(t, money.Euros(45000), d.Price)

	_, err = ParseDetailPage(strings.NewReader(`<div class="car-details-header"><h1>Golf</h1><div class="car-price">€0</div></div>`))
	assert.ErrorIs(t, err, ErrDetailsUnavailable)

	_, err = ParseDetailPage(strings.NewReader(`<p>nothing here</p>`))
	assert.ErrorIs(t, err, ErrDetailsUnavailable)
}

func TestCatalogLookup(t *testing.T) {
	c := New([]Card{{ID: "a"}, {}, {ID: "a", Title: "dup"}})
	assert.Equal(t, 3, c.Len())

	got, err := c.Card("car-2")
	require.NoError(t, err)
	assert.Equal(t, "car-2", got.ID)

	got, err = c.Card("a")
	require.NoError(t, err)
	assert.Empty(t, got.Title)

	_, err = c.Card("zzz")
	assert.ErrorIs(t, err, ErrCardNotFound)

	assert.Len(t, c.Resolve([]string{"zzz", "car-2", "a"}), 2)
}

func fixture() *Catalog {
	return New([]Card{
		{ID: "1", Brand: "BMW", Price: money.Euros(25000), Year: 2018, Mileage: 90000, Transmission: "Manual", Fuel: "Diesel", Text: "bmw 318d"},
		{ID: "2", Brand: "Audi", Price: money.Euros(25000), Year: 2020, Mileage: 30000, Transmission: "Automatik", Fuel: "Benzin", Text: "audi a3"},
		{ID: "3", Brand: "BMW", Price: money.Euros(30000), Year: 2019, Mileage: 50000, Transmission: "Automatik", Fuel: "Diesel", Text: "bmw 320d"},
		{ID: "4", Brand: "BMW", Price: money.Euros(30001), Year: 2022, Mileage: 10000, Transmission: "Automatik", Fuel: "Benzin", Text: "bmw 330i"},
		{ID: "5", Brand: "VW", Price: money.Euros(25000), Year: 2016, Mileage: 120000, Transmission: "Manual", Fuel: "Diesel", Text: "vw golf"},
	})
}

func ids(cards []Card) []string {
	out := make([]string, len(cards))
	for i, c := range cards {
		out[i] = c.ID
	}
	return out
}

func TestApplyFilters(t *testing.T) {
	v := NewView(fixture())

	n := v.ApplyFilters(Criteria{Brand: "BMW", MaxPrice: money.Euros(30000)})
	assert.Equal(t, 2, n)
	assert.Equal(t, []string{"1", "3"}, ids(v.Visible()))

	assert.Equal(t, 1, v.ApplyFilters(Criteria{Search: "GOLF"}))
	assert.Equal(t, 2, v.ApplyFilters(Criteria{MinYear: 2020}))
	assert.Equal(t, 3, v.ApplyFilters(Criteria{Fuel: "Diesel"}))
	assert.Equal(t, 2, v.ApplyFilters(Criteria{Transmission: "Manual"}))
	assert.Equal(t, 5, v.ApplyFilters(Criteria{}))
}

func TestSortIsStable(t *testing.T) {
	v := NewView(fixture())

	require.NoError(t, v.Sort(SortPriceAsc))
	assert.Equal(t, []string{"1", "2", "5", "3", "4"}, ids(v.Visible()))

	require.NoError(t, v.Sort(SortPriceDesc))
	assert.Equal(t, []string{"4", "3", "1", "2", "5"}, ids(v.Visible()))

	require.NoError(t, v.Sort(SortYearDesc))
	assert.Equal(t, []string{"4", "2", "3", "1", "5"}, ids(v.Visible()))

	require.NoError(t, v.Sort(SortKmAsc))
	assert.Equal(t, []string{"4", "2", "3", "1", "5"}, ids(v.Visible()))

	require.NoError(t, v.Sort(SortNone))
	assert.Equal(t, []string{"1", "2", "3", "4", "5"}, ids(v.Visible()))

	assert.ErrorIs(t, v.Sort("cheapest"), ErrUnknownSort)
	_, err := ParseSortKey("cheapest")
	assert.ErrorIs(t, err, ErrUnknownSort)
}

func TestPaginate(t *testing.T) {
	cards := make([]Card, 17)
	for i := range cards {
		cards[i] = Card{ID: strconv.Itoa(i + 1)}
	}
	v := NewView(New(cards))

	p := v.Paginate(8, 1)
	assert.Equal(t, 3, p.TotalPages)
	assert.Equal(t, 17, p.TotalCount)
	assert.Len(t, p.Items, 8)
	assert.False(t, p.HasPrev)
	assert.True(t, p.HasNext)

	p = v.Paginate(8, 3)
	assert.Equal(t, []string{"17"}, ids(p.Items))
	assert.False(t, p.HasNext)

	p = v.Paginate(8, 99)
	assert.Equal(t, 3, p.Number)
	assert.Equal(t, []string{"17"}, ids(p.Items))

	p = v.Paginate(8, -4)
	assert.Equal(t, 1, p.Number)

	v.ApplyFilters(Criteria{Search: "nothing matches"})
	p = v.Paginate(8, 2)
	assert.Equal(t, 1, p.Number)
	assert.Equal(t, 1, p.TotalPages)
	assert.Empty(t, p.Items)
}

func TestFilterStore(t *testing.T) {
	ctx := context.Background()
	store := memory.NewBackend().Open()
	fs := NewFilterStore(store, logger.NewNop())

	c, err := fs.Load(ctx)
	require.NoError(t, err)
	assert.True(t, c.IsZero())

	want := Criteria{Search: "golf", Brand: "VW", MaxPrice: money.Euros(20000), MinYear: 2015}
	require.NoError(t, fs.Save(ctx, want))
	c, err = fs.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, c)

	require.NoError(t, fs.Reset(ctx))
	c, err = fs.Load(ctx)
	require.NoError(t, err)
	assert.True(t, c.IsZero())

	require.NoError(t, store.Set(ctx, FiltersKey, `{"search":"","brand":"BMW","price":"30000","year":"2018","transmission":"","fuel":""}`))
	c, err = fs.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, Criteria{Brand: "BMW", MaxPrice: money.Euros(30000), MinYear: 2018}, c)

	require.NoError(t, store.Set(ctx, FiltersKey, `{"price":"cheap"}`))
	c, err = fs.Load(ctx)
	require.NoError(t, err)
	assert.True(t, c.IsZero())
}

func TestDebouncerCoalesces(t *testing.T) {
	d := NewDebouncer(20 * time.Millisecond)
	var calls, last atomic.Int32

	for i := int32(1); i <= 5; i++ {
		d.Trigger(func() {
			calls.Add(1)
			last.Store(i)
		})
		time.Sleep(2 * time.Millisecond)
	}

	assert.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(40 * time.Millisecond)
	assert.EqualValues(t, 1, calls.Load())
	assert.EqualValues(t, 5, last.Load())

	d.Trigger(func() { calls.Add(1) })
	assert.True(t, d.Stop())
	time.Sleep(40 * time.Millisecond)
	assert.EqualValues(t, 1, calls.Load())
	assert.False(t, d.Stop())
}
