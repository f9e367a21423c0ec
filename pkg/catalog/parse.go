package catalog

import (
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"autobesa/pkg/money"
)

// ParseCards reads every .car-card element of an HTML document in document
// order. Missing attributes and child elements leave the matching fields
// empty.
func ParseCards(r io.Reader) ([]Card, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parsing catalog page: %w", err)
	}

	var cards []Card
	var traverse func(*html.Node)
	traverse = func(n *html.Node) {
		if n.Type == html.ElementNode && hasClass(n, "car-card") {
			cards = append(cards, cardFromNode(n, len(cards)))
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			traverse(c)
		}
	}
	traverse(doc)
	return cards, nil
}

// ParseCatalog parses a page and wraps its cards in a Catalog.
func ParseCatalog(r io.Reader) (*Catalog, error) {
	cards, err := ParseCards(r)
	if err != nil {
		return nil, err
	}
	return New(cards), nil
}

func cardFromNode(n *html.Node, pos int) Card {
	c := Card{
		ID:           attr(n, "data-id"),
		Brand:        attr(n, "data-brand"),
		Year:         atoi(attr(n, "data-year")),
		Mileage:      atoi(attr(n, "data-km")),
		Transmission: attr(n, "data-transmission"),
		Fuel:         attr(n, "data-fuel"),
		Text:         strings.ToLower(textContent(n)),
	}
	if c.ID == "" {
		c.ID = PositionalID(pos)
	}
	if t := findClass(n, "car-title"); t != nil {
		c.Title = textContent(t)
	}
	if m := findClass(n, "car-meta"); m != nil {
		c.Meta = textContent(m)
	}
	if p := findClass(n, "price"); p != nil {
		c.PriceText = textContent(p)
	}
	if d := findClass(n, "btn-detajet"); d != nil {
		c.DetailsURL = attr(d, "href")
	}
	if img := find(n, func(n *html.Node) bool { return n.Data == "img" }); img != nil {
		c.Image = imageSource(img)
	}

	// data-price carries whole euros; the price text is the fallback.
	if v := attr(n, "data-price"); v != "" {
		c.Price = money.Euros(int64(atoi(v)))
	} else if c.PriceText != "" {
		if p, err := money.Parse(c.PriceText); err == nil {
			c.Price = p
		}
	}
	return c
}

// Detail is the product shown on a single car's detail page.
type Detail struct {
	ID    string
	Name  string
	Price money.Cents
	Image string
}

var whitespace = regexp.MustCompile(`\s+`)

// ParseDetailPage extracts the product from a detail page. A page without a
// name or with a zero price yields ErrDetailsUnavailable.
func ParseDetailPage(r io.Reader) (Detail, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return Detail{}, fmt.Errorf("%w: %v", ErrDetailsUnavailable, err)
	}

	header := findClass(doc, "car-details-header")
	if header == nil {
		return Detail{}, ErrDetailsUnavailable
	}

	var d Detail
	if h1 := find(header, func(n *html.Node) bool { return n.Data == "h1" }); h1 != nil {
		d.Name = strings.TrimSpace(rawText(h1))
	}
	if p := findClass(header, "car-price"); p != nil {
		if price, err := money.Parse(rawText(p)); err == nil {
			d.Price = price
		}
	}
	if d.Name == "" || d.Price <= 0 {
		return Detail{}, ErrDetailsUnavailable
	}

	img := find(doc, func(n *html.Node) bool { return hasClass(n, "slider-image") && hasClass(n, "active") })
	if img == nil {
		img = findClass(doc, "slider-image")
	}
	if img != nil {
		d.Image = imageSource(img)
	}

	d.ID = "car-" + whitespace.ReplaceAllString(strings.ToLower(d.Name), "-")
	return d, nil
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return strings.TrimSpace(a.Val)
		}
	}
	return ""
}

func hasClass(n *html.Node, class string) bool {
	if n.Type != html.ElementNode {
		return false
	}
	for _, c := range strings.Fields(attr(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}

// find returns the first element below n, in document order, that matches.
func find(n *html.Node, match func(*html.Node) bool) *html.Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && match(c) {
			return c
		}
		if found := find(c, match); found != nil {
			return found
		}
	}
	return nil
}

func findClass(n *html.Node, class string) *html.Node {
	return find(n, func(n *html.Node) bool { return hasClass(n, class) })
}

// rawText concatenates the text below n as the DOM's textContent does.
func rawText(n *html.Node) string {
	var b strings.Builder
	writeText(&b, n, "")
	return b.String()
}

// textContent joins the text below n with single spaces.
func textContent(n *html.Node) string {
	var b strings.Builder
	writeText(&b, n, " ")
	return strings.Join(strings.Fields(b.String()), " ")
}

func writeText(b *strings.Builder, n *html.Node, sep string) {
	if n.Type == html.TextNode {
		b.WriteString(n.Data)
		b.WriteString(sep)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		writeText(b, c, sep)
	}
}

func imageSource(img *html.Node) string {
	if src := attr(img, "src"); src != "" {
		return src
	}
	return attr(img, "data-src")
}

func atoi(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}
