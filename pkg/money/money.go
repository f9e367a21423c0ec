// Package money holds prices as integer minor currency units.
//
// Every price entering the system (catalog data attributes, scraped price
// text, legacy stored values) is converted to Cents at the boundary; only
// Format turns it back into major units for display.
package money

import (
	"errors"
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Cents is an amount in euro cents.
type Cents int64

var (
	// ErrInvalidAmount is returned when price text cannot be read as an amount.
	ErrInvalidAmount = errors.New("invalid amount")
	// ErrOverflow is returned when arithmetic leaves the range of Cents.
	ErrOverflow = errors.New("amount out of range")
)

// Euros converts a whole-euro amount, as used by catalog data attributes.
func Euros(n int64) Cents {
	return Cents(n * 100)
}

// FromMajor converts a decimal euro amount, rounding to the nearest cent.
func FromMajor(f float64) Cents {
	return Cents(math.Round(f * 100))
}

// Major returns the amount in euros.
func (c Cents) Major() float64 {
	return float64(c) / 100
}

// Parse reads price text such as "€45,900", "45900" or "45 900.50".
// Currency symbols, grouping commas and whitespace are ignored; a single dot
// separates at most two fractional digits.
func Parse(text string) (Cents, error) {
	var b strings.Builder
	for _, r := range text {
		switch {
		case r == '€' || r == ',' || r == ' ' || r == '\u00a0' || r == '\t' || r == '\n':
		default:
			b.WriteRune(r)
		}
	}
	s := b.String()
	if s == "" {
		return 0, ErrInvalidAmount
	}

	neg := false
	if strings.HasPrefix(s, "-") {
		neg = true
		s = s[1:]
	}

	whole, frac, hasFrac := strings.Cut(s, ".")
	if whole == "" && !hasFrac {
		return 0, ErrInvalidAmount
	}
	if len(frac) > 2 || (hasFrac && frac == "") {
		return 0, ErrInvalidAmount
	}
	for len(frac) < 2 {
		frac += "0"
	}
	if whole == "" {
		whole = "0"
	}

	w, err := strconv.ParseInt(whole, 10, 64)
	if err != nil || w < 0 {
		return 0, ErrInvalidAmount
	}
	f, err := strconv.ParseInt(frac, 10, 64)
	if err != nil || f < 0 {
		return 0, ErrInvalidAmount
	}
	if w > (math.MaxInt64-f)/100 {
		return 0, ErrInvalidAmount
	}

	c := Cents(w*100 + f)
	if neg {
		c = -c
	}
	return c, nil
}

// Add returns c+d, or ErrOverflow.
func (c Cents) Add(d Cents) (Cents, error) {
	s := c + d
	if (d > 0 && s < c) || (d < 0 && s > c) {
		return 0, ErrOverflow
	}
	return s, nil
}

// Mul returns c*n, or ErrOverflow.
func (c Cents) Mul(n int64) (Cents, error) {
	if c == 0 || n == 0 {
		return 0, nil
	}
	p := c * Cents(n)
	if p/Cents(n) != c || (c == -1 && n == math.MinInt64) || (n == -1 && c == math.MinInt64) {
		return 0, ErrOverflow
	}
	return p, nil
}

// Rate returns c scaled by rate and rounded to the nearest cent, or
// ErrOverflow.
func (c Cents) Rate(rate float64) (Cents, error) {
	v := math.Round(float64(c) * rate)
	if math.IsNaN(v) || v >= math.MaxInt64 || v < math.MinInt64 {
		return 0, ErrOverflow
	}
	return Cents(v), nil
}

var printer = message.NewPrinter(language.English)

// Format renders the amount for display, e.g. "€45,900.00".
func Format(c Cents) string {
	sign := ""
	if c < 0 {
		sign = "-"
		c = -c
	}
	return sign + "€" + printer.Sprint(number.Decimal(c.Major(), number.Scale(2)))
}
