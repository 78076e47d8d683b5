// Package pricing derives the gallery commission and the public sale price from an artist price.
package pricing

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	ierr "depotapi/internal/errors"
)

var (
	CommissionRate = decimal.RequireFromString("0.40")
	SaleRate       = decimal.RequireFromString("1.40")
)

// CurrencySuffix is appended to every formatted amount.
const CurrencySuffix = "€"

// MaxPrice is the largest artist price Parse accepts.
var MaxPrice = decimal.New(1, 9)

// plainDecimal matches a normalized price: no exponent, at most 12 integer and 6 fraction digits.
var plainDecimal = regexp.MustCompile(`^-?\d{1,12}(\.\d{1,6})?$`)

// Prices holds an artist price and the amounts derived from it.
type Prices struct {
	Artist     decimal.Decimal
	Commission decimal.Decimal
	Sale       decimal.Decimal
}

// Calculate returns the commission (40%) and the sale price (140%) of p.
func Calculate(p decimal.Decimal) Prices {
	return Prices{
		Artist:     p,
		Commission: p.Mul(CommissionRate),
		Sale:       p.Mul(SaleRate),
	}
}

// Parse reads a submitted artist price. Both "1250.5" and "1 250,50" are accepted.
// An empty, malformed, negative or out of range value is an InvalidPrice error; no default is substituted.
// Scientific notation is rejected.
func Parse(raw string) (decimal.Decimal, error) {
	s := strings.TrimSpace(raw)
	s = strings.TrimSuffix(s, CurrencySuffix)
	s = strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\u00a0', '\u202f':
			return -1
		case ',':
			return '.'
		}
		return r
	}, s)
	if s == "" {
		return decimal.Zero, ierr.NewError("empty artist price").
			WithHint("le prix artiste est obligatoire").
			Mark(ierr.ErrInvalidPrice)
	}

	if !plainDecimal.MatchString(s) {
		return decimal.Zero, ierr.NewErrorf("malformed artist price %q", s).
			WithHintf("le prix '%s' n'est pas valide", strings.TrimSpace(raw)).
			Mark(ierr.ErrInvalidPrice)
	}
	p, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ierr.WithError(err).
			WithHintf("le prix '%s' n'est pas valide", strings.TrimSpace(raw)).
			Mark(ierr.ErrInvalidPrice)
	}
	if p.IsNegative() {
		return decimal.Zero, ierr.NewErrorf("negative artist price %s", p).
			WithHintf("le prix '%s' ne peut pas être négatif", strings.TrimSpace(raw)).
			Mark(ierr.ErrInvalidPrice)
	}
	if p.GreaterThan(MaxPrice) {
		return decimal.Zero, ierr.NewErrorf("artist price %s above %s", p, MaxPrice).
			WithHintf("le prix '%s' dépasse le maximum de %s", strings.TrimSpace(raw), Format(MaxPrice)).
			Mark(ierr.ErrInvalidPrice)
	}
	return p, nil
}

// ParseAndCalculate is Parse followed by Calculate.
func ParseAndCalculate(raw string) (Prices, error) {
	p, err := Parse(raw)
	if err != nil {
		return Prices{}, err
	}
	return Calculate(p), nil
}

// Format renders an amount for display: two decimals and the currency suffix, e.g. "140.00€".
func Format(d decimal.Decimal) string {
	return d.StringFixed(2) + CurrencySuffix
}
