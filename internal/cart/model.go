// Package cart models the cart a customer submits at checkout. Carts live in
// the browser; the server only sees them as request input.
package cart

import (
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

type Item struct {
	Name     string          `json:"name"`
	Quantity int             `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
}

// LineTotal is Quantity × Price.
func (i Item) LineTotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

type Cart []Item

// Parse decodes the cart_data form field. Blank input is an empty cart.
func Parse(raw string) (Cart, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Cart{}, nil
	}
	var c Cart
	if err := json.Unmarshal([]byte(raw), &c); err != nil {
		return nil, ErrMalformedCart
	}
	return c, nil
}

// Validate checks structure only: at least one item, each with a non-blank
// name, quantity > 0 and price >= 0.
func (c Cart) Validate() error {
	if len(c) == 0 {
		return ErrEmptyCart
	}
	for _, it := range c {
		if strings.TrimSpace(it.Name) == "" || it.Quantity <= 0 || it.Price.IsNegative() {
			return ErrInvalidItem
		}
	}
	return nil
}

func (c Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, it := range c {
		total = total.Add(it.LineTotal())
	}
	return total
}

// Reconcile compares a client-claimed total with the cart. It returns the
// server-computed total, or ErrTotalMismatch when the two differ by more than
// tolerance.
func (c Cart) Reconcile(claimed, tolerance decimal.Decimal) (decimal.Decimal, error) {
	computed := c.Total()
	if claimed.Sub(computed).Abs().GreaterThan(tolerance) {
		return computed, ErrTotalMismatch
	}
	return computed, nil
}
