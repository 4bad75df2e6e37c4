package model

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

type DiscountType string

const (
	DiscountPercentage DiscountType = "percentage"
	DiscountFlat       DiscountType = "flat"
)

func (t DiscountType) Valid() bool {
	return t == DiscountPercentage || t == DiscountFlat
}

type Discount struct {
	Value float64      `json:"value"`
	Type  DiscountType `json:"type"`
}

var (
	ErrDiscountType     = errors.New("discount type must be percentage or flat")
	ErrDiscountNegative = errors.New("discount value cannot be negative")
	ErrDiscountRange    = errors.New("percentage discount must be 0-100")
)

func (d *Discount) Validate() error {
	if !d.Type.Valid() {
		return ErrDiscountType
	}
	if d.Value < 0 {
		return ErrDiscountNegative
	}
	if d.Type == DiscountPercentage && d.Value > 100 {
		return ErrDiscountRange
	}
	return nil
}

// Apply returns the discounted price, never below zero. A nil discount
// leaves the price unchanged.
func (d *Discount) Apply(price decimal.Decimal) decimal.Decimal {
	if d == nil {
		return price
	}
	value := decimal.NewFromFloat(d.Value)
	var out decimal.Decimal
	switch d.Type {
	case DiscountPercentage:
		pct := decimal.Min(decimal.Max(value, decimal.Zero), decimal.NewFromInt(100))
		out = price.Sub(price.Mul(pct).Div(decimal.NewFromInt(100)))
	case DiscountFlat:
		out = price.Sub(value)
	default:
		return price
	}
	if out.IsNegative() {
		return decimal.Zero
	}
	return out.Round(2)
}

func (d *Discount) clone() *Discount {
	if d == nil {
		return nil
	}
	c := *d
	return &c
}

func (v Variant) PriceDecimal() (decimal.Decimal, error) {
	p, err := decimal.NewFromString(v.Price)
	if err != nil {
		return decimal.Zero, fmt.Errorf("variant %d price %q: %w", v.ID, v.Price, err)
	}
	return p, nil
}

// DiscountedPrices maps variant id to its effective price. A variant's own
// discount takes precedence over the entry-level one.
func (e SelectedEntry) DiscountedPrices() (map[int]decimal.Decimal, error) {
	out := make(map[int]decimal.Decimal, len(e.Variants))
	for _, v := range e.Variants {
		price, err := v.PriceDecimal()
		if err != nil {
			return nil, err
		}
		d := e.Discount
		if v.Discount != nil {
			d = v.Discount
		}
		out[v.ID] = d.Apply(price)
	}
	return out, nil
}
