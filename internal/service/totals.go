package service

import (
	"github.com/sagara-pos/api/internal/enum"
	"github.com/shopspring/decimal"
)

var oneHundred = decimal.NewFromInt(100)

// LineItem is the pricing view of an order item.
type LineItem struct {
	UnitPrice decimal.Decimal
	Quantity  int32
}

// TaxConfig is the store-level pricing policy supplied by the settings row.
// The engine does not own tax policy; it only applies these inputs.
type TaxConfig struct {
	TaxRate           decimal.Decimal
	TaxInclusive      bool
	ServiceChargeRate decimal.Decimal
}

// Discount is an optional order-level discount. An empty Type means none.
type Discount struct {
	Type  string
	Value decimal.Decimal
}

// Totals is the recomputed monetary state of an order. The invariant
// TotalAmount == Subtotal - DiscountAmount + TaxAmount + ServiceCharge
// holds for every result this calculator produces.
type Totals struct {
	Subtotal       decimal.Decimal
	DiscountAmount decimal.Decimal
	TaxAmount      decimal.Decimal
	ServiceCharge  decimal.Decimal
	TotalAmount    decimal.Decimal
}

// CalculateTotals is the single authority for an order's monetary fields.
// Item prices are treated as tax-inclusive or tax-exclusive per the store
// config: in inclusive mode the tax portion is extracted from the gross item
// total and the reported subtotal is net of tax, so the charged amount does
// not change.
func CalculateTotals(items []LineItem, cfg TaxConfig, disc Discount) (Totals, error) {
	gross := decimal.Zero
	for _, it := range items {
		gross = gross.Add(it.UnitPrice.Mul(decimal.NewFromInt32(it.Quantity)))
	}

	subtotal := gross
	tax := decimal.Zero
	if cfg.TaxRate.IsPositive() {
		if cfg.TaxInclusive {
			tax = gross.Mul(cfg.TaxRate).Div(oneHundred.Add(cfg.TaxRate)).Round(2)
			subtotal = gross.Sub(tax)
		}
		// Exclusive tax is computed after the discount below.
	}

	discount := decimal.Zero
	switch disc.Type {
	case "":
	case enum.DiscountTypePercentage:
		discount = subtotal.Mul(disc.Value).Div(oneHundred).Round(2)
	case enum.DiscountTypeFixed:
		discount = disc.Value
	default:
		return Totals{}, ErrInvalidDiscount
	}
	if discount.GreaterThan(subtotal) {
		discount = subtotal
	}

	taxable := subtotal.Sub(discount)
	if cfg.TaxRate.IsPositive() && !cfg.TaxInclusive {
		tax = taxable.Mul(cfg.TaxRate).Div(oneHundred).Round(2)
	}

	serviceCharge := decimal.Zero
	if cfg.ServiceChargeRate.IsPositive() {
		serviceCharge = taxable.Mul(cfg.ServiceChargeRate).Div(oneHundred).Round(2)
	}

	total := subtotal.Sub(discount).Add(tax).Add(serviceCharge)
	if total.IsNegative() {
		total = decimal.Zero
	}

	return Totals{
		Subtotal:       subtotal,
		DiscountAmount: discount,
		TaxAmount:      tax,
		ServiceCharge:  serviceCharge,
		TotalAmount:    total,
	}, nil
}
