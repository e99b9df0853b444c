// Package calc derives item amounts and invoice totals.
//
// Every function is pure. Money is kept in integer minor units; rounding
// happens once per derived value, half away from zero.
package calc

import (
	"fmt"
	"math"

	"github.com/smallbiznis/invoicebuilder/internal/invoice/domain"
)

// moneyLimit is 2^63; a rounded float at or beyond it does not fit in Money.
const moneyLimit = float64(math.MaxInt64)

// Totals is the derived part of an invoice.
type Totals struct {
	Subtotal  domain.Money
	TaxAmount domain.Money
	Total     domain.Money
}

// ItemAmount returns quantity*rate rounded to the nearest minor unit.
func ItemAmount(quantity float64, rate domain.Money) (domain.Money, error) {
	if err := domain.ValidateQuantity(quantity); err != nil {
		return 0, err
	}
	if err := domain.ValidateRate(rate); err != nil {
		return 0, err
	}
	return toMoney("amount", quantity*float64(rate))
}

// Subtotal sums item amounts in order. An empty list yields 0.
func Subtotal(items []domain.InvoiceItem) (domain.Money, error) {
	var sum domain.Money
	for _, item := range items {
		next, err := add("subtotal", sum, item.Amount)
		if err != nil {
			return 0, err
		}
		sum = next
	}
	return sum, nil
}

// TaxAmount returns subtotal*taxRate/100 rounded to the nearest minor unit.
func TaxAmount(subtotal domain.Money, taxRate float64) (domain.Money, error) {
	if err := domain.ValidateTaxRate(taxRate); err != nil {
		return 0, err
	}
	if subtotal == 0 || taxRate == 0 {
		return 0, nil
	}
	return toMoney("taxAmount", float64(subtotal)*taxRate/100)
}

// Total returns subtotal+taxAmount.
func Total(subtotal, taxAmount domain.Money) (domain.Money, error) {
	return add("total", subtotal, taxAmount)
}

// ComputeTotals runs subtotal→tax→total over items whose amounts are already set.
func ComputeTotals(items []domain.InvoiceItem, taxRate float64) (Totals, error) {
	subtotal, err := Subtotal(items)
	if err != nil {
		return Totals{}, err
	}
	tax, err := TaxAmount(subtotal, taxRate)
	if err != nil {
		return Totals{}, err
	}
	total, err := Total(subtotal, tax)
	if err != nil {
		return Totals{}, err
	}
	return Totals{Subtotal: subtotal, TaxAmount: tax, Total: total}, nil
}

// Recompute re-derives every item amount and the full totals chain from the
// item list and tax rate. The input is not modified.
func Recompute(inv domain.Invoice) (domain.Invoice, error) {
	out := inv.Clone()
	for i := range out.Items {
		amount, err := ItemAmount(out.Items[i].Quantity, out.Items[i].Rate)
		if err != nil {
			return inv, err
		}
		out.Items[i].Amount = amount
	}
	totals, err := ComputeTotals(out.Items, out.TaxRate)
	if err != nil {
		return inv, err
	}
	out.Subtotal = totals.Subtotal
	out.TaxAmount = totals.TaxAmount
	out.Total = totals.Total
	return out, nil
}

func toMoney(field string, v float64) (domain.Money, error) {
	r := math.Round(v)
	if math.IsNaN(r) || r >= moneyLimit || r < -moneyLimit {
		return 0, domain.NewValidationError(field, domain.ErrInvalidAmount, fmt.Sprintf("%s out of range", field))
	}
	return domain.Money(r), nil
}

func add(field string, a, b domain.Money) (domain.Money, error) {
	sum := a + b
	if (b > 0 && sum < a) || (b < 0 && sum > a) {
		return 0, domain.NewValidationError(field, domain.ErrInvalidAmount, fmt.Sprintf("%s out of range", field))
	}
	return sum, nil
}
