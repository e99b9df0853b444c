package domain

import (
	"fmt"
	"math"
	"strings"
)

const (
	MinTaxRate = 0
	MaxTaxRate = 100
)

func ValidateQuantity(q float64) error {
	if math.IsNaN(q) || math.IsInf(q, 0) || q < 0 {
		return NewValidationError("quantity", ErrInvalidQuantity, fmt.Sprintf("quantity must be a finite number >= 0, got %v", q))
	}
	return nil
}

func ValidateRate(r Money) error {
	if r < 0 {
		return NewValidationError("rate", ErrInvalidRate, fmt.Sprintf("rate must be >= 0, got %s", r))
	}
	return nil
}

func ValidateTaxRate(rate float64) error {
	if math.IsNaN(rate) || rate < MinTaxRate || rate > MaxTaxRate {
		return NewValidationError("taxRate", ErrInvalidTaxRate, fmt.Sprintf("tax rate must be within [0,100], got %v", rate))
	}
	return nil
}

// ValidateDates checks that the due date is not before the issue date.
func ValidateDates(date, due Date) error {
	if date.IsZero() {
		return NewValidationError("date", ErrInvalidDate, "date is required")
	}
	if due.IsZero() {
		return NewValidationError("dueDate", ErrInvalidDate, "due date is required")
	}
	if due.Before(date) {
		return NewValidationError("dueDate", ErrInvalidDueDate, "due date is before invoice date")
	}
	return nil
}

// ValidateComputed checks the numeric fields of a computed invoice without
// recomputing anything.
func ValidateComputed(inv Invoice) error {
	if err := ValidateTaxRate(inv.TaxRate); err != nil {
		return err
	}
	for _, item := range inv.Items {
		if err := ValidateQuantity(item.Quantity); err != nil {
			return err
		}
		if err := ValidateRate(item.Rate); err != nil {
			return err
		}
		if item.Amount < 0 {
			return NewValidationError("amount", ErrInvalidAmount, fmt.Sprintf("item %s has negative amount", item.ID))
		}
	}
	totals := []struct {
		field string
		value Money
	}{
		{"subtotal", inv.Subtotal},
		{"taxAmount", inv.TaxAmount},
		{"total", inv.Total},
	}
	for _, t := range totals {
		if t.value < 0 {
			return NewValidationError(t.field, ErrInvalidAmount, fmt.Sprintf("%s is negative", t.field))
		}
	}
	return nil
}

// Valid reports whether c is one of the supported currency codes.
func (c Currency) Valid() bool {
	switch c {
	case CurrencyINR, CurrencyUSD, CurrencyEUR, CurrencyGBP:
		return true
	}
	return false
}

func ParseCurrency(raw string) (Currency, error) {
	c := Currency(strings.ToUpper(strings.TrimSpace(raw)))
	if !c.Valid() {
		return "", NewValidationError("currency", ErrUnknownCurrency, fmt.Sprintf("unsupported currency %q", raw))
	}
	return c, nil
}

// Valid reports whether t is one of the known templates.
func (t Template) Valid() bool {
	switch t {
	case TemplateModern, TemplateClassic, TemplateMinimal:
		return true
	}
	return false
}

func ParseTemplate(raw string) (Template, error) {
	t := Template(strings.ToLower(strings.TrimSpace(raw)))
	if !t.Valid() {
		return "", NewValidationError("template", ErrUnknownTemplate, fmt.Sprintf("unknown template %q", raw))
	}
	return t, nil
}

func ParseRecurringFrequency(raw string) (RecurringFrequency, error) {
	f := RecurringFrequency(strings.ToLower(strings.TrimSpace(raw)))
	switch f {
	case RecurringWeekly, RecurringMonthly, RecurringQuarterly:
		return f, nil
	}
	return "", NewValidationError("recurringFrequency", ErrInvalidRecurrence, fmt.Sprintf("unknown frequency %q", raw))
}

// NextOccurrence returns the date one period after d.
func (f RecurringFrequency) NextOccurrence(d Date) Date {
	switch f {
	case RecurringWeekly:
		return d.AddDays(7)
	case RecurringQuarterly:
		return d.AddMonths(3)
	default:
		return d.AddMonths(1)
	}
}
