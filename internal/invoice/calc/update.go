package calc

import (
	"fmt"
	"time"

	"github.com/smallbiznis/invoicebuilder/internal/invoice/domain"
)

// NewItem returns a blank line with quantity 1, as the invoice form seeds it.
func NewItem(id string) domain.InvoiceItem {
	return domain.InvoiceItem{ID: id, Quantity: 1}
}

// ApplyItemUpdate edits one field of one item and recomputes the whole chain.
func ApplyItemUpdate(inv domain.Invoice, itemID string, update domain.ItemUpdate, now time.Time) (domain.Invoice, error) {
	idx := inv.ItemIndex(itemID)
	if idx < 0 {
		return inv, fmt.Errorf("%w: %s", domain.ErrItemNotFound, itemID)
	}

	out := inv.Clone()
	item := &out.Items[idx]
	switch u := update.(type) {
	case domain.SetItemDescription:
		item.Description = u.Description
	case domain.SetItemQuantity:
		if err := domain.ValidateQuantity(u.Quantity); err != nil {
			return inv, err
		}
		item.Quantity = u.Quantity
	case domain.SetItemRate:
		if err := domain.ValidateRate(u.Rate); err != nil {
			return inv, err
		}
		item.Rate = u.Rate
	default:
		return inv, fmt.Errorf("unsupported item update %T", update)
	}

	return touch(inv, out, now)
}

// AddItem appends item and recomputes.
func AddItem(inv domain.Invoice, item domain.InvoiceItem, now time.Time) (domain.Invoice, error) {
	if err := domain.ValidateQuantity(item.Quantity); err != nil {
		return inv, err
	}
	if err := domain.ValidateRate(item.Rate); err != nil {
		return inv, err
	}
	out := inv.Clone()
	out.Items = append(out.Items, item)
	return touch(inv, out, now)
}

// RemoveItem drops the item with itemID. The last remaining item cannot be removed.
func RemoveItem(inv domain.Invoice, itemID string, now time.Time) (domain.Invoice, error) {
	idx := inv.ItemIndex(itemID)
	if idx < 0 {
		return inv, fmt.Errorf("%w: %s", domain.ErrItemNotFound, itemID)
	}
	if len(inv.Items) <= 1 {
		return inv, domain.ErrLastItem
	}
	out := inv.Clone()
	out.Items = append(out.Items[:idx], out.Items[idx+1:]...)
	return touch(inv, out, now)
}

// SetTaxRate changes the tax rate and recomputes from the item list.
func SetTaxRate(inv domain.Invoice, taxRate float64, now time.Time) (domain.Invoice, error) {
	if err := domain.ValidateTaxRate(taxRate); err != nil {
		return inv, err
	}
	out := inv.Clone()
	out.TaxRate = taxRate
	return touch(inv, out, now)
}

// touch recomputes edited and stamps updatedAt. On failure the unedited
// original is returned.
func touch(original, edited domain.Invoice, now time.Time) (domain.Invoice, error) {
	out, err := Recompute(edited)
	if err != nil {
		return original, err
	}
	out.UpdatedAt = now
	return out, nil
}
