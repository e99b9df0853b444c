package calc

import (
	"math"
	"testing"
	"time"

	"github.com/smallbiznis/invoicebuilder/internal/invoice/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleInvoice() domain.Invoice {
	return domain.Invoice{
		ID:      "inv-1",
		TaxRate: 18,
		Items: []domain.InvoiceItem{
			{ID: "a", Description: "Design", Quantity: 2, Rate: 10000},
			{ID: "b", Description: "Hosting", Quantity: 1, Rate: 5000},
		},
	}
}

func TestRecompute_Scenario(t *testing.T) {
	inv, err := Recompute(sampleInvoice())
	require.NoError(t, err)

	assert.Equal(t, domain.Money(20000), inv.Items[0].Amount)
	assert.Equal(t, domain.Money(5000), inv.Items[1].Amount)
	assert.Equal(t, domain.Money(25000), inv.Subtotal)
	assert.Equal(t, domain.Money(4500), inv.TaxAmount)
	assert.Equal(t, domain.Money(29500), inv.Total)
}

func TestRecompute_Idempotent(t *testing.T) {
	first, err := Recompute(sampleInvoice())
	require.NoError(t, err)
	second, err := Recompute(first)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestRecompute_DoesNotMutateInput(t *testing.T) {
	in := sampleInvoice()
	_, err := Recompute(in)
	require.NoError(t, err)
	assert.Equal(t, domain.Money(0), in.Items[0].Amount)
	assert.Equal(t, domain.Money(0), in.Total)
}

func TestRecompute_EmptyItems(t *testing.T) {
	inv, err := Recompute(domain.Invoice{TaxRate: 18})
	require.NoError(t, err)
	assert.Zero(t, inv.Subtotal)
	assert.Zero(t, inv.TaxAmount)
	assert.Zero(t, inv.Total)
}

func TestItemAmount(t *testing.T) {
	cases := []struct {
		name     string
		quantity float64
		rate     domain.Money
		want     domain.Money
		wantErr  error
	}{
		{name: "whole", quantity: 3, rate: 1250, want: 3750},
		{name: "fractional_quantity", quantity: 1.5, rate: 999, want: 1499},
		{name: "zero", quantity: 0, rate: 1000, want: 0},
		{name: "negative_quantity", quantity: -1, rate: 100, wantErr: domain.ErrInvalidQuantity},
		{name: "nan_quantity", quantity: math.NaN(), rate: 100, wantErr: domain.ErrInvalidQuantity},
		{name: "negative_rate", quantity: 1, rate: -1, wantErr: domain.ErrInvalidRate},
		{name: "overflow", quantity: 1e12, rate: 1e9, wantErr: domain.ErrInvalidAmount},
		{name: "exactly_two_pow_63", quantity: 2, rate: 1 << 62, wantErr: domain.ErrInvalidAmount},
		{name: "two_pow_62", quantity: 1, rate: 1 << 62, want: 1 << 62},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ItemAmount(tc.quantity, tc.rate)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				assert.True(t, domain.IsValidation(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestTaxAmount(t *testing.T) {
	tax, err := TaxAmount(25000, 18)
	require.NoError(t, err)
	assert.Equal(t, domain.Money(4500), tax)

	tax, err = TaxAmount(333, 12.5)
	require.NoError(t, err)
	assert.Equal(t, domain.Money(42), tax)

	_, err = TaxAmount(100, 100.01)
	assert.ErrorIs(t, err, domain.ErrInvalidTaxRate)

	_, err = TaxAmount(100, -1)
	assert.ErrorIs(t, err, domain.ErrInvalidTaxRate)
}

func TestTotals_RejectOverflow(t *testing.T) {
	cases := []struct {
		name    string
		taxRate float64
		items   []domain.InvoiceItem
	}{
		{
			name: "subtotal",
			items: []domain.InvoiceItem{
				{ID: "a", Quantity: 1, Rate: 9e18},
				{ID: "b", Quantity: 1, Rate: 9e18},
			},
		},
		{
			name:    "total_with_tax",
			taxRate: 100,
			items:   []domain.InvoiceItem{{ID: "a", Quantity: 1, Rate: 5e18}},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			inv := domain.Invoice{ID: "inv-1", TaxRate: tc.taxRate, Items: tc.items}
			out, err := Recompute(inv)
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrInvalidAmount)
			assert.True(t, domain.IsValidation(err))
			assert.Equal(t, inv.Items, out.Items)
			assert.Zero(t, out.Total)
		})
	}

	_, err := Total(math.MaxInt64, 1)
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)

	total, err := Total(math.MaxInt64-1, 1)
	require.NoError(t, err)
	assert.Equal(t, domain.Money(math.MaxInt64), total)
}

func TestTotalsInvariant(t *testing.T) {
	rates := []float64{0, 5, 12.5, 18, 28, 100}
	quantities := []float64{0, 1, 2.25, 7, 13.333}
	for _, rate := range rates {
		inv := domain.Invoice{TaxRate: rate}
		for i, q := range quantities {
			inv.Items = append(inv.Items, domain.InvoiceItem{ID: string(rune('a' + i)), Quantity: q, Rate: domain.Money(1999 * (i + 1))})
		}
		out, err := Recompute(inv)
		require.NoError(t, err)

		var sum domain.Money
		for _, item := range out.Items {
			want, err := ItemAmount(item.Quantity, item.Rate)
			require.NoError(t, err)
			assert.Equal(t, want, item.Amount)
			sum += item.Amount
		}
		assert.Equal(t, sum, out.Subtotal)
		assert.InDelta(t, float64(out.Subtotal)*rate/100, float64(out.TaxAmount), 0.5)
		assert.Equal(t, out.Subtotal+out.TaxAmount, out.Total)
	}
}

func TestApplyItemUpdate(t *testing.T) {
	now := time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC)
	base, err := Recompute(sampleInvoice())
	require.NoError(t, err)

	out, err := ApplyItemUpdate(base, "a", domain.SetItemQuantity{Quantity: 4}, now)
	require.NoError(t, err)
	assert.Equal(t, domain.Money(40000), out.Items[0].Amount)
	assert.Equal(t, domain.Money(45000), out.Subtotal)
	assert.Equal(t, domain.Money(8100), out.TaxAmount)
	assert.Equal(t, domain.Money(53100), out.Total)
	assert.Equal(t, now, out.UpdatedAt)

	out, err = ApplyItemUpdate(out, "b", domain.SetItemRate{Rate: 0}, now)
	require.NoError(t, err)
	assert.Equal(t, domain.Money(0), out.Items[1].Amount)
	assert.Equal(t, domain.Money(40000), out.Subtotal)

	out, err = ApplyItemUpdate(out, "b", domain.SetItemDescription{Description: "Free hosting"}, now)
	require.NoError(t, err)
	assert.Equal(t, "Free hosting", out.Items[1].Description)

	// original untouched
	assert.Equal(t, domain.Money(20000), base.Items[0].Amount)

	_, err = ApplyItemUpdate(base, "missing", domain.SetItemQuantity{Quantity: 1}, now)
	assert.ErrorIs(t, err, domain.ErrItemNotFound)

	rejected, err := ApplyItemUpdate(base, "a", domain.SetItemQuantity{Quantity: -2}, now)
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)
	assert.Equal(t, base, rejected)
}

func TestAddRemoveItem(t *testing.T) {
	now := time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC)
	base, err := Recompute(sampleInvoice())
	require.NoError(t, err)

	added, err := AddItem(base, domain.InvoiceItem{ID: "c", Quantity: 1, Rate: 1000}, now)
	require.NoError(t, err)
	require.Len(t, added.Items, 3)
	assert.Equal(t, domain.Money(26000), added.Subtotal)
	assert.Len(t, base.Items, 2)

	removed, err := RemoveItem(added, "a", now)
	require.NoError(t, err)
	require.Len(t, removed.Items, 2)
	assert.Equal(t, "b", removed.Items[0].ID)
	assert.Equal(t, domain.Money(6000), removed.Subtotal)
	assert.Equal(t, "a", added.Items[0].ID)

	single := domain.Invoice{Items: []domain.InvoiceItem{NewItem("only")}}
	_, err = RemoveItem(single, "only", now)
	assert.ErrorIs(t, err, domain.ErrLastItem)
}

func TestSetTaxRate(t *testing.T) {
	now := time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC)
	base, err := Recompute(sampleInvoice())
	require.NoError(t, err)

	out, err := SetTaxRate(base, 5, now)
	require.NoError(t, err)
	assert.Equal(t, domain.Money(1250), out.TaxAmount)
	assert.Equal(t, domain.Money(26250), out.Total)

	_, err = SetTaxRate(base, 101, now)
	assert.ErrorIs(t, err, domain.ErrInvalidTaxRate)
}
