package analytics

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/smallbiznis/invoicebuilder/internal/clock"
	"github.com/smallbiznis/invoicebuilder/internal/invoice/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var now = time.Date(2024, time.May, 15, 12, 0, 0, 0, time.UTC)

func date(y int, m time.Month, d int) domain.Date {
	return domain.Date{Year: y, Month: m, Day: d}
}

func TestSummarize_Revenue(t *testing.T) {
	invoices := []domain.Invoice{
		{ID: "1", Total: 10000, Status: domain.InvoiceStatusPaid, Currency: domain.CurrencyINR},
		{ID: "2", Total: 5000, Status: domain.InvoiceStatusSent, Currency: domain.CurrencyINR},
	}

	s := Summarize(invoices, now)
	assert.Equal(t, 2, s.Count)
	assert.Equal(t, domain.Money(15000), s.TotalRevenue)
	assert.Equal(t, domain.Money(10000), s.PaidRevenue)
	assert.Equal(t, domain.Money(5000), s.PendingRevenue)
	assert.Equal(t, StatusCount{Count: 1, Percent: 50}, s.StatusBreakdown.Paid)
	assert.Equal(t, StatusCount{Count: 1, Percent: 50}, s.StatusBreakdown.Sent)
	assert.Equal(t, StatusCount{Count: 0, Percent: 0}, s.StatusBreakdown.Draft)
}

func TestSummarize_Empty(t *testing.T) {
	s := Summarize(nil, now)
	assert.Zero(t, s.Count)
	assert.Zero(t, s.TotalRevenue)
	assert.Zero(t, s.PendingRevenue)
	assert.Equal(t, StatusBreakdown{}, s.StatusBreakdown)
	assert.Equal(t, domain.CurrencyINR, s.PrimaryCurrency)
	assert.Empty(t, s.Overdue)
	assert.Empty(t, s.Recent)
}

func TestSummarize_PercentRounding(t *testing.T) {
	invoices := []domain.Invoice{
		{Status: domain.InvoiceStatusPaid},
		{Status: domain.InvoiceStatusDraft},
		{Status: domain.InvoiceStatusDraft},
	}
	s := Summarize(invoices, now)
	assert.Equal(t, 33, s.StatusBreakdown.Paid.Percent)
	assert.Equal(t, 67, s.StatusBreakdown.Draft.Percent)
}

func TestSummarize_ThisMonth(t *testing.T) {
	invoices := []domain.Invoice{
		{Total: 100, Date: date(2024, time.May, 1)},
		{Total: 200, Date: date(2024, time.May, 31)},
		{Total: 400, Date: date(2024, time.April, 30)},
		{Total: 800, Date: date(2023, time.May, 10)},
	}
	assert.Equal(t, domain.Money(300), Summarize(invoices, now).ThisMonthRevenue)
}

func TestSummarize_Overdue(t *testing.T) {
	invoices := []domain.Invoice{
		{ID: "paid-late", Status: domain.InvoiceStatusPaid, DueDate: date(2024, time.April, 1)},
		{ID: "sent-late", Status: domain.InvoiceStatusSent, DueDate: date(2024, time.May, 14)},
		{ID: "draft-late", Status: domain.InvoiceStatusDraft, DueDate: date(2024, time.January, 1)},
		{ID: "due-today", Status: domain.InvoiceStatusSent, DueDate: date(2024, time.May, 15)},
		{ID: "future", Status: domain.InvoiceStatusSent, DueDate: date(2024, time.June, 1)},
	}

	s := Summarize(invoices, now)
	ids := make([]string, 0, len(s.Overdue))
	for _, inv := range s.Overdue {
		ids = append(ids, inv.ID)
	}
	assert.Equal(t, []string{"sent-late", "draft-late", "due-today"}, ids)
}

func TestSummarize_OverdueFromStartOfDueDay(t *testing.T) {
	inv := domain.Invoice{ID: "due", Status: domain.InvoiceStatusSent, DueDate: date(2026, time.October, 17)}

	midnight := time.Date(2026, time.October, 17, 0, 0, 0, 0, time.UTC)
	assert.Empty(t, Summarize([]domain.Invoice{inv}, midnight).Overdue)

	afternoon := time.Date(2026, time.October, 17, 15, 0, 0, 0, time.UTC)
	assert.Len(t, Summarize([]domain.Invoice{inv}, afternoon).Overdue, 1)
	assert.True(t, IsOverdue(inv, afternoon))

	inv.Status = domain.InvoiceStatusPaid
	assert.False(t, IsOverdue(inv, afternoon))
	inv.Status = domain.InvoiceStatusSent

	dayBefore := time.Date(2026, time.October, 16, 23, 59, 0, 0, time.UTC)
	assert.Empty(t, Summarize([]domain.Invoice{inv}, dayBefore).Overdue)
}

func TestPrimaryCurrency(t *testing.T) {
	cases := []struct {
		name       string
		currencies []domain.Currency
		want       domain.Currency
	}{
		{"empty", nil, domain.CurrencyINR},
		{"single", []domain.Currency{domain.CurrencyGBP}, domain.CurrencyGBP},
		{"majority", []domain.Currency{domain.CurrencyUSD, domain.CurrencyINR, domain.CurrencyUSD}, domain.CurrencyUSD},
		{"tie picks smallest code", []domain.Currency{domain.CurrencyUSD, domain.CurrencyEUR}, domain.CurrencyEUR},
		{"tie order independent", []domain.Currency{domain.CurrencyEUR, domain.CurrencyUSD, domain.CurrencyUSD, domain.CurrencyEUR}, domain.CurrencyEUR},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			invoices := make([]domain.Invoice, 0, len(tc.currencies))
			for _, c := range tc.currencies {
				invoices = append(invoices, domain.Invoice{Currency: c})
			}
			for i := 0; i < 20; i++ {
				assert.Equal(t, tc.want, PrimaryCurrency(invoices))
			}
		})
	}
}

func TestRecent(t *testing.T) {
	base := time.Date(2024, time.May, 1, 0, 0, 0, 0, time.UTC)
	invoices := []domain.Invoice{
		{ID: "a", CreatedAt: base},
		{ID: "b", CreatedAt: base.Add(3 * time.Hour)},
		{ID: "c", CreatedAt: base.Add(time.Hour)},
		{ID: "d", CreatedAt: base.Add(3 * time.Hour)},
		{ID: "e", CreatedAt: base.Add(2 * time.Hour)},
		{ID: "f", CreatedAt: base.Add(-time.Hour)},
	}

	recent := Recent(invoices, RecentLimit)
	ids := make([]string, 0, len(recent))
	for _, inv := range recent {
		ids = append(ids, inv.ID)
	}
	assert.Equal(t, []string{"b", "d", "e", "c", "a"}, ids)
	assert.Equal(t, "a", invoices[0].ID)
}

func TestSummarize_DoesNotMutateInput(t *testing.T) {
	invoices := []domain.Invoice{
		{ID: "x", CreatedAt: now.Add(-time.Hour), Items: []domain.InvoiceItem{{ID: "i"}}},
		{ID: "y", CreatedAt: now},
	}
	s := Summarize(invoices, now)
	s.Recent[1].Items[0].Description = "changed"

	assert.Equal(t, "x", invoices[0].ID)
	assert.Empty(t, invoices[0].Items[0].Description)
}

func TestFilter(t *testing.T) {
	invoices := []domain.Invoice{
		{InvoiceNumber: "INV-202405-001", ToName: "Globex", FromName: "Acme", Status: domain.InvoiceStatusPaid},
		{InvoiceNumber: "INV-202405-002", ToName: "Initech", FromName: "Acme", Status: domain.InvoiceStatusDraft},
		{InvoiceNumber: "INV-202405-003", ToName: "Umbrella", FromName: "Hooli", Status: domain.InvoiceStatusSent},
	}

	assert.Len(t, Filter(invoices, Query{}), 3)
	assert.Len(t, Filter(invoices, Query{Status: StatusAll}), 3)
	assert.Len(t, Filter(invoices, Query{Search: "acme"}), 2)
	assert.Len(t, Filter(invoices, Query{Search: "GLOBEX"}), 1)
	assert.Len(t, Filter(invoices, Query{Search: "-003"}), 1)
	assert.Len(t, Filter(invoices, Query{Search: "acme", Status: "draft"}), 1)
	assert.Empty(t, Filter(invoices, Query{Status: "paid", Search: "hooli"}))
}

type repoStub struct {
	domain.Repository
	invoices []domain.Invoice
	err      error
}

func (r *repoStub) List(context.Context) ([]domain.Invoice, error) {
	return r.invoices, r.err
}

func TestService_Summary(t *testing.T) {
	repo := &repoStub{invoices: []domain.Invoice{
		{Total: 100, Status: domain.InvoiceStatusPaid, Date: date(2024, time.May, 2)},
		{Total: 50, Status: domain.InvoiceStatusSent, Date: date(2024, time.May, 3)},
	}}
	svc := NewService(Params{Repo: repo, Log: zap.NewNop(), Clock: clock.NewFakeClock(now)})

	s, err := svc.Summary(context.Background(), Query{Status: "paid"})
	require.NoError(t, err)
	assert.Equal(t, 1, s.Count)
	assert.Equal(t, domain.Money(100), s.ThisMonthRevenue)

	repo.err = errors.New("boom")
	_, err = svc.Summary(context.Background(), Query{})
	assert.Error(t, err)
}
