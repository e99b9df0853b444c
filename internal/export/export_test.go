package export

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/smallbiznis/invoicebuilder/internal/analytics"
	"github.com/smallbiznis/invoicebuilder/internal/clock"
	"github.com/smallbiznis/invoicebuilder/internal/invoice/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

var now = time.Date(2024, time.May, 20, 12, 0, 0, 0, time.UTC)

func invoices() []domain.Invoice {
	return []domain.Invoice{
		{
			ID: "2", InvoiceNumber: "INV-202405-002",
			Date:    domain.Date{Year: 2024, Month: time.May, Day: 2},
			DueDate: domain.Date{Year: 2024, Month: time.May, Day: 10},
			ToName:  "Globex", Currency: domain.CurrencyUSD, Status: domain.InvoiceStatusSent,
			Subtotal: 27500, TaxRate: 18, TaxAmount: 4950, Total: 32450,
			IsRecurring: true, RecurringFrequency: domain.RecurringMonthly,
			CreatedAt: now.Add(-time.Hour),
		},
		{
			ID: "1", InvoiceNumber: "INV-202405-001",
			Date:    domain.Date{Year: 2024, Month: time.May, Day: 1},
			DueDate: domain.Date{Year: 2024, Month: time.May, Day: 31},
			ToName:  "Initech", Currency: domain.CurrencyUSD, Status: domain.InvoiceStatusPaid,
			Subtotal: 10000, Total: 10000,
			CreatedAt: now.Add(-2 * time.Hour),
		},
	}
}

func open(t *testing.T, data []byte) *excelize.File {
	t.Helper()
	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })
	return f
}

func TestWrite_Sheets(t *testing.T) {
	invs := invoices()
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, invs, analytics.Summarize(invs, now), now))

	f := open(t, buf.Bytes())
	assert.Equal(t, []string{SheetInvoices, SheetSummary}, f.GetSheetList())

	rows, err := f.GetRows(SheetInvoices, excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Invoice Number", rows[0][0])
	assert.Equal(t, "Created At", rows[0][13])
	assert.Equal(t, "INV-202405-002", rows[1][0])
	assert.Equal(t, "2024-05-10", rows[1][2])
	assert.Equal(t, "sent", rows[1][3])
	assert.Equal(t, "324.5", rows[1][11])
	assert.Equal(t, "monthly", rows[1][12])
	assert.Equal(t, "INV-202405-001", rows[2][0])

	summary, err := f.GetRows(SheetSummary, excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	values := map[string]string{}
	for _, r := range summary[1:] {
		if len(r) >= 2 {
			values[r[0]] = r[1]
		}
	}
	assert.Equal(t, "2", values["Invoices"])
	assert.Equal(t, "424.5", values["Total Revenue"])
	assert.Equal(t, "100", values["Paid Revenue"])
	assert.Equal(t, "1", values["Overdue"])
	assert.Equal(t, "USD", values["Primary Currency"])
}

func TestBuild_OverdueStyle(t *testing.T) {
	invs := invoices()
	f, err := Build(invs, analytics.Summarize(invs, now), now)
	require.NoError(t, err)
	defer f.Close()

	overdueStyle, err := f.GetCellStyle(SheetInvoices, "D2")
	require.NoError(t, err)
	paidStyle, err := f.GetCellStyle(SheetInvoices, "D3")
	require.NoError(t, err)
	assert.NotEqual(t, overdueStyle, paidStyle)
}

func TestWrite_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, nil, analytics.Summarize(nil, now), now))

	f := open(t, buf.Bytes())
	rows, err := f.GetRows(SheetInvoices)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

type listRepo struct {
	domain.Repository
	items []domain.Invoice
}

func (r listRepo) List(context.Context) ([]domain.Invoice, error) { return r.items, nil }

func TestService_Workbook(t *testing.T) {
	svc := NewService(Params{
		Repo:  listRepo{items: invoices()},
		Log:   zap.NewNop(),
		Clock: clock.NewFakeClock(now),
	})

	data, err := svc.Workbook(context.Background(), analytics.Query{Status: "paid"})
	require.NoError(t, err)

	f := open(t, data)
	rows, err := f.GetRows(SheetInvoices)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "INV-202405-001", rows[1][0])
}
