// Package export writes invoices and their summary to an xlsx workbook.
package export

import (
	"fmt"
	"io"
	"time"

	"github.com/smallbiznis/invoicebuilder/internal/analytics"
	"github.com/smallbiznis/invoicebuilder/internal/invoice/domain"
	"github.com/xuri/excelize/v2"
)

const (
	SheetInvoices = "Invoices"
	SheetSummary  = "Summary"

	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	Filename    = "invoices.xlsx"

	// numFmtAmount is the built-in "#,##0.00" format.
	numFmtAmount = 4
	overdueColor = "9A0511"
)

var invoiceHeaders = []any{
	"Invoice Number", "Date", "Due Date", "Status", "From", "Client", "Client Email",
	"Currency", "Subtotal", "Tax Rate", "Tax", "Total", "Recurring", "Created At",
}

// Build lays out the workbook. Amounts are written in major units. Rows whose
// invoice is overdue as of now get a red status cell.
func Build(invoices []domain.Invoice, summary analytics.Summary, now time.Time) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", SheetInvoices); err != nil {
		f.Close()
		return nil, err
	}
	if _, err := f.NewSheet(SheetSummary); err != nil {
		f.Close()
		return nil, err
	}
	if err := writeInvoices(f, invoices, now); err != nil {
		f.Close()
		return nil, fmt.Errorf("write invoices sheet: %w", err)
	}
	if err := writeSummary(f, summary); err != nil {
		f.Close()
		return nil, fmt.Errorf("write summary sheet: %w", err)
	}
	return f, nil
}

// Write builds the workbook and streams it to w.
func Write(w io.Writer, invoices []domain.Invoice, summary analytics.Summary, now time.Time) error {
	f, err := Build(invoices, summary, now)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Write(w)
}

func writeInvoices(f *excelize.File, invoices []domain.Invoice, now time.Time) error {
	header, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	amount, err := f.NewStyle(&excelize.Style{NumFmt: numFmtAmount})
	if err != nil {
		return err
	}
	overdue, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Color: overdueColor, Bold: true}})
	if err != nil {
		return err
	}

	if err := f.SetSheetRow(SheetInvoices, "A1", &invoiceHeaders); err != nil {
		return err
	}
	if err := f.SetRowStyle(SheetInvoices, 1, 1, header); err != nil {
		return err
	}

	for i, inv := range invoices {
		row := i + 2
		recurring := ""
		if inv.IsRecurring {
			recurring = string(inv.RecurringFrequency)
		}
		values := []any{
			inv.InvoiceNumber,
			inv.Date.String(),
			inv.DueDate.String(),
			string(inv.Status),
			inv.FromName,
			inv.ToName,
			inv.ToEmail,
			string(inv.Currency),
			inv.Subtotal.Major(),
			inv.TaxRate,
			inv.TaxAmount.Major(),
			inv.Total.Major(),
			recurring,
			inv.CreatedAt.UTC().Format(time.RFC3339),
		}
		first, _ := excelize.CoordinatesToCellName(1, row)
		if err := f.SetSheetRow(SheetInvoices, first, &values); err != nil {
			return err
		}
		if err := f.SetCellStyle(SheetInvoices, fmt.Sprintf("I%d", row), fmt.Sprintf("I%d", row), amount); err != nil {
			return err
		}
		if err := f.SetCellStyle(SheetInvoices, fmt.Sprintf("K%d", row), fmt.Sprintf("L%d", row), amount); err != nil {
			return err
		}
		if analytics.IsOverdue(inv, now) {
			if err := f.SetCellStyle(SheetInvoices, fmt.Sprintf("D%d", row), fmt.Sprintf("D%d", row), overdue); err != nil {
				return err
			}
		}
	}
	return f.SetColWidth(SheetInvoices, "A", "N", 16)
}

func writeSummary(f *excelize.File, s analytics.Summary) error {
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	amount, err := f.NewStyle(&excelize.Style{NumFmt: numFmtAmount})
	if err != nil {
		return err
	}

	rows := [][]any{
		{"Metric", "Value", "Percent"},
		{"Invoices", s.Count},
		{"Total Revenue", s.TotalRevenue.Major()},
		{"Paid Revenue", s.PaidRevenue.Major()},
		{"Pending Revenue", s.PendingRevenue.Major()},
		{"This Month Revenue", s.ThisMonthRevenue.Major()},
		{"Overdue", len(s.Overdue)},
		{"Paid", s.StatusBreakdown.Paid.Count, s.StatusBreakdown.Paid.Percent},
		{"Sent", s.StatusBreakdown.Sent.Count, s.StatusBreakdown.Sent.Percent},
		{"Draft", s.StatusBreakdown.Draft.Count, s.StatusBreakdown.Draft.Percent},
		{"Primary Currency", string(s.PrimaryCurrency)},
	}
	for i, r := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(SheetSummary, cell, &r); err != nil {
			return err
		}
	}
	if err := f.SetRowStyle(SheetSummary, 1, 1, bold); err != nil {
		return err
	}
	if err := f.SetCellStyle(SheetSummary, "B3", "B6", amount); err != nil {
		return err
	}
	return f.SetColWidth(SheetSummary, "A", "A", 22)
}
