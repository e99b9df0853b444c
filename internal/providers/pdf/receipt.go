package pdf

import (
	"context"
	"fmt"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"go.uber.org/zap"
)

// ReceiptData is a paid invoice.
type ReceiptData struct {
	InvoiceData
	DatePaid string
}

func (p *PDFProvider) GenerateReceipt(ctx context.Context, data ReceiptData) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m := maroto.New(pageConfig("Receipt " + data.InvoiceNumber))
	accent := parseHexColor(data.Accent)

	m.AddRows(header(data.InvoiceData, "RECEIPT", accent)...)
	m.AddRows(meta(data.InvoiceData)...)
	m.AddRows(paidBanner(data, accent)...)
	m.AddRows(parties(data.InvoiceData)...)
	m.AddRows(itemRows(data.InvoiceData, accent)...)
	m.AddRows(totals(data.InvoiceData, accent)...)
	m.AddRows(footer(data.InvoiceData)...)

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("generate receipt pdf: %w", err)
	}
	p.log.Debug("receipt pdf generated", zap.String("invoice_number", data.InvoiceNumber))
	return doc.GetBytes(), nil
}

func paidBanner(data ReceiptData, accent *props.Color) []core.Row {
	label := "Paid " + data.Total
	if data.DatePaid != "" {
		label += " on " + data.DatePaid
	}
	return []core.Row{
		newRow(12, text.NewCol(12, label, props.Text{
			Size:  14,
			Style: fontstyle.Bold,
			Align: align.Left,
			Color: accent,
			Top:   3,
		})),
	}
}
