package pdf

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/image"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/extension"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/core/entity"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"go.uber.org/zap"
)

type Party struct {
	Name    string
	Email   string
	Phone   string
	Address string
}

type InvoiceData struct {
	Brand         string
	Accent        string
	Logo          []byte
	LogoExt       extension.Type
	InvoiceNumber string
	Status        string
	IssueDate     string
	DueDate       string
	Recurring     string

	From   Party
	BillTo Party

	Items []InvoiceItem

	Subtotal  string
	TaxLabel  string
	TaxAmount string
	Total     string

	Notes               string
	Terms               string
	PaymentInstructions string
	PaymentLink         string
	Footer              string
}

type InvoiceItem struct {
	Description string
	Qty         string
	UnitPrice   string
	Amount      string
}

type PDFProvider struct {
	log *zap.Logger
}

func New(log *zap.Logger) Provider {
	if log == nil {
		log = zap.NewNop()
	}
	return &PDFProvider{log: log.Named("providers.pdf")}
}

func (p *PDFProvider) GenerateInvoice(ctx context.Context, data InvoiceData) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m := maroto.New(pageConfig("Invoice " + data.InvoiceNumber))
	accent := parseHexColor(data.Accent)

	m.AddRows(header(data, "INVOICE", accent)...)
	m.AddRows(meta(data)...)
	m.AddRows(parties(data)...)
	m.AddRows(itemRows(data, accent)...)
	m.AddRows(totals(data, accent)...)
	m.AddRows(sections(data)...)
	m.AddRows(footer(data)...)

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("generate invoice pdf: %w", err)
	}
	p.log.Debug("invoice pdf generated", zap.String("invoice_number", data.InvoiceNumber))
	return doc.GetBytes(), nil
}

func pageConfig(title string) *entity.Config {
	return config.NewBuilder().
		WithTitle(title, true).
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.RightBottom,
		}).
		Build()
}

func header(data InvoiceData, title string, accent *props.Color) []core.Row {
	titleCol := text.NewCol(8, title, props.Text{
		Size:  20,
		Style: fontstyle.Bold,
		Align: align.Left,
		Color: accent,
	})
	if len(data.Logo) > 0 {
		return []core.Row{
			newRow(25, image.NewFromBytesCol(4, data.Logo, data.LogoExt, props.Rect{Percent: 80}), col.New(8)),
			newRow(12, titleCol, text.NewCol(4, "#"+data.InvoiceNumber, props.Text{Size: 12, Align: align.Right, Top: 3})),
		}
	}
	return []core.Row{
		newRow(12, titleCol, text.NewCol(4, "#"+data.InvoiceNumber, props.Text{Size: 12, Align: align.Right, Top: 3})),
	}
}

func meta(data InvoiceData) []core.Row {
	lines := []string{
		"Date: " + data.IssueDate,
		"Due Date: " + data.DueDate,
		"Status: " + data.Status,
	}
	if data.Recurring != "" {
		lines = append(lines, "Recurring: "+data.Recurring)
	}
	c := col.New(6)
	for i, l := range lines {
		c.Add(text.New(l, props.Text{Size: 9, Top: float64(i * 4)}))
	}
	return []core.Row{newRow(float64(len(lines)*4+4), c, col.New(6))}
}

func parties(data InvoiceData) []core.Row {
	return []core.Row{
		newRow(30, partyCol("From", data.From), partyCol("Bill To", data.BillTo)),
	}
}

func partyCol(label string, p Party) core.Col {
	c := col.New(6)
	c.Add(text.New(label, props.Text{Style: fontstyle.Bold, Size: 10}))
	top := 5.0
	for _, v := range []string{p.Name, p.Email, p.Phone, p.Address} {
		if strings.TrimSpace(v) == "" {
			continue
		}
		c.Add(text.New(v, props.Text{Size: 9, Top: top}))
		top += 4
	}
	return c
}

func itemRows(data InvoiceData, accent *props.Color) []core.Row {
	head := props.Text{Style: fontstyle.Bold, Size: 9, Color: accent}
	headRight := head
	headRight.Align = align.Right

	rows := []core.Row{
		newRow(8,
			text.NewCol(6, "Description", head),
			text.NewCol(2, "Qty", headRight),
			text.NewCol(2, "Rate", headRight),
			text.NewCol(2, "Amount", headRight),
		),
		newRow(2, line.NewCol(12, props.Line{Color: accent})),
	}
	for _, item := range data.Items {
		rows = append(rows, newRow(8,
			text.NewCol(6, item.Description, props.Text{Size: 9}),
			text.NewCol(2, item.Qty, props.Text{Size: 9, Align: align.Right}),
			text.NewCol(2, item.UnitPrice, props.Text{Size: 9, Align: align.Right}),
			text.NewCol(2, item.Amount, props.Text{Size: 9, Align: align.Right}),
		))
	}
	return rows
}

func totals(data InvoiceData, accent *props.Color) []core.Row {
	return []core.Row{
		newRow(2, col.New(8), line.NewCol(4)),
		newRow(7,
			col.New(8),
			text.NewCol(2, "Subtotal", props.Text{Size: 9}),
			text.NewCol(2, data.Subtotal, props.Text{Size: 9, Align: align.Right}),
		),
		newRow(7,
			col.New(8),
			text.NewCol(2, data.TaxLabel, props.Text{Size: 9}),
			text.NewCol(2, data.TaxAmount, props.Text{Size: 9, Align: align.Right}),
		),
		newRow(9,
			col.New(8),
			text.NewCol(2, "Total", props.Text{Style: fontstyle.Bold, Size: 10, Color: accent}),
			text.NewCol(2, data.Total, props.Text{Style: fontstyle.Bold, Size: 10, Align: align.Right, Color: accent}),
		),
	}
}

func sections(data InvoiceData) []core.Row {
	var rows []core.Row
	add := func(title, body string) {
		if strings.TrimSpace(body) == "" {
			return
		}
		rows = append(rows,
			newRow(8, text.NewCol(12, title, props.Text{Style: fontstyle.Bold, Size: 10, Top: 3})),
			newRow(textHeight(body), text.NewCol(12, body, props.Text{Size: 9})),
		)
	}
	add("Notes", data.Notes)
	add("Terms & Conditions", data.Terms)
	add("Payment Instructions", data.PaymentInstructions)
	if link := strings.TrimSpace(data.PaymentLink); link != "" {
		rows = append(rows, newRow(8, text.NewCol(12, "Pay online: "+link, props.Text{Size: 9, Top: 3, Hyperlink: &link})))
	}
	return rows
}

func footer(data InvoiceData) []core.Row {
	rows := []core.Row{newRow(10, col.New(12))}
	if data.Footer != "" {
		rows = append(rows, newRow(6, text.NewCol(12, data.Footer, props.Text{Size: 9, Align: align.Center})))
	}
	if data.Brand != "" {
		rows = append(rows, newRow(6, text.NewCol(12, data.Brand, props.Text{Size: 8, Align: align.Center, Style: fontstyle.Italic})))
	}
	return rows
}

func newRow(height float64, cols ...core.Col) core.Row {
	return row.New(height).Add(cols...)
}

// textHeight estimates the row height for a wrapped block of text.
func textHeight(body string) float64 {
	lines := 0
	for _, l := range strings.Split(body, "\n") {
		lines += 1 + len(l)/110
	}
	return float64(lines*4 + 2)
}

// parseHexColor accepts "#RRGGBB". Anything else yields nil (black).
func parseHexColor(hex string) *props.Color {
	hex = strings.TrimPrefix(strings.TrimSpace(hex), "#")
	if len(hex) != 6 {
		return nil
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return nil
	}
	return &props.Color{
		Red:   int(v >> 16 & 0xff),
		Green: int(v >> 8 & 0xff),
		Blue:  int(v & 0xff),
	}
}
