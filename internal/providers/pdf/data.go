package pdf

import (
	"encoding/base64"
	"strings"

	"github.com/johnfercher/maroto/v2/pkg/consts/extension"
	"github.com/smallbiznis/invoicebuilder/internal/invoice/domain"
	"github.com/smallbiznis/invoicebuilder/internal/invoice/format"
	"github.com/smallbiznis/invoicebuilder/internal/invoice/render"
)

// Options carries the presentation settings shared with the HTML renderer.
type Options struct {
	Brand      string
	FooterNote string
}

// FromInvoice maps a computed invoice to the PDF view model. Totals are taken
// as stored.
func FromInvoice(inv domain.Invoice, f *format.Formatter, opts Options) InvoiceData {
	if f == nil {
		f = format.NewFormatter(nil, nil)
	}
	theme, _ := render.ThemeFor(inv.Template)

	data := InvoiceData{
		Brand:               opts.Brand,
		Footer:              opts.FooterNote,
		Accent:              render.Accent(theme),
		InvoiceNumber:       inv.InvoiceNumber,
		Status:              strings.ToUpper(string(inv.Status)),
		IssueDate:           dateOrDash(inv.Date),
		DueDate:             dateOrDash(inv.DueDate),
		From:                Party(inv.From()),
		BillTo:              Party(inv.To()),
		Subtotal:            f.Format(inv.Subtotal, inv.Currency),
		TaxLabel:            render.TaxLabel(inv.TaxRate),
		TaxAmount:           f.Format(inv.TaxAmount, inv.Currency),
		Total:               f.Format(inv.Total, inv.Currency),
		Notes:               inv.Notes,
		Terms:               inv.Terms,
		PaymentInstructions: inv.PaymentInstructions,
		PaymentLink:         inv.PaymentLink,
	}
	if inv.IsRecurring && inv.RecurringFrequency != "" {
		data.Recurring = string(inv.RecurringFrequency)
	}
	data.Logo, data.LogoExt = decodeLogo(inv.CompanyLogo)

	data.Items = make([]InvoiceItem, 0, len(inv.Items))
	for _, item := range inv.Items {
		data.Items = append(data.Items, InvoiceItem{
			Description: item.Description,
			Qty:         render.FormatQuantity(item.Quantity),
			UnitPrice:   f.Format(item.Rate, inv.Currency),
			Amount:      f.Format(item.Amount, inv.Currency),
		})
	}
	return data
}

// FromPaidInvoice is FromInvoice plus the payment date, taken from the last
// update of a paid invoice.
func FromPaidInvoice(inv domain.Invoice, f *format.Formatter, opts Options) ReceiptData {
	r := ReceiptData{InvoiceData: FromInvoice(inv, f, opts)}
	if !inv.UpdatedAt.IsZero() {
		r.DatePaid = domain.DateOf(inv.UpdatedAt.UTC()).String()
	}
	return r
}

// decodeLogo accepts png and jpeg data URIs, the formats the PDF backend can
// embed. Anything else is dropped.
func decodeLogo(uri string) ([]byte, extension.Type) {
	uri = strings.TrimSpace(uri)
	var ext extension.Type
	var payload string
	switch {
	case strings.HasPrefix(uri, "data:image/png;base64,"):
		ext, payload = extension.Png, strings.TrimPrefix(uri, "data:image/png;base64,")
	case strings.HasPrefix(uri, "data:image/jpeg;base64,"):
		ext, payload = extension.Jpeg, strings.TrimPrefix(uri, "data:image/jpeg;base64,")
	case strings.HasPrefix(uri, "data:image/jpg;base64,"):
		ext, payload = extension.Jpg, strings.TrimPrefix(uri, "data:image/jpg;base64,")
	default:
		return nil, ""
	}
	raw, err := base64.StdEncoding.DecodeString(strings.Map(func(r rune) rune {
		if r == '\n' || r == '\r' {
			return -1
		}
		return r
	}, payload))
	if err != nil || len(raw) == 0 {
		return nil, ""
	}
	return raw, ext
}

func dateOrDash(d domain.Date) string {
	if d.IsZero() {
		return "-"
	}
	return d.String()
}
