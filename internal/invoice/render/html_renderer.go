package render

import (
	"bytes"
	"fmt"
	"html/template"
	"regexp"
	"strconv"
	"strings"

	"github.com/gosimple/slug"
	"github.com/smallbiznis/invoicebuilder/internal/invoice/domain"
	"github.com/smallbiznis/invoicebuilder/internal/invoice/format"
	"go.uber.org/zap"
)

const invoiceHTMLTemplate = `<!DOCTYPE html>
<html lang="{{.Lang}}">
<head>
  <meta charset="utf-8" />
  <title>Invoice {{.Invoice.Number}}</title>
  <style>
    * { margin: 0; padding: 0; box-sizing: border-box; }
    body {
      font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif;
      line-height: 1.6;
      color: #1F2937;
      max-width: 800px;
      margin: 0 auto;
      padding: 40px 20px;
      background: #ffffff;
    }
    .header {
      display: flex;
      justify-content: space-between;
      align-items: flex-start;
      margin-bottom: 40px;
      border-bottom: {{.Theme.HeaderBorder}};
      padding-bottom: 20px;
    }
    .logo-section h1 {
      font-size: {{.Theme.HeadingSize}};
      color: {{.Theme.Accent}};
      font-weight: {{.Theme.HeadingWeight}};
      font-family: {{.Theme.HeadingFont}};
      letter-spacing: {{.Theme.HeadingLetterSpacing}};
    }
    .company-logo { max-width: 120px; max-height: 60px; margin-bottom: 12px; }
    .subtitle { color: #6B7280; font-size: 14px; }
    .invoice-details { text-align: right; }
    .invoice-details h2 { font-size: 24px; color: #1F2937; margin-bottom: 8px; }
    .invoice-meta p { margin-bottom: 4px; font-size: 14px; }
    .status { color: #059669; font-weight: 600; }
    .addresses { display: flex; justify-content: space-between; margin-bottom: 40px; }
    .address-block { width: 48%; }
    .address-block h3 {
      font-size: 16px;
      font-weight: 600;
      margin-bottom: 12px;
      padding: 8px 0;
      border-bottom: 2px solid #E5E7EB;
    }
    .address-content p { margin-bottom: 4px; font-size: 14px; line-height: 1.5; white-space: pre-line; }
    .items-table { width: 100%; border-collapse: collapse; margin-bottom: 30px; }
    .items-table th {
      background: {{.Theme.TableHeaderBackground}};
      color: {{.Theme.TableHeaderColor}};
      border-bottom: {{.Theme.TableHeaderBorder}};
      font-weight: 600;
      padding: 16px 12px;
      text-align: left;
      font-size: 14px;
    }
    .items-table td { padding: 16px 12px; border-bottom: 1px solid #E5E7EB; font-size: 14px; }
    .items-table tr:last-child td { border-bottom: none; }
    .items-table tr:nth-child(even) { background: #F9FAFB; }
    .items-table .text-right { text-align: right; }
    .totals {
      margin-left: auto;
      width: 300px;
      background: #F9FAFB;
      border-radius: 8px;
      padding: 20px;
      border: 1px solid #E5E7EB;
    }
    .total-row { display: flex; justify-content: space-between; margin-bottom: 12px; font-size: 14px; }
    .total-row.subtotal, .total-row.tax { color: #6B7280; }
    .total-row.final {
      font-size: 18px;
      font-weight: 700;
      border-top: 2px solid {{.Theme.Accent}};
      padding-top: 12px;
      margin-top: 16px;
      margin-bottom: 0;
    }
    .section {
      margin-top: 40px;
      padding: 20px;
      background: #F9FAFB;
      border-radius: 8px;
      border-left: 4px solid {{.Theme.Accent}};
    }
    .section h4 { font-size: 16px; font-weight: 600; margin-bottom: 8px; }
    .section p { font-size: 14px; color: #6B7280; white-space: pre-line; }
    .payment-section { margin-top: 30px; text-align: center; }
    .payment-button {
      display: inline-block;
      padding: 12px 24px;
      background: {{.Theme.Accent}};
      color: #ffffff;
      text-decoration: none;
      border-radius: 8px;
      font-weight: 600;
    }
    .footer {
      margin-top: 60px;
      text-align: center;
      font-size: 12px;
      color: #9CA3AF;
      border-top: 1px solid #E5E7EB;
      padding-top: 20px;
    }
    @media print {
      body { padding: 20px; }
      .header, .items-table { break-inside: avoid; }
    }
  </style>
</head>
<body class="template-{{.Theme.Name}}">
  <div class="header">
    <div class="logo-section">
      {{if .Invoice.Logo}}<img src="{{.Invoice.Logo}}" alt="Company Logo" class="company-logo" />{{end}}
      <h1>INVOICE</h1>
      <p class="subtitle">Professional Invoice</p>
    </div>
    <div class="invoice-details">
      <h2>#{{.Invoice.Number}}</h2>
      <div class="invoice-meta">
        <p><strong>Date:</strong> {{.Invoice.Date}}</p>
        <p><strong>Due Date:</strong> {{.Invoice.DueDate}}</p>
        <p><strong>Status:</strong> <span class="status">{{.Invoice.Status}}</span></p>
        {{if .Invoice.Recurring}}<p><strong>Recurring:</strong> {{.Invoice.Recurring}}</p>{{end}}
      </div>
    </div>
  </div>

  <div class="addresses">
    <div class="address-block">
      <h3>From</h3>
      <div class="address-content">
        <p><strong>{{.From.Name}}</strong></p>
        <p>{{.From.Email}}</p>
        <p>{{.From.Phone}}</p>
        <p>{{.From.Address}}</p>
      </div>
    </div>
    <div class="address-block">
      <h3>Bill To</h3>
      <div class="address-content">
        <p><strong>{{.To.Name}}</strong></p>
        <p>{{.To.Email}}</p>
        <p>{{.To.Phone}}</p>
        <p>{{.To.Address}}</p>
      </div>
    </div>
  </div>

  <table class="items-table">
    <thead>
      <tr>
        <th>Description</th>
        <th class="text-right">Qty</th>
        <th class="text-right">Rate</th>
        <th class="text-right">Amount</th>
      </tr>
    </thead>
    <tbody>
      {{range .Items}}
      <tr>
        <td>{{.Description}}</td>
        <td class="text-right">{{.Quantity}}</td>
        <td class="text-right">{{.Rate}}</td>
        <td class="text-right">{{.Amount}}</td>
      </tr>
      {{end}}
    </tbody>
  </table>

  <div class="totals">
    <div class="total-row subtotal">
      <span>Subtotal:</span>
      <span>{{.Invoice.Subtotal}}</span>
    </div>
    <div class="total-row tax">
      <span>{{.Invoice.TaxLabel}}:</span>
      <span>{{.Invoice.TaxAmount}}</span>
    </div>
    <div class="total-row final">
      <span>Total:</span>
      <span>{{.Invoice.Total}}</span>
    </div>
  </div>

  {{if .Invoice.Notes}}
  <div class="section notes">
    <h4>Notes</h4>
    <p>{{.Invoice.Notes}}</p>
  </div>
  {{end}}

  {{if .Invoice.Terms}}
  <div class="section terms">
    <h4>Terms &amp; Conditions</h4>
    <p>{{.Invoice.Terms}}</p>
  </div>
  {{end}}

  {{if .Invoice.PaymentInstructions}}
  <div class="section payment-instructions">
    <h4>Payment Instructions</h4>
    <p>{{.Invoice.PaymentInstructions}}</p>
  </div>
  {{end}}

  {{if .Invoice.PaymentLink}}
  <div class="payment-section">
    <a class="payment-button" href="{{.Invoice.PaymentLink}}">Pay {{.Invoice.Total}}</a>
  </div>
  {{end}}

  <div class="footer">
    <p>{{.Footer}}</p>
    <p>Generated on {{.Invoice.GeneratedOn}} &bull; {{.Brand}}</p>
  </div>
</body>
</html>
`

var (
	logoDataURIPattern = regexp.MustCompile(`^data:image/(png|jpeg|jpg|gif|webp|svg\+xml);base64,[A-Za-z0-9+/=\r\n]+$`)
)

const (
	DefaultBrand      = "Invoice Builder Pro"
	DefaultFooterNote = "Thank you for your business!"
)

// Options carries presentation settings shared by every template.
type Options struct {
	Brand      string
	FooterNote string
}

type HTMLRenderer struct {
	tpl       *template.Template
	opts      Options
	formatter *format.Formatter
	log       *zap.Logger
	recorder  Recorder
}

func NewRenderer(opts Options, formatter *format.Formatter, log *zap.Logger, recorder Recorder) *HTMLRenderer {
	if log == nil {
		log = zap.NewNop()
	}
	if formatter == nil {
		formatter = format.NewFormatter(log, nil)
	}
	if strings.TrimSpace(opts.Brand) == "" {
		opts.Brand = DefaultBrand
	}
	if strings.TrimSpace(opts.FooterNote) == "" {
		opts.FooterNote = DefaultFooterNote
	}
	return &HTMLRenderer{
		tpl:       template.Must(template.New("invoice").Parse(invoiceHTMLTemplate)),
		opts:      opts,
		formatter: formatter,
		log:       log.Named("invoice.render"),
		recorder:  recorder,
	}
}

// Render builds the document for inv using the given template selector.
func (r *HTMLRenderer) Render(inv domain.Invoice, tmpl domain.Template) (Document, error) {
	if err := domain.ValidateComputed(inv); err != nil {
		return Document{}, err
	}

	theme, ok := ThemeFor(tmpl)
	if !ok {
		r.log.Warn("unknown template, falling back",
			zap.String("template", string(tmpl)),
			zap.String("fallback", string(theme.Template())),
			zap.String("invoice_number", inv.InvoiceNumber),
		)
		if r.recorder != nil {
			r.recorder.ObserveFallback("template", string(tmpl))
		}
	}

	input := r.buildInput(inv, theme)

	var buf bytes.Buffer
	if err := r.tpl.Execute(&buf, input); err != nil {
		return Document{}, fmt.Errorf("render invoice %s: %w", inv.InvoiceNumber, err)
	}

	if r.recorder != nil {
		r.recorder.ObserveRender(string(theme.Template()))
	}

	return Document{
		InvoiceNumber: inv.InvoiceNumber,
		Template:      theme.Template(),
		ContentType:   ContentTypeHTML,
		Filename:      DocumentFilename(inv.InvoiceNumber, "html"),
		HTML:          buf.String(),
	}, nil
}

func (r *HTMLRenderer) buildInput(inv domain.Invoice, theme Theme) RenderInput {
	entry := r.formatter.Entry(inv.Currency)
	money := func(m domain.Money) string {
		return r.formatter.Format(m, entry.Code)
	}

	items := make([]LineItemView, 0, len(inv.Items))
	for _, item := range inv.Items {
		items = append(items, LineItemView{
			Description: item.Description,
			Quantity:    FormatQuantity(item.Quantity),
			Rate:        money(item.Rate),
			Amount:      money(item.Amount),
		})
	}

	recurring := ""
	if inv.IsRecurring && inv.RecurringFrequency != "" {
		recurring = string(inv.RecurringFrequency)
	}

	return RenderInput{
		Lang:   entry.Locale.String(),
		Theme:  theme.view(),
		Brand:  r.opts.Brand,
		Footer: r.opts.FooterNote,
		Invoice: InvoiceView{
			Number:              inv.InvoiceNumber,
			Status:              strings.ToUpper(string(inv.Status)),
			Date:                formatDate(inv.Date),
			DueDate:             formatDate(inv.DueDate),
			GeneratedOn:         formatDate(domain.DateOf(inv.UpdatedAt.UTC())),
			Subtotal:            money(inv.Subtotal),
			TaxLabel:            TaxLabel(inv.TaxRate),
			TaxAmount:           money(inv.TaxAmount),
			Total:               money(inv.Total),
			Notes:               strings.TrimSpace(inv.Notes),
			Terms:               strings.TrimSpace(inv.Terms),
			PaymentInstructions: strings.TrimSpace(inv.PaymentInstructions),
			PaymentLink:         strings.TrimSpace(inv.PaymentLink),
			Logo:                embeddedLogo(inv.CompanyLogo),
			Recurring:           recurring,
		},
		From:  PartyView(inv.From()),
		To:    PartyView(inv.To()),
		Items: items,
	}
}

// TaxLabel renders "Tax (18%)".
func TaxLabel(rate float64) string {
	return "Tax (" + strconv.FormatFloat(rate, 'f', -1, 64) + "%)"
}

// FormatQuantity drops trailing zeros: 2 → "2", 1.50 → "1.5".
func FormatQuantity(value float64) string {
	return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.2f", value), "0"), ".")
}

// DocumentFilename returns a filesystem-safe name such as "inv-202405-042.pdf".
func DocumentFilename(invoiceNumber, ext string) string {
	name := slug.Make(invoiceNumber)
	if name == "" {
		name = "invoice"
	}
	return name + "." + ext
}

func formatDate(d domain.Date) string {
	if d.IsZero() {
		return "-"
	}
	return d.String()
}

// embeddedLogo accepts only inline image data so the document stays
// self-contained.
func embeddedLogo(value string) template.URL {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" || !logoDataURIPattern.MatchString(trimmed) {
		return ""
	}
	return template.URL(trimmed)
}
