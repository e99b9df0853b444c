package render

import (
	"html/template"

	"github.com/smallbiznis/invoicebuilder/internal/invoice/domain"
)

const ContentTypeHTML = "text/html; charset=utf-8"

// Document is one complete, self-contained printable invoice.
type Document struct {
	InvoiceNumber string
	Template      domain.Template
	ContentType   string
	Filename      string
	HTML          string
}

// RenderInput is the deterministic view model fed to the HTML template.
type RenderInput struct {
	Lang    string
	Theme   ThemeView
	Brand   string
	Footer  string
	Invoice InvoiceView
	From    PartyView
	To      PartyView
	Items   []LineItemView
}

// ThemeView holds CSS values. They come only from the closed set of themes,
// never from user input.
type ThemeView struct {
	Name                  string
	Accent                template.CSS
	HeaderBorder          template.CSS
	HeadingSize           template.CSS
	HeadingWeight         template.CSS
	HeadingFont           template.CSS
	HeadingLetterSpacing  template.CSS
	TableHeaderBackground template.CSS
	TableHeaderColor      template.CSS
	TableHeaderBorder     template.CSS
}

type InvoiceView struct {
	Number              string
	Status              string
	Date                string
	DueDate             string
	GeneratedOn         string
	Subtotal            string
	TaxLabel            string
	TaxAmount           string
	Total               string
	Notes               string
	Terms               string
	PaymentInstructions string
	PaymentLink         string
	Logo                template.URL
	Recurring           string
}

type PartyView struct {
	Name    string
	Email   string
	Phone   string
	Address string
}

type LineItemView struct {
	Description string
	Quantity    string
	Rate        string
	Amount      string
}

// Recorder observes renderer activity.
type Recorder interface {
	ObserveRender(tmpl string)
	ObserveFallback(kind, value string)
}

// Renderer builds documents. Implementations must not mutate the invoice or
// recompute its totals.
type Renderer interface {
	Render(inv domain.Invoice, tmpl domain.Template) (Document, error)
}
