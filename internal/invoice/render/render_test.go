package render

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/smallbiznis/invoicebuilder/internal/invoice/domain"
	"github.com/smallbiznis/invoicebuilder/internal/invoice/format"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type recorderStub struct {
	rendered  []string
	fallbacks []string
}

func (r *recorderStub) ObserveRender(tmpl string) { r.rendered = append(r.rendered, tmpl) }

func (r *recorderStub) ObserveFallback(kind, value string) {
	r.fallbacks = append(r.fallbacks, kind+":"+value)
}

func sampleInvoice() domain.Invoice {
	return domain.Invoice{
		ID:            "1",
		InvoiceNumber: "INV-202405-042",
		Date:          domain.Date{Year: 2024, Month: time.May, Day: 1},
		DueDate:       domain.Date{Year: 2024, Month: time.May, Day: 31},
		FromName:      "Acme Studio",
		FromEmail:     "billing@acme.test",
		FromAddress:   "12 MG Road\nBengaluru",
		ToName:        "Globex",
		ToEmail:       "ap@globex.test",
		Items: []domain.InvoiceItem{
			{ID: "a", Description: "Design", Quantity: 2, Rate: 10000, Amount: 20000},
			{ID: "b", Description: "Hosting", Quantity: 1.5, Rate: 5000, Amount: 7500},
		},
		Subtotal:  27500,
		TaxRate:   18,
		TaxAmount: 4950,
		Total:     32450,
		Currency:  domain.CurrencyUSD,
		Status:    domain.InvoiceStatusSent,
		Template:  domain.TemplateModern,
		UpdatedAt: time.Date(2024, time.May, 2, 10, 0, 0, 0, time.UTC),
	}
}

func newTestRenderer(t *testing.T) (*HTMLRenderer, *recorderStub, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zap.WarnLevel)
	log := zap.New(core)
	rec := &recorderStub{}
	return NewRenderer(Options{}, format.NewFormatter(log, rec), log, rec), rec, logs
}

func TestRender_ContainsInvoiceData(t *testing.T) {
	r, rec, _ := newTestRenderer(t)

	doc, err := r.Render(sampleInvoice(), domain.TemplateModern)
	require.NoError(t, err)

	assert.Equal(t, ContentTypeHTML, doc.ContentType)
	assert.Equal(t, domain.TemplateModern, doc.Template)
	assert.Equal(t, "inv-202405-042.html", doc.Filename)
	assert.True(t, strings.HasPrefix(doc.HTML, "<!DOCTYPE html>"))

	for _, want := range []string{
		"#INV-202405-042",
		"2024-05-01",
		"2024-05-31",
		"SENT",
		"Acme Studio",
		"Globex",
		"Design",
		"$100.00",
		"$200.00",
		"1.5",
		"$275.00",
		"Tax (18%)",
		"$49.50",
		"$324.50",
		"Generated on 2024-05-02",
		DefaultBrand,
		DefaultFooterNote,
	} {
		assert.Contains(t, doc.HTML, want)
	}
	assert.Equal(t, []string{"modern"}, rec.rendered)
}

func TestRender_ThemesDifferOnlyInStyle(t *testing.T) {
	r, _, _ := newTestRenderer(t)
	inv := sampleInvoice()

	for _, th := range Themes() {
		doc, err := r.Render(inv, th.Template())
		require.NoError(t, err)
		assert.Contains(t, doc.HTML, Accent(th))
		assert.Contains(t, doc.HTML, "template-"+string(th.Template()))
		assert.Contains(t, doc.HTML, "$324.50")
	}
}

func TestRender_UnknownTemplateFallsBackToModern(t *testing.T) {
	r, rec, logs := newTestRenderer(t)

	doc, err := r.Render(sampleInvoice(), "neon")
	require.NoError(t, err)
	assert.Equal(t, domain.TemplateModern, doc.Template)
	assert.Contains(t, doc.HTML, "#3B82F6")
	assert.Equal(t, 1, logs.FilterMessage("unknown template, falling back").Len())
	assert.Equal(t, []string{"template:neon"}, rec.fallbacks)
}

func TestRender_Deterministic(t *testing.T) {
	r, _, _ := newTestRenderer(t)
	a, err := r.Render(sampleInvoice(), domain.TemplateClassic)
	require.NoError(t, err)
	b, err := r.Render(sampleInvoice(), domain.TemplateClassic)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestRender_DoesNotRecompute(t *testing.T) {
	r, _, _ := newTestRenderer(t)
	inv := sampleInvoice()
	inv.Total = 99900

	doc, err := r.Render(inv, domain.TemplateModern)
	require.NoError(t, err)
	assert.Contains(t, doc.HTML, "$999.00")
	assert.Equal(t, domain.Money(99900), inv.Total)
}

func TestRender_RejectsInvalidInvoice(t *testing.T) {
	r, rec, _ := newTestRenderer(t)
	inv := sampleInvoice()
	inv.Items[0].Quantity = -1

	_, err := r.Render(inv, domain.TemplateModern)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)
	assert.Empty(t, rec.rendered)
}

func TestRender_OptionalSections(t *testing.T) {
	r, _, _ := newTestRenderer(t)

	doc, err := r.Render(sampleInvoice(), domain.TemplateModern)
	require.NoError(t, err)
	assert.NotContains(t, doc.HTML, "Payment Instructions")
	assert.NotContains(t, doc.HTML, "payment-button\" href")
	assert.NotContains(t, doc.HTML, "<img")

	inv := sampleInvoice()
	inv.Notes = "Net 30"
	inv.PaymentInstructions = "Wire to ACME"
	inv.PaymentLink = "https://pay.example.test/inv-42"
	inv.CompanyLogo = "data:image/png;base64,iVBORw0KGgo="
	doc, err = r.Render(inv, domain.TemplateModern)
	require.NoError(t, err)
	assert.Contains(t, doc.HTML, "Net 30")
	assert.Contains(t, doc.HTML, "Wire to ACME")
	assert.Contains(t, doc.HTML, `href="https://pay.example.test/inv-42"`)
	assert.Contains(t, doc.HTML, `src="data:image/png;base64,iVBORw0KGgo="`)
}

func TestRender_EscapesUserText(t *testing.T) {
	r, _, _ := newTestRenderer(t)
	inv := sampleInvoice()
	inv.ToName = "<script>alert(1)</script>"
	inv.CompanyLogo = "javascript:alert(1)"

	doc, err := r.Render(inv, domain.TemplateModern)
	require.NoError(t, err)
	assert.NotContains(t, doc.HTML, "<script>alert(1)</script>")
	assert.Contains(t, doc.HTML, "&lt;script&gt;")
	assert.NotContains(t, doc.HTML, "javascript:alert")
}

func TestRender_EuroAndRupee(t *testing.T) {
	r, _, _ := newTestRenderer(t)

	inv := sampleInvoice()
	inv.Currency = domain.CurrencyEUR
	doc, err := r.Render(inv, domain.TemplateMinimal)
	require.NoError(t, err)
	assert.Contains(t, doc.HTML, "324,50\u00a0€")
	assert.Contains(t, doc.HTML, `lang="de-DE"`)

	inv.Currency = domain.CurrencyINR
	doc, err = r.Render(inv, domain.TemplateMinimal)
	require.NoError(t, err)
	assert.Contains(t, doc.HTML, "₹324.50")
}

func TestTaxLabelAndQuantity(t *testing.T) {
	assert.Equal(t, "Tax (18%)", TaxLabel(18))
	assert.Equal(t, "Tax (12.5%)", TaxLabel(12.5))
	assert.Equal(t, "Tax (0%)", TaxLabel(0))

	assert.Equal(t, "2", FormatQuantity(2))
	assert.Equal(t, "1.5", FormatQuantity(1.5))
	assert.Equal(t, "0.25", FormatQuantity(0.25))
}

func TestPrint(t *testing.T) {
	r, _, _ := newTestRenderer(t)
	doc, err := r.Render(sampleInvoice(), domain.TemplateModern)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Print(context.Background(), WriterSink{W: &buf}, doc))
	assert.Equal(t, doc.HTML, buf.String())

	dir := t.TempDir()
	require.NoError(t, Print(context.Background(), FileSink{Dir: dir}, doc))
	written, err := os.ReadFile(filepath.Join(dir, doc.Filename))
	require.NoError(t, err)
	assert.Equal(t, doc.HTML, string(written))

	assert.ErrorIs(t, Print(context.Background(), WriterSink{W: &buf}, Document{}), ErrEmptyDocument)
}
