package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	invoicedomain "github.com/smallbiznis/invoicebuilder/internal/invoice/domain"
	"github.com/smallbiznis/invoicebuilder/internal/invoice/format"
	"github.com/smallbiznis/invoicebuilder/internal/invoice/render"
	publicinvoicedomain "github.com/smallbiznis/invoicebuilder/internal/publicinvoice/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type tokenRepo struct {
	invoicedomain.Repository
	byToken map[string]invoicedomain.Invoice
	err     error
}

func (r tokenRepo) FindByShareToken(_ context.Context, token string) (*invoicedomain.Invoice, error) {
	if r.err != nil {
		return nil, r.err
	}
	inv, ok := r.byToken[token]
	if !ok {
		return nil, nil
	}
	return &inv, nil
}

func newToken() string {
	return strings.ToLower(ulid.Make().String())
}

func sharedInvoice(token string, status invoicedomain.InvoiceStatus) invoicedomain.Invoice {
	return invoicedomain.Invoice{
		ID:            "100",
		InvoiceNumber: "INV-202405-001",
		Date:          invoicedomain.Date{Year: 2024, Month: time.May, Day: 1},
		DueDate:       invoicedomain.Date{Year: 2024, Month: time.May, Day: 31},
		FromName:      "Acme Studio",
		ToName:        "Globex",
		ToEmail:       "ap@globex.test",
		Items:         []invoicedomain.InvoiceItem{{ID: "a", Description: "Design", Quantity: 2, Rate: 10000, Amount: 20000}},
		Subtotal:      20000,
		TaxRate:       10,
		TaxAmount:     2000,
		Total:         22000,
		Currency:      invoicedomain.CurrencyUSD,
		Status:        status,
		Template:      invoicedomain.TemplateMinimal,
		ShareableLink: "https://billing.acme.test/invoice/" + token,
		PaymentLink:   "https://pay.acme.test/INV-202405-001",
	}
}

func newService(repo invoicedomain.Repository) publicinvoicedomain.Service {
	formatter := format.NewFormatter(zap.NewNop(), nil)
	return New(Params{
		Repo:      repo,
		Formatter: formatter,
		Renderer:  render.NewRenderer(render.Options{}, formatter, zap.NewNop(), nil),
		Log:       zap.NewNop(),
	})
}

func TestGetInvoiceForPublicView_Unpaid(t *testing.T) {
	token := newToken()
	svc := newService(tokenRepo{byToken: map[string]invoicedomain.Invoice{token: sharedInvoice(token, invoicedomain.InvoiceStatusSent)}})

	resp, err := svc.GetInvoiceForPublicView(context.Background(), token)
	require.NoError(t, err)

	assert.Equal(t, publicinvoicedomain.PublicInvoiceStatusUnpaid, resp.Status)
	assert.Equal(t, "INV-202405-001", resp.Invoice.InvoiceNumber)
	assert.Equal(t, invoicedomain.Money(22000), resp.Invoice.AmountDue)
	assert.Equal(t, "$220.00", resp.Invoice.FormattedTotal)
	assert.Equal(t, "2024-05-31", resp.Invoice.DueDate)
	require.Len(t, resp.Invoice.Items, 1)
	assert.Equal(t, invoicedomain.Money(10000), resp.Invoice.Items[0].UnitPrice)
}

func TestGetInvoiceForPublicView_PaidHasNothingDue(t *testing.T) {
	token := newToken()
	svc := newService(tokenRepo{byToken: map[string]invoicedomain.Invoice{token: sharedInvoice(token, invoicedomain.InvoiceStatusPaid)}})

	resp, err := svc.GetInvoiceForPublicView(context.Background(), strings.ToUpper(token))
	require.NoError(t, err)
	assert.Equal(t, publicinvoicedomain.PublicInvoiceStatusPaid, resp.Status)
	assert.Equal(t, invoicedomain.Money(0), resp.Invoice.AmountDue)
	assert.Equal(t, invoicedomain.Money(22000), resp.Invoice.TotalAmount)
}

func TestGetInvoiceForPublicView_Unavailable(t *testing.T) {
	token := newToken()
	svc := newService(tokenRepo{byToken: map[string]invoicedomain.Invoice{token: sharedInvoice(token, invoicedomain.InvoiceStatusDraft)}})

	for name, tok := range map[string]string{
		"draft":     token,
		"unknown":   newToken(),
		"malformed": "not-a-token",
		"empty":     "",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := svc.GetInvoiceForPublicView(context.Background(), tok)
			assert.ErrorIs(t, err, publicinvoicedomain.ErrInvoiceUnavailable)
		})
	}
}

func TestGetInvoiceForPublicView_RepositoryError(t *testing.T) {
	boom := errors.New("db down")
	svc := newService(tokenRepo{err: boom})

	_, err := svc.GetInvoiceForPublicView(context.Background(), newToken())
	assert.ErrorIs(t, err, boom)
}

func TestRenderPublicDocument_UsesInvoiceTemplate(t *testing.T) {
	token := newToken()
	svc := newService(tokenRepo{byToken: map[string]invoicedomain.Invoice{token: sharedInvoice(token, invoicedomain.InvoiceStatusSent)}})

	doc, err := svc.RenderPublicDocument(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, invoicedomain.TemplateMinimal, doc.Template)
	assert.Contains(t, doc.HTML, "INV-202405-001")
}
