package service

import (
	"context"
	"strings"

	"github.com/oklog/ulid/v2"
	invoicedomain "github.com/smallbiznis/invoicebuilder/internal/invoice/domain"
	"github.com/smallbiznis/invoicebuilder/internal/invoice/format"
	"github.com/smallbiznis/invoicebuilder/internal/invoice/render"
	publicinvoicedomain "github.com/smallbiznis/invoicebuilder/internal/publicinvoice/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Repo      invoicedomain.Repository
	Formatter *format.Formatter
	Renderer  render.Renderer
	Log       *zap.Logger
}

type Service struct {
	repo      invoicedomain.Repository
	formatter *format.Formatter
	renderer  render.Renderer
	log       *zap.Logger
}

func New(p Params) publicinvoicedomain.Service {
	return &Service{
		repo:      p.Repo,
		formatter: p.Formatter,
		renderer:  p.Renderer,
		log:       p.Log.Named("publicinvoice.service"),
	}
}

func (s *Service) GetInvoiceForPublicView(ctx context.Context, token string) (*publicinvoicedomain.PublicInvoiceResponse, error) {
	inv, err := s.loadPublicInvoice(ctx, token)
	if err != nil {
		return nil, err
	}

	status := publicinvoicedomain.PublicInvoiceStatusUnpaid
	amountDue := inv.Total
	if inv.Status == invoicedomain.InvoiceStatusPaid {
		status = publicinvoicedomain.PublicInvoiceStatusPaid
		amountDue = 0
	}

	items := make([]publicinvoicedomain.PublicInvoiceItem, 0, len(inv.Items))
	for _, item := range inv.Items {
		items = append(items, publicinvoicedomain.PublicInvoiceItem{
			Description: item.Description,
			Quantity:    item.Quantity,
			UnitPrice:   item.Rate,
			Amount:      item.Amount,
		})
	}

	return &publicinvoicedomain.PublicInvoiceResponse{
		Status: status,
		Invoice: publicinvoicedomain.PublicInvoiceView{
			InvoiceNumber:  inv.InvoiceNumber,
			InvoiceStatus:  string(inv.Status),
			IssueDate:      inv.Date.String(),
			DueDate:        inv.DueDate.String(),
			FromName:       inv.FromName,
			FromEmail:      inv.FromEmail,
			BillToName:     inv.ToName,
			BillToEmail:    inv.ToEmail,
			Currency:       string(inv.Currency),
			AmountDue:      amountDue,
			SubtotalAmount: inv.Subtotal,
			TaxRate:        inv.TaxRate,
			TaxAmount:      inv.TaxAmount,
			TotalAmount:    inv.Total,
			FormattedTotal: s.formatter.Format(inv.Total, inv.Currency),
			PaymentLink:    inv.PaymentLink,
			Items:          items,
		},
	}, nil
}

// RenderPublicDocument renders the invoice with its own template.
func (s *Service) RenderPublicDocument(ctx context.Context, token string) (render.Document, error) {
	inv, err := s.loadPublicInvoice(ctx, token)
	if err != nil {
		return render.Document{}, err
	}
	return s.renderer.Render(*inv, inv.Template)
}

func (s *Service) loadPublicInvoice(ctx context.Context, token string) (*invoicedomain.Invoice, error) {
	token = strings.ToLower(strings.TrimSpace(token))
	if _, err := ulid.ParseStrict(strings.ToUpper(token)); err != nil {
		return nil, publicinvoicedomain.ErrInvoiceUnavailable
	}

	inv, err := s.repo.FindByShareToken(ctx, token)
	if err != nil {
		s.log.Error("failed to load shared invoice", zap.Error(err))
		return nil, err
	}
	if inv == nil || inv.Status == invoicedomain.InvoiceStatusDraft {
		return nil, publicinvoicedomain.ErrInvoiceUnavailable
	}
	return inv, nil
}
