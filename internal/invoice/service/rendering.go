package service

import (
	"context"
	"strings"

	invoicedomain "github.com/smallbiznis/invoicebuilder/internal/invoice/domain"
	"github.com/smallbiznis/invoicebuilder/internal/invoice/render"
	obslogger "github.com/smallbiznis/invoicebuilder/internal/observability/logger"
	"github.com/smallbiznis/invoicebuilder/internal/providers/pdf"
	"go.uber.org/zap"
)

// RenderInvoice renders the stored invoice. An empty template uses the
// invoice's own; an unknown one falls back to modern inside the renderer.
func (s *Service) RenderInvoice(ctx context.Context, invoiceID string, template string) (invoicedomain.RenderInvoiceResponse, error) {
	invoice, err := s.GetByID(ctx, invoiceID)
	if err != nil {
		return invoicedomain.RenderInvoiceResponse{}, err
	}

	tmpl := invoice.Template
	if t := strings.ToLower(strings.TrimSpace(template)); t != "" {
		tmpl = invoicedomain.Template(t)
	}

	doc, err := s.renderer.Render(invoice, tmpl)
	if err != nil {
		obslogger.WithContext(ctx, s.log).Warn("invoice render rejected",
			zap.String("invoice_id", invoice.ID),
			zap.Error(err),
		)
		return invoicedomain.RenderInvoiceResponse{}, err
	}

	return invoicedomain.RenderInvoiceResponse{
		InvoiceNumber: doc.InvoiceNumber,
		Template:      doc.Template,
		ContentType:   doc.ContentType,
		RenderedHTML:  doc.HTML,
	}, nil
}

// ExportPDF renders the invoice to PDF. Paid invoices are rendered as receipts.
func (s *Service) ExportPDF(ctx context.Context, invoiceID string) (invoicedomain.PDFDocument, error) {
	invoice, err := s.GetByID(ctx, invoiceID)
	if err != nil {
		return invoicedomain.PDFDocument{}, err
	}
	content, err := s.renderPDF(ctx, invoice)
	if err != nil {
		return invoicedomain.PDFDocument{}, err
	}
	s.metrics.RecordPDFExport(ctx, string(invoice.Template))
	return invoicedomain.PDFDocument{
		Filename: render.DocumentFilename(invoice.InvoiceNumber, "pdf"),
		Content:  content,
	}, nil
}

func (s *Service) renderPDF(ctx context.Context, invoice invoicedomain.Invoice) ([]byte, error) {
	if err := invoicedomain.ValidateComputed(invoice); err != nil {
		return nil, err
	}
	defaults := s.defaults.Get()
	opts := pdf.Options{Brand: defaults.Brand, FooterNote: defaults.FooterNote}

	if invoice.Status == invoicedomain.InvoiceStatusPaid {
		return s.pdf.GenerateReceipt(ctx, pdf.FromPaidInvoice(invoice, s.formatter, opts))
	}
	return s.pdf.GenerateInvoice(ctx, pdf.FromInvoice(invoice, s.formatter, opts))
}
