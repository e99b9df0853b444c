package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	invoicedomain "github.com/smallbiznis/invoicebuilder/internal/invoice/domain"
	"github.com/smallbiznis/invoicebuilder/internal/invoice/render"
	obslogger "github.com/smallbiznis/invoicebuilder/internal/observability/logger"
	"github.com/smallbiznis/invoicebuilder/internal/providers/email"
	"github.com/smallbiznis/invoicebuilder/internal/providers/pdf"
	"go.uber.org/zap"
)

const (
	sendResultSent    = "sent"
	sendResultFailed  = "failed"
	sendResultLimited = "rate_limited"
)

// Send emails the invoice PDF. The recipient, subject and message default to
// the client email and the standard cover letter. A draft becomes sent once
// delivery succeeds.
func (s *Service) Send(ctx context.Context, invoiceID string, req invoicedomain.SendRequest) error {
	invoice, err := s.GetByID(ctx, invoiceID)
	if err != nil {
		return err
	}
	log := obslogger.WithContext(ctx, s.log).With(zap.String("invoice_id", invoice.ID))

	to := strings.TrimSpace(firstNonEmpty(req.To, invoice.ToEmail))
	if to == "" {
		return invoicedomain.NewValidationError("to", invoicedomain.ErrMissingRecipient, "recipient email is required")
	}

	token, locked, err := s.limiter.TryLockInvoice(ctx, invoice.ID)
	if err != nil {
		return fmt.Errorf("lock invoice send: %w", err)
	}
	if !locked {
		return invoicedomain.ErrSendInProgress
	}
	defer func() {
		if err := s.limiter.ReleaseInvoice(context.WithoutCancel(ctx), invoice.ID, token); err != nil {
			log.Warn("failed to release send lock", zap.Error(err))
		}
	}()

	allowed, retryAfter, err := s.limiter.AllowRecipient(ctx, to)
	if err != nil {
		return fmt.Errorf("check send rate: %w", err)
	}
	if !allowed {
		s.metrics.RecordEmailSent(ctx, sendResultLimited)
		return fmt.Errorf("%w: retry after %s", invoicedomain.ErrSendRateLimited, retryAfter.Round(time.Second))
	}

	attachment, err := s.renderPDF(ctx, invoice)
	if err != nil {
		return err
	}

	details := email.InvoiceDetails{
		Number:   invoice.InvoiceNumber,
		FromName: invoice.FromName,
		ToName:   invoice.ToName,
		Total:    s.formatter.Format(invoice.Total, invoice.Currency),
		DueDate:  invoice.DueDate.String(),
	}
	msg := email.Message{
		To:      []string{to},
		Subject: firstNonEmpty(strings.TrimSpace(req.Subject), email.InvoiceSubject(details)),
		Text:    firstNonEmpty(req.Message, email.InvoiceBody(details)),
		Attachments: []email.Attachment{{
			Filename:    render.DocumentFilename(invoice.InvoiceNumber, "pdf"),
			ContentType: pdf.ContentType,
			Content:     attachment,
		}},
	}

	if err := s.email.Send(ctx, msg); err != nil {
		s.metrics.RecordEmailSent(ctx, sendResultFailed)
		log.Error("invoice email failed", zap.Error(err))
		return fmt.Errorf("send invoice email: %w", err)
	}
	s.metrics.RecordEmailSent(ctx, sendResultSent)
	log.Info("invoice emailed", zap.String("invoice_number", invoice.InvoiceNumber))

	if invoice.Status == invoicedomain.InvoiceStatusDraft {
		if _, err := s.transition(ctx, invoice, invoicedomain.InvoiceStatusSent); err != nil {
			return err
		}
	}
	return nil
}
