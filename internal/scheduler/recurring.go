package scheduler

import (
	"context"
	"fmt"
	"sort"
	"time"

	invoicedomain "github.com/smallbiznis/invoicebuilder/internal/invoice/domain"
	"github.com/smallbiznis/invoicebuilder/internal/observability/obscontext"
	"go.uber.org/zap"
)

const JobRecurringInvoices = "recurring_invoices"

const (
	recurringResultCreated = "created"
	recurringResultFailed  = "failed"
)

// RecurringInvoicesJob issues the next draft for every recurring invoice whose
// next period has started. The recurrence moves to the new draft so each
// period is issued once.
func (s *Scheduler) RecurringInvoicesJob(ctx context.Context) error {
	ctx, run, finish := s.beginRun(ctx, JobRecurringInvoices, s.cfg.BatchSize)
	defer finish()

	resp, err := s.invoiceSvc.List(ctx, invoicedomain.ListInvoiceRequest{Status: "all"})
	if err != nil {
		s.logJobError(ctx, "scheduler.recurring.list.failed", "", err)
		return err
	}

	today := invoicedomain.DateOf(s.clock.Now())
	for _, src := range DueRecurring(resp.Invoices, today, s.cfg.BatchSize) {
		if err := ctx.Err(); err != nil {
			return err
		}
		freq := string(src.RecurringFrequency)
		next, err := s.rollForward(ctx, src)
		if err != nil {
			s.metrics.ObserveRecurring(freq, recurringResultFailed)
			s.logJobError(ctx, "scheduler.recurring.issue.failed", src.ID, err)
			continue
		}
		s.metrics.ObserveRecurring(freq, recurringResultCreated)
		run.AddProcessed(1)
		s.logger(obscontext.WithInvoiceID(ctx, next.ID)).Info("recurring invoice issued",
			zap.String("source_invoice_id", src.ID),
			zap.String("invoice_number", next.InvoiceNumber),
			zap.String("frequency", freq),
			zap.Stringer("due_date", next.DueDate),
		)
	}
	return nil
}

// DueRecurring returns up to limit recurring invoices whose next issue date
// is on or before today, oldest first. Drafts are skipped: a period rolls over
// only once its invoice has been sent.
func DueRecurring(invoices []invoicedomain.Invoice, today invoicedomain.Date, limit int) []invoicedomain.Invoice {
	var due []invoicedomain.Invoice
	for _, inv := range invoices {
		if !inv.IsRecurring || inv.NextDueDate == nil || inv.Status == invoicedomain.InvoiceStatusDraft {
			continue
		}
		if NextIssueDate(inv).After(today) {
			continue
		}
		due = append(due, inv)
	}
	sort.SliceStable(due, func(i, j int) bool {
		a, b := NextIssueDate(due[i]), NextIssueDate(due[j])
		if a != b {
			return a.Before(b)
		}
		return due[i].ID < due[j].ID
	})
	if limit > 0 && len(due) > limit {
		due = due[:limit]
	}
	return due
}

// NextIssueDate is the issue date of the following period: the next due date
// minus the invoice's payment term.
func NextIssueDate(inv invoicedomain.Invoice) invoicedomain.Date {
	if inv.NextDueDate == nil {
		return invoicedomain.Date{}
	}
	return inv.NextDueDate.AddDays(-termDays(inv))
}

// NextInvoiceRequest copies the billable content of src into a draft for the
// following period.
func NextInvoiceRequest(src invoicedomain.Invoice) invoicedomain.CreateRequest {
	date := NextIssueDate(src)
	due := *src.NextDueDate
	taxRate := src.TaxRate

	items := make([]invoicedomain.ItemRequest, 0, len(src.Items))
	for _, item := range src.Items {
		items = append(items, invoicedomain.ItemRequest{
			Description: item.Description,
			Quantity:    item.Quantity,
			Rate:        item.Rate,
		})
	}

	return invoicedomain.CreateRequest{
		Date:                &date,
		DueDate:             &due,
		Currency:            string(src.Currency),
		Template:            string(src.Template),
		TaxRate:             &taxRate,
		FromName:            src.FromName,
		FromEmail:           src.FromEmail,
		FromPhone:           src.FromPhone,
		FromAddress:         src.FromAddress,
		CompanyLogo:         src.CompanyLogo,
		ToName:              src.ToName,
		ToEmail:             src.ToEmail,
		ToPhone:             src.ToPhone,
		ToAddress:           src.ToAddress,
		Items:               items,
		Notes:               src.Notes,
		Terms:               src.Terms,
		PaymentInstructions: src.PaymentInstructions,
	}
}

// rollForward stops the recurrence on src before creating the next draft, and
// restores it if the draft cannot be created.
func (s *Scheduler) rollForward(ctx context.Context, src invoicedomain.Invoice) (invoicedomain.Invoice, error) {
	off := false
	if _, err := s.invoiceSvc.Update(ctx, invoicedomain.UpdateRequest{ID: src.ID, IsRecurring: &off}); err != nil {
		return invoicedomain.Invoice{}, fmt.Errorf("stop recurrence: %w", err)
	}

	next, err := s.invoiceSvc.Create(ctx, NextInvoiceRequest(src))
	if err != nil {
		s.restoreRecurrence(ctx, src)
		return invoicedomain.Invoice{}, fmt.Errorf("create next invoice: %w", err)
	}

	on := true
	freq := string(src.RecurringFrequency)
	update := invoicedomain.UpdateRequest{ID: next.ID, IsRecurring: &on, RecurringFrequency: &freq}
	if src.PaymentLink != "" {
		link := src.PaymentLink
		update.PaymentLink = &link
	}
	out, err := s.invoiceSvc.Update(ctx, update)
	if err != nil {
		return next, fmt.Errorf("carry recurrence to %s: %w", next.ID, err)
	}
	return out, nil
}

func (s *Scheduler) restoreRecurrence(ctx context.Context, src invoicedomain.Invoice) {
	on := true
	freq := string(src.RecurringFrequency)
	if _, err := s.invoiceSvc.Update(ctx, invoicedomain.UpdateRequest{ID: src.ID, IsRecurring: &on, RecurringFrequency: &freq}); err != nil {
		s.logJobError(ctx, "scheduler.recurring.restore.failed", src.ID, err)
	}
}

func termDays(inv invoicedomain.Invoice) int {
	if inv.Date.IsZero() || inv.DueDate.IsZero() || inv.DueDate.Before(inv.Date) {
		return 0
	}
	return int(inv.DueDate.Time().Sub(inv.Date.Time()) / (24 * time.Hour))
}
