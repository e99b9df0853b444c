package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"github.com/smallbiznis/invoicebuilder/internal/analytics"
	"github.com/smallbiznis/invoicebuilder/internal/clock"
	"github.com/smallbiznis/invoicebuilder/internal/config"
	"github.com/smallbiznis/invoicebuilder/internal/invoice/calc"
	invoicedomain "github.com/smallbiznis/invoicebuilder/internal/invoice/domain"
	"github.com/smallbiznis/invoicebuilder/internal/invoice/format"
	"github.com/smallbiznis/invoicebuilder/internal/invoice/render"
	obslogger "github.com/smallbiznis/invoicebuilder/internal/observability/logger"
	"github.com/smallbiznis/invoicebuilder/internal/observability/metrics"
	"github.com/smallbiznis/invoicebuilder/internal/providers/email"
	"github.com/smallbiznis/invoicebuilder/internal/providers/pdf"
	"github.com/smallbiznis/invoicebuilder/internal/ratelimit"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// maxNumberAttempts bounds regeneration after a duplicate invoice number.
const maxNumberAttempts = 5

type ServiceParam struct {
	fx.In

	Repo      invoicedomain.Repository
	Log       *zap.Logger
	Clock     clock.Clock
	GenID     *snowflake.Node
	Config    config.Config
	Defaults  *config.DefaultsHolder
	Numbers   format.NumberGenerator
	Formatter *format.Formatter
	Renderer  render.Renderer
	PDF       pdf.Provider
	Email     email.Provider
	Metrics   *metrics.Metrics       `optional:"true"`
	Limiter   *ratelimit.SendLimiter `optional:"true"`
}

type Service struct {
	repo  invoicedomain.Repository
	log   *zap.Logger
	clock clock.Clock
	genID *snowflake.Node

	numbering string
	defaults  *config.DefaultsHolder
	numbers   format.NumberGenerator
	formatter *format.Formatter
	renderer  render.Renderer
	pdf       pdf.Provider
	email     email.Provider
	metrics   *metrics.Metrics
	limiter   *ratelimit.SendLimiter
}

func NewService(p ServiceParam) invoicedomain.Service {
	defaults := p.Defaults
	if defaults == nil {
		defaults = config.NewStaticDefaults(config.DefaultInvoiceDefaults())
	}
	return &Service{
		repo:  p.Repo,
		log:   p.Log.Named("invoice.service"),
		clock: p.Clock,
		genID: p.GenID,

		numbering: p.Config.Invoice.Numbering,
		defaults:  defaults,
		numbers:   p.Numbers,
		formatter: p.Formatter,
		renderer:  p.Renderer,
		pdf:       p.PDF,
		email:     p.Email,
		metrics:   p.Metrics,
		limiter:   p.Limiter,
	}
}

func (s *Service) Create(ctx context.Context, req invoicedomain.CreateRequest) (invoicedomain.Invoice, error) {
	now := s.clock.Now().UTC()
	defaults := s.defaults.Get()

	date := invoicedomain.DateOf(now)
	if req.Date != nil {
		date = *req.Date
	}
	dueDate := date.AddDays(defaults.DueDays)
	if req.DueDate != nil {
		dueDate = *req.DueDate
	}
	if err := invoicedomain.ValidateDates(date, dueDate); err != nil {
		return invoicedomain.Invoice{}, err
	}

	currency, err := invoicedomain.ParseCurrency(firstNonEmpty(req.Currency, defaults.Currency))
	if err != nil {
		return invoicedomain.Invoice{}, err
	}
	tmpl, err := invoicedomain.ParseTemplate(firstNonEmpty(req.Template, defaults.Template))
	if err != nil {
		return invoicedomain.Invoice{}, err
	}
	taxRate := defaults.TaxRate
	if req.TaxRate != nil {
		taxRate = *req.TaxRate
	}

	items := make([]invoicedomain.InvoiceItem, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, invoicedomain.InvoiceItem{
			ID:          uuid.NewString(),
			Description: strings.TrimSpace(item.Description),
			Quantity:    item.Quantity,
			Rate:        item.Rate,
		})
	}
	if len(items) == 0 {
		items = append(items, calc.NewItem(uuid.NewString()))
	}

	draft := invoicedomain.Invoice{
		ID:                  s.genID.Generate().String(),
		Date:                date,
		DueDate:             dueDate,
		FromName:            strings.TrimSpace(req.FromName),
		FromEmail:           strings.TrimSpace(req.FromEmail),
		FromPhone:           strings.TrimSpace(req.FromPhone),
		FromAddress:         strings.TrimSpace(req.FromAddress),
		CompanyLogo:         strings.TrimSpace(req.CompanyLogo),
		ToName:              strings.TrimSpace(req.ToName),
		ToEmail:             strings.TrimSpace(req.ToEmail),
		ToPhone:             strings.TrimSpace(req.ToPhone),
		ToAddress:           strings.TrimSpace(req.ToAddress),
		Items:               items,
		TaxRate:             taxRate,
		Currency:            currency,
		Notes:               req.Notes,
		Terms:               req.Terms,
		PaymentInstructions: req.PaymentInstructions,
		Status:              invoicedomain.InvoiceStatusDraft,
		Template:            tmpl,
		ShareableLink:       shareableLink(defaults.ShareBaseURL),
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	invoice, err := calc.Recompute(draft)
	if err != nil {
		return invoicedomain.Invoice{}, err
	}

	if err := s.insertWithNumber(ctx, &invoice, now); err != nil {
		return invoicedomain.Invoice{}, err
	}

	s.metrics.RecordInvoiceCreated(ctx, string(invoice.Currency), s.numbering)
	obslogger.WithContext(ctx, s.log).Info("invoice created",
		zap.String("invoice_id", invoice.ID),
		zap.String("invoice_number", invoice.InvoiceNumber),
		zap.String("currency", string(invoice.Currency)),
	)
	return invoice, nil
}

// insertWithNumber assigns a display number and inserts, drawing a new
// number when the store reports a collision.
func (s *Service) insertWithNumber(ctx context.Context, invoice *invoicedomain.Invoice, now time.Time) error {
	var lastErr error
	for attempt := 1; attempt <= maxNumberAttempts; attempt++ {
		number, err := s.numbers.Next(ctx, now)
		if err != nil {
			return err
		}
		invoice.InvoiceNumber = number

		err = s.repo.Insert(ctx, *invoice)
		if err == nil {
			return nil
		}
		if !errors.Is(err, invoicedomain.ErrDuplicateInvoiceNumber) {
			return err
		}
		lastErr = err
		s.log.Warn("invoice number collision, regenerating",
			zap.String("invoice_number", number),
			zap.Int("attempt", attempt),
		)
	}
	return lastErr
}

func (s *Service) GetByID(ctx context.Context, id string) (invoicedomain.Invoice, error) {
	invoiceID := strings.TrimSpace(id)
	if invoiceID == "" {
		return invoicedomain.Invoice{}, invoicedomain.ErrInvalidInvoiceID
	}

	item, err := s.repo.FindByID(ctx, invoiceID)
	if err != nil {
		return invoicedomain.Invoice{}, err
	}
	if item == nil {
		return invoicedomain.Invoice{}, invoicedomain.ErrInvoiceNotFound
	}
	return *item, nil
}

func (s *Service) List(ctx context.Context, req invoicedomain.ListInvoiceRequest) (invoicedomain.ListInvoiceResponse, error) {
	status := strings.ToLower(strings.TrimSpace(req.Status))
	if status != "" && status != analytics.StatusAll {
		if _, err := invoicedomain.ParseStatus(status); err != nil {
			return invoicedomain.ListInvoiceResponse{}, err
		}
	}

	items, err := s.repo.List(ctx)
	if err != nil {
		return invoicedomain.ListInvoiceResponse{}, err
	}
	invoices := analytics.Filter(items, analytics.Query{Search: req.Query, Status: status})
	if invoices == nil {
		invoices = []invoicedomain.Invoice{}
	}
	return invoicedomain.ListInvoiceResponse{Invoices: invoices}, nil
}

func (s *Service) Update(ctx context.Context, req invoicedomain.UpdateRequest) (invoicedomain.Invoice, error) {
	invoice, err := s.GetByID(ctx, req.ID)
	if err != nil {
		return invoicedomain.Invoice{}, err
	}
	out := invoice.Clone()

	if req.Date != nil {
		out.Date = *req.Date
	}
	if req.DueDate != nil {
		out.DueDate = *req.DueDate
	}
	if err := invoicedomain.ValidateDates(out.Date, out.DueDate); err != nil {
		return invoicedomain.Invoice{}, err
	}
	if req.Currency != nil {
		if out.Currency, err = invoicedomain.ParseCurrency(*req.Currency); err != nil {
			return invoicedomain.Invoice{}, err
		}
	}
	if req.Template != nil {
		if out.Template, err = invoicedomain.ParseTemplate(*req.Template); err != nil {
			return invoicedomain.Invoice{}, err
		}
	}

	setText(&out.FromName, req.FromName)
	setText(&out.FromEmail, req.FromEmail)
	setText(&out.FromPhone, req.FromPhone)
	setText(&out.FromAddress, req.FromAddress)
	setText(&out.CompanyLogo, req.CompanyLogo)
	setText(&out.ToName, req.ToName)
	setText(&out.ToEmail, req.ToEmail)
	setText(&out.ToPhone, req.ToPhone)
	setText(&out.ToAddress, req.ToAddress)
	setText(&out.PaymentLink, req.PaymentLink)
	if req.Notes != nil {
		out.Notes = *req.Notes
	}
	if req.Terms != nil {
		out.Terms = *req.Terms
	}
	if req.PaymentInstructions != nil {
		out.PaymentInstructions = *req.PaymentInstructions
	}

	if req.IsRecurring != nil {
		out.IsRecurring = *req.IsRecurring
	}
	if req.RecurringFrequency != nil {
		if out.RecurringFrequency, err = invoicedomain.ParseRecurringFrequency(*req.RecurringFrequency); err != nil {
			return invoicedomain.Invoice{}, err
		}
	}
	applyRecurrence(&out)

	out.UpdatedAt = s.clock.Now().UTC()
	if err := s.repo.Update(ctx, out); err != nil {
		return invoicedomain.Invoice{}, err
	}
	return out, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	invoiceID := strings.TrimSpace(id)
	if invoiceID == "" {
		return invoicedomain.ErrInvalidInvoiceID
	}
	if err := s.repo.Delete(ctx, invoiceID); err != nil {
		return err
	}
	obslogger.WithContext(ctx, s.log).Info("invoice deleted", zap.String("invoice_id", invoiceID))
	return nil
}

func (s *Service) AddItem(ctx context.Context, invoiceID string, req invoicedomain.ItemRequest) (invoicedomain.Invoice, error) {
	item := invoicedomain.InvoiceItem{
		ID:          uuid.NewString(),
		Description: strings.TrimSpace(req.Description),
		Quantity:    req.Quantity,
		Rate:        req.Rate,
	}
	return s.edit(ctx, invoiceID, func(inv invoicedomain.Invoice, now time.Time) (invoicedomain.Invoice, error) {
		return calc.AddItem(inv, item, now)
	})
}

func (s *Service) UpdateItem(ctx context.Context, invoiceID, itemID string, update invoicedomain.ItemUpdate) (invoicedomain.Invoice, error) {
	if update == nil {
		return invoicedomain.Invoice{}, invoicedomain.NewValidationError("item", invoicedomain.ErrInvalidItemUpdate, "no item field to update")
	}
	return s.edit(ctx, invoiceID, func(inv invoicedomain.Invoice, now time.Time) (invoicedomain.Invoice, error) {
		return calc.ApplyItemUpdate(inv, itemID, update, now)
	})
}

func (s *Service) RemoveItem(ctx context.Context, invoiceID, itemID string) (invoicedomain.Invoice, error) {
	return s.edit(ctx, invoiceID, func(inv invoicedomain.Invoice, now time.Time) (invoicedomain.Invoice, error) {
		return calc.RemoveItem(inv, itemID, now)
	})
}

func (s *Service) SetTaxRate(ctx context.Context, invoiceID string, taxRate float64) (invoicedomain.Invoice, error) {
	return s.edit(ctx, invoiceID, func(inv invoicedomain.Invoice, now time.Time) (invoicedomain.Invoice, error) {
		return calc.SetTaxRate(inv, taxRate, now)
	})
}

// edit loads an invoice, applies fn and persists the result.
func (s *Service) edit(ctx context.Context, invoiceID string, fn func(invoicedomain.Invoice, time.Time) (invoicedomain.Invoice, error)) (invoicedomain.Invoice, error) {
	invoice, err := s.GetByID(ctx, invoiceID)
	if err != nil {
		return invoicedomain.Invoice{}, err
	}
	out, err := fn(invoice, s.clock.Now().UTC())
	if err != nil {
		return invoicedomain.Invoice{}, err
	}
	if err := s.repo.Update(ctx, out); err != nil {
		return invoicedomain.Invoice{}, err
	}
	return out, nil
}

func (s *Service) TransitionStatus(ctx context.Context, invoiceID string, status invoicedomain.InvoiceStatus) (invoicedomain.Invoice, error) {
	invoice, err := s.GetByID(ctx, invoiceID)
	if err != nil {
		return invoicedomain.Invoice{}, err
	}
	return s.transition(ctx, invoice, status)
}

func (s *Service) transition(ctx context.Context, invoice invoicedomain.Invoice, status invoicedomain.InvoiceStatus) (invoicedomain.Invoice, error) {
	next, err := invoicedomain.Transition(invoice.Status, status)
	if err != nil {
		return invoicedomain.Invoice{}, err
	}
	if next == invoice.Status {
		return invoice, nil
	}

	out := invoice.Clone()
	out.Status = next
	out.UpdatedAt = s.clock.Now().UTC()
	if err := s.repo.Update(ctx, out); err != nil {
		return invoicedomain.Invoice{}, err
	}

	s.metrics.RecordStatusTransition(ctx, string(invoice.Status), string(next))
	obslogger.WithContext(ctx, s.log).Info("invoice status changed",
		zap.String("invoice_id", out.ID),
		zap.String("from", string(invoice.Status)),
		zap.String("to", string(next)),
	)
	return out, nil
}

// applyRecurrence keeps the recurrence fields consistent: a recurring invoice
// always has a frequency (monthly unless chosen) and a next due date one
// period after its due date.
func applyRecurrence(inv *invoicedomain.Invoice) {
	if !inv.IsRecurring {
		inv.RecurringFrequency = ""
		inv.NextDueDate = nil
		return
	}
	if inv.RecurringFrequency == "" {
		inv.RecurringFrequency = invoicedomain.RecurringMonthly
	}
	next := inv.RecurringFrequency.NextOccurrence(inv.DueDate)
	inv.NextDueDate = &next
}

func shareableLink(baseURL string) string {
	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	return base + invoicedomain.SharePathPrefix + strings.ToLower(ulid.Make().String())
}

func setText(dst *string, v *string) {
	if v != nil {
		*dst = strings.TrimSpace(*v)
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
