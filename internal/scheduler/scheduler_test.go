package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/smallbiznis/invoicebuilder/internal/clock"
	invoicedomain "github.com/smallbiznis/invoicebuilder/internal/invoice/domain"
	obsmetrics "github.com/smallbiznis/invoicebuilder/internal/observability/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockInvoiceSvc struct {
	mock.Mock
}

func (m *mockInvoiceSvc) Create(ctx context.Context, req invoicedomain.CreateRequest) (invoicedomain.Invoice, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(invoicedomain.Invoice), args.Error(1)
}

func (m *mockInvoiceSvc) GetByID(ctx context.Context, id string) (invoicedomain.Invoice, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(invoicedomain.Invoice), args.Error(1)
}

func (m *mockInvoiceSvc) List(ctx context.Context, req invoicedomain.ListInvoiceRequest) (invoicedomain.ListInvoiceResponse, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(invoicedomain.ListInvoiceResponse), args.Error(1)
}

func (m *mockInvoiceSvc) Update(ctx context.Context, req invoicedomain.UpdateRequest) (invoicedomain.Invoice, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(invoicedomain.Invoice), args.Error(1)
}

func (m *mockInvoiceSvc) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockInvoiceSvc) AddItem(ctx context.Context, invoiceID string, req invoicedomain.ItemRequest) (invoicedomain.Invoice, error) {
	args := m.Called(ctx, invoiceID, req)
	return args.Get(0).(invoicedomain.Invoice), args.Error(1)
}

func (m *mockInvoiceSvc) UpdateItem(ctx context.Context, invoiceID, itemID string, update invoicedomain.ItemUpdate) (invoicedomain.Invoice, error) {
	args := m.Called(ctx, invoiceID, itemID, update)
	return args.Get(0).(invoicedomain.Invoice), args.Error(1)
}

func (m *mockInvoiceSvc) RemoveItem(ctx context.Context, invoiceID, itemID string) (invoicedomain.Invoice, error) {
	args := m.Called(ctx, invoiceID, itemID)
	return args.Get(0).(invoicedomain.Invoice), args.Error(1)
}

func (m *mockInvoiceSvc) SetTaxRate(ctx context.Context, invoiceID string, taxRate float64) (invoicedomain.Invoice, error) {
	args := m.Called(ctx, invoiceID, taxRate)
	return args.Get(0).(invoicedomain.Invoice), args.Error(1)
}

func (m *mockInvoiceSvc) TransitionStatus(ctx context.Context, invoiceID string, status invoicedomain.InvoiceStatus) (invoicedomain.Invoice, error) {
	args := m.Called(ctx, invoiceID, status)
	return args.Get(0).(invoicedomain.Invoice), args.Error(1)
}

func (m *mockInvoiceSvc) RenderInvoice(ctx context.Context, invoiceID string, template string) (invoicedomain.RenderInvoiceResponse, error) {
	args := m.Called(ctx, invoiceID, template)
	return args.Get(0).(invoicedomain.RenderInvoiceResponse), args.Error(1)
}

func (m *mockInvoiceSvc) ExportPDF(ctx context.Context, invoiceID string) (invoicedomain.PDFDocument, error) {
	args := m.Called(ctx, invoiceID)
	return args.Get(0).(invoicedomain.PDFDocument), args.Error(1)
}

func (m *mockInvoiceSvc) Send(ctx context.Context, invoiceID string, req invoicedomain.SendRequest) error {
	return m.Called(ctx, invoiceID, req).Error(0)
}

var now = time.Date(2024, time.June, 1, 9, 0, 0, 0, time.UTC)

func date(y int, m time.Month, d int) invoicedomain.Date {
	return invoicedomain.Date{Year: y, Month: m, Day: d}
}

func datePtr(y int, m time.Month, d int) *invoicedomain.Date {
	v := date(y, m, d)
	return &v
}

// monthlyRetainer was issued May 1, due May 15, so the June invoice is due
// June 15 and is issued June 1.
func monthlyRetainer() invoicedomain.Invoice {
	return invoicedomain.Invoice{
		ID:                 "inv-may",
		InvoiceNumber:      "INV-202405-0001",
		Date:               date(2024, time.May, 1),
		DueDate:            date(2024, time.May, 15),
		FromName:           "Acme Studio",
		ToName:             "Globex",
		ToEmail:            "ap@globex.test",
		Items:              []invoicedomain.InvoiceItem{{ID: "a", Description: "Retainer", Quantity: 1, Rate: 150000}},
		TaxRate:            18,
		Currency:           invoicedomain.CurrencyINR,
		Template:           invoicedomain.TemplateClassic,
		Notes:              "Thanks",
		Status:             invoicedomain.InvoiceStatusSent,
		IsRecurring:        true,
		RecurringFrequency: invoicedomain.RecurringMonthly,
		NextDueDate:        datePtr(2024, time.June, 15),
		PaymentLink:        "https://pay.example.test/acme",
	}
}

func newTestScheduler(t *testing.T, svc invoicedomain.Service, metrics *obsmetrics.SchedulerMetrics) *Scheduler {
	t.Helper()
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	s, err := New(Params{
		Log:        zap.NewNop(),
		InvoiceSvc: svc,
		GenID:      node,
		Clock:      clock.NewFakeClock(now),
		Metrics:    metrics,
	})
	require.NoError(t, err)
	return s
}

func TestNew_RequiresDependencies(t *testing.T) {
	_, err := New(Params{Log: zap.NewNop()})
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestProvideConfig_Defaults(t *testing.T) {
	cfg := Config{}.withDefaults()
	assert.Equal(t, time.Hour, cfg.RunInterval)
	assert.Equal(t, 50, cfg.BatchSize)
	assert.Equal(t, 30*time.Second, cfg.JobTimeout)
}

func TestNextIssueDate(t *testing.T) {
	inv := monthlyRetainer()
	assert.Equal(t, date(2024, time.June, 1), NextIssueDate(inv))

	inv.NextDueDate = nil
	assert.True(t, NextIssueDate(inv).IsZero())
}

func TestDueRecurring(t *testing.T) {
	due := monthlyRetainer()

	later := monthlyRetainer()
	later.ID = "inv-later"
	later.NextDueDate = datePtr(2024, time.June, 20)

	draft := monthlyRetainer()
	draft.ID = "inv-draft"
	draft.Status = invoicedomain.InvoiceStatusDraft

	oneOff := monthlyRetainer()
	oneOff.ID = "inv-once"
	oneOff.IsRecurring = false

	overdue := monthlyRetainer()
	overdue.ID = "inv-old"
	overdue.Status = invoicedomain.InvoiceStatusPaid
	overdue.NextDueDate = datePtr(2024, time.May, 20)

	got := DueRecurring([]invoicedomain.Invoice{later, due, draft, oneOff, overdue}, date(2024, time.June, 1), 10)
	require.Len(t, got, 2)
	assert.Equal(t, "inv-old", got[0].ID)
	assert.Equal(t, "inv-may", got[1].ID)

	assert.Len(t, DueRecurring([]invoicedomain.Invoice{due, overdue}, date(2024, time.June, 1), 1), 1)
}

func TestNextInvoiceRequest(t *testing.T) {
	req := NextInvoiceRequest(monthlyRetainer())

	require.NotNil(t, req.Date)
	require.NotNil(t, req.DueDate)
	assert.Equal(t, date(2024, time.June, 1), *req.Date)
	assert.Equal(t, date(2024, time.June, 15), *req.DueDate)
	assert.Equal(t, "INR", req.Currency)
	assert.Equal(t, "classic", req.Template)
	require.NotNil(t, req.TaxRate)
	assert.Equal(t, 18.0, *req.TaxRate)
	assert.Equal(t, "Globex", req.ToName)
	assert.Equal(t, "Thanks", req.Notes)
	assert.Equal(t, []invoicedomain.ItemRequest{{Description: "Retainer", Quantity: 1, Rate: 150000}}, req.Items)
}

func TestRecurringInvoicesJob_IssuesNextDraft(t *testing.T) {
	src := monthlyRetainer()
	svc := &mockInvoiceSvc{}
	off := false
	on := true
	freq := "monthly"
	link := src.PaymentLink

	svc.On("List", mock.Anything, invoicedomain.ListInvoiceRequest{Status: "all"}).
		Return(invoicedomain.ListInvoiceResponse{Invoices: []invoicedomain.Invoice{src}}, nil)
	svc.On("Update", mock.Anything, invoicedomain.UpdateRequest{ID: src.ID, IsRecurring: &off}).
		Return(invoicedomain.Invoice{ID: src.ID}, nil).Once()
	svc.On("Create", mock.Anything, NextInvoiceRequest(src)).
		Return(invoicedomain.Invoice{ID: "inv-june", InvoiceNumber: "INV-202406-0001"}, nil).Once()
	svc.On("Update", mock.Anything, invoicedomain.UpdateRequest{ID: "inv-june", IsRecurring: &on, RecurringFrequency: &freq, PaymentLink: &link}).
		Return(invoicedomain.Invoice{ID: "inv-june", InvoiceNumber: "INV-202406-0001", DueDate: date(2024, time.June, 15)}, nil).Once()

	reg := prometheus.NewRegistry()
	metrics := obsmetrics.NewSchedulerMetrics(reg, obsmetrics.Config{})
	s := newTestScheduler(t, svc, metrics)

	require.NoError(t, s.RunOnce(context.Background()))
	svc.AssertExpectations(t)

	count, err := testutil.GatherAndCount(reg, "invoicebuilder_recurring_invoices_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestRecurringInvoicesJob_RestoresRecurrenceWhenCreateFails(t *testing.T) {
	src := monthlyRetainer()
	svc := &mockInvoiceSvc{}
	off := false
	on := true
	freq := "monthly"

	svc.On("List", mock.Anything, mock.Anything).
		Return(invoicedomain.ListInvoiceResponse{Invoices: []invoicedomain.Invoice{src}}, nil)
	svc.On("Update", mock.Anything, invoicedomain.UpdateRequest{ID: src.ID, IsRecurring: &off}).
		Return(invoicedomain.Invoice{ID: src.ID}, nil).Once()
	svc.On("Create", mock.Anything, mock.Anything).
		Return(invoicedomain.Invoice{}, invoicedomain.ErrDuplicateInvoiceNumber).Once()
	svc.On("Update", mock.Anything, invoicedomain.UpdateRequest{ID: src.ID, IsRecurring: &on, RecurringFrequency: &freq}).
		Return(src, nil).Once()

	s := newTestScheduler(t, svc, nil)

	ctx, run, finish := s.beginRun(context.Background(), JobRecurringInvoices, 10)
	require.NoError(t, s.RecurringInvoicesJob(ctx))
	finish()
	svc.AssertExpectations(t)
	assert.Equal(t, 1, run.errors)
	assert.Equal(t, 0, run.processed)
}

func TestRecurringInvoicesJob_NothingDue(t *testing.T) {
	src := monthlyRetainer()
	src.NextDueDate = datePtr(2024, time.July, 15)
	svc := &mockInvoiceSvc{}
	svc.On("List", mock.Anything, mock.Anything).
		Return(invoicedomain.ListInvoiceResponse{Invoices: []invoicedomain.Invoice{src}}, nil)

	s := newTestScheduler(t, svc, nil)
	require.NoError(t, s.RunOnce(context.Background()))
	svc.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestRunOnce_ListFailureIsReturned(t *testing.T) {
	svc := &mockInvoiceSvc{}
	svc.On("List", mock.Anything, mock.Anything).
		Return(invoicedomain.ListInvoiceResponse{}, errors.New("db down"))

	s := newTestScheduler(t, svc, nil)
	err := s.RunOnce(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), JobRecurringInvoices)
}

func TestRunOnce_SkipsDisabledJobs(t *testing.T) {
	svc := &mockInvoiceSvc{}
	s := newTestScheduler(t, svc, nil)
	s.cfg.EnabledJobs = []string{"something_else"}

	require.NoError(t, s.RunOnce(context.Background()))
	svc.AssertNotCalled(t, "List", mock.Anything, mock.Anything)
}

func TestRunJob_TimeoutIsSoft(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := obsmetrics.NewSchedulerMetrics(reg, obsmetrics.Config{})
	s := newTestScheduler(t, &mockInvoiceSvc{}, metrics)

	err := s.runJob(context.Background(), "timeout_job", 0, 5*time.Millisecond, func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	require.NoError(t, err)

	count, err := testutil.GatherAndCount(reg, "invoicebuilder_scheduler_job_timeouts_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestRunForever_StopsOnCancel(t *testing.T) {
	var runs atomic.Int32
	svc := &mockInvoiceSvc{}
	svc.On("List", mock.Anything, mock.Anything).
		Run(func(mock.Arguments) { runs.Add(1) }).
		Return(invoicedomain.ListInvoiceResponse{}, nil)
	s := newTestScheduler(t, svc, nil)
	s.cfg.RunInterval = time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.RunForever(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return runs.Load() >= 2 }, time.Second, time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("RunForever did not stop")
	}
}
