// Package analytics aggregates collections of invoices into dashboard
// statistics. Summarize and Filter are total: they never fail and never
// mutate their input.
package analytics

import (
	"math"
	"sort"
	"time"

	"github.com/smallbiznis/invoicebuilder/internal/invoice/domain"
)

// RecentLimit is the number of invoices reported in Summary.Recent.
const RecentLimit = 5

type StatusCount struct {
	Count   int `json:"count"`
	Percent int `json:"percent"`
}

type StatusBreakdown struct {
	Paid  StatusCount `json:"paid"`
	Sent  StatusCount `json:"sent"`
	Draft StatusCount `json:"draft"`
}

type Summary struct {
	Count            int              `json:"count"`
	TotalRevenue     domain.Money     `json:"totalRevenue"`
	PaidRevenue      domain.Money     `json:"paidRevenue"`
	PendingRevenue   domain.Money     `json:"pendingRevenue"`
	ThisMonthRevenue domain.Money     `json:"thisMonthRevenue"`
	Overdue          []domain.Invoice `json:"overdue"`
	StatusBreakdown  StatusBreakdown  `json:"statusBreakdown"`
	PrimaryCurrency  domain.Currency  `json:"primaryCurrency"`
	Recent           []domain.Invoice `json:"recent"`
}

// Summarize computes dashboard statistics for invoices as of now.
// Revenue figures add totals across currencies as-is.
func Summarize(invoices []domain.Invoice, now time.Time) Summary {
	today := domain.DateOf(now)
	out := Summary{
		Count:   len(invoices),
		Overdue: []domain.Invoice{},
		Recent:  []domain.Invoice{},
	}

	var paid, sent, draft int
	for _, inv := range invoices {
		out.TotalRevenue += inv.Total

		switch inv.Status {
		case domain.InvoiceStatusPaid:
			paid++
			out.PaidRevenue += inv.Total
		case domain.InvoiceStatusSent:
			sent++
		case domain.InvoiceStatusDraft:
			draft++
		}

		if inv.Date.Year == today.Year && inv.Date.Month == today.Month {
			out.ThisMonthRevenue += inv.Total
		}

		if IsOverdue(inv, now) {
			out.Overdue = append(out.Overdue, inv.Clone())
		}
	}
	out.PendingRevenue = out.TotalRevenue - out.PaidRevenue

	out.StatusBreakdown = StatusBreakdown{
		Paid:  statusCount(paid, len(invoices)),
		Sent:  statusCount(sent, len(invoices)),
		Draft: statusCount(draft, len(invoices)),
	}
	out.PrimaryCurrency = PrimaryCurrency(invoices)
	out.Recent = Recent(invoices, RecentLimit)
	return out
}

func statusCount(count, total int) StatusCount {
	if total == 0 {
		return StatusCount{}
	}
	return StatusCount{
		Count:   count,
		Percent: int(math.Round(float64(count) * 100 / float64(total))),
	}
}

// PrimaryCurrency returns the most frequent currency. Ties resolve to the
// lexicographically smallest code; an empty collection yields INR.
func PrimaryCurrency(invoices []domain.Invoice) domain.Currency {
	counts := make(map[domain.Currency]int)
	for _, inv := range invoices {
		if inv.Currency == "" {
			continue
		}
		counts[inv.Currency]++
	}

	best := domain.CurrencyINR
	bestCount := 0
	for code, n := range counts {
		if n > bestCount || (n == bestCount && code < best) {
			best, bestCount = code, n
		}
	}
	return best
}

// Recent returns up to limit invoices ordered by CreatedAt, newest first.
// Invoices created at the same instant keep their input order.
func Recent(invoices []domain.Invoice, limit int) []domain.Invoice {
	sorted := make([]domain.Invoice, len(invoices))
	for i := range invoices {
		sorted[i] = invoices[i].Clone()
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.After(sorted[j].CreatedAt)
	})
	if limit >= 0 && len(sorted) > limit {
		sorted = sorted[:limit]
	}
	return sorted
}

// IsOverdue reports whether inv is unpaid and its due date has passed. A due
// date counts as midnight UTC, so an invoice is overdue from the start of its
// due day.
func IsOverdue(inv domain.Invoice, now time.Time) bool {
	return inv.Status != domain.InvoiceStatusPaid && !inv.DueDate.IsZero() && inv.DueDate.Time().Before(now)
}
