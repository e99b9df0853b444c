package analytics

import (
	"strings"

	"github.com/smallbiznis/invoicebuilder/internal/invoice/domain"
)

// StatusAll disables status filtering.
const StatusAll = "all"

type Query struct {
	Search string
	Status string
}

// Filter keeps invoices whose number, client name or sender name contains
// the search text (case-insensitive) and whose status matches. An empty
// status or "all" matches every status.
func Filter(invoices []domain.Invoice, q Query) []domain.Invoice {
	needle := strings.ToLower(strings.TrimSpace(q.Search))
	status := strings.ToLower(strings.TrimSpace(q.Status))

	out := make([]domain.Invoice, 0, len(invoices))
	for _, inv := range invoices {
		if status != "" && status != StatusAll && string(inv.Status) != status {
			continue
		}
		if needle != "" && !matches(inv, needle) {
			continue
		}
		out = append(out, inv.Clone())
	}
	return out
}

func matches(inv domain.Invoice, needle string) bool {
	for _, field := range []string{inv.InvoiceNumber, inv.ToName, inv.FromName} {
		if strings.Contains(strings.ToLower(field), needle) {
			return true
		}
	}
	return false
}
