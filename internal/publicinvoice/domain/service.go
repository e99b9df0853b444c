// Package domain describes the read-only view of an invoice opened through
// its shareable link.
package domain

import (
	"context"
	"errors"

	invoicedomain "github.com/smallbiznis/invoicebuilder/internal/invoice/domain"
	"github.com/smallbiznis/invoicebuilder/internal/invoice/render"
)

type Service interface {
	GetInvoiceForPublicView(ctx context.Context, token string) (*PublicInvoiceResponse, error)
	RenderPublicDocument(ctx context.Context, token string) (render.Document, error)
}

type PublicInvoiceStatus string

const (
	PublicInvoiceStatusUnpaid PublicInvoiceStatus = "unpaid"
	PublicInvoiceStatusPaid   PublicInvoiceStatus = "paid"
)

type PublicInvoiceItem struct {
	Description string              `json:"description"`
	Quantity    float64             `json:"quantity"`
	UnitPrice   invoicedomain.Money `json:"unit_price"`
	Amount      invoicedomain.Money `json:"amount"`
}

type PublicInvoiceView struct {
	InvoiceNumber  string              `json:"invoice_number"`
	InvoiceStatus  string              `json:"invoice_status"`
	IssueDate      string              `json:"issue_date"`
	DueDate        string              `json:"due_date"`
	FromName       string              `json:"from_name"`
	FromEmail      string              `json:"from_email"`
	BillToName     string              `json:"bill_to_name"`
	BillToEmail    string              `json:"bill_to_email"`
	Currency       string              `json:"currency"`
	AmountDue      invoicedomain.Money `json:"amount_due"`
	SubtotalAmount invoicedomain.Money `json:"subtotal_amount"`
	TaxRate        float64             `json:"tax_rate"`
	TaxAmount      invoicedomain.Money `json:"tax_amount"`
	TotalAmount    invoicedomain.Money `json:"total_amount"`
	FormattedTotal string              `json:"formatted_total"`
	PaymentLink    string              `json:"payment_link,omitempty"`
	Items          []PublicInvoiceItem `json:"items"`
}

type PublicInvoiceResponse struct {
	Status  PublicInvoiceStatus `json:"status"`
	Invoice PublicInvoiceView   `json:"invoice"`
}

var (
	// ErrInvoiceUnavailable covers unknown tokens and invoices that are still drafts.
	ErrInvoiceUnavailable = errors.New("invoice_unavailable")
)
