package pdf

import (
	"context"
)

// Provider renders invoices to PDF bytes.
type Provider interface {
	GenerateInvoice(ctx context.Context, data InvoiceData) ([]byte, error)
	GenerateReceipt(ctx context.Context, data ReceiptData) ([]byte, error)
}

const ContentType = "application/pdf"
