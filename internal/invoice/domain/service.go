package domain

import (
	"context"
)

type ListInvoiceRequest struct {
	// Query matches invoice number, client name or sender name, case-insensitively.
	Query string
	// Status is a status value or "all".
	Status string
}

type ListInvoiceResponse struct {
	Invoices []Invoice `json:"invoices"`
}

// CreateRequest seeds a new draft. Zero values fall back to configured defaults.
type CreateRequest struct {
	Date     *Date    `json:"date,omitempty"`
	DueDate  *Date    `json:"dueDate,omitempty"`
	Currency string   `json:"currency,omitempty"`
	Template string   `json:"template,omitempty"`
	TaxRate  *float64 `json:"taxRate,omitempty"`

	FromName    string `json:"fromName"`
	FromEmail   string `json:"fromEmail"`
	FromPhone   string `json:"fromPhone"`
	FromAddress string `json:"fromAddress"`
	CompanyLogo string `json:"companyLogo,omitempty"`

	ToName    string `json:"toName"`
	ToEmail   string `json:"toEmail"`
	ToPhone   string `json:"toPhone"`
	ToAddress string `json:"toAddress"`

	Items []ItemRequest `json:"items,omitempty"`

	Notes               string `json:"notes"`
	Terms               string `json:"terms"`
	PaymentInstructions string `json:"paymentInstructions"`
}

type ItemRequest struct {
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`
	Rate        Money   `json:"rate"`
}

// UpdateRequest edits non-computed fields. Nil fields are left unchanged.
type UpdateRequest struct {
	ID string `json:"-"`

	Date     *Date   `json:"date,omitempty"`
	DueDate  *Date   `json:"dueDate,omitempty"`
	Currency *string `json:"currency,omitempty"`
	Template *string `json:"template,omitempty"`

	FromName    *string `json:"fromName,omitempty"`
	FromEmail   *string `json:"fromEmail,omitempty"`
	FromPhone   *string `json:"fromPhone,omitempty"`
	FromAddress *string `json:"fromAddress,omitempty"`
	CompanyLogo *string `json:"companyLogo,omitempty"`

	ToName    *string `json:"toName,omitempty"`
	ToEmail   *string `json:"toEmail,omitempty"`
	ToPhone   *string `json:"toPhone,omitempty"`
	ToAddress *string `json:"toAddress,omitempty"`

	Notes               *string `json:"notes,omitempty"`
	Terms               *string `json:"terms,omitempty"`
	PaymentInstructions *string `json:"paymentInstructions,omitempty"`

	IsRecurring        *bool   `json:"isRecurring,omitempty"`
	RecurringFrequency *string `json:"recurringFrequency,omitempty"`
	PaymentLink        *string `json:"paymentLink,omitempty"`
}

type RenderInvoiceResponse struct {
	InvoiceNumber string   `json:"invoice_number"`
	Template      Template `json:"template"`
	ContentType   string   `json:"content_type"`
	RenderedHTML  string   `json:"rendered_html"`
}

type PDFDocument struct {
	Filename string
	Content  []byte
}

type SendRequest struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

type Service interface {
	Create(ctx context.Context, req CreateRequest) (Invoice, error)
	GetByID(ctx context.Context, id string) (Invoice, error)
	List(ctx context.Context, req ListInvoiceRequest) (ListInvoiceResponse, error)
	Update(ctx context.Context, req UpdateRequest) (Invoice, error)
	Delete(ctx context.Context, id string) error

	AddItem(ctx context.Context, invoiceID string, req ItemRequest) (Invoice, error)
	UpdateItem(ctx context.Context, invoiceID, itemID string, update ItemUpdate) (Invoice, error)
	RemoveItem(ctx context.Context, invoiceID, itemID string) (Invoice, error)
	SetTaxRate(ctx context.Context, invoiceID string, taxRate float64) (Invoice, error)
	TransitionStatus(ctx context.Context, invoiceID string, status InvoiceStatus) (Invoice, error)

	RenderInvoice(ctx context.Context, invoiceID string, template string) (RenderInvoiceResponse, error)
	ExportPDF(ctx context.Context, invoiceID string) (PDFDocument, error)
	Send(ctx context.Context, invoiceID string, req SendRequest) error
}
