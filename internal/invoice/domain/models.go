// Package domain contains the invoice entity model and its invariants.
package domain

import (
	"strings"
	"time"
)

// InvoiceStatus represents invoice lifecycle states.
type InvoiceStatus string

const (
	InvoiceStatusDraft InvoiceStatus = "draft"
	InvoiceStatusSent  InvoiceStatus = "sent"
	InvoiceStatusPaid  InvoiceStatus = "paid"
)

// Currency is an ISO 4217 code supported by the formatter table.
type Currency string

const (
	CurrencyINR Currency = "INR"
	CurrencyUSD Currency = "USD"
	CurrencyEUR Currency = "EUR"
	CurrencyGBP Currency = "GBP"
)

// Template selects the visual variant of a rendered invoice.
type Template string

const (
	TemplateModern  Template = "modern"
	TemplateClassic Template = "classic"
	TemplateMinimal Template = "minimal"
)

// RecurringFrequency is the cadence of a recurring invoice.
type RecurringFrequency string

const (
	RecurringWeekly    RecurringFrequency = "weekly"
	RecurringMonthly   RecurringFrequency = "monthly"
	RecurringQuarterly RecurringFrequency = "quarterly"
)

// Party is one address block (sender or client). All fields are free text.
type Party struct {
	Name    string
	Email   string
	Phone   string
	Address string
}

// InvoiceItem represents a line on an invoice.
// Amount is derived from Quantity and Rate by the calculation engine.
type InvoiceItem struct {
	ID          string  `json:"id"`
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`
	Rate        Money   `json:"rate"`
	Amount      Money   `json:"amount"`
}

// Invoice is a single invoice document with its computed totals.
type Invoice struct {
	ID            string `json:"id"`
	InvoiceNumber string `json:"invoiceNumber"`
	Date          Date   `json:"date"`
	DueDate       Date   `json:"dueDate"`

	FromName    string `json:"fromName"`
	FromEmail   string `json:"fromEmail"`
	FromPhone   string `json:"fromPhone"`
	FromAddress string `json:"fromAddress"`
	CompanyLogo string `json:"companyLogo,omitempty"`

	ToName    string `json:"toName"`
	ToEmail   string `json:"toEmail"`
	ToPhone   string `json:"toPhone"`
	ToAddress string `json:"toAddress"`

	Items []InvoiceItem `json:"items"`

	Subtotal  Money    `json:"subtotal"`
	TaxRate   float64  `json:"taxRate"`
	TaxAmount Money    `json:"taxAmount"`
	Total     Money    `json:"total"`
	Currency  Currency `json:"currency"`

	Notes               string `json:"notes"`
	Terms               string `json:"terms"`
	PaymentInstructions string `json:"paymentInstructions"`

	Status    InvoiceStatus `json:"status"`
	CreatedAt time.Time     `json:"createdAt"`
	UpdatedAt time.Time     `json:"updatedAt"`

	Template           Template           `json:"template"`
	IsRecurring        bool               `json:"isRecurring"`
	RecurringFrequency RecurringFrequency `json:"recurringFrequency,omitempty"`
	NextDueDate        *Date              `json:"nextDueDate,omitempty"`
	ShareableLink      string             `json:"shareableLink,omitempty"`
	PaymentLink        string             `json:"paymentLink,omitempty"`
}

// From returns the sender block.
func (i Invoice) From() Party {
	return Party{Name: i.FromName, Email: i.FromEmail, Phone: i.FromPhone, Address: i.FromAddress}
}

// To returns the client block.
func (i Invoice) To() Party {
	return Party{Name: i.ToName, Email: i.ToEmail, Phone: i.ToPhone, Address: i.ToAddress}
}

// Clone returns a copy that shares no mutable state with i.
func (i Invoice) Clone() Invoice {
	out := i
	if i.Items != nil {
		out.Items = make([]InvoiceItem, len(i.Items))
		copy(out.Items, i.Items)
	}
	if i.NextDueDate != nil {
		d := *i.NextDueDate
		out.NextDueDate = &d
	}
	return out
}

// ItemIndex returns the position of the item with the given id, or -1.
func (i Invoice) ItemIndex(itemID string) int {
	for idx := range i.Items {
		if i.Items[idx].ID == itemID {
			return idx
		}
	}
	return -1
}

// SharePathPrefix precedes the share token in a shareable link.
const SharePathPrefix = "/invoice/"

// ShareToken returns the token part of the shareable link, or "".
func (i Invoice) ShareToken() string {
	idx := strings.LastIndex(i.ShareableLink, SharePathPrefix)
	if idx < 0 {
		return ""
	}
	return strings.Trim(i.ShareableLink[idx+len(SharePathPrefix):], "/")
}
