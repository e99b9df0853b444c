package repository

import (
	"time"

	"github.com/smallbiznis/invoicebuilder/internal/invoice/domain"
	"gorm.io/datatypes"
)

type invoiceRecord struct {
	ID            string         `gorm:"primaryKey;size:32"`
	InvoiceNumber string         `gorm:"size:64;not null;uniqueIndex:idx_invoices_number"`
	IssueDate     datatypes.Date `gorm:"not null"`
	DueDate       datatypes.Date `gorm:"not null"`

	FromName    string
	FromEmail   string
	FromPhone   string
	FromAddress string
	CompanyLogo string

	ToName    string
	ToEmail   string
	ToPhone   string
	ToAddress string

	Subtotal  int64   `gorm:"not null"`
	TaxRate   float64 `gorm:"not null"`
	TaxAmount int64   `gorm:"not null"`
	Total     int64   `gorm:"not null"`
	Currency  string  `gorm:"size:3;not null"`

	Notes               string
	Terms               string
	PaymentInstructions string

	Status             string `gorm:"size:16;not null;index"`
	Template           string `gorm:"size:16;not null"`
	IsRecurring        bool
	RecurringFrequency string `gorm:"size:16"`
	NextDueDate        *datatypes.Date
	ShareableLink      string
	ShareToken         string `gorm:"size:32;index:idx_invoices_share_token"`
	PaymentLink        string

	// Timestamps come from the service clock, not from gorm.
	CreatedAt time.Time `gorm:"not null;index;autoCreateTime:false"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime:false"`
}

func (invoiceRecord) TableName() string { return "invoices" }

type itemRecord struct {
	ID          string  `gorm:"primaryKey;size:64"`
	InvoiceID   string  `gorm:"size:32;not null;index:idx_invoice_items_invoice"`
	Position    int     `gorm:"not null"`
	Description string
	Quantity    float64 `gorm:"not null"`
	Rate        int64   `gorm:"not null"`
	Amount      int64   `gorm:"not null"`
}

func (itemRecord) TableName() string { return "invoice_items" }

type sequenceRecord struct {
	Name  string `gorm:"primaryKey;size:64"`
	Value int64  `gorm:"not null"`
}

func (sequenceRecord) TableName() string { return "invoice_sequences" }

// Models lists the tables owned by this package, for AutoMigrate.
func Models() []any {
	return []any{&invoiceRecord{}, &itemRecord{}, &sequenceRecord{}}
}

func toRecord(inv domain.Invoice) (invoiceRecord, []itemRecord) {
	rec := invoiceRecord{
		ID:                  inv.ID,
		InvoiceNumber:       inv.InvoiceNumber,
		IssueDate:           datatypes.Date(inv.Date.Time()),
		DueDate:             datatypes.Date(inv.DueDate.Time()),
		FromName:            inv.FromName,
		FromEmail:           inv.FromEmail,
		FromPhone:           inv.FromPhone,
		FromAddress:         inv.FromAddress,
		CompanyLogo:         inv.CompanyLogo,
		ToName:              inv.ToName,
		ToEmail:             inv.ToEmail,
		ToPhone:             inv.ToPhone,
		ToAddress:           inv.ToAddress,
		Subtotal:            int64(inv.Subtotal),
		TaxRate:             inv.TaxRate,
		TaxAmount:           int64(inv.TaxAmount),
		Total:               int64(inv.Total),
		Currency:            string(inv.Currency),
		Notes:               inv.Notes,
		Terms:               inv.Terms,
		PaymentInstructions: inv.PaymentInstructions,
		Status:              string(inv.Status),
		Template:            string(inv.Template),
		IsRecurring:         inv.IsRecurring,
		RecurringFrequency:  string(inv.RecurringFrequency),
		ShareableLink:       inv.ShareableLink,
		ShareToken:          inv.ShareToken(),
		PaymentLink:         inv.PaymentLink,
		CreatedAt:           inv.CreatedAt.UTC(),
		UpdatedAt:           inv.UpdatedAt.UTC(),
	}
	if inv.NextDueDate != nil {
		next := datatypes.Date(inv.NextDueDate.Time())
		rec.NextDueDate = &next
	}

	items := make([]itemRecord, 0, len(inv.Items))
	for i, item := range inv.Items {
		items = append(items, itemRecord{
			ID:          item.ID,
			InvoiceID:   inv.ID,
			Position:    i,
			Description: item.Description,
			Quantity:    item.Quantity,
			Rate:        int64(item.Rate),
			Amount:      int64(item.Amount),
		})
	}
	return rec, items
}

func fromRecord(rec invoiceRecord, items []itemRecord) domain.Invoice {
	inv := domain.Invoice{
		ID:                  rec.ID,
		InvoiceNumber:       rec.InvoiceNumber,
		Date:                domain.DateOf(time.Time(rec.IssueDate)),
		DueDate:             domain.DateOf(time.Time(rec.DueDate)),
		FromName:            rec.FromName,
		FromEmail:           rec.FromEmail,
		FromPhone:           rec.FromPhone,
		FromAddress:         rec.FromAddress,
		CompanyLogo:         rec.CompanyLogo,
		ToName:              rec.ToName,
		ToEmail:             rec.ToEmail,
		ToPhone:             rec.ToPhone,
		ToAddress:           rec.ToAddress,
		Items:               make([]domain.InvoiceItem, 0, len(items)),
		Subtotal:            domain.Money(rec.Subtotal),
		TaxRate:             rec.TaxRate,
		TaxAmount:           domain.Money(rec.TaxAmount),
		Total:               domain.Money(rec.Total),
		Currency:            domain.Currency(rec.Currency),
		Notes:               rec.Notes,
		Terms:               rec.Terms,
		PaymentInstructions: rec.PaymentInstructions,
		Status:              domain.InvoiceStatus(rec.Status),
		Template:            domain.Template(rec.Template),
		IsRecurring:         rec.IsRecurring,
		RecurringFrequency:  domain.RecurringFrequency(rec.RecurringFrequency),
		ShareableLink:       rec.ShareableLink,
		PaymentLink:         rec.PaymentLink,
		CreatedAt:           rec.CreatedAt.UTC(),
		UpdatedAt:           rec.UpdatedAt.UTC(),
	}
	if rec.NextDueDate != nil {
		next := domain.DateOf(time.Time(*rec.NextDueDate))
		inv.NextDueDate = &next
	}
	for _, item := range items {
		inv.Items = append(inv.Items, domain.InvoiceItem{
			ID:          item.ID,
			Description: item.Description,
			Quantity:    item.Quantity,
			Rate:        domain.Money(item.Rate),
			Amount:      domain.Money(item.Amount),
		})
	}
	return inv
}
