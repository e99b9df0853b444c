package domain

import "errors"

var (
	ErrInvalidQuantity         = errors.New("invalid_quantity")
	ErrInvalidRate             = errors.New("invalid_rate")
	ErrInvalidAmount           = errors.New("invalid_amount")
	ErrInvalidTaxRate          = errors.New("invalid_tax_rate")
	ErrInvalidDate             = errors.New("invalid_date")
	ErrInvalidDueDate          = errors.New("invalid_due_date")
	ErrInvalidStatus           = errors.New("invalid_status")
	ErrInvalidStatusTransition = errors.New("invalid_status_transition")
	ErrInvalidRecurrence       = errors.New("invalid_recurrence")
	ErrUnknownCurrency         = errors.New("unknown_currency")
	ErrUnknownTemplate         = errors.New("unknown_template")
	ErrInvalidInvoiceID        = errors.New("invalid_invoice_id")
	ErrInvoiceNotFound         = errors.New("invoice_not_found")
	ErrItemNotFound            = errors.New("invoice_item_not_found")
	ErrLastItem                = errors.New("invoice_requires_item")
	ErrInvalidItemUpdate       = errors.New("invalid_item_update")
	ErrDuplicateInvoiceNumber  = errors.New("duplicate_invoice_number")
	ErrInvoiceNumbersExhausted = errors.New("invoice_numbers_exhausted")
	ErrMissingRecipient        = errors.New("missing_recipient")
	ErrSendRateLimited         = errors.New("send_rate_limited")
	ErrSendInProgress          = errors.New("send_in_progress")
)

// ValidationError reports a rejected input at the domain boundary.
// It unwraps to one of the sentinel errors above.
type ValidationError struct {
	Field   string
	Err     error
	Message string
}

func NewValidationError(field string, err error, message string) *ValidationError {
	return &ValidationError{Field: field, Err: err, Message: message}
}

func (e *ValidationError) Error() string {
	if e.Message == "" {
		return e.Field + ": " + e.Err.Error()
	}
	return e.Field + ": " + e.Message
}

func (e *ValidationError) Unwrap() error { return e.Err }

// Code returns the sentinel code, e.g. "invalid_tax_rate".
func (e *ValidationError) Code() string {
	if e.Err == nil {
		return "invalid_request"
	}
	return e.Err.Error()
}

// IsValidation reports whether err carries a ValidationError.
func IsValidation(err error) bool {
	var vErr *ValidationError
	return errors.As(err, &vErr)
}
