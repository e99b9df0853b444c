package domain

import "fmt"

// statusTransitions lists the allowed moves. sent→draft and paid→sent are
// reopen paths.
var statusTransitions = map[InvoiceStatus][]InvoiceStatus{
	InvoiceStatusDraft: {InvoiceStatusSent},
	InvoiceStatusSent:  {InvoiceStatusPaid, InvoiceStatusDraft},
	InvoiceStatusPaid:  {InvoiceStatusSent},
}

// ParseStatus validates a raw status value.
func ParseStatus(raw string) (InvoiceStatus, error) {
	s := InvoiceStatus(raw)
	if _, ok := statusTransitions[s]; !ok {
		return "", NewValidationError("status", ErrInvalidStatus, fmt.Sprintf("unknown status %q", raw))
	}
	return s, nil
}

// Valid reports whether s is a known status.
func (s InvoiceStatus) Valid() bool {
	_, ok := statusTransitions[s]
	return ok
}

// CanTransition reports whether from→to is allowed. A same-state move is a no-op
// and always allowed.
func CanTransition(from, to InvoiceStatus) bool {
	if !from.Valid() || !to.Valid() {
		return false
	}
	if from == to {
		return true
	}
	for _, next := range statusTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Transition validates and returns the target status.
func Transition(from, to InvoiceStatus) (InvoiceStatus, error) {
	if !to.Valid() {
		return from, NewValidationError("status", ErrInvalidStatus, fmt.Sprintf("unknown status %q", to))
	}
	if !CanTransition(from, to) {
		return from, fmt.Errorf("%w: %s -> %s", ErrInvalidStatusTransition, from, to)
	}
	return to, nil
}
