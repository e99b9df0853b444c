package domain

import "context"

// Repository is the persistence port for invoices keyed by id.
type Repository interface {
	Insert(ctx context.Context, inv Invoice) error
	Update(ctx context.Context, inv Invoice) error
	FindByID(ctx context.Context, id string) (*Invoice, error)
	// FindByShareToken looks an invoice up by the token at the end of its
	// shareable link.
	FindByShareToken(ctx context.Context, token string) (*Invoice, error)
	List(ctx context.Context) ([]Invoice, error)
	Delete(ctx context.Context, id string) error
	// NextSequence returns the next value of a monotonic counter scoped to key.
	NextSequence(ctx context.Context, key string) (int64, error)
}
